// Package chat implements the conversational convert command: a message with
// Markdown becomes an image reply, an empty message prompts for the text.
package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	md2img "github.com/alnah/go-md2img"
)

// Replies sent to the user.
const (
	PromptMessage  = "Enter the Markdown text to convert:"
	TimeoutMessage = "Input timed out."
	FailureMessage = "Image generation failed, check the logs."
)

// DefaultPromptTimeout bounds how long Handle waits for prompted input.
const DefaultPromptTimeout = 60 * time.Second

// ErrPromptTimeout is returned by sessions when no input arrives in time.
var ErrPromptTimeout = errors.New("prompt timed out")

// Session is a conversation with one user.
type Session interface {
	Send(ctx context.Context, text string) error
	// Prompt waits up to timeout for the next message.
	Prompt(ctx context.Context, timeout time.Duration) (string, error)
}

// Renderer converts Markdown to an image.
type Renderer interface {
	ConvertToImage(ctx context.Context, markdown string) (*md2img.Result, error)
}

// Reply is either a text message or an image.
type Reply struct {
	Text     string
	Image    []byte
	MIMEType string
}

// IsImage reports whether the reply carries an image.
func (r Reply) IsImage() bool {
	return len(r.Image) > 0
}

// Command handles convert requests for a session.
type Command struct {
	renderer Renderer
	timeout  time.Duration
	logger   *slog.Logger
}

// NewCommand creates a Command. A non-positive timeout uses
// DefaultPromptTimeout; a nil logger discards.
func NewCommand(r Renderer, timeout time.Duration, logger *slog.Logger) *Command {
	if timeout <= 0 {
		timeout = DefaultPromptTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Command{renderer: r, timeout: timeout, logger: logger}
}

// Handle converts text, prompting for it first when empty. Conversion
// failures are logged and answered with FailureMessage.
func (c *Command) Handle(ctx context.Context, s Session, text string) Reply {
	if strings.TrimSpace(text) == "" {
		if err := s.Send(ctx, PromptMessage); err != nil {
			c.logger.Warn("sending prompt failed", "error", err)
			return Reply{Text: FailureMessage}
		}
		input, err := s.Prompt(ctx, c.timeout)
		if err != nil && !errors.Is(err, ErrPromptTimeout) {
			c.logger.Warn("reading prompt failed", "error", err)
		}
		if err != nil || strings.TrimSpace(input) == "" {
			return Reply{Text: TimeoutMessage}
		}
		text = input
	}

	res, err := c.renderer.ConvertToImage(ctx, text)
	if err != nil {
		c.logger.Warn("markdown conversion failed", "error", err)
		return Reply{Text: FailureMessage}
	}
	return Reply{Image: res.Image, MIMEType: res.MIMEType}
}
