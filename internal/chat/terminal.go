package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// MaxPromptBytes caps prompted input.
const MaxPromptBytes = 1 << 20

// TerminalSession is a Session over a reader and a writer. Prompt reads
// until end of input.
type TerminalSession struct {
	in  io.Reader
	out io.Writer
}

// NewTerminalSession creates a session reading from in and writing to out.
func NewTerminalSession(in io.Reader, out io.Writer) *TerminalSession {
	return &TerminalSession{in: in, out: out}
}

// Send writes text followed by a newline.
func (s *TerminalSession) Send(_ context.Context, text string) error {
	_, err := fmt.Fprintln(s.out, text)
	return err
}

type promptResult struct {
	text string
	err  error
}

// Prompt reads everything up to EOF. The read cannot be interrupted, so on
// timeout the reader goroutine is abandoned.
func (s *TerminalSession) Prompt(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan promptResult, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(s.in, MaxPromptBytes))
		done <- promptResult{text: string(data), err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrPromptTimeout
		}
		return "", ctx.Err()
	}
}
