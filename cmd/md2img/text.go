package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/chat"
	"github.com/alnah/go-md2img/internal/fileutil"
)

// ErrNoImage is returned when the text command ends without an image.
var ErrNoImage = errors.New("no image produced")

// runText converts Markdown given as arguments, or prompts for it on stdin.
func runText(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseTextFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(flags.common, &flags.render, env)
	if err != nil {
		return err
	}

	timeout := cfg.Prompt.Timeout
	if flags.promptTimeout > 0 {
		timeout = flags.promptTimeout
	}

	logger := newLogger(env.Stderr, flags.common)
	conv, err := env.NewConverter(converterOptions(cfg, logger)...)
	if err != nil {
		return err
	}
	defer func() {
		if err := conv.Close(); err != nil {
			logger.Warn("closing converter", "error", err)
		}
	}()

	cmd := chat.NewCommand(conv, timeout, logger)
	session := chat.NewTerminalSession(env.Stdin, env.Stderr)
	reply := cmd.Handle(ctx, session, strings.Join(positional, " "))
	if !reply.IsImage() {
		return fmt.Errorf("%w: %s", ErrNoImage, reply.Text)
	}

	format, _ := md2img.ParseImageFormat(cfg.Render.Format)
	output := flags.output
	if output == "" {
		output = "md2img-" + env.Now().Format("20060102-150405") + "." + format.Extension()
	}
	return writeImage(env, output, reply.Image, flags.common.quiet)
}

// writeImage writes data to path, or to stdout when path is "-".
func writeImage(env *Environment, path string, data []byte, quiet bool) error {
	if path == "-" {
		if _, err := env.Stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteImage, err)
		}
		return nil
	}

	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteImage, err)
	}
	// #nosec G306 -- images are meant to be readable
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteImage, err)
	}
	if !quiet {
		fmt.Fprintf(env.Stdout, "Created %s\n", path)
	}
	return nil
}
