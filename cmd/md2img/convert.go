package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	md2img "github.com/alnah/go-md2img"
	"github.com/alnah/go-md2img/internal/config"
	"github.com/alnah/go-md2img/internal/hints"
)

// runConvert converts a Markdown file, or every Markdown file under a
// directory, to images.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, envCfg, err := loadConfig(flags.common, &flags.render, env)
	if err != nil {
		return err
	}

	if len(positional) == 0 {
		return fmt.Errorf("%w: convert needs a Markdown file or directory", ErrNoInput)
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: convert takes one input, got %d", ErrUsage, len(positional))
	}
	inputPath := positional[0]

	outputDir := flags.output
	if outputDir == "" {
		outputDir = envCfg.OutputDir
	}

	format, _ := md2img.ParseImageFormat(cfg.Render.Format)
	files, err := discoverFiles(inputPath, outputDir, format)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, inputPath)
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	size := min(md2img.ResolvePoolSize(workers), len(files))

	logger := newLogger(env.Stderr, flags.common)
	logger.Debug("starting conversion", "files", len(files), "workers", size, "format", format)

	pool := env.NewPool(size, converterOptions(cfg, logger)...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing converters", "error", err)
		}
	}()

	results := convertBatch(ctx, pool, files, flags.html)
	summary := printResults(results, flags.common, env)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed: %w%s",
			summary.Failed, len(results), summary.FirstErr, hintFor(summary.FirstErr, cfg))
	}
	return nil
}

// converterOptions builds converter options from the effective config.
func converterOptions(cfg *config.Config, logger *slog.Logger) []md2img.Option {
	return append(cfg.Options(), md2img.WithLogger(logger))
}

// hintFor returns an actionable hint for common failures.
func hintFor(err error, cfg *config.Config) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, md2img.ErrBrowserConnect):
		return hints.ForBrowserConnect(cfg.Browser.Engine)
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, md2img.ErrStyleNotFound):
		return hints.ForStyleNotFound(md2img.StyleNames())
	case errors.Is(err, md2img.ErrUnsupportedFormat):
		return hints.ForUnsupportedFormat()
	case errors.Is(err, md2img.ErrArtifactWrite), errors.Is(err, md2img.ErrArtifactClear):
		return hints.ForWorkDir()
	case errors.Is(err, ErrWriteImage):
		return hints.ForOutputDirectory()
	}
	return ""
}
