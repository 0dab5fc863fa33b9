package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	md2img "github.com/alnah/go-md2img"
)

// defaultDebounce is the quiet period before a change is re-rendered.
const defaultDebounce = 200 * time.Millisecond

// runWatch renders a Markdown file, then re-renders it on every change until
// ctx is cancelled.
func runWatch(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseWatchFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("%w: watch takes exactly one Markdown file", ErrUsage)
	}
	if err := validateMarkdownExtension(positional[0]); err != nil {
		return err
	}
	if flags.debounce <= 0 {
		return fmt.Errorf("%w: --debounce must be positive", ErrUsage)
	}

	cfg, _, err := loadConfig(flags.common, &flags.render, env)
	if err != nil {
		return err
	}

	input, err := filepath.Abs(positional[0])
	if err != nil {
		return err
	}
	format, _ := md2img.ParseImageFormat(cfg.Render.Format)
	file := FileToConvert{
		InputPath:  input,
		OutputPath: resolveOutputPath(input, flags.output, "", format),
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

	render := func() {
		r := convertFile(ctx, conv, file, false)
		printResults([]ConversionResult{r}, flags.common, env)
	}
	render()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(input), err)
	}
	logger.Info("watching for changes", "file", input, "output", file.OutputPath)

	watchLoop(ctx, watcher.Events, watcher.Errors, input, flags.debounce, render, logger)
	return nil
}

// watchLoop calls render once per burst of events on target. It returns when
// ctx is done or the event channel closes. render runs on the loop goroutine,
// so conversions never overlap.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, target string, debounce time.Duration, render func(), logger *slog.Logger) {
	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			logger.Debug("change detected", "file", target)
			render()

		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
