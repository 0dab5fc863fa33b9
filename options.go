package md2img

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds the settings collected from options.
type converterConfig struct {
	viewport         Viewport
	format           ImageFormat
	quality          int
	wait             WaitCondition
	theme            ThemeSelection
	background       Background
	exportMode       ExportMode
	workDir          string
	autoClear        bool
	allowScripts     bool
	allowedProtocols []string
	browserBin       string
	engine           Engine
	timeout          time.Duration
	cssInput         string
	assetPath        string
	isolated         bool
	retention        time.Duration
	sweepSchedule    string
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 30 * time.Second

// MaxQuality is the highest lossy encoding quality.
const MaxQuality = 100

func defaultConverterConfig() converterConfig {
	return converterConfig{
		viewport:   DefaultViewport(),
		format:     FormatPNG,
		wait:       WaitLoad,
		background: BackgroundOpaque,
		exportMode: ExportContent,
		autoClear:  true,
		engine:     EngineRod,
		timeout:    defaultTimeout,
	}
}

// validate checks option values that come from users rather than code.
func (c converterConfig) validate() error {
	if err := c.viewport.Validate(); err != nil {
		return err
	}
	if err := c.format.Validate(); err != nil {
		return err
	}
	if c.quality < 0 || c.quality > MaxQuality {
		return fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidQuality, c.quality, MaxQuality)
	}
	if err := c.wait.Validate(); err != nil {
		return err
	}
	if err := c.background.Validate(); err != nil {
		return err
	}
	if err := c.exportMode.Validate(); err != nil {
		return err
	}
	if err := c.engine.Validate(); err != nil {
		return err
	}
	if c.engine == EnginePlaywright && c.format == FormatWebP {
		return fmt.Errorf("%w: %s with %s", ErrUnsupportedFormat, c.format, c.engine)
	}
	return nil
}

// WithViewport sets the browser window size and device scale factor.
func WithViewport(v Viewport) Option {
	return func(c *Converter) {
		c.cfg.viewport = v
	}
}

// WithFormat sets the image encoding.
func WithFormat(f ImageFormat) Option {
	return func(c *Converter) {
		c.cfg.format = f
	}
}

// WithQuality sets the encoding quality (1-100) for JPEG and WebP. Zero
// keeps the engine default. Ignored for PNG.
func WithQuality(q int) Option {
	return func(c *Converter) {
		c.cfg.quality = q
	}
}

// WithWaitUntil sets the readiness condition awaited before capture.
func WithWaitUntil(w WaitCondition) Option {
	return func(c *Converter) {
		c.cfg.wait = w
	}
}

// WithTheme selects a preset or custom theme. It is resolved once by
// NewConverter.
func WithTheme(sel ThemeSelection) Option {
	return func(c *Converter) {
		c.cfg.theme = sel
	}
}

// WithBackground sets the background compositing policy.
func WithBackground(b Background) Option {
	return func(c *Converter) {
		c.cfg.background = b
	}
}

// WithExportMode selects between content injection and the file round-trip.
func WithExportMode(m ExportMode) Option {
	return func(c *Converter) {
		c.cfg.exportMode = m
	}
}

// WithWorkDir sets the artifact directory used by ExportFile.
func WithWorkDir(dir string) Option {
	return func(c *Converter) {
		c.cfg.workDir = dir
	}
}

// WithAutoClear controls whether artifacts are deleted after a successful
// conversion. Disabled, they accumulate until removed by a Sweeper or by
// hand.
func WithAutoClear(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.autoClear = enabled
	}
}

// WithScriptExecution keeps scripts, frames and event handlers found in the
// Markdown. Off by default.
func WithScriptExecution(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.allowScripts = enabled
	}
}

// WithAllowedProtocols replaces the URL scheme whitelist for links and
// images.
func WithAllowedProtocols(protocols ...string) Option {
	return func(c *Converter) {
		c.cfg.allowedProtocols = append([]string(nil), protocols...)
	}
}

// WithBrowserBin sets the browser executable. Empty auto-detects.
func WithBrowserBin(path string) Option {
	return func(c *Converter) {
		c.cfg.browserBin = path
	}
}

// WithEngine selects the browser automation binding.
func WithEngine(e Engine) Option {
	return func(c *Converter) {
		c.cfg.engine = e
	}
}

// WithTimeout sets the per-conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2img: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCSS adds user CSS after the theme styles. The input is a style name
// resolved through the asset loader, a path to a .css file, or CSS content.
func WithCSS(input string) Option {
	return func(c *Converter) {
		c.cfg.cssInput = input
	}
}

// WithAssetPath sets a directory whose styles/ and templates/ override the
// built-in assets.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithAssetLoader sets a custom loader for the layout style, the document
// template and named user styles. Overrides WithAssetPath.
func WithAssetLoader(loader AssetLoader) Option {
	return func(c *Converter) {
		c.assetLoader = loader
	}
}

// WithIsolatedContext opens every page in a fresh browsing context so no
// cookies or storage leak between conversions.
func WithIsolatedContext(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.isolated = enabled
	}
}

// WithArtifactRetention starts a Sweeper that deletes artifact directories
// older than retention. An empty schedule uses DefaultSweepSchedule.
func WithArtifactRetention(retention time.Duration, schedule string) Option {
	return func(c *Converter) {
		c.cfg.retention = retention
		c.cfg.sweepSchedule = schedule
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
