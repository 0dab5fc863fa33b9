package md2img

import (
	"context"
	"os"
)

// Browser is a running headless browser able to open pages.
type Browser interface {
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
	Close() error
	Name() string
}

// Page is a single browser tab, possibly inside its own browsing context.
// Close releases the tab and its context.
type Page interface {
	LoadContent(ctx context.Context, html string, wait WaitCondition) error
	LoadURL(ctx context.Context, url string, wait WaitCondition) error
	// WaitUntil blocks until the JavaScript predicate returns true.
	WaitUntil(ctx context.Context, predicate string) error
	BringToFront(ctx context.Context) error
	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)
	Close() error
}

// PageOptions configures a new page.
type PageOptions struct {
	Viewport Viewport
	Isolated bool // open the page in a fresh browsing context
}

// ScreenshotOptions configures a full-page capture.
type ScreenshotOptions struct {
	Format     ImageFormat
	Quality    int // 1-100 for lossy formats, 0 for the engine default
	Background Background
}

// browserConfig holds launch settings shared by all engines.
type browserConfig struct {
	Bin       string // browser executable, empty to auto-detect
	NoSandbox bool
}

// browserLauncher starts a browser for an engine.
type browserLauncher func(cfg browserConfig) (Browser, error)

// launcherFor returns the launcher of engine e.
func launcherFor(e Engine) browserLauncher {
	if e == EnginePlaywright {
		return launchPlaywright
	}
	return launchRod
}

// resolveBrowserConfig applies environment overrides. ROD_BROWSER_BIN points
// at a pre-installed browser in containers; containers and CI need the
// sandbox disabled.
func resolveBrowserConfig(bin string) browserConfig {
	cfg := browserConfig{Bin: bin}
	if cfg.Bin == "" {
		cfg.Bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		cfg.NoSandbox = true
	}
	return cfg
}
