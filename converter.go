package md2img

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/alnah/go-md2img/internal/fileutil"
	"github.com/alnah/go-md2img/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.CSSInjector          = (*pipeline.CSSInjection)(nil)
)

// Conversion stages, reported in failure logs.
const (
	stageValidate   = "validate"
	stageBrowser    = "browser"
	stageRender     = "render"
	stageArtifacts  = "artifacts"
	stagePage       = "page"
	stageLoad       = "load"
	stageScreenshot = "screenshot"
	stageVerify     = "verify"
	stageCleanup    = "cleanup"
)

// diagramsRenderedJS holds once every diagram container has its SVG.
const diagramsRenderedJS = `() => Array.from(document.querySelectorAll(".` + pipeline.DiagramClass + `"))
	.every((el) => el.querySelector("svg") !== null)`

// Converter turns Markdown into an image through a headless browser.
// Create with NewConverter, call Convert or ConvertToImage, and Close when
// done. The browser is started on the first conversion and reused.
type Converter struct {
	cfg    converterConfig
	theme  Theme
	logger *slog.Logger
	css    string

	assetLoader   AssetLoader
	preprocessor  pipeline.MarkdownPreprocessor
	htmlConverter pipeline.HTMLConverter
	policy        pipeline.ContentPolicy
	builder       *pipeline.DocumentBuilder
	artifacts     *artifactStore
	sweeper       *Sweeper

	launch  browserLauncher
	mu      sync.Mutex
	browser Browser
}

// NewConverter creates a Converter. Options are validated and the theme is
// resolved here, once. No browser is started until the first conversion.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:           defaultConverterConfig(),
		logger:        discardLogger(),
		preprocessor:  &pipeline.CommonMarkPreprocessor{},
		htmlConverter: pipeline.NewGoldmarkConverter(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.validate(); err != nil {
		return nil, err
	}

	// WithAssetLoader takes precedence over WithAssetPath.
	if c.assetLoader == nil {
		loader, err := NewAssetLoader(c.cfg.assetPath)
		if err != nil {
			return nil, err
		}
		c.assetLoader = loader
	}

	css, err := c.resolveCSS(c.cfg.cssInput)
	if err != nil {
		return nil, err
	}
	c.css = css

	c.builder, err = pipeline.NewDocumentBuilder(c.assetLoader)
	if err != nil {
		return nil, fmt.Errorf("initializing document builder: %w", err)
	}

	c.theme = ResolveTheme(c.cfg.theme)
	c.policy = pipeline.ContentPolicy{
		AllowScripts:     c.cfg.allowScripts,
		AllowedProtocols: c.cfg.allowedProtocols,
	}
	c.artifacts = newArtifactStore(c.cfg.workDir)

	if c.launch == nil {
		c.launch = launcherFor(c.cfg.engine)
	}

	if c.cfg.retention > 0 {
		c.sweeper, err = NewSweeper(c.artifacts.dir, c.cfg.retention, c.cfg.sweepSchedule, c.logger)
		if err != nil {
			return nil, err
		}
		c.sweeper.Start()
	}

	return c, nil
}

// Theme returns the theme resolved at construction.
func (c *Converter) Theme() Theme {
	return c.theme
}

// ConvertToImage converts markdown to an image with the converter settings.
func (c *Converter) ConvertToImage(ctx context.Context, markdown string) (*Result, error) {
	return c.Convert(ctx, Input{Markdown: markdown})
}

// Convert runs the full pipeline. The context bounds the whole call; the
// converter timeout applies on top of it. If input.HTMLOnly is true, the
// browser is never touched and Result.Image is nil.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
			c.logger.Error("conversion panicked", "panic", r)
		}
	}()

	if strings.TrimSpace(input.Markdown) == "" {
		return nil, c.fail(stageValidate, ErrEmptyMarkdown)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	var browser Browser
	if !input.HTMLOnly {
		if browser, err = c.ensureBrowser(ctx); err != nil {
			return nil, c.fail(stageBrowser, err)
		}
	}

	document, err := c.render(ctx, input)
	if err != nil {
		return nil, c.fail(stageRender, err)
	}

	res := &Result{HTML: []byte(document)}
	if input.HTMLOnly {
		return res, nil
	}

	var set *artifactSet
	if c.cfg.exportMode == ExportFile {
		if set, err = c.artifacts.write(input.Markdown, document); err != nil {
			return nil, c.fail(stageArtifacts, err)
		}
		c.logger.Debug("artifacts written", "dir", set.Dir)
	}

	img, stage, err := c.capture(ctx, browser, document, set)
	if err != nil {
		return nil, c.fail(stage, err)
	}

	if !mimetype.Detect(img).Is(c.cfg.format.MIMEType()) {
		err = fmt.Errorf("%w: expected %s, got %s", ErrFormatMismatch, c.cfg.format.MIMEType(), mimetype.Detect(img).String())
		return nil, c.fail(stageVerify, err)
	}

	if set != nil && c.cfg.autoClear {
		if err := c.artifacts.clear(set); err != nil {
			return nil, c.fail(stageCleanup, err)
		}
	}

	res.Image = img
	res.Format = c.cfg.format
	res.MIMEType = c.cfg.format.MIMEType()
	c.logger.Debug("conversion complete", "format", res.Format, "bytes", len(img), "engine", browser.Name())
	return res, nil
}

// render builds the complete HTML document for input.
func (c *Converter) render(ctx context.Context, input Input) (string, error) {
	md := c.preprocessor.PreprocessMarkdown(ctx, input.Markdown)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := c.htmlConverter.ToHTML(ctx, md)
	if err != nil {
		return "", fmt.Errorf("converting to HTML: %w", err)
	}

	body, err = c.policy.Apply(body)
	if err != nil {
		return "", fmt.Errorf("%w: applying content policy: %v", ErrHTMLConversion, err)
	}

	if input.SourceDir != "" {
		body, err = pipeline.RewriteRelativePaths(body, input.SourceDir)
		if err != nil {
			return "", fmt.Errorf("%w: rewriting relative paths: %v", ErrHTMLConversion, err)
		}
	}

	document, err := c.builder.Build(ctx, body, c.theme.document(), c.css)
	if err != nil {
		return "", fmt.Errorf("%w: building document: %v", ErrHTMLConversion, err)
	}
	return document, nil
}

// capture loads the document in a new page and screenshots it. The page is
// closed on every path. The returned stage names the step that failed.
func (c *Converter) capture(ctx context.Context, browser Browser, document string, set *artifactSet) ([]byte, string, error) {
	page, err := browser.NewPage(ctx, PageOptions{
		Viewport: c.cfg.viewport,
		Isolated: c.cfg.isolated,
	})
	if err != nil {
		return nil, stagePage, err
	}
	defer func() {
		if err := page.Close(); err != nil {
			c.logger.Warn("closing page", "error", err)
		}
	}()

	if set != nil {
		err = page.LoadURL(ctx, set.URL(), c.cfg.wait)
	} else {
		err = page.LoadContent(ctx, document, c.cfg.wait)
	}
	if err != nil {
		return nil, stageLoad, err
	}

	// Diagrams are drawn by a script that starts on load.
	if pipeline.HasDiagram(document) {
		if err := page.WaitUntil(ctx, diagramsRenderedJS); err != nil {
			return nil, stageLoad, fmt.Errorf("waiting for diagrams: %w", err)
		}
	}

	if err := page.BringToFront(ctx); err != nil {
		return nil, stageLoad, err
	}

	img, err := page.Screenshot(ctx, ScreenshotOptions{
		Format:     c.cfg.format,
		Quality:    c.cfg.quality,
		Background: c.cfg.background,
	})
	if err != nil {
		return nil, stageScreenshot, err
	}
	return img, "", nil
}

// ensureBrowser starts the browser on first use. A failed launch leaves the
// converter without a browser, so the next call retries.
//
// The launch may download a browser on first run, so it is bounded by ctx.
// When ctx ends first the call returns ctx's error and the launch finishes in
// the background; a browser it produces late is closed, not kept.
func (c *Converter) ensureBrowser(ctx context.Context) (Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		return c.browser, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan launchResult, 1)
	cfg := resolveBrowserConfig(c.cfg.browserBin)
	go func() {
		browser, err := c.launch(cfg)
		done <- launchResult{browser, err}
	}()

	var res launchResult
	select {
	case res = <-done:
	case <-ctx.Done():
		go c.discardLateBrowser(done)
		return nil, fmt.Errorf("launching browser: %w", ctx.Err())
	}

	if res.err != nil {
		err := res.err
		if !errors.Is(err, ErrBrowserConnect) {
			err = fmt.Errorf("%w: %v", ErrBrowserConnect, err)
		}
		return nil, err
	}

	c.logger.Debug("browser started", "engine", res.browser.Name())
	c.browser = res.browser
	return res.browser, nil
}

type launchResult struct {
	browser Browser
	err     error
}

// discardLateBrowser closes a browser whose launch outlived its caller.
func (c *Converter) discardLateBrowser(done <-chan launchResult) {
	res := <-done
	if res.err != nil || res.browser == nil {
		return
	}
	c.logger.Debug("closing browser launched after deadline", "engine", res.browser.Name())
	if err := res.browser.Close(); err != nil {
		c.logger.Warn("closing late browser", "error", err)
	}
}

// fail logs a conversion failure and returns err unchanged.
func (c *Converter) fail(stage string, err error) error {
	c.logger.Error("conversion failed", "stage", stage, "error", err)
	return err
}

// Close stops the sweeper and releases the browser. Safe to call more than
// once.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sweeper != nil {
		c.sweeper.Stop()
		c.sweeper = nil
	}

	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	return err
}

// resolveCSS turns the WithCSS input (path, CSS content, or style name) into
// CSS content.
func (c *Converter) resolveCSS(input string) (string, error) {
	if input == "" {
		return "", nil
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return "", fmt.Errorf("loading style file %q: %w", input, err)
		}
		return string(content), nil
	}

	if fileutil.IsCSS(input) {
		return input, nil
	}

	css, err := c.assetLoader.LoadStyle(input)
	if err != nil {
		return "", fmt.Errorf("loading style %q: %w", input, err)
	}
	return css, nil
}
