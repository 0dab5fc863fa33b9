package md2img

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	_ Browser = (*playwrightBrowser)(nil)
	_ Page    = (*playwrightPage)(nil)
)

// playwrightBrowser drives Chromium through the Playwright driver. Every page
// gets its own browser context, so pages are always isolated.
type playwrightBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func launchPlaywright(cfg browserConfig) (Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: starting playwright driver: %v", ErrBrowserConnect, err)
	}

	opts := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(true)}
	if cfg.Bin != "" {
		opts.ExecutablePath = playwright.String(cfg.Bin)
	}
	if cfg.NoSandbox {
		opts.Args = []string{"--no-sandbox", "--disable-setuid-sandbox", "--disable-dev-shm-usage"}
	}

	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return &playwrightBrowser{pw: pw, browser: browser}, nil
}

func (b *playwrightBrowser) Name() string { return string(EnginePlaywright) }

func (b *playwrightBrowser) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bctx, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
		DeviceScaleFactor: playwright.Float(opts.Viewport.DeviceScaleFactor),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating browsing context: %v", ErrPageCreate, err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return &playwrightPage{context: bctx, page: page}, nil
}

func (b *playwrightBrowser) Close() error {
	return errors.Join(b.browser.Close(), b.pw.Stop())
}

type playwrightPage struct {
	context playwright.BrowserContext
	page    playwright.Page
}

func (p *playwrightPage) LoadContent(ctx context.Context, html string, wait WaitCondition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwrightWaitState(wait),
		Timeout:   playwrightTimeout(ctx),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return nil
}

func (p *playwrightPage) LoadURL(ctx context.Context, url string, wait WaitCondition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwrightWaitState(wait),
		Timeout:   playwrightTimeout(ctx),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return nil
}

func (p *playwrightPage) WaitUntil(ctx context.Context, predicate string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.WaitForFunction(predicate, nil, playwright.PageWaitForFunctionOptions{
		Timeout: playwrightTimeout(ctx),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return nil
}

func (p *playwrightPage) BringToFront(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.page.BringToFront(); err != nil {
		return fmt.Errorf("%w: activating page: %v", ErrPageLoad, err)
	}
	return nil
}

// Screenshot captures the full page. Playwright cannot encode WebP.
func (p *playwrightPage) Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := playwright.PageScreenshotOptions{
		FullPage:       playwright.Bool(true),
		OmitBackground: playwright.Bool(opts.Background == BackgroundTransparent),
		Timeout:        playwrightTimeout(ctx),
	}
	switch opts.Format {
	case FormatPNG:
		req.Type = playwright.ScreenshotTypePng
	case FormatJPEG:
		req.Type = playwright.ScreenshotTypeJpeg
		if opts.Quality > 0 {
			req.Quality = playwright.Int(opts.Quality)
		}
	default:
		return nil, fmt.Errorf("%w: %s with %s", ErrUnsupportedFormat, opts.Format, EnginePlaywright)
	}

	img, err := p.page.Screenshot(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}
	return img, nil
}

func (p *playwrightPage) Close() error {
	return errors.Join(p.page.Close(), p.context.Close())
}

// playwrightWaitState maps a readiness condition to Playwright's load
// states. Playwright has a single network-idle state (no connections for
// 500ms), used for both thresholds.
func playwrightWaitState(w WaitCondition) *playwright.WaitUntilState {
	switch w {
	case WaitDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	case WaitNetworkIdle0, WaitNetworkIdle2:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateLoad
	}
}

// playwrightTimeout converts the ctx deadline to Playwright milliseconds.
// nil keeps Playwright's default.
func playwrightTimeout(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return playwright.Float(ms)
}
