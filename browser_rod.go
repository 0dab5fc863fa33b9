package md2img

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-md2img/internal/process"
)

var (
	_ Browser = (*rodBrowser)(nil)
	_ Page    = (*rodPage)(nil)
)

// domReadyJS resolves once the DOM is parsed.
const domReadyJS = `() => document.readyState !== "loading"`

// rodBrowser drives Chrome over CDP with go-rod. Rod downloads Chromium on
// first run when no browser is installed.
type rodBrowser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func launchRod(cfg browserConfig) (Browser, error) {
	l := launcher.New()
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.NoSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return &rodBrowser{launcher: l, browser: browser}, nil
}

func (b *rodBrowser) Name() string { return string(EngineRod) }

// NewPage opens a blank tab. The tab is not bound to ctx so it can still be
// closed after ctx expires; each page operation binds its own context.
func (b *rodBrowser) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	owner := b.browser
	var incognito *rod.Browser
	if opts.Isolated {
		inc, err := b.browser.Incognito()
		if err != nil {
			return nil, fmt.Errorf("%w: creating browsing context: %v", ErrPageCreate, err)
		}
		owner, incognito = inc, inc
	}

	page, err := owner.Page(proto.TargetCreateTarget{})
	if err != nil {
		if incognito != nil {
			_ = incognito.Close()
		}
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	p := &rodPage{page: page, incognito: incognito}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Viewport.Width,
		Height:            opts.Viewport.Height,
		DeviceScaleFactor: opts.Viewport.DeviceScaleFactor,
	})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageCreate, err)
	}
	return p, nil
}

// Close shuts the browser down and kills any helper processes left behind.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	pid := b.launcher.PID()
	b.launcher.Kill()
	process.KillProcessGroup(pid)
	b.launcher.Cleanup()
	return err
}

type rodPage struct {
	page      *rod.Page
	incognito *rod.Browser
}

func (p *rodPage) LoadContent(ctx context.Context, html string, wait WaitCondition) error {
	page := p.page.Context(ctx)
	return loadRodPage(ctx, page, wait, func() error {
		return page.SetDocumentContent(html)
	})
}

func (p *rodPage) LoadURL(ctx context.Context, url string, wait WaitCondition) error {
	page := p.page.Context(ctx)
	return loadRodPage(ctx, page, wait, func() error {
		return page.Navigate(url)
	})
}

// loadRodPage runs open and blocks until wait holds. Network-idle waits are
// armed before open so early requests are counted.
func loadRodPage(ctx context.Context, page *rod.Page, wait WaitCondition, open func() error) error {
	var idle func()
	switch wait {
	case WaitNetworkIdle0:
		idle = page.WaitRequestIdle(networkIdle0Quiet, nil, nil, nil)
	case WaitNetworkIdle2:
		idle = page.WaitRequestIdle(networkIdle2Quiet, nil, nil, nil)
	}

	if err := open(); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	var err error
	switch wait {
	case WaitDOMContentLoaded:
		err = page.Wait(rod.Eval(domReadyJS))
	case WaitNetworkIdle0, WaitNetworkIdle2:
		idle()
		err = ctx.Err()
	default:
		err = page.WaitLoad()
	}
	if err != nil {
		return fmt.Errorf("%w: waiting for %s: %v", ErrPageLoad, wait, err)
	}
	return nil
}

func (p *rodPage) WaitUntil(ctx context.Context, predicate string) error {
	if err := p.page.Context(ctx).Wait(rod.Eval(predicate)); err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return nil
}

func (p *rodPage) BringToFront(ctx context.Context) error {
	if _, err := p.page.Context(ctx).Activate(); err != nil {
		return fmt.Errorf("%w: activating page: %v", ErrPageLoad, err)
	}
	return nil
}

func (p *rodPage) Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error) {
	page := p.page.Context(ctx)

	if opts.Background == BackgroundTransparent {
		alpha := 0.0
		override := proto.EmulationSetDefaultBackgroundColorOverride{Color: &proto.DOMRGBA{A: &alpha}}
		if err := override.Call(page); err != nil {
			return nil, fmt.Errorf("%w: clearing background: %v", ErrScreenshot, err)
		}
	}

	req := &proto.PageCaptureScreenshot{Format: rodScreenshotFormat(opts.Format)}
	if opts.Format.lossy() && opts.Quality > 0 {
		quality := opts.Quality
		req.Quality = &quality
	}

	img, err := page.Screenshot(true, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshot, err)
	}
	return img, nil
}

func (p *rodPage) Close() error {
	err := p.page.Close()
	if p.incognito != nil {
		err = errors.Join(err, p.incognito.Close())
	}
	return err
}

func rodScreenshotFormat(f ImageFormat) proto.PageCaptureScreenshotFormat {
	switch f {
	case FormatJPEG:
		return proto.PageCaptureScreenshotFormatJpeg
	case FormatWebP:
		return proto.PageCaptureScreenshotFormatWebp
	default:
		return proto.PageCaptureScreenshotFormatPng
	}
}
