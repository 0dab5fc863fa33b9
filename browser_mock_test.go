package md2img

// Notes:
// - mockBrowser/mockPage stand in for the rod and playwright bindings
// - Images carry real magic headers so mimetype verification runs for real
// - LoadURL reads the file behind the file:// URL to prove the artifact exists
//   at load time

import (
	"context"
	"net/url"
	"os"
	"sync"
	"testing"
)

// Minimal buffers that mimetype recognizes by their magic header.
var (
	pngImage  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegImage = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	webpImage = []byte("RIFF\x1a\x00\x00\x00WEBPVP8 \x0e\x00\x00\x00\x00\x00\x00\x00")
)

// imageFor returns a buffer with the magic header of f.
func imageFor(f ImageFormat) []byte {
	switch f {
	case FormatJPEG:
		return jpegImage
	case FormatWebP:
		return webpImage
	default:
		return pngImage
	}
}

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

type mockBrowser struct {
	mu sync.Mutex

	image      []byte // nil means the header of the requested format
	newPageErr error
	loadErr    error
	frontErr   error
	waitErr    error
	shotErr    error
	closeErr   error

	pages  []*mockPage
	closed int
}

func (b *mockBrowser) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newPageErr != nil {
		return nil, b.newPageErr
	}
	p := &mockPage{browser: b, opts: opts}
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *mockBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed++
	return b.closeErr
}

func (b *mockBrowser) Name() string { return "mock" }

func (b *mockBrowser) lastPage() *mockPage {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pages) == 0 {
		return nil
	}
	return b.pages[len(b.pages)-1]
}

type mockPage struct {
	browser *mockBrowser
	opts    PageOptions

	html     string // document injected or read from the artifact
	url      string
	wait     WaitCondition
	waits    []string // WaitUntil predicates, in call order
	front    bool
	shotOpts ScreenshotOptions
	closed   bool
}

func (p *mockPage) LoadContent(ctx context.Context, html string, wait WaitCondition) error {
	p.html = html
	p.wait = wait
	return p.browser.loadErr
}

func (p *mockPage) LoadURL(ctx context.Context, raw string, wait WaitCondition) error {
	p.url = raw
	p.wait = wait
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(u.Path)
	if err != nil {
		return err
	}
	p.html = string(content)
	return p.browser.loadErr
}

func (p *mockPage) WaitUntil(ctx context.Context, predicate string) error {
	p.waits = append(p.waits, predicate)
	return p.browser.waitErr
}

func (p *mockPage) BringToFront(ctx context.Context) error {
	p.front = true
	return p.browser.frontErr
}

func (p *mockPage) Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error) {
	p.shotOpts = opts
	if p.browser.shotErr != nil {
		return nil, p.browser.shotErr
	}
	if p.browser.image != nil {
		return p.browser.image, nil
	}
	return imageFor(opts.Format), nil
}

func (p *mockPage) Close() error {
	p.closed = true
	return nil
}

// mockLauncher counts launches and fails the first failures calls.
type mockLauncher struct {
	mu       sync.Mutex
	browser  *mockBrowser
	failures int
	err      error
	calls    int
	cfg      browserConfig
}

func (l *mockLauncher) launch(cfg browserConfig) (Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.cfg = cfg
	if l.calls <= l.failures {
		return nil, l.err
	}
	return l.browser, nil
}

// withLauncher replaces the engine launcher.
func withLauncher(fn browserLauncher) Option {
	return func(c *Converter) {
		c.launch = fn
	}
}

// newMockConverter builds a converter backed by a fresh mockBrowser.
func newMockConverter(t testing.TB, opts ...Option) (*Converter, *mockBrowser, *mockLauncher) {
	t.Helper()
	browser := &mockBrowser{}
	l := &mockLauncher{browser: browser}
	conv, err := NewConverter(append([]Option{withLauncher(l.launch)}, opts...)...)
	if err != nil {
		t.Fatalf("NewConverter() error = %v", err)
	}
	t.Cleanup(func() { _ = conv.Close() })
	return conv, browser, l
}
