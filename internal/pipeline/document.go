package pipeline

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/alnah/go-md2img/internal/assets"
)

// Stylesheets and scripts loaded by the page. Versions are pinned so a given
// input renders the same way tomorrow.
const (
	KaTeXStylesheetURL    = "https://cdn.jsdelivr.net/npm/katex@0.16.9/dist/katex.min.css"
	MarkdownStylesheetURL = "https://cdn.jsdelivr.net/npm/github-markdown-css@5.5.1/github-markdown.min.css"
	MermaidScriptURL      = "https://cdn.jsdelivr.net/npm/mermaid@10.9.0/dist/mermaid.min.js"
)

// DocumentTheme is the resolved theme triple applied to a page.
type DocumentTheme struct {
	Page    string // "light" or "dark"
	Code    string // chroma style name
	Diagram string // mermaid theme name
}

// DocumentBuilder wraps an HTML body in a complete, self-describing page.
// Output is a pure function of its inputs.
type DocumentBuilder struct {
	tmpl      *template.Template
	layoutCSS string
	injector  CSSInjector

	mu      sync.Mutex
	codeCSS map[string]string
}

type documentData struct {
	Page               string
	Code               string
	Diagram            string
	KaTeXStylesheet    string
	MarkdownStylesheet string
	MermaidScript      string
	CodeCSS            template.CSS
	LayoutCSS          template.CSS
	Body               template.HTML
	HasDiagram         bool
}

// NewDocumentBuilder loads the document template and layout style from
// loader.
func NewDocumentBuilder(loader assets.AssetLoader) (*DocumentBuilder, error) {
	src, err := loader.LoadTemplate(assets.DocumentTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading document template: %w", err)
	}
	tmpl, err := template.New(assets.DocumentTemplateName).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing document template: %w", err)
	}
	layout, err := loader.LoadStyle(assets.LayoutStyleName)
	if err != nil {
		return nil, fmt.Errorf("loading layout style: %w", err)
	}

	return &DocumentBuilder{
		tmpl:      tmpl,
		layoutCSS: layout,
		injector:  &CSSInjection{},
		codeCSS:   make(map[string]string),
	}, nil
}

// Build renders the page for body under theme. userCSS, when set, is the
// last stylesheet of the page.
func (b *DocumentBuilder) Build(ctx context.Context, body string, theme DocumentTheme, userCSS string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	codeCSS, err := b.codeStylesheet(theme.Code)
	if err != nil {
		return "", err
	}

	data := documentData{
		Page:               theme.Page,
		Code:               theme.Code,
		Diagram:            theme.Diagram,
		KaTeXStylesheet:    KaTeXStylesheetURL,
		MarkdownStylesheet: MarkdownStylesheetURL,
		MermaidScript:      MermaidScriptURL,
		CodeCSS:            template.CSS(codeCSS),     // #nosec G203 -- generated by chroma
		LayoutCSS:          template.CSS(b.layoutCSS), // #nosec G203 -- embedded or operator-supplied asset
		Body:               template.HTML(body),       // #nosec G203 -- filtered by ContentPolicy upstream
		HasDiagram:         HasDiagram(body),
	}

	var buf strings.Builder
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing document template: %w", err)
	}

	return b.injector.InjectCSS(ctx, buf.String(), userCSS), nil
}

// codeStylesheet returns the chroma CSS for a style name. Unknown names get
// chroma's fallback style.
func (b *DocumentBuilder) codeStylesheet(name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if css, ok := b.codeCSS[name]; ok {
		return css, nil
	}

	var sb strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&sb, styles.Get(name)); err != nil {
		return "", fmt.Errorf("writing code stylesheet %q: %w", name, err)
	}

	css := sb.String()
	b.codeCSS[name] = css
	return css, nil
}
