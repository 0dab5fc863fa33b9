package pipeline

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DiagramLanguage is the fence info string routed to the diagram renderer
// instead of the syntax highlighter.
const DiagramLanguage = "mermaid"

// DiagramClass is the class of the container the diagram script scans for.
const DiagramClass = "mermaid"

// KindDiagram is the node kind of diagram blocks.
var KindDiagram = ast.NewNodeKind("Diagram")

// Diagram is a fenced block whose source is drawn client-side.
type Diagram struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *Diagram) Kind() ast.NodeKind { return KindDiagram }

// IsRaw implements ast.Node.
func (n *Diagram) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *Diagram) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type diagramExtension struct{}

// Extend implements goldmark.Extender.
func (e *diagramExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(util.Prioritized(&diagramTransformer{}, 100)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&diagramHTMLRenderer{}, 500)),
	)
}

// diagramTransformer swaps fenced blocks tagged with DiagramLanguage for
// Diagram nodes before rendering, so the highlighter never sees them.
type diagramTransformer struct{}

func (t *diagramTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var fences []*ast.FencedCodeBlock

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fence, ok := n.(*ast.FencedCodeBlock); ok {
			if strings.EqualFold(string(fence.Language(source)), DiagramLanguage) {
				fences = append(fences, fence)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, fence := range fences {
		diagram := &Diagram{}
		diagram.SetLines(fence.Lines())
		parent := fence.Parent()
		parent.ReplaceChild(parent, fence, diagram)
	}
}

type diagramHTMLRenderer struct{}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *diagramHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagram, r.render)
}

func (r *diagramHTMLRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var body bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		body.Write(segment.Value(source))
	}

	_, _ = w.WriteString(`<div class="` + DiagramClass + `">`)
	_, _ = w.Write(util.EscapeHTML(bytes.TrimRight(body.Bytes(), "\n")))
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}

// HasDiagram reports whether an HTML fragment contains a diagram container.
func HasDiagram(fragment string) bool {
	return strings.Contains(fragment, `class="`+DiagramClass+`"`)
}
