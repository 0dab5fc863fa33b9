package pipeline

import (
	"bytes"
	"fmt"
	"html"
	"io"

	katex "github.com/FurqanSoftware/goldmark-katex"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// mathErrorColor matches KaTeX's default errorColor.
const mathErrorColor = "#cc0000"

var mathDelimiter = []byte("$$")

// KindMathInline is the node kind of inline $...$ equations.
var KindMathInline = ast.NewNodeKind("MathInline")

// KindMathBlock is the node kind of $$...$$ display equations.
var KindMathBlock = ast.NewNodeKind("MathBlock")

// MathInline is an equation inside a paragraph. Display is set for $$...$$
// written inline.
type MathInline struct {
	ast.BaseInline
	Equation []byte
	Display  bool
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Equation": string(n.Equation)}, nil)
}

// MathBlock is a display equation fenced by $$ lines.
type MathBlock struct {
	ast.BaseBlock
	Equation []byte
	closed   bool
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Equation": string(n.Equation)}, nil)
}

// IsRaw implements ast.Node.
func (n *MathBlock) IsRaw() bool { return true }

// MathRenderFunc renders TeX source to HTML. display selects display mode.
type MathRenderFunc func(w io.Writer, src []byte, display bool) error

// mathExtension wires the $ parsers and the KaTeX renderer into goldmark.
type mathExtension struct {
	render MathRenderFunc
}

// newMathExtension returns the math extension. A nil render uses KaTeX.
func newMathExtension(render MathRenderFunc) *mathExtension {
	if render == nil {
		render = katex.Render
	}
	return &mathExtension{render: render}
}

// Extend implements goldmark.Extender.
func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 650)),
		parser.WithInlineParsers(util.Prioritized(&mathInlineParser{}, 150)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(newMathHTMLRenderer(e.render), 500)),
	)
}

// ---------------------------------------------------------------------------
// Parsers
// ---------------------------------------------------------------------------

type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte { return []byte{'$'} }

// Parse accepts $x$ and $$x$$ on a single line. A lone $ stays text when it
// is followed by a space, or when its closer is preceded by a space or
// followed by a digit, so prices like "$5 and $6" are left alone.
func (p *mathInlineParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 3 || line[0] != '$' {
		return nil
	}

	width := 1
	if line[1] == '$' {
		width = 2
	}
	body := line[width:]
	if width == 1 && isMathSpace(body[0]) {
		return nil
	}

	end := findMathCloser(body, width)
	if end <= 0 {
		return nil
	}
	equation := body[:end]
	if len(bytes.TrimSpace(equation)) == 0 {
		return nil
	}
	if width == 1 {
		if isMathSpace(equation[len(equation)-1]) {
			return nil
		}
		if next := end + 1; next < len(body) && body[next] >= '0' && body[next] <= '9' {
			return nil
		}
	}

	block.Advance(width + end + width)
	return &MathInline{
		Equation: append([]byte(nil), bytes.TrimSpace(equation)...),
		Display:  width == 2,
	}
}

// findMathCloser returns the offset of the closing delimiter in body, or -1.
// Escaped dollars do not close.
func findMathCloser(body []byte, width int) int {
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '\n':
			return -1
		case '$':
			if width == 1 {
				return i
			}
			if i+1 < len(body) && body[i+1] == '$' {
				return i
			}
		}
	}
	return -1
}

func isMathSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

type mathBlockParser struct{}

func (b *mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (b *mathBlockParser) Open(_ ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], mathDelimiter) {
		return nil, parser.NoChildren
	}

	rest := bytes.TrimSpace(line[pos+len(mathDelimiter):])
	node := &MathBlock{}

	// $$ x $$ on one line.
	if len(rest) >= len(mathDelimiter) && bytes.HasSuffix(rest, mathDelimiter) {
		node.Equation = append(node.Equation, bytes.TrimSpace(rest[:len(rest)-len(mathDelimiter)])...)
		node.closed = true
		reader.AdvanceToEOL()
		return node, parser.NoChildren
	}

	// "$$a$$ and more" is inline math inside a paragraph.
	if bytes.Contains(rest, mathDelimiter) {
		return nil, parser.NoChildren
	}

	if len(rest) > 0 {
		node.Equation = append(node.Equation, rest...)
		node.Equation = append(node.Equation, '\n')
	}
	reader.AdvanceToEOL()
	return node, parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, _ parser.Context) parser.State {
	n := node.(*MathBlock)
	if n.closed {
		return parser.Close
	}

	line, _ := reader.PeekLine()
	if line == nil {
		return parser.Close
	}

	trimmed := bytes.TrimSpace(line)
	if bytes.HasSuffix(trimmed, mathDelimiter) {
		n.Equation = append(n.Equation, bytes.TrimSpace(trimmed[:len(trimmed)-len(mathDelimiter)])...)
		reader.AdvanceToEOL()
		return parser.Close
	}

	n.Equation = append(n.Equation, util.TrimRightSpace(line)...)
	n.Equation = append(n.Equation, '\n')
	reader.AdvanceToEOL()
	return parser.Continue | parser.NoChildren
}

func (b *mathBlockParser) Close(node ast.Node, _ text.Reader, _ parser.Context) {
	n := node.(*MathBlock)
	n.Equation = bytes.TrimSpace(n.Equation)
}

func (b *mathBlockParser) CanInterruptParagraph() bool { return true }

func (b *mathBlockParser) CanAcceptIndentedLine() bool { return false }

// ---------------------------------------------------------------------------
// Renderer
// ---------------------------------------------------------------------------

type mathKey struct {
	equation string
	display  bool
}

// maxMathCacheEntries bounds the rendered-equation cache shared by every
// document a converter renders.
const maxMathCacheEntries = 256

// mathHTMLRenderer renders equations through KaTeX. Recent results are kept
// in an LRU since a KaTeX call spins up a JavaScript runtime.
type mathHTMLRenderer struct {
	render MathRenderFunc
	cache  *lru.Cache[mathKey, []byte]
}

func newMathHTMLRenderer(render MathRenderFunc) *mathHTMLRenderer {
	// lru.New only fails on a non-positive size.
	cache, _ := lru.New[mathKey, []byte](maxMathCacheEntries)
	return &mathHTMLRenderer{render: render, cache: cache}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *mathHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathInline, r.renderInline)
	reg.Register(KindMathBlock, r.renderBlock)
}

func (r *mathHTMLRenderer) renderInline(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*MathInline)
		_, _ = w.Write(r.equation(n.Equation, n.Display))
	}
	return ast.WalkSkipChildren, nil
}

func (r *mathHTMLRenderer) renderBlock(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		n := node.(*MathBlock)
		_, _ = w.WriteString(`<div class="math-display">`)
		_, _ = w.Write(r.equation(n.Equation, true))
		_, _ = w.WriteString("</div>\n")
	}
	return ast.WalkSkipChildren, nil
}

// equation never fails: a KaTeX error becomes an inline error span holding
// the original source.
func (r *mathHTMLRenderer) equation(src []byte, display bool) []byte {
	key := mathKey{equation: string(src), display: display}
	if cached, ok := r.cache.Get(key); ok {
		return cached
	}

	var buf bytes.Buffer
	if err := r.render(&buf, src, display); err != nil {
		buf.Reset()
		fmt.Fprintf(&buf, `<span class="katex-error" style="color:%s" title="%s">%s</span>`,
			mathErrorColor, html.EscapeString(err.Error()), html.EscapeString(string(src)))
	}

	out := buf.Bytes()
	r.cache.Add(key, out)
	return out
}
