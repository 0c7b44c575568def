package parser

import (
	"bytes"
	"strings"

	"github.com/dgallion1/matclass/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser walks the goldmark block AST; ATX and setext headings
// become sections.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte, filename string) (*doctree.Document, error) {
	root := goldmark.New().Parser().Parse(text.NewReader(data))

	b := doctree.NewBuilder()
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			b.Heading(h.Level, blockText(h, data))
			continue
		}
		b.Text(blockText(n, data))
	}
	return b.Document(baseTitle(filename)), nil
}

// blockText returns the text of a block. Blocks with inline content are
// read through their inline children; leaf blocks such as code keep their
// raw lines.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.FirstChild() == nil {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
			}
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.HardLineBreak() || v.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.AutoLink:
			buf.Write(v.Label(src))
		default:
			if s := blockText(c, src); s != "" {
				if c.Type() == ast.TypeBlock && buf.Len() > 0 {
					buf.WriteByte('\n')
				}
				buf.WriteString(s)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
