package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/matclass/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser maps Heading1..Heading6 paragraph styles onto sections.
type DOCXParser struct{}

func (p *DOCXParser) Parse(data []byte, filename string) (*doctree.Document, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := doctree.NewBuilder()
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text := docxParagraphText(it)
			if text == "" {
				continue
			}
			if level := docxHeadingLevel(it); level > 0 {
				b.Heading(level, text)
			} else {
				b.Text(text)
			}
		case *docx.Table:
			b.Text(docxTableText(it))
		}
	}
	return b.Document(baseTitle(filename)), nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") || len(style) != len("heading")+1 {
		return 0
	}
	level := int(style[len(style)-1] - '0')
	if level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// docxTableText renders a table one row per line, cells joined by " | ".
func docxTableText(tbl *docx.Table) string {
	var lines []string
	for _, row := range tbl.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if t := docxParagraphText(para); t != "" {
					parts = append(parts, t)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		if line := strings.TrimSpace(strings.Join(cells, " | ")); strings.Trim(line, "| ") != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
