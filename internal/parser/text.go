package parser

import (
	"strings"

	"github.com/dgallion1/matclass/internal/doctree"
)

// TextParser treats blank lines as paragraph breaks.
type TextParser struct{}

func (p *TextParser) Parse(data []byte, filename string) (*doctree.Document, error) {
	doc := &doctree.Document{Title: baseTitle(filename)}

	var para []string
	flush := func() {
		if len(para) > 0 {
			doc.Sections = append(doc.Sections, &doctree.Section{Text: strings.Join(para, "\n")})
			para = para[:0]
		}
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		para = append(para, line)
	}
	flush()
	return doc, nil
}
