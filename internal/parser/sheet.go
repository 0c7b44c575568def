package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/matclass/internal/doctree"
	"github.com/dgallion1/matclass/internal/tabular"
)

// SheetParser renders each data row of a CSV or XLSX file as
// "Header: value" lines.
type SheetParser struct{}

func (p *SheetParser) Parse(data []byte, filename string) (*doctree.Document, error) {
	tbl, err := tabular.Read(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse sheet: %w", err)
	}

	doc := &doctree.Document{Title: baseTitle(filename)}
	for i, row := range tbl.Rows {
		var lines []string
		for j, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if j < len(tbl.Header) && tbl.Header[j] != "" {
				lines = append(lines, tbl.Header[j]+": "+cell)
			} else {
				lines = append(lines, cell)
			}
		}
		if len(lines) == 0 {
			continue
		}
		doc.Sections = append(doc.Sections, &doctree.Section{
			Title: fmt.Sprintf("Row %d", i+2), // 1-indexed, after the header
			Text:  strings.Join(lines, "\n"),
		})
	}
	return doc, nil
}
