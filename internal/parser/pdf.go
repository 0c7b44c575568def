package parser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/dgallion1/matclass/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser extracts page text with the pure-Go reader and, when enabled,
// retries with pdftotext if that fails or finds no text.
type PDFParser struct {
	FallbackPdftotext bool
}

const pdftotextTimeout = 30 * time.Second

func (p *PDFParser) Parse(data []byte, filename string) (*doctree.Document, error) {
	pages, err := extractPDFPages(data)
	if (err != nil || blank(pages)) && p.FallbackPdftotext {
		var fbErr error
		if pages, fbErr = extractPdftotext(data); fbErr == nil {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	doc := &doctree.Document{Title: baseTitle(filename)}
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		doc.Sections = append(doc.Sections, &doctree.Section{Text: page, Page: i + 1})
	}
	return doc, nil
}

func extractPDFPages(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// extractPdftotext pipes the document through poppler's pdftotext.
func extractPdftotext(data []byte) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pdftotextTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(string(out), "\f"), nil
}

func blank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
