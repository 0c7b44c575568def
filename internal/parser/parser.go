// Package parser turns uploaded documents into a doctree outline so their
// text can be used as an item description.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/matclass/internal/doctree"
)

// ErrUnsupported is returned for file types no parser handles.
var ErrUnsupported = errors.New("unsupported file type")

// Parser converts raw document bytes into an outline.
type Parser interface {
	Parse(data []byte, filename string) (*doctree.Document, error)
}

// Options tune parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile picks a parser by extension, falling back to the MIME type when
// the name has no useful extension.
func ForFile(filename, contentType string, opts Options) (Parser, error) {
	switch kind(filename, contentType) {
	case "text":
		return &TextParser{}, nil
	case "markdown":
		return &MarkdownParser{}, nil
	case "sheet":
		return &SheetParser{}, nil
	case "html":
		return &HTMLParser{}, nil
	case "pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case "docx":
		return &DOCXParser{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, describeType(filename, contentType))
}

// IsSupported reports whether ForFile would find a parser.
func IsSupported(filename, contentType string) bool {
	return kind(filename, contentType) != ""
}

func kind(filename, contentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text"
	case ".md", ".markdown":
		return "markdown"
	case ".csv", ".xlsx":
		return "sheet"
	case ".html", ".htm":
		return "html"
	case ".pdf":
		return "pdf"
	case ".docx":
		return "docx"
	}
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mt {
	case "text/plain":
		return "text"
	case "text/markdown":
		return "markdown"
	case "text/html":
		return "html"
	case "application/pdf":
		return "pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	}
	return ""
}

func describeType(filename, contentType string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	if contentType != "" {
		return contentType
	}
	return filename
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
