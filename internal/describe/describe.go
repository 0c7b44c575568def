// Package describe turns an uploaded file into a free-text item description
// that can be classified: documents are parsed and flattened, images are
// described by a vision-capable model.
package describe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/matclass/internal/doctree"
	"github.com/dgallion1/matclass/internal/llm"
	"github.com/dgallion1/matclass/internal/parser"
)

// ErrUnsupported is returned for files that are neither a parseable
// document nor an image.
var ErrUnsupported = parser.ErrUnsupported

// ErrEmpty is returned when a file yields no usable text.
var ErrEmpty = errors.New("no text found in file")

const visionPrompt = `Você é um especialista em materiais industriais.
Descreva o item mostrado na imagem em uma única frase técnica, em português,
como ele apareceria em um cadastro de materiais: tipo do item, material,
dimensões e características visíveis. Responda apenas com a descrição.`

// Result is the extracted description.
type Result struct {
	Text      string `json:"text"`
	Source    string `json:"source"` // "document" or "image"
	Truncated bool   `json:"truncated,omitempty"`
}

type Describer struct {
	completer llm.Completer
	opts      parser.Options
	maxTokens int
	log       *slog.Logger
}

func New(completer llm.Completer, opts parser.Options, maxTokens int, log *slog.Logger) *Describer {
	if log == nil {
		log = slog.Default()
	}
	return &Describer{
		completer: completer,
		opts:      opts,
		maxTokens: maxTokens,
		log:       log.With("component", "describe"),
	}
}

// Describe extracts a description from data. contentType may be empty, in
// which case it is sniffed. model is only used for images.
func (d *Describer) Describe(ctx context.Context, filename, contentType string, data []byte, model string) (Result, error) {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	if mime, ok := imageMIME(filename, contentType); ok {
		return d.describeImage(ctx, mime, data, model)
	}

	p, err := parser.ForFile(filename, contentType, d.opts)
	if err != nil {
		return Result{}, err
	}
	doc, err := p.Parse(data, filename)
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	return d.fromDocument(doc)
}

func (d *Describer) fromDocument(doc *doctree.Document) (Result, error) {
	text, truncated := doc.Flatten(d.maxTokens)
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmpty
	}
	if truncated {
		d.log.Info("description truncated", "title", doc.Title, "max_tokens", d.maxTokens)
	}
	return Result{Text: text, Source: "document", Truncated: truncated}, nil
}

func (d *Describer) describeImage(ctx context.Context, mime string, data []byte, model string) (Result, error) {
	if d.completer == nil {
		return Result{}, fmt.Errorf("%w: no vision model configured", ErrUnsupported)
	}
	out, err := d.completer.Complete(ctx, llm.Request{
		Model:     model,
		Prompt:    visionPrompt,
		MaxTokens: 300,
		Image:     &llm.Image{MIME: mime, Data: data},
	})
	if err != nil {
		return Result{}, fmt.Errorf("describe image: %w", err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return Result{}, ErrEmpty
	}
	d.log.Debug("image described", "model", model, "bytes", len(data), "output_tokens", out.Usage.OutputTokens)
	return Result{Text: text, Source: "image"}, nil
}

func imageMIME(filename, contentType string) (string, bool) {
	if mt := mimeOf(contentType); strings.HasPrefix(mt, "image/") {
		return mt, true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png", true
	case ".jpg", ".jpeg":
		return "image/jpeg", true
	case ".webp":
		return "image/webp", true
	case ".gif":
		return "image/gif", true
	}
	return "", false
}

func mimeOf(contentType string) string {
	return strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
}
