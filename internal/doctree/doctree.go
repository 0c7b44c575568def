// Package doctree is the outline shared by the document parsers: a title and
// nested sections, plus the flattening used to turn an uploaded document into
// a bounded item description.
package doctree

import "strings"

// Document is the root of a parsed file.
type Document struct {
	Title    string
	Sections []*Section
}

// Section is a heading with its body text and subsections.
type Section struct {
	Title    string // empty for untitled body text
	Text     string
	Page     int // source page, 0 if N/A
	Children []*Section
}

// Builder assembles a Document from a flat sequence of headings and text
// blocks. A heading nests under the nearest open heading of lower level.
type Builder struct {
	root  *Section
	stack []open
	text  strings.Builder
}

type open struct {
	sec   *Section
	level int
}

func NewBuilder() *Builder {
	root := &Section{}
	return &Builder{root: root, stack: []open{{sec: root}}}
}

// Heading opens a section at level (1 = top).
func (b *Builder) Heading(level int, title string) {
	b.flush()
	sec := &Section{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].sec
	parent.Children = append(parent.Children, sec)
	b.stack = append(b.stack, open{sec: sec, level: level})
}

// Text appends a paragraph to the open section.
func (b *Builder) Text(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

// Document closes the builder. Text outside any heading becomes a single
// untitled section when there are no headings at all.
func (b *Builder) Document(title string) *Document {
	b.flush()
	doc := &Document{Title: title, Sections: b.root.Children}
	if b.root.Text != "" {
		doc.Sections = append([]*Section{{Text: b.root.Text}}, doc.Sections...)
	}
	return doc
}

func (b *Builder) flush() {
	t := strings.TrimSpace(b.text.String())
	b.text.Reset()
	if t == "" {
		return
	}
	top := b.stack[len(b.stack)-1].sec
	if top.Text != "" {
		top.Text += "\n\n" + t
	} else {
		top.Text = t
	}
}
