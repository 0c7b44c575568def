package doctree

import "strings"

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// Flatten renders the document as plain text, headings on their own lines,
// in reading order. When maxTokens > 0 the output stops at the last whole
// word that fits and truncated reports true.
func (d *Document) Flatten(maxTokens int) (text string, truncated bool) {
	var parts []string
	var walk func(s *Section)
	walk = func(s *Section) {
		if s.Title != "" {
			parts = append(parts, s.Title)
		}
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	for _, s := range d.Sections {
		walk(s)
	}
	full := strings.Join(parts, "\n\n")
	if maxTokens <= 0 || EstimateTokens(full) <= maxTokens {
		return full, false
	}
	return truncateWords(full, maxTokens), true
}

// truncateWords keeps as many leading words as fit in maxTokens, preserving
// the original spacing between them.
func truncateWords(text string, maxTokens int) string {
	maxWords := int(float64(maxTokens) / 1.33)
	if maxWords <= 0 {
		return ""
	}
	words := 0
	inWord := false
	for i, r := range text {
		isSpace := r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f'
		switch {
		case !isSpace && !inWord:
			if words == maxWords {
				return strings.TrimSpace(text[:i])
			}
			words++
			inWord = true
		case isSpace:
			inWord = false
		}
	}
	return strings.TrimSpace(text)
}
