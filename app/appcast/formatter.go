package appcast

import (
	"fmt"
	"strings"
)

// Renderer turns lightweight markup into formatted text.
type Renderer interface {
	Render(text string) (string, error)
}

type Formatter struct {
	prefix   string
	renderer Renderer
}

// NewFormatter builds a changelog formatter. An empty prefix disables line
// filtering; a nil renderer returns the plain text.
func NewFormatter(prefix string, renderer Renderer) *Formatter {
	return &Formatter{prefix: prefix, renderer: renderer}
}

// Run joins the messages into one changelog body. With a prefix set, lines
// carrying it keep the remainder and every other line becomes blank, so
// paragraph breaks survive for the renderer.
func (f *Formatter) Run(messages []string) (string, error) {
	var joined strings.Builder
	for _, m := range messages {
		joined.WriteString(m)
		joined.WriteString("\n")
	}

	lines := splitLines(joined.String())
	if f.prefix != "" {
		for i, line := range lines {
			if rest, ok := strings.CutPrefix(line, f.prefix); ok {
				lines[i] = rest
			} else {
				lines[i] = ""
			}
		}
	}
	text := strings.Join(lines, "\n")

	if f.renderer == nil {
		return text, nil
	}

	out, err := f.renderer.Render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render changelog: %w", err)
	}
	return out, nil
}

// splitLines splits on newlines and drops trailing empty lines.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
