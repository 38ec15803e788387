package appcast

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterRun(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
		prefix   string
		want     string
	}{
		{
			name: "empty input",
			want: "",
		},
		{
			name:     "joins messages with newlines",
			messages: []string{"a", "b"},
			want:     "a\nb",
		},
		{
			name:     "trailing newline leaves a blank separator",
			messages: []string{"a\n", "b\n"},
			want:     "a\n\nb",
		},
		{
			name:     "multi-line messages keep inner blank lines",
			messages: []string{"subject\n\nbody line"},
			want:     "subject\n\nbody line",
		},
		{
			name:     "prefix keeps remainder and blanks other lines",
			messages: []string{"PREFIX: fix bug", "unrelated note"},
			prefix:   "PREFIX: ",
			want:     "fix bug\n",
		},
		{
			name:     "prefix matching nothing yields blank lines",
			messages: []string{"one", "two", "three"},
			prefix:   "* ",
			want:     "\n\n",
		},
		{
			name:     "prefix must start the line",
			messages: []string{"note: * not this", "* this"},
			prefix:   "* ",
			want:     "\nthis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFormatter(tt.prefix, nil).Run(tt.messages)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type upperRenderer struct{}

func (upperRenderer) Render(text string) (string, error) {
	return strings.ToUpper(text), nil
}

type failingRenderer struct{}

func (failingRenderer) Render(string) (string, error) {
	return "", errors.New("boom")
}

func TestFormatterUsesRenderer(t *testing.T) {
	got, err := NewFormatter("", upperRenderer{}).Run([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "A\nB", got)

	_, err = NewFormatter("", failingRenderer{}).Run([]string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestFormatterWithMarkdown(t *testing.T) {
	formatter := NewFormatter("* ", NewMarkdownRenderer())

	got, err := formatter.Run([]string{
		"* Fixed **crash** on launch\ninternal: refactor",
		"* Added dark mode",
	})
	require.NoError(t, err)

	assert.Contains(t, got, "<strong>crash</strong>")
	assert.Contains(t, got, "<p>Fixed")
	assert.Contains(t, got, "Added dark mode")
	assert.NotContains(t, got, "internal")
}
