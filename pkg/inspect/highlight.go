package inspect

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// Highlight colours unified-diff text for a 256-colour terminal.
func Highlight(text, style string) (string, error) {
	lexer := lexers.Get("diff")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", fmt.Errorf("tokenise diff: %w", err)
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return "", fmt.Errorf("format diff: %w", err)
	}
	return buf.String(), nil
}

// RenderHighlighted renders diffs and colours them, falling back to plain
// text if highlighting fails.
func RenderHighlighted(diffs []EditDiff, style string) string {
	plain := Render(diffs)
	if colored, err := Highlight(plain, style); err == nil {
		return colored
	}
	return plain
}
