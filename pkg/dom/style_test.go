package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []declaration
	}{
		{"empty", "", nil},
		{"single", "color: red", []declaration{{"color", "red"}}},
		{"trailing semicolon", "color: red;", []declaration{{"color", "red"}}},
		{"case folding", "Color: Red", []declaration{{"color", "Red"}}},
		{"parentheses", "background: url(a;b.png); color: rgb(1, 2, 3)", []declaration{
			{"background", "url(a;b.png)"},
			{"color", "rgb(1, 2, 3)"},
		}},
		{"duplicate keeps last", "color: red; color: blue", []declaration{{"color", "blue"}}},
		{"garbage skipped", "nonsense; width: 4px", []declaration{{"width", "4px"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseStyle(tt.input))
		})
	}
}

func TestSetStyle(t *testing.T) {
	doc := mustParse(t)
	btn := doc.QueryFirst("button.primary")

	doc.SetStyle(btn, "color", "red")
	doc.SetStyle(btn, "width", "20px")
	assert.Equal(t, "red", Style(btn, "color"))
	v, _ := Attr(btn, "style")
	assert.Equal(t, "color: red; width: 20px", v)

	doc.SetStyle(btn, "color", "")
	assert.Equal(t, "", Style(btn, "color"))

	doc.SetStyle(btn, "width", "")
	_, ok := Attr(btn, "style")
	assert.False(t, ok, "empty style attribute is dropped")
}

func TestComputed(t *testing.T) {
	doc := mustParse(t)
	btn := doc.QueryFirst("button.primary")
	doc.SetComputed(btn, map[string]string{"Color": "rgb(0, 0, 0)"})

	assert.Equal(t, "rgb(0, 0, 0)", doc.Computed(btn, "color"))

	doc.SetStyle(btn, "color", "#ff0000")
	assert.Equal(t, "#ff0000", doc.Computed(btn, "color"), "inline wins")
	assert.Equal(t, "", doc.Computed(btn, "font-size"))
}
