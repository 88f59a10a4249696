package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRect_TranslateAndSize(t *testing.T) {
	doc := mustParse(t)
	btn := doc.QueryFirst("button.primary")

	doc.SetTranslate(btn, 15, -5)
	doc.SetStyle(btn, "width", "140px")

	tx, ty := Translate(btn)
	assert.Equal(t, 15.0, tx)
	assert.Equal(t, -5.0, ty)
	assert.Equal(t, Rect{X: 25, Y: 5, W: 140, H: 30}, doc.Rect(btn))

	doc.SetTranslate(btn, 0, 0)
	assert.Equal(t, "", Style(btn, "transform"))
}

func TestViewportRect(t *testing.T) {
	doc := mustParse(t)
	doc.SetScroll(0, 50)

	r := doc.ViewportRect(doc.QueryFirst("p"))
	assert.Equal(t, 10.0, r.Y)

	x, y := doc.ToPage(5, 5)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 55.0, y)
}

func TestHitTest(t *testing.T) {
	doc := mustParse(t)

	tests := []struct {
		name string
		x, y float64
		want string
	}{
		{"primary button", 20, 20, "button.primary"},
		{"secondary button", 130, 20, "button.secondary"},
		{"paragraph", 15, 65, "p"},
		{"container", 500, 200, "#app"},
		{"body", 500, 500, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, doc.QueryFirst(tt.want), doc.HitTest(tt.x, tt.y))
		})
	}

	assert.Nil(t, doc.HitTest(2000, 2000))
}

func TestHitTest_SkipsAgentNodes(t *testing.T) {
	doc := mustParse(t)
	overlay := CreateAgentElement("div", "overlay")
	doc.Append(doc.Body(), overlay)
	doc.SetRect(overlay, Rect{X: 0, Y: 0, W: 800, H: 600})

	assert.Equal(t, doc.QueryFirst("button.primary"), doc.HitTest(20, 20))
}

func TestHitTest_FollowsTransform(t *testing.T) {
	doc := mustParse(t)
	btn := doc.QueryFirst("button.primary")
	doc.SetTranslate(btn, 300, 200)

	assert.Equal(t, btn, doc.HitTest(320, 220))
	assert.NotEqual(t, btn, doc.HitTest(20, 20))
}

func TestHitTestViewport(t *testing.T) {
	doc := mustParse(t)
	doc.SetScroll(0, 50)
	assert.Equal(t, doc.QueryFirst("p"), doc.HitTestViewport(15, 15))
}
