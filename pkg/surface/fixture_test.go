package surface

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/canvas/pkg/bridge"
	"github.com/entrhq/canvas/pkg/dom"
	"github.com/entrhq/canvas/pkg/idgen"
	"github.com/entrhq/canvas/pkg/types"
)

const fixture = `<!doctype html>
<html><head><title>fixture</title></head>
<body>
  <div id="app" class="container">
    <header class="site-header"><h1>Title</h1></header>
    <main>
      <button class="primary css-1x2y3z">Save</button>
      <button class="secondary">Cancel</button>
      <ul><li>One</li><li>Two</li><li>Three</li></ul>
    </main>
  </div>
</body></html>`

func newFixture(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(fixture)
	require.NoError(t, err)

	layout := map[string]dom.Rect{
		"body":             {X: 0, Y: 0, W: 1000, H: 800},
		"#app":             {X: 0, Y: 0, W: 1000, H: 800},
		"header":           {X: 0, Y: 0, W: 1000, H: 60},
		"h1":               {X: 10, Y: 10, W: 300, H: 40},
		"main":             {X: 0, Y: 60, W: 1000, H: 700},
		"button.primary":   {X: 20, Y: 80, W: 100, H: 30},
		"button.secondary": {X: 140, Y: 80, W: 100, H: 30},
		"ul":               {X: 20, Y: 140, W: 300, H: 90},
		"li:nth-child(1)":  {X: 20, Y: 140, W: 300, H: 30},
		"li:nth-child(2)":  {X: 20, Y: 170, W: 300, H: 30},
		"li:nth-child(3)":  {X: 20, Y: 200, W: 300, H: 30},
	}
	for sel, r := range layout {
		n := doc.QueryFirst(sel)
		require.NotNil(t, n, sel)
		doc.SetRect(n, r)
	}
	doc.SetComputed(doc.QueryFirst("button.primary"), map[string]string{
		"color":            "rgb(255, 255, 255)",
		"background-color": "rgb(37, 99, 235)",
		"font-size":        "14px",
	})
	return doc
}

type sent struct {
	Type    string
	Payload any
}

// recorder captures outbound messages in order.
type recorder struct {
	msgs []sent
}

func (r *recorder) Send(msgType string, payload any) error {
	r.msgs = append(r.msgs, sent{Type: msgType, Payload: payload})
	return nil
}

func (r *recorder) types() []string {
	var out []string
	for _, m := range r.msgs {
		out = append(out, m.Type)
	}
	return out
}

func (r *recorder) last(msgType string) (any, bool) {
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].Type == msgType {
			return r.msgs[i].Payload, true
		}
	}
	return nil, false
}

func (r *recorder) edits() []types.Edit {
	var out []types.Edit
	for _, m := range r.msgs {
		if p, ok := m.Payload.(bridge.EditCreatedPayload); ok {
			out = append(out, p.Edit)
		}
	}
	return out
}

func (r *recorder) reset() { r.msgs = nil }

func newAgent(t *testing.T) (*Agent, *dom.Document, *recorder) {
	t.Helper()
	doc := newFixture(t)
	rec := &recorder{}
	a, err := New(doc, rec, WithIDGenerator(idgen.Sequence("edit_")))
	require.NoError(t, err)
	return a, doc, rec
}

// centre returns the viewport centre of the element matching sel.
func centre(t *testing.T, doc *dom.Document, sel string) (float64, float64) {
	t.Helper()
	n := doc.QueryFirst(sel)
	require.NotNil(t, n, sel)
	r := doc.ViewportRect(n)
	return r.X + r.W/2, r.Y + r.H/2
}

func render(t *testing.T, doc *dom.Document) string {
	t.Helper()
	out, err := doc.Render()
	require.NoError(t, err)
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
