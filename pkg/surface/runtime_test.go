package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/canvas/pkg/dom"
	"github.com/entrhq/canvas/pkg/types"
)

func newTestRuntime(t *testing.T) (*Runtime, *dom.Document) {
	t.Helper()
	doc := newFixture(t)
	return newRuntime(doc, newOverlay(doc), nil), doc
}

func TestClassifyStyle(t *testing.T) {
	tests := []struct {
		property string
		want     types.EditType
	}{
		{"color", types.EditTypeRecolor},
		{"background-color", types.EditTypeRecolor},
		{"Border-Color", types.EditTypeRecolor},
		{"font-size", types.EditTypeRefont},
		{"font-weight", types.EditTypeRefont},
		{"line-height", types.EditTypeRefont},
		{"box-shadow", types.EditTypeEffect},
		{"opacity", types.EditTypeEffect},
	}
	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStyle(tt.property))
		})
	}
}

func TestRuntime_ApplyRevert(t *testing.T) {
	tests := []struct {
		name  string
		edit  types.Edit
		check func(t *testing.T, doc *dom.Document, applied types.Edit)
	}{
		{
			name: "move",
			edit: types.Edit{ID: "e1", Type: types.EditTypeMove, Selector: "button.primary",
				To: types.Snapshot{"deltaX": 40.0, "deltaY": 0.0}},
			check: func(t *testing.T, doc *dom.Document, applied types.Edit) {
				n := doc.QueryFirst("button.primary")
				tx, ty := dom.Translate(n)
				assert.Equal(t, 40.0, tx)
				assert.Equal(t, 0.0, ty)
				assert.Equal(t, 0.0, applied.From.Float("translateX"))
				assert.Equal(t, 60.0, applied.Coords.X)
			},
		},
		{
			name: "resize",
			edit: types.Edit{ID: "e1", Type: types.EditTypeResize, Selector: "button.primary",
				To: types.Snapshot{"width": 200.0, "height": 50.0}},
			check: func(t *testing.T, doc *dom.Document, applied types.Edit) {
				n := doc.QueryFirst("button.primary")
				assert.Equal(t, "200px", dom.Style(n, "width"))
				assert.Equal(t, 100.0, applied.From.Float("width"))
				assert.Equal(t, "", applied.From.String("inlineWidth"))
			},
		},
		{
			name: "recolor",
			edit: types.Edit{ID: "e1", Type: types.EditTypeRecolor, Selector: "button.primary",
				To: types.Snapshot{"property": "color", "value": "#ff0000", "target": "text"}},
			check: func(t *testing.T, doc *dom.Document, applied types.Edit) {
				assert.Equal(t, "#ff0000", dom.Style(doc.QueryFirst("button.primary"), "color"))
				assert.Equal(t, "rgb(255, 255, 255)", applied.From.String("value"))
			},
		},
		{
			name: "effect attribute",
			edit: types.Edit{ID: "e1", Type: types.EditTypeEffect, Selector: "button.primary",
				To: types.Snapshot{"attribute": "title", "value": "Save changes"}},
			check: func(t *testing.T, doc *dom.Document, applied types.Edit) {
				v, ok := dom.Attr(doc.QueryFirst("button.primary"), "title")
				assert.True(t, ok)
				assert.Equal(t, "Save changes", v)
				assert.Equal(t, false, applied.From["present"])
			},
		},
		{
			name: "retext",
			edit: types.Edit{ID: "e1", Type: types.EditTypeRetext, Selector: "h1",
				To: types.Snapshot{"text": "New title"}},
			check: func(t *testing.T, doc *dom.Document, applied types.Edit) {
				assert.Equal(t, "New title", dom.Text(doc.QueryFirst("h1")))
				assert.Equal(t, "Title", applied.From.String("text"))
			},
		},
		{
			name: "annotation",
			edit: types.Edit{ID: "e1", Type: types.EditTypeMarkError, Selector: "h1",
				Coords: types.Coords{X: 50, Y: 20}, To: types.Snapshot{"note": "overlaps"}},
			check: func(t *testing.T, doc *dom.Document, applied types.Edit) {
				out, err := doc.Render()
				require.NoError(t, err)
				assert.Contains(t, out, `data-canvas-edit="e1"`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, doc := newTestRuntime(t)
			before := render(t, doc)

			applied, ok := rt.Apply(tt.edit)
			require.True(t, ok)
			assert.True(t, rt.Live("e1"))
			tt.check(t, doc, applied)

			assert.True(t, rt.Revert("e1"))
			afterOnce := render(t, doc)
			assert.False(t, rt.Revert("e1"), "second revert is a no-op")
			assert.Equal(t, afterOnce, render(t, doc))

			if tt.edit.Type != types.EditTypeMarkError {
				assert.Equal(t, before, afterOnce)
			} else {
				assert.NotContains(t, afterOnce, `data-canvas-edit="e1"`)
			}
		})
	}
}

func TestRuntime_ApplyRederivesFrom(t *testing.T) {
	rt, doc := newTestRuntime(t)
	n := doc.QueryFirst("button.primary")
	doc.SetTranslate(n, 5, 5)

	applied, ok := rt.Apply(types.Edit{
		ID: "e1", Type: types.EditTypeMove, Selector: "button.primary",
		From: types.Snapshot{"translateX": 999.0, "translateY": 999.0},
		To:   types.Snapshot{"deltaX": 10.0, "deltaY": 0.0},
	})
	require.True(t, ok)
	assert.Equal(t, 5.0, applied.From.Float("translateX"))

	rt.Revert("e1")
	tx, ty := dom.Translate(n)
	assert.Equal(t, 5.0, tx)
	assert.Equal(t, 5.0, ty)
}

func TestRuntime_SelectorMiss(t *testing.T) {
	rt, _ := newTestRuntime(t)

	_, ok := rt.Apply(types.Edit{ID: "e1", Type: types.EditTypeRetext, Selector: ".gone", To: types.Snapshot{"text": "x"}})
	assert.False(t, ok)
	assert.False(t, rt.Revert("e1"))
	assert.False(t, rt.Revert("never-existed"))
}

func TestRuntime_ApplyTwiceIsNoop(t *testing.T) {
	rt, doc := newTestRuntime(t)
	e := types.Edit{ID: "e1", Type: types.EditTypeMove, Selector: "h1", To: types.Snapshot{"deltaX": 10.0, "deltaY": 0.0}}

	_, ok := rt.Apply(e)
	require.True(t, ok)
	_, ok = rt.Apply(e)
	assert.False(t, ok)

	tx, _ := dom.Translate(doc.QueryFirst("h1"))
	assert.Equal(t, 10.0, tx)
}

func TestRuntime_RevertAllRestoresOriginal(t *testing.T) {
	rt, doc := newTestRuntime(t)
	before := render(t, doc)

	for i, color := range []string{"red", "green", "blue"} {
		_, ok := rt.Apply(types.Edit{
			ID: []string{"a", "b", "c"}[i], Type: types.EditTypeRecolor, Selector: "button.primary",
			To: types.Snapshot{"property": "color", "value": color},
		})
		require.True(t, ok)
	}
	assert.Equal(t, "blue", dom.Style(doc.QueryFirst("button.primary"), "color"))

	assert.Equal(t, []string{"a", "b", "c"}, rt.RevertAll())
	assert.Equal(t, before, render(t, doc))
	assert.Empty(t, rt.LiveIDs())
}
