package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/entrhq/canvas/pkg/dom"
)

const page = `<html><head></head><body><div id="app"><p>hello</p></div></body></html>`

func newFixture(t *testing.T) (*dom.Document, *mirror, *[]op) {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)

	m := newMirror(doc)
	var ops []op
	doc.Observe(func(mu dom.Mutation) {
		o, err := m.translate(mu)
		require.NoError(t, err)
		ops = append(ops, o)
	})
	return doc, m, &ops
}

func TestMirror_KeysFollowDocumentOrder(t *testing.T) {
	doc, m, _ := newFixture(t)

	require.Len(t, m.nodes, 5)
	assert.Equal(t, "html", dom.Tag(m.node(0)))
	assert.Equal(t, "head", dom.Tag(m.node(1)))
	assert.Equal(t, "body", dom.Tag(m.node(2)))
	assert.Equal(t, doc.QueryFirst("#app"), m.node(3))
	assert.Equal(t, "p", dom.Tag(m.node(4)))
	assert.Nil(t, m.node(5))
	assert.Nil(t, m.node(-1))
}

func TestMirror_StyleAndText(t *testing.T) {
	doc, _, ops := newFixture(t)
	app := doc.QueryFirst("#app")

	doc.SetStyle(app, "color", "red")
	doc.SetText(doc.QueryFirst("p"), "bye")
	doc.SetAttr(app, "title", "x")
	doc.RemoveAttr(app, "title")

	require.Len(t, *ops, 4)
	assert.Equal(t, op{Kind: "style", Key: 3, Name: "color", Value: "red"}, (*ops)[0])
	assert.Equal(t, op{Kind: "text", Key: 4, Value: "bye"}, (*ops)[1])
	assert.Equal(t, op{Kind: "attr", Key: 3, Name: "title", Value: "x"}, (*ops)[2])
	assert.Equal(t, op{Kind: "attr_remove", Key: 3, Name: "title"}, (*ops)[3])
}

func TestMirror_InsertRegistersSubtree(t *testing.T) {
	doc, m, ops := newFixture(t)

	overlay := dom.CreateAgentElement("div", "overlay")
	overlay.AppendChild(&html.Node{Type: html.ElementNode, Data: "span"})
	doc.Append(doc.Body(), overlay)

	require.Len(t, *ops, 1)
	ins := (*ops)[0]
	assert.Equal(t, "insert", ins.Kind)
	assert.Equal(t, 2, ins.Key)
	assert.Equal(t, 2, ins.Count)
	assert.Equal(t, `<div data-canvas-agent="overlay"><span></span></div>`, ins.HTML)
	assert.Equal(t, overlay, m.node(5))
	assert.Equal(t, overlay.FirstChild, m.node(6))

	doc.SetStyle(overlay.FirstChild, "left", "4px")
	assert.Equal(t, op{Kind: "style", Key: 6, Name: "left", Value: "4px"}, (*ops)[1])

	doc.Remove(overlay)
	assert.Equal(t, op{Kind: "remove", Key: 5}, (*ops)[2])
	assert.Nil(t, m.node(5))
	assert.Nil(t, m.node(6))
}

func TestMirror_LocateUnregisteredDescendant(t *testing.T) {
	doc, m, _ := newFixture(t)
	app := doc.QueryFirst("#app")

	extra := &html.Node{Type: html.ElementNode, Data: "em"}
	app.AppendChild(extra)

	key, path, ok := m.locate(extra)
	require.True(t, ok)
	assert.Equal(t, 3, key)
	assert.Equal(t, []int{1}, path)

	_, _, ok = m.locate(&html.Node{Type: html.ElementNode, Data: "orphan"})
	assert.False(t, ok)
}

func TestMirror_RemoveUnregistered(t *testing.T) {
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	m := newMirror(doc)

	stray := &html.Node{Type: html.ElementNode, Data: "i"}
	doc.Body().AppendChild(stray)
	doc.Remove(stray)

	_, err = m.translate(dom.Mutation{Kind: dom.MutationRemove, Node: stray, Parent: doc.Body()})
	assert.Error(t, err)
}

func TestMirror_ApplyLayout(t *testing.T) {
	doc, m, _ := newFixture(t)
	app := doc.QueryFirst("#app")
	doc.SetTranslate(app, 10, 5)

	overlay := dom.CreateAgentElement("div", "overlay")
	doc.Append(doc.Body(), overlay)

	ms := measurement{
		ScrollX: 0,
		ScrollY: 40,
		Nodes: []*nodeMeasure{
			{W: 800, H: 600},
			nil,
			{W: 800, H: 600},
			{X: 30, Y: 25, W: 200, H: 100, Styles: map[string]string{"Color": "rgb(0, 0, 0)"}},
			{X: 20, Y: 20, W: 50, H: 10},
			{X: 1, Y: 1, W: 1, H: 1},
		},
	}
	m.applyLayout(doc, ms)

	assert.Equal(t, dom.Rect{X: 30, Y: 25, W: 200, H: 100}, doc.Rect(app), "effective box adds the translate back")
	assert.Equal(t, "rgb(0, 0, 0)", doc.Computed(app, "color"))
	assert.False(t, doc.HasLayout(overlay), "agent chrome is not measured")
	_, sy := doc.Scroll()
	assert.Equal(t, 40.0, sy)
}

func TestMeasureScriptKeepsRegistry(t *testing.T) {
	assert.Contains(t, captureScript, "querySelectorAll('*')")
	assert.NotContains(t, measureScript, "c.nodes = Array.from")
	assert.True(t, strings.HasPrefix(measureScript, "(props) =>"))
}
