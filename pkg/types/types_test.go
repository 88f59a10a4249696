package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditType(t *testing.T) {
	for _, et := range AllEditTypes {
		assert.True(t, et.Valid(), et)
	}
	assert.False(t, EditType("explode").Valid())

	assert.True(t, EditTypeMarkError.IsAnnotation())
	assert.True(t, EditTypeAddHere.IsAnnotation())
	assert.True(t, EditTypeAnnotate.IsAnnotation())
	assert.False(t, EditTypeMove.IsAnnotation())
}

func TestSnapshotAccessors(t *testing.T) {
	var decoded Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"deltaX":40,"value":"#ff0000","half":12.5,"flag":true}`), &decoded))

	assert.Equal(t, 40.0, decoded.Float("deltaX"))
	assert.Equal(t, "40", decoded.String("deltaX"))
	assert.Equal(t, "12.5", decoded.String("half"))
	assert.Equal(t, "#ff0000", decoded.String("value"))
	assert.Equal(t, "true", decoded.String("flag"))
	assert.Equal(t, "", decoded.String("missing"))
	assert.Equal(t, 0.0, decoded.Float("value"))
	assert.True(t, decoded.Has("half"))

	s := Snapshot{"n": 3, "s": "7"}
	assert.Equal(t, 3.0, s.Float("n"))
	assert.Equal(t, 7.0, s.Float("s"))
}

func TestEditClone(t *testing.T) {
	e := Edit{ID: "e1", Type: EditTypeRetext, To: Snapshot{"text": "a"}, From: Snapshot{"text": "b"}}
	c := e.Clone()
	c.To["text"] = "changed"
	assert.Equal(t, "a", e.To["text"])

	edits := CloneEdits([]Edit{e})
	edits[0].From["text"] = "x"
	assert.Equal(t, "b", e.From["text"])
	assert.Nil(t, CloneEdits(nil))
}

func TestTargetsViewport(t *testing.T) {
	assert.True(t, Edit{Selector: ViewportSelector}.TargetsViewport())
	assert.True(t, Edit{}.TargetsViewport())
	assert.False(t, Edit{Selector: "button.primary"}.TargetsViewport())
}

func TestAnnotationKind(t *testing.T) {
	tests := []struct {
		kind   AnnotationKind
		want   EditType
		isEdit bool
	}{
		{AnnotationMarkError, EditTypeMarkError, true},
		{AnnotationAddHere, EditTypeAddHere, true},
		{AnnotationNote, EditTypeAnnotate, true},
		{AnnotationPin, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, ok := tt.kind.EditType()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.isEdit, ok)
			assert.True(t, tt.kind.Valid())
		})
	}
	assert.False(t, AnnotationKind("bogus").Valid())
}

func TestLabels(t *testing.T) {
	sel := SelectionSnapshot{Tag: "button", ID: "save", Classes: []string{"primary", "lg"}}
	assert.Equal(t, "button#save.primary.lg", sel.Describe())

	node := TreeNode{Tag: "div", Classes: []string{"card"}}
	assert.Equal(t, "div.card", node.Label())
}
