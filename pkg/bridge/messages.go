package bridge

import "github.com/entrhq/canvas/pkg/types"

// Host to surface message types.
const (
	MsgInjectStyle       = "inject-style"
	MsgUpdateLayout      = "update-layout"
	MsgUpdateProps       = "update-props"
	MsgRequestSnapshot   = "request-snapshot"
	MsgSelectElement     = "select-element"
	MsgRemoveEdit        = "remove-edit"
	MsgClearEdits        = "clear-edits"
	MsgAddAnnotation     = "add-annotation"
	MsgSetReferenceImage = "set-reference-image"
	MsgSetLanguage       = "set-language"
	MsgApplyEdit         = "apply-edit"
	MsgSetPins           = "set-pins"
)

// Surface to host message types.
const (
	MsgInspectorReady    = "inspector-ready"
	MsgSelectionChanged  = "selection-changed"
	MsgEditCreated       = "edit-created"
	MsgEditRemoved       = "edit-removed"
	MsgEditsCleared      = "edits-cleared"
	MsgAnnotationRequest = "annotation-request"
	MsgContextAction     = "context-action"
	MsgDOMTree           = "dom-tree"
	MsgPinClicked        = "pin-clicked"
	MsgPinMoved          = "pin-moved"
)

// Wildcard subscribes a handler to every message type.
const Wildcard = "*"

type InjectStylePayload struct {
	Selector string `json:"selector,omitempty"`
	Property string `json:"property"`
	Value    string `json:"value"`
}

// LayoutProps are CSS values; empty fields are left untouched.
type LayoutProps struct {
	Width    string `json:"width,omitempty"`
	Height   string `json:"height,omitempty"`
	Top      string `json:"top,omitempty"`
	Left     string `json:"left,omitempty"`
	Position string `json:"position,omitempty"`
}

type UpdateLayoutPayload struct {
	Selector string      `json:"selector,omitempty"`
	Layout   LayoutProps `json:"layout"`
}

// UpdatePropsPayload sets attributes; the "text" key replaces text content.
type UpdatePropsPayload struct {
	Selector   string            `json:"selector,omitempty"`
	Attributes map[string]string `json:"attributes"`
}

type RequestSnapshotPayload struct{}

// SelectElementPayload toggles the editor. A non-empty Selector also selects
// that element.
type SelectElementPayload struct {
	Enabled  bool   `json:"enabled"`
	Selector string `json:"selector,omitempty"`
}

type RemoveEditPayload struct {
	ID string `json:"id"`
}

type ClearEditsPayload struct{}

// AddAnnotationPayload carries the operator's note for a pending
// annotation. X and Y are viewport coordinates.
type AddAnnotationPayload struct {
	X    float64              `json:"x"`
	Y    float64              `json:"y"`
	Type types.AnnotationKind `json:"type"`
	Note string               `json:"note"`
}

// SetReferenceImagePayload with an empty DataURL removes the overlay.
type SetReferenceImagePayload struct {
	DataURL string  `json:"dataUrl"`
	Opacity float64 `json:"opacity,omitempty"`
}

type SetLanguagePayload struct {
	Lang string `json:"lang"`
}

type ApplyEditPayload struct {
	Edit types.Edit `json:"edit"`
}

type SetPinsPayload struct {
	Pins []types.Pin `json:"pins"`
}

type InspectorReadyPayload struct {
	Version string `json:"version,omitempty"`
}

// SelectionChangedPayload carries a nil Selection when nothing is selected.
type SelectionChangedPayload struct {
	Selection *types.SelectionSnapshot `json:"selection"`
}

type EditCreatedPayload struct {
	Edit types.Edit `json:"edit"`
}

type EditRemovedPayload struct {
	ID string `json:"id"`
}

type EditsClearedPayload struct{}

type NearestElement struct {
	Selector string `json:"selector"`
	Desc     string `json:"desc"`
}

type AnnotationRequestPayload struct {
	Type           types.AnnotationKind `json:"type"`
	X              float64              `json:"x"`
	Y              float64              `json:"y"`
	PageX          float64              `json:"pageX"`
	PageY          float64              `json:"pageY"`
	NearestElement NearestElement       `json:"nearestElement"`
}

type ContextActionPayload struct {
	Action   string `json:"action"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
}

type DOMTreePayload struct {
	Tree *types.TreeNode `json:"tree"`
}

type PinClickedPayload struct {
	PinID string `json:"pinId"`
}

type PinMovedPayload struct {
	PinID string  `json:"pinId"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	PageX float64 `json:"pageX"`
	PageY float64 `json:"pageY"`
}
