package types

// Snapshot keys shared by the surface runtime, which writes them, and the
// compiler and diff views, which read them.
const (
	KeyTranslateX   = "translateX"
	KeyTranslateY   = "translateY"
	KeyDeltaX       = "deltaX"
	KeyDeltaY       = "deltaY"
	KeyWidth        = "width"
	KeyHeight       = "height"
	KeyInlineWidth  = "inlineWidth"
	KeyInlineHeight = "inlineHeight"
	KeyProperty     = "property"
	KeyAttribute    = "attribute"
	KeyValue        = "value"
	KeyInline       = "inline"
	KeyPresent      = "present"
	KeyTarget       = "target"
	KeyText         = "text"
	KeyNote         = "note"
)
