package types

// AnnotationKind names what the operator picked from the surface context
// menu before the host collects free text.
type AnnotationKind string

const (
	AnnotationMarkError AnnotationKind = "mark_error"
	AnnotationAddHere   AnnotationKind = "add_here"
	AnnotationNote      AnnotationKind = "annotate"
	AnnotationPin       AnnotationKind = "pin"
)

// EditType returns the edit type an annotation resolves to. Pins produce
// no edit and report false.
func (k AnnotationKind) EditType() (EditType, bool) {
	switch k {
	case AnnotationMarkError:
		return EditTypeMarkError, true
	case AnnotationAddHere:
		return EditTypeAddHere, true
	case AnnotationNote:
		return EditTypeAnnotate, true
	}
	return "", false
}

// Valid reports whether k is a known annotation kind.
func (k AnnotationKind) Valid() bool {
	_, isEdit := k.EditType()
	return isEdit || k == AnnotationPin
}
