package types

import "time"

// Pin is a point annotation carrying a free-text instruction. Pins are
// independent of edits and have no undo history.
type Pin struct {
	ID                 string    `json:"id"`
	X                  float64   `json:"x"`
	Y                  float64   `json:"y"`
	PageX              float64   `json:"pageX"`
	PageY              float64   `json:"pageY"`
	Prompt             string    `json:"prompt"`
	NearestSelector    string    `json:"nearestSelector"`
	NearestElementDesc string    `json:"nearestElementDesc"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ReferenceImage is the optional design overlay shown over the preview.
type ReferenceImage struct {
	DataURL string  `json:"dataUrl"`
	Opacity float64 `json:"opacity"`
}

// DefaultReferenceOpacity is used when a reference image arrives without one.
const DefaultReferenceOpacity = 0.5
