package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/entrhq/canvas/pkg/types"
)

// SchemaVersion is the version written by Encode.
const SchemaVersion = 1

// ErrUnsupportedVersion is returned by Decode for blobs written by a newer
// schema.
var ErrUnsupportedVersion = errors.New("ledger: unsupported schema version")

// State is everything persisted per project.
type State struct {
	Version   int                   `json:"version"`
	Edits     []types.Edit          `json:"edits"`
	Pins      []types.Pin           `json:"pins"`
	Reference *types.ReferenceImage `json:"reference,omitempty"`
}

// Empty reports whether there is nothing worth persisting.
func (s State) Empty() bool {
	return len(s.Edits) == 0 && len(s.Pins) == 0 && s.Reference == nil
}

// Encode serialises s at the current schema version.
func Encode(s State) ([]byte, error) {
	s.Version = SchemaVersion
	if s.Edits == nil {
		s.Edits = []types.Edit{}
	}
	if s.Pins == nil {
		s.Pins = []types.Pin{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode state: %w", err)
	}
	return data, nil
}

// Decode parses a persisted blob. A bare JSON array is the legacy
// unversioned format and loads as version 0 edits with no pins.
func Decode(data []byte) (State, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return State{Version: SchemaVersion}, nil
	}

	if trimmed[0] == '[' {
		var edits []types.Edit
		if err := json.Unmarshal(trimmed, &edits); err != nil {
			return State{}, fmt.Errorf("ledger: decode legacy edits: %w", err)
		}
		return State{Version: 0, Edits: edits}, nil
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return State{}, fmt.Errorf("ledger: decode state: %w", err)
	}
	if probe.Version > SchemaVersion || probe.Version < 1 {
		return State{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, probe.Version)
	}

	var s State
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return State{}, fmt.Errorf("ledger: decode state: %w", err)
	}
	return s, nil
}
