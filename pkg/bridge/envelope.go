// Package bridge is the sole message channel between the host and the
// preview surface.
//
// Sends are fire-and-forget: no acknowledgement, no retry. Inbound messages
// that fail envelope or origin validation are dropped without surfacing an
// error, because the surface side is untrusted.
package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Source identifies which side of the boundary produced a message.
type Source string

const (
	SourceHost    Source = "host"
	SourceSurface Source = "surface"
)

// Remote returns the side opposite to s.
func (s Source) Remote() Source {
	if s == SourceHost {
		return SourceSurface
	}
	return SourceHost
}

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceHost || s == SourceSurface
}

// Envelope is the wire format of every message crossing the boundary.
type Envelope struct {
	Source    Source          `json:"source"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	ID        string          `json:"id"`
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

var (
	errMalformed     = errors.New("malformed envelope")
	errWrongOrigin   = errors.New("unexpected source")
	errMissingType   = errors.New("missing type")
	errMissingID     = errors.New("missing id")
	errPayloadObject = errors.New("payload must be a JSON object")
)

// parseEnvelope validates raw bytes as an envelope sent by expect.
func parseEnvelope(raw []byte, expect Source) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if env.Source != expect {
		return Envelope{}, fmt.Errorf("%w: %q", errWrongOrigin, env.Source)
	}
	if env.Type == "" {
		return Envelope{}, errMissingType
	}
	if env.ID == "" {
		return Envelope{}, errMissingID
	}
	trimmed := bytes.TrimSpace(env.Payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, errPayloadObject
	}
	return env, nil
}
