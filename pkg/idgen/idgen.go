// Package idgen provides the id-generator service injected into the editor
// agent, the host and the pin store.
//
// Ids only need to be unique within one ledger, but the default generator is
// globally unique so that several preview surfaces could share a ledger
// namespace later on.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces time-sortable RFC 9562 UUIDs.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends a fixed prefix to every id produced by gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Sequence returns a Generator producing prefix1, prefix2, ... It is
// deterministic and is what tests inject.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

// Default is the generator used when none is injected.
var Default Generator = UUIDv7()

// Edit returns the default generator for edit ids.
func Edit() Generator { return Prefixed("edit_", Default) }

// Pin returns the default generator for pin ids.
func Pin() Generator { return Prefixed("pin_", Default) }

// Message returns the default generator for bridge envelope ids.
func Message() Generator { return Prefixed("msg_", Default) }
