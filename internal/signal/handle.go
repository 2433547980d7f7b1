package signal

import (
	"strings"

	"github.com/google/uuid"
)

// HandleID identifies one observer registration on a Signal.
type HandleID uuid.UUID

// NilHandle is the zero handle.
var NilHandle HandleID

// NewHandle returns a random handle.
func NewHandle() HandleID {
	return HandleID(uuid.New())
}

// HandleFor derives a deterministic handle from a scope and name parts.
//
// Behaviours use it so that re-observing the same property from the same
// behaviour replaces the earlier registration instead of adding a second one.
func HandleFor(scope uuid.UUID, parts ...string) HandleID {
	return HandleID(uuid.NewSHA1(scope, []byte(strings.Join(parts, "\x00"))))
}

func (h HandleID) String() string {
	return uuid.UUID(h).String()
}

// IsNil reports whether h is the zero handle.
func (h HandleID) IsNil() bool {
	return h == NilHandle
}
