package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariant marks a broken precondition inside the engine (an edit for an
	// edge that does not exist, a partial detail commit, an adoption index out of
	// range). It signals a caller bug, never bad user input.
	ErrInvariant = errors.New("matrix invariant violation")

	ErrSessionActive = errors.New("an editing session is already open for this target")
	ErrSessionClosed = errors.New("editing session is closed")
	ErrUnknownModule = errors.New("unknown module")
	ErrUnknownKind   = errors.New("unknown value kind")
	ErrInvalidGraph  = errors.New("invalid dependency graph")
	ErrInvalidValue  = errors.New("invalid value")
)

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
