package valve

import (
	"errors"
	"fmt"
)

// Sentinel errors for valve operations. Use errors.Is() to check for these
// in calling code.
var (
	// ErrUnknownValve is returned when an id is not in the valve table.
	// Callers at the command boundary tolerate it: log and discard.
	ErrUnknownValve = errors.New("valve: unknown valve id")

	// ErrMalformedCommand is returned by Dispatch for an unparsable
	// item/command pair. Never propagated past the command boundary.
	ErrMalformedCommand = errors.New("valve: malformed command")
)

// ConflictError reports an open that was rejected because the excluded
// counterpart valve is energized. No hardware write happened.
type ConflictError struct {
	// Attempted is the valve whose open was requested.
	Attempted int

	// BlockedBy is the excluded valve found open.
	BlockedBy int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("valve: cannot open valve %d, excluded valve %d is open", e.Attempted, e.BlockedBy)
}
