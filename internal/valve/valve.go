// Package valve contains the interlock controller for the laboratory valve
// set. Valve state is never cached here: every status query and every
// interlock decision re-reads the channel register, which is the single
// source of truth for which valves are open.
package valve

// State is the reported state of a valve, derived from its channel bit.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// stateOf maps a channel bit to its reported state.
func stateOf(bit int) State {
	if bit == 0 {
		return StateClosed
	}
	return StateOpen
}

// Valve is one entry of the static valve table. The table is fixed at
// startup; nothing mutates it afterwards.
type Valve struct {
	// ID is the identifier used in the external command vocabulary.
	ID int

	// Channel is the 1-based register channel driving this valve's actuator.
	// No two valves share a channel.
	Channel int

	// Description is a human-readable label, for reporting only.
	Description string

	// ExcludedID names the valve that must be closed before this one may
	// open. The relation is directed and not necessarily symmetric.
	ExcludedID int
}

// Status is the compact {id, status} shape used for internal monitoring.
type Status struct {
	ID    int   `json:"id"`
	State State `json:"status"`
}

// Report is the enriched shape consumed by external status endpoints.
type Report struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	State       State  `json:"status"`
}
