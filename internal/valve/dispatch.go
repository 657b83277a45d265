package valve

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RestartDelay is how long a restart command waits before rebooting,
// giving the acknowledgement time to reach the operator.
const RestartDelay = 15 * time.Second

// maxValveNumber bounds the valve numbers accepted from the command
// vocabulary: valveN is routed only for 0 < N < maxValveNumber.
const maxValveNumber = 14

// Kind classifies the outcome of a Dispatch call.
type Kind string

const (
	KindOpened           Kind = "opened"
	KindClosed           Kind = "closed"
	KindClosedAll        Kind = "closed_all"
	KindConflict         Kind = "conflict"
	KindUnknownValve     Kind = "unknown_valve"
	KindMalformed        Kind = "malformed"
	KindRestartScheduled Kind = "restart_scheduled"
	KindHardwareError    Kind = "hardware_error"
)

// Result is what Dispatch hands back to the command boundary instead of an
// error: the outcome set is small and exhaustively enumerable, and none of
// it may propagate as a failure to the untrusted command source. The caller
// logs it.
type Result struct {
	// Kind is the outcome class.
	Kind Kind

	// Valve is the valve id involved, when one was resolved (0 otherwise).
	Valve int

	// BlockedBy is the excluded valve id for KindConflict results.
	BlockedBy int

	// Detail is a human-readable line for the log.
	Detail string
}

// StateChanged reports whether the outcome moved hardware, i.e. whether a
// fresh status report is worth publishing.
func (r Result) StateChanged() bool {
	switch r.Kind {
	case KindOpened, KindClosed, KindClosedAll:
		return true
	}
	return false
}

// Dispatch routes a symbolic (item, command) pair to a valve or system
// operation. It never panics and never returns an error: every malformed or
// rejected input is downgraded to a Result for the caller to log, because
// the command source is an untrusted external channel and a bad message must
// not crash the controller.
func (c *Controller) Dispatch(item, command string) Result {
	if strings.HasPrefix(item, "valve") {
		return c.dispatchValve(item[len("valve"):], command)
	}

	switch item {
	case "closeallvalves":
		// Close-all honors any command value.
		if err := c.CloseAll(); err != nil {
			return Result{Kind: KindHardwareError, Detail: err.Error()}
		}
		return Result{Kind: KindClosedAll, Detail: "all valves closed"}

	case "restart":
		if command != "pi" || c.restart == nil {
			return Result{Kind: KindMalformed, Detail: fmt.Sprintf("bad restart command %q", command)}
		}
		c.restart(RestartDelay)
		return Result{
			Kind:   KindRestartScheduled,
			Detail: fmt.Sprintf("restart command received: system will restart in %v", RestartDelay),
		}
	}

	return Result{Kind: KindMalformed, Detail: fmt.Sprintf("unrecognized item %q", item)}
}

func (c *Controller) dispatchValve(suffix, command string) Result {
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return Result{Kind: KindMalformed, Detail: fmt.Sprintf("bad valve number %q", suffix)}
	}
	if n <= 0 || n >= maxValveNumber {
		return Result{Kind: KindMalformed, Valve: n, Detail: fmt.Sprintf("valve number %d out of range", n)}
	}

	switch command {
	case "open":
		return c.resultOf(KindOpened, n, c.Open(n))
	case "close":
		return c.resultOf(KindClosed, n, c.Close(n))
	}
	return Result{Kind: KindMalformed, Valve: n, Detail: fmt.Sprintf("bad valve command %q", command)}
}

// resultOf converts an Open/Close error into the Result the boundary logs.
func (c *Controller) resultOf(ok Kind, id int, err error) Result {
	if err == nil {
		verb := "opened"
		if ok == KindClosed {
			verb = "closed"
		}
		return Result{Kind: ok, Valve: id, Detail: fmt.Sprintf("valve %d %s", id, verb)}
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return Result{
			Kind:      KindConflict,
			Valve:     conflict.Attempted,
			BlockedBy: conflict.BlockedBy,
			Detail:    conflict.Error(),
		}
	}
	if errors.Is(err, ErrUnknownValve) {
		return Result{Kind: KindUnknownValve, Valve: id, Detail: err.Error()}
	}
	return Result{Kind: KindHardwareError, Valve: id, Detail: err.Error()}
}
