package valve

import (
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/valve-controller/internal/register"
)

// RestartFunc schedules a system restart after the given delay and returns
// immediately. The controller never blocks on it.
type RestartFunc func(delay time.Duration)

// Controller enforces the valve interlock over a channel register.
//
// The read-check-write sequence in Open is guarded by a mutex so that two
// concurrent opens of mutually excluding valves cannot both observe
// "excluded closed" before either writes.
type Controller struct {
	mu      sync.Mutex
	reg     register.Register
	valves  []Valve
	byID    map[int]*Valve
	restart RestartFunc
}

// NewController validates the valve table and returns a controller over the
// given register. restart may be nil, in which case restart commands are
// rejected as malformed. The table is copied; callers cannot mutate it
// afterwards.
func NewController(reg register.Register, valves []Valve, restart RestartFunc) (*Controller, error) {
	if reg == nil {
		return nil, fmt.Errorf("nil register")
	}
	if len(valves) == 0 {
		return nil, fmt.Errorf("empty valve table")
	}

	table := make([]Valve, len(valves))
	copy(table, valves)

	byID := make(map[int]*Valve, len(table))
	channels := make(map[int]int, len(table))
	for i := range table {
		v := &table[i]
		if v.ID < 0 {
			return nil, fmt.Errorf("valve %d: negative id", v.ID)
		}
		if _, dup := byID[v.ID]; dup {
			return nil, fmt.Errorf("valve %d: duplicate id", v.ID)
		}
		if v.Channel < 1 {
			return nil, fmt.Errorf("valve %d: channel %d not positive", v.ID, v.Channel)
		}
		if other, dup := channels[v.Channel]; dup {
			return nil, fmt.Errorf("valve %d: channel %d already used by valve %d", v.ID, v.Channel, other)
		}
		byID[v.ID] = v
		channels[v.Channel] = v.ID
	}
	for i := range table {
		v := &table[i]
		if _, ok := byID[v.ExcludedID]; !ok {
			return nil, fmt.Errorf("valve %d: excluded valve %d not in table", v.ID, v.ExcludedID)
		}
	}

	return &Controller{
		reg:     reg,
		valves:  table,
		byID:    byID,
		restart: restart,
	}, nil
}

// Open energizes the valve's channel if its excluded counterpart is closed.
//
// The conflict check reads the full register mask once, before the write.
// A read failure rejects the open: if we cannot confirm the excluded valve
// is closed, we must not energize.
func (c *Controller) Open(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("open valve %d: %w", id, ErrUnknownValve)
	}
	excluded := c.byID[v.ExcludedID]

	mask, err := c.reg.ReadAll()
	if err != nil {
		return fmt.Errorf("open valve %d: cannot confirm valve %d closed: %w", id, excluded.ID, err)
	}
	if register.Bit(mask, excluded.Channel) == 1 {
		return &ConflictError{Attempted: id, BlockedBy: excluded.ID}
	}

	if err := c.reg.SetChannel(v.Channel, 1); err != nil {
		return fmt.Errorf("open valve %d: %w", id, err)
	}
	return nil
}

// Close de-energizes the valve's channel. Closing is never blocked: it can
// only remove a hazardous state, never create one.
func (c *Controller) Close(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("close valve %d: %w", id, ErrUnknownValve)
	}
	if err := c.reg.SetChannel(v.Channel, 0); err != nil {
		return fmt.Errorf("close valve %d: %w", id, err)
	}
	return nil
}

// CloseAll drives every configured channel to 0. Writes continue past
// individual failures so one bad channel cannot keep others energized.
func (c *Controller) CloseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for i := range c.valves {
		if err := c.reg.SetChannel(c.valves[i].Channel, 0); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close all: channel %d: %w", c.valves[i].Channel, err)
		}
	}
	return firstErr
}

// StatusOf derives one valve's state from a live register read.
func (c *Controller) StatusOf(id int) (State, error) {
	v, ok := c.byID[id]
	if !ok {
		return "", fmt.Errorf("status of valve %d: %w", id, ErrUnknownValve)
	}
	mask, err := c.reg.ReadAll()
	if err != nil {
		return "", fmt.Errorf("status of valve %d: %w", id, err)
	}
	return stateOf(register.Bit(mask, v.Channel)), nil
}

// StatusAll returns the compact {id, status} listing for every valve with
// id > 0 (id 0 is reserved and excluded), in configuration order. One
// register read covers the whole listing.
func (c *Controller) StatusAll() ([]Status, error) {
	mask, err := c.reg.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("status all: %w", err)
	}

	statuses := make([]Status, 0, len(c.valves))
	for i := range c.valves {
		v := &c.valves[i]
		if v.ID <= 0 {
			continue
		}
		statuses = append(statuses, Status{
			ID:    v.ID,
			State: stateOf(register.Bit(mask, v.Channel)),
		})
	}
	return statuses, nil
}

// Reports returns the enriched {id, description, status} listing for
// external reporting, derived from the same single read as StatusAll.
func (c *Controller) Reports() ([]Report, error) {
	mask, err := c.reg.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("status report: %w", err)
	}

	reports := make([]Report, 0, len(c.valves))
	for i := range c.valves {
		v := &c.valves[i]
		if v.ID <= 0 {
			continue
		}
		reports = append(reports, Report{
			ID:          v.ID,
			Description: v.Description,
			State:       stateOf(register.Bit(mask, v.Channel)),
		})
	}
	return reports, nil
}

// Valves returns the configured table, for consumers that need the static
// configuration (not state).
func (c *Controller) Valves() []Valve {
	table := make([]Valve, len(c.valves))
	copy(table, c.valves)
	return table
}
