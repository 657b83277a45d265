// Package status provides a thread-safe tracker for daemon metadata: uptime,
// command counters, and connectivity. Valve open/closed state is deliberately
// absent — the channel register is the single source of truth for that, and
// every consumer reads it live through the controller instead.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/valve-controller/internal/valve"
)

// NetworkInfo contains network state reported by the pi-helper service.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Broker     string
	HTTPAddr   string
	ConfigPath string
	ValveCount int
}

// CommandCounts tracks dispatch outcomes since startup.
type CommandCounts struct {
	Opened         int
	Closed         int
	ClosedAll      int
	Conflicts      int
	UnknownValve   int
	Malformed      int
	Restarts       int
	HardwareErrors int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Counts        CommandCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RecordResult counts a dispatch outcome. Called for every inbound command.
func (t *Tracker) RecordResult(res valve.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch res.Kind {
	case valve.KindOpened:
		t.snap.Counts.Opened++
	case valve.KindClosed:
		t.snap.Counts.Closed++
	case valve.KindClosedAll:
		t.snap.Counts.ClosedAll++
	case valve.KindConflict:
		t.snap.Counts.Conflicts++
	case valve.KindUnknownValve:
		t.snap.Counts.UnknownValve++
	case valve.KindMalformed:
		t.snap.Counts.Malformed++
	case valve.KindRestartScheduled:
		t.snap.Counts.Restarts++
	case valve.KindHardwareError:
		t.snap.Counts.HardwareErrors++
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
