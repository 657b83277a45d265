// Package mqtt carries the command and reporting traffic for the valve
// controller, with abstraction for testing. Commands arrive as JSON
// (item, command) pairs; status reports and system lifecycle events are
// published back.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/valve-controller/internal/valve"
)

// Topic layout. One place so every subscriber and publisher agrees.
const (
	// TopicCommand receives JSON command messages.
	TopicCommand = "lab/valves/command"

	// TopicStatus carries valve status reports.
	TopicStatus = "lab/valves/status"

	// TopicSystem carries system lifecycle events.
	TopicSystem = "lab/valves/system"
)

// Command is the decoded form of an inbound command message.
type Command struct {
	Item    string `json:"item"`
	Command string `json:"command"`
}

// CommandHandler is called for each decoded command message. Handlers must
// not panic; they run on the MQTT client's delivery goroutine.
type CommandHandler func(cmd Command)

// DecodeCommand parses an inbound command payload. A payload that is not a
// JSON object with a non-empty item is rejected; the caller logs and drops
// it rather than letting a malformed message near the controller.
func DecodeCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("incorrect command message: %w", err)
	}
	if cmd.Item == "" {
		return Command{}, fmt.Errorf("incorrect command message: missing item")
	}
	return cmd, nil
}

// Client is the broker connection used by the daemon.
type Client interface {
	// PublishStatus sends a valve status report.
	PublishStatus(reports []valve.Report, now time.Time) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// SubscribeCommands registers the handler for inbound commands.
	SubscribeCommands(handler CommandHandler) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown,
// restart pending).
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN", "RESTART_PENDING"
	Reason    string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Retained  bool   // Whether the message should be retained by the broker
}

// StatusPayload represents the MQTT status message structure.
type StatusPayload struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status report details.
type StatusInner struct {
	Timestamp string         `json:"timestamp"`
	Valves    []valve.Report `json:"valves"`
}

// FormatStatusPayload creates the JSON payload for a valve status report.
func FormatStatusPayload(reports []valve.Report, now time.Time) ([]byte, error) {
	payload := StatusPayload{
		Status: StatusInner{
			Timestamp: now.UTC().Format(time.RFC3339),
			Valves:    reports,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
