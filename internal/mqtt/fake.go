package mqtt

import (
	"time"

	"github.com/sweeney/valve-controller/internal/valve"
)

// FakeClient records published traffic and lets tests inject commands.
type FakeClient struct {
	// StatusReports contains all published valve reports, in order.
	StatusReports [][]valve.Report

	// StatusPayloads contains the JSON payloads of published reports.
	StatusPayloads [][]byte

	// SystemEvents contains all published system events.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// Dropped counts injected payloads that failed to decode.
	Dropped int

	// PublishStatusError, if set, will be returned by PublishStatus.
	PublishStatusError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// SubscribeError, if set, will be returned by SubscribeCommands.
	SubscribeError error

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool

	handler CommandHandler
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// PublishStatus records the report.
func (f *FakeClient) PublishStatus(reports []valve.Report, now time.Time) error {
	if f.PublishStatusError != nil {
		return f.PublishStatusError
	}

	f.StatusReports = append(f.StatusReports, reports)

	payload, err := FormatStatusPayload(reports, now)
	if err != nil {
		return err
	}
	f.StatusPayloads = append(f.StatusPayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakeClient) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// SubscribeCommands stores the handler for later injection.
func (f *FakeClient) SubscribeCommands(handler CommandHandler) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.handler = handler
	return nil
}

// Inject delivers a decoded command to the subscribed handler, as if it had
// arrived from the broker.
func (f *FakeClient) Inject(cmd Command) {
	if f.handler != nil {
		f.handler(cmd)
	}
}

// InjectPayload delivers a raw payload through the same decode path the
// real client uses. Undecodable payloads are counted and dropped.
func (f *FakeClient) InjectPayload(payload []byte) {
	cmd, err := DecodeCommand(payload)
	if err != nil {
		f.Dropped++
		return
	}
	f.Inject(cmd)
}

// IsConnected reports whether the fake client is "connected".
func (f *FakeClient) IsConnected() bool {
	return f.Connected
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded traffic.
func (f *FakeClient) Reset() {
	f.StatusReports = nil
	f.StatusPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Dropped = 0
	f.PublishStatusError = nil
	f.PublishSystemError = nil
	f.SubscribeError = nil
	f.Connected = false
	f.Closed = false
	f.handler = nil
}
