package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/valve-controller/internal/valve"
)

func TestDecodeCommand(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"item":"valve1","command":"open"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Item != "valve1" || cmd.Command != "open" {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestDecodeCommandRejectsJunk(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "open valve one please"},
		{"empty", ""},
		{"missing item", `{"command":"open"}`},
		{"empty item", `{"item":"","command":"open"}`},
		{"json array", `["valve1","open"]`},
	}
	for _, tc := range cases {
		if _, err := DecodeCommand([]byte(tc.payload)); err == nil {
			t.Errorf("%s: expected decode error", tc.name)
		}
	}
}

func TestDecodeCommandAllowsMissingCommand(t *testing.T) {
	// closeallvalves acts regardless of the command value, so a payload
	// without one must still decode.
	cmd, err := DecodeCommand([]byte(`{"item":"closeallvalves"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Item != "closeallvalves" || cmd.Command != "" {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestFormatStatusPayload(t *testing.T) {
	reports := []valve.Report{
		{ID: 1, Description: "Pipette input", State: valve.StateOpen},
		{ID: 2, Description: "Pipette output", State: valve.StateClosed},
	}
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

	payload, err := FormatStatusPayload(reports, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded StatusPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not valid json: %v", err)
	}
	if decoded.Status.Timestamp != "2026-03-14T15:09:26Z" {
		t.Errorf("unexpected timestamp: %s", decoded.Status.Timestamp)
	}
	if len(decoded.Status.Valves) != 2 {
		t.Fatalf("expected 2 valves, got %d", len(decoded.Status.Valves))
	}
	if decoded.Status.Valves[0].ID != 1 || decoded.Status.Valves[0].State != valve.StateOpen {
		t.Errorf("unexpected first entry: %+v", decoded.Status.Valves[0])
	}
	if decoded.Status.Valves[1].Description != "Pipette output" {
		t.Errorf("unexpected second entry: %+v", decoded.Status.Valves[1])
	}
}

func TestStatusPayloadFieldNames(t *testing.T) {
	payload, err := FormatStatusPayload([]valve.Report{
		{ID: 10, Description: "Turbo", State: valve.StateClosed},
	}, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var inner struct {
		Valves []map[string]json.RawMessage `json:"valves"`
	}
	if err := json.Unmarshal(raw["status"], &inner); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if len(inner.Valves) != 1 {
		t.Fatalf("expected 1 valve entry, got %d", len(inner.Valves))
	}
	for _, key := range []string{"id", "description", "status"} {
		if _, ok := inner.Valves[0][key]; !ok {
			t.Errorf("valve entry missing %q key", key)
		}
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded SystemPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not valid json: %v", err)
	}
	if decoded.System.Event != "SHUTDOWN" || decoded.System.Reason != "SIGTERM" {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Unix(0, 0),
		Event:     "STARTUP",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := raw["system"]["reason"]; present {
		t.Error("empty reason should be omitted")
	}
}

func TestFakeClientInjection(t *testing.T) {
	f := NewFakeClient()

	var got []Command
	if err := f.SubscribeCommands(func(cmd Command) {
		got = append(got, cmd)
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	f.InjectPayload([]byte(`{"item":"valve1","command":"open"}`))
	f.InjectPayload([]byte(`garbage`))
	f.Inject(Command{Item: "closeallvalves"})

	if len(got) != 2 {
		t.Fatalf("expected 2 delivered commands, got %d", len(got))
	}
	if got[0].Item != "valve1" || got[1].Item != "closeallvalves" {
		t.Errorf("unexpected commands: %+v", got)
	}
	if f.Dropped != 1 {
		t.Errorf("expected 1 dropped payload, got %d", f.Dropped)
	}
}

func TestFakeClientRecordsPublishes(t *testing.T) {
	f := NewFakeClient()

	reports := []valve.Report{{ID: 1, Description: "Pipette input", State: valve.StateOpen}}
	if err := f.PublishStatus(reports, time.Unix(0, 0)); err != nil {
		t.Fatalf("publish status: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Fatalf("publish system: %v", err)
	}

	if len(f.StatusReports) != 1 || len(f.StatusPayloads) != 1 {
		t.Errorf("expected 1 recorded status, got %d/%d", len(f.StatusReports), len(f.StatusPayloads))
	}
	if len(f.SystemEvents) != 1 || f.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("unexpected system events: %+v", f.SystemEvents)
	}
}
