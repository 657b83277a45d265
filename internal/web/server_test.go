package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/valve-controller/internal/register"
	"github.com/sweeney/valve-controller/internal/status"
	"github.com/sweeney/valve-controller/internal/valve"
)

func newTestServer(t *testing.T) (*httptest.Server, *valve.Controller, *register.FakeRegister, *status.Tracker) {
	t.Helper()

	reg := register.NewFakeRegister(4)
	ctrl, err := valve.NewController(reg, []valve.Valve{
		{ID: 1, Channel: 1, Description: "Pipette input", ExcludedID: 2},
		{ID: 2, Channel: 2, Description: "Pipette output", ExcludedID: 1},
		{ID: 10, Channel: 3, Description: "Turbo", ExcludedID: 2},
	}, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := status.NewTracker(start, status.Config{
		Broker:     "tcp://192.168.1.200:1883",
		HTTPAddr:   ":80",
		ValveCount: 3,
	})

	srv := New(":0", ctrl, tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, ctrl, reg, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, _, reg, tr := newTestServer(t)
	reg.Preset(0b001) // valve 1 open
	tr.SetMQTTConnected(true)
	tr.RecordResult(valve.Result{Kind: valve.KindOpened})

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if len(sj.Status.Valves) != 3 {
		t.Fatalf("expected 3 valves, got %d", len(sj.Status.Valves))
	}
	if sj.Status.Valves[0].ID != 1 || sj.Status.Valves[0].State != valve.StateOpen {
		t.Errorf("valve 1: expected open, got %+v", sj.Status.Valves[0])
	}
	if sj.Status.Valves[1].State != valve.StateClosed {
		t.Errorf("valve 2: expected closed, got %+v", sj.Status.Valves[1])
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected mqtt connected")
	}
	if sj.Status.Counts.Opened != 1 {
		t.Errorf("expected 1 counted open, got %d", sj.Status.Counts.Opened)
	}
}

// TestJSONReflectsLiveRegister verifies the handler reads the register on
// every request rather than serving a cached state.
func TestJSONReflectsLiveRegister(t *testing.T) {
	ts, ctrl, reg, _ := newTestServer(t)

	fetchState := func(id int) valve.State {
		t.Helper()
		resp, err := http.Get(ts.URL + "/index.json")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer resp.Body.Close()
		var sj StatusJSON
		if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
			t.Fatalf("decode: %v", err)
		}
		for _, v := range sj.Status.Valves {
			if v.ID == id {
				return v.State
			}
		}
		t.Fatalf("valve %d missing from report", id)
		return ""
	}

	if got := fetchState(1); got != valve.StateClosed {
		t.Errorf("before open: expected closed, got %s", got)
	}

	if err := ctrl.Open(1); err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := fetchState(1); got != valve.StateOpen {
		t.Errorf("after open: expected open, got %s", got)
	}

	reg.Preset(0) // hardware changed underneath the controller
	if got := fetchState(1); got != valve.StateClosed {
		t.Errorf("after external change: expected closed, got %s", got)
	}
}

func TestJSONRegisterFailure(t *testing.T) {
	ts, _, reg, _ := newTestServer(t)
	reg.ReadErr = io.ErrUnexpectedEOF

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", resp.StatusCode)
	}
	var ej ErrorJSON
	if err := json.NewDecoder(resp.Body).Decode(&ej); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if ej.Error == "" {
		t.Error("expected error detail in body")
	}
}

func TestIndexHTML(t *testing.T) {
	ts, _, reg, _ := newTestServer(t)
	reg.Preset(0b100) // turbo open

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	html := string(body)

	if !strings.Contains(html, "Valve Controller") {
		t.Error("missing page title")
	}
	if !strings.Contains(html, "Turbo") {
		t.Error("missing valve description")
	}
	if !strings.Contains(html, `class="open"`) {
		t.Error("expected an open valve cell")
	}
}

func TestNotFound(t *testing.T) {
	ts, _, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}
