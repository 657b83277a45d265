package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/valve-controller/internal/status"
	"github.com/sweeney/valve-controller/internal/valve"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Valves        []valve.Report `json:"valves"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"command_counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of dispatch outcome counts.
type CountsJSON struct {
	Opened         int `json:"opened"`
	Closed         int `json:"closed"`
	ClosedAll      int `json:"closed_all"`
	Conflicts      int `json:"conflicts"`
	UnknownValve   int `json:"unknown_valve"`
	Malformed      int `json:"malformed"`
	Restarts       int `json:"restarts"`
	HardwareErrors int `json:"hardware_errors"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Broker     string `json:"broker"`
	HTTPAddr   string `json:"http_addr"`
	ConfigPath string `json:"config_path,omitempty"`
	ValveCount int    `json:"valve_count"`
}

func formatJSON(reports []valve.Report, snap status.Snapshot) []byte {
	sj := StatusJSON{
		Status: StatusInner{
			Valves:        reports,
			UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
			StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
			Counts: CountsJSON{
				Opened:         snap.Counts.Opened,
				Closed:         snap.Counts.Closed,
				ClosedAll:      snap.Counts.ClosedAll,
				Conflicts:      snap.Counts.Conflicts,
				UnknownValve:   snap.Counts.UnknownValve,
				Malformed:      snap.Counts.Malformed,
				Restarts:       snap.Counts.Restarts,
				HardwareErrors: snap.Counts.HardwareErrors,
			},
			Config: ConfigJSON{
				Broker:     snap.Config.Broker,
				HTTPAddr:   snap.Config.HTTPAddr,
				ConfigPath: snap.Config.ConfigPath,
				ValveCount: snap.Config.ValveCount,
			},
		},
	}

	if snap.Network != nil {
		sj.Status.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}

	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}

// ErrorJSON is returned when the register cannot be read.
type ErrorJSON struct {
	Error string `json:"error"`
}

func formatErrorJSON(err error) []byte {
	data, _ := json.Marshal(ErrorJSON{Error: err.Error()})
	return data
}
