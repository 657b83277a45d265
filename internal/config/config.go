// Package config loads the valve controller configuration from YAML.
// The valve table is fixed at startup; nothing reloads it at runtime.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/valve-controller/internal/valve"
)

// Config is the root configuration structure.
type Config struct {
	Hardware HardwareConfig `yaml:"hardware"`
	Valves   []ValveConfig  `yaml:"valves"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// HardwareConfig maps register channels onto GPIO lines.
type HardwareConfig struct {
	// Chip is the GPIO character device name.
	Chip string `yaml:"chip"`

	// Pins lists the BCM pin per channel: Pins[k-1] drives channel k.
	Pins []int `yaml:"pins"`

	// ReadyChannel carries the readiness indicator. It must not be used
	// by any valve.
	ReadyChannel int `yaml:"ready_channel"`
}

// ValveConfig is one entry of the valve table.
type ValveConfig struct {
	ID          int    `yaml:"id"`
	Channel     int    `yaml:"channel"`
	Description string `yaml:"description"`
	Excluded    int    `yaml:"excluded"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

// HTTPConfig contains the status server settings.
type HTTPConfig struct {
	// Addr is the listen address; empty disables the status server.
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration matching the reference rig:
// two mutually excluding pipette valves and the turbo valve on channels
// 1-3, readiness on channel 4.
func Default() Config {
	return Config{
		Hardware: HardwareConfig{
			Chip:         "gpiochip0",
			Pins:         []int{5, 6, 13, 12},
			ReadyChannel: 4,
		},
		Valves: []ValveConfig{
			{ID: 1, Channel: 1, Description: "Pipette input", Excluded: 2},
			{ID: 2, Channel: 2, Description: "Pipette output", Excluded: 1},
			{ID: 10, Channel: 3, Description: "Turbo", Excluded: 2},
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://192.168.1.200:1883",
			ClientID: "valve-controller",
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
	}
}

// Load reads and validates a YAML configuration file. Fields left empty in
// the file keep their Default() values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the structural invariants the controller depends on.
// The valve table's own invariants (unique ids, resolvable exclusions) are
// re-checked by valve.NewController; this covers the hardware mapping.
func (c Config) Validate() error {
	if c.Hardware.Chip == "" {
		return fmt.Errorf("config: hardware.chip is required")
	}
	if len(c.Hardware.Pins) == 0 {
		return fmt.Errorf("config: hardware.pins is required")
	}
	// The register mask is 16 bits wide.
	if len(c.Hardware.Pins) > 16 {
		return fmt.Errorf("config: %d pins configured (max 16)", len(c.Hardware.Pins))
	}
	pins := make(map[int]int, len(c.Hardware.Pins))
	for ch, pin := range c.Hardware.Pins {
		if pin < 0 {
			return fmt.Errorf("config: channel %d: negative pin %d", ch+1, pin)
		}
		if other, dup := pins[pin]; dup {
			return fmt.Errorf("config: pin %d used by both channel %d and channel %d", pin, other, ch+1)
		}
		pins[pin] = ch + 1
	}

	if len(c.Valves) == 0 {
		return fmt.Errorf("config: at least one valve is required")
	}
	channels := make(map[int]int, len(c.Valves))
	for _, v := range c.Valves {
		if v.Channel < 1 || v.Channel > len(c.Hardware.Pins) {
			return fmt.Errorf("config: valve %d: channel %d outside pin table (1-%d)", v.ID, v.Channel, len(c.Hardware.Pins))
		}
		if other, dup := channels[v.Channel]; dup {
			return fmt.Errorf("config: valve %d: channel %d already used by valve %d", v.ID, v.Channel, other)
		}
		channels[v.Channel] = v.ID
	}

	if rc := c.Hardware.ReadyChannel; rc != 0 {
		if rc < 1 || rc > len(c.Hardware.Pins) {
			return fmt.Errorf("config: ready_channel %d outside pin table (1-%d)", rc, len(c.Hardware.Pins))
		}
		if other, used := channels[rc]; used {
			return fmt.Errorf("config: ready_channel %d is valve %d's channel", rc, other)
		}
	}

	return nil
}

// ValveTable converts the configured valve entries into the controller's
// table type.
func (c Config) ValveTable() []valve.Valve {
	table := make([]valve.Valve, len(c.Valves))
	for i, v := range c.Valves {
		table[i] = valve.Valve{
			ID:          v.ID,
			Channel:     v.Channel,
			Description: v.Description,
			ExcludedID:  v.Excluded,
		}
	}
	return table
}
