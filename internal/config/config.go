// Package config centralizes tunable constants and boot-time configuration
// for the leader and follower processes, in the style of the application's
// upstream config/defaults split: cadence and timeout constants live in
// defaults.go, and a single Config struct plus Validate carries everything
// that varies per deployment.
package config

import (
	"fmt"
	"time"
)

// Config holds the options shared by the leader and follower CLIs.
type Config struct {
	// RadioBasePort is the UDP port added to a channel number (udp.Config).
	RadioBasePort int `json:"radio_base_port"`
	// RadioBroadcastAddr is the destination address for outbound frames.
	RadioBroadcastAddr string `json:"radio_broadcast_addr"`

	// HubNumber identifies which switch hub this process is (1-based),
	// ignored by the leader and by train-hub processes.
	HubNumber int `json:"hub_number"`
	// TrainTag identifies which train this process drives, ignored by
	// the leader and by switch-hub processes.
	TrainTag string `json:"train_tag"`
	// TrainIndex is this train's 1-based position in declaration order,
	// used to compute its status channel.
	TrainIndex int `json:"train_index"`

	MinRepeats    int `json:"min_repeats"`
	MaxSearchNodes int `json:"max_search_nodes"`

	Verbose bool `json:"verbose"`

	// TelemetryMQTTURL optionally mirrors leader state to an external
	// MQTT broker; empty disables the bridge entirely.
	TelemetryMQTTURL string `json:"telemetry_mqtt_url"`
	TelemetryDiscoveryPrefix string `json:"telemetry_discovery_prefix"`
}

// Default returns a configuration with sensible defaults; callers override
// fields from CLI flags before calling Validate.
func Default() *Config {
	return &Config{
		RadioBasePort:      30000,
		RadioBroadcastAddr: "255.255.255.255",
		MinRepeats:         DefaultMinRepeats,
		MaxSearchNodes:     DefaultMaxSearchNodes,
		TelemetryDiscoveryPrefix: "homeassistant",
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime errors deep in the planner or radio layer.
func (c *Config) Validate() error {
	if c.RadioBasePort <= 0 || c.RadioBasePort > 65000 {
		return fmt.Errorf("config: radio base port %d out of range", c.RadioBasePort)
	}
	if c.MinRepeats < 1 {
		return fmt.Errorf("config: min_repeats must be >= 1, got %d", c.MinRepeats)
	}
	if c.MaxSearchNodes < 1 {
		return fmt.Errorf("config: max_search_nodes must be >= 1, got %d", c.MaxSearchNodes)
	}
	return nil
}

// HasTelemetry reports whether the optional MQTT telemetry bridge is
// configured.
func (c *Config) HasTelemetry() bool {
	return c.TelemetryMQTTURL != ""
}

// SwitchTimeout and friends re-export the fixed executor policy as methods
// so callers don't need to import both config and its own constants block.
func (c *Config) SwitchTimeout() time.Duration { return SwitchCommandTimeout }
func (c *Config) TrainTimeout() time.Duration  { return TrainCommandTimeout }
