// Package config loads the YAML configuration of the Linux sequencer target.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pulselab/core"
)

// Config is the target configuration file.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Timers  TimersConfig  `yaml:"timers"`
	Initial InitialConfig `yaml:"initial"`
	Trace   TraceConfig   `yaml:"trace"`

	// PollInterval is the main loop period
	PollInterval time.Duration `yaml:"poll_interval"`
}

// SerialConfig describes the host link
type SerialConfig struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms"`
}

// BridgeConfig names the GPIO lines of the four bridge outputs, as known to
// the periph.io pin registry (e.g. "GPIO17").
type BridgeConfig struct {
	DriveLeft   string `yaml:"drive_left"`
	EnableLeft  string `yaml:"enable_left"`
	DriveRight  string `yaml:"drive_right"`
	EnableRight string `yaml:"enable_right"`
}

// Names returns the pin names in bridge order: DL, EL, DR, ER.
func (b BridgeConfig) Names() [4]string {
	return [4]string{b.DriveLeft, b.EnableLeft, b.DriveRight, b.EnableRight}
}

// TimersConfig sets the wall-clock length of one timer tick. Values above
// the native resolution slow the whole sequence down, e.g. to watch the
// bridge on LEDs.
type TimersConfig struct {
	FastTickUS uint32 `yaml:"fast_tick_us"`
	SlowTickUS uint32 `yaml:"slow_tick_us"`
}

// InitialConfig is applied as a SET of each channel at boot. Zero leaves
// the channel unconfigured.
type InitialConfig struct {
	FastUS uint16 `yaml:"fast_us"`
	SlowMS uint16 `yaml:"slow_ms"`
}

// TraceConfig controls the event trace written on shutdown
type TraceConfig struct {
	File string `yaml:"file"`
}

// LoadConfig parses YAML configuration data and applies defaults
func LoadConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a configuration file. An empty path returns the default
// configuration.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields defaults cannot fill
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for _, name := range c.Bridge.Names() {
		if name == "" {
			return fmt.Errorf("bridge: all four pins must be named")
		}
		if seen[name] {
			return fmt.Errorf("bridge: pin %s used twice", name)
		}
		seen[name] = true
	}
	if c.Timers.FastTickUS < core.FastTickUS || c.Timers.SlowTickUS < core.SlowTickUS {
		return fmt.Errorf("timers: tick shorter than the native resolution (%d/%d us)",
			core.FastTickUS, core.SlowTickUS)
	}
	return nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = "/dev/ttyS0"
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}
	if cfg.Serial.ReadTimeoutMS == 0 {
		cfg.Serial.ReadTimeoutMS = 20 // Also the receive idle gap
	}

	if cfg.Timers.FastTickUS == 0 {
		cfg.Timers.FastTickUS = core.FastTickUS
	}
	if cfg.Timers.SlowTickUS == 0 {
		cfg.Timers.SlowTickUS = core.SlowTickUS
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Millisecond
	}
}

// DefaultConfig returns the configuration of a Raspberry Pi header wiring
func DefaultConfig() *Config {
	cfg := &Config{
		Bridge: BridgeConfig{
			DriveLeft:   "GPIO17",
			EnableLeft:  "GPIO27",
			DriveRight:  "GPIO22",
			EnableRight: "GPIO23",
		},
	}
	applyDefaults(cfg)
	return cfg
}
