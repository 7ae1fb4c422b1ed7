// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the YAML configuration of the epd command.
//
// Load creates the file with the defaults on first run, so a fresh install
// only needs the panel name filled in.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/epaper/epd"
	"github.com/GermanBionicSystems/epaper/internal/log"
)

// ErrNoPanel is returned by Validate when no panel is configured.
var ErrNoPanel = errors.New("config: no panel configured")

// SPI selects the bus.
type SPI struct {
	// Port is a spireg name. Empty selects the first port found.
	Port string `yaml:"port"`
	// Speed caps the clock, e.g. "4MHz". Empty keeps the driver default.
	Speed string `yaml:"speed"`
}

// Pins names the control lines by gpioreg name. Empty CS, RST or BUSY
// leaves the line unconnected.
type Pins struct {
	DC   string `yaml:"dc"`
	CS   string `yaml:"cs"`
	RST  string `yaml:"rst"`
	BUSY string `yaml:"busy"`
}

// Clock configures the clock command.
type Clock struct {
	// Format is a time.Time layout.
	Format string `yaml:"format"`
	// Partial is the cron spec of the partial updates.
	Partial string `yaml:"partial"`
	// Full is the cron spec of the full refreshes that clean up ghosting.
	Full string `yaml:"full"`
}

// Config is the top-level configuration.
type Config struct {
	// Panel is a descriptor name as listed by epd.PanelNames.
	Panel    string `yaml:"panel"`
	SPI      SPI    `yaml:"spi"`
	Pins     Pins   `yaml:"pins"`
	Simulate bool   `yaml:"simulate"`
	Clock    Clock  `yaml:"clock"`
	LogLevel string `yaml:"log_level"`
}

// Defaults, matching the Raspberry Pi HAT wiring.
const (
	DefaultDC           = "GPIO25"
	DefaultCS           = "GPIO8"
	DefaultRST          = "GPIO17"
	DefaultBUSY         = "GPIO24"
	DefaultClockFormat  = "15:04"
	DefaultClockPartial = "* * * * *"
	DefaultClockFull    = "0 * * * *"
	DefaultLogLevel     = "info"
)

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing values with the defaults.
func (c *Config) Normalize() {
	if c.Pins.DC == "" {
		c.Pins.DC = DefaultDC
	}
	if c.Pins.CS == "" {
		c.Pins.CS = DefaultCS
	}
	if c.Pins.RST == "" {
		c.Pins.RST = DefaultRST
	}
	if c.Pins.BUSY == "" {
		c.Pins.BUSY = DefaultBUSY
	}
	if c.Clock.Format == "" {
		c.Clock.Format = DefaultClockFormat
	}
	if c.Clock.Partial == "" {
		c.Clock.Partial = DefaultClockPartial
	}
	if c.Clock.Full == "" {
		c.Clock.Full = DefaultClockFull
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the values that can be checked without hardware.
func (c *Config) Validate() error {
	if c.Panel == "" {
		return ErrNoPanel
	}
	if _, err := epd.PanelByName(c.Panel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Speed(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Speed parses SPI.Speed. It returns 0 when unset.
func (c *Config) Speed() (physic.Frequency, error) {
	var f physic.Frequency
	if c.SPI.Speed == "" {
		return 0, nil
	}
	if err := f.Set(c.SPI.Speed); err != nil {
		return 0, fmt.Errorf("config: spi speed %q: %w", c.SPI.Speed, err)
	}
	return f, nil
}

// Load reads the configuration at path.
//
// A missing file is created with DefaultConfig and 0600 permissions.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			log.Info("writing default config", "path", path)
			return cfg, Save(path, cfg)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path through a temporary file in the same directory.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".epd-config-*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, 0o600); err != nil {
		return err
	}
	return os.Rename(name, path)
}

// Save is a shorthand for Save(path, c).
func (c *Config) Save(path string) error {
	return Save(path, c)
}
