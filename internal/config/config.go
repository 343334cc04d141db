// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the hygrometer settings from a file and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/GermanBionicSystems/hygrometer/panel"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. HYGROMETER_SENSOR_BUS.
const EnvPrefix = "HYGROMETER"

// Display kinds.
const (
	DisplayNone     = "none"
	DisplaySSD1306  = "ssd1306"
	DisplayTerminal = "terminal"
)

// Config holds every setting of the hygrometer.
type Config struct {
	// Bus is the I²C bus name as understood by i2creg. Empty selects the
	// first bus.
	Bus      string
	Address  uint16
	Interval time.Duration
	// Timeout bounds a single measurement, including the wait for the device.
	Timeout time.Duration

	// Database is the SQLite file. Empty disables storage.
	Database string
	Listen   string

	Display     string
	Orientation panel.Orientation
	DPI         panel.DPI

	LogLevel  log.Level
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sensor.bus", "")
	v.SetDefault("sensor.address", 0x44)
	v.SetDefault("sensor.interval", "30s")
	v.SetDefault("sensor.timeout", "1s")
	v.SetDefault("database.path", "")
	v.SetDefault("metrics.listen", ":9101")
	v.SetDefault("display.kind", DisplayNone)
	v.SetDefault("display.orientation", 0)
	v.SetDefault("display.dpi", 130)
	v.SetDefault("core.log_level", "info")
	v.SetDefault("core.log_format", "text")
}

// Load reads the configuration file at path, if not empty, and applies
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	return parse(v)
}

func parse(v *viper.Viper) (*Config, error) {
	c := &Config{
		Bus:       v.GetString("sensor.bus"),
		Address:   uint16(v.GetUint32("sensor.address")),
		Interval:  v.GetDuration("sensor.interval"),
		Timeout:   v.GetDuration("sensor.timeout"),
		Database:  v.GetString("database.path"),
		Listen:    v.GetString("metrics.listen"),
		Display:   strings.ToLower(v.GetString("display.kind")),
		LogFormat: strings.ToLower(v.GetString("core.log_format")),
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("config: sensor.interval must be positive, got %s", c.Interval)
	}
	if c.Timeout <= 0 {
		return nil, fmt.Errorf("config: sensor.timeout must be positive, got %s", c.Timeout)
	}
	switch c.Display {
	case DisplayNone, DisplaySSD1306, DisplayTerminal:
	default:
		return nil, fmt.Errorf("config: unknown display.kind %q", c.Display)
	}
	switch deg := v.GetInt("display.orientation"); deg {
	case 0, 90, 180, 270:
		c.Orientation = panel.Orientation(deg / 90)
	default:
		return nil, fmt.Errorf("config: display.orientation must be 0, 90, 180 or 270, got %d", deg)
	}
	dpi := v.GetFloat64("display.dpi")
	c.DPI = panel.DPI{X: dpi, Y: dpi}
	lvl, err := log.ParseLevel(v.GetString("core.log_level"))
	if err != nil {
		return nil, errors.Wrap(err, "config: core.log_level")
	}
	c.LogLevel = lvl
	switch c.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("config: unknown core.log_format %q", c.LogFormat)
	}
	return c, nil
}

// ConfigureLogging applies the log settings to the standard logrus logger.
func (c *Config) ConfigureLogging() {
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetLevel(c.LogLevel)
}
