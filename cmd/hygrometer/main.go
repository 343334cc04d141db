// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// hygrometer reads an SHT4x sensor on an I²C bus.
//
// Subcommands: read prints one measurement, serial prints the factory serial
// number, reset soft resets the sensor, serve polls continuously and exposes
// Prometheus metrics, migrate prepares the readings database.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/GermanBionicSystems/hygrometer/internal/config"
	"github.com/GermanBionicSystems/hygrometer/internal/metrics"
	"github.com/GermanBionicSystems/hygrometer/internal/monitor"
	"github.com/GermanBionicSystems/hygrometer/internal/store"
	"github.com/GermanBionicSystems/hygrometer/panel"
	"github.com/GermanBionicSystems/hygrometer/sht4x"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

func main() {
	app := cli.NewApp()
	app.Name = "hygrometer"
	app.Usage = "read a Sensirion SHT4x humidity/temperature sensor"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
	}
	app.Before = func(c *cli.Context) error {
		cfg, err := config.Load(c.GlobalString("config"))
		if err != nil {
			return err
		}
		cfg.ConfigureLogging()
		app.Metadata = map[string]interface{}{"config": cfg}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:   "read",
			Usage:  "print one measurement",
			Action: withSensor(read),
		},
		{
			Name:   "serial",
			Usage:  "print the sensor serial number",
			Action: withSensor(serial),
		},
		{
			Name:   "reset",
			Usage:  "soft reset the sensor",
			Action: withSensor(reset),
		},
		{
			Name:   "serve",
			Usage:  "poll the sensor and expose metrics",
			Action: withSensor(serve),
		},
		{
			Name:  "migrate",
			Usage: "apply database migrations",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "steps",
					Usage: "run n migrations (can be negative), 0 for all",
				},
			},
			Action: migrateDB,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("hygrometer failed")
	}
}

func getConfig(c *cli.Context) *config.Config {
	return c.App.Metadata["config"].(*config.Config)
}

type sensorAction func(ctx context.Context, cfg *config.Config, dev *sht4x.Dev, bus i2c.Bus) error

// withSensor opens the bus and the sensor around fn. ctx is canceled on
// SIGINT or SIGTERM.
func withSensor(fn sensorAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := getConfig(c)
		if _, err := host.Init(); err != nil {
			return errors.Wrap(err, "host init")
		}
		bus, err := i2creg.Open(cfg.Bus)
		if err != nil {
			return errors.Wrapf(err, "open I²C bus %q", cfg.Bus)
		}
		defer bus.Close()

		dev, err := sht4x.NewI2C(bus, i2c.Addr(cfg.Address))
		if err != nil {
			return err
		}
		defer func() {
			if err := dev.Close(); err != nil {
				log.WithError(err).WithField("component", "sensor").Error("close failed")
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return fn(ctx, cfg, dev, bus)
	}
}

func read(ctx context.Context, cfg *config.Config, dev *sht4x.Dev, _ i2c.Bus) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	m, err := dev.Measure(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%8.2f°C %6.2f%%rH\n", m.Temperature, m.Humidity*100)
	return nil
}

func serial(ctx context.Context, cfg *config.Config, dev *sht4x.Dev, _ i2c.Bus) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	sn, err := dev.SerialNumber(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("0x%08x\n", sn)
	return nil
}

func reset(ctx context.Context, cfg *config.Config, dev *sht4x.Dev, _ i2c.Bus) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	return dev.Reset(ctx)
}

func serve(ctx context.Context, cfg *config.Config, dev *sht4x.Dev, bus i2c.Bus) error {
	logger := log.WithField("component", "serve")
	opts := &monitor.Opts{Orientation: cfg.Orientation, Timeout: cfg.Timeout}

	col := metrics.New(dev.String())
	if err := col.Register(prometheus.DefaultRegisterer); err != nil {
		return errors.Wrap(err, "register metrics")
	}
	prometheus.MustRegister(prometheus.NewBuildInfoCollector())
	opts.Metrics = col

	if cfg.Database != "" {
		if err := store.Migrate(cfg.Database, 0); err != nil {
			return err
		}
		st, err := store.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Store = st
	}

	p, err := openPanel(cfg, bus)
	if err != nil {
		return err
	}
	if p != nil {
		defer p.Close()
		opts.Panel = p
	}

	srv := &http.Server{Addr: cfg.Listen, Handler: promhttp.Handler()}
	go func() {
		logger.WithField("listen", cfg.Listen).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("metrics server failed")
		}
	}()
	defer srv.Close()

	monitor.New(dev, opts).Run(ctx, cfg.Interval)
	return nil
}

func openPanel(cfg *config.Config, bus i2c.Bus) (panel.Panel, error) {
	switch cfg.Display {
	case config.DisplaySSD1306:
		opts := ssd1306.DefaultOpts
		d, err := ssd1306.NewI2C(bus, &opts)
		if err != nil {
			return nil, errors.Wrap(err, "open ssd1306")
		}
		return panel.FromDrawer(d, cfg.DPI), nil
	case config.DisplayTerminal:
		return panel.FromDrawer(panel.NewTerminal(&panel.TerminalOpts{X: 64, Y: 32}), cfg.DPI), nil
	}
	return nil, nil
}

func migrateDB(c *cli.Context) error {
	cfg := getConfig(c)
	if cfg.Database == "" {
		return errors.New("database.path is not set")
	}
	if err := store.Migrate(cfg.Database, c.Int("steps")); err != nil {
		return err
	}
	log.WithField("database", cfg.Database).Info("migrations applied")
	return nil
}
