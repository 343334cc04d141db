// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package monitor periodically reads a sensor and fans the result out to
// storage, metrics and a panel.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/GermanBionicSystems/hygrometer/internal/metrics"
	"github.com/GermanBionicSystems/hygrometer/internal/store"
	"github.com/GermanBionicSystems/hygrometer/panel"
	"github.com/GermanBionicSystems/hygrometer/readout"
	"github.com/GermanBionicSystems/hygrometer/sht4x"
	log "github.com/sirupsen/logrus"
)

// Sensor is the part of sht4x.Dev used by the monitor.
type Sensor interface {
	Measure(ctx context.Context) (sht4x.Measurement, error)
}

// Opts holds the optional outputs of a Monitor. Nil fields are skipped.
type Opts struct {
	Store       store.Store
	Metrics     *metrics.Collector
	Panel       panel.Panel
	Orientation panel.Orientation
	// Timeout bounds each measurement. 0 means no timeout.
	Timeout time.Duration
}

// Monitor polls a Sensor.
type Monitor struct {
	sensor Sensor
	opts   Opts
	now    func() time.Time
	logger *log.Entry
}

// New returns a Monitor reading s.
func New(s Sensor, opts *Opts) *Monitor {
	if opts == nil {
		opts = &Opts{}
	}
	return &Monitor{
		sensor: s,
		opts:   *opts,
		now:    time.Now,
		logger: log.WithField("component", "monitor"),
	}
}

// Kind classifies a measurement error for the read error counter.
func Kind(err error) string {
	var ie *sht4x.IntegrityError
	var te *sht4x.TransportError
	switch {
	case errors.As(err, &ie):
		return metrics.KindIntegrity
	case errors.As(err, &te):
		return metrics.KindTransport
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.KindCanceled
	}
	return metrics.KindOther
}

// Poll takes one measurement and publishes it. Failures to publish are logged
// and do not fail the poll. A failed measurement is not retried.
func (m *Monitor) Poll(ctx context.Context) (sht4x.Measurement, error) {
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}
	meas, err := m.sensor.Measure(ctx)
	if err != nil {
		kind := Kind(err)
		if m.opts.Metrics != nil {
			m.opts.Metrics.Failed(kind)
		}
		m.logger.WithError(err).WithField("kind", kind).Warn("measurement failed")
		return sht4x.Measurement{}, err
	}
	m.logger.WithField("humidity", meas.Humidity).
		WithField("temperature", meas.Temperature).
		Debug("measurement")

	if m.opts.Metrics != nil {
		m.opts.Metrics.Observe(meas.Humidity, meas.Temperature)
	}
	if m.opts.Store != nil {
		r := store.Reading{Timestamp: m.now(), Humidity: meas.Humidity, Temperature: meas.Temperature}
		if err := m.opts.Store.Write(r); err != nil {
			m.logger.WithError(err).WithField("event", "store").Error("failed to store reading")
		}
	}
	if m.opts.Panel != nil {
		if err := readout.Render(m.opts.Panel, meas, m.opts.Orientation); err != nil {
			m.logger.WithError(err).WithField("event", "render").Error("failed to render reading")
		}
	}
	return meas, nil
}

// Run polls immediately and then every interval until ctx is canceled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	m.logger.WithField("interval", interval).Info("starting")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		_, _ = m.Poll(ctx)
		select {
		case <-ctx.Done():
			m.logger.Info("stopped")
			return
		case <-ticker.C:
		}
	}
}
