// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package metrics exposes measurements to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Error kinds used as the "kind" label of the read error counter.
const (
	KindIntegrity = "integrity"
	KindTransport = "transport"
	KindCanceled  = "canceled"
	KindOther     = "other"
)

// Collector holds the gauges and counters of one sensor.
type Collector struct {
	Humidity    prometheus.Gauge
	Temperature prometheus.Gauge
	Reads       prometheus.Counter
	ReadErrors  *prometheus.CounterVec
}

// New returns a Collector whose metrics carry the sensor label.
func New(sensor string) *Collector {
	labels := prometheus.Labels{"sensor": sensor}
	return &Collector{
		Humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "hygrometer_humidity_ratio",
			Help:        "Relative humidity (units: ratio 0-1)",
			ConstLabels: labels,
		}),
		Temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "hygrometer_temperature_celsius",
			Help:        "Air temperature (units: degrees Celsius)",
			ConstLabels: labels,
		}),
		Reads: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "hygrometer_reads_total",
			Help:        "Successful measurements",
			ConstLabels: labels,
		}),
		ReadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "hygrometer_read_errors_total",
			Help:        "Failed measurements by error kind",
			ConstLabels: labels,
		}, []string{"kind"}),
	}
}

// Register adds all metrics to r.
func (c *Collector) Register(r prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{c.Humidity, c.Temperature, c.Reads, c.ReadErrors} {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Observe records a successful measurement.
func (c *Collector) Observe(humidity, temperature float64) {
	c.Humidity.Set(humidity)
	c.Temperature.Set(temperature)
	c.Reads.Inc()
}

// Failed records a failed measurement of the given kind.
func (c *Collector) Failed(kind string) {
	c.ReadErrors.WithLabelValues(kind).Inc()
}
