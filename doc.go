// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hygrometer contains a driver for the Sensirion SHT4x
// humidity/temperature sensors and the tooling to log, export and display its
// measurements.
//
// The driver lives in sht4x, the shared CRC helper in common, and panel and
// readout render measurements to a display. cmd/hygrometer ties them
// together.
package hygrometer
