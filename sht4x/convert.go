// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht4x

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

const (
	// RH = count/52428 - 0.06, i.e. -6 + 125*count/65535 expressed as a ratio.
	humidityScale  = 1.0 / 52428.0
	humidityOffset = 3.0 / 50.0

	// T = count*35/13107 - 45, i.e. -45 + 175*count/65535.
	temperatureScale  = 35.0 / 13107.0
	temperatureOffset = 45.0
)

// Measurement is a calibrated reading. It is only ever produced from two
// words whose CRC matched.
type Measurement struct {
	// Humidity is the relative humidity as a ratio in [0, 1].
	Humidity float64
	// Temperature in degrees Celsius. It is not clamped to the specified
	// operating range of the device.
	Temperature float64
}

// Env returns the measurement in periph units. Pressure is always 0.
func (m Measurement) Env() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + physic.Temperature(m.Temperature*float64(physic.Celsius)),
		Humidity:    physic.RelativeHumidity(m.Humidity * float64(100*physic.PercentRH)),
	}
}

func (m Measurement) String() string {
	return fmt.Sprintf("%.2f°C %.2f%%rH", m.Temperature, m.Humidity*100)
}

// countToHumidity converts a raw humidity count. Counts near either end of
// the range produce values slightly outside [0, 1] which are clamped.
func countToHumidity(count uint16) float64 {
	rh := float64(count)*humidityScale - humidityOffset
	if rh < 0 {
		return 0
	}
	if rh > 1 {
		return 1
	}
	return rh
}

// countToTemperature converts a raw temperature count to °C.
func countToTemperature(count uint16) float64 {
	return float64(count)*temperatureScale - temperatureOffset
}
