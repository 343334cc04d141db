// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht4x_test

import (
	"context"
	"log"
	"time"

	"github.com/GermanBionicSystems/hygrometer/sht4x"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Example shows creating an SHT-4X sensor and reading from it.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal("Error calling host.init()")
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := sht4x.NewI2C(bus, sht4x.DefaultAddress)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Close()

	for range 10 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		m, err := dev.Measure(ctx)
		cancel()
		if err != nil {
			log.Println(err)
		} else {
			log.Printf("Temperature: %.2f°C   Humidity: %.1f%%\n", m.Temperature, m.Humidity*100)
		}
		time.Sleep(time.Second)
	}
}
