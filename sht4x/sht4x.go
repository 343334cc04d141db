// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sht4x is a package for interfacing with the Sensirion SHT-40, SHT-41, and
// SHT-45 sensors.
//
// Only the high repeatability measurement mode is used. A measurement writes
// one command byte, waits for the conversion, reads a 6-byte frame and checks
// the CRC of both data words before converting them. Calls on one Dev are
// serialized so that two command/response sequences never interleave on the
// bus.
//
// # Datasheet
//
// https://sensirion.com/media/documents/33FD6951/67EB9032/HT_DS_Datasheet_SHT4x_5.pdf
//
// # Temperature Accuracy
//
// SHT-40 & SHT-41
//
//	Typical accuracy: ±0.2 °C
//
// SHT-45
//
//	Typical accuracy: ±0.1 °C
//
// # Humidity Accuracy
//
// SHT-40 (Base‑class)
//
//	Typical accuracy at 25 °C: ±1.8 % RH
//
// SHT-41 (Intermediate‑class)
//
//	Typical accuracy at 25 °C: ±1.8 % RH
//
// SHT-45 (High‑accuracy‑class)
//
//	Typical accuracy at 25 °C: ±1.0 % RH
//
// All devices have a resolution of 0.01 % RH and 0.01 °C.
package sht4x

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the I²C address of the SHT40-AD1B, SHT41 and SHT45.
const DefaultAddress i2c.Addr = 0x44

const (
	cmdSoftReset byte = 0x94
	// Read at highest precision and repeatability
	cmdMeasure          byte = 0xfd
	cmdReadSerialNumber byte = 0x89

	// The datasheet gives 8.2ms for a high repeatability measurement. The
	// extra margin absorbs scheduling jitter.
	conversionDelay = 9 * time.Millisecond
	serialDelay     = 10 * time.Millisecond
	resetDelay      = 2 * time.Millisecond

	minSampleDuration = 10 * time.Millisecond
)

// Dev represents a SHT-4X series temperature/humidity sensor.
//
// Dev owns its connection. Nothing else may talk to the device while the Dev
// is open.
type Dev struct {
	c        conn.Conn
	guard    *semaphore.Weighted
	disposed atomic.Bool

	mu   sync.Mutex
	halt context.CancelFunc
	wg   sync.WaitGroup
}

// New returns a Dev using an already opened connection to the device. If c
// implements io.Closer it is closed by Close.
func New(c conn.Conn) *Dev {
	return &Dev{c: c, guard: semaphore.NewWeighted(1)}
}

// NewI2C returns a Dev talking to the device at addr on bus b.
func NewI2C(b i2c.Bus, addr i2c.Addr) (*Dev, error) {
	if b == nil {
		return nil, errors.New("sht4x: nil bus")
	}
	return New(&i2c.Dev{Bus: b, Addr: uint16(addr)}), nil
}

// do runs a single transaction while holding the guard.
func (dev *Dev) do(ctx context.Context, cmd byte, delay time.Duration) ([2]uint16, error) {
	if dev.disposed.Load() {
		return [2]uint16{}, ErrDisposed
	}
	if err := dev.guard.Acquire(ctx, 1); err != nil {
		return [2]uint16{}, err
	}
	defer dev.guard.Release(1)
	// Close may have completed while this caller was queued.
	if dev.disposed.Load() {
		return [2]uint16{}, ErrDisposed
	}
	return newTransaction(cmd, delay).run(ctx, dev.c)
}

// Measure triggers a high repeatability measurement and returns the result.
//
// A canceled ctx aborts the call. When the cancellation happens after the
// command was written the device state is unknown until the next command,
// which resynchronizes it. No retry is attempted on failure.
func (dev *Dev) Measure(ctx context.Context) (Measurement, error) {
	w, err := dev.do(ctx, cmdMeasure, conversionDelay)
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{
		Humidity:    countToHumidity(w[0]),
		Temperature: countToTemperature(w[1]),
	}, nil
}

// Sense reads temperature and humidity from the device. Pressure is always 0.
// e is left untouched on error. Implements physic.SenseEnv.
func (dev *Dev) Sense(e *physic.Env) error {
	m, err := dev.Measure(context.Background())
	if err != nil {
		return err
	}
	*e = m.Env()
	return nil
}

// Precision returns the smallest change in readings the device can produce.
// Implements physic.SenseEnv.
func (dev *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 100
	e.Humidity = physic.PercentRH / 100
	e.Pressure = 0
}

// SenseContinuous continuously reads from the device and sends the output
// to the returned channel. Failed readings are skipped. To terminate the
// read, call Dev.Halt()
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < minSampleDuration {
		return nil, errors.New("sht4x: sample interval is < device sample rate")
	}
	if dev.disposed.Load() {
		return nil, ErrDisposed
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.halt != nil {
		return nil, errors.New("sht4x: SenseContinuous already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	dev.halt = cancel
	ch := make(chan physic.Env, 16)
	dev.wg.Add(1)
	go func() {
		defer dev.wg.Done()
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m, err := dev.Measure(ctx)
				if err != nil {
					continue
				}
				select {
				case ch <- m.Env():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// Halt terminates a SenseContinuous command if running and waits for it to
// exit. Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	halt := dev.halt
	dev.halt = nil
	dev.mu.Unlock()
	if halt != nil {
		halt()
		dev.wg.Wait()
	}
	return nil
}

// Reset issues a soft-reset to the device.
func (dev *Dev) Reset(ctx context.Context) error {
	if dev.disposed.Load() {
		return ErrDisposed
	}
	if err := dev.guard.Acquire(ctx, 1); err != nil {
		return err
	}
	defer dev.guard.Release(1)
	if err := dev.c.Tx([]byte{cmdSoftReset}, nil); err != nil {
		return &TransportError{Op: "resetting", Err: err}
	}
	return sleep(ctx, resetDelay)
}

// SerialNumber returns the device serial number set at the factory.
func (dev *Dev) SerialNumber(ctx context.Context) (uint32, error) {
	w, err := dev.do(ctx, cmdReadSerialNumber, serialDelay)
	if err != nil {
		return 0, err
	}
	return uint32(w[0])<<16 | uint32(w[1]), nil
}

// Close stops continuous sensing, waits for an in-flight transaction and
// releases the connection. Any later call returns ErrDisposed.
func (dev *Dev) Close() error {
	if !dev.disposed.CompareAndSwap(false, true) {
		return ErrDisposed
	}
	_ = dev.Halt()
	_ = dev.guard.Acquire(context.Background(), 1)
	defer dev.guard.Release(1)
	if c, ok := dev.c.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("sht4x: error closing %w", err)
		}
	}
	return nil
}

// String returns a string representation of the device.
func (dev *Dev) String() string {
	return "sht4x"
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
