// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht4x

import (
	"errors"
	"fmt"
)

// ErrDisposed is returned by every operation attempted after Close.
var ErrDisposed = errors.New("sht4x: device is closed")

// IntegrityError is returned when a data word read from the device does not
// match its CRC byte. The measurement is discarded.
type IntegrityError struct {
	// Offset of the first byte of the failing word within the frame, 0 or 3.
	Offset int
	Got    byte
	Want   byte
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("sht4x: bytes[%d:%d] read crc error: got 0x%02x, computed 0x%02x", e.Offset, e.Offset+2, e.Got, e.Want)
}

// TransportError wraps a fault reported by the bus. Err is the error returned
// by the underlying connection, unchanged.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sht4x: error %s %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
