// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains the checksum helpers shared by the Sensirion
// drivers in this module.
package common

// crc8Polynomial is x^8 + x^5 + x^4 + 1 with the x^8 term omitted.
const crc8Polynomial byte = 0x31

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. The register starts at 0xff, bits are processed MSB first
// and neither the input nor the output is reflected.
func CRC8(bytes []byte) byte {
	var crc byte = 0xff
	for _, val := range bytes {
		crc ^= val
		for range 8 {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (crc << 1) ^ crc8Polynomial
			}
		}
	}
	return crc
}

// VerifyCRC8 reports whether expected is the CRC8 of bytes.
func VerifyCRC8(bytes []byte, expected byte) bool {
	return CRC8(bytes) == expected
}
