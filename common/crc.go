// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, a CRC8 calculation and the word checksum validation used by
// Sensirion sensors.
package common

import "fmt"

// crc8Polynomial is x^8 + x^5 + x^4 + 1 with the x^8 term omitted.
const crc8Polynomial byte = 0x31

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. CRC bytes are used in sensors from TI and Sensirion.
//
// The register starts at 0xff and is shifted one bit at a time; no
// reflection and no final XOR.
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

// CRCError is returned by ValidateWords for the first word whose checksum
// byte does not match.
type CRCError struct {
	// Offset of the first byte of the failing 3-byte group.
	Offset int
	Want   byte
	Got    byte
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("crc mismatch at offset %d: computed 0x%02x, received 0x%02x", e.Offset, e.Want, e.Got)
}

// ValidateWords walks buf in groups of 3 bytes, 2 data bytes followed by
// their CRC8, and returns a *CRCError for the first group that doesn't match.
//
// A trailing group shorter than 3 bytes is not checked.
func ValidateWords(buf []byte) error {
	for off := 0; off+3 <= len(buf); off += 3 {
		if crc := CRC8(buf[off : off+2]); crc != buf[off+2] {
			return &CRCError{Offset: off, Want: crc, Got: buf[off+2]}
		}
	}
	return nil
}
