// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package shtcx

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksum matches any *ChecksumError with errors.Is.
	ErrChecksum = errors.New("shtcx: crc mismatch")
	// ErrUnsupported is returned for sleep and wake-up on a profile without
	// that capability.
	ErrUnsupported = errors.New("shtcx: operation not supported by sensor profile")
)

// BusError wraps a failed bus write or read.
type BusError struct {
	// Op is "write" or "read".
	Op  string
	Cmd Command
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("shtcx: %s %s: %v", e.Cmd, e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// ChecksumError is returned when a response word fails CRC validation.
type ChecksumError struct {
	Cmd Command
	// Offset of the failing 3-byte group in Data.
	Offset int
	// Data is a copy of the bytes received.
	Data []byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("shtcx: %s: crc mismatch at offset %d in % x", e.Cmd, e.Offset, e.Data)
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksum
}
