// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shtdevices is a container for the Sensirion SHTCx humidity sensor
// driver and the programs built on it.
//
// The driver lives in package shtcx. Programs are under cmd/.
package shtdevices
