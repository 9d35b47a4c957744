// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package bmp

import "errors"

var (
	// ErrInvalidConfig is returned when a configuration attribute is out
	// of its allowed range or has the wrong type.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotConfigured is returned when the sensor is used before the
	// first successful Reconfigure.
	ErrNotConfigured = errors.New("not configured")

	// ErrHardware is returned when the I2C device reports a failure.
	ErrHardware = errors.New("hardware communication error")

	errAlreadyOpen = errors.New("device already open")
)
