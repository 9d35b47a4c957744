// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package hx711

import "errors"

var (
	// ErrInvalidConfig is returned when a configuration attribute is out
	// of its allowed range or has the wrong type.  The previous valid
	// configuration stays in effect.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotConfigured is returned when a read or tare is attempted
	// before the first successful Reconfigure.
	ErrNotConfigured = errors.New("not configured")

	// ErrReadyTimeout is returned when the chip never pulled the data
	// line low within the configured ready timeout.
	ErrReadyTimeout = errors.New("timed out waiting for sample ready")

	// ErrHardware is returned when the GPIO layer reports an unexpected
	// failure.
	ErrHardware = errors.New("hardware communication error")
)
