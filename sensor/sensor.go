// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

// Package sensor defines the contract every sensor component in this
// module satisfies.  The hosting runtime drives components exclusively
// through this interface: it pushes flat attribute maps in, and gets
// flat reading maps back.
package sensor

import "context"

// Readings is a flat key-value payload of computed measurements.
// Values are numeric unless noted otherwise by the component.
type Readings map[string]interface{}

// Sensor is a hardware sensor component.
//
// Implementations own their hardware resources exclusively and must
// serialize all operations internally; callers may invoke methods from
// any goroutine.
type Sensor interface {
	// Reconfigure applies a partial attribute map.  Attributes that are
	// not present keep their current values.  An invalid attribute set
	// is rejected as a whole and leaves the previous configuration,
	// including any claimed hardware, fully in effect.
	Reconfigure(ctx context.Context, attrs map[string]interface{}) error

	// Readings returns the current measurements.
	Readings(ctx context.Context) (Readings, error)

	// DoCommand executes the recognized commands present in cmd.  Every
	// key of cmd appears in the result: true if the command ran, false
	// if the key was not recognized.  Unrecognized keys are not errors.
	DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error)

	// Close releases all hardware resources.  Best effort: it never
	// panics, even if the component was never configured.
	Close(ctx context.Context) error
}
