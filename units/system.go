// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"fmt"
	"strings"
)

// System selects how measurements are scaled for output.  The metric
// system is the native representation; imperial only changes scaling.
type System int

const (
	Metric System = iota
	Imperial
)

// ParseSystem converts a configuration string into a System.
func ParseSystem(s string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "metric":
		return Metric, nil
	case "imperial":
		return Imperial, nil
	}

	return Metric, fmt.Errorf("%w: '%s' valid: metric, imperial", ErrInvalidUnit, s)
}

// String returns the configuration form of the system.
func (s System) String() string {
	if s == Imperial {
		return "imperial"
	}
	return "metric"
}
