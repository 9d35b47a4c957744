// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package units

import "errors"

var (
	ErrInvalidUnit = errors.New("invalid unit")
)
