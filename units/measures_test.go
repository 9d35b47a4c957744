// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversions(t *testing.T) {
	tests := []struct {
		description string
		got         float64
		expect      float64
	}{
		{
			description: "0C is 32F",
			got:         Temperature(0).Fahrenheit(),
			expect:      32.0,
		}, {
			description: "100C is 212F",
			got:         Temperature(100).Fahrenheit(),
			expect:      212.0,
		}, {
			description: "1m in feet",
			got:         Length(1).Feet(),
			expect:      3.28084,
		}, {
			description: "standard pressure in inHg",
			got:         Pressure(101325).InHg(),
			expect:      29.921331,
		}, {
			description: "1kg in pounds",
			got:         Weight(1).Pounds(),
			expect:      2.20462262,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			assert.InDelta(tc.expect, tc.got, 0.0001)
		})
	}
}

func TestString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("21.50C", Temperature(21.5).String())
	assert.Equal("44330.00m", Length(44330).String())
	assert.Equal("101325Pa", Pressure(101325).String())
	assert.Equal("1.000kg", Weight(1).String())
}

func TestParseSystem(t *testing.T) {
	tests := []struct {
		in        string
		expect    System
		str       string
		expectErr error
	}{
		{
			in:     "metric",
			expect: Metric,
			str:    "metric",
		}, {
			in:     "Imperial",
			expect: Imperial,
			str:    "imperial",
		}, {
			in:     "", // empty defaults to metric
			expect: Metric,
			str:    "metric",
		}, {
			in:        "furlongs",
			expectErr: ErrInvalidUnit,
		},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("'%s'", tc.in), func(t *testing.T) {
			assert := assert.New(t)

			s, err := ParseSystem(tc.in)

			if tc.expectErr == nil {
				assert.NoError(err)
				assert.Equal(tc.expect, s)
				assert.Equal(tc.str, s.String())
				return
			}

			assert.ErrorIs(err, tc.expectErr)
		})
	}
}
