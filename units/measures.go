// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package units

import "fmt"

const (
	feetPerMeter   = 3.28084
	pascalsPerInHg = 3386.389
	poundsPerKilo  = 2.20462262
)

// Temperature is a measurement of temperature stored as a float64 in
// degrees Celsius.
type Temperature float64

// Fahrenheit returns the temperature in degrees Fahrenheit.
func (t Temperature) Fahrenheit() float64 {
	return float64(t)*9.0/5.0 + 32.0
}

// String returns the temperature formatted as a string in C.
func (t Temperature) String() string {
	return fmt.Sprintf("%.2fC", float64(t))
}

// Length is a measurement of length stored as a float64 in meters.
type Length float64

// Feet returns the length as a floating point in feet.
func (l Length) Feet() float64 {
	return float64(l) * feetPerMeter
}

// String returns the length formatted as a string in m.
func (l Length) String() string {
	return fmt.Sprintf("%.2fm", float64(l))
}

// Pressure is a measurement of pressure stored as a float64 in pascals.
type Pressure float64

// InHg returns the pressure as a floating point in inches of mercury.
func (p Pressure) InHg() float64 {
	return float64(p) / pascalsPerInHg
}

// String returns the pressure formatted as a string in Pa.
func (p Pressure) String() string {
	return fmt.Sprintf("%.0fPa", float64(p))
}

// Weight is a measurement of mass stored as a float64 in kilograms.
type Weight float64

// Pounds returns the weight as a floating point in pounds.
func (w Weight) Pounds() float64 {
	return float64(w) * poundsPerKilo
}

// String returns the weight formatted as a string in kg.
func (w Weight) String() string {
	return fmt.Sprintf("%.3fkg", float64(w))
}
