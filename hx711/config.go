// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package hx711

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const (
	minPin = 1
	maxPin = 40

	minReadings = 1
	maxReadings = 99
)

// Config provides the load cell configuration options.  The attribute
// names match the keys the hosting runtime sends.
type Config struct {
	// DoutPin is the GPIO pin the chip drives with serial data.
	DoutPin int `mapstructure:"doutPin"`

	// SckPin is the GPIO pin the driver clocks the chip with.
	SckPin int `mapstructure:"sckPin"`

	// Gain is the amplifier gain, one of 32, 64 or 128.  It also selects
	// the active input channel on the chip.
	Gain int `mapstructure:"gain"`

	// NumberOfReadings is how many raw samples are averaged per reading
	// and per tare.
	NumberOfReadings int `mapstructure:"numberOfReadings"`

	// TareOffset is the starting offset in raw ADC counts.
	TareOffset float64 `mapstructure:"tare_offset"`

	// ScaleFactor converts raw ADC counts to kilograms.  It is specific
	// to the attached load cell and must be calibrated per install.
	ScaleFactor float64 `mapstructure:"scaleFactor"`

	// ReadyTimeoutMs bounds the wait for the chip to signal a sample is
	// ready.  Zero waits forever, matching the chip's nominal behavior
	// of always producing samples while powered.
	ReadyTimeoutMs int `mapstructure:"readyTimeoutMs"`
}

// DefaultConfig returns the configuration used before the runtime
// pushes one.
func DefaultConfig() Config {
	return Config{
		DoutPin:          5,
		SckPin:           6,
		Gain:             64,
		NumberOfReadings: 3,
		TareOffset:       0.0,
		ScaleFactor:      8200.0,
	}
}

func (c Config) validate() error {
	switch c.Gain {
	case 32, 64, 128:
	default:
		return fmt.Errorf("%w: gain must be 32, 64 or 128, got %d", ErrInvalidConfig, c.Gain)
	}

	if c.DoutPin < minPin || c.DoutPin > maxPin {
		return fmt.Errorf("%w: doutPin must be %d-%d, got %d", ErrInvalidConfig, minPin, maxPin, c.DoutPin)
	}
	if c.SckPin < minPin || c.SckPin > maxPin {
		return fmt.Errorf("%w: sckPin must be %d-%d, got %d", ErrInvalidConfig, minPin, maxPin, c.SckPin)
	}
	if c.DoutPin == c.SckPin {
		return fmt.Errorf("%w: doutPin and sckPin must differ, both are %d", ErrInvalidConfig, c.DoutPin)
	}

	if c.NumberOfReadings < minReadings || c.NumberOfReadings > maxReadings {
		return fmt.Errorf("%w: numberOfReadings must be %d-%d, got %d",
			ErrInvalidConfig, minReadings, maxReadings, c.NumberOfReadings)
	}

	if c.TareOffset > 0.0 {
		return fmt.Errorf("%w: tare_offset must be <= 0.0, got %f", ErrInvalidConfig, c.TareOffset)
	}

	if c.ScaleFactor <= 0.0 {
		return fmt.Errorf("%w: scaleFactor must be > 0.0, got %f", ErrInvalidConfig, c.ScaleFactor)
	}

	if c.ReadyTimeoutMs < 0 {
		return fmt.Errorf("%w: readyTimeoutMs must be >= 0, got %d", ErrInvalidConfig, c.ReadyTimeoutMs)
	}

	return nil
}

// merge decodes a partial attribute map on top of the receiver and
// validates the result.  Attributes not present keep their current
// values.  The receiver is never mutated.
func (c Config) merge(attrs map[string]interface{}) (Config, error) {
	next := c

	if attrs == nil {
		attrs = map[string]interface{}{}
	}

	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &next,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := d.Decode(attrs); err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := next.validate(); err != nil {
		return c, err
	}

	return next, nil
}
