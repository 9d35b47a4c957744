// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package bmp

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/edss/sensormodule/units"
)

// Config provides the barometer configuration options.  The attribute
// names match the keys the hosting runtime sends.
type Config struct {
	// I2CBus names the bus to open.  Empty selects the first available
	// bus on the host.
	I2CBus string `mapstructure:"i2cBus"`

	// I2CAddr is the chip's bus address.
	I2CAddr int `mapstructure:"i2cAddr"`

	// SeaLevelPressure is the reference pressure in pascals used to
	// derive altitude.
	SeaLevelPressure int `mapstructure:"sea_level_pressure"`

	// Units selects metric or imperial output scaling.  The underlying
	// computation is unaffected.
	Units string `mapstructure:"units"`
}

// DefaultConfig returns the configuration used before the runtime
// pushes one.
func DefaultConfig() Config {
	return Config{
		I2CAddr:          0x77,
		SeaLevelPressure: 101325,
		Units:            "metric",
	}
}

func (c Config) validate() error {
	if c.I2CAddr < 0x08 || c.I2CAddr > 0x77 {
		return fmt.Errorf("%w: i2cAddr must be 0x08-0x77, got %#x", ErrInvalidConfig, c.I2CAddr)
	}

	if c.SeaLevelPressure <= 0 {
		return fmt.Errorf("%w: sea_level_pressure must be > 0, got %d",
			ErrInvalidConfig, c.SeaLevelPressure)
	}

	if _, err := units.ParseSystem(c.Units); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
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
