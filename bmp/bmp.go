// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

// Package bmp exposes a BMPx80-family barometric sensor as a sensor
// component.  The chip itself is handled by the bmxx80 driver; this
// package adds the altitude derivation, tare offsets, and the
// attribute/command surface.
package bmp

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/physic"

	"github.com/edss/sensormodule/sensor"
	"github.com/edss/sensormodule/units"
)

// altitude derives meters above the reference from a measured pressure
// using the standard barometric approximation.
func altitude(pressurePa, seaLevelPa float64) float64 {
	return 44330.0 * (1.0 - math.Pow(pressurePa/seaLevelPa, 1.0/5.255))
}

// BMP is the barometer component.  A new instance starts unconfigured;
// the first successful Reconfigure opens the I2C device.
type BMP struct {
	name  string
	mutex sync.Mutex

	hw  wrapper
	log *zap.Logger

	config Config
	system units.System
	opened bool

	pressureOffsetPa float64
	altitudeOffsetM  float64
}

var _ sensor.Sensor = (*BMP)(nil)

// Option configures a BMP at construction time.
type Option interface {
	apply(b *BMP)
}

// New makes a new barometer component with the compiled-in defaults.
// No hardware is touched until Reconfigure succeeds.
func New(name string, opts ...Option) *BMP {
	b := &BMP{
		name:   name,
		hw:     &hwWrapper{},
		log:    zap.NewNop(),
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		opt.apply(b)
	}

	return b
}

// Reconfigure merges the attribute map into the current configuration
// and validates it as a whole before anything changes.  The device is
// reopened only when the bus or address moved.  Tare offsets reset to
// zero on every successful reconfiguration.
func (b *BMP) Reconfigure(ctx context.Context, attrs map[string]interface{}) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	next, err := b.config.merge(attrs)
	if err != nil {
		return err
	}

	// Validated by merge.
	system, _ := units.ParseSystem(next.Units)

	if b.opened && (next.I2CBus != b.config.I2CBus || next.I2CAddr != b.config.I2CAddr) {
		_ = b.hw.Close()
		b.opened = false
	}

	if !b.opened {
		if err := b.hw.Open(next.I2CBus, uint16(next.I2CAddr)); err != nil {
			return err
		}
		b.opened = true
	}

	b.config = next
	b.system = system
	b.pressureOffsetPa = 0.0
	b.altitudeOffsetM = 0.0

	b.log.Info("configured",
		zap.String("name", b.name),
		zap.String("i2cBus", next.I2CBus),
		zap.Int("i2cAddr", next.I2CAddr),
		zap.Int("sea_level_pressure", next.SeaLevelPressure),
		zap.String("units", system.String()))

	return nil
}

// Readings reports pressure, temperature and derived altitude with the
// tare offsets subtracted, plus the raw values and offsets themselves.
func (b *BMP) Readings(ctx context.Context) (sensor.Readings, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.opened {
		return nil, ErrNotConfigured
	}

	tempC, rawPressurePa, err := b.sense()
	if err != nil {
		return nil, err
	}

	rawAltitudeM := altitude(rawPressurePa, float64(b.config.SeaLevelPressure))

	out := sensor.Readings{
		"temperature":        tempC,
		"pressure":           rawPressurePa - b.pressureOffsetPa,
		"altitude":           rawAltitudeM - b.altitudeOffsetM,
		"sea_level_pressure": float64(b.config.SeaLevelPressure),
		"raw_pressure":       rawPressurePa,
		"raw_altitude":       rawAltitudeM,
		"pressure_offset":    b.pressureOffsetPa,
		"altitude_offset":    b.altitudeOffsetM,
		"units":              b.system.String(),
	}

	if b.system == units.Imperial {
		for _, k := range []string{"pressure", "raw_pressure", "pressure_offset", "sea_level_pressure"} {
			out[k] = units.Pressure(out[k].(float64)).InHg()
		}
		for _, k := range []string{"altitude", "raw_altitude", "altitude_offset"} {
			out[k] = units.Length(out[k].(float64)).Feet()
		}
		out["temperature"] = units.Temperature(tempC).Fahrenheit()
	}

	return out, nil
}

// DoCommand runs the recognized commands present in cmd: "tare" stores
// the current raw pressure and altitude as baselines, "reset_tare"
// clears both.  Every other key is reported back as unsuccessful rather
// than failing the call.
func (b *BMP) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	out := make(map[string]interface{}, len(cmd))
	for key := range cmd {
		switch key {
		case "tare":
			if err := b.tare(); err != nil {
				return nil, err
			}
			out[key] = true
		case "reset_tare":
			b.pressureOffsetPa = 0.0
			b.altitudeOffsetM = 0.0
			out[key] = true
		default:
			out[key] = false
		}
	}

	return out, nil
}

// tare captures the current raw readings as the new baselines.  Callers
// hold the mutex.
func (b *BMP) tare() error {
	if !b.opened {
		return ErrNotConfigured
	}

	_, rawPressurePa, err := b.sense()
	if err != nil {
		return err
	}

	b.pressureOffsetPa = rawPressurePa
	b.altitudeOffsetM = altitude(rawPressurePa, float64(b.config.SeaLevelPressure))

	b.log.Info("tared",
		zap.String("name", b.name),
		zap.Float64("pressure_offset", b.pressureOffsetPa),
		zap.Float64("altitude_offset", b.altitudeOffsetM))

	return nil
}

func (b *BMP) sense() (tempC, pressurePa float64, err error) {
	var e physic.Env
	if err := b.hw.Sense(&e); err != nil {
		return 0.0, 0.0, err
	}

	return e.Temperature.Celsius(), float64(e.Pressure) / float64(physic.Pascal), nil
}

// Close releases the I2C device.  Safe to call on an unconfigured or
// already closed component.
func (b *BMP) Close(ctx context.Context) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.opened {
		return nil
	}

	b.opened = false

	return b.hw.Close()
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return &loggerOption{log: log}
}

type loggerOption struct {
	log *zap.Logger
}

func (o *loggerOption) apply(b *BMP) {
	if o.log != nil {
		b.log = o.log
	}
}

// withWrapper swaps the hardware layer.  Tests use this.
func withWrapper(w wrapper) Option {
	return &wrapperOption{w: w}
}

type wrapperOption struct {
	w wrapper
}

func (o *wrapperOption) apply(b *BMP) {
	b.hw = o.w
}
