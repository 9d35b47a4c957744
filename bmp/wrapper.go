// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package bmp

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// wrapper abstracts the I2C device so tests can substitute fakes.
type wrapper interface {
	Open(busName string, addr uint16) error
	Sense(e *physic.Env) error
	Close() error
}

type hwWrapper struct {
	m   sync.Mutex
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

func (h *hwWrapper) Open(busName string, addr uint16) (err error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.bus != nil {
		return errAlreadyOpen
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrHardware, err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHardware, err)
	}

	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return fmt.Errorf("%w: %v", ErrHardware, err)
	}

	h.bus = bus
	h.dev = dev

	return nil
}

func (h *hwWrapper) Sense(e *physic.Env) error {
	h.m.Lock()
	defer h.m.Unlock()

	if h.dev == nil {
		return ErrNotConfigured
	}

	if err := h.dev.Sense(e); err != nil {
		return fmt.Errorf("%w: %v", ErrHardware, err)
	}

	return nil
}

func (h *hwWrapper) Close() (err error) {
	h.m.Lock()
	defer h.m.Unlock()

	if h.dev != nil {
		err = h.dev.Halt()
		h.dev = nil
	}

	if h.bus != nil {
		err = multierr.Combine(err, h.bus.Close())
		h.bus = nil
	}

	return err
}
