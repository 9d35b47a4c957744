// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package hx711

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// board abstracts pin acquisition so independent instances, and tests,
// never touch real hardware state they don't own.
type board interface {
	Init() error
	Pin(number int) (gpio.PinIO, error)
}

type hwBoard struct {
	once sync.Once
	err  error
}

func (b *hwBoard) Init() error {
	b.once.Do(func() {
		_, b.err = host.Init()
	})
	return b.err
}

// Pin resolves a BCM pin number through the host registry.
func (b *hwBoard) Pin(number int) (gpio.PinIO, error) {
	p := gpioreg.ByName(strconv.Itoa(number))
	if p == nil {
		return nil, fmt.Errorf("%w: no GPIO pin %d", ErrHardware, number)
	}

	return p, nil
}
