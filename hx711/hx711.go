// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

// Package hx711 drives an HX711 24-bit load cell ADC over two GPIO
// lines and exposes it as a sensor component: configuration comes in as
// attribute maps, weight in kilograms comes back out.
package hx711

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
)

const (
	defaultPulseHold  = time.Microsecond
	defaultReadyPoll  = time.Millisecond
	defaultSettleTime = 10 * time.Millisecond
)

// hx711 is the bit level protocol driver.  It owns exactly two claimed
// pins and has no idea about tare or unit conversion.
//
// The protocol has no framing: once a transfer starts the full 24 bits
// plus the gain pulse train must complete without another transfer
// interleaving.  The owning component serializes all calls.
type hx711 struct {
	dout gpio.PinIO
	sck  gpio.PinIO
	clk  clock.Clock

	pulseHold    time.Duration
	readyPoll    time.Duration
	settleTime   time.Duration
	readyTimeout time.Duration

	gainPulses int
}

// gainPulses maps a configured gain to the number of extra clock pulses
// that follow the 24 data bits.  The chip latches the channel and gain
// for the next conversion from this count: 1 pulse selects channel A at
// gain 128, 2 selects channel B at gain 32, 3 selects channel A at
// gain 64.
func gainPulses(gain int) int {
	switch gain {
	case 128:
		return 1
	case 32:
		return 2
	default:
		return 3
	}
}

// setup puts the pins in their protocol roles and programs the gain.
// The chip holds the data line low when a sample is ready, so the data
// pin gets a pull-up to idle high while the chip is converting.
func (h *hx711) setup(ctx context.Context) error {
	if err := h.dout.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrHardware, h.dout, err)
	}
	if err := h.sck.Out(gpio.Low); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrHardware, h.sck, err)
	}

	if err := h.waitReady(ctx); err != nil {
		return err
	}

	return h.pulseGain()
}

// waitReady polls until the chip pulls the data line low.  This is the
// only interruptible point in the protocol; a context deadline or the
// configured ready timeout bounds the wait, otherwise it blocks for as
// long as the line stays high.
func (h *hx711) waitReady(ctx context.Context) error {
	var deadline time.Time
	if h.readyTimeout > 0 {
		deadline = h.clk.Now().Add(h.readyTimeout)
	}

	for h.dout.Read() == gpio.High {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !deadline.IsZero() && h.clk.Now().After(deadline) {
			return fmt.Errorf("%w: data line high for %s", ErrReadyTimeout, h.readyTimeout)
		}
		h.clk.Sleep(h.readyPoll)
	}

	return nil
}

// readRaw clocks one 24-bit sample out of the chip, MSB first, then
// sends the gain pulse train that both terminates the transfer and
// programs the gain of the next conversion.  The result is the sign
// extended twos-complement value.
func (h *hx711) readRaw(ctx context.Context) (int32, error) {
	if err := h.waitReady(ctx); err != nil {
		return 0, err
	}

	var v uint32
	for i := 0; i < 24; i++ {
		if err := h.sck.Out(gpio.High); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrHardware, h.sck, err)
		}
		h.clk.Sleep(h.pulseHold)

		if h.dout.Read() == gpio.High {
			v |= 1 << (23 - i)
		}

		if err := h.sck.Out(gpio.Low); err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrHardware, h.sck, err)
		}
		h.clk.Sleep(h.pulseHold)
	}

	if err := h.pulseGain(); err != nil {
		return 0, err
	}

	if v&0x800000 != 0 {
		v |= 0xff000000
	}

	return int32(v), nil
}

func (h *hx711) pulseGain() error {
	for i := 0; i < h.gainPulses; i++ {
		if err := h.sck.Out(gpio.High); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrHardware, h.sck, err)
		}
		h.clk.Sleep(h.pulseHold)
		if err := h.sck.Out(gpio.Low); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrHardware, h.sck, err)
		}
		h.clk.Sleep(h.pulseHold)
	}

	return nil
}

// readAverage takes n raw samples separated by a short settle delay and
// returns their average along with the individual samples.  A single
// failed sample aborts the whole batch.
func (h *hx711) readAverage(ctx context.Context, n int) (float64, []int32, error) {
	samples := make([]int32, 0, n)

	var sum int64
	for i := 0; i < n; i++ {
		if i > 0 {
			h.clk.Sleep(h.settleTime)
		}

		raw, err := h.readRaw(ctx)
		if err != nil {
			return 0.0, nil, err
		}

		samples = append(samples, raw)
		sum += int64(raw)
	}

	return float64(sum) / float64(n), samples, nil
}

// halt releases both pins.  Best effort.
func (h *hx711) halt() error {
	return multierr.Combine(h.dout.Halt(), h.sck.Halt())
}
