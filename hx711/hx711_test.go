// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package hx711

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

func newTestDriver(chip *fakeChip, pulses int) *hx711 {
	return &hx711{
		dout:       &fakeDataPin{basePin: basePin{name: "DOUT"}, chip: chip},
		sck:        &fakeClockPin{basePin: basePin{name: "SCK"}, chip: chip},
		clk:        clock.New(),
		readyPoll:  time.Microsecond,
		gainPulses: pulses,
	}
}

func TestReadRaw(t *testing.T) {
	tests := []struct {
		description string
		raw         uint32
		expect      int32
	}{
		{
			description: "zero",
			raw:         0x000000,
			expect:      0,
		}, {
			description: "one",
			raw:         0x000001,
			expect:      1,
		}, {
			description: "max positive",
			raw:         0x7fffff,
			expect:      8388607,
		}, {
			description: "min negative",
			raw:         0x800000,
			expect:      -8388608,
		}, {
			description: "sign extension keeps the low bits",
			raw:         0x800001,
			expect:      -8388607,
		}, {
			description: "alternating bits, negative",
			raw:         0xaaaaaa,
			expect:      -5592406,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			chip := &fakeChip{samples: []uint32{tc.raw}, gainPulses: 3}
			drv := newTestDriver(chip, 3)

			got, err := drv.readRaw(context.Background())

			require.NoError(err)
			assert.Equal(tc.expect, got)
			assert.Equal([]int{27}, chip.frames)
		})
	}
}

func TestGainPulses(t *testing.T) {
	tests := []struct {
		gain   int
		pulses int
	}{
		{gain: 128, pulses: 1},
		{gain: 32, pulses: 2},
		{gain: 64, pulses: 3},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.pulses, gainPulses(tc.gain))
	}
}

func TestGainPulseTrain(t *testing.T) {
	// One data frame per gain, each terminated by its own pulse count.
	for _, pulses := range []int{1, 2, 3} {
		chip := &fakeChip{samples: []uint32{42}, gainPulses: pulses}
		drv := newTestDriver(chip, pulses)

		_, err := drv.readRaw(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []int{24 + pulses}, chip.frames)
	}
}

func TestSetup(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	chip := &fakeChip{samples: []uint32{0}, gainPulses: 1}
	drv := newTestDriver(chip, 1)

	require.NoError(drv.setup(context.Background()))

	assert.Equal(gpio.PullUp, chip.pull)
	assert.Equal(1, chip.setupEdges)
}

func TestWaitReady(t *testing.T) {
	t.Run("bounded timeout", func(t *testing.T) {
		drv := &hx711{
			dout:         &stuckHighPin{basePin{name: "DOUT"}},
			sck:          &basePin{name: "SCK"},
			clk:          clock.New(),
			readyPoll:    100 * time.Microsecond,
			readyTimeout: 2 * time.Millisecond,
		}

		err := drv.waitReady(context.Background())

		assert.ErrorIs(t, err, ErrReadyTimeout)
	})

	t.Run("context cancellation", func(t *testing.T) {
		drv := &hx711{
			dout:      &stuckHighPin{basePin{name: "DOUT"}},
			sck:       &basePin{name: "SCK"},
			clk:       clock.New(),
			readyPoll: 100 * time.Microsecond,
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := drv.waitReady(ctx)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReadAverage(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	chip := &fakeChip{samples: []uint32{100, 200, 300}, gainPulses: 3}
	drv := newTestDriver(chip, 3)

	avg, samples, err := drv.readAverage(context.Background(), 3)

	require.NoError(err)
	assert.Equal(200.0, avg)
	assert.Equal([]int32{100, 200, 300}, samples)
	assert.Equal([]int{27, 27, 27}, chip.frames)
}

func TestReadAbortsOnPinError(t *testing.T) {
	assert := assert.New(t)

	boom := errors.New("boom")

	sck := new(mockPin)
	sck.On("Out", mock.Anything).Return(boom)

	chip := &fakeChip{samples: []uint32{100}, gainPulses: 3}
	drv := &hx711{
		dout:       &fakeDataPin{basePin: basePin{name: "DOUT"}, chip: chip},
		sck:        sck,
		clk:        clock.New(),
		readyPoll:  time.Microsecond,
		gainPulses: 3,
	}

	_, _, err := drv.readAverage(context.Background(), 3)

	assert.ErrorIs(err, ErrHardware)
	sck.AssertExpectations(t)
}
