// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package hx711

import (
	"time"

	"github.com/stretchr/testify/mock"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// fakeChip simulates the serial side of an HX711: it emits the loaded
// 24-bit samples on the data line, one bit per clock rising edge, and
// reports ready by holding the line low between frames.
//
// Right after the data pin is configured the chip expects a bare
// gain-set pulse train with no data bits; the first falling edge at or
// past that count realigns the frame.
type fakeChip struct {
	samples    []uint32 // 24-bit patterns, emitted in order, last repeats
	gainPulses int      // pulses the driver is expected to send per train

	configPending bool
	setupEdges    int   // edges seen in the gain-set train after setup
	edges         int   // rising edges in the current frame
	frames        []int // total edges of each completed data frame
	idx           int
	out           gpio.Level
	pull          gpio.Pull
	halted        int
}

func (c *fakeChip) current() uint32 {
	i := c.idx
	if i >= len(c.samples) {
		i = len(c.samples) - 1
	}
	return c.samples[i]
}

func (c *fakeChip) configured(pull gpio.Pull) {
	c.pull = pull
	c.configPending = true
	c.edges = 0
	c.out = gpio.Low
}

func (c *fakeChip) rising() {
	c.edges++
	if !c.configPending && c.edges <= 24 {
		c.out = gpio.Low
		if c.current()&(1<<uint(24-c.edges)) != 0 {
			c.out = gpio.High
		}
		return
	}

	// Busy until the next conversion completes.
	c.out = gpio.High
}

func (c *fakeChip) falling() {
	if c.configPending && c.edges >= c.gainPulses {
		c.setupEdges = c.edges
		c.configPending = false
		c.edges = 0
		c.out = gpio.Low
		return
	}

	if c.edges >= 24+c.gainPulses {
		c.frames = append(c.frames, c.edges)
		c.edges = 0
		if c.idx < len(c.samples)-1 {
			c.idx++
		}
		c.out = gpio.Low
	}
}

// basePin satisfies the inert parts of gpio.PinIO.
type basePin struct {
	name string
}

func (p *basePin) String() string { return p.name }
func (p *basePin) Halt() error    { return nil }
func (p *basePin) Name() string   { return p.name }
func (p *basePin) Number() int    { return 0 }

func (p *basePin) Function() string               { return "" }
func (p *basePin) In(gpio.Pull, gpio.Edge) error  { return nil }
func (p *basePin) Read() gpio.Level               { return gpio.Low }
func (p *basePin) WaitForEdge(time.Duration) bool { return false }
func (p *basePin) Pull() gpio.Pull                { return gpio.PullNoChange }
func (p *basePin) DefaultPull() gpio.Pull         { return gpio.PullNoChange }

func (p *basePin) Out(gpio.Level) error                  { return nil }
func (p *basePin) PWM(gpio.Duty, physic.Frequency) error { return nil }

// fakeDataPin is the chip-driven data-out line.
type fakeDataPin struct {
	basePin
	chip *fakeChip
}

func (p *fakeDataPin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.chip.configured(pull)
	return nil
}

func (p *fakeDataPin) Read() gpio.Level {
	return p.chip.out
}

func (p *fakeDataPin) Halt() error {
	p.chip.halted++
	return nil
}

// fakeClockPin is the driver-driven clock line; edges feed the chip.
type fakeClockPin struct {
	basePin
	chip  *fakeChip
	level gpio.Level
}

func (p *fakeClockPin) Out(l gpio.Level) error {
	if l == gpio.High && p.level == gpio.Low {
		p.chip.rising()
	}
	if l == gpio.Low && p.level == gpio.High {
		p.chip.falling()
	}
	p.level = l
	return nil
}

func (p *fakeClockPin) Halt() error {
	p.chip.halted++
	return nil
}

// stuckHighPin never signals ready.
type stuckHighPin struct {
	basePin
}

func (p *stuckHighPin) Read() gpio.Level { return gpio.High }

// fakeBoard hands out the pins of a fakeChip by number.
type fakeBoard struct {
	pins    map[int]gpio.PinIO
	initErr error
}

func newFakeBoard(chip *fakeChip, doutPin, sckPin int) *fakeBoard {
	return &fakeBoard{
		pins: map[int]gpio.PinIO{
			doutPin: &fakeDataPin{basePin: basePin{name: "DOUT"}, chip: chip},
			sckPin:  &fakeClockPin{basePin: basePin{name: "SCK"}, chip: chip},
		},
	}
}

func (b *fakeBoard) Init() error {
	return b.initErr
}

func (b *fakeBoard) Pin(number int) (gpio.PinIO, error) {
	p, ok := b.pins[number]
	if !ok {
		return nil, ErrHardware
	}
	return p, nil
}

// mockPin is a testify mock for injecting pin failures.
type mockPin struct {
	basePin
	mock.Mock
}

// String disambiguates the selector mock.Mock also provides.
func (m *mockPin) String() string { return m.basePin.String() }

func (m *mockPin) Out(l gpio.Level) error {
	a := m.Called(l)
	return a.Error(0)
}

func (m *mockPin) In(pull gpio.Pull, edge gpio.Edge) error {
	a := m.Called(pull, edge)
	return a.Error(0)
}

func (m *mockPin) Read() gpio.Level {
	a := m.Called()
	return a.Get(0).(gpio.Level)
}
