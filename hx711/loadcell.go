// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package hx711

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/edss/sensormodule/sensor"
	"github.com/edss/sensormodule/units"
)

// LoadCell is the load cell sensor component.  A new instance starts
// unconfigured; the first successful Reconfigure claims the pins and
// brings the chip up.
//
// Every reading echoes the active configuration back alongside the
// computed weight.  Downstream consumers depend on that echo, so the
// payload keys are part of the external contract.
type LoadCell struct {
	name  string
	mutex sync.Mutex

	board board
	clk   clock.Clock
	log   *zap.Logger

	pulseHold  time.Duration
	readyPoll  time.Duration
	settleTime time.Duration

	config     Config
	tareOffset float64
	drv        *hx711
}

var _ sensor.Sensor = (*LoadCell)(nil)

// Option configures a LoadCell at construction time.
type Option interface {
	apply(lc *LoadCell)
}

// New makes a new load cell component with the compiled-in defaults.
// No hardware is touched until Reconfigure succeeds.
func New(name string, opts ...Option) *LoadCell {
	lc := &LoadCell{
		name:       name,
		board:      &hwBoard{},
		clk:        clock.New(),
		log:        zap.NewNop(),
		pulseHold:  defaultPulseHold,
		readyPoll:  defaultReadyPoll,
		settleTime: defaultSettleTime,
		config:     DefaultConfig(),
	}
	lc.tareOffset = lc.config.TareOffset

	for _, opt := range opts {
		opt.apply(lc)
	}

	return lc
}

// Reconfigure merges the attribute map into the current configuration,
// validates it as a whole, then re-runs the hardware setup.  A
// rejected attribute set leaves the previous configuration, pin claims
// included, untouched.
func (lc *LoadCell) Reconfigure(ctx context.Context, attrs map[string]interface{}) error {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()

	next, err := lc.config.merge(attrs)
	if err != nil {
		return err
	}

	if err := lc.board.Init(); err != nil {
		return err
	}

	dout, err := lc.board.Pin(next.DoutPin)
	if err != nil {
		return err
	}
	sck, err := lc.board.Pin(next.SckPin)
	if err != nil {
		return err
	}

	// The old claim is released only once the replacement pins have
	// resolved, so a failed lookup leaves the running setup intact.
	if lc.drv != nil {
		_ = lc.drv.halt()
		lc.drv = nil
	}

	drv := &hx711{
		dout:         dout,
		sck:          sck,
		clk:          lc.clk,
		pulseHold:    lc.pulseHold,
		readyPoll:    lc.readyPoll,
		settleTime:   lc.settleTime,
		readyTimeout: time.Duration(next.ReadyTimeoutMs) * time.Millisecond,
		gainPulses:   gainPulses(next.Gain),
	}
	if err := drv.setup(ctx); err != nil {
		return err
	}

	lc.drv = drv
	lc.config = next
	if _, ok := attrs["tare_offset"]; ok {
		lc.tareOffset = next.TareOffset
	}

	lc.log.Info("configured",
		zap.String("name", lc.name),
		zap.Int("doutPin", next.DoutPin),
		zap.Int("sckPin", next.SckPin),
		zap.Int("gain", next.Gain),
		zap.Int("numberOfReadings", next.NumberOfReadings))

	return nil
}

// Readings averages the configured number of raw samples and reports
// the weight plus the configuration echo.
func (lc *LoadCell) Readings(ctx context.Context) (sensor.Readings, error) {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()

	if lc.drv == nil {
		return nil, ErrNotConfigured
	}

	avg, _, err := lc.drv.readAverage(ctx, lc.config.NumberOfReadings)
	if err != nil {
		return nil, err
	}

	w := lc.weight(avg)
	lc.log.Debug("read",
		zap.String("name", lc.name),
		zap.Stringer("weight", units.Weight(w)),
		zap.Float64("rawAvg", avg))

	return sensor.Readings{
		"doutPin":          lc.config.DoutPin,
		"sckPin":           lc.config.SckPin,
		"gain":             lc.config.Gain,
		"numberOfReadings": lc.config.NumberOfReadings,
		"tare_offset":      lc.tareOffset,
		"weight":           w,
	}, nil
}

// ReadWeight takes n raw samples (the configured count when n < 1) and
// returns the weight in kilograms, the raw average it was computed
// from, and the individual raw samples.
func (lc *LoadCell) ReadWeight(ctx context.Context, n int) (float64, float64, []int32, error) {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()

	if lc.drv == nil {
		return 0.0, 0.0, nil, ErrNotConfigured
	}

	if n < 1 {
		n = lc.config.NumberOfReadings
	}

	avg, samples, err := lc.drv.readAverage(ctx, n)
	if err != nil {
		return 0.0, 0.0, nil, err
	}

	return lc.weight(avg), avg, samples, nil
}

func (lc *LoadCell) weight(rawAvg float64) float64 {
	return (rawAvg - lc.tareOffset) / lc.config.ScaleFactor
}

// DoCommand runs the recognized commands present in cmd.  The only
// recognized command is "tare"; every other key is reported back as
// unsuccessful rather than failing the call.
func (lc *LoadCell) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()

	out := make(map[string]interface{}, len(cmd))
	for key := range cmd {
		switch key {
		case "tare":
			if err := lc.tare(ctx); err != nil {
				return nil, err
			}
			out[key] = true
		default:
			out[key] = false
		}
	}

	return out, nil
}

// tare stores the current raw average as the new offset.  Callers hold
// the mutex.
func (lc *LoadCell) tare(ctx context.Context) error {
	if lc.drv == nil {
		return ErrNotConfigured
	}

	avg, _, err := lc.drv.readAverage(ctx, lc.config.NumberOfReadings)
	if err != nil {
		return err
	}

	lc.tareOffset = avg
	lc.log.Info("tared", zap.String("name", lc.name), zap.Float64("tare_offset", avg))

	return nil
}

// Close releases the pin claims.  Safe to call on an unconfigured or
// already closed component.
func (lc *LoadCell) Close(ctx context.Context) error {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()

	if lc.drv == nil {
		return nil
	}

	err := lc.drv.halt()
	lc.drv = nil

	return err
}

// UseClock provides a way to set the clock used.  This is used for
// testing.
func UseClock(c clock.Clock) Option {
	return &clockOption{clk: c}
}

type clockOption struct {
	clk clock.Clock
}

func (o *clockOption) apply(lc *LoadCell) {
	if o.clk != nil {
		lc.clk = o.clk
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return &loggerOption{log: log}
}

type loggerOption struct {
	log *zap.Logger
}

func (o *loggerOption) apply(lc *LoadCell) {
	if o.log != nil {
		lc.log = o.log
	}
}

// withBoard swaps the pin source.  Tests use this to run the full
// protocol against fake pins.
func withBoard(b board) Option {
	return &boardOption{b: b}
}

type boardOption struct {
	b board
}

func (o *boardOption) apply(lc *LoadCell) {
	lc.board = o.b
}

// withTimings shortens the protocol delays so tests don't sleep.
func withTimings(pulseHold, readyPoll, settle time.Duration) Option {
	return &timingsOption{pulseHold: pulseHold, readyPoll: readyPoll, settle: settle}
}

type timingsOption struct {
	pulseHold time.Duration
	readyPoll time.Duration
	settle    time.Duration
}

func (o *timingsOption) apply(lc *LoadCell) {
	lc.pulseHold = o.pulseHold
	lc.readyPoll = o.readyPoll
	lc.settleTime = o.settle
}
