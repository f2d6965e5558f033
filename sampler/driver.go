// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/schmidtw/sdlogger/meter"
	"github.com/schmidtw/sdlogger/metrics"
	"github.com/schmidtw/sdlogger/record"
	"go.uber.org/zap"
)

// DefaultInterval is the sampling interval used when none is configured.
const DefaultInterval = 10 * time.Second

var (
	ErrSensorReadFailed  = errors.New("sensor read failed")
	ErrSensorUnavailable = errors.New("sensor unavailable")
	errNoSensors         = errors.New("no sensors registered")
	errNoLog             = errors.New("no log session")
)

// Sensor is a source of one kind of measurement.
type Sensor interface {
	// Kind returns the kind of measurement the sensor produces.
	Kind() record.Kind

	// Begin prepares the sensor.  It is called once before sampling starts.
	Begin() error

	// Read takes one reading.
	Read() (record.Fields, error)
}

// Log is where encoded records are appended, normally a *session.Session.
type Log interface {
	Append(rec []byte) (int, error)
	Format() record.Format
	Offset() int64
}

// Config configures the Driver.
type Config struct {
	// Interval is the time from the start of one tick to the start of the
	// next.  The default is 10s.
	Interval time.Duration

	// Ticks bounds how many ticks Run performs.  Zero or less runs until the
	// context is cancelled.
	Ticks int
}

type Option interface {
	apply(*Driver)
}

type optionFunc func(*Driver)

func (f optionFunc) apply(d *Driver) {
	f(d)
}

// UseClock provides a way to set the clock used.  This is used for testing.
func UseClock(c clock.Clock) Option {
	return optionFunc(func(d *Driver) {
		if c != nil {
			d.clock = c
		}
	})
}

// WithLogger sets the logger used for per tick reports and sensor failures.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	})
}

// WithMetrics sets the prometheus collectors to update.
func WithMetrics(m *metrics.Metrics) Option {
	return optionFunc(func(d *Driver) {
		d.metrics = m
	})
}

// WithMeter sets the throughput meter fed with the bytes written each tick.
func WithMeter(m *meter.Meter) Option {
	return optionFunc(func(d *Driver) {
		d.meter = m
	})
}

// Driver samples every registered sensor once per tick and appends the
// encoded readings to the log.
type Driver struct {
	interval time.Duration
	ticks    int
	log      Log
	sensors  []Sensor
	clock    clock.Clock
	boot     time.Time
	logger   *zap.Logger
	metrics  *metrics.Metrics
	meter    *meter.Meter
	total    int64
}

// New creates a Driver.  Sensors are sampled in the order given.
func New(cfg Config, log Log, sensors []Sensor, opts ...Option) (*Driver, error) {
	if log == nil {
		return nil, errNoLog
	}
	if len(sensors) == 0 {
		return nil, errNoSensors
	}
	for _, s := range sensors {
		if !s.Kind().Valid() {
			return nil, fmt.Errorf("%w: %s", record.ErrUnknownKind, s.Kind())
		}
	}

	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	d := Driver{
		interval: cfg.Interval,
		ticks:    cfg.Ticks,
		log:      log,
		sensors:  append([]Sensor(nil), sensors...),
		clock:    clock.New(),
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt.apply(&d)
	}

	d.boot = d.clock.Now()

	return &d, nil
}

// Begin initializes every sensor.  Any failure is fatal to startup.
func (d *Driver) Begin() error {
	for _, s := range d.sensors {
		if err := s.Begin(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSensorUnavailable, s.Kind(), err)
		}
		d.logger.Info("sensor ready", zap.Stringer("kind", s.Kind()))
	}
	return nil
}

// Total returns the number of bytes appended since the driver was created.
func (d *Driver) Total() int64 {
	return d.total
}

// millis returns the time since boot in milliseconds, wrapping at 2^32.
func (d *Driver) millis() uint32 {
	return uint32(d.clock.Since(d.boot).Milliseconds())
}

// Tick samples every sensor once.  A failed sensor read only skips that
// sensor.  A failed append stops the tick and is returned; the log must not
// be written to again.
func (d *Driver) Tick() (int, error) {
	var written int

	for _, s := range d.sensors {
		kind := s.Kind()

		fields, err := s.Read()
		if err != nil {
			d.metrics.SensorFailed(kind)
			d.logger.Warn("skipping sensor",
				zap.Stringer("kind", kind),
				zap.Error(fmt.Errorf("%w: %v", ErrSensorReadFailed, err)))
			continue
		}

		m := record.Measurement{
			Kind:      kind,
			Timestamp: d.millis(),
			Fields:    fields,
		}

		rec, err := record.Encode(m, d.log.Format())
		if err != nil {
			return written, err
		}

		n, err := d.log.Append(rec)
		written += n
		d.total += int64(n)
		if err != nil {
			d.metrics.Faulted()
			return written, err
		}
		d.metrics.Appended(kind, n)
	}

	return written, nil
}

// Run ticks until the configured number of ticks is reached, the context is
// cancelled or an append fails.  Ticks start Interval apart; a tick that
// takes longer than Interval is followed immediately by the next one and the
// missed ticks are not made up.
func (d *Driver) Run(ctx context.Context) error {
	for i := 1; d.ticks <= 0 || i <= d.ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := d.clock.Now()
		n, err := d.Tick()
		elapsed := d.clock.Since(start)

		if d.meter != nil {
			d.meter.Add(n)
		}
		d.metrics.Ticked(elapsed.Seconds(), d.log.Offset())

		if err != nil {
			return fmt.Errorf("tick %d: %w", i, err)
		}

		d.logger.Info("tick complete",
			zap.Int("tick", i),
			zap.Int("bytes", n),
			zap.Int64("total", d.total),
			zap.Duration("elapsed", elapsed))

		if d.ticks > 0 && i == d.ticks {
			break
		}

		wait := Delay(d.interval, elapsed)
		if wait == 0 {
			d.logger.Warn("sampling overran the interval",
				zap.Duration("interval", d.interval),
				zap.Duration("elapsed", elapsed))
			continue
		}

		timer := d.clock.Timer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return nil
}

// Delay returns how long to wait before the next tick given how long the
// current one took.
func Delay(interval, elapsed time.Duration) time.Duration {
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}
