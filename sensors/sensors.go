// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package sensors

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/mitchellh/mapstructure"
	"github.com/schmidtw/sdlogger/record"
	"github.com/schmidtw/sdlogger/sampler"
)

var (
	ErrUnknownDriver = errors.New("unknown sensor driver")
	ErrInvalidParams = errors.New("invalid sensor parameters")
	ErrDuplicateKind = errors.New("duplicate sensor kind")
)

// Config describes one sensor in the configuration file.
type Config struct {
	// Kind is the measurement kind, for example "temperature" or "gyro".
	Kind string

	// Driver selects the implementation: "sim" or "bmxx80".
	Driver string

	// Params are driver specific settings.
	Params map[string]any
}

type Option interface {
	apply(*builder)
}

type builder struct {
	clock clock.Clock
}

// UseClock provides a way to set the clock used by simulated sensors.
func UseClock(c clock.Clock) Option {
	return &clockOption{clk: c}
}

type clockOption struct {
	clk clock.Clock
}

func (c clockOption) apply(b *builder) {
	b.clock = c.clk
}

type factory func(b *builder, kind record.Kind, params map[string]any) (sampler.Sensor, error)

var drivers = map[string]factory{
	"sim":    newSim,
	"bmxx80": newBmxx80,
}

// Set is the ordered list of sensors built from the configuration.
type Set struct {
	list []sampler.Sensor
}

// Build creates the sensors in configuration order.  Each kind may appear
// only once.
func Build(cfgs []Config, opts ...Option) (*Set, error) {
	b := builder{
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt.apply(&b)
	}

	seen := make(map[record.Kind]bool, len(cfgs))
	set := Set{
		list: make([]sampler.Sensor, 0, len(cfgs)),
	}

	for i, cfg := range cfgs {
		kind, err := record.ParseKind(cfg.Kind)
		if err != nil {
			return nil, fmt.Errorf("sensor %d: %w", i, err)
		}
		if seen[kind] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
		}
		seen[kind] = true

		f, ok := drivers[strings.ToLower(cfg.Driver)]
		if !ok {
			return nil, fmt.Errorf("%w: '%s' for %s", ErrUnknownDriver, cfg.Driver, kind)
		}

		s, err := f(&b, kind, cfg.Params)
		if err != nil {
			return nil, fmt.Errorf("sensor %s: %w", kind, err)
		}
		set.list = append(set.list, s)
	}

	return &set, nil
}

// Sensors returns the sensors in registration order.
func (s *Set) Sensors() []sampler.Sensor {
	return append([]sampler.Sensor(nil), s.list...)
}

// Close releases any hardware held by the sensors.
func (s *Set) Close() (err error) {
	for _, sensor := range s.list {
		if c, ok := sensor.(io.Closer); ok {
			if e := c.Close(); e != nil && err == nil {
				err = e
			}
		}
	}
	return err
}

func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
