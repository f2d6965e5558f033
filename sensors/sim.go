// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package sensors

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/schmidtw/sdlogger/record"
	"github.com/schmidtw/sdlogger/sampler"
)

var errSimulatedFailure = errors.New("simulated read failure")

type simParams struct {
	Base      float64       `mapstructure:"base"`
	Amplitude float64       `mapstructure:"amplitude"`
	Period    time.Duration `mapstructure:"period"`
	FailEvery int           `mapstructure:"fail_every"`
}

// sim produces a sine wave around Base.  The axes of vector kinds are a
// third of a period apart.
type sim struct {
	kind   record.Kind
	params simParams
	clock  clock.Clock
	start  time.Time
	reads  int
}

func newSim(b *builder, kind record.Kind, params map[string]any) (sampler.Sensor, error) {
	p := simParams{
		Period: time.Minute,
	}
	if err := decode(params, &p); err != nil {
		return nil, err
	}
	if p.Period <= 0 {
		return nil, fmt.Errorf("%w: period must be positive", ErrInvalidParams)
	}
	if p.FailEvery < 0 {
		return nil, fmt.Errorf("%w: fail_every must not be negative", ErrInvalidParams)
	}

	return &sim{
		kind:   kind,
		params: p,
		clock:  b.clock,
	}, nil
}

func (s *sim) Kind() record.Kind {
	return s.kind
}

func (s *sim) Begin() error {
	s.start = s.clock.Now()
	return nil
}

func (s *sim) Read() (record.Fields, error) {
	s.reads++
	if s.params.FailEvery > 0 && s.reads%s.params.FailEvery == 0 {
		return record.Fields{}, errSimulatedFailure
	}

	elapsed := s.clock.Since(s.start)
	phase := 2 * math.Pi * float64(elapsed) / float64(s.params.Period)

	var f record.Fields
	for i := 0; i < s.kind.FieldCount(); i++ {
		offset := 2 * math.Pi * float64(i) / 3
		f[i] = float32(s.params.Base + s.params.Amplitude*math.Sin(phase+offset))
	}

	return f, nil
}
