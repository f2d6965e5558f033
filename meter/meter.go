// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package meter

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/schmidtw/sdlogger/units"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Config provides the meter configuration options.
type Config struct {
	StartingTotal units.ByteSize `yaml:"starting_total"`
	MaxEventCount int            `yaml:"max_event_count"`
}

type Option interface {
	apply(m *Meter)
}

type event struct {
	at    time.Time
	bytes int
}

// Meter keeps a running total of bytes written and enough recent history to
// report throughput.
type Meter struct {
	name          string
	mutex         sync.Mutex
	clock         clock.Clock
	total         units.ByteSize
	maxEventCount int
	events        list.List
}

// New makes a new meter.
func New(name string, cfg Config, opts ...Option) (*Meter, error) {
	if cfg.MaxEventCount < 1 {
		cfg.MaxEventCount = 100
	}
	if cfg.StartingTotal < 0 {
		return nil, ErrInvalidParameter
	}

	m := Meter{
		name:          name,
		clock:         clock.New(),
		total:         cfg.StartingTotal,
		maxEventCount: cfg.MaxEventCount,
	}

	m.events.Init()

	for _, opt := range opts {
		opt.apply(&m)
	}

	return &m, nil
}

// Add records n bytes written now.
func (m *Meter) Add(n int) {
	if n <= 0 {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.total += units.ByteSize(n)
	m.events.PushFront(event{at: m.clock.Now(), bytes: n})

	for m.events.Len() > m.maxEventCount {
		m.events.Remove(m.events.Back())
	}
}

// Rate returns the throughput over the trailing window.
func (m *Meter) Rate(over time.Duration) units.ByteRate {
	if over <= 0 {
		return 0
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	until := m.clock.Now().Add(-1 * over)

	var bytes int
	for e := m.events.Front(); e != nil; e = e.Next() {
		ev := e.Value.(event)
		if !until.Before(ev.at) {
			break
		}
		bytes += ev.bytes
	}

	return units.ByteRate(float64(bytes) / over.Minutes())
}

func (m *Meter) Total() units.ByteSize {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.total
}

func (m *Meter) String() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.name + ":" + m.total.String()
}

// UseClock provides a way to set the clock used.  This is used for testing.
func UseClock(c clock.Clock) Option {
	return &clockOption{clk: c}
}

type clockOption struct {
	clk clock.Clock
}

func (c clockOption) apply(m *Meter) {
	m.clock = c.clk
}
