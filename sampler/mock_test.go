// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"bytes"
	"errors"
	"sync"

	"github.com/schmidtw/sdlogger/record"
	"github.com/stretchr/testify/mock"
)

type mockSensor struct {
	mock.Mock
}

func (m *mockSensor) Kind() record.Kind {
	a := m.Called()
	return a.Get(0).(record.Kind)
}

func (m *mockSensor) Begin() error {
	a := m.Called()
	return a.Error(0)
}

func (m *mockSensor) Read() (record.Fields, error) {
	a := m.Called()
	return a.Get(0).(record.Fields), a.Error(1)
}

var errLogFull = errors.New("log full")

// memLog is an in memory Log that fails every append after failAfter
// successful ones (when failAfter > 0).
type memLog struct {
	m         sync.Mutex
	format    record.Format
	buf       bytes.Buffer
	appends   int
	failAfter int
}

func (l *memLog) Append(rec []byte) (int, error) {
	l.m.Lock()
	defer l.m.Unlock()

	if l.failAfter > 0 && l.appends >= l.failAfter {
		return 0, errLogFull
	}
	l.appends++
	return l.buf.Write(rec)
}

func (l *memLog) Format() record.Format {
	return l.format
}

func (l *memLog) Offset() int64 {
	l.m.Lock()
	defer l.m.Unlock()

	return int64(l.buf.Len())
}
