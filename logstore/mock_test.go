// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"io"

	"github.com/stretchr/testify/mock"
)

type mockVolume struct {
	mock.Mock
}

func (m *mockVolume) Mount() error {
	a := m.Called()
	return a.Error(0)
}

func (m *mockVolume) Exists(name string) (bool, error) {
	a := m.Called(name)
	return a.Bool(0), a.Error(1)
}

func (m *mockVolume) OpenAppend(name string) (File, error) {
	a := m.Called(name)
	f, _ := a.Get(0).(File)
	return f, a.Error(1)
}

func (m *mockVolume) Open(name string) (io.ReadCloser, error) {
	a := m.Called(name)
	rc, _ := a.Get(0).(io.ReadCloser)
	return rc, a.Error(1)
}

type mockFile struct {
	mock.Mock
}

func (m *mockFile) Write(p []byte) (int, error) {
	a := m.Called(p)
	return a.Int(0), a.Error(1)
}

func (m *mockFile) Sync() error {
	a := m.Called()
	return a.Error(0)
}

func (m *mockFile) Close() error {
	a := m.Called()
	return a.Error(0)
}

func (m *mockFile) Name() string {
	a := m.Called()
	return a.String(0)
}

func (m *mockVolume) Truncate(name string, size int64) error {
	a := m.Called(name, size)
	return a.Error(0)
}

func (m *mockFile) Size() (int64, error) {
	a := m.Called()
	return a.Get(0).(int64), a.Error(1)
}
