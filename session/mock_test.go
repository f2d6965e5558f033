// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"github.com/stretchr/testify/mock"
)

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

func (m *mockFile) Size() (int64, error) {
	a := m.Called()
	return a.Get(0).(int64), a.Error(1)
}
