// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"

	"github.com/schmidtw/sdlogger/logstore"
	"github.com/schmidtw/sdlogger/record"
	"go.uber.org/zap"
)

var (
	ErrWriteIncomplete = errors.New("write incomplete")
	ErrSessionFaulted  = errors.New("session faulted")
	ErrSessionClosed   = errors.New("session closed")
	errNoFile          = errors.New("no log file")
)

// Session appends records to one open log file.
//
// Every Append is followed by a Sync so a power loss can only damage the
// record being written.  Once a write fails the session is faulted and stays
// that way; a new session on a freshly opened file is needed to continue.
//
// A Session is not safe for concurrent use.  It is owned by the sampling
// driver.
type Session struct {
	file    logstore.File
	format  record.Format
	offset  int64
	faulted error
	closed  bool
	logger  *zap.Logger
}

// Option configures a Session.
type Option interface {
	apply(*Session)
}

type optionFunc func(*Session)

func (f optionFunc) apply(s *Session) {
	f(s)
}

// WithLogger sets the logger used by the session.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(s *Session) {
		if l != nil {
			s.logger = l
		}
	})
}

// WithOffset sets the starting offset, used when appending to a file that
// already has content.
func WithOffset(off int64) Option {
	return optionFunc(func(s *Session) {
		s.offset = off
	})
}

// New wraps an open log file.
func New(f logstore.File, format record.Format, opts ...Option) (*Session, error) {
	if f == nil {
		return nil, errNoFile
	}
	if format.Extension() == "" {
		return nil, fmt.Errorf("%w: %d", record.ErrUnknownFormat, int(format))
	}

	s := Session{
		file:   f,
		format: format,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt.apply(&s)
	}

	return &s, nil
}

// Append writes the record to the end of the log and syncs it.  It returns
// the number of bytes written.
func (s *Session) Append(rec []byte) (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	if s.faulted != nil {
		return 0, fmt.Errorf("%w: %v", ErrSessionFaulted, s.faulted)
	}

	n, err := s.file.Write(rec)
	s.offset += int64(n)

	if err == nil && n < len(rec) {
		err = fmt.Errorf("short write %d of %d bytes", n, len(rec))
	}
	if err == nil {
		err = s.file.Sync()
	}

	if err != nil {
		s.faulted = err
		s.logger.Error("log session faulted",
			zap.String("file", s.file.Name()),
			zap.Int64("offset", s.offset),
			zap.Int("written", n),
			zap.Int("requested", len(rec)),
			zap.Error(err))
		return n, fmt.Errorf("%w: %v", ErrWriteIncomplete, err)
	}

	return n, nil
}

// Close syncs and releases the log file.  Calling Close more than once is
// safe; only the first call does any work.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.faulted == nil {
		err = s.file.Sync()
	}
	if e := s.file.Close(); e != nil && err == nil {
		err = e
	}

	s.logger.Info("log session closed",
		zap.String("file", s.file.Name()),
		zap.Int64("offset", s.offset))

	return err
}

// Offset returns the number of bytes written to the file, including any
// starting offset.
func (s *Session) Offset() int64 {
	return s.offset
}

// Format returns the record format of the session.
func (s *Session) Format() record.Format {
	return s.format
}

// Name returns the name of the log file.
func (s *Session) Name() string {
	return s.file.Name()
}

// Faulted reports if a write has failed.
func (s *Session) Faulted() bool {
	return s.faulted != nil
}
