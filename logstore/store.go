// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/schmidtw/sdlogger/record"
	"go.uber.org/zap"
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNoFreeName         = errors.New("no free file name")
	errUnknownAllocation  = errors.New("unknown allocation policy")
)

// MaxPrefixLen is the longest prefix kept, leaving room for the suffix in
// an 8.3 file name.
const MaxPrefixLen = 7

// Allocation decides which file name a new log is written to.
type Allocation int

const (
	// Probe uses the first of <prefix>0, <prefix>1, ... that does not exist.
	Probe Allocation = iota

	// Reuse always uses <prefix>0 and appends to it if it already exists.  A
	// partially written last record left by a power loss is trimmed first.
	Reuse
)

// ParseAllocation converts the configuration value into an Allocation.  An
// empty string selects Probe.
func ParseAllocation(s string) (Allocation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "probe":
		return Probe, nil
	case "reuse":
		return Reuse, nil
	}
	return 0, fmt.Errorf("%w: '%s' valid: probe, reuse", errUnknownAllocation, s)
}

// Config configures the Store.
type Config struct {
	// Allocation is either "probe" (default) or "reuse".
	Allocation string

	// MaxSuffix is the largest numeric suffix tried when probing.  The
	// default is 999.
	MaxSuffix int
}

// Store resolves log file names on a volume and opens them.
type Store struct {
	vol        Volume
	allocation Allocation
	maxSuffix  int
	logger     *zap.Logger
}

// Option configures a Store.
type Option interface {
	apply(*Store)
}

type optionFunc func(*Store)

func (f optionFunc) apply(s *Store) {
	f(s)
}

// WithLogger sets the logger used by the store.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(s *Store) {
		if l != nil {
			s.logger = l
		}
	})
}

// New creates a Store on the volume.
func New(vol Volume, cfg Config, opts ...Option) (*Store, error) {
	if vol == nil {
		return nil, fmt.Errorf("%w: no volume", ErrStorageUnavailable)
	}

	alloc, err := ParseAllocation(cfg.Allocation)
	if err != nil {
		return nil, err
	}

	if cfg.MaxSuffix < 1 {
		cfg.MaxSuffix = 999
	}

	s := Store{
		vol:        vol,
		allocation: alloc,
		maxSuffix:  cfg.MaxSuffix,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt.apply(&s)
	}

	return &s, nil
}

// Name builds the file name for a prefix, numeric suffix and format.  The
// prefix is silently truncated to MaxPrefixLen characters.
func Name(prefix string, suffix int, f record.Format) string {
	r := []rune(prefix)
	if len(r) > MaxPrefixLen {
		r = r[:MaxPrefixLen]
	}
	return string(r) + strconv.Itoa(suffix) + "." + f.Extension()
}

// Open resolves the log file name for the prefix and format and opens it
// for appending.  Complete records already in the file are never removed.
func (s *Store) Open(prefix string, f record.Format) (File, error) {
	if f.Extension() == "" {
		return nil, fmt.Errorf("%w: %d", record.ErrUnknownFormat, int(f))
	}

	if err := s.vol.Mount(); err != nil {
		return nil, fmt.Errorf("%w: mount: %v", ErrStorageUnavailable, err)
	}

	name, err := s.allocate(prefix, f)
	if err != nil {
		return nil, err
	}

	if s.allocation == Reuse {
		if err := s.trimTail(name, f); err != nil {
			return nil, err
		}
	}

	file, err := s.vol.OpenAppend(name)
	if err != nil {
		return nil, fmt.Errorf("%w: open '%s': %v", ErrStorageUnavailable, name, err)
	}

	s.logger.Info("log file opened",
		zap.String("name", name),
		zap.Stringer("format", f))

	return file, nil
}

func (s *Store) allocate(prefix string, f record.Format) (string, error) {
	if s.allocation == Reuse {
		return Name(prefix, 0, f), nil
	}

	for i := 0; i <= s.maxSuffix; i++ {
		name := Name(prefix, i, f)
		exists, err := s.vol.Exists(name)
		if err != nil {
			return "", fmt.Errorf("%w: probing '%s': %v", ErrStorageUnavailable, name, err)
		}
		if !exists {
			return name, nil
		}
		s.logger.Debug("log file name in use", zap.String("name", name))
	}

	return "", fmt.Errorf("%w: %w: '%s' through '%s'", ErrStorageUnavailable, ErrNoFreeName,
		Name(prefix, 0, f), Name(prefix, s.maxSuffix, f))
}

// trimTail cuts an existing file back to its last complete record so new
// records are not joined onto a damaged one.
func (s *Store) trimTail(name string, f record.Format) error {
	exists, err := s.vol.Exists(name)
	if err != nil {
		return fmt.Errorf("%w: probing '%s': %v", ErrStorageUnavailable, name, err)
	}
	if !exists {
		return nil
	}

	rc, err := s.vol.Open(name)
	if err != nil {
		return fmt.Errorf("%w: reading '%s': %v", ErrStorageUnavailable, name, err)
	}
	defer rc.Close()

	r := record.NewReader(rc, f)
	for {
		_, err := r.Next()
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, record.ErrTruncated):
			s.logger.Warn("trimming incomplete record",
				zap.String("name", name),
				zap.Int64("offset", r.Offset()))
			if err := s.vol.Truncate(name, r.Offset()); err != nil {
				return fmt.Errorf("%w: trimming '%s': %v", ErrStorageUnavailable, name, err)
			}
			return nil
		case errors.Is(err, record.ErrMalformed), errors.Is(err, record.ErrUnknownKind):
			// Damage before the end can't be repaired by trimming.
			s.logger.Warn("existing log file is damaged",
				zap.String("name", name),
				zap.Int64("offset", r.Offset()),
				zap.Error(err))
			return nil
		default:
			return fmt.Errorf("%w: reading '%s': %v", ErrStorageUnavailable, name, err)
		}
	}
}
