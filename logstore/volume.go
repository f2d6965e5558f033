// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/schmidtw/sdlogger/units"
)

var (
	ErrNotMounted  = errors.New("volume not mounted")
	ErrVolumeFull  = errors.New("volume full")
	ErrInvalidName = errors.New("invalid file name")
	ErrInvalidSize = errors.New("invalid file size")
)

// File is an open, append only log file.
type File interface {
	io.Writer

	// Sync forces written data onto durable storage.
	Sync() error

	Close() error

	// Name returns the name of the file relative to the volume.
	Name() string

	// Size returns the current length of the file.
	Size() (int64, error)
}

// Volume is the storage driver the store works against.
type Volume interface {
	// Mount makes the volume ready for use.  It is safe to call more than once.
	Mount() error

	// Exists reports if the named file is present on the volume.
	Exists(name string) (bool, error)

	// OpenAppend opens or creates the named file for appending.
	OpenAppend(name string) (File, error)

	// Open opens the named file for reading.
	Open(name string) (io.ReadCloser, error)

	// Truncate shortens the named file to size bytes.
	Truncate(name string, size int64) error
}

// DirVolume is a Volume backed by a directory, normally the mount point of
// the removable card.
type DirVolume struct {
	// Root is the directory holding the log files.
	Root string

	// Capacity limits how many bytes may be stored in Root.  Zero means the
	// only limit is the underlying filesystem.
	Capacity units.ByteSize

	m       sync.Mutex
	mounted bool
	used    units.ByteSize
}

func (v *DirVolume) Mount() error {
	v.m.Lock()
	defer v.m.Unlock()

	if v.mounted {
		return nil
	}

	fi, err := os.Stat(v.Root)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: '%s' is not a directory", ErrNotMounted, v.Root)
	}

	var used int64
	err = filepath.WalkDir(v.Root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			used += info.Size()
		}
		return nil
	})
	if err != nil {
		return err
	}

	v.used = units.ByteSize(used)
	v.mounted = true
	return nil
}

func (v *DirVolume) path(name string) (string, error) {
	if !v.mounted {
		return "", ErrNotMounted
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidName, name)
	}
	return filepath.Join(v.Root, name), nil
}

func (v *DirVolume) Exists(name string) (bool, error) {
	v.m.Lock()
	defer v.m.Unlock()

	p, err := v.path(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (v *DirVolume) OpenAppend(name string) (File, error) {
	v.m.Lock()
	defer v.m.Unlock()

	p, err := v.path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	return &dirFile{
		name: name,
		f:    f,
		vol:  v,
	}, nil
}

func (v *DirVolume) Open(name string) (io.ReadCloser, error) {
	v.m.Lock()
	defer v.m.Unlock()

	p, err := v.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (v *DirVolume) Truncate(name string, size int64) error {
	v.m.Lock()
	defer v.m.Unlock()

	p, err := v.path(name)
	if err != nil {
		return err
	}

	fi, err := os.Stat(p)
	if err != nil {
		return err
	}
	if size < 0 || size > fi.Size() {
		return fmt.Errorf("%w: '%s' is %d bytes, not truncating to %d", ErrInvalidSize, name, fi.Size(), size)
	}

	if err := os.Truncate(p, size); err != nil {
		return err
	}

	v.used -= units.ByteSize(fi.Size() - size)
	return nil
}

// reserve claims up to n bytes of the remaining capacity.
func (v *DirVolume) reserve(n int) int {
	v.m.Lock()
	defer v.m.Unlock()

	if v.Capacity <= 0 {
		v.used += units.ByteSize(n)
		return n
	}

	free := int64(v.Capacity - v.used)
	if free < 0 {
		free = 0
	}
	if int64(n) > free {
		n = int(free)
	}
	v.used += units.ByteSize(n)
	return n
}

func (v *DirVolume) release(n int) {
	v.m.Lock()
	defer v.m.Unlock()
	v.used -= units.ByteSize(n)
}

type dirFile struct {
	name string
	f    *os.File
	vol  *DirVolume
}

func (f *dirFile) Name() string {
	return f.name
}

// Write stores as much of p as the volume has room for.  When the volume
// fills, the short count is returned along with ErrVolumeFull.
func (f *dirFile) Write(p []byte) (int, error) {
	allowed := f.vol.reserve(len(p))

	n, err := f.f.Write(p[:allowed])
	if n < allowed {
		f.vol.release(allowed - n)
	}
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, ErrVolumeFull
	}
	return n, nil
}

func (f *dirFile) Size() (int64, error) {
	fi, err := f.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (f *dirFile) Sync() error {
	return f.f.Sync()
}

func (f *dirFile) Close() error {
	return f.f.Close()
}
