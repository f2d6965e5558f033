// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reader walks the records of a log file written in a single format.
type Reader struct {
	format Format
	src    *bufio.Reader
	offset int64
}

// NewReader creates a reader over src.
func NewReader(src io.Reader, f Format) *Reader {
	return &Reader{
		format: f,
		src:    bufio.NewReader(src),
	}
}

// Offset is the number of bytes consumed by complete records so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Next returns the next measurement.  io.EOF is returned at a clean end of
// the log.  A partially written final record, the signature of a power loss
// during an append, is reported as ErrTruncated.
func (r *Reader) Next() (Measurement, error) {
	switch r.format {
	case CSV:
		return r.nextCSV()
	case Binary:
		return r.nextBinary()
	}
	return Measurement{}, fmt.Errorf("%w: %d", ErrUnknownFormat, int(r.format))
}

func (r *Reader) nextCSV() (Measurement, error) {
	line, err := r.src.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return Measurement{}, io.EOF
			}
			return Measurement{}, fmt.Errorf("%w: %d bytes at offset %d", ErrTruncated, len(line), r.offset)
		}
		return Measurement{}, err
	}

	m, err := parseRow(strings.Split(strings.TrimRight(line, "\r\n"), ","))
	if err != nil {
		return Measurement{}, fmt.Errorf("offset %d: %w", r.offset, err)
	}
	r.offset += int64(len(line))

	return m, nil
}

func (r *Reader) nextBinary() (Measurement, error) {
	id, err := r.src.Peek(1)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Measurement{}, io.EOF
		}
		return Measurement{}, err
	}

	k, ok := kindByID[id[0]]
	if !ok {
		return Measurement{}, fmt.Errorf("%w: type id %d at offset %d", ErrUnknownKind, id[0], r.offset)
	}

	buf := make([]byte, k.Size())
	n, err := io.ReadFull(r.src, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Measurement{}, fmt.Errorf("%w: %d of %d bytes at offset %d", ErrTruncated, n, k.Size(), r.offset)
		}
		return Measurement{}, err
	}

	m, err := DecodeBinary(buf)
	if err != nil {
		return Measurement{}, err
	}
	r.offset += int64(n)

	return m, nil
}

// ReadAll returns every complete measurement.  A truncated tail is returned
// along with the measurements that preceded it.
func (r *Reader) ReadAll() ([]Measurement, error) {
	var list []Measurement
	for {
		m, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return list, nil
			}
			return list, err
		}
		list = append(list, m)
	}
}
