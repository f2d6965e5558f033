// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format selects how measurements are written to a log file.
type Format int

const (
	CSV Format = iota + 1
	Binary
)

// Precision is the number of decimal digits written for CSV values.
const Precision = 4

// binaryHeaderSize is the type id (uint8) plus the timestamp (uint32).
const binaryHeaderSize = 1 + 4

// ParseFormat converts the configuration value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "text":
		return CSV, nil
	case "binary", "bin":
		return Binary, nil
	}
	return 0, fmt.Errorf("%w: '%s' valid: csv, binary", ErrUnknownFormat, s)
}

// Extension returns the file extension used for the format, without the dot.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return "CSV"
	case Binary:
		return "BIN"
	}
	return ""
}

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case Binary:
		return "binary"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Encode converts the measurement into a record of the requested format.
func Encode(m Measurement, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return EncodeCSV(m)
	case Binary:
		return EncodeBinary(m)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(f))
}

// EncodeCSV produces "<label>,<timestamp>,<field1>[,<field2>,<field3>]\n".
func EncodeCSV(m Measurement) ([]byte, error) {
	if !m.Kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(m.Kind))
	}

	row := make([]string, 0, 2+m.Kind.FieldCount())
	row = append(row, m.Kind.Label(), strconv.FormatUint(uint64(m.Timestamp), 10))
	for _, v := range m.Values() {
		row = append(row, strconv.FormatFloat(float64(v), 'f', Precision, 32))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(row); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// EncodeBinary produces the fixed layout record for the kind:
//
//	id:        uint8
//	timestamp: uint32   // little-endian
//	fields:    float32  // little-endian, FieldCount() of them
func EncodeBinary(m Measurement) ([]byte, error) {
	if !m.Kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(m.Kind))
	}

	b := make([]byte, m.Kind.Size())
	b[0] = m.Kind.ID()
	binary.LittleEndian.PutUint32(b[1:5], m.Timestamp)
	for i, v := range m.Values() {
		off := binaryHeaderSize + 4*i
		binary.LittleEndian.PutUint32(b[off:off+4], math.Float32bits(v))
	}

	return b, nil
}

// DecodeBinary reads exactly one binary record from the start of b.
func DecodeBinary(b []byte) (Measurement, error) {
	if len(b) < 1 {
		return Measurement{}, ErrTruncated
	}

	k, ok := kindByID[b[0]]
	if !ok {
		return Measurement{}, fmt.Errorf("%w: type id %d", ErrUnknownKind, b[0])
	}

	if len(b) < k.Size() {
		return Measurement{}, fmt.Errorf("%w: %s needs %d bytes, have %d",
			ErrTruncated, k, k.Size(), len(b))
	}

	m := Measurement{
		Kind:      k,
		Timestamp: binary.LittleEndian.Uint32(b[1:5]),
	}
	for i := 0; i < k.FieldCount(); i++ {
		off := binaryHeaderSize + 4*i
		m.Fields[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[off : off+4]))
	}

	return m, nil
}

// ParseCSV converts one CSV line (with or without the newline) back into a
// measurement.
func ParseCSV(line string) (Measurement, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	row, err := r.Read()
	if err != nil {
		return Measurement{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return parseRow(row)
}

func parseRow(row []string) (Measurement, error) {
	if len(row) < 3 {
		return Measurement{}, fmt.Errorf("%w: %d fields", ErrMalformed, len(row))
	}

	k, ok := kindByLabel[row[0]]
	if !ok {
		return Measurement{}, fmt.Errorf("%w: label '%s'", ErrUnknownKind, row[0])
	}
	if len(row) != 2+k.FieldCount() {
		return Measurement{}, fmt.Errorf("%w: %s expects %d fields, got %d",
			ErrMalformed, k, 2+k.FieldCount(), len(row))
	}

	ts, err := strconv.ParseUint(row[1], 10, 32)
	if err != nil {
		return Measurement{}, fmt.Errorf("%w: timestamp '%s' %v", ErrMalformed, row[1], err)
	}

	m := Measurement{
		Kind:      k,
		Timestamp: uint32(ts),
	}
	for i, s := range row[2:] {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Measurement{}, fmt.Errorf("%w: value '%s' %v", ErrMalformed, s, err)
		}
		m.Fields[i] = float32(v)
	}

	return m, nil
}
