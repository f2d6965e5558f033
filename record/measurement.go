// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind   = errors.New("unknown measurement kind")
	ErrUnknownFormat = errors.New("unknown record format")
	ErrTruncated     = errors.New("truncated record")
	ErrMalformed     = errors.New("malformed record")
)

// Kind identifies the sensor a Measurement came from.
type Kind int

const (
	Temperature Kind = iota + 1
	Luminosity
	UVLight
	Acceleration
	Magnetic
	Gyro
)

// Fields holds the floating point values of a Measurement.  Scalar kinds only
// use the first element.
type Fields [3]float32

// Measurement is one timestamped sensor reading.
type Measurement struct {
	Kind Kind

	// Timestamp is the number of milliseconds since boot.  It wraps after
	// roughly 49.7 days.
	Timestamp uint32

	Fields Fields
}

type kindInfo struct {
	id     uint8
	label  string
	fields int
}

// The ids are part of the binary file format and must never be renumbered.
var kinds = map[Kind]kindInfo{
	Temperature:  {id: 1, label: "temp", fields: 1},
	Luminosity:   {id: 2, label: "light", fields: 1},
	UVLight:      {id: 3, label: "uv", fields: 1},
	Acceleration: {id: 4, label: "accelerometer", fields: 3},
	Magnetic:     {id: 5, label: "magnetometer", fields: 3},
	Gyro:         {id: 6, label: "gyroscope", fields: 3},
}

var (
	kindByID    = make(map[uint8]Kind, len(kinds))
	kindByLabel = make(map[string]Kind, len(kinds))
)

func init() {
	for k, v := range kinds {
		kindByID[v.id] = k
		kindByLabel[v.label] = k
	}
}

// Kinds returns every supported kind in id order.
func Kinds() []Kind {
	return []Kind{Temperature, Luminosity, UVLight, Acceleration, Magnetic, Gyro}
}

// ParseKind accepts either the CSV label ("temp") or the Go name
// ("temperature") of a kind, case insensitive.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if k, ok := kindByLabel[s]; ok {
		return k, nil
	}
	for _, k := range Kinds() {
		if strings.ToLower(k.String()) == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'", ErrUnknownKind, s)
}

// Valid reports if the kind is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// ID returns the stable binary type id of the kind.
func (k Kind) ID() uint8 {
	return kinds[k].id
}

// Label returns the short CSV label of the kind.
func (k Kind) Label() string {
	return kinds[k].label
}

// FieldCount returns how many values a measurement of this kind carries.
func (k Kind) FieldCount() int {
	return kinds[k].fields
}

// Size returns the binary record size of the kind, or 0 for an unknown kind.
func (k Kind) Size() int {
	info, ok := kinds[k]
	if !ok {
		return 0
	}
	return binaryHeaderSize + 4*info.fields
}

func (k Kind) String() string {
	switch k {
	case Temperature:
		return "Temperature"
	case Luminosity:
		return "Luminosity"
	case UVLight:
		return "UVLight"
	case Acceleration:
		return "Acceleration"
	case Magnetic:
		return "Magnetic"
	case Gyro:
		return "Gyro"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// New builds a measurement, ignoring any values beyond what the kind uses.
func New(k Kind, ts uint32, values ...float32) (Measurement, error) {
	if !k.Valid() {
		return Measurement{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	if len(values) < k.FieldCount() {
		return Measurement{}, fmt.Errorf("%w: %s needs %d values, got %d",
			ErrMalformed, k, k.FieldCount(), len(values))
	}

	m := Measurement{
		Kind:      k,
		Timestamp: ts,
	}
	copy(m.Fields[:k.FieldCount()], values)

	return m, nil
}

// Values returns the used fields of the measurement.
func (m Measurement) Values() []float32 {
	return m.Fields[:m.Kind.FieldCount()]
}
