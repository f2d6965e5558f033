// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"bytes"
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func must[T any](t T, err error) T {
	if err != nil {
		panic(err)
	}
	return t
}

var csvGrammar = regexp.MustCompile(`^[a-z]+,[0-9]+(,-?[0-9]+\.[0-9]{4}){1,3}\n$`)

func samples() []Measurement {
	return []Measurement{
		must(New(Temperature, 0, 21.5)),
		must(New(Luminosity, 1500, 312.25)),
		must(New(UVLight, 3000, 0.0625)),
		must(New(Acceleration, 10000, 0.01, -9.81, 0.5)),
		must(New(Magnetic, 4294967295, -23.75, 12.125, 41.0)),
		must(New(Gyro, 42, 1.2345, -0.0001, 250.0)),
	}
}

func TestEncodeCSV(t *testing.T) {
	tests := []struct {
		description string
		in          Measurement
		expect      string
	}{
		{
			description: "temperature",
			in:          must(New(Temperature, 1234, 21.5)),
			expect:      "temp,1234,21.5000\n",
		}, {
			description: "accelerometer",
			in:          must(New(Acceleration, 10000, 0.01, -9.81, 0.5)),
			expect:      "accelerometer,10000,0.0100,-9.8100,0.5000\n",
		}, {
			description: "uv light",
			in:          must(New(UVLight, 7, 3)),
			expect:      "uv,7,3.0000\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			b, err := Encode(tc.in, CSV)
			assert.NoError(err)
			assert.Equal(tc.expect, string(b))
			assert.Regexp(csvGrammar, string(b))
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	for _, m := range samples() {
		t.Run(m.Kind.String(), func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			b, err := Encode(m, CSV)
			require.NoError(err)
			assert.Regexp(csvGrammar, string(b))

			got, err := ParseCSV(string(b))
			require.NoError(err)

			assert.Equal(m.Kind, got.Kind)
			assert.Equal(m.Kind.Label(), got.Kind.Label())
			assert.Equal(m.Timestamp, got.Timestamp)
			for i, v := range m.Values() {
				assert.InDelta(v, got.Fields[i], 0.5e-4)
			}
		})
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, m := range samples() {
		t.Run(m.Kind.String(), func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			b, err := Encode(m, Binary)
			require.NoError(err)
			assert.Len(b, m.Kind.Size())
			assert.Equal(m.Kind.ID(), b[0])

			got, err := DecodeBinary(b)
			require.NoError(err)
			assert.Equal(m, got)
			for i, v := range m.Values() {
				assert.Equal(math.Float32bits(v), math.Float32bits(got.Fields[i]))
			}
		})
	}
}

func TestBinaryLayout(t *testing.T) {
	assert := assert.New(t)

	b, err := EncodeBinary(must(New(Temperature, 0x01020304, 1.0)))
	assert.NoError(err)
	assert.Equal([]byte{
		0x01,                   // id
		0x04, 0x03, 0x02, 0x01, // timestamp
		0x00, 0x00, 0x80, 0x3f, // 1.0
	}, b)

	sizes := map[Kind]int{
		Temperature:  9,
		Luminosity:   9,
		UVLight:      9,
		Acceleration: 17,
		Magnetic:     17,
		Gyro:         17,
	}
	for k, size := range sizes {
		assert.Equal(size, k.Size(), k.String())
	}
}

func TestStableIDs(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint8(1), Temperature.ID())
	assert.Equal(uint8(2), Luminosity.ID())
	assert.Equal(uint8(3), UVLight.ID())
	assert.Equal(uint8(4), Acceleration.ID())
	assert.Equal(uint8(5), Magnetic.ID())
	assert.Equal(uint8(6), Gyro.ID())
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		description string
		in          Measurement
		format      Format
		expectErr   error
	}{
		{
			description: "unknown kind csv",
			in:          Measurement{Kind: Kind(99)},
			format:      CSV,
			expectErr:   ErrUnknownKind,
		}, {
			description: "unknown kind binary",
			in:          Measurement{Kind: Kind(0)},
			format:      Binary,
			expectErr:   ErrUnknownKind,
		}, {
			description: "unknown format",
			in:          must(New(Temperature, 0, 1)),
			format:      Format(7),
			expectErr:   ErrUnknownFormat,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			b, err := Encode(tc.in, tc.format)
			assert.ErrorIs(err, tc.expectErr)
			assert.Nil(b)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		description string
		in          []byte
		expectErr   error
	}{
		{
			description: "empty",
			expectErr:   ErrTruncated,
		}, {
			description: "unknown id",
			in:          []byte{0x7f, 0, 0, 0, 0, 0, 0, 0, 0},
			expectErr:   ErrUnknownKind,
		}, {
			description: "short vector",
			in:          []byte{0x04, 0, 0, 0, 0, 0, 0, 0, 0},
			expectErr:   ErrTruncated,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			_, err := DecodeBinary(tc.in)
			assert.ErrorIs(t, err, tc.expectErr)
		})
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		in        string
		expectErr error
	}{
		{in: "temp,12\n", expectErr: ErrMalformed},
		{in: "pressure,12,1.0\n", expectErr: ErrUnknownKind},
		{in: "temp,12,1.0,2.0\n", expectErr: ErrMalformed},
		{in: "temp,-1,1.0\n", expectErr: ErrMalformed},
		{in: "temp,12,warm\n", expectErr: ErrMalformed},
		{in: "", expectErr: ErrMalformed},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			_, err := ParseCSV(tc.in)
			assert.ErrorIs(t, err, tc.expectErr)
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in        string
		expect    Format
		ext       string
		expectErr error
	}{
		{in: "csv", expect: CSV, ext: "CSV"},
		{in: "CSV", expect: CSV, ext: "CSV"},
		{in: "binary", expect: Binary, ext: "BIN"},
		{in: " bin ", expect: Binary, ext: "BIN"},
		{in: "json", expectErr: ErrUnknownFormat},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert := assert.New(t)

			f, err := ParseFormat(tc.in)
			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, f)
			assert.Equal(tc.ext, f.Extension())
		})
	}
}

func TestParseKind(t *testing.T) {
	assert := assert.New(t)

	for _, k := range Kinds() {
		got, err := ParseKind(k.Label())
		assert.NoError(err)
		assert.Equal(k, got)

		got, err = ParseKind(k.String())
		assert.NoError(err)
		assert.Equal(k, got)
	}

	_, err := ParseKind("barometer")
	assert.ErrorIs(err, ErrUnknownKind)
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	m, err := New(Temperature, 5, 1, 2, 3)
	assert.NoError(err)
	assert.Equal(Fields{1, 0, 0}, m.Fields)

	_, err = New(Gyro, 5, 1)
	assert.ErrorIs(err, ErrMalformed)

	_, err = New(Kind(42), 5, 1)
	assert.ErrorIs(err, ErrUnknownKind)
}

func TestEncodeIsPure(t *testing.T) {
	assert := assert.New(t)

	m := must(New(Magnetic, 99, 1, 2, 3))
	a := must(Encode(m, Binary))
	b := must(Encode(m, Binary))
	assert.True(bytes.Equal(a, b))
}
