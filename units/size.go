// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kibibyte = 1024
	mebibyte = 1024 * kibibyte
	gibibyte = 1024 * mebibyte
)

// ByteSize is an amount of storage in bytes.
type ByteSize int64

// ParseByteSize converts strings like "512", "64KB", "32MiB" or "2G" into a
// ByteSize.  A bare number is a count of bytes.  Sizes are powers of 1024
// since they describe flash media.
func ParseByteSize(s string) (ByteSize, error) {
	list := []struct {
		suffix string
		size   int64
	}{
		{suffix: "kib", size: kibibyte},
		{suffix: "mib", size: mebibyte},
		{suffix: "gib", size: gibibyte},
		{suffix: "kb", size: kibibyte},
		{suffix: "mb", size: mebibyte},
		{suffix: "gb", size: gibibyte},
		{suffix: "k", size: kibibyte},
		{suffix: "m", size: mebibyte},
		{suffix: "g", size: gibibyte},
		{suffix: "b", size: 1},
		{suffix: "", size: 1},
	}

	lower := strings.ToLower(strings.TrimSpace(s))
	for _, unit := range list {
		if !strings.HasSuffix(lower, unit.suffix) {
			continue
		}

		num := strings.TrimSpace(lower[:len(lower)-len(unit.suffix)])
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}
		if n < 0 {
			return 0, fmt.Errorf("%w: '%s'", ErrNegativeSize, s)
		}
		return ByteSize(n * float64(unit.size)), nil
	}

	return 0, fmt.Errorf("%w: '%s' valid: B, KB, MB, GB", ErrInvalidUnit, s)
}

// UnmarshalText allows a ByteSize to be used directly in configuration.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// String returns the size using the largest unit that keeps the value >= 1.
func (b ByteSize) String() string {
	switch {
	case b >= gibibyte:
		return fmt.Sprintf("%.3fGiB", float64(b)/gibibyte)
	case b >= mebibyte:
		return fmt.Sprintf("%.3fMiB", float64(b)/mebibyte)
	case b >= kibibyte:
		return fmt.Sprintf("%.3fKiB", float64(b)/kibibyte)
	}
	return fmt.Sprintf("%dB", int64(b))
}
