// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package units

import "fmt"

// ByteRate is a throughput stored as a float64 in bytes per minute, the
// natural scale for a logger sampling every few seconds.
type ByteRate float64

// PerSecond returns the rate in bytes per second.
func (r ByteRate) PerSecond() float64 {
	return float64(r) / 60.0
}

// String returns the rate formatted in bytes per minute.
func (r ByteRate) String() string {
	return fmt.Sprintf("%.3fB/min", float64(r))
}
