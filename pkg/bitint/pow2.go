// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-2 helpers for FFT and buffer sizing.

All functions are constant time and allocation free, so they may be used from
the audio callback.

	size := bitint.NextPowerOfTwo(frames) // 1000 -> 1024
	ok := bitint.IsPowerOfTwo(size)

NextPowerOfTwo subtracts one before finding the highest set bit so that exact
powers of 2 map to themselves: 8-1 = 0b0111, bits.Len = 3, 1<<3 = 8.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Sizes <= 0 return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
