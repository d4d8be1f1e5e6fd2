// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package subgroup

import "math/bits"

// This file holds the raw bit storage behind Mask. It knows nothing about
// widths; Mask is responsible for keeping bits at and above its width clear.

const (
	wordBits = 64

	// MaxWidth is the widest sub-group a Mask can describe.
	MaxWidth = 128

	numWords = MaxWidth / wordBits
)

// words is a fixed-capacity little-endian bit vector: bit i lives in
// words[i/64] at position i%64.
type words [numWords]uint64

func (w *words) test(i int) bool {
	return w[i>>6]&(1<<(uint(i)&63)) != 0
}

func (w *words) set(i int) {
	w[i>>6] |= 1 << (uint(i) & 63)
}

func (w *words) clear(i int) {
	w[i>>6] &^= 1 << (uint(i) & 63)
}

func (w *words) flip(i int) {
	w[i>>6] ^= 1 << (uint(i) & 63)
}

func (w words) and(o words) (r words) {
	for i := range w {
		r[i] = w[i] & o[i]
	}
	return r
}

func (w words) or(o words) (r words) {
	for i := range w {
		r[i] = w[i] | o[i]
	}
	return r
}

func (w words) xor(o words) (r words) {
	for i := range w {
		r[i] = w[i] ^ o[i]
	}
	return r
}

func (w words) andNot(o words) (r words) {
	for i := range w {
		r[i] = w[i] &^ o[i]
	}
	return r
}

func (w words) not() (r words) {
	for i := range w {
		r[i] = ^w[i]
	}
	return r
}

// shl moves every bit k positions up. Bits pushed past MaxWidth are lost.
func (w words) shl(k int) (r words) {
	if k >= MaxWidth {
		return r
	}
	ws, bs := k>>6, uint(k)&63
	for i := numWords - 1; i >= ws; i-- {
		v := w[i-ws] << bs
		if bs != 0 && i-ws-1 >= 0 {
			v |= w[i-ws-1] >> (wordBits - bs)
		}
		r[i] = v
	}
	return r
}

// shr moves every bit k positions down. Bits pushed below 0 are lost.
func (w words) shr(k int) (r words) {
	if k >= MaxWidth {
		return r
	}
	ws, bs := k>>6, uint(k)&63
	for i := 0; i < numWords-ws; i++ {
		v := w[i+ws] >> bs
		if bs != 0 && i+ws+1 < numWords {
			v |= w[i+ws+1] << (wordBits - bs)
		}
		r[i] = v
	}
	return r
}

func (w words) popcount() int {
	n := 0
	for _, x := range w {
		n += bits.OnesCount64(x)
	}
	return n
}

func (w words) isZero() bool {
	for _, x := range w {
		if x != 0 {
			return false
		}
	}
	return true
}

// lowest returns the index of the lowest set bit, or -1.
func (w words) lowest() int {
	for i, x := range w {
		if x != 0 {
			return i<<6 + bits.TrailingZeros64(x)
		}
	}
	return -1
}

// highest returns the index of the highest set bit, or -1.
func (w words) highest() int {
	for i := numWords - 1; i >= 0; i-- {
		if x := w[i]; x != 0 {
			return i<<6 + bits.Len64(x) - 1
		}
	}
	return -1
}

// lowOnes returns storage with bits [0, n) set.
func lowOnes(n int) (r words) {
	for i := range r {
		switch lo := i << 6; {
		case n >= lo+wordBits:
			r[i] = ^uint64(0)
		case n > lo:
			r[i] = 1<<uint(n-lo) - 1
		}
	}
	return r
}
