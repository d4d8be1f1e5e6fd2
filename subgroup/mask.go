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

import (
	"iter"
	"math/bits"
	"strings"

	"github.com/ajroetker/go-subgroup/internal/assert"
)

// NotFound is returned by FindLow and FindHigh when no lane is set.
// It is never a valid lane index.
const NotFound = -1

// Mask is a per-lane predicate for one sub-group: bit i belongs to the lane
// whose sub-group local id is i.
//
// A Mask has a fixed width, the size of the sub-group that produced it.
// Lanes at or above the width are never observable. Masks are values:
// assigning or passing a Mask copies it, and the boolean algebra methods
// return new masks. Flip, Set, Reset and their single-lane and
// ResetHigh/ResetLow variants mutate the receiver in place.
//
// Masks are normally produced by Lane.Ballot. The zero Mask has width 0 and
// is only useful as a placeholder.
type Mask struct {
	bits  words
	width int
}

// ValidWidth reports whether w is a supported sub-group width: a power of
// two in [1, MaxWidth].
func ValidWidth(w int) bool {
	return w >= 1 && w <= MaxWidth && bits.OnesCount(uint(w)) == 1
}

func checkWidth(op string, width int) {
	if assert.Enabled && !ValidWidth(width) {
		assert.Fail(assert.InvalidWidth, op, "width %d is not a power of two in [1, %d]", width, MaxWidth)
	}
}

// NewMask returns a mask of the given width with every lane clear.
func NewMask(width int) Mask {
	checkWidth("NewMask", width)
	return Mask{width: width}
}

// FullMask returns a mask of the given width with every lane set.
func FullMask(width int) Mask {
	checkWidth("FullMask", width)
	return Mask{bits: lowOnes(width), width: width}
}

// FirstN returns a mask with lanes [0, n) set. n is clamped to [0, width].
// This is the mask of the active lanes of a partially filled sub-group.
func FirstN(width, n int) Mask {
	checkWidth("FirstN", width)
	n = max(0, min(n, width))
	return Mask{bits: lowOnes(n), width: width}
}

// FromBools returns a mask whose width is len(b) and whose lane i is b[i].
func FromBools(b []bool) Mask {
	checkWidth("FromBools", len(b))
	m := Mask{width: len(b)}
	for i, v := range b {
		if v {
			m.bits.set(i)
		}
	}
	return m
}

// FromUint64 returns a mask whose lane i is bit i of v.
// Bits of v at or above width are dropped.
func FromUint64(width int, v uint64) Mask {
	checkWidth("FromUint64", width)
	m := Mask{width: width}
	m.bits[0] = v
	m.bits = m.bits.and(lowOnes(width))
	return m
}

// FromWords returns a mask whose lane i is bit i%64 of w[i/64].
// Bits at or above width, and words beyond MaxWidth, are dropped.
func FromWords(width int, w []uint64) Mask {
	checkWidth("FromWords", width)
	m := Mask{width: width}
	copy(m.bits[:], w)
	m.bits = m.bits.and(lowOnes(width))
	return m
}

// Width returns the number of lanes the mask describes.
func (m Mask) Width() int {
	return m.width
}

// Test reports whether lane i is set.
func (m Mask) Test(i int) bool {
	m.checkIndex("Mask.Test", i)
	return m.bits.test(i)
}

// Count returns the number of set lanes.
func (m Mask) Count() int {
	return m.bits.popcount()
}

// Any reports whether at least one lane is set.
func (m Mask) Any() bool {
	return !m.bits.isZero()
}

// None reports whether no lane is set.
func (m Mask) None() bool {
	return m.bits.isZero()
}

// All reports whether every lane is set.
func (m Mask) All() bool {
	return m.bits == lowOnes(m.width)
}

// FindLow returns the lowest set lane, or NotFound.
func (m Mask) FindLow() int {
	return m.bits.lowest()
}

// FindHigh returns the highest set lane, or NotFound.
func (m Mask) FindHigh() int {
	return m.bits.highest()
}

// Equal reports whether m and o have the same width and the same lanes set.
func (m Mask) Equal(o Mask) bool {
	return m.width == o.width && m.bits == o.bits
}

// Uint64 returns lanes [0, 64) packed into a word, lane i at bit i.
func (m Mask) Uint64() uint64 {
	return m.bits[0]
}

// Words returns the mask packed into ceil(width/64) words.
func (m Mask) Words() []uint64 {
	n := (m.width + wordBits - 1) / wordBits
	out := make([]uint64, n)
	copy(out, m.bits[:n])
	return out
}

// Bools returns one bool per lane.
func (m Mask) Bools() []bool {
	out := make([]bool, m.width)
	for i := range out {
		out[i] = m.bits.test(i)
	}
	return out
}

// Lanes yields the set lanes in ascending order.
func (m Mask) Lanes() iter.Seq[int] {
	return func(yield func(int) bool) {
		w := m.bits
		for i, x := range w {
			for x != 0 {
				if !yield(i<<6 + bits.TrailingZeros64(x)) {
					return
				}
				x &= x - 1
			}
		}
	}
}

// String renders the mask one character per lane, lane 0 first.
func (m Mask) String() string {
	var sb strings.Builder
	sb.Grow(m.width)
	for i := 0; i < m.width; i++ {
		if m.bits.test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (m *Mask) checkIndex(op string, i int) {
	if assert.Enabled && (i < 0 || i >= m.width) {
		assert.Fail(assert.IndexOutOfRange, op, "lane %d outside [0, %d)", i, m.width)
	}
}
