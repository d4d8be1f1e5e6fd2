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

import "github.com/ajroetker/go-subgroup/internal/assert"

// Boolean algebra over masks. Every operation returns a new Mask of the
// operands' width and leaves the operands unchanged.

func (m Mask) checkSameWidth(op string, o Mask) {
	if assert.Enabled && m.width != o.width {
		assert.Fail(assert.WidthMismatch, op, "widths %d and %d", m.width, o.width)
	}
}

// And returns the lanes set in both m and o.
func (m Mask) And(o Mask) Mask {
	m.checkSameWidth("Mask.And", o)
	return Mask{bits: m.bits.and(o.bits), width: m.width}
}

// Or returns the lanes set in m or o.
func (m Mask) Or(o Mask) Mask {
	m.checkSameWidth("Mask.Or", o)
	return Mask{bits: m.bits.or(o.bits).and(lowOnes(m.width)), width: m.width}
}

// Xor returns the lanes set in exactly one of m and o.
func (m Mask) Xor(o Mask) Mask {
	m.checkSameWidth("Mask.Xor", o)
	return Mask{bits: m.bits.xor(o.bits).and(lowOnes(m.width)), width: m.width}
}

// AndNot returns the lanes set in m and clear in o.
func (m Mask) AndNot(o Mask) Mask {
	m.checkSameWidth("Mask.AndNot", o)
	return Mask{bits: m.bits.andNot(o.bits), width: m.width}
}

// Not returns the complement of m over its width.
func (m Mask) Not() Mask {
	return Mask{bits: m.bits.not().and(lowOnes(m.width)), width: m.width}
}

// Shl returns m with every lane moved k positions towards higher lane ids.
// Lanes moved past the width are dropped and lanes shifted in are clear;
// k >= width yields the empty mask.
func (m Mask) Shl(k int) Mask {
	m.checkShift("Mask.Shl", k)
	if k >= m.width {
		return Mask{width: m.width}
	}
	return Mask{bits: m.bits.shl(k).and(lowOnes(m.width)), width: m.width}
}

// Shr returns m with every lane moved k positions towards lane 0.
// Lanes moved below 0 are dropped and lanes shifted in are clear;
// k >= width yields the empty mask.
func (m Mask) Shr(k int) Mask {
	m.checkShift("Mask.Shr", k)
	if k >= m.width {
		return Mask{width: m.width}
	}
	return Mask{bits: m.bits.shr(k), width: m.width}
}

func (m Mask) checkShift(op string, k int) {
	assert.That(k >= 0, assert.NegativeShift, op, "shift by %d", k)
}
