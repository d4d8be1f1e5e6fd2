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

// In-place mutation. These methods change the receiver's lanes and never
// its width, so a loop can peel lanes off one mask without copying it:
//
//	for m.Any() {
//	    lane := m.FindLow()
//	    process(lane)
//	    m.ResetLow()
//	}

// Flip complements every lane.
func (m *Mask) Flip() {
	m.bits = m.bits.not().and(lowOnes(m.width))
}

// FlipBit complements lane i.
func (m *Mask) FlipBit(i int) {
	m.checkIndex("Mask.FlipBit", i)
	m.bits.flip(i)
}

// Set sets every lane.
func (m *Mask) Set() {
	m.bits = lowOnes(m.width)
}

// SetBit sets lane i.
func (m *Mask) SetBit(i int) {
	m.checkIndex("Mask.SetBit", i)
	m.bits.set(i)
}

// Reset clears every lane.
func (m *Mask) Reset() {
	m.bits = words{}
}

// ResetBit clears lane i.
func (m *Mask) ResetBit(i int) {
	m.checkIndex("Mask.ResetBit", i)
	m.bits.clear(i)
}

// ResetHigh clears the highest set lane. It does nothing on an empty mask.
func (m *Mask) ResetHigh() {
	if i := m.bits.highest(); i != NotFound {
		m.bits.clear(i)
	}
}

// ResetLow clears the lowest set lane. It does nothing on an empty mask.
func (m *Mask) ResetLow() {
	for i, x := range m.bits {
		if x != 0 {
			m.bits[i] = x & (x - 1)
			return
		}
	}
}
