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

import "github.com/bits-and-blooms/bitset"

// BitSet returns the set lanes as a bitset of length Width.
func (m Mask) BitSet() *bitset.BitSet {
	return bitset.FromWithLength(uint(m.width), m.Words())
}

// FromBitSet returns a mask of the given width whose lane i is b.Test(i).
// Bits of b at or above width are dropped. A nil b is the empty mask.
func FromBitSet(width int, b *bitset.BitSet) Mask {
	if b == nil {
		return NewMask(width)
	}
	return FromWords(width, b.Words())
}
