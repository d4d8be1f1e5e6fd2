// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package oracle is a slow, obviously-correct model of subgroup.Mask used to
// check the real implementation bit for bit.
//
// Every operation is a plain loop over a []bool; nothing here packs bits
// into words, so a bug in the word arithmetic of subgroup cannot hide in
// the reference as well.
package oracle

import (
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/go-subgroup/subgroup"
)

// Ref is a reference mask: lane i is Ref[i].
type Ref []bool

// FromMask copies m into a Ref.
func FromMask(m subgroup.Mask) Ref {
	return Ref(m.Bools())
}

// Ballot returns the Ref a sub-group of width lanes produces when lane i
// supplies pred(i).
func Ballot(width int, pred func(lane int) bool) Ref {
	return Ref(lo.Times(width, pred))
}

func (r Ref) clone() Ref {
	return append(Ref(nil), r...)
}

// Width returns the number of lanes.
func (r Ref) Width() int { return len(r) }

// Count returns the number of set lanes.
func (r Ref) Count() int { return lo.Count(r, true) }

// Any reports whether some lane is set.
func (r Ref) Any() bool { return lo.Contains(r, true) }

// None reports whether no lane is set.
func (r Ref) None() bool { return !r.Any() }

// All reports whether every lane is set.
func (r Ref) All() bool { return lo.EveryBy(r, func(b bool) bool { return b }) }

// FindLow returns the lowest set lane or subgroup.NotFound.
func (r Ref) FindLow() int {
	for i, b := range r {
		if b {
			return i
		}
	}
	return subgroup.NotFound
}

// FindHigh returns the highest set lane or subgroup.NotFound.
func (r Ref) FindHigh() int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] {
			return i
		}
	}
	return subgroup.NotFound
}

// And returns the lane-wise conjunction.
func (r Ref) And(o Ref) Ref {
	return lo.Map(r, func(b bool, i int) bool { return b && o[i] })
}

// Or returns the lane-wise disjunction.
func (r Ref) Or(o Ref) Ref {
	return lo.Map(r, func(b bool, i int) bool { return b || o[i] })
}

// Xor returns the lane-wise exclusive or.
func (r Ref) Xor(o Ref) Ref {
	return lo.Map(r, func(b bool, i int) bool { return b != o[i] })
}

// AndNot returns lanes set in r and clear in o.
func (r Ref) AndNot(o Ref) Ref {
	return lo.Map(r, func(b bool, i int) bool { return b && !o[i] })
}

// Not returns the complement.
func (r Ref) Not() Ref {
	return lo.Map(r, func(b bool, _ int) bool { return !b })
}

// Shl moves lane i to lane i+k, dropping lanes that leave the width.
func (r Ref) Shl(k int) Ref {
	out := make(Ref, len(r))
	for i := range r {
		if j := i + k; j < len(r) && r[i] {
			out[j] = true
		}
	}
	return out
}

// Shr moves lane i to lane i-k, dropping lanes that leave the width.
func (r Ref) Shr(k int) Ref {
	out := make(Ref, len(r))
	for i := range r {
		if j := i - k; j >= 0 && r[i] {
			out[j] = true
		}
	}
	return out
}

// Flip returns the complement; the Ref form of Mask.Flip.
func (r Ref) Flip() Ref { return r.Not() }

// FlipBit returns r with lane i complemented.
func (r Ref) FlipBit(i int) Ref {
	out := r.clone()
	out[i] = !out[i]
	return out
}

// Set returns a Ref of the same width with every lane set.
func (r Ref) Set() Ref { return Ref(lo.Times(len(r), func(int) bool { return true })) }

// SetBit returns r with lane i set.
func (r Ref) SetBit(i int) Ref {
	out := r.clone()
	out[i] = true
	return out
}

// Reset returns a Ref of the same width with every lane clear.
func (r Ref) Reset() Ref { return make(Ref, len(r)) }

// ResetBit returns r with lane i clear.
func (r Ref) ResetBit(i int) Ref {
	out := r.clone()
	out[i] = false
	return out
}

// ResetHigh returns r without its highest set lane.
func (r Ref) ResetHigh() Ref {
	if i := r.FindHigh(); i != subgroup.NotFound {
		return r.ResetBit(i)
	}
	return r.clone()
}

// ResetLow returns r without its lowest set lane.
func (r Ref) ResetLow() Ref {
	if i := r.FindLow(); i != subgroup.NotFound {
		return r.ResetBit(i)
	}
	return r.clone()
}

// String renders one character per lane, lane 0 first, like Mask.String.
func (r Ref) String() string {
	var sb strings.Builder
	for _, b := range r {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
