// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package oracle

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/go-cmp/cmp"

	"github.com/ajroetker/go-subgroup/subgroup"
)

// Mismatch reports a Mask that disagrees with its reference.
type Mismatch struct {
	Op   string
	Got  string
	Want string
	Diff string
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("%s: got %s, want %s\n%s", m.Op, m.Got, m.Want, m.Diff)
}

// Compare checks got against want lane by lane. op names the operation in
// the returned *Mismatch.
func Compare(op string, got subgroup.Mask, want Ref) error {
	if got.Width() == want.Width() && FromMask(got).String() == want.String() {
		return nil
	}
	g := FromMask(got)
	return &Mismatch{
		Op:   op,
		Got:  g.String(),
		Want: want.String(),
		Diff: cmp.Diff([]bool(want), []bool(g)),
	}
}

// compareInt reports a scalar query that disagrees with its reference.
func compareInt(op string, got, want int) error {
	if got == want {
		return nil
	}
	return &Mismatch{Op: op, Got: fmt.Sprint(got), Want: fmt.Sprint(want), Diff: cmp.Diff(want, got)}
}

func compareBool(op string, got, want bool) error {
	if got == want {
		return nil
	}
	return &Mismatch{Op: op, Got: fmt.Sprint(got), Want: fmt.Sprint(want), Diff: cmp.Diff(want, got)}
}

// Verify runs every query, algebra and mutation operation of m (and of m
// combined with other, which must have the same width) against the
// reference model and returns every disagreement joined.
func Verify(m, other subgroup.Mask) error {
	r, o := FromMask(m), FromMask(other)
	w := m.Width()

	errs := []error{
		compareInt("Count", m.Count(), r.Count()),
		compareBool("Any", m.Any(), r.Any()),
		compareBool("None", m.None(), r.None()),
		compareBool("All", m.All(), r.All()),
		compareInt("FindLow", m.FindLow(), r.FindLow()),
		compareInt("FindHigh", m.FindHigh(), r.FindHigh()),
		compareBool("Equal", m.Equal(other), r.String() == o.String()),
		Compare("And", m.And(other), r.And(o)),
		Compare("Or", m.Or(other), r.Or(o)),
		Compare("Xor", m.Xor(other), r.Xor(o)),
		Compare("AndNot", m.AndNot(other), r.AndNot(o)),
		Compare("Not", m.Not(), r.Not()),
	}
	for k := 0; k <= w+1; k++ {
		errs = append(errs,
			Compare(fmt.Sprintf("Shl(%d)", k), m.Shl(k), r.Shl(k)),
			Compare(fmt.Sprintf("Shr(%d)", k), m.Shr(k), r.Shr(k)),
		)
	}

	mutate := func(op string, fn func(*subgroup.Mask), want Ref) {
		c := m
		fn(&c)
		errs = append(errs, Compare(op, c, want))
	}
	mutate("Flip", (*subgroup.Mask).Flip, r.Flip())
	mutate("Set", (*subgroup.Mask).Set, r.Set())
	mutate("Reset", (*subgroup.Mask).Reset, r.Reset())
	mutate("ResetHigh", (*subgroup.Mask).ResetHigh, r.ResetHigh())
	mutate("ResetLow", (*subgroup.Mask).ResetLow, r.ResetLow())
	for i := range w {
		mutate(fmt.Sprintf("FlipBit(%d)", i), func(c *subgroup.Mask) { c.FlipBit(i) }, r.FlipBit(i))
		mutate(fmt.Sprintf("SetBit(%d)", i), func(c *subgroup.Mask) { c.SetBit(i) }, r.SetBit(i))
		mutate(fmt.Sprintf("ResetBit(%d)", i), func(c *subgroup.Mask) { c.ResetBit(i) }, r.ResetBit(i))
		errs = append(errs, compareBool(fmt.Sprintf("Test(%d)", i), m.Test(i), r[i]))
	}

	// The operands must come out untouched.
	errs = append(errs, Compare("operand", m, r), Compare("operand", other, o))
	return errors.Join(errs...)
}

// RandomMasks returns n masks of the given width drawn from a deterministic
// generator. The first two are always the empty and the full mask.
func RandomMasks(width, n int, seed uint64) []subgroup.Mask {
	rng := rand.New(rand.NewPCG(seed, uint64(width)))
	out := make([]subgroup.Mask, 0, n)
	for i := range n {
		switch i {
		case 0:
			out = append(out, subgroup.NewMask(width))
		case 1:
			out = append(out, subgroup.FullMask(width))
		default:
			out = append(out, subgroup.FromWords(width, []uint64{rng.Uint64(), rng.Uint64()}))
		}
	}
	return out
}

// VerifyWidth checks n random masks of width against the model, pairing
// each with its successor for the binary operations.
func VerifyWidth(width, n int, seed uint64) error {
	masks := RandomMasks(width, n, seed)
	var errs []error
	for i, m := range masks {
		if err := Verify(m, masks[(i+1)%len(masks)]); err != nil {
			errs = append(errs, fmt.Errorf("width %d mask %s: %w", width, m, err))
		}
	}
	return errors.Join(errs...)
}
