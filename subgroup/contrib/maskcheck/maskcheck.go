// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package maskcheck is a self-test for sub-group masks that runs on a real
// ND-range launch: every sub-group ballots the even and the odd lanes, and
// the first work item exercises the whole Mask API on the results.
package maskcheck

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ajroetker/go-subgroup/subgroup"
	"github.com/ajroetker/go-subgroup/subgroup/contrib/ndrange"
	"github.com/ajroetker/go-subgroup/subgroup/contrib/oracle"
)

// ErrUnsupportedSize is returned for sub-group sizes the check cannot use.
// The check needs an even size of at least 4 lanes.
var ErrUnsupportedSize = errors.New("maskcheck: sub-group size must be even and at least 4")

// Results records the outcome of every check. A field is true when its
// check passed.
type Results struct {
	Masks      bool
	OrAll      bool
	AndNone    bool
	NotAndAny  bool
	Any        bool
	XorAll     bool
	Not        bool
	FindHigh   bool
	FindLow    bool
	ShiftLeft  bool
	ShiftRight bool
	Count      bool
	Flip       bool
	FlipID     bool
	Set        bool
	Reset      bool
	SetID      bool
	ResetID    bool
	ResetHigh  bool
	ResetLow   bool

	// Rendezvous is true when every lane of every sub-group received the
	// masks the reference model predicts.
	Rendezvous bool

	SGSize   int
	EvenMask []int
	OddMask  []int
}

// Check collects Results across one launch. Its Kernel method is the
// ndrange kernel.
type Check struct {
	res       Results
	mismatch  atomic.Int64
	firstDiff atomic.Pointer[error]
}

// NewCheck returns a Check ready to be launched.
func NewCheck() *Check {
	return &Check{}
}

// Kernel runs the check for one work item.
func (c *Check) Kernel(it ndrange.Item) {
	sg := it.SubGroup
	evenmask := sg.Ballot(sg.ID()%2 == 0)
	oddmask := sg.Ballot(sg.ID()%2 == 1)

	// Every lane re-derives both masks independently.
	size := sg.Size()
	errEven := oracle.Compare("even ballot", evenmask, oracle.Ballot(size, func(i int) bool { return i%2 == 0 }))
	errOdd := oracle.Compare("odd ballot", oddmask, oracle.Ballot(size, func(i int) bool { return i%2 == 1 }))
	if err := errors.Join(errEven, errOdd); err != nil {
		c.mismatch.Add(1)
		err = fmt.Errorf("item %d: %w", it.GlobalID, err)
		c.firstDiff.CompareAndSwap(nil, &err)
	}

	if it.GlobalID == 0 {
		c.record(size, evenmask, oddmask)
	}
}

// record runs the single-lane checks. It mutates its own copy of evenmask.
func (c *Check) record(size int, evenmask, oddmask subgroup.Mask) {
	r := &c.res
	r.SGSize = size
	r.EvenMask = make([]int, size)
	r.OddMask = make([]int, size)

	ok := true
	for i := range size {
		ok = ok && evenmask.Test(i) == (i%2 == 0)
		ok = ok && oddmask.Test(i) == (i%2 == 1)
		r.EvenMask[i] = b2i(evenmask.Test(i))
		r.OddMask[i] = b2i(oddmask.Test(i))
	}
	r.Masks = ok

	r.OrAll = evenmask.Or(oddmask).All()
	r.AndNone = evenmask.And(oddmask).None()
	r.NotAndAny = !evenmask.And(oddmask).Any()
	r.Any = evenmask.Any()
	r.XorAll = evenmask.Xor(oddmask).All()
	r.Not = evenmask.Not().Equal(oddmask)
	r.FindHigh = evenmask.FindHigh() == size-2
	r.FindLow = evenmask.FindLow() == 0
	r.ShiftLeft = evenmask.Shl(2).FindLow() == 2
	r.ShiftRight = evenmask.Shr(2).FindHigh() == size-4
	r.Count = evenmask.Count() == size/2

	evenmask.Flip()
	r.Flip = evenmask.Equal(oddmask)

	evenmask.FlipBit(0)
	r.FlipID = evenmask.FindLow() == 0

	evenmask.Set()
	r.Set = evenmask.All()

	evenmask.Reset()
	r.Reset = evenmask.None()

	evenmask.SetBit(1)
	r.SetID = evenmask.FindLow() == 1

	evenmask.SetBit(2)
	evenmask.ResetBit(1)
	r.ResetID = evenmask.FindLow() == 2

	evenmask.Set()
	evenmask.ResetHigh()
	r.ResetHigh = evenmask.FindHigh() == size-2

	evenmask.ResetLow()
	r.ResetLow = evenmask.FindLow() == 1
}

// Results returns what the launch recorded. Call it after the launch
// finished.
func (c *Check) Results() Results {
	r := c.res
	r.Rendezvous = c.mismatch.Load() == 0
	return r
}

// RendezvousErr returns the first per-lane mask disagreement, if any.
func (c *Check) RendezvousErr() error {
	if p := c.firstDiff.Load(); p != nil {
		return *p
	}
	return nil
}

// Run launches the check on q over r.
func Run(ctx context.Context, q *ndrange.Queue, r ndrange.Range) (Results, *ndrange.Report, error) {
	if n := q.SubGroupSize(); n < 4 || n%2 != 0 {
		return Results{}, nil, fmt.Errorf("%w: got %d", ErrUnsupportedSize, n)
	}
	c := NewCheck()
	report, err := q.Submit(ctx, r, c.Kernel)
	if err != nil {
		return Results{}, report, err
	}
	return c.Results(), report, c.RendezvousErr()
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
