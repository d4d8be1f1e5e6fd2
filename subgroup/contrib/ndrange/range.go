// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package ndrange launches a kernel over a one-dimensional ND-range of work
// items, the way a SYCL or OpenCL queue would: the range is cut into
// work-groups of Local items, and every work-group into sub-groups of the
// queue's sub-group size. Each sub-group is a subgroup.Group, so kernels
// can call Ballot on the lane they are given.
//
// Usage:
//
//	q, err := ndrange.New(ndrange.WithSubGroupSize(8))
//	if err != nil {
//	    return err
//	}
//	defer q.Close()
//
//	report, err := q.Submit(ctx, ndrange.Range{Global: 256, Local: 128}, func(it ndrange.Item) {
//	    even := it.SubGroup.Ballot(it.SubGroup.ID()%2 == 0)
//	    _ = even
//	})
package ndrange

import (
	"errors"
	"fmt"
)

// ErrInvalidRange is returned by Submit for a range the queue cannot split.
var ErrInvalidRange = errors.New("ndrange: invalid range")

// Range is a one-dimensional ND-range.
type Range struct {
	// Global is the total number of work items.
	Global int

	// Local is the number of work items per work-group.
	Local int
}

// Validate checks that r splits into whole work-groups and every
// work-group into whole sub-groups of sgSize lanes.
func (r Range) Validate(sgSize int) error {
	switch {
	case r.Global <= 0 || r.Local <= 0:
		return fmt.Errorf("%w: global %d and local %d must be positive", ErrInvalidRange, r.Global, r.Local)
	case r.Global%r.Local != 0:
		return fmt.Errorf("%w: local %d does not divide global %d", ErrInvalidRange, r.Local, r.Global)
	case r.Local%sgSize != 0:
		return fmt.Errorf("%w: sub-group size %d does not divide local %d", ErrInvalidRange, sgSize, r.Local)
	}
	return nil
}

// NumGroups returns the number of work-groups in r.
func (r Range) NumGroups() int {
	return r.Global / r.Local
}
