// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package ndrange

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-subgroup/subgroup"
	"github.com/ajroetker/go-subgroup/subgroup/contrib/workerpool"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRangeValidate(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		sg   int
		ok   bool
	}{
		{"ok", Range{Global: 256, Local: 128}, 16, true},
		{"single_group", Range{Global: 8, Local: 8}, 8, true},
		{"zero_global", Range{Global: 0, Local: 8}, 8, false},
		{"negative_local", Range{Global: 8, Local: -8}, 8, false},
		{"local_not_dividing", Range{Global: 100, Local: 64}, 8, false},
		{"sub_group_not_dividing", Range{Global: 24, Local: 12}, 8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate(tt.sg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRange)
			}
		})
	}
}

func TestNewInvalidSubGroupSize(t *testing.T) {
	_, err := New(WithSubGroupSize(6))
	assert.ErrorIs(t, err, subgroup.ErrInvalidWidth)
}

func TestSubmitVisitsEveryItemOnce(t *testing.T) {
	q, err := New(WithSubGroupSize(8), WithWorkers(3), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer q.Close()

	r := Range{Global: 256, Local: 64}
	visits := make([]atomic.Int32, r.Global)
	report, err := q.Submit(context.Background(), r, func(it Item) {
		visits[it.GlobalID].Add(1)
		assert.Equal(t, it.GroupID*r.Local+it.LocalID, it.GlobalID)
		assert.Equal(t, it.LocalID/8, it.SubGroupID())
		assert.Equal(t, it.LocalID%8, it.SubGroup.ID())
	})
	require.NoError(t, err)

	for i := range visits {
		assert.Equal(t, int32(1), visits[i].Load(), "item %d", i)
	}
	assert.Equal(t, 4, report.WorkGroups)
	assert.Equal(t, 32, report.SubGroups)
	assert.Zero(t, report.Ballots)
	assert.True(t, report.Failed.IsEmpty())
}

func TestSubmitBallotPerSubGroup(t *testing.T) {
	q, err := New(WithSubGroupSize(16), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer q.Close()

	var wrong atomic.Int32
	report, err := q.Submit(context.Background(), Range{Global: 128, Local: 32}, func(it Item) {
		// Only the first item of the whole range votes true; every other
		// sub-group must see an empty mask.
		m := it.SubGroup.Ballot(it.GlobalID == 0)
		want := 0
		if it.GlobalID < 16 {
			want = 1
		}
		if m.Count() != want {
			wrong.Add(1)
		}
	})
	require.NoError(t, err)
	assert.Zero(t, wrong.Load())
	assert.Equal(t, uint64(8), report.Ballots)
}

func TestSubmitReportsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	q, err := New(WithSubGroupSize(4), WithWorkers(2), WithLogger(quietLogger()), WithMetrics(metrics))
	require.NoError(t, err)
	defer q.Close()

	report, err := q.Submit(context.Background(), Range{Global: 32, Local: 8}, func(it Item) {
		if it.GlobalID == 13 {
			// Lane 1 of sub-group 3 skips the ballot.
			return
		}
		it.SubGroup.Ballot(true)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, subgroup.ErrPrecondition)

	assert.Equal(t, []uint32{12, 13, 14, 15}, report.Failed.ToArray())
	assert.Equal(t, 4, report.WorkGroups)
	assert.Equal(t, 8, report.SubGroups)

	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.WorkGroupsTotal))
	assert.Equal(t, 8.0, testutil.ToFloat64(metrics.SubGroupsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SubGroupFailuresTotal.WithLabelValues("divergence")))
	assert.Equal(t, 7.0, testutil.ToFloat64(metrics.BallotsTotal))
}

func TestSubmitKernelPanic(t *testing.T) {
	metrics := NewMetrics(nil)
	q, err := New(WithSubGroupSize(4), WithLogger(quietLogger()), WithMetrics(metrics))
	require.NoError(t, err)
	defer q.Close()

	report, err := q.Submit(context.Background(), Range{Global: 8, Local: 8}, func(it Item) {
		if it.GlobalID == 6 {
			panic("bad item")
		}
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad item")
	assert.Equal(t, []uint32{4, 5, 6, 7}, report.Failed.ToArray())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SubGroupFailuresTotal.WithLabelValues("panic")))
}

func TestSubmitCancelled(t *testing.T) {
	q, err := New(WithSubGroupSize(4), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := q.Submit(ctx, Range{Global: 64, Local: 8}, func(Item) {})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, report.WorkGroups)
}

func TestSubmitInvalidRange(t *testing.T) {
	q, err := New(WithSubGroupSize(8), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer q.Close()

	_, err = q.Submit(context.Background(), Range{Global: 12, Local: 4}, func(Item) {})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSharedPool(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Close()

	q, err := New(WithSubGroupSize(4), WithPool(pool), WithLogger(quietLogger()))
	require.NoError(t, err)
	q.Close()

	// Closing the queue leaves a borrowed pool running.
	report, err := q.Submit(context.Background(), Range{Global: 16, Local: 8}, func(Item) {})
	require.NoError(t, err)
	assert.Equal(t, 2, report.WorkGroups)
	assert.Equal(t, 4, q.SubGroupSize())
}
