// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package ndrange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-subgroup/subgroup"
	"github.com/ajroetker/go-subgroup/subgroup/contrib/workerpool"
)

// Item is one work item as seen by a kernel.
type Item struct {
	// GlobalID is the item's index in the whole range.
	GlobalID int

	// LocalID is the item's index within its work-group.
	LocalID int

	// GroupID is the index of the item's work-group.
	GroupID int

	// SubGroup is the item's lane in its sub-group.
	SubGroup *subgroup.Lane
}

// SubGroupID returns the index of the item's sub-group within its
// work-group.
func (it Item) SubGroupID() int {
	return it.LocalID / it.SubGroup.Size()
}

// Kernel is the body run once per work item.
type Kernel func(it Item)

// Report summarizes one Submit.
type Report struct {
	WorkGroups int
	SubGroups  int
	Ballots    uint64

	// Failed holds the global ids of every item whose sub-group failed.
	Failed *roaring.Bitmap

	Duration time.Duration
}

// Queue runs kernels over ND-ranges.
type Queue struct {
	sgSize  int
	workers int
	pool    *workerpool.Pool
	ownPool bool
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Queue.
type Option func(*Queue)

// WithSubGroupSize sets the sub-group size. The default is
// subgroup.DefaultSize().
func WithSubGroupSize(n int) Option {
	return func(q *Queue) { q.sgSize = n }
}

// WithWorkers sets how many work-groups run concurrently. n <= 0 uses
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(q *Queue) { q.workers = n }
}

// WithPool runs work-groups on an existing pool. The queue does not close it.
func WithPool(p *workerpool.Pool) Option {
	return func(q *Queue) { q.pool = p }
}

// WithLogger sets the logger for failures and per-submit summaries.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithMetrics records launches into m.
func WithMetrics(m *Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// New creates a queue.
func New(opts ...Option) (*Queue, error) {
	q := &Queue{sgSize: subgroup.DefaultSize()}
	for _, opt := range opts {
		opt(q)
	}
	if !subgroup.ValidWidth(q.sgSize) {
		return nil, fmt.Errorf("%w: sub-group size %d", subgroup.ErrInvalidWidth, q.sgSize)
	}
	if q.pool == nil {
		q.pool = workerpool.New(q.workers)
		q.ownPool = true
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	if q.metrics == nil {
		q.metrics = NewMetrics(nil)
	}
	return q, nil
}

// SubGroupSize returns the size of the sub-groups the queue creates.
func (q *Queue) SubGroupSize() int {
	return q.sgSize
}

// Close releases the queue's workers.
func (q *Queue) Close() {
	if q.ownPool {
		q.pool.Close()
	}
}

// Submit runs kernel once for every item of r and blocks until all
// work-groups finish. Work-groups run concurrently on the queue's workers;
// the sub-groups of one work-group run concurrently with each other.
//
// Failing sub-groups (kernel panics, ballot divergence) do not stop the
// rest of the range. Their errors are joined into the returned error and
// their items recorded in Report.Failed. Cancelling ctx stops scheduling
// further work-groups.
func (q *Queue) Submit(ctx context.Context, r Range, kernel Kernel) (*Report, error) {
	if err := r.Validate(q.sgSize); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &Report{Failed: roaring.New()}
	var mu sync.Mutex

	err := q.pool.ForEach(ctx, r.NumGroups(), func(group int) error {
		stats, failed, err := q.runWorkGroup(r, group, kernel)

		mu.Lock()
		report.WorkGroups++
		report.SubGroups += stats.subGroups
		report.Ballots += stats.ballots
		report.Failed.Or(failed)
		mu.Unlock()

		q.metrics.WorkGroupsTotal.Inc()
		return err
	})

	report.Duration = time.Since(start)
	q.metrics.SubmitDurationSeconds.Observe(report.Duration.Seconds())
	q.logger.Debug("nd-range submitted",
		slog.Int("global", r.Global),
		slog.Int("local", r.Local),
		slog.Int("sub_group_size", q.sgSize),
		slog.Int("work_groups", report.WorkGroups),
		slog.Uint64("ballots", report.Ballots),
		slog.Uint64("failed_items", report.Failed.GetCardinality()),
		slog.Duration("duration", report.Duration),
	)
	return report, err
}

type groupStats struct {
	subGroups int
	ballots   uint64
}

func (q *Queue) runWorkGroup(r Range, group int, kernel Kernel) (groupStats, *roaring.Bitmap, error) {
	numSub := r.Local / q.sgSize
	failed := roaring.New()
	var (
		mu    sync.Mutex
		stats groupStats
		eg    errgroup.Group
	)

	for sub := range numSub {
		eg.Go(func() error {
			g, err := subgroup.NewGroup(q.sgSize)
			if err != nil {
				return err
			}
			base := group*r.Local + sub*q.sgSize
			err = g.Run(func(l *subgroup.Lane) {
				kernel(Item{
					GlobalID: base + l.ID(),
					LocalID:  sub*q.sgSize + l.ID(),
					GroupID:  group,
					SubGroup: l,
				})
			})

			rounds := g.Rounds()
			q.metrics.SubGroupsTotal.Inc()
			q.metrics.BallotsTotal.Add(float64(rounds))

			mu.Lock()
			defer mu.Unlock()
			stats.subGroups++
			stats.ballots += rounds
			if err == nil {
				return nil
			}

			failed.AddRange(uint64(base), uint64(base+q.sgSize))
			q.metrics.SubGroupFailuresTotal.WithLabelValues(failureCause(err)).Inc()
			q.logger.Warn("sub-group failed",
				slog.Int("work_group", group),
				slog.Int("sub_group", sub),
				slog.Int("first_global_id", base),
				slog.Any("error", err),
			)
			return fmt.Errorf("work-group %d sub-group %d: %w", group, sub, err)
		})
	}

	err := eg.Wait()
	return stats, failed, err
}

// failureCause labels a sub-group failure for metrics.
func failureCause(err error) string {
	var v *subgroup.Violation
	if errors.As(err, &v) {
		return v.Kind.String()
	}
	return "panic"
}
