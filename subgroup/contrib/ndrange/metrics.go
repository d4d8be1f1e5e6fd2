// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package ndrange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what a Queue launched.
type Metrics struct {
	// WorkGroupsTotal counts executed work-groups.
	WorkGroupsTotal prometheus.Counter

	// SubGroupsTotal counts executed sub-groups.
	SubGroupsTotal prometheus.Counter

	// BallotsTotal counts completed ballot rounds across all sub-groups.
	BallotsTotal prometheus.Counter

	// SubGroupFailuresTotal counts failed sub-groups by cause.
	SubGroupFailuresTotal *prometheus.CounterVec

	// SubmitDurationSeconds measures Submit latency.
	SubmitDurationSeconds prometheus.Histogram
}

// NewMetrics creates the queue metrics and registers them with reg.
// A nil reg creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WorkGroupsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "subgroup_work_groups_total",
			Help: "Total number of executed work-groups",
		}),
		SubGroupsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "subgroup_sub_groups_total",
			Help: "Total number of executed sub-groups",
		}),
		BallotsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "subgroup_ballots_total",
			Help: "Total number of completed ballot rounds",
		}),
		SubGroupFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subgroup_sub_group_failures_total",
			Help: "Total number of failed sub-groups by cause",
		}, []string{"cause"}),
		SubmitDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "subgroup_submit_duration_seconds",
			Help:    "Duration of ND-range submissions",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}
