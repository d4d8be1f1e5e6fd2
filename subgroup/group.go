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

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-subgroup/internal/assert"
)

// Group is a software sub-group: width lanes that run one kernel together
// and meet at every Ballot.
//
// Usage:
//
//	g, _ := subgroup.NewGroup(8)
//	err := g.Run(func(l *subgroup.Lane) {
//	    even := l.Ballot(l.ID()%2 == 0)
//	    _ = even.Count() // 4 on every lane
//	})
//
// Every lane must call Ballot the same number of times. A lane that returns
// from the kernel while others wait in a ballot, or a ballot issued after a
// lane returned, breaks the group: the waiting lanes are released and Run
// reports a Divergence violation. So does a lane that joins the same
// round twice, or a Lane kept from an earlier Run.
type Group struct {
	width int

	mu      sync.Mutex
	cond    sync.Cond
	running bool
	gen     uint64
	round   uint64
	arrived int
	joined  words
	pending words
	result  words
	exited  int
	broken  error
}

// Lane is the capability a kernel receives from Group.Run. It identifies
// one lane of one group and is only valid for the duration of that run.
type Lane struct {
	g   *Group
	id  int
	gen uint64
}

// laneReleased unwinds a lane blocked in (or entering) a ballot of a
// broken group. Run turns it into the group's failure.
type laneReleased struct{}

// NewGroup creates a group of width lanes.
func NewGroup(width int) (*Group, error) {
	if !ValidWidth(width) {
		return nil, fmt.Errorf("%w: %d is not a power of two in [1, %d]", ErrInvalidWidth, width, MaxWidth)
	}
	g := &Group{width: width}
	g.cond.L = &g.mu
	return g, nil
}

// Width returns the number of lanes in the group.
func (g *Group) Width() int {
	return g.width
}

// Rounds returns the number of completed ballot rounds.
func (g *Group) Rounds() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round
}

// Err returns the failure that broke the group, or nil.
func (g *Group) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.broken
}

// Run executes kernel once per lane, each on its own goroutine, and blocks
// until every lane has returned. It returns the first lane failure: a
// panic in the kernel or a Divergence violation. A failed group stays
// broken; later calls return ErrGroupBroken.
func (g *Group) Run(kernel func(l *Lane)) error {
	g.mu.Lock()
	switch {
	case g.running:
		g.mu.Unlock()
		return ErrGroupBusy
	case g.broken != nil:
		err := g.broken
		g.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrGroupBroken, err)
	}
	g.running = true
	g.gen++
	g.exited = 0
	gen := g.gen
	g.mu.Unlock()

	var eg errgroup.Group
	for id := range g.width {
		l := &Lane{g: g, id: id, gen: gen}
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = g.fail(r)
				}
				g.exit(l)
			}()
			kernel(l)
			return nil
		})
	}
	err := eg.Wait()

	g.mu.Lock()
	g.running = false
	if err == nil {
		err = g.broken
	}
	g.mu.Unlock()
	return err
}

// fail records a lane panic as the group failure and releases the other
// lanes. It returns the failure Run should report.
func (g *Group) fail(r any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := r.(laneReleased); !ok && g.broken == nil {
		g.broken = assert.Recover(r)
		g.cond.Broadcast()
	}
	return g.broken
}

// breakWith marks the group broken by v. Called with g.mu held.
func (g *Group) breakWith(v *Violation) {
	if g.broken != nil {
		return
	}
	assert.Report(v)
	g.broken = v
	g.cond.Broadcast()
}

func (g *Group) exit(l *Lane) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.exited++
	if g.arrived > 0 {
		g.breakWith(assert.New(assert.Divergence, "Lane.Ballot",
			"lane %d returned while %d of %d lanes wait in round %d", l.id, g.arrived, g.width, g.round))
	}
}

// ID returns the lane's index within its group, the bit it owns in a
// ballot mask.
func (l *Lane) ID() int {
	return l.id
}

// Size returns the width of the lane's group.
func (l *Lane) Size() int {
	return l.g.width
}

// Group returns the group the lane belongs to.
func (l *Lane) Group() *Group {
	return l.g
}

// Ballot is the group collective that gathers one predicate per lane.
// Every lane blocks until all lanes of the group have called Ballot for
// the current round, then each receives the same Mask whose bit i is the
// predicate supplied by lane i.
func (l *Lane) Ballot(pred bool) Mask {
	g := l.g
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.running {
		assert.Fail(assert.Divergence, "Lane.Ballot", "lane %d used outside Group.Run", l.id)
	}
	if g.broken != nil {
		panic(laneReleased{})
	}
	if l.gen != g.gen {
		g.breakWith(assert.New(assert.Divergence, "Lane.Ballot",
			"lane %d of run %d used during run %d", l.id, l.gen, g.gen))
		panic(laneReleased{})
	}
	if g.joined.test(l.id) {
		g.breakWith(assert.New(assert.Divergence, "Lane.Ballot",
			"lane %d joined round %d twice", l.id, g.round))
		panic(laneReleased{})
	}
	if g.exited > 0 {
		g.breakWith(assert.New(assert.Divergence, "Lane.Ballot",
			"lane %d entered round %d after %d of %d lanes returned", l.id, g.round, g.exited, g.width))
		panic(laneReleased{})
	}

	g.joined.set(l.id)
	if pred {
		g.pending.set(l.id)
	}
	g.arrived++
	if g.arrived == g.width {
		g.result = g.pending
		g.pending = words{}
		g.joined = words{}
		g.arrived = 0
		g.round++
		g.cond.Broadcast()
		return Mask{bits: g.result, width: g.width}
	}

	round := g.round
	for g.round == round && g.broken == nil {
		g.cond.Wait()
	}
	if g.round == round {
		panic(laneReleased{})
	}
	return Mask{bits: g.result, width: g.width}
}

// AnyOf reports whether pred is true on at least one lane.
// It is a collective: every lane must call it.
func (l *Lane) AnyOf(pred bool) bool {
	return l.Ballot(pred).Any()
}

// AllOf reports whether pred is true on every lane.
// It is a collective: every lane must call it.
func (l *Lane) AllOf(pred bool) bool {
	return l.Ballot(pred).All()
}

// NoneOf reports whether pred is false on every lane.
// It is a collective: every lane must call it.
func (l *Lane) NoneOf(pred bool) bool {
	return l.Ballot(pred).None()
}
