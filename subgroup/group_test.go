package subgroup

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalassert "github.com/ajroetker/go-subgroup/internal/assert"
)

func quietViolations(t *testing.T) {
	t.Helper()
	internalassert.SetLogger(slog.New(slog.DiscardHandler))
	t.Cleanup(func() { internalassert.SetLogger(nil) })
}

func TestNewGroupInvalidWidth(t *testing.T) {
	for _, w := range []int{0, 3, 12, MaxWidth * 2} {
		_, err := NewGroup(w)
		assert.ErrorIs(t, err, ErrInvalidWidth, "width %d", w)
	}
}

func TestBallotEveryLaneSeesSameMask(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, w := range SupportedWidths() {
		t.Run(fmt.Sprintf("width=%d", w), func(t *testing.T) {
			g, err := NewGroup(w)
			require.NoError(t, err)

			preds := make([]bool, w)
			for i := range preds {
				preds[i] = rng.IntN(2) == 1
			}
			want := FromBools(preds)

			got := make([]Mask, w)
			err = g.Run(func(l *Lane) {
				assert.Equal(t, w, l.Size())
				got[l.ID()] = l.Ballot(preds[l.ID()])
			})
			require.NoError(t, err)

			for id, m := range got {
				assert.True(t, m.Equal(want), "lane %d saw %s, want %s", id, m, want)
				for i := range w {
					assert.Equal(t, preds[i], m.Test(i), "lane %d bit %d", id, i)
				}
			}
			assert.Equal(t, uint64(1), g.Rounds())
		})
	}
}

func TestBallotRounds(t *testing.T) {
	const w, rounds = 16, 50
	g, err := NewGroup(w)
	require.NoError(t, err)

	var mismatches atomic.Int32
	err = g.Run(func(l *Lane) {
		for r := range rounds {
			m := l.Ballot((l.ID()+r)%3 == 0)
			for i := range w {
				if m.Test(i) != ((i+r)%3 == 0) {
					mismatches.Add(1)
				}
			}
		}
	})
	require.NoError(t, err)
	assert.Zero(t, mismatches.Load())
	assert.Equal(t, uint64(rounds), g.Rounds())

	// The group is reusable after a clean run.
	require.NoError(t, g.Run(func(l *Lane) { l.Ballot(true) }))
	assert.Equal(t, uint64(rounds+1), g.Rounds())
}

func TestBallotEvenOdd(t *testing.T) {
	g, err := NewGroup(8)
	require.NoError(t, err)

	err = g.Run(func(l *Lane) {
		even := l.Ballot(l.ID()%2 == 0)
		odd := l.Ballot(l.ID()%2 == 1)
		assert.True(t, even.And(odd).None())
		assert.True(t, even.Or(odd).All())
		assert.True(t, even.Not().Equal(odd))
		assert.Equal(t, "10101010", even.String())

		// Mutating one lane's copy never affects another lane.
		even.Flip()
		assert.True(t, even.Equal(odd))
	})
	require.NoError(t, err)
}

func TestCollectivePredicates(t *testing.T) {
	g, err := NewGroup(4)
	require.NoError(t, err)

	err = g.Run(func(l *Lane) {
		assert.True(t, l.AnyOf(l.ID() == 3))
		assert.False(t, l.AllOf(l.ID() == 3))
		assert.True(t, l.AllOf(l.ID() < 4))
		assert.True(t, l.NoneOf(l.ID() > 3))
		assert.False(t, l.NoneOf(l.ID() == 0))
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), g.Rounds())
}

func TestBallotDivergenceEarlyReturn(t *testing.T) {
	quietViolations(t)
	g, err := NewGroup(8)
	require.NoError(t, err)

	err = g.Run(func(l *Lane) {
		if l.ID() == 5 {
			return
		}
		l.Ballot(true)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrecondition)

	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, internalassert.Divergence, v.Kind)

	assert.ErrorIs(t, g.Err(), ErrPrecondition)
	assert.ErrorIs(t, g.Run(func(*Lane) {}), ErrGroupBroken)
}

func TestBallotDivergenceExtraRound(t *testing.T) {
	quietViolations(t)
	g, err := NewGroup(4)
	require.NoError(t, err)

	err = g.Run(func(l *Lane) {
		l.Ballot(true)
		if l.ID() == 0 {
			l.Ballot(false)
		}
	})
	var v *Violation
	require.True(t, errors.As(err, &v), "got %v", err)
	assert.Equal(t, internalassert.Divergence, v.Kind)
}

func TestBallotDivergenceDoubleJoin(t *testing.T) {
	quietViolations(t)
	g, err := NewGroup(4)
	require.NoError(t, err)

	released := make(chan struct{})
	err = g.Run(func(l *Lane) {
		switch l.ID() {
		case 0:
			go func() {
				defer close(released)
				defer func() { _ = recover() }()
				l.Ballot(true)
			}()
			l.Ballot(true)
		case 1:
			// Never joins; waits until the second lane 0 ballot is done.
			<-released
		default:
			l.Ballot(false)
		}
	})
	var v *Violation
	require.True(t, errors.As(err, &v), "got %v", err)
	assert.Equal(t, internalassert.Divergence, v.Kind)
	assert.Equal(t, uint64(0), g.Rounds())
}

func TestBallotStaleLane(t *testing.T) {
	quietViolations(t)
	g, err := NewGroup(2)
	require.NoError(t, err)

	var stale atomic.Pointer[Lane]
	require.NoError(t, g.Run(func(l *Lane) {
		if l.ID() == 1 {
			stale.Store(l)
		}
		l.Ballot(true)
	}))
	require.Equal(t, uint64(1), g.Rounds())

	err = g.Run(func(l *Lane) {
		if l.ID() == 1 {
			stale.Load().Ballot(true)
			return
		}
		l.Ballot(false)
	})
	var v *Violation
	require.True(t, errors.As(err, &v), "got %v", err)
	assert.Equal(t, internalassert.Divergence, v.Kind)
	assert.Contains(t, v.Msg, "run 1 used during run 2")
	assert.Equal(t, uint64(1), g.Rounds())
}

func TestBallotLanePanic(t *testing.T) {
	quietViolations(t)
	g, err := NewGroup(8)
	require.NoError(t, err)

	err = g.Run(func(l *Lane) {
		if l.ID() == 2 {
			panic("lane 2 exploded")
		}
		l.Ballot(true)
		l.Ballot(true)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lane 2 exploded")
}

func TestBallotOutsideRun(t *testing.T) {
	quietViolations(t)
	g, err := NewGroup(1)
	require.NoError(t, err)

	var saved *Lane
	require.NoError(t, g.Run(func(l *Lane) { saved = l }))

	defer func() {
		v, ok := recover().(*Violation)
		require.True(t, ok)
		assert.Equal(t, internalassert.Divergence, v.Kind)
	}()
	saved.Ballot(true)
}

func TestRunBusy(t *testing.T) {
	g, err := NewGroup(2)
	require.NoError(t, err)

	var nested error
	err = g.Run(func(l *Lane) {
		if l.ID() == 0 {
			nested = g.Run(func(*Lane) {})
		}
	})
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrGroupBusy)
}

func TestLaneGroup(t *testing.T) {
	g, err := NewGroup(2)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Width())
	require.NoError(t, g.Run(func(l *Lane) {
		assert.Same(t, g, l.Group())
	}))
}

func BenchmarkBallot(b *testing.B) {
	g, err := NewGroup(16)
	require.NoError(b, err)
	for b.Loop() {
		_ = g.Run(func(l *Lane) {
			for range 8 {
				l.Ballot(l.ID()&1 == 0)
			}
		})
	}
}
