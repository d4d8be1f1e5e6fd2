package subgroup

import (
	"math/rand/v2"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskBitSetRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for _, w := range SupportedWidths() {
		m := FromWords(w, []uint64{rng.Uint64(), rng.Uint64()})
		b := m.BitSet()
		require.Equal(t, uint(w), b.Len())
		assert.Equal(t, uint(m.Count()), b.Count(), "width %d", w)

		if first, ok := b.NextSet(0); ok {
			assert.Equal(t, int(first), m.FindLow())
		} else {
			assert.Equal(t, NotFound, m.FindLow())
		}
		for i := range w {
			assert.Equal(t, b.Test(uint(i)), m.Test(i), "width %d lane %d", w, i)
		}
		assert.True(t, FromBitSet(w, b).Equal(m))
	}
}

func TestFromBitSetDropsHighBits(t *testing.T) {
	b := bitset.New(200)
	b.Set(1).Set(7).Set(8).Set(150)
	m := FromBitSet(8, b)
	assert.Equal(t, "01000001", m.String())
}

func TestFromBitSetNil(t *testing.T) {
	m := FromBitSet(16, nil)
	assert.Equal(t, 16, m.Width())
	assert.True(t, m.None())
}
