package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_FirstObservationIsFresh(t *testing.T) {
	t.Parallel()

	l := New(DefaultCapacity)
	assert.True(t, l.Observe(1))
}

func TestLedger_RepeatObservationIsNotFresh(t *testing.T) {
	t.Parallel()

	l := New(DefaultCapacity)
	require.True(t, l.Observe(5))
	assert.False(t, l.Observe(5))
	assert.False(t, l.Observe(5))
}

func TestLedger_CapacityBelowMinimumIsRaised(t *testing.T) {
	t.Parallel()

	l := New(1)
	for i := uint32(1); i <= DefaultCapacity; i++ {
		require.True(t, l.Observe(i))
	}
	assert.Equal(t, DefaultCapacity, l.Len())
}

func TestLedger_EvictsOldestOnceFull(t *testing.T) {
	t.Parallel()

	l := New(DefaultCapacity)
	for i := uint32(1); i <= DefaultCapacity; i++ {
		require.True(t, l.Observe(i))
	}
	require.Equal(t, DefaultCapacity, l.Len())

	// One more observation evicts seq 1, which should then be observable
	// again as fresh.
	require.True(t, l.Observe(DefaultCapacity+1))
	assert.Equal(t, DefaultCapacity, l.Len())
	assert.True(t, l.Observe(1))
}
