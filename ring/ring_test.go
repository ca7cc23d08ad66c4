package ring_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usonic/usa-acq/ring"
)

func fill(r *ring.SampleRing, n int) {
	for i := 0; i < n; i++ {
		ts := float64(i)
		r.Append(ts, int16(i), int16(-i), int16(i*2), int16(i+1))
	}
}

func TestSnapshotChronologicalOrderWhenNotFull(t *testing.T) {
	r := ring.NewSampleRing(5)
	fill(r, 3)

	ts, u, _, _, _ := r.Snapshot()
	require.Len(t, ts, 5)
	// the first two slots (never written) are zero-valued and sort first
	// chronologically by construction of this ring's wrap start.
	assert.EqualValues(t, []int16{0, 0, 0, 1, 2}, u)
}

func TestSnapshotMostRecentNAfterWrap(t *testing.T) {
	r := ring.NewSampleRing(4)
	fill(r, 10) // wraps multiple times; last 4 writes are indices 6,7,8,9

	ts, u, _, _, _ := r.Snapshot()
	assert.True(t, nonDecreasing(ts))
	assert.EqualValues(t, []int16{6, 7, 8, 9}, u)
}

func TestSnapshotLenAlwaysCapacity(t *testing.T) {
	r := ring.NewSampleRing(7)
	fill(r, 100)
	ts, _, _, _, _ := r.Snapshot()
	assert.Len(t, ts, 7)
}

func TestSampleRawReturnsTailInWriteOrder(t *testing.T) {
	r := ring.NewSampleRing(6)
	fill(r, 6)

	u, _, _, _ := r.SampleRaw(3)
	assert.EqualValues(t, []int16{3, 4, 5}, u)
}

func TestSampleRandomConvertsToMetresPerSecond(t *testing.T) {
	r := ring.NewSampleRing(10)
	fill(r, 10)

	rng := rand.New(rand.NewSource(1))
	u, _, _ := r.SampleRandom(5, 10, rng)
	require.Len(t, u, 5)
	for _, val := range u {
		// raw values were 0..9 cm/s, so converted m/s must lie in [0, 0.09]
		assert.GreaterOrEqual(t, val, 0.0)
		assert.LessOrEqual(t, val, 0.09)
	}
}

func nonDecreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return false
		}
	}
	return true
}
