// Package ring implements the fixed-capacity circular sample buffer that
// sits between the line decoder and the statistics/particle engines.
package ring

import (
	"math/rand"

	"github.com/samber/lo"
)

// SampleRing is a single-producer, fixed-capacity ring of decoded
// samples. It owns its storage; there is no package-level mutable state
// (SPEC_FULL.md 9).
type SampleRing struct {
	ts       []float64
	u, v, w  []int16
	t        []int16
	lastPos  int
	count    int
	capacity int
}

// NewSampleRing allocates a ring of the given capacity.
func NewSampleRing(capacity int) *SampleRing {
	return &SampleRing{
		ts:       make([]float64, capacity),
		u:        make([]int16, capacity),
		v:        make([]int16, capacity),
		w:        make([]int16, capacity),
		t:        make([]int16, capacity),
		lastPos:  capacity - 1,
		capacity: capacity,
	}
}

// Cap returns the ring's fixed capacity.
func (r *SampleRing) Cap() int { return r.capacity }

// Len returns the number of samples written so far, capped at capacity.
func (r *SampleRing) Len() int {
	if r.count > r.capacity {
		return r.capacity
	}
	return r.count
}

// Append writes one sample into the next slot, advancing the cursor.
// Single producer: callers must serialize their own calls.
func (r *SampleRing) Append(ts float64, u, v, w, t int16) {
	r.lastPos = (r.lastPos + 1) % r.capacity
	r.ts[r.lastPos] = ts
	r.u[r.lastPos] = u
	r.v[r.lastPos] = v
	r.w[r.lastPos] = w
	r.t[r.lastPos] = t
	r.count++
}

// Snapshot returns a freshly allocated, chronologically ordered copy of
// all capacity slots, starting at lastPos+1 mod N; before the ring is
// full, the never-written (zero-valued) slots come first. Both
// wrap branches copy every field, including the timestamp array (see the
// design note on a teacher-observed bug where one variant dropped the
// timestamp copy on the wrap branch).
func (r *SampleRing) Snapshot() (ts []float64, u, v, w, t []int16) {
	n := r.capacity
	ts = make([]float64, n)
	u = make([]int16, n)
	v = make([]int16, n)
	w = make([]int16, n)
	t = make([]int16, n)

	start := (r.lastPos + 1) % n
	for i := 0; i < n; i++ {
		src := (start + i) % n
		ts[i] = r.ts[src]
		u[i] = r.u[src]
		v[i] = r.v[src]
		w[i] = r.w[src]
		t[i] = r.t[src]
	}

	return ts, u, v, w, t
}

// SampleRaw returns the most recent size samples in write order, i.e.
// the contiguous run ending at lastPos. The caller must ensure size does
// not exceed the number of samples actually written; when the ring is
// not yet full, indices before 0 are clamped to 0 rather than wrapped.
func (r *SampleRing) SampleRaw(size int) (u, v, w, t []int16) {
	n := r.capacity
	u = make([]int16, size)
	v = make([]int16, size)
	w = make([]int16, size)
	t = make([]int16, size)

	start := r.lastPos - size + 1
	for i := 0; i < size; i++ {
		idx := start + i
		if idx < 0 {
			if r.count < n {
				idx = 0
			} else {
				idx += n
			}
		}
		idx = idx % n
		u[i] = r.u[idx]
		v[i] = r.v[idx]
		w[i] = r.w[idx]
		t[i] = r.t[idx]
	}

	return u, v, w, t
}

// SampleRandom draws size indices uniformly, with replacement, from the
// last `pool` writes and converts raw cm/s int16 values to m/s float64
// (x0.01). rng.Intn gives a uniform distribution directly, so unlike a
// naive `rand() % pool` there is no modulo bias here, within the Go
// runtime's documented PRNG uniformity.
func (r *SampleRing) SampleRandom(size, pool int, rng *rand.Rand) (u, v, w []float64) {
	n := r.capacity
	if pool > n {
		pool = n
	}

	indices := make([]int, size)
	for i := range indices {
		offset := rng.Intn(pool)
		idx := r.lastPos - offset
		if idx < 0 {
			idx += n
		}
		indices[i] = idx % n
	}

	u = lo.Map(indices, func(idx int, _ int) float64 { return float64(r.u[idx]) * 0.01 })
	v = lo.Map(indices, func(idx int, _ int) float64 { return float64(r.v[idx]) * 0.01 })
	w = lo.Map(indices, func(idx int, _ int) float64 { return float64(r.w[idx]) * 0.01 })

	return u, v, w
}

// LastPos returns the cursor index of the most recently written slot.
func (r *SampleRing) LastPos() int { return r.lastPos }
