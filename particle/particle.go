// Package particle implements the two Lagrangian particle engines that
// share a fixed-capacity particle ring: a forward plume (source
// generation plus advection with ground reflection) and a backward
// footprint (single-particle seeding plus backward advection with hit
// recording).
package particle

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/alitto/pond"
	"github.com/samber/lo"
)

const maxSources = 999

// Source is one forward-plume emission point.
type Source struct {
	E, N, H, Mass float64
}

// unseeded marks a ring slot that has never been written by push: it
// must compare unequal to every flag value either engine assigns
// (plume's isValid=1, footprint's hasReachedGround 0 or 1), so an
// engine that hasn't yet filled its ring doesn't mistake empty slots
// for live particles sitting at the origin.
const unseeded int16 = -1

// ParticleRing is the fixed-capacity, single-producer ring shared by
// both engines: positions x,y,z, a forward-only mass, and a flag field
// whose meaning depends on the owning engine (valid-particle marker for
// the plume, reached-ground marker for the footprint). Slots never
// reached by push stay at the unseeded sentinel, not at the owning
// engine's zero-value flag, so a partially filled ring never reports
// stale or phantom particles.
type ParticleRing struct {
	x, y, z  []float64
	mass     []float64
	flag     []int16
	lastPos  int
	capacity int
}

// NewParticleRing allocates a ring of the given capacity with every
// slot marked unseeded.
func NewParticleRing(capacity int) *ParticleRing {
	flag := make([]int16, capacity)
	for i := range flag {
		flag[i] = unseeded
	}
	return &ParticleRing{
		x:        make([]float64, capacity),
		y:        make([]float64, capacity),
		z:        make([]float64, capacity),
		mass:     make([]float64, capacity),
		flag:     flag,
		lastPos:  capacity - 1,
		capacity: capacity,
	}
}

// X, Y, Z, Mass, and Flag expose per-slot state, mainly for tests and
// the archive exporter.
func (r *ParticleRing) X(i int) float64    { return r.x[i] }
func (r *ParticleRing) Y(i int) float64    { return r.y[i] }
func (r *ParticleRing) Z(i int) float64    { return r.z[i] }
func (r *ParticleRing) Mass(i int) float64 { return r.mass[i] }
func (r *ParticleRing) Flag(i int) int16   { return r.flag[i] }

// Capacity returns the ring's fixed capacity.
func (r *ParticleRing) Capacity() int { return r.capacity }

func (r *ParticleRing) push(x, y, z, mass float64, flag int16) {
	r.lastPos = (r.lastPos + 1) % r.capacity
	r.x[r.lastPos] = x
	r.y[r.lastPos] = y
	r.z[r.lastPos] = z
	r.mass[r.lastPos] = mass
	r.flag[r.lastPos] = flag
}

// HitRing is the fixed-capacity ring of recorded footprint ground hits.
type HitRing struct {
	ts       []float64
	x, y     []float64
	lastPos  int
	capacity int
	count    int
}

// NewHitRing allocates a hit ring of the given capacity.
func NewHitRing(capacity int) *HitRing {
	return &HitRing{
		ts:       make([]float64, capacity),
		x:        make([]float64, capacity),
		y:        make([]float64, capacity),
		lastPos:  capacity - 1,
		capacity: capacity,
	}
}

// Count returns the number of hits recorded so far, capped at capacity.
func (h *HitRing) Count() int { return h.count }

func (h *HitRing) record(ts, x, y float64) {
	h.lastPos = (h.lastPos + 1) % h.capacity
	h.ts[h.lastPos] = ts
	h.x[h.lastPos] = x
	h.y[h.lastPos] = y
	if h.count < h.capacity {
		h.count++
	}
}

// PlumeEngine is the forward-dispersion engine: sources emit fresh
// particles each step, and every valid particle advects downwind with
// perfect ground reflection.
type PlumeEngine struct {
	ring *ParticleRing
}

// NewPlumeEngine allocates a plume engine with the given particle ring
// capacity.
func NewPlumeEngine(capacity int) *PlumeEngine {
	return &PlumeEngine{ring: NewParticleRing(capacity)}
}

// Generate emits perStep-1 fresh particles at each source's location,
// per spec.md 4.5.
func (p *PlumeEngine) Generate(sources []Source, perStep int) {
	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	for _, s := range sources {
		for i := 0; i < perStep-1; i++ {
			p.ring.push(s.E, s.N, s.H, s.Mass, 1)
		}
	}
}

// Advect steps every valid particle forward by one Euler step under the
// sampled turbulent wind (smpU, smpV, smpW, each drawn with replacement
// by the caller from the circular sample buffer via ring.SampleRandom),
// reflecting off the ground. Particle i draws from sample i mod
// len(smpU). The per-particle loop is fanned out across a bounded
// worker pool and blocks until every worker completes.
func (p *PlumeEngine) Advect(smpU, smpV, smpW []float64, freq float64) {
	dt := 1.0 / freq
	n := p.ring.capacity
	pool := len(smpU)
	if pool == 0 {
		return
	}

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	chunkSize := (n + workers - 1) / workers
	if chunkSize == 0 {
		chunkSize = 1
	}

	wp := pond.New(workers, 0, pond.MinWorkers(workers))
	for start := 0; start < n; start += chunkSize {
		start := start
		end := start + chunkSize
		if end > n {
			end = n
		}
		wp.Submit(func() {
			for i := start; i < end; i++ {
				if p.ring.flag[i] != 1 {
					continue
				}
				s := i % pool
				p.ring.x[i] += smpU[s] * dt
				p.ring.y[i] += smpV[s] * dt
				p.ring.z[i] += smpW[s] * dt
				if p.ring.z[i] < 0 {
					p.ring.z[i] = -p.ring.z[i]
				}
			}
		})
	}
	wp.StopAndWait()
}

// Dump writes every valid, in-bounds particle as decimeter-quantized
// (x,y,z) CSV triples, per spec.md 4.5.
func (p *PlumeEngine) Dump(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	inBounds := lo.Filter(lo.Range(p.ring.capacity), func(i, _ int) bool {
		if p.ring.flag[i] != 1 {
			return false
		}
		x, y, z := p.ring.x[i], p.ring.y[i], p.ring.z[i]
		return math.Abs(x) < 3276 && math.Abs(y) < 3276 && math.Abs(z) < 3276
	})
	for _, i := range inBounds {
		x, y, z := p.ring.x[i], p.ring.y[i], p.ring.z[i]
		fmt.Fprintf(w, "%d,%d,%d\n", int(math.Floor(x*10)), int(math.Floor(y*10)), int(math.Floor(z*10)))
	}
	return w.Flush()
}

// Ring exposes the underlying particle ring, mainly for tests.
func (p *PlumeEngine) Ring() *ParticleRing { return p.ring }

// FootprintEngine is the backward-advection engine: a single seeded
// particle is advected against the sampled wind until it crosses the
// ground, at which point the crossing is recorded into the hit ring and
// the particle stops contributing.
type FootprintEngine struct {
	ring *ParticleRing
	hits *HitRing
}

// NewFootprintEngine allocates a footprint engine with the given
// particle and hit ring capacities.
func NewFootprintEngine(particleCapacity, hitCapacity int) *FootprintEngine {
	return &FootprintEngine{
		ring: NewParticleRing(particleCapacity),
		hits: NewHitRing(hitCapacity),
	}
}

// Seed appends one particle at (0,0,initialAltitude), not yet grounded.
func (f *FootprintEngine) Seed(initialAltitude float64) {
	f.ring.push(0, 0, initialAltitude, 0, 0)
}

// AdvectBack steps every un-grounded particle backward under the
// sampled wind (drawn by the caller via ring.SampleRandom), recording a
// ground hit the step it crosses z=0 and marking that particle grounded
// so it cannot contribute again.
func (f *FootprintEngine) AdvectBack(smpU, smpV, smpW []float64, freq, now float64) {
	dt := 1.0 / freq
	pool := len(smpU)
	if pool == 0 {
		return
	}
	for i := 0; i < f.ring.capacity; i++ {
		if f.ring.flag[i] != 0 {
			continue
		}
		s := i % pool
		f.ring.x[i] -= smpU[s] * dt
		f.ring.y[i] -= smpV[s] * dt
		f.ring.z[i] -= smpW[s] * dt
		if f.ring.z[i] < 0 {
			f.hits.record(now, f.ring.x[i], f.ring.y[i])
			f.ring.flag[i] = 1
		}
	}
}

// DumpFootprintResult is the centroid/spread summary of one footprint
// window.
type DumpFootprintResult struct {
	AvgX, AvgY, R, Eccentricity float64
}

func emptyFootprint() DumpFootprintResult {
	return DumpFootprintResult{AvgX: -9999.9, AvgY: -9999.9, R: -9999.9, Eccentricity: -9999.9}
}

// DumpFootprint computes the centroid, radius, and eccentricity of
// every hit within (now-dt, now], per spec.md 4.6.
func (f *FootprintEngine) DumpFootprint(now, dt float64) DumpFootprintResult {
	hitIdx := lo.Filter(lo.Range(f.hits.count), func(i, _ int) bool {
		return f.hits.ts[i] > now-dt && f.hits.ts[i] <= now
	})
	xs := lo.Map(hitIdx, func(i, _ int) float64 { return f.hits.x[i] })
	ys := lo.Map(hitIdx, func(i, _ int) float64 { return f.hits.y[i] })
	if len(xs) == 0 {
		return emptyFootprint()
	}

	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	avgX, avgY := sx/n, sy/n

	var varX, varY float64
	for i := range xs {
		dx := xs[i] - avgX
		dy := ys[i] - avgY
		varX += dx * dx
		varY += dy * dy
	}
	varX /= n
	varY /= n

	r := math.Sqrt(varX + varY)
	hi, low := varX, varY
	if low > hi {
		hi, low = low, hi
	}
	var ecc float64
	if hi > 0 {
		ecc = math.Sqrt(1 - low/hi)
	}

	return DumpFootprintResult{AvgX: avgX, AvgY: avgY, R: r, Eccentricity: ecc}
}

// Ring exposes the underlying particle ring, mainly for tests.
func (f *FootprintEngine) Ring() *ParticleRing { return f.ring }

// Hits exposes the underlying hit ring, mainly for tests.
func (f *FootprintEngine) Hits() *HitRing { return f.hits }

// WriteFootprintResult writes r to path as four lines, avgX, avgY, r,
// then eccentricity, matching the original dump_footprint's output.
func WriteFootprintResult(path string, r DumpFootprintResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%f\n", r.AvgX)
	fmt.Fprintf(w, "%f\n", r.AvgY)
	fmt.Fprintf(w, "%f\n", r.R)
	fmt.Fprintf(w, "%f\n", r.Eccentricity)
	return w.Flush()
}
