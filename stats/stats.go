// Package stats implements the multi-window eddy-covariance statistics
// engine: per-depth first and second moments, double-rotated
// covariances, and derived micrometeorological scalars (u*, H0, 1/L).
package stats

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/alitto/pond"
	"github.com/samber/lo"

	"github.com/usonic/usa-acq"
)

var ErrTooManyWindows = usa.ErrTooManyWindows
var ErrOpen = errors.New("error opening statistics output file")

const maxWindows = 16

// Window is one computed statistics record, per spec.md 4.4/3.
type Window struct {
	From, Depth                          float64
	N                                    int
	Vel, Dir, TAvg, ScalarVel, VelStd    float64
	UAvg, VAvg, WAvg                     float64
	UStd, VStd, WStd, TStd               float64
	UVCov, UWCov, VWCov                  float64
	UTCov, VTCov, WTCov                  float64
	UStar, H0, LM1                       float64
	PitchDeg                             float64
}

func emptyWindow(from, depth float64) Window {
	return Window{
		From: from, Depth: depth, N: 0,
		Vel: usa.InvalidF, Dir: usa.InvalidF, TAvg: usa.InvalidF,
		ScalarVel: usa.InvalidF, VelStd: usa.InvalidF,
		UAvg: usa.InvalidF, VAvg: usa.InvalidF, WAvg: usa.InvalidF,
		UStd: usa.InvalidF, VStd: usa.InvalidF, WStd: usa.InvalidF, TStd: usa.InvalidF,
		UVCov: usa.InvalidF, UWCov: usa.InvalidF, VWCov: usa.InvalidF,
		UTCov: usa.InvalidF, VTCov: usa.InvalidF, WTCov: usa.InvalidF,
		UStar: usa.InvalidF, H0: usa.InvalidF, LM1: usa.InvalidF, PitchDeg: usa.InvalidF,
	}
}

// accumulator holds the raw (unrotated, SI-unit) sums for one window.
type accumulator struct {
	n                          int
	su, sv, sw, st             float64
	suu, svv, sww, stt         float64
	suv, suw, svw, sut, svt, swt float64
	svh, svel2                 float64
}

func (a *accumulator) add(u, v, w, t float64) {
	a.n++
	a.su += u
	a.sv += v
	a.sw += w
	a.st += t
	a.suu += u * u
	a.svv += v * v
	a.sww += w * w
	a.stt += t * t
	a.suv += u * v
	a.suw += u * w
	a.svw += v * w
	a.sut += u * t
	a.svt += v * t
	a.swt += w * t
	vh := math.Hypot(u, v)
	a.svh += vh
	a.svel2 += u*u + v*v
}

func (a *accumulator) merge(b accumulator) {
	a.n += b.n
	a.su += b.su
	a.sv += b.sv
	a.sw += b.sw
	a.st += b.st
	a.suu += b.suu
	a.svv += b.svv
	a.sww += b.sww
	a.stt += b.stt
	a.suv += b.suv
	a.suw += b.suw
	a.svw += b.svw
	a.sut += b.sut
	a.svt += b.svt
	a.swt += b.swt
	a.svh += b.svh
	a.svel2 += b.svel2
}

// Compute runs the statistics engine over one chronologically ordered
// snapshot, against an increasing depths vector (seconds), for a
// station at altitude z metres. now is the high-resolution reference
// timestamp the depths are measured back from.
func Compute(ts []float64, u, v, w, t []int16, now, z float64, depths []float64) ([]Window, error) {
	m := len(depths)
	if m > maxWindows {
		return nil, ErrTooManyWindows
	}

	from := lo.Map(depths, func(d float64, _ int) float64 { return now - d })

	accs := computeAccumulators(ts, u, v, w, t, now, from)

	// cumulate: window i ends up covering everything within depths[i].
	for i := 1; i < m; i++ {
		accs[i].merge(accs[i-1])
	}

	windows := make([]Window, m)
	for i := 0; i < m; i++ {
		windows[i] = reduce(accs[i], from[i], depths[i], z)
	}

	return windows, nil
}

// computeAccumulators performs the single incremental pass assigning
// each sample to its innermost-fitting window, fanning the pass out
// across a small worker pool and merging partial results. The merge
// order is fixed (by chunk index), so repeated calls on the same inputs
// are bit-identical.
func computeAccumulators(ts []float64, u, v, w, t []int16, now float64, from []float64) []accumulator {
	m := len(from)
	n := len(ts)

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}
	chunkSize := (n + workers - 1) / workers
	if chunkSize == 0 {
		chunkSize = 1
	}
	nChunks := (n + chunkSize - 1) / chunkSize
	if nChunks == 0 {
		return make([]accumulator, m)
	}

	partials := make([][]accumulator, nChunks)
	pool := pond.New(workers, nChunks)
	for c := 0; c < nChunks; c++ {
		c := c
		start := c * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		pool.Submit(func() {
			local := make([]accumulator, m)
			for k := start; k < end; k++ {
				tsk := ts[k]
				if tsk > now {
					continue
				}
				idx := -1
				for i := 0; i < m; i++ {
					if from[i] < tsk {
						idx = i
						break
					}
				}
				if idx == -1 {
					continue
				}
				local[idx].add(float64(u[k])*0.01, float64(v[k])*0.01, float64(w[k])*0.01, float64(t[k])*0.01)
			}
			partials[c] = local
		})
	}
	pool.StopAndWait()

	merged := make([]accumulator, m)
	for c := 0; c < nChunks; c++ {
		for i := 0; i < m; i++ {
			merged[i].merge(partials[c][i])
		}
	}
	return merged
}

// rotate2D applies the standard 2D axis rotation to a vector-like pair.
func rotate2D(angle, x, y float64) (xr, yr float64) {
	s, c := math.Sincos(angle)
	return x*c + y*s, -x*s + y*c
}

// rotateCov2D applies the closed-form double-angle rotation to a 2x2
// symmetric covariance block (xx, xy; xy, yy).
func rotateCov2D(angle, xx, xy, yy float64) (xxr, yyr, xyr float64) {
	s2, c2 := math.Sincos(2 * angle)
	half := 0.5 * (xx + yy)
	diff := 0.5 * (xx - yy)
	xxr = half + diff*c2 + xy*s2
	yyr = half - diff*c2 - xy*s2
	xyr = 0.5*(yy-xx)*s2 + xy*c2
	return xxr, yyr, xyr
}

func reduce(a accumulator, from, depth, z float64) Window {
	if a.n == 0 {
		return emptyWindow(from, depth)
	}

	n := float64(a.n)
	ubar, vbar, wbar, tbar := a.su/n, a.sv/n, a.sw/n, a.st/n
	uu := a.suu/n - ubar*ubar
	vv := a.svv/n - vbar*vbar
	ww := a.sww/n - wbar*wbar
	uv := a.suv/n - ubar*vbar
	uw := a.suw/n - ubar*wbar
	vw := a.svw/n - vbar*wbar
	ut := a.sut/n - ubar*tbar
	vt := a.svt/n - vbar*tbar
	wt := a.swt/n - wbar*tbar

	// first rotation: yaw.
	theta := math.Atan2(vbar, ubar)
	utR, vtR := rotate2D(theta, ut, vt)
	uwR, vwR := rotate2D(theta, uw, vw)
	uuR, vvR, uvR := rotateCov2D(theta, uu, uv, vv)
	wwR := ww
	wtR := wt

	// second rotation: pitch, per spec.md 4.4 step 6.
	phi := 0.5 * math.Atan2(2*vwR, vvR-wwR)
	utS, wtS := rotate2D(phi, utR, wtR)
	uvS, vwS := rotate2D(phi, uvR, vwR)
	uuS, wwS, uwS := rotateCov2D(phi, uuR, uwR, wwR)
	vvS := vvR
	vtS := vtR

	vel := math.Hypot(ubar, vbar)
	dirRad := math.Atan2(-vbar, -ubar)
	dirDeg := dirRad * 180 / math.Pi
	if dirDeg < 0 {
		dirDeg += 360
	}

	scalarVel := a.svh / n
	velStd := math.Sqrt(math.Max(0, a.svel2/n-scalarVel*scalarVel))

	uStar := math.Pow(uwS*uwS+vwS*vwS, 0.25)
	tKelvin := tbar + 273.15
	h0 := 350.125 * 1013 * math.Exp(-0.0342*z/tKelvin) / tKelvin * wtS
	var lm1 float64
	if uStar != 0 {
		lm1 = -0.4 * 9.807 / tKelvin * wtS / (uStar * uStar * uStar)
	}

	return Window{
		From: from, Depth: depth, N: a.n,
		Vel: vel, Dir: dirDeg, TAvg: tbar, ScalarVel: scalarVel, VelStd: velStd,
		UAvg: ubar, VAvg: vbar, WAvg: wbar,
		UStd: math.Sqrt(math.Max(0, uuS)), VStd: math.Sqrt(math.Max(0, vvS)), WStd: math.Sqrt(math.Max(0, wwS)),
		TStd: math.Sqrt(math.Max(0, a.stt/n-tbar*tbar)),
		UVCov: uvS, UWCov: uwS, VWCov: vwS,
		UTCov: utS, VTCov: vtS, WTCov: wtS,
		UStar: uStar, H0: h0, LM1: lm1, PitchDeg: phi * 180 / math.Pi,
	}
}

// WriteReport serializes windows to path as a header line with the
// window count, followed by 25 lines per window, per spec.md 4.4 step 9
// / 6.
func WriteReport(path string, windows []Window) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Join(ErrOpen, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, len(windows))
	for _, win := range windows {
		for _, v := range []float64{
			win.From, win.Depth, float64(win.N), win.Vel, win.Dir, win.TAvg, win.ScalarVel, win.VelStd,
			win.UAvg, win.VAvg, win.WAvg, win.UStd, win.VStd, win.WStd, win.TStd,
			win.UVCov, win.UWCov, win.VWCov, win.UTCov, win.VTCov, win.WTCov,
			win.UStar, win.H0, win.LM1, win.PitchDeg,
		} {
			fmt.Fprintln(w, v)
		}
	}

	return w.Flush()
}
