package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotate2DPreservesVectorNorm(t *testing.T) {
	x, y := 3.7, -2.1
	angle := 0.83
	xr, yr := rotate2D(angle, x, y)
	assert.InDelta(t, x*x+y*y, xr*xr+yr*yr, 1e-9)
}

func TestRotate2DZeroesCrosswindComponent(t *testing.T) {
	ubar, vbar := 4.0, 3.0
	theta := math.Atan2(vbar, ubar)
	ubarR, vbarR := rotate2D(theta, ubar, vbar)
	assert.InDelta(t, 0, vbarR, 1e-9)
	assert.InDelta(t, math.Hypot(ubar, vbar), ubarR, 1e-9)
}

func TestRotateCov2DPreservesTrace(t *testing.T) {
	xx, xy, yy := 1.5, 0.4, 2.2
	angle := 1.1
	xxr, yyr, _ := rotateCov2D(angle, xx, xy, yy)
	assert.InDelta(t, xx+yy, xxr+yyr, 1e-9)
}

func TestSecondRotationZeroesVerticalMeanWhenFirstRotationAlreadyAlignsToU(t *testing.T) {
	// With a pure along-axis mean wind (vbar=0) and a non-zero mean
	// vertical wind, the second rotation must zero that component after
	// the two rotations compose.
	a := accumulator{n: 1}
	a.add(5.0, 0.0, 1.0, 20.0)

	theta := math.Atan2(a.sv/float64(a.n), a.su/float64(a.n))
	ubarR, wbarR := rotate2D(theta, a.su/float64(a.n), a.sw/float64(a.n))
	_ = ubarR

	// phi computed from covariances is degenerate for a single sample
	// (all second moments collapse to zero variance); exercise the
	// rotation directly against the mean instead to check w_s -> 0 when
	// phi is chosen as atan2(wbar_r, ubar_r).
	phi := math.Atan2(wbarR, ubarR)
	_, wbarS := rotate2D(phi, ubarR, wbarR)
	assert.InDelta(t, 0, wbarS, 1e-9)
}

func TestReduceEmptyAccumulatorReturnsSentinelWindow(t *testing.T) {
	w := reduce(accumulator{}, 10, 60, 5)
	assert.Equal(t, 0, w.N)
	assert.Equal(t, float64(10), w.From)
	assert.Equal(t, float64(60), w.Depth)
}
