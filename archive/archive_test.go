package archive_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usonic/usa-acq/archive"
	"github.com/usonic/usa-acq/rawfile"
)

func TestRawSampleRecordHoldsOneSlicePerColumn(t *testing.T) {
	rec := archive.RawSampleRecord{
		Timestamp: []time.Time{time.Unix(0, 0), time.Unix(1, 0)},
		U:         []float64{1.0, 2.0},
		V:         []float64{0, 0},
		W:         []float64{0, 0},
		Temp:      []float64{20.0, 20.1},
	}
	assert.Len(t, rec.Timestamp, 2)
	assert.Equal(t, 2.0, rec.U[1])
}

func TestWindowRecordHoldsStatisticsColumns(t *testing.T) {
	rec := archive.WindowRecord{
		Timestamp: []time.Time{time.Unix(0, 0)},
		N:         []float64{100},
		Velocity:  []float64{5.0},
		Direction: []float64{180.0},
	}
	assert.Equal(t, 180.0, rec.Direction[0])
}

func TestDecodeRawFileConvertsToPhysicalUnits(t *testing.T) {
	dir := t.TempDir()
	hour := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	w, err := rawfile.New(dir, rawfile.ExtThreeD, hour)
	require.NoError(t, err)
	require.NoError(t, w.Write([5]int16{30, 100, -50, -10, 2000})) // tsIntraHour=30s, UVWT sample
	require.NoError(t, w.Close())

	rec, err := archive.DecodeRawFile(filepath.Join(dir, "20260731.10R"))
	require.NoError(t, err)
	require.Len(t, rec.Timestamp, 1)
	assert.True(t, hour.Add(30*time.Second).Equal(rec.Timestamp[0]))
	assert.InDelta(t, 1.0, rec.U[0], 1e-9)
	assert.InDelta(t, -0.5, rec.V[0], 1e-9)
	assert.InDelta(t, -0.1, rec.W[0], 1e-9)
	assert.InDelta(t, 20.0, rec.Temp[0], 1e-9)
}

func TestDecodeRawFileSkipsAnalogBlocks(t *testing.T) {
	dir := t.TempDir()
	hour := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)

	w, err := rawfile.New(dir, rawfile.ExtThreeD, hour)
	require.NoError(t, err)
	require.NoError(t, w.Write([5]int16{30, 100, -50, -10, 2000}))    // UVWT
	require.NoError(t, w.Write([5]int16{5030, 1, 2, 3, 4}))           // analog block 1
	require.NoError(t, w.Close())

	rec, err := archive.DecodeRawFile(filepath.Join(dir, "20260731.10R"))
	require.NoError(t, err)
	assert.Len(t, rec.Timestamp, 1)
}
