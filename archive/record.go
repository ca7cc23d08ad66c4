package archive

import "time"

// RawSampleRecord is one row of the archived raw sample stream: the
// wall-clock timestamp (file hour plus the whole-second intra-hour
// offset) plus the four decoded instrument channels, already
// converted to physical units. The struct tags drive schemaAttrs the
// same way the teacher's Attitude record does: every field is a plain
// attribute with its own filter pipeline, addressed by an implicit
// row-index dimension rather than by time.
type RawSampleRecord struct {
	Timestamp []time.Time `tiledb:"dtype=datetime_ns,ftype=attr" filters:"zstd(level=16)"`
	U         []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	V         []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	W         []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	Temp      []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
}

// WindowRecord is one archived multi-window statistics row: the window
// depth plus a subset of stats.Window's fields (count, component and
// temperature means, speed, direction, u*, H0 and 1/L). The standard
// deviations, covariances and pitch angle are not archived.
type WindowRecord struct {
	Timestamp      []time.Time `tiledb:"dtype=datetime_ns,ftype=attr" filters:"zstd(level=16)"`
	DepthSeconds   []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	N              []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	MeanU          []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	MeanV          []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	MeanW          []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	MeanTemp       []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	Velocity       []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	Direction      []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	UStar          []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	H0             []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
	InverseL       []float64   `tiledb:"dtype=float64,ftype=attr" filters:"zstd(level=16)"`
}
