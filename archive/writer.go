package archive

import (
	"errors"
	"time"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// WriteRawSamples archives one contiguous run of decoded samples
// (already converted to m/s and degrees C) as a new dense TileDB array
// at uri.
func WriteRawSamples(ctx *tiledb.Context, uri string, rec RawSampleRecord) error {
	if len(rec.Timestamp) == 0 {
		return nil
	}
	schema, err := denseTimeSchema(ctx, &RawSampleRecord{}, uint64(len(rec.Timestamp)))
	if err != nil {
		return errors.Join(ErrCreateSampleTdb, err)
	}

	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return errors.Join(ErrCreateSampleTdb, err)
	}
	defer array.Free()
	if err := array.Create(schema); err != nil {
		return errors.Join(ErrCreateSampleTdb, err)
	}

	if err := array.Open(tiledb.TILEDB_WRITE); err != nil {
		return errors.Join(ErrWriteSampleTdb, err)
	}
	defer array.Close()

	query, err := tiledb.NewQuery(ctx, array)
	if err != nil {
		return errors.Join(ErrWriteSampleTdb, err)
	}
	defer query.Free()
	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Join(ErrWriteSampleTdb, err)
	}

	fields := map[string][]float64{"U": rec.U, "V": rec.V, "W": rec.W, "Temp": rec.Temp}
	if err := bindFieldBuffers(query, fields, rec.Timestamp); err != nil {
		return errors.Join(ErrWriteSampleTdb, err)
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrWriteSampleTdb, err)
	}
	return nil
}

// WriteWindows archives one batch of multi-window statistics output as
// a new dense TileDB array at uri.
func WriteWindows(ctx *tiledb.Context, uri string, rec WindowRecord) error {
	if len(rec.Timestamp) == 0 {
		return nil
	}
	schema, err := denseTimeSchema(ctx, &WindowRecord{}, uint64(len(rec.Timestamp)))
	if err != nil {
		return errors.Join(ErrCreateStatsTdb, err)
	}

	array, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return errors.Join(ErrCreateStatsTdb, err)
	}
	defer array.Free()
	if err := array.Create(schema); err != nil {
		return errors.Join(ErrCreateStatsTdb, err)
	}

	if err := array.Open(tiledb.TILEDB_WRITE); err != nil {
		return errors.Join(ErrWriteStatsTdb, err)
	}
	defer array.Close()

	query, err := tiledb.NewQuery(ctx, array)
	if err != nil {
		return errors.Join(ErrWriteStatsTdb, err)
	}
	defer query.Free()
	if err := query.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return errors.Join(ErrWriteStatsTdb, err)
	}

	fields := map[string][]float64{
		"DepthSeconds": rec.DepthSeconds, "N": rec.N,
		"MeanU": rec.MeanU, "MeanV": rec.MeanV, "MeanW": rec.MeanW, "MeanTemp": rec.MeanTemp,
		"Velocity": rec.Velocity, "Direction": rec.Direction,
		"UStar": rec.UStar, "H0": rec.H0, "InverseL": rec.InverseL,
	}
	if err := bindFieldBuffers(query, fields, rec.Timestamp); err != nil {
		return errors.Join(ErrWriteStatsTdb, err)
	}

	if err := query.Submit(); err != nil {
		return errors.Join(ErrWriteStatsTdb, err)
	}
	return nil
}

func bindFieldBuffers(query *tiledb.Query, fields map[string][]float64, timestamps []time.Time) error {
	nanos := make([]int64, len(timestamps))
	for i, ts := range timestamps {
		nanos[i] = ts.UnixNano()
	}
	if _, err := query.SetDataBuffer("Timestamp", nanos); err != nil {
		return errors.Join(ErrSetBuff, err)
	}
	for name, slc := range fields {
		if _, err := query.SetDataBuffer(name, slc); err != nil {
			return errors.Join(ErrSetBuff, err, errors.New(name))
		}
	}
	return nil
}
