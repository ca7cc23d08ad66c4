package archive

import (
	"path/filepath"
	"time"

	tiledb "github.com/TileDB-Inc/TileDB-Go"

	"github.com/usonic/usa-acq/rawfile"
)

// analogThreshold is the out[0] value below which a raw record is a
// UVWT sample rather than one of the two multiplexed analog blocks, per
// the tsIntraHour + (recType-1)*5000 encoding in sample.go's Decoded.
const analogThreshold = 5000

// DecodeRawFile reads one hourly raw file back into physical units,
// inverting rawfile.Writer's little-endian int16 encoding and the
// decoder's *0.01 cm/s->m/s and centidegree->degree scale. Analog-block
// records interleaved in the same file are skipped; RawSampleRecord only
// archives the anemometer channels.
func DecodeRawFile(path string) (RawSampleRecord, error) {
	hour, err := rawfile.ParseHour(path)
	if err != nil {
		return RawSampleRecord{}, err
	}
	records, err := rawfile.ReadRecords(path)
	if err != nil {
		return RawSampleRecord{}, err
	}

	rec := RawSampleRecord{
		Timestamp: make([]time.Time, 0, len(records)),
		U:         make([]float64, 0, len(records)),
		V:         make([]float64, 0, len(records)),
		W:         make([]float64, 0, len(records)),
		Temp:      make([]float64, 0, len(records)),
	}
	for _, r := range records {
		tsIntra := r[0]
		if tsIntra < 0 || tsIntra >= analogThreshold {
			continue
		}
		rec.Timestamp = append(rec.Timestamp, hour.Add(time.Duration(tsIntra)*time.Second))
		rec.U = append(rec.U, float64(r[1])*0.01)
		rec.V = append(rec.V, float64(r[2])*0.01)
		rec.W = append(rec.W, float64(r[3])*0.01)
		rec.Temp = append(rec.Temp, float64(r[4])*0.01)
	}
	return rec, nil
}

// ExportRawFile decodes the raw file at path and archives it as a new
// TileDB array under outDir, returning the array's URI.
func ExportRawFile(ctx *tiledb.Context, path, outDir string) (string, error) {
	rec, err := DecodeRawFile(path)
	if err != nil {
		return "", err
	}
	uri := filepath.Join(outDir, filepath.Base(path)+".tdb")
	if err := WriteRawSamples(ctx, uri, rec); err != nil {
		return "", err
	}
	return uri, nil
}
