package status_test

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usonic/usa-acq/status"
)

func sample() status.Snapshot {
	return status.Snapshot{
		UptimeSeconds: 3725.5,
		WallClock:     time.Date(2026, 7, 31, 11, 30, 0, 0, time.UTC),
		TotalPackets:  1000,
		ValidPackets:  980,
		LastU:         123,
		LastV:         -45,
		LastW:         6,
		LastT:         2100,
	}
}

func TestWriteTextContainsBothSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.txt")
	require.NoError(t, status.WriteText(path, sample()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "[Timing]")
	assert.Contains(t, text, "[Packets]")
	assert.Contains(t, text, "Total=1000")
	assert.Contains(t, text, "Valid=980")
	assert.Contains(t, text, "LastV=-45")
}

func TestWriteBinaryPacksFieldsInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.bin")
	s := sample()
	require.NoError(t, status.WriteBinary(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 8+8+8+8+2+2+2+2)

	r := newReader(data)
	assert.InDelta(t, s.UptimeSeconds, r.float64(), 1e-9)
	assert.Equal(t, s.WallClock.UTC().Unix(), r.int64())
	assert.Equal(t, s.TotalPackets, r.int64())
	assert.Equal(t, s.ValidPackets, r.int64())
	assert.Equal(t, s.LastU, r.int16())
	assert.Equal(t, s.LastV, r.int16())
	assert.Equal(t, s.LastW, r.int16())
	assert.Equal(t, s.LastT, r.int16())
}

func TestPublishWritesBothSiblings(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "UsaStatus.txt")
	binPath := filepath.Join(dir, "UsaStatus.bin")
	require.NoError(t, status.Publish(textPath, binPath, sample()))

	_, err := os.Stat(textPath)
	assert.NoError(t, err)
	_, err = os.Stat(binPath)
	assert.NoError(t, err)
}

type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) float64() float64 {
	v := binary.LittleEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return math.Float64frombits(v)
}

func (r *reader) int64() int64 {
	v := int64(binary.LittleEndian.Uint64(r.data[r.pos : r.pos+8]))
	r.pos += 8
	return v
}

func (r *reader) int16() int16 {
	v := int16(binary.LittleEndian.Uint16(r.data[r.pos : r.pos+2]))
	r.pos += 2
	return v
}

