package decode_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usonic/usa-acq/decode"
)

// frame builds a well-formed 41-byte instrument frame: a 2-byte header,
// a 2-byte selector (e.g. "x ", "a0", "a4"), and four 6-wide decimal
// fields at byte offsets 5, 15, 25 and 35, matching spec.md 4.1.
func frame(selector string, v1, v2, v3, v4 int) []byte {
	buf := make([]byte, 41)
	for i := range buf {
		buf[i] = ' '
	}
	buf[0], buf[1] = 0, 0
	buf[2], buf[3] = selector[0], selector[1]

	put := func(start, v int) {
		copy(buf[start:start+6], []byte(fmt.Sprintf("%6d", v)))
	}
	put(5, v1)
	put(15, v2)
	put(25, v3)
	put(35, v4)

	return buf
}

func TestReadValueAcceptsPaddedDigits(t *testing.T) {
	v := decode.ReadValue([]byte("   100"), 0, 6)
	assert.EqualValues(t, 100, v)
}

func TestReadValueAcceptsNegative(t *testing.T) {
	v := decode.ReadValue([]byte("   -50"), 0, 6)
	assert.EqualValues(t, -50, v)
}

func TestReadValueRejectsTwoMinusSigns(t *testing.T) {
	v := decode.ReadValue([]byte("--1000"), 0, 6)
	assert.EqualValues(t, -9999, v)
}

func TestReadValueRejectsNoDigits(t *testing.T) {
	v := decode.ReadValue([]byte("      "), 0, 6)
	assert.EqualValues(t, -9999, v)
}

func TestReadValueRejectsJunkByte(t *testing.T) {
	v := decode.ReadValue([]byte("  1x00"), 0, 6)
	assert.EqualValues(t, -9999, v)
}

func TestGapMarker(t *testing.T) {
	got := decode.Line(7, []byte("M\n")[:1], decode.ThreeD, false)
	require.Equal(t, decode.RecordUVWT, got.Type)
	assert.EqualValues(t, [5]int16{7, -9999, -9999, -9999, -9999}, got.Out)
}

func TestHGapMarker(t *testing.T) {
	got := decode.Line(12, []byte("H\n")[:1], decode.ThreeD, false)
	require.Equal(t, decode.RecordUVWT, got.Type)
	assert.EqualValues(t, [5]int16{12, -9999, -9999, -9999, -9999}, got.Out)
}

func Test3DxLine(t *testing.T) {
	line := frame("x ", 100, -50, -10, 230)
	require.Len(t, line, 41)

	got := decode.Line(1800, line, decode.ThreeD, false)
	require.Equal(t, decode.RecordUVWT, got.Type)
	assert.EqualValues(t, [5]int16{1800, 100, -50, -10, 230}, got.Out)
}

func TestUSA1LegacySwapsUV(t *testing.T) {
	line := frame("x ", 100, -50, -10, 230)
	got := decode.Line(1800, line, decode.USA1Legacy, false)
	require.Equal(t, decode.RecordUVWT, got.Type)
	assert.EqualValues(t, [5]int16{1800, -50, 100, -10, 230}, got.Out)
}

func TestAnalogBlock1(t *testing.T) {
	line := frame("a0", 100, -50, -10, 230)
	got := decode.Line(1800, line, decode.ThreeD, false)
	require.Equal(t, decode.RecordAnalog1, got.Type)
	assert.EqualValues(t, 1800+5000, got.Out[0])
}

func TestAnalogBlock1AltSelector(t *testing.T) {
	line := frame("e1", 100, -50, -10, 230)
	got := decode.Line(1800, line, decode.ThreeD, false)
	require.Equal(t, decode.RecordAnalog1, got.Type)
}

func TestAnalogBlock2(t *testing.T) {
	line := frame("a4", 100, -50, -10, 230)
	got := decode.Line(1800, line, decode.ThreeD, false)
	require.Equal(t, decode.RecordAnalog2, got.Type)
	assert.EqualValues(t, 1800+10000, got.Out[0])
}

func TestAnalogValuesAreMaskedUnsigned(t *testing.T) {
	line := frame("a0", -1, 0, 0, 0)
	got := decode.Line(0, line, decode.ThreeD, false)
	require.Equal(t, decode.RecordAnalog1, got.Type)
	assert.EqualValues(t, uint16(0xFFFF), uint16(got.Out[1]))
}

func TestUnrecognized41ByteFrameSkips(t *testing.T) {
	line := frame("zz", 100, -50, -10, 230)
	got := decode.Line(1800, line, decode.ThreeD, false)
	assert.Equal(t, decode.RecordSkip, got.Type)
}

func TestRecordTypeEncodingRoundTrip(t *testing.T) {
	for ts := int16(0); ts < 3600; ts += 733 {
		for _, tc := range []struct {
			rt       decode.RecordType
			selector string
		}{
			{decode.RecordUVWT, "x "},
			{decode.RecordAnalog1, "a0"},
			{decode.RecordAnalog2, "a4"},
		} {
			line := frame(tc.selector, 100, -50, -10, 230)
			got := decode.Line(ts, line, decode.ThreeD, false)
			require.Equal(t, tc.rt, got.Type)
			assert.EqualValues(t, int(ts)+(int(tc.rt)-1)*5000, got.Out[0])
		}
	}
}

func TestLengthTwoNonGapSkips(t *testing.T) {
	got := decode.Line(7, []byte("xx"), decode.ThreeD, false)
	assert.Equal(t, decode.RecordSkip, got.Type)
}

func TestShortOrOverlongFramesSkip(t *testing.T) {
	for _, n := range []int{0, 1, 3, 40, 42} {
		got := decode.Line(0, make([]byte, n), decode.ThreeD, false)
		assert.Equal(t, decode.RecordSkip, got.Type)
	}
}
