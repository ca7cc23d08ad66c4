// Package decode parses the fixed-width ASCII frames emitted by uSonic-3,
// uSonic-2 and legacy USA-1 sonic anemometers into fixed-point sample
// records.
package decode

import "github.com/usonic/usa-acq"

// Variant selects the wire-field ordering of the instrument being read.
type Variant = usa.Variant

const (
	ThreeD     = usa.ThreeD
	TwoD       = usa.TwoD
	USA1Legacy = usa.USA1Legacy
)

// RecordType classifies a decoded line. RecordSkip means the line was not
// recognized and carries no data; callers must not read Out in that case.
type RecordType = usa.RecordType

const (
	RecordSkip    = usa.RecordSkip
	RecordUVWT    = usa.RecordUVWT
	RecordAnalog1 = usa.RecordAnalog1
	RecordAnalog2 = usa.RecordAnalog2
)

const fieldWidth = 6

// field byte offsets within a 41-byte frame, per spec.md 4.1.
const (
	offVal1 = 5
	offVal2 = 15
	offVal3 = 25
	offVal4 = 35
)

// ReadValue extracts an nchar-wide decimal field starting at byte start
// of buf. A field is accepted only if every byte is a digit, a space, or
// (at most one) minus sign, and at least one digit is present; otherwise
// the sentinel -9999 is returned. Leading spaces are permitted (matching
// atoi's behavior on a space-padded field). The result is returned as an
// int, matching the original C readValue, so that callers needing the
// analog-block mask (0x0000FFFF) apply it before narrowing to int16.
func ReadValue(buf []byte, start, nchar int) int {
	if start < 0 || start+nchar > len(buf) {
		return int(usa.Invalid)
	}

	field := buf[start : start+nchar]

	var digits, minuses int
	for _, b := range field {
		switch {
		case b >= '0' && b <= '9':
			digits++
		case b == '-':
			minuses++
		case b == ' ':
			// permitted, counted implicitly below
		default:
			return int(usa.Invalid)
		}
	}

	if digits == 0 || minuses >= 2 {
		return int(usa.Invalid)
	}

	neg := minuses == 1
	value := 0
	for _, b := range field {
		if b >= '0' && b <= '9' {
			value = value*10 + int(b-'0')
		}
	}
	if neg {
		value = -value
	}

	return value
}

// Line decodes one serial line already stripped of its trailing line
// terminator. A gap marker is 'M' or 'H' alone or followed by one more
// byte (such as an unstripped terminator). tsIntraHour is the
// caller-captured intra-hour timestamp (minute*60+second); variant
// selects the field ordering for 41-byte 'x' frames, and for TwoD every
// other 41-byte frame is skipped. debug is accepted for parity with the original C API and
// is currently unused by the decoder itself (diagnostic printing is the
// caller's concern, via its logger).
func Line(tsIntraHour int16, line []byte, variant Variant, debug bool) usa.Decoded {
	var out [5]int16
	recType := RecordSkip

	switch {
	case (len(line) == 1 || len(line) == 2) && (line[0] == 'M' || line[0] == 'H'):
		out[1], out[2], out[3], out[4] = usa.Invalid, usa.Invalid, usa.Invalid, usa.Invalid
		recType = RecordUVWT

	case len(line) == 41:
		val1 := ReadValue(line, offVal1, fieldWidth)
		val2 := ReadValue(line, offVal2, fieldWidth)
		val3 := ReadValue(line, offVal3, fieldWidth)
		val4 := ReadValue(line, offVal4, fieldWidth)

		switch {
		case line[2] == 'x':
			recType = RecordUVWT
			a, b, c, d := orderFields(variant, val1, val2, val3, val4)
			out[1], out[2], out[3], out[4] = int16(a), int16(b), int16(c), int16(d)

		case variant == TwoD:
			// the 2D device emits only UVTQ 'x' frames; no analog blocks.
			recType = RecordSkip

		case (line[2] == 'a' && line[3] == '0') || (line[2] == 'e' && line[3] == '1'):
			recType = RecordAnalog1
			out[1] = int16(val1 & 0x0000FFFF)
			out[2] = int16(val2 & 0x0000FFFF)
			out[3] = int16(val3 & 0x0000FFFF)
			out[4] = int16(val4 & 0x0000FFFF)

		case (line[2] == 'a' && line[3] == '4') || (line[2] == 'e' && line[3] == '5'):
			recType = RecordAnalog2
			out[1] = int16(val1 & 0x0000FFFF)
			out[2] = int16(val2 & 0x0000FFFF)
			out[3] = int16(val3 & 0x0000FFFF)
			out[4] = int16(val4 & 0x0000FFFF)

		default:
			// length-41 frame with no recognized selector byte: skip,
			// with an explicit well-defined status on every path (see
			// SPEC_FULL.md 9 / spec.md design note on the fall-through bug).
			recType = RecordSkip
		}
	}

	if recType == RecordSkip {
		return usa.Decoded{Type: RecordSkip}
	}

	out[0] = tsIntraHour + int16((int(recType)-1)*5000)

	return usa.Decoded{Type: recType, Out: out}
}

// orderFields arranges the four parsed fields according to the device
// variant: ThreeD keeps natural (U,V,W,T) order, TwoD reports (U,V,T,Q),
// and USA1Legacy swaps the first two fields since that device reports
// V,U instead of U,V.
func orderFields(variant Variant, val1, val2, val3, val4 int) (a, b, c, d int) {
	switch variant {
	case USA1Legacy:
		return val2, val1, val3, val4
	default:
		return val1, val2, val3, val4
	}
}
