package usa

// Variant distinguishes the two supported sonic anemometer wire formats.
type Variant int

const (
	// ThreeD is the uSonic-3/USA-1 device: UVWT quadruples plus two
	// optional analog blocks multiplexed into the same stream.
	ThreeD Variant = iota
	// TwoD is the uSonic-2 device: a single UVTQ record per line.
	TwoD
	// USA1Legacy decodes like ThreeD but with U and V swapped, matching
	// the older USA-1 device's field order.
	USA1Legacy
)

// RecordType classifies a decoded line. RecordSkip means the line was not
// recognized and carries no data.
type RecordType int

const (
	RecordSkip RecordType = iota
	RecordUVWT
	RecordAnalog1
	RecordAnalog2
)

// Invalid is the sentinel value for any field that could not be decoded.
const Invalid int16 = -9999

// InvalidF is the sentinel value for any derived statistic with no
// contributing samples.
const InvalidF = -9999.9

// Sample is one decoded wire record: an intra-hour timestamp and the four
// instrument channels, in device-native fixed-point units (cm/s, cm/s,
// cm/s, centidegrees Celsius).
type Sample struct {
	TSIntraHour int16
	U, V, W, T  int16
}

// Decoded is the full output of the line decoder: the record's
// classification plus the five wire fields (timestamp followed by the
// four channel values), matching out[0..5) of spec.md 4.1.
type Decoded struct {
	Type RecordType
	Out  [5]int16
}
