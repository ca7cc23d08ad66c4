package usa

import "time"

// Clock supplies the two time readings the acquisition loop needs: a
// monotonic high-resolution timestamp for the sample ring and windowed
// statistics, and a wall-clock reading (with a fixed timezone offset
// applied) for bucket arithmetic and file naming.
//
// A real implementation reads time.Now(); tests substitute a fake clock
// to make bucket-boundary crossings deterministic.
type Clock interface {
	// Monotonic returns a high-resolution timestamp in seconds. Only
	// differences between successive calls are meaningful.
	Monotonic() float64
	// Wall returns the current wall-clock time shifted by the configured
	// timezone fuse (hours, may be negative).
	Wall(fuseHours int) time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

// monotonicBase anchors SystemClock.Monotonic: time.Since uses Go's
// monotonic clock reading, so wall-clock steps do not affect it.
var monotonicBase = time.Now()

func (SystemClock) Monotonic() float64 {
	return time.Since(monotonicBase).Seconds()
}

func (SystemClock) Wall(fuseHours int) time.Time {
	return time.Now().UTC().Add(time.Duration(fuseHours) * time.Hour)
}

// Bucket identifies the wall-clock hour a timestamp falls in; raw files
// and processing/status intervals are keyed off bucket changes rather
// than absolute time, matching isNewAbsoluteTimeStep in original_source/.
type Bucket struct {
	Year, Month, Day, Hour, Minute, Second int
}

// HourBucket truncates a wall-clock time to its containing hour.
func HourBucket(t time.Time) Bucket {
	return Bucket{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour(),
	}
}

// SameHour reports whether a and b fall within the same wall-clock hour.
func SameHour(a, b Bucket) bool {
	return a.Year == b.Year && a.Month == b.Month && a.Day == b.Day && a.Hour == b.Hour
}

// IntraHourSeconds returns minute*60+second, the wire encoding of a
// timestamp's position within its hour (range [0, 3600)).
func IntraHourSeconds(t time.Time) int {
	return t.Minute()*60 + t.Second()
}

// IntervalIndex returns which fixed-width, periodSeconds-wide bucket t
// falls into, counting from the Unix epoch. Used to detect
// processing-interval, eddy-covariance-interval and status-interval
// boundary crossings: a crossing occurred when IntervalIndex advances
// between two successive calls.
func IntervalIndex(t time.Time, periodSeconds int) int64 {
	epoch := t.Unix()
	return epoch / int64(periodSeconds)
}
