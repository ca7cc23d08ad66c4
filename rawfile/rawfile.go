// Package rawfile implements the hour-bucketed binary raw sample writer.
// Each accepted record is five little-endian int16 values with no
// padding and no header; one file exists per wall-clock hour.
package rawfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/usonic/usa-acq"
)

const recordSize = 10 // five little-endian int16 fields per record

// Extension selects the file suffix: ".HHR" for the 3D device, ".HHS"
// for the 2D device.
type Extension string

const (
	ExtThreeD Extension = "R"
	ExtTwoD   Extension = "S"
)

var ErrOpen = errors.New("error opening raw file")

// Writer owns one open hourly raw file and rotates it on hour rollover.
type Writer struct {
	baseDir string
	ext     Extension
	file    *os.File
	bucket  usa.Bucket
}

// New constructs a Writer and opens the file for the given wall-clock
// time's hour. A failure here is startup-fatal (spec.md 6: exit code 6).
func New(baseDir string, ext Extension, t time.Time) (*Writer, error) {
	w := &Writer{baseDir: baseDir, ext: ext}
	if err := w.openFor(t); err != nil {
		return nil, errors.Join(ErrOpen, err)
	}
	return w, nil
}

func (w *Writer) pathFor(t time.Time) string {
	name := fmt.Sprintf("%04d%02d%02d.%02d%s", t.Year(), t.Month(), t.Day(), t.Hour(), w.ext)
	return filepath.Join(w.baseDir, name)
}

func (w *Writer) openFor(t time.Time) error {
	path := w.pathFor(t)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	w.file = f
	w.bucket = usa.HourBucket(t)
	return nil
}

// RotateIfNeeded closes and reopens the file if t falls in a new
// wall-clock hour relative to the currently open file. Returns true if a
// rotation occurred.
func (w *Writer) RotateIfNeeded(t time.Time) (bool, error) {
	b := usa.HourBucket(t)
	if usa.SameHour(b, w.bucket) {
		return false, nil
	}
	if err := w.file.Close(); err != nil {
		return false, err
	}
	if err := w.openFor(t); err != nil {
		return false, errors.Join(ErrOpen, err)
	}
	return true, nil
}

// Write appends one 5xint16 record in little-endian, unpadded form.
func (w *Writer) Write(out [5]int16) error {
	var buf [10]byte
	for i, v := range out {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(v))
	}
	_, err := w.file.Write(buf[:])
	return err
}

// Flush forces any buffered OS-level data to stable storage. The design
// only requires this immediately before dispatching the child processor
// (spec.md 4.8 step 5); normal writes are unbuffered appends.
func (w *Writer) Flush() error {
	return w.file.Sync()
}

// Close closes the currently open file.
func (w *Writer) Close() error {
	return w.file.Close()
}

// ParseHour recovers the wall-clock hour a raw file was opened for from
// its basename, the inverse of (*Writer).pathFor: "20060102.15" plus the
// one-character extension.
func ParseHour(path string) (time.Time, error) {
	base := filepath.Base(path)
	if len(base) < 2 {
		return time.Time{}, fmt.Errorf("rawfile: malformed raw file name %q", base)
	}
	stamp := base[:len(base)-1]
	t, err := time.Parse("20060102.15", stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("rawfile: malformed raw file name %q: %w", base, err)
	}
	return t, nil
}

// ReadRecords reads back every 5xint16 record in a raw file, the inverse
// of Write. A file whose length is not a multiple of the record size is
// rejected rather than silently truncated.
func ReadRecords(path string) ([][5]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrOpen, err)
	}
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("rawfile: %s has a truncated trailing record (%d bytes)", path, len(data))
	}

	n := len(data) / recordSize
	records := make([][5]int16, n)
	for i := 0; i < n; i++ {
		chunk := data[i*recordSize : (i+1)*recordSize]
		for j := 0; j < 5; j++ {
			records[i][j] = int16(binary.LittleEndian.Uint16(chunk[j*2 : j*2+2]))
		}
	}
	return records, nil
}
