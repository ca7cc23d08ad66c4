// Package status writes the periodic text+binary status snapshots to
// the RAM-disk status path, per spec.md 4.9.
package status

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
)

var ErrWrite = errors.New("error writing status snapshot")

// Snapshot is one point-in-time status reading.
type Snapshot struct {
	UptimeSeconds         float64
	WallClock             time.Time
	TotalPackets          int64
	ValidPackets          int64
	LastU, LastV, LastW, LastT int16
}

// binaryRecord is the fixed-width on-disk layout for the binary sibling
// file: the same fields as the text file, packed sequentially in
// little-endian host order.
type binaryRecord struct {
	UptimeSeconds float64
	WallClockUnix int64
	TotalPackets  int64
	ValidPackets  int64
	LastU         int16
	LastV         int16
	LastW         int16
	LastT         int16
}

// WriteText writes the human-readable [Timing]/[Packets] status file.
func WriteText(path string, s Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Join(ErrWrite, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "[Timing]")
	fmt.Fprintf(w, "Uptime=%f\n", s.UptimeSeconds)
	fmt.Fprintf(w, "WallClock=%s\n", s.WallClock.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, "[Packets]")
	fmt.Fprintf(w, "Total=%d\n", s.TotalPackets)
	fmt.Fprintf(w, "Valid=%d\n", s.ValidPackets)
	fmt.Fprintf(w, "LastU=%d\n", s.LastU)
	fmt.Fprintf(w, "LastV=%d\n", s.LastV)
	fmt.Fprintf(w, "LastW=%d\n", s.LastW)
	fmt.Fprintf(w, "LastT=%d\n", s.LastT)
	return w.Flush()
}

// WriteBinary writes the packed binary sibling of WriteText.
func WriteBinary(path string, s Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Join(ErrWrite, err)
	}
	defer f.Close()

	rec := binaryRecord{
		UptimeSeconds: s.UptimeSeconds,
		WallClockUnix: s.WallClock.UTC().Unix(),
		TotalPackets:  s.TotalPackets,
		ValidPackets:  s.ValidPackets,
		LastU:         s.LastU,
		LastV:         s.LastV,
		LastW:         s.LastW,
		LastT:         s.LastT,
	}
	return binary.Write(f, binary.LittleEndian, rec)
}

// Publish writes both sibling files, per spec.md 4.9. Atomicity is not
// required; a reader may observe one file updated before the other.
func Publish(textPath, binPath string, s Snapshot) error {
	if err := WriteText(textPath, s); err != nil {
		return err
	}
	return WriteBinary(binPath, s)
}
