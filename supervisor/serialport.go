package supervisor

import (
	"bufio"
	"errors"
	"time"

	"github.com/tarm/serial"

	"github.com/usonic/usa-acq"
)

// SerialPort is the minimal interface the supervisor needs from the
// instrument link: write the wire-up/reset commands, and read one line
// at a time with a short timeout. Implementations that are not real
// hardware (tests, simulators) only need to satisfy this.
type SerialPort interface {
	WriteString(s string) error
	ReadLine() (line []byte, timedOut bool, err error)
	Close() error
}

// realSerialPort wraps github.com/tarm/serial, the dependency this
// rendition reaches for to open and read the instrument's serial link,
// grounded on the same library's use in the weather-station acquisition
// daemon retrieved alongside this spec (chrissnell-remoteweather).
type realSerialPort struct {
	port   *serial.Port
	reader *bufio.Reader
}

// OpenSerialPort opens device at baud with the given read timeout
// (spec.md 4.8 step 2's "short timeout").
func OpenSerialPort(device string, baud int, timeout time.Duration) (SerialPort, error) {
	cfg := &serial.Config{Name: device, Baud: baud, ReadTimeout: timeout}
	p, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, errors.Join(usa.ErrSerialOpen, err)
	}
	return &realSerialPort{port: p, reader: bufio.NewReader(p)}, nil
}

func (s *realSerialPort) WriteString(str string) error {
	_, err := s.port.Write([]byte(str))
	return err
}

// ReadLine reads up to and including the 0x0A terminator. A read
// timeout is reported as timedOut=true with no error, matching spec.md
// 4.8 step 2's "-1" return.
func (s *realSerialPort) ReadLine() ([]byte, bool, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if isTimeout(err) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return line, false, nil
}

func (s *realSerialPort) Close() error {
	return s.port.Close()
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	if t, ok := err.(timeouter); ok {
		return t.Timeout()
	}
	return errors.Is(err, errTimeoutSentinel)
}

var errTimeoutSentinel = usa.ErrSerialTimeout
