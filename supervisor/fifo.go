package supervisor

import (
	"errors"
	"os"
	"syscall"

	"github.com/usonic/usa-acq"
)

// CommandPipe is the non-blocking stop-signal channel: a single byte
// 's' on this pipe is the soft-stop path (spec.md 4.8 step 1, 5
// graceful termination).
type CommandPipe interface {
	PollStop() (bool, error)
	Close() error
}

// fifoCommandPipe wraps the well-known FIFO at DATA_SET/cmd_server,
// opened non-blocking so polling it never suspends the acquisition
// thread (spec.md 5).
type fifoCommandPipe struct {
	fd int
}

// OpenCommandPipe creates (if absent) and opens the command FIFO at
// path in non-blocking read mode.
func OpenCommandPipe(path string) (CommandPipe, error) {
	if err := syscall.Mkfifo(path, 0777); err != nil && !errors.Is(err, os.ErrExist) && !errors.Is(err, syscall.EEXIST) {
		return nil, errors.Join(usa.ErrPipeCreate, err)
	}
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, errors.Join(usa.ErrPipeOpen, err)
	}
	return &fifoCommandPipe{fd: fd}, nil
}

// PollStop reads up to one byte without blocking; stop is true only
// when that byte is 's'.
func (c *fifoCommandPipe) PollStop() (bool, error) {
	var buf [1]byte
	n, err := syscall.Read(c.fd, buf[:])
	if err != nil {
		if errors.Is(err, syscall.EAGAIN) {
			return false, nil
		}
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	return buf[0] == 's', nil
}

func (c *fifoCommandPipe) Close() error {
	return syscall.Close(c.fd)
}
