// Package bootstrap assembles a Supervisor from a serial device path and
// a configuration file, shared by the usa3d and usa2d entry points. It
// owns the parts of spec.md 6/7 that are pure process wiring: the lock
// file, the startup log line, and the initial raw file / serial port /
// command pipe opens.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/usonic/usa-acq"
	"github.com/usonic/usa-acq/config"
	"github.com/usonic/usa-acq/dispatch"
	"github.com/usonic/usa-acq/logging"
	"github.com/usonic/usa-acq/particle"
	"github.com/usonic/usa-acq/ring"
	"github.com/usonic/usa-acq/rawfile"
	"github.com/usonic/usa-acq/supervisor"
)

// defaultDepths is the window-depth vector handed to every Supervisor;
// the configuration file has no key for it. It holds a short, a
// one-minute and a ten-minute window, matching the worked examples of
// spec.md 8.
var defaultDepths = []float64{10, 60, 600}

// ExitError pairs a process-fatal condition with its spec.md 6 exit
// code, so main() can translate an error into os.Exit without knowing
// which layer produced it.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// Lock acquires an exclusive, non-blocking advisory lock on path,
// creating it if absent. The file is intentionally never removed; only
// the lock is released, on process exit, when the fd closes.
func Lock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, &ExitError{30, errors.Join(usa.ErrLockContention, err)}
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, &ExitError{30, errors.Join(usa.ErrLockContention, err)}
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return f, nil
}

// Resources bundles everything Run needs to hand off to main() for
// cleanup and for the blocking acquisition loop itself.
type Resources struct {
	Supervisor *supervisor.Supervisor
	Reaper     *dispatch.Reaper
	Lock       *os.File
	Logger     *zap.SugaredLogger
}

// Build opens every startup-fatal resource in spec.md 6's order (config,
// lock, serial port, command pipe, initial raw file) and assembles a
// Supervisor. Any failure here is startup-fatal with the matching exit
// code; the caller is expected to os.Exit on it.
func Build(variant usa.Variant, device, configPath string, debug bool) (*Resources, error) {
	cfg, clamped, err := config.Load(configPath, variant)
	if err != nil {
		return nil, &ExitError{20, err}
	}

	logger, err := logging.New("info", debug)
	if err != nil {
		return nil, &ExitError{1, err}
	}
	logger.Infow("configuration loaded", "summary", config.Summary(clamped))

	lock, err := Lock(cfg.LockFile)
	if err != nil {
		return nil, err
	}

	port, err := supervisor.OpenSerialPort(device, 9600, 2*time.Second)
	if err != nil {
		lock.Close()
		return nil, &ExitError{3, err}
	}

	pipe, err := supervisor.OpenCommandPipe(cfg.DataSet + "/" + cfg.CommandPipe)
	if err != nil {
		lock.Close()
		port.Close()
		return nil, &ExitError{5, err}
	}

	ext := rawfile.ExtThreeD
	if variant == usa.TwoD {
		ext = rawfile.ExtTwoD
	}
	writer, err := rawfile.New(cfg.DataSet, ext, time.Now().UTC())
	if err != nil {
		lock.Close()
		port.Close()
		pipe.Close()
		return nil, &ExitError{6, err}
	}

	ringCapacity := cfg.SamplingFrequency * 3600
	sampleRing := ring.NewSampleRing(ringCapacity)
	spawner := dispatch.NewSpawner(cfg.DataSet + "/" + cfg.ProcessingReport)

	paths := supervisor.Paths{
		RawDir:          cfg.DataSet,
		StatusText:      statusPath(cfg, "txt"),
		StatusBin:       statusPath(cfg, "bin"),
		StatsOutput:     cfg.DataSet + "/eddy_cov.out",
		PlumeOutput:     cfg.DataSet + "/plume.out",
		FootprintOutput: cfg.DataSet + "/footprint.out",
		ProcessingExec:  cfg.ProcessingExec,
		ProcessingName:  processName(variant),
	}

	clock := usa.SystemClock{}
	sv := supervisor.New(cfg, variant, clock, logger, debug, port,
		func() (supervisor.SerialPort, error) { return supervisor.OpenSerialPort(device, 9600, 2*time.Second) },
		pipe, writer, sampleRing, spawner, paths, defaultDepths)

	sv.WithParticleEngines(particle.NewPlumeEngine(10_000), particle.NewFootprintEngine(10_000, 10_000))

	reaper := dispatch.NewReaper()
	reaper.Run()

	return &Resources{Supervisor: sv, Reaper: reaper, Lock: lock, Logger: logger}, nil
}

func statusPath(cfg *config.Config, ext string) string {
	name := "Usa3dStatus"
	if cfg.Variant == usa.TwoD {
		name = "Usa2dStatus"
	}
	return fmt.Sprintf("%s/%s.%s", cfg.DataSet, name, ext)
}

func processName(variant usa.Variant) string {
	if variant == usa.TwoD {
		return "usa_2d_proc"
	}
	return "usa_acq_proc"
}

// Run drives the acquisition loop until a graceful stop is requested or
// an unrecoverable error occurs.
func Run(r *Resources) error {
	for {
		stop, err := r.Supervisor.RunOnce()
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// Close stops the reaper, releases the lock file and syncs the logger.
// It does not close the serial port, the command pipe or the raw file;
// the raw file is closed by the supervisor's graceful shutdown.
func (r *Resources) Close() {
	r.Reaper.Stop()
	r.Lock.Close()
	_ = r.Logger.Sync()
}
