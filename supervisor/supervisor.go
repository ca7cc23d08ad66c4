// Package supervisor implements the top-level acquisition control loop:
// a single event-driven loop, driven by the blocking serial read, that
// sequences the line decoder, raw writer, sample ring, and the
// interval-triggered statistics/particle/status/dispatch outputs.
package supervisor

import (
	"bytes"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/usonic/usa-acq"
	"github.com/usonic/usa-acq/config"
	"github.com/usonic/usa-acq/decode"
	"github.com/usonic/usa-acq/dispatch"
	"github.com/usonic/usa-acq/particle"
	"github.com/usonic/usa-acq/ring"
	"github.com/usonic/usa-acq/rawfile"
	"github.com/usonic/usa-acq/stats"
	"github.com/usonic/usa-acq/status"
)

// Counters tracks the packet totals reset at each status-interval
// boundary, per spec.md 4.9.
type Counters struct {
	Total, Valid int64
	LastU, LastV, LastW, LastT int16
}

// Paths bundles the filesystem destinations the supervisor writes to,
// all rooted at config.Config.DataSet.
type Paths struct {
	RawDir          string
	StatusText      string
	StatusBin       string
	StatsOutput     string
	PlumeOutput     string
	FootprintOutput string
	ProcessingExec  string
	ProcessingName  string
}

// Supervisor owns every piece of process-lifetime state the
// acquisition loop touches: the serial port, the command pipe, the raw
// writer, the sample ring, and the optional particle engines. Per
// spec.md 9, none of this is package-level mutable state.
type Supervisor struct {
	cfg     *config.Config
	variant usa.Variant
	clock   usa.Clock
	logger  *zap.SugaredLogger
	debug   bool

	port        SerialPort
	reopenPort  func() (SerialPort, error)
	pipe        CommandPipe
	writer      *rawfile.Writer
	sampleRing  *ring.SampleRing
	spawner     *dispatch.Spawner
	paths       Paths
	depths      []float64

	plume     *particle.PlumeEngine
	footprint *particle.FootprintEngine
	rng       *rand.Rand

	lastHourBucket    usa.Bucket
	lastProcIndex     int64
	lastEddyIndex     int64
	lastStatusIndex   int64
	firstIteration    bool
	startedAt         time.Time

	counters Counters
}

// New builds a Supervisor from its already-opened resources. Callers
// are responsible for startup-fatal error handling (lock file, config
// load, initial port/pipe/raw-file open) before constructing one,
// matching the severity taxonomy of spec.md 7.
func New(cfg *config.Config, variant usa.Variant, clock usa.Clock, logger *zap.SugaredLogger, debug bool,
	port SerialPort, reopenPort func() (SerialPort, error), pipe CommandPipe, writer *rawfile.Writer,
	sampleRing *ring.SampleRing, spawner *dispatch.Spawner, paths Paths, depths []float64) *Supervisor {
	return &Supervisor{
		cfg: cfg, variant: variant, clock: clock, logger: logger, debug: debug,
		port: port, reopenPort: reopenPort, pipe: pipe, writer: writer,
		sampleRing: sampleRing, spawner: spawner, paths: paths, depths: depths,
		firstIteration: true, startedAt: clock.Wall(cfg.Fuse),
		rng: rand.New(rand.NewSource(clock.Wall(cfg.Fuse).UnixNano())),
	}
}

// WithParticleEngines attaches the optional forward-plume and
// backward-footprint engines, advanced alongside the statistics engine
// at each eddy-covariance-interval boundary.
func (s *Supervisor) WithParticleEngines(plume *particle.PlumeEngine, footprint *particle.FootprintEngine) {
	s.plume = plume
	s.footprint = footprint
}

// RunOnce executes exactly one iteration of the acquisition loop (one
// serial read and its downstream effects), per spec.md 4.8. It returns
// stop=true when a graceful shutdown was requested.
func (s *Supervisor) RunOnce() (stop bool, err error) {
	if s.pipe != nil {
		requested, perr := s.pipe.PollStop()
		if perr != nil {
			return false, perr
		}
		if requested {
			return true, s.shutdown()
		}
	}

	line, timedOut, rerr := s.port.ReadLine()

	now := s.clock.Wall(s.cfg.Fuse)
	hiresNow := s.clock.Monotonic()
	tsIntra := int16(usa.IntraHourSeconds(now))

	hourBucket := usa.HourBucket(now)
	if !usa.SameHour(hourBucket, s.lastHourBucket) {
		rotated, rotErr := s.writer.RotateIfNeeded(now)
		if rotErr != nil {
			return false, rotErr
		}
		if rotated {
			s.logger.Infow("raw file rotated", "hour", hourBucket)
		}
	}
	s.lastHourBucket = hourBucket

	procIndex := usa.IntervalIndex(now, s.cfg.ProcessingInterval)
	if !s.firstIteration && procIndex != s.lastProcIndex {
		if ferr := s.writer.Flush(); ferr != nil {
			s.logger.Warnw("flush before dispatch failed", "error", ferr)
		}
		activation := now.Add(-time.Duration(s.cfg.ProcessingInterval) * time.Second)
		minutes := s.cfg.ProcessingInterval / 60
		if _, serr := s.spawner.Spawn(s.paths.ProcessingExec, s.paths.ProcessingName, "", s.paths.RawDir, activation, minutes, s.cfg.Fuse); serr != nil {
			s.logger.Warnw("child dispatch failed", "error", serr)
		}
	}
	s.lastProcIndex = procIndex

	eddyIndex := usa.IntervalIndex(now, s.cfg.EddyCovarianceInterval)
	if !s.firstIteration && eddyIndex != s.lastEddyIndex {
		s.runStatisticsAndParticles(hiresNow)
	}
	s.lastEddyIndex = eddyIndex

	switch {
	case rerr != nil:
		return false, rerr
	case timedOut:
		s.logger.Warnw("serial read timed out, resetting instrument")
		if werr := s.port.WriteString("RS\r"); werr != nil {
			s.logger.Warnw("instrument reset write failed", "error", werr)
		}
		_ = s.port.Close()
		newPort, oerr := s.reopenPort()
		if oerr != nil {
			return false, oerr
		}
		s.port = newPort
	default:
		s.counters.Total++
		decoded := decode.Line(tsIntra, bytes.TrimRight(line, "\n"), s.variant, s.debug)
		if decoded.Type != usa.RecordSkip {
			s.counters.Valid++
			s.counters.LastU, s.counters.LastV, s.counters.LastW, s.counters.LastT =
				decoded.Out[1], decoded.Out[2], decoded.Out[3], decoded.Out[4]
			if werr := s.writer.Write(decoded.Out); werr != nil {
				s.logger.Warnw("raw write failed", "error", werr)
			}
			s.sampleRing.Append(hiresNow, decoded.Out[1], decoded.Out[2], decoded.Out[3], decoded.Out[4])
		}
	}

	statusIndex := usa.IntervalIndex(now, s.cfg.StatusInterval)
	if statusIndex != s.lastStatusIndex {
		s.publishStatus(now)
		s.counters = Counters{}
	}
	s.lastStatusIndex = statusIndex

	s.firstIteration = false
	return false, nil
}

func (s *Supervisor) runStatisticsAndParticles(now float64) {
	ts, u, v, w, t := s.sampleRing.Snapshot()
	windows, err := stats.Compute(ts, u, v, w, t, now, s.cfg.AnemometerHeight, s.depths)
	if err != nil {
		s.logger.Warnw("statistics engine rejected depths vector", "error", err)
		return
	}
	if werr := stats.WriteReport(s.paths.StatsOutput, windows); werr != nil {
		s.logger.Warnw("statistics report write failed", "error", werr)
	}

	if s.plume == nil && s.footprint == nil {
		return
	}
	pool := s.sampleRing.Len()
	if pool == 0 {
		return
	}
	su, sv, sw := s.sampleRing.SampleRandom(pool, pool, s.rng)

	if s.plume != nil {
		s.plume.Generate(s.cfg.PlumeSources, s.cfg.ParticlesPerStep)
		s.plume.Advect(su, sv, sw, float64(s.cfg.SamplingFrequency))
		if derr := s.plume.Dump(s.paths.PlumeOutput); derr != nil {
			s.logger.Warnw("plume dump failed", "error", derr)
		}
	}
	if s.footprint != nil {
		s.footprint.Seed(s.cfg.FootprintAltitude)
		s.footprint.AdvectBack(su, sv, sw, float64(s.cfg.SamplingFrequency), now)
		result := s.footprint.DumpFootprint(now, float64(s.cfg.FootprintDepthSeconds))
		if derr := particle.WriteFootprintResult(s.paths.FootprintOutput, result); derr != nil {
			s.logger.Warnw("footprint dump failed", "error", derr)
		}
	}
}

func (s *Supervisor) publishStatus(now time.Time) {
	snap := status.Snapshot{
		UptimeSeconds: now.Sub(s.startedAt).Seconds(),
		WallClock:     now,
		TotalPackets:  s.counters.Total,
		ValidPackets:  s.counters.Valid,
		LastU:         s.counters.LastU,
		LastV:         s.counters.LastV,
		LastW:         s.counters.LastW,
		LastT:         s.counters.LastT,
	}
	if err := status.Publish(s.paths.StatusText, s.paths.StatusBin, snap); err != nil {
		s.logger.Warnw("status publish failed", "error", err)
	}
}

func (s *Supervisor) shutdown() error {
	s.logger.Infow("graceful shutdown requested")
	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.writer.Close()
}
