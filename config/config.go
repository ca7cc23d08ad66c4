// Package config loads the INI-style configuration file into a clamped
// Config value, applying the defaults and ranges of spec.md 6. The
// file's own grammar is an external collaborator's contract (spec.md
// 1's Non-goals); this package only owns the clamped struct and the
// loader, which every binary needs regardless.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/usonic/usa-acq"
	"github.com/usonic/usa-acq/particle"
)

var ErrMissing = usa.ErrConfigMissing

// ClampedKey records one configuration value that was out of its
// allowed range and was clamped to the nearest bound.
type ClampedKey struct {
	Section   string
	Key       string
	Requested float64
	Applied   float64
}

// Config holds every recognized key, already clamped, plus the
// filesystem roots this rendition makes configurable (the
// original_source/ header hard-codes these as DATA_SET,
// DATA_PROCESSING_EXEC, DATA_PROCESSING_REPORT, LOCK_FILE, CMD_INPUT).
type Config struct {
	Variant usa.Variant

	Fuse              int
	AnemometerHeight  float64

	ProcessingInterval     int
	EddyCovarianceInterval int
	StatusInterval         int
	RawDataInterval        int
	AveragingPeriod        int // 2D only

	SensorType              int
	SamplingFrequency       int
	ElementaryDataPerSample int

	DataSet          string
	ProcessingExec   string
	ProcessingReport string
	LockFile         string
	CommandPipe      string

	ParticlesPerStep      int
	FootprintAltitude     float64
	FootprintDepthSeconds int
	PlumeSources          []particle.Source
}

func defaults(variant usa.Variant) Config {
	lockFile := "/var/run/usa_acq.pid"
	report := "eddy_cov.report"
	if variant == usa.TwoD {
		lockFile = "/var/run/usa_2d.pid"
		report = "proc2d.report"
	}
	return Config{
		Variant:                 variant,
		Fuse:                    1,
		AnemometerHeight:        10.0,
		ProcessingInterval:      600,
		EddyCovarianceInterval:  60,
		StatusInterval:          10,
		RawDataInterval:         5,
		AveragingPeriod:         3600,
		SensorType:              1,
		SamplingFrequency:       10,
		ElementaryDataPerSample: 2,
		DataSet:                 ".",
		ProcessingReport:        report,
		LockFile:                lockFile,
		CommandPipe:             "cmd_server",
		ParticlesPerStep:        10,
		FootprintAltitude:       10.0,
		FootprintDepthSeconds:   600,
	}
}

type intBound struct {
	section, key   string
	ptr            *int
	min, max       int
	hasMin, hasMax bool
}

type floatBound struct {
	section, key string
	ptr          *float64
	min          float64
}

// Load reads path as an INI file and returns the clamped Config plus a
// report of every key that was out of range. A missing file is
// startup-fatal (spec.md 6, exit code 20).
func Load(path string, variant usa.Variant) (*Config, []ClampedKey, error) {
	cfg := defaults(variant)

	f, err := ini.Load(path)
	if err != nil {
		return nil, nil, errors.Join(ErrMissing, err)
	}

	var clamped []ClampedKey

	intBounds := []intBound{
		{"General", "Fuse", &cfg.Fuse, -12, 12, true, true},
		{"Timing", "ProcessingInterval", &cfg.ProcessingInterval, 1, 600, true, true},
		{"Timing", "EddyCovarianceInterval", &cfg.EddyCovarianceInterval, 1, 60, true, true},
		{"Timing", "StatusInterval", &cfg.StatusInterval, 1, 10, true, true},
		{"Timing", "RawDataInterval", &cfg.RawDataInterval, 1, 5, true, true},
		{"Timing", "AveragingPeriod", &cfg.AveragingPeriod, 1, 3600, true, true},
		{"SonicAnemometer", "SensorType", &cfg.SensorType, 0, 1, true, true},
		{"SonicAnemometer", "SamplingFrequency", &cfg.SamplingFrequency, 1, 10, true, true},
		{"SonicAnemometer", "ElementaryDataPerSample", &cfg.ElementaryDataPerSample, 1, 4, true, true},
		{"Particle", "ParticlesPerStep", &cfg.ParticlesPerStep, 1, 1000, true, false},
		{"Particle", "FootprintDepthSeconds", &cfg.FootprintDepthSeconds, 1, 3600, true, true},
	}
	for _, b := range intBounds {
		sec := f.Section(b.section)
		if !sec.HasKey(b.key) {
			continue
		}
		requested, err := sec.Key(b.key).Int()
		if err != nil {
			continue
		}
		applied := requested
		if b.hasMin && applied < b.min {
			applied = b.min
		}
		if b.hasMax && applied > b.max {
			applied = b.max
		}
		*b.ptr = applied
		if applied != requested {
			clamped = append(clamped, ClampedKey{b.section, b.key, float64(requested), float64(applied)})
		}
	}

	floatBounds := []floatBound{
		{"General", "AnemometerHeight", &cfg.AnemometerHeight, 0.5},
		{"Particle", "FootprintAltitude", &cfg.FootprintAltitude, 0},
	}
	for _, b := range floatBounds {
		sec := f.Section(b.section)
		if !sec.HasKey(b.key) {
			continue
		}
		requested, err := sec.Key(b.key).Float64()
		if err != nil {
			continue
		}
		applied := requested
		if applied < b.min {
			applied = b.min
		}
		*b.ptr = applied
		if applied != requested {
			clamped = append(clamped, ClampedKey{b.section, b.key, requested, applied})
		}
	}

	if sec := f.Section("Paths"); sec != nil {
		if sec.HasKey("DataSet") {
			cfg.DataSet = sec.Key("DataSet").String()
		}
		if sec.HasKey("ProcessingExec") {
			cfg.ProcessingExec = sec.Key("ProcessingExec").String()
		}
	}

	if sec := f.Section("Particle"); sec != nil && sec.HasKey("Sources") {
		sources, err := parsePlumeSources(sec.Key("Sources").String())
		if err != nil {
			return nil, nil, errors.Join(ErrMissing, err)
		}
		cfg.PlumeSources = sources
	}

	return &cfg, clamped, nil
}

// parsePlumeSources reads the Particle.Sources key, a semicolon-separated
// list of "e,n,h,mass" quadruples (up to 999 sources per spec.md 4.5), and
// returns them in the order given. An empty string yields no sources.
func parsePlumeSources(raw string) ([]particle.Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	entries := strings.Split(raw, ";")
	sources := make([]particle.Source, 0, len(entries))
	for _, entry := range entries {
		fields := strings.Split(strings.TrimSpace(entry), ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("config: malformed plume source %q, want e,n,h,mass", entry)
		}
		values := make([]float64, 4)
		for i, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("config: malformed plume source %q: %w", entry, err)
			}
			values[i] = v
		}
		sources = append(sources, particle.Source{E: values[0], N: values[1], H: values[2], Mass: values[3]})
	}
	return sources, nil
}

// Summary renders a one-line human-readable description of every
// clamped key, for the supervisor's single startup log line.
func Summary(clamped []ClampedKey) string {
	if len(clamped) == 0 {
		return "no configuration values were out of range"
	}
	s := ""
	for i, c := range clamped {
		if i > 0 {
			s += "; "
		}
		s += fmt.Sprintf("%s.%s requested %g, applied %g", c.Section, c.Key, c.Requested, c.Applied)
	}
	return s
}
