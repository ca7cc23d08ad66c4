package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usonic/usa-acq"
	"github.com/usonic/usa-acq/config"
	"github.com/usonic/usa-acq/particle"
)

func writeIni(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usa.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaultsWhenKeysAbsent(t *testing.T) {
	path := writeIni(t, "[General]\n")
	cfg, clamped, err := config.Load(path, usa.ThreeD)
	require.NoError(t, err)
	assert.Empty(t, clamped)
	assert.Equal(t, 1, cfg.Fuse)
	assert.Equal(t, 10.0, cfg.AnemometerHeight)
	assert.Equal(t, 600, cfg.ProcessingInterval)
	assert.Equal(t, "/var/run/usa_acq.pid", cfg.LockFile)
}

func TestLoadUsesTwoDLockFileAndReport(t *testing.T) {
	path := writeIni(t, "[General]\n")
	cfg, _, err := config.Load(path, usa.TwoD)
	require.NoError(t, err)
	assert.Equal(t, "/var/run/usa_2d.pid", cfg.LockFile)
	assert.Equal(t, "proc2d.report", cfg.ProcessingReport)
}

func TestLoadClampsOutOfRangeFuse(t *testing.T) {
	path := writeIni(t, "[General]\nFuse=99\n")
	cfg, clamped, err := config.Load(path, usa.ThreeD)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Fuse)
	require.Len(t, clamped, 1)
	assert.Equal(t, "Fuse", clamped[0].Key)
	assert.Equal(t, 99.0, clamped[0].Requested)
	assert.Equal(t, 12.0, clamped[0].Applied)
}

func TestLoadClampsAnemometerHeightFloor(t *testing.T) {
	path := writeIni(t, "[General]\nAnemometerHeight=0.1\n")
	cfg, clamped, err := config.Load(path, usa.ThreeD)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.AnemometerHeight)
	require.Len(t, clamped, 1)
}

func TestLoadAcceptsInRangeValuesUnclamped(t *testing.T) {
	path := writeIni(t, "[Timing]\nStatusInterval=7\n")
	cfg, clamped, err := config.Load(path, usa.ThreeD)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.StatusInterval)
	assert.Empty(t, clamped)
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	_, _, err := config.Load(filepath.Join(t.TempDir(), "nope.ini"), usa.ThreeD)
	assert.ErrorIs(t, err, config.ErrMissing)
}

func TestLoadAppliesParticleDefaultsWhenSectionAbsent(t *testing.T) {
	path := writeIni(t, "[General]\n")
	cfg, clamped, err := config.Load(path, usa.ThreeD)
	require.NoError(t, err)
	assert.Empty(t, clamped)
	assert.Equal(t, 10, cfg.ParticlesPerStep)
	assert.Equal(t, 10.0, cfg.FootprintAltitude)
	assert.Equal(t, 600, cfg.FootprintDepthSeconds)
	assert.Empty(t, cfg.PlumeSources)
}

func TestLoadParsesPlumeSources(t *testing.T) {
	path := writeIni(t, "[Particle]\nSources=100,200,10,1.0;150,250,20,2.5\n")
	cfg, _, err := config.Load(path, usa.ThreeD)
	require.NoError(t, err)
	require.Len(t, cfg.PlumeSources, 2)
	assert.Equal(t, particle.Source{E: 100, N: 200, H: 10, Mass: 1.0}, cfg.PlumeSources[0])
	assert.Equal(t, particle.Source{E: 150, N: 250, H: 20, Mass: 2.5}, cfg.PlumeSources[1])
}

func TestLoadRejectsMalformedPlumeSource(t *testing.T) {
	path := writeIni(t, "[Particle]\nSources=100,200,10\n")
	_, _, err := config.Load(path, usa.ThreeD)
	assert.Error(t, err)
}

func TestSummaryReportsEachClampedKey(t *testing.T) {
	path := writeIni(t, "[General]\nFuse=99\n[SonicAnemometer]\nSensorType=9\n")
	_, clamped, err := config.Load(path, usa.ThreeD)
	require.NoError(t, err)
	summary := config.Summary(clamped)
	assert.Contains(t, summary, "Fuse")
	assert.Contains(t, summary, "SensorType")
}
