package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/usonic/usa-acq/logging"
)

func TestNewBuildsAUsableLogger(t *testing.T) {
	l, err := logging.New("info", false)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.NotPanics(t, func() { l.Infow("test", "k", "v") })
}

func TestNewDebugFlagOverridesLevel(t *testing.T) {
	l, err := logging.New("error", true)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestNewNopDiscardsEverything(t *testing.T) {
	l := logging.NewNop()
	assert.NotPanics(t, func() { l.Warnw("ignored") })
}
