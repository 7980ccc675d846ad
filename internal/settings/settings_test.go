package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchCitedValues(t *testing.T) {
	d := Defaults()
	assert.Equal(t, 300, d.MaxSolutionTimeSeconds)
	assert.Equal(t, 10, d.LinearApproximationSegments)
	assert.InDelta(t, 0.01, d.MinimumFlowThreshold, 1e-9)
	assert.InDelta(t, 2.50, d.AlgorithmParameterOr("fuel_cost_per_mmscf", 0), 1e-9)
	assert.InDelta(t, 0.001, d.AlgorithmParameterOr("compressor_cost_per_psi", 0), 1e-9)
}

func TestAlgorithmParameterOrFallsBackWhenUnset(t *testing.T) {
	d := Defaults()
	assert.InDelta(t, 42.0, d.AlgorithmParameterOr("nonexistent", 42.0), 1e-9)
}

func TestSolutionTimeLimitConvertsToDuration(t *testing.T) {
	d := Defaults()
	assert.Equal(t, int64(300), d.SolutionTimeLimit().Milliseconds()/1000)
}

func TestLoadWithNoFileAndNoEnvReturnsDefaults(t *testing.T) {
	s, err := NewLoader(WithConfigPath("/nonexistent/path.yaml"), WithEnvPrefix("PIPELINEOPT_TEST_NOTSET_")).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().MaxSolutionTimeSeconds, s.MaxSolutionTimeSeconds)
	assert.Equal(t, Defaults().PreferredSolver, s.PreferredSolver)
}

func TestLoadPicksUpEnvironmentOverride(t *testing.T) {
	t.Setenv("PIPELINEOPT_TEST_MAX_CONCURRENCY", "16")
	s, err := NewLoader(WithEnvPrefix("PIPELINEOPT_TEST_")).Load()
	require.NoError(t, err)
	assert.Equal(t, 16, s.MaxConcurrency)
}
