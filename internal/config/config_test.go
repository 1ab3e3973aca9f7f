package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charge-optimizer/internal/optimizer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "7050", c.Server.Port)
	assert.Equal(t, 60*time.Second, c.Server.RequestTimeout.Duration)
	assert.Equal(t, 30*time.Second, c.Solver.TimeLimit.Duration)
	assert.Equal(t, 1e-7, c.Solver.MIPRelGap)
	assert.Equal(t, int64(4), c.Solver.MaxConcurrent)
	assert.True(t, c.NonOptimalAsError())

	oc := c.OptimizerConfig()
	assert.Equal(t, optimizer.DefaultOptions(), oc.Formulation)
	assert.False(t, oc.Validation.StrictInitialSOC)
	assert.Equal(t, optimizer.DefaultTolerance, oc.Tolerance)
}

func TestLoad(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("API_ENV", "")
	t.Setenv("LOG_LEVEL", "")

	path := writeConfig(t, `
server:
  port: "9000"
  cors_origins: ["http://localhost:3000"]
  request_timeout: 5s
solver:
  time_limit: 2s
  threads: 2
  max_concurrent: 8
formulation:
  big_m_factor: 3
  charge_floor: ignore
  goal_mode: exact
  strict_initial_soc: true
api:
  non_optimal_as_error: false
logging:
  level: debug
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", c.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, c.Server.CORSOrigins)
	assert.Equal(t, 5*time.Second, c.Server.RequestTimeout.Duration)
	assert.False(t, c.NonOptimalAsError())

	so := c.SolverOptions()
	assert.Equal(t, 2*time.Second, so.TimeLimit)
	assert.Equal(t, 2, so.Threads)
	assert.Equal(t, int64(8), so.MaxConcurrent)
	assert.Equal(t, 1e-7, so.MIPRelGap)

	oc := c.OptimizerConfig()
	assert.Equal(t, optimizer.ChargeFloorIgnore, oc.Formulation.ChargeFloor)
	assert.Equal(t, optimizer.GoalExact, oc.Formulation.GoalMode)
	assert.Equal(t, 3.0, oc.Formulation.BigMFactor)
	assert.True(t, oc.Validation.StrictInitialSOC)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "8081")
	t.Setenv("API_ENV", "production")
	t.Setenv("LOG_LEVEL", "warn")

	c, err := Load(writeConfig(t, "server:\n  port: \"9000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "8081", c.Server.Port)
	assert.Equal(t, "release", c.Server.Mode)
	assert.Equal(t, "warn", c.Logging.Level)

	c, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "8081", c.Server.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("API_ENV", "")
	t.Setenv("LOG_LEVEL", "")

	cases := map[string]string{
		"bad duration":    "solver:\n  time_limit: soon\n",
		"bad port":        "server:\n  port: http\n",
		"bad mode":        "server:\n  mode: loud\n",
		"bad gap":         "solver:\n  mip_rel_gap: 2\n",
		"bad floor":       "formulation:\n  charge_floor: sometimes\n",
		"bad goal":        "formulation:\n  goal_mode: maximum\n",
		"bad big m":       "formulation:\n  big_m_factor: 0.5\n",
		"bad level":       "logging:\n  level: loud\n",
		"bad concurrency": "solver:\n  max_concurrent: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateNil(t *testing.T) {
	var c *Config
	assert.Error(t, c.Validate())
}
