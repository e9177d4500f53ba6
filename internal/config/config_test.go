package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worldsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 1.0, cfg.HoursPerTick)
	assert.Equal(t, 30, cfg.DaysPerMonth)
	assert.Equal(t, 4, cfg.Start.Month)
	assert.Equal(t, "data/checkpoints", cfg.CheckpointDir)
	assert.Equal(t, 1, cfg.AutosaveEveryDays)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
seed: 7
hours_per_tick: 0.5
steps: 96
start:
  year: 2030
  month: 12
  day: 24
  hour: 18
roster_path: town.yaml
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 0.5, cfg.HoursPerTick)
	assert.Equal(t, 96, cfg.Steps)
	assert.Equal(t, 2030, cfg.Start.Year)
	assert.Equal(t, 24, cfg.Start.Date().Day)
	assert.Equal(t, 18.0, cfg.Start.Hour)
	assert.Equal(t, "town.yaml", cfg.RosterPath)

	lvl, err := ParseLevel(cfg.LogLevel)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WILLOW_SEED", "99")
	t.Setenv("WILLOW_CHECKPOINT_DIR", "/tmp/willow")
	cfg, err := Load(writeConfig(t, "seed: 7\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, "/tmp/willow", cfg.CheckpointDir)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"hours":     "hours_per_tick: 0\n",
		"steps":     "steps: -1\n",
		"month":     "start:\n  month: 13\n",
		"day":       "days_per_month: 28\nstart:\n  day: 30\n",
		"hour":      "start:\n  hour: 24\n",
		"log level": "log_level: loud\n",
		"autosave":  "autosave_every_days: -2\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
