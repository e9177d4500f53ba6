package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	doc := `
needs:
  decay_per_hour:
    hunger: 2
relationships:
  hysteresis_margin: 3
  interactions:
    gift:
      friendship: 12
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tu, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.0, tu.Needs.DecayPerHour.Hunger)
	assert.Equal(t, 4.0, tu.Needs.DecayPerHour.Energy, "unspecified values keep defaults")
	assert.Equal(t, 3.0, tu.Relationships.HysteresisMargin)

	gift, ok := tu.Interaction("gift")
	require.True(t, ok)
	assert.Equal(t, 12.0, gift.Friendship)
	_, ok = tu.Interaction("talk")
	assert.True(t, ok, "default interactions survive a partial override")
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Tuning)
		msg    string
	}{
		{
			name:   "friendship ladder out of order",
			mutate: func(t *Tuning) { t.Relationships.Gates.Friend.Friendship = 90 },
			msg:    "friendship gates must increase",
		},
		{
			name:   "margin swallows acquaintance gate",
			mutate: func(t *Tuning) { t.Relationships.HysteresisMargin = 25 },
			msg:    "hysteresis_margin must be below",
		},
		{
			name:   "negative decay rate",
			mutate: func(t *Tuning) { t.Needs.DecayPerHour.Fun = -1 },
			msg:    "decay_per_hour values must be >= 0",
		},
		{
			name:   "zero memory capacity",
			mutate: func(t *Tuning) { t.MemoryCapacity = 0 },
			msg:    "memory_capacity",
		},
		{
			name:   "inverted trait cutoffs",
			mutate: func(t *Tuning) { t.Decisions.TraitLow = 80 },
			msg:    "trait_low must be below trait_high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tu := Default()
			tt.mutate(tu)
			err := tu.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
