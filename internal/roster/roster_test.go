package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/willow-creek/internal/agents"
)

const sample = `
residents:
  - name: Alice
    age: 29
    birthday: {month: 3, day: 14}
    home: Maple House
    family: [Bob]
    personality:
      extroversion: 80
      romanticism: 70
    needs:
      hunger: 55
  - name: Bob
    age: 31
    home: Maple House
    family: [Alice]
  - name: Carol
    age: 24
`

func TestParse(t *testing.T) {
	defs, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, defs, 3)

	alice := defs[0]
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, 29, alice.Age)
	assert.Equal(t, 3, alice.BirthMonth)
	assert.Equal(t, 14, alice.BirthDay)
	assert.Equal(t, "Maple House", alice.HomeName)
	assert.Equal(t, []string{"Bob"}, alice.Family)
	assert.Equal(t, 80.0, alice.Personality[agents.Extroversion])
	assert.Equal(t, 70.0, alice.Personality[agents.Romanticism])
	assert.Equal(t, 55.0, alice.Needs[agents.NeedHunger])

	carol := defs[2]
	assert.Zero(t, carol.BirthMonth)
	assert.Empty(t, carol.HomeName)
	assert.Nil(t, carol.Personality)
}

func TestParse_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"empty":         "residents: []\n",
		"missing age":   "residents:\n  - name: Alice\n",
		"score range":   "residents:\n  - name: Alice\n    age: 3\n    needs: {hunger: 140}\n",
		"unknown trait": "residents:\n  - name: Alice\n    age: 3\n    personality: {charisma: 50}\n",
		"bad month":     "residents:\n  - name: Alice\n    age: 3\n    birthday: {month: 13, day: 1}\n",
		"extra field":   "residents:\n  - name: Alice\n    age: 3\n    job: baker\n",
		"not yaml":      "residents: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestParse_Cross(t *testing.T) {
	_, err := Parse([]byte("residents:\n  - name: Alice\n    age: 3\n    family: [Zed]\n"))
	assert.ErrorContains(t, err, "unknown family member")

	_, err = Parse([]byte("residents:\n  - name: Alice\n    age: 3\n  - name: Alice\n    age: 4\n"))
	assert.ErrorContains(t, err, "duplicate resident")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	defs, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, defs, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
