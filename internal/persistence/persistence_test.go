package persistence

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/engine"
	"github.com/talgya/willow-creek/internal/social"
)

func testWorld(t *testing.T, seed int64) *engine.World {
	t.Helper()
	w, err := engine.New(engine.Options{
		Seed:      seed,
		Start:     clock.Date{Day: 10, Month: 6, Year: 2025},
		StartHour: 9,
	}, []agents.Definition{
		{Name: "Alice", Age: 34, Family: []string{"Bob"}},
		{Name: "Bob", Age: 36, HomeName: "Alice's home"},
		{Name: "Carol", Age: 22},
		{Name: "Dan", Age: 58},
	})
	require.NoError(t, err)
	return w
}

func advance(t *testing.T, w *engine.World, steps int) {
	t.Helper()
	for i := 0; i < steps; i++ {
		_, err := w.Advance(1)
		require.NoError(t, err)
	}
}

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	m := testManager(t)
	src := testWorld(t, 17)
	advance(t, src, 60)
	_, err := src.Apply(engine.Command{Actor: 2, Target: 3, Kind: "gift"})
	require.NoError(t, err)

	meta, err := m.Save(src, "before-the-party", "two days in")
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, meta.Version)
	assert.Equal(t, 4, meta.AgentCount)
	assert.Equal(t, uint64(60), meta.Tick)
	assert.Positive(t, meta.PayloadBytes)
	assert.FileExists(t, m.path("before-the-party"))

	dst := testWorld(t, 1)
	loaded, err := m.Load("before-the-party", dst)
	require.NoError(t, err)
	assert.Equal(t, "two days in", loaded.Description)
	assert.Equal(t, src.Export(), dst.Export())

	a, err := src.Advance(1)
	require.NoError(t, err)
	b, err := dst.Advance(1)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestQuickSaveLoad_RestoresTime(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	advance(t, w, 10)
	saved := w.Clock()

	meta, err := m.QuickSave(w, 1)
	require.NoError(t, err)
	assert.Equal(t, "quicksave_1", meta.Name)
	assert.Equal(t, 1, meta.Slot)

	advance(t, w, 100)
	require.NotEqual(t, saved, w.Clock())

	_, err = m.QuickLoad(1, w)
	require.NoError(t, err)
	assert.Equal(t, saved, w.Clock())
	assert.Equal(t, uint64(10), w.Tick())
}

func TestQuickSave_InvalidSlot(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	for _, slot := range []int{0, -1, MaxSlot + 1} {
		_, err := m.QuickSave(w, slot)
		assert.ErrorIs(t, err, ErrInvalidSlot)
		_, err = m.QuickLoad(slot, w)
		assert.ErrorIs(t, err, ErrInvalidSlot)
	}
}

func TestSave_InvalidName(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	for _, name := range []string{"../escape", "a/b", ".hidden", "name with spaces"} {
		_, err := m.Save(w, name, "")
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestSave_DefaultName(t *testing.T) {
	m := testManager(t)
	m.now = func() time.Time { return time.Date(2025, 7, 4, 18, 30, 5, 0, time.UTC) }

	meta, err := m.Save(testWorld(t, 5), "", "")
	require.NoError(t, err)
	assert.Equal(t, "checkpoint_20250704_183005", meta.Name)
	assert.FileExists(t, m.path(meta.Name))
}

func TestSave_IndexFailureKeepsPreviousPayload(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	advance(t, w, 3)
	_, err := m.Save(w, "keep", "")
	require.NoError(t, err)

	advance(t, w, 2)
	require.NoError(t, m.index.Close())
	_, err = m.Save(w, "keep", "")
	require.Error(t, err)
	_, err = m.Save(w, "fresh", "")
	require.Error(t, err)

	h, _, err := readPayload(m.path("keep"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), h.Tick, "previous payload restored")
	assert.NoFileExists(t, m.path("fresh"))

	entries, err := os.ReadDir(m.dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".prev")
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestLoad_NotFound(t *testing.T) {
	m := testManager(t)
	_, err := m.Load("nope", testWorld(t, 5))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		m.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		_, err := m.Save(w, name, "")
		require.NoError(t, err)
	}

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Name)
	assert.Equal(t, "second", list[1].Name)
	assert.Equal(t, "first", list[2].Name)
	assert.True(t, list[0].CreatedAt.Equal(base.Add(2*time.Hour)))
}

func TestSave_Supersedes(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	_, err := m.Save(w, "slot", "old")
	require.NoError(t, err)
	advance(t, w, 3)
	_, err = m.Save(w, "slot", "new")
	require.NoError(t, err)

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Description)
	assert.Equal(t, uint64(3), list[0].Tick)
}

func TestDelete(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	_, err := m.Save(w, "gone", "")
	require.NoError(t, err)

	require.NoError(t, m.Delete("gone"))
	assert.NoFileExists(t, m.path("gone"))
	_, err = m.Load("gone", w)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete("gone"), ErrNotFound)
}

func TestLoad_IncompatibleVersion(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	meta, err := m.Save(w, "future", "")
	require.NoError(t, err)

	h := Header{Format: formatName, Version: 99, Name: "future"}
	_, err = writePayload(m.path("future"), h, map[string]any{"hello": "world"})
	require.NoError(t, err)

	advance(t, w, 2)
	before := w.Export()

	_, err = m.Load(meta.Name, w)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
	var ive *IncompatibleVersionError
	require.True(t, errors.As(err, &ive))
	assert.Equal(t, 99, ive.Found)
	assert.Equal(t, CurrentVersion, ive.Supported)
	assert.Equal(t, before, w.Export())
}

func TestLoad_Corrupt(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	_, err := m.Save(w, "broken", "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(m.path("broken"), []byte("definitely not zstd"), 0o644))

	before := w.Export()
	_, err = m.Load("broken", w)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, before, w.Export())
}

func TestLoad_CorruptBody(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 5)
	_, err := m.Save(w, "bad-mood", "")
	require.NoError(t, err)

	doc := toDocument(w.Export())
	doc.Agents[0].Mood = "melancholic"
	h := Header{Format: formatName, Version: CurrentVersion, Name: "bad-mood"}
	_, err = writePayload(m.path("bad-mood"), h, doc)
	require.NoError(t, err)

	_, err = m.Load("bad-mood", w)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoad_MigratesV1(t *testing.T) {
	m := testManager(t)
	w := testWorld(t, 8)
	advance(t, w, 30)
	_, err := m.Save(w, "legacy", "")
	require.NoError(t, err)

	h := Header{Format: formatName, Version: VersionV1, Name: "legacy"}
	_, err = writePayload(m.path("legacy"), h, downgrade(toDocument(w.Export())))
	require.NoError(t, err)

	dst := testWorld(t, 2)
	_, err = m.Load("legacy", dst)
	require.NoError(t, err)

	for _, a := range dst.Agents() {
		assert.Zero(t, a.Psyche.Stress, a.Name)
	}
	r, ok := dst.Relationship(0, 1)
	require.True(t, ok)
	assert.True(t, r.Tags.Has(social.TagFamily))
	assert.Equal(t, float64(v1Respect), r.Respect)
	assert.Equal(t, w.Clock(), dst.Clock())
}

// downgrade strips a current document to the version 1 layout.
func downgrade(d DocumentV2) DocumentV1 {
	out := DocumentV1{
		Seed:       d.Seed,
		Tick:       d.Tick,
		Clock:      d.Clock,
		Locations:  d.Locations,
		Milestones: d.Milestones,
		Detector:   d.Detector,
		Decisions:  d.Decisions,
	}
	for _, a := range d.Agents {
		out.Agents = append(out.Agents, AgentV1{
			ID: a.ID, Name: a.Name, Birth: a.Birth, Personality: a.Personality,
			Needs: a.Needs, Loneliness: a.Loneliness, Mood: a.Mood,
			Location: a.Location, Home: a.Home, Activity: a.Activity,
			Family: a.Family, Memories: a.Memories, Active: a.Active,
		})
	}
	for _, r := range d.Relationships {
		out.Relationships = append(out.Relationships, RelationshipV1{
			A: r.A, B: r.B, Status: r.Status, Friendship: r.Friendship,
			Romance: r.Romance, Trust: r.Trust, Compatibility: r.Compatibility,
			Chemistry: r.Chemistry, LastInteraction: r.LastInteraction,
			History: r.History, Counters: r.Counters,
		})
	}
	return out
}
