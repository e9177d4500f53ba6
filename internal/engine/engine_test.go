package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/milestones"
	"github.com/talgya/willow-creek/internal/social"
	"github.com/talgya/willow-creek/internal/tuning"
)

var testStart = clock.Date{Day: 1, Month: 4, Year: 2025}

func testRoster() []agents.Definition {
	return []agents.Definition{
		{Name: "Alice", Age: 29, Family: []string{"Bob"}},
		{Name: "Bob", Age: 31, HomeName: "Alice's home"},
		{Name: "Carol", Age: 24},
		{Name: "Dan", Age: 40},
		{Name: "Erin", Age: 19},
	}
}

func newTestWorld(t *testing.T, seed int64) *World {
	t.Helper()
	w, err := New(Options{Seed: seed, Start: testStart, StartHour: 8}, testRoster())
	require.NoError(t, err)
	return w
}

func TestNew_ResolvesHomesAndFamily(t *testing.T) {
	w := newTestWorld(t, 7)

	alice, err := w.Lookup("Alice")
	require.NoError(t, err)
	bob, err := w.Lookup("Bob")
	require.NoError(t, err)

	all := w.Agents()
	require.Len(t, all, 5)
	assert.Equal(t, all[alice].Home, all[bob].Home, "Bob lives in Alice's home")
	assert.Equal(t, "Alice's home", w.places.Name(all[alice].Home))
	assert.Equal(t, "Carol's home", w.places.Name(all[2].Home))
	assert.Equal(t, []agents.AgentID{bob}, all[alice].Family)
	assert.Equal(t, []agents.AgentID{alice}, all[bob].Family)

	r, ok := w.Relationship(alice, bob)
	require.True(t, ok)
	assert.True(t, r.Tags.Has(social.TagFamily))
	assert.GreaterOrEqual(t, r.Friendship, 50.0)
}

func TestNew_UnknownFamily(t *testing.T) {
	_, err := New(Options{Seed: 1, Start: testStart}, []agents.Definition{
		{Name: "Alice", Age: 30, Family: []string{"Nobody"}},
	})
	assert.ErrorIs(t, err, agents.ErrNoSuchAgent)
}

func TestAdvance_InvalidElapsed(t *testing.T) {
	w := newTestWorld(t, 1)
	for _, h := range []float64{0, -1, math.NaN(), math.Inf(1), 2 * clock.MaxAdvanceHours} {
		_, err := w.Advance(h)
		assert.ErrorIs(t, err, ErrInvalidElapsed, "hours=%v", h)
	}
	assert.Equal(t, uint64(0), w.Tick())
}

func TestAdvance_IdleHungerDecay(t *testing.T) {
	tu := tuning.Default()
	tu.Needs.DecayPerHour.Hunger = 2
	w, err := New(Options{Seed: 3, Start: testStart, Tuning: tu, Catalog: Catalog{}}, []agents.Definition{
		{Name: "Alice", Age: 30, Needs: map[agents.NeedKind]float64{agents.NeedHunger: 50}},
	})
	require.NoError(t, err)

	for i := 0; i < 24; i++ {
		sum, err := w.Advance(1)
		require.NoError(t, err)
		require.Len(t, sum.Decisions, 1)
		assert.Equal(t, "idle", sum.Decisions[0].Action.Name)
	}

	a := w.Agents()[0]
	assert.InDelta(t, 2.0, a.Needs[agents.NeedHunger], 1e-9)
	assert.Equal(t, uint64(24), w.Tick())
	c := w.Clock()
	assert.Equal(t, 1, c.TotalDays)
	assert.Equal(t, 2, c.Day)
}

func TestAdvance_StaysInBounds(t *testing.T) {
	w := newTestWorld(t, 11)
	for i := 0; i < 240; i++ {
		_, err := w.Advance(1)
		require.NoError(t, err)
	}

	for _, a := range w.Agents() {
		for k := agents.NeedKind(0); k < agents.NumNeeds; k++ {
			assert.GreaterOrEqual(t, a.Needs[k], 0.0, "%s %s", a.Name, k)
			assert.LessOrEqual(t, a.Needs[k], 100.0, "%s %s", a.Name, k)
		}
		assert.GreaterOrEqual(t, a.Psyche.Stress, 0.0)
		assert.LessOrEqual(t, a.Psyche.Stress, 100.0)
		assert.GreaterOrEqual(t, a.Psyche.Loneliness, 0.0)
		assert.LessOrEqual(t, a.Psyche.Loneliness, 100.0)
	}
	for _, r := range w.Export().Relationships {
		for _, v := range []float64{r.Friendship, r.Romance, r.Trust, r.Respect, r.Chemistry} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
		x, ok := w.Relationship(r.Pair.A, r.Pair.B)
		require.True(t, ok)
		y, ok := w.Relationship(r.Pair.B, r.Pair.A)
		require.True(t, ok)
		assert.Equal(t, x, y)
	}
}

func TestAdvance_Deterministic(t *testing.T) {
	a := newTestWorld(t, 42)
	b := newTestWorld(t, 42)
	for i := 0; i < 100; i++ {
		sa, err := a.Advance(1.5)
		require.NoError(t, err)
		sb, err := b.Advance(1.5)
		require.NoError(t, err)
		require.Equal(t, sa, sb, "step %d", i)
	}
	assert.Equal(t, a.Export(), b.Export())
}

func TestAdvance_DecisionsInIDOrder(t *testing.T) {
	w := newTestWorld(t, 5)
	sum, err := w.Advance(1)
	require.NoError(t, err)
	require.Len(t, sum.Decisions, 5)
	for i, d := range sum.Decisions {
		assert.Equal(t, agents.AgentID(i), d.Agent)
		assert.Greater(t, d.Probability, 0.0)
		assert.LessOrEqual(t, d.Probability, 1.0)
	}
	assert.Equal(t, uint64(1), sum.Tick)
	assert.Equal(t, 1.0, sum.Hours)
}

func TestOccupancy_Move(t *testing.T) {
	occ := occupancy{1: {0, 2, 4}, 2: {1, 3}}

	occ.move(2, 1, 2)
	assert.Equal(t, []agents.AgentID{0, 4}, occ[1])
	assert.Equal(t, []agents.AgentID{1, 2, 3}, occ[2])

	occ.move(4, 1, 7)
	assert.Equal(t, []agents.AgentID{4}, occ[7])
	assert.Equal(t, []agents.AgentID{0}, occ.nearby(&agents.Agent{ID: 9, Location: 1}))
}

func TestAdvance_PartnersAreWhereTheyMoved(t *testing.T) {
	w := newTestWorld(t, 31)
	for step := 0; step < 200; step++ {
		sum, err := w.Advance(1)
		require.NoError(t, err)
		all := w.Agents()
		for _, d := range sum.Decisions {
			if d.Action.Target == agents.NoAgent || d.Action.Target > d.Agent {
				continue
			}
			// The partner decided earlier this tick and stays put afterwards.
			assert.Equal(t, d.Action.Location, all[d.Action.Target].Location,
				"step %d: %s by %d", step, d.Action.Name, d.Agent)
		}
	}
}

func TestAddAgent(t *testing.T) {
	w := newTestWorld(t, 12)

	id, err := w.AddAgent(agents.Definition{Name: "Fay", Age: 0, Family: []string{"Carol"}, HomeName: "Carol's home"})
	require.NoError(t, err)
	assert.Equal(t, agents.AgentID(5), id)

	all := w.Agents()
	require.Len(t, all, 6)
	fay := all[id]
	assert.True(t, fay.Active)
	assert.Equal(t, all[2].Home, fay.Home)
	assert.Equal(t, []agents.AgentID{2}, fay.Family)
	r, ok := w.Relationship(id, 2)
	require.True(t, ok)
	assert.True(t, r.Tags.Has(social.TagFamily))

	sum, err := w.Advance(1)
	require.NoError(t, err)
	assert.Len(t, sum.Decisions, 6)

	_, err = w.AddAgent(agents.Definition{Name: "Gus", Family: []string{"Nobody"}})
	assert.ErrorIs(t, err, agents.ErrNoSuchAgent)
	_, err = w.AddAgent(agents.Definition{})
	assert.ErrorIs(t, err, ErrUnnamedAgent)
	assert.Len(t, w.Agents(), 6)
}

func TestDeactivate(t *testing.T) {
	w := newTestWorld(t, 12)
	require.NoError(t, w.Deactivate(4))

	hunger := w.Agents()[4].Needs[agents.NeedHunger]
	sum, err := w.Advance(3)
	require.NoError(t, err)
	assert.Len(t, sum.Decisions, 4)
	assert.Equal(t, hunger, w.Agents()[4].Needs[agents.NeedHunger], "needs freeze")

	_, err = w.Apply(Command{Actor: 0, Target: 4, Kind: "talk"})
	assert.ErrorIs(t, err, ErrInactiveAgent)
	assert.ErrorIs(t, w.Deactivate(42), agents.ErrNoSuchAgent)
}

func TestApply_Gift(t *testing.T) {
	w := newTestWorld(t, 9)
	carol, dan := agents.AgentID(2), agents.AgentID(3)
	_, err := w.graph.AddFriendship(carol, dan, 65)
	require.NoError(t, err)

	r, err := w.Apply(Command{Actor: carol, Target: dan, Kind: "gift"})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, r.Friendship, 1e-9)
	assert.Equal(t, social.CloseFriend, r.Status)
	assert.Equal(t, 1, r.Counters.Gifts)

	for _, id := range []agents.AgentID{carol, dan} {
		snap, err := w.Snapshot(id)
		require.NoError(t, err)
		require.NotEmpty(t, snap.Memories)
		assert.Contains(t, snap.Memories[0].Content, "give gift")
	}
}

func TestApply_Errors(t *testing.T) {
	w := newTestWorld(t, 9)

	_, err := w.Apply(Command{Actor: 0, Target: 1, Kind: "juggle"})
	assert.ErrorIs(t, err, social.ErrUnknownInteraction)

	_, err = w.Apply(Command{Actor: 2, Target: 2, Kind: "talk"})
	assert.ErrorIs(t, err, social.ErrMalformedPair)

	_, err = w.Apply(Command{Actor: 2, Target: 99, Kind: "talk"})
	assert.ErrorIs(t, err, agents.ErrNoSuchAgent)
}

func TestRecordMilestone(t *testing.T) {
	w := newTestWorld(t, 4)

	m, err := w.RecordMilestone(Event{
		Type:        milestones.Scandal,
		Importance:  milestones.Major,
		Primary:     3,
		Secondary:   []agents.AgentID{4},
		Description: "Dan was caught cheating at the pub quiz",
		Impact:      milestones.Negative,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.Seq)

	latest := w.Milestones(1)
	require.Len(t, latest, 1)
	assert.Equal(t, m.ID, latest[0].ID)

	snap, err := w.Snapshot(4)
	require.NoError(t, err)
	require.NotEmpty(t, snap.Memories)
	assert.Equal(t, m.Description, snap.Memories[0].Content)

	_, err = w.RecordMilestone(Event{Type: milestones.Other, Importance: milestones.Minor, Primary: 99})
	assert.ErrorIs(t, err, agents.ErrNoSuchAgent)
}

func TestSnapshot(t *testing.T) {
	w := newTestWorld(t, 2)

	snap, err := w.Snapshot(0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", snap.Agent.Name)
	assert.Equal(t, 29, snap.Age)
	assert.Equal(t, "Alice's home", snap.Location)
	require.Len(t, snap.Nearby, 1, "Bob shares the home")
	assert.Equal(t, "Bob", snap.Nearby[0].Name)

	snap.Agent.Needs[agents.NeedHunger] = -50
	again, err := w.Snapshot(0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, again.Agent.Needs[agents.NeedHunger], 0.0)

	_, err = w.Snapshot(42)
	assert.ErrorIs(t, err, agents.ErrNoSuchAgent)
}

func TestSnapshot_MemoriesDoNotAliasLiveState(t *testing.T) {
	w := newTestWorld(t, 9)
	carol, dan := agents.AgentID(2), agents.AgentID(3)
	_, err := w.Apply(Command{Actor: dan, Target: carol, Kind: "gift"})
	require.NoError(t, err)

	snap, err := w.Snapshot(carol)
	require.NoError(t, err)
	require.NotEmpty(t, snap.Memories)
	require.NotEmpty(t, snap.Important)
	snap.Memories[0].With[0] = 99
	snap.Important[0].With[0] = 99
	snap.Agent.Memories[0].With[0] = 99
	w.Agents()[carol].Memories[0].With[0] = 99
	w.Export().Agents[carol].Memories[0].With[0] = 99

	again, err := w.Snapshot(carol)
	require.NoError(t, err)
	assert.Equal(t, []agents.AgentID{dan}, again.Memories[0].With)
	assert.Equal(t, []agents.AgentID{dan}, again.Agent.Memories[0].With)
}

func TestExportRestore_RoundTrip(t *testing.T) {
	src := newTestWorld(t, 21)
	for i := 0; i < 30; i++ {
		_, err := src.Advance(2)
		require.NoError(t, err)
	}
	st := src.Export()

	dst := newTestWorld(t, 99)
	require.NoError(t, dst.Restore(st))
	assert.Equal(t, st, dst.Export())

	for i := 0; i < 10; i++ {
		a, err := src.Advance(2)
		require.NoError(t, err)
		b, err := dst.Advance(2)
		require.NoError(t, err)
		require.Equal(t, a, b, "step %d after restore", i)
	}
}

func TestRestore_FailureLeavesWorldUntouched(t *testing.T) {
	w := newTestWorld(t, 8)
	_, err := w.Advance(5)
	require.NoError(t, err)
	before := w.Export()

	bad := w.Export()
	bad.Agents[0].Location = 999
	assert.Error(t, w.Restore(bad))

	bad = w.Export()
	bad.Milestones = append(bad.Milestones, milestones.Milestone{Seq: 0, Importance: milestones.Minor})
	assert.Error(t, w.Restore(bad))

	bad = w.Export()
	bad.Clock.DaysPerMonth = 0
	assert.Error(t, w.Restore(bad))

	assert.Equal(t, before, w.Export())
}

func TestRunner(t *testing.T) {
	w := newTestWorld(t, 13)
	r := NewRunner(w)

	var steps, days int
	r.OnStep = func(StepSummary) { steps++ }
	r.OnDay = func(int, StepSummary) error {
		days++
		return nil
	}

	n, err := r.Run(context.Background(), 48)
	require.NoError(t, err)
	assert.Equal(t, 48, n)
	assert.Equal(t, 48, steps)
	assert.Equal(t, 2, days)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err = r.Run(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestScheduleFactor(t *testing.T) {
	c := clock.New(clock.Date{Day: 6, Month: 7, Year: 2025}, 2, 30)
	s := scheduleOf(c)
	assert.Equal(t, clock.Summer, s.season)
	assert.Equal(t, clock.Night, s.phase)
	assert.Equal(t, 4.0, s.factor(agents.CategorySleep))
	assert.InDelta(t, 1.3, s.factor(agents.CategoryRomance), 1e-9)

	c = clock.New(testStart, 10, 30)
	c.TotalDays = 5
	s = scheduleOf(c)
	assert.InDelta(t, 0.2*1.5, s.factor(agents.CategoryWork), 1e-9)
}
