package social

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/tuning"
)

func newTestGraph(t *testing.T, n int) (*Graph, *agents.Store) {
	t.Helper()
	store := agents.NewStore(agents.NewSpawner(1, 30))
	today := clock.Date{Day: 1, Month: 3, Year: 2025}
	for i := 0; i < n; i++ {
		store.Add(agents.Definition{Name: fmt.Sprintf("Agent %d", i), Age: 25}, today)
	}
	tu := tuning.Default()
	return NewGraph(store, &tu.Relationships, tu.HistoryCapacity), store
}

func TestMakePair(t *testing.T) {
	k1, err := MakePair(5, 2)
	require.NoError(t, err)
	k2, err := MakePair(2, 5)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Equal(t, PairKey{A: 2, B: 5}, k1)
	assert.Equal(t, agents.AgentID(5), k1.Other(2))

	_, err = MakePair(3, 3)
	assert.ErrorIs(t, err, ErrMalformedPair)
}

func TestGetOrCreate_Symmetric(t *testing.T) {
	g, _ := newTestGraph(t, 3)

	r1, err := g.GetOrCreate(0, 1)
	require.NoError(t, err)
	r2, err := g.GetOrCreate(1, 0)
	require.NoError(t, err)
	assert.Same(t, r1, r2)
	assert.Equal(t, 1, g.Len())

	_, err = g.AddFriendship(1, 0, 12)
	require.NoError(t, err)
	got, ok := g.Between(0, 1)
	require.True(t, ok)
	assert.Equal(t, 12.0, got.Friendship)

	_, ok = g.Between(1, 2)
	assert.False(t, ok)
}

func TestGetOrCreate_Errors(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	_, err := g.GetOrCreate(0, 7)
	assert.ErrorIs(t, err, agents.ErrNoSuchAgent)
	_, err = g.GetOrCreate(1, 1)
	assert.ErrorIs(t, err, ErrMalformedPair)
	assert.Equal(t, 0, g.Len())

	_, err = g.RecordInteraction(0, 1, "serenade", 0)
	assert.ErrorIs(t, err, ErrUnknownInteraction)
}

func TestScalarsStayBounded(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	r, err := g.AddFriendship(0, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Friendship)
	assert.Equal(t, BestFriend, r.Status)

	r, err = g.AddFriendship(0, 1, -1000)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Friendship)
	assert.Equal(t, Stranger, r.Status)

	for i := 0; i < 10; i++ {
		_, err = g.RecordInteraction(0, 1, "conflict", 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 0.0, r.Trust)
	assert.GreaterOrEqual(t, r.Chemistry, 0.0)
	assert.LessOrEqual(t, r.Chemistry, 100.0)
}

func TestGiftPromotesToCloseFriend(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	r, err := g.AddFriendship(0, 1, 65)
	require.NoError(t, err)
	assert.Equal(t, Friend, r.Status)

	r, err = g.RecordInteraction(1, 0, "gift", 10)
	require.NoError(t, err)
	assert.Equal(t, 75.0, r.Friendship)
	assert.Equal(t, CloseFriend, r.Status)
	assert.Equal(t, 1, r.Counters.Gifts)
	assert.Equal(t, clock.Stamp(10), r.LastInteraction)
	require.Len(t, r.History, 1)
	assert.Equal(t, "gift", r.History[0].Kind)
}

func TestStatusHysteresis(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	r, _ := g.AddFriendship(0, 1, 72)
	assert.Equal(t, CloseFriend, r.Status)

	r, _ = g.AddFriendship(0, 1, -5)
	assert.Equal(t, 67.0, r.Friendship)
	assert.Equal(t, CloseFriend, r.Status, "held within the margin")

	r, _ = g.AddFriendship(0, 1, -3)
	assert.Equal(t, Friend, r.Status)

	r, _ = g.AddFriendship(0, 1, 5)
	assert.Equal(t, 69.0, r.Friendship)
	assert.Equal(t, Friend, r.Status, "upgrades need the full gate")
}

func TestStatusHysteresis_MultiTierDrop(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	r, _ := g.AddFriendship(0, 1, 86)
	require.Equal(t, BestFriend, r.Status)

	r, _ = g.AddFriendship(0, 1, -19)
	assert.Equal(t, 67.0, r.Friendship)
	assert.Equal(t, CloseFriend, r.Status, "close friend still held at 67")

	r, _ = g.AddFriendship(0, 1, -30)
	assert.Equal(t, 37.0, r.Friendship)
	assert.Equal(t, Friend, r.Status)

	r, _ = g.AddFriendship(0, 1, -20)
	assert.Equal(t, Acquaintance, r.Status)
}

func TestStatusHysteresis_LeavingRomance(t *testing.T) {
	tu := tuning.Default()
	r := &Relationship{Status: CloseFriend, Friendship: 67, Romance: 30}

	r.Status = nextStatus(r, &tu.Relationships)
	require.Equal(t, RomanticInterest, r.Status)

	r.Romance = 20
	r.Status = nextStatus(r, &tu.Relationships)
	assert.Equal(t, CloseFriend, r.Status)

	r.Friendship = 50
	r.Status = nextStatus(r, &tu.Relationships)
	assert.Equal(t, Friend, r.Status)
}

func TestRomanceLadder(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	r, _ := g.AddFriendship(0, 1, 50)
	assert.Equal(t, Friend, r.Status)
	r, _ = g.AddRomance(0, 1, 35)
	assert.Equal(t, RomanticInterest, r.Status)
	r, _ = g.AddRomance(0, 1, 10)
	assert.Equal(t, Dating, r.Status)
	r, _ = g.AddRomance(0, 1, 30)
	assert.Equal(t, Dating, r.Status, "committed needs friendship 60")
	r, _ = g.AddFriendship(0, 1, 15)
	assert.Equal(t, Committed, r.Status)

	r, err := g.RecordInteraction(0, 1, "propose", 5)
	require.NoError(t, err)
	assert.Equal(t, 80.0, r.Romance)
	assert.Equal(t, Committed, r.Status, "romance below the married gate")

	r, _ = g.AddRomance(0, 1, 10)
	r, _ = g.AddFriendship(0, 1, 10)
	assert.Equal(t, Committed, r.Status, "married only through propose")

	r, err = g.RecordInteraction(0, 1, "propose", 6)
	require.NoError(t, err)
	assert.Equal(t, Married, r.Status)
}

func TestRomanceUpgradesOneStepAtATime(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	r, _ := g.AddFriendship(0, 1, 80)
	r, _ = g.AddRomance(0, 1, 80)
	assert.Equal(t, RomanticInterest, r.Status)

	st, err := g.RecomputeStatus(1, 0)
	require.NoError(t, err)
	assert.Equal(t, Dating, st)
	st, _ = g.RecomputeStatus(0, 1)
	assert.Equal(t, Committed, st)
	st, _ = g.RecomputeStatus(0, 1)
	assert.Equal(t, Committed, st)
}

func TestRomanceFallsBack(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	g.AddFriendship(0, 1, 50)
	g.AddRomance(0, 1, 45)
	g.RecomputeStatus(0, 1)
	r, _ := g.Between(0, 1)
	require.Equal(t, Dating, r.Status)

	r, _ = g.AddRomance(0, 1, -15)
	assert.Equal(t, RomanticInterest, r.Status)

	r, _ = g.AddRomance(0, 1, -10)
	assert.Equal(t, 20.0, r.Romance)
	assert.Equal(t, Friend, r.Status)
}

func TestApplyDecay(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	r, _ := g.AddFriendship(0, 1, 50)
	g.AddRomance(0, 1, 20)

	assert.Equal(t, 0, g.ApplyDecay(1, clock.Stamp(24)), "still in grace")
	assert.Equal(t, 50.0, r.Friendship)

	assert.Equal(t, 1, g.ApplyDecay(2, clock.Stamp(72)))
	assert.InDelta(t, 49.0, r.Friendship, 1e-9)
	assert.InDelta(t, 19.3, r.Romance, 1e-9)

	g.ApplyDecay(1, clock.Stamp(96))
	assert.InDelta(t, 48.5, r.Friendship, 1e-9)

	g.RecordInteraction(0, 1, "talk", clock.Stamp(96))
	assert.Equal(t, 0, g.ApplyDecay(1, clock.Stamp(120)))
}

func TestApplyDecay_FloorsAtZero(t *testing.T) {
	g, _ := newTestGraph(t, 2)
	r, _ := g.AddFriendship(0, 1, 3)

	g.ApplyDecay(100, clock.Stamp(24*101))
	assert.Equal(t, 0.0, r.Friendship)
	assert.Equal(t, Stranger, r.Status)
}

func TestEnemyTag(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	g.AddFriendship(0, 1, 5)
	r, _ := g.RecordInteraction(0, 1, "conflict", 1)
	assert.False(t, r.Tags.Has(TagEnemy), "trust still 30")

	r, _ = g.RecordInteraction(0, 1, "conflict", 2)
	assert.True(t, r.Tags.Has(TagEnemy))
	assert.Equal(t, 2, r.Counters.Conflicts)

	r, _ = g.AddFriendship(0, 1, 29)
	assert.True(t, r.Tags.Has(TagEnemy))
	r, _ = g.AddFriendship(0, 1, 1)
	assert.False(t, r.Tags.Has(TagEnemy))
}

func TestSeedFamily(t *testing.T) {
	g, _ := newTestGraph(t, 2)

	require.NoError(t, g.SeedFamily(1, 0))
	r, ok := g.Between(0, 1)
	require.True(t, ok)
	assert.True(t, r.Tags.Has(TagFamily))
	assert.Equal(t, 50.0, r.Friendship)
	assert.Equal(t, 70.0, r.Trust)
	assert.Equal(t, Friend, r.Status)
}

func TestChemistry(t *testing.T) {
	g, _ := newTestGraph(t, 2)
	r, _ := g.AddRomance(0, 1, 20)
	want := 0.4*r.Romance + 0.3*r.Trust + 0.3*r.Compatibility
	assert.InDelta(t, want, r.Chemistry, 1e-9)
}

func TestCompatibility(t *testing.T) {
	var a, b agents.Personality
	assert.Equal(t, 100.0, Compatibility(a, b))
	for i := range b {
		b[i] = 100
	}
	assert.Equal(t, 0.0, Compatibility(a, b))
}

func TestRelationshipsOf(t *testing.T) {
	g, _ := newTestGraph(t, 4)
	g.AddFriendship(0, 1, 10)
	g.AddFriendship(2, 0, 40)
	g.AddFriendship(1, 3, 90)

	rels := g.RelationshipsOf(0)
	require.Len(t, rels, 2)
	assert.Equal(t, agents.AgentID(2), rels[0].Pair.Other(0))
	assert.Equal(t, agents.AgentID(1), rels[1].Pair.Other(0))
	assert.Empty(t, g.RelationshipsOf(5))
}

func TestMetrics(t *testing.T) {
	g, store := newTestGraph(t, 4)
	g.AddFriendship(0, 1, 50)
	g.AddFriendship(1, 2, 30)
	g.GetOrCreate(2, 3)

	assert.InDelta(t, 80.0/3, g.AverageStrength(), 1e-9)
	assert.InDelta(t, 2.0/6, g.Density(), 1e-9)

	c, ok := g.MostConnected(20)
	require.True(t, ok)
	assert.Equal(t, Connected{Agent: 1, Ties: 2}, c)

	groups := g.FriendGroups(20)
	require.Len(t, groups, 1)
	assert.Equal(t, []agents.AgentID{0, 1, 2}, groups[0].Members)

	require.NoError(t, store.Deactivate(2))
	groups = g.FriendGroups(20)
	require.Len(t, groups, 1)
	assert.Equal(t, []agents.AgentID{0, 1}, groups[0].Members)
	assert.InDelta(t, 1.0/3, g.Density(), 1e-9)

	st := g.Summarize(20)
	assert.Equal(t, 3, st.Relationships)
	assert.Equal(t, 1, st.FriendGroups)
	require.NotNil(t, st.MostConnected)
}

func TestMetrics_Empty(t *testing.T) {
	g, _ := newTestGraph(t, 1)
	assert.Equal(t, 0.0, g.AverageStrength())
	assert.Equal(t, 0.0, g.Density())
	assert.Empty(t, g.FriendGroups(0))
	_, ok := g.MostConnected(0)
	assert.False(t, ok)
}

func TestRestoreGraph(t *testing.T) {
	g, store := newTestGraph(t, 3)
	g.AddFriendship(0, 1, 45)
	g.RecordInteraction(1, 2, "flirt", 3)

	var rels []*Relationship
	for _, r := range g.All() {
		rels = append(rels, r.Clone())
	}
	tu := tuning.Default()
	back, err := RestoreGraph(store, &tu.Relationships, tu.HistoryCapacity, rels, 3)
	require.NoError(t, err)
	assert.Equal(t, g.All(), back.All())

	bad := []*Relationship{{Pair: PairKey{A: 2, B: 1}}}
	_, err = RestoreGraph(store, &tu.Relationships, tu.HistoryCapacity, bad, 0)
	assert.ErrorIs(t, err, ErrMalformedPair)

	missing := []*Relationship{{Pair: PairKey{A: 0, B: 9}}}
	_, err = RestoreGraph(store, &tu.Relationships, tu.HistoryCapacity, missing, 0)
	assert.ErrorIs(t, err, agents.ErrNoSuchAgent)
}
