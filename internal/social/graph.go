package social

import (
	"fmt"
	"sort"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/tuning"
)

// Roster is the view of the agent store the graph needs.
type Roster interface {
	Get(id agents.AgentID) (*agents.Agent, error)
	Active() []*agents.Agent
}

// Graph owns every relationship record.
type Graph struct {
	rels       map[PairKey]*Relationship
	adj        map[agents.AgentID][]PairKey
	roster     Roster
	tune       *tuning.Relationships
	historyCap int
	now        clock.Stamp
}

// NewGraph creates an empty graph over roster.
func NewGraph(roster Roster, t *tuning.Relationships, historyCap int) *Graph {
	return &Graph{
		rels:       make(map[PairKey]*Relationship),
		adj:        make(map[agents.AgentID][]PairKey),
		roster:     roster,
		tune:       t,
		historyCap: historyCap,
	}
}

// SetNow sets the instant new records are stamped with.
func (g *Graph) SetNow(now clock.Stamp) {
	g.now = now
}

func (g *Graph) key(a, b agents.AgentID) (PairKey, error) {
	k, err := MakePair(a, b)
	if err != nil {
		return k, err
	}
	if _, err := g.roster.Get(a); err != nil {
		return k, err
	}
	if _, err := g.roster.Get(b); err != nil {
		return k, err
	}
	return k, nil
}

// GetOrCreate returns the record for (a, b), creating it on first touch.
func (g *Graph) GetOrCreate(a, b agents.AgentID) (*Relationship, error) {
	k, err := g.key(a, b)
	if err != nil {
		return nil, err
	}
	if r, ok := g.rels[k]; ok {
		return r, nil
	}
	x, _ := g.roster.Get(k.A)
	y, _ := g.roster.Get(k.B)
	r := &Relationship{
		Pair:            k,
		Trust:           g.tune.InitialTrust,
		Respect:         g.tune.InitialRespect,
		Compatibility:   Compatibility(x.Personality, y.Personality),
		LastInteraction: g.now,
	}
	r.updateChemistry()
	g.insert(r)
	return r, nil
}

func (g *Graph) insert(r *Relationship) {
	g.rels[r.Pair] = r
	g.adj[r.Pair.A] = append(g.adj[r.Pair.A], r.Pair)
	g.adj[r.Pair.B] = append(g.adj[r.Pair.B], r.Pair)
}

// Between reads the record for (a, b) without creating it.
func (g *Graph) Between(a, b agents.AgentID) (*Relationship, bool) {
	k, err := MakePair(a, b)
	if err != nil {
		return nil, false
	}
	r, ok := g.rels[k]
	return r, ok
}

// AddFriendship shifts friendship and recomputes status.
func (g *Graph) AddFriendship(a, b agents.AgentID, delta float64) (*Relationship, error) {
	return g.adjust(a, b, tuning.Delta{Friendship: delta})
}

// AddRomance shifts romance and recomputes status.
func (g *Graph) AddRomance(a, b agents.AgentID, delta float64) (*Relationship, error) {
	return g.adjust(a, b, tuning.Delta{Romance: delta})
}

func (g *Graph) adjust(a, b agents.AgentID, d tuning.Delta) (*Relationship, error) {
	r, err := g.GetOrCreate(a, b)
	if err != nil {
		return nil, err
	}
	applyDelta(r, d)
	g.recompute(r)
	return r, nil
}

func applyDelta(r *Relationship, d tuning.Delta) {
	r.Friendship = bound(r.Friendship + d.Friendship)
	r.Romance = bound(r.Romance + d.Romance)
	r.Trust = bound(r.Trust + d.Trust)
	r.Respect = bound(r.Respect + d.Respect)
	r.updateChemistry()
}

// RecordInteraction applies the tuned delta for kind, resets the decay timer,
// appends history and recomputes status. "propose" is the only way into
// Married: it succeeds when the pair is Committed and meets the married gate.
func (g *Graph) RecordInteraction(a, b agents.AgentID, kind string, at clock.Stamp) (*Relationship, error) {
	d, ok := g.tune.Interactions[kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownInteraction)
	}
	r, err := g.GetOrCreate(a, b)
	if err != nil {
		return nil, err
	}

	applyDelta(r, d)
	r.LastInteraction = at
	switch kind {
	case "talk", "deep_talk":
		r.Counters.Talks++
	case "date":
		r.Counters.Dates++
	case "gift":
		r.Counters.Gifts++
	case "conflict":
		r.Counters.Conflicts++
		if r.Friendship < g.tune.EnemyFriendshipBelow && r.Trust < g.tune.EnemyTrustBelow {
			r.Tags |= TagEnemy
		}
	}
	r.appendHistory(Interaction{Kind: kind, At: at, Friendship: r.Friendship, Romance: r.Romance}, g.historyCap)

	g.recompute(r)
	if kind == "propose" && r.Status == Committed && meets(r, g.tune.Gates.Married, 0) {
		r.Status = Married
	}
	return r, nil
}

// SeedFamily tags (a, b) as kin and lifts the scalars to the family bond.
func (g *Graph) SeedFamily(a, b agents.AgentID) error {
	r, err := g.GetOrCreate(a, b)
	if err != nil {
		return err
	}
	fb := g.tune.FamilyBond
	r.Tags |= TagFamily
	r.Friendship = max(r.Friendship, fb.Friendship)
	r.Romance = max(r.Romance, fb.Romance)
	r.Trust = max(r.Trust, fb.Trust)
	r.Respect = max(r.Respect, fb.Respect)
	r.updateChemistry()
	g.recompute(r)
	return nil
}

// ApplyDecay fades relationships left idle past the grace period. Only the
// part of the elapsed window beyond the grace period counts. Returns the
// number of records that changed.
func (g *Graph) ApplyDecay(elapsedDays float64, now clock.Stamp) int {
	g.now = now
	if elapsedDays <= 0 || g.tune.DecayPerDay <= 0 {
		return 0
	}
	changed := 0
	for _, k := range g.sortedKeys() {
		r := g.rels[k]
		idle := now.Days() - r.LastInteraction.Days() - g.tune.DecayGraceDays
		if idle <= 0 {
			continue
		}
		days := min(elapsedDays, idle)
		before := *r
		r.Friendship = bound(r.Friendship - g.tune.DecayPerDay*days)
		r.Romance = bound(r.Romance - g.tune.DecayPerDay*g.tune.RomanceDecayRatio*days)
		r.updateChemistry()
		g.recompute(r)
		if r.Friendship != before.Friendship || r.Romance != before.Romance || r.Status != before.Status {
			changed++
		}
	}
	return changed
}

// RecomputeStatus re-evaluates the status of (a, b) if the record exists.
func (g *Graph) RecomputeStatus(a, b agents.AgentID) (Status, error) {
	k, err := g.key(a, b)
	if err != nil {
		return Stranger, err
	}
	r, ok := g.rels[k]
	if !ok {
		return Stranger, nil
	}
	g.recompute(r)
	return r.Status, nil
}

// RecomputeAll re-evaluates every record.
func (g *Graph) RecomputeAll() {
	for _, k := range g.sortedKeys() {
		g.recompute(g.rels[k])
	}
}

func (g *Graph) recompute(r *Relationship) {
	r.Status = nextStatus(r, g.tune)
	if r.Tags.Has(TagEnemy) && r.Friendship >= g.tune.EnemyClearFriendship {
		r.Tags &^= TagEnemy
	}
}

func gateFor(s Status, gs *tuning.Gates) tuning.Gate {
	switch s {
	case Acquaintance:
		return gs.Acquaintance
	case Friend:
		return gs.Friend
	case CloseFriend:
		return gs.CloseFriend
	case BestFriend:
		return gs.BestFriend
	case RomanticInterest:
		return gs.RomanticInterest
	case Dating:
		return gs.Dating
	case Committed:
		return gs.Committed
	case Married:
		return gs.Married
	case Stranger:
	}
	return tuning.Gate{}
}

// meets reports whether r clears gate with the given slack.
func meets(r *Relationship, gate tuning.Gate, slack float64) bool {
	return r.Friendship >= gate.Friendship-slack && r.Romance >= gate.Romance-slack
}

// friendTier is the highest friendship status whose gate r strictly meets.
func friendTier(r *Relationship, gs *tuning.Gates) Status {
	for s := BestFriend; s > Stranger; s-- {
		if meets(r, gateFor(s, gs), 0) {
			return s
		}
	}
	return Stranger
}

// heldTier walks down the friendship ladder from s and returns the first
// status whose gate r still clears within the margin.
func heldTier(r *Relationship, s Status, gs *tuning.Gates, margin float64) Status {
	for ; s > Stranger; s-- {
		if meets(r, gateFor(s, gs), margin) {
			return s
		}
	}
	return Stranger
}

// nextStatus applies the ladder. A held status survives until a scalar
// drops below its gate minus the hysteresis margin, and a downgrade stops at
// the first lower rung still held. Leaving the romantic range lands on the
// best friendship tier held within the margin. Romantic statuses step up at
// most one rung, and Married is never entered here.
func nextStatus(r *Relationship, t *tuning.Relationships) Status {
	gs := &t.Gates
	margin := t.HysteresisMargin
	s := r.Status

	if s >= RomanticInterest {
		for s >= RomanticInterest && !meets(r, gateFor(s, gs), margin) {
			s--
		}
		if s < RomanticInterest {
			return heldTier(r, BestFriend, gs, margin)
		}
		switch s {
		case RomanticInterest:
			if meets(r, gs.Dating, 0) {
				return Dating
			}
		case Dating:
			if meets(r, gs.Committed, 0) {
				return Committed
			}
		}
		return s
	}

	if meets(r, gs.RomanticInterest, 0) {
		return RomanticInterest
	}
	if s > Stranger && !meets(r, gateFor(s, gs), margin) {
		s = heldTier(r, s-1, gs, margin)
	}
	if tier := friendTier(r, gs); tier > s {
		s = tier
	}
	return s
}

// RelationshipsOf returns the records touching id, strongest first.
func (g *Graph) RelationshipsOf(id agents.AgentID) []*Relationship {
	keys := g.adj[id]
	out := make([]*Relationship, 0, len(keys))
	for _, k := range keys {
		out = append(out, g.rels[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Strength(), out[j].Strength()
		if si != sj {
			return si > sj
		}
		return out[i].Pair.Other(id) < out[j].Pair.Other(id)
	})
	return out
}

// All returns every record in pair order.
func (g *Graph) All() []*Relationship {
	keys := g.sortedKeys()
	out := make([]*Relationship, len(keys))
	for i, k := range keys {
		out[i] = g.rels[k]
	}
	return out
}

// Len returns the number of records.
func (g *Graph) Len() int {
	return len(g.rels)
}

func (g *Graph) sortedKeys() []PairKey {
	keys := make([]PairKey, 0, len(g.rels))
	for k := range g.rels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	return keys
}

// RestoreGraph rebuilds a graph from records read back from a checkpoint.
func RestoreGraph(roster Roster, t *tuning.Relationships, historyCap int, rels []*Relationship, now clock.Stamp) (*Graph, error) {
	g := NewGraph(roster, t, historyCap)
	g.now = now
	for _, r := range rels {
		k, err := g.key(r.Pair.A, r.Pair.B)
		if err != nil {
			return nil, fmt.Errorf("relationship %s: %w", r.Pair, err)
		}
		if k != r.Pair {
			return nil, fmt.Errorf("relationship %s: %w", r.Pair, ErrMalformedPair)
		}
		if _, dup := g.rels[k]; dup {
			return nil, fmt.Errorf("relationship %s: duplicate record", r.Pair)
		}
		if r.Status > Married {
			return nil, fmt.Errorf("relationship %s: invalid status %d", r.Pair, r.Status)
		}
		r.Friendship = bound(r.Friendship)
		r.Romance = bound(r.Romance)
		r.Trust = bound(r.Trust)
		r.Respect = bound(r.Respect)
		r.Compatibility = bound(r.Compatibility)
		r.updateChemistry()
		g.insert(r)
	}
	return g, nil
}
