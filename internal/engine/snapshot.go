package engine

import (
	"fmt"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/milestones"
	"github.com/talgya/willow-creek/internal/social"
)

// Snapshot sizes.
const (
	snapshotMilestones = 5
	snapshotMemories   = 5
	snapshotImportant  = 3
)

// Neighbor is another agent at the same location as seen by the subject.
type Neighbor struct {
	ID         agents.AgentID `json:"id"`
	Name       string         `json:"name"`
	Friendship float64        `json:"friendship"`
	Romance    float64        `json:"romance"`
	Status     string         `json:"status"`
}

// AgentSnapshot is a deep copy of one agent and its surroundings. Nothing in
// it aliases live state.
type AgentSnapshot struct {
	Agent      *agents.Agent          `json:"agent"`
	Age        int                    `json:"age"`
	Location   string                 `json:"location"`
	Mood       string                 `json:"mood"`
	Traits     []string               `json:"traits"`
	Nearby     []Neighbor             `json:"nearby"`
	Milestones []milestones.Milestone `json:"milestones"`
	Memories   []agents.Memory        `json:"memories"`
	Important  []agents.Memory        `json:"important"`
	Graph      social.Stats           `json:"graph"`
	Time       string                 `json:"time"`
}

// Snapshot returns the current view of agent id.
func (w *World) Snapshot(id agents.AgentID) (AgentSnapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	a, err := w.store.Get(id)
	if err != nil {
		return AgentSnapshot{}, err
	}

	snap := AgentSnapshot{
		Agent:      a.Clone(),
		Age:        a.Age(w.clock.Date()),
		Location:   w.places.Name(a.Location),
		Mood:       a.Psyche.Mood.String(),
		Milestones: w.log.ForAgent(id, snapshotMilestones),
		Memories:   agents.RecentMemories(a, snapshotMemories),
		Important:  agents.ImportantMemories(a, snapshotImportant),
		Graph:      w.graph.Summarize(w.tune.Relationships.StrengthCutoff),
		Time:       w.clock.Label(),
	}
	for _, tr := range agents.TraitsFor(a.Personality, &w.tune.Decisions).List() {
		snap.Traits = append(snap.Traits, tr.String())
	}
	for _, other := range w.store.Active() {
		if other.ID == id || other.Location != a.Location {
			continue
		}
		n := Neighbor{ID: other.ID, Name: other.Name, Status: social.Stranger.String()}
		if r, ok := w.graph.Between(id, other.ID); ok {
			n.Friendship, n.Romance, n.Status = r.Friendship, r.Romance, r.Status.String()
		}
		snap.Nearby = append(snap.Nearby, n)
	}
	return snap, nil
}

// GraphStats summarizes the relationship graph.
func (w *World) GraphStats() social.Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.graph.Summarize(w.tune.Relationships.StrengthCutoff)
}

// Relationships returns copies of a's relationships, strongest first.
func (w *World) Relationships(id agents.AgentID) ([]social.Relationship, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.store.Has(id) {
		return nil, fmt.Errorf("agent %d: %w", id, agents.ErrNoSuchAgent)
	}
	rels := w.graph.RelationshipsOf(id)
	out := make([]social.Relationship, 0, len(rels))
	for _, r := range rels {
		out = append(out, *r.Clone())
	}
	return out, nil
}

// Relationship returns a copy of the record between a and b, if one exists.
func (w *World) Relationship(a, b agents.AgentID) (social.Relationship, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	r, ok := w.graph.Between(a, b)
	if !ok {
		return social.Relationship{}, false
	}
	return *r.Clone(), true
}

// Milestones returns the newest milestones, newest first. limit <= 0 means all.
func (w *World) Milestones(limit int) []milestones.Milestone {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.log.Newest(limit)
}

// MilestoneStats summarizes the milestone log.
func (w *World) MilestoneStats() milestones.Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.log.Stats(w.clock.TotalDays)
}

// Timeline returns every milestone involving id, oldest first.
func (w *World) Timeline(id agents.AgentID) []milestones.Milestone {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.log.Timeline(id)
}

// Agents returns copies of every agent in ID order.
func (w *World) Agents() []*agents.Agent {
	w.mu.Lock()
	defer w.mu.Unlock()

	all := w.store.All()
	out := make([]*agents.Agent, len(all))
	for i, a := range all {
		out[i] = a.Clone()
	}
	return out
}

// Lookup resolves an agent name to its ID.
func (w *World) Lookup(name string) (agents.AgentID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	a, err := w.store.Lookup(name)
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}
