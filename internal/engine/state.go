package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/milestones"
	"github.com/talgya/willow-creek/internal/social"
	"github.com/talgya/willow-creek/internal/world"
)

// State is everything needed to rebuild a world exactly. Tuning and the
// action catalog are configuration and are not part of it.
type State struct {
	Seed          int64                  `json:"seed"`
	Tick          uint64                 `json:"tick"`
	Clock         clock.Clock            `json:"clock"`
	Locations     []world.Location       `json:"locations"`
	Agents        []*agents.Agent        `json:"agents"`
	Relationships []*social.Relationship `json:"relationships"`
	Milestones    []milestones.Milestone `json:"milestones"`
	Detector      milestones.State       `json:"detector"`
	Decisions     agents.DecisionState   `json:"decisions"`
}

// Export deep-copies the world under its lock.
func (w *World) Export() *State {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := &State{
		Seed:       w.seed,
		Tick:       w.tick,
		Clock:      *w.clock,
		Milestones: w.log.All(),
		Detector:   w.detector.State(),
		Decisions:  w.decider.State,
	}
	for _, loc := range w.places.Locations {
		st.Locations = append(st.Locations, *loc)
	}
	for _, a := range w.store.All() {
		st.Agents = append(st.Agents, a.Clone())
	}
	for _, r := range w.graph.All() {
		st.Relationships = append(st.Relationships, r.Clone())
	}
	return st
}

// Restore replaces the world with st. Everything is rebuilt and validated
// first; on error the live world is left untouched.
func (w *World) Restore(st *State) error {
	if st == nil {
		return fmt.Errorf("restore: nil state")
	}
	c := st.Clock
	if c.DaysPerMonth <= 0 || c.Hour < 0 || c.Hour >= 24 || math.IsNaN(c.Hour) ||
		c.Month < 1 || c.Month > clock.MonthsPerYear || c.Day < 1 || c.Day > c.DaysPerMonth {
		return fmt.Errorf("restore: invalid clock %s", c.Label())
	}

	places, err := world.Restore(st.Locations)
	if err != nil {
		return fmt.Errorf("restore locations: %w", err)
	}

	list := make([]*agents.Agent, len(st.Agents))
	for i, a := range st.Agents {
		if a == nil {
			return fmt.Errorf("restore agents: slot %d is empty", i)
		}
		if places.Get(a.Location) == nil || places.Get(a.Home) == nil {
			return fmt.Errorf("restore agents: %q references an unknown location", a.Name)
		}
		list[i] = a.Clone()
	}
	store, err := agents.RestoreStore(agents.NewSpawner(st.Seed, c.DaysPerMonth), list)
	if err != nil {
		return fmt.Errorf("restore agents: %w", err)
	}

	rels := make([]*social.Relationship, len(st.Relationships))
	for i, r := range st.Relationships {
		if r == nil {
			return fmt.Errorf("restore relationships: slot %d is empty", i)
		}
		rels[i] = r.Clone()
	}
	graph, err := social.RestoreGraph(store, &w.tune.Relationships, w.tune.HistoryCapacity, rels, c.Now())
	if err != nil {
		return fmt.Errorf("restore relationships: %w", err)
	}

	history, err := milestones.RestoreLog(st.Seed, st.Milestones)
	if err != nil {
		return fmt.Errorf("restore milestones: %w", err)
	}

	decider := agents.NewDecider(st.Seed, &w.tune.Decisions)
	decider.State = st.Decisions
	decider.State.Seed = st.Seed

	w.mu.Lock()
	defer w.mu.Unlock()

	w.seed = st.Seed
	w.tick = st.Tick
	w.clock = &c
	w.places = places
	w.store = store
	w.graph = graph
	w.log = history
	w.detector = milestones.RestoreDetector(&w.tune.Milestones, st.Detector)
	w.decider = decider
	w.drift = agents.NewDrift(st.Seed)

	slog.Info("world restored",
		"seed", st.Seed,
		"tick", st.Tick,
		"agents", store.Len(),
		"time", c.Label(),
	)
	return nil
}
