// Package engine owns the live world: it wires the clock, agents,
// relationships and milestones together and advances them in a fixed order.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/milestones"
	"github.com/talgya/willow-creek/internal/social"
	"github.com/talgya/willow-creek/internal/tuning"
	"github.com/talgya/willow-creek/internal/world"
)

// ErrInvalidElapsed is returned by Advance for hours that are not positive or
// exceed clock.MaxAdvanceHours.
var ErrInvalidElapsed = errors.New("elapsed hours must be positive and bounded")

// Options configures a new world.
type Options struct {
	Seed         int64
	Start        clock.Date
	StartHour    float64
	DaysPerMonth int
	Tuning       *tuning.Tuning // nil means tuning.Default()
	Map          *world.Map     // nil means world.DefaultTown()
	Catalog      Catalog        // nil means DefaultCatalog()
}

// World holds the complete simulation state. Every exported method takes the
// world lock, so a checkpoint never overlaps a tick.
type World struct {
	mu sync.Mutex

	seed    int64
	tick    uint64
	tune    *tuning.Tuning
	catalog Catalog

	clock    *clock.Clock
	places   *world.Map
	store    *agents.Store
	graph    *social.Graph
	log      *milestones.Log
	detector *milestones.Detector
	decider  *agents.Decider
	drift    *agents.Drift
}

// StepSummary reports what one Advance did.
type StepSummary struct {
	Tick         uint64                 `json:"tick"`
	Time         string                 `json:"time"`
	Hours        float64                `json:"hours"`
	DaysCrossed  int                    `json:"days_crossed"`
	Decisions    []agents.Decision      `json:"decisions"`
	Interactions int                    `json:"interactions"`
	Milestones   []milestones.Milestone `json:"milestones,omitempty"`
}

// New builds a world from a roster. Homes named in the roster are added to
// the map, and declared kin are linked and tagged as family.
func New(opts Options, roster []agents.Definition) (*World, error) {
	t := opts.Tuning
	if t == nil {
		t = tuning.Default()
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	places := opts.Map
	if places == nil {
		places = world.DefaultTown()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	c := clock.New(opts.Start, opts.StartHour, opts.DaysPerMonth)
	store := agents.NewStore(agents.NewSpawner(opts.Seed, c.DaysPerMonth))
	today := c.Date()

	for _, def := range roster {
		def.Home = places.Add(homeName(def), world.KindHome)
		store.Add(def, today)
	}

	graph := social.NewGraph(store, &t.Relationships, t.HistoryCapacity)
	graph.SetNow(c.Now())
	for i, def := range roster {
		id := agents.AgentID(i)
		for _, kin := range def.Family {
			other, err := store.Lookup(kin)
			if err != nil {
				return nil, fmt.Errorf("agent %q: family: %w", def.Name, err)
			}
			if other.ID == id {
				continue
			}
			if err := store.LinkFamily(id, other.ID); err != nil {
				return nil, err
			}
			if err := graph.SeedFamily(id, other.ID); err != nil {
				return nil, err
			}
		}
	}

	w := &World{
		seed:     opts.Seed,
		tune:     t,
		catalog:  catalog,
		clock:    c,
		places:   places,
		store:    store,
		graph:    graph,
		log:      milestones.NewLog(opts.Seed),
		detector: milestones.NewDetector(&t.Milestones),
		decider:  agents.NewDecider(opts.Seed, &t.Decisions),
		drift:    agents.NewDrift(opts.Seed),
	}
	w.detector.Prime(store, graph)

	slog.Info("world created",
		"seed", opts.Seed,
		"agents", store.Len(),
		"locations", places.Len(),
		"time", c.Label(),
	)
	return w, nil
}

// homeName is the roster's home for def, or "<name>'s home".
func homeName(def agents.Definition) string {
	if def.HomeName != "" {
		return def.HomeName
	}
	return def.Name + "'s home"
}

// Advance moves the world forward by hours of simulated time. The order is
// fixed: clock, needs and psyche for every agent, decisions, relationship
// decay, milestone detection.
func (w *World) Advance(hours float64) (StepSummary, error) {
	if !(hours > 0) || hours > clock.MaxAdvanceHours {
		return StepSummary{}, fmt.Errorf("advance %v: %w", hours, ErrInvalidElapsed)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick++
	startDay := w.clock.TotalDays
	entered := w.clock.Advance(hours)
	now := w.clock.Now()
	w.graph.SetNow(now)

	active := w.store.Active()
	for _, a := range active {
		agents.DecayNeeds(a, hours, &w.tune.Needs)
		agents.UpdatePsyche(a, hours, now.Days(), w.drift, &w.tune.Psyche)
	}

	sum := StepSummary{
		Tick:        w.tick,
		Time:        w.clock.Label(),
		Hours:       hours,
		DaysCrossed: w.clock.TotalDays - startDay,
		Decisions:   make([]agents.Decision, 0, len(active)),
	}

	w.decider.State.Tick = w.tick
	sched := scheduleOf(w.clock)
	present := w.occupancy(active)
	for _, a := range active {
		ctx := agents.DecisionContext{
			Traits: agents.TraitsFor(a.Personality, &w.tune.Decisions),
			Mood:   a.Psyche.Mood,
			Needs:  a.Needs,
			Season: sched.season,
			Nearby: present.nearby(a),
		}
		d := w.decider.Decide(a, w.candidates(a, ctx.Nearby, sched), ctx)
		from := a.Location
		interacted, err := w.perform(a, d.Action, hours)
		present.move(a.ID, from, a.Location)
		if err != nil {
			slog.Warn("action failed", "agent", a.ID, "action", d.Action.Name, "error", err)
		}
		if interacted {
			sum.Interactions++
		}
		sum.Decisions = append(sum.Decisions, d)
	}

	w.graph.ApplyDecay(hours/24, now)
	w.graph.RecomputeAll()

	scene := milestones.Scene{Day: w.clock.TotalDays, Time: sum.Time, Entered: entered}
	sum.Milestones = w.detector.Detect(w.store, w.graph, scene, w.log)
	for _, m := range sum.Milestones {
		w.remember(m)
	}

	return sum, nil
}

// remember copies major milestones into the memories of everyone involved.
func (w *World) remember(m milestones.Milestone) {
	if m.Importance < milestones.Major {
		return
	}
	ids := append([]agents.AgentID{m.Primary}, m.Secondary...)
	for _, id := range ids {
		a, err := w.store.Get(id)
		if err != nil {
			continue
		}
		agents.AddMemory(a, agents.Memory{
			Tick:       w.tick,
			Day:        m.Day,
			Content:    m.Description,
			Importance: importanceWeight(m.Importance),
			With:       otherIDs(ids, id),
		}, w.tune.MemoryCapacity)
	}
}

func importanceWeight(i milestones.Importance) float32 {
	switch i {
	case milestones.LifeChanging:
		return 1
	case milestones.Major:
		return 0.8
	case milestones.Moderate:
		return 0.5
	case milestones.Minor:
		return 0.2
	}
	return 0
}

func otherIDs(ids []agents.AgentID, self agents.AgentID) []agents.AgentID {
	var out []agents.AgentID
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

// Tick returns the number of completed steps.
func (w *World) Tick() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

// Seed returns the world seed.
func (w *World) Seed() int64 {
	return w.seed
}

// Tuning returns the world's threshold table. Callers must not modify it.
func (w *World) Tuning() *tuning.Tuning {
	return w.tune
}

// Clock returns a copy of the current clock.
func (w *World) Clock() clock.Clock {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.clock
}

// Stats is the population summary used in daily reports.
type Stats struct {
	Active        int     `json:"active"`
	AvgStress     float64 `json:"avg_stress"`
	AvgLoneliness float64 `json:"avg_loneliness"`
	AvgHunger     float64 `json:"avg_hunger"`
	Relationships int     `json:"relationships"`
	Milestones    int     `json:"milestones"`
}

// Stats computes the current population summary.
func (w *World) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := Stats{Relationships: w.graph.Len(), Milestones: w.log.Len()}
	for _, a := range w.store.Active() {
		st.Active++
		st.AvgStress += a.Psyche.Stress
		st.AvgLoneliness += a.Psyche.Loneliness
		st.AvgHunger += a.Needs[agents.NeedHunger]
	}
	if st.Active > 0 {
		n := float64(st.Active)
		st.AvgStress /= n
		st.AvgLoneliness /= n
		st.AvgHunger /= n
	}
	return st
}
