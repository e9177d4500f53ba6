package milestones

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/social"
	"github.com/talgya/willow-creek/internal/tuning"
)

// Population is the agent view the detector reads.
type Population interface {
	Get(id agents.AgentID) (*agents.Agent, error)
	Active() []*agents.Agent
}

// Relations is the relationship view the detector reads.
type Relations interface {
	All() []*social.Relationship
}

// Scene is the moment detection runs at.
type Scene struct {
	Day     int
	Time    string
	Entered []clock.Date // dates the clock entered this tick
}

// PairState is the cached view of one relationship plus its dedup flags.
type PairState struct {
	Pair       social.PairKey `json:"pair"`
	Status     social.Status  `json:"status"`
	Friendship float64        `json:"friendship"`
	Romance    float64        `json:"romance"`
	Enemy      bool           `json:"enemy"`

	FormedEmitted  bool `json:"formed_emitted"`
	RomanceEmitted bool `json:"romance_emitted"`
	BrokenArmed    bool `json:"broken_armed"`
}

// AgentState holds the per-agent dedup flags.
type AgentState struct {
	Agent          agents.AgentID `json:"agent"`
	HungerCritical bool           `json:"hunger_critical"`
	EnergyCritical bool           `json:"energy_critical"`
	LastBirthday   int            `json:"last_birthday"` // year of the last emitted birthday
}

// State is the detector cache as stored in checkpoints.
type State struct {
	Pairs  []PairState  `json:"pairs"`
	Agents []AgentState `json:"agents"`
}

// Detector turns state changes into milestones. Each threshold fires once and
// re-arms only after the value falls back past the re-arm margin.
type Detector struct {
	tune   *tuning.Milestones
	pairs  map[social.PairKey]*PairState
	agents map[agents.AgentID]*AgentState
}

// NewDetector creates a detector with an empty cache.
func NewDetector(t *tuning.Milestones) *Detector {
	return &Detector{
		tune:   t,
		pairs:  make(map[social.PairKey]*PairState),
		agents: make(map[agents.AgentID]*AgentState),
	}
}

// Prime records the current state without emitting anything, so a new world
// does not announce the conditions it starts in.
func (d *Detector) Prime(pop Population, rels Relations) {
	for _, a := range pop.Active() {
		d.PrimeAgent(a)
	}
	for _, r := range rels.All() {
		d.pairs[r.Pair] = &PairState{
			Pair:           r.Pair,
			Status:         r.Status,
			Friendship:     r.Friendship,
			Romance:        r.Romance,
			Enemy:          r.Tags.Has(social.TagEnemy),
			FormedEmitted:  r.Friendship >= d.tune.FriendshipFormedAt,
			RomanceEmitted: r.Romance >= d.tune.RomanceStartedAt,
			BrokenArmed:    r.Friendship >= d.tune.BrokenFrom,
		}
	}
}

// PrimeAgent caches a's current state so that conditions it already meets
// are not reported.
func (d *Detector) PrimeAgent(a *agents.Agent) {
	d.agents[a.ID] = &AgentState{
		Agent:          a.ID,
		HungerCritical: a.Needs.Level(agents.NeedHunger) < d.tune.NeedCriticalBelow,
		EnergyCritical: a.Needs.Level(agents.NeedEnergy) < d.tune.NeedCriticalBelow,
	}
}

// Detect compares current state with the cache, appends any milestones to
// log, and returns them. A failure while checking one agent or pair is
// logged and skipped.
func (d *Detector) Detect(pop Population, rels Relations, scene Scene, log *Log) []Milestone {
	var found []Milestone
	for _, a := range pop.Active() {
		found = append(found, d.guard("agent", a.ID, func() ([]Milestone, error) {
			return d.checkAgent(a, scene), nil
		})...)
	}
	for _, r := range rels.All() {
		found = append(found, d.guard("pair", r.Pair, func() ([]Milestone, error) {
			return d.checkPair(pop, r, scene)
		})...)
	}

	out := make([]Milestone, 0, len(found))
	for _, m := range found {
		out = append(out, log.Append(m))
	}
	return out
}

func (d *Detector) guard(kind string, key any, check func() ([]Milestone, error)) (ms []Milestone) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("milestone detection failed", kind, key, "panic", r)
			ms = nil
		}
	}()
	ms, err := check()
	if err != nil {
		slog.Warn("milestone detection failed", kind, key, "error", err)
		return nil
	}
	return ms
}

func (d *Detector) checkAgent(a *agents.Agent, scene Scene) []Milestone {
	st, ok := d.agents[a.ID]
	if !ok {
		st = &AgentState{Agent: a.ID}
		d.agents[a.ID] = st
	}

	var out []Milestone
	base := Milestone{
		Primary:  a.ID,
		Day:      scene.Day,
		Time:     scene.Time,
		Location: a.Location,
	}

	for _, date := range scene.Entered {
		if date.Month != a.Birth.Month || date.Day != a.Birth.Day {
			continue
		}
		age := date.YearsSince(a.Birth)
		if age <= 0 || st.LastBirthday == date.Year {
			continue
		}
		st.LastBirthday = date.Year
		m := base
		m.Type = Birthday
		m.Importance = BirthdayImportance(age)
		m.Description = fmt.Sprintf("%s turned %d", a.Name, age)
		m.Details = map[string]string{"age": strconv.Itoa(age)}
		m.Impact = Positive
		out = append(out, m)
	}

	check := func(flag *bool, need agents.NeedKind, text string) {
		level := a.Needs.Level(need)
		switch {
		case !*flag && level < d.tune.NeedCriticalBelow:
			*flag = true
			m := base
			m.Type = HealthEvent
			m.Importance = Minor
			m.Description = fmt.Sprintf("%s is %s", a.Name, text)
			m.Details = map[string]string{
				"need":  need.String(),
				"level": strconv.FormatFloat(level, 'f', 1, 64),
			}
			m.Tags = []string{"health"}
			m.Impact = Negative
			out = append(out, m)
		case *flag && level > d.tune.NeedRecoveredAbove:
			*flag = false
		}
	}
	check(&st.HungerCritical, agents.NeedHunger, "starving")
	check(&st.EnergyCritical, agents.NeedEnergy, "exhausted")

	return out
}

func (d *Detector) checkPair(pop Population, r *social.Relationship, scene Scene) ([]Milestone, error) {
	a, err := pop.Get(r.Pair.A)
	if err != nil {
		return nil, err
	}
	b, err := pop.Get(r.Pair.B)
	if err != nil {
		return nil, err
	}

	prev, ok := d.pairs[r.Pair]
	if !ok {
		prev = &PairState{Pair: r.Pair}
		d.pairs[r.Pair] = prev
	}
	t := d.tune

	var out []Milestone
	emit := func(typ Type, imp Importance, impact Impact, desc string, tags ...string) {
		out = append(out, Milestone{
			Type:        typ,
			Importance:  imp,
			Day:         scene.Day,
			Time:        scene.Time,
			Primary:     a.ID,
			Secondary:   []agents.AgentID{b.ID},
			Description: desc,
			Location:    a.Location,
			Details: map[string]string{
				"friendship": strconv.FormatFloat(r.Friendship, 'f', 1, 64),
				"romance":    strconv.FormatFloat(r.Romance, 'f', 1, 64),
				"status":     r.Status.String(),
			},
			Tags:   tags,
			Impact: impact,
		})
	}

	switch {
	case !prev.FormedEmitted && r.Friendship >= t.FriendshipFormedAt:
		prev.FormedEmitted = true
		if prev.Status < social.CloseFriend {
			emit(RelationshipFormed, Moderate, Positive,
				fmt.Sprintf("%s and %s became close friends", a.Name, b.Name), "friendship")
		}
	case prev.FormedEmitted && r.Friendship < t.FriendshipFormedAt-t.RearmMargin:
		prev.FormedEmitted = false
	}

	switch {
	case !prev.RomanceEmitted && r.Romance >= t.RomanceStartedAt:
		prev.RomanceEmitted = true
		emit(RomanceStarted, Major, Positive,
			fmt.Sprintf("%s and %s started a romance", a.Name, b.Name), "romance", "love")
	case prev.RomanceEmitted && r.Romance < t.RomanceStartedAt-t.RearmMargin:
		prev.RomanceEmitted = false
	}

	switch {
	case r.Friendship >= t.BrokenFrom:
		prev.BrokenArmed = true
	case prev.BrokenArmed && r.Friendship < t.BrokenBelow:
		prev.BrokenArmed = false
		emit(RelationshipBroken, Moderate, Negative,
			fmt.Sprintf("%s and %s had a falling out", a.Name, b.Name), "conflict", "breakup")
	}

	if prev.Status.Romantic() && !r.Status.Romantic() {
		imp, verb := Major, "broke up"
		if prev.Status == social.Married {
			imp, verb = LifeChanging, "ended their marriage"
		}
		emit(RomanceEnded, imp, Negative, fmt.Sprintf("%s and %s %s", a.Name, b.Name, verb), "romance", "breakup")
	}
	if prev.Status != social.Married && r.Status == social.Married {
		emit(Marriage, LifeChanging, Positive, fmt.Sprintf("%s and %s got married", a.Name, b.Name), "romance", "family")
	}

	enemy := r.Tags.Has(social.TagEnemy)
	if enemy && !prev.Enemy {
		emit(Conflict, Moderate, Negative, fmt.Sprintf("%s and %s became enemies", a.Name, b.Name), "conflict")
	}

	prev.Status = r.Status
	prev.Friendship = r.Friendship
	prev.Romance = r.Romance
	prev.Enemy = enemy
	return out, nil
}

// BirthdayImportance ranks a birthday by the age reached.
func BirthdayImportance(age int) Importance {
	switch age {
	case 13, 16, 18, 21, 30, 40, 50, 60, 70, 80, 90, 100:
		return Major
	}
	if age%10 == 0 {
		return Moderate
	}
	return Minor
}

// State exports the cache in a stable order.
func (d *Detector) State() State {
	st := State{
		Pairs:  make([]PairState, 0, len(d.pairs)),
		Agents: make([]AgentState, 0, len(d.agents)),
	}
	for _, p := range d.pairs {
		st.Pairs = append(st.Pairs, *p)
	}
	for _, a := range d.agents {
		st.Agents = append(st.Agents, *a)
	}
	sort.Slice(st.Pairs, func(i, j int) bool {
		pi, pj := st.Pairs[i].Pair, st.Pairs[j].Pair
		if pi.A != pj.A {
			return pi.A < pj.A
		}
		return pi.B < pj.B
	})
	sort.Slice(st.Agents, func(i, j int) bool { return st.Agents[i].Agent < st.Agents[j].Agent })
	return st
}

// RestoreDetector rebuilds a detector from a checkpointed cache.
func RestoreDetector(t *tuning.Milestones, st State) *Detector {
	d := NewDetector(t)
	for _, p := range st.Pairs {
		d.pairs[p.Pair] = &p
	}
	for _, a := range st.Agents {
		d.agents[a.Agent] = &a
	}
	return d
}
