package persistence

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/engine"
	"github.com/talgya/willow-creek/internal/milestones"
	"github.com/talgya/willow-creek/internal/social"
	"github.com/talgya/willow-creek/internal/world"
)

// Format versions. Version 1 predates stress, respect and relationship tags.
const (
	VersionV1      = 1
	CurrentVersion = 2
)

// formatName tags every payload so foreign zstd files are rejected early.
const formatName = "willow-creek/checkpoint"

// v1Respect is the respect given to relationships written before respect
// existed.
const v1Respect = 50

// Header is the first line of every payload.
type Header struct {
	Format     string    `json:"format"`
	Version    int       `json:"version"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	Tick       uint64    `json:"tick"`
	InstanceID string    `json:"instance_id"`
}

// ClockDoc is the serialized clock.
type ClockDoc struct {
	Hour         float64 `json:"hour"`
	Day          int     `json:"day"`
	Month        int     `json:"month"`
	Year         int     `json:"year"`
	TotalDays    int     `json:"total_days"`
	TotalHours   float64 `json:"total_hours"`
	DaysPerMonth int     `json:"days_per_month"`
}

// LocationDoc is one serialized location.
type LocationDoc struct {
	ID       uint16  `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Outdoor  bool    `json:"outdoor"`
	OpenFrom float64 `json:"open_from"`
	OpenTo   float64 `json:"open_to"`
}

// DateDoc is a calendar date.
type DateDoc struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// MemoryDoc is one serialized memory.
type MemoryDoc struct {
	Tick       uint64   `json:"tick"`
	Day        int      `json:"day"`
	Content    string   `json:"content"`
	Importance float32  `json:"importance"`
	With       []uint32 `json:"with,omitempty"`
}

// AgentV2 is the current agent layout. Enumerations are stored by name.
type AgentV2 struct {
	ID          uint32             `json:"id"`
	Name        string             `json:"name"`
	Birth       DateDoc            `json:"birth"`
	Personality map[string]float64 `json:"personality"`
	Needs       map[string]float64 `json:"needs"`
	Loneliness  float64            `json:"loneliness"`
	Stress      float64            `json:"stress"`
	Mood        string             `json:"mood"`
	Location    uint16             `json:"location"`
	Home        uint16             `json:"home"`
	Activity    string             `json:"activity"`
	Family      []uint32           `json:"family,omitempty"`
	Memories    []MemoryDoc        `json:"memories,omitempty"`
	Active      bool               `json:"active"`
}

// AgentV1 has no stress.
type AgentV1 struct {
	ID          uint32             `json:"id"`
	Name        string             `json:"name"`
	Birth       DateDoc            `json:"birth"`
	Personality map[string]float64 `json:"personality"`
	Needs       map[string]float64 `json:"needs"`
	Loneliness  float64            `json:"loneliness"`
	Mood        string             `json:"mood"`
	Location    uint16             `json:"location"`
	Home        uint16             `json:"home"`
	Activity    string             `json:"activity"`
	Family      []uint32           `json:"family,omitempty"`
	Memories    []MemoryDoc        `json:"memories,omitempty"`
	Active      bool               `json:"active"`
}

// InteractionDoc is one history entry.
type InteractionDoc struct {
	Kind       string  `json:"kind"`
	At         float64 `json:"at"`
	Friendship float64 `json:"friendship"`
	Romance    float64 `json:"romance"`
}

// CountersDoc holds the interaction counters.
type CountersDoc struct {
	Talks     int `json:"talks"`
	Dates     int `json:"dates"`
	Gifts     int `json:"gifts"`
	Conflicts int `json:"conflicts"`
}

// RelationshipV2 is the current relationship layout.
type RelationshipV2 struct {
	A               uint32           `json:"a"`
	B               uint32           `json:"b"`
	Status          string           `json:"status"`
	Family          bool             `json:"family"`
	Enemy           bool             `json:"enemy"`
	Friendship      float64          `json:"friendship"`
	Romance         float64          `json:"romance"`
	Trust           float64          `json:"trust"`
	Respect         float64          `json:"respect"`
	Compatibility   float64          `json:"compatibility"`
	Chemistry       float64          `json:"chemistry"`
	LastInteraction float64          `json:"last_interaction"`
	History         []InteractionDoc `json:"history,omitempty"`
	Counters        CountersDoc      `json:"counters"`
}

// RelationshipV1 has no respect and no tags.
type RelationshipV1 struct {
	A               uint32           `json:"a"`
	B               uint32           `json:"b"`
	Status          string           `json:"status"`
	Friendship      float64          `json:"friendship"`
	Romance         float64          `json:"romance"`
	Trust           float64          `json:"trust"`
	Compatibility   float64          `json:"compatibility"`
	Chemistry       float64          `json:"chemistry"`
	LastInteraction float64          `json:"last_interaction"`
	History         []InteractionDoc `json:"history,omitempty"`
	Counters        CountersDoc      `json:"counters"`
}

// MilestoneDoc is one serialized milestone.
type MilestoneDoc struct {
	ID          string            `json:"id"`
	Seq         uint64            `json:"seq"`
	Type        string            `json:"type"`
	Importance  string            `json:"importance"`
	Day         int               `json:"day"`
	Time        string            `json:"time"`
	Primary     uint32            `json:"primary"`
	Secondary   []uint32          `json:"secondary,omitempty"`
	Description string            `json:"description"`
	Location    uint16            `json:"location"`
	Details     map[string]string `json:"details,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Impact      string            `json:"impact"`
}

// PairStateDoc is the detector cache for one pair.
type PairStateDoc struct {
	A              uint32  `json:"a"`
	B              uint32  `json:"b"`
	Status         string  `json:"status"`
	Friendship     float64 `json:"friendship"`
	Romance        float64 `json:"romance"`
	Enemy          bool    `json:"enemy"`
	FormedEmitted  bool    `json:"formed_emitted"`
	RomanceEmitted bool    `json:"romance_emitted"`
	BrokenArmed    bool    `json:"broken_armed"`
}

// AgentStateDoc is the detector cache for one agent.
type AgentStateDoc struct {
	Agent          uint32 `json:"agent"`
	HungerCritical bool   `json:"hunger_critical"`
	EnergyCritical bool   `json:"energy_critical"`
	LastBirthday   int    `json:"last_birthday"`
}

// DetectorDoc is the milestone dedup cache.
type DetectorDoc struct {
	Pairs  []PairStateDoc  `json:"pairs"`
	Agents []AgentStateDoc `json:"agents"`
}

// DecisionsDoc is the decision engine's replay state.
type DecisionsDoc struct {
	Seed  int64  `json:"seed"`
	Tick  uint64 `json:"tick"`
	Count uint64 `json:"count"`
}

// DocumentV2 is the current payload body.
type DocumentV2 struct {
	Seed          int64            `json:"seed"`
	Tick          uint64           `json:"tick"`
	Clock         ClockDoc         `json:"clock"`
	Locations     []LocationDoc    `json:"locations"`
	Agents        []AgentV2        `json:"agents"`
	Relationships []RelationshipV2 `json:"relationships"`
	Milestones    []MilestoneDoc   `json:"milestones"`
	Detector      DetectorDoc      `json:"detector"`
	Decisions     DecisionsDoc     `json:"decisions"`
}

// DocumentV1 is the version 1 payload body.
type DocumentV1 struct {
	Seed          int64            `json:"seed"`
	Tick          uint64           `json:"tick"`
	Clock         ClockDoc         `json:"clock"`
	Locations     []LocationDoc    `json:"locations"`
	Agents        []AgentV1        `json:"agents"`
	Relationships []RelationshipV1 `json:"relationships"`
	Milestones    []MilestoneDoc   `json:"milestones"`
	Detector      DetectorDoc      `json:"detector"`
	Decisions     DecisionsDoc     `json:"decisions"`
}

// migrateV1 upgrades a version 1 document. Stress starts at zero, respect at
// the old default, and pairs whose agents list each other as kin are tagged
// as family.
func migrateV1(d DocumentV1) DocumentV2 {
	out := DocumentV2{
		Seed:       d.Seed,
		Tick:       d.Tick,
		Clock:      d.Clock,
		Locations:  d.Locations,
		Milestones: d.Milestones,
		Detector:   d.Detector,
		Decisions:  d.Decisions,
	}

	kin := make(map[[2]uint32]bool)
	for _, a := range d.Agents {
		out.Agents = append(out.Agents, AgentV2{
			ID:          a.ID,
			Name:        a.Name,
			Birth:       a.Birth,
			Personality: a.Personality,
			Needs:       a.Needs,
			Loneliness:  a.Loneliness,
			Mood:        a.Mood,
			Location:    a.Location,
			Home:        a.Home,
			Activity:    a.Activity,
			Family:      a.Family,
			Memories:    a.Memories,
			Active:      a.Active,
		})
		for _, f := range a.Family {
			kin[[2]uint32{a.ID, f}] = true
		}
	}

	for _, r := range d.Relationships {
		out.Relationships = append(out.Relationships, RelationshipV2{
			A:               r.A,
			B:               r.B,
			Status:          r.Status,
			Family:          kin[[2]uint32{r.A, r.B}] && kin[[2]uint32{r.B, r.A}],
			Friendship:      r.Friendship,
			Romance:         r.Romance,
			Trust:           r.Trust,
			Respect:         v1Respect,
			Compatibility:   r.Compatibility,
			Chemistry:       r.Chemistry,
			LastInteraction: r.LastInteraction,
			History:         r.History,
			Counters:        r.Counters,
		})
	}
	return out
}

// toDocument converts an exported world into the current document layout.
func toDocument(st *engine.State) DocumentV2 {
	c := st.Clock
	doc := DocumentV2{
		Seed: st.Seed,
		Tick: st.Tick,
		Clock: ClockDoc{
			Hour: c.Hour, Day: c.Day, Month: c.Month, Year: c.Year,
			TotalDays: c.TotalDays, TotalHours: c.TotalHours, DaysPerMonth: c.DaysPerMonth,
		},
		Milestones: make([]MilestoneDoc, 0, len(st.Milestones)),
		Detector: DetectorDoc{
			Pairs:  make([]PairStateDoc, 0, len(st.Detector.Pairs)),
			Agents: make([]AgentStateDoc, 0, len(st.Detector.Agents)),
		},
		Decisions: DecisionsDoc(st.Decisions),
	}

	for _, l := range st.Locations {
		doc.Locations = append(doc.Locations, LocationDoc{
			ID: uint16(l.ID), Name: l.Name, Kind: l.Kind.String(),
			Outdoor: l.Outdoor, OpenFrom: l.OpenFrom, OpenTo: l.OpenTo,
		})
	}

	for _, a := range st.Agents {
		ad := AgentV2{
			ID:          uint32(a.ID),
			Name:        a.Name,
			Birth:       DateDoc(a.Birth),
			Personality: make(map[string]float64, agents.NumAxes),
			Needs:       make(map[string]float64, agents.NumNeeds),
			Loneliness:  a.Psyche.Loneliness,
			Stress:      a.Psyche.Stress,
			Mood:        a.Psyche.Mood.String(),
			Location:    uint16(a.Location),
			Home:        uint16(a.Home),
			Activity:    a.Activity,
			Family:      idsOut(a.Family),
			Active:      a.Active,
		}
		for i, v := range a.Personality {
			ad.Personality[agents.Axis(i).String()] = v
		}
		for k, v := range a.Needs {
			ad.Needs[agents.NeedKind(k).String()] = v
		}
		for _, m := range a.Memories {
			ad.Memories = append(ad.Memories, MemoryDoc{
				Tick: m.Tick, Day: m.Day, Content: m.Content,
				Importance: m.Importance, With: idsOut(m.With),
			})
		}
		doc.Agents = append(doc.Agents, ad)
	}

	for _, r := range st.Relationships {
		rd := RelationshipV2{
			A:               uint32(r.Pair.A),
			B:               uint32(r.Pair.B),
			Status:          r.Status.String(),
			Family:          r.Tags.Has(social.TagFamily),
			Enemy:           r.Tags.Has(social.TagEnemy),
			Friendship:      r.Friendship,
			Romance:         r.Romance,
			Trust:           r.Trust,
			Respect:         r.Respect,
			Compatibility:   r.Compatibility,
			Chemistry:       r.Chemistry,
			LastInteraction: float64(r.LastInteraction),
			Counters:        CountersDoc(r.Counters),
		}
		for _, h := range r.History {
			rd.History = append(rd.History, InteractionDoc{
				Kind: h.Kind, At: float64(h.At), Friendship: h.Friendship, Romance: h.Romance,
			})
		}
		doc.Relationships = append(doc.Relationships, rd)
	}

	for _, m := range st.Milestones {
		doc.Milestones = append(doc.Milestones, milestoneDoc(m))
	}

	for _, p := range st.Detector.Pairs {
		doc.Detector.Pairs = append(doc.Detector.Pairs, PairStateDoc{
			A: uint32(p.Pair.A), B: uint32(p.Pair.B), Status: p.Status.String(),
			Friendship: p.Friendship, Romance: p.Romance, Enemy: p.Enemy,
			FormedEmitted: p.FormedEmitted, RomanceEmitted: p.RomanceEmitted, BrokenArmed: p.BrokenArmed,
		})
	}
	for _, a := range st.Detector.Agents {
		doc.Detector.Agents = append(doc.Detector.Agents, AgentStateDoc{
			Agent: uint32(a.Agent), HungerCritical: a.HungerCritical,
			EnergyCritical: a.EnergyCritical, LastBirthday: a.LastBirthday,
		})
	}
	return doc
}

// toState converts a current document back into engine state. Unknown enum
// names are errors; numeric validation is left to engine.World.Restore.
func (d DocumentV2) toState() (*engine.State, error) {
	c := d.Clock
	st := &engine.State{
		Seed: d.Seed,
		Tick: d.Tick,
		Clock: clock.Clock{
			Hour: c.Hour, Day: c.Day, Month: c.Month, Year: c.Year,
			TotalDays: c.TotalDays, TotalHours: c.TotalHours, DaysPerMonth: c.DaysPerMonth,
		},
		Milestones: make([]milestones.Milestone, 0, len(d.Milestones)),
		Detector: milestones.State{
			Pairs:  make([]milestones.PairState, 0, len(d.Detector.Pairs)),
			Agents: make([]milestones.AgentState, 0, len(d.Detector.Agents)),
		},
		Decisions: agents.DecisionState(d.Decisions),
	}

	for _, l := range d.Locations {
		kind, ok := world.KindFromString(l.Kind)
		if !ok {
			return nil, fmt.Errorf("location %q: unknown kind %q", l.Name, l.Kind)
		}
		st.Locations = append(st.Locations, world.Location{
			ID: world.LocationID(l.ID), Name: l.Name, Kind: kind,
			Outdoor: l.Outdoor, OpenFrom: l.OpenFrom, OpenTo: l.OpenTo,
		})
	}

	for _, ad := range d.Agents {
		a, err := ad.toAgent()
		if err != nil {
			return nil, err
		}
		st.Agents = append(st.Agents, a)
	}

	for _, rd := range d.Relationships {
		r, err := rd.toRelationship()
		if err != nil {
			return nil, err
		}
		st.Relationships = append(st.Relationships, r)
	}

	for _, md := range d.Milestones {
		m, err := md.toMilestone()
		if err != nil {
			return nil, err
		}
		st.Milestones = append(st.Milestones, m)
	}

	for _, p := range d.Detector.Pairs {
		status, ok := social.StatusFromString(p.Status)
		if !ok {
			return nil, fmt.Errorf("detector pair %d-%d: unknown status %q", p.A, p.B, p.Status)
		}
		st.Detector.Pairs = append(st.Detector.Pairs, milestones.PairState{
			Pair:   social.PairKey{A: agents.AgentID(p.A), B: agents.AgentID(p.B)},
			Status: status, Friendship: p.Friendship, Romance: p.Romance, Enemy: p.Enemy,
			FormedEmitted: p.FormedEmitted, RomanceEmitted: p.RomanceEmitted, BrokenArmed: p.BrokenArmed,
		})
	}
	for _, a := range d.Detector.Agents {
		st.Detector.Agents = append(st.Detector.Agents, milestones.AgentState{
			Agent: agents.AgentID(a.Agent), HungerCritical: a.HungerCritical,
			EnergyCritical: a.EnergyCritical, LastBirthday: a.LastBirthday,
		})
	}
	return st, nil
}

func (ad AgentV2) toAgent() (*agents.Agent, error) {
	mood, ok := agents.MoodFromString(ad.Mood)
	if !ok {
		return nil, fmt.Errorf("agent %q: unknown mood %q", ad.Name, ad.Mood)
	}
	a := &agents.Agent{
		ID:       agents.AgentID(ad.ID),
		Name:     ad.Name,
		Birth:    clock.Date(ad.Birth),
		Psyche:   agents.Psyche{Loneliness: ad.Loneliness, Stress: ad.Stress, Mood: mood},
		Location: world.LocationID(ad.Location),
		Home:     world.LocationID(ad.Home),
		Activity: ad.Activity,
		Family:   idsIn(ad.Family),
		Active:   ad.Active,
	}
	for name, v := range ad.Personality {
		axis, ok := agents.AxisFromString(name)
		if !ok {
			return nil, fmt.Errorf("agent %q: unknown axis %q", ad.Name, name)
		}
		a.Personality[axis] = v
	}
	for name, v := range ad.Needs {
		k, ok := agents.NeedFromString(name)
		if !ok {
			return nil, fmt.Errorf("agent %q: unknown need %q", ad.Name, name)
		}
		a.Needs[k] = v
	}
	for _, m := range ad.Memories {
		a.Memories = append(a.Memories, agents.Memory{
			Tick: m.Tick, Day: m.Day, Content: m.Content,
			Importance: m.Importance, With: idsIn(m.With),
		})
	}
	return a, nil
}

func (rd RelationshipV2) toRelationship() (*social.Relationship, error) {
	status, ok := social.StatusFromString(rd.Status)
	if !ok {
		return nil, fmt.Errorf("relationship %d-%d: unknown status %q", rd.A, rd.B, rd.Status)
	}
	r := &social.Relationship{
		Pair:            social.PairKey{A: agents.AgentID(rd.A), B: agents.AgentID(rd.B)},
		Status:          status,
		Friendship:      rd.Friendship,
		Romance:         rd.Romance,
		Trust:           rd.Trust,
		Respect:         rd.Respect,
		Compatibility:   rd.Compatibility,
		Chemistry:       rd.Chemistry,
		LastInteraction: clock.Stamp(rd.LastInteraction),
		Counters:        social.Counters(rd.Counters),
	}
	if rd.Family {
		r.Tags |= social.TagFamily
	}
	if rd.Enemy {
		r.Tags |= social.TagEnemy
	}
	for _, h := range rd.History {
		r.History = append(r.History, social.Interaction{
			Kind: h.Kind, At: clock.Stamp(h.At), Friendship: h.Friendship, Romance: h.Romance,
		})
	}
	return r, nil
}

func milestoneDoc(m milestones.Milestone) MilestoneDoc {
	return MilestoneDoc{
		ID:          m.ID.String(),
		Seq:         m.Seq,
		Type:        m.Type.String(),
		Importance:  m.Importance.String(),
		Day:         m.Day,
		Time:        m.Time,
		Primary:     uint32(m.Primary),
		Secondary:   idsOut(m.Secondary),
		Description: m.Description,
		Location:    uint16(m.Location),
		Details:     m.Details,
		Tags:        m.Tags,
		Impact:      m.Impact.String(),
	}
}

func (md MilestoneDoc) toMilestone() (milestones.Milestone, error) {
	id, err := uuid.Parse(md.ID)
	if err != nil {
		return milestones.Milestone{}, fmt.Errorf("milestone %d: id: %w", md.Seq, err)
	}
	typ, ok := milestones.TypeFromString(md.Type)
	if !ok {
		return milestones.Milestone{}, fmt.Errorf("milestone %d: unknown type %q", md.Seq, md.Type)
	}
	imp, ok := milestones.ImportanceFromString(md.Importance)
	if !ok {
		return milestones.Milestone{}, fmt.Errorf("milestone %d: unknown importance %q", md.Seq, md.Importance)
	}
	impact, ok := milestones.ImpactFromString(md.Impact)
	if !ok {
		return milestones.Milestone{}, fmt.Errorf("milestone %d: unknown impact %q", md.Seq, md.Impact)
	}
	return milestones.Milestone{
		ID:          id,
		Seq:         md.Seq,
		Type:        typ,
		Importance:  imp,
		Day:         md.Day,
		Time:        md.Time,
		Primary:     agents.AgentID(md.Primary),
		Secondary:   idsIn(md.Secondary),
		Description: md.Description,
		Location:    world.LocationID(md.Location),
		Details:     md.Details,
		Tags:        md.Tags,
		Impact:      impact,
	}, nil
}

func idsOut(ids []agents.AgentID) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

func idsIn(ids []uint32) []agents.AgentID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]agents.AgentID, len(ids))
	for i, id := range ids {
		out[i] = agents.AgentID(id)
	}
	return out
}
