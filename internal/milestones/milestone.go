// Package milestones records life events: the global chronological log with
// per-agent indexes, and the detector that notices threshold crossings in
// agent and relationship state once per tick.
package milestones

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/world"
)

// Type is the milestone category.
type Type uint8

const (
	Birthday Type = iota
	RelationshipFormed
	RelationshipBroken
	RomanceStarted
	RomanceEnded
	Marriage
	Scandal
	Achievement
	Conflict
	Crime
	HealthEvent
	Other
)

var typeNames = [...]string{
	"birthday", "relationship_formed", "relationship_broken", "romance_started",
	"romance_ended", "marriage", "scandal", "achievement", "conflict", "crime",
	"health_event", "other",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// TypeFromString maps a type name to its Type.
func TypeFromString(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return 0, false
}

// Importance ranks milestones. Zero is not a valid importance.
type Importance uint8

const (
	Minor Importance = iota + 1
	Moderate
	Major
	LifeChanging
)

var importanceNames = [...]string{"", "minor", "moderate", "major", "life_changing"}

func (i Importance) String() string {
	if int(i) < len(importanceNames) && i > 0 {
		return importanceNames[i]
	}
	return fmt.Sprintf("Importance(%d)", i)
}

// ImportanceFromString maps an importance name to its Importance.
func ImportanceFromString(name string) (Importance, bool) {
	for i, n := range importanceNames {
		if i > 0 && n == name {
			return Importance(i), true
		}
	}
	return 0, false
}

// Impact is the emotional valence of a milestone.
type Impact uint8

const (
	Neutral Impact = iota
	Positive
	Negative
	Mixed
)

var impactNames = [...]string{"neutral", "positive", "negative", "mixed"}

func (i Impact) String() string {
	if int(i) < len(impactNames) {
		return impactNames[i]
	}
	return fmt.Sprintf("Impact(%d)", i)
}

// ImpactFromString maps an impact name to its Impact.
func ImpactFromString(name string) (Impact, bool) {
	for i, n := range impactNames {
		if n == name {
			return Impact(i), true
		}
	}
	return 0, false
}

// Milestone is one recorded life event. Never modified once logged.
type Milestone struct {
	ID          uuid.UUID         `json:"id"`
	Seq         uint64            `json:"seq"`
	Type        Type              `json:"type"`
	Importance  Importance        `json:"importance"`
	Day         int               `json:"day"`
	Time        string            `json:"time"`
	Primary     agents.AgentID    `json:"primary"`
	Secondary   []agents.AgentID  `json:"secondary,omitempty"`
	Description string            `json:"description"`
	Location    world.LocationID  `json:"location"`
	Details     map[string]string `json:"details,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Impact      Impact            `json:"impact"`
}

// Involves reports whether id is the primary or a secondary agent.
func (m *Milestone) Involves(id agents.AgentID) bool {
	if m.Primary == id {
		return true
	}
	for _, s := range m.Secondary {
		if s == id {
			return true
		}
	}
	return false
}

func (m Milestone) clone() Milestone {
	m.Secondary = append([]agents.AgentID(nil), m.Secondary...)
	m.Tags = append([]string(nil), m.Tags...)
	if m.Details != nil {
		d := make(map[string]string, len(m.Details))
		for k, v := range m.Details {
			d[k] = v
		}
		m.Details = d
	}
	return m
}

// idSpace is the UUIDv5 namespace for milestone IDs.
var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("willow-creek/milestones"))

// MilestoneID derives the ID of the seq'th milestone of a world.
func MilestoneID(seed int64, seq uint64) uuid.UUID {
	return uuid.NewSHA1(idSpace, []byte(fmt.Sprintf("%d/%d", seed, seq)))
}

// Log is the append-only chronological record.
type Log struct {
	seed    int64
	entries []Milestone
	byAgent map[agents.AgentID][]int
}

// NewLog creates an empty log for a world seed.
func NewLog(seed int64) *Log {
	return &Log{seed: seed, byAgent: make(map[agents.AgentID][]int)}
}

// Append assigns the next sequence number and ID, stores m, and returns the
// stored copy.
func (l *Log) Append(m Milestone) Milestone {
	m.Seq = uint64(len(l.entries)) + 1
	m.ID = MilestoneID(l.seed, m.Seq)
	m = m.clone()
	l.index(m)
	return m.clone()
}

func (l *Log) index(m Milestone) {
	idx := len(l.entries)
	l.entries = append(l.entries, m)
	l.byAgent[m.Primary] = append(l.byAgent[m.Primary], idx)
	for _, s := range m.Secondary {
		if s != m.Primary {
			l.byAgent[s] = append(l.byAgent[s], idx)
		}
	}
}

// Len returns the number of milestones.
func (l *Log) Len() int {
	return len(l.entries)
}

// All returns copies of every milestone in chronological order.
func (l *Log) All() []Milestone {
	out := make([]Milestone, len(l.entries))
	for i, m := range l.entries {
		out[i] = m.clone()
	}
	return out
}

// newest walks indexes from the end, keeping those that pass keep, up to
// limit (limit <= 0 means no limit).
func (l *Log) newest(idx []int, limit int, keep func(*Milestone) bool) []Milestone {
	var out []Milestone
	for i := len(idx) - 1; i >= 0; i-- {
		m := &l.entries[idx[i]]
		if keep != nil && !keep(m) {
			continue
		}
		out = append(out, m.clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (l *Log) allIdx() []int {
	idx := make([]int, len(l.entries))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Newest returns the latest milestones, newest first.
func (l *Log) Newest(limit int) []Milestone {
	return l.newest(l.allIdx(), limit, nil)
}

// ForAgent returns the milestones involving id, newest first.
func (l *Log) ForAgent(id agents.AgentID, limit int) []Milestone {
	return l.newest(l.byAgent[id], limit, nil)
}

// Recent returns milestones from the last days days, newest first.
func (l *Log) Recent(nowDay, days, limit int) []Milestone {
	cutoff := nowDay - days
	return l.newest(l.allIdx(), limit, func(m *Milestone) bool { return m.Day >= cutoff })
}

// ByType returns milestones of type t, newest first.
func (l *Log) ByType(t Type, limit int) []Milestone {
	return l.newest(l.allIdx(), limit, func(m *Milestone) bool { return m.Type == t })
}

// Major returns major and life-changing milestones, newest first.
func (l *Log) Major(limit int) []Milestone {
	return l.newest(l.allIdx(), limit, func(m *Milestone) bool { return m.Importance >= Major })
}

// Timeline returns an agent's milestones oldest first.
func (l *Log) Timeline(id agents.AgentID) []Milestone {
	out := l.ForAgent(id, 0)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Stats summarizes the log.
type Stats struct {
	Total        int            `json:"total"`
	ByType       map[string]int `json:"by_type"`
	ByImportance map[string]int `json:"by_importance"`
	Agents       int            `json:"agents"` // agents with at least one milestone
	Recent       int            `json:"recent"` // last seven days
}

// Stats computes counts for the whole log.
func (l *Log) Stats(nowDay int) Stats {
	st := Stats{
		Total:        len(l.entries),
		ByType:       make(map[string]int),
		ByImportance: make(map[string]int),
		Agents:       len(l.byAgent),
	}
	for _, m := range l.entries {
		st.ByType[m.Type.String()]++
		st.ByImportance[m.Importance.String()]++
		if m.Day >= nowDay-7 {
			st.Recent++
		}
	}
	return st
}

// RestoreLog rebuilds a log from checkpointed milestones. Sequence numbers
// must run 1..n in order.
func RestoreLog(seed int64, entries []Milestone) (*Log, error) {
	l := NewLog(seed)
	for i, m := range entries {
		if m.Seq != uint64(i)+1 {
			return nil, fmt.Errorf("milestone %d has sequence %d", i, m.Seq)
		}
		if m.Importance < Minor || m.Importance > LifeChanging {
			return nil, fmt.Errorf("milestone %d: invalid importance %d", m.Seq, m.Importance)
		}
		if m.Type > Other {
			return nil, fmt.Errorf("milestone %d: invalid type %d", m.Seq, m.Type)
		}
		l.index(m.clone())
	}
	return l, nil
}

