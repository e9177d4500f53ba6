// Package social holds the relationship graph: one canonical record per
// unordered pair of agents, the status ladder with hysteresis, decay, and the
// graph-wide metrics narrators ask about.
package social

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
)

// ErrMalformedPair is returned when both ends of a pair are the same agent.
var ErrMalformedPair = errors.New("malformed pair")

// ErrUnknownInteraction is returned for an interaction kind with no delta.
var ErrUnknownInteraction = errors.New("unknown interaction")

// PairKey identifies an unordered pair. A is always the smaller ID.
type PairKey struct {
	A agents.AgentID `json:"a"`
	B agents.AgentID `json:"b"`
}

// MakePair returns the canonical key for (a, b).
func MakePair(a, b agents.AgentID) (PairKey, error) {
	if a == b {
		return PairKey{}, fmt.Errorf("pair (%d, %d): %w", a, b, ErrMalformedPair)
	}
	if a > b {
		a, b = b, a
	}
	return PairKey{A: a, B: b}, nil
}

// Other returns the end of the pair that is not id.
func (p PairKey) Other(id agents.AgentID) agents.AgentID {
	if id == p.A {
		return p.B
	}
	return p.A
}

func (p PairKey) String() string {
	return fmt.Sprintf("%d-%d", p.A, p.B)
}

// Status is the relationship's place on the ladder. Order matters: every
// romantic status ranks above every friendship status.
type Status uint8

const (
	Stranger Status = iota
	Acquaintance
	Friend
	CloseFriend
	BestFriend
	RomanticInterest
	Dating
	Committed
	Married
)

var statusNames = [...]string{
	"stranger", "acquaintance", "friend", "close_friend", "best_friend",
	"romantic_interest", "dating", "committed", "married",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", s)
}

// StatusFromString maps a status name to its Status.
func StatusFromString(name string) (Status, bool) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), true
		}
	}
	return 0, false
}

// Romantic reports whether s is Dating or above.
func (s Status) Romantic() bool {
	return s >= Dating
}

// Tags are orthogonal to status.
type Tags uint8

const (
	TagFamily Tags = 1 << iota
	TagEnemy
)

// Has reports whether all bits of t are set.
func (tg Tags) Has(t Tags) bool { return tg&t == t }

// Interaction is one entry in a relationship's history.
type Interaction struct {
	Kind       string      `json:"kind"`
	At         clock.Stamp `json:"at"`
	Friendship float64     `json:"friendship"` // value after the interaction
	Romance    float64     `json:"romance"`
}

// Counters tally interactions by family.
type Counters struct {
	Talks     int `json:"talks"`
	Dates     int `json:"dates"`
	Gifts     int `json:"gifts"`
	Conflicts int `json:"conflicts"`
}

// Relationship is the canonical record for one pair.
type Relationship struct {
	Pair   PairKey `json:"pair"`
	Status Status  `json:"status"`
	Tags   Tags    `json:"tags"`

	Friendship    float64 `json:"friendship"`
	Romance       float64 `json:"romance"`
	Trust         float64 `json:"trust"`
	Respect       float64 `json:"respect"`
	Compatibility float64 `json:"compatibility"`
	Chemistry     float64 `json:"chemistry"`

	LastInteraction clock.Stamp   `json:"last_interaction"`
	History         []Interaction `json:"history,omitempty"`
	Counters        Counters      `json:"counters"`
}

// Strength is the larger of friendship and romance.
func (r *Relationship) Strength() float64 {
	return math.Max(r.Friendship, r.Romance)
}

// Clone returns a deep copy.
func (r *Relationship) Clone() *Relationship {
	cp := *r
	cp.History = append([]Interaction(nil), r.History...)
	return &cp
}

func (r *Relationship) updateChemistry() {
	r.Chemistry = bound(0.4*r.Romance + 0.3*r.Trust + 0.3*r.Compatibility)
}

func (r *Relationship) appendHistory(in Interaction, capacity int) {
	if capacity <= 0 {
		return
	}
	if len(r.History) >= capacity {
		drop := len(r.History) - capacity + 1
		r.History = append(r.History[:0], r.History[drop:]...)
	}
	r.History = append(r.History, in)
}

// Compatibility scores how alike two personalities are, 0–100.
func Compatibility(a, b agents.Personality) float64 {
	var diff float64
	for i := range a {
		diff += math.Abs(a[i] - b[i])
	}
	return bound(100 - diff/float64(len(a)))
}

func bound(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
