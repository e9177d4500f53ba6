// Package agents provides the resident data model, the agent store, the needs
// and psyche updates, and the personality-weighted decision engine.
package agents

import (
	"errors"
	"fmt"

	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/world"
)

// ErrNoSuchAgent is returned for any lookup of an unknown agent ID or name.
var ErrNoSuchAgent = errors.New("no such agent")

// AgentID is the agent's index in the store arena.
type AgentID uint32

// Axis names one personality dimension.
type Axis uint8

const (
	Extroversion Axis = iota
	Agreeableness
	Conscientiousness
	Neuroticism
	Openness
	Ambition
	Romanticism
)

// NumAxes is the number of personality axes.
const NumAxes = 7

var axisNames = [NumAxes]string{
	"extroversion", "agreeableness", "conscientiousness", "neuroticism",
	"openness", "ambition", "romanticism",
}

func (a Axis) String() string {
	if int(a) < NumAxes {
		return axisNames[a]
	}
	return fmt.Sprintf("Axis(%d)", a)
}

// AxisFromString maps an axis name to its Axis.
func AxisFromString(name string) (Axis, bool) {
	for i, n := range axisNames {
		if n == name {
			return Axis(i), true
		}
	}
	return 0, false
}

// Personality holds one 0–100 score per axis.
type Personality [NumAxes]float64

// NeedKind enumerates the needs. Satisfaction needs are better high;
// urgency needs are worse high.
type NeedKind uint8

const (
	NeedHunger NeedKind = iota // hunger-satisfaction
	NeedEnergy
	NeedHygiene
	NeedFun
	NeedSocial
	NeedBladder // urgency
	NeedLibido  // urgency
)

// NumNeeds is the number of needs.
const NumNeeds = 7

var needNames = [NumNeeds]string{"hunger", "energy", "hygiene", "fun", "social", "bladder", "libido"}

func (k NeedKind) String() string {
	if int(k) < NumNeeds {
		return needNames[k]
	}
	return fmt.Sprintf("Need(%d)", k)
}

// NeedFromString maps a need name to its NeedKind.
func NeedFromString(name string) (NeedKind, bool) {
	for i, n := range needNames {
		if n == name {
			return NeedKind(i), true
		}
	}
	return 0, false
}

// Urgency reports whether the need grows worse as its value rises.
func (k NeedKind) Urgency() bool {
	switch k {
	case NeedBladder, NeedLibido:
		return true
	case NeedHunger, NeedEnergy, NeedHygiene, NeedFun, NeedSocial:
		return false
	}
	return false
}

// Needs holds one 0–100 value per need.
type Needs [NumNeeds]float64

// Level returns how well a need is met on a 0–100 scale regardless of its
// semantics: urgency needs are inverted.
func (n *Needs) Level(k NeedKind) float64 {
	if k.Urgency() {
		return 100 - n[k]
	}
	return n[k]
}

// MostUrgent returns the need with the lowest level.
func (n *Needs) MostUrgent() NeedKind {
	worst := NeedHunger
	for k := NeedKind(1); k < NumNeeds; k++ {
		if n.Level(k) < n.Level(worst) {
			worst = k
		}
	}
	return worst
}

// Mood is the agent's coarse emotional state.
type Mood uint8

const (
	MoodNeutral Mood = iota
	MoodHappy
	MoodExcited
	MoodContent
	MoodSad
	MoodLonely
	MoodStressed
	MoodAngry
)

var moodNames = [...]string{"neutral", "happy", "excited", "content", "sad", "lonely", "stressed", "angry"}

func (m Mood) String() string {
	if int(m) < len(moodNames) {
		return moodNames[m]
	}
	return fmt.Sprintf("Mood(%d)", m)
}

// MoodFromString maps a mood name to its Mood.
func MoodFromString(name string) (Mood, bool) {
	for i, n := range moodNames {
		if n == name {
			return Mood(i), true
		}
	}
	return 0, false
}

// Psyche holds the psychological scalars.
type Psyche struct {
	Loneliness float64 `json:"loneliness"` // 0–100
	Stress     float64 `json:"stress"`     // 0–100
	Mood       Mood    `json:"mood"`
}

// Agent is one resident.
type Agent struct {
	ID    AgentID    `json:"id"`
	Name  string     `json:"name"`
	Birth clock.Date `json:"birth"`

	Personality Personality `json:"personality"`
	Needs       Needs       `json:"needs"`
	Psyche      Psyche      `json:"psyche"`

	Location world.LocationID `json:"location"`
	Home     world.LocationID `json:"home"`
	Activity string           `json:"activity"` // name of the last chosen action

	Family   []AgentID `json:"family,omitempty"`
	Memories []Memory  `json:"memories,omitempty"`

	Active bool `json:"active"`
}

// Age returns the agent's age in whole years on the given date.
func (a *Agent) Age(today clock.Date) int {
	return today.YearsSince(a.Birth)
}

// Clone returns a deep copy safe to hand to readers outside the tick loop.
func (a *Agent) Clone() *Agent {
	cp := *a
	cp.Family = append([]AgentID(nil), a.Family...)
	if len(a.Memories) > 0 {
		cp.Memories = make([]Memory, len(a.Memories))
		for i, m := range a.Memories {
			cp.Memories[i] = m.clone()
		}
	}
	return &cp
}
