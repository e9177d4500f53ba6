// Personality-weighted action selection. Every tick each active agent scores
// the candidate actions available where it stands and samples one.
package agents

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/entropy"
	"github.com/talgya/willow-creek/internal/tuning"
	"github.com/talgya/willow-creek/internal/world"
)

// NoAgent marks an action without a partner.
const NoAgent AgentID = math.MaxUint32

// Category groups actions for the modifier tables.
type Category uint8

const (
	CategoryIdle Category = iota
	CategoryEat
	CategorySleep
	CategoryHygiene
	CategoryBathroom
	CategorySocial
	CategorySolitary
	CategoryWork
	CategoryStudy
	CategoryFun
	CategoryRomance
	CategoryCreative
	CategoryRisky
	CategoryAltruistic
	CategoryConflict
	CategoryRest
	numCategories
)

var categoryNames = [numCategories]string{
	"idle", "eat", "sleep", "hygiene", "bathroom", "social", "solitary",
	"work", "study", "fun", "romance", "creative", "risky", "altruistic",
	"conflict", "rest",
}

func (c Category) String() string {
	if c < numCategories {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// Partnered reports whether actions in c need a second agent.
func (c Category) Partnered() bool {
	switch c {
	case CategorySocial, CategoryRomance, CategoryConflict, CategoryAltruistic:
		return true
	}
	return false
}

// Need returns the need the category serves, if any.
func (c Category) Need() (NeedKind, bool) {
	switch c {
	case CategoryEat:
		return NeedHunger, true
	case CategorySleep, CategoryRest:
		return NeedEnergy, true
	case CategoryHygiene:
		return NeedHygiene, true
	case CategoryBathroom:
		return NeedBladder, true
	case CategorySocial:
		return NeedSocial, true
	case CategoryFun, CategoryCreative, CategoryRisky:
		return NeedFun, true
	case CategoryRomance:
		return NeedLibido, true
	case CategoryIdle, CategorySolitary, CategoryWork, CategoryStudy,
		CategoryAltruistic, CategoryConflict:
		return 0, false
	}
	return 0, false
}

// Action is one candidate choice.
type Action struct {
	Name        string           `json:"name"`
	Category    Category         `json:"category"`
	BaseWeight  float64          `json:"base_weight"`
	Target      AgentID          `json:"target"`
	Interaction string           `json:"interaction,omitempty"` // relationship effect on the target
	Location    world.LocationID `json:"location"`
	Outdoor     bool             `json:"outdoor,omitempty"`
}

// IdleAction is chosen when nothing else is available.
func IdleAction(at world.LocationID) Action {
	return Action{Name: "idle", Category: CategoryIdle, BaseWeight: 1, Target: NoAgent, Location: at}
}

// DecisionContext is what the agent knows when it decides.
type DecisionContext struct {
	Traits TraitSet
	Mood   Mood
	Needs  Needs
	Season clock.Season
	Nearby []AgentID
}

// Decision is the sampled action with its final weight and probability.
type Decision struct {
	Agent       AgentID `json:"agent"`
	Action      Action  `json:"action"`
	Weight      float64 `json:"weight"`
	Probability float64 `json:"probability"`
}

// DecisionState is the part of the decision engine that must survive a
// checkpoint for replays to match.
type DecisionState struct {
	Seed  int64  `json:"seed"`
	Tick  uint64 `json:"tick"`
	Count uint64 `json:"count"`
}

// Decider samples actions from per-agent deterministic streams.
type Decider struct {
	State DecisionState
	tune  *tuning.Decisions
}

// NewDecider creates a decider for the given world seed.
func NewDecider(seed int64, t *tuning.Decisions) *Decider {
	return &Decider{State: DecisionState{Seed: seed}, tune: t}
}

// Decide weighs the candidates for a and samples one. An empty list yields
// the idle action.
func (d *Decider) Decide(a *Agent, candidates []Action, ctx DecisionContext) Decision {
	d.State.Count++
	if len(candidates) == 0 {
		return Decision{Agent: a.ID, Action: IdleAction(a.Location), Weight: 1, Probability: 1}
	}
	rng := entropy.Stream(d.State.Seed, uint32(a.ID), d.State.Tick)
	return Choose(rng, a.ID, candidates, ctx, d.tune)
}

// Choose is the sampling step of Decide with an explicit generator.
func Choose(rng *rand.Rand, id AgentID, candidates []Action, ctx DecisionContext, t *tuning.Decisions) Decision {
	weights := make([]float64, len(candidates))
	var total float64
	for i, act := range candidates {
		weights[i] = Weigh(act, ctx, t)
		total += weights[i]
	}

	r := rng.Float64() * total
	pick := len(candidates) - 1
	for i, w := range weights {
		if r < w {
			pick = i
			break
		}
		r -= w
	}
	return Decision{
		Agent:       id,
		Action:      candidates[pick],
		Weight:      weights[pick],
		Probability: weights[pick] / total,
	}
}

// Weigh returns an action's final weight: base weight times the trait, mood,
// urgency and season factors, floored at MinWeight.
func Weigh(act Action, ctx DecisionContext, t *tuning.Decisions) float64 {
	w := act.BaseWeight
	w *= TraitModifier(ctx.Traits, act.Category)
	w *= MoodModifier(ctx.Mood, act.Category)
	if need, ok := act.Category.Need(); ok {
		w *= UrgencyFactor(ctx.Needs.Level(need), t)
	}
	if act.Outdoor {
		switch ctx.Season {
		case clock.Winter:
			w *= t.WinterOutdoor
		case clock.Summer:
			w *= t.SummerOutdoor
		case clock.Spring, clock.Autumn:
		}
	}
	if w < t.MinWeight || math.IsNaN(w) {
		w = t.MinWeight
	}
	return w
}

// UrgencyFactor boosts weights for a need whose satisfaction level is below
// the urgency threshold, linearly up to 1+boost at level zero.
func UrgencyFactor(level float64, t *tuning.Decisions) float64 {
	if level >= t.UrgencyThreshold || t.UrgencyThreshold <= 0 {
		return 1
	}
	if level < 0 {
		level = 0
	}
	return 1 + t.UrgencyBoost*(t.UrgencyThreshold-level)/t.UrgencyThreshold
}

type categoryFactor struct {
	cat    Category
	factor float64
}

// traitModifiers is the single (trait, category) table.
var traitModifiers = [numTraits][]categoryFactor{
	TraitOutgoing:    {{CategorySocial, 1.5}, {CategorySolitary, 0.5}, {CategoryFun, 1.2}},
	TraitShy:         {{CategorySocial, 0.5}, {CategorySolitary, 1.3}, {CategoryRomance, 0.7}},
	TraitAmbitious:   {{CategoryWork, 1.4}, {CategoryStudy, 1.4}, {CategoryRest, 0.8}},
	TraitLazy:        {{CategoryWork, 0.6}, {CategoryStudy, 0.6}, {CategoryRest, 1.4}},
	TraitKind:        {{CategoryAltruistic, 1.5}, {CategoryConflict, 0.4}},
	TraitMean:        {{CategoryConflict, 1.3}, {CategoryAltruistic, 0.5}},
	TraitCautious:    {{CategoryRisky, 0.4}, {CategoryWork, 1.1}},
	TraitImpulsive:   {{CategoryRisky, 1.5}, {CategoryFun, 1.2}},
	TraitRomantic:    {{CategoryRomance, 1.6}},
	TraitPractical:   {{CategoryRomance, 0.7}, {CategoryWork, 1.1}},
	TraitCreative:    {{CategoryCreative, 1.4}, {CategoryStudy, 1.1}},
	TraitLogical:     {{CategoryStudy, 1.3}, {CategoryCreative, 0.8}},
	TraitOptimistic:  {{CategorySocial, 1.1}, {CategoryFun, 1.1}},
	TraitPessimistic: {{CategorySolitary, 1.2}, {CategoryRisky, 0.8}},
}

// TraitModifier multiplies the factors of every trait in s for category c.
func TraitModifier(s TraitSet, c Category) float64 {
	m := 1.0
	for tr := Trait(0); tr < numTraits; tr++ {
		if !s.Has(tr) {
			continue
		}
		for _, f := range traitModifiers[tr] {
			if f.cat == c {
				m *= f.factor
			}
		}
	}
	return m
}

// MoodModifier is the mood factor for category c.
func MoodModifier(m Mood, c Category) float64 {
	switch m {
	case MoodHappy, MoodExcited:
		if c == CategorySocial {
			return 1.2
		}
	case MoodSad, MoodLonely:
		if c == CategorySolitary {
			return 1.3
		}
	case MoodStressed:
		if c == CategoryRest {
			return 1.2
		}
	case MoodAngry:
		if c == CategoryConflict {
			return 1.3
		}
	case MoodNeutral, MoodContent:
	}
	return 1
}
