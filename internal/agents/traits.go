package agents

import (
	"strings"

	"github.com/talgya/willow-creek/internal/tuning"
)

// Trait is one discrete label derived from a personality score.
type Trait uint8

const (
	TraitOutgoing Trait = iota
	TraitShy
	TraitAmbitious
	TraitLazy
	TraitKind
	TraitMean
	TraitCautious
	TraitImpulsive
	TraitRomantic
	TraitPractical
	TraitCreative
	TraitLogical
	TraitOptimistic
	TraitPessimistic
	numTraits
)

var traitNames = [numTraits]string{
	"outgoing", "shy", "ambitious", "lazy", "kind", "mean", "cautious",
	"impulsive", "romantic", "practical", "creative", "logical",
	"optimistic", "pessimistic",
}

func (t Trait) String() string {
	if t < numTraits {
		return traitNames[t]
	}
	return "unknown"
}

// TraitSet is a bitmask of traits.
type TraitSet uint16

// Has reports whether tr is in the set.
func (s TraitSet) Has(tr Trait) bool { return s&(1<<tr) != 0 }

func (s TraitSet) with(tr Trait) TraitSet { return s | 1<<tr }

// List returns the traits in declaration order.
func (s TraitSet) List() []Trait {
	var out []Trait
	for tr := Trait(0); tr < numTraits; tr++ {
		if s.Has(tr) {
			out = append(out, tr)
		}
	}
	return out
}

func (s TraitSet) String() string {
	names := make([]string, 0, numTraits)
	for _, tr := range s.List() {
		names = append(names, tr.String())
	}
	return strings.Join(names, ",")
}

// traitAxes pairs each axis with its (high, low) traits.
var traitAxes = [NumAxes]struct{ high, low Trait }{
	Extroversion:      {TraitOutgoing, TraitShy},
	Agreeableness:     {TraitKind, TraitMean},
	Conscientiousness: {TraitCautious, TraitImpulsive},
	Neuroticism:       {TraitPessimistic, TraitOptimistic},
	Openness:          {TraitCreative, TraitLogical},
	Ambition:          {TraitAmbitious, TraitLazy},
	Romanticism:       {TraitRomantic, TraitPractical},
}

// TraitsFor is the one mapping from personality scores to traits. A score at
// or above TraitHigh yields the high trait, at or below TraitLow the low one.
func TraitsFor(p Personality, t *tuning.Decisions) TraitSet {
	var s TraitSet
	for axis, pair := range traitAxes {
		switch v := p[axis]; {
		case v >= t.TraitHigh:
			s = s.with(pair.high)
		case v <= t.TraitLow:
			s = s.with(pair.low)
		}
	}
	return s
}
