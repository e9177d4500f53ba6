// Needs decay and restoration. Rates are per simulated hour and come from the
// tuning table; every write goes through clampScore.
package agents

import (
	"log/slog"
	"math"

	"github.com/talgya/willow-creek/internal/tuning"
)

// Rate returns the entry of a per-need rate table for k.
func Rate(r tuning.NeedRates, k NeedKind) float64 {
	switch k {
	case NeedHunger:
		return r.Hunger
	case NeedEnergy:
		return r.Energy
	case NeedHygiene:
		return r.Hygiene
	case NeedFun:
		return r.Fun
	case NeedSocial:
		return r.Social
	case NeedBladder:
		return r.Bladder
	case NeedLibido:
		return r.Libido
	}
	return 0
}

// DecayNeeds applies hours of passive decay. Satisfaction needs fall and
// urgency needs rise; energy drains faster while the agent is hungry.
func DecayNeeds(a *Agent, hours float64, t *tuning.Needs) {
	if hours <= 0 {
		return
	}
	hungry := a.Needs[NeedHunger] < t.HungryBelow
	for k := NeedKind(0); k < NumNeeds; k++ {
		d := Rate(t.DecayPerHour, k) * hours
		if k == NeedEnergy && hungry {
			d *= t.HungryEnergyFactor
		}
		if k.Urgency() {
			d = -d
		}
		a.Needs[k] = clampScore(a.ID, k.String(), a.Needs[k]-d)
	}
}

// RestoreNeed applies hours of an action aimed at need k.
func RestoreNeed(a *Agent, k NeedKind, hours float64, t *tuning.Needs) {
	if hours <= 0 || k >= NumNeeds {
		return
	}
	r := Rate(t.RestorePerHour, k) * hours
	if k.Urgency() {
		r = -r
	}
	a.Needs[k] = clampScore(a.ID, k.String(), a.Needs[k]+r)
}

// AdjustNeed adds delta to the raw need value.
func AdjustNeed(a *Agent, k NeedKind, delta float64) {
	if k >= NumNeeds {
		return
	}
	a.Needs[k] = clampScore(a.ID, k.String(), a.Needs[k]+delta)
}

// Normalize clamps every bounded scalar on the agent. Used on roster and
// checkpoint input.
func Normalize(a *Agent) {
	for i := range a.Personality {
		a.Personality[i] = clampScore(a.ID, Axis(i).String(), a.Personality[i])
	}
	for k := range a.Needs {
		a.Needs[k] = clampScore(a.ID, NeedKind(k).String(), a.Needs[k])
	}
	a.Psyche.Loneliness = clampScore(a.ID, "loneliness", a.Psyche.Loneliness)
	a.Psyche.Stress = clampScore(a.ID, "stress", a.Psyche.Stress)
}

// clampScore bounds v to [0,100]. Out-of-range values are logged, never fatal.
func clampScore(id AgentID, field string, v float64) float64 {
	switch {
	case math.IsNaN(v):
		slog.Debug("clamped NaN score", "agent", id, "field", field)
		return 0
	case v < 0:
		slog.Debug("clamped score", "agent", id, "field", field, "value", v)
		return 0
	case v > 100:
		slog.Debug("clamped score", "agent", id, "field", field, "value", v)
		return 100
	}
	return v
}
