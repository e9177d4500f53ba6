package agents

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/willow-creek/internal/tuning"
)

// Drift is a deterministic noise field for day-to-day stress wobble.
// Sampling is keyed by (agent, simulated day) so a restored world sees the
// same values.
type Drift struct {
	noise opensimplex.Noise
}

// NewDrift seeds the field from the world seed.
func NewDrift(seed int64) *Drift {
	return &Drift{noise: opensimplex.New(seed)}
}

// At returns a value in [-1,1] for the agent on the given day.
func (d *Drift) At(id AgentID, day float64) float64 {
	if d == nil {
		return 0
	}
	// Agents sit far apart on the y axis so their curves are unrelated.
	return d.noise.Eval2(day*0.35, float64(id)*17.31)
}

// UpdatePsyche moves loneliness and stress for hours of elapsed time and
// re-derives mood. day is the simulated day the update lands on.
func UpdatePsyche(a *Agent, hours, day float64, drift *Drift, t *tuning.Psyche) {
	if hours <= 0 {
		return
	}
	p := &a.Psyche

	if a.Needs[NeedSocial] < t.LonelySocialBelow {
		p.Loneliness += t.LonelinessRisePerHour * hours
	} else {
		p.Loneliness -= t.LonelinessFallPerHour * hours
	}
	p.Loneliness = clampScore(a.ID, "loneliness", p.Loneliness)

	urgent := 0
	for k := NeedKind(0); k < NumNeeds; k++ {
		if a.Needs.Level(k) < t.UrgentBelow {
			urgent++
		}
	}
	neuro := 0.5 + a.Personality[Neuroticism]/100 // 0.5–1.5
	if urgent > 0 {
		p.Stress += t.StressRisePerHour * float64(urgent) * neuro * hours
	} else {
		p.Stress -= t.StressFallPerHour / neuro * hours
	}
	p.Stress += drift.At(a.ID, day) * t.StressDriftPerHour * neuro * hours
	p.Stress = clampScore(a.ID, "stress", p.Stress)

	p.Mood = DeriveMood(&a.Needs, p)
}

// DeriveMood maps needs and psyche to a mood. Distress outranks contentment.
func DeriveMood(n *Needs, p *Psyche) Mood {
	starving := n.Level(NeedHunger) < 15 || n.Level(NeedEnergy) < 15
	switch {
	case p.Stress >= 60 && starving:
		return MoodAngry
	case p.Stress >= 70:
		return MoodStressed
	case p.Loneliness >= 60:
		return MoodLonely
	}

	var sum float64
	for k := NeedKind(0); k < NumNeeds; k++ {
		sum += n.Level(k)
	}
	avg := sum / NumNeeds
	switch {
	case avg < 35:
		return MoodSad
	case avg >= 75 && n[NeedFun] >= 70:
		return MoodExcited
	case avg >= 65:
		return MoodHappy
	case avg >= 50:
		return MoodContent
	}
	return MoodNeutral
}
