// Agent spawning: turns roster definitions into agents, filling anything the
// roster leaves out deterministically from the world seed.
package agents

import (
	"math/rand/v2"

	"github.com/talgya/willow-creek/internal/clock"
	"github.com/talgya/willow-creek/internal/entropy"
	"github.com/talgya/willow-creek/internal/world"
)

// Definition describes one resident as the roster gives it.
type Definition struct {
	Name string
	Age  int
	// BirthMonth and BirthDay are optional; zero means pick one.
	BirthMonth int
	BirthDay   int

	Personality map[Axis]float64
	Needs       map[NeedKind]float64

	HomeName string
	Home     world.LocationID
	Family   []string
}

// Spawner creates agents for the simulation.
type Spawner struct {
	seed         int64
	daysPerMonth int
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64, daysPerMonth int) *Spawner {
	if daysPerMonth <= 0 {
		daysPerMonth = clock.DefaultDaysPerMonth
	}
	return &Spawner{seed: seed, daysPerMonth: daysPerMonth}
}

// Spawn builds an agent from def. The ID is assigned by the store.
func (s *Spawner) Spawn(def Definition, today clock.Date) *Agent {
	rng := entropy.Named(s.seed, "spawn/"+def.Name)

	a := &Agent{
		Name:     def.Name,
		Birth:    s.birthDate(rng, def, today),
		Home:     def.Home,
		Location: def.Home,
		Activity: "idle",
		Active:   true,
	}

	for i := range a.Personality {
		if v, ok := def.Personality[Axis(i)]; ok {
			a.Personality[i] = v
			continue
		}
		// Unspecified axes cluster around the middle of the scale.
		a.Personality[i] = 25 + rng.Float64()*50
	}

	for k := NeedKind(0); k < NumNeeds; k++ {
		if v, ok := def.Needs[k]; ok {
			a.Needs[k] = v
			continue
		}
		if k.Urgency() {
			a.Needs[k] = 5 + rng.Float64()*25
		} else {
			a.Needs[k] = 60 + rng.Float64()*30
		}
	}

	Normalize(a)
	a.Psyche.Mood = DeriveMood(&a.Needs, &a.Psyche)
	return a
}

// birthDate places the birthday so that the agent is exactly def.Age on today.
func (s *Spawner) birthDate(rng *rand.Rand, def Definition, today clock.Date) clock.Date {
	month, day := def.BirthMonth, def.BirthDay
	if month < 1 || month > clock.MonthsPerYear {
		month = 1 + rng.IntN(clock.MonthsPerYear)
	}
	if day < 1 {
		day = 1 + rng.IntN(s.daysPerMonth)
	}
	if day > s.daysPerMonth {
		day = s.daysPerMonth
	}
	age := max(def.Age, 0)
	b := clock.Date{Day: day, Month: month, Year: today.Year - age}
	if today.YearsSince(b) < age {
		b.Year--
	}
	return b
}
