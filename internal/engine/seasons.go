// Calendar rhythms: season, weekday and time-of-day factors on base action
// weights. Outdoor season effects live in the decision weights themselves.
package engine

import (
	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/clock"
)

// schedule is the calendar context of one tick.
type schedule struct {
	season  clock.Season
	weekday int
	phase   clock.Phase
}

func scheduleOf(c *clock.Clock) schedule {
	return schedule{season: c.Season(), weekday: c.Weekday(), phase: c.Phase()}
}

// factor multiplies a category's base weight for the current moment.
func (s schedule) factor(c agents.Category) float64 {
	return seasonFactor(s.season, c) * dayFactor(s.weekday, c) * phaseFactor(s.phase, c)
}

// seasonFactor is the town's seasonal mood.
func seasonFactor(season clock.Season, c agents.Category) float64 {
	switch season {
	case clock.Winter:
		switch c {
		case agents.CategorySolitary:
			return 1.3
		case agents.CategorySocial:
			return 0.8
		}
	case clock.Summer:
		switch c {
		case agents.CategoryRomance:
			return 1.3
		case agents.CategoryFun:
			return 1.2
		}
	case clock.Autumn:
		if c == agents.CategoryStudy {
			return 1.4
		}
	case clock.Spring:
		if c == agents.CategorySocial {
			return 1.2
		}
	}
	return 1
}

// dayFactor applies the weekly rhythm. weekday 0 is Monday.
func dayFactor(weekday int, c agents.Category) float64 {
	switch {
	case weekday >= 5 && (c == agents.CategoryWork || c == agents.CategoryStudy):
		return 0.2
	case weekday == 4 && (c == agents.CategoryFun || c == agents.CategoryRomance || c == agents.CategoryRisky):
		return 1.4
	case weekday >= 5 && c == agents.CategoryFun:
		return 1.2
	}
	return 1
}

func phaseFactor(p clock.Phase, c agents.Category) float64 {
	switch c {
	case agents.CategorySleep:
		switch p {
		case clock.Night:
			return 4
		case clock.Late:
			return 2.5
		case clock.Evening:
			return 0.8
		case clock.Morning, clock.Afternoon:
			return 0.2
		}
	case agents.CategoryWork, agents.CategoryStudy:
		if p == clock.Morning || p == clock.Afternoon {
			return 1.5
		}
	case agents.CategoryFun, agents.CategoryRisky, agents.CategoryRomance:
		if p == clock.Evening || p == clock.Late {
			return 1.3
		}
	}
	return 1
}
