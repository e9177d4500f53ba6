package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultHoursPerStep is one simulated hour per step.
const DefaultHoursPerStep = 1.0

// Runner drives a world forward in fixed steps. It never sleeps: pacing
// against the wall clock belongs to the caller.
type Runner struct {
	World        *World
	HoursPerStep float64

	// Callbacks, run after the step under no lock. An error from OnDay stops
	// the run.
	OnStep func(StepSummary)
	OnDay  func(day int, sum StepSummary) error
}

// NewRunner creates a runner with one-hour steps.
func NewRunner(w *World) *Runner {
	return &Runner{World: w, HoursPerStep: DefaultHoursPerStep}
}

// Run advances steps times, or until ctx is done when steps <= 0. It returns
// the number of completed steps.
func (r *Runner) Run(ctx context.Context, steps int) (int, error) {
	hours := r.HoursPerStep
	if hours <= 0 {
		hours = DefaultHoursPerStep
	}
	slog.Info("simulation started", "tick", r.World.Tick(), "hours_per_step", hours, "steps", steps)

	done := 0
	for steps <= 0 || done < steps {
		if err := ctx.Err(); err != nil {
			slog.Info("simulation stopped", "tick", r.World.Tick(), "reason", err)
			return done, nil
		}
		sum, err := r.World.Advance(hours)
		if err != nil {
			return done, fmt.Errorf("step %d: %w", done+1, err)
		}
		done++

		if r.OnStep != nil {
			r.OnStep(sum)
		}
		if sum.DaysCrossed > 0 {
			r.dailyReport(sum)
			if r.OnDay != nil {
				day := r.World.Clock().TotalDays
				if err := r.OnDay(day, sum); err != nil {
					return done, fmt.Errorf("day %d: %w", day, err)
				}
			}
		}
	}

	slog.Info("simulation finished", "tick", r.World.Tick(), "steps", done)
	return done, nil
}

func (r *Runner) dailyReport(sum StepSummary) {
	st := r.World.Stats()
	gs := r.World.GraphStats()
	slog.Info("daily report",
		"tick", sum.Tick,
		"time", sum.Time,
		"active", st.Active,
		"avg_stress", fmt.Sprintf("%.1f", st.AvgStress),
		"avg_loneliness", fmt.Sprintf("%.1f", st.AvgLoneliness),
		"avg_hunger", fmt.Sprintf("%.1f", st.AvgHunger),
		"relationships", gs.Relationships,
		"friend_groups", gs.FriendGroups,
		"milestones", st.Milestones,
	)
}
