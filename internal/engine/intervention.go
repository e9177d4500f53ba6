package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/milestones"
	"github.com/talgya/willow-creek/internal/social"
)

// ErrInactiveAgent is returned when a command names an agent that has left
// the simulation.
var ErrInactiveAgent = errors.New("agent is not active")

// defaultMemoryWeight is used for commanded interactions the catalog does not
// list.
const defaultMemoryWeight = 0.5

// Command is an interaction requested from outside the autonomous loop, for
// example by a narrator acting out a scene.
type Command struct {
	Actor  agents.AgentID `json:"actor"`
	Target agents.AgentID `json:"target"`
	Kind   string         `json:"kind"` // interaction name, e.g. "gift"
}

// Apply performs cmd immediately: the relationship delta, status recompute
// and memories on both agents. It returns a copy of the updated record.
func (w *World) Apply(cmd Command) (social.Relationship, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range []agents.AgentID{cmd.Actor, cmd.Target} {
		a, err := w.store.Get(id)
		if err != nil {
			return social.Relationship{}, err
		}
		if !a.Active {
			return social.Relationship{}, fmt.Errorf("agent %d: %w", id, ErrInactiveAgent)
		}
	}
	if _, ok := w.tune.Interaction(cmd.Kind); !ok {
		return social.Relationship{}, fmt.Errorf("command %q: %w", cmd.Kind, social.ErrUnknownInteraction)
	}

	weight, label := float32(defaultMemoryWeight), cmd.Kind
	if spec, ok := w.catalog.byInteraction(cmd.Kind); ok {
		weight, label = spec.Memory, spec.Name
	}
	if err := w.interact(cmd.Actor, cmd.Target, cmd.Kind, weight, label); err != nil {
		return social.Relationship{}, err
	}

	r, _ := w.graph.Between(cmd.Actor, cmd.Target)
	slog.Info("command applied",
		"actor", cmd.Actor,
		"target", cmd.Target,
		"kind", cmd.Kind,
		"status", r.Status,
	)
	return *r.Clone(), nil
}

// Event is a milestone reported by a collaborator (a scandal written by the
// narrator, an achievement from a mini-game). The world fills in when and
// where it happened.
type Event struct {
	Type        milestones.Type       `json:"type"`
	Importance  milestones.Importance `json:"importance"`
	Primary     agents.AgentID        `json:"primary"`
	Secondary   []agents.AgentID      `json:"secondary,omitempty"`
	Description string                `json:"description"`
	Details     map[string]string     `json:"details,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Impact      milestones.Impact     `json:"impact"`
}

// RecordMilestone appends an external event to the milestone log. Major
// events become memories of everyone involved.
func (w *World) RecordMilestone(ev Event) (milestones.Milestone, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	primary, err := w.store.Get(ev.Primary)
	if err != nil {
		return milestones.Milestone{}, err
	}
	for _, id := range ev.Secondary {
		if !w.store.Has(id) {
			return milestones.Milestone{}, fmt.Errorf("secondary %d: %w", id, agents.ErrNoSuchAgent)
		}
	}
	if ev.Importance < milestones.Minor || ev.Importance > milestones.LifeChanging {
		return milestones.Milestone{}, fmt.Errorf("importance %d out of range", ev.Importance)
	}

	m := w.log.Append(milestones.Milestone{
		Type:        ev.Type,
		Importance:  ev.Importance,
		Day:         w.clock.TotalDays,
		Time:        w.clock.Label(),
		Primary:     ev.Primary,
		Secondary:   append([]agents.AgentID(nil), ev.Secondary...),
		Description: ev.Description,
		Location:    primary.Location,
		Details:     ev.Details,
		Tags:        ev.Tags,
		Impact:      ev.Impact,
	})
	w.remember(m)
	slog.Info("milestone recorded", "seq", m.Seq, "type", m.Type, "primary", m.Primary)
	return m, nil
}
