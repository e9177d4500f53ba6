package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/world"
)

// ErrUnnamedAgent is returned when a new resident has no name.
var ErrUnnamedAgent = errors.New("agent has no name")

// AddAgent brings a new resident into the running world, for a birth or a
// newcomer. Kin named in def must already live here; they are linked and
// tagged as family. The new agent's current needs are taken as its baseline,
// so nothing it starts with is reported as a milestone.
func (w *World) AddAgent(def agents.Definition) (agents.AgentID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if def.Name == "" {
		return 0, ErrUnnamedAgent
	}
	kin := make([]agents.AgentID, 0, len(def.Family))
	for _, name := range def.Family {
		other, err := w.store.Lookup(name)
		if err != nil {
			return 0, fmt.Errorf("agent %q: family: %w", def.Name, err)
		}
		kin = append(kin, other.ID)
	}

	def.Home = w.places.Add(homeName(def), world.KindHome)
	id := w.store.Add(def, w.clock.Date())
	a, err := w.store.Get(id)
	if err != nil {
		return 0, err
	}
	for _, k := range kin {
		if err := w.store.LinkFamily(id, k); err != nil {
			return id, err
		}
		if err := w.graph.SeedFamily(id, k); err != nil {
			return id, err
		}
	}
	w.detector.PrimeAgent(a)

	slog.Info("agent added",
		"agent", id,
		"name", a.Name,
		"home", w.places.Name(a.Home),
		"time", w.clock.Label(),
	)
	return id, nil
}

// Deactivate retires an agent. It stops deciding and its needs freeze;
// commands naming it fail with ErrInactiveAgent. Its relationships and
// milestones are kept.
func (w *World) Deactivate(id agents.AgentID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Deactivate(id); err != nil {
		return err
	}
	slog.Info("agent deactivated", "agent", id, "time", w.clock.Label())
	return nil
}
