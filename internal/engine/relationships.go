// Candidate generation and action effects. Partnered actions apply their
// relationship delta to the shared pair record, so both ends see one update.
package engine

import (
	"fmt"
	"strings"

	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/social"
	"github.com/talgya/willow-creek/internal/world"
)

// elsewhereFactor discounts actions that require walking somewhere else.
const elsewhereFactor = 0.6

// occupancy is who stands where while decisions are made. An agent that has
// already moved this tick is seen at its new location.
type occupancy map[world.LocationID][]agents.AgentID

func (w *World) occupancy(active []*agents.Agent) occupancy {
	occ := make(occupancy)
	for _, a := range active {
		occ[a.Location] = append(occ[a.Location], a.ID)
	}
	return occ
}

// move relocates id, keeping each location's list in ID order.
func (o occupancy) move(id agents.AgentID, from, to world.LocationID) {
	if from == to {
		return
	}
	here := o[from]
	for i, v := range here {
		if v == id {
			o[from] = append(here[:i], here[i+1:]...)
			break
		}
	}
	there := o[to]
	i := 0
	for i < len(there) && there[i] < id {
		i++
	}
	there = append(there, 0)
	copy(there[i+1:], there[i:])
	there[i] = id
	o[to] = there
}

// nearby lists the other agents at a's location, in ID order.
func (o occupancy) nearby(a *agents.Agent) []agents.AgentID {
	var out []agents.AgentID
	for _, id := range o[a.Location] {
		if id != a.ID {
			out = append(out, id)
		}
	}
	return out
}

// candidates lists what a can do this tick: solo actions at its home and at
// every open venue, and partnered actions with each agent sharing its spot.
func (w *World) candidates(a *agents.Agent, nearby []agents.AgentID, sched schedule) []agents.Action {
	var out []agents.Action
	for _, loc := range w.places.Locations {
		here := loc.ID == a.Location
		if loc.Kind == world.KindHome && loc.ID != a.Home {
			continue
		}
		if loc.ID != a.Home && !loc.IsOpen(w.clock.Hour) {
			continue
		}
		for i := range w.catalog[loc.Kind] {
			spec := &w.catalog[loc.Kind][i]
			base := spec.BaseWeight * sched.factor(spec.Category)
			if !here {
				if spec.Partnered() {
					continue
				}
				base *= elsewhereFactor
			}
			if !spec.Partnered() {
				out = append(out, w.action(spec, loc, agents.NoAgent, base))
				continue
			}
			for _, other := range nearby {
				if !w.allowed(spec, a.ID, other) {
					continue
				}
				out = append(out, w.action(spec, loc, other, base/float64(len(nearby))))
			}
		}
	}
	return out
}

func (w *World) action(spec *ActionSpec, loc *world.Location, target agents.AgentID, base float64) agents.Action {
	return agents.Action{
		Name:        spec.Name,
		Category:    spec.Category,
		BaseWeight:  base,
		Target:      target,
		Interaction: spec.Interaction,
		Location:    loc.ID,
		Outdoor:     loc.Outdoor,
	}
}

// allowed applies the status gate of a partnered spec. Kin never court.
func (w *World) allowed(spec *ActionSpec, a, b agents.AgentID) bool {
	status := social.Stranger
	var tags social.Tags
	if r, ok := w.graph.Between(a, b); ok {
		status, tags = r.Status, r.Tags
	}
	if spec.Category == agents.CategoryRomance && tags.Has(social.TagFamily) {
		return false
	}
	if status < spec.MinStatus {
		return false
	}
	return spec.MaxStatus == 0 || status <= spec.MaxStatus
}

// perform applies the chosen action for hours of simulated time. It reports
// whether a relationship interaction took place.
func (w *World) perform(a *agents.Agent, act agents.Action, hours float64) (bool, error) {
	a.Location = act.Location
	a.Activity = act.Name

	loc := w.places.Get(act.Location)
	if loc == nil {
		return false, fmt.Errorf("location %d: unknown", act.Location)
	}
	spec, ok := w.catalog.lookup(loc.Kind, act.Name)
	if !ok {
		return false, nil
	}

	for _, k := range spec.Restores {
		agents.RestoreNeed(a, k, hours, &w.tune.Needs)
	}
	for k, perHour := range spec.Drains {
		d := perHour * hours
		if !k.Urgency() {
			d = -d
		}
		agents.AdjustNeed(a, k, d)
	}

	if !spec.Partnered() || act.Target == agents.NoAgent {
		return false, nil
	}
	if err := w.interact(a.ID, act.Target, spec.Interaction, spec.Memory, act.Name); err != nil {
		return false, err
	}
	partner, err := w.store.Get(act.Target)
	if err != nil {
		return true, err
	}
	agents.RestoreNeed(partner, agents.NeedSocial, hours, &w.tune.Needs)
	return true, nil
}

// interact records one interaction on the pair and leaves a memory on both
// agents when weight is positive.
func (w *World) interact(actor, target agents.AgentID, kind string, weight float32, label string) error {
	now := w.clock.Now()
	r, err := w.graph.RecordInteraction(actor, target, kind, now)
	if err != nil {
		return err
	}
	if weight <= 0 {
		return nil
	}
	for _, id := range []agents.AgentID{actor, target} {
		a, err := w.store.Get(id)
		if err != nil {
			return err
		}
		other, err := w.store.Get(r.Pair.Other(id))
		if err != nil {
			return err
		}
		agents.AddMemory(a, agents.Memory{
			Tick:       w.tick,
			Day:        w.clock.TotalDays,
			Content:    fmt.Sprintf("%s with %s", humanize(label), other.Name),
			Importance: weight,
			With:       []agents.AgentID{other.ID},
		}, w.tune.MemoryCapacity)
	}
	return nil
}

// humanize turns an action name like "go_on_date" into "go on date".
func humanize(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}
