package agents

import (
	"fmt"

	"github.com/talgya/willow-creek/internal/clock"
)

// Store is the agent arena. An agent's ID is its index, so lookups by ID are
// a bounds check and a slice read.
type Store struct {
	agents  []*Agent
	byName  map[string]AgentID
	spawner *Spawner
}

// NewStore creates an empty store that spawns through sp.
func NewStore(sp *Spawner) *Store {
	return &Store{byName: make(map[string]AgentID), spawner: sp}
}

// Add spawns an agent from def and returns its ID. A name already taken gets
// a numeric suffix: "Ann Lee" becomes "Ann Lee (2)".
func (s *Store) Add(def Definition, today clock.Date) AgentID {
	a := s.spawner.Spawn(def, today)
	return s.insert(a)
}

func (s *Store) insert(a *Agent) AgentID {
	a.Name = s.uniqueName(a.Name)
	a.ID = AgentID(len(s.agents))
	s.agents = append(s.agents, a)
	s.byName[a.Name] = a.ID
	return a.ID
}

func (s *Store) uniqueName(name string) string {
	if _, taken := s.byName[name]; !taken {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if _, taken := s.byName[candidate]; !taken {
			return candidate
		}
	}
}

// Get returns the agent with the given ID.
func (s *Store) Get(id AgentID) (*Agent, error) {
	if int(id) >= len(s.agents) {
		return nil, fmt.Errorf("agent %d: %w", id, ErrNoSuchAgent)
	}
	return s.agents[id], nil
}

// Has reports whether id names an agent.
func (s *Store) Has(id AgentID) bool {
	return int(id) < len(s.agents)
}

// Lookup resolves an agent name.
func (s *Store) Lookup(name string) (*Agent, error) {
	id, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", name, ErrNoSuchAgent)
	}
	return s.agents[id], nil
}

// All returns every agent in ID order, including inactive ones.
func (s *Store) All() []*Agent {
	return s.agents
}

// Active returns the active agents in ID order.
func (s *Store) Active() []*Agent {
	out := make([]*Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if a.Active {
			out = append(out, a)
		}
	}
	return out
}

// Deactivate retires an agent. Agents are never removed.
func (s *Store) Deactivate(id AgentID) error {
	a, err := s.Get(id)
	if err != nil {
		return err
	}
	a.Active = false
	return nil
}

// Len returns the number of agents, active or not.
func (s *Store) Len() int {
	return len(s.agents)
}

// LinkFamily records a and b as kin of each other.
func (s *Store) LinkFamily(a, b AgentID) error {
	if a == b {
		return nil
	}
	x, err := s.Get(a)
	if err != nil {
		return err
	}
	y, err := s.Get(b)
	if err != nil {
		return err
	}
	x.Family = appendUnique(x.Family, b)
	y.Family = appendUnique(y.Family, a)
	return nil
}

func appendUnique(ids []AgentID, id AgentID) []AgentID {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

// RestoreStore rebuilds a store from agents read back from a checkpoint.
// IDs must equal positions and names must be unique.
func RestoreStore(sp *Spawner, list []*Agent) (*Store, error) {
	s := NewStore(sp)
	for i, a := range list {
		if a == nil {
			return nil, fmt.Errorf("agent slot %d is empty", i)
		}
		if int(a.ID) != i {
			return nil, fmt.Errorf("agent %q has id %d at position %d", a.Name, a.ID, i)
		}
		if _, dup := s.byName[a.Name]; dup {
			return nil, fmt.Errorf("duplicate agent name %q", a.Name)
		}
		for _, kin := range a.Family {
			if int(kin) >= len(list) {
				return nil, fmt.Errorf("agent %q: family %d: %w", a.Name, kin, ErrNoSuchAgent)
			}
		}
		Normalize(a)
		s.agents = append(s.agents, a)
		s.byName[a.Name] = a.ID
	}
	return s, nil
}
