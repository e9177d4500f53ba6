package social

import (
	"sort"

	"github.com/talgya/willow-creek/internal/agents"
)

// Group is a connected set of agents whose pairwise ties reach a minimum
// strength.
type Group struct {
	Members []agents.AgentID `json:"members"`
}

// Connected is an agent and its count of qualifying ties.
type Connected struct {
	Agent agents.AgentID `json:"agent"`
	Ties  int            `json:"ties"`
}

// Stats is the graph summary handed to snapshots.
type Stats struct {
	Relationships   int        `json:"relationships"`
	AverageStrength float64    `json:"average_strength"`
	Density         float64    `json:"density"`
	MostConnected   *Connected `json:"most_connected,omitempty"`
	FriendGroups    int        `json:"friend_groups"`
}

// Summarize computes Stats using minStrength for the tie-based metrics.
func (g *Graph) Summarize(minStrength float64) Stats {
	st := Stats{
		Relationships:   g.Len(),
		AverageStrength: g.AverageStrength(),
		Density:         g.Density(),
		FriendGroups:    len(g.FriendGroups(minStrength)),
	}
	if c, ok := g.MostConnected(minStrength); ok {
		st.MostConnected = &c
	}
	return st
}

// MostConnected returns the agent with the most ties at or above
// minStrength. Ties go to the lower ID.
func (g *Graph) MostConnected(minStrength float64) (Connected, bool) {
	counts := make(map[agents.AgentID]int)
	for _, r := range g.rels {
		if r.Strength() >= minStrength {
			counts[r.Pair.A]++
			counts[r.Pair.B]++
		}
	}
	var best Connected
	found := false
	for id, n := range counts {
		if !found || n > best.Ties || (n == best.Ties && id < best.Agent) {
			best = Connected{Agent: id, Ties: n}
			found = true
		}
	}
	return best, found
}

// AverageStrength is the mean strength over all records, or 0 if none.
func (g *Graph) AverageStrength() float64 {
	if len(g.rels) == 0 {
		return 0
	}
	var sum float64
	for _, r := range g.rels {
		sum += r.Strength()
	}
	return sum / float64(len(g.rels))
}

// Density is the share of possible pairs among active agents that have a
// tie with positive strength.
func (g *Graph) Density() float64 {
	active := g.roster.Active()
	n := len(active)
	if n < 2 {
		return 0
	}
	isActive := make(map[agents.AgentID]bool, n)
	for _, a := range active {
		isActive[a.ID] = true
	}
	edges := 0
	for k, r := range g.rels {
		if r.Strength() > 0 && isActive[k.A] && isActive[k.B] {
			edges++
		}
	}
	return float64(edges) / float64(n*(n-1)/2)
}

// FriendGroups returns the connected components of two or more active
// agents, walking ties at or above minStrength breadth-first. Groups are
// ordered by their lowest member; members are sorted.
func (g *Graph) FriendGroups(minStrength float64) []Group {
	active := g.roster.Active()
	isActive := make(map[agents.AgentID]bool, len(active))
	for _, a := range active {
		isActive[a.ID] = true
	}

	visited := make(map[agents.AgentID]bool)
	var groups []Group
	for _, a := range active {
		if visited[a.ID] {
			continue
		}
		visited[a.ID] = true
		queue := []agents.AgentID{a.ID}
		var members []agents.AgentID
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, k := range g.adj[cur] {
				if g.rels[k].Strength() < minStrength {
					continue
				}
				next := k.Other(cur)
				if visited[next] || !isActive[next] {
					continue
				}
				visited[next] = true
				queue = append(queue, next)
			}
		}
		if len(members) >= 2 {
			sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
			groups = append(groups, Group{Members: members})
		}
	}
	return groups
}
