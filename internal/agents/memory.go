// Agent memory stream: a bounded record of notable experiences, handed to
// narrators through snapshots.
package agents

import "sort"

// Memory records a notable experience in an agent's life.
type Memory struct {
	Tick       uint64    `json:"tick"`
	Day        int       `json:"day"`
	Content    string    `json:"content"`
	Importance float32   `json:"importance"` // 0.0–1.0
	With       []AgentID `json:"with,omitempty"`
}

func (m Memory) clone() Memory {
	m.With = append([]AgentID(nil), m.With...)
	return m
}

// AddMemory appends a memory to the agent's stream. When the stream holds
// capacity entries, the oldest is dropped to make room.
func AddMemory(a *Agent, m Memory, capacity int) {
	if capacity <= 0 {
		return
	}
	if len(a.Memories) >= capacity {
		drop := len(a.Memories) - capacity + 1
		a.Memories = append(a.Memories[:0], a.Memories[drop:]...)
	}
	a.Memories = append(a.Memories, m)
}

// RecentMemories returns the newest count memories, newest first.
func RecentMemories(a *Agent, count int) []Memory {
	if len(a.Memories) == 0 || count <= 0 {
		return nil
	}
	if count > len(a.Memories) {
		count = len(a.Memories)
	}
	out := make([]Memory, 0, count)
	for i := len(a.Memories) - 1; i >= 0 && len(out) < count; i-- {
		out = append(out, a.Memories[i].clone())
	}
	return out
}

// ImportantMemories returns the top N memories by importance.
func ImportantMemories(a *Agent, count int) []Memory {
	if len(a.Memories) == 0 {
		return nil
	}

	sorted := make([]Memory, len(a.Memories))
	for i, m := range a.Memories {
		sorted[i] = m.clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Importance > sorted[j].Importance
	})

	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}
