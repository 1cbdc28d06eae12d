// Memory stream and reflections. Every state-changing action appends a
// memory; every 5th memory (counted over the agent's lifetime, not a window)
// triggers a reflection rolled up from the most recent entries.
package staff

import (
	"sort"
	"strings"
	"time"
)

// ReflectionInterval is the fixed cadence: one reflection per this many
// memories.
const ReflectionInterval = 5

// AddMemory appends a memory to the agent's stream, reflecting when the total
// count reaches a multiple of ReflectionInterval.
func (a *Agent) AddMemory(now time.Time, description string, importance float64, relatedAgents []string, location string) {
	a.Memories = append(a.Memories, Memory{
		Time:          now,
		Description:   description,
		Importance:    importance,
		RelatedAgents: relatedAgents,
		Location:      location,
	})

	if len(a.Memories)%ReflectionInterval == 0 {
		a.reflect()
	}
}

// reflect summarizes the most recent memories, ordered by importance
// descending, into a single reflection entry.
func (a *Agent) reflect() {
	n := ReflectionInterval
	if n > len(a.Memories) {
		n = len(a.Memories)
	}
	recent := make([]Memory, n)
	copy(recent, a.Memories[len(a.Memories)-n:])
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Importance > recent[j].Importance
	})

	descs := make([]string, n)
	for i, m := range recent {
		descs[i] = m.Description
	}
	a.Reflections = append(a.Reflections, "Recent activity review: "+strings.Join(descs, ", "))
}

// ImportantMemories returns the top count memories by importance.
func (a *Agent) ImportantMemories(count int) []Memory {
	if len(a.Memories) == 0 {
		return nil
	}
	sorted := make([]Memory, len(a.Memories))
	copy(sorted, a.Memories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Importance > sorted[j].Importance
	})
	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}

// RecentMemories returns the most recent count memories, newest first.
func (a *Agent) RecentMemories(count int) []Memory {
	if len(a.Memories) == 0 {
		return nil
	}
	if count > len(a.Memories) {
		count = len(a.Memories)
	}
	out := make([]Memory, 0, count)
	for i := len(a.Memories) - 1; i >= len(a.Memories)-count; i-- {
		out = append(out, a.Memories[i])
	}
	return out
}
