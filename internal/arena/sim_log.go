package arena

import (
	"fmt"
	"sort"
	"strings"
)

// Event is one recorded simulation event.
type Event struct {
	Tick     int
	Entity   string  // robot name, obstacle name, or "--" for global events
	Category string  // roster, wall, exclusion, obstacle, sensor, whisker, predator, effect, state, move
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the event as a fixed-width log line.
//
//	[T=042] Predator Robot   predator  consume_agent    Robot 3
func (e Event) String() string {
	return fmt.Sprintf("[T=%03d] %-16s %-9s %-16s %s",
		e.Tick, e.Entity, e.Category, e.Key, e.Value)
}

// EventRecorder receives events from an Arena.
type EventRecorder interface {
	Record(e Event)
}

// SimLog collects events in memory. It is unbounded and machine-readable;
// the viewer uses a ring buffer instead.
type SimLog struct {
	entries []Event
}

// NewSimLog creates an empty SimLog.
func NewSimLog() *SimLog {
	return &SimLog{}
}

// Record implements EventRecorder.
func (sl *SimLog) Record(e Event) {
	sl.entries = append(sl.entries, e)
}

// Entries returns all recorded entries.
func (sl *SimLog) Entries() []Event {
	return sl.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (sl *SimLog) Filter(category, key string) []Event {
	var out []Event
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterEntity returns entries for one robot or obstacle name.
func (sl *SimLog) FilterEntity(name string) []Event {
	var out []Event
	for _, e := range sl.entries {
		if e.Entity == name {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (sl *SimLog) CountCategory(category, key string) int {
	return len(sl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (sl *SimLog) LastOf(category, key string) (Event, bool) {
	entries := sl.Filter(category, key)
	if len(entries) == 0 {
		return Event{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (sl *SimLog) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range sl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Counts tallies entries by "category/key".
func (sl *SimLog) Counts() map[string]int {
	out := map[string]int{}
	for _, e := range sl.entries {
		out[e.Category+"/"+e.Key]++
	}
	return out
}

// Format returns the full log as a single string for t.Log output.
func (sl *SimLog) Format() string {
	var sb strings.Builder
	for _, e := range sl.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary returns a short human-readable summary of the arena.
func (sl *SimLog) Summary(ar *Arena) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%03d (%s, %s simulated) ---\n", ar.TickCount(), ar.State(), ar.Now())

	perKind := map[AgentKind]int{}
	for _, a := range ar.Agents() {
		perKind[a.Kind()]++
	}
	sb.WriteString("Robots: ")
	for _, k := range AgentKinds {
		if n := perKind[k]; n > 0 {
			fmt.Fprintf(&sb, "%s=%d  ", k.Tag(), n)
		}
	}
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "Obstacles: %d  pending effects: %d\n", len(ar.Obstacles()), ar.PendingEffects())

	counts := sl.Counts()
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-28s %d\n", k, counts[k])
	}
	return sb.String()
}
