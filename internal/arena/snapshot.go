package arena

import (
	"fmt"
	"strings"
)

// AgentLine formats one agent for the info display.
func AgentLine(a *Agent) string {
	return fmt.Sprintf("Name: %s, X: %.2f, Y: %.2f, Size: %.2f", a.name, a.x, a.y, a.size)
}

// Snapshot returns one display line per agent, in insertion order. It is
// computed fresh on every call.
func (ar *Arena) Snapshot() []string {
	lines := make([]string, len(ar.agents))
	for i, a := range ar.agents {
		lines[i] = AgentLine(a)
	}
	return lines
}

// SnapshotText joins Snapshot with trailing newlines.
func (ar *Arena) SnapshotText() string {
	var sb strings.Builder
	for _, l := range ar.Snapshot() {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Roster is a serializable view of the arena's entities.
type Roster struct {
	Tick      int              `json:"tick"`
	State     string           `json:"state"`
	Width     float64          `json:"width"`
	Height    float64          `json:"height"`
	Exclusion Box              `json:"exclusion"`
	Agents    []AgentRecord    `json:"agents"`
	Obstacles []ObstacleRecord `json:"obstacles"`
}

// AgentRecord is one agent in a Roster.
type AgentRecord struct {
	ID       AgentID `json:"id"`
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Heading  float64 `json:"heading"`
	Speed    float64 `json:"speed"`
	Reacting bool    `json:"reacting,omitempty"`
}

// ObstacleRecord is one obstacle in a Roster.
type ObstacleRecord struct {
	ID       ObstacleID `json:"id"`
	Kind     string     `json:"kind"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Size     float64    `json:"size"`
	Rotation float64    `json:"rotation"`
}

// Roster captures the current entities.
func (ar *Arena) Roster() Roster {
	r := Roster{
		Tick:      ar.tick,
		State:     ar.state.String(),
		Width:     ar.cfg.Width,
		Height:    ar.cfg.Height,
		Exclusion: ar.cfg.Exclusion,
		Agents:    make([]AgentRecord, 0, len(ar.agents)),
		Obstacles: make([]ObstacleRecord, 0, len(ar.obstacles)),
	}
	for _, a := range ar.agents {
		r.Agents = append(r.Agents, a.Record())
	}
	for _, o := range ar.obstacles {
		r.Obstacles = append(r.Obstacles, o.Record())
	}
	return r
}

// Record returns the agent's serializable form.
func (a *Agent) Record() AgentRecord {
	return AgentRecord{
		ID: a.id, Kind: a.kind.Tag(), Name: a.name,
		X: a.x, Y: a.y, Size: a.size,
		Heading: a.heading, Speed: a.speed, Reacting: a.reacting,
	}
}

// Record returns the obstacle's serializable form.
func (o *Obstacle) Record() ObstacleRecord {
	return ObstacleRecord{
		ID: o.id, Kind: o.kind.Tag(),
		X: o.x, Y: o.y, Size: o.size, Rotation: o.rotation,
	}
}
