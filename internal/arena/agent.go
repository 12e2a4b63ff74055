package arena

import (
	"math"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
)

const (
	minInitialSpeed = 2.0 // units per tick
	maxInitialSpeed = 4.0
	turnJitterDeg   = 45.0 // change_direction perturbation, each side
	loadedAgentSize = 100.0
)

// AgentKind is the closed set of robot behaviours.
type AgentKind int

const (
	KindDefault AgentKind = iota
	KindSensor
	KindUserControlled
	KindPredator
	KindWhisker
	agentKindCount
)

// AgentKinds lists every agent kind in declaration order.
var AgentKinds = [agentKindCount]AgentKind{KindDefault, KindSensor, KindUserControlled, KindPredator, KindWhisker}

var agentKindTags = [agentKindCount]string{
	KindDefault:        "DefaultRobot",
	KindSensor:         "SensorRobot",
	KindUserControlled: "UserControlledRobot",
	KindPredator:       "PredatorRobot",
	KindWhisker:        "WhiskerRobot",
}

var agentKindLabels = [agentKindCount]string{
	KindDefault:        "Default Robot",
	KindSensor:         "Sensor Robot",
	KindUserControlled: "User Controlled",
	KindPredator:       "Predator Robot",
	KindWhisker:        "Whisker Robot",
}

// Tag is the persisted variant tag, e.g. "SensorRobot".
func (k AgentKind) Tag() string {
	if k < 0 || k >= agentKindCount {
		return "UnknownRobot"
	}
	return agentKindTags[k]
}

// String returns the human label used by the add dialog.
func (k AgentKind) String() string {
	if k < 0 || k >= agentKindCount {
		return "unknown"
	}
	return agentKindLabels[k]
}

// ParseAgentKind accepts either a persisted tag or a display label.
func ParseAgentKind(s string) (AgentKind, error) {
	s = strings.TrimSpace(s)
	for _, k := range AgentKinds {
		if s == agentKindTags[k] || s == agentKindLabels[k] {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownKind, "robot %q", s)
}

// AgentID is a stable handle for an agent; never reused within an Arena.
type AgentID int

// Agent is one robot. Position is the top-left of its square box.
type Agent struct {
	id   AgentID
	kind AgentKind
	name string

	x, y    float64
	size    float64
	heading float64 // degrees, [0,360)
	speed   float64 // units per tick, >= 0

	// Sensor/Whisker debounce window open.
	reacting bool

	removed bool
}

func newAgent(id AgentID, kind AgentKind, name string, x, y, size float64, rng *rand.Rand) *Agent {
	return &Agent{
		id:      id,
		kind:    kind,
		name:    name,
		x:       x,
		y:       y,
		size:    size,
		heading: rng.Float64() * 360,
		speed:   minInitialSpeed + rng.Float64()*(maxInitialSpeed-minInitialSpeed),
	}
}

func (a *Agent) ID() AgentID      { return a.id }
func (a *Agent) Kind() AgentKind  { return a.kind }
func (a *Agent) Name() string     { return a.name }
func (a *Agent) Size() float64    { return a.size }
func (a *Agent) Heading() float64 { return a.heading }
func (a *Agent) Speed() float64   { return a.speed }

// Position returns the top-left corner of the agent's box.
func (a *Agent) Position() (float64, float64) {
	return a.x, a.y
}

// Removed reports whether the agent has left the arena.
func (a *Agent) Removed() bool { return a.removed }

// Reacting reports whether a sensor/whisker debounce window is open.
func (a *Agent) Reacting() bool { return a.reacting }

// SetName renames the agent under the same rules as AddAgent, except that
// an empty name is refused.
func (a *Agent) SetName(name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if name == "" {
		return errors.Wrap(ErrInvalidName, "empty name")
	}
	a.name = name
	return nil
}

// cleanName trims name and refuses characters the arena file cannot carry.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if strings.ContainsAny(name, ",\r\n") {
		return "", errors.Wrapf(ErrInvalidName, "agent %q", name)
	}
	return name, nil
}

// SetSpeed clamps negative input to zero.
func (a *Agent) SetSpeed(v float64) {
	a.speed = math.Max(0, v)
}

// SetHeading stores the heading normalized into [0,360).
func (a *Agent) SetHeading(deg float64) {
	a.heading = NormalizeHeading(deg)
}

// Box returns the agent's bounding box.
func (a *Agent) Box() Box {
	return Box{X: a.x, Y: a.y, W: a.size, H: a.size}
}

// NormalizeHeading wraps degrees into [0,360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(math.Mod(deg, 360)+360, 360)
	if h >= 360 {
		// -tiny + 360 rounds up to 360.
		h = 0
	}
	return h
}

// Advance moves the agent one tick along its heading.
func (a *Agent) Advance() {
	rad := a.heading * math.Pi / 180
	a.x += math.Cos(rad) * a.speed
	a.y += math.Sin(rad) * a.speed
}

// BounceHorizontal reflects the heading off a vertical wall.
func (a *Agent) BounceHorizontal() {
	a.heading = NormalizeHeading(180 - a.heading)
}

// BounceVertical reflects the heading off a horizontal wall.
func (a *Agent) BounceVertical() {
	a.heading = NormalizeHeading(360 - a.heading)
}

// ChangeDirection perturbs the heading by a uniform amount in [-45,+45].
func (a *Agent) ChangeDirection(rng *rand.Rand) {
	a.heading = NormalizeHeading(a.heading + rng.Float64()*2*turnJitterDeg - turnJitterDeg)
}

// Turn rotates the heading by deg (positive = clockwise on screen).
func (a *Agent) Turn(deg float64) {
	a.heading = NormalizeHeading(a.heading + deg)
}

// Direction is one of the four discrete user movement commands.
type Direction int

const (
	MoveUp Direction = iota
	MoveDown
	MoveLeft
	MoveRight
)

func (d Direction) String() string {
	switch d {
	case MoveUp:
		return "up"
	case MoveDown:
		return "down"
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	default:
		return "unknown"
	}
}

// step shifts the agent by its current speed in direction d.
func (a *Agent) step(d Direction) {
	switch d {
	case MoveUp:
		a.y -= a.speed
	case MoveDown:
		a.y += a.speed
	case MoveLeft:
		a.x -= a.speed
	case MoveRight:
		a.x += a.speed
	}
}
