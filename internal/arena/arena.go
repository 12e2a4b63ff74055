package arena

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// exclusionPush is how far an agent is shoved out of the exclusion
	// rectangle along its entry axis.
	exclusionPush = 5.0

	spawnOrigin = 100.0
	spawnStep   = 50.0
)

// State is the arena's run state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Config holds the arena's world parameters.
type Config struct {
	Width, Height float64
	// Exclusion is the info-display region; it behaves like a wall.
	Exclusion    Box
	TickDuration time.Duration
	Seed         int64
}

// DefaultConfig returns a 1200x800 world ticking every 50 ms.
func DefaultConfig() Config {
	return Config{
		Width:        1200,
		Height:       800,
		Exclusion:    Box{X: 20, Y: 20, W: 320, H: 160},
		TickDuration: 50 * time.Millisecond,
		Seed:         time.Now().UnixNano(),
	}
}

// Arena owns every agent and obstacle and drives the tick loop. It is not
// safe for concurrent use; see Runner.
type Arena struct {
	cfg   Config
	state State
	rng   *rand.Rand

	agents    []*Agent
	obstacles []*Obstacle
	index     *obstacleIndex

	nextAgentID    AgentID
	nextObstacleID ObstacleID
	robotCount     int // drives auto names
	obstacleCount  int // drives auto placement

	tick      int
	now       time.Duration
	effects   effectQueue
	effectSeq int

	recorder EventRecorder
	verbose  bool
}

// New creates an empty, idle arena.
func New(cfg Config) *Arena {
	if cfg.TickDuration <= 0 {
		cfg.TickDuration = 50 * time.Millisecond
	}
	return &Arena{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)), // #nosec G404 -- simulation only
		index: newObstacleIndex(),
	}
}

func (ar *Arena) Config() Config         { return ar.cfg }
func (ar *Arena) State() State           { return ar.state }
func (ar *Arena) TickCount() int         { return ar.tick }
func (ar *Arena) Now() time.Duration     { return ar.now }
func (ar *Arena) Width() float64         { return ar.cfg.Width }
func (ar *Arena) Height() float64        { return ar.cfg.Height }
func (ar *Arena) Exclusion() Box         { return ar.cfg.Exclusion }
func (ar *Arena) Agents() []*Agent       { return ar.agents }
func (ar *Arena) Obstacles() []*Obstacle { return ar.obstacles }

// SetRecorder routes simulation events to r; nil disables recording.
func (ar *Arena) SetRecorder(r EventRecorder) { ar.recorder = r }

// SetVerbose enables per-tick position events.
func (ar *Arena) SetVerbose(v bool) { ar.verbose = v }

func (ar *Arena) record(entity, category, key, value string, num float64) {
	if ar.recorder == nil {
		return
	}
	ar.recorder.Record(Event{
		Tick:     ar.tick,
		Entity:   entity,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   num,
	})
}

// Agent looks up a live agent by handle.
func (ar *Arena) Agent(id AgentID) *Agent {
	for _, a := range ar.agents {
		if a.id == id {
			return a
		}
	}
	return nil
}

// Obstacle looks up a live obstacle by handle.
func (ar *Arena) Obstacle(id ObstacleID) *Obstacle {
	for _, o := range ar.obstacles {
		if o.id == id {
			return o
		}
	}
	return nil
}

// --- Roster ---

// NextRobotSpawn is where the next dialog-added robot is placed.
func (ar *Arena) NextRobotSpawn() (float64, float64) {
	n := float64(ar.robotCount)
	return spawnOrigin + n*spawnStep, spawnOrigin + n*spawnStep
}

// NextObstacleSpawn is where the next dialog-added obstacle is placed.
// Robots and obstacles step along the diagonal independently.
func (ar *Arena) NextObstacleSpawn() (float64, float64) {
	n := float64(ar.obstacleCount)
	return spawnOrigin + n*spawnStep, spawnOrigin + n*spawnStep
}

// AddAgent creates an agent with a random heading and a speed in [2,4).
// An empty name becomes "Robot N".
func (ar *Arena) AddAgent(name string, kind AgentKind, x, y, size float64) (*Agent, error) {
	if kind < 0 || kind >= agentKindCount {
		return nil, errors.Wrapf(ErrUnknownKind, "agent kind %d", int(kind))
	}
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "agent size %v", size)
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = fmt.Sprintf("Robot %d", ar.robotCount+1)
	}
	ar.nextAgentID++
	a := newAgent(ar.nextAgentID, kind, name, x, y, size, ar.rng)
	ar.agents = append(ar.agents, a)
	ar.robotCount++
	ar.record(a.name, "roster", "add", kind.Tag(), size)
	return a, nil
}

// AddObstacle places a new obstacle and indexes it.
func (ar *Arena) AddObstacle(kind ObstacleKind, x, y, size float64) (*Obstacle, error) {
	if kind < 0 || kind >= obstacleKindCount {
		return nil, errors.Wrapf(ErrUnknownKind, "obstacle kind %d", int(kind))
	}
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "obstacle size %v", size)
	}
	ar.nextObstacleID++
	o := &Obstacle{id: ar.nextObstacleID, kind: kind, x: x, y: y, size: size}
	ar.obstacles = append(ar.obstacles, o)
	ar.index.insert(o)
	ar.obstacleCount++
	ar.record(o.Name(), "roster", "add", kind.Tag(), size)
	return o, nil
}

// RemoveAgent removes the agent matching sel (1-based index or exact name).
func (ar *Arena) RemoveAgent(sel string) (*Agent, error) {
	a, err := ar.FindAgent(sel)
	if err != nil {
		return nil, err
	}
	ar.removeAgent(a, "remove")
	return a, nil
}

// RemoveObstacle removes the obstacle matching sel (1-based index or exact name).
func (ar *Arena) RemoveObstacle(sel string) (*Obstacle, error) {
	o, err := ar.FindObstacle(sel)
	if err != nil {
		return nil, err
	}
	ar.removeObstacle(o, "remove")
	return o, nil
}

func (ar *Arena) removeAgent(a *Agent, key string) {
	i := slices.Index(ar.agents, a)
	if i < 0 {
		return
	}
	ar.agents = slices.Delete(ar.agents, i, i+1)
	a.removed = true
	ar.record(a.name, "roster", key, a.kind.Tag(), 0)
}

func (ar *Arena) removeObstacle(o *Obstacle, key string) {
	i := slices.Index(ar.obstacles, o)
	if i < 0 {
		return
	}
	ar.index.remove(o)
	ar.obstacles = slices.Delete(ar.obstacles, i, i+1)
	o.removed = true
	ar.record(o.Name(), "roster", key, o.kind.Tag(), 0)
}

// DragAgent moves an agent's top-left corner to (x,y). Heading and speed
// are kept.
func (ar *Arena) DragAgent(sel string, x, y float64) (*Agent, error) {
	a, err := ar.FindAgent(sel)
	if err != nil {
		return nil, err
	}
	a.x, a.y = x, y
	return a, nil
}

// DragObstacle repositions an obstacle.
func (ar *Arena) DragObstacle(sel string, x, y float64) (*Obstacle, error) {
	o, err := ar.FindObstacle(sel)
	if err != nil {
		return nil, err
	}
	ar.index.remove(o)
	o.x, o.y = x, y
	ar.index.insert(o)
	return o, nil
}

// MoveAgent applies one of the four discrete user commands.
func (ar *Arena) MoveAgent(sel string, d Direction) (*Agent, error) {
	a, err := ar.FindAgent(sel)
	if err != nil {
		return nil, err
	}
	if a.kind != KindUserControlled {
		return nil, errors.Wrapf(ErrNotControllable, "%s is a %s", a.name, a.kind)
	}
	a.step(d)
	return a, nil
}

// --- State machine ---

// Play starts or resumes ticking.
func (ar *Arena) Play() {
	ar.setState(StateRunning)
}

// Pause suspends ticking; entity state is kept as last computed.
func (ar *Arena) Pause() {
	if ar.state == StateRunning {
		ar.setState(StatePaused)
	}
}

// Reset clears every entity, pending effect and counter and returns to Idle.
func (ar *Arena) Reset() {
	for _, a := range ar.agents {
		a.removed = true
	}
	for _, o := range ar.obstacles {
		o.removed = true
	}
	ar.agents = nil
	ar.obstacles = nil
	ar.index = newObstacleIndex()
	ar.effects = nil
	ar.robotCount = 0
	ar.obstacleCount = 0
	ar.tick = 0
	ar.now = 0
	ar.record("--", "roster", "reset", "", 0)
	ar.setState(StateIdle)
}

func (ar *Arena) setState(s State) {
	if ar.state == s {
		return
	}
	ar.record("--", "state", "change", fmt.Sprintf("%s → %s", ar.state, s), 0)
	ar.state = s
}

// --- Tick ---

// Tick advances the simulation by one step if the arena is running.
// dt only moves the simulated clock; speeds are already per tick.
func (ar *Arena) Tick(dt time.Duration) bool {
	if ar.state != StateRunning {
		return false
	}
	ar.tick++
	ar.now += dt
	ar.drainEffects()

	// Removals during the pass mark agents removed; the frozen copy keeps
	// iteration stable and removed agents are skipped.
	frozen := slices.Clone(ar.agents)
	for _, a := range frozen {
		if a.removed {
			continue
		}
		a.Advance()
		ar.applyWalls(a)
		ar.applyExclusion(a)
		ar.interact(a)
		if ar.verbose {
			ar.record(a.name, "move", "position", fmt.Sprintf("(%.1f,%.1f)", a.x, a.y), a.speed)
		}
	}
	return true
}

// applyWalls bounces off the world edges; both axes may fire.
func (ar *Arena) applyWalls(a *Agent) {
	if a.x <= 0 || a.x+a.size >= ar.cfg.Width {
		a.BounceHorizontal()
		ar.record(a.name, "wall", "bounce_horizontal", fmt.Sprintf("x=%.1f", a.x), a.heading)
	}
	if a.y <= 0 || a.y+a.size >= ar.cfg.Height {
		a.BounceVertical()
		ar.record(a.name, "wall", "bounce_vertical", fmt.Sprintf("y=%.1f", a.y), a.heading)
	}
}

// applyExclusion treats the info-display rectangle as a wall. Only the
// first matching side (left, right, top, bottom) is acted on, so corner
// entries can be classified by the wrong side.
func (ar *Arena) applyExclusion(a *Agent) {
	ex := ar.cfg.Exclusion
	if ex.W <= 0 || ex.H <= 0 {
		return
	}
	b := a.Box()
	if !Intersects(b, ex) {
		return
	}
	var side string
	switch {
	case b.MaxX() > ex.X && b.X < ex.X:
		a.BounceHorizontal()
		a.x -= exclusionPush
		side = "left"
	case b.X < ex.MaxX() && b.MaxX() > ex.MaxX():
		a.BounceHorizontal()
		a.x += exclusionPush
		side = "right"
	case b.MaxY() > ex.Y && b.Y < ex.Y:
		a.BounceVertical()
		a.y -= exclusionPush
		side = "top"
	case b.Y < ex.MaxY() && b.MaxY() > ex.MaxY():
		a.BounceVertical()
		a.y += exclusionPush
		side = "bottom"
	default:
		return
	}
	ar.record(a.name, "exclusion", "bounce", side, a.heading)
}

// interact dispatches the kind-specific obstacle/agent interaction.
func (ar *Arena) interact(a *Agent) {
	switch a.kind {
	case KindSensor:
		ar.senseBeam(a)
	case KindWhisker:
		ar.senseWhiskers(a)
	case KindPredator:
		ar.consume(a)
	default:
		for _, o := range ar.index.query(a.Box()) {
			o.respond(ar, a)
			ar.record(a.name, "obstacle", strings.ToLower(o.Name()), fmt.Sprintf("speed=%.2f", a.speed), a.speed)
		}
	}
}

// consume removes every other agent and every obstacle the predator
// overlaps. Handles are collected first, then removed by the arena.
func (ar *Arena) consume(p *Agent) {
	box := p.Box()
	var prey []*Agent
	for _, other := range ar.agents {
		if other == p || other.removed {
			continue
		}
		if Intersects(box, other.Box()) {
			prey = append(prey, other)
		}
	}
	food := ar.index.query(box)
	for _, a := range prey {
		ar.removeAgent(a, "consumed")
		ar.record(p.name, "predator", "consume_agent", a.name, 0)
	}
	for _, o := range food {
		ar.removeObstacle(o, "consumed")
		ar.record(p.name, "predator", "consume_obstacle", o.Name(), 0)
	}
}

// --- Demo roster ---

// PopulateDemo adds one robot and one obstacle of every kind.
func (ar *Arena) PopulateDemo() error {
	robots := []struct {
		name string
		kind AgentKind
		x, y float64
		size float64
	}{
		{"Default Robot", KindDefault, 1000, 100, 90},
		{"Sensor Robot", KindSensor, 1000, 300, 80},
		{"User Controlled", KindUserControlled, 1000, 500, 100},
		{"Predator Robot", KindPredator, 1000, 700, 70},
		{"Whisker Robot", KindWhisker, 400, 500, 75},
	}
	for _, r := range robots {
		if _, err := ar.AddAgent(r.name, r.kind, r.x, r.y, r.size); err != nil {
			return err
		}
	}
	obstacles := []struct {
		kind ObstacleKind
		x, y float64
	}{
		{KindLamp, 550, 650},
		{KindRock, 250, 250},
		{KindLake, 750, 150},
	}
	for _, o := range obstacles {
		if _, err := ar.AddObstacle(o.kind, o.x, o.y, 75); err != nil {
			return err
		}
	}
	return nil
}
