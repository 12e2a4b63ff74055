package arena

import "time"

// TestSim is a headless arena harness for tests and the report CLI.
// It owns a SimLog and a deterministic seed.
type TestSim struct {
	Arena  *Arena
	SimLog *SimLog

	cfg     Config
	verbose bool
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra  simOptionKind = iota // world size, exclusion, seed, verbose
	simOptEntity                      // agents and obstacles, after the arena exists
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithWorldSize sets the playfield dimensions.
func WithWorldSize(w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.Width = w
		ts.cfg.Height = h
	}}
}

// WithExclusion sets the info-display rectangle; a zero box disables it.
func WithExclusion(b Box) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.Exclusion = b
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.Seed = seed
	}}
}

// WithVerbose enables per-tick position logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.verbose = v
	}}
}

// WithAgent adds a robot with a fixed heading and speed.
func WithAgent(name string, kind AgentKind, x, y, size, heading, speed float64) SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		a, err := ts.Arena.AddAgent(name, kind, x, y, size)
		if err != nil {
			panic(err)
		}
		a.SetHeading(heading)
		a.SetSpeed(speed)
	}}
}

// WithObstacle adds an obstacle.
func WithObstacle(kind ObstacleKind, x, y, size float64) SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		if _, err := ts.Arena.AddObstacle(kind, x, y, size); err != nil {
			panic(err)
		}
	}}
}

// WithDemoRoster adds the stock one-of-each roster.
func WithDemoRoster() SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		if err := ts.Arena.PopulateDemo(); err != nil {
			panic(err)
		}
	}}
}

// NewTestSim builds a running arena: infrastructure options first, then
// entities. The exclusion rectangle is off unless WithExclusion is given.
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		cfg: Config{
			Width:        1000,
			Height:       1000,
			TickDuration: 50 * time.Millisecond,
			Seed:         1,
		},
		SimLog: NewSimLog(),
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.Arena = New(ts.cfg)
	ts.Arena.SetRecorder(ts.SimLog)
	ts.Arena.SetVerbose(ts.verbose)
	for _, o := range opts {
		if o.kind == simOptEntity {
			o.fn(ts)
		}
	}
	ts.Arena.Play()
	return ts
}

// RunTicks advances the arena n ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.Arena.Tick(ts.cfg.TickDuration)
	}
}

// RunFor advances the arena by at least d of simulated time.
func (ts *TestSim) RunFor(d time.Duration) {
	target := ts.Arena.Now() + d
	for ts.Arena.Now() < target {
		if !ts.Arena.Tick(ts.cfg.TickDuration) {
			return
		}
	}
}

// RunUntil advances up to maxTicks, stopping early if predicate returns
// true. Returns the tick at which the predicate held, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.Arena.Tick(ts.cfg.TickDuration)
		if predicate(ts) {
			return ts.Arena.TickCount()
		}
	}
	return -1
}

// AgentNamed returns the live agent with the given name, or nil.
func (ts *TestSim) AgentNamed(name string) *Agent {
	for _, a := range ts.Arena.Agents() {
		if a.Name() == name {
			return a
		}
	}
	return nil
}
