package arena

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dumpLog prints the full SimLog to t.Log so it appears in `go test -v` output.
func dumpLog(t *testing.T, ts *TestSim) {
	t.Helper()
	entries := ts.SimLog.Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, e := range entries {
		t.Log(e.String())
	}
}

func angularDiff(a, b float64) float64 {
	return math.Mod(a-b+540, 360) - 180
}

// --- Walls and exclusion ---

func TestScenario_WallBounceNearRightEdge(t *testing.T) {
	ts := NewTestSim(
		WithWorldSize(1000, 1000),
		WithAgent("Edge", KindDefault, 995, 500, 50, 10, 3),
	)
	ts.RunTicks(1)
	dumpLog(t, ts)

	a := ts.AgentNamed("Edge")
	require.NotNil(t, a)
	assert.InDelta(t, 170, a.Heading(), 1e-9, "x+size>=width must bounce horizontally")
	assert.Equal(t, 1, ts.SimLog.CountCategory("wall", "bounce_horizontal"))
	assert.Equal(t, 0, ts.SimLog.CountCategory("wall", "bounce_vertical"))
}

func TestScenario_WallBounceCornerBothAxes(t *testing.T) {
	ts := NewTestSim(
		WithWorldSize(1000, 1000),
		WithAgent("Corner", KindDefault, 1, 1, 50, 225, 2),
	)
	ts.RunTicks(1)

	a := ts.AgentNamed("Corner")
	// 225 -> H: 315 -> V: 45
	assert.InDelta(t, 45, a.Heading(), 1e-9)
	assert.Equal(t, 1, ts.SimLog.CountCategory("wall", "bounce_horizontal"))
	assert.Equal(t, 1, ts.SimLog.CountCategory("wall", "bounce_vertical"))
}

func TestScenario_ExclusionLeftEntry(t *testing.T) {
	ts := NewTestSim(
		WithExclusion(Box{X: 300, Y: 300, W: 200, H: 200}),
		WithAgent("L", KindDefault, 250, 350, 50, 0, 3),
	)
	ts.RunTicks(1)
	dumpLog(t, ts)

	a := ts.AgentNamed("L")
	x, _ := a.Position()
	assert.InDelta(t, 180, a.Heading(), 1e-9)
	assert.InDelta(t, 248, x, 1e-9, "pushed out 5 units to the left")
	assert.True(t, ts.SimLog.HasEntry("exclusion", "bounce", "left"))
}

func TestScenario_ExclusionTopEntry(t *testing.T) {
	ts := NewTestSim(
		WithExclusion(Box{X: 300, Y: 300, W: 200, H: 200}),
		WithAgent("T", KindDefault, 350, 249, 50, 90, 3),
	)
	ts.RunTicks(1)

	a := ts.AgentNamed("T")
	_, y := a.Position()
	assert.InDelta(t, 270, a.Heading(), 1e-9)
	assert.InDelta(t, 247, y, 1e-9)
	assert.True(t, ts.SimLog.HasEntry("exclusion", "bounce", "top"))
}

func TestScenario_ExclusionCornerResolvesLeftFirst(t *testing.T) {
	// Entering diagonally over the top-left corner: the left check wins.
	ts := NewTestSim(
		WithExclusion(Box{X: 300, Y: 300, W: 200, H: 200}),
		WithAgent("C", KindDefault, 260, 255, 50, 45, 2),
	)
	ts.RunTicks(1)
	assert.True(t, ts.SimLog.HasEntry("exclusion", "bounce", "left"))
	assert.False(t, ts.SimLog.HasEntry("exclusion", "bounce", "top"))
}

// --- Obstacle policies ---

func TestScenario_RockStopsThenResumes(t *testing.T) {
	ts := NewTestSim(
		WithAgent("R", KindDefault, 100, 100, 50, 0, 2),
		WithObstacle(KindRock, 140, 100, 50),
	)
	ts.RunTicks(1)
	a := ts.AgentNamed("R")
	require.Equal(t, 0.0, a.Speed(), "rock stops the agent immediately")

	_, err := ts.Arena.RemoveObstacle("Rock")
	require.NoError(t, err)

	// Hit at t=50ms; resume due at 3.05s.
	ts.RunTicks(59)
	assert.Equal(t, 3*time.Second, ts.Arena.Now())
	assert.Equal(t, 0.0, a.Speed(), "still stopped before 3s elapsed")

	ts.RunTicks(1)
	dumpLog(t, ts)
	assert.Equal(t, 5.0, a.Speed(), "speed is 5 exactly 3s after the hit")
	assert.Equal(t, 0, ts.Arena.PendingEffects())
}

func TestScenario_RockBounceStillTurnsStoppedAgent(t *testing.T) {
	ts := NewTestSim(
		WithWorldSize(1000, 1000),
		WithAgent("R", KindDefault, 951, 500, 50, 0, 1),
		WithObstacle(KindRock, 960, 500, 20),
	)
	ts.RunTicks(1)
	a := ts.AgentNamed("R")
	assert.Equal(t, 0.0, a.Speed())
	assert.InDelta(t, 180, a.Heading(), 1e-9)
}

func TestScenario_LakeBouncesAndSlows(t *testing.T) {
	ts := NewTestSim(
		WithAgent("K", KindDefault, 100, 100, 50, 0, 4),
		WithObstacle(KindLake, 140, 100, 50),
	)
	ts.RunTicks(1)
	a := ts.AgentNamed("K")
	assert.InDelta(t, 180, a.Heading(), 1e-9, "both bounces reverse the heading")
	assert.Equal(t, 2.0, a.Speed(), "lake halves speed")

	_, err := ts.Arena.RemoveObstacle("1")
	require.NoError(t, err)
	ts.RunTicks(39)
	assert.Equal(t, 2.0, a.Speed())
	ts.RunTicks(1)
	assert.Equal(t, 3.0, a.Speed(), "restored to 3 after 2s")
}

func TestScenario_LampIsCosmetic(t *testing.T) {
	ts := NewTestSim(
		WithAgent("P", KindDefault, 100, 100, 50, 0, 2),
		WithObstacle(KindLamp, 140, 100, 50),
	)
	ts.RunTicks(1)
	a := ts.AgentNamed("P")
	lamp := ts.Arena.Obstacles()[0]
	assert.Equal(t, 90.0, lamp.Rotation(), "lamp falls over")
	assert.Equal(t, 2.0, a.Speed())
	assert.InDelta(t, 0, a.Heading(), 1e-9)

	_, err := ts.Arena.RemoveAgent("P")
	require.NoError(t, err)
	ts.RunFor(5 * time.Second)
	assert.Equal(t, 0.0, lamp.Rotation(), "lamp stands back up after 5s")
}

func TestScenario_TimersAreNotCoalesced(t *testing.T) {
	ts := NewTestSim(
		WithAgent("R", KindDefault, 100, 100, 50, 0, 2),
		WithObstacle(KindRock, 140, 100, 50),
	)
	ts.RunTicks(3)
	assert.Equal(t, 3, ts.Arena.PendingEffects(), "each overlapping tick schedules its own resume")
}

func TestScenario_DeferredEffectOnRemovedAgentIsNoop(t *testing.T) {
	ts := NewTestSim(
		WithAgent("Gone", KindDefault, 100, 100, 50, 0, 2),
		WithObstacle(KindRock, 140, 100, 50),
	)
	ts.RunTicks(1)
	gone := ts.AgentNamed("Gone")
	_, err := ts.Arena.RemoveAgent("Gone")
	require.NoError(t, err)

	require.NotPanics(t, func() { ts.RunFor(4 * time.Second) })
	assert.Equal(t, 0.0, gone.Speed(), "removed agent is not touched")
	assert.True(t, ts.SimLog.HasEntry("effect", "rock_resume", "target gone"))
}

// --- Sensors ---

func TestScenario_SensorBeamAvoidsWithDebounce(t *testing.T) {
	ts := NewTestSim(
		WithAgent("S", KindSensor, 100, 100, 50, 0, 2),
		WithObstacle(KindRock, 200, 100, 50),
	)
	ts.RunTicks(1)
	dumpLog(t, ts)

	s := ts.AgentNamed("S")
	assert.Equal(t, 1, ts.SimLog.CountCategory("sensor", "avoid"))
	assert.True(t, s.Reacting())
	assert.LessOrEqual(t, math.Abs(angularDiff(s.Heading(), 0)), turnJitterDeg+1e-9)
	assert.Equal(t, 2.0, s.Speed(), "sensor robots skip the rock policy")

	ts.RunTicks(1)
	assert.Equal(t, 1, ts.SimLog.CountCategory("sensor", "avoid"), "debounced")

	_, err := ts.Arena.RemoveObstacle("Rock")
	require.NoError(t, err)
	ts.RunFor(sensorDebounce)
	assert.False(t, s.Reacting(), "debounce window cleared")
}

func TestScenario_SensorIgnoresOtherAgents(t *testing.T) {
	ts := NewTestSim(
		WithAgent("S", KindSensor, 100, 100, 50, 0, 2),
		WithAgent("D", KindDefault, 180, 100, 50, 0, 0),
	)
	ts.RunTicks(1)
	assert.Equal(t, 0, ts.SimLog.CountCategory("sensor", "avoid"))
}

func TestScenario_SensorBodyInsideRockKeepsSpeed(t *testing.T) {
	ts := NewTestSim(
		WithAgent("S", KindSensor, 100, 100, 50, 0, 2),
		WithObstacle(KindRock, 90, 90, 80),
	)
	ts.RunTicks(1)
	assert.Equal(t, 2.0, ts.AgentNamed("S").Speed())
	assert.Equal(t, 0, ts.SimLog.CountCategory("obstacle", "rock"))
}

func TestScenario_WhiskerFrontTurnsRight(t *testing.T) {
	ts := NewTestSim(
		WithAgent("W", KindWhisker, 100, 100, 50, 0, 2),
		WithObstacle(KindRock, 165, 110, 30),
	)
	ts.RunTicks(1)
	dumpLog(t, ts)

	w := ts.AgentNamed("W")
	assert.InDelta(t, whiskerFrontTurn, w.Heading(), 1e-9)
	assert.Equal(t, 1, ts.SimLog.CountCategory("whisker", "avoid_front"))
	assert.Equal(t, 2.0, w.Speed())
}

func TestScenario_WhiskerRightTurnsLeft(t *testing.T) {
	ts := NewTestSim(
		WithAgent("W", KindWhisker, 100, 100, 50, 0, 2),
		WithObstacle(KindRock, 155, 142, 12),
	)
	ts.RunTicks(1)

	w := ts.AgentNamed("W")
	assert.InDelta(t, 360-whiskerSideTurn, w.Heading(), 1e-9)
	assert.Equal(t, 1, ts.SimLog.CountCategory("whisker", "avoid_right"))
}

func TestWhiskerSegments(t *testing.T) {
	a := testAgent(KindWhisker)
	a.SetHeading(0)
	front := a.WhiskerSegment(WhiskerFront)
	assert.InDelta(t, 125, front[0].X(), 1e-9)
	assert.InDelta(t, 175, front[1].X(), 1e-9)
	assert.InDelta(t, 125, front[1].Y(), 1e-9)

	left := a.WhiskerSegment(WhiskerLeft)
	assert.Less(t, left[1].Y(), 125.0, "left whisker points up-screen when heading east")
	right := a.WhiskerSegment(WhiskerRight)
	assert.Greater(t, right[1].Y(), 125.0)
}

func TestBeamBoxAhead(t *testing.T) {
	a := testAgent(KindSensor)
	a.SetHeading(0)
	b := a.BeamBox()
	assert.InDelta(t, 150, b.X, 1e-9)
	assert.InDelta(t, 60, b.W, 1e-9)
	assert.InDelta(t, 110, b.Y, 1e-9)
	assert.InDelta(t, 30, b.H, 1e-9)
}

// --- Predator ---

func TestScenario_PredatorConsumesAllOverlapsInOneTick(t *testing.T) {
	ts := NewTestSim(
		WithAgent("Pred", KindPredator, 100, 100, 100, 0, 1),
		WithAgent("A", KindDefault, 150, 120, 30, 0, 0),
		WithAgent("B", KindDefault, 120, 160, 30, 0, 0),
		WithObstacle(KindRock, 130, 130, 20),
		WithAgent("Far", KindDefault, 600, 600, 30, 0, 0),
	)
	ts.RunTicks(1)
	dumpLog(t, ts)

	assert.Equal(t, 2, ts.SimLog.CountCategory("predator", "consume_agent"))
	assert.Equal(t, 1, ts.SimLog.CountCategory("predator", "consume_obstacle"))
	assert.Len(t, ts.Arena.Agents(), 2)
	assert.Empty(t, ts.Arena.Obstacles())
	assert.NotNil(t, ts.AgentNamed("Far"))
	assert.Nil(t, ts.AgentNamed("A"))
}

func TestScenario_ConsumedAgentSkipsItsTurn(t *testing.T) {
	ts := NewTestSim(
		WithAgent("Pred", KindPredator, 100, 100, 100, 0, 1),
		WithAgent("Prey", KindDefault, 150, 150, 30, 0, 3),
	)
	prey := ts.AgentNamed("Prey")
	ts.RunTicks(1)

	x, y := prey.Position()
	assert.True(t, prey.Removed())
	assert.Equal(t, 150.0, x, "removed before its own update")
	assert.Equal(t, 150.0, y)
}

func TestScenario_LaterPredatorStillConsumesSameTick(t *testing.T) {
	ts := NewTestSim(
		WithAgent("Prey", KindDefault, 150, 150, 30, 0, 0),
		WithAgent("Pred", KindPredator, 100, 100, 100, 0, 1),
	)
	ts.RunTicks(1)
	assert.Len(t, ts.Arena.Agents(), 1)
	assert.Equal(t, "Pred", ts.Arena.Agents()[0].Name())
}

func TestScenario_PredatorIgnoresObstaclePolicy(t *testing.T) {
	ts := NewTestSim(
		WithAgent("Pred", KindPredator, 100, 100, 50, 0, 2),
		WithObstacle(KindRock, 140, 100, 50),
	)
	ts.RunTicks(1)
	assert.Equal(t, 2.0, ts.AgentNamed("Pred").Speed())
	assert.Empty(t, ts.Arena.Obstacles())
}

// --- Roster, selectors, commands ---

func TestAddAgent_AutoNameAndValidation(t *testing.T) {
	ar := New(DefaultConfig())
	a, err := ar.AddAgent("", KindDefault, 0, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, "Robot 1", a.Name())
	b, err := ar.AddAgent("  ", KindSensor, 0, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, "Robot 2", b.Name())

	_, err = ar.AddAgent("x", KindDefault, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = ar.AddAgent("a,b", KindDefault, 0, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = ar.AddAgent("x", AgentKind(99), 0, 0, 10)
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = ar.AddObstacle(ObstacleKind(-1), 0, 0, 10)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSelectors(t *testing.T) {
	ar := New(DefaultConfig())
	for _, n := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := ar.AddAgent(n, KindDefault, 0, 0, 10)
		require.NoError(t, err)
	}
	removed, err := ar.RemoveAgent("2")
	require.NoError(t, err)
	assert.Equal(t, "Beta", removed.Name())
	assert.True(t, removed.Removed())

	removed, err = ar.RemoveAgent("Gamma")
	require.NoError(t, err)
	assert.Equal(t, "Gamma", removed.Name())

	_, err = ar.RemoveAgent("gamma")
	assert.ErrorIs(t, err, ErrNotFound, "names match exactly")
	_, err = ar.RemoveAgent("0")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ar.RemoveAgent("5")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, ar.Agents(), 1)

	_, err = ar.AddObstacle(KindRock, 0, 0, 10)
	require.NoError(t, err)
	_, err = ar.AddObstacle(KindLake, 50, 50, 10)
	require.NoError(t, err)
	o, err := ar.RemoveObstacle("Lake")
	require.NoError(t, err)
	assert.Equal(t, KindLake, o.Kind())
	_, err = ar.RemoveObstacle("Lamp")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveAgent_UserControlledOnly(t *testing.T) {
	ts := NewTestSim(
		WithAgent("U", KindUserControlled, 100, 100, 50, 0, 3),
		WithAgent("D", KindDefault, 300, 300, 50, 0, 3),
	)
	ar := ts.Arena
	cases := []struct {
		d      Direction
		dx, dy float64
	}{
		{MoveUp, 0, -3}, {MoveDown, 0, 3}, {MoveLeft, -3, 0}, {MoveRight, 3, 0},
	}
	for _, c := range cases {
		u := ts.AgentNamed("U")
		x0, y0 := u.Position()
		_, err := ar.MoveAgent("U", c.d)
		require.NoError(t, err, c.d.String())
		x1, y1 := u.Position()
		assert.InDelta(t, c.dx, x1-x0, 1e-9, c.d.String())
		assert.InDelta(t, c.dy, y1-y0, 1e-9, c.d.String())
	}
	_, err := ar.MoveAgent("D", MoveUp)
	assert.ErrorIs(t, err, ErrNotControllable)
}

func TestDragObstacleReindexes(t *testing.T) {
	ts := NewTestSim(
		WithAgent("R", KindDefault, 500, 500, 50, 0, 1),
		WithObstacle(KindRock, 100, 100, 50),
	)
	_, err := ts.Arena.DragObstacle("Rock", 530, 500)
	require.NoError(t, err)
	ts.RunTicks(1)
	assert.Equal(t, 0.0, ts.AgentNamed("R").Speed(), "dragged rock is found at its new spot")
}

func TestDragAgent(t *testing.T) {
	ar := New(DefaultConfig())
	_, err := ar.AddAgent("A", KindDefault, 0, 0, 10)
	require.NoError(t, err)
	a, err := ar.DragAgent("A", 400, 300)
	require.NoError(t, err)
	x, y := a.Position()
	assert.Equal(t, 400.0, x)
	assert.Equal(t, 300.0, y)
}

func TestNextSpawn(t *testing.T) {
	ar := New(DefaultConfig())
	x, y := ar.NextRobotSpawn()
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 100.0, y)
	_, err := ar.AddAgent("", KindDefault, x, y, 50)
	require.NoError(t, err)
	x, y = ar.NextRobotSpawn()
	assert.Equal(t, 150.0, x)
	assert.Equal(t, 150.0, y)

	x, y = ar.NextObstacleSpawn()
	assert.Equal(t, 100.0, x, "obstacles count separately")
	assert.Equal(t, 100.0, y)
}

// --- State machine ---

func TestStateMachine(t *testing.T) {
	sl := NewSimLog()
	cfg := DefaultConfig()
	cfg.Seed = 5
	ar := New(cfg)
	ar.SetRecorder(sl)
	a, err := ar.AddAgent("A", KindDefault, 500, 400, 50)
	require.NoError(t, err)

	assert.Equal(t, StateIdle, ar.State())
	assert.False(t, ar.Tick(cfg.TickDuration), "idle arena does not tick")
	assert.Equal(t, 0, ar.TickCount())

	ar.Play()
	assert.Equal(t, StateRunning, ar.State())
	assert.True(t, ar.Tick(cfg.TickDuration))

	ar.Pause()
	assert.Equal(t, StatePaused, ar.State())
	x, y := a.Position()
	h := a.Heading()
	assert.False(t, ar.Tick(cfg.TickDuration))
	x2, y2 := a.Position()
	assert.Equal(t, x, x2)
	assert.Equal(t, y, y2)
	assert.Equal(t, h, a.Heading())

	ar.Play()
	assert.True(t, ar.Tick(cfg.TickDuration))
	assert.Equal(t, 2, ar.TickCount())

	ar.Reset()
	assert.Equal(t, StateIdle, ar.State())
	assert.Empty(t, ar.Agents())
	assert.Equal(t, 0, ar.TickCount())
	assert.Equal(t, time.Duration(0), ar.Now())
	assert.True(t, a.Removed())
	b, err := ar.AddAgent("", KindDefault, 0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "Robot 1", b.Name(), "counters zeroed")

	assert.True(t, sl.HasEntry("state", "change", "idle → running"))
	assert.True(t, sl.HasEntry("state", "change", "running → paused"))
}

// --- Snapshot ---

func TestSnapshotFormat(t *testing.T) {
	ar := New(DefaultConfig())
	_, err := ar.AddAgent("Alpha", KindDefault, 10.5, 20.25, 50)
	require.NoError(t, err)
	_, err = ar.AddAgent("Beta", KindPredator, 1, 2.005, 70)
	require.NoError(t, err)

	lines := ar.Snapshot()
	require.Len(t, lines, 2)
	assert.Equal(t, "Name: Alpha, X: 10.50, Y: 20.25, Size: 50.00", lines[0])
	assert.Contains(t, lines[1], "Name: Beta, X: 1.00")
	assert.Equal(t, lines[0]+"\n"+lines[1]+"\n", ar.SnapshotText())

	r := ar.Roster()
	require.Len(t, r.Agents, 2)
	assert.Equal(t, "PredatorRobot", r.Agents[1].Kind)
}

func TestSnapshotIsFresh(t *testing.T) {
	ts := NewTestSim(WithAgent("M", KindDefault, 100, 100, 50, 0, 2))
	before := ts.Arena.Snapshot()[0]
	ts.RunTicks(1)
	after := ts.Arena.Snapshot()[0]
	assert.NotEqual(t, before, after)
	assert.Equal(t, "Name: M, X: 102.00, Y: 100.00, Size: 50.00", after)
}

// --- Demo + long run invariants ---

func TestScenario_DemoRosterLongRun(t *testing.T) {
	ts := NewTestSim(
		WithWorldSize(1200, 800),
		WithExclusion(Box{X: 20, Y: 20, W: 320, H: 160}),
		WithSeed(42),
		WithDemoRoster(),
	)
	require.Len(t, ts.Arena.Agents(), 5)
	require.Len(t, ts.Arena.Obstacles(), 3)

	ts.RunTicks(2000)
	t.Log(ts.SimLog.Summary(ts.Arena))

	for _, a := range ts.Arena.Agents() {
		assert.GreaterOrEqual(t, a.Speed(), 0.0)
		assert.GreaterOrEqual(t, a.Heading(), 0.0)
		assert.Less(t, a.Heading(), 360.0)
	}
	seen := map[AgentID]bool{}
	for _, a := range ts.Arena.Agents() {
		assert.False(t, seen[a.ID()], "agent listed twice")
		seen[a.ID()] = true
		assert.False(t, a.Removed())
	}
}

// --- Runner ---

func TestRunner_StepPublishes(t *testing.T) {
	ts := NewTestSim(WithAgent("A", KindDefault, 100, 100, 50, 0, 2))
	r := NewRunner(ts.Arena)
	ch, cancel := r.Subscribe()
	defer cancel()

	require.True(t, r.Step())
	select {
	case snap := <-ch:
		require.Len(t, snap, 1)
		assert.Contains(t, snap[0], "Name: A")
	default:
		t.Fatal("no snapshot published")
	}

	r.Do(func(a *Arena) { a.Pause() })
	assert.False(t, r.Step())
}

func TestRunner_RunUntilCancelled(t *testing.T) {
	ts := NewTestSim(WithAgent("A", KindDefault, 100, 100, 50, 0, 2))
	r := NewRunner(ts.Arena)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var ticks int
	r.Do(func(a *Arena) { ticks = a.TickCount() })
	assert.Greater(t, ticks, 0)
}
