package arena

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAgent(kind AgentKind) *Agent {
	rng := rand.New(rand.NewSource(7)) // #nosec G404 -- test
	return newAgent(1, kind, "T", 100, 100, 50, rng)
}

func TestIntersects(t *testing.T) {
	a := Box{X: 0, Y: 0, W: 10, H: 10}
	assert.True(t, Intersects(a, Box{X: 5, Y: 5, W: 10, H: 10}), "overlap")
	assert.False(t, Intersects(a, Box{X: 10, Y: 0, W: 10, H: 10}), "touching right edge")
	assert.False(t, Intersects(a, Box{X: 0, Y: 10, W: 10, H: 10}), "touching bottom edge")
	assert.False(t, Intersects(a, Box{X: 20, Y: 20, W: 5, H: 5}), "disjoint")
	assert.True(t, Intersects(a, Box{X: 2, Y: 2, W: 1, H: 1}), "contained")
	assert.True(t, a.Intersects(Box{X: -5, Y: -5, W: 6, H: 6}))
}

func TestNormalizeHeading(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		359:  359,
		360:  0,
		370:  10,
		-10:  350,
		-370: 350,
		720:  0,
	}
	for in, want := range cases {
		assert.InDelta(t, want, NormalizeHeading(in), 1e-9, "normalize(%v)", in)
	}
	got := NormalizeHeading(-1e-15)
	assert.True(t, got >= 0 && got < 360, "got %v", got)
}

func TestBounceHorizontal_Involution(t *testing.T) {
	a := testAgent(KindDefault)
	for h := 0.0; h < 360; h += 7.5 {
		a.SetHeading(h)
		a.BounceHorizontal()
		a.BounceHorizontal()
		assert.InDelta(t, NormalizeHeading(h), a.Heading(), 1e-9, "heading %v", h)
	}
}

func TestBounceVertical_Involution(t *testing.T) {
	a := testAgent(KindDefault)
	for h := 0.0; h < 360; h += 11 {
		a.SetHeading(h)
		a.BounceVertical()
		a.BounceVertical()
		assert.InDelta(t, NormalizeHeading(h), a.Heading(), 1e-9, "heading %v", h)
	}
}

func TestBounce_Values(t *testing.T) {
	a := testAgent(KindDefault)
	a.SetHeading(10)
	a.BounceHorizontal()
	assert.InDelta(t, 170, a.Heading(), 1e-9)
	a.SetHeading(10)
	a.BounceVertical()
	assert.InDelta(t, 350, a.Heading(), 1e-9)
	a.SetHeading(200)
	a.BounceHorizontal()
	assert.InDelta(t, 340, a.Heading(), 1e-9)
}

func TestSetSpeed_NeverNegative(t *testing.T) {
	a := testAgent(KindDefault)
	for _, v := range []float64{3, -1, 0, -1000, 2.5, math.Inf(-1)} {
		a.SetSpeed(v)
		assert.GreaterOrEqual(t, a.Speed(), 0.0, "after SetSpeed(%v)", v)
	}
	a.SetSpeed(-3)
	assert.Equal(t, 0.0, a.Speed())
}

func TestNewAgent_InitialMotion(t *testing.T) {
	rng := rand.New(rand.NewSource(3)) // #nosec G404 -- test
	for i := 0; i < 100; i++ {
		a := newAgent(AgentID(i), KindDefault, "x", 0, 0, 10, rng)
		require.GreaterOrEqual(t, a.Speed(), minInitialSpeed)
		require.Less(t, a.Speed(), maxInitialSpeed)
		require.GreaterOrEqual(t, a.Heading(), 0.0)
		require.Less(t, a.Heading(), 360.0)
	}
}

func TestAdvance(t *testing.T) {
	a := testAgent(KindDefault)
	a.SetHeading(0)
	a.SetSpeed(3)
	a.Advance()
	x, y := a.Position()
	assert.InDelta(t, 103, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)

	a.SetHeading(90)
	a.Advance()
	x, y = a.Position()
	assert.InDelta(t, 103, x, 1e-9)
	assert.InDelta(t, 103, y, 1e-9)
}

func TestChangeDirection_WithinJitter(t *testing.T) {
	a := testAgent(KindDefault)
	rng := rand.New(rand.NewSource(11)) // #nosec G404 -- test
	for i := 0; i < 200; i++ {
		a.SetHeading(5)
		a.ChangeDirection(rng)
		diff := math.Mod(a.Heading()-5+540, 360) - 180
		assert.LessOrEqual(t, math.Abs(diff), turnJitterDeg+1e-9)
		assert.Less(t, a.Heading(), 360.0)
	}
}

func TestParseKinds(t *testing.T) {
	for _, k := range AgentKinds {
		got, err := ParseAgentKind(k.Tag())
		require.NoError(t, err)
		assert.Equal(t, k, got)
		got, err = ParseAgentKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	for _, k := range ObstacleKinds {
		got, err := ParseObstacleKind(k.Tag())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseAgentKind("RockObstacle")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = ParseObstacleKind("Tree")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSetName(t *testing.T) {
	a := testAgent(KindDefault)
	require.NoError(t, a.SetName("  Rover  "))
	assert.Equal(t, "Rover", a.Name())

	for _, bad := range []string{"a,b", "line\nbreak", "cr\r", "   "} {
		err := a.SetName(bad)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", bad)
		assert.Equal(t, "Rover", a.Name())
	}
}
