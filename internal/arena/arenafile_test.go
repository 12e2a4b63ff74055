package arena

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave_Format(t *testing.T) {
	ar := New(DefaultConfig())
	_, err := ar.AddAgent("Zed", KindSensor, 12.5, 40, 80)
	require.NoError(t, err)
	_, err = ar.AddAgent("Rex", KindPredator, 600, 700, 70)
	require.NoError(t, err)
	_, err = ar.AddObstacle(KindRock, 250, 250, 75)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ar.Save(&buf))
	want := "Robots\n" +
		"SensorRobot,Zed,12.5,40\n" +
		"PredatorRobot,Rex,600,700\n" +
		"Obstacles\n" +
		"RockObstacle,250,250,75\n"
	assert.Equal(t, want, buf.String())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	src := New(DefaultConfig())
	require.NoError(t, src.PopulateDemo())
	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := New(DefaultConfig())
	_, err := dst.AddAgent("Stale", KindDefault, 1, 1, 10)
	require.NoError(t, err)
	require.NoError(t, dst.Load(strings.NewReader(buf.String())))

	require.Len(t, dst.Agents(), len(src.Agents()))
	require.Len(t, dst.Obstacles(), len(src.Obstacles()))
	for i, a := range dst.Agents() {
		want := src.Agents()[i]
		assert.Equal(t, want.Kind(), a.Kind())
		assert.Equal(t, want.Name(), a.Name())
		wx, wy := want.Position()
		x, y := a.Position()
		assert.Equal(t, wx, x)
		assert.Equal(t, wy, y)
		assert.Equal(t, loadedAgentSize, a.Size(), "robot size is not persisted")
	}
	for i, o := range dst.Obstacles() {
		want := src.Obstacles()[i]
		assert.Equal(t, want.Kind(), o.Kind())
		assert.Equal(t, want.Size(), o.Size())
	}
	assert.Equal(t, StateIdle, dst.State())
}

func TestLoad_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		input string
		line  int
		kind  bool // wraps ErrUnknownKind
	}{
		{"obstacle tag in robots section", "Robots\nRockObstacle,Bob,10,10\n", 2, true},
		{"robot tag in obstacles section", "Robots\nObstacles\nDefaultRobot,1,2,3\n", 3, true},
		{"unknown tag", "Robots\nFlyingRobot,Bob,1,1\n", 2, true},
		{"display label is not a tag", "Robots\nSensor,Bob,1,1\n", 2, true},
		{"too few fields", "Robots\nDefaultRobot,Bob,1\n", 2, false},
		{"bad float", "Robots\nDefaultRobot,Bob,abc,1\n", 2, false},
		{"NaN robot position", "Robots\nDefaultRobot,Bob,NaN,10\n", 2, false},
		{"infinite robot position", "Robots\nDefaultRobot,Bob,10,-Inf\n", 2, false},
		{"NaN obstacle size", "Robots\nObstacles\nRockObstacle,1,1,NaN\n", 3, false},
		{"infinite obstacle position", "Obstacles\nLampObstacle,+Inf,1,50\n", 2, false},
		{"non-positive obstacle size", "Obstacles\nLakeObstacle,1,1,0\n", 2, false},
		{"entry before header", "DefaultRobot,Bob,1,1\n", 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ar := New(DefaultConfig())
			_, err := ar.AddAgent("Keep", KindDefault, 5, 5, 20)
			require.NoError(t, err)

			err = ar.Load(strings.NewReader(tc.input))
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tc.line, pe.Line)
			if tc.kind {
				assert.ErrorIs(t, err, ErrUnknownKind)
			}
			require.Len(t, ar.Agents(), 1, "roster untouched on failure")
			assert.Equal(t, "Keep", ar.Agents()[0].Name())
		})
	}
}

func TestLoad_BlankLinesAndCRLF(t *testing.T) {
	ar := New(DefaultConfig())
	in := "Robots\r\n\r\nWhiskerRobot,W,400,500\r\nObstacles\r\nLampObstacle,550,650,75\r\n"
	require.NoError(t, ar.Load(strings.NewReader(in)))
	require.Len(t, ar.Agents(), 1)
	assert.Equal(t, KindWhisker, ar.Agents()[0].Kind())
	require.Len(t, ar.Obstacles(), 1)
	assert.Equal(t, KindLamp, ar.Obstacles()[0].Kind())
}

func TestLoad_EmptySectionsClearsRoster(t *testing.T) {
	ar := New(DefaultConfig())
	require.NoError(t, ar.PopulateDemo())
	require.NoError(t, ar.Load(strings.NewReader("Robots\nObstacles\n")))
	assert.Empty(t, ar.Agents())
	assert.Empty(t, ar.Obstacles())
}

func TestSave_RejectsCommaNames(t *testing.T) {
	ar := New(DefaultConfig())
	a, err := ar.AddAgent("ok", KindDefault, 0, 0, 10)
	require.NoError(t, err)
	a.name = "bad,name"
	err = ar.Save(&bytes.Buffer{})
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestSaveFile_BadNameKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultArenaFile)
	ar := New(DefaultConfig())
	a, err := ar.AddAgent("ok", KindDefault, 0, 0, 10)
	require.NoError(t, err)
	require.NoError(t, ar.SaveFile(path))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	a.name = "bad,name"
	assert.ErrorIs(t, ar.SaveFile(path), ErrInvalidName)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestSaveFileLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultArenaFile)
	src := New(DefaultConfig())
	require.NoError(t, src.PopulateDemo())
	require.NoError(t, src.SaveFile(path))

	dst := New(DefaultConfig())
	require.NoError(t, dst.LoadFile(path))
	assert.Len(t, dst.Agents(), 5)
	assert.Len(t, dst.Obstacles(), 3)
}

func TestLoadFile_Missing(t *testing.T) {
	ar := New(DefaultConfig())
	require.NoError(t, ar.PopulateDemo())
	err := ar.LoadFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Len(t, ar.Agents(), 5, "arena untouched")
}
