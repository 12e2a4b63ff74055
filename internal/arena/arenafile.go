package arena

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	robotsHeader    = "Robots"
	obstaclesHeader = "Obstacles"
)

// DefaultArenaFile is the save/load file name used when none is given.
const DefaultArenaFile = "arena_config.txt"

// Save writes the roster in the flat line format:
//
//	Robots
//	{Tag},{name},{x},{y}
//	Obstacles
//	{Tag},{x},{y},{size}
func (ar *Arena) Save(w io.Writer) error {
	if err := ar.checkNames(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(robotsHeader + "\n")
	for _, a := range ar.agents {
		bw.WriteString(strings.Join([]string{a.kind.Tag(), a.name, formatFloat(a.x), formatFloat(a.y)}, ",") + "\n")
	}
	bw.WriteString(obstaclesHeader + "\n")
	for _, o := range ar.obstacles {
		bw.WriteString(strings.Join([]string{o.kind.Tag(), formatFloat(o.x), formatFloat(o.y), formatFloat(o.size)}, ",") + "\n")
	}
	return errors.Wrap(bw.Flush(), "write arena")
}

// checkNames refuses names that would break the line format.
func (ar *Arena) checkNames() error {
	for _, a := range ar.agents {
		if strings.ContainsAny(a.name, ",\r\n") {
			return errors.Wrapf(ErrInvalidName, "saving %q", a.name)
		}
	}
	return nil
}

// SaveFile overwrites path with the current roster. An unsavable roster
// leaves the existing file alone.
func (ar *Arena) SaveFile(path string) error {
	if err := ar.checkNames(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := ar.Save(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// LoadFile replaces the roster with the contents of path. A missing file
// fails with ErrFileNotFound and leaves the arena untouched.
func (ar *Arena) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrFileNotFound, "%s", path)
		}
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ar.Load(f)
}

type robotLine struct {
	kind AgentKind
	name string
	x, y float64
}

type obstacleLine struct {
	kind       ObstacleKind
	x, y, size float64
}

// Load parses the whole input before touching the arena; any malformed
// line aborts with a *ParseError and the current roster survives.
func (ar *Arena) Load(r io.Reader) error {
	robots, obstacles, err := parseArena(r)
	if err != nil {
		return err
	}
	ar.Reset()
	for _, rl := range robots {
		if _, err := ar.AddAgent(rl.name, rl.kind, rl.x, rl.y, loadedAgentSize); err != nil {
			return errors.Wrap(err, "load robot")
		}
	}
	for _, ol := range obstacles {
		if _, err := ar.AddObstacle(ol.kind, ol.x, ol.y, ol.size); err != nil {
			return errors.Wrap(err, "load obstacle")
		}
	}
	ar.record("--", "roster", "load", "", float64(len(robots)+len(obstacles)))
	return nil
}

func parseArena(r io.Reader) ([]robotLine, []obstacleLine, error) {
	var (
		robots    []robotLine
		obstacles []obstacleLine
		section   string
	)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fail := func(err error) error {
			return &ParseError{Line: lineNo, Text: text, Err: err}
		}
		switch text {
		case robotsHeader, obstaclesHeader:
			section = text
			continue
		}
		parts := strings.Split(text, ",")
		switch section {
		case robotsHeader:
			if len(parts) != 4 {
				return nil, nil, fail(errors.Errorf("robot line needs 4 fields, got %d", len(parts)))
			}
			kind, err := ParseAgentKind(parts[0])
			if err != nil || parts[0] != kind.Tag() {
				return nil, nil, fail(errors.Wrapf(ErrUnknownKind, "robot %q", parts[0]))
			}
			x, y, err := parseFloats(parts[2], parts[3])
			if err != nil {
				return nil, nil, fail(err)
			}
			robots = append(robots, robotLine{kind: kind, name: parts[1], x: x, y: y})
		case obstaclesHeader:
			if len(parts) != 4 {
				return nil, nil, fail(errors.Errorf("obstacle line needs 4 fields, got %d", len(parts)))
			}
			kind, err := ParseObstacleKind(parts[0])
			if err != nil || parts[0] != kind.Tag() {
				return nil, nil, fail(errors.Wrapf(ErrUnknownKind, "obstacle %q", parts[0]))
			}
			vals, err := parseFloatList(parts[1:])
			if err != nil {
				return nil, nil, fail(err)
			}
			if vals[2] <= 0 {
				return nil, nil, fail(ErrInvalidSize)
			}
			obstacles = append(obstacles, obstacleLine{kind: kind, x: vals[0], y: vals[1], size: vals[2]})
		default:
			return nil, nil, fail(errors.New("entry before section header"))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "read arena")
	}
	return robots, obstacles, nil
}

func parseFloats(a, b string) (float64, float64, error) {
	vals, err := parseFloatList([]string{a, b})
	if err != nil {
		return 0, 0, err
	}
	return vals[0], vals[1], nil
}

func parseFloatList(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "field %d", i+1)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Errorf("field %d: %q is not a finite number", i+1, f)
		}
		out[i] = v
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
