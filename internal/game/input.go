package game

import (
	"fmt"
	"strconv"

	"github.com/Garsondee/robot-arena/internal/arena"
	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
)

type dragKind int

const (
	dragNone dragKind = iota
	dragRobot
	dragObstacle
)

// dragState tracks the entity under the mouse between press and release.
type dragState struct {
	kind     dragKind
	agent    arena.AgentID
	obstacle arena.ObstacleID
	grabX    float64 // cursor offset from the obstacle's corner
	grabY    float64
}

// robotKeys add one robot of the matching kind.
var robotKeys = [...]ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5}

// obstacleKeys add Lamp, Rock, Lake.
var obstacleKeys = [...]ebiten.Key{ebiten.Key7, ebiten.Key8, ebiten.Key9}

// moveKeys map both WASD and the arrows onto the four user commands.
var moveKeys = map[ebiten.Key]arena.Direction{
	ebiten.KeyW:          arena.MoveUp,
	ebiten.KeyArrowUp:    arena.MoveUp,
	ebiten.KeyS:          arena.MoveDown,
	ebiten.KeyArrowDown:  arena.MoveDown,
	ebiten.KeyA:          arena.MoveLeft,
	ebiten.KeyArrowLeft:  arena.MoveLeft,
	ebiten.KeyD:          arena.MoveRight,
	ebiten.KeyArrowRight: arena.MoveRight,
}

// pickAgent returns the topmost agent whose box contains (x,y).
func pickAgent(agents []*arena.Agent, x, y float64) *arena.Agent {
	for i := len(agents) - 1; i >= 0; i-- {
		if contains(agents[i].Box(), x, y) {
			return agents[i]
		}
	}
	return nil
}

// pickObstacle returns the topmost obstacle whose box contains (x,y).
func pickObstacle(obstacles []*arena.Obstacle, x, y float64) *arena.Obstacle {
	for i := len(obstacles) - 1; i >= 0; i-- {
		if contains(obstacles[i].Box(), x, y) {
			return obstacles[i]
		}
	}
	return nil
}

func contains(b arena.Box, x, y float64) bool {
	return x >= b.X && x < b.MaxX() && y >= b.Y && y < b.MaxY()
}

// agentSelector turns a handle into the 1-based selector the arena takes.
// Names are not unique, so the viewer always selects by position.
func agentSelector(ar *arena.Arena, id arena.AgentID) (string, bool) {
	for i, a := range ar.Agents() {
		if a.ID() == id {
			return strconv.Itoa(i + 1), true
		}
	}
	return "", false
}

func obstacleSelector(ar *arena.Arena, id arena.ObstacleID) (string, bool) {
	for i, o := range ar.Obstacles() {
		if o.ID() == id {
			return strconv.Itoa(i + 1), true
		}
	}
	return "", false
}

// controlled returns the selector of the robot the movement keys drive:
// the clicked user-controlled robot, else the first one in the roster.
func (g *Game) controlled(ar *arena.Arena) (string, bool) {
	if g.selected != 0 {
		if a := ar.Agent(g.selected); a != nil && a.Kind() == arena.KindUserControlled {
			return agentSelector(ar, g.selected)
		}
	}
	for i, a := range ar.Agents() {
		if a.Kind() == arena.KindUserControlled {
			return strconv.Itoa(i + 1), true
		}
	}
	return "", false
}

func clampSize(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// handleInput processes keyboard and mouse input. Messages for the event
// panel are collected while the arena is held and posted afterwards.
func (g *Game) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !g.prevKeys[k]
	}
	var notes []string
	note := func(format string, args ...interface{}) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	g.runner.Do(func(ar *arena.Arena) {
		// Space: play/pause toggle.
		if pressed(ebiten.KeySpace) {
			if ar.State() == arena.StateRunning {
				ar.Pause()
			} else {
				ar.Play()
			}
		}
		// N: reset to an empty idle arena.
		if pressed(ebiten.KeyN) {
			ar.Reset()
			g.selected = 0
			g.drag = dragState{}
		}
		// F2: stock roster.
		if pressed(ebiten.KeyF2) {
			if err := ar.PopulateDemo(); err != nil {
				note("demo: %v", err)
			}
		}
		for i, k := range robotKeys {
			if pressed(k) {
				x, y := ar.NextRobotSpawn()
				if _, err := ar.AddAgent("", arena.AgentKinds[i], x, y, g.robotSize); err != nil {
					note("add robot: %v", err)
				}
			}
		}
		for i, k := range obstacleKeys {
			if pressed(k) {
				x, y := ar.NextObstacleSpawn()
				if _, err := ar.AddObstacle(arena.ObstacleKinds[i], x, y, g.obstacleSize); err != nil {
					note("add obstacle: %v", err)
				}
			}
		}
		// [ ] and - = size the next robot / obstacle.
		if pressed(ebiten.KeyBracketLeft) {
			g.robotSize = clampSize(g.robotSize-sizeStep, robotSizeMin, robotSizeMax)
		}
		if pressed(ebiten.KeyBracketRight) {
			g.robotSize = clampSize(g.robotSize+sizeStep, robotSizeMin, robotSizeMax)
		}
		if pressed(ebiten.KeyMinus) {
			g.obstacleSize = clampSize(g.obstacleSize-sizeStep, obstacleSizeMin, obstacleSizeMax)
		}
		if pressed(ebiten.KeyEqual) {
			g.obstacleSize = clampSize(g.obstacleSize+sizeStep, obstacleSizeMin, obstacleSizeMax)
		}
		// Delete: remove whatever is under the cursor.
		del, bs := pressed(ebiten.KeyDelete), pressed(ebiten.KeyBackspace)
		if del || bs {
			g.removeUnderCursor(ar, note)
		}
		// C: snapshot to the system clipboard.
		if pressed(ebiten.KeyC) {
			if err := clipboard.WriteAll(ar.SnapshotText()); err != nil {
				note("clipboard: %v", err)
			} else {
				note("copied %d robot lines", len(ar.Agents()))
			}
		}
		if pressed(ebiten.KeyF5) {
			if err := ar.SaveFile(g.savePath); err != nil {
				note("save: %v", err)
			} else {
				note("saved %s", g.savePath)
			}
		}
		if pressed(ebiten.KeyF9) {
			if err := ar.LoadFile(g.savePath); err != nil {
				note("load: %v", err)
			} else {
				g.selected = 0
				g.drag = dragState{}
				note("loaded %s", g.savePath)
			}
		}
		if pressed(ebiten.KeyH) {
			g.showHUD = !g.showHUD
		}

		// Movement keys repeat while held.
		if sel, ok := g.controlled(ar); ok {
			for k, d := range moveKeys {
				if ebiten.IsKeyPressed(k) {
					_, _ = ar.MoveAgent(sel, d)
				}
			}
		}

		g.handleMouse(ar)
	})

	g.prevKeys = currentKeys
	for _, n := range notes {
		g.notice(n)
	}
}

// handleMouse picks on press, drags while held and drops on release.
func (g *Game) handleMouse(ar *arena.Arena) {
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	wx, wy := g.toWorld(ebiten.CursorPosition())

	switch {
	case down && !g.prevMouseLeft:
		g.startDrag(ar, wx, wy)
	case down && g.drag.kind != dragNone:
		g.continueDrag(ar, wx, wy)
	case !down:
		g.drag = dragState{}
	}
	g.prevMouseLeft = down
}

func (g *Game) startDrag(ar *arena.Arena, wx, wy float64) {
	if a := pickAgent(ar.Agents(), wx, wy); a != nil {
		g.drag = dragState{kind: dragRobot, agent: a.ID()}
		if a.Kind() == arena.KindUserControlled {
			g.selected = a.ID()
		}
		return
	}
	if o := pickObstacle(ar.Obstacles(), wx, wy); o != nil {
		ox, oy := o.Position()
		g.drag = dragState{kind: dragObstacle, obstacle: o.ID(), grabX: wx - ox, grabY: wy - oy}
		return
	}
	g.drag = dragState{}
}

func (g *Game) continueDrag(ar *arena.Arena, wx, wy float64) {
	switch g.drag.kind {
	case dragRobot:
		a := ar.Agent(g.drag.agent)
		sel, ok := agentSelector(ar, g.drag.agent)
		if a == nil || !ok {
			g.drag = dragState{}
			return
		}
		half := a.Size() / 2
		_, _ = ar.DragAgent(sel, wx-half, wy-half)
	case dragObstacle:
		sel, ok := obstacleSelector(ar, g.drag.obstacle)
		if !ok {
			g.drag = dragState{}
			return
		}
		_, _ = ar.DragObstacle(sel, wx-g.drag.grabX, wy-g.drag.grabY)
	}
}

func (g *Game) removeUnderCursor(ar *arena.Arena, note func(string, ...interface{})) {
	wx, wy := g.toWorld(ebiten.CursorPosition())
	if a := pickAgent(ar.Agents(), wx, wy); a != nil {
		if sel, ok := agentSelector(ar, a.ID()); ok {
			if _, err := ar.RemoveAgent(sel); err != nil {
				note("remove: %v", err)
			}
		}
		return
	}
	if o := pickObstacle(ar.Obstacles(), wx, wy); o != nil {
		if sel, ok := obstacleSelector(ar, o.ID()); ok {
			if _, err := ar.RemoveObstacle(sel); err != nil {
				note("remove: %v", err)
			}
		}
	}
}
