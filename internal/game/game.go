package game

import (
	"github.com/Garsondee/robot-arena/internal/arena"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// borderWidth is the pixel gap between the window edge and the playfield.
const borderWidth = 24

// Dialog defaults and limits for interactively added entities.
const (
	robotSizeDefault    = 50.0
	robotSizeMin        = 30.0
	robotSizeMax        = 150.0
	obstacleSizeDefault = 100.0
	obstacleSizeMin     = 50.0
	obstacleSizeMax     = 200.0
	sizeStep            = 10.0
)

// Game is the ebiten front end. All arena access goes through the runner
// so an attached HTTP server sees a consistent world.
type Game struct {
	width      int
	height     int
	gameWidth  int // playfield width (event panel takes the rest)
	gameHeight int
	offX       int // pixel offset from window left to playfield left
	offY       int

	runner   *arena.Runner
	events   *EventPanel
	savePath string

	// Input state.
	prevKeys      map[ebiten.Key]bool
	prevMouseLeft bool
	drag          dragState
	selected      arena.AgentID // robot driven by the arrow keys; 0 = first user-controlled
	robotSize     float64
	obstacleSize  float64
	showHUD       bool

	nameFace *text.GoXFace
}

// New builds a viewer around r. The runner's arena must already have its
// recorder set to events (see NewWithPanel).
func New(r *arena.Runner, events *EventPanel, savePath string) *Game {
	var cfg arena.Config
	r.Do(func(a *arena.Arena) { cfg = a.Config() })
	gw, gh := int(cfg.Width), int(cfg.Height)
	if savePath == "" {
		savePath = arena.DefaultArenaFile
	}
	return &Game{
		width:        borderWidth + gw + borderWidth + logPanelWidth,
		height:       borderWidth + gh + borderWidth,
		gameWidth:    gw,
		gameHeight:   gh,
		offX:         borderWidth,
		offY:         borderWidth,
		runner:       r,
		events:       events,
		savePath:     savePath,
		prevKeys:     make(map[ebiten.Key]bool),
		robotSize:    robotSizeDefault,
		obstacleSize: obstacleSizeDefault,
		showHUD:      true,
		nameFace:     text.NewGoXFace(basicfont.Face7x13),
	}
}

// NewWithPanel creates an event panel, routes a's events into it and
// returns a viewer plus the runner driving it.
func NewWithPanel(a *arena.Arena, savePath string) (*Game, *arena.Runner) {
	panel := NewEventPanel()
	a.SetRecorder(panel)
	r := arena.NewRunner(a)
	return New(r, panel, savePath), r
}

// Update runs once per ebiten tick; the caller sets TPS to match the
// arena's tick period.
func (g *Game) Update() error {
	g.handleInput()
	g.runner.Step()
	return nil
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// WindowSize returns the full window size including the event panel.
func (g *Game) WindowSize() (int, int) {
	return g.width, g.height
}

// toWorld converts screen coordinates to playfield coordinates.
func (g *Game) toWorld(mx, my int) (float64, float64) {
	return float64(mx - g.offX), float64(my - g.offY)
}

func (g *Game) notice(msg string) {
	var tick int
	g.runner.Do(func(a *arena.Arena) { tick = a.TickCount() })
	g.events.Notice(tick, msg)
}
