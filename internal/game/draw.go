package game

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/Garsondee/robot-arena/internal/arena"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/paulmach/orb"
)

var agentColors = map[arena.AgentKind]color.RGBA{
	arena.KindDefault:        {R: 90, G: 140, B: 220, A: 255},
	arena.KindSensor:         {R: 70, G: 190, B: 200, A: 255},
	arena.KindUserControlled: {R: 230, G: 200, B: 60, A: 255},
	arena.KindPredator:       {R: 210, G: 60, B: 60, A: 255},
	arena.KindWhisker:        {R: 150, G: 110, B: 220, A: 255},
}

var obstacleColors = map[arena.ObstacleKind]color.RGBA{
	arena.KindLamp: {R: 240, G: 220, B: 140, A: 255},
	arena.KindRock: {R: 120, G: 115, B: 105, A: 255},
	arena.KindLake: {R: 50, G: 110, B: 190, A: 220},
}

var (
	groundCol    = color.RGBA{R: 28, G: 34, B: 30, A: 255}
	borderCol    = color.RGBA{R: 65, G: 90, B: 65, A: 255}
	beamCol      = color.RGBA{R: 120, G: 220, B: 255, A: 160}
	whiskerCol   = color.RGBA{R: 200, G: 180, B: 255, A: 200}
	reactingCol  = color.RGBA{R: 255, G: 90, B: 90, A: 255}
	selectedCol  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	exclusionCol = color.RGBA{R: 8, G: 10, B: 14, A: 220}
)

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})

	ox, oy := float32(g.offX), float32(g.offY)
	gw, gh := float32(g.gameWidth), float32(g.gameHeight)
	vector.FillRect(screen, ox, oy, gw, gh, groundCol, false)
	vector.StrokeRect(screen, ox-1, oy-1, gw+2, gh+2, 2.0, borderCol, false)
	vector.StrokeRect(screen, ox-3, oy-3, gw+6, gh+6, 1.0, color.RGBA{R: 40, G: 65, B: 40, A: 100}, false)

	g.runner.Do(func(ar *arena.Arena) {
		for _, o := range ar.Obstacles() {
			g.drawObstacle(screen, o)
		}
		controlled, _ := g.controlled(ar)
		for i, a := range ar.Agents() {
			g.drawAgent(screen, a, fmt.Sprint(i+1) == controlled)
		}
		g.drawExclusion(screen, ar)
		if g.showHUD {
			g.drawHUD(screen, ar)
		}
	})

	logX := g.offX + g.gameWidth + g.offX
	g.events.Draw(screen, logX, g.height)
}

func (g *Game) drawObstacle(screen *ebiten.Image, o *arena.Obstacle) {
	b := o.Box()
	x := float32(b.X) + float32(g.offX)
	y := float32(b.Y) + float32(g.offY)
	s := float32(b.W)
	col := obstacleColors[o.Kind()]

	switch o.Kind() {
	case arena.KindLamp:
		// Post plus shade; a fallen lamp lies along the bottom of its box.
		if o.Rotation() != 0 {
			vector.FillRect(screen, x, y+s*0.7, s, s*0.2, col, false)
			vector.FillRect(screen, x+s*0.8, y+s*0.6, s*0.2, s*0.4, color.RGBA{R: 255, G: 250, B: 200, A: 255}, false)
		} else {
			vector.FillRect(screen, x+s*0.4, y+s*0.2, s*0.2, s*0.8, col, false)
			vector.FillRect(screen, x+s*0.2, y, s*0.6, s*0.25, color.RGBA{R: 255, G: 250, B: 200, A: 255}, false)
		}
		vector.StrokeRect(screen, x, y, s, s, 1, color.RGBA{R: 90, G: 90, B: 70, A: 120}, false)
	case arena.KindLake:
		vector.FillCircle(screen, x+s/2, y+s/2, s/2, col, true)
	default:
		vector.FillRect(screen, x, y, s, s, col, false)
		vector.StrokeRect(screen, x, y, s, s, 1.5, color.RGBA{R: 70, G: 66, B: 60, A: 255}, false)
	}
}

func (g *Game) drawAgent(screen *ebiten.Image, a *arena.Agent, selected bool) {
	b := a.Box()
	x := float32(b.X) + float32(g.offX)
	y := float32(b.Y) + float32(g.offY)
	s := float32(b.W)

	switch a.Kind() {
	case arena.KindSensor:
		g.strokeRing(screen, a.Beam(), beamCol)
	case arena.KindWhisker:
		for w := arena.WhiskerFront; w <= arena.WhiskerRight; w++ {
			g.strokeLineString(screen, a.WhiskerSegment(w), whiskerCol)
		}
	}

	vector.FillRect(screen, x, y, s, s, agentColors[a.Kind()], false)
	outline := color.RGBA{R: 20, G: 20, B: 20, A: 255}
	width := float32(1.5)
	if a.Reacting() {
		outline, width = reactingCol, 2.5
	}
	if selected {
		outline, width = selectedCol, 2.5
	}
	vector.StrokeRect(screen, x, y, s, s, width, outline, false)

	// Heading tick from the centre.
	cx, cy := x+s/2, y+s/2
	rad := a.Heading() * math.Pi / 180
	hx := cx + float32(math.Cos(rad))*s/2
	hy := cy + float32(math.Sin(rad))*s/2
	vector.StrokeLine(screen, cx, cy, hx, hy, 2, color.RGBA{R: 250, G: 250, B: 250, A: 220}, false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y)-14)
	op.ColorScale.ScaleWithColor(color.RGBA{R: 230, G: 230, B: 230, A: 255})
	text.Draw(screen, a.Name(), g.nameFace, op)
}

func (g *Game) strokeRing(screen *ebiten.Image, r orb.Ring, col color.Color) {
	g.strokeLineString(screen, orb.LineString(r), col)
}

func (g *Game) strokeLineString(screen *ebiten.Image, ls orb.LineString, col color.Color) {
	ox, oy := float32(g.offX), float32(g.offY)
	for i := 1; i < len(ls); i++ {
		p, q := ls[i-1], ls[i]
		vector.StrokeLine(screen,
			float32(p.X())+ox, float32(p.Y())+oy,
			float32(q.X())+ox, float32(q.Y())+oy,
			1.5, col, true)
	}
}

// drawExclusion renders the info display: the live snapshot, one line per
// robot, inside the rectangle robots bounce off.
func (g *Game) drawExclusion(screen *ebiten.Image, ar *arena.Arena) {
	ex := ar.Exclusion()
	if ex.W <= 0 || ex.H <= 0 {
		return
	}
	x := float32(ex.X) + float32(g.offX)
	y := float32(ex.Y) + float32(g.offY)
	vector.FillRect(screen, x, y, float32(ex.W), float32(ex.H), exclusionCol, false)
	vector.StrokeRect(screen, x, y, float32(ex.W), float32(ex.H), 1, borderCol, false)

	const lineH = 14
	maxLines := int(ex.H)/lineH - 1
	lines := ar.Snapshot()
	if len(lines) > maxLines && maxLines > 0 {
		lines = append(lines[:maxLines-1:maxLines-1], fmt.Sprintf("... %d more", len(ar.Snapshot())-maxLines+1))
	}
	for i, l := range lines {
		ebitenutil.DebugPrintAt(screen, l, int(x)+4, int(y)+2+i*lineH)
	}
}

func (g *Game) hudLines(ar *arena.Arena) []string {
	return []string{
		fmt.Sprintf("%s  T=%d  %s  Space=play/pause  N=reset  F2=demo",
			ar.State(), ar.TickCount(), ar.Now().Truncate(100*time.Millisecond)),
		fmt.Sprintf("1-5 add robot (size %.0f, [ ])  7-9 lamp/rock/lake (size %.0f, - =)",
			g.robotSize, g.obstacleSize),
		"WASD/arrows move  drag=move  Del=remove  C=copy  F5/F9 save/load  H=hud",
	}
}

func (g *Game) drawHUD(screen *ebiten.Image, ar *arena.Arena) {
	const lineH = 14
	lines := g.hudLines(ar)
	bx := float32(g.offX + 4)
	by := float32(g.offY+g.gameHeight) - float32(len(lines)*lineH) - 8
	vector.FillRect(screen, bx, by, float32(g.gameWidth-8), float32(len(lines)*lineH+4),
		color.RGBA{R: 6, G: 10, B: 6, A: 190}, false)
	for i, l := range lines {
		ebitenutil.DebugPrintAt(screen, l, int(bx)+4, int(by)+i*lineH)
	}
}
