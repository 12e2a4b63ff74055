package game

import (
	"fmt"
	"image/color"

	"github.com/Garsondee/robot-arena/internal/arena"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	logPanelWidth = 320
	logMaxEntries = 60
	logLineHeight = 14
	logMaxChars   = 48 // DebugPrint glyphs are 6px wide
)

// categoryColors tints the marker dot next to each event line.
var categoryColors = map[string]color.RGBA{
	"roster":    {R: 120, G: 200, B: 120, A: 255},
	"wall":      {R: 150, G: 150, B: 150, A: 255},
	"exclusion": {R: 200, G: 200, B: 90, A: 255},
	"obstacle":  {R: 210, G: 140, B: 60, A: 255},
	"sensor":    {R: 80, G: 170, B: 230, A: 255},
	"whisker":   {R: 90, G: 210, B: 210, A: 255},
	"predator":  {R: 220, G: 60, B: 60, A: 255},
	"effect":    {R: 170, G: 120, B: 220, A: 255},
	"state":     {R: 240, G: 240, B: 240, A: 255},
	"ui":        {R: 255, G: 200, B: 0, A: 255},
}

// EventPanel is a fixed-size ring buffer of arena events rendered beside
// the playfield. It implements arena.EventRecorder.
type EventPanel struct {
	entries []arena.Event
	head    int
	count   int
}

// NewEventPanel creates a panel with a fixed capacity.
func NewEventPanel() *EventPanel {
	return &EventPanel{
		entries: make([]arena.Event, logMaxEntries),
	}
}

// Record implements arena.EventRecorder. Per-tick movement is dropped so
// the panel stays readable.
func (p *EventPanel) Record(e arena.Event) {
	if e.Category == "move" {
		return
	}
	p.entries[p.head] = e
	p.head = (p.head + 1) % logMaxEntries
	if p.count < logMaxEntries {
		p.count++
	}
}

// Notice adds a viewer message (save/load results, errors).
func (p *EventPanel) Notice(tick int, msg string) {
	p.Record(arena.Event{Tick: tick, Entity: "--", Category: "ui", Key: "notice", Value: msg})
}

// Recent returns entries in chronological order (oldest first).
func (p *EventPanel) Recent() []arena.Event {
	result := make([]arena.Event, p.count)
	for i := 0; i < p.count; i++ {
		idx := (p.head - p.count + i + logMaxEntries) % logMaxEntries
		result[i] = p.entries[idx]
	}
	return result
}

// Clear empties the panel.
func (p *EventPanel) Clear() {
	p.head = 0
	p.count = 0
}

func panelLine(e arena.Event) string {
	line := fmt.Sprintf("%4d %s %s", e.Tick, e.Entity, e.Key)
	if e.Value != "" {
		line += " " + e.Value
	}
	if len(line) > logMaxChars {
		line = line[:logMaxChars-1] + "~"
	}
	return line
}

// Draw renders the panel on the right side of the screen.
func (p *EventPanel) Draw(screen *ebiten.Image, panelX int, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 10, G: 12, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 60, B: 80, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 16, color.RGBA{R: 20, G: 26, B: 36, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENTS", panelX+8, 0)
	vector.StrokeLine(screen, float32(panelX), 16, float32(panelX+logPanelWidth), 16, 1.0, color.RGBA{R: 50, G: 70, B: 90, A: 200}, false)

	entries := p.Recent()

	// Newest at the bottom.
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}
	const recent = 3

	y := 20
	for i, e := range entries {
		if i >= len(entries)-recent {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 30, G: 36, B: 48, A: 160}, false)
		}
		dot, ok := categoryColors[e.Category]
		if !ok {
			dot = color.RGBA{R: 120, G: 120, B: 120, A: 255}
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+5), 3, 5, dot, false)
		ebitenutil.DebugPrintAt(screen, panelLine(e), panelX+12, y-2)
		y += logLineHeight
	}
}
