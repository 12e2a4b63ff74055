package arena

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

const (
	// Sensor beam: a triangle whose tip sits half a body ahead of the
	// centre, opening forward.
	beamLengthFactor = 1.2
	beamWidthFactor  = 0.6
	beamOffsetFactor = 0.5
	sensorDebounce   = 500 * time.Millisecond

	// Whiskers: three rigid segments from the body centre.
	whiskerLengthFactor = 1.0
	whiskerSideAngle    = 30.0 // degrees either side of heading
	whiskerFrontTurn    = 30.0 // clockwise turn on a front hit
	whiskerSideTurn     = 15.0 // turn away from the touched side
	whiskerDebounce     = time.Second
)

// Whisker identifies one of the three whisker segments, in check order.
type Whisker int

const (
	WhiskerFront Whisker = iota
	WhiskerLeft
	WhiskerRight
	whiskerCount
)

func (w Whisker) String() string {
	switch w {
	case WhiskerFront:
		return "front"
	case WhiskerLeft:
		return "left"
	case WhiskerRight:
		return "right"
	default:
		return "unknown"
	}
}

var whiskerOffsets = [whiskerCount]float64{
	WhiskerFront: 0,
	WhiskerLeft:  -whiskerSideAngle,
	WhiskerRight: whiskerSideAngle,
}

// whiskerTurns holds the heading change applied when that whisker fires.
var whiskerTurns = [whiskerCount]float64{
	WhiskerFront: whiskerFrontTurn,
	WhiskerLeft:  whiskerSideTurn,
	WhiskerRight: -whiskerSideTurn,
}

func unit(deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}

// Beam returns the sensor triangle in world coordinates, rotated to the
// agent's heading.
func (a *Agent) Beam() orb.Ring {
	cx, cy := a.Box().Center()
	fx, fy := unit(a.heading)
	px, py := -fy, fx // perpendicular

	tipX := cx + fx*a.size*beamOffsetFactor
	tipY := cy + fy*a.size*beamOffsetFactor
	length := a.size * beamLengthFactor
	half := a.size * beamWidthFactor / 2
	baseX := tipX + fx*length
	baseY := tipY + fy*length

	return orb.Ring{
		{tipX, tipY},
		{baseX - px*half, baseY - py*half},
		{baseX + px*half, baseY + py*half},
		{tipX, tipY},
	}
}

// BeamBox is the axis-aligned box around the sensor beam.
func (a *Agent) BeamBox() Box {
	return BoxFromBound(a.Beam().Bound())
}

// WhiskerSegment returns whisker w as a two-point line in world coordinates.
func (a *Agent) WhiskerSegment(w Whisker) orb.LineString {
	cx, cy := a.Box().Center()
	dx, dy := unit(a.heading + whiskerOffsets[w])
	l := a.size * whiskerLengthFactor
	return orb.LineString{{cx, cy}, {cx + dx*l, cy + dy*l}}
}

// segmentHits reports whether seg passes through the interior of b.
func segmentHits(seg orb.LineString, b Box) bool {
	clipped := clip.LineString(b.Bound(), seg)
	return planar.Length(clipped) > 0
}

// beginReaction opens the debounce window; false if one is already open.
func (ar *Arena) beginReaction(ag *Agent, window time.Duration, key string) bool {
	if ag.reacting {
		return false
	}
	ag.reacting = true
	id := ag.id
	ar.schedule(window, key, func(ar *Arena) bool {
		target := ar.Agent(id)
		if target == nil {
			return false
		}
		target.reacting = false
		return true
	})
	return true
}

// senseBeam steers a Sensor agent away from the first obstacle its beam
// box overlaps. Returns the obstacle that triggered, if any.
func (ar *Arena) senseBeam(ag *Agent) *Obstacle {
	hits := ar.index.query(ag.BeamBox())
	if len(hits) == 0 {
		return nil
	}
	o := hits[0]
	if ar.beginReaction(ag, sensorDebounce, "sensor_clear") {
		before := ag.heading
		ag.ChangeDirection(ar.rng)
		ar.record(ag.name, "sensor", "avoid", o.Name(), ag.heading-before)
	}
	return o
}

// senseWhiskers checks front, left, right in that order; the first
// whisker touching any obstacle decides the turn.
func (ar *Arena) senseWhiskers(ag *Agent) (Whisker, *Obstacle) {
	for w := WhiskerFront; w < whiskerCount; w++ {
		seg := ag.WhiskerSegment(w)
		for _, o := range ar.index.query(BoxFromBound(seg.Bound())) {
			if !segmentHits(seg, o.Box()) {
				continue
			}
			if ar.beginReaction(ag, whiskerDebounce, "whisker_clear") {
				ag.Turn(whiskerTurns[w])
				ar.record(ag.name, "whisker", "avoid_"+w.String(), o.Name(), whiskerTurns[w])
			}
			return w, o
		}
	}
	return whiskerCount, nil
}
