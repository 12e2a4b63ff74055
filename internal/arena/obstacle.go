package arena

import (
	"sort"
	"strings"
	"time"

	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
)

const (
	rockStopDelay    = 3 * time.Second
	rockResumeSpeed  = 5.0
	lakeSlowDelay    = 2 * time.Second
	lakeRestoreSpeed = 3.0
	lakeSpeedFactor  = 0.5
	lampFallDelay    = 5 * time.Second
	lampFallenDeg    = 90.0
)

// ObstacleKind is the closed set of static hazards.
type ObstacleKind int

const (
	KindLamp ObstacleKind = iota
	KindRock
	KindLake
	obstacleKindCount
)

// ObstacleKinds lists every obstacle kind in declaration order.
var ObstacleKinds = [obstacleKindCount]ObstacleKind{KindLamp, KindRock, KindLake}

var obstacleKindTags = [obstacleKindCount]string{
	KindLamp: "LampObstacle",
	KindRock: "RockObstacle",
	KindLake: "LakeObstacle",
}

var obstacleKindLabels = [obstacleKindCount]string{
	KindLamp: "Lamp",
	KindRock: "Rock",
	KindLake: "Lake",
}

// Tag is the persisted variant tag, e.g. "RockObstacle".
func (k ObstacleKind) Tag() string {
	if k < 0 || k >= obstacleKindCount {
		return "UnknownObstacle"
	}
	return obstacleKindTags[k]
}

// String returns the obstacle's display name.
func (k ObstacleKind) String() string {
	if k < 0 || k >= obstacleKindCount {
		return "unknown"
	}
	return obstacleKindLabels[k]
}

// ParseObstacleKind accepts either a persisted tag or a display name.
func ParseObstacleKind(s string) (ObstacleKind, error) {
	s = strings.TrimSpace(s)
	for _, k := range ObstacleKinds {
		if s == obstacleKindTags[k] || s == obstacleKindLabels[k] {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownKind, "obstacle %q", s)
}

// ObstacleID is a stable handle for an obstacle.
type ObstacleID int

// Obstacle is a static, draggable hazard.
type Obstacle struct {
	id       ObstacleID
	kind     ObstacleKind
	x, y     float64
	size     float64
	rotation float64 // degrees; lamps fall over to 90
	removed  bool
}

func (o *Obstacle) ID() ObstacleID     { return o.id }
func (o *Obstacle) Kind() ObstacleKind { return o.kind }
func (o *Obstacle) Name() string       { return o.kind.String() }
func (o *Obstacle) Size() float64      { return o.size }
func (o *Obstacle) Rotation() float64  { return o.rotation }
func (o *Obstacle) Removed() bool      { return o.removed }

// Box returns the obstacle's bounding box.
func (o *Obstacle) Box() Box {
	return Box{X: o.x, Y: o.y, W: o.size, H: o.size}
}

// Bounds implements rtreego.Spatial.
func (o *Obstacle) Bounds() rtreego.Rect { return o.Box().rect() }

// Position returns the top-left corner of the obstacle.
func (o *Obstacle) Position() (float64, float64) {
	return o.x, o.y
}

// respond applies the obstacle's collision policy to ag. Deferred
// reversions go through the arena's effect queue and are keyed by handle,
// so they become no-ops once their target is gone.
func (o *Obstacle) respond(ar *Arena, ag *Agent) {
	switch o.kind {
	case KindRock:
		ag.SetSpeed(0)
		id := ag.id
		ar.schedule(rockStopDelay, "rock_resume", func(ar *Arena) bool {
			target := ar.Agent(id)
			if target == nil {
				return false
			}
			target.SetSpeed(rockResumeSpeed)
			return true
		})
	case KindLamp:
		o.rotation = lampFallenDeg
		id := o.id
		ar.schedule(lampFallDelay, "lamp_upright", func(ar *Arena) bool {
			lamp := ar.Obstacle(id)
			if lamp == nil {
				return false
			}
			lamp.rotation = 0
			return true
		})
	case KindLake:
		ag.BounceHorizontal()
		ag.BounceVertical()
		ag.SetSpeed(ag.speed * lakeSpeedFactor)
		id := ag.id
		ar.schedule(lakeSlowDelay, "lake_restore", func(ar *Arena) bool {
			target := ar.Agent(id)
			if target == nil {
				return false
			}
			target.SetSpeed(lakeRestoreSpeed)
			return true
		})
	}
}

// obstacleIndex is the broad-phase R-tree over obstacle boxes. Query results
// come back in insertion order so first-match policies are deterministic.
type obstacleIndex struct {
	tree *rtreego.Rtree
}

func newObstacleIndex() *obstacleIndex {
	return &obstacleIndex{tree: rtreego.NewTree(2, 4, 16)}
}

func (ix *obstacleIndex) insert(o *Obstacle) { ix.tree.Insert(o) }

// remove must run before the obstacle's box changes: the tree locates the
// leaf by the current bounds.
func (ix *obstacleIndex) remove(o *Obstacle) bool { return ix.tree.Delete(o) }

// query returns every obstacle whose box strictly overlaps b.
func (ix *obstacleIndex) query(b Box) []*Obstacle {
	hits := ix.tree.SearchIntersect(b.rect())
	out := make([]*Obstacle, 0, len(hits))
	for _, h := range hits {
		o := h.(*Obstacle)
		if o.removed || !Intersects(b, o.Box()) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
