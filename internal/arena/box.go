package arena

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minExtent keeps degenerate boxes (axis-aligned whiskers) indexable.
const minExtent = 1e-9

// Box is an axis-aligned bounding box: top-left corner plus width/height.
type Box struct {
	X, Y float64
	W, H float64
}

// MaxX returns the right edge.
func (b Box) MaxX() float64 { return b.X + b.W }

// MaxY returns the bottom edge.
func (b Box) MaxY() float64 { return b.Y + b.H }

// Center returns the centre point of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Intersects reports whether the two half-open boxes overlap on both axes.
// Touching edges do not count.
func Intersects(a, b Box) bool {
	return a.MaxX() > b.X && a.X < b.MaxX() && a.MaxY() > b.Y && a.Y < b.MaxY()
}

// Intersects is the method form of the package-level test.
func (b Box) Intersects(o Box) bool { return Intersects(b, o) }

// Bound converts the box to an orb bound.
func (b Box) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.X, b.Y}, Max: orb.Point{b.MaxX(), b.MaxY()}}
}

// BoxFromBound converts an orb bound back into a Box.
func BoxFromBound(bd orb.Bound) Box {
	return Box{X: bd.Min.X(), Y: bd.Min.Y(), W: bd.Max.X() - bd.Min.X(), H: bd.Max.Y() - bd.Min.Y()}
}

// rect converts the box into an rtree query rectangle.
func (b Box) rect() rtreego.Rect {
	w, h := b.W, b.H
	if w < minExtent {
		w = minExtent
	}
	if h < minExtent {
		h = minExtent
	}
	r, err := rtreego.NewRect(rtreego.Point{b.X, b.Y}, []float64{w, h})
	if err != nil {
		// Unreachable: both lengths are clamped positive above.
		panic(err)
	}
	return r
}
