package arena

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FindAgent resolves a selector: a 1-based index into the display order,
// or otherwise an exact name match (first wins).
func (ar *Arena) FindAgent(sel string) (*Agent, error) {
	sel = strings.TrimSpace(sel)
	if n, err := strconv.Atoi(sel); err == nil {
		if n >= 1 && n <= len(ar.agents) {
			return ar.agents[n-1], nil
		}
		return nil, errors.Wrapf(ErrNotFound, "robot #%d", n)
	}
	for _, a := range ar.agents {
		if a.name == sel {
			return a, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "robot %q", sel)
}

// FindObstacle resolves an obstacle selector the same way; obstacle names
// are their kind names ("Lamp", "Rock", "Lake").
func (ar *Arena) FindObstacle(sel string) (*Obstacle, error) {
	sel = strings.TrimSpace(sel)
	if n, err := strconv.Atoi(sel); err == nil {
		if n >= 1 && n <= len(ar.obstacles) {
			return ar.obstacles[n-1], nil
		}
		return nil, errors.Wrapf(ErrNotFound, "obstacle #%d", n)
	}
	for _, o := range ar.obstacles {
		if o.Name() == sel {
			return o, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "obstacle %q", sel)
}
