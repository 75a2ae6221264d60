// Package pathfind plans tile routes with breadth-first search.
//
// Neighbors are always expanded up, down, left, right, so among paths of
// equal length the same one is returned for the same grid. Plans are
// recomputed from scratch on every call.
package pathfind

import (
	"errors"

	"github.com/wricardo/agent-office/game/layout"
)

// ErrNoPath is returned when the target cannot be reached
var ErrNoPath = errors.New("no path found")

// Grid is the static terrain a route is planned over
type Grid interface {
	InBounds(pos layout.Position) bool
	IsWalkable(pos layout.Position) bool
}

var neighborOffsets = [...]layout.Position{
	{X: 0, Y: -1}, // up
	{X: 0, Y: 1},  // down
	{X: -1, Y: 0}, // left
	{X: 1, Y: 0},  // right
}

type options struct {
	passable map[layout.Position]struct{}
	blocked  map[layout.Position]struct{}
}

// Option adjusts a single search
type Option func(*options)

// WithPassable lets the search enter tiles the grid reports as blocked,
// such as the desk a character sits at.
func WithPassable(positions ...layout.Position) Option {
	return func(o *options) {
		for _, pos := range positions {
			o.passable[pos] = struct{}{}
		}
	}
}

// WithBlocked excludes tiles held by dynamic obstacles
func WithBlocked(positions map[layout.Position]struct{}) Option {
	return func(o *options) {
		for pos := range positions {
			o.blocked[pos] = struct{}{}
		}
	}
}

// Find returns the steps from start to goal, excluding start and including
// goal. start == goal yields an empty path.
func Find(g Grid, start, goal layout.Position, opts ...Option) ([]layout.Position, error) {
	o := options{
		passable: make(map[layout.Position]struct{}),
		blocked:  make(map[layout.Position]struct{}),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if start == goal {
		return []layout.Position{}, nil
	}
	if !g.InBounds(start) || !o.enterable(g, goal) {
		return nil, ErrNoPath
	}

	cameFrom := map[layout.Position]layout.Position{start: start}
	queue := []layout.Position{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == goal {
			return unwind(cameFrom, start, goal), nil
		}
		for _, delta := range neighborOffsets {
			next := current.Add(delta)
			if _, seen := cameFrom[next]; seen {
				continue
			}
			if !o.enterable(g, next) {
				continue
			}
			cameFrom[next] = current
			queue = append(queue, next)
		}
	}
	return nil, ErrNoPath
}

func (o *options) enterable(g Grid, pos layout.Position) bool {
	if !g.InBounds(pos) {
		return false
	}
	if _, blocked := o.blocked[pos]; blocked {
		return false
	}
	if _, ok := o.passable[pos]; ok {
		return true
	}
	return g.IsWalkable(pos)
}

func unwind(cameFrom map[layout.Position]layout.Position, start, goal layout.Position) []layout.Position {
	var path []layout.Position
	for pos := goal; pos != start; pos = cameFrom[pos] {
		path = append(path, pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
