package engine

import (
	"github.com/wricardo/agent-office/game/character"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/pathfind"
)

// simWorld is the character.World view of an office
type simWorld struct {
	e *OfficeEngine
}

func (w simWorld) Walkable(pos layout.Position) bool {
	return w.e.grid.IsWalkable(pos)
}

func (w simWorld) OccupiedBy(pos layout.Position) (int, bool) {
	id, ok := w.e.occupant[pos]
	return id, ok
}

func (w simWorld) Plan(self int, from, goal layout.Position, avoidCharacters bool) ([]layout.Position, error) {
	opts := []pathfind.Option{pathfind.WithPassable(goal)}
	if avoidCharacters {
		blocked := make(map[layout.Position]struct{}, len(w.e.occupant))
		for pos, id := range w.e.occupant {
			if id != self {
				blocked[pos] = struct{}{}
			}
		}
		opts = append(opts, pathfind.WithBlocked(blocked))
	}
	return pathfind.Find(w.e.grid, from, goal, opts...)
}

// DeskSeat is the desk anchor tile
func (w simWorld) DeskSeat(deskID string) (layout.Position, bool) {
	if deskID == "" {
		return layout.Position{}, false
	}
	f, ok := w.e.grid.Furniture(deskID)
	if !ok || !f.IsDesk {
		return layout.Position{}, false
	}
	return f.Anchor(), true
}

func (w simWorld) Move(c *character.Character, to layout.Position) {
	if w.e.occupant[c.Pos] == c.ID {
		delete(w.e.occupant, c.Pos)
	}
	c.Pos = to
	w.e.occupant[to] = c.ID
}
