package layout

import (
	"errors"
	"fmt"

	"github.com/wricardo/agent-office/game/catalog"
)

var (
	ErrPlacement       = errors.New("invalid furniture placement")
	ErrMalformedLayout = errors.New("malformed layout")
)

// PlacementError describes a rejected Place or Move
type PlacementError struct {
	ID     string
	TypeID string
	Pos    Position
	Reason string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("cannot place %q (%s) at (%d,%d): %s", e.ID, e.TypeID, e.Pos.X, e.Pos.Y, e.Reason)
}

func (e *PlacementError) Unwrap() error {
	return ErrPlacement
}

// Footprint returns the rotated width and height of an entry
func Footprint(entry catalog.Entry, rotation int) (w, h int) {
	if rotation == 90 || rotation == 270 {
		return entry.FootprintH, entry.FootprintW
	}
	return entry.FootprintW, entry.FootprintH
}

func validRotation(r int) bool {
	return r == 0 || r == 90 || r == 180 || r == 270
}

// Place adds a furniture instance. On error the layout is unchanged.
func (l *Layout) Place(entry catalog.Entry, p Placement) error {
	f, err := l.check(entry, p)
	if err != nil {
		return err
	}
	l.mark(f)
	l.order = append(l.order, f.ID)
	return nil
}

// Remove deletes an instance and reports whether it existed.
// Surface items resting on a removed desk go with it.
func (l *Layout) Remove(id string) bool {
	f, ok := l.furniture[id]
	if !ok {
		return false
	}
	if f.IsDesk {
		for _, rider := range l.Riders(id) {
			l.unmark(rider)
			l.dropOrder(rider.ID)
		}
	}
	l.unmark(*f)
	l.dropOrder(id)
	return true
}

// Riders returns the surface items resting on a desk, in placement order
func (l *Layout) Riders(deskID string) []Furniture {
	var out []Furniture
	for _, id := range l.order {
		if f := l.furniture[id]; f.OnSurface && f.Host == deskID {
			out = append(out, *f)
		}
	}
	return out
}

// Move relocates and optionally rotates an instance. Items resting on a
// moved desk travel and turn with it. A surface item moved onto another
// desk is reordered after that desk. Failure restores the previous placement.
func (l *Layout) Move(id string, x, y, rotation int) error {
	f, ok := l.furniture[id]
	if !ok {
		return &PlacementError{ID: id, Pos: Position{X: x, Y: y}, Reason: "unknown furniture"}
	}

	backup := l.Clone()
	old := *f
	riders := l.Riders(id)
	for _, rider := range riders {
		l.unmark(rider)
	}
	l.unmark(old)

	moved, err := l.check(old.entry, Placement{ID: id, TypeID: old.TypeID, X: x, Y: y, Rotation: rotation})
	if err != nil {
		*l = *backup
		return err
	}
	l.mark(moved)
	if moved.OnSurface {
		l.orderAfter(id, moved.Host)
	}

	turns := ((rotation-old.Rotation)/90 + 4) % 4
	for _, rider := range riders {
		rel := rotateRect(Position{X: rider.X - old.X, Y: rider.Y - old.Y}, rider.Width, rider.Height, old.Width, old.Height, turns)
		placed, err := l.check(rider.entry, Placement{
			ID:       rider.ID,
			TypeID:   rider.TypeID,
			X:        x + rel.X,
			Y:        y + rel.Y,
			Rotation: (rider.Rotation + turns*90) % 360,
		})
		if err != nil {
			*l = *backup
			return err
		}
		l.mark(placed)
	}
	return nil
}

// rotateRect turns the rw x rh rectangle at offset rel clockwise inside a
// w x h box and returns its new top-left offset
func rotateRect(rel Position, rw, rh, w, h, turns int) Position {
	for i := 0; i < turns; i++ {
		rel = Position{X: h - rel.Y - rh, Y: rel.X}
		w, h = h, w
		rw, rh = rh, rw
	}
	return rel
}

func (l *Layout) check(entry catalog.Entry, p Placement) (*Furniture, error) {
	fail := func(format string, args ...interface{}) error {
		return &PlacementError{
			ID:     p.ID,
			TypeID: entry.ID,
			Pos:    Position{X: p.X, Y: p.Y},
			Reason: fmt.Sprintf(format, args...),
		}
	}

	if p.ID == "" {
		return nil, fail("id is required")
	}
	if p.TypeID != "" && p.TypeID != entry.ID {
		return nil, fail("type %q does not match entry %q", p.TypeID, entry.ID)
	}
	if err := catalog.Validate(entry); err != nil {
		return nil, fail("%v", err)
	}
	if _, exists := l.furniture[p.ID]; exists {
		return nil, fail("id already in use")
	}
	if !validRotation(p.Rotation) {
		return nil, fail("rotation %d is not a multiple of 90", p.Rotation)
	}

	w, h := Footprint(entry, p.Rotation)
	f := &Furniture{
		ID:        p.ID,
		TypeID:    entry.ID,
		X:         p.X,
		Y:         p.Y,
		Width:     w,
		Height:    h,
		Rotation:  p.Rotation,
		IsDesk:    entry.IsDesk,
		OnWall:    entry.CanPlaceOnWalls,
		OnSurface: entry.CanPlaceOnSurfaces,
		entry:     entry,
	}

	for _, pos := range f.Tiles() {
		if !l.InBounds(pos) {
			return nil, fail("footprint leaves the grid at (%d,%d)", pos.X, pos.Y)
		}
		i := l.index(pos)
		switch {
		case f.OnWall:
			if l.tiles[i] != TileWall {
				return nil, fail("tile (%d,%d) is not a wall", pos.X, pos.Y)
			}
			if l.occupancy[i] != "" {
				return nil, fail("tile (%d,%d) is occupied by %q", pos.X, pos.Y, l.occupancy[i])
			}
		case f.OnSurface:
			host, ok := l.furniture[l.occupancy[i]]
			if !ok || !host.IsDesk {
				return nil, fail("tile (%d,%d) is not a desk surface", pos.X, pos.Y)
			}
			if f.Host != "" && f.Host != host.ID {
				return nil, fail("footprint spans more than one desk")
			}
			f.Host = host.ID
			if l.surface[i] != "" {
				return nil, fail("surface at (%d,%d) is occupied by %q", pos.X, pos.Y, l.surface[i])
			}
		default:
			if l.tiles[i] != TileFloor {
				return nil, fail("tile (%d,%d) is not floor", pos.X, pos.Y)
			}
			if l.occupancy[i] != "" {
				return nil, fail("tile (%d,%d) is occupied by %q", pos.X, pos.Y, l.occupancy[i])
			}
		}
	}
	return f, nil
}

func (l *Layout) mark(f *Furniture) {
	for _, pos := range f.Tiles() {
		if f.OnSurface {
			l.surface[l.index(pos)] = f.ID
		} else {
			l.occupancy[l.index(pos)] = f.ID
		}
	}
	l.furniture[f.ID] = f
}

func (l *Layout) unmark(f Furniture) {
	for _, pos := range f.Tiles() {
		i := l.index(pos)
		if l.occupancy[i] == f.ID {
			l.occupancy[i] = ""
		}
		if l.surface[i] == f.ID {
			l.surface[i] = ""
		}
	}
	delete(l.furniture, f.ID)
}

// orderAfter moves id behind host in placement order when it precedes it
func (l *Layout) orderAfter(id, host string) {
	pos, hostPos := -1, -1
	for i, v := range l.order {
		switch v {
		case id:
			pos = i
		case host:
			hostPos = i
		}
	}
	if pos < 0 || hostPos < 0 || pos > hostPos {
		return
	}
	l.dropOrder(id)
	rest := append([]string{id}, l.order[hostPos:]...)
	l.order = append(l.order[:hostPos], rest...)
}

func (l *Layout) dropOrder(id string) {
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}
