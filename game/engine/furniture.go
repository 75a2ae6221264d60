package engine

import (
	"fmt"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/layout"
)

// Layout returns the current layout document
func (e *OfficeEngine) Layout() *layout.Document {
	return e.grid.Serialize()
}

// PlaceFurniture adds an instance. Floor items may not cover a character.
func (e *OfficeEngine) PlaceFurniture(p layout.Placement) error {
	entry, ok := e.catalog.Lookup(p.TypeID)
	if !ok {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownType, p.TypeID)
	}
	if blocksFloor(entry) {
		w, h := layout.Footprint(entry, p.Rotation)
		if err := e.checkCharacters(p.ID, entry.ID, p.X, p.Y, w, h, -1); err != nil {
			return err
		}
	}
	if err := e.grid.Place(entry, p); err != nil {
		return err
	}
	e.afterLayoutEdit()
	return nil
}

// MoveFurniture relocates an instance. The owner of a moved desk may stand
// under its new footprint and walks to the new seat.
func (e *OfficeEngine) MoveFurniture(id string, x, y, rotation int) error {
	f, ok := e.grid.Furniture(id)
	if !ok {
		return &layout.PlacementError{ID: id, Pos: layout.Position{X: x, Y: y}, Reason: "unknown furniture"}
	}
	entry, ok := e.catalog.Lookup(f.TypeID)
	if !ok {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownType, f.TypeID)
	}

	owner, hasOwner := e.desks[id]
	if blocksFloor(entry) {
		allowed := -1
		if hasOwner {
			allowed = owner
		}
		w, h := layout.Footprint(entry, rotation)
		if err := e.checkCharacters(id, f.TypeID, x, y, w, h, allowed); err != nil {
			return err
		}
	}
	if err := e.grid.Move(id, x, y, rotation); err != nil {
		return err
	}

	if hasOwner {
		e.chars[owner].ReturnToDesk()
	}
	e.afterLayoutEdit()
	return nil
}

// RemoveFurniture deletes an instance; no-op for unknown ids. The owner of
// a removed desk moves to a free desk or, if none is left, walks home.
func (e *OfficeEngine) RemoveFurniture(id string) bool {
	if !e.grid.Remove(id) {
		return false
	}
	if owner, ok := e.desks[id]; ok {
		delete(e.desks, id)
		c := e.chars[owner]
		desk := e.pickDesk("")
		if desk != "" {
			e.desks[desk] = owner
		}
		c.AssignDesk(desk)
	}
	e.afterLayoutEdit()
	return true
}

// RebuildFromLayout swaps in a new layout. On error the office is unchanged.
// Characters keep their desks when the desk id survives; characters left
// inside furniture are moved to a free tile.
func (e *OfficeEngine) RebuildFromLayout(doc *layout.Document) error {
	grid, err := layout.Deserialize(doc, e.catalog)
	if err != nil {
		return err
	}
	e.grid = grid

	for _, id := range e.order {
		c := e.chars[id]
		if c.DeskID == "" {
			continue
		}
		if f, ok := grid.Furniture(c.DeskID); !ok || !f.IsDesk {
			delete(e.desks, c.DeskID)
			c.AssignDesk("")
		}
	}

	for _, id := range e.order {
		c := e.chars[id]
		if grid.IsWalkable(c.Pos) {
			continue
		}
		if seat, ok := (simWorld{e: e}).DeskSeat(c.DeskID); ok && seat == c.Pos && c.State.Working() {
			continue
		}
		home, ok := e.findHome(id)
		if !ok {
			continue
		}
		if e.occupant[c.Pos] == id {
			delete(e.occupant, c.Pos)
		}
		c.Pos = home
		e.occupant[home] = id
		c.Halt()
		if c.Active {
			c.SetActive(true)
		}
	}

	for _, id := range e.order {
		c := e.chars[id]
		if seat, ok := (simWorld{e: e}).DeskSeat(c.DeskID); ok && c.State.Working() && seat != c.Pos {
			c.ReturnToDesk()
		}
	}

	e.afterLayoutEdit()
	return nil
}

// afterLayoutEdit re-homes characters whose break tile got covered, hands
// out desks that became free and asks walkers to re-plan.
func (e *OfficeEngine) afterLayoutEdit() {
	for _, id := range e.order {
		c := e.chars[id]
		if e.grid.IsWalkable(c.Home) {
			continue
		}
		if home, ok := e.findHome(id); ok {
			c.SetHome(home)
		}
	}
	e.assignFreeDesks()
	for _, id := range e.order {
		e.chars[id].Replan()
	}
}

// checkCharacters rejects a footprint covering any character except allowed
func (e *OfficeEngine) checkCharacters(id, typeID string, x, y, w, h, allowed int) error {
	for ty := y; ty < y+h; ty++ {
		for tx := x; tx < x+w; tx++ {
			pos := layout.Position{X: tx, Y: ty}
			if holder, ok := e.occupant[pos]; ok && holder != allowed {
				return &layout.PlacementError{
					ID:     id,
					TypeID: typeID,
					Pos:    layout.Position{X: x, Y: y},
					Reason: fmt.Sprintf("agent %d stands at (%d,%d)", holder, tx, ty),
				}
			}
		}
	}
	return nil
}

func blocksFloor(entry catalog.Entry) bool {
	return !entry.CanPlaceOnWalls && !entry.CanPlaceOnSurfaces
}
