package engine

import (
	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/character"
	"github.com/wricardo/agent-office/game/layout"
)

// Snapshot is the render-ready state of an office after a tick.
// It shares no memory with the engine.
type Snapshot struct {
	Tick       uint64            `json:"tick"`
	Cols       int               `json:"cols"`
	Rows       int               `json:"rows"`
	Tiles      []layout.TileKind `json:"tiles"`
	Walls      []int             `json:"walls"`
	Furniture  []FurnitureView   `json:"furniture"`
	Characters []AgentView       `json:"characters"`
}

// FurnitureView is a placed instance with its sprite region, when known
type FurnitureView struct {
	layout.Furniture
	Sprite *catalog.Region `json:"sprite,omitempty"`
}

// AgentView is the render state of one character
type AgentView struct {
	ID       int                 `json:"id"`
	Pos      layout.Position     `json:"pos"`
	OffsetX  float64             `json:"offsetX"`
	OffsetY  float64             `json:"offsetY"`
	Facing   character.Direction `json:"facing"`
	State    character.State     `json:"state"`
	Frame    int                 `json:"frame"`
	Sprite   character.Sprite    `json:"sprite"`
	DeskID   string              `json:"deskId,omitempty"`
	Tool     string              `json:"tool,omitempty"`
	Active   bool                `json:"active"`
	Home     layout.Position     `json:"home"`
	Path     []layout.Position   `json:"path,omitempty"`
}

// Snapshot captures the current state for rendering
func (e *OfficeEngine) Snapshot() *Snapshot {
	cols, rows := e.grid.Size()
	doc := e.grid.Serialize()

	snap := &Snapshot{
		Tick:       e.tick,
		Cols:       cols,
		Rows:       rows,
		Tiles:      doc.Tiles,
		Walls:      e.grid.WallPieces(),
		Furniture:  make([]FurnitureView, 0, len(doc.Furniture)),
		Characters: e.Agents(),
	}
	for _, f := range e.grid.FurnitureList() {
		view := FurnitureView{Furniture: f}
		if region, ok := e.catalog.Sprite(f.TypeID); ok {
			r := region
			view.Sprite = &r
		}
		snap.Furniture = append(snap.Furniture, view)
	}
	return snap
}

func viewOf(c *character.Character) AgentView {
	return AgentView{
		ID:      c.ID,
		Pos:     c.Pos,
		OffsetX: c.OffsetX,
		OffsetY: c.OffsetY,
		Facing:  c.Facing,
		State:   c.State,
		Frame:   c.Frame,
		Sprite:  character.SpriteRegion(c.State, c.Frame, c.Facing),
		DeskID:  c.DeskID,
		Tool:    c.Tool,
		Active:  c.Active,
		Home:    c.Home,
		Path:    c.Path(),
	}
}
