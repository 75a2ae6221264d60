package engine

import (
	"fmt"
	"sort"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/character"
	"github.com/wricardo/agent-office/game/layout"
)

// Settings tunes movement and animation of an office
type Settings = character.Settings

// DefaultSettings returns the stock movement and animation settings
func DefaultSettings() Settings {
	return character.DefaultSettings()
}

// Engine provides the main interface for office operations
type Engine interface {
	// Agent events
	AddAgent(id int, deskHint string) bool
	RemoveAgent(id int) bool
	SetAgentActive(id int, active bool) bool
	SetAgentTool(id int, tool string) bool

	// Layout
	RebuildFromLayout(doc *layout.Document) error
	Layout() *layout.Document
	PlaceFurniture(p layout.Placement) error
	MoveFurniture(id string, x, y, rotation int) error
	RemoveFurniture(id string) bool

	// Simulation
	Update(dt float64)
	Snapshot() *Snapshot
	Tick() uint64

	// Inspection
	Agent(id int) (AgentView, bool)
	Agents() []AgentView
	Settings() Settings
	Catalog() *catalog.Catalog
}

// OfficeEngine implements the Engine interface.
// It is single threaded; callers serialize access.
type OfficeEngine struct {
	settings Settings
	catalog  *catalog.Catalog
	grid     *layout.Layout

	chars    map[int]*character.Character
	order    []int
	occupant map[layout.Position]int
	desks    map[string]int

	tick uint64
}

// NewEngine creates an office from a layout document. A nil document
// selects the built-in office and a nil catalog the built-in furniture.
func NewEngine(doc *layout.Document, cat *catalog.Catalog, settings Settings) (*OfficeEngine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if cat == nil {
		cat = catalog.New()
	}
	if doc == nil {
		doc = layout.DefaultDocument()
	}
	grid, err := layout.Deserialize(doc, cat)
	if err != nil {
		return nil, err
	}

	return &OfficeEngine{
		settings: settings,
		catalog:  cat,
		grid:     grid,
		chars:    make(map[int]*character.Character),
		occupant: make(map[layout.Position]int),
		desks:    make(map[string]int),
	}, nil
}

// NewEngineWithDefaults creates an office with the built-in layout, catalog and settings
func NewEngineWithDefaults() *OfficeEngine {
	e, err := NewEngine(nil, nil, DefaultSettings())
	if err != nil {
		panic(fmt.Sprintf("built-in office is invalid: %v", err))
	}
	return e
}

// AddAgent spawns a character. The desk hint is honored when it names a
// free desk; otherwise the first free desk in placement order is taken.
// Returns false for a duplicate id or a grid without free floor.
func (e *OfficeEngine) AddAgent(id int, deskHint string) bool {
	if _, exists := e.chars[id]; exists {
		return false
	}
	spawn, ok := e.findHome(id)
	if !ok {
		return false
	}

	c := character.New(id, spawn)
	e.chars[id] = c
	e.occupant[spawn] = id
	idx := sort.SearchInts(e.order, id)
	e.order = append(e.order, 0)
	copy(e.order[idx+1:], e.order[idx:])
	e.order[idx] = id

	if desk := e.pickDesk(deskHint); desk != "" {
		e.desks[desk] = id
		c.AssignDesk(desk)
	}
	return true
}

// RemoveAgent destroys a character, freeing its tile and desk
func (e *OfficeEngine) RemoveAgent(id int) bool {
	c, ok := e.chars[id]
	if !ok {
		return false
	}
	if e.occupant[c.Pos] == id {
		delete(e.occupant, c.Pos)
	}
	if c.DeskID != "" {
		delete(e.desks, c.DeskID)
	}
	delete(e.chars, id)
	for i, v := range e.order {
		if v == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.assignFreeDesks()
	return true
}

// SetAgentActive marks an agent working or idle. Unknown ids are ignored.
func (e *OfficeEngine) SetAgentActive(id int, active bool) bool {
	c, ok := e.chars[id]
	if !ok {
		return false
	}
	if active && c.DeskID == "" {
		if desk := e.pickDesk(""); desk != "" {
			e.desks[desk] = id
			c.AssignDesk(desk)
		}
	}
	c.SetActive(active)
	return true
}

// SetAgentTool records the tool in use; empty clears it. Unknown ids are ignored.
func (e *OfficeEngine) SetAgentTool(id int, tool string) bool {
	c, ok := e.chars[id]
	if !ok {
		return false
	}
	c.SetTool(tool)
	return true
}

// Update advances every character by one tick in ascending id order
func (e *OfficeEngine) Update(dt float64) {
	e.tick++
	w := simWorld{e: e}
	for _, id := range e.order {
		e.chars[id].Advance(w, dt, &e.settings)
	}
}

// Tick returns the number of updates run so far
func (e *OfficeEngine) Tick() uint64 {
	return e.tick
}

// Settings returns a copy of the office settings
func (e *OfficeEngine) Settings() Settings {
	out := e.settings
	out.Animations = make(map[character.State][]float64, len(e.settings.Animations))
	for state, frames := range e.settings.Animations {
		out.Animations[state] = append([]float64(nil), frames...)
	}
	return out
}

// Catalog returns the furniture catalog the office resolves types with
func (e *OfficeEngine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Agent returns a view of one character
func (e *OfficeEngine) Agent(id int) (AgentView, bool) {
	c, ok := e.chars[id]
	if !ok {
		return AgentView{}, false
	}
	return viewOf(c), true
}

// Agents returns views of every character sorted by id
func (e *OfficeEngine) Agents() []AgentView {
	out := make([]AgentView, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, viewOf(e.chars[id]))
	}
	return out
}

// findHome returns the first walkable tile in row-major order that is
// neither held by another character nor another character's home.
func (e *OfficeEngine) findHome(id int) (layout.Position, bool) {
	homes := make(map[layout.Position]bool, len(e.chars))
	for other, c := range e.chars {
		if other != id {
			homes[c.Home] = true
		}
	}

	cols, rows := e.grid.Size()
	var fallback *layout.Position
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pos := layout.Position{X: x, Y: y}
			if !e.grid.IsWalkable(pos) {
				continue
			}
			if holder, held := e.occupant[pos]; held && holder != id {
				continue
			}
			if !homes[pos] {
				return pos, true
			}
			if fallback == nil {
				p := pos
				fallback = &p
			}
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return layout.Position{}, false
}

// pickDesk returns the hinted desk when free, else the first free desk
func (e *OfficeEngine) pickDesk(hint string) string {
	if hint != "" {
		if f, ok := e.grid.Furniture(hint); ok && f.IsDesk {
			if _, taken := e.desks[hint]; !taken {
				return hint
			}
		}
	}
	for _, f := range e.grid.Desks() {
		if _, taken := e.desks[f.ID]; !taken {
			return f.ID
		}
	}
	return ""
}

func (e *OfficeEngine) assignFreeDesks() {
	for _, id := range e.order {
		c := e.chars[id]
		if c.DeskID != "" {
			continue
		}
		desk := e.pickDesk("")
		if desk == "" {
			return
		}
		e.desks[desk] = id
		c.AssignDesk(desk)
	}
}
