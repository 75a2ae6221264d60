package character

import (
	"github.com/wricardo/agent-office/game/layout"
)

type goalKind int

const (
	goalNone goalKind = iota
	goalDesk
	goalHome
)

// World is what a character needs from the office while it moves
type World interface {
	// Walkable reports terrain and furniture only
	Walkable(pos layout.Position) bool
	// OccupiedBy returns the character standing on pos
	OccupiedBy(pos layout.Position) (int, bool)
	// Plan routes self from one tile to another. With avoidCharacters set,
	// tiles held by other characters count as blocked.
	Plan(self int, from, goal layout.Position, avoidCharacters bool) ([]layout.Position, error)
	// DeskSeat returns the tile a character occupies while working at a desk
	DeskSeat(deskID string) (layout.Position, bool)
	// Move updates the character occupancy index and c.Pos
	Move(c *Character, to layout.Position)
}

// Character is one animated agent
type Character struct {
	ID       int
	Pos      layout.Position
	OffsetX  float64
	OffsetY  float64
	Facing   Direction
	State    State
	Frame    int
	AnimTime float64
	DeskID   string
	Tool     string
	Active   bool
	Home     layout.Position

	path     []layout.Position
	goal     layout.Position
	goalKind goalKind
	progress float64
	stalls   int
	replan   bool
}

// New creates an idle character facing down at spawn, which is also its home
func New(id int, spawn layout.Position) *Character {
	return &Character{
		ID:     id,
		Pos:    spawn,
		Home:   spawn,
		Facing: Down,
		State:  Idle,
	}
}

// Path returns a copy of the remaining planned steps
func (c *Character) Path() []layout.Position {
	return append([]layout.Position(nil), c.path...)
}

// Goal returns the current walking destination
func (c *Character) Goal() (layout.Position, bool) {
	if c.goalKind == goalNone {
		return layout.Position{}, false
	}
	return c.goal, true
}

// HeadingToDesk is true while walking to the assigned desk
func (c *Character) HeadingToDesk() bool {
	return c.State == Walking && c.goalKind == goalDesk
}

// Stalls returns the consecutive ticks the next step has been blocked
func (c *Character) Stalls() int {
	return c.stalls
}

// SetActive records whether the agent is working and starts the walk
// that follows from it.
func (c *Character) SetActive(active bool) {
	c.Active = active
	if active {
		if c.DeskID == "" {
			return
		}
		switch {
		case c.State == Idle, c.State == Waiting:
			c.startWalk(goalDesk)
		case c.State == Walking && c.goalKind != goalDesk:
			c.startWalk(goalDesk)
		}
		return
	}

	switch {
	case c.State == Idle && c.Pos == c.Home:
	case c.State == Walking && c.goalKind == goalHome:
	default:
		c.startWalk(goalHome)
	}
}

// SetTool switches between the seated sub-states. An empty name clears the tool.
func (c *Character) SetTool(name string) {
	c.Tool = name
	switch c.State {
	case Typing, Reading:
		if name == "" {
			c.setState(Waiting)
			return
		}
		c.setState(workState(name))
	case Waiting:
		if name != "" {
			c.setState(workState(name))
		}
	}
}

// AssignDesk binds or releases a desk, walking to the new seat when the
// character was working or heading to work.
func (c *Character) AssignDesk(deskID string) {
	bound := c.State.Working() || c.HeadingToDesk()
	c.DeskID = deskID
	if deskID == "" {
		if bound {
			c.startWalk(goalHome)
		}
		return
	}
	if bound || (c.Active && c.State == Idle) {
		c.startWalk(goalDesk)
	}
}

// ReturnToDesk walks back to the seat after the desk moved
func (c *Character) ReturnToDesk() {
	if c.DeskID == "" {
		return
	}
	if c.State.Working() || c.HeadingToDesk() {
		c.startWalk(goalDesk)
	}
}

// SetHome changes the break tile; a character heading home retargets
func (c *Character) SetHome(home layout.Position) {
	c.Home = home
	if c.State == Walking && c.goalKind == goalHome {
		c.replan = true
	}
}

// Replan asks for a fresh route on the next tick
func (c *Character) Replan() {
	if c.State == Walking {
		c.replan = true
	}
}

// Halt stops in place and goes idle
func (c *Character) Halt() {
	c.path = nil
	c.goalKind = goalNone
	c.progress = 0
	c.stalls = 0
	c.replan = false
	c.OffsetX, c.OffsetY = 0, 0
	c.setState(Idle)
}

func (c *Character) startWalk(kind goalKind) {
	c.setState(Walking)
	c.goalKind = kind
	c.path = nil
	c.progress = 0
	c.stalls = 0
	c.replan = true
	c.OffsetX, c.OffsetY = 0, 0
}

func (c *Character) setState(s State) {
	if c.State == s {
		return
	}
	c.State = s
	c.Frame = 0
	c.AnimTime = 0
}
