package character

import (
	"math"

	"github.com/wricardo/agent-office/game/layout"
)

// Advance runs one tick: movement first, then animation.
func (c *Character) Advance(w World, dt float64, s *Settings) {
	if c.State == Walking {
		c.walk(w, s)
	}
	c.animate(dt, s)
}

func (c *Character) walk(w World, s *Settings) {
	if c.replan {
		c.replan = false
		if !c.plan(w, false) {
			return
		}
	}

	c.progress += s.StepsPerTick
	for c.State == Walking {
		if len(c.path) == 0 {
			c.arrive()
			return
		}
		if c.progress < 1 {
			break
		}

		next := c.path[0]
		if next != c.goal && !w.Walkable(next) {
			// furniture moved into the route
			if !c.plan(w, false) {
				return
			}
			if len(c.path) == 0 {
				continue
			}
			next = c.path[0]
		}

		if other, ok := w.OccupiedBy(next); ok && other != c.ID {
			c.stalls++
			c.progress = math.Max(0, 1-s.StepsPerTick)
			if c.stalls >= s.StallLimit {
				c.stalls = 0
				c.plan(w, true)
			}
			break
		}

		c.stalls = 0
		c.Facing = facingFor(next.X-c.Pos.X, next.Y-c.Pos.Y, c.Facing)
		w.Move(c, next)
		c.path = c.path[1:]
		c.progress--
	}
	c.updateOffset()
}

// plan routes to the current goal; failure leaves the character idle in place
func (c *Character) plan(w World, avoidCharacters bool) bool {
	goal, ok := c.resolveGoal(w)
	if !ok {
		c.Halt()
		return false
	}
	path, err := w.Plan(c.ID, c.Pos, goal, avoidCharacters)
	if err != nil {
		c.Halt()
		return false
	}
	c.goal = goal
	c.path = path
	return true
}

func (c *Character) resolveGoal(w World) (layout.Position, bool) {
	switch c.goalKind {
	case goalDesk:
		if c.DeskID == "" {
			return layout.Position{}, false
		}
		return w.DeskSeat(c.DeskID)
	case goalHome:
		return c.Home, true
	default:
		return layout.Position{}, false
	}
}

func (c *Character) arrive() {
	kind := c.goalKind
	c.path = nil
	c.goalKind = goalNone
	c.progress = 0
	c.stalls = 0
	c.OffsetX, c.OffsetY = 0, 0
	if kind == goalDesk {
		c.setState(workState(c.Tool))
		return
	}
	c.setState(Idle)
}

// updateOffset places the character between its tile and the next step
func (c *Character) updateOffset() {
	c.OffsetX, c.OffsetY = 0, 0
	if c.State != Walking || len(c.path) == 0 || c.progress <= 0 {
		return
	}
	next := c.path[0]
	dx, dy := next.X-c.Pos.X, next.Y-c.Pos.Y
	c.Facing = facingFor(dx, dy, c.Facing)
	c.OffsetX = c.progress * float64(dx)
	c.OffsetY = c.progress * float64(dy)
}
