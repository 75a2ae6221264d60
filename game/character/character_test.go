package character

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/pathfind"
)

type testWorld struct {
	grid  *layout.Layout
	seats map[string]layout.Position
	chars map[layout.Position]int
}

func newTestWorld(t *testing.T, cols, rows int) *testWorld {
	t.Helper()
	grid, err := layout.New(cols, rows, layout.TileFloor)
	require.NoError(t, err)
	return &testWorld{
		grid:  grid,
		seats: make(map[string]layout.Position),
		chars: make(map[layout.Position]int),
	}
}

func (w *testWorld) Walkable(pos layout.Position) bool {
	return w.grid.IsWalkable(pos)
}

func (w *testWorld) OccupiedBy(pos layout.Position) (int, bool) {
	id, ok := w.chars[pos]
	return id, ok
}

func (w *testWorld) Plan(self int, from, goal layout.Position, avoidCharacters bool) ([]layout.Position, error) {
	opts := []pathfind.Option{pathfind.WithPassable(goal)}
	if avoidCharacters {
		blocked := make(map[layout.Position]struct{})
		for pos, id := range w.chars {
			if id != self {
				blocked[pos] = struct{}{}
			}
		}
		opts = append(opts, pathfind.WithBlocked(blocked))
	}
	return pathfind.Find(w.grid, from, goal, opts...)
}

func (w *testWorld) DeskSeat(deskID string) (layout.Position, bool) {
	pos, ok := w.seats[deskID]
	return pos, ok
}

func (w *testWorld) Move(c *Character, to layout.Position) {
	delete(w.chars, c.Pos)
	c.Pos = to
	w.chars[to] = c.ID
}

func (w *testWorld) spawn(id int, pos layout.Position) *Character {
	w.chars[pos] = id
	return New(id, pos)
}

func (w *testWorld) addDesk(t *testing.T, id string, pos layout.Position) {
	t.Helper()
	desk, ok := catalog.New().Lookup("desk")
	require.True(t, ok)
	require.NoError(t, w.grid.Place(desk, layout.Placement{ID: id, X: pos.X, Y: pos.Y}))
	w.seats[id] = pos
}

func pos(x, y int) layout.Position {
	return layout.Position{X: x, Y: y}
}

const frame = 1.0 / 60

func TestActiveCharacterReachesDeskInPathLengthTicks(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	w.addDesk(t, "desk", pos(5, 5))
	c := w.spawn(1, pos(0, 0))
	s := DefaultSettings()

	c.AssignDesk("desk")
	assert.Equal(t, Idle, c.State, "inactive agents stay put")

	c.SetActive(true)
	require.Equal(t, Walking, c.State)

	path, err := w.Plan(c.ID, c.Pos, pos(5, 5), false)
	require.NoError(t, err)
	require.Len(t, path, 10)

	for i := 0; i < len(path)-1; i++ {
		c.Advance(w, frame, &s)
		require.Equal(t, Walking, c.State, "tick %d", i+1)
		assert.Equal(t, path[i], c.Pos)
	}
	c.Advance(w, frame, &s)

	assert.Equal(t, Typing, c.State)
	assert.Equal(t, pos(5, 5), c.Pos)
	assert.Zero(t, c.OffsetX)
	assert.Zero(t, c.OffsetY)
}

func TestToolSelectsSeatedSubState(t *testing.T) {
	w := newTestWorld(t, 4, 4)
	w.addDesk(t, "desk", pos(1, 1))
	c := w.spawn(1, pos(0, 0))
	s := DefaultSettings()
	c.AssignDesk("desk")
	c.SetTool("Grep")
	c.SetActive(true)

	for i := 0; i < 5 && c.State == Walking; i++ {
		c.Advance(w, frame, &s)
	}
	require.Equal(t, Reading, c.State, "read-like tool on arrival")

	c.SetTool("Edit")
	assert.Equal(t, Typing, c.State)
	c.SetTool("webfetch")
	assert.Equal(t, Reading, c.State)
	c.SetTool("")
	assert.Equal(t, Waiting, c.State)
	c.SetTool("Bash")
	assert.Equal(t, Typing, c.State)
}

func TestSetToolOutsideDeskOnlyRecords(t *testing.T) {
	c := New(1, pos(0, 0))
	c.SetTool("Read")
	assert.Equal(t, Idle, c.State)
	assert.Equal(t, "Read", c.Tool)
	c.SetTool("")
	assert.Equal(t, Idle, c.State)
}

func TestInactiveWalksHome(t *testing.T) {
	w := newTestWorld(t, 6, 6)
	w.addDesk(t, "desk", pos(4, 4))
	c := w.spawn(1, pos(0, 0))
	s := DefaultSettings()
	c.AssignDesk("desk")
	c.SetActive(true)
	for i := 0; i < 20 && c.State == Walking; i++ {
		c.Advance(w, frame, &s)
	}
	require.Equal(t, Typing, c.State)

	c.SetActive(false)
	require.Equal(t, Walking, c.State)
	for i := 0; i < 20 && c.State == Walking; i++ {
		c.Advance(w, frame, &s)
	}
	assert.Equal(t, Idle, c.State)
	assert.Equal(t, c.Home, c.Pos)
	assert.Equal(t, pos(0, 0), c.Pos)
}

func TestActiveWithoutDeskStaysIdle(t *testing.T) {
	c := New(1, pos(0, 0))
	c.SetActive(true)
	assert.True(t, c.Active)
	assert.Equal(t, Idle, c.State)

	c.SetActive(false)
	assert.Equal(t, Idle, c.State, "already home")
}

func TestUnreachableGoalFallsBackToIdle(t *testing.T) {
	w := newTestWorld(t, 5, 1)
	require.NoError(t, w.grid.SetTile(pos(2, 0), layout.TileWall))
	c := w.spawn(1, pos(0, 0))
	s := DefaultSettings()

	c.Home = pos(4, 0)
	c.SetActive(false)
	require.Equal(t, Walking, c.State)

	c.Advance(w, frame, &s)
	assert.Equal(t, Idle, c.State)
	assert.Equal(t, pos(0, 0), c.Pos)
}

func TestFurnitureInPathTriggersReplan(t *testing.T) {
	w := newTestWorld(t, 5, 3)
	c := w.spawn(1, pos(0, 1))
	s := DefaultSettings()
	c.Home = pos(4, 1)
	c.SetActive(false)

	c.Advance(w, frame, &s)
	require.Equal(t, pos(1, 1), c.Pos)

	plant, _ := catalog.New().Lookup("plant")
	require.NoError(t, w.grid.Place(plant, layout.Placement{ID: "p", X: 2, Y: 1}))

	c.Advance(w, frame, &s)
	assert.Equal(t, Walking, c.State)
	assert.Equal(t, pos(1, 0), c.Pos, "detour starts upward")

	for i := 0; i < 10 && c.State == Walking; i++ {
		c.Advance(w, frame, &s)
	}
	assert.Equal(t, Idle, c.State)
	assert.Equal(t, pos(4, 1), c.Pos)
}

func TestFurnitureSealingPathHalts(t *testing.T) {
	w := newTestWorld(t, 5, 1)
	c := w.spawn(1, pos(0, 0))
	s := DefaultSettings()
	c.Home = pos(4, 0)
	c.SetActive(false)

	c.Advance(w, frame, &s)
	require.Equal(t, pos(1, 0), c.Pos)

	plant, _ := catalog.New().Lookup("plant")
	require.NoError(t, w.grid.Place(plant, layout.Placement{ID: "p", X: 2, Y: 0}))

	c.Advance(w, frame, &s)
	assert.Equal(t, Idle, c.State)
	assert.Equal(t, pos(1, 0), c.Pos)
}

func TestBlockedByCharacterStallsThenDetours(t *testing.T) {
	w := newTestWorld(t, 5, 3)
	w.spawn(1, pos(2, 1))
	c := w.spawn(2, pos(0, 1))
	s := DefaultSettings()
	s.StallLimit = 3
	c.Home = pos(4, 1)
	c.SetActive(false)

	c.Advance(w, frame, &s)
	require.Equal(t, pos(1, 1), c.Pos)

	for i := 1; i < s.StallLimit; i++ {
		c.Advance(w, frame, &s)
		assert.Equal(t, pos(1, 1), c.Pos, "stalled tick %d", i)
		assert.Equal(t, i, c.Stalls())
		assert.Equal(t, Walking, c.State)
	}

	c.Advance(w, frame, &s)
	assert.Equal(t, pos(1, 1), c.Pos)
	assert.Zero(t, c.Stalls())
	assert.NotContains(t, c.Path(), pos(2, 1))

	for i := 0; i < 10 && c.State == Walking; i++ {
		c.Advance(w, frame, &s)
		assert.NotEqual(t, pos(2, 1), c.Pos)
	}
	assert.Equal(t, Idle, c.State)
	assert.Equal(t, pos(4, 1), c.Pos)
}

func TestFacingFollowsMovement(t *testing.T) {
	w := newTestWorld(t, 3, 1)
	c := w.spawn(1, pos(0, 0))
	s := DefaultSettings()
	c.Home = pos(2, 0)
	c.SetActive(false)

	c.Advance(w, frame, &s)
	assert.Equal(t, Right, c.Facing)

	c.SetHome(pos(0, 0))
	c.Advance(w, frame, &s)
	assert.Equal(t, Left, c.Facing)
	assert.Equal(t, pos(0, 0), c.Pos)
}

func TestFractionalSpeedProducesOffsets(t *testing.T) {
	w := newTestWorld(t, 3, 1)
	c := w.spawn(1, pos(0, 0))
	s := DefaultSettings()
	s.StepsPerTick = 0.5
	c.Home = pos(2, 0)
	c.SetActive(false)

	c.Advance(w, frame, &s)
	assert.Equal(t, pos(0, 0), c.Pos)
	assert.InDelta(t, 0.5, c.OffsetX, 1e-9)

	c.Advance(w, frame, &s)
	assert.Equal(t, pos(1, 0), c.Pos)
	assert.InDelta(t, 0, c.OffsetX, 1e-9)
}

func TestAnimationLoops(t *testing.T) {
	s := DefaultSettings()
	s.Animations = map[State][]float64{Walking: {0.25, 0.25, 0.25, 0.25}}
	require.NoError(t, s.Validate())

	c := New(1, pos(0, 0))
	c.State = Walking

	c.animate(0.25, &s)
	assert.Equal(t, 1, c.Frame)
	c.animate(0.5, &s)
	assert.Equal(t, 3, c.Frame)
	c.animate(0.5, &s)
	assert.Equal(t, 1, c.Frame, "wraps after a full cycle")
	assert.InDelta(t, 0.25, c.AnimTime, 1e-9)

	c.setState(Typing)
	assert.Zero(t, c.AnimTime)
	assert.Zero(t, c.Frame)
}

func TestSpriteRegion(t *testing.T) {
	right := SpriteRegion(Walking, 2, Right)
	left := SpriteRegion(Walking, 2, Left)
	assert.Equal(t, right.X, left.X)
	assert.Equal(t, right.Row, left.Row)
	assert.False(t, right.Mirror)
	assert.True(t, left.Mirror)

	up := SpriteRegion(Typing, 1, Up)
	assert.Equal(t, Sprite{Col: 4, Row: 1, X: 4 * CellWidth, Y: CellHeight, W: CellWidth, H: CellHeight}, up)

	// frames beyond the sheet wrap
	assert.Equal(t, SpriteRegion(Walking, 0, Down), SpriteRegion(Walking, 4, Down))
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	bad := DefaultSettings()
	bad.StepsPerTick = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSettings)

	bad = DefaultSettings()
	bad.StallLimit = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSettings)

	bad = DefaultSettings()
	bad.Animations = map[State][]float64{Idle: {0.5, -1}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSettings)

	partial := Settings{StepsPerTick: 1, StallLimit: 2, Animations: map[State][]float64{Idle: {2}}}
	require.NoError(t, partial.Validate())
	assert.Equal(t, []float64{2}, partial.Animations[Idle])
	assert.Len(t, partial.Animations[Walking], 4)
}

func TestIsReadTool(t *testing.T) {
	for _, name := range []string{"Read", "grep", "GLOB", "WebFetch", "WebSearch", " Read "} {
		assert.True(t, IsReadTool(name), name)
	}
	for _, name := range []string{"", "Edit", "Write", "Bash", "Task"} {
		assert.False(t, IsReadTool(name), name)
	}
}
