package pathfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/layout"
)

func openGrid(t *testing.T, cols, rows int) *layout.Layout {
	t.Helper()
	l, err := layout.New(cols, rows, layout.TileFloor)
	require.NoError(t, err)
	return l
}

func pos(x, y int) layout.Position {
	return layout.Position{X: x, Y: y}
}

func TestFindStraightLine(t *testing.T) {
	g := openGrid(t, 5, 1)

	path, err := Find(g, pos(0, 0), pos(4, 0))
	require.NoError(t, err)
	assert.Equal(t, []layout.Position{pos(1, 0), pos(2, 0), pos(3, 0), pos(4, 0)}, path)
}

func TestFindSameTile(t *testing.T) {
	path, err := Find(openGrid(t, 3, 3), pos(1, 1), pos(1, 1))
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestFindTieBreakIsDeterministic(t *testing.T) {
	g := openGrid(t, 3, 3)

	// down is expanded before right
	path, err := Find(g, pos(0, 0), pos(1, 1))
	require.NoError(t, err)
	assert.Equal(t, []layout.Position{pos(0, 1), pos(1, 1)}, path)

	for i := 0; i < 10; i++ {
		again, err := Find(g, pos(0, 0), pos(2, 2))
		require.NoError(t, err)
		first, _ := Find(g, pos(0, 0), pos(2, 2))
		assert.Equal(t, first, again)
	}
}

func TestFindAroundFurniture(t *testing.T) {
	g := openGrid(t, 5, 3)
	wall := catalog.Entry{ID: "partition", FootprintW: 1, FootprintH: 2}
	require.NoError(t, g.Place(wall, layout.Placement{ID: "p", X: 2, Y: 0}))

	path, err := Find(g, pos(0, 0), pos(4, 0))
	require.NoError(t, err)
	assert.Len(t, path, 8)
	for _, step := range path {
		assert.True(t, g.IsWalkable(step), "step %v", step)
	}
}

func TestFindUnreachable(t *testing.T) {
	g := openGrid(t, 5, 1)
	require.NoError(t, g.SetTile(pos(2, 0), layout.TileWall))

	_, err := Find(g, pos(0, 0), pos(4, 0))
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = Find(g, pos(0, 0), pos(9, 0))
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestFindPassableGoal(t *testing.T) {
	g := openGrid(t, 10, 10)
	desk, _ := catalog.New().Lookup("desk")
	require.NoError(t, g.Place(desk, layout.Placement{ID: "d", X: 5, Y: 5}))

	_, err := Find(g, pos(0, 0), pos(5, 5))
	require.ErrorIs(t, err, ErrNoPath)

	path, err := Find(g, pos(0, 0), pos(5, 5), WithPassable(pos(5, 5)))
	require.NoError(t, err)
	assert.Len(t, path, 10)
	assert.Equal(t, pos(5, 5), path[len(path)-1])
}

func TestFindWithBlocked(t *testing.T) {
	g := openGrid(t, 3, 2)
	blocked := map[layout.Position]struct{}{pos(1, 0): {}}

	path, err := Find(g, pos(0, 0), pos(2, 0), WithBlocked(blocked))
	require.NoError(t, err)
	assert.Equal(t, []layout.Position{pos(0, 1), pos(1, 1), pos(2, 1), pos(2, 0)}, path)

	blocked[pos(1, 1)] = struct{}{}
	_, err = Find(g, pos(0, 0), pos(2, 0), WithBlocked(blocked))
	assert.ErrorIs(t, err, ErrNoPath)
}
