package layout

// Neighbor bits of a wall mask
const (
	WallNorth uint8 = 1 << iota
	WallEast
	WallSouth
	WallWest
)

// WallPiece indexes the wall sprite atlas
type WallPiece int

const (
	WallPillar WallPiece = iota
	WallHorizontal
	WallVertical
	WallEndNorth
	WallEndSouth
	WallEndEast
	WallEndWest
	WallCornerNW
	WallCornerNE
	WallCornerSW
	WallCornerSE
	WallTeeNorth
	WallTeeSouth
	WallTeeEast
	WallTeeWest
	WallCross
)

var wallPieceNames = [...]string{
	"pillar", "horizontal", "vertical",
	"end-north", "end-south", "end-east", "end-west",
	"corner-nw", "corner-ne", "corner-sw", "corner-se",
	"tee-north", "tee-south", "tee-east", "tee-west",
	"cross",
}

func (p WallPiece) String() string {
	if p < 0 || int(p) >= len(wallPieceNames) {
		return "unknown"
	}
	return wallPieceNames[p]
}

// wallPieces maps the N|E|S|W neighbor mask to an atlas piece.
// End pieces are named after their free end and corners after their
// place in a rectangle. Tees point their stem in the named direction.
var wallPieces = [16]WallPiece{
	0:                                           WallPillar,
	WallNorth:                                   WallEndSouth,
	WallEast:                                    WallEndWest,
	WallNorth | WallEast:                        WallCornerSW,
	WallSouth:                                   WallEndNorth,
	WallNorth | WallSouth:                       WallVertical,
	WallEast | WallSouth:                        WallCornerNW,
	WallNorth | WallEast | WallSouth:            WallTeeEast,
	WallWest:                                    WallEndEast,
	WallNorth | WallWest:                        WallCornerSE,
	WallEast | WallWest:                         WallHorizontal,
	WallNorth | WallEast | WallWest:             WallTeeNorth,
	WallSouth | WallWest:                        WallCornerNE,
	WallNorth | WallSouth | WallWest:            WallTeeWest,
	WallEast | WallSouth | WallWest:             WallTeeSouth,
	WallNorth | WallEast | WallSouth | WallWest: WallCross,
}

// WallSprite returns the atlas piece for a neighbor mask
func WallSprite(mask uint8) WallPiece {
	return wallPieces[mask&0x0f]
}

// WallMask returns the cardinal wall-neighbor bitmask of pos.
// Off-grid neighbors count as open.
func (l *Layout) WallMask(pos Position) uint8 {
	var mask uint8
	if l.IsWall(Position{X: pos.X, Y: pos.Y - 1}) {
		mask |= WallNorth
	}
	if l.IsWall(Position{X: pos.X + 1, Y: pos.Y}) {
		mask |= WallEast
	}
	if l.IsWall(Position{X: pos.X, Y: pos.Y + 1}) {
		mask |= WallSouth
	}
	if l.IsWall(Position{X: pos.X - 1, Y: pos.Y}) {
		mask |= WallWest
	}
	return mask
}

// WallPieces returns the sprite piece of every tile, row-major; floor tiles get -1
func (l *Layout) WallPieces() []int {
	out := make([]int, len(l.tiles))
	for y := 0; y < l.rows; y++ {
		for x := 0; x < l.cols; x++ {
			pos := Position{X: x, Y: y}
			if l.tiles[l.index(pos)] != TileWall {
				out[l.index(pos)] = -1
				continue
			}
			out[l.index(pos)] = int(WallSprite(l.WallMask(pos)))
		}
	}
	return out
}
