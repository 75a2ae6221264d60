package layout

import (
	"fmt"

	"github.com/wricardo/agent-office/game/catalog"
)

// TileKind is the terrain of a single tile
type TileKind int

const (
	TileWall  TileKind = 0
	TileFloor TileKind = 1

	// MaxDimension bounds cols and rows of any layout
	MaxDimension = 256
)

func (k TileKind) String() string {
	switch k {
	case TileWall:
		return "wall"
	case TileFloor:
		return "floor"
	default:
		return fmt.Sprintf("TileKind(%d)", int(k))
	}
}

// Position represents x,y tile coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by d
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Tile is a read-only view of one grid cell
type Tile struct {
	Pos       Position `json:"pos"`
	Kind      TileKind `json:"kind"`
	Furniture string   `json:"furniture,omitempty"`
}

// Furniture is a placed instance with its footprint resolved
type Furniture struct {
	ID        string `json:"id"`
	TypeID    string `json:"typeId"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Rotation  int    `json:"rotation"`
	IsDesk    bool   `json:"isDesk,omitempty"`
	OnWall    bool   `json:"onWall,omitempty"`
	OnSurface bool   `json:"onSurface,omitempty"`
	Host      string `json:"host,omitempty"` // desk carrying a surface item

	entry catalog.Entry
}

// Anchor returns the top-left tile of the footprint
func (f Furniture) Anchor() Position {
	return Position{X: f.X, Y: f.Y}
}

// Covers reports whether pos lies inside the footprint
func (f Furniture) Covers(pos Position) bool {
	return pos.X >= f.X && pos.X < f.X+f.Width && pos.Y >= f.Y && pos.Y < f.Y+f.Height
}

// Tiles lists the covered positions in row-major order
func (f Furniture) Tiles() []Position {
	out := make([]Position, 0, f.Width*f.Height)
	for y := f.Y; y < f.Y+f.Height; y++ {
		for x := f.X; x < f.X+f.Width; x++ {
			out = append(out, Position{X: x, Y: y})
		}
	}
	return out
}

// Placement is the serialized form of a furniture instance
type Placement struct {
	ID       string `json:"id" jsonschema:"minLength=1,required"`
	TypeID   string `json:"typeId" jsonschema:"minLength=1,required"`
	X        int    `json:"x" jsonschema:"minimum=0,required"`
	Y        int    `json:"y" jsonschema:"minimum=0,required"`
	Rotation int    `json:"rotation" jsonschema:"enum=0,enum=90,enum=180,enum=270"`
}

// Layout is the mutable office grid.
// It is not safe for concurrent use.
type Layout struct {
	cols, rows int
	tiles      []TileKind
	occupancy  []string // floor and wall items
	surface    []string // items resting on desks
	furniture  map[string]*Furniture
	order      []string
}

// New creates a cols x rows layout with every tile set to fill
func New(cols, rows int, fill TileKind) (*Layout, error) {
	if cols < 1 || rows < 1 || cols > MaxDimension || rows > MaxDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d out of range", ErrMalformedLayout, cols, rows)
	}
	n := cols * rows
	l := &Layout{
		cols:      cols,
		rows:      rows,
		tiles:     make([]TileKind, n),
		occupancy: make([]string, n),
		surface:   make([]string, n),
		furniture: make(map[string]*Furniture),
	}
	for i := range l.tiles {
		l.tiles[i] = fill
	}
	return l, nil
}

// Size returns the grid dimensions
func (l *Layout) Size() (cols, rows int) {
	return l.cols, l.rows
}

// InBounds checks if a position is within the grid
func (l *Layout) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < l.cols && pos.Y >= 0 && pos.Y < l.rows
}

func (l *Layout) index(pos Position) int {
	return pos.Y*l.cols + pos.X
}

// SetTile changes terrain. Tiles covered by furniture cannot change.
func (l *Layout) SetTile(pos Position, kind TileKind) error {
	if !l.InBounds(pos) {
		return fmt.Errorf("tile (%d,%d) out of bounds", pos.X, pos.Y)
	}
	if kind != TileWall && kind != TileFloor {
		return fmt.Errorf("invalid tile kind %d", int(kind))
	}
	i := l.index(pos)
	if l.occupancy[i] != "" && l.tiles[i] != kind {
		return fmt.Errorf("tile (%d,%d) is covered by %q", pos.X, pos.Y, l.occupancy[i])
	}
	l.tiles[i] = kind
	return nil
}

// Tile returns the tile at pos
func (l *Layout) Tile(pos Position) (Tile, bool) {
	if !l.InBounds(pos) {
		return Tile{}, false
	}
	i := l.index(pos)
	return Tile{Pos: pos, Kind: l.tiles[i], Furniture: l.occupancy[i]}, true
}

// IsFloor reports whether pos is an in-bounds floor tile
func (l *Layout) IsFloor(pos Position) bool {
	return l.InBounds(pos) && l.tiles[l.index(pos)] == TileFloor
}

// IsWall reports whether pos is an in-bounds wall tile
func (l *Layout) IsWall(pos Position) bool {
	return l.InBounds(pos) && l.tiles[l.index(pos)] == TileWall
}

// IsWalkable is true iff pos is floor and not covered by furniture.
// Characters are not considered here.
func (l *Layout) IsWalkable(pos Position) bool {
	if !l.IsFloor(pos) {
		return false
	}
	return l.occupancy[l.index(pos)] == ""
}

// OccupantAt returns the id of the blocking furniture covering pos
func (l *Layout) OccupantAt(pos Position) (string, bool) {
	if !l.InBounds(pos) {
		return "", false
	}
	id := l.occupancy[l.index(pos)]
	return id, id != ""
}

// Furniture returns a copy of the instance with the given id
func (l *Layout) Furniture(id string) (Furniture, bool) {
	f, ok := l.furniture[id]
	if !ok {
		return Furniture{}, false
	}
	return *f, true
}

// FurnitureList returns every instance in placement order
func (l *Layout) FurnitureList() []Furniture {
	out := make([]Furniture, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.furniture[id])
	}
	return out
}

// Desks returns desk instances in placement order
func (l *Layout) Desks() []Furniture {
	var out []Furniture
	for _, id := range l.order {
		if f := l.furniture[id]; f.IsDesk {
			out = append(out, *f)
		}
	}
	return out
}

// OccupancyBitmap packs one bit per tile, row-major, set when furniture blocks the tile
func (l *Layout) OccupancyBitmap() []byte {
	out := make([]byte, (len(l.occupancy)+7)/8)
	for i, id := range l.occupancy {
		if id != "" {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// Clone returns a deep copy
func (l *Layout) Clone() *Layout {
	out := &Layout{
		cols:      l.cols,
		rows:      l.rows,
		tiles:     append([]TileKind(nil), l.tiles...),
		occupancy: append([]string(nil), l.occupancy...),
		surface:   append([]string(nil), l.surface...),
		furniture: make(map[string]*Furniture, len(l.furniture)),
		order:     append([]string(nil), l.order...),
	}
	for id, f := range l.furniture {
		cp := *f
		out.furniture[id] = &cp
	}
	return out
}
