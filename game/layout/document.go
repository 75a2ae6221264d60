package layout

import (
	"encoding/json"
	"fmt"

	"github.com/wricardo/agent-office/game/catalog"
)

// CurrentVersion is the only document version the engine consumes
const CurrentVersion = 1

// Document is the serializable office layout
type Document struct {
	Version   int         `json:"version" jsonschema:"const=1,required"`
	Cols      int         `json:"cols" jsonschema:"minimum=1,maximum=256,required"`
	Rows      int         `json:"rows" jsonschema:"minimum=1,maximum=256,required"`
	Tiles     []TileKind  `json:"tiles" jsonschema:"description=Row-major terrain: 0 wall and 1 floor,required"`
	Furniture []Placement `json:"furniture" jsonschema:"required"`
}

// Serialize captures the layout as a document. Furniture keeps placement
// order so desks precede the items resting on them.
func (l *Layout) Serialize() *Document {
	doc := &Document{
		Version:   CurrentVersion,
		Cols:      l.cols,
		Rows:      l.rows,
		Tiles:     append([]TileKind(nil), l.tiles...),
		Furniture: make([]Placement, 0, len(l.order)),
	}
	for _, id := range l.order {
		f := l.furniture[id]
		doc.Furniture = append(doc.Furniture, Placement{
			ID:       f.ID,
			TypeID:   f.TypeID,
			X:        f.X,
			Y:        f.Y,
			Rotation: f.Rotation,
		})
	}
	return doc
}

// Deserialize builds a layout from a document. Every failure wraps
// ErrMalformedLayout; callers substitute DefaultDocument.
func Deserialize(doc *Document, cat *catalog.Catalog) (*Layout, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", ErrMalformedLayout)
	}
	if doc.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedLayout, doc.Version)
	}
	l, err := New(doc.Cols, doc.Rows, TileFloor)
	if err != nil {
		return nil, err
	}
	if len(doc.Tiles) != doc.Cols*doc.Rows {
		return nil, fmt.Errorf("%w: expected %d tiles, got %d", ErrMalformedLayout, doc.Cols*doc.Rows, len(doc.Tiles))
	}
	for i, kind := range doc.Tiles {
		if kind != TileWall && kind != TileFloor {
			return nil, fmt.Errorf("%w: tile %d has unknown kind %d", ErrMalformedLayout, i, int(kind))
		}
		l.tiles[i] = kind
	}

	for _, p := range doc.Furniture {
		entry, ok := cat.Lookup(p.TypeID)
		if !ok {
			return nil, fmt.Errorf("%w: furniture %q: %w %q", ErrMalformedLayout, p.ID, catalog.ErrUnknownType, p.TypeID)
		}
		if err := l.Place(entry, p); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedLayout, err)
		}
	}
	return l, nil
}

// ParseDocument decodes a JSON layout document without validating it
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLayout, err)
	}
	return &doc, nil
}

// MarshalDocument encodes a document as indented JSON
func MarshalDocument(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{
		Version:   d.Version,
		Cols:      d.Cols,
		Rows:      d.Rows,
		Tiles:     append([]TileKind(nil), d.Tiles...),
		Furniture: append([]Placement(nil), d.Furniture...),
	}
}

// DefaultDocument is the built-in office: a walled 20x12 room with eight
// desks, wall decorations and a lounge corner.
func DefaultDocument() *Document {
	const cols, rows = 20, 12
	doc := &Document{
		Version: CurrentVersion,
		Cols:    cols,
		Rows:    rows,
		Tiles:   make([]TileKind, cols*rows),
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if x == 0 || y == 0 || x == cols-1 || y == rows-1 {
				doc.Tiles[y*cols+x] = TileWall
			} else {
				doc.Tiles[y*cols+x] = TileFloor
			}
		}
	}

	doc.Furniture = []Placement{
		{ID: "whiteboard-1", TypeID: "whiteboard", X: 3, Y: 0},
		{ID: "painting-1", TypeID: "painting", X: 10, Y: 0},
		{ID: "window-1", TypeID: "window", X: 14, Y: 0},
		{ID: "plant-1", TypeID: "plant", X: 1, Y: 1},
		{ID: "plant-2", TypeID: "plant", X: 18, Y: 1},
	}
	desks := []Position{
		{X: 3, Y: 3}, {X: 7, Y: 3}, {X: 11, Y: 3}, {X: 15, Y: 3},
		{X: 3, Y: 7}, {X: 7, Y: 7}, {X: 11, Y: 7}, {X: 15, Y: 7},
	}
	for i, pos := range desks {
		doc.Furniture = append(doc.Furniture, Placement{
			ID: fmt.Sprintf("desk-%d", i+1), TypeID: "desk", X: pos.X, Y: pos.Y,
		})
	}
	for i, pos := range desks {
		typeID := "monitor"
		if i%2 == 1 {
			typeID = "laptop"
		}
		doc.Furniture = append(doc.Furniture, Placement{
			ID: fmt.Sprintf("%s-%d", typeID, i+1), TypeID: typeID, X: pos.X + 1, Y: pos.Y,
		})
	}
	doc.Furniture = append(doc.Furniture,
		Placement{ID: "bookshelf-1", TypeID: "bookshelf", X: 1, Y: 10},
		Placement{ID: "sofa-1", TypeID: "sofa", X: 9, Y: 10},
		Placement{ID: "water-cooler-1", TypeID: "water-cooler", X: 18, Y: 10},
	)
	return doc
}
