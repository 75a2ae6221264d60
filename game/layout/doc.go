// Package layout models the office floor: a grid of wall and floor tiles,
// the furniture instances placed on it and the occupancy index that answers
// "is this tile walkable".
//
// Placement is all-or-nothing. A rejected Place or Move returns a
// *PlacementError and leaves the grid exactly as it was, which callers can
// check byte for byte through OccupancyBitmap.
//
// Three placement classes exist, driven by the catalog entry flags:
//
//   - floor items cover floor tiles only and block walking
//   - wall items (CanPlaceOnWalls) cover wall tiles only
//   - surface items (CanPlaceOnSurfaces) rest on a single desk and never block
//
// Layouts round trip through Document, the JSON form persisted by outer
// packages:
//
//	doc, err := layout.ParseDocument(data)
//	if err != nil {
//		return err
//	}
//	l, err := layout.Deserialize(doc, cat)
//	if errors.Is(err, layout.ErrMalformedLayout) {
//		l, _ = layout.Deserialize(layout.DefaultDocument(), cat)
//	}
package layout
