package catalog

var builtinEntries = []Entry{
	{ID: "desk", Label: "Desk", Category: "desks", FootprintW: 2, FootprintH: 1, IsDesk: true},
	{ID: "desk-corner", Label: "Corner desk", Category: "desks", FootprintW: 2, FootprintH: 2, IsDesk: true},
	{ID: "bookshelf", Label: "Bookshelf", Category: "storage", FootprintW: 2, FootprintH: 1},
	{ID: "cabinet", Label: "Filing cabinet", Category: "storage", FootprintW: 1, FootprintH: 1},
	{ID: "plant", Label: "Plant", Category: "decor", FootprintW: 1, FootprintH: 1},
	{ID: "water-cooler", Label: "Water cooler", Category: "decor", FootprintW: 1, FootprintH: 1},
	{ID: "sofa", Label: "Sofa", Category: "lounge", FootprintW: 2, FootprintH: 1},
	{ID: "whiteboard", Label: "Whiteboard", Category: "walls", FootprintW: 2, FootprintH: 1, CanPlaceOnWalls: true},
	{ID: "painting", Label: "Painting", Category: "walls", FootprintW: 1, FootprintH: 1, CanPlaceOnWalls: true},
	{ID: "window", Label: "Window", Category: "walls", FootprintW: 2, FootprintH: 1, CanPlaceOnWalls: true},
	{ID: "clock", Label: "Wall clock", Category: "walls", FootprintW: 1, FootprintH: 1, CanPlaceOnWalls: true},
	{ID: "monitor", Label: "Monitor", Category: "surfaces", FootprintW: 1, FootprintH: 1, CanPlaceOnSurfaces: true},
	{ID: "laptop", Label: "Laptop", Category: "surfaces", FootprintW: 1, FootprintH: 1, CanPlaceOnSurfaces: true},
	{ID: "lamp", Label: "Desk lamp", Category: "surfaces", FootprintW: 1, FootprintH: 1, CanPlaceOnSurfaces: true},
}

var builtinByID = func() map[string]Entry {
	m := make(map[string]Entry, len(builtinEntries))
	for _, entry := range builtinEntries {
		m[entry.ID] = entry
	}
	return m
}()

// Builtin returns a copy of the default entries
func Builtin() []Entry {
	out := make([]Entry, len(builtinEntries))
	copy(out, builtinEntries)
	return out
}
