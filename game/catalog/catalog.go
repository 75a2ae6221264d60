package catalog

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownType  = errors.New("unknown furniture type")
	ErrInvalidEntry = errors.New("invalid catalog entry")
)

// Entry describes a placeable furniture type
type Entry struct {
	ID                 string `json:"id" jsonschema:"title=Type id,pattern=^[a-z0-9-]+$,minLength=1,required"`
	Label              string `json:"label,omitempty" jsonschema:"description=Human readable name"`
	Category           string `json:"category,omitempty" jsonschema:"description=Editor palette group"`
	FootprintW         int    `json:"footprintW" jsonschema:"minimum=1,required"`
	FootprintH         int    `json:"footprintH" jsonschema:"minimum=1,required"`
	IsDesk             bool   `json:"isDesk" jsonschema:"description=Desks can be assigned to one agent at a time"`
	CanPlaceOnWalls    bool   `json:"canPlaceOnWalls" jsonschema:"description=Footprint must cover wall tiles"`
	CanPlaceOnSurfaces bool   `json:"canPlaceOnSurfaces" jsonschema:"description=Footprint must rest on desk tiles"`
}

// Region is a rectangle inside a sprite sheet
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Catalog resolves furniture type ids to entries
type Catalog struct {
	overrides map[string]Entry
	sprites   map[string]Region
}

// New creates a catalog whose overrides shadow the built-in defaults.
// Invalid overrides are skipped; use Merge to get validation errors.
func New(overrides ...Entry) *Catalog {
	c := &Catalog{
		overrides: make(map[string]Entry, len(overrides)),
		sprites:   make(map[string]Region),
	}
	for _, entry := range overrides {
		if Validate(entry) != nil {
			continue
		}
		c.overrides[entry.ID] = entry
	}
	return c
}

// Lookup returns the entry for id, preferring overrides over defaults
func (c *Catalog) Lookup(id string) (Entry, bool) {
	if c != nil {
		if entry, ok := c.overrides[id]; ok {
			return entry, true
		}
	}
	entry, ok := builtinByID[id]
	return entry, ok
}

// IsOverridden reports whether id is answered by a dynamically supplied entry
func (c *Catalog) IsOverridden(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.overrides[id]
	return ok
}

// Sprite returns the sprite region supplied for id, if any
func (c *Catalog) Sprite(id string) (Region, bool) {
	if c == nil {
		return Region{}, false
	}
	region, ok := c.sprites[id]
	return region, ok
}

// Merge returns a new catalog layering the feed on top of c.
// c itself is left untouched.
func (c *Catalog) Merge(feed *Feed) (*Catalog, error) {
	merged := c.clone()
	if feed == nil {
		return merged, nil
	}
	for i, entry := range feed.Catalog {
		if err := Validate(entry); err != nil {
			return nil, fmt.Errorf("catalog[%d]: %w", i, err)
		}
		merged.overrides[entry.ID] = entry
	}
	for id, region := range feed.Sprites {
		if region.W <= 0 || region.H <= 0 {
			return nil, fmt.Errorf("%w: sprite %q has empty region", ErrInvalidEntry, id)
		}
		merged.sprites[id] = region
	}
	return merged, nil
}

// Entries returns every resolvable entry sorted by id
func (c *Catalog) Entries() []Entry {
	byID := make(map[string]Entry, len(builtinByID))
	for id, entry := range builtinByID {
		byID[id] = entry
	}
	if c != nil {
		for id, entry := range c.overrides {
			byID[id] = entry
		}
	}

	entries := make([]Entry, 0, len(byID))
	for _, entry := range byID {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Validate checks an entry for usable footprint and consistent flags
func Validate(entry Entry) error {
	if entry.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}
	if entry.FootprintW < 1 || entry.FootprintH < 1 {
		return fmt.Errorf("%w: %q footprint must be at least 1x1, got %dx%d",
			ErrInvalidEntry, entry.ID, entry.FootprintW, entry.FootprintH)
	}
	if entry.CanPlaceOnWalls && entry.CanPlaceOnSurfaces {
		return fmt.Errorf("%w: %q cannot be placed on both walls and surfaces", ErrInvalidEntry, entry.ID)
	}
	if entry.IsDesk && (entry.CanPlaceOnWalls || entry.CanPlaceOnSurfaces) {
		return fmt.Errorf("%w: desk %q must stand on the floor", ErrInvalidEntry, entry.ID)
	}
	return nil
}

func (c *Catalog) clone() *Catalog {
	out := New()
	if c == nil {
		return out
	}
	for id, entry := range c.overrides {
		out.overrides[id] = entry
	}
	for id, region := range c.sprites {
		out.sprites[id] = region
	}
	return out
}
