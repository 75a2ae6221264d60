package catalog

import (
	"encoding/json"
	"fmt"
)

// Feed is the catalog document supplied by the asset pipeline
type Feed struct {
	Catalog []Entry           `json:"catalog" jsonschema:"description=Furniture descriptors that override or extend the defaults"`
	Sprites map[string]Region `json:"sprites,omitempty" jsonschema:"description=Sprite sheet region per type id"`
}

// ParseFeed decodes and validates a catalog feed
func ParseFeed(data []byte) (*Feed, error) {
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog feed: %w", err)
	}

	seen := make(map[string]bool, len(feed.Catalog))
	for i, entry := range feed.Catalog {
		if err := Validate(entry); err != nil {
			return nil, fmt.Errorf("catalog[%d]: %w", i, err)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidEntry, entry.ID)
		}
		seen[entry.ID] = true
	}

	return &feed, nil
}
