package session

import (
	"time"

	"github.com/wricardo/agent-office/game/engine"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/service"
)

// OfficePersistence defines the interface for persisting offices
type OfficePersistence interface {
	// Save persists an office record, replacing any previous one
	Save(rec *OfficeRecord) error

	// Load retrieves an office record by ID
	Load(id string) (*OfficeRecord, error)

	// Delete removes an office record
	Delete(id string) error

	// ListAll returns all persisted office IDs
	ListAll() ([]string, error)

	// Exists checks if an office record exists
	Exists(id string) bool
}

// OfficeRecord is the persisted form of an office: its layout and roster.
// Character positions are not kept; restored agents start from their homes.
type OfficeRecord struct {
	ID             string           `json:"id"`
	LayoutName     string           `json:"layout_name"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Layout         *layout.Document `json:"layout"`
	Agents         []AgentRecord    `json:"agents"`
}

// AgentRecord is the persisted state of one agent
type AgentRecord struct {
	ID     int    `json:"id"`
	DeskID string `json:"desk_id,omitempty"`
	Tool   string `json:"tool,omitempty"`
	Active bool   `json:"active"`
}

// recordOf captures an office under its lock
func recordOf(office *service.Office) *OfficeRecord {
	rec := &OfficeRecord{
		ID:             office.ID,
		LayoutName:     office.LayoutName,
		CreatedAt:      office.CreatedAt,
		LastAccessedAt: office.LastAccessed(),
	}
	office.Do(func(e *engine.OfficeEngine) error {
		rec.Layout = e.Layout()
		for _, a := range e.Agents() {
			rec.Agents = append(rec.Agents, AgentRecord{
				ID:     a.ID,
				DeskID: a.DeskID,
				Tool:   a.Tool,
				Active: a.Active,
			})
		}
		return nil
	})
	return rec
}
