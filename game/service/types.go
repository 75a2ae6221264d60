package service

import (
	"time"

	"github.com/wricardo/agent-office/game/engine"
	"github.com/wricardo/agent-office/game/layout"
)

// OfficeInfo provides information about an office
type OfficeInfo struct {
	ID             string             `json:"id"`
	LayoutName     string             `json:"layout_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Tick           uint64             `json:"tick"`
	Running        bool               `json:"running"`
	Cols           int                `json:"cols"`
	Rows           int                `json:"rows"`
	Desks          int                `json:"desks"`
	Agents         []engine.AgentView `json:"agents"`
}

// LayoutInfo describes a stored layout document
type LayoutInfo struct {
	Filename  string `json:"filename"`
	Name      string `json:"name"` // identifier used to create offices
	Cols      int    `json:"cols"`
	Rows      int    `json:"rows"`
	Furniture int    `json:"furniture"`
	Desks     int    `json:"desks"`
	IsDefault bool   `json:"is_default"`
}

// AgentEvent is one activity signal for an agent. Nil fields are left unchanged.
type AgentEvent struct {
	Active *bool   `json:"active,omitempty"`
	Tool   *string `json:"tool,omitempty"`
}

// FurnitureMove relocates a placed instance
type FurnitureMove struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	Rotation int `json:"rotation"`
}

// PlacementResult reports the instance created by a placement
type PlacementResult struct {
	Placement layout.Placement `json:"placement"`
	Snapshot  *engine.Snapshot `json:"snapshot"`
}
