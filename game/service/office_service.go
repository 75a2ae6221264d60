package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/engine"
	"github.com/wricardo/agent-office/game/layout"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid request")

	ErrAgentNotFound     = fmt.Errorf("agent %w", ErrNotFound)
	ErrFurnitureNotFound = fmt.Errorf("furniture %w", ErrNotFound)
)

// OfficeService defines all office operations exposed to transports
type OfficeService interface {
	// Office management
	CreateOffice(ctx context.Context, layoutName string) (*OfficeInfo, error)
	GetOffice(ctx context.Context, officeID string) (*OfficeInfo, error)
	ListOffices(ctx context.Context) ([]*OfficeInfo, error)
	DeleteOffice(ctx context.Context, officeID string) error

	// Agent events
	AddAgent(ctx context.Context, officeID string, agentID int, deskHint string) (*engine.AgentView, error)
	RemoveAgent(ctx context.Context, officeID string, agentID int) error
	SetAgentActive(ctx context.Context, officeID string, agentID int, active bool) (*engine.AgentView, error)
	SetAgentTool(ctx context.Context, officeID string, agentID int, tool string) (*engine.AgentView, error)
	ApplyAgentEvent(ctx context.Context, officeID string, agentID int, ev AgentEvent) (*engine.AgentView, error)

	// Layout editing
	PlaceFurniture(ctx context.Context, officeID string, p layout.Placement) (*PlacementResult, error)
	MoveFurniture(ctx context.Context, officeID, furnitureID string, mv FurnitureMove) error
	RemoveFurniture(ctx context.Context, officeID, furnitureID string) error
	GetLayout(ctx context.Context, officeID string) (*layout.Document, error)
	ReplaceLayout(ctx context.Context, officeID string, doc *layout.Document) error

	// Rendering
	GetSnapshot(ctx context.Context, officeID string) (*engine.Snapshot, error)

	// Stored layouts and catalog
	ListLayouts(ctx context.Context) ([]*LayoutInfo, error)
	LoadLayout(ctx context.Context, name string) (*layout.Document, error)
	SaveLayout(ctx context.Context, name string, doc *layout.Document) error
	GetCatalog(ctx context.Context) *catalog.Feed
}

// SessionManager defines office storage operations
type SessionManager interface {
	Create(id, layoutName string, doc *layout.Document) (*Office, error)
	Get(id string) (*Office, error)
	List() []*Office
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles layout documents and the furniture catalog
type ConfigManager interface {
	LoadLayout(name string) (*layout.Document, error)
	ListLayouts() ([]*LayoutInfo, error)
	GetDefault() *layout.Document
	SaveLayout(name string, doc *layout.Document) error
	Catalog() *catalog.Catalog
}
