package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/engine"
	"github.com/wricardo/agent-office/game/layout"
)

// officeServiceImpl implements the OfficeService interface
type officeServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   log15.Logger
}

// NewOfficeService creates a new office service instance
func NewOfficeService(sessions SessionManager, configs ConfigManager) OfficeService {
	return &officeServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   log15.New("module", "service"),
	}
}

// CreateOffice starts a new office from a stored layout, or the default
// layout when the name is empty
func (s *officeServiceImpl) CreateOffice(ctx context.Context, layoutName string) (*OfficeInfo, error) {
	var doc *layout.Document
	if layoutName != "" {
		var err error
		doc, err = s.configs.LoadLayout(layoutName)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("layout '%s' not found, available layouts: %v: %w", layoutName, s.layoutNames(), err)
			}
			return nil, fmt.Errorf("failed to load layout %s: %w", layoutName, err)
		}
	} else {
		doc = s.configs.GetDefault()
		layoutName = "default"
	}

	office, err := s.sessions.Create("", layoutName, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create office: %w", err)
	}
	s.logger.Info("office created", "office", office.ID, "layout", layoutName)
	return s.info(office), nil
}

// GetOffice retrieves office information
func (s *officeServiceImpl) GetOffice(ctx context.Context, officeID string) (*OfficeInfo, error) {
	office, err := s.office(officeID)
	if err != nil {
		return nil, err
	}
	return s.info(office), nil
}

// ListOffices returns every office sorted by id
func (s *officeServiceImpl) ListOffices(ctx context.Context) ([]*OfficeInfo, error) {
	offices := s.sessions.List()
	sort.Slice(offices, func(i, j int) bool { return offices[i].ID < offices[j].ID })

	result := make([]*OfficeInfo, 0, len(offices))
	for _, office := range offices {
		result = append(result, s.info(office))
	}
	return result, nil
}

// DeleteOffice stops and removes an office
func (s *officeServiceImpl) DeleteOffice(ctx context.Context, officeID string) error {
	if err := s.sessions.Delete(officeID); err != nil {
		return err
	}
	s.logger.Info("office deleted", "office", officeID)
	return nil
}

// AddAgent spawns a character for an agent
func (s *officeServiceImpl) AddAgent(ctx context.Context, officeID string, agentID int, deskHint string) (*engine.AgentView, error) {
	var view engine.AgentView
	err := s.mutate(officeID, func(e *engine.OfficeEngine) error {
		if _, exists := e.Agent(agentID); exists {
			return fmt.Errorf("agent %d already exists: %w", agentID, ErrConflict)
		}
		if !e.AddAgent(agentID, deskHint) {
			return fmt.Errorf("no free floor for agent %d: %w", agentID, ErrConflict)
		}
		view, _ = e.Agent(agentID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// RemoveAgent despawns an agent's character
func (s *officeServiceImpl) RemoveAgent(ctx context.Context, officeID string, agentID int) error {
	return s.mutate(officeID, func(e *engine.OfficeEngine) error {
		if !e.RemoveAgent(agentID) {
			return fmt.Errorf("%w: %d", ErrAgentNotFound, agentID)
		}
		return nil
	})
}

// SetAgentActive marks an agent working or idle
func (s *officeServiceImpl) SetAgentActive(ctx context.Context, officeID string, agentID int, active bool) (*engine.AgentView, error) {
	return s.ApplyAgentEvent(ctx, officeID, agentID, AgentEvent{Active: &active})
}

// SetAgentTool records the tool an agent is using
func (s *officeServiceImpl) SetAgentTool(ctx context.Context, officeID string, agentID int, tool string) (*engine.AgentView, error) {
	return s.ApplyAgentEvent(ctx, officeID, agentID, AgentEvent{Tool: &tool})
}

// ApplyAgentEvent applies the tool before the active flag so an agent that
// becomes active sits down in the right state
func (s *officeServiceImpl) ApplyAgentEvent(ctx context.Context, officeID string, agentID int, ev AgentEvent) (*engine.AgentView, error) {
	var view engine.AgentView
	err := s.mutate(officeID, func(e *engine.OfficeEngine) error {
		if _, ok := e.Agent(agentID); !ok {
			return fmt.Errorf("%w: %d", ErrAgentNotFound, agentID)
		}
		if ev.Tool != nil {
			e.SetAgentTool(agentID, strings.TrimSpace(*ev.Tool))
		}
		if ev.Active != nil {
			e.SetAgentActive(agentID, *ev.Active)
		}
		view, _ = e.Agent(agentID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// PlaceFurniture adds an instance, minting an id when none is given
func (s *officeServiceImpl) PlaceFurniture(ctx context.Context, officeID string, p layout.Placement) (*PlacementResult, error) {
	if p.TypeID == "" {
		return nil, fmt.Errorf("furniture type is required: %w", ErrInvalid)
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("%s-%s", p.TypeID, uuid.NewString()[:8])
	}

	var snap *engine.Snapshot
	err := s.mutate(officeID, func(e *engine.OfficeEngine) error {
		if err := e.PlaceFurniture(p); err != nil {
			return fmt.Errorf("failed to place %s: %w", p.ID, err)
		}
		snap = e.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &PlacementResult{Placement: p, Snapshot: snap}, nil
}

// MoveFurniture relocates an instance
func (s *officeServiceImpl) MoveFurniture(ctx context.Context, officeID, furnitureID string, mv FurnitureMove) error {
	return s.mutate(officeID, func(e *engine.OfficeEngine) error {
		if !hasFurniture(e, furnitureID) {
			return fmt.Errorf("%w: %s", ErrFurnitureNotFound, furnitureID)
		}
		if err := e.MoveFurniture(furnitureID, mv.X, mv.Y, mv.Rotation); err != nil {
			return fmt.Errorf("failed to move %s: %w", furnitureID, err)
		}
		return nil
	})
}

// RemoveFurniture deletes an instance and anything resting on it
func (s *officeServiceImpl) RemoveFurniture(ctx context.Context, officeID, furnitureID string) error {
	return s.mutate(officeID, func(e *engine.OfficeEngine) error {
		if !e.RemoveFurniture(furnitureID) {
			return fmt.Errorf("%w: %s", ErrFurnitureNotFound, furnitureID)
		}
		return nil
	})
}

// GetLayout returns the office layout document
func (s *officeServiceImpl) GetLayout(ctx context.Context, officeID string) (*layout.Document, error) {
	office, err := s.office(officeID)
	if err != nil {
		return nil, err
	}
	var doc *layout.Document
	office.Do(func(e *engine.OfficeEngine) error {
		doc = e.Layout()
		return nil
	})
	return doc, nil
}

// ReplaceLayout swaps the whole layout; a rejected document leaves the office unchanged
func (s *officeServiceImpl) ReplaceLayout(ctx context.Context, officeID string, doc *layout.Document) error {
	if doc == nil {
		return fmt.Errorf("layout document is required: %w", ErrInvalid)
	}
	return s.mutate(officeID, func(e *engine.OfficeEngine) error {
		if err := e.RebuildFromLayout(doc); err != nil {
			return fmt.Errorf("failed to rebuild layout: %w", err)
		}
		return nil
	})
}

// GetSnapshot captures the current render state
func (s *officeServiceImpl) GetSnapshot(ctx context.Context, officeID string) (*engine.Snapshot, error) {
	office, err := s.office(officeID)
	if err != nil {
		return nil, err
	}
	return office.Snapshot(), nil
}

// ListLayouts returns the stored layouts
func (s *officeServiceImpl) ListLayouts(ctx context.Context) ([]*LayoutInfo, error) {
	return s.configs.ListLayouts()
}

// LoadLayout returns a stored layout document
func (s *officeServiceImpl) LoadLayout(ctx context.Context, name string) (*layout.Document, error) {
	doc, err := s.configs.LoadLayout(name)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// SaveLayout stores a layout after checking it against the catalog
func (s *officeServiceImpl) SaveLayout(ctx context.Context, name string, doc *layout.Document) error {
	if doc == nil {
		return fmt.Errorf("layout document is required: %w", ErrInvalid)
	}
	if _, err := layout.Deserialize(doc, s.configs.Catalog()); err != nil {
		return err
	}
	if err := s.configs.SaveLayout(name, doc); err != nil {
		return err
	}
	s.logger.Info("layout saved", "layout", name)
	return nil
}

// GetCatalog returns the effective catalog in feed form
func (s *officeServiceImpl) GetCatalog(ctx context.Context) *catalog.Feed {
	cat := s.configs.Catalog()
	feed := &catalog.Feed{
		Catalog: cat.Entries(),
		Sprites: make(map[string]catalog.Region),
	}
	for _, entry := range feed.Catalog {
		if region, ok := cat.Sprite(entry.ID); ok {
			feed.Sprites[entry.ID] = region
		}
	}
	return feed
}

// office fetches an office and refreshes its access time
func (s *officeServiceImpl) office(officeID string) (*Office, error) {
	office, err := s.sessions.Get(officeID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(officeID)
	return office, nil
}

// mutate runs fn under the office lock and persists the office on success
func (s *officeServiceImpl) mutate(officeID string, fn func(e *engine.OfficeEngine) error) error {
	office, err := s.office(officeID)
	if err != nil {
		return err
	}
	if err := office.Do(fn); err != nil {
		return err
	}
	if err := s.sessions.Save(office.ID); err != nil {
		s.logger.Warn("failed to persist office", "office", office.ID, "err", err)
	}
	return nil
}

func (s *officeServiceImpl) info(office *Office) *OfficeInfo {
	info := &OfficeInfo{
		ID:             office.ID,
		LayoutName:     office.LayoutName,
		CreatedAt:      office.CreatedAt,
		LastAccessedAt: office.LastAccessed(),
		Running:        office.Running(),
	}
	office.Do(func(e *engine.OfficeEngine) error {
		doc := e.Layout()
		info.Tick = e.Tick()
		info.Cols, info.Rows = doc.Cols, doc.Rows
		info.Desks = countDesks(doc, e.Catalog())
		info.Agents = e.Agents()
		return nil
	})
	return info
}

func (s *officeServiceImpl) layoutNames() []string {
	layouts, err := s.configs.ListLayouts()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(layouts))
	for _, l := range layouts {
		names = append(names, l.Name)
	}
	return names
}

func hasFurniture(e *engine.OfficeEngine, id string) bool {
	for _, p := range e.Layout().Furniture {
		if p.ID == id {
			return true
		}
	}
	return false
}

func countDesks(doc *layout.Document, cat *catalog.Catalog) int {
	n := 0
	for _, p := range doc.Furniture {
		if entry, ok := cat.Lookup(p.TypeID); ok && entry.IsDesk {
			n++
		}
	}
	return n
}
