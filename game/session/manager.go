package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/clock"
	"github.com/wricardo/agent-office/game/engine"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/service"
)

var (
	ErrOfficeNotFound  = fmt.Errorf("office %w", service.ErrNotFound)
	ErrOfficeExists    = fmt.Errorf("office already exists: %w", service.ErrConflict)
	ErrInvalidOfficeID = fmt.Errorf("%w: office IDs may only contain letters, digits, '-' and '_'", service.ErrInvalid)
)

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Publisher receives the snapshot of every tick of every office
type Publisher interface {
	Publish(officeID string, snap *engine.Snapshot)
}

// Option configures a Manager
type Option func(*Manager)

// WithPersistence saves offices after every change and loads them on demand
func WithPersistence(p OfficePersistence) Option {
	return func(m *Manager) { m.persistence = p }
}

// WithCatalog sets the catalog new offices resolve furniture with
func WithCatalog(c *catalog.Catalog) Option {
	return func(m *Manager) { m.catalog = c }
}

// WithSettings sets the movement and animation settings of new offices
func WithSettings(s engine.Settings) Option {
	return func(m *Manager) { m.settings = s }
}

// WithClock sets the frame loop configuration of new offices
func WithClock(cfg clock.Config) Option {
	return func(m *Manager) { m.clock = cfg }
}

// WithPublisher forwards every tick snapshot to p
func WithPublisher(p Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithRunContext starts the frame loop of each office as soon as it is
// created or loaded. Loops stop when ctx is done.
func WithRunContext(ctx context.Context) Option {
	return func(m *Manager) { m.runCtx = ctx }
}

// WithLogger replaces the default logger
func WithLogger(l log15.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager handles office lifecycle
type Manager struct {
	offices     map[string]*service.Office
	persistence OfficePersistence
	catalog     *catalog.Catalog
	settings    engine.Settings
	clock       clock.Config
	publisher   Publisher
	runCtx      context.Context
	logger      log15.Logger
	mu          sync.RWMutex
}

// NewManager creates a new office manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		offices:  make(map[string]*service.Office),
		catalog:  catalog.New(),
		settings: engine.DefaultSettings(),
		logger:   log15.New("module", "session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock.Logger == nil {
		m.clock.Logger = m.logger.New("component", "clock")
	}
	return m
}

// Create builds an office from a layout document. An empty id is generated.
func (m *Manager) Create(id, layoutName string, doc *layout.Document) (*service.Office, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateOfficeID()
	} else if !validID.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOfficeID, id)
	}
	if m.officeExists(id) {
		return nil, fmt.Errorf("%w: %s", ErrOfficeExists, id)
	}

	eng, err := engine.NewEngine(doc, m.catalog, m.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	office := m.newOffice(id, layoutName, eng)
	m.offices[strings.ToLower(id)] = office

	if m.persistence != nil {
		if err := m.persistence.Save(recordOf(office)); err != nil {
			m.logger.Warn("failed to persist office", "office", id, "err", err)
		}
	}
	return office, nil
}

// newOffice wires the frame loop and starts it when a run context is set
func (m *Manager) newOffice(id, layoutName string, eng *engine.OfficeEngine) *service.Office {
	var hooks clock.Hooks[*engine.Snapshot]
	if m.publisher != nil {
		pub := m.publisher
		hooks.AfterStep = func(res clock.Result[*engine.Snapshot]) {
			pub.Publish(id, res.Snapshot)
		}
	}
	office := service.NewOffice(id, layoutName, eng, m.clock, hooks)
	if m.runCtx != nil {
		office.Start(m.runCtx)
	}
	return office
}

// restore rebuilds an office from its record. Agents are re-added in id
// order with their desk, tool and activity.
func (m *Manager) restore(rec *OfficeRecord) (*service.Office, error) {
	eng, err := engine.NewEngine(rec.Layout, m.catalog, m.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to restore office %s: %w", rec.ID, err)
	}

	agents := append([]AgentRecord(nil), rec.Agents...)
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	for _, a := range agents {
		if !eng.AddAgent(a.ID, a.DeskID) {
			m.logger.Warn("dropping agent on restore", "office", rec.ID, "agent", a.ID)
			continue
		}
		eng.SetAgentTool(a.ID, a.Tool)
		eng.SetAgentActive(a.ID, a.Active)
	}

	office := m.newOffice(rec.ID, rec.LayoutName, eng)
	office.CreatedAt = rec.CreatedAt
	office.Touch(rec.LastAccessedAt)
	return office, nil
}

// Get retrieves an office by ID (case-insensitive), loading it from
// persistence when it is not in memory
func (m *Manager) Get(id string) (*service.Office, error) {
	m.mu.RLock()
	office, exists := m.offices[strings.ToLower(id)]
	m.mu.RUnlock()
	if exists {
		return office, nil
	}

	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, fmt.Errorf("%w: %s", ErrOfficeNotFound, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// another caller may have loaded it meanwhile
	if office, exists := m.offices[strings.ToLower(id)]; exists {
		return office, nil
	}

	rec, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted office: %w", err)
	}
	office, err = m.restore(rec)
	if err != nil {
		return nil, err
	}
	m.offices[strings.ToLower(id)] = office
	return office, nil
}

// List returns all offices in memory sorted by id
func (m *Manager) List() []*service.Office {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Office, 0, len(m.offices))
	for _, office := range m.offices {
		result = append(result, office)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Delete stops and removes an office from memory and persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	office, inMemory := m.offices[strings.ToLower(id)]
	delete(m.offices, strings.ToLower(id))
	m.mu.Unlock()

	if inMemory {
		office.Stop()
	}

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted office: %w", err)
		}
		return nil
	}

	if !inMemory {
		return fmt.Errorf("%w: %s", ErrOfficeNotFound, id)
	}
	return nil
}

// UpdateLastAccessed updates the last accessed time for an office
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.RLock()
	office, exists := m.offices[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrOfficeNotFound, id)
	}
	office.Touch(time.Now())
	return nil
}

// Save persists one office
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	office, exists := m.offices[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrOfficeNotFound, id)
	}
	return m.persistence.Save(recordOf(office))
}

// CleanupExpiredOffices stops and unloads offices that haven't been
// accessed in maxAge. Persisted copies are kept.
func (m *Manager) CleanupExpiredOffices(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*service.Office
	for key, office := range m.offices {
		if office.LastAccessed().Before(cutoff) {
			delete(m.offices, key)
			expired = append(expired, office)
		}
	}
	m.mu.Unlock()

	for _, office := range expired {
		office.Stop()
		m.logger.Debug("office unloaded", "office", office.ID)
	}
	return len(expired)
}

// Count returns the number of offices in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.offices)
}

// LoadPersistedOffices loads every persisted office into memory
func (m *Manager) LoadPersistedOffices() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted offices: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		if _, exists := m.offices[strings.ToLower(id)]; exists {
			continue
		}
		rec, err := m.persistence.Load(id)
		if err != nil {
			m.logger.Warn("failed to load persisted office", "office", id, "err", err)
			continue
		}
		office, err := m.restore(rec)
		if err != nil {
			m.logger.Warn("failed to restore persisted office", "office", id, "err", err)
			continue
		}
		m.offices[strings.ToLower(id)] = office
		loaded++
	}

	if loaded > 0 {
		m.logger.Info("loaded persisted offices", "count", loaded)
	}
	return nil
}

// SaveAllOffices persists every office in memory
func (m *Manager) SaveAllOffices() error {
	if m.persistence == nil {
		return nil
	}

	var errs []error
	for _, office := range m.List() {
		if err := m.persistence.Save(recordOf(office)); err != nil {
			m.logger.Warn("failed to save office", "office", office.ID, "err", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to save %d offices: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// StopAll halts every frame loop
func (m *Manager) StopAll() {
	for _, office := range m.List() {
		office.Stop()
	}
}

// generateOfficeID returns a random 4-character id not yet in use
func (m *Manager) generateOfficeID() string {
	for {
		b := make([]byte, 2)
		rand.Read(b)
		id := hex.EncodeToString(b)
		if !m.officeExists(id) {
			return id
		}
	}
}

func (m *Manager) officeExists(id string) bool {
	if _, exists := m.offices[strings.ToLower(id)]; exists {
		return true
	}
	return m.persistence != nil && m.persistence.Exists(id)
}
