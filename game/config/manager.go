package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/service"
)

// CatalogFile is the optional catalog feed stored next to the layouts
const CatalogFile = "catalog.json"

// DefaultLayoutName is tried first when picking the default layout
const DefaultLayoutName = "default"

var (
	ErrLayoutNotFound = fmt.Errorf("layout %w", service.ErrNotFound)
	ErrInvalidLayout  = fmt.Errorf("%w: invalid layout", service.ErrInvalid)
	ErrInvalidName    = fmt.Errorf("%w: layout names may only contain letters, digits, '-' and '_'", service.ErrInvalid)
)

var validName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Manager loads layout documents and the furniture catalog from a directory
type Manager struct {
	layoutDir     string
	catalog       *catalog.Catalog
	defaultName   string
	defaultLayout *layout.Document
	layouts       map[string]*layout.Document
	logger        log15.Logger
	mu            sync.RWMutex
}

// NewManager creates a layout manager over dir. A catalog feed in the
// directory is merged over the built-in catalog.
func NewManager(layoutDir string) (*Manager, error) {
	if _, err := os.Stat(layoutDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("layout directory does not exist: %s", layoutDir)
	}

	m := &Manager{
		layoutDir: layoutDir,
		layouts:   make(map[string]*layout.Document),
		logger:    log15.New("module", "config"),
	}

	cat, err := LoadCatalog(layoutDir)
	if err != nil {
		return nil, err
	}
	m.catalog = cat

	m.loadDefaultLayout()
	return m, nil
}

// LoadCatalog merges a directory's catalog.json over the built-in catalog when present
func LoadCatalog(dir string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(filepath.Join(dir, CatalogFile))
	if err != nil {
		if os.IsNotExist(err) {
			return catalog.New(), nil
		}
		return nil, fmt.Errorf("failed to read catalog feed: %w", err)
	}
	feed, err := catalog.ParseFeed(data)
	if err != nil {
		return nil, err
	}
	return catalog.New().Merge(feed)
}

// Catalog returns the effective furniture catalog
func (m *Manager) Catalog() *catalog.Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog
}

// LoadLayout loads a layout by name
func (m *Manager) LoadLayout(name string) (*layout.Document, error) {
	name = strings.TrimSuffix(name, ".json")
	if !validName.MatchString(name) || name == strings.TrimSuffix(CatalogFile, ".json") {
		return nil, ErrInvalidName
	}

	m.mu.RLock()
	if doc, exists := m.layouts[name]; exists {
		m.mu.RUnlock()
		return doc, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if doc, exists := m.layouts[name]; exists {
		return doc, nil
	}

	data, err := os.ReadFile(filepath.Join(m.layoutDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, name)
		}
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	doc, err := layout.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLayout, name, err)
	}
	if _, err := layout.Deserialize(doc, m.catalog); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLayout, name, err)
	}

	m.layouts[name] = doc
	return doc, nil
}

// ListLayouts returns information about every valid layout, sorted by name
func (m *Manager) ListLayouts() ([]*service.LayoutInfo, error) {
	entries, err := os.ReadDir(m.layoutDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout directory: %w", err)
	}

	m.mu.RLock()
	defaultName := m.defaultName
	m.mu.RUnlock()

	var layouts []*service.LayoutInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || entry.Name() == CatalogFile {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		doc, err := m.LoadLayout(name)
		if err != nil {
			m.logger.Debug("skipping layout", "file", entry.Name(), "err", err)
			continue
		}

		info := &service.LayoutInfo{
			Filename:  entry.Name(),
			Name:      name,
			Cols:      doc.Cols,
			Rows:      doc.Rows,
			Furniture: len(doc.Furniture),
			IsDefault: name == defaultName,
		}
		for _, p := range doc.Furniture {
			if e, ok := m.catalog.Lookup(p.TypeID); ok && e.IsDesk {
				info.Desks++
			}
		}
		layouts = append(layouts, info)
	}

	sort.Slice(layouts, func(i, j int) bool { return layouts[i].Name < layouts[j].Name })
	return layouts, nil
}

// GetDefault returns the default layout
func (m *Manager) GetDefault() *layout.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLayout
}

// SetDefault sets the default layout by name
func (m *Manager) SetDefault(name string) error {
	doc, err := m.LoadLayout(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = strings.TrimSuffix(name, ".json")
	m.defaultLayout = doc
	return nil
}

// RefreshCache drops cached layouts and re-reads the catalog and default layout
func (m *Manager) RefreshCache() error {
	cat, err := LoadCatalog(m.layoutDir)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.catalog = cat
	m.layouts = make(map[string]*layout.Document)
	m.mu.Unlock()

	m.loadDefaultLayout()
	return nil
}

// loadDefaultLayout picks default.json, then the first valid layout, then
// the built-in office
func (m *Manager) loadDefaultLayout() {
	name := DefaultLayoutName
	doc, err := m.LoadLayout(name)
	if err != nil {
		doc, name = nil, ""
		layouts, listErr := m.ListLayouts()
		if listErr == nil && len(layouts) > 0 {
			name = layouts[0].Name
			doc, err = m.LoadLayout(name)
		}
	}
	if doc == nil || err != nil {
		m.logger.Debug("no stored default layout, using built-in office")
		doc, name = layout.DefaultDocument(), ""
	}

	m.mu.Lock()
	m.defaultName = name
	m.defaultLayout = doc
	m.mu.Unlock()
}

// SaveLayout validates a layout against the catalog and writes it to disk
func (m *Manager) SaveLayout(name string, doc *layout.Document) error {
	name = strings.TrimSuffix(name, ".json")
	if !validName.MatchString(name) || name == strings.TrimSuffix(CatalogFile, ".json") {
		return ErrInvalidName
	}
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidLayout)
	}
	if _, err := layout.Deserialize(doc, m.Catalog()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}

	data, err := layout.MarshalDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.layoutDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}

	m.mu.Lock()
	m.layouts[name] = doc.Clone()
	m.mu.Unlock()

	return nil
}

