package session

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/wricardo/agent-office/game/character"
	"github.com/wricardo/agent-office/game/engine"
)

// persistenceCases returns an opener per backend; postgres needs TEST_DATABASE_URL
func persistenceCases(t *testing.T) map[string]func(t *testing.T) OfficePersistence {
	cases := map[string]func(t *testing.T) OfficePersistence{
		"file": func(t *testing.T) OfficePersistence {
			p, err := NewFilePersistence(filepath.Join(t.TempDir(), "offices"))
			if err != nil {
				t.Fatalf("Failed to create file persistence: %v", err)
			}
			return p
		},
		"sqlite": func(t *testing.T) OfficePersistence {
			p, err := NewSQLitePersistence(filepath.Join(t.TempDir(), "offices.db"))
			if err != nil {
				t.Fatalf("Failed to create sqlite persistence: %v", err)
			}
			t.Cleanup(func() { p.Close() })
			return p
		},
	}
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		cases["postgres"] = func(t *testing.T) OfficePersistence {
			p, err := NewPostgresPersistence(dsn)
			if err != nil {
				t.Fatalf("Failed to create postgres persistence: %v", err)
			}
			t.Cleanup(func() {
				p.db.Exec(`DELETE FROM offices WHERE id IN ('alpha', 'beta')`)
				p.Close()
			})
			return p
		}
	}
	return cases
}

func TestPersistence_Contract(t *testing.T) {
	for name, open := range persistenceCases(t) {
		t.Run(name, func(t *testing.T) {
			p := open(t)

			rec := &OfficeRecord{
				ID:         "alpha",
				LayoutName: "small",
				Layout:     smallOffice(),
				Agents:     []AgentRecord{{ID: 1, DeskID: "desk-1", Tool: "Edit", Active: true}},
			}
			if err := p.Save(rec); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if !p.Exists("alpha") {
				t.Error("Expected alpha to exist")
			}

			rec.Agents = append(rec.Agents, AgentRecord{ID: 2})
			if err := p.Save(rec); err != nil {
				t.Fatalf("Second save failed: %v", err)
			}

			loaded, err := p.Load("alpha")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(loaded.Agents) != 2 || loaded.Agents[0].Tool != "Edit" {
				t.Errorf("Unexpected agents after reload: %+v", loaded.Agents)
			}
			if loaded.Layout == nil || loaded.Layout.Cols != 10 || len(loaded.Layout.Furniture) != 2 {
				t.Errorf("Layout not preserved: %+v", loaded.Layout)
			}

			if err := p.Save(&OfficeRecord{ID: "beta", Layout: smallOffice()}); err != nil {
				t.Fatalf("Save beta failed: %v", err)
			}
			ids, err := p.ListAll()
			if err != nil {
				t.Fatalf("ListAll failed: %v", err)
			}
			sort.Strings(ids)
			if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "beta" {
				t.Errorf("Expected [alpha beta], got %v", ids)
			}

			if err := p.Delete("alpha"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if p.Exists("alpha") {
				t.Error("Expected alpha to be gone")
			}
			if _, err := p.Load("alpha"); !errors.Is(err, ErrOfficeNotFound) {
				t.Errorf("Expected ErrOfficeNotFound, got %v", err)
			}
			if err := p.Delete("alpha"); !errors.Is(err, ErrOfficeNotFound) {
				t.Errorf("Expected ErrOfficeNotFound on second delete, got %v", err)
			}
		})
	}
}

func TestManagerWithPersistence(t *testing.T) {
	for name, open := range persistenceCases(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			manager := NewManager(WithPersistence(store))

			office, err := manager.Create("beta", "small", smallOffice())
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if !store.Exists("beta") {
				t.Fatal("Office should be saved on creation")
			}

			office.Do(func(e *engine.OfficeEngine) error {
				e.AddAgent(2, "desk-2")
				e.SetAgentTool(2, "Grep")
				e.SetAgentActive(2, true)
				e.AddAgent(1, "")
				return nil
			})
			if err := manager.Save("beta"); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			// a fresh manager restores the office on demand
			restored := NewManager(WithPersistence(store))
			got, err := restored.Get("beta")
			if err != nil {
				t.Fatalf("Get from persistence failed: %v", err)
			}
			if got.CreatedAt.Unix() != office.CreatedAt.Unix() {
				t.Errorf("CreatedAt not restored: %v vs %v", got.CreatedAt, office.CreatedAt)
			}

			agents := got.Engine.Agents()
			if len(agents) != 2 {
				t.Fatalf("Expected 2 restored agents, got %d", len(agents))
			}
			if agents[0].ID != 1 || agents[0].DeskID != "desk-1" {
				t.Errorf("Agent 1 should keep desk-1, got %+v", agents[0])
			}
			if agents[1].DeskID != "desk-2" || agents[1].Tool != "Grep" || !agents[1].Active {
				t.Errorf("Agent 2 not restored: %+v", agents[1])
			}

			for i := 0; i < 40; i++ {
				got.Loop.Step(1.0 / 30)
			}
			a2, _ := got.Engine.Agent(2)
			if a2.State != character.Reading {
				t.Errorf("Expected restored reader to be Reading at desk, got %s", a2.State)
			}

			if err := restored.Delete("beta"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if store.Exists("beta") {
				t.Error("Delete should remove the persisted office")
			}
		})
	}
}

func TestManager_LoadPersistedOffices(t *testing.T) {
	store, err := NewFilePersistence(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}

	first := NewManager(WithPersistence(store))
	for _, id := range []string{"one", "two"} {
		if _, err := first.Create(id, "small", smallOffice()); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}
	os.WriteFile(filepath.Join(store.officesDir, "junk.json"), []byte("{"), 0644)

	second := NewManager(WithPersistence(store))
	if err := second.LoadPersistedOffices(); err != nil {
		t.Fatalf("LoadPersistedOffices failed: %v", err)
	}
	if second.Count() != 2 {
		t.Errorf("Expected 2 offices loaded, got %d", second.Count())
	}
	if err := second.SaveAllOffices(); err != nil {
		t.Errorf("SaveAllOffices failed: %v", err)
	}
}

func TestFilePersistence_RejectsBadIDs(t *testing.T) {
	store, err := NewFilePersistence(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	if err := store.Save(&OfficeRecord{ID: "../escape"}); !errors.Is(err, ErrInvalidOfficeID) {
		t.Errorf("Expected ErrInvalidOfficeID, got %v", err)
	}
	if store.Exists("../escape") {
		t.Error("Exists should be false for invalid ids")
	}
}

func TestSQLPersistence_Bind(t *testing.T) {
	pg := &SQLPersistence{driver: "postgres"}
	if got := pg.bind("SELECT ? , ?"); got != "SELECT $1 , $2" {
		t.Errorf("Unexpected postgres query %q", got)
	}
	lite := &SQLPersistence{driver: "sqlite3"}
	if got := lite.bind("SELECT ?"); got != "SELECT ?" {
		t.Errorf("Unexpected sqlite query %q", got)
	}
}
