package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilePersistence implements OfficePersistence with one JSON file per office
type FilePersistence struct {
	officesDir string
}

// NewFilePersistence creates a file-based persistence layer
func NewFilePersistence(officesDir string) (*FilePersistence, error) {
	if err := os.MkdirAll(officesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create offices directory: %w", err)
	}
	return &FilePersistence{officesDir: officesDir}, nil
}

// Save writes the record to <dir>/<id>.json
func (fp *FilePersistence) Save(rec *OfficeRecord) error {
	if rec == nil {
		return fmt.Errorf("office record cannot be nil")
	}
	if !validID.MatchString(rec.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidOfficeID, rec.ID)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal office record: %w", err)
	}

	// replace atomically
	path := fp.getFilePath(rec.ID)
	tmp, err := os.CreateTemp(fp.officesDir, rec.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write office file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write office file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write office file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace office file: %w", err)
	}
	return nil
}

// Load reads a record from disk
func (fp *FilePersistence) Load(id string) (*OfficeRecord, error) {
	if !validID.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOfficeID, id)
	}
	data, err := os.ReadFile(fp.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrOfficeNotFound, id)
		}
		return nil, fmt.Errorf("failed to read office file: %w", err)
	}

	var rec OfficeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal office record: %w", err)
	}
	return &rec, nil
}

// Delete removes an office file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return fmt.Errorf("%w: %s", ErrOfficeNotFound, id)
	}
	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove office file: %w", err)
	}
	return nil
}

// ListAll returns all persisted office IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.officesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read offices directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

// Exists checks if an office file exists
func (fp *FilePersistence) Exists(id string) bool {
	if !validID.MatchString(id) {
		return false
	}
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.officesDir, fmt.Sprintf("%s.json", id))
}
