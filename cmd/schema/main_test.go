package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildSchemas(t *testing.T) {
	schemas := buildSchemas()

	tests := []struct {
		file   string
		title  string
		fields []string
	}{
		{"layout.schema.json", "Office Layout", []string{`"cols"`, `"rows"`, `"tiles"`, `"furniture"`, `"typeId"`, `"rotation"`}},
		{"catalog.schema.json", "Furniture Catalog Feed", []string{`"catalog"`, `"footprintW"`, `"isDesk"`, `"canPlaceOnSurfaces"`, `"sprites"`}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			schema, ok := schemas[tt.file]
			if !ok {
				t.Fatalf("Missing schema %s", tt.file)
			}
			if schema.Title != tt.title {
				t.Errorf("Expected title %q, got %q", tt.title, schema.Title)
			}

			data, err := json.Marshal(schema)
			if err != nil {
				t.Fatalf("Failed to marshal schema: %v", err)
			}
			for _, field := range tt.fields {
				if !strings.Contains(string(data), field) {
					t.Errorf("Expected %s in schema", field)
				}
			}
		})
	}
}

func TestWriteSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "layout.schema.json")
	if err := writeSchema(path, buildSchemas()["layout.schema.json"]); err != nil {
		t.Fatalf("writeSchema failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Schema is not valid JSON: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be renamed away")
	}
}
