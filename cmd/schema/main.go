// Command schema writes JSON Schemas for the layout document and the
// catalog feed so editors can validate files before the server loads them.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/layout"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "schemas", "directory to write the JSON schemas to")
	flag.Parse()

	for name, schema := range buildSchemas() {
		path := filepath.Join(outDir, name)
		if err := writeSchema(path, schema); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Println("wrote", path)
	}
}

func buildSchemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	doc := reflector.Reflect(new(layout.Document))
	doc.Title = "Office Layout"
	doc.Description = "Tile grid and furniture placements of one office."

	feed := reflector.Reflect(new(catalog.Feed))
	feed.Title = "Furniture Catalog Feed"
	feed.Description = "Furniture descriptors merged over the built-in catalog."

	return map[string]*jsonschema.Schema{
		"layout.schema.json":  doc,
		"catalog.schema.json": feed,
	}
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
