// Command validate checks office layout JSON files in a layout directory.
// It checks:
//   - JSON structure, version and tile count
//   - Furniture types against the catalog (built-in merged with catalog.json)
//   - Placement rules: bounds, overlap, wall and surface items
//   - Presence of at least one desk
//   - Reachability: every desk seat can be reached from the first free floor tile
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/config"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/pathfind"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateLayout loads and validates a single layout document
func validateLayout(filePath string, cat *catalog.Catalog) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	doc, err := layout.ParseDocument(data)
	if err != nil {
		result.fail("Invalid document: %v", err)
		return result
	}

	grid, err := layout.Deserialize(doc, cat)
	if err != nil {
		result.fail("Invalid layout: %v", err)
		return result
	}

	desks := grid.Desks()
	if len(desks) == 0 {
		result.fail("Must have at least 1 desk")
		return result
	}

	reach := validateReachability(grid)
	if !reach.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, reach.Errors...)

	if result.Valid {
		cols, rows := grid.Size()
		result.info("Grid: %dx%d", cols, rows)
		result.info("Furniture: %d", len(doc.Furniture))
		result.info("Desks: %d", len(desks))
	}
	return result
}

// validateReachability plans a route from the first walkable tile to every
// desk seat. Walls and furniture block; the seat itself is entered.
func validateReachability(grid *layout.Layout) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	origin, ok := firstWalkable(grid)
	if !ok {
		result.fail("Cannot validate reachability: no free floor tile")
		return result
	}

	desks := grid.Desks()
	var unreachable []string
	for _, desk := range desks {
		seat := desk.Anchor()
		if _, err := pathfind.Find(grid, origin, seat, pathfind.WithPassable(seat)); err != nil {
			unreachable = append(unreachable, fmt.Sprintf("%s at (%d,%d)", desk.ID, seat.X, seat.Y))
		}
	}

	if len(unreachable) > 0 {
		result.fail("Reachability failure: %d/%d desks unreachable from (%d,%d)", len(unreachable), len(desks), origin.X, origin.Y)
		for _, d := range unreachable {
			result.fail("Unreachable: %s", d)
		}
		return result
	}
	result.info("Reachability: all %d desks reachable", len(desks))
	return result
}

func firstWalkable(grid *layout.Layout) (layout.Position, bool) {
	cols, rows := grid.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if pos := (layout.Position{X: x, Y: y}); grid.IsWalkable(pos) {
				return pos, true
			}
		}
	}
	return layout.Position{}, false
}

// layoutFiles lists the layout documents of a directory, skipping the catalog feed
func layoutFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	out := files[:0]
	for _, f := range files {
		if filepath.Base(f) != config.CatalogFile {
			out = append(out, f)
		}
	}
	return out, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	cat, err := config.LoadCatalog(dir)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error loading catalog: %v", err), 1)
	}

	files := cmd.Args().Slice()
	if len(files) == 0 {
		files, err = layoutFiles(dir)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error finding layout files: %v", err), 1)
		}
	}

	out := cmd.Root().Writer
	allValid := true
	for _, file := range files {
		result := validateLayout(file, cat)

		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(out, "  "+info)
			}
		} else {
			fmt.Fprintln(out, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(out, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		return cli.Exit("❌ Some layouts have errors", 1)
	}
	fmt.Fprintln(out, "✅ All layouts are valid!")
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "validate office layout documents",
		ArgsUsage: "[layout.json ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "layouts",
				Usage:   "layout directory (also the catalog.json location)",
				Sources: cli.EnvVars("LAYOUT_DIR"),
			},
		},
		Action: run,
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
