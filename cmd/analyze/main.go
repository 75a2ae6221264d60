// Command analyze prints quick, human-readable heuristics about office
// layouts: dimensions, floor space, furniture by category, spawn capacity
// and how long agents walk from the first spawn tile to each desk.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/agent-office/game/catalog"
	"github.com/wricardo/agent-office/game/character"
	"github.com/wricardo/agent-office/game/clock"
	"github.com/wricardo/agent-office/game/config"
	"github.com/wricardo/agent-office/game/layout"
	"github.com/wricardo/agent-office/game/pathfind"
)

// DeskRoute is the walk from the spawn tile to one desk seat
type DeskRoute struct {
	DeskID    string
	Seat      layout.Position
	Steps     int
	Reachable bool
}

// Analysis summarizes a single layout
type Analysis struct {
	Cols, Rows int
	Floor      int
	Walkable   int
	Spawn      layout.Position
	HasSpawn   bool
	Categories map[string]int
	Routes     []DeskRoute
}

// Desks returns the number of desks in the layout
func (a *Analysis) Desks() int {
	return len(a.Routes)
}

// LongestRoute returns the reachable desk with the most steps
func (a *Analysis) LongestRoute() (DeskRoute, bool) {
	var best DeskRoute
	found := false
	for _, r := range a.Routes {
		if r.Reachable && (!found || r.Steps > best.Steps) {
			best, found = r, true
		}
	}
	return best, found
}

func analyze(doc *layout.Document, cat *catalog.Catalog) (*Analysis, error) {
	grid, err := layout.Deserialize(doc, cat)
	if err != nil {
		return nil, err
	}

	cols, rows := grid.Size()
	a := &Analysis{Cols: cols, Rows: rows, Categories: make(map[string]int)}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pos := layout.Position{X: x, Y: y}
			if grid.IsFloor(pos) {
				a.Floor++
			}
			if grid.IsWalkable(pos) {
				if !a.HasSpawn {
					a.Spawn, a.HasSpawn = pos, true
				}
				a.Walkable++
			}
		}
	}

	for _, f := range grid.FurnitureList() {
		category := "other"
		if entry, ok := cat.Lookup(f.TypeID); ok && entry.Category != "" {
			category = entry.Category
		}
		a.Categories[category]++
	}

	for _, desk := range grid.Desks() {
		route := DeskRoute{DeskID: desk.ID, Seat: desk.Anchor()}
		if a.HasSpawn {
			if path, err := pathfind.Find(grid, a.Spawn, route.Seat, pathfind.WithPassable(route.Seat)); err == nil {
				route.Steps = len(path)
				route.Reachable = true
			}
		}
		a.Routes = append(a.Routes, route)
	}
	return a, nil
}

func report(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Cols, a.Rows)
	fmt.Fprintf(w, "Floor Tiles: %d (walkable %d)\n", a.Floor, a.Walkable)
	fmt.Fprintf(w, "Desks: %d\n", a.Desks())

	categories := make([]string, 0, len(a.Categories))
	for c := range a.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Fprintf(w, "  %s: %d\n", c, a.Categories[c])
	}

	if !a.HasSpawn {
		fmt.Fprintf(w, "⚠️  CRITICAL: no free floor tile, agents cannot spawn\n")
		return
	}
	fmt.Fprintf(w, "Spawn Tile: (%d, %d)\n", a.Spawn.X, a.Spawn.Y)

	// every agent needs its own tile
	if a.Walkable < a.Desks() {
		fmt.Fprintf(w, "⚠️  WARNING: only %d agents fit but there are %d desks\n", a.Walkable, a.Desks())
	}

	var unreachable []DeskRoute
	for _, r := range a.Routes {
		if !r.Reachable {
			unreachable = append(unreachable, r)
		}
	}
	if len(unreachable) > 0 {
		fmt.Fprintf(w, "⚠️  CRITICAL: %d desks are unreachable from the spawn tile!\n", len(unreachable))
		for _, r := range unreachable {
			fmt.Fprintf(w, "   Unreachable Desk: %s at (%d, %d)\n", r.DeskID, r.Seat.X, r.Seat.Y)
		}
	} else if a.Desks() > 0 {
		fmt.Fprintf(w, "✅ All desks are reachable from the spawn tile\n")
	}

	if longest, ok := a.LongestRoute(); ok {
		ticks := float64(longest.Steps) / character.DefaultStepsPerTick
		seconds := ticks / clock.DefaultTickRate
		fmt.Fprintf(w, "Longest Walk: %s, %d steps (%.0f ticks, %.2fs at %d Hz)\n",
			longest.DeskID, longest.Steps, ticks, seconds, clock.DefaultTickRate)
	}
}

func analyzeFile(w io.Writer, path string, cat *catalog.Catalog) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	doc, err := layout.ParseDocument(data)
	if err != nil {
		return fmt.Errorf("error parsing layout: %w", err)
	}
	a, err := analyze(doc, cat)
	if err != nil {
		return err
	}
	report(w, a)
	return nil
}

func main() {
	dir := "layouts"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	cat, err := config.LoadCatalog(dir)
	if err != nil {
		fmt.Printf("Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(files) == 0 {
		fmt.Printf("\n=== Analyzing built-in layout ===\n")
		a, err := analyze(layout.DefaultDocument(), cat)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		report(os.Stdout, a)
		return
	}

	for _, file := range files {
		if filepath.Base(file) == config.CatalogFile {
			continue
		}
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		if err := analyzeFile(os.Stdout, file, cat); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}
