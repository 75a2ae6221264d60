// Package config manages stored office layouts and the furniture catalog.
//
// Layouts are JSON layout documents kept one per file in a directory. The
// file name without extension is the layout name used to create offices.
// An optional catalog.json in the same directory is a catalog feed merged
// over the built-in furniture; every layout is validated against the
// resulting catalog when it is loaded or saved.
//
// The default layout is default.json when present, otherwise the first
// valid layout by name, otherwise the built-in office.
//
// Usage:
//
//	manager, err := config.NewManager("layouts")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	doc, err := manager.LoadLayout("open-plan")
//	layouts, err := manager.ListLayouts()
//	cat := manager.Catalog()
package config
