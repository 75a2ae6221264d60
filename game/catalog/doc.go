// Package catalog describes the furniture types that can be placed in an office.
//
// A Catalog is a two-tier registry: entries supplied at runtime (for example
// from a catalog feed sent by the asset pipeline) are consulted first, and the
// built-in defaults answer every id that has no override. Catalogs are values
// built by New or Merge; there is no package-level registry to mutate.
//
// Usage:
//
//	feed, err := catalog.ParseFeed(data)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cat, err := catalog.New().Merge(feed)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	entry, ok := cat.Lookup("desk")
package catalog
