package resolution

import (
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
)

// CatalogIndex is the immutable lookup from canonical key to catalog entry, built once
// per run. The first entry per key and per catalog number wins; later duplicates are
// dropped and kept aside for reporting.
type CatalogIndex struct {
	byKey      map[string]entities.CatalogEntry
	byNo       map[string]entities.CatalogEntry
	entries    []entities.CatalogEntry
	duplicates []entities.CatalogEntry
}

// NewCatalogIndex builds an index from the parts table in table order
func NewCatalogIndex(entries []entities.CatalogEntry) *CatalogIndex {
	idx := &CatalogIndex{
		byKey:      make(map[string]entities.CatalogEntry, len(entries)),
		byNo:       make(map[string]entities.CatalogEntry, len(entries)),
		entries:    make([]entities.CatalogEntry, 0, len(entries)),
		duplicates: make([]entities.CatalogEntry, 0),
	}

	for _, entry := range entries {
		if entry.CanonicalKey == "" {
			entry.CanonicalKey = normalize.Key(entry.DisplayName)
		}
		no := normalize.Key(entry.CatalogNo)

		_, keyTaken := idx.byKey[entry.CanonicalKey]
		_, noTaken := idx.byNo[no]
		if keyTaken || noTaken {
			idx.duplicates = append(idx.duplicates, entry)
			continue
		}

		idx.byKey[entry.CanonicalKey] = entry
		idx.byNo[no] = entry
		idx.entries = append(idx.entries, entry)
	}

	return idx
}

// Lookup finds the catalog entry for a canonical key
func (c *CatalogIndex) Lookup(key string) (entities.CatalogEntry, bool) {
	entry, ok := c.byKey[key]
	return entry, ok
}

// ByCatalogNo finds the catalog entry carrying a catalog number
func (c *CatalogIndex) ByCatalogNo(catalogNo string) (entities.CatalogEntry, bool) {
	entry, ok := c.byNo[normalize.Key(catalogNo)]
	return entry, ok
}

// Entries returns the surviving entries in table order
func (c *CatalogIndex) Entries() []entities.CatalogEntry {
	out := make([]entities.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Duplicates returns the entries dropped by the first-wins rule, in table order
func (c *CatalogIndex) Duplicates() []entities.CatalogEntry {
	out := make([]entities.CatalogEntry, len(c.duplicates))
	copy(out, c.duplicates)
	return out
}

// Len returns the number of indexed entries
func (c *CatalogIndex) Len() int {
	return len(c.entries)
}

// Resolver attaches catalog metadata to demand lines
type Resolver struct {
	index *CatalogIndex
}

// NewResolver creates a resolver over an index
func NewResolver(index *CatalogIndex) *Resolver {
	return &Resolver{index: index}
}

// ResolveLine returns a resolved copy of the demand, or an unresolved copy when its key
// matches no catalog entry. Unresolved copies keep their own manufacturer, description
// and unit cost.
func (r *Resolver) ResolveLine(demand entities.ComponentDemand) entities.ComponentDemand {
	entry, ok := r.index.Lookup(demand.CanonicalKey)
	if !ok {
		return demand.Unresolved()
	}
	return demand.ResolvedWith(entry)
}

// Resolve resolves every line, preserving order
func (r *Resolver) Resolve(demands []entities.ComponentDemand) []entities.ComponentDemand {
	resolved := make([]entities.ComponentDemand, 0, len(demands))
	for _, demand := range demands {
		resolved = append(resolved, r.ResolveLine(demand))
	}
	return resolved
}
