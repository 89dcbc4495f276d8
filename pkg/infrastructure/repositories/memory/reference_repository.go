package memory

import (
	"context"
	"fmt"

	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
	"github.com/vsinha/bomalloc/pkg/domain/repositories"
)

// ReferenceRepository provides in-memory reference tables. A table counts as present
// once it has been set, even when empty.
type ReferenceRepository struct {
	catalog      []entities.CatalogEntry
	catalogMap   map[string]int
	annotations  []entities.Annotation
	accessories  []entities.AccessoryRule
	mainSwitches []entities.MainSwitchRule
	rates        *entities.RateTable
	present      map[string]bool
}

// NewReferenceRepository creates a new in-memory reference repository
func NewReferenceRepository(expectedEntries int) *ReferenceRepository {
	return &ReferenceRepository{
		catalog:    make([]entities.CatalogEntry, 0, expectedEntries),
		catalogMap: make(map[string]int, expectedEntries),
		present:    make(map[string]bool),
	}
}

// Verify interface compliance
var _ repositories.ReferenceRepository = (*ReferenceRepository)(nil)

// AddCatalogEntry adds an entry; the first entry of a catalog number stays addressable
func (r *ReferenceRepository) AddCatalogEntry(entry entities.CatalogEntry) {
	key := normalize.Key(entry.CatalogNo)
	if _, exists := r.catalogMap[key]; !exists {
		r.catalogMap[key] = len(r.catalog)
	}
	r.catalog = append(r.catalog, entry)
	r.present["catalog"] = true
}

// SetCatalog replaces the catalog
func (r *ReferenceRepository) SetCatalog(entries []entities.CatalogEntry) {
	r.catalog = r.catalog[:0]
	r.catalogMap = make(map[string]int, len(entries))
	for _, e := range entries {
		r.AddCatalogEntry(e)
	}
	r.present["catalog"] = true
}

// GetCatalogEntry returns the entry for a catalog number
func (r *ReferenceRepository) GetCatalogEntry(catalogNo string) (*entities.CatalogEntry, error) {
	index, exists := r.catalogMap[normalize.Key(catalogNo)]
	if !exists {
		return nil, fmt.Errorf("catalog entry %s: %w", catalogNo, entities.ErrNotFound)
	}
	entry := r.catalog[index]
	return &entry, nil
}

// SetAnnotations replaces the annotations
func (r *ReferenceRepository) SetAnnotations(annotations []entities.Annotation) {
	r.annotations = append([]entities.Annotation(nil), annotations...)
	r.present["annotations"] = true
}

// SetAccessories replaces the accessory rules
func (r *ReferenceRepository) SetAccessories(rules []entities.AccessoryRule) {
	r.accessories = append([]entities.AccessoryRule(nil), rules...)
}

// SetMainSwitches replaces the main switch rules
func (r *ReferenceRepository) SetMainSwitches(rules []entities.MainSwitchRule) {
	r.mainSwitches = append([]entities.MainSwitchRule(nil), rules...)
}

// SetRateTable replaces the rate table
func (r *ReferenceRepository) SetRateTable(table *entities.RateTable) {
	r.rates = table
}

func (r *ReferenceRepository) require(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.present[table] {
		return fmt.Errorf("%w: %s", entities.ErrMissingReference, table)
	}
	return nil
}

func (r *ReferenceRepository) LoadCatalog(ctx context.Context) ([]entities.CatalogEntry, error) {
	if err := r.require(ctx, "catalog"); err != nil {
		return nil, err
	}
	return append([]entities.CatalogEntry(nil), r.catalog...), nil
}

func (r *ReferenceRepository) LoadAnnotations(ctx context.Context) ([]entities.Annotation, error) {
	if err := r.require(ctx, "annotations"); err != nil {
		return nil, err
	}
	return append([]entities.Annotation(nil), r.annotations...), nil
}

func (r *ReferenceRepository) LoadAccessories(ctx context.Context) ([]entities.AccessoryRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]entities.AccessoryRule(nil), r.accessories...), nil
}

func (r *ReferenceRepository) LoadMainSwitches(ctx context.Context) ([]entities.MainSwitchRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]entities.MainSwitchRule(nil), r.mainSwitches...), nil
}

func (r *ReferenceRepository) LoadRateTable(ctx context.Context) (*entities.RateTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.rates == nil {
		return &entities.RateTable{}, nil
	}
	table := *r.rates
	table.Rows = append([]entities.RateRow(nil), r.rates.Rows...)
	return &table, nil
}
