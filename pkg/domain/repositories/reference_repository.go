package repositories

import (
	"context"

	"github.com/vsinha/bomalloc/pkg/domain/entities"
)

// ReferenceRepository provides access to the reference tables a run is resolved against.
// The catalog and annotation tables are required: implementations return
// entities.ErrMissingReference wrapped with the table name when either is absent.
// Accessories, main switches and the rate table are optional and load empty when absent.
type ReferenceRepository interface {
	LoadCatalog(ctx context.Context) ([]entities.CatalogEntry, error)
	LoadAnnotations(ctx context.Context) ([]entities.Annotation, error)
	LoadAccessories(ctx context.Context) ([]entities.AccessoryRule, error)
	LoadMainSwitches(ctx context.Context) ([]entities.MainSwitchRule, error)
	LoadRateTable(ctx context.Context) (*entities.RateTable, error)
}

// StockRepository provides the warehouse stock extract
type StockRepository interface {
	LoadStock(ctx context.Context) ([]entities.StockRecord, error)
}

// BOMRepository provides the rows of one BOM source
type BOMRepository interface {
	LoadBOM(ctx context.Context) ([]entities.BOMRow, error)
}
