package memory

import (
	"context"
	"fmt"

	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/repositories"
)

// StockRepository provides in-memory stock storage
type StockRepository struct {
	records []entities.StockRecord
	loaded  bool
}

// NewStockRepository creates a new in-memory stock repository
func NewStockRepository() *StockRepository {
	return &StockRepository{}
}

// Verify interface compliance
var _ repositories.StockRepository = (*StockRepository)(nil)

// AddStock adds one bin record
func (r *StockRepository) AddStock(record entities.StockRecord) {
	r.records = append(r.records, record)
	r.loaded = true
}

// SetStock replaces all records
func (r *StockRepository) SetStock(records []entities.StockRecord) {
	r.records = append([]entities.StockRecord(nil), records...)
	r.loaded = true
}

func (r *StockRepository) LoadStock(ctx context.Context) ([]entities.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.loaded {
		return nil, fmt.Errorf("%w: stock", entities.ErrMissingReference)
	}
	return append([]entities.StockRecord(nil), r.records...), nil
}

// BOMRepository holds the rows of one BOM source
type BOMRepository struct {
	rows []entities.BOMRow
}

// NewBOMRepository creates a BOM source over rows
func NewBOMRepository(rows ...entities.BOMRow) *BOMRepository {
	return &BOMRepository{rows: append([]entities.BOMRow(nil), rows...)}
}

// Verify interface compliance
var _ repositories.BOMRepository = (*BOMRepository)(nil)

func (r *BOMRepository) LoadBOM(ctx context.Context) ([]entities.BOMRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]entities.BOMRow(nil), r.rows...), nil
}
