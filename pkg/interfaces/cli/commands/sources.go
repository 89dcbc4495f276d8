package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vsinha/bomalloc/pkg/domain/repositories"
	"github.com/vsinha/bomalloc/pkg/infrastructure/config"
	"github.com/vsinha/bomalloc/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bomalloc/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/bomalloc/pkg/infrastructure/repositories/xlsx"
)

// referenceSource is an opened reference and stock pair. Close releases whatever files
// or connections were opened.
type referenceSource struct {
	ref     repositories.ReferenceRepository
	stock   repositories.StockRepository
	closers []io.Closer
}

func (s *referenceSource) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

func isWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

func isDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// openReference opens the reference data at dataPath: a workbook, a SQLite database or a
// directory of CSV files. Stock comes from stockPath when given, otherwise from the
// reference source itself.
func openReference(ctx context.Context, dataPath, stockPath string, cfg config.Config) (*referenceSource, error) {
	if dataPath == "" {
		return nil, fmt.Errorf("reference data path is required")
	}
	src := &referenceSource{}

	info, err := os.Stat(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference data: %w", err)
	}

	switch {
	case info.IsDir():
		loader := csv.NewLoader(dataPath)
		src.ref, src.stock = loader, loader
	case isDatabase(dataPath):
		store, err := sqlite.OpenReadOnly(ctx, dataPath)
		if err != nil {
			return nil, err
		}
		src.ref, src.stock = store, store
		src.closers = append(src.closers, store)
	case isWorkbook(dataPath):
		wb, err := xlsx.OpenReference(dataPath, sheetNames(cfg))
		if err != nil {
			return nil, err
		}
		src.ref, src.stock = wb, xlsx.StockFrom(wb)
		src.closers = append(src.closers, wb)
	default:
		return nil, fmt.Errorf("unsupported reference data %s: expected .xlsx, .db or a CSV directory", dataPath)
	}

	if stockPath == "" {
		return src, nil
	}
	stock, closer, err := openStock(ctx, stockPath, cfg)
	if err != nil {
		src.Close()
		return nil, err
	}
	src.stock = stock
	if closer != nil {
		src.closers = append(src.closers, closer)
	}
	return src, nil
}

func openStock(ctx context.Context, path string, cfg config.Config) (repositories.StockRepository, io.Closer, error) {
	switch {
	case isWorkbook(path):
		wb, err := xlsx.OpenStock(path, cfg.Sheets.Stock)
		if err != nil {
			return nil, nil, err
		}
		return wb, wb, nil
	case isDatabase(path):
		store, err := sqlite.OpenReadOnly(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case strings.EqualFold(filepath.Ext(path), ".csv"):
		return csv.NewStockFile(path), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported stock file %s: expected .xlsx, .csv or .db", path)
	}
}

// openBOM selects the BOM reader by file extension. skipRows applies to workbooks only.
func openBOM(path string, skipRows int) (repositories.BOMRepository, error) {
	switch {
	case isWorkbook(path):
		return xlsx.NewBOMWorkbook(path, skipRows), nil
	case strings.EqualFold(filepath.Ext(path), ".csv"):
		return csv.NewBOMFile(path), nil
	default:
		return nil, fmt.Errorf("unsupported BOM file %s: expected .xlsx or .csv", path)
	}
}
