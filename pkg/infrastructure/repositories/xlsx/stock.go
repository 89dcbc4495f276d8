package xlsx

import (
	"context"
	"fmt"

	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
	"github.com/vsinha/bomalloc/pkg/domain/repositories"
	"github.com/xuri/excelize/v2"
)

var (
	stockBinMarkers     = []string{"BIN"}
	stockQtyMarkers     = []string{"QUANTITY", "QTY"}
	stockCatalogMarkers = []string{"COMP", "ITEM", "NO"}
)

// headerScanRows bounds how far down a sheet a header row is searched for
const headerScanRows = 30

// StockWorkbook reads the warehouse stock extract. Columns are found by header text;
// without a recognizable header the first three columns are catalog number, bin and
// quantity.
type StockWorkbook struct {
	file       *excelize.File
	candidates []string
	fallback   bool
	shared     bool
}

var _ repositories.StockRepository = (*StockWorkbook)(nil)

// OpenStock opens a dedicated stock workbook. When no sheet matches the candidates the
// first sheet is read.
func OpenStock(path string, candidates []string) (*StockWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stock workbook %s: %w", path, err)
	}
	return &StockWorkbook{file: f, candidates: candidates, fallback: true}, nil
}

// StockFrom reads stock from a sheet of an already open reference workbook. A missing
// sheet is a missing reference.
func StockFrom(ref *ReferenceWorkbook) *StockWorkbook {
	return &StockWorkbook{file: ref.file, candidates: ref.sheets.Stock, shared: true}
}

// Close releases the workbook unless it belongs to a reference workbook
func (w *StockWorkbook) Close() error {
	if w.shared {
		return nil
	}
	return w.file.Close()
}

func (w *StockWorkbook) LoadStock(ctx context.Context) ([]entities.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := findSheet(w.file, w.candidates)
	if !ok {
		if !w.fallback {
			return nil, fmt.Errorf("%w: sheet stock", entities.ErrMissingReference)
		}
		name = w.file.GetSheetName(0)
	}
	s, err := readSheet(w.file, name)
	if err != nil {
		return nil, err
	}

	headerRow, catCol, binCol, qtyCol := stockColumns(s)
	var records []entities.StockRecord
	for r := headerRow + 1; r < len(s.rows); r++ {
		catalogNo := s.text(r, catCol)
		binID := s.text(r, binCol)
		if catalogNo == "" || binID == "" {
			continue
		}
		qty, _ := s.number(r, qtyCol)
		record, err := entities.NewStockRecord(catalogNo, binID, normalize.NonNegative(qty))
		if err != nil {
			return nil, fmt.Errorf("stock sheet %s row %d: %w", s.name, r+1, err)
		}
		records = append(records, *record)
	}
	return records, nil
}

func stockColumns(s *sheet) (headerRow, catCol, binCol, qtyCol int) {
	for r := 0; r < len(s.rows) && r < headerScanRows; r++ {
		taken := map[int]bool{}
		bin := headerColumn(s.rows[r], stockBinMarkers, taken)
		if bin < 0 {
			continue
		}
		taken[bin] = true
		qty := headerColumn(s.rows[r], stockQtyMarkers, taken)
		if qty < 0 {
			continue
		}
		taken[qty] = true
		cat := headerColumn(s.rows[r], stockCatalogMarkers, taken)
		if cat < 0 {
			continue
		}
		return r, cat, bin, qty
	}
	return 0, 0, 1, 2
}
