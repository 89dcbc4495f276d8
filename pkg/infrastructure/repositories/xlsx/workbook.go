package xlsx

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
	"github.com/xuri/excelize/v2"
)

// sheet is the raw grid of one worksheet. Cells are read with RawCellValue so number
// formats never reach the parser; cell types decide between the typed and the free-text
// quantity conventions.
type sheet struct {
	file *excelize.File
	name string
	rows [][]string
}

func readSheet(f *excelize.File, name string) (*sheet, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	return &sheet{file: f, name: name, rows: rows}, nil
}

// findSheet returns the first workbook sheet matching any candidate, comparing names
// without case, spaces or underscores
func findSheet(f *excelize.File, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		want := foldSheetName(candidate)
		for _, name := range f.GetSheetList() {
			if foldSheetName(name) == want {
				return name, true
			}
		}
	}
	return "", false
}

func foldSheetName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "")
	return strings.ReplaceAll(name, "_", "")
}

// text returns the trimmed cell at zero-based row r and column c, "" when out of range
func (s *sheet) text(r, c int) string {
	if r < 0 || r >= len(s.rows) || c < 0 || c >= len(s.rows[r]) {
		return ""
	}
	return strings.TrimSpace(s.rows[r][c])
}

// number parses the cell at (r, c). Typed numeric cells use their raw value; text cells
// go through the free-text convention. ok is false for blank or non-numeric cells.
func (s *sheet) number(r, c int) (decimal.Decimal, bool) {
	raw := s.text(r, c)
	if raw == "" {
		return decimal.Zero, false
	}
	if s.isNumericCell(r, c) {
		d, err := decimal.NewFromString(raw)
		if err == nil {
			return d, true
		}
		return normalize.NumericCell(raw), true
	}
	return normalize.TryQuantity(raw)
}

func (s *sheet) isNumericCell(r, c int) bool {
	cell, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return false
	}
	cellType, err := s.file.GetCellType(s.name, cell)
	if err != nil {
		return false
	}
	// Numbers are written without a type attribute, which reads back as unset.
	return cellType == excelize.CellTypeNumber || cellType == excelize.CellTypeUnset
}

func (s *sheet) blankRow(r int) bool {
	if r < 0 || r >= len(s.rows) {
		return true
	}
	for _, cell := range s.rows[r] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cellNumber parses a single addressed cell such as "E2"
func cellNumber(f *excelize.File, sheetName, cell string) (decimal.Decimal, error) {
	raw, err := f.GetCellValue(sheetName, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read %s!%s: %w", sheetName, cell, err)
	}
	cellType, err := f.GetCellType(sheetName, cell)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read type of %s!%s: %w", sheetName, cell, err)
	}
	if cellType == excelize.CellTypeNumber || cellType == excelize.CellTypeUnset {
		return normalize.NumericCell(raw), nil
	}
	return normalize.Quantity(raw), nil
}

// headerColumn locates the first header cell containing any of the markers
// (case-insensitive). Markers are tried in order so more specific ones win.
func headerColumn(header []string, markers []string, taken map[int]bool) int {
	for _, marker := range markers {
		for i, cell := range header {
			if taken[i] {
				continue
			}
			if strings.Contains(strings.ToUpper(strings.TrimSpace(cell)), marker) {
				return i
			}
		}
	}
	return -1
}
