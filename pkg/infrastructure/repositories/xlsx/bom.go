package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/repositories"
	"github.com/xuri/excelize/v2"
)

var (
	bomQtyMarkers          = []string{"QUANTITY", "QTY", "KIEKIS"}
	bomLabelMarkers        = []string{"TYPE", "CROSS-REFERENCE", "ARTICLE", "PART", "COMPONENT", "ITEM", "NAME"}
	bomManufacturerMarkers = []string{"MANUF", "SUPPLIER", "BRAND"}
	bomDescriptionMarkers  = []string{"DESC"}
	bomCostMarkers         = []string{"UNIT COST", "UNIT PRICE", "PRICE", "COST"}
)

// BOMWorkbook reads BOM rows from the first sheet of a workbook. The header row is found
// by its label and quantity captions after SkipRows leading rows.
type BOMWorkbook struct {
	path     string
	skipRows int
}

var _ repositories.BOMRepository = (*BOMWorkbook)(nil)

// NewBOMWorkbook reads the BOM at path, ignoring the first skipRows rows
func NewBOMWorkbook(path string, skipRows int) *BOMWorkbook {
	return &BOMWorkbook{path: path, skipRows: skipRows}
}

type bomLayout struct {
	header   int
	label    int
	qty      int
	manuf    int
	desc     int
	unitCost int
}

func (b *BOMWorkbook) LoadBOM(ctx context.Context) ([]entities.BOMRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open BOM workbook %s: %w", b.path, err)
	}
	defer f.Close()

	s, err := readSheet(f, f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	layout, ok := b.detect(s)
	if !ok {
		return nil, fmt.Errorf("BOM %s: no header row with label and quantity columns", b.path)
	}

	var rows []entities.BOMRow
	for r := layout.header + 1; r < len(s.rows); r++ {
		if s.blankRow(r) {
			continue
		}
		label := s.text(r, layout.label)
		if label == "" {
			continue
		}
		qty, _ := s.number(r, layout.qty)
		row := entities.BOMRow{
			Label:        label,
			Quantity:     qty,
			Manufacturer: s.text(r, layout.manuf),
			Description:  s.text(r, layout.desc),
		}
		if layout.unitCost >= 0 {
			if cost, ok := s.number(r, layout.unitCost); ok {
				row.UnitCost = decimal.NewNullDecimal(cost)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *BOMWorkbook) detect(s *sheet) (bomLayout, bool) {
	for r := b.skipRows; r < len(s.rows) && r < b.skipRows+headerScanRows; r++ {
		header := s.rows[r]
		taken := map[int]bool{}
		qty := headerColumn(header, bomQtyMarkers, taken)
		if qty < 0 {
			continue
		}
		taken[qty] = true
		// Cost captions go first so "Unit price" is never read as a label or quantity.
		cost := headerColumn(header, bomCostMarkers, taken)
		if cost >= 0 {
			taken[cost] = true
		}
		desc := headerColumn(header, bomDescriptionMarkers, taken)
		if desc >= 0 {
			taken[desc] = true
		}
		manuf := headerColumn(header, bomManufacturerMarkers, taken)
		if manuf >= 0 {
			taken[manuf] = true
		}
		label := headerColumn(header, bomLabelMarkers, taken)
		if label < 0 {
			continue
		}
		return bomLayout{
			header:   r,
			label:    label,
			qty:      qty,
			manuf:    manuf,
			desc:     desc,
			unitCost: cost,
		}, true
	}
	return bomLayout{}, false
}

// String describes the source for log lines
func (b *BOMWorkbook) String() string {
	return strings.TrimSpace(b.path)
}
