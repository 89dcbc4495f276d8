package xlsx

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
	"github.com/vsinha/bomalloc/pkg/domain/repositories"
	"github.com/xuri/excelize/v2"
)

// SheetNames lists the accepted names of each reference sheet, first match wins
type SheetNames struct {
	Catalog     []string
	Annotations []string
	Accessories []string
	MainSwitch  []string
	Hours       []string
	Stock       []string
}

// DefaultSheetNames returns the sheet names of the DATA workbook
func DefaultSheetNames() SheetNames {
	return SheetNames{
		Catalog:     []string{"Part_no", "Parts_no", "Part no"},
		Annotations: []string{"Stock"},
		Accessories: []string{"Accessories"},
		MainSwitch:  []string{"MainSwitch", "Main switch"},
		Hours:       []string{"Hours"},
		Stock:       []string{"Kaunas_Stock", "Kaunas stock", "Bins"},
	}
}

// HourlyRateCell holds the hourly labor rate on the hours sheet
const HourlyRateCell = "E2"

// ReferenceWorkbook reads the reference tables from a DATA workbook. Every sheet has a
// header row; columns are positional.
type ReferenceWorkbook struct {
	file   *excelize.File
	sheets SheetNames
}

var _ repositories.ReferenceRepository = (*ReferenceWorkbook)(nil)

// OpenReference opens the reference workbook at path
func OpenReference(path string, sheets SheetNames) (*ReferenceWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference workbook %s: %w", path, err)
	}
	return &ReferenceWorkbook{file: f, sheets: sheets}, nil
}

// Close releases the workbook
func (w *ReferenceWorkbook) Close() error {
	return w.file.Close()
}

func (w *ReferenceWorkbook) required(ctx context.Context, table string, candidates []string) (*sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := findSheet(w.file, candidates)
	if !ok {
		return nil, fmt.Errorf("%w: sheet %s", entities.ErrMissingReference, table)
	}
	return readSheet(w.file, name)
}

func (w *ReferenceWorkbook) optional(ctx context.Context, candidates []string) (*sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := findSheet(w.file, candidates)
	if !ok {
		return nil, nil
	}
	return readSheet(w.file, name)
}

// LoadCatalog reads item no, type no, description, manufacturer, supplier no and unit
// cost. Rows without an item number or type number are skipped.
func (w *ReferenceWorkbook) LoadCatalog(ctx context.Context) ([]entities.CatalogEntry, error) {
	s, err := w.required(ctx, "catalog", w.sheets.Catalog)
	if err != nil {
		return nil, err
	}

	var entries []entities.CatalogEntry
	for r := 1; r < len(s.rows); r++ {
		if s.text(r, 0) == "" || s.text(r, 1) == "" {
			continue
		}
		cost, _ := s.number(r, 5)
		entry, err := entities.NewCatalogEntry(
			s.text(r, 0), s.text(r, 1), s.text(r, 2), s.text(r, 3), s.text(r, 4),
			normalize.NonNegative(cost),
		)
		if err != nil {
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// LoadAnnotations reads component, quantity and comment
func (w *ReferenceWorkbook) LoadAnnotations(ctx context.Context) ([]entities.Annotation, error) {
	s, err := w.required(ctx, "annotations", w.sheets.Annotations)
	if err != nil {
		return nil, err
	}

	var annotations []entities.Annotation
	for r := 1; r < len(s.rows); r++ {
		name := s.text(r, 0)
		if name == "" {
			continue
		}
		qty, _ := s.number(r, 1)
		annotations = append(annotations, entities.Annotation{
			ComponentName: name,
			Quantity:      qty,
			Comment:       s.text(r, 2),
		})
	}
	return annotations, nil
}

// LoadAccessories reads a parent followed by (label, quantity, manufacturer) triples. A
// blank label ends the row; a blank or unreadable quantity counts as 1.
func (w *ReferenceWorkbook) LoadAccessories(ctx context.Context) ([]entities.AccessoryRule, error) {
	s, err := w.optional(ctx, w.sheets.Accessories)
	if err != nil || s == nil {
		return nil, err
	}

	var rules []entities.AccessoryRule
	for r := 1; r < len(s.rows); r++ {
		parent := s.text(r, 0)
		if parent == "" {
			continue
		}
		rule := entities.AccessoryRule{ParentLabel: parent}
		for c := 1; c < len(s.rows[r]); c += 3 {
			label := s.text(r, c)
			if label == "" {
				break
			}
			qty, ok := s.number(r, c+1)
			if !ok {
				qty = decimal.NewFromInt(1)
			}
			rule.Accessories = append(rule.Accessories, entities.AccessorySpec{
				Label:        label,
				Quantity:     normalize.NonNegative(qty),
				Manufacturer: s.text(r, c+2),
			})
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadMainSwitches reads a switch model followed by its accessory labels
func (w *ReferenceWorkbook) LoadMainSwitches(ctx context.Context) ([]entities.MainSwitchRule, error) {
	s, err := w.optional(ctx, w.sheets.MainSwitch)
	if err != nil || s == nil {
		return nil, err
	}

	var rules []entities.MainSwitchRule
	for r := 1; r < len(s.rows); r++ {
		name := s.text(r, 0)
		if name == "" {
			continue
		}
		rule := entities.MainSwitchRule{Switch: name}
		for c := 1; c < len(s.rows[r]); c++ {
			if acc := s.text(r, c); acc != "" {
				rule.Accessories = append(rule.Accessories, acc)
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRateTable reads panel type and hours per grounding scheme (TT, TN-S, TN-C-S), and
// the hourly rate from HourlyRateCell
func (w *ReferenceWorkbook) LoadRateTable(ctx context.Context) (*entities.RateTable, error) {
	s, err := w.optional(ctx, w.sheets.Hours)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &entities.RateTable{}, nil
	}

	rate, err := cellNumber(w.file, s.name, HourlyRateCell)
	if err != nil {
		return nil, err
	}
	table := &entities.RateTable{HourlyRate: normalize.NonNegative(rate)}
	for r := 1; r < len(s.rows); r++ {
		panel := s.text(r, 0)
		if panel == "" {
			continue
		}
		tt, _ := s.number(r, 1)
		tns, _ := s.number(r, 2)
		tncs, _ := s.number(r, 3)
		table.Rows = append(table.Rows, entities.RateRow{
			PanelType: panel,
			HoursTT:   tt,
			HoursTNS:  tns,
			HoursTNCS: tncs,
		})
	}
	return table, nil
}
