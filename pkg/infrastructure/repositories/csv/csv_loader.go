package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
	"github.com/vsinha/bomalloc/pkg/domain/repositories"
)

// Reference table files inside a CSV reference directory
const (
	CatalogFile      = "catalog.csv"
	AnnotationsFile  = "annotations.csv"
	AccessoriesFile  = "accessories.csv"
	MainSwitchesFile = "main_switches.csv"
	RatesFile        = "rates.csv"
	StockFile        = "stock.csv"
)

var (
	catalogHeader     = []string{"catalog_no", "display_name", "description", "manufacturer", "supplier_no", "unit_cost"}
	annotationsHeader = []string{"component_name", "quantity", "comment"}
	accessoriesHeader = []string{"parent", "accessory", "quantity", "manufacturer"}
	mainSwitchHeader  = []string{"switch", "accessory"}
	ratesHeader       = []string{"panel_type", "hours_tt", "hours_tn_s", "hours_tn_c_s", "hourly_rate"}
	stockHeader       = []string{"catalog_no", "bin_id", "quantity"}
	bomHeader         = []string{"label", "quantity", "manufacturer", "description"}
	bomCostHeader     = append(append([]string{}, bomHeader...), "unit_cost")
)

// Loader handles loading reference tables and stock from a directory of CSV files
type Loader struct {
	dir string
}

var (
	_ repositories.ReferenceRepository = (*Loader)(nil)
	_ repositories.StockRepository     = (*Loader)(nil)
)

// NewLoader creates a new CSV loader for the directory dir
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadCatalog loads the parts catalog
func (l *Loader) LoadCatalog(ctx context.Context) ([]entities.CatalogEntry, error) {
	records, err := l.readTable(ctx, CatalogFile, "catalog", catalogHeader, true)
	if err != nil {
		return nil, err
	}

	var entries []entities.CatalogEntry
	for i, record := range records {
		cost, err := parseNumber(record[5], "unit_cost")
		if err != nil {
			return nil, fmt.Errorf("catalog CSV row %d: %w", i+2, err)
		}
		entry, err := entities.NewCatalogEntry(record[0], record[1], record[2], record[3], record[4], cost)
		if err != nil {
			return nil, fmt.Errorf("catalog CSV row %d: %w", i+2, err)
		}
		entries = append(entries, *entry)
	}

	return entries, nil
}

// LoadAnnotations loads the warehouse annotations
func (l *Loader) LoadAnnotations(ctx context.Context) ([]entities.Annotation, error) {
	records, err := l.readTable(ctx, AnnotationsFile, "annotations", annotationsHeader, true)
	if err != nil {
		return nil, err
	}

	var annotations []entities.Annotation
	for i, record := range records {
		name := strings.TrimSpace(record[0])
		if name == "" {
			return nil, fmt.Errorf("annotations CSV row %d: component name cannot be empty", i+2)
		}
		annotations = append(annotations, entities.Annotation{
			ComponentName: name,
			Quantity:      normalize.Quantity(record[1]),
			Comment:       strings.TrimSpace(record[2]),
		})
	}

	return annotations, nil
}

// LoadAccessories loads one accessory per row. Rows of the same parent are grouped in
// file order; a blank quantity counts as 1.
func (l *Loader) LoadAccessories(ctx context.Context) ([]entities.AccessoryRule, error) {
	records, err := l.readTable(ctx, AccessoriesFile, "accessories", accessoriesHeader, false)
	if err != nil {
		return nil, err
	}

	var rules []entities.AccessoryRule
	index := make(map[string]int)
	for i, record := range records {
		parent := strings.TrimSpace(record[0])
		label := strings.TrimSpace(record[1])
		if parent == "" || label == "" {
			return nil, fmt.Errorf("accessories CSV row %d: parent and accessory cannot be empty", i+2)
		}

		qty := decimal.NewFromInt(1)
		if strings.TrimSpace(record[2]) != "" {
			if qty, err = parseNumber(record[2], "quantity"); err != nil {
				return nil, fmt.Errorf("accessories CSV row %d: %w", i+2, err)
			}
		}

		pos, ok := index[normalize.Key(parent)]
		if !ok {
			pos = len(rules)
			index[normalize.Key(parent)] = pos
			rules = append(rules, entities.AccessoryRule{ParentLabel: parent})
		}
		rules[pos].Accessories = append(rules[pos].Accessories, entities.AccessorySpec{
			Label:        label,
			Quantity:     qty,
			Manufacturer: strings.TrimSpace(record[3]),
		})
	}

	return rules, nil
}

// LoadMainSwitches loads one switch accessory per row; a row with a blank accessory
// registers the switch alone
func (l *Loader) LoadMainSwitches(ctx context.Context) ([]entities.MainSwitchRule, error) {
	records, err := l.readTable(ctx, MainSwitchesFile, "main switches", mainSwitchHeader, false)
	if err != nil {
		return nil, err
	}

	var rules []entities.MainSwitchRule
	index := make(map[string]int)
	for i, record := range records {
		name := strings.TrimSpace(record[0])
		if name == "" {
			return nil, fmt.Errorf("main switches CSV row %d: switch cannot be empty", i+2)
		}
		pos, ok := index[normalize.Key(name)]
		if !ok {
			pos = len(rules)
			index[normalize.Key(name)] = pos
			rules = append(rules, entities.MainSwitchRule{Switch: name})
		}
		if acc := strings.TrimSpace(record[1]); acc != "" {
			rules[pos].Accessories = append(rules[pos].Accessories, acc)
		}
	}

	return rules, nil
}

// LoadRateTable loads hours per panel type. The hourly rate is the first non-blank
// hourly_rate value.
func (l *Loader) LoadRateTable(ctx context.Context) (*entities.RateTable, error) {
	records, err := l.readTable(ctx, RatesFile, "rates", ratesHeader, false)
	if err != nil {
		return nil, err
	}

	table := &entities.RateTable{}
	rateSet := false
	for i, record := range records {
		panel := strings.TrimSpace(record[0])
		if panel == "" {
			return nil, fmt.Errorf("rates CSV row %d: panel type cannot be empty", i+2)
		}
		row := entities.RateRow{PanelType: panel}
		for col, target := range []*decimal.Decimal{&row.HoursTT, &row.HoursTNS, &row.HoursTNCS} {
			v, err := parseNumber(record[col+1], ratesHeader[col+1])
			if err != nil {
				return nil, fmt.Errorf("rates CSV row %d: %w", i+2, err)
			}
			*target = v
		}
		table.Rows = append(table.Rows, row)

		if !rateSet && strings.TrimSpace(record[4]) != "" {
			rate, err := parseNumber(record[4], "hourly_rate")
			if err != nil {
				return nil, fmt.Errorf("rates CSV row %d: %w", i+2, err)
			}
			table.HourlyRate = rate
			rateSet = true
		}
	}

	return table, nil
}

// LoadStock loads the warehouse stock extract
func (l *Loader) LoadStock(ctx context.Context) ([]entities.StockRecord, error) {
	return NewStockFile(filepath.Join(l.dir, StockFile)).LoadStock(ctx)
}

// StockFileReader reads a stock extract from a single CSV file
type StockFileReader struct {
	path string
}

var _ repositories.StockRepository = (*StockFileReader)(nil)

// NewStockFile creates a stock reader for path
func NewStockFile(path string) *StockFileReader {
	return &StockFileReader{path: path}
}

func (f *StockFileReader) LoadStock(ctx context.Context) ([]entities.StockRecord, error) {
	records, err := readFile(ctx, f.path, "stock", stockHeader, true)
	if err != nil {
		return nil, err
	}

	var stock []entities.StockRecord
	for i, record := range records {
		qty, err := parseNumber(record[2], "quantity")
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		rec, err := entities.NewStockRecord(record[0], record[1], qty)
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		stock = append(stock, *rec)
	}

	return stock, nil
}

// readTable returns the data rows of a reference file after validating its header. A
// missing required file is reported as a missing reference; a missing optional file
// loads no rows.
func (l *Loader) readTable(ctx context.Context, filename, table string, expectedHeader []string, required bool) ([][]string, error) {
	return readFile(ctx, filepath.Join(l.dir, filename), table, expectedHeader, required)
}

func readFile(ctx context.Context, path, table string, expectedHeader []string, required bool) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if required {
			return nil, fmt.Errorf("%w: %s (%s)", entities.ErrMissingReference, table, path)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", table, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", table, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", table)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", table, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", table, i+2, len(expectedHeader), len(record))
		}
	}

	return rows, nil
}

// BOMFile reads BOM rows from a CSV file with an optional trailing unit_cost column
type BOMFile struct {
	path string
}

var _ repositories.BOMRepository = (*BOMFile)(nil)

// NewBOMFile creates a BOM reader for path
func NewBOMFile(path string) *BOMFile {
	return &BOMFile{path: path}
}

// LoadBOM loads BOM rows. Quantities that cannot be read count as zero.
func (b *BOMFile) LoadBOM(ctx context.Context) ([]entities.BOMRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(b.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open BOM file %s: %w", b.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read BOM CSV: %w", err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("BOM CSV must have a header row")
	}

	expectedHeader := bomHeader
	if len(records[0]) == len(bomCostHeader) {
		expectedHeader = bomCostHeader
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("BOM CSV header mismatch. Expected: %v, Got: %v", bomCostHeader, records[0])
	}

	var rows []entities.BOMRow
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("BOM CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}
		label := strings.TrimSpace(record[0])
		if label == "" {
			continue
		}

		row := entities.BOMRow{
			Label:        label,
			Quantity:     normalize.Quantity(record[1]),
			Manufacturer: strings.TrimSpace(record[2]),
			Description:  strings.TrimSpace(record[3]),
		}
		if len(record) == len(bomCostHeader) {
			if cost, ok := normalize.TryQuantity(record[4]); ok {
				row.UnitCost = decimal.NewNullDecimal(cost)
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseNumber(s, field string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, ok := normalize.TryQuantity(s)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", field, s)
	}
	return d, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}
