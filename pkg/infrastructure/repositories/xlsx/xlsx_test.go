package xlsx

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves a workbook with one sheet per entry, rows written from A1
func writeWorkbook(t *testing.T, name string, sheets []sheetRows) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("Failed to rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatalf("Failed to add sheet %s: %v", s.name, err)
		}
		for r, row := range s.rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			values := row
			if err := f.SetSheetRow(s.name, cell, &values); err != nil {
				t.Fatalf("Failed to write row %d of %s: %v", r+1, s.name, err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save workbook: %v", err)
	}
	return path
}

type sheetRows struct {
	name string
	rows [][]interface{}
}

func dataWorkbook(t *testing.T) string {
	return writeWorkbook(t, "DATA.xlsx", []sheetRows{
		{name: "Parts no", rows: [][]interface{}{
			{"Item no", "Type no", "Description", "Supplier", "Supplier No.", "Unit cost"},
			{"100", "X", "Breaker", "ABB", "SUP-1", 12.5},
			{"200", "Y", "Relay", "Danfoss", "", "1,5"},
			{"300", "Z", "Busbar", "", "", 1000},
			{"", "orphan", "no item number", "", "", 3},
			{"400", "", "no type number", "", "", 3},
		}},
		{name: "Stock", rows: [][]interface{}{
			{"Component", "Quantity", "Comment"},
			{"X", 2, "Quarantined"},
			{"", 1, "blank name"},
		}},
		{name: "Accessories", rows: [][]interface{}{
			{"Parent", "Acc1", "Qty1", "Manuf1", "Acc2", "Qty2", "Manuf2", "Acc3"},
			{"SWITCH", "LUG", 3, "Cembre", "CAP", "", "", ""},
			{"BREAKER", "", 1, "", "NEVER", 1, ""},
		}},
		{name: "Main_Switch", rows: [][]interface{}{
			{"Switch", "Accessory", "Accessory"},
			{"C160S4FM", "C160 HANDLE", "C160 SHAFT"},
		}},
		{name: "Hours", rows: [][]interface{}{
			{"Panel", "TT", "TN-S", "TN-C-S", "Rate"},
			{"C4", 10, 12, 14, 450},
			{"A", 2, "3,5", 4},
		}},
		{name: "Bins", rows: [][]interface{}{
			{"No.", "Bin Code", "Quantity"},
			{"100", "B1", 3},
		}},
	})
}

func TestReferenceWorkbook_LoadCatalog(t *testing.T) {
	ref, err := OpenReference(dataWorkbook(t), DefaultSheetNames())
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer ref.Close()

	entries, err := ref.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 catalog entries, got %d", len(entries))
	}

	expected := []struct {
		catalogNo string
		key       string
		cost      string
	}{
		{"100", "x", "12.5"},
		{"200", "y", "1.5"},
		{"300", "z", "1000"},
	}
	for i, want := range expected {
		got := entries[i]
		if got.CatalogNo != want.catalogNo || got.CanonicalKey != want.key {
			t.Errorf("Entry %d: expected %s/%s, got %s/%s", i, want.catalogNo, want.key, got.CatalogNo, got.CanonicalKey)
		}
		if !got.UnitCost.Equal(decimal.RequireFromString(want.cost)) {
			t.Errorf("Entry %d: expected unit cost %s, got %s", i, want.cost, got.UnitCost)
		}
	}
	if entries[0].Manufacturer != "ABB" || entries[0].SupplierNo != "SUP-1" {
		t.Errorf("Expected ABB/SUP-1, got %s/%s", entries[0].Manufacturer, entries[0].SupplierNo)
	}
}

func TestReferenceWorkbook_Annotations(t *testing.T) {
	ref, err := OpenReference(dataWorkbook(t), DefaultSheetNames())
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer ref.Close()

	annotations, err := ref.LoadAnnotations(context.Background())
	if err != nil {
		t.Fatalf("Failed to load annotations: %v", err)
	}
	if len(annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(annotations))
	}
	if annotations[0].ComponentName != "X" || annotations[0].Comment != "Quarantined" {
		t.Errorf("Expected X/Quarantined, got %s/%s", annotations[0].ComponentName, annotations[0].Comment)
	}
	if !annotations[0].Quantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected quantity 2, got %s", annotations[0].Quantity)
	}
}

func TestReferenceWorkbook_Accessories(t *testing.T) {
	ref, err := OpenReference(dataWorkbook(t), DefaultSheetNames())
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer ref.Close()

	rules, err := ref.LoadAccessories(context.Background())
	if err != nil {
		t.Fatalf("Failed to load accessories: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("Expected 2 rules, got %d", len(rules))
	}

	sw := rules[0]
	if sw.ParentLabel != "SWITCH" || len(sw.Accessories) != 2 {
		t.Fatalf("Expected SWITCH with 2 accessories, got %s with %d", sw.ParentLabel, len(sw.Accessories))
	}
	if !sw.Accessories[0].Quantity.Equal(decimal.NewFromInt(3)) || sw.Accessories[0].Manufacturer != "Cembre" {
		t.Errorf("Expected LUG x3 Cembre, got %+v", sw.Accessories[0])
	}
	if !sw.Accessories[1].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected blank quantity to default to 1, got %s", sw.Accessories[1].Quantity)
	}

	if len(rules[1].Accessories) != 0 {
		t.Errorf("Expected a blank first accessory to end the row, got %d accessories", len(rules[1].Accessories))
	}
}

func TestReferenceWorkbook_MainSwitchesAndRates(t *testing.T) {
	ref, err := OpenReference(dataWorkbook(t), DefaultSheetNames())
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer ref.Close()
	ctx := context.Background()

	switches, err := ref.LoadMainSwitches(ctx)
	if err != nil {
		t.Fatalf("Failed to load main switches: %v", err)
	}
	if len(switches) != 1 || len(switches[0].Accessories) != 2 {
		t.Fatalf("Expected 1 switch with 2 accessories, got %+v", switches)
	}

	rates, err := ref.LoadRateTable(ctx)
	if err != nil {
		t.Fatalf("Failed to load rate table: %v", err)
	}
	if !rates.HourlyRate.Equal(decimal.NewFromInt(450)) {
		t.Errorf("Expected hourly rate 450, got %s", rates.HourlyRate)
	}
	if len(rates.Rows) != 2 {
		t.Fatalf("Expected 2 rate rows, got %d", len(rates.Rows))
	}
	if !rates.Rows[0].HoursFor(entities.GroundingTNCS).Equal(decimal.NewFromInt(14)) {
		t.Errorf("Expected C4 TN-C-S hours 14, got %s", rates.Rows[0].HoursTNCS)
	}
	if !rates.Rows[1].HoursTNS.Equal(decimal.RequireFromString("3.5")) {
		t.Errorf("Expected text hours 3,5 to parse as 3.5, got %s", rates.Rows[1].HoursTNS)
	}
}

func TestReferenceWorkbook_MissingSheets(t *testing.T) {
	path := writeWorkbook(t, "empty.xlsx", []sheetRows{
		{name: "Other", rows: [][]interface{}{{"a"}}},
	})
	ref, err := OpenReference(path, DefaultSheetNames())
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer ref.Close()
	ctx := context.Background()

	if _, err := ref.LoadCatalog(ctx); !errors.Is(err, entities.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference for catalog, got %v", err)
	}
	if _, err := ref.LoadAnnotations(ctx); !errors.Is(err, entities.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference for annotations, got %v", err)
	}
	if _, err := StockFrom(ref).LoadStock(ctx); !errors.Is(err, entities.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference for stock, got %v", err)
	}

	rules, err := ref.LoadAccessories(ctx)
	if err != nil || len(rules) != 0 {
		t.Errorf("Expected optional accessories to load empty, got %d rules, err %v", len(rules), err)
	}
	rates, err := ref.LoadRateTable(ctx)
	if err != nil || len(rates.Rows) != 0 {
		t.Errorf("Expected optional rate table to load empty, got %+v, err %v", rates, err)
	}
}

func TestStockWorkbook_HeaderDetection(t *testing.T) {
	path := writeWorkbook(t, "stock.xlsx", []sheetRows{
		{name: "Export", rows: [][]interface{}{
			{"Kaunas warehouse extract"},
			{"Location", "Bin Code", "Component No.", "Qty"},
			{"KAUNAS", "B2", "100", 10},
			{"KAUNAS", "B1", "100", "2,5"},
			{"KAUNAS", "", "200", 1},
		}},
	})
	stock, err := OpenStock(path, DefaultSheetNames().Stock)
	if err != nil {
		t.Fatalf("Failed to open stock: %v", err)
	}
	defer stock.Close()

	records, err := stock.LoadStock(context.Background())
	if err != nil {
		t.Fatalf("Failed to load stock: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].CatalogNo != "100" || records[0].BinID != "B2" || !records[0].AvailableQty.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected 100/B2/10, got %+v", records[0])
	}
	if !records[1].AvailableQty.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected 2.5, got %s", records[1].AvailableQty)
	}
}

func TestStockWorkbook_FromReference(t *testing.T) {
	ref, err := OpenReference(dataWorkbook(t), DefaultSheetNames())
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer ref.Close()

	stock := StockFrom(ref)
	records, err := stock.LoadStock(context.Background())
	if err != nil {
		t.Fatalf("Failed to load stock: %v", err)
	}
	if len(records) != 1 || records[0].BinID != "B1" {
		t.Errorf("Expected one record in B1, got %+v", records)
	}
	if err := stock.Close(); err != nil {
		t.Errorf("Expected shared close to be a no-op, got %v", err)
	}
}

func TestBOMWorkbook_LoadBOM(t *testing.T) {
	testCases := []struct {
		name     string
		skipRows int
		rows     [][]interface{}
	}{
		{
			name: "header on first row",
			rows: [][]interface{}{
				{"Pos", "Type", "Qty", "Manufacturer", "Description", "Unit price"},
			},
		},
		{
			name:     "header after title rows",
			skipRows: 2,
			rows: [][]interface{}{
				{"CUBIC panel"},
				{"Quantity of panels: 1"},
				{"", "Article", "Description", "Quantity", "Manufacturer", "Unit cost"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			header := tc.rows[len(tc.rows)-1]
			body := make([][]interface{}, 0, 3)
			for _, line := range [][]string{
				{"X", "2", "ABB", "Breaker", "4"},
				{"", "", "", "", ""},
				{"Y", "1,5", "Danfoss", "Relay", ""},
			} {
				row := make([]interface{}, len(header))
				for c, caption := range header {
					switch caption {
					case "Type", "Article":
						row[c] = line[0]
					case "Qty", "Quantity":
						row[c] = line[1]
					case "Manufacturer":
						row[c] = line[2]
					case "Description":
						row[c] = line[3]
					case "Unit price", "Unit cost":
						row[c] = line[4]
					default:
						row[c] = ""
					}
				}
				body = append(body, row)
			}

			path := writeWorkbook(t, "bom.xlsx", []sheetRows{{name: "BOM", rows: append(tc.rows, body...)}})
			rows, err := NewBOMWorkbook(path, tc.skipRows).LoadBOM(context.Background())
			if err != nil {
				t.Fatalf("Failed to load BOM: %v", err)
			}
			if len(rows) != 2 {
				t.Fatalf("Expected 2 rows, got %d", len(rows))
			}
			if rows[0].Label != "X" || !rows[0].Quantity.Equal(decimal.NewFromInt(2)) {
				t.Errorf("Expected X x2, got %s x%s", rows[0].Label, rows[0].Quantity)
			}
			if rows[0].Manufacturer != "ABB" || rows[0].Description != "Breaker" {
				t.Errorf("Expected ABB/Breaker, got %s/%s", rows[0].Manufacturer, rows[0].Description)
			}
			if !rows[0].UnitCost.Valid || !rows[0].UnitCost.Decimal.Equal(decimal.NewFromInt(4)) {
				t.Errorf("Expected unit cost 4, got %+v", rows[0].UnitCost)
			}
			if !rows[1].Quantity.Equal(decimal.RequireFromString("1.5")) {
				t.Errorf("Expected 1.5, got %s", rows[1].Quantity)
			}
			if rows[1].UnitCost.Valid {
				t.Errorf("Expected blank unit cost to stay unset, got %s", rows[1].UnitCost.Decimal)
			}
		})
	}
}

func TestBOMWorkbook_NoHeader(t *testing.T) {
	path := writeWorkbook(t, "bom.xlsx", []sheetRows{{name: "BOM", rows: [][]interface{}{
		{"just", "some", "text"},
	}}})
	if _, err := NewBOMWorkbook(path, 0).LoadBOM(context.Background()); err == nil {
		t.Error("Expected error for BOM without a header row")
	}
}

func TestFoldSheetName(t *testing.T) {
	if foldSheetName(" Part_no ") != foldSheetName("part NO") {
		t.Error("Expected sheet names to compare without case, spaces or underscores")
	}
}
