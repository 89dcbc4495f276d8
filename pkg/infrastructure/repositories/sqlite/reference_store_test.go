package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reference.db")
	st, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, path
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st, path := openTestStore(t)

	entry, err := entities.NewCatalogEntry("100", "X", "Breaker", "ABB", "SUP-1", decimal.RequireFromString("12.345"))
	if err != nil {
		t.Fatalf("NewCatalogEntry: %v", err)
	}
	stock, err := entities.NewStockRecord("100", "B1", decimal.RequireFromString("2.5"))
	if err != nil {
		t.Fatalf("NewStockRecord: %v", err)
	}

	if err := st.SaveCatalog(ctx, []entities.CatalogEntry{*entry}); err != nil {
		t.Fatalf("SaveCatalog: %v", err)
	}
	if err := st.SaveAnnotations(ctx, []entities.Annotation{{ComponentName: "q", Quantity: decimal.NewFromInt(1), Comment: "Quarantined"}}); err != nil {
		t.Fatalf("SaveAnnotations: %v", err)
	}
	if err := st.SaveAccessories(ctx, []entities.AccessoryRule{
		{ParentLabel: "SWITCH", Accessories: []entities.AccessorySpec{
			{Label: "LUG", Quantity: decimal.NewFromInt(3), Manufacturer: "Cembre"},
			{Label: "CAP", Quantity: decimal.NewFromInt(1)},
		}},
		{ParentLabel: "BREAKER", Accessories: []entities.AccessorySpec{{Label: "SCREW", Quantity: decimal.NewFromInt(2)}}},
	}); err != nil {
		t.Fatalf("SaveAccessories: %v", err)
	}
	if err := st.SaveMainSwitches(ctx, []entities.MainSwitchRule{
		{Switch: "C160S4FM", Accessories: []string{"C160 HANDLE", "C160 SHAFT"}},
		{Switch: "C250"},
	}); err != nil {
		t.Fatalf("SaveMainSwitches: %v", err)
	}
	if err := st.SaveRateTable(ctx, &entities.RateTable{
		HourlyRate: decimal.NewFromInt(450),
		Rows:       []entities.RateRow{{PanelType: "C4", HoursTT: decimal.NewFromInt(10), HoursTNS: decimal.NewFromInt(12), HoursTNCS: decimal.NewFromInt(14)}},
	}); err != nil {
		t.Fatalf("SaveRateTable: %v", err)
	}
	if err := st.SaveStock(ctx, []entities.StockRecord{*stock}); err != nil {
		t.Fatalf("SaveStock: %v", err)
	}
	st.Close()

	ro, err := OpenReadOnly(ctx, path)
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	defer ro.Close()

	catalog, err := ro.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(catalog) != 1 || catalog[0].CanonicalKey != "x" || !catalog[0].UnitCost.Equal(decimal.RequireFromString("12.345")) {
		t.Errorf("Expected X at 12.345, got %+v", catalog)
	}

	annotations, err := ro.LoadAnnotations(ctx)
	if err != nil || len(annotations) != 1 || annotations[0].Comment != "Quarantined" {
		t.Errorf("Expected one Quarantined annotation, got %+v, %v", annotations, err)
	}

	rules, err := ro.LoadAccessories(ctx)
	if err != nil {
		t.Fatalf("LoadAccessories: %v", err)
	}
	if len(rules) != 2 || len(rules[0].Accessories) != 2 || rules[1].ParentLabel != "BREAKER" {
		t.Errorf("Expected accessory rules in import order, got %+v", rules)
	}
	if rules[0].Accessories[0].Manufacturer != "Cembre" || !rules[0].Accessories[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected LUG x3 Cembre, got %+v", rules[0].Accessories[0])
	}

	switches, err := ro.LoadMainSwitches(ctx)
	if err != nil {
		t.Fatalf("LoadMainSwitches: %v", err)
	}
	if len(switches) != 2 || len(switches[0].Accessories) != 2 || len(switches[1].Accessories) != 0 {
		t.Errorf("Expected C160S4FM with 2 accessories and bare C250, got %+v", switches)
	}

	rates, err := ro.LoadRateTable(ctx)
	if err != nil {
		t.Fatalf("LoadRateTable: %v", err)
	}
	if !rates.HourlyRate.Equal(decimal.NewFromInt(450)) || len(rates.Rows) != 1 {
		t.Errorf("Expected rate 450 with 1 row, got %+v", rates)
	}
	if !rates.Rows[0].HoursFor(entities.GroundingTNS).Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected TN-S hours 12, got %s", rates.Rows[0].HoursTNS)
	}

	records, err := ro.LoadStock(ctx)
	if err != nil {
		t.Fatalf("LoadStock: %v", err)
	}
	if len(records) != 1 || !records[0].AvailableQty.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected 2.5 in B1, got %+v", records)
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	st, _ := openTestStore(t)

	for _, bin := range []string{"B1", "B2"} {
		rec, _ := entities.NewStockRecord("100", bin, decimal.NewFromInt(1))
		if err := st.SaveStock(ctx, []entities.StockRecord{*rec}); err != nil {
			t.Fatalf("SaveStock: %v", err)
		}
	}

	records, err := st.LoadStock(ctx)
	if err != nil {
		t.Fatalf("LoadStock: %v", err)
	}
	if len(records) != 1 || records[0].BinID != "B2" {
		t.Errorf("Expected the second save to replace the first, got %+v", records)
	}
}

func TestStore_SaveErrorsNameTheTable(t *testing.T) {
	ctx := context.Background()
	st, _ := openTestStore(t)
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rec, _ := entities.NewStockRecord("100", "B1", decimal.NewFromInt(1))
	err := st.SaveStock(ctx, []entities.StockRecord{*rec})
	if err == nil {
		t.Fatal("Expected error saving to a closed store, got nil")
	}
	if !strings.Contains(err.Error(), "failed to begin stock import") {
		t.Errorf("Expected wrapped begin error, got %v", err)
	}
}

func TestStore_MissingTables(t *testing.T) {
	ctx := context.Background()
	st, _ := openTestStore(t)

	if _, err := st.LoadCatalog(ctx); !errors.Is(err, entities.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference for catalog, got %v", err)
	}
	if _, err := st.LoadAnnotations(ctx); !errors.Is(err, entities.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference for annotations, got %v", err)
	}
	if _, err := st.LoadStock(ctx); !errors.Is(err, entities.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference for stock, got %v", err)
	}

	// An imported but empty annotation table is not missing.
	if err := st.SaveAnnotations(ctx, nil); err != nil {
		t.Fatalf("SaveAnnotations: %v", err)
	}
	if _, err := st.LoadAnnotations(ctx); err != nil {
		t.Errorf("Expected empty annotations to load, got %v", err)
	}

	rules, err := st.LoadAccessories(ctx)
	if err != nil || len(rules) != 0 {
		t.Errorf("Expected no accessories, got %+v, %v", rules, err)
	}
	rates, err := st.LoadRateTable(ctx)
	if err != nil || rates == nil || len(rates.Rows) != 0 {
		t.Errorf("Expected an empty rate table, got %+v, %v", rates, err)
	}
}

func TestOpenReadOnly_MissingFile(t *testing.T) {
	if _, err := OpenReadOnly(context.Background(), filepath.Join(t.TempDir(), "absent.db")); err == nil {
		t.Error("Expected error for a missing database file")
	}
}
