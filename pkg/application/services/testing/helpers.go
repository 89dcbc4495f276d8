package testing

import (
	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/application/dto"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
)

// Dec parses a decimal literal for tests - panics on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MustDemand is a helper for tests - panics on validation error
func MustDemand(lineNo int, label, qty string, origin entities.Origin) entities.ComponentDemand {
	demand, err := entities.NewComponentDemand(label, Dec(qty), origin)
	if err != nil {
		panic(err)
	}
	demand.LineNo = lineNo
	return *demand
}

// MustCatalogEntry is a helper for tests - panics on validation error
func MustCatalogEntry(catalogNo, displayName, manufacturer, supplierNo, unitCost string) entities.CatalogEntry {
	entry, err := entities.NewCatalogEntry(catalogNo, displayName, displayName+" description", manufacturer, supplierNo, Dec(unitCost))
	if err != nil {
		panic(err)
	}
	return *entry
}

// MustStock is a helper for tests - panics on validation error
func MustStock(catalogNo, binID, qty string) entities.StockRecord {
	record, err := entities.NewStockRecord(catalogNo, binID, Dec(qty))
	if err != nil {
		panic(err)
	}
	return *record
}

// Row builds a BOM row
func Row(label, qty, manufacturer string) entities.BOMRow {
	return entities.BOMRow{Label: label, Quantity: Dec(qty), Manufacturer: manufacturer}
}

// MustParams is a helper for tests - panics on validation error
func MustParams(projectID, panel, grounding string, addOns entities.AddOns) entities.RunParameters {
	params, err := entities.NewRunParameters(projectID, panel, grounding, addOns)
	if err != nil {
		panic(err)
	}
	return *params
}

// BuildPanelReference creates a small but complete reference set for one panel:
//
//	catalog:  X -> 100 (ABB, 10.00), Y -> 200 (Danfoss, 2.50), Z -> 300 (no stock),
//	          SWITCH -> 400, LUG -> 500, HOLDER -> 600
//	stock:    100 in B1 (3) and B2 (10); 200 in sentinel bin (50) and A9 (4)
//	excluded: Q (quarantined); W has an informational comment
//	accessories: SWITCH -> LUG ×3
func BuildPanelReference() dto.ReferenceData {
	return dto.ReferenceData{
		Catalog: []entities.CatalogEntry{
			MustCatalogEntry("100", "X", "ABB", "30011", "10.00"),
			MustCatalogEntry("200", "Y", "Danfoss A/S", "30022", "2.50"),
			MustCatalogEntry("300", "Z", "Phoenix", "", "1.00"),
			MustCatalogEntry("400", "SWITCH", "ABB", "30011", "120.00"),
			MustCatalogEntry("500", "LUG", "", "30033", "0.40"),
			MustCatalogEntry("600", "Q", "", "30033", "5.00"),
			MustCatalogEntry("700", "ADV UPS HOLDER V3", "", "30044", "15.00"),
		},
		Stock: []entities.StockRecord{
			MustStock("100", "B2", "10"),
			MustStock("100", "B1", "3"),
			MustStock("200", entities.DefaultSentinelBin, "50"),
			MustStock("200", "A9", "4"),
			MustStock("600", "B1", "100"),
		},
		Annotations: []entities.Annotation{
			{ComponentName: "q", Quantity: Dec("1"), Comment: " Quarantined "},
			{ComponentName: "W", Quantity: Dec("1"), Comment: "check with purchasing"},
		},
		Accessories: []entities.AccessoryRule{
			{ParentLabel: "switch", Accessories: []entities.AccessorySpec{
				{Label: "LUG", Quantity: Dec("3"), Manufacturer: "Cembre"},
			}},
		},
		MainSwitches: []entities.MainSwitchRule{
			{Switch: "C160S4FM", Accessories: []string{"C160 HANDLE", "c160handle", "C160 SHAFT"}},
		},
		Rates: &entities.RateTable{
			HourlyRate: Dec("450"),
			Rows: []entities.RateRow{
				{PanelType: "C4", HoursTT: Dec("10"), HoursTNS: Dec("12"), HoursTNCS: Dec("14")},
				{PanelType: "A", HoursTT: Dec("2"), HoursTNS: Dec("3"), HoursTNCS: Dec("4")},
			},
		},
	}
}

// BuildPanelInput creates a run input over BuildPanelReference
func BuildPanelInput(addOns entities.AddOns, primary ...entities.BOMRow) dto.RunInput {
	return dto.RunInput{
		Params:     MustParams("1234-567", "C4", "TN-S", addOns),
		PrimaryBOM: primary,
		Reference:  BuildPanelReference(),
	}
}
