package entities

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStockRecord_Validation(t *testing.T) {
	record, err := NewStockRecord(" 100200 ", " 01-02-03-04 ", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("Expected valid stock record creation to succeed: %v", err)
	}
	if record.CatalogNo != "100200" || record.BinID != "01-02-03-04" {
		t.Errorf("Expected trimmed identifiers, got %q / %q", record.CatalogNo, record.BinID)
	}

	testCases := []struct {
		name        string
		catalogNo   string
		binID       string
		quantity    decimal.Decimal
		expectError string
	}{
		{"empty catalog number", "", "B1", decimal.NewFromInt(1), "catalog number cannot be empty"},
		{"empty bin", "100200", "", decimal.NewFromInt(1), "bin id cannot be empty"},
		{"negative quantity", "100200", "B1", decimal.NewFromInt(-5), "available quantity cannot be negative, got -5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStockRecord(tc.catalogNo, tc.binID, tc.quantity)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestCatalogEntry_Validation(t *testing.T) {
	entry, err := NewCatalogEntry("100200", "abb s201 c16", "MCB 16A", "ABB", "30011", decimal.RequireFromString("41.20"))
	if err != nil {
		t.Fatalf("Expected valid catalog entry creation to succeed: %v", err)
	}
	if entry.CanonicalKey != "ABBS201C16" {
		t.Errorf("Expected canonical key ABBS201C16, got %s", entry.CanonicalKey)
	}

	testCases := []struct {
		name        string
		catalogNo   string
		displayName string
		unitCost    decimal.Decimal
		expectError string
	}{
		{"empty catalog number", " ", "X", decimal.Zero, "catalog number cannot be empty"},
		{"empty display name", "1", "  ", decimal.Zero, "display name cannot be empty"},
		{"negative cost", "1", "X", decimal.NewFromInt(-1), "unit cost cannot be negative, got -1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalogEntry(tc.catalogNo, tc.displayName, "", "", "", tc.unitCost)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestAllocationResult_IsBackorder(t *testing.T) {
	if !(AllocationResult{CatalogNo: "X"}).IsBackorder() {
		t.Error("Expected allocation without bin to be a backorder")
	}
	if (AllocationResult{CatalogNo: "X", BinID: "B1"}).IsBackorder() {
		t.Error("Expected allocation with bin not to be a backorder")
	}
}
