package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
)

// CatalogEntry is one record of the reference parts list
type CatalogEntry struct {
	CatalogNo    string
	CanonicalKey string
	DisplayName  string
	Description  string
	Manufacturer string
	SupplierNo   string
	UnitCost     decimal.Decimal
}

// NewCatalogEntry creates a validated CatalogEntry keyed by the normalized display name
func NewCatalogEntry(
	catalogNo, displayName, description, manufacturer, supplierNo string,
	unitCost decimal.Decimal,
) (*CatalogEntry, error) {
	catalogNo = strings.TrimSpace(catalogNo)
	if catalogNo == "" {
		return nil, fmt.Errorf("catalog number cannot be empty")
	}
	key := normalize.Key(displayName)
	if key == "" {
		return nil, fmt.Errorf("display name cannot be empty")
	}
	if unitCost.IsNegative() {
		return nil, fmt.Errorf("unit cost cannot be negative, got %s", unitCost)
	}

	return &CatalogEntry{
		CatalogNo:    catalogNo,
		CanonicalKey: key,
		DisplayName:  strings.TrimSpace(displayName),
		Description:  strings.TrimSpace(description),
		Manufacturer: strings.TrimSpace(manufacturer),
		SupplierNo:   strings.TrimSpace(supplierNo),
		UnitCost:     unitCost,
	}, nil
}
