package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
)

// Origin identifies which source produced a demand line
type Origin int

const (
	PrimaryBOM Origin = iota
	AuxiliaryBOM
	Accessory
	ManualExtra
	AccessoryKit
)

// String method for Origin enum
func (o Origin) String() string {
	switch o {
	case PrimaryBOM:
		return "PrimaryBOM"
	case AuxiliaryBOM:
		return "AuxiliaryBOM"
	case Accessory:
		return "Accessory"
	case ManualExtra:
		return "ManualExtra"
	case AccessoryKit:
		return "AccessoryKit"
	default:
		return "Unknown"
	}
}

// BOMRow is one already-parsed row of a BOM source, before it becomes a demand line
type BOMRow struct {
	Label        string
	Quantity     decimal.Decimal
	Manufacturer string
	Description  string
	UnitCost     decimal.NullDecimal
}

// ComponentDemand represents one requested quantity of one component within a run.
// Values are never mutated after creation; resolution returns a copy.
type ComponentDemand struct {
	LineNo       int
	ParentLine   int // line that pulled this accessory in, 0 otherwise
	RawLabel     string
	CanonicalKey string
	Quantity     decimal.Decimal
	Origin       Origin
	Manufacturer string
	Description  string
	UnitCost     decimal.NullDecimal

	// Filled by catalog resolution
	CatalogNo  string
	SupplierNo string
	Resolved   bool
}

// NewComponentDemand creates a validated ComponentDemand with its canonical key derived
// from the label
func NewComponentDemand(label string, quantity decimal.Decimal, origin Origin) (*ComponentDemand, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("label cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("quantity cannot be negative, got %s", quantity)
	}

	return &ComponentDemand{
		RawLabel:     label,
		CanonicalKey: normalize.Key(label),
		Quantity:     quantity,
		Origin:       origin,
	}, nil
}

// DemandFromRow converts a BOM row into a demand line
func DemandFromRow(row BOMRow, origin Origin) (*ComponentDemand, error) {
	demand, err := NewComponentDemand(row.Label, normalize.NonNegative(row.Quantity), origin)
	if err != nil {
		return nil, err
	}
	demand.Manufacturer = strings.TrimSpace(row.Manufacturer)
	demand.Description = strings.TrimSpace(row.Description)
	demand.UnitCost = row.UnitCost
	return demand, nil
}

// ResolvedWith returns a copy of the demand carrying the catalog entry's metadata
func (d ComponentDemand) ResolvedWith(entry CatalogEntry) ComponentDemand {
	d.CatalogNo = entry.CatalogNo
	d.SupplierNo = entry.SupplierNo
	if entry.Manufacturer != "" {
		d.Manufacturer = entry.Manufacturer
	}
	if entry.Description != "" {
		d.Description = entry.Description
	}
	d.UnitCost = decimal.NewNullDecimal(entry.UnitCost)
	d.Resolved = true
	return d
}

// Unresolved returns a copy of the demand flagged as having no catalog match
func (d ComponentDemand) Unresolved() ComponentDemand {
	d.CatalogNo = ""
	d.SupplierNo = ""
	d.Resolved = false
	return d
}

// LineCost returns quantity × unit cost, or zero when no unit cost is known
func (d ComponentDemand) LineCost() decimal.Decimal {
	if !d.UnitCost.Valid {
		return decimal.Zero
	}
	return d.Quantity.Mul(d.UnitCost.Decimal)
}
