package entities

import "github.com/shopspring/decimal"

// Annotation is a warehouse remark about a component; some remarks exclude the
// component from sourcing
type Annotation struct {
	ComponentName string
	Quantity      decimal.Decimal
	Comment       string
}

// AccessorySpec is one dependent item pulled in by a parent component
type AccessorySpec struct {
	Label        string
	Quantity     decimal.Decimal
	Manufacturer string
	Description  string
}

// AccessoryRule registers the ordered accessories of one parent component
type AccessoryRule struct {
	ParentLabel string
	Accessories []AccessorySpec
}

// MainSwitchRule lists the accessories that ship with a main switch model
type MainSwitchRule struct {
	Switch      string
	Accessories []string
}

// RateRow holds assembly hours of one panel type per grounding scheme
type RateRow struct {
	PanelType string
	HoursTT   decimal.Decimal
	HoursTNS  decimal.Decimal
	HoursTNCS decimal.Decimal
}

// HoursFor returns the hours for a grounding scheme, zero for unknown schemes
func (r RateRow) HoursFor(g GroundingScheme) decimal.Decimal {
	switch g {
	case GroundingTT:
		return r.HoursTT
	case GroundingTNS:
		return r.HoursTNS
	case GroundingTNCS:
		return r.HoursTNCS
	default:
		return decimal.Zero
	}
}

// RateTable is the labor lookup of the reference workbook
type RateTable struct {
	HourlyRate decimal.Decimal
	Rows       []RateRow
}
