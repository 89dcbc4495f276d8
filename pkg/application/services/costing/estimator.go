package costing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
)

// Cost summary labels
const (
	LabelParts       = "Parts"
	LabelAuxiliary   = "Auxiliary"
	LabelHours       = "Hours cost"
	LabelSmartSupply = "Smart supply"
	LabelWireSet     = "Wire set"
	LabelExtra       = "Extra"
	LabelTotal       = "Total"
)

// Config holds the fixed surcharges and markup projections of the estimate
type Config struct {
	SmartSupply    decimal.Decimal
	WireSet        decimal.Decimal
	Extra          decimal.Decimal
	Markups        []decimal.Decimal
	RoundingPlaces int32
}

// DefaultConfig returns the standard surcharges and the +5% / +35% projections
func DefaultConfig() Config {
	return Config{
		SmartSupply:    decimal.NewFromInt(9750),
		WireSet:        decimal.NewFromInt(2500),
		Extra:          decimal.Zero,
		Markups:        []decimal.Decimal{decimal.RequireFromString("1.05"), decimal.RequireFromString("1.35")},
		RoundingPlaces: 2,
	}
}

// Breakdown is the exact, unrounded estimate
type Breakdown struct {
	Parts       decimal.Decimal
	Auxiliary   decimal.Decimal
	Hours       decimal.Decimal
	HourlyRate  decimal.Decimal
	Labor       decimal.Decimal
	SmartSupply decimal.Decimal
	WireSet     decimal.Decimal
	Extra       decimal.Decimal
	Total       decimal.Decimal
}

// Estimator rolls resolved demand and the labor rate table up into a cost summary
type Estimator struct {
	cfg Config
}

// NewEstimator creates an estimator
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Calculate computes the exact breakdown. Parts cover resolved lines of every origin except
// the auxiliary BOM; auxiliary lines are costed from the catalog when resolved and from
// their own unit cost otherwise.
func (e *Estimator) Calculate(
	params entities.RunParameters,
	demands []entities.ComponentDemand,
	rates *entities.RateTable,
) Breakdown {
	b := Breakdown{
		Parts:       decimal.Zero,
		Auxiliary:   decimal.Zero,
		SmartSupply: e.cfg.SmartSupply,
		WireSet:     e.cfg.WireSet,
		Extra:       e.cfg.Extra,
	}

	for _, d := range demands {
		if d.Origin == entities.AuxiliaryBOM {
			b.Auxiliary = b.Auxiliary.Add(d.LineCost())
			continue
		}
		if d.Resolved {
			b.Parts = b.Parts.Add(d.LineCost())
		}
	}

	b.Hours, b.HourlyRate = LaborHours(rates, params.PanelType, params.Grounding)
	b.Labor = b.Hours.Mul(b.HourlyRate)

	b.Total = b.Parts.Add(b.Auxiliary).Add(b.Labor).Add(b.SmartSupply).Add(b.WireSet).Add(b.Extra)
	return b
}

// Estimate returns the cost summary rows in their fixed order, rounded for output
func (e *Estimator) Estimate(
	params entities.RunParameters,
	demands []entities.ComponentDemand,
	rates *entities.RateTable,
) []entities.CostLine {
	return e.Lines(e.Calculate(params, demands, rates))
}

// Lines renders a breakdown as labelled rows followed by one row per markup projection
func (e *Estimator) Lines(b Breakdown) []entities.CostLine {
	round := func(d decimal.Decimal) decimal.Decimal {
		return d.Round(e.cfg.RoundingPlaces)
	}

	lines := []entities.CostLine{
		{Label: LabelParts, Value: round(b.Parts)},
		{Label: LabelAuxiliary, Value: round(b.Auxiliary)},
		{Label: LabelHours, Value: round(b.Labor)},
		{Label: LabelSmartSupply, Value: round(b.SmartSupply)},
		{Label: LabelWireSet, Value: round(b.WireSet)},
		{Label: LabelExtra, Value: round(b.Extra)},
		{Label: LabelTotal, Value: round(b.Total)},
	}
	for _, factor := range e.cfg.Markups {
		lines = append(lines, entities.CostLine{
			Label: MarkupLabel(factor),
			Value: round(b.Total.Mul(factor)),
		})
	}
	return lines
}

// MarkupLabel names a markup projection, e.g. 1.05 -> "Total+5%"
func MarkupLabel(factor decimal.Decimal) string {
	pct := factor.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	sign := "+"
	if pct.IsNegative() {
		sign = ""
	}
	return fmt.Sprintf("%s%s%s%%", LabelTotal, sign, pct.String())
}

// LaborHours looks up the assembly hours for a panel type and grounding scheme. The panel
// type matches case-insensitively; a missing table or row yields zero hours.
func LaborHours(rates *entities.RateTable, panelType string, grounding entities.GroundingScheme) (hours, rate decimal.Decimal) {
	if rates == nil {
		return decimal.Zero, decimal.Zero
	}
	for _, row := range rates.Rows {
		if strings.EqualFold(strings.TrimSpace(row.PanelType), strings.TrimSpace(panelType)) {
			return row.HoursFor(grounding), rates.HourlyRate
		}
	}
	return decimal.Zero, rates.HourlyRate
}
