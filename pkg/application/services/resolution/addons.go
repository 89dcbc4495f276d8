package resolution

import (
	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
)

// AddOnLines configures the fixed demand lines injected by run add-ons
type AddOnLines struct {
	UPS        []entities.AccessorySpec
	SwingFrame []entities.AccessorySpec
}

// DefaultAddOnLines returns the standard UPS holder and swing frame kit
func DefaultAddOnLines() AddOnLines {
	return AddOnLines{
		UPS: []entities.AccessorySpec{
			{Label: "ADV UPS HOLDER V3", Quantity: decimal.NewFromInt(1), Description: "UPS Holder"},
		},
		SwingFrame: []entities.AccessorySpec{
			{Label: "1055-1000", Quantity: decimal.NewFromInt(2), Description: "Swing accessory 1"},
			{Label: "1055-1001", Quantity: decimal.NewFromInt(2), Description: "Swing accessory 2"},
		},
	}
}

// AddOnBuilder turns run add-on choices into demand lines
type AddOnBuilder struct {
	lines    AddOnLines
	switches map[string]entities.MainSwitchRule
}

// NewAddOnBuilder creates a builder. The first main switch rule per switch key wins.
func NewAddOnBuilder(lines AddOnLines, switches []entities.MainSwitchRule) *AddOnBuilder {
	byKey := make(map[string]entities.MainSwitchRule, len(switches))
	for _, rule := range switches {
		key := normalize.Key(rule.Switch)
		if key == "" {
			continue
		}
		if _, exists := byKey[key]; !exists {
			byKey[key] = rule
		}
	}
	return &AddOnBuilder{lines: lines, switches: byKey}
}

// MainSwitchLabels returns the selected switch followed by its registered accessories,
// de-duplicated by canonical key. An unregistered switch yields nothing.
func (b *AddOnBuilder) MainSwitchLabels(selected string) []string {
	rule, ok := b.switches[normalize.Key(selected)]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	labels := make([]string, 0, len(rule.Accessories)+1)
	for _, label := range append([]string{selected}, rule.Accessories...) {
		key := normalize.Key(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		labels = append(labels, label)
	}
	return labels
}

// Build returns the add-on lines numbered from firstLine, in the order main switch, UPS,
// swing frame
func (b *AddOnBuilder) Build(addOns entities.AddOns, firstLine int) []entities.ComponentDemand {
	out := make([]entities.ComponentDemand, 0)
	next := firstLine

	add := func(item entities.AccessorySpec, origin entities.Origin) {
		line, err := entities.NewComponentDemand(item.Label, normalize.NonNegative(item.Quantity), origin)
		if err != nil {
			return
		}
		line.LineNo = next
		line.Manufacturer = item.Manufacturer
		line.Description = item.Description
		next++
		out = append(out, *line)
	}

	if addOns.MainSwitch != "" {
		for _, label := range b.MainSwitchLabels(addOns.MainSwitch) {
			add(entities.AccessorySpec{Label: label, Quantity: decimal.NewFromInt(1)}, entities.ManualExtra)
		}
	}
	if addOns.UPS {
		for _, line := range b.lines.UPS {
			add(line, entities.ManualExtra)
		}
	}
	if addOns.SwingFrame {
		for _, line := range b.lines.SwingFrame {
			add(line, entities.AccessoryKit)
		}
	}

	return out
}
