package resolution

import (
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
)

// AccessoryMap is the immutable parent key -> ordered accessories lookup. Several rules
// for the same parent are concatenated in table order.
type AccessoryMap struct {
	byParent map[string][]entities.AccessorySpec
}

// NewAccessoryMap builds the lookup from accessory rules
func NewAccessoryMap(rules []entities.AccessoryRule) *AccessoryMap {
	byParent := make(map[string][]entities.AccessorySpec)
	for _, rule := range rules {
		key := normalize.Key(rule.ParentLabel)
		if key == "" {
			continue
		}
		for _, acc := range rule.Accessories {
			if normalize.Key(acc.Label) == "" {
				break
			}
			byParent[key] = append(byParent[key], acc)
		}
	}
	return &AccessoryMap{byParent: byParent}
}

// For returns the accessories registered for a parent key
func (m *AccessoryMap) For(key string) []entities.AccessorySpec {
	return m.byParent[key]
}

// Len returns the number of registered parents
func (m *AccessoryMap) Len() int {
	return len(m.byParent)
}

// AccessoryExpander appends the registered accessories of parent components. Expansion is
// single level: accessory lines are never parents themselves.
type AccessoryExpander struct {
	accessories *AccessoryMap
}

// NewAccessoryExpander creates an expander over an accessory map
func NewAccessoryExpander(accessories *AccessoryMap) *AccessoryExpander {
	return &AccessoryExpander{accessories: accessories}
}

// Expand returns the input lines followed by one Accessory line per registered accessory
// of every matching parent line, in parent order then registration order. Accessory
// quantities are the registered quantities, independent of the parent quantity. New lines
// are numbered after the highest input line number.
func (e *AccessoryExpander) Expand(demands []entities.ComponentDemand) []entities.ComponentDemand {
	out := make([]entities.ComponentDemand, 0, len(demands))
	out = append(out, demands...)

	nextLine := 0
	for _, d := range demands {
		if d.LineNo > nextLine {
			nextLine = d.LineNo
		}
	}

	for _, parent := range demands {
		if parent.Origin == entities.Accessory {
			continue
		}
		for _, acc := range e.accessories.For(parent.CanonicalKey) {
			line, err := entities.NewComponentDemand(acc.Label, normalize.NonNegative(acc.Quantity), entities.Accessory)
			if err != nil {
				continue
			}
			nextLine++
			line.LineNo = nextLine
			line.ParentLine = parent.LineNo
			line.Manufacturer = acc.Manufacturer
			line.Description = acc.Description
			out = append(out, *line)
		}
	}

	return out
}
