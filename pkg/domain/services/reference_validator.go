package services

import (
	"fmt"

	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
)

// ReferenceValidator checks the integrity of reference tables before they are used in a run
type ReferenceValidator struct {
	sentinelBin string
}

// NewReferenceValidator creates a new reference validator
func NewReferenceValidator(sentinelBin string) *ReferenceValidator {
	if sentinelBin == "" {
		sentinelBin = entities.DefaultSentinelBin
	}
	return &ReferenceValidator{sentinelBin: sentinelBin}
}

// ValidationResult contains the findings of reference validation. None of the findings stop
// a run; they are reported so the reference data can be cleaned up.
type ValidationResult struct {
	DuplicateKeys       []entities.CatalogEntry
	DuplicateCatalogNos []entities.CatalogEntry
	UnknownStock        []entities.StockRecord
	SentinelStock       []entities.StockRecord
	UnknownAccessories  []string
	Warnings            []string
}

// HasFindings reports whether anything was flagged
func (r *ValidationResult) HasFindings() bool {
	return len(r.Warnings) > 0
}

// Validate inspects the catalog, the stock extract and the accessory rules
func (v *ReferenceValidator) Validate(
	catalog []entities.CatalogEntry,
	stock []entities.StockRecord,
	accessories []entities.AccessoryRule,
) *ValidationResult {
	result := &ValidationResult{
		DuplicateKeys:       make([]entities.CatalogEntry, 0),
		DuplicateCatalogNos: make([]entities.CatalogEntry, 0),
		UnknownStock:        make([]entities.StockRecord, 0),
		SentinelStock:       make([]entities.StockRecord, 0),
		UnknownAccessories:  make([]string, 0),
		Warnings:            make([]string, 0),
	}

	keys, catalogNos := v.detectDuplicates(catalog, result)
	v.detectUnknownStock(stock, catalogNos, result)
	v.detectUnknownAccessories(accessories, keys, result)

	if len(result.DuplicateKeys) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Found %d catalog entries with a duplicate component key", len(result.DuplicateKeys)))
	}
	if len(result.DuplicateCatalogNos) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Found %d catalog entries with a duplicate catalog number", len(result.DuplicateCatalogNos)))
	}
	if len(result.UnknownStock) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Found %d stock rows for unknown catalog numbers", len(result.UnknownStock)))
	}
	if len(result.SentinelStock) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Found %d stock rows in the non-allocatable bin %s", len(result.SentinelStock), v.sentinelBin))
	}
	if len(result.UnknownAccessories) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Found %d accessories without a catalog entry", len(result.UnknownAccessories)))
	}

	return result
}

// detectDuplicates applies the first-wins rule and records every dropped entry
func (v *ReferenceValidator) detectDuplicates(catalog []entities.CatalogEntry, result *ValidationResult) (map[string]bool, map[string]bool) {
	keys := make(map[string]bool)
	catalogNos := make(map[string]bool)

	for _, entry := range catalog {
		no := normalize.Key(entry.CatalogNo)
		switch {
		case keys[entry.CanonicalKey]:
			result.DuplicateKeys = append(result.DuplicateKeys, entry)
		case catalogNos[no]:
			result.DuplicateCatalogNos = append(result.DuplicateCatalogNos, entry)
		default:
			keys[entry.CanonicalKey] = true
			catalogNos[no] = true
		}
	}

	return keys, catalogNos
}

func (v *ReferenceValidator) detectUnknownStock(stock []entities.StockRecord, catalogNos map[string]bool, result *ValidationResult) {
	for _, record := range stock {
		if !catalogNos[normalize.Key(record.CatalogNo)] {
			result.UnknownStock = append(result.UnknownStock, record)
		}
		if record.BinID == v.sentinelBin && record.AvailableQty.IsPositive() {
			result.SentinelStock = append(result.SentinelStock, record)
		}
	}
}

func (v *ReferenceValidator) detectUnknownAccessories(rules []entities.AccessoryRule, keys map[string]bool, result *ValidationResult) {
	seen := make(map[string]bool)
	for _, rule := range rules {
		for _, acc := range rule.Accessories {
			key := normalize.Key(acc.Label)
			if key == "" || keys[key] || seen[key] {
				continue
			}
			seen[key] = true
			result.UnknownAccessories = append(result.UnknownAccessories, acc.Label)
		}
	}
}
