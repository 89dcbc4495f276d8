package documents

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
)

// Config holds the constants stamped onto backend documents
type Config struct {
	LocationCode          string
	NoStockLocationCode   string
	BackorderSuffix       string
	JobTaskNo             int
	DefaultSupplier       string
	StandardProfit        decimal.Decimal
	LowMarginProfit       decimal.Decimal
	LowMarginManufacturer string
	Discount              decimal.Decimal
	RoundingPlaces        int32
}

// DefaultConfig returns the standard document constants
func DefaultConfig() Config {
	return Config{
		LocationCode:          "KAUNAS",
		NoStockLocationCode:   "KAUNAS",
		BackorderSuffix:       "/NERA",
		JobTaskNo:             1144,
		DefaultSupplier:       "30093",
		StandardProfit:        decimal.NewFromInt(17),
		LowMarginProfit:       decimal.NewFromInt(10),
		LowMarginManufacturer: "DANFOSS",
		Discount:              decimal.Zero,
		RoundingPlaces:        2,
	}
}

// Documents are the three row sets produced for one run
type Documents struct {
	Journal  []entities.JournalEntry
	Purchase []entities.OrderEntry
	Missing  []entities.MissingCatalogEntry
}

// Assembler projects resolved demand and allocation results into backend documents
type Assembler struct {
	cfg Config
}

// NewAssembler creates an assembler
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble builds the movement, purchasing and diagnostic documents. Allocation rows are
// matched to their demand line by line number.
func (a *Assembler) Assemble(
	projectID string,
	demands []entities.ComponentDemand,
	allocations []entities.AllocationResult,
) Documents {
	byLine := make(map[int]entities.ComponentDemand, len(demands))
	for _, d := range demands {
		byLine[d.LineNo] = d
	}

	return Documents{
		Journal:  a.Journal(projectID, byLine, allocations),
		Purchase: a.Purchase(demands),
		Missing:  a.Missing(demands),
	}
}

// Journal emits one movement row per bin take and one per unmet remainder of a resolved
// line. Unresolved lines never reach the warehouse.
//
// Rows are rounded on the running total of their line, so the rows of a line add up to
// the rounded line total. A take that rounds to nothing is not emitted.
func (a *Assembler) Journal(
	projectID string,
	byLine map[int]entities.ComponentDemand,
	allocations []entities.AllocationResult,
) []entities.JournalEntry {
	entries := make([]entities.JournalEntry, 0, len(allocations))
	taken := make(map[int]decimal.Decimal)

	for _, alloc := range allocations {
		if alloc.CatalogNo == "" {
			continue
		}
		demand := byLine[alloc.LineNo]

		before := taken[alloc.LineNo]
		after := before.Add(alloc.QtyAllocated)
		taken[alloc.LineNo] = after
		qty := after.Round(a.cfg.RoundingPlaces).Sub(before.Round(a.cfg.RoundingPlaces))
		if !qty.IsPositive() {
			continue
		}

		entry := entities.JournalEntry{
			EntryType:     entities.EntryTypeItem,
			CatalogNo:     alloc.CatalogNo,
			DocumentNo:    projectID,
			JobNo:         projectID,
			JobTaskNo:     a.cfg.JobTaskNo,
			Quantity:      qty,
			LocationCode:  a.cfg.LocationCode,
			BinCode:       alloc.BinID,
			Description:   demand.Description,
			OriginalLabel: demand.RawLabel,
		}
		if alloc.IsBackorder() {
			entry.DocumentNo = projectID + a.cfg.BackorderSuffix
			entry.LocationCode = a.cfg.NoStockLocationCode
		}

		entries = append(entries, entry)
	}

	return entries
}

// Purchase emits one order row per demand line with its original quantity
func (a *Assembler) Purchase(demands []entities.ComponentDemand) []entities.OrderEntry {
	entries := make([]entities.OrderEntry, 0, len(demands))

	for _, d := range demands {
		supplier := d.SupplierNo
		if !d.Resolved || supplier == "" {
			supplier = a.cfg.DefaultSupplier
		}

		entries = append(entries, entities.OrderEntry{
			EntryType:   entities.EntryTypeItem,
			CatalogNo:   d.CatalogNo,
			Quantity:    d.Quantity.Round(a.cfg.RoundingPlaces),
			SupplierNo:  supplier,
			ProfitRate:  a.ProfitRate(d.Manufacturer),
			Discount:    a.cfg.Discount,
			Description: d.Description,
		})
	}

	return entries
}

// ProfitRate picks the margin for a manufacturer: the low-margin manufacturer matches as a
// case-insensitive substring
func (a *Assembler) ProfitRate(manufacturer string) decimal.Decimal {
	marker := strings.ToUpper(strings.TrimSpace(a.cfg.LowMarginManufacturer))
	if marker != "" && strings.Contains(strings.ToUpper(manufacturer), marker) {
		return a.cfg.LowMarginProfit
	}
	return a.cfg.StandardProfit
}

// Missing emits one diagnostic row per unresolved demand line
func (a *Assembler) Missing(demands []entities.ComponentDemand) []entities.MissingCatalogEntry {
	entries := make([]entities.MissingCatalogEntry, 0)

	for _, d := range demands {
		if d.Resolved {
			continue
		}
		entries = append(entries, entities.MissingCatalogEntry{
			Source:        d.Origin.String(),
			OriginalLabel: d.RawLabel,
			Quantity:      d.Quantity.Round(a.cfg.RoundingPlaces),
			CatalogNo:     "",
		})
	}

	return entries
}
