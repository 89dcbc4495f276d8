package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
)

// Snapshot is the in-memory stock extract of one run. It is a consumable resource:
// allocation decrements it in place, so every run or strategy evaluation needs its own
// snapshot (see Clone).
type Snapshot struct {
	bins        map[string][]*entities.StockRecord
	sentinelBin string
}

// NewSnapshot groups stock records by catalog number and orders each group by bin id
// ascending. Input order breaks ties. The records are copied; the caller's slice is never
// mutated.
func NewSnapshot(records []entities.StockRecord, sentinelBin string) *Snapshot {
	if sentinelBin == "" {
		sentinelBin = entities.DefaultSentinelBin
	}

	bins := make(map[string][]*entities.StockRecord)
	for i := range records {
		record := records[i]
		key := normalize.Key(record.CatalogNo)
		if key == "" {
			continue
		}
		bins[key] = append(bins[key], &record)
	}
	for _, list := range bins {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].BinID < list[j].BinID
		})
	}

	return &Snapshot{bins: bins, sentinelBin: sentinelBin}
}

// Clone returns an independent copy of the current state
func (s *Snapshot) Clone() *Snapshot {
	bins := make(map[string][]*entities.StockRecord, len(s.bins))
	for key, list := range s.bins {
		copied := make([]*entities.StockRecord, len(list))
		for i, record := range list {
			r := *record
			copied[i] = &r
		}
		bins[key] = copied
	}
	return &Snapshot{bins: bins, sentinelBin: s.sentinelBin}
}

// SentinelBin returns the bin id that is never allocated from
func (s *Snapshot) SentinelBin() string {
	return s.sentinelBin
}

// Remaining returns the quantity currently recorded for one bin, zero when unknown
func (s *Snapshot) Remaining(catalogNo, binID string) decimal.Decimal {
	total := decimal.Zero
	for _, record := range s.bins[normalize.Key(catalogNo)] {
		if record.BinID == binID {
			total = total.Add(record.AvailableQty)
		}
	}
	return total
}

// Allocatable returns the quantity of a catalog number that allocation could still take
func (s *Snapshot) Allocatable(catalogNo string) decimal.Decimal {
	total := decimal.Zero
	for _, record := range s.bins[normalize.Key(catalogNo)] {
		if s.allocatable(record) {
			total = total.Add(record.AvailableQty)
		}
	}
	return total
}

// CatalogNumbers returns the number of distinct catalog numbers held
func (s *Snapshot) CatalogNumbers() int {
	return len(s.bins)
}

func (s *Snapshot) allocatable(record *entities.StockRecord) bool {
	return record.BinID != s.sentinelBin && record.AvailableQty.IsPositive()
}

// take walks the bins of a catalog number in order and consumes up to qty, returning the
// per-bin takes and the quantity left unmet
func (s *Snapshot) take(catalogNo string, qty decimal.Decimal) ([]binTake, decimal.Decimal) {
	remaining := qty
	takes := make([]binTake, 0)

	for _, record := range s.bins[normalize.Key(catalogNo)] {
		if !remaining.IsPositive() {
			break
		}
		if !s.allocatable(record) {
			continue
		}

		take := decimal.Min(remaining, record.AvailableQty)
		record.AvailableQty = record.AvailableQty.Sub(take)
		remaining = remaining.Sub(take)
		takes = append(takes, binTake{binID: record.BinID, qty: take})
	}

	return takes, remaining
}

type binTake struct {
	binID string
	qty   decimal.Decimal
}
