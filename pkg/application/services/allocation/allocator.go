package allocation

import (
	"github.com/vsinha/bomalloc/pkg/domain/entities"
)

// Allocator greedily satisfies demand lines from a stock snapshot it owns for one run
type Allocator struct {
	snapshot *Snapshot
}

// NewAllocator creates an allocator that consumes the given snapshot
func NewAllocator(snapshot *Snapshot) *Allocator {
	return &Allocator{snapshot: snapshot}
}

// Allocate splits one demand line into bin takes and, if stock runs out, a final
// backorder row with an empty bin. Unresolved lines produce a single backorder row for
// their whole quantity. The allocated quantities always sum to the demand quantity; a
// zero quantity produces no rows.
func (a *Allocator) Allocate(demand entities.ComponentDemand) []entities.AllocationResult {
	if !demand.Quantity.IsPositive() {
		return nil
	}

	if !demand.Resolved || demand.CatalogNo == "" {
		return []entities.AllocationResult{{
			LineNo:       demand.LineNo,
			QtyAllocated: demand.Quantity,
		}}
	}

	takes, remaining := a.snapshot.take(demand.CatalogNo, demand.Quantity)

	results := make([]entities.AllocationResult, 0, len(takes)+1)
	for _, t := range takes {
		results = append(results, entities.AllocationResult{
			LineNo:       demand.LineNo,
			CatalogNo:    demand.CatalogNo,
			BinID:        t.binID,
			QtyAllocated: t.qty,
		})
	}
	if remaining.IsPositive() {
		results = append(results, entities.AllocationResult{
			LineNo:       demand.LineNo,
			CatalogNo:    demand.CatalogNo,
			QtyAllocated: remaining,
		})
	}

	return results
}

// AllocateAll allocates lines in input order
func (a *Allocator) AllocateAll(demands []entities.ComponentDemand) []entities.AllocationResult {
	results := make([]entities.AllocationResult, 0, len(demands))
	for _, d := range demands {
		results = append(results, a.Allocate(d)...)
	}
	return results
}
