package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultSentinelBin holds stock that physically exists but must never be allocated
const DefaultSentinelBin = "67-01-01-01"

// StockRecord represents the available quantity of one catalog number in one bin
type StockRecord struct {
	CatalogNo    string
	BinID        string
	AvailableQty decimal.Decimal
}

// NewStockRecord creates a validated StockRecord
func NewStockRecord(catalogNo, binID string, availableQty decimal.Decimal) (*StockRecord, error) {
	catalogNo = strings.TrimSpace(catalogNo)
	binID = strings.TrimSpace(binID)
	if catalogNo == "" {
		return nil, fmt.Errorf("catalog number cannot be empty")
	}
	if binID == "" {
		return nil, fmt.Errorf("bin id cannot be empty")
	}
	if availableQty.IsNegative() {
		return nil, fmt.Errorf("available quantity cannot be negative, got %s", availableQty)
	}

	return &StockRecord{
		CatalogNo:    catalogNo,
		BinID:        binID,
		AvailableQty: availableQty,
	}, nil
}

// AllocationResult is one slice of a demand line's quantity: either taken from a bin or,
// with an empty BinID, left unmet and routed to purchase
type AllocationResult struct {
	LineNo       int
	CatalogNo    string
	BinID        string
	QtyAllocated decimal.Decimal
}

// IsBackorder reports whether the allocation represents unmet demand
func (a AllocationResult) IsBackorder() bool {
	return a.BinID == ""
}
