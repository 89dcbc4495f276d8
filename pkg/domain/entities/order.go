package entities

import "github.com/shopspring/decimal"

// EntryTypeItem is the only entry type the backend documents carry
const EntryTypeItem = "Item"

// JournalEntry is one row of the warehouse movement document (job journal)
type JournalEntry struct {
	EntryType     string          `json:"type" yaml:"type"`
	CatalogNo     string          `json:"no" yaml:"no"`
	DocumentNo    string          `json:"document_no" yaml:"document_no"`
	JobNo         string          `json:"job_no" yaml:"job_no"`
	JobTaskNo     int             `json:"job_task_no" yaml:"job_task_no"`
	Quantity      decimal.Decimal `json:"quantity" yaml:"quantity"`
	LocationCode  string          `json:"location_code" yaml:"location_code"`
	BinCode       string          `json:"bin_code" yaml:"bin_code"`
	Description   string          `json:"description" yaml:"description"`
	OriginalLabel string          `json:"original_label" yaml:"original_label"`
}

// OrderEntry is one row of the purchasing document
type OrderEntry struct {
	EntryType   string          `json:"type" yaml:"type"`
	CatalogNo   string          `json:"no" yaml:"no"`
	Quantity    decimal.Decimal `json:"quantity" yaml:"quantity"`
	SupplierNo  string          `json:"supplier" yaml:"supplier"`
	ProfitRate  decimal.Decimal `json:"profit" yaml:"profit"`
	Discount    decimal.Decimal `json:"discount" yaml:"discount"`
	Description string          `json:"description" yaml:"description"`
}

// CostLine is one labelled value of the cost summary
type CostLine struct {
	Label string          `json:"label" yaml:"label"`
	Value decimal.Decimal `json:"value" yaml:"value"`
}

// MissingCatalogEntry reports a demand line that matched no catalog record
type MissingCatalogEntry struct {
	Source        string          `json:"source" yaml:"source"`
	OriginalLabel string          `json:"original_label" yaml:"original_label"`
	Quantity      decimal.Decimal `json:"quantity" yaml:"quantity"`
	CatalogNo     string          `json:"no" yaml:"no"`
}
