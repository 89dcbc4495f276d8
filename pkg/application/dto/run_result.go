package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
)

// ReferenceData holds every reference table a run is resolved against
type ReferenceData struct {
	Catalog      []entities.CatalogEntry
	Stock        []entities.StockRecord
	Annotations  []entities.Annotation
	Accessories  []entities.AccessoryRule
	MainSwitches []entities.MainSwitchRule
	Rates        *entities.RateTable
}

// RunInput is everything one run consumes
type RunInput struct {
	Params       entities.RunParameters
	PrimaryBOM   []entities.BOMRow
	AuxiliaryBOM []entities.BOMRow
	Reference    ReferenceData
}

// Line outcomes recorded in the run trace
const (
	OutcomeExcluded    = "excluded"
	OutcomeExpanded    = "expanded"
	OutcomeAllocated   = "allocated"
	OutcomeBackordered = "backordered"
	OutcomePurchased   = "purchased"
	OutcomeUnresolved  = "unresolved"
)

// TraceRecord records what happened to one demand line
type TraceRecord struct {
	LineNo    int             `json:"line_no" yaml:"line_no"`
	Label     string          `json:"label" yaml:"label"`
	Origin    string          `json:"origin" yaml:"origin"`
	Outcome   string          `json:"outcome" yaml:"outcome"`
	CatalogNo string          `json:"no,omitempty" yaml:"no,omitempty"`
	BinID     string          `json:"bin,omitempty" yaml:"bin,omitempty"`
	Quantity  decimal.Decimal `json:"quantity" yaml:"quantity"`
	Detail    string          `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// RunSummary counts lines through the pipeline stages
type RunSummary struct {
	InputLines      int `json:"input_lines" yaml:"input_lines"`
	ExcludedLines   int `json:"excluded_lines" yaml:"excluded_lines"`
	AccessoryLines  int `json:"accessory_lines" yaml:"accessory_lines"`
	ResolvedLines   int `json:"resolved_lines" yaml:"resolved_lines"`
	UnresolvedLines int `json:"unresolved_lines" yaml:"unresolved_lines"`
	BinAllocations  int `json:"bin_allocations" yaml:"bin_allocations"`
	Backorders      int `json:"backorders" yaml:"backorders"`
	DuplicateParts  int `json:"duplicate_catalog_entries" yaml:"duplicate_catalog_entries"`
}

// RunResult contains the complete output of a run
type RunResult struct {
	RunID       string                         `json:"run_id" yaml:"run_id"`
	Params      entities.RunParameters         `json:"-" yaml:"-"`
	Journal     []entities.JournalEntry        `json:"journal" yaml:"journal"`
	Purchase    []entities.OrderEntry          `json:"purchase" yaml:"purchase"`
	Costs       []entities.CostLine            `json:"calculation" yaml:"calculation"`
	Missing     []entities.MissingCatalogEntry `json:"missing" yaml:"missing"`
	Summary     RunSummary                     `json:"summary" yaml:"summary"`
	Trace       []TraceRecord                  `json:"trace,omitempty" yaml:"trace,omitempty"`
	Allocations []entities.AllocationResult    `json:"-" yaml:"-"`
	Demands     []entities.ComponentDemand     `json:"-" yaml:"-"`
	Excluded    []entities.ComponentDemand     `json:"-" yaml:"-"`
	Duplicates  []entities.CatalogEntry        `json:"-" yaml:"-"`
	StartedAt   time.Time                      `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time                      `json:"completed_at" yaml:"completed_at"`
}
