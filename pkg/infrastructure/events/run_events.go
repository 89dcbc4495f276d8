package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RunStartedEvent   = "run.started"
	RunCompletedEvent = "run.completed"
	RunFailedEvent    = "run.failed"

	LineExcludedEvent    = "line.excluded"
	LineExpandedEvent    = "line.expanded"
	LineUnresolvedEvent  = "line.unresolved"
	LineAllocatedEvent   = "line.allocated"
	LineBackorderedEvent = "line.backordered"
	LinePurchasedEvent   = "line.purchased"
)

// LineEventTypes lists every per-line event type
var LineEventTypes = []string{
	LineExcludedEvent,
	LineExpandedEvent,
	LineUnresolvedEvent,
	LineAllocatedEvent,
	LineBackorderedEvent,
	LinePurchasedEvent,
}

type RunStarted struct {
	ProjectID string `json:"project_id"`
	PanelType string `json:"panel_type"`
	Grounding string `json:"grounding"`
}

type RunCompleted struct {
	InputLines int           `json:"input_lines"`
	Duration   time.Duration `json:"duration"`
}

type RunFailed struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// LineTraced records one step of one demand line through the pipeline
type LineTraced struct {
	LineNo    int             `json:"line_no"`
	Label     string          `json:"label"`
	Origin    string          `json:"origin"`
	CatalogNo string          `json:"no,omitempty"`
	BinID     string          `json:"bin,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Detail    string          `json:"detail,omitempty"`
}
