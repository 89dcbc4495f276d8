package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vsinha/bomalloc/pkg/application/dto"
	"github.com/vsinha/bomalloc/pkg/application/services/allocation"
	"github.com/vsinha/bomalloc/pkg/application/services/costing"
	"github.com/vsinha/bomalloc/pkg/application/services/documents"
	"github.com/vsinha/bomalloc/pkg/application/services/resolution"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/infrastructure/events"
)

// Pipeline stage names, used for logging and metrics
const (
	StageIngest   = "ingest"
	StageExclude  = "exclude"
	StageExpand   = "expand"
	StageResolve  = "resolve"
	StageAllocate = "allocate"
	StageAssemble = "assemble"
	StageCost     = "cost"
)

// StageObserver receives the duration of every completed stage
type StageObserver interface {
	ObserveStage(stage string, d time.Duration)
}

// Options configure the constants and policies of a run
type Options struct {
	Documents        documents.Config
	Costing          costing.Config
	AddOnLines       resolution.AddOnLines
	ExclusionMarkers []string
	SentinelBin      string
}

// DefaultOptions returns the standard run configuration
func DefaultOptions() Options {
	return Options{
		Documents:        documents.DefaultConfig(),
		Costing:          costing.DefaultConfig(),
		AddOnLines:       resolution.DefaultAddOnLines(),
		ExclusionMarkers: resolution.DefaultExclusionMarkers,
		SentinelBin:      entities.DefaultSentinelBin,
	}
}

// Pipeline runs one project's component lists through exclusion, expansion, resolution,
// allocation, document assembly and costing. Every step of every line is appended to the
// event store under the run id.
type Pipeline struct {
	store    events.EventStore
	logger   *slog.Logger
	observer StageObserver
	opts     Options
	newRunID func() string
}

// NewPipeline creates a pipeline
func NewPipeline(store events.EventStore, logger *slog.Logger, opts Options) *Pipeline {
	if store == nil {
		store = events.NewInMemoryEventStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    store,
		logger:   logger,
		opts:     opts,
		newRunID: uuid.NewString,
	}
}

// WithStageObserver attaches a stage duration observer
func (p *Pipeline) WithStageObserver(observer StageObserver) *Pipeline {
	p.observer = observer
	return p
}

// Run executes one run. Cancellation between stages aborts the run without documents.
func (p *Pipeline) Run(ctx context.Context, input dto.RunInput) (*dto.RunResult, error) {
	params, err := checkInput(input)
	if err != nil {
		return nil, err
	}
	input.Params = *params

	runID := p.newRunID()
	run := &runState{
		pipeline: p,
		runID:    runID,
		input:    input,
		log:      p.logger.With("run_id", runID, "project", input.Params.ProjectID),
	}

	result, err := run.execute(ctx)
	if err != nil {
		_ = p.store.AppendEvent(run.runID, events.NewEvent(events.RunFailedEvent, run.runID, events.RunFailed{
			Stage:  run.stage,
			Reason: err.Error(),
		}))
		run.log.Error("run failed", "stage", run.stage, "error", err)
		return nil, err
	}
	return result, nil
}

// checkInput rejects runs that must not start: invalid parameters or absent reference
// tables. It returns the parameters in their canonical spelling.
func checkInput(input dto.RunInput) (*entities.RunParameters, error) {
	raw := input.Params
	params, err := entities.NewRunParameters(raw.ProjectID, raw.PanelType, string(raw.Grounding), raw.AddOns)
	if err != nil {
		return nil, err
	}

	ref := input.Reference
	switch {
	case ref.Catalog == nil:
		return nil, fmt.Errorf("%w: catalog", entities.ErrMissingReference)
	case ref.Stock == nil:
		return nil, fmt.Errorf("%w: stock", entities.ErrMissingReference)
	case ref.Annotations == nil:
		return nil, fmt.Errorf("%w: exclusion annotations", entities.ErrMissingReference)
	}
	return params, nil
}

type runState struct {
	pipeline *Pipeline
	runID    string
	input    dto.RunInput
	log      *slog.Logger
	stage    string
	summary  dto.RunSummary
}

func (r *runState) execute(ctx context.Context) (*dto.RunResult, error) {
	started := time.Now()
	params := r.input.Params
	opts := r.pipeline.opts

	if err := r.emit(events.RunStartedEvent, events.RunStarted{
		ProjectID: params.ProjectID,
		PanelType: params.PanelType,
		Grounding: string(params.Grounding),
	}); err != nil {
		return nil, err
	}

	var lines []entities.ComponentDemand
	if err := r.step(ctx, StageIngest, func() error {
		lines = r.ingest()
		r.summary.InputLines = len(lines)
		r.log.Debug("ingested demand lines", "lines", len(lines), "rittal", params.AddOns.Rittal)
		return nil
	}); err != nil {
		return nil, err
	}

	var excluded []entities.ComponentDemand
	if err := r.step(ctx, StageExclude, func() error {
		filter := resolution.NewExclusionFilter(r.input.Reference.Annotations, opts.ExclusionMarkers)
		lines, excluded = filter.Apply(lines)
		r.summary.ExcludedLines = len(excluded)
		for _, d := range excluded {
			comment, _ := filter.IsExcluded(d.CanonicalKey)
			if err := r.traceLine(events.LineExcludedEvent, d, "", comment); err != nil {
				return err
			}
		}
		r.log.Info("exclusion applied", "kept", len(lines), "excluded", len(excluded))
		return nil
	}); err != nil {
		return nil, err
	}

	if err := r.step(ctx, StageExpand, func() error {
		expander := resolution.NewAccessoryExpander(resolution.NewAccessoryMap(r.input.Reference.Accessories))
		before := len(lines)
		lines = expander.Expand(lines)
		r.summary.AccessoryLines = len(lines) - before
		for _, d := range lines[before:] {
			if err := r.traceLine(events.LineExpandedEvent, d, "", fmt.Sprintf("accessory of line %d", d.ParentLine)); err != nil {
				return err
			}
		}
		r.log.Info("accessories expanded", "added", r.summary.AccessoryLines)
		return nil
	}); err != nil {
		return nil, err
	}

	index := resolution.NewCatalogIndex(r.input.Reference.Catalog)
	if err := r.step(ctx, StageResolve, func() error {
		lines = resolution.NewResolver(index).Resolve(lines)
		r.summary.DuplicateParts = len(index.Duplicates())
		for _, d := range lines {
			if d.Resolved {
				r.summary.ResolvedLines++
				continue
			}
			r.summary.UnresolvedLines++
			if err := r.traceLine(events.LineUnresolvedEvent, d, "", "no catalog entry"); err != nil {
				return err
			}
		}
		if r.summary.DuplicateParts > 0 {
			r.log.Warn("duplicate catalog entries dropped", "count", r.summary.DuplicateParts)
		}
		r.log.Info("catalog resolved", "resolved", r.summary.ResolvedLines, "unresolved", r.summary.UnresolvedLines)
		return nil
	}); err != nil {
		return nil, err
	}

	var allocations []entities.AllocationResult
	if err := r.step(ctx, StageAllocate, func() error {
		snapshot := allocation.NewSnapshot(r.input.Reference.Stock, opts.SentinelBin)
		allocations = allocation.NewAllocator(snapshot).AllocateAll(lines)
		return r.traceAllocations(lines, allocations)
	}); err != nil {
		return nil, err
	}

	var docs documents.Documents
	if err := r.step(ctx, StageAssemble, func() error {
		docs = documents.NewAssembler(opts.Documents).Assemble(params.ProjectID, lines, allocations)
		r.log.Info("documents assembled", "journal", len(docs.Journal), "purchase", len(docs.Purchase), "missing", len(docs.Missing))
		return nil
	}); err != nil {
		return nil, err
	}

	var costs []entities.CostLine
	if err := r.step(ctx, StageCost, func() error {
		costs = costing.NewEstimator(opts.Costing).Estimate(params, lines, r.input.Reference.Rates)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	completed := time.Now()
	if err := r.emit(events.RunCompletedEvent, events.RunCompleted{
		InputLines: r.summary.InputLines,
		Duration:   completed.Sub(started),
	}); err != nil {
		return nil, err
	}

	trace, err := r.readTrace()
	if err != nil {
		return nil, err
	}

	r.log.Info("run completed", "lines", len(lines), "duration", completed.Sub(started))

	return &dto.RunResult{
		RunID:       r.runID,
		Params:      params,
		Journal:     docs.Journal,
		Purchase:    docs.Purchase,
		Costs:       costs,
		Missing:     docs.Missing,
		Summary:     r.summary,
		Trace:       trace,
		Allocations: allocations,
		Demands:     lines,
		Excluded:    excluded,
		Duplicates:  index.Duplicates(),
		StartedAt:   started,
		CompletedAt: completed,
	}, nil
}

// ingest numbers the primary BOM, the auxiliary BOM (skipped for Rittal enclosures) and
// the add-on lines in that order. Rows without a label are not demand lines.
func (r *runState) ingest() []entities.ComponentDemand {
	lines := make([]entities.ComponentDemand, 0, len(r.input.PrimaryBOM)+len(r.input.AuxiliaryBOM))
	next := 1

	appendRows := func(rows []entities.BOMRow, origin entities.Origin) {
		skipped := 0
		for _, row := range rows {
			demand, err := entities.DemandFromRow(row, origin)
			if err != nil {
				skipped++
				continue
			}
			demand.LineNo = next
			next++
			lines = append(lines, *demand)
		}
		if skipped > 0 {
			r.log.Debug("skipped rows without a label", "origin", origin.String(), "rows", skipped)
		}
	}

	appendRows(r.input.PrimaryBOM, entities.PrimaryBOM)
	if !r.input.Params.AddOns.Rittal {
		appendRows(r.input.AuxiliaryBOM, entities.AuxiliaryBOM)
	}

	builder := resolution.NewAddOnBuilder(r.pipeline.opts.AddOnLines, r.input.Reference.MainSwitches)
	lines = append(lines, builder.Build(r.input.Params.AddOns, next)...)

	return lines
}

// traceAllocations records every allocation row; zero-quantity lines, which allocate
// nothing, are recorded as purchased
func (r *runState) traceAllocations(lines []entities.ComponentDemand, allocations []entities.AllocationResult) error {
	byLine := make(map[int]entities.ComponentDemand, len(lines))
	for _, d := range lines {
		byLine[d.LineNo] = d
	}

	allocated := make(map[int]bool, len(lines))
	for _, a := range allocations {
		d := byLine[a.LineNo]
		d.Quantity = a.QtyAllocated
		allocated[a.LineNo] = true

		eventType := events.LineAllocatedEvent
		switch {
		case a.CatalogNo == "":
			eventType = events.LinePurchasedEvent
		case a.IsBackorder():
			eventType = events.LineBackorderedEvent
			r.summary.Backorders++
		default:
			r.summary.BinAllocations++
		}
		if err := r.traceLine(eventType, d, a.BinID, ""); err != nil {
			return err
		}
	}

	for _, d := range lines {
		if allocated[d.LineNo] {
			continue
		}
		if err := r.traceLine(events.LinePurchasedEvent, d, "", "zero quantity"); err != nil {
			return err
		}
	}

	r.log.Info("stock allocated", "bin_rows", r.summary.BinAllocations, "backorders", r.summary.Backorders)
	return nil
}

func (r *runState) step(ctx context.Context, stage string, fn func() error) error {
	r.stage = stage
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled before %s: %w", stage, err)
	}

	start := time.Now()
	if err := fn(); err != nil {
		return fmt.Errorf("%s stage failed: %w", stage, err)
	}
	if r.pipeline.observer != nil {
		r.pipeline.observer.ObserveStage(stage, time.Since(start))
	}
	return nil
}

func (r *runState) emit(eventType string, data interface{}) error {
	if err := r.pipeline.store.AppendEvent(r.runID, events.NewEvent(eventType, r.runID, data)); err != nil {
		return fmt.Errorf("failed to record %s: %w", eventType, err)
	}
	return nil
}

func (r *runState) traceLine(eventType string, d entities.ComponentDemand, binID, detail string) error {
	return r.emit(eventType, events.LineTraced{
		LineNo:    d.LineNo,
		Label:     d.RawLabel,
		Origin:    d.Origin.String(),
		CatalogNo: d.CatalogNo,
		BinID:     binID,
		Quantity:  d.Quantity,
		Detail:    detail,
	})
}

var outcomes = map[string]string{
	events.LineExcludedEvent:    dto.OutcomeExcluded,
	events.LineExpandedEvent:    dto.OutcomeExpanded,
	events.LineUnresolvedEvent:  dto.OutcomeUnresolved,
	events.LineAllocatedEvent:   dto.OutcomeAllocated,
	events.LineBackorderedEvent: dto.OutcomeBackordered,
	events.LinePurchasedEvent:   dto.OutcomePurchased,
}

// readTrace rebuilds the per-line trace of this run from the event store
func (r *runState) readTrace() ([]dto.TraceRecord, error) {
	stream, err := r.pipeline.store.ReadEvents(r.runID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to read run trace: %w", err)
	}

	trace := make([]dto.TraceRecord, 0, len(stream))
	for _, event := range stream {
		outcome, ok := outcomes[event.Type()]
		if !ok {
			continue
		}
		line, ok := events.PayloadAs[events.LineTraced](event)
		if !ok {
			continue
		}
		trace = append(trace, dto.TraceRecord{
			LineNo:    line.LineNo,
			Label:     line.Label,
			Origin:    line.Origin,
			Outcome:   outcome,
			CatalogNo: line.CatalogNo,
			BinID:     line.BinID,
			Quantity:  line.Quantity,
			Detail:    line.Detail,
		})
	}
	return trace, nil
}
