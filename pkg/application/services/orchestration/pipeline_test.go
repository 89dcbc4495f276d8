package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/application/dto"
	testhelpers "github.com/vsinha/bomalloc/pkg/application/services/testing"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/infrastructure/events"
	"github.com/vsinha/bomalloc/pkg/infrastructure/logger"
)

func newTestPipeline(store events.EventStore) *Pipeline {
	p := NewPipeline(store, logger.Discard(), DefaultOptions())
	p.newRunID = func() string { return "run-1" }
	return p
}

func runPanel(t *testing.T, addOns entities.AddOns, rows ...entities.BOMRow) *dto.RunResult {
	t.Helper()
	result, err := newTestPipeline(nil).Run(context.Background(), testhelpers.BuildPanelInput(addOns, rows...))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

func journalFor(result *dto.RunResult, label string) []entities.JournalEntry {
	var rows []entities.JournalEntry
	for _, row := range result.Journal {
		if row.OriginalLabel == label {
			rows = append(rows, row)
		}
	}
	return rows
}

func TestPipeline_SplitAndShortage(t *testing.T) {
	result := runPanel(t, entities.AddOns{},
		testhelpers.Row("x", "7", ""),
		testhelpers.Row("y", "10", ""),
	)

	x := journalFor(result, "x")
	if len(x) != 2 {
		t.Fatalf("Expected 2 journal rows for x, got %d", len(x))
	}
	if x[0].BinCode != "B1" || !x[0].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected B1 ×3 first, got %s ×%s", x[0].BinCode, x[0].Quantity)
	}
	if x[1].BinCode != "B2" || !x[1].Quantity.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected B2 ×4 second, got %s ×%s", x[1].BinCode, x[1].Quantity)
	}

	y := journalFor(result, "y")
	if len(y) != 2 {
		t.Fatalf("Expected 2 journal rows for y, got %d", len(y))
	}
	if y[0].BinCode != "A9" || !y[0].Quantity.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected A9 ×4, got %s ×%s", y[0].BinCode, y[0].Quantity)
	}
	if y[1].BinCode != "" || y[1].DocumentNo != "1234-567/NERA" || !y[1].Quantity.Equal(decimal.NewFromInt(6)) {
		t.Errorf("Expected backorder ×6 on /NERA, got %+v", y[1])
	}
	for _, row := range result.Journal {
		if row.BinCode == entities.DefaultSentinelBin {
			t.Errorf("Expected no movement from sentinel bin, got %+v", row)
		}
	}

	if len(result.Purchase) != 2 || !result.Purchase[1].Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected purchase rows with original quantities, got %+v", result.Purchase)
	}
	if !result.Purchase[1].ProfitRate.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected Danfoss profit 10, got %s", result.Purchase[1].ProfitRate)
	}
}

func TestPipeline_UnresolvedComponent(t *testing.T) {
	result := runPanel(t, entities.AddOns{}, testhelpers.Row("Mystery 9", "2", "Acme"))

	if len(result.Journal) != 0 {
		t.Errorf("Expected no journal rows, got %+v", result.Journal)
	}
	if len(result.Purchase) != 1 {
		t.Fatalf("Expected 1 purchase row, got %d", len(result.Purchase))
	}
	if result.Purchase[0].CatalogNo != "" || result.Purchase[0].SupplierNo != "30093" {
		t.Errorf("Expected empty catalog number and default supplier, got %+v", result.Purchase[0])
	}
	if len(result.Missing) != 1 || result.Missing[0].OriginalLabel != "Mystery 9" {
		t.Errorf("Expected diagnostic row for Mystery 9, got %+v", result.Missing)
	}
	if result.Summary.UnresolvedLines != 1 {
		t.Errorf("Expected 1 unresolved line, got %d", result.Summary.UnresolvedLines)
	}
}

func TestPipeline_Exclusion(t *testing.T) {
	result := runPanel(t, entities.AddOns{},
		testhelpers.Row("Q", "1", ""),
		testhelpers.Row("W", "1", ""),
	)

	for _, row := range result.Journal {
		if row.OriginalLabel == "Q" {
			t.Error("Expected excluded Q to stay out of the journal")
		}
	}
	for _, row := range result.Purchase {
		if row.CatalogNo == "600" {
			t.Error("Expected excluded Q to stay out of the purchase document")
		}
	}
	if len(result.Excluded) != 1 || result.Excluded[0].RawLabel != "Q" {
		t.Errorf("Expected Q reported as excluded, got %+v", result.Excluded)
	}
	if len(result.Purchase) != 1 {
		t.Errorf("Expected informational comment on W to keep it, got %d purchase rows", len(result.Purchase))
	}
}

func TestPipeline_AccessoriesAndAddOns(t *testing.T) {
	result := runPanel(t, entities.AddOns{UPS: true, SwingFrame: true, MainSwitch: "C160S4FM"},
		testhelpers.Row("switch", "2", ""),
	)

	labels := make([]string, 0, len(result.Demands))
	for _, d := range result.Demands {
		labels = append(labels, d.RawLabel)
	}
	expected := []string{
		"switch",
		"C160S4FM", "C160 HANDLE", "C160 SHAFT",
		"ADV UPS HOLDER V3",
		"1055-1000", "1055-1001",
		"LUG",
	}
	if len(labels) != len(expected) {
		t.Fatalf("Expected lines %v, got %v", expected, labels)
	}
	for i := range expected {
		if labels[i] != expected[i] {
			t.Errorf("Line %d: expected %s, got %s", i, expected[i], labels[i])
		}
	}

	lug := result.Demands[len(result.Demands)-1]
	if lug.Origin != entities.Accessory || lug.ParentLine != 1 || !lug.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected LUG ×3 accessory of line 1, got %+v", lug)
	}
	if result.Summary.AccessoryLines != 1 {
		t.Errorf("Expected 1 accessory line, got %d", result.Summary.AccessoryLines)
	}

	// The swing frame kit is not in the catalog and keeps its configured descriptions
	if len(result.Purchase) != len(expected) {
		t.Fatalf("Expected %d purchase rows, got %d", len(expected), len(result.Purchase))
	}
	for i, want := range map[int]string{5: "Swing accessory 1", 6: "Swing accessory 2"} {
		row := result.Purchase[i]
		if row.CatalogNo != "" || row.Description != want {
			t.Errorf("Purchase row %d: expected unresolved %q, got %q / %q", i, want, row.CatalogNo, row.Description)
		}
	}
}

func TestPipeline_RittalIgnoresAuxiliaryBOM(t *testing.T) {
	input := testhelpers.BuildPanelInput(entities.AddOns{Rittal: true}, testhelpers.Row("x", "1", ""))
	input.AuxiliaryBOM = []entities.BOMRow{testhelpers.Row("z", "5", "")}

	result, err := newTestPipeline(nil).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Demands) != 1 {
		t.Errorf("Expected auxiliary BOM to be ignored, got %d lines", len(result.Demands))
	}

	input.Params.AddOns.Rittal = false
	result, err = newTestPipeline(nil).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Demands) != 2 || result.Demands[1].Origin != entities.AuxiliaryBOM {
		t.Errorf("Expected auxiliary line to be included, got %+v", result.Demands)
	}
}

func TestPipeline_Costs(t *testing.T) {
	input := testhelpers.BuildPanelInput(entities.AddOns{}, testhelpers.Row("x", "2", ""))
	input.AuxiliaryBOM = []entities.BOMRow{{Label: "cabinet", Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewNullDecimal(decimal.NewFromInt(800))}}

	result, err := newTestPipeline(nil).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	values := make(map[string]decimal.Decimal)
	for _, line := range result.Costs {
		values[line.Label] = line.Value
	}
	// C4 / TN-S: 12 h × 450
	checks := map[string]string{
		"Parts":      "20",
		"Auxiliary":  "800",
		"Hours cost": "5400",
		"Total":      "18470",
	}
	for label, want := range checks {
		if !values[label].Equal(testhelpers.Dec(want)) {
			t.Errorf("%s: expected %s, got %s", label, want, values[label])
		}
	}
	if len(result.Costs) != 9 {
		t.Errorf("Expected 9 cost rows, got %d", len(result.Costs))
	}
}

func TestPipeline_CanonicalizesParameters(t *testing.T) {
	input := testhelpers.BuildPanelInput(entities.AddOns{}, testhelpers.Row("x", "2", ""))
	input.Params.PanelType = "c4"
	input.Params.Grounding = "tn-s"

	result, err := newTestPipeline(nil).Run(context.Background(), input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Params.PanelType != "C4" || result.Params.Grounding != entities.GroundingTNS {
		t.Errorf("Expected canonical C4 / TN-S, got %s / %s", result.Params.PanelType, result.Params.Grounding)
	}
	for _, line := range result.Costs {
		if line.Label == "Hours cost" && !line.Value.Equal(testhelpers.Dec("5400")) {
			t.Errorf("Expected hours cost 5400 for lower-case parameters, got %s", line.Value)
		}
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	rows := []entities.BOMRow{
		testhelpers.Row("x", "4", ""),
		testhelpers.Row("x", "8", ""),
		testhelpers.Row("y", "1", ""),
		testhelpers.Row("nothing", "3", ""),
	}

	render := func() string {
		result, err := newTestPipeline(nil).Run(context.Background(), testhelpers.BuildPanelInput(entities.AddOns{UPS: true}, rows...))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		out, err := json.Marshal(struct {
			Journal  []entities.JournalEntry
			Purchase []entities.OrderEntry
			Costs    []entities.CostLine
			Missing  []entities.MissingCatalogEntry
		}{result.Journal, result.Purchase, result.Costs, result.Missing})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		return string(out)
	}

	first := render()
	second := render()
	if first != second {
		t.Errorf("Expected identical documents across runs\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestPipeline_EveryLineTraced(t *testing.T) {
	result := runPanel(t, entities.AddOns{},
		testhelpers.Row("x", "20", ""),
		testhelpers.Row("Q", "1", ""),
		testhelpers.Row("unknown", "1", ""),
		testhelpers.Row("z", "0", ""),
		testhelpers.Row("", "5", ""),
	)

	if result.Summary.InputLines != 4 {
		t.Errorf("Expected 4 input lines (blank label skipped), got %d", result.Summary.InputLines)
	}

	outcomes := make(map[int][]string)
	for _, rec := range result.Trace {
		outcomes[rec.LineNo] = append(outcomes[rec.LineNo], rec.Outcome)
	}

	expected := map[int][]string{
		1: {dto.OutcomeAllocated, dto.OutcomeAllocated, dto.OutcomeBackordered},
		2: {dto.OutcomeExcluded},
		3: {dto.OutcomeUnresolved, dto.OutcomePurchased},
		4: {dto.OutcomePurchased},
	}
	for lineNo, want := range expected {
		got := outcomes[lineNo]
		if len(got) != len(want) {
			t.Errorf("Line %d: expected outcomes %v, got %v", lineNo, want, got)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Line %d: expected outcomes %v, got %v", lineNo, want, got)
				break
			}
		}
	}
}

func TestPipeline_EventsRecorded(t *testing.T) {
	store := events.NewInMemoryEventStore()
	_, err := newTestPipeline(store).Run(context.Background(), testhelpers.BuildPanelInput(entities.AddOns{}, testhelpers.Row("x", "1", "")))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	stream, _ := store.ReadEvents("run-1", 1)
	if len(stream) < 3 {
		t.Fatalf("Expected at least 3 events, got %d", len(stream))
	}
	if stream[0].Type() != events.RunStartedEvent || stream[len(stream)-1].Type() != events.RunCompletedEvent {
		t.Errorf("Expected stream to start with %s and end with %s, got %s … %s",
			events.RunStartedEvent, events.RunCompletedEvent, stream[0].Type(), stream[len(stream)-1].Type())
	}
}

type stageRecorder struct {
	stages []string
}

func (s *stageRecorder) ObserveStage(stage string, _ time.Duration) {
	s.stages = append(s.stages, stage)
}

func TestPipeline_StageObserver(t *testing.T) {
	observer := &stageRecorder{}
	p := newTestPipeline(nil).WithStageObserver(observer)

	if _, err := p.Run(context.Background(), testhelpers.BuildPanelInput(entities.AddOns{})); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expected := []string{StageIngest, StageExclude, StageExpand, StageResolve, StageAllocate, StageAssemble, StageCost}
	if len(observer.stages) != len(expected) {
		t.Fatalf("Expected stages %v, got %v", expected, observer.stages)
	}
	for i := range expected {
		if observer.stages[i] != expected[i] {
			t.Errorf("Expected stage %s at %d, got %s", expected[i], i, observer.stages[i])
		}
	}
}

func TestPipeline_CancelledRunProducesNothing(t *testing.T) {
	store := events.NewInMemoryEventStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestPipeline(store).Run(ctx, testhelpers.BuildPanelInput(entities.AddOns{}, testhelpers.Row("x", "1", "")))
	if err == nil {
		t.Fatal("Expected cancelled run to fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if result != nil {
		t.Error("Expected no result from a cancelled run")
	}

	stream, _ := store.ReadEvents("run-1", 1)
	if len(stream) == 0 || stream[len(stream)-1].Type() != events.RunFailedEvent {
		t.Errorf("Expected run to end with %s", events.RunFailedEvent)
	}
}

func TestPipeline_RejectsBadInput(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(*dto.RunInput)
		expected error
	}{
		{"missing catalog", func(in *dto.RunInput) { in.Reference.Catalog = nil }, entities.ErrMissingReference},
		{"missing stock", func(in *dto.RunInput) { in.Reference.Stock = nil }, entities.ErrMissingReference},
		{"missing annotations", func(in *dto.RunInput) { in.Reference.Annotations = nil }, entities.ErrMissingReference},
		{"bad project id", func(in *dto.RunInput) { in.Params.ProjectID = "12-3" }, entities.ErrInvalidParameters},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := testhelpers.BuildPanelInput(entities.AddOns{}, testhelpers.Row("x", "1", ""))
			tc.mutate(&input)

			_, err := newTestPipeline(nil).Run(context.Background(), input)
			if !errors.Is(err, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, err)
			}
		})
	}
}
