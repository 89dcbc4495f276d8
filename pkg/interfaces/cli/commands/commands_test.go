package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/infrastructure/config"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

// panelFixture writes a CSV reference directory and BOM files, returning the reference
// directory and the directory holding the BOMs
func panelFixture(t *testing.T) (string, string) {
	t.Helper()
	ref := t.TempDir()
	writeFiles(t, ref, map[string]string{
		"catalog.csv": `catalog_no,display_name,description,manufacturer,supplier_no,unit_cost
100,X,Breaker,ABB,SUP-1,10
200,Y,Relay,Danfoss A/S,,2.5
200,Y-dup,Relay copy,,,1
`,
		"annotations.csv": `component_name,quantity,comment
q,1,Quarantined
`,
		"rates.csv": `panel_type,hours_tt,hours_tn_s,hours_tn_c_s,hourly_rate
C4,10,12,14,450
`,
		"stock.csv": `catalog_no,bin_id,quantity
100,B2,10
100,B1,3
200,67-01-01-01,50
999,B9,1
`,
	})

	boms := t.TempDir()
	writeFiles(t, boms, map[string]string{
		"bom.csv": `label,quantity,manufacturer,description
x,7,,
y,2,,
q,5,,
nope,1,,
`,
		"aux.csv": `label,quantity,manufacturer,description,unit_cost
Cable duct,3,,,"12,50"
`,
	})
	return ref, boms
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand(&out, &errOut)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRunCommand_JSON(t *testing.T) {
	ref, boms := panelFixture(t)
	out, err := execute(t, "run",
		"--project", "1234-567", "--panel", "c4", "--grounding", "tn-s",
		"--data", ref,
		"--bom", filepath.Join(boms, "bom.csv"),
		"--aux", filepath.Join(boms, "aux.csv"),
		"--format", "json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var result struct {
		Journal []entities.JournalEntry        `json:"journal"`
		Missing []entities.MissingCatalogEntry `json:"missing"`
		Costs   []entities.CostLine            `json:"calculation"`
		Trace   []json.RawMessage              `json:"trace"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Expected JSON output: %v\n%s", err, out)
	}

	var xRows int
	for _, row := range result.Journal {
		if row.OriginalLabel == "q" {
			t.Error("Expected the quarantined component to be excluded")
		}
		if row.OriginalLabel == "x" {
			xRows++
		}
	}
	if xRows != 2 {
		t.Errorf("Expected x split over 2 bins, got %d rows", xRows)
	}
	if len(result.Missing) != 1 || result.Missing[0].OriginalLabel != "nope" {
		t.Errorf("Expected nope to be missing, got %+v", result.Missing)
	}
	if len(result.Costs) != 9 {
		t.Errorf("Expected 9 cost rows, got %d", len(result.Costs))
	}
	if result.Trace != nil {
		t.Error("Expected no trace without --trace")
	}
}

func TestRunCommand_XLSXAndMetrics(t *testing.T) {
	ref, boms := panelFixture(t)
	outDir := t.TempDir()
	metricsFile := filepath.Join(outDir, "bomalloc.prom")

	_, err := execute(t, "run",
		"--project", "1234-567", "--panel", "C4", "--grounding", "TN-S", "--rittal",
		"--data", ref,
		"--bom", filepath.Join(boms, "bom.csv"),
		"--format", "xlsx", "--output", outDir,
		"--metrics-file", metricsFile)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "1234-567_C4_TN-S.xlsx")); err != nil {
		t.Errorf("Expected workbook to be written: %v", err)
	}
	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("Expected metrics file: %v", err)
	}
	if !strings.Contains(string(data), "bomalloc_runs_total") {
		t.Errorf("Expected run counter in metrics, got:\n%s", data)
	}
}

func TestRunCommand_InputErrors(t *testing.T) {
	ref, boms := panelFixture(t)
	bom := filepath.Join(boms, "bom.csv")

	testCases := []struct {
		name string
		args []string
		is   error
	}{
		{
			name: "missing aux without rittal",
			args: []string{"--project", "1234-567", "--panel", "C4", "--grounding", "TN-S", "--data", ref, "--bom", bom},
		},
		{
			name: "bad project id",
			args: []string{"--project", "12-34", "--panel", "C4", "--grounding", "TN-S", "--rittal", "--data", ref, "--bom", bom},
			is:   entities.ErrInvalidParameters,
		},
		{
			name: "missing catalog",
			args: []string{"--project", "1234-567", "--panel", "C4", "--grounding", "TN-S", "--rittal", "--data", t.TempDir(), "--bom", bom},
			is:   entities.ErrMissingReference,
		},
		{
			name: "unsupported bom",
			args: []string{"--project", "1234-567", "--panel", "C4", "--grounding", "TN-S", "--rittal", "--data", ref, "--bom", "bom.pdf"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"run"}, tc.args...)...)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Errorf("Expected %v, got %v", tc.is, err)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	ref, _ := panelFixture(t)

	out, err := execute(t, "validate", "--data", ref)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "Warning:") {
		t.Errorf("Expected warnings for duplicate and unknown stock, got:\n%s", out)
	}

	if _, err := execute(t, "validate", "--data", ref, "--strict"); !errors.Is(err, ErrFindings) {
		t.Errorf("Expected ErrFindings in strict mode, got %v", err)
	}
}

func TestImportThenRunFromDatabase(t *testing.T) {
	ref, boms := panelFixture(t)
	db := filepath.Join(t.TempDir(), "reference.db")

	out, err := execute(t, "import", "--data", ref, "--db", db)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 3 catalog entries and 4 stock records") {
		t.Errorf("Unexpected import output: %s", out)
	}

	fromCSV, err := execute(t, "run", "--project", "1234-567", "--panel", "C4", "--grounding", "TN-S", "--rittal",
		"--data", ref, "--bom", filepath.Join(boms, "bom.csv"), "--format", "yaml")
	if err != nil {
		t.Fatalf("run from CSV: %v", err)
	}
	fromDB, err := execute(t, "run", "--project", "1234-567", "--panel", "C4", "--grounding", "TN-S", "--rittal",
		"--data", db, "--bom", filepath.Join(boms, "bom.csv"), "--format", "yaml")
	if err != nil {
		t.Fatalf("run from database: %v", err)
	}

	if documentsOf(fromCSV) != documentsOf(fromDB) {
		t.Errorf("Expected identical documents from CSV and database reference data")
	}
}

// documentsOf drops the run id and timestamps from YAML output
func documentsOf(yamlOut string) string {
	var kept []string
	for _, line := range strings.Split(yamlOut, "\n") {
		if strings.HasPrefix(line, "run_id:") || strings.HasPrefix(line, "started_at:") || strings.HasPrefix(line, "completed_at:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "bomalloc version "+Version) {
		t.Errorf("Expected version line, got %q", out)
	}
}

func TestBuildOptions(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	opts, err := BuildOptions(cfg)
	if err != nil {
		t.Fatalf("BuildOptions: %v", err)
	}
	if opts.Documents.JobTaskNo != 1144 || opts.Documents.BackorderSuffix != "/NERA" {
		t.Errorf("Expected default document constants, got %+v", opts.Documents)
	}
	if len(opts.Costing.Markups) != 2 || len(opts.AddOnLines.SwingFrame) != 2 {
		t.Fatalf("Expected 2 markups and 2 swing frame lines, got %d and %d", len(opts.Costing.Markups), len(opts.AddOnLines.SwingFrame))
	}
	if got := opts.AddOnLines.SwingFrame[1].Description; got != "Swing accessory 2" {
		t.Errorf("Expected swing frame description, got %q", got)
	}
	if len(opts.AddOnLines.UPS) != 1 || opts.AddOnLines.UPS[0].Description != "UPS Holder" {
		t.Errorf("Expected UPS holder line with description, got %+v", opts.AddOnLines.UPS)
	}

	cfg.Costing.WireSet = "lots"
	if _, err := BuildOptions(cfg); err == nil {
		t.Error("Expected error for an invalid decimal")
	}
}

func TestImportCommand_Locked(t *testing.T) {
	ref, _ := panelFixture(t)
	db := filepath.Join(t.TempDir(), "reference.db")

	held, err := lockDatabase(context.Background(), db)
	if err != nil {
		t.Fatalf("lockDatabase: %v", err)
	}
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err = NewImportCommand(ImportConfig{DataPath: ref, DBPath: db}, io.Discard).Execute(ctx)
	if err == nil {
		t.Fatal("Expected error while another import holds the lock")
	}
}
