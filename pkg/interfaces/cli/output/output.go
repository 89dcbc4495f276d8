package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/application/dto"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/normalize"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Out       io.Writer
}

// Generate creates output in the specified format
func Generate(result *dto.RunResult, config Config) error {
	if config.Out == nil {
		config.Out = os.Stdout
	}

	switch config.Format {
	case FormatText:
		return generateTextOutput(result, config)
	case FormatJSON:
		return generateJSONOutput(result, config)
	case FormatYAML:
		return generateYAMLOutput(result, config)
	case FormatCSV:
		return generateCSVOutput(result, config)
	case FormatXLSX:
		return generateXLSXOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// BaseName is the file name stem of a run's documents: project, panel type and grounding
// scheme joined by underscores, with characters unsafe in file names removed
func BaseName(params entities.RunParameters) string {
	return fmt.Sprintf("%s_%s_%s",
		normalize.SafeFilename(params.ProjectID),
		normalize.SafeFilename(params.PanelType),
		normalize.SafeFilename(string(params.Grounding)))
}

// saveFile writes data into the output directory and reports the path when verbose
func saveFile(config Config, name string, data []byte) (string, error) {
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Out, "Saved %s\n", filename)
	}
	return filename, nil
}

// table is one document laid out as rows of cells. Cells hold string, int or
// decimal.Decimal values so the workbook writer can keep numbers numeric.
type table struct {
	name    string
	headers []string
	rows    [][]interface{}
	widths  []float64
}

func documentTables(result *dto.RunResult) []table {
	journal := table{
		name:    "Journal",
		headers: []string{"Type", "No.", "Document No.", "Job No.", "Job Task No.", "Quantity", "Location Code", "Bin Code", "Description", "Original label"},
		widths:  []float64{8, 12, 16, 12, 12, 10, 14, 14, 40, 30},
	}
	for _, e := range result.Journal {
		journal.rows = append(journal.rows, []interface{}{
			e.EntryType, e.CatalogNo, e.DocumentNo, e.JobNo, e.JobTaskNo, e.Quantity,
			e.LocationCode, e.BinCode, e.Description, e.OriginalLabel,
		})
	}

	purchase := table{
		name:    "Purchase",
		headers: []string{"Type", "No.", "Quantity", "Supplier", "Profit %", "Discount", "Description"},
		widths:  []float64{8, 12, 10, 12, 10, 10, 40},
	}
	for _, e := range result.Purchase {
		purchase.rows = append(purchase.rows, []interface{}{
			e.EntryType, e.CatalogNo, e.Quantity, e.SupplierNo, e.ProfitRate, e.Discount, e.Description,
		})
	}

	calculation := table{
		name:    "Calculation",
		headers: []string{"Item", "Value"},
		widths:  []float64{20, 16},
	}
	for _, c := range result.Costs {
		calculation.rows = append(calculation.rows, []interface{}{c.Label, c.Value})
	}

	missing := table{
		name:    "Missing",
		headers: []string{"Source", "Original label", "Quantity", "No."},
		widths:  []float64{16, 30, 10, 12},
	}
	for _, m := range result.Missing {
		missing.rows = append(missing.rows, []interface{}{m.Source, m.OriginalLabel, m.Quantity, m.CatalogNo})
	}

	return []table{journal, purchase, calculation, missing}
}

func cellText(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case decimal.Decimal:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
