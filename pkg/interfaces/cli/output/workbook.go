package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/application/dto"
	"github.com/xuri/excelize/v2"
)

// currencyFormat renders the Calculation values in Danish kroner
const currencyFormat = `#,##0.00 "DKK"`

// generateXLSXOutput writes one workbook with a sheet per document
func generateXLSXOutput(result *dto.RunResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for xlsx format")
	}

	f, err := buildWorkbook(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, BaseName(result.Params)+".xlsx")
	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Out, "Saved %s\n", filename)
	}
	return nil
}

func buildWorkbook(result *dto.RunResult) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	numFmt := currencyFormat
	currencyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return nil, err
	}

	for i, t := range documentTables(result) {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return nil, err
		}

		headers := make([]interface{}, len(t.headers))
		for c, h := range t.headers {
			headers[c] = h
		}
		if err := f.SetSheetRow(t.name, "A1", &headers); err != nil {
			return nil, err
		}
		last, _ := excelize.ColumnNumberToName(len(t.headers))
		if err := f.SetCellStyle(t.name, "A1", last+"1", headerStyle); err != nil {
			return nil, err
		}

		for r, row := range t.rows {
			values := make([]interface{}, len(row))
			for c, v := range row {
				if d, ok := v.(decimal.Decimal); ok {
					values[c] = d.InexactFloat64()
					continue
				}
				values[c] = v
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(t.name, cell, &values); err != nil {
				return nil, err
			}
		}

		if t.name == "Calculation" {
			for r, row := range t.rows {
				cell, _ := excelize.CoordinatesToCellName(2, r+2)
				style := currencyStyle
				if label, _ := row[0].(string); strings.HasPrefix(label, "Total") {
					style = totalStyle
					labelCell, _ := excelize.CoordinatesToCellName(1, r+2)
					if err := f.SetCellStyle(t.name, labelCell, cell, totalStyle); err != nil {
						return nil, err
					}
				}
				if err := f.SetCellStyle(t.name, cell, cell, style); err != nil {
					return nil, err
				}
			}
		}

		for c, w := range t.widths {
			col, _ := excelize.ColumnNumberToName(c + 1)
			if err := f.SetColWidth(t.name, col, col, w); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}
