package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/vsinha/bomalloc/pkg/application/dto"
	"gopkg.in/yaml.v3"
)

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.RunResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(config.Out, string(jsonData))
		return err
	}
	_, err = saveFile(config, BaseName(result.Params)+".json", jsonData)
	return err
}

// generateYAMLOutput creates YAML output
func generateYAMLOutput(result *dto.RunResult, config Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if config.OutputDir == "" {
		_, err := config.Out.Write(buf.Bytes())
		return err
	}
	_, err := saveFile(config, BaseName(result.Params)+".yaml", buf.Bytes())
	return err
}

// generateCSVOutput writes one CSV file per document
func generateCSVOutput(result *dto.RunResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	base := BaseName(result.Params)
	for _, t := range documentTables(result) {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(t.headers); err != nil {
			return err
		}
		for _, row := range t.rows {
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = cellText(v)
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("failed to write %s CSV: %w", t.name, err)
		}

		if _, err := saveFile(config, fmt.Sprintf("%s_%s.csv", base, t.name), buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
