package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/vsinha/bomalloc/pkg/application/services/orchestration"
	"github.com/vsinha/bomalloc/pkg/domain/services"
	"github.com/vsinha/bomalloc/pkg/infrastructure/config"
)

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"})
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"})
)

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	ConfigFile string
	DataPath   string
	StockPath  string
	Strict     bool
}

// ValidateCommand loads the reference data and reports integrity findings
type ValidateCommand struct {
	config ValidateConfig
	out    io.Writer
}

// NewValidateCommand creates a new validate command
func NewValidateCommand(config ValidateConfig, out io.Writer) *ValidateCommand {
	return &ValidateCommand{config: config, out: out}
}

// ErrFindings is returned in strict mode when validation flags anything
var ErrFindings = errors.New("reference data has findings")

// Execute runs the command
func (c *ValidateCommand) Execute(ctx context.Context) error {
	cfg, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return err
	}

	src, err := openReference(ctx, c.config.DataPath, c.config.StockPath, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	ref, err := orchestration.LoadReference(ctx, src.ref, src.stock)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Catalog entries: %d\n", len(ref.Catalog))
	fmt.Fprintf(c.out, "Stock records: %d\n", len(ref.Stock))
	fmt.Fprintf(c.out, "Annotations: %d\n", len(ref.Annotations))
	fmt.Fprintf(c.out, "Accessory rules: %d\n", len(ref.Accessories))
	fmt.Fprintf(c.out, "Main switches: %d\n", len(ref.MainSwitches))
	fmt.Fprintf(c.out, "Rate rows: %d\n\n", len(ref.Rates.Rows))

	result := services.NewReferenceValidator(cfg.Stock.SentinelBin).Validate(ref.Catalog, ref.Stock, ref.Accessories)
	if !result.HasFindings() {
		fmt.Fprintf(c.out, "%s reference data is consistent\n", okStyle.Render("OK"))
		return nil
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(c.out, "%s %s\n", warnStyle.Render("Warning:"), w)
	}
	if c.config.Strict {
		return fmt.Errorf("%w: %d warnings", ErrFindings, len(result.Warnings))
	}
	return nil
}
