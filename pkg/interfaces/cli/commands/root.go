package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/vsinha/bomalloc/pkg/interfaces/cli/output"
)

// NewRootCommand builds the bomalloc command tree writing to out and errOut
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	var (
		configFile string
		verbose    bool
		noColor    bool
	)

	root := &cobra.Command{
		Use:   "bomalloc",
		Short: "Resolve panel BOMs against the parts catalog and allocate warehouse stock",
		Long: `bomalloc turns the component lists of an electrical panel project into a
warehouse movement journal, a purchasing list, a cost calculation and a report of
components missing from the catalog.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor || os.Getenv("NO_COLOR") != "" {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newRunCmd(&configFile, &verbose),
		newValidateCmd(&configFile),
		newImportCmd(&configFile),
		newVersionCmd(),
	)
	return root
}

func newRunCmd(configFile *string, verbose *bool) *cobra.Command {
	var rc RunConfig
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prepare the documents of one project",
		Long: `Prepare the warehouse movement journal, purchasing list, cost calculation and
missing-parts report for one panel project.

Examples:
  bomalloc run --project 1234-567 --panel C4 --grounding TN-S \
    --data DATA.xlsx --bom BOM.xlsx --aux CUBIC.xlsx --stock STOCK.xlsx
  bomalloc run --project 1234-567 --panel F2 --grounding TT --rittal \
    --data reference.db --bom BOM.csv --format xlsx --output out/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc.ConfigFile = *configFile
			rc.Verbose = *verbose
			return NewRunCommand(rc, cmd.OutOrStdout(), cmd.ErrOrStderr()).Execute(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&rc.Project, "project", "", "Project id (DDDD-DDD)")
	f.StringVar(&rc.Panel, "panel", "", "Panel type, e.g. C4")
	f.StringVar(&rc.Grounding, "grounding", "", "Grounding scheme: TT, TN-S or TN-C-S")
	f.StringVar(&rc.DataPath, "data", "", "Reference data: .xlsx workbook, .db database or CSV directory")
	f.StringVar(&rc.StockPath, "stock", "", "Stock extract (.xlsx, .csv or .db); defaults to the reference data")
	f.StringVar(&rc.BOMPath, "bom", "", "Primary BOM (.xlsx or .csv)")
	f.StringVar(&rc.AuxPath, "aux", "", "Auxiliary (CUBIC) BOM (.xlsx or .csv)")
	f.BoolVar(&rc.UPS, "ups", false, "Add the UPS holder")
	f.BoolVar(&rc.SwingFrame, "swing-frame", false, "Add the swing frame kit")
	f.BoolVar(&rc.Rittal, "rittal", false, "Rittal enclosure: no auxiliary BOM")
	f.StringVar(&rc.MainSwitch, "main-switch", "", "Main switch model")
	f.StringVar(&rc.Format, "format", output.FormatText, "Output format: text, json, yaml, csv or xlsx")
	f.StringVar(&rc.OutputDir, "output", "", "Output directory")
	f.StringVar(&rc.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus text format")
	f.BoolVar(&rc.Trace, "trace", false, "Include the per-line trace in json and yaml output")

	for _, name := range []string{"project", "panel", "grounding", "data", "bom"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newValidateCmd(configFile *string) *cobra.Command {
	var vc ValidateConfig
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check reference data for duplicates and unknown stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vc.ConfigFile = *configFile
			return NewValidateCommand(vc, cmd.OutOrStdout()).Execute(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&vc.DataPath, "data", "", "Reference data: .xlsx workbook, .db database or CSV directory")
	cmd.Flags().StringVar(&vc.StockPath, "stock", "", "Stock extract; defaults to the reference data")
	cmd.Flags().BoolVar(&vc.Strict, "strict", false, "Exit non-zero when anything is flagged")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newImportCmd(configFile *string) *cobra.Command {
	var ic ImportConfig
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy reference data and stock into a SQLite reference database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ic.ConfigFile = *configFile
			return NewImportCommand(ic, cmd.OutOrStdout()).Execute(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&ic.DataPath, "data", "", "Reference data: .xlsx workbook or CSV directory")
	cmd.Flags().StringVar(&ic.StockPath, "stock", "", "Stock extract; defaults to the reference data")
	cmd.Flags().StringVar(&ic.DBPath, "db", "", "SQLite database to write")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
