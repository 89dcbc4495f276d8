package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vsinha/bomalloc/pkg/application/services/orchestration"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/infrastructure/config"
	"github.com/vsinha/bomalloc/pkg/infrastructure/events"
	"github.com/vsinha/bomalloc/pkg/infrastructure/logger"
	"github.com/vsinha/bomalloc/pkg/infrastructure/metrics"
	"github.com/vsinha/bomalloc/pkg/interfaces/cli/output"
)

// RunConfig holds configuration for the run command
type RunConfig struct {
	ConfigFile  string
	Project     string
	Panel       string
	Grounding   string
	DataPath    string
	StockPath   string
	BOMPath     string
	AuxPath     string
	UPS         bool
	SwingFrame  bool
	Rittal      bool
	MainSwitch  string
	Format      string
	OutputDir   string
	MetricsFile string
	Trace       bool
	Verbose     bool
}

// RunCommand prepares the documents of one project
type RunCommand struct {
	config RunConfig
	out    io.Writer
	errOut io.Writer
}

// NewRunCommand creates a new run command with the given configuration
func NewRunCommand(config RunConfig, out, errOut io.Writer) *RunCommand {
	return &RunCommand{config: config, out: out, errOut: errOut}
}

// Execute runs the command
func (c *RunCommand) Execute(ctx context.Context) error {
	cfg, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Env, cfg.Log.Format, c.config.Verbose, c.errOut)

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	params, err := entities.NewRunParameters(c.config.Project, c.config.Panel, c.config.Grounding, entities.AddOns{
		UPS:        c.config.UPS,
		SwingFrame: c.config.SwingFrame,
		Rittal:     c.config.Rittal,
		MainSwitch: c.config.MainSwitch,
	})
	if err != nil {
		return err
	}

	opts, err := BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	src, err := openReference(ctx, c.config.DataPath, c.config.StockPath, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	sources := orchestration.Sources{Reference: src.ref, Stock: src.stock}
	if sources.Primary, err = openBOM(c.config.BOMPath, 0); err != nil {
		return err
	}
	if c.config.AuxPath != "" && !params.AddOns.Rittal {
		if sources.Auxiliary, err = openBOM(c.config.AuxPath, cfg.AuxiliaryBOM.SkipRows); err != nil {
			return err
		}
	}

	loadStart := time.Now()
	input, err := orchestration.LoadInput(ctx, *params, sources)
	if err != nil {
		return err
	}
	log.Debug("inputs loaded",
		"primary_rows", len(input.PrimaryBOM),
		"auxiliary_rows", len(input.AuxiliaryBOM),
		"catalog", len(input.Reference.Catalog),
		"stock", len(input.Reference.Stock),
		"duration", time.Since(loadStart))

	recorder := metrics.NewRecorder()
	store := events.NewInMemoryEventStore()
	if err := store.Subscribe(recorder.EventTypes(), recorder); err != nil {
		return fmt.Errorf("failed to subscribe metrics: %w", err)
	}

	pipeline := orchestration.NewPipeline(store, log, opts).WithStageObserver(recorder)
	result, runErr := pipeline.Run(ctx, input)

	metricsFile := c.config.MetricsFile
	if metricsFile == "" {
		metricsFile = cfg.Metrics.File
	}
	if metricsFile != "" {
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			log.Warn("failed to write metrics", "file", metricsFile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if !c.config.Trace {
		result.Trace = nil
	}
	return output.Generate(result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Out:       c.out,
	})
}

// validateInputs checks that every required file was named
func (c *RunCommand) validateInputs() error {
	if c.config.DataPath == "" {
		return fmt.Errorf("--data is required")
	}
	if c.config.BOMPath == "" {
		return fmt.Errorf("--bom is required")
	}
	if c.config.AuxPath == "" && !c.config.Rittal {
		return fmt.Errorf("--aux is required unless --rittal is set")
	}
	return nil
}
