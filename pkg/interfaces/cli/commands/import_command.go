package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gofrs/flock"
	"github.com/vsinha/bomalloc/pkg/application/services/orchestration"
	"github.com/vsinha/bomalloc/pkg/infrastructure/config"
	"github.com/vsinha/bomalloc/pkg/infrastructure/repositories/sqlite"
)

// ImportConfig holds configuration for the import command
type ImportConfig struct {
	ConfigFile string
	DataPath   string
	StockPath  string
	DBPath     string
}

// ImportCommand copies reference data and stock into a SQLite reference database
type ImportCommand struct {
	config ImportConfig
	out    io.Writer
}

// NewImportCommand creates a new import command
func NewImportCommand(config ImportConfig, out io.Writer) *ImportCommand {
	return &ImportCommand{config: config, out: out}
}

// Execute runs the command
func (c *ImportCommand) Execute(ctx context.Context) error {
	if c.config.DBPath == "" {
		return fmt.Errorf("--db is required")
	}
	if isDatabase(c.config.DataPath) {
		return fmt.Errorf("reference data %s is already a database", c.config.DataPath)
	}

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

	lock, err := lockDatabase(ctx, c.config.DBPath)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	store, err := sqlite.Open(ctx, c.config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.config.DBPath, err)
	}
	defer store.Close()

	steps := []struct {
		table string
		save  func() error
	}{
		{sqlite.TableCatalog, func() error { return store.SaveCatalog(ctx, ref.Catalog) }},
		{sqlite.TableAnnotations, func() error { return store.SaveAnnotations(ctx, ref.Annotations) }},
		{sqlite.TableAccessories, func() error { return store.SaveAccessories(ctx, ref.Accessories) }},
		{sqlite.TableMainSwitches, func() error { return store.SaveMainSwitches(ctx, ref.MainSwitches) }},
		{sqlite.TableRates, func() error { return store.SaveRateTable(ctx, ref.Rates) }},
		{sqlite.TableStock, func() error { return store.SaveStock(ctx, ref.Stock) }},
	}
	for _, step := range steps {
		if err := step.save(); err != nil {
			return fmt.Errorf("failed to import %s: %w", step.table, err)
		}
	}

	fmt.Fprintf(c.out, "Imported %d catalog entries and %d stock records into %s\n",
		len(ref.Catalog), len(ref.Stock), c.config.DBPath)
	return nil
}

const importLockTimeout = 10 * time.Second

// lockDatabase takes an exclusive lock next to the database so concurrent imports
// replace tables one at a time. The caller must unlock.
func lockDatabase(ctx context.Context, dbPath string) (*flock.Flock, error) {
	lock := flock.New(dbPath + ".lock")
	ctx, cancel := context.WithTimeout(ctx, importLockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", dbPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for lock on %s", dbPath)
	}
	return lock, nil
}
