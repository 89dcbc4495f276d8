package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/application/services/orchestration"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/infrastructure/events"
	"github.com/vsinha/bomalloc/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	// Create repositories
	ref := memory.NewReferenceRepository(4)
	stock := memory.NewStockRepository()
	setupPanelReference(ref, stock)

	primary := memory.NewBOMRepository(
		entities.BOMRow{Label: "S201-C16", Quantity: decimal.NewFromInt(12)},
		entities.BOMRow{Label: "AF09-30-10", Quantity: decimal.NewFromInt(3)},
		entities.BOMRow{Label: "Terminal 2.5", Quantity: decimal.NewFromInt(40)},
		entities.BOMRow{Label: "Custom bracket", Quantity: decimal.NewFromInt(2)},
	)

	params, err := entities.NewRunParameters("1234-567", "C4", "TN-S", entities.AddOns{Rittal: true})
	if err != nil {
		fmt.Printf("Invalid parameters: %v\n", err)
		os.Exit(1)
	}

	input, err := orchestration.LoadInput(ctx, *params, orchestration.Sources{
		Reference: ref,
		Stock:     stock,
		Primary:   primary,
	})
	if err != nil {
		fmt.Printf("Failed to load input: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	pipeline := orchestration.NewPipeline(events.NewInMemoryEventStore(), logger, orchestration.DefaultOptions())

	fmt.Printf("Preparing documents for %s (%s, %s)\n\n", params.ProjectID, params.PanelType, params.Grounding)
	result, err := pipeline.Run(ctx, input)
	if err != nil {
		fmt.Printf("Run failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Journal:")
	for _, entry := range result.Journal {
		fmt.Printf("  %-6s %-8s %6s from %-12s %s\n",
			entry.EntryType, entry.CatalogNo, entry.Quantity, entry.BinCode, entry.OriginalLabel)
	}
	fmt.Println()

	fmt.Println("Purchase:")
	for _, order := range result.Purchase {
		fmt.Printf("  %-8s %6s  %s\n", order.CatalogNo, order.Quantity, order.Description)
	}
	fmt.Println()

	if len(result.Missing) > 0 {
		fmt.Println("Missing from catalog:")
		for _, missing := range result.Missing {
			fmt.Printf("  %s x %s\n", missing.OriginalLabel, missing.Quantity)
		}
		fmt.Println()
	}

	fmt.Println("Calculation:")
	for _, line := range result.Costs {
		fmt.Printf("  %-24s %12s\n", line.Label, line.Value.StringFixed(2))
	}
}

func setupPanelReference(ref *memory.ReferenceRepository, stock *memory.StockRepository) {
	catalog := []struct {
		no, name, desc, manuf string
		cost                  int64
	}{
		{"100200", "S201-C16", "Circuit breaker 1P C16", "ABB", 9},
		{"100310", "AF09-30-10", "Contactor 4kW", "ABB", 31},
		{"100420", "Terminal 2.5", "Feed-through terminal", "Phoenix", 1},
		{"100530", "End plate 2.5", "Terminal end plate", "Phoenix", 0},
	}
	for _, c := range catalog {
		entry, err := entities.NewCatalogEntry(c.no, c.name, c.desc, c.manuf, "", decimal.NewFromInt(c.cost))
		if err != nil {
			panic(err)
		}
		ref.AddCatalogEntry(*entry)
	}

	ref.SetAnnotations([]entities.Annotation{})
	ref.SetAccessories([]entities.AccessoryRule{
		{
			ParentLabel: "Terminal 2.5",
			Accessories: []entities.AccessorySpec{{Label: "End plate 2.5", Quantity: decimal.NewFromInt(2)}},
		},
	})
	ref.SetRateTable(&entities.RateTable{
		HourlyRate: decimal.NewFromInt(450),
		Rows: []entities.RateRow{
			{PanelType: "C4", HoursTT: decimal.NewFromInt(10), HoursTNS: decimal.NewFromInt(12), HoursTNCS: decimal.NewFromInt(14)},
		},
	})

	// Breakers are split over two bins; contactors are short
	for _, s := range []struct {
		no, bin string
		qty     int64
	}{
		{"100200", "A-01", 8},
		{"100200", "A-02", 10},
		{"100310", "B-04", 1},
		{"100420", "C-11", 500},
		{"100530", "C-12", 20},
	} {
		record, err := entities.NewStockRecord(s.no, s.bin, decimal.NewFromInt(s.qty))
		if err != nil {
			panic(err)
		}
		stock.AddStock(*record)
	}
}
