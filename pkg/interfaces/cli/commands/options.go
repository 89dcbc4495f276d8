package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vsinha/bomalloc/pkg/application/services/documents"
	"github.com/vsinha/bomalloc/pkg/application/services/orchestration"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/infrastructure/config"
	"github.com/vsinha/bomalloc/pkg/infrastructure/repositories/xlsx"
)

// BuildOptions converts loaded configuration into pipeline options
func BuildOptions(cfg config.Config) (orchestration.Options, error) {
	opts := orchestration.DefaultOptions()
	d := cfg.Documents

	var err error
	parse := func(field, value string) decimal.Decimal {
		if err != nil {
			return decimal.Zero
		}
		var v decimal.Decimal
		if v, err = decimal.NewFromString(value); err != nil {
			err = fmt.Errorf("%s: invalid decimal %q", field, value)
		}
		return v
	}

	opts.Documents = documents.Config{
		LocationCode:          d.LocationCode,
		NoStockLocationCode:   d.NoStockLocationCode,
		BackorderSuffix:       d.BackorderSuffix,
		JobTaskNo:             d.JobTaskNo,
		DefaultSupplier:       d.DefaultSupplier,
		StandardProfit:        parse("documents.standard_profit", d.StandardProfit),
		LowMarginProfit:       parse("documents.low_margin_profit", d.LowMarginProfit),
		LowMarginManufacturer: d.LowMarginManufacturer,
		Discount:              parse("documents.discount", d.Discount),
		RoundingPlaces:        d.RoundingPlaces,
	}

	opts.Costing.SmartSupply = parse("costing.smart_supply", cfg.Costing.SmartSupply)
	opts.Costing.WireSet = parse("costing.wire_set", cfg.Costing.WireSet)
	opts.Costing.Extra = parse("costing.extra", cfg.Costing.Extra)
	opts.Costing.RoundingPlaces = d.RoundingPlaces
	opts.Costing.Markups = nil
	for _, m := range cfg.Costing.Markups {
		opts.Costing.Markups = append(opts.Costing.Markups, parse("costing.markups", m))
	}

	lines := func(field string, in []config.LineConfig) []entities.AccessorySpec {
		out := make([]entities.AccessorySpec, 0, len(in))
		for _, l := range in {
			out = append(out, entities.AccessorySpec{
				Label:        l.Label,
				Quantity:     parse(field, l.Quantity),
				Manufacturer: l.Manufacturer,
				Description:  l.Description,
			})
		}
		return out
	}
	opts.AddOnLines.UPS = lines("addons.ups", cfg.AddOns.UPS)
	opts.AddOnLines.SwingFrame = lines("addons.swing_frame", cfg.AddOns.SwingFrame)

	opts.ExclusionMarkers = cfg.Exclusion.Markers
	opts.SentinelBin = cfg.Stock.SentinelBin

	return opts, err
}

// sheetNames converts configured sheet names for the workbook adapter
func sheetNames(cfg config.Config) xlsx.SheetNames {
	return xlsx.SheetNames{
		Catalog:     cfg.Sheets.Catalog,
		Annotations: cfg.Sheets.Annotations,
		Accessories: cfg.Sheets.Accessories,
		MainSwitch:  cfg.Sheets.MainSwitch,
		Hours:       cfg.Sheets.Hours,
		Stock:       cfg.Sheets.Stock,
	}
}
