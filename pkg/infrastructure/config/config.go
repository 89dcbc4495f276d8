package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BOMALLOC_DOCUMENTS_LOCATION_CODE
const EnvPrefix = "BOMALLOC"

// LineConfig is one fixed demand line injected by an add-on. Quantities are decimal strings.
type LineConfig struct {
	Label        string `mapstructure:"label"`
	Quantity     string `mapstructure:"quantity"`
	Manufacturer string `mapstructure:"manufacturer"`
	Description  string `mapstructure:"description"`
}

type Config struct {
	Log struct {
		Env    string `mapstructure:"env"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Documents struct {
		LocationCode          string `mapstructure:"location_code"`
		NoStockLocationCode   string `mapstructure:"no_stock_location_code"`
		BackorderSuffix       string `mapstructure:"backorder_suffix"`
		JobTaskNo             int    `mapstructure:"job_task_no"`
		DefaultSupplier       string `mapstructure:"default_supplier"`
		StandardProfit        string `mapstructure:"standard_profit"`
		LowMarginProfit       string `mapstructure:"low_margin_profit"`
		LowMarginManufacturer string `mapstructure:"low_margin_manufacturer"`
		Discount              string `mapstructure:"discount"`
		RoundingPlaces        int32  `mapstructure:"rounding_places"`
	} `mapstructure:"documents"`

	Stock struct {
		SentinelBin string `mapstructure:"sentinel_bin"`
	} `mapstructure:"stock"`

	Exclusion struct {
		Markers []string `mapstructure:"markers"`
	} `mapstructure:"exclusion"`

	Costing struct {
		SmartSupply string   `mapstructure:"smart_supply"`
		WireSet     string   `mapstructure:"wire_set"`
		Extra       string   `mapstructure:"extra"`
		Markups     []string `mapstructure:"markups"`
	} `mapstructure:"costing"`

	AddOns struct {
		UPS        []LineConfig `mapstructure:"ups"`
		SwingFrame []LineConfig `mapstructure:"swing_frame"`
	} `mapstructure:"addons"`

	Sheets struct {
		Catalog     []string `mapstructure:"catalog"`
		Annotations []string `mapstructure:"annotations"`
		Accessories []string `mapstructure:"accessories"`
		MainSwitch  []string `mapstructure:"main_switch"`
		Hours       []string `mapstructure:"hours"`
		Stock       []string `mapstructure:"stock"`
	} `mapstructure:"sheets"`

	AuxiliaryBOM struct {
		SkipRows int `mapstructure:"skip_rows"`
	} `mapstructure:"auxiliary_bom"`

	Metrics struct {
		File string `mapstructure:"file"`
	} `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.env", "prod")
	v.SetDefault("log.format", "json")

	v.SetDefault("documents.location_code", "KAUNAS")
	v.SetDefault("documents.no_stock_location_code", "KAUNAS")
	v.SetDefault("documents.backorder_suffix", "/NERA")
	v.SetDefault("documents.job_task_no", 1144)
	v.SetDefault("documents.default_supplier", "30093")
	v.SetDefault("documents.standard_profit", "17")
	v.SetDefault("documents.low_margin_profit", "10")
	v.SetDefault("documents.low_margin_manufacturer", "DANFOSS")
	v.SetDefault("documents.discount", "0")
	v.SetDefault("documents.rounding_places", 2)

	v.SetDefault("stock.sentinel_bin", "67-01-01-01")

	v.SetDefault("exclusion.markers", []string{"not needed", "quarantined", "do not order", "customer supplied"})

	v.SetDefault("costing.smart_supply", "9750")
	v.SetDefault("costing.wire_set", "2500")
	v.SetDefault("costing.extra", "0")
	v.SetDefault("costing.markups", []string{"1.05", "1.35"})

	v.SetDefault("addons.ups", []map[string]interface{}{
		{"label": "ADV UPS HOLDER V3", "quantity": "1", "description": "UPS Holder"},
	})
	v.SetDefault("addons.swing_frame", []map[string]interface{}{
		{"label": "1055-1000", "quantity": "2", "description": "Swing accessory 1"},
		{"label": "1055-1001", "quantity": "2", "description": "Swing accessory 2"},
	})

	v.SetDefault("sheets.catalog", []string{"Part_no", "Parts_no", "Part no"})
	v.SetDefault("sheets.annotations", []string{"Stock"})
	v.SetDefault("sheets.accessories", []string{"Accessories"})
	v.SetDefault("sheets.main_switch", []string{"MainSwitch", "Main switch"})
	v.SetDefault("sheets.hours", []string{"Hours"})
	v.SetDefault("sheets.stock", []string{"Kaunas_Stock", "Kaunas stock", "Bins"})

	v.SetDefault("auxiliary_bom.skip_rows", 13)

	v.SetDefault("metrics.file", "")
}

// Load reads the optional config file at path, applies BOMALLOC_* environment overrides
// and fills every unset key with its default. An empty path loads defaults and
// environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate rejects settings no run could work with
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Documents.LocationCode) == "" {
		errs = append(errs, errors.New("documents.location_code cannot be empty"))
	}
	if strings.TrimSpace(c.Stock.SentinelBin) == "" {
		errs = append(errs, errors.New("stock.sentinel_bin cannot be empty"))
	}
	if c.Documents.RoundingPlaces < 0 {
		errs = append(errs, fmt.Errorf("documents.rounding_places cannot be negative, got %d", c.Documents.RoundingPlaces))
	}
	if c.AuxiliaryBOM.SkipRows < 0 {
		errs = append(errs, fmt.Errorf("auxiliary_bom.skip_rows cannot be negative, got %d", c.AuxiliaryBOM.SkipRows))
	}
	return errors.Join(errs...)
}
