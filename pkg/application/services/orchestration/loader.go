package orchestration

import (
	"context"
	"fmt"

	"github.com/vsinha/bomalloc/pkg/application/dto"
	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/repositories"
)

// Sources names the repositories one run reads from. Auxiliary may be nil when the run
// has no auxiliary BOM.
type Sources struct {
	Reference repositories.ReferenceRepository
	Stock     repositories.StockRepository
	Primary   repositories.BOMRepository
	Auxiliary repositories.BOMRepository
}

// LoadReference reads every reference table. Required tables that load empty are
// returned as empty, non-nil slices so they are not mistaken for absent ones.
func LoadReference(ctx context.Context, ref repositories.ReferenceRepository, stock repositories.StockRepository) (dto.ReferenceData, error) {
	var data dto.ReferenceData
	var err error

	if data.Catalog, err = ref.LoadCatalog(ctx); err != nil {
		return data, fmt.Errorf("failed to load catalog: %w", err)
	}
	if data.Annotations, err = ref.LoadAnnotations(ctx); err != nil {
		return data, fmt.Errorf("failed to load annotations: %w", err)
	}
	if data.Stock, err = stock.LoadStock(ctx); err != nil {
		return data, fmt.Errorf("failed to load stock: %w", err)
	}
	if data.Accessories, err = ref.LoadAccessories(ctx); err != nil {
		return data, fmt.Errorf("failed to load accessories: %w", err)
	}
	if data.MainSwitches, err = ref.LoadMainSwitches(ctx); err != nil {
		return data, fmt.Errorf("failed to load main switches: %w", err)
	}
	if data.Rates, err = ref.LoadRateTable(ctx); err != nil {
		return data, fmt.Errorf("failed to load rate table: %w", err)
	}

	if data.Catalog == nil {
		data.Catalog = []entities.CatalogEntry{}
	}
	if data.Annotations == nil {
		data.Annotations = []entities.Annotation{}
	}
	if data.Stock == nil {
		data.Stock = []entities.StockRecord{}
	}
	if data.Rates == nil {
		data.Rates = &entities.RateTable{}
	}
	return data, nil
}

// LoadInput assembles the input of one run. The auxiliary BOM is skipped for Rittal
// panels.
func LoadInput(ctx context.Context, params entities.RunParameters, src Sources) (dto.RunInput, error) {
	input := dto.RunInput{Params: params}

	ref, err := LoadReference(ctx, src.Reference, src.Stock)
	if err != nil {
		return input, err
	}
	input.Reference = ref

	if input.PrimaryBOM, err = src.Primary.LoadBOM(ctx); err != nil {
		return input, fmt.Errorf("failed to load primary BOM: %w", err)
	}
	if src.Auxiliary != nil && !params.AddOns.Rittal {
		if input.AuxiliaryBOM, err = src.Auxiliary.LoadBOM(ctx); err != nil {
			return input, fmt.Errorf("failed to load auxiliary BOM: %w", err)
		}
	}
	return input, nil
}
