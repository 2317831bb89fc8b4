package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/Licores-api/internal/application/dto"
	"github.com/jhoicas/Licores-api/internal/domain"
	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/liquor"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

// ItemInfoUseCase consultas de clasificación, tamaño y límites.
type ItemInfoUseCase struct {
	itemRepo  repository.ItemRepository
	limitRepo repository.CategoryLimitRepository
}

func NewItemInfoUseCase(itemRepo repository.ItemRepository, limitRepo repository.CategoryLimitRepository) *ItemInfoUseCase {
	return &ItemInfoUseCase{itemRepo: itemRepo, limitRepo: limitRepo}
}

// GetItemCategory categoría del ítem en el modo dado. Un ítem inexistente devuelve domain.ErrNotFound.
func (uc *ItemInfoUseCase) GetItemCategory(ctx context.Context, code, mode string) (entity.Category, error) {
	mode = defaultMode(mode)
	item, err := uc.item(ctx, code, mode)
	if err != nil {
		return "", err
	}
	return liquor.Classify(*item, mode), nil
}

// GetItemSize tamaño unitario en ml del ítem en el modo dado.
func (uc *ItemInfoUseCase) GetItemSize(ctx context.Context, code, mode string) (float64, error) {
	mode = defaultMode(mode)
	item, err := uc.item(ctx, code, mode)
	if err != nil {
		return 0, err
	}
	return liquor.ResolveSize(*item, liquor.Classify(*item, mode)), nil
}

// DescribeItem categoría y tamaño en una sola lectura.
func (uc *ItemInfoUseCase) DescribeItem(ctx context.Context, code, mode string) (*dto.ItemClassificationResponse, error) {
	mode = defaultMode(mode)
	item, err := uc.item(ctx, code, mode)
	if err != nil {
		return nil, err
	}
	cat := liquor.Classify(*item, mode)
	return &dto.ItemClassificationResponse{
		ItemCode: item.Code,
		Name:     item.Name,
		Mode:     mode,
		Category: string(cat),
		SizeML:   liquor.ResolveSize(*item, cat),
	}, nil
}

// GetCategoryLimits límites de la empresa (cero = sin límite).
func (uc *ItemInfoUseCase) GetCategoryLimits(ctx context.Context, companyID string) (*dto.CategoryLimitsResponse, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	l, err := uc.limitRepo.GetByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &dto.CategoryLimitsResponse{IMFL: l.IMFL, Beer: l.Beer, CL: l.CL}, nil
}

func (uc *ItemInfoUseCase) item(ctx context.Context, code, mode string) (*entity.Item, error) {
	if code == "" {
		return nil, domain.ErrInvalidInput
	}
	item, err := uc.itemRepo.GetByCode(ctx, code, mode)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", code, domain.ErrNotFound)
	}
	return item, nil
}

func defaultMode(mode string) string {
	if mode == "" {
		return entity.ModeForeign
	}
	return mode
}
