package repository

import (
	"context"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
)

// CategoryLimitRepository límites de volumen por factura configurados por empresa.
type CategoryLimitRepository interface {
	// GetByCompany devuelve límites en cero (sin límite) si la empresa no tiene configuración.
	GetByCompany(ctx context.Context, companyID string) (entity.CategoryLimits, error)
}
