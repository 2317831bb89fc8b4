package repository

import (
	"context"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
)

// ItemRepository puerto de lectura del maestro de ítems (con subclase y grupo de tamaño resueltos para el modo).
type ItemRepository interface {
	GetByCode(ctx context.Context, code, mode string) (*entity.Item, error)
	// GetByCodes devuelve solo los ítems encontrados, indexados por código.
	GetByCodes(ctx context.Context, codes []string, mode string) (map[string]*entity.Item, error)
}
