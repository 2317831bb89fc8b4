package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
)

// ItemStockRepository stock actual por empresa, año financiero e ítem.
type ItemStockRepository interface {
	Get(ctx context.Context, companyID, finYearID, itemCode string) (*entity.ItemStock, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, companyID, finYearID, itemCode string) (*entity.ItemStock, error)
	// AddDelta suma delta (negativo para ventas) creando la fila si no existe.
	AddDelta(ctx context.Context, companyID, finYearID, itemCode string, delta decimal.Decimal) error
}

// DailyStockRepository libro diario de stock por empresa, ítem y mes.
type DailyStockRepository interface {
	// GetMonthForUpdate crea el mes con aperturas en cero si no existe y bloquea sus filas (SELECT FOR UPDATE).
	GetMonthForUpdate(ctx context.Context, companyID, itemCode string, month time.Time) (*entity.DailyStockMonth, error)
	GetMonth(ctx context.Context, companyID, itemCode string, month time.Time) (*entity.DailyStockMonth, error)
	// SaveDays persiste los días from..to del mes.
	SaveDays(ctx context.Context, m *entity.DailyStockMonth, from, to int) error
}
