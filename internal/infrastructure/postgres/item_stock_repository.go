package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

var _ repository.ItemStockRepository = (*ItemStockRepo)(nil)

// ItemStockRepo stock actual por empresa, año financiero e ítem (usable con pool o tx).
type ItemStockRepo struct {
	q Querier
}

// NewItemStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemStockRepository(q Querier) *ItemStockRepo {
	return &ItemStockRepo{q: q}
}

const itemStockSelect = `
	SELECT company_id, fin_year_id, item_code, current_stock, updated_at
	FROM item_stock WHERE company_id = $1 AND fin_year_id = $2 AND item_code = $3`

// Get devuelve nil, nil si el ítem no tiene fila de stock.
func (r *ItemStockRepo) Get(ctx context.Context, companyID, finYearID, itemCode string) (*entity.ItemStock, error) {
	return r.get(ctx, "get item stock", itemStockSelect, companyID, finYearID, itemCode)
}

// GetForUpdate bloquea la fila para que otra generación no valide contra el mismo saldo.
func (r *ItemStockRepo) GetForUpdate(ctx context.Context, companyID, finYearID, itemCode string) (*entity.ItemStock, error) {
	return r.get(ctx, "lock item stock", itemStockSelect+` FOR UPDATE`, companyID, finYearID, itemCode)
}

func (r *ItemStockRepo) get(ctx context.Context, op, query, companyID, finYearID, itemCode string) (*entity.ItemStock, error) {
	var s entity.ItemStock
	err := r.q.QueryRow(ctx, query, companyID, finYearID, itemCode).Scan(
		&s.CompanyID, &s.FinYearID, &s.ItemCode, &s.CurrentStock, &s.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr(op, err)
	}
	return &s, nil
}

// AddDelta suma delta en una sola sentencia (el UPDATE implícito del upsert bloquea la fila).
func (r *ItemStockRepo) AddDelta(ctx context.Context, companyID, finYearID, itemCode string, delta decimal.Decimal) error {
	query := `
		INSERT INTO item_stock (company_id, fin_year_id, item_code, current_stock, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (company_id, fin_year_id, item_code)
		DO UPDATE SET current_stock = item_stock.current_stock + EXCLUDED.current_stock, updated_at = now()`
	_, err := r.q.Exec(ctx, query, companyID, finYearID, itemCode, delta)
	return wrapErr("add item stock", err)
}
