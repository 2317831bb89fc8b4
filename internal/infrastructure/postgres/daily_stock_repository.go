package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

var _ repository.DailyStockRepository = (*DailyStockRepo)(nil)

// DailyStockRepo libro diario: una fila por (empresa, ítem, mes, día).
type DailyStockRepo struct {
	q Querier
}

// NewDailyStockRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDailyStockRepository(q Querier) *DailyStockRepo {
	return &DailyStockRepo{q: q}
}

const dailySelect = `
	SELECT day, opening, purchase, sales, adjustment, closing
	FROM daily_stock
	WHERE company_id = $1 AND item_code = $2 AND month = $3
	ORDER BY day`

// GetMonthForUpdate crea los días del mes con aperturas en cero si faltan y bloquea todas sus filas.
// Las filas se bloquean en orden de día para que dos transacciones sobre el mismo mes no se crucen.
func (r *DailyStockRepo) GetMonthForUpdate(ctx context.Context, companyID, itemCode string, month time.Time) (*entity.DailyStockMonth, error) {
	m := entity.NewDailyStockMonth(companyID, itemCode, month)
	_, err := r.q.Exec(ctx, `
		INSERT INTO daily_stock (company_id, item_code, month, day)
		SELECT $1, $2, $3, d FROM generate_series(1, $4::int) AS d
		ON CONFLICT (company_id, item_code, month, day) DO NOTHING`,
		companyID, itemCode, m.Month, m.DaysIn())
	if err != nil {
		return nil, wrapErr("init daily stock month", err)
	}
	if err := r.load(ctx, m, dailySelect+` FOR UPDATE`); err != nil {
		return nil, wrapErr("lock daily stock month", err)
	}
	return m, nil
}

// GetMonth lectura sin bloqueo; nil, nil si el mes no tiene filas.
func (r *DailyStockRepo) GetMonth(ctx context.Context, companyID, itemCode string, month time.Time) (*entity.DailyStockMonth, error) {
	m := entity.NewDailyStockMonth(companyID, itemCode, month)
	found, err := r.loadCount(ctx, m, dailySelect)
	if err != nil {
		return nil, wrapErr("get daily stock month", err)
	}
	if found == 0 {
		return nil, nil
	}
	return m, nil
}

// SaveDays escribe los días from..to en un solo batch.
func (r *DailyStockRepo) SaveDays(ctx context.Context, m *entity.DailyStockMonth, from, to int) error {
	if from < 1 || to < from {
		return nil
	}
	b := &pgx.Batch{}
	for d := from; d <= to; d++ {
		day := m.Day(d)
		b.Queue(`
			UPDATE daily_stock
			SET opening = $5, purchase = $6, sales = $7, adjustment = $8, closing = $9
			WHERE company_id = $1 AND item_code = $2 AND month = $3 AND day = $4`,
			m.CompanyID, m.ItemCode, m.Month, d,
			day.Opening, day.Purchase, day.Sales, day.Adjustment, day.Closing)
	}
	return wrapErr("save daily stock", r.q.SendBatch(ctx, b).Close())
}

func (r *DailyStockRepo) load(ctx context.Context, m *entity.DailyStockMonth, query string) error {
	_, err := r.loadCount(ctx, m, query)
	return err
}

func (r *DailyStockRepo) loadCount(ctx context.Context, m *entity.DailyStockMonth, query string) (int, error) {
	rows, err := r.q.Query(ctx, query, m.CompanyID, m.ItemCode, m.Month)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var (
			day int
			ds  entity.DayStock
		)
		if err := rows.Scan(&day, &ds.Opening, &ds.Purchase, &ds.Sales, &ds.Adjustment, &ds.Closing); err != nil {
			return 0, err
		}
		if day >= 1 && day <= entity.MaxDaysInMonth {
			m.Days[day-1] = ds
			n++
		}
	}
	return n, rows.Err()
}
