package postgres

import (
	"context"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

var (
	_ repository.BillRepository         = (*BillRepo)(nil)
	_ repository.BillSequenceRepository = (*BillSequenceRepo)(nil)
)

// BillRepo facturas generadas (usable con pool o tx).
type BillRepo struct {
	q Querier
}

// NewBillRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillRepository(q Querier) *BillRepo {
	return &BillRepo{q: q}
}

// Create persiste la cabecera. Un (company_id, bill_no) repetido devuelve domain.ErrDuplicate.
func (r *BillRepo) Create(ctx context.Context, b *entity.Bill) error {
	query := `
		INSERT INTO bills (id, company_id, fin_year_id, bill_no, seq, bill_date, mode, total_amount, discount, net_amount, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.CompanyID, b.FinYearID, b.BillNo, b.Seq, b.BillDate, b.Mode,
		b.TotalAmount, b.Discount, b.NetAmount, b.CreatedBy, b.CreatedAt,
	)
	return wrapErr("insert bill", err)
}

func (r *BillRepo) CreateLine(ctx context.Context, l *entity.BillLine) error {
	query := `
		INSERT INTO bill_lines (id, bill_id, bill_no, company_id, item_code, qty, rate, amount, mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.BillID, l.BillNo, l.CompanyID, l.ItemCode, l.Qty, l.Rate, l.Amount, l.Mode,
	)
	return wrapErr("insert bill line", err)
}

// GetByNumber cabecera y líneas; nil, nil si no existe.
func (r *BillRepo) GetByNumber(ctx context.Context, companyID, billNo string) (*entity.Bill, error) {
	query := `
		SELECT id, company_id, fin_year_id, bill_no, seq, bill_date, mode, total_amount, discount, net_amount, created_by, created_at
		FROM bills WHERE company_id = $1 AND bill_no = $2`
	var b entity.Bill
	err := r.q.QueryRow(ctx, query, companyID, billNo).Scan(
		&b.ID, &b.CompanyID, &b.FinYearID, &b.BillNo, &b.Seq, &b.BillDate, &b.Mode,
		&b.TotalAmount, &b.Discount, &b.NetAmount, &b.CreatedBy, &b.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, wrapErr("get bill", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, bill_id, bill_no, company_id, item_code, qty, rate, amount, mode
		FROM bill_lines WHERE bill_id = $1 ORDER BY item_code`, b.ID)
	if err != nil {
		return nil, wrapErr("list bill lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.BillLine
		if err := rows.Scan(&l.ID, &l.BillID, &l.BillNo, &l.CompanyID, &l.ItemCode, &l.Qty, &l.Rate, &l.Amount, &l.Mode); err != nil {
			return nil, wrapErr("scan bill line", err)
		}
		b.Lines = append(b.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list bill lines", err)
	}
	return &b, nil
}

// BillSequenceRepo contador por empresa en bill_sequences.
type BillSequenceRepo struct {
	q Querier
}

func NewBillSequenceRepository(q Querier) *BillSequenceRepo {
	return &BillSequenceRepo{q: q}
}

// maxSuffixSQL mayor sufijo numérico de los números de factura existentes de la empresa ($1).
const maxSuffixSQL = `
	SELECT COALESCE(MAX(NULLIF(substring(bill_no FROM '([0-9]+)$'), '')::bigint), 0)
	FROM bills WHERE company_id = $1`

// Next incrementa y devuelve el contador. El UPDATE deja la fila bloqueada hasta el fin de la transacción,
// por lo que dos transacciones de la misma empresa obtienen números distintos.
// La primera vez el contador arranca desde las facturas ya existentes.
func (r *BillSequenceRepo) Next(ctx context.Context, companyID string) (int64, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO bill_sequences (company_id, last_number)
		SELECT $1, (`+maxSuffixSQL+`)
		ON CONFLICT (company_id) DO NOTHING`, companyID)
	if err != nil {
		return 0, wrapErr("init bill sequence", err)
	}
	var n int64
	err = r.q.QueryRow(ctx, `
		UPDATE bill_sequences SET last_number = last_number + 1
		WHERE company_id = $1
		RETURNING last_number`, companyID).Scan(&n)
	if err != nil {
		return 0, wrapErr("next bill sequence", err)
	}
	return n, nil
}

// Resync alinea el contador con el mayor número existente (nunca lo baja).
func (r *BillSequenceRepo) Resync(ctx context.Context, companyID string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE bill_sequences SET last_number = GREATEST(last_number, (`+maxSuffixSQL+`))
		WHERE company_id = $1`, companyID)
	return wrapErr("resync bill sequence", err)
}
