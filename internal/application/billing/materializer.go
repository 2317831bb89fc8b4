package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/domain"
	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/liquor"
)

// NumberingConfig formato y reintentos de la numeración de facturas.
type NumberingConfig struct {
	Prefix    string
	MinDigits int
	// MaxAttempts intentos de inserción de cabecera ante número duplicado (resincronizando el contador).
	MaxAttempts int
}

func (c NumberingConfig) withDefaults() NumberingConfig {
	if c.Prefix == "" {
		c.Prefix = DefaultBillPrefix
	}
	if c.MinDigits < 1 {
		c.MinDigits = DefaultBillMinDigits
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	return c
}

// Materializer convierte un borrador en una factura persistida: número, cabecera, líneas y movimiento de stock.
type Materializer struct {
	ledger StockLedger
	cfg    NumberingConfig
	now    func() time.Time
}

// NewMaterializer construye el materializador.
func NewMaterializer(ledger StockLedger, cfg NumberingConfig) *Materializer {
	return &Materializer{ledger: ledger, cfg: cfg.withDefaults(), now: time.Now}
}

// NextBillNumber reserva el siguiente número de la empresa dentro de tx.
// El contador queda bloqueado hasta el fin de la transacción; si esta se revierte el número no se consume.
func (m *Materializer) NextBillNumber(ctx context.Context, tx BillingTx, companyID string) (string, int64, error) {
	if companyID == "" {
		return "", 0, domain.ErrInvalidInput
	}
	seq, err := tx.Sequences().Next(ctx, companyID)
	if err != nil {
		return "", 0, fmt.Errorf("next bill number: %w", err)
	}
	return FormatBillNumber(m.cfg.Prefix, seq, m.cfg.MinDigits), seq, nil
}

// MaterializeInTx persiste el borrador como factura del día date. Todo ocurre en la transacción del llamador:
// si algo falla, el llamador revierte y no queda factura parcial.
func (m *Materializer) MaterializeInTx(ctx context.Context, tx BillingTx, draft *liquor.BillDraft, date time.Time, mode string, rc entity.RequestContext) (*entity.Bill, error) {
	if draft == nil || draft.Empty() {
		return nil, domain.ErrInvalidInput
	}
	if rc.CompanyID == "" {
		return nil, domain.ErrInvalidInput
	}

	total := draft.Total()
	bill := &entity.Bill{
		ID:          uuid.New().String(),
		CompanyID:   rc.CompanyID,
		FinYearID:   rc.FinYearID,
		BillDate:    date,
		Mode:        mode,
		TotalAmount: total,
		Discount:    decimal.Zero,
		NetAmount:   total,
		CreatedBy:   rc.UserID,
		CreatedAt:   m.now(),
	}

	if err := m.insertHeader(ctx, tx, bill); err != nil {
		return nil, err
	}

	bill.Lines = make([]entity.BillLine, 0, len(draft.Lines))
	for _, dl := range draft.Lines {
		qty := decimal.NewFromInt(int64(dl.Qty))
		line := entity.BillLine{
			ID:        uuid.New().String(),
			BillID:    bill.ID,
			BillNo:    bill.BillNo,
			CompanyID: bill.CompanyID,
			ItemCode:  dl.Code,
			Qty:       qty,
			Rate:      dl.Rate,
			Amount:    dl.Amount,
			Mode:      mode,
		}
		if err := tx.Bills().CreateLine(ctx, &line); err != nil {
			return nil, fmt.Errorf("bill %s line %s: %w", bill.BillNo, dl.Code, err)
		}
		if err := m.ledger.ApplySaleInTx(ctx, tx, rc, dl.Code, date, qty); err != nil {
			return nil, fmt.Errorf("bill %s stock %s: %w", bill.BillNo, dl.Code, err)
		}
		bill.Lines = append(bill.Lines, line)
	}
	return bill, nil
}

// insertHeader asigna número e inserta la cabecera. Si el número ya existe (contador desfasado respecto
// de facturas cargadas por fuera), resincroniza el contador y reintenta.
func (m *Materializer) insertHeader(ctx context.Context, tx BillingTx, bill *entity.Bill) error {
	for attempt := 1; ; attempt++ {
		billNo, seq, err := m.NextBillNumber(ctx, tx, bill.CompanyID)
		if err != nil {
			return err
		}
		bill.BillNo, bill.Seq = billNo, seq

		err = tx.Savepoint(ctx, func() error { return tx.Bills().Create(ctx, bill) })
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicate) || attempt >= m.cfg.MaxAttempts {
			return fmt.Errorf("bill header %s: %w", billNo, err)
		}
		if err := tx.Sequences().Resync(ctx, bill.CompanyID); err != nil {
			return fmt.Errorf("resync bill sequence: %w", err)
		}
	}
}
