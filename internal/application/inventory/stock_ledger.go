package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/domain"
	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

// LedgerConfig reintentos ante deadlock / lock timeout.
type LedgerConfig struct {
	MaxRetries int           // intentos totales por operación (mínimo 1)
	Backoff    time.Duration // espera base; crece linealmente por intento
}

// StockLedgerUseCase mantiene el stock actual y el libro diario de stock en cascada.
// Las operaciones *InTx corren dentro de la transacción del llamador (por ejemplo, la de una factura).
type StockLedgerUseCase struct {
	txRunner  TxRunner
	dailyRepo repository.DailyStockRepository
	stockRepo repository.ItemStockRepository
	cfg       LedgerConfig
	log       zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewStockLedgerUseCase construye el caso de uso. dailyRepo y stockRepo se usan solo para lecturas fuera de tx.
func NewStockLedgerUseCase(
	txRunner TxRunner,
	dailyRepo repository.DailyStockRepository,
	stockRepo repository.ItemStockRepository,
	cfg LedgerConfig,
	log zerolog.Logger,
) *StockLedgerUseCase {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &StockLedgerUseCase{
		txRunner:  txRunner,
		dailyRepo: dailyRepo,
		stockRepo: stockRepo,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *StockLedgerUseCase) WithClock(now func() time.Time) *StockLedgerUseCase {
	uc.now = now
	return uc
}

// WithSleep reemplaza la espera entre reintentos (tests).
func (uc *StockLedgerUseCase) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *StockLedgerUseCase {
	uc.sleep = sleep
	return uc
}

// UpdateItemStock suma delta al stock actual del ítem (negativo en ventas).
func (uc *StockLedgerUseCase) UpdateItemStock(ctx context.Context, tx LedgerTx, companyID, finYearID, itemCode string, delta decimal.Decimal) error {
	if companyID == "" || itemCode == "" {
		return domain.ErrInvalidInput
	}
	return uc.withRetry(ctx, tx, "update item stock", func() error {
		return tx.Stock().AddDelta(ctx, companyID, finYearID, itemCode, delta)
	})
}

// UpdateCascadingDailyStock registra qty como compra o venta del día date y propaga el cierre a los días
// siguientes del mismo mes (hasta hoy si es el mes en curso). Si el mes no existe se crea con aperturas en cero.
// Ante deadlock o lock timeout se revierte el SAVEPOINT y se reintenta la operación completa.
func (uc *StockLedgerUseCase) UpdateCascadingDailyStock(ctx context.Context, tx LedgerTx, companyID, itemCode string, date time.Time, txType string, qty decimal.Decimal) error {
	if companyID == "" || itemCode == "" || !qty.IsPositive() {
		return domain.ErrInvalidInput
	}
	if txType != entity.LedgerPurchase && txType != entity.LedgerSale {
		return domain.ErrInvalidInput
	}
	return uc.withRetry(ctx, tx, "update daily stock", func() error {
		month, err := tx.DailyStock().GetMonthForUpdate(ctx, companyID, itemCode, entity.MonthStart(date))
		if err != nil {
			return err
		}
		from, to, err := month.Apply(date.Day(), txType, qty, month.CascadeEnd(uc.now()))
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return tx.DailyStock().SaveDays(ctx, month, from, to)
	})
}

// ApplySaleInTx descuenta qty del stock y la registra como venta en el libro diario.
func (uc *StockLedgerUseCase) ApplySaleInTx(ctx context.Context, tx LedgerTx, rc entity.RequestContext, itemCode string, date time.Time, qty decimal.Decimal) error {
	if err := uc.UpdateItemStock(ctx, tx, rc.CompanyID, rc.FinYearID, itemCode, qty.Neg()); err != nil {
		return err
	}
	return uc.UpdateCascadingDailyStock(ctx, tx, rc.CompanyID, itemCode, date, entity.LedgerSale, qty)
}

// PurchaseInput entrada de una compra registrada fuera de la generación de facturas.
type PurchaseInput struct {
	ItemCode string
	Date     time.Time
	Qty      decimal.Decimal
}

// RecordPurchase registra una compra en su propia transacción: suma stock y propaga el libro diario.
func (uc *StockLedgerUseCase) RecordPurchase(ctx context.Context, rc entity.RequestContext, in PurchaseInput) error {
	if rc.CompanyID == "" || in.ItemCode == "" || in.Date.IsZero() || !in.Qty.IsPositive() {
		return domain.ErrInvalidInput
	}
	return uc.txRunner.RunLedger(ctx, func(tx LedgerTx) error {
		if err := uc.UpdateItemStock(ctx, tx, rc.CompanyID, rc.FinYearID, in.ItemCode, in.Qty); err != nil {
			return err
		}
		return uc.UpdateCascadingDailyStock(ctx, tx, rc.CompanyID, in.ItemCode, in.Date, entity.LedgerPurchase, in.Qty)
	})
}

// GetDailyLedger devuelve el libro del mes (con aperturas en cero si aún no tiene movimientos).
func (uc *StockLedgerUseCase) GetDailyLedger(ctx context.Context, companyID, itemCode string, month time.Time) (*entity.DailyStockMonth, error) {
	if companyID == "" || itemCode == "" {
		return nil, domain.ErrInvalidInput
	}
	m, err := uc.dailyRepo.GetMonth(ctx, companyID, itemCode, entity.MonthStart(month))
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = entity.NewDailyStockMonth(companyID, itemCode, month)
	}
	return m, nil
}

// GetItemStock stock actual del ítem (cero si no hay fila).
func (uc *StockLedgerUseCase) GetItemStock(ctx context.Context, companyID, finYearID, itemCode string) (decimal.Decimal, error) {
	s, err := uc.stockRepo.Get(ctx, companyID, finYearID, itemCode)
	if err != nil {
		return decimal.Zero, err
	}
	if s == nil {
		return decimal.Zero, nil
	}
	return s.CurrentStock, nil
}

func (uc *StockLedgerUseCase) withRetry(ctx context.Context, tx LedgerTx, op string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := tx.Savepoint(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrLockConflict) || attempt >= uc.cfg.MaxRetries {
			return fmt.Errorf("%s: %w", op, err)
		}
		wait := uc.cfg.Backoff * time.Duration(attempt)
		uc.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("backoff", wait).Msg("conflicto de bloqueo, reintentando")
		if err := uc.sleep(ctx, wait); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
