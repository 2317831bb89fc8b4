package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Licores-api/internal/application/billing"
	"github.com/jhoicas/Licores-api/internal/application/inventory"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner      = (*TxRunner)(nil)
	_ billing.BillingTxRunner = (*TxRunner)(nil)
	_ billing.BillingTx       = (*pgTx)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunLedger inicia una transacción con los repos de stock y hace Commit o Rollback.
func (r *TxRunner) RunLedger(ctx context.Context, fn func(tx inventory.LedgerTx) error) error {
	return r.run(ctx, func(tx *pgTx) error { return fn(tx) })
}

// RunBilling inicia una transacción con repos de inventario y facturación.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(tx billing.BillingTx) error) error {
	return r.run(ctx, func(tx *pgTx) error { return fn(tx) })
}

func (r *TxRunner) run(ctx context.Context, fn func(tx *pgTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

// pgTx repos atados a la transacción abierta. Dentro de Savepoint los repos usan la subtransacción.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Stock() repository.ItemStockRepository       { return NewItemStockRepository(t.tx) }
func (t *pgTx) DailyStock() repository.DailyStockRepository  { return NewDailyStockRepository(t.tx) }
func (t *pgTx) Bills() repository.BillRepository             { return NewBillRepository(t.tx) }
func (t *pgTx) Sequences() repository.BillSequenceRepository { return NewBillSequenceRepository(t.tx) }

// Savepoint abre un SAVEPOINT (pgx.Tx.Begin sobre una tx crea uno) y ejecuta fn con los repos apuntando a él.
// Si fn falla se hace ROLLBACK TO SAVEPOINT y la transacción externa sigue utilizable.
func (t *pgTx) Savepoint(ctx context.Context, fn func() error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return wrapErr("savepoint", err)
	}
	outer := t.tx
	t.tx = sp
	defer func() { t.tx = outer }()

	if err := fn(); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return wrapErr("release savepoint", err)
	}
	return nil
}
