package inventory

import (
	"context"

	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

// LedgerTx repositorios de stock atados a una transacción abierta.
type LedgerTx interface {
	Stock() repository.ItemStockRepository
	DailyStock() repository.DailyStockRepository
	// Savepoint ejecuta fn dentro de un SAVEPOINT de la transacción: si fn falla solo se revierte lo hecho en fn
	// y la transacción sigue utilizable.
	Savepoint(ctx context.Context, fn func() error) error
}

// TxRunner ejecuta una función dentro de una transacción de BD (Commit si fn retorna nil, Rollback si no).
type TxRunner interface {
	RunLedger(ctx context.Context, fn func(tx LedgerTx) error) error
}
