package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/application/inventory"
	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

// BillingTx repositorios de facturación e inventario atados a la misma transacción.
type BillingTx interface {
	inventory.LedgerTx
	Bills() repository.BillRepository
	Sequences() repository.BillSequenceRepository
}

// BillingTxRunner ejecuta una función dentro de una transacción que incluye repos de inventario y facturación.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(tx BillingTx) error) error
}

// StockLedger integra facturación con inventario: cada línea descuenta stock y mueve el libro diario
// usando la transacción del llamador. Lo implementa *inventory.StockLedgerUseCase.
type StockLedger interface {
	ApplySaleInTx(ctx context.Context, tx inventory.LedgerTx, rc entity.RequestContext, itemCode string, date time.Time, qty decimal.Decimal) error
}

// BatchLocker bloqueo distribuido por empresa para la generación de facturas (opcional).
type BatchLocker interface {
	// Lock devuelve domain.ErrBatchLocked si otro proceso tiene el bloqueo.
	Lock(ctx context.Context, companyID string) (unlock func(), err error)
}
