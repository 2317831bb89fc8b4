package repository

import (
	"context"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
)

// BillRepository puerto de persistencia de facturas generadas (cabecera y líneas).
type BillRepository interface {
	// Create inserta la cabecera. Un número repetido devuelve domain.ErrDuplicate.
	Create(ctx context.Context, bill *entity.Bill) error
	CreateLine(ctx context.Context, line *entity.BillLine) error
	GetByNumber(ctx context.Context, companyID, billNo string) (*entity.Bill, error)
}

// BillSequenceRepository contador de números de factura por empresa.
// Next bloquea la fila del contador hasta el fin de la transacción, por lo que dos generaciones
// concurrentes de la misma empresa se serializan.
type BillSequenceRepository interface {
	Next(ctx context.Context, companyID string) (int64, error)
	// Resync lleva el contador al máximo sufijo numérico existente en las facturas de la empresa.
	Resync(ctx context.Context, companyID string) error
}
