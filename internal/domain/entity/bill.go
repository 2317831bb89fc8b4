package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill cabecera de una factura de venta generada.
// ID es un identificador inmutable; BillNo es solo el número visible y puede resecuenciarse sin tocar las líneas.
type Bill struct {
	ID          string
	CompanyID   string
	FinYearID   string
	BillNo      string // prefijo + secuencia con ceros, ej. BL0001
	Seq         int64
	BillDate    time.Time
	Mode        string
	TotalAmount decimal.Decimal
	Discount    decimal.Decimal
	NetAmount   decimal.Decimal
	CreatedBy   string
	CreatedAt   time.Time
	Lines       []BillLine
}

// BillLine línea de detalle de una factura.
type BillLine struct {
	ID        string
	BillID    string
	BillNo    string
	CompanyID string
	ItemCode  string
	Qty       decimal.Decimal
	Rate      decimal.Decimal
	Amount    decimal.Decimal
	Mode      string
}
