package dto

import "github.com/shopspring/decimal"

// GenerateBillsRequest body para POST /api/bills/generate.
// Fechas en formato YYYY-MM-DD; Mode F (extranjero) o C (país).
type GenerateBillsRequest struct {
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Mode      string            `json:"mode"`
	Items     []SaleItemRequest `json:"items"`
}

// SaleItemRequest total vendido de un ítem en el rango de fechas (unidades enteras).
type SaleItemRequest struct {
	ItemCode string          `json:"item_code"`
	Quantity decimal.Decimal `json:"quantity"`
}

// GenerateBillsResponse facturas generadas en orden de fecha y número.
type GenerateBillsResponse struct {
	Bills  []BillResponse `json:"bills"`
	Count  int            `json:"count"`
	Forced int            `json:"forced"` // facturas emitidas por la válvula de seguridad del empaquetador
}

// BillResponse factura con detalle para GET /api/bills/:billNo.
type BillResponse struct {
	ID          string             `json:"id"`
	BillNo      string             `json:"bill_no"`
	BillDate    string             `json:"bill_date"`
	Mode        string             `json:"mode"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Discount    decimal.Decimal    `json:"discount"`
	NetAmount   decimal.Decimal    `json:"net_amount"`
	CreatedBy   string             `json:"created_by,omitempty"`
	Lines       []BillLineResponse `json:"lines"`
}

// BillLineResponse línea de detalle en la respuesta.
type BillLineResponse struct {
	ItemCode string          `json:"item_code"`
	Qty      decimal.Decimal `json:"qty"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
}

// NextBillNumberResponse número reservado por POST /api/bills/next-number.
type NextBillNumberResponse struct {
	BillNo string `json:"bill_no"`
}

// CategoryLimitsResponse límites de volumen (ml) por factura; 0 = sin límite.
type CategoryLimitsResponse struct {
	IMFL float64 `json:"imfl_limit"`
	Beer float64 `json:"beer_limit"`
	CL   float64 `json:"cl_limit"`
}

// ItemClassificationResponse categoría y tamaño resueltos para un ítem en un modo.
type ItemClassificationResponse struct {
	ItemCode string  `json:"item_code"`
	Name     string  `json:"name"`
	Mode     string  `json:"mode"`
	Category string  `json:"category"`
	SizeML   float64 `json:"size_ml"`
}
