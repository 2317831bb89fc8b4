package dto

import "github.com/shopspring/decimal"

// RecordPurchaseRequest body para POST /api/stock/purchases.
type RecordPurchaseRequest struct {
	ItemCode string          `json:"item_code"`
	Date     string          `json:"date"` // YYYY-MM-DD
	Quantity decimal.Decimal `json:"quantity"`
}

// DailyStockResponse libro diario de un ítem para un mes.
type DailyStockResponse struct {
	ItemCode     string          `json:"item_code"`
	Month        string          `json:"month"` // YYYY-MM
	CurrentStock decimal.Decimal `json:"current_stock"`
	Days         []DayStockDTO   `json:"days"`
}

// DayStockDTO movimientos y saldos de un día.
type DayStockDTO struct {
	Day        int             `json:"day"`
	Opening    decimal.Decimal `json:"opening"`
	Purchase   decimal.Decimal `json:"purchase"`
	Sales      decimal.Decimal `json:"sales"`
	Adjustment decimal.Decimal `json:"adjustment"`
	Closing    decimal.Decimal `json:"closing"`
}
