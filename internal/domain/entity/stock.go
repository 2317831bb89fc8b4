package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStock stock actual de un ítem para una empresa y año financiero.
type ItemStock struct {
	CompanyID    string
	FinYearID    string
	ItemCode     string
	CurrentStock decimal.Decimal
	UpdatedAt    time.Time
}
