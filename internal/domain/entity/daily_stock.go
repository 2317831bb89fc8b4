package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción que mueven el libro diario de stock.
const (
	LedgerPurchase = "purchase"
	LedgerSale     = "sale"
)

// MaxDaysInMonth columnas de día que guarda cada mes del libro.
const MaxDaysInMonth = 31

// DayStock saldo de un día del libro: Closing = Opening + Purchase - Sales + Adjustment.
type DayStock struct {
	Opening    decimal.Decimal
	Purchase   decimal.Decimal
	Sales      decimal.Decimal
	Adjustment decimal.Decimal
	Closing    decimal.Decimal
}

func (d *DayStock) recompute() {
	d.Closing = d.Opening.Add(d.Purchase).Sub(d.Sales).Add(d.Adjustment)
}

// DailyStockMonth libro de stock día a día de un ítem para una empresa en un mes calendario.
type DailyStockMonth struct {
	CompanyID string
	ItemCode  string
	Month     time.Time // primer día del mes, UTC
	Days      [MaxDaysInMonth]DayStock
}

// NewDailyStockMonth crea el mes con todas las aperturas en cero.
func NewDailyStockMonth(companyID, itemCode string, anyDay time.Time) *DailyStockMonth {
	return &DailyStockMonth{
		CompanyID: companyID,
		ItemCode:  itemCode,
		Month:     MonthStart(anyDay),
	}
}

// MonthStart devuelve el primer día del mes de t (UTC, sin hora).
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysIn devuelve la cantidad de días del mes.
func (m *DailyStockMonth) DaysIn() int {
	return m.Month.AddDate(0, 1, -1).Day()
}

// Day devuelve el saldo del día (1..31).
func (m *DailyStockMonth) Day(day int) DayStock {
	return m.Days[day-1]
}

// CascadeEnd calcula hasta qué día se propaga un cambio: fin de mes para meses pasados,
// el día de hoy para el mes en curso, y solo el propio día para meses futuros.
func (m *DailyStockMonth) CascadeEnd(today time.Time) int {
	cur := MonthStart(today)
	switch {
	case m.Month.Before(cur):
		return m.DaysIn()
	case m.Month.Equal(cur):
		return today.Day()
	default:
		return 0
	}
}

// Apply suma qty a la compra o venta del día y propaga el cierre como apertura de los días siguientes
// hasta lastDay. Si una cascada anterior se detuvo antes de day (el "hoy" de ese momento), los días
// pendientes entre ambos se re-encadenan primero. Devuelve el rango de días modificados.
func (m *DailyStockMonth) Apply(day int, txType string, qty decimal.Decimal, lastDay int) (from, to int, err error) {
	n := m.DaysIn()
	if day < 1 || day > n {
		return 0, 0, fmt.Errorf("día %d fuera del mes %s", day, m.Month.Format("2006-01"))
	}
	d := &m.Days[day-1]
	switch txType {
	case LedgerPurchase:
		d.Purchase = d.Purchase.Add(qty)
	case LedgerSale:
		d.Sales = d.Sales.Add(qty)
	default:
		return 0, 0, fmt.Errorf("tipo de transacción desconocido: %q", txType)
	}

	from = m.firstStale(day)
	end := lastDay
	if end > n {
		end = n
	}
	if end < day {
		end = day
	}
	for i := from; i <= end; i++ {
		cur := &m.Days[i-1]
		if i > 1 {
			cur.Opening = m.Days[i-2].Closing
		}
		cur.recompute()
	}
	return from, end, nil
}

// firstStale primer día en 2..day cuya apertura no coincide con el cierre anterior; day si no hay ninguno.
func (m *DailyStockMonth) firstStale(day int) int {
	for i := 2; i < day; i++ {
		if !m.Days[i-1].Opening.Equal(m.Days[i-2].Closing) {
			return i
		}
	}
	return day
}
