package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licores-api/internal/domain/entity"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestDailyStockMonth_CascadaHastaFinDeMes(t *testing.T) {
	m := entity.NewDailyStockMonth("c1", "A", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	today := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	_, _, err := m.Apply(1, entity.LedgerPurchase, dec(100), m.CascadeEnd(today))
	require.NoError(t, err)
	before := m.Days

	from, to, err := m.Apply(5, entity.LedgerSale, dec(12), m.CascadeEnd(today))
	require.NoError(t, err)
	assert.Equal(t, 5, from)
	assert.Equal(t, 29, to, "febrero 2024 tiene 29 días")

	for d := 1; d <= 4; d++ {
		assert.Equal(t, before[d-1], m.Day(d), "día %d no debe cambiar", d)
	}
	assert.True(t, m.Day(5).Opening.Equal(dec(100)))
	assert.True(t, m.Day(5).Closing.Equal(dec(88)))
	for d := 6; d <= 29; d++ {
		assert.True(t, m.Day(d).Opening.Equal(m.Day(d-1).Closing), "día %d", d)
		assert.True(t, m.Day(d).Closing.Equal(dec(88)), "día %d", d)
	}
	assert.True(t, m.Day(30).Closing.IsZero(), "días fuera del mes quedan en cero")
}

func TestDailyStockMonth_CascadaHastaHoy(t *testing.T) {
	today := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	m := entity.NewDailyStockMonth("c1", "A", today)

	_, to, err := m.Apply(5, entity.LedgerPurchase, dec(10), m.CascadeEnd(today))
	require.NoError(t, err)
	assert.Equal(t, 15, to)
	assert.True(t, m.Day(15).Closing.Equal(dec(10)))
	assert.True(t, m.Day(16).Opening.IsZero(), "no se propaga más allá de hoy")
}

func TestDailyStockMonth_MesFuturoSoloElDia(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	m := entity.NewDailyStockMonth("c1", "A", time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))

	from, to, err := m.Apply(2, entity.LedgerPurchase, dec(3), m.CascadeEnd(today))
	require.NoError(t, err)
	assert.Equal(t, 2, from)
	assert.Equal(t, 2, to)
}

func TestDailyStockMonth_CierreIgualAperturaMasMovimientos(t *testing.T) {
	m := entity.NewDailyStockMonth("c1", "A", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ops := []struct {
		day int
		typ string
		qty int64
	}{{3, entity.LedgerPurchase, 50}, {10, entity.LedgerSale, 7}, {1, entity.LedgerPurchase, 5}, {20, entity.LedgerSale, 30}, {10, entity.LedgerSale, 1}}
	for _, op := range ops {
		_, _, err := m.Apply(op.day, op.typ, dec(op.qty), m.CascadeEnd(today))
		require.NoError(t, err)
	}
	for d := 1; d <= m.DaysIn(); d++ {
		day := m.Day(d)
		assert.True(t, day.Closing.Equal(day.Opening.Add(day.Purchase).Sub(day.Sales).Add(day.Adjustment)), "día %d", d)
		if d > 1 {
			assert.True(t, day.Opening.Equal(m.Day(d-1).Closing), "día %d", d)
		}
	}
	assert.True(t, m.Day(31).Closing.Equal(dec(17)))
}

func TestDailyStockMonth_Errores(t *testing.T) {
	m := entity.NewDailyStockMonth("c1", "A", time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC))
	_, _, err := m.Apply(31, entity.LedgerSale, dec(1), 30)
	assert.Error(t, err, "abril tiene 30 días")
	_, _, err = m.Apply(1, "transfer", dec(1), 30)
	assert.Error(t, err)
}

func TestDailyStockMonth_ReencadenaDiasPendientesAlAvanzarHoy(t *testing.T) {
	m := entity.NewDailyStockMonth("c1", "A", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	_, to, err := m.Apply(5, entity.LedgerPurchase, dec(10), m.CascadeEnd(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, 15, to)

	from, to, err := m.Apply(18, entity.LedgerPurchase, dec(1), m.CascadeEnd(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, 16, from, "los días 16 y 17 quedaron sin apertura")
	assert.Equal(t, 20, to)
	for d := 2; d <= 20; d++ {
		assert.True(t, m.Day(d).Opening.Equal(m.Day(d-1).Closing), "día %d", d)
	}
	assert.True(t, m.Day(17).Closing.Equal(dec(10)))
	assert.True(t, m.Day(18).Closing.Equal(dec(11)))
	assert.True(t, m.Day(20).Closing.Equal(dec(11)))
}

func TestDailyStockMonth_DiaPosteriorAHoyTomaApertura(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	m := entity.NewDailyStockMonth("c1", "A", today)
	_, _, err := m.Apply(2, entity.LedgerPurchase, dec(40), m.CascadeEnd(today))
	require.NoError(t, err)

	from, to, err := m.Apply(25, entity.LedgerSale, dec(5), m.CascadeEnd(today))
	require.NoError(t, err)
	assert.Equal(t, 11, from)
	assert.Equal(t, 25, to)
	assert.True(t, m.Day(25).Opening.Equal(dec(40)))
	assert.True(t, m.Day(25).Closing.Equal(dec(35)))
}
