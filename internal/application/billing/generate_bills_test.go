package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licores-api/internal/application/dto"
	"github.com/jhoicas/Licores-api/internal/domain"
	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/liquor"
	"github.com/jhoicas/Licores-api/internal/testutil/memstore"
)

func req(start, end, mode string, items ...dto.SaleItemRequest) dto.GenerateBillsRequest {
	return dto.GenerateBillsRequest{StartDate: start, EndDate: end, Mode: mode, Items: items}
}

func item(code string, qty int64) dto.SaleItemRequest {
	return dto.SaleItemRequest{ItemCode: code, Quantity: dec(qty)}
}

func TestGenerateBills_UnDiaRespetaLimite(t *testing.T) {
	f := newFixture(t, fixtureOpts{enforceStock: true})
	ctx := context.Background()

	out, err := f.uc.GenerateBills(ctx, rc, req("2024-06-10", "2024-06-10", entity.ModeForeign, item("WH750", 10)))
	require.NoError(t, err)

	require.Equal(t, 3, out.Count)
	assert.Zero(t, out.Forced)
	assert.Equal(t, []string{"BL0001", "BL0002", "BL0003"}, []string{out.Bills[0].BillNo, out.Bills[1].BillNo, out.Bills[2].BillNo})
	assert.True(t, out.Bills[0].Lines[0].Qty.Equal(dec(4)))
	assert.True(t, out.Bills[1].Lines[0].Qty.Equal(dec(4)))
	assert.True(t, out.Bills[2].Lines[0].Qty.Equal(dec(2)))
	assert.True(t, out.Bills[0].TotalAmount.Equal(dec(3200)))
	assert.True(t, out.Bills[0].NetAmount.Equal(out.Bills[0].TotalAmount))
	assert.Equal(t, "2024-06-10", out.Bills[2].BillDate)

	assert.True(t, f.store.Stock("c1", "fy24", "WH750").Equal(dec(990)))
	m := f.store.Month("c1", "WH750", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, m)
	assert.True(t, m.Day(10).Sales.Equal(dec(10)))
	assert.True(t, m.Day(30).Closing.Equal(dec(-10)), "el libro solo conoce el movimiento del lote")
}

func TestGenerateBills_RangoConservaCantidadesYLimites(t *testing.T) {
	f := newFixture(t, fixtureOpts{enforceStock: true})
	ctx := context.Background()

	in := req("2024-06-01", "2024-06-07", entity.ModeForeign,
		item("WH750", 37), item("WH180", 55), item("BR650", 40), item("CL180", 23))
	out, err := f.uc.GenerateBills(ctx, rc, in)
	require.NoError(t, err)
	require.NotEmpty(t, out.Bills)
	assert.Zero(t, out.Forced)

	bills := f.store.Bills("c1")
	require.Len(t, bills, out.Count)

	totals := make(map[string]int64)
	seen := make(map[string]bool)
	limits := entity.CategoryLimits{IMFL: 3000, Beer: 7800, CL: 2600}
	for _, b := range bills {
		assert.False(t, seen[b.BillNo], "número repetido %s", b.BillNo)
		seen[b.BillNo] = true
		assert.False(t, b.BillDate.Before(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
		assert.False(t, b.BillDate.After(time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)))
		require.NotEmpty(t, b.Lines)
		for cat, v := range volumes(b.Lines) {
			assert.LessOrEqual(t, v, limits.For(cat), "factura %s categoría %s", b.BillNo, cat)
		}
		for _, l := range b.Lines {
			totals[l.ItemCode] += l.Qty.IntPart()
		}
	}
	assert.Equal(t, map[string]int64{"WH750": 37, "WH180": 55, "BR650": 40, "CL180": 23}, totals)

	for i := 1; i <= out.Count; i++ {
		assert.True(t, seen[fmt.Sprintf("BL%04d", i)], "numeración consecutiva: falta BL%04d", i)
	}
	assert.True(t, f.store.Stock("c1", "fy24", "BR650").Equal(dec(960)))
}

func TestGenerateBills_ValidaEntrada(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	cases := map[string]struct {
		rc entity.RequestContext
		in dto.GenerateBillsRequest
	}{
		"sin empresa":       {entity.RequestContext{UserID: "u1"}, req("2024-06-01", "2024-06-01", "F", item("WH750", 1))},
		"sin usuario":       {entity.RequestContext{CompanyID: "c1"}, req("2024-06-01", "2024-06-01", "F", item("WH750", 1))},
		"modo inválido":     {rc, req("2024-06-01", "2024-06-01", "O", item("WH750", 1))},
		"fecha inválida":    {rc, req("01/06/2024", "2024-06-01", "F", item("WH750", 1))},
		"rango invertido":   {rc, req("2024-06-02", "2024-06-01", "F", item("WH750", 1))},
		"rango muy largo":   {rc, req("2024-01-01", "2025-01-02", "F", item("WH750", 1))},
		"sin ítems":         {rc, req("2024-06-01", "2024-06-01", "F")},
		"cantidad cero":     {rc, req("2024-06-01", "2024-06-01", "F", item("WH750", 0))},
		"cantidad negativa": {rc, req("2024-06-01", "2024-06-01", "F", item("WH750", -2))},
		"cantidad fraccionaria": {rc, req("2024-06-01", "2024-06-01", "F",
			dto.SaleItemRequest{ItemCode: "WH750", Quantity: dec(3).Div(dec(2))})},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.GenerateBills(ctx, tc.rc, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := f.uc.GenerateBills(ctx, rc, req("2024-06-01", "2024-06-01", "F", item("NOPE", 1)))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.store.Bills("c1"))
}

func TestGenerateBills_RangoDeUnAnioBisiesto(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	out, err := f.uc.GenerateBills(context.Background(), rc, req("2024-01-01", "2024-12-31", "F", item("WH180", 366)))
	require.NoError(t, err)
	assert.Equal(t, 366, out.Count, "una unidad por día")
}

func TestGenerateBills_StockInsuficiente(t *testing.T) {
	f := newFixture(t, fixtureOpts{enforceStock: true})
	f.store.SetStock("c1", "fy24", "WH750", dec(5))

	_, err := f.uc.GenerateBills(context.Background(), rc, req("2024-06-01", "2024-06-02", "F", item("WH750", 6)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, f.store.Bills("c1"))
	assert.True(t, f.store.Stock("c1", "fy24", "WH750").Equal(dec(5)))
}

func TestGenerateBills_StockConcurrenteNoSobrevende(t *testing.T) {
	f := newFixture(t, fixtureOpts{enforceStock: true})
	f.store.SetStock("c1", "fy24", "WH750", dec(10))
	ctx := context.Background()

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			date := fmt.Sprintf("2024-06-%02d", i+1)
			_, errs[i] = f.uc.GenerateBills(ctx, rc, req(date, date, "F", item("WH750", 10)))
		}(i)
	}
	close(start)
	wg.Wait()

	ok, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)
	assert.True(t, f.store.Stock("c1", "fy24", "WH750").IsZero())
	assert.Equal(t, 2, f.store.Calls(memstore.OpStockLock), "el saldo se lee con bloqueo dentro de la transacción")
}

func TestGenerateBills_ControlDeStockDentroDeLaTransaccion(t *testing.T) {
	f := newFixture(t, fixtureOpts{enforceStock: true})
	f.store.FailNext(memstore.OpStockLock, domain.ErrLockConflict)

	_, err := f.uc.GenerateBills(context.Background(), rc, req("2024-06-01", "2024-06-01", "F", item("WH750", 2)))
	assert.ErrorIs(t, err, domain.ErrLockConflict)
	assert.Empty(t, f.store.Bills("c1"))
	assert.True(t, f.store.Stock("c1", "fy24", "WH750").Equal(dec(1000)))
}

func TestGenerateBills_SinControlDeStockPermiteNegativo(t *testing.T) {
	f := newFixture(t, fixtureOpts{enforceStock: false})
	f.store.SetStock("c1", "fy24", "WH750", dec(5))

	_, err := f.uc.GenerateBills(context.Background(), rc, req("2024-06-01", "2024-06-01", "F", item("WH750", 6)))
	require.NoError(t, err)
	assert.True(t, f.store.Stock("c1", "fy24", "WH750").Equal(dec(-1)))
}

func TestGenerateBills_ErrorRevierteTodoElLote(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()
	boom := errors.New("disco lleno")
	// Las dos primeras líneas se insertan; la tercera falla.
	f.store.FailNext(memstore.OpLineCreate, nil, nil, boom)

	_, err := f.uc.GenerateBills(ctx, rc, req("2024-06-10", "2024-06-10", "F", item("WH750", 10)))
	require.ErrorIs(t, err, boom)

	assert.Empty(t, f.store.Bills("c1"))
	assert.True(t, f.store.Stock("c1", "fy24", "WH750").Equal(dec(1000)))
	assert.Nil(t, f.store.Month("c1", "WH750", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))

	next, err := f.uc.NextBillNumber(ctx, rc)
	require.NoError(t, err)
	assert.Equal(t, "BL0001", next.BillNo, "los números del lote revertido no se consumen")
}

func TestGenerateBills_ValvulaDeSeguridad(t *testing.T) {
	f := newFixture(t, fixtureOpts{pack: liquor.Options{ForcedChunk: 4}})
	f.store.SetLimits(entity.CategoryLimits{CompanyID: "c1", IMFL: 500})

	out, err := f.uc.GenerateBills(context.Background(), rc, req("2024-06-10", "2024-06-10", "F", item("WH750", 10), item("WH180", 5)))
	require.NoError(t, err)

	assert.Equal(t, 3, out.Forced, "750 ml no entra en 500: 10 unidades en bloques de 4")
	var total int64
	for _, b := range out.Bills {
		for _, l := range b.Lines {
			total += l.Qty.IntPart()
		}
	}
	assert.Equal(t, int64(15), total, "no se pierden unidades")
}

func TestGenerateBills_ResincronizaNumeroDuplicado(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	first, err := f.uc.NextBillNumber(ctx, rc)
	require.NoError(t, err)
	require.Equal(t, "BL0001", first.BillNo)
	// Factura cargada por fuera del contador.
	f.store.SeedBill(entity.Bill{ID: "ext", CompanyID: "c1", BillNo: "BL0002"})

	out, err := f.uc.GenerateBills(ctx, rc, req("2024-06-10", "2024-06-10", "F", item("WH750", 1)))
	require.NoError(t, err)
	require.Len(t, out.Bills, 1)
	assert.Equal(t, "BL0003", out.Bills[0].BillNo)
}

func TestNextBillNumber_ConcurrenteSinDuplicados(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	const n = 25
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.uc.NextBillNumber(ctx, rc)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			got = append(got, out.BillNo)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Strings(got)
	want := make([]string, n)
	for i := range want {
		want[i] = fmt.Sprintf("BL%04d", i+1)
	}
	assert.Equal(t, want, got)
}

func TestGenerateBills_ConcurrenteNumerosUnicos(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			date := fmt.Sprintf("2024-06-%02d", day+1)
			_, err := f.uc.GenerateBills(ctx, rc, req(date, date, "F", item("WH750", 9), item("BR650", 14)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	bills := f.store.Bills("c1")
	seen := make(map[string]bool, len(bills))
	for _, b := range bills {
		assert.False(t, seen[b.BillNo], "número repetido %s", b.BillNo)
		seen[b.BillNo] = true
	}
	assert.True(t, f.store.Stock("c1", "fy24", "WH750").Equal(dec(1000-54)))
}

type fakeLocker struct {
	err      error
	locked   []string
	released int
}

func (l *fakeLocker) Lock(_ context.Context, companyID string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, companyID)
	return func() { l.released++ }, nil
}

func TestGenerateBills_BloqueoDistribuido(t *testing.T) {
	locker := &fakeLocker{}
	f := newFixture(t, fixtureOpts{locker: locker})

	_, err := f.uc.GenerateBills(context.Background(), rc, req("2024-06-10", "2024-06-10", "F", item("WH750", 1)))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, locker.locked)
	assert.Equal(t, 1, locker.released)

	locker.err = domain.ErrBatchLocked
	_, err = f.uc.GenerateBills(context.Background(), rc, req("2024-06-11", "2024-06-11", "F", item("WH750", 1)))
	assert.ErrorIs(t, err, domain.ErrBatchLocked)
	assert.Len(t, f.store.Bills("c1"), 1)
}

func TestGetBill(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()
	_, err := f.uc.GenerateBills(ctx, rc, req("2024-06-10", "2024-06-10", "C", item("CL180", 20)))
	require.NoError(t, err)

	b, err := f.uc.GetBill(ctx, "c1", "BL0002")
	require.NoError(t, err)
	assert.Equal(t, "C", b.Mode)
	require.Len(t, b.Lines, 1)
	assert.Equal(t, "CL180", b.Lines[0].ItemCode)
	assert.True(t, b.Lines[0].Qty.Equal(dec(6)), "2600/180 = 14 por factura, quedan 6")

	_, err = f.uc.GetBill(ctx, "c1", "BL0099")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.GetBill(ctx, "c2", "BL0001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
