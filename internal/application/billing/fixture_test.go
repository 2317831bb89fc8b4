package billing_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/application/billing"
	"github.com/jhoicas/Licores-api/internal/application/inventory"
	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/liquor"
	"github.com/jhoicas/Licores-api/internal/testutil/memstore"
)

var rc = entity.RequestContext{CompanyID: "c1", UserID: "u1", FinYearID: "fy24"}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	store  *memstore.Store
	ledger *inventory.StockLedgerUseCase
	mat    *billing.Materializer
	uc     *billing.GenerateBillsUseCase
}

type fixtureOpts struct {
	enforceStock bool
	locker       billing.BatchLocker
	pack         liquor.Options
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()
	store := memstore.New()
	store.AddItem(entity.Item{Code: "WH750", Name: "ROYAL STAG WHISKY", SizeLabel: "750 ML", LiquorType: "F", SizeCC: 750, Rate: dec(800)})
	store.AddItem(entity.Item{Code: "WH180", Name: "ROYAL STAG WHISKY", SizeLabel: "180 ML", LiquorType: "F", SizeCC: 180, Rate: dec(200)})
	store.AddItem(entity.Item{Code: "BR650", Name: "KINGFISHER BEER", SizeLabel: "650 ML", LiquorType: "B", SizeCC: 650, Rate: dec(150)})
	store.AddItem(entity.Item{Code: "CL180", Name: "DESI DARU", SizeLabel: "QUARTER", LiquorType: "C", Rate: dec(60)})
	store.SetLimits(entity.CategoryLimits{CompanyID: "c1", IMFL: 3000, Beer: 7800, CL: 2600})
	for _, code := range []string{"WH750", "WH180", "BR650", "CL180"} {
		store.SetStock("c1", "fy24", code, dec(1000))
	}

	ledger := inventory.NewStockLedgerUseCase(store, store.DailyRepo(), store.StockRepo(),
		inventory.LedgerConfig{MaxRetries: 3}, zerolog.Nop()).
		WithClock(func() time.Time { return time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC) }).
		WithSleep(func(context.Context, time.Duration) error { return nil })
	mat := billing.NewMaterializer(ledger, billing.NumberingConfig{Prefix: "BL", MinDigits: 4, MaxAttempts: 3})
	uc := billing.NewGenerateBillsUseCase(store, store.ItemRepo(), store.LimitRepo(), store.BillRepo(),
		mat, opts.locker, billing.GenerateConfig{Pack: opts.pack, EnforceStock: opts.enforceStock}, zerolog.Nop()).
		WithRand(rand.New(rand.NewPCG(7, 11)))
	return &fixture{store: store, ledger: ledger, mat: mat, uc: uc}
}

// sizes tamaños configurados en la fixture, para recalcular volúmenes por factura.
var sizes = map[string]struct {
	cat  entity.Category
	size float64
}{
	"WH750": {entity.CategoryIMFL, 750},
	"WH180": {entity.CategoryIMFL, 180},
	"BR650": {entity.CategoryBeer, 650},
	"CL180": {entity.CategoryCL, 180},
}

func volumes(lines []entity.BillLine) map[entity.Category]float64 {
	out := make(map[entity.Category]float64)
	for _, l := range lines {
		s := sizes[l.ItemCode]
		out[s.cat] += float64(l.Qty.IntPart()) * s.size
	}
	return out
}
