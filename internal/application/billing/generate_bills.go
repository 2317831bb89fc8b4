package billing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/application/dto"
	"github.com/jhoicas/Licores-api/internal/domain"
	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/liquor"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

const (
	dateLayout = "2006-01-02"
	// maxRangeDays rango máximo de fechas de una generación (un año, bisiesto incluido).
	maxRangeDays = 366
)

// GenerateConfig parámetros de la generación de facturas.
type GenerateConfig struct {
	Pack liquor.Options
	// EnforceStock rechaza la generación si algún ítem no tiene stock suficiente para el total pedido.
	EnforceStock bool
}

// GenerateBillsUseCase reparte las ventas de un rango de fechas en facturas diarias que respetan los
// límites de volumen por categoría, y las persiste con su movimiento de stock.
type GenerateBillsUseCase struct {
	txRunner     BillingTxRunner
	itemRepo     repository.ItemRepository
	limitRepo    repository.CategoryLimitRepository
	billRepo     repository.BillRepository
	materializer *Materializer
	locker       BatchLocker
	locks        *companyLocks
	cfg          GenerateConfig
	log          zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGenerateBillsUseCase construye el caso de uso. locker puede ser nil (solo bloqueo en proceso).
func NewGenerateBillsUseCase(
	txRunner BillingTxRunner,
	itemRepo repository.ItemRepository,
	limitRepo repository.CategoryLimitRepository,
	billRepo repository.BillRepository,
	materializer *Materializer,
	locker BatchLocker,
	cfg GenerateConfig,
	log zerolog.Logger,
) *GenerateBillsUseCase {
	now := uint64(time.Now().UnixNano())
	return &GenerateBillsUseCase{
		txRunner:     txRunner,
		itemRepo:     itemRepo,
		limitRepo:    limitRepo,
		billRepo:     billRepo,
		materializer: materializer,
		locker:       locker,
		locks:        newCompanyLocks(),
		cfg:          cfg,
		log:          log,
		rng:          rand.New(rand.NewPCG(now, now>>1)),
	}
}

// WithRand fija la fuente aleatoria del reparto diario (tests).
func (uc *GenerateBillsUseCase) WithRand(rng *rand.Rand) *GenerateBillsUseCase {
	uc.rngMu.Lock()
	uc.rng = rng
	uc.rngMu.Unlock()
	return uc
}

type saleRequest struct {
	start, end time.Time
	mode       string
	codes      []string
	qty        map[string]decimal.Decimal
}

// GenerateBills genera las facturas del rango. Todo el lote corre en una sola transacción: el primer error
// revierte todas las facturas, números y movimientos de stock del lote.
func (uc *GenerateBillsUseCase) GenerateBills(ctx context.Context, rc entity.RequestContext, in dto.GenerateBillsRequest) (*dto.GenerateBillsResponse, error) {
	req, err := parseSaleRequest(rc, in)
	if err != nil {
		return nil, err
	}

	limits, err := uc.limitRepo.GetByCompany(ctx, rc.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("category limits: %w", err)
	}
	items, err := uc.itemRepo.GetByCodes(ctx, req.codes, req.mode)
	if err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	for _, code := range req.codes {
		if items[code] == nil {
			return nil, fmt.Errorf("item %s: %w", code, domain.ErrNotFound)
		}
	}
	dates := daysBetween(req.start, req.end)
	alloc := uc.distribute(req, len(dates))

	unlock := uc.locks.lock(rc.CompanyID)
	defer unlock()
	if uc.locker != nil {
		release, err := uc.locker.Lock(ctx, rc.CompanyID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var bills []*entity.Bill
	forced := 0
	err = uc.txRunner.RunBilling(ctx, func(tx BillingTx) error {
		bills = bills[:0]
		forced = 0
		// Dentro de la tx y con el bloqueo de empresa tomado: las filas de stock quedan bloqueadas hasta el commit.
		if uc.cfg.EnforceStock {
			if err := checkStock(ctx, tx, rc, req); err != nil {
				return err
			}
		}
		for i, date := range dates {
			lines := dayLines(req, items, alloc, i)
			if len(lines) == 0 {
				continue
			}
			res := liquor.Pack(lines, limits, uc.cfg.Pack)
			if res.Forced > 0 {
				forced += res.Forced
				uc.log.Warn().
					Str("company_id", rc.CompanyID).
					Str("date", date.Format(dateLayout)).
					Int("forced_bills", res.Forced).
					Int("iterations", res.Iterations).
					Msg("empaquetado con válvula de seguridad: hay facturas que exceden el límite")
			}
			for _, draft := range res.Drafts {
				bill, err := uc.materializer.MaterializeInTx(ctx, tx, draft, date, req.mode, rc)
				if err != nil {
					return fmt.Errorf("date %s: %w", date.Format(dateLayout), err)
				}
				bills = append(bills, bill)
			}
		}
		return nil
	})
	if err != nil {
		uc.log.Error().Err(err).Str("company_id", rc.CompanyID).Msg("generación de facturas revertida")
		return nil, err
	}

	uc.log.Info().
		Str("company_id", rc.CompanyID).
		Str("mode", req.mode).
		Int("days", len(dates)).
		Int("bills", len(bills)).
		Int("forced", forced).
		Msg("facturas generadas")

	out := &dto.GenerateBillsResponse{Bills: make([]dto.BillResponse, 0, len(bills)), Count: len(bills), Forced: forced}
	for _, b := range bills {
		out.Bills = append(out.Bills, ToBillResponse(b))
	}
	return out, nil
}

// NextBillNumber reserva un número en su propia transacción.
func (uc *GenerateBillsUseCase) NextBillNumber(ctx context.Context, rc entity.RequestContext) (*dto.NextBillNumberResponse, error) {
	if rc.CompanyID == "" {
		return nil, domain.ErrInvalidInput
	}
	unlock := uc.locks.lock(rc.CompanyID)
	defer unlock()

	var billNo string
	err := uc.txRunner.RunBilling(ctx, func(tx BillingTx) error {
		n, _, err := uc.materializer.NextBillNumber(ctx, tx, rc.CompanyID)
		billNo = n
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.NextBillNumberResponse{BillNo: billNo}, nil
}

// GetBill devuelve una factura con sus líneas.
func (uc *GenerateBillsUseCase) GetBill(ctx context.Context, companyID, billNo string) (*dto.BillResponse, error) {
	if companyID == "" || billNo == "" {
		return nil, domain.ErrInvalidInput
	}
	bill, err := uc.billRepo.GetByNumber(ctx, companyID, billNo)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, domain.ErrNotFound
	}
	out := ToBillResponse(bill)
	return &out, nil
}

func checkStock(ctx context.Context, tx BillingTx, rc entity.RequestContext, req saleRequest) error {
	for _, code := range req.codes {
		s, err := tx.Stock().GetForUpdate(ctx, rc.CompanyID, rc.FinYearID, code)
		if err != nil {
			return fmt.Errorf("stock %s: %w", code, err)
		}
		current := decimal.Zero
		if s != nil {
			current = s.CurrentStock
		}
		if current.LessThan(req.qty[code]) {
			return fmt.Errorf("item %s (stock %s, pedido %s): %w", code, current, req.qty[code], domain.ErrInsufficientStock)
		}
	}
	return nil
}

func (uc *GenerateBillsUseCase) distribute(req saleRequest, days int) map[string][]decimal.Decimal {
	uc.rngMu.Lock()
	defer uc.rngMu.Unlock()
	out := make(map[string][]decimal.Decimal, len(req.codes))
	for _, code := range req.codes {
		out[code] = liquor.Distribute(req.qty[code], days, uc.rng)
	}
	return out
}

// dayLines arma las líneas del día i en orden de código, clasificando y resolviendo el tamaño de cada ítem.
func dayLines(req saleRequest, items map[string]*entity.Item, alloc map[string][]decimal.Decimal, i int) []liquor.Line {
	lines := make([]liquor.Line, 0, len(req.codes))
	for _, code := range req.codes {
		qty := alloc[code][i]
		if !qty.IsPositive() {
			continue
		}
		item := items[code]
		cat := liquor.Classify(*item, req.mode)
		lines = append(lines, liquor.Line{
			Code:     item.Code,
			Name:     item.Name,
			Qty:      int(qty.IntPart()),
			Rate:     item.Rate,
			Size:     liquor.ResolveSize(*item, cat),
			Category: cat,
		})
	}
	return lines
}

func parseSaleRequest(rc entity.RequestContext, in dto.GenerateBillsRequest) (saleRequest, error) {
	var req saleRequest
	if rc.CompanyID == "" || rc.UserID == "" {
		return req, domain.ErrInvalidInput
	}
	if !entity.ValidSaleMode(in.Mode) {
		return req, fmt.Errorf("modo %q: %w", in.Mode, domain.ErrInvalidInput)
	}
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return req, fmt.Errorf("start_date: %w", domain.ErrInvalidInput)
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return req, fmt.Errorf("end_date: %w", domain.ErrInvalidInput)
	}
	if end.Before(start) || len(daysBetween(start, end)) > maxRangeDays {
		return req, fmt.Errorf("rango de fechas: %w", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return req, fmt.Errorf("sin ítems: %w", domain.ErrInvalidInput)
	}

	req.start, req.end, req.mode = start, end, in.Mode
	req.qty = make(map[string]decimal.Decimal, len(in.Items))
	for _, it := range in.Items {
		if it.ItemCode == "" || !it.Quantity.IsPositive() || !it.Quantity.Equal(it.Quantity.Truncate(0)) {
			return req, fmt.Errorf("ítem %q: %w", it.ItemCode, domain.ErrInvalidInput)
		}
		if _, ok := req.qty[it.ItemCode]; !ok {
			req.codes = append(req.codes, it.ItemCode)
			req.qty[it.ItemCode] = decimal.Zero
		}
		req.qty[it.ItemCode] = req.qty[it.ItemCode].Add(it.Quantity)
	}
	sort.Strings(req.codes)
	return req, nil
}

// daysBetween fechas de start a end inclusive, a medianoche UTC.
func daysBetween(start, end time.Time) []time.Time {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
		if len(out) > maxRangeDays {
			break
		}
	}
	return out
}

// ToBillResponse mapea la entidad a la respuesta HTTP.
func ToBillResponse(b *entity.Bill) dto.BillResponse {
	out := dto.BillResponse{
		ID:          b.ID,
		BillNo:      b.BillNo,
		BillDate:    b.BillDate.Format(dateLayout),
		Mode:        b.Mode,
		TotalAmount: b.TotalAmount,
		Discount:    b.Discount,
		NetAmount:   b.NetAmount,
		CreatedBy:   b.CreatedBy,
		Lines:       make([]dto.BillLineResponse, 0, len(b.Lines)),
	}
	for _, l := range b.Lines {
		out.Lines = append(out.Lines, dto.BillLineResponse{ItemCode: l.ItemCode, Qty: l.Qty, Rate: l.Rate, Amount: l.Amount})
	}
	return out
}
