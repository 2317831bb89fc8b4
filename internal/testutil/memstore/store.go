// Package memstore implementación en memoria de los repositorios y transacciones, para tests.
// Las transacciones se serializan (un solo escritor) y se revierten restaurando una copia del estado.
package memstore

import (
	"context"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/application/billing"
	"github.com/jhoicas/Licores-api/internal/application/inventory"
	"github.com/jhoicas/Licores-api/internal/domain"
	"github.com/jhoicas/Licores-api/internal/domain/entity"
	"github.com/jhoicas/Licores-api/internal/domain/repository"
)

// Operaciones en las que se pueden inyectar fallas con FailNext.
const (
	OpStockAdd    = "stock.add"
	OpStockLock   = "stock.lock"
	OpDailyLock   = "daily.lock"
	OpBillCreate  = "bill.create"
	OpLineCreate  = "line.create"
	OpSequenceNxt = "sequence.next"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

type state struct {
	stock map[string]decimal.Decimal
	daily map[string]entity.DailyStockMonth
	bills map[string]entity.Bill // company|billNo
	lines map[string][]entity.BillLine
	seq   map[string]int64
}

func (s state) clone() state {
	c := state{
		stock: make(map[string]decimal.Decimal, len(s.stock)),
		daily: make(map[string]entity.DailyStockMonth, len(s.daily)),
		bills: make(map[string]entity.Bill, len(s.bills)),
		lines: make(map[string][]entity.BillLine, len(s.lines)),
		seq:   make(map[string]int64, len(s.seq)),
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.daily {
		c.daily[k] = v
	}
	for k, v := range s.bills {
		c.bills[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = append([]entity.BillLine(nil), v...)
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

// Store estado compartido. Items y límites son de solo lectura para el código bajo test.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	items  map[string]entity.Item
	limits map[string]entity.CategoryLimits
	st     state
	faults map[string][]error
	calls  map[string]int
}

func New() *Store {
	return &Store{
		items:  make(map[string]entity.Item),
		limits: make(map[string]entity.CategoryLimits),
		st:     state{}.clone(),
		faults: make(map[string][]error),
		calls:  make(map[string]int),
	}
}

// AddItem registra un ítem del maestro.
func (s *Store) AddItem(it entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.Code] = it
}

// SetLimits configura los límites de una empresa.
func (s *Store) SetLimits(l entity.CategoryLimits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits[l.CompanyID] = l
}

// SetStock fija el stock actual de un ítem.
func (s *Store) SetStock(companyID, finYearID, itemCode string, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.stock[stockKey(companyID, finYearID, itemCode)] = qty
}

// SeedBill inserta una factura existente sin pasar por el contador (simula datos cargados por fuera).
func (s *Store) SeedBill(b entity.Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.bills[b.CompanyID+"|"+b.BillNo] = b
}

// FailNext hace que las próximas llamadas a op devuelvan los errores dados, en orden.
func (s *Store) FailNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = append(s.faults[op], errs...)
}

// Calls cantidad de veces que se llamó op (incluidas las fallidas).
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Bills facturas persistidas de la empresa, con líneas.
func (s *Store) Bills(companyID string) []entity.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Bill
	for _, b := range s.st.bills {
		if b.CompanyID != companyID {
			continue
		}
		b.Lines = append([]entity.BillLine(nil), s.st.lines[b.ID]...)
		out = append(out, b)
	}
	return out
}

// Stock stock actual (cero si no hay fila).
func (s *Store) Stock(companyID, finYearID, itemCode string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.stock[stockKey(companyID, finYearID, itemCode)]
}

// Month copia del libro del mes, nil si no existe.
func (s *Store) Month(companyID, itemCode string, month time.Time) *entity.DailyStockMonth {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.daily[monthKey(companyID, itemCode, month)]
	if !ok {
		return nil
	}
	return &m
}

// fault consume la próxima falla inyectada de op. Se llama con mu tomado.
func (s *Store) fault(op string) error {
	s.calls[op]++
	q := s.faults[op]
	if len(q) == 0 {
		return nil
	}
	s.faults[op] = q[1:]
	return q[0]
}

// RunLedger implementa inventory.TxRunner.
func (s *Store) RunLedger(ctx context.Context, fn func(tx inventory.LedgerTx) error) error {
	return s.run(ctx, func(tx *Tx) error { return fn(tx) })
}

// RunBilling implementa billing.BillingTxRunner.
func (s *Store) RunBilling(ctx context.Context, fn func(tx billing.BillingTx) error) error {
	return s.run(ctx, func(tx *Tx) error { return fn(tx) })
}

func (s *Store) run(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.st.clone()
	s.mu.Unlock()

	if err := fn(&Tx{s: s}); err != nil {
		s.mu.Lock()
		s.st = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

// Repos de lectura fuera de transacción.
func (s *Store) ItemRepo() repository.ItemRepository             { return itemRepo{s} }
func (s *Store) LimitRepo() repository.CategoryLimitRepository   { return limitRepo{s} }
func (s *Store) StockRepo() repository.ItemStockRepository       { return stockRepo{s} }
func (s *Store) DailyRepo() repository.DailyStockRepository      { return dailyRepo{s} }
func (s *Store) BillRepo() repository.BillRepository             { return billRepo{s} }
func (s *Store) SequenceRepo() repository.BillSequenceRepository { return sequenceRepo{s} }

// Tx transacción abierta; implementa billing.BillingTx.
type Tx struct {
	s *Store
}

func (t *Tx) Stock() repository.ItemStockRepository        { return stockRepo{t.s} }
func (t *Tx) DailyStock() repository.DailyStockRepository  { return dailyRepo{t.s} }
func (t *Tx) Bills() repository.BillRepository             { return billRepo{t.s} }
func (t *Tx) Sequences() repository.BillSequenceRepository { return sequenceRepo{t.s} }

// Savepoint revierte solo lo hecho por fn si falla.
func (t *Tx) Savepoint(_ context.Context, fn func() error) error {
	t.s.mu.Lock()
	snap := t.s.st.clone()
	t.s.mu.Unlock()
	if err := fn(); err != nil {
		t.s.mu.Lock()
		t.s.st = snap
		t.s.mu.Unlock()
		return err
	}
	return nil
}

type itemRepo struct{ s *Store }

func (r itemRepo) GetByCode(_ context.Context, code, mode string) (*entity.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[code]
	if !ok {
		return nil, nil
	}
	it.Mode = mode
	return &it, nil
}

func (r itemRepo) GetByCodes(ctx context.Context, codes []string, mode string) (map[string]*entity.Item, error) {
	out := make(map[string]*entity.Item, len(codes))
	for _, c := range codes {
		it, _ := r.GetByCode(ctx, c, mode)
		if it != nil {
			out[c] = it
		}
	}
	return out, nil
}

type limitRepo struct{ s *Store }

func (r limitRepo) GetByCompany(_ context.Context, companyID string) (entity.CategoryLimits, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.limits[companyID]
	if !ok {
		return entity.CategoryLimits{CompanyID: companyID}, nil
	}
	return l, nil
}

type stockRepo struct{ s *Store }

func (r stockRepo) Get(_ context.Context, companyID, finYearID, itemCode string) (*entity.ItemStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.st.stock[stockKey(companyID, finYearID, itemCode)]
	if !ok {
		return nil, nil
	}
	return &entity.ItemStock{CompanyID: companyID, FinYearID: finYearID, ItemCode: itemCode, CurrentStock: q}, nil
}

// GetForUpdate las transacciones ya están serializadas; solo registra la llamada y sus fallas.
func (r stockRepo) GetForUpdate(ctx context.Context, companyID, finYearID, itemCode string) (*entity.ItemStock, error) {
	r.s.mu.Lock()
	err := r.s.fault(OpStockLock)
	r.s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, companyID, finYearID, itemCode)
}

func (r stockRepo) AddDelta(_ context.Context, companyID, finYearID, itemCode string, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpStockAdd); err != nil {
		return err
	}
	k := stockKey(companyID, finYearID, itemCode)
	r.s.st.stock[k] = r.s.st.stock[k].Add(delta)
	return nil
}

type dailyRepo struct{ s *Store }

func (r dailyRepo) GetMonthForUpdate(_ context.Context, companyID, itemCode string, month time.Time) (*entity.DailyStockMonth, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpDailyLock); err != nil {
		return nil, err
	}
	k := monthKey(companyID, itemCode, month)
	m, ok := r.s.st.daily[k]
	if !ok {
		m = *entity.NewDailyStockMonth(companyID, itemCode, month)
		r.s.st.daily[k] = m
	}
	return &m, nil
}

func (r dailyRepo) GetMonth(_ context.Context, companyID, itemCode string, month time.Time) (*entity.DailyStockMonth, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.st.daily[monthKey(companyID, itemCode, month)]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r dailyRepo) SaveDays(_ context.Context, m *entity.DailyStockMonth, from, to int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := monthKey(m.CompanyID, m.ItemCode, m.Month)
	cur, ok := r.s.st.daily[k]
	if !ok {
		cur = *entity.NewDailyStockMonth(m.CompanyID, m.ItemCode, m.Month)
	}
	for d := from; d <= to; d++ {
		cur.Days[d-1] = m.Days[d-1]
	}
	r.s.st.daily[k] = cur
	return nil
}

type billRepo struct{ s *Store }

func (r billRepo) Create(_ context.Context, b *entity.Bill) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpBillCreate); err != nil {
		return err
	}
	k := b.CompanyID + "|" + b.BillNo
	if _, dup := r.s.st.bills[k]; dup {
		return domain.ErrDuplicate
	}
	h := *b
	h.Lines = nil
	r.s.st.bills[k] = h
	return nil
}

func (r billRepo) CreateLine(_ context.Context, l *entity.BillLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpLineCreate); err != nil {
		return err
	}
	r.s.st.lines[l.BillID] = append(r.s.st.lines[l.BillID], *l)
	return nil
}

func (r billRepo) GetByNumber(_ context.Context, companyID, billNo string) (*entity.Bill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.st.bills[companyID+"|"+billNo]
	if !ok {
		return nil, nil
	}
	b.Lines = append([]entity.BillLine(nil), r.s.st.lines[b.ID]...)
	return &b, nil
}

type sequenceRepo struct{ s *Store }

func (r sequenceRepo) Next(_ context.Context, companyID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault(OpSequenceNxt); err != nil {
		return 0, err
	}
	if _, ok := r.s.st.seq[companyID]; !ok {
		r.s.st.seq[companyID] = r.s.maxSuffix(companyID)
	}
	r.s.st.seq[companyID]++
	return r.s.st.seq[companyID], nil
}

func (r sequenceRepo) Resync(_ context.Context, companyID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if top := r.s.maxSuffix(companyID); top > r.s.st.seq[companyID] {
		r.s.st.seq[companyID] = top
	}
	return nil
}

// maxSuffix mayor sufijo numérico entre las facturas de la empresa. Se llama con mu tomado.
func (s *Store) maxSuffix(companyID string) int64 {
	var top int64
	for _, b := range s.st.bills {
		if b.CompanyID != companyID {
			continue
		}
		m := trailingDigits.FindStringSubmatch(b.BillNo)
		if m == nil {
			continue
		}
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil && n > top {
			top = n
		}
	}
	return top
}

func stockKey(companyID, finYearID, itemCode string) string {
	return companyID + "|" + finYearID + "|" + itemCode
}

func monthKey(companyID, itemCode string, month time.Time) string {
	return companyID + "|" + itemCode + "|" + entity.MonthStart(month).Format("2006-01")
}
