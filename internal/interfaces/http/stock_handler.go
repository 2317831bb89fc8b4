package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Licores-api/internal/application/dto"
	"github.com/jhoicas/Licores-api/internal/application/inventory"
	"github.com/jhoicas/Licores-api/internal/domain"
	"github.com/jhoicas/Licores-api/internal/domain/entity"
)

// StockHandler compras y libro diario de stock (protegido).
type StockHandler struct {
	uc *inventory.StockLedgerUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockLedgerUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// RecordPurchase POST /api/stock/purchases
func (h *StockHandler) RecordPurchase(c *fiber.Ctx) error {
	rc := RequestContext(c)
	if rc.CompanyID == "" {
		return unauthorized(c)
	}
	var in dto.RecordPurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	err = h.uc.RecordPurchase(c.UserContext(), rc, inventory.PurchaseInput{ItemCode: in.ItemCode, Date: date, Qty: in.Quantity})
	if err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DailyLedger libro del mes (month=YYYY-MM, por defecto el mes en curso) más el stock actual.
// GET /api/stock/daily/:code?month=2024-06
func (h *StockHandler) DailyLedger(c *fiber.Ctx) error {
	rc := RequestContext(c)
	if rc.CompanyID == "" {
		return unauthorized(c)
	}
	month := time.Now().UTC()
	if q := c.Query("month"); q != "" {
		m, err := time.Parse("2006-01", q)
		if err != nil {
			return writeError(c, domain.ErrInvalidInput)
		}
		month = m
	}
	code := c.Params("code")
	ledger, err := h.uc.GetDailyLedger(c.UserContext(), rc.CompanyID, code, month)
	if err != nil {
		return writeError(c, err)
	}
	current, err := h.uc.GetItemStock(c.UserContext(), rc.CompanyID, rc.FinYearID, code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toDailyStockResponse(ledger, current))
}

func toDailyStockResponse(m *entity.DailyStockMonth, current decimal.Decimal) dto.DailyStockResponse {
	out := dto.DailyStockResponse{
		ItemCode:     m.ItemCode,
		Month:        m.Month.Format("2006-01"),
		CurrentStock: current,
		Days:         make([]dto.DayStockDTO, 0, m.DaysIn()),
	}
	for d := 1; d <= m.DaysIn(); d++ {
		ds := m.Day(d)
		out.Days = append(out.Days, dto.DayStockDTO{
			Day: d, Opening: ds.Opening, Purchase: ds.Purchase, Sales: ds.Sales, Adjustment: ds.Adjustment, Closing: ds.Closing,
		})
	}
	return out
}
