package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Licores-api/internal/application/billing"
	"github.com/jhoicas/Licores-api/internal/application/dto"
)

// BillHandler generación y consulta de facturas (protegido).
type BillHandler struct {
	uc *billing.GenerateBillsUseCase
}

// NewBillHandler construye el handler.
func NewBillHandler(uc *billing.GenerateBillsUseCase) *BillHandler {
	return &BillHandler{uc: uc}
}

// Generate reparte las ventas del rango en facturas diarias dentro de los límites de volumen.
// POST /api/bills/generate
func (h *BillHandler) Generate(c *fiber.Ctx) error {
	rc := RequestContext(c)
	if rc.CompanyID == "" || rc.UserID == "" {
		return unauthorized(c)
	}
	var in dto.GenerateBillsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.GenerateBills(c.UserContext(), rc, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByNumber GET /api/bills/:billNo
func (h *BillHandler) GetByNumber(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	bill, err := h.uc.GetBill(c.UserContext(), companyID, c.Params("billNo"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(bill)
}

// NextNumber reserva un número de factura.
// POST /api/bills/next-number
func (h *BillHandler) NextNumber(c *fiber.Ctx) error {
	rc := RequestContext(c)
	if rc.CompanyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.NextBillNumber(c.UserContext(), rc)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
