package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Licores-api/internal/application/billing"
)

// CatalogHandler consultas de límites y clasificación de ítems.
type CatalogHandler struct {
	uc *billing.ItemInfoUseCase
}

func NewCatalogHandler(uc *billing.ItemInfoUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// Limits GET /api/category-limits
func (h *CatalogHandler) Limits(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.GetCategoryLimits(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Classification categoría y tamaño de un ítem; mode por query (F por defecto).
// GET /api/items/:code/classification?mode=F
func (h *CatalogHandler) Classification(c *fiber.Ctx) error {
	mode := strings.ToUpper(c.Query("mode"))
	out, err := h.uc.DescribeItem(c.UserContext(), c.Params("code"), mode)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
