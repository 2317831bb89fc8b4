package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Licores-api/internal/application/billing"
	"github.com/jhoicas/Licores-api/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	GenerateBills *billing.GenerateBillsUseCase
	ItemInfo      *billing.ItemInfoUseCase
	Ledger        *inventory.StockLedgerUseCase
	JWTSecret     string
	Log           zerolog.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", RequestLogger(deps.Log), AuthMiddleware(deps.JWTSecret))

	bills := api.Group("/bills")
	billHandler := NewBillHandler(deps.GenerateBills)
	bills.Post("/generate", RequireRole(RoleAdmin, RoleFacturador), billHandler.Generate)
	bills.Post("/next-number", RequireRole(RoleAdmin, RoleFacturador), billHandler.NextNumber)
	bills.Get("/:billNo", billHandler.GetByNumber)

	catalogHandler := NewCatalogHandler(deps.ItemInfo)
	api.Get("/category-limits", catalogHandler.Limits)
	api.Get("/items/:code/classification", catalogHandler.Classification)

	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger)
	stock.Post("/purchases", RequireRole(RoleAdmin, RoleBodeguero), stockHandler.RecordPurchase)
	stock.Get("/daily/:code", stockHandler.DailyLedger)
}

// RequestLogger registra cada petición con su status y duración.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("company_id", GetCompanyID(c)).
			Msg("http")
		return err
	}
}
