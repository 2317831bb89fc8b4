package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Licores-api/internal/application/billing"
	"github.com/jhoicas/Licores-api/internal/application/inventory"
	"github.com/jhoicas/Licores-api/internal/domain/liquor"
	"github.com/jhoicas/Licores-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Licores-api/internal/infrastructure/redislock"
	httpRouter "github.com/jhoicas/Licores-api/internal/interfaces/http"
	"github.com/jhoicas/Licores-api/pkg/config"
	"github.com/jhoicas/Licores-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewItemRepository(pool)
	limitRepo := postgres.NewCategoryLimitRepository(pool)
	billRepo := postgres.NewBillRepository(pool)
	stockRepo := postgres.NewItemStockRepository(pool)
	dailyRepo := postgres.NewDailyStockRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Bloqueo distribuido opcional: sin REDIS_URL solo se serializa dentro del proceso.
	var locker billing.BatchLocker
	if cfg.Redis.URL != "" {
		rdb, err := redislock.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = redislock.New(rdb, cfg.Redis.LockTTL, log.Component("redislock"))
	}

	ledgerUC := inventory.NewStockLedgerUseCase(txRunner, dailyRepo, stockRepo, inventory.LedgerConfig{
		MaxRetries: cfg.Ledger.MaxRetries,
		Backoff:    cfg.Ledger.Backoff,
	}, log.Component("stock_ledger"))

	materializer := billing.NewMaterializer(ledgerUC, billing.NumberingConfig{
		Prefix:    cfg.Billing.Prefix,
		MinDigits: cfg.Billing.MinDigits,
	})
	generateUC := billing.NewGenerateBillsUseCase(
		txRunner, itemRepo, limitRepo, billRepo, materializer, locker,
		billing.GenerateConfig{
			Pack: liquor.Options{
				MaxIterations: cfg.Billing.MaxIterations,
				ForcedChunk:   cfg.Billing.ForcedChunk,
			},
			EnforceStock: cfg.Billing.EnforceStock,
		},
		log.Component("billing"),
	)
	itemInfoUC := billing.NewItemInfoUseCase(itemRepo, limitRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // un rango de un año genera miles de facturas
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Licores API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db_unavailable", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		GenerateBills: generateUC,
		ItemInfo:      itemInfoUC,
		Ledger:        ledgerUC,
		JWTSecret:     cfg.JWT.Secret,
		Log:           log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
