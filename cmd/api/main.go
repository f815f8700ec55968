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
	"github.com/itadmit/ipalsam-sub000/internal/application/audit"
	"github.com/itadmit/ipalsam-sub000/internal/application/auth"
	"github.com/itadmit/ipalsam-sub000/internal/application/catalog"
	"github.com/itadmit/ipalsam-sub000/internal/application/checkout"
	"github.com/itadmit/ipalsam-sub000/internal/application/departments"
	"github.com/itadmit/ipalsam-sub000/internal/application/receipts"
	"github.com/itadmit/ipalsam-sub000/internal/application/requests"
	infrapdf "github.com/itadmit/ipalsam-sub000/internal/infrastructure/pdf"
	"github.com/itadmit/ipalsam-sub000/internal/infrastructure/postgres"
	httpRouter "github.com/itadmit/ipalsam-sub000/internal/interfaces/http"
	"github.com/itadmit/ipalsam-sub000/pkg/config"
	"github.com/itadmit/ipalsam-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection")
	}
	defer pool.Close()

	itemRepo := postgres.NewItemTypeRepository(pool)
	unitRepo := postgres.NewItemUnitRepository(pool)
	reqRepo := postgres.NewRequestRepository(pool)
	movRepo := postgres.NewMovementRepository(pool)
	sigRepo := postgres.NewSignatureRepository(pool)
	depRepo := postgres.NewDepartmentRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Audit writes run outside the engine transactions: a failed audit
	// insert is logged but never rolls back the primary operation.
	auditEmitter := audit.NewEmitter(postgres.NewAuditSink(pool), log)

	catalogUC := catalog.NewCatalogUseCase(txRunner, itemRepo, unitRepo, movRepo, depRepo, auditEmitter)
	requestUC := requests.NewRequestUseCase(txRunner, itemRepo, unitRepo, reqRepo, depRepo, auditEmitter)
	checkoutUC := checkout.NewGroupCheckoutUseCase(itemRepo, unitRepo, depRepo, requestUC)
	departmentUC := departments.NewDepartmentUseCase(depRepo, auditEmitter)
	receiptUC := receipts.NewReceiptUseCase(reqRepo, itemRepo, unitRepo, sigRepo, userRepo, infrapdf.NewMarotoReceiptGenerator())
	authUC := auth.NewAuthUseCase(userRepo, depRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI locally: http://localhost:<port>/docs. The JSON spec is
	// generated by `swag init`, so only mount the UI when it exists.
	const swaggerSpec = "./docs/swagger.json"
	if _, err := os.Stat(swaggerSpec); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerSpec,
			Path:     "docs",
			Title:    "Ipalsam API",
		}))
	} else {
		log.Warn().Str("path", swaggerSpec).Msg("swagger spec not found, docs UI disabled")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		DepartmentUC: departmentUC,
		CatalogUC:    catalogUC,
		RequestUC:    requestUC,
		CheckoutUC:   checkoutUC,
		ReceiptUC:    receiptUC,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, closing server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
