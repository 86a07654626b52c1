package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/zatca-api/internal/application/einvoice"
	"github.com/jhoicas/zatca-api/internal/domain/repository"
	"github.com/jhoicas/zatca-api/internal/domain/zatca"
	"github.com/jhoicas/zatca-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/zatca-api/internal/infrastructure/pdf"
	"github.com/jhoicas/zatca-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/zatca-api/internal/infrastructure/redis"
	infzatca "github.com/jhoicas/zatca-api/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-api/internal/infrastructure/zatca/signer"
	httpRouter "github.com/jhoicas/zatca-api/internal/interfaces/http"
	"github.com/jhoicas/zatca-api/pkg/config"
	"github.com/jhoicas/zatca-api/pkg/logger"
	pkgzatca "github.com/jhoicas/zatca-api/pkg/zatca"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()

	loc, err := cfg.ZATCA.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria ZATCA")
	}
	defaults := zatca.Defaults{
		Currency:                   cfg.ZATCA.DefaultCurrency,
		UnitCode:                   cfg.ZATCA.DefaultUnitCode,
		Country:                    cfg.ZATCA.DefaultCountry,
		InitialPreviousInvoiceHash: cfg.ZATCA.InitialPIH,
		Location:                   loc,
	}

	// Sello fase 2: solo si está habilitado y hay certificado.
	var stampSigner pkgzatca.Signer
	var cert *tls.Certificate
	if cfg.ZATCA.StampEnabled {
		c, err := signer.Load(cfg.ZATCA.CertPath, cfg.ZATCA.CertKeyPath, cfg.ZATCA.CertPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("cargar certificado ZATCA")
		}
		if len(c.Certificate) == 0 {
			log.Fatal().Msg("ZATCA_STAMP_ENABLED requiere ZATCA_CERT_PATH")
		}
		cert = &c
		stampSigner = signer.NewDigitalSignatureService()
	}

	// Registro de UUID de sesión: Redis si hay REDIS_ADDR, si no en memoria.
	var uuids zatca.UUIDRegistry = zatca.NewMemoryUUIDRegistry(cfg.ZATCA.UUIDSessionTTL)
	if cfg.Redis.Addr != "" {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		uuids = infraredis.NewUUIDRegistry(client, cfg.ZATCA.UUIDSessionTTL)
	}

	// Cadena de facturas (PIH / secuencia)
	var txRunner einvoice.ChainTxRunner
	var readRepo repository.EInvoiceRepository
	switch cfg.App.Storage {
	case "memory":
		store := memory.NewChainStore()
		txRunner, readRepo = store, store.Invoices()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Str("dsn", postgres.Describe(cfg.DB)).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner, readRepo = postgres.NewTxRunner(pool), postgres.NewEInvoiceRepository(pool)
	}

	generateUC := einvoice.NewGenerateUseCase(
		infzatca.NewXMLBuilderService(),
		infzatca.NewJSONBuilderService(),
		zatca.NewHasher(),
		stampSigner,
		uuids,
		einvoice.Config{
			Defaults:         defaults,
			Certificate:      cert,
			BatchConcurrency: cfg.ZATCA.BatchConcurrency,
		},
		log,
	)
	issueUC := einvoice.NewIssueUseCase(generateUC, txRunner)

	// PDF: representación impresa con el QR TLV
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	queryUC := einvoice.NewQueryUseCase(readRepo, pdfGenerator, defaults)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    16 * 1024 * 1024,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ZATCA e-Invoicing API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "stamping": cert != nil})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Generate: generateUC,
		Issue:    issueUC,
		Query:    queryUC,
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
