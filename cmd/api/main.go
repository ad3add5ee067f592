// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/config"
	"github.com/your-org/nanostore-kiosk/internal/domain/cart"
	"github.com/your-org/nanostore-kiosk/internal/domain/catalog"
	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
	"github.com/your-org/nanostore-kiosk/internal/domain/door"
	"github.com/your-org/nanostore-kiosk/internal/domain/order"
	"github.com/your-org/nanostore-kiosk/internal/domain/session"
	"github.com/your-org/nanostore-kiosk/internal/domain/settings"
	"github.com/your-org/nanostore-kiosk/internal/infrastructure/database/postgres"
	"github.com/your-org/nanostore-kiosk/internal/infrastructure/database/redis"
	"github.com/your-org/nanostore-kiosk/internal/infrastructure/device"
	"github.com/your-org/nanostore-kiosk/internal/infrastructure/iqtool"
	"github.com/your-org/nanostore-kiosk/internal/infrastructure/ofn"
	"github.com/your-org/nanostore-kiosk/internal/interfaces/http"
	"github.com/your-org/nanostore-kiosk/internal/interfaces/ws"
	"github.com/your-org/nanostore-kiosk/internal/pkg/logger"
	"github.com/your-org/nanostore-kiosk/internal/pkg/metrics"
	"github.com/your-org/nanostore-kiosk/internal/pkg/pdf"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg)
	logger.Infof("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	// prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	m := metrics.New()
	checks := map[string]http.HealthCheck{}

	// The database is optional: without it settings come from IQ-Tool and
	// the environment, and door passages are not logged.
	var db *postgres.DB
	if conn, err := postgres.NewConnection(cfg, logger); err != nil {
		logger.WithError(err).Warn("⚠️ Database unavailable, continuing without settings table and door log")
	} else {
		db = conn
		defer db.Close()
		checks["database"] = db.Health
		migrate(cfg, db, logger)
	}

	// Redis is optional too: it caches the OFN admin session and backs rate limiting
	var rc *redis.Client
	if conn, err := redis.NewConnection(cfg, logger); err != nil {
		logger.WithError(err).Warn("⚠️ Redis unavailable, admin sessions are not cached")
	} else {
		rc = conn
		defer rc.Close()
		checks["redis"] = rc.Health
	}

	iq := iqtool.NewClient(cfg.IQTool, logger)

	// display texts come from the shared sources only; env values never reach clients
	sources := []settings.Source{iq}
	if db != nil {
		sources = append(sources, settings.NewStore(db.GetDB()))
	}
	confirmations := settings.NewPublic(settings.NewChain(logger, sources...))

	sources = append(sources[:len(sources):len(sources)], settings.Static{
		settings.KeyOFNAPIKey:       cfg.OFN.APIKey,
		settings.KeyDistributorID:   cfg.OFN.DistributorID,
		settings.KeyOrderCycleID:    cfg.OFN.OrderCycleID,
		settings.KeyPaymentMethodID: cfg.OFN.PaymentMethodID,
	})
	chain := settings.NewChain(logger, sources...)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	apiKey := chain.GetOr(ctx, settings.KeyOFNAPIKey, "")
	shop := order.Shop{
		DistributorID:   chain.GetOr(ctx, settings.KeyDistributorID, ""),
		OrderCycleID:    chain.GetOr(ctx, settings.KeyOrderCycleID, ""),
		PaymentMethodID: chain.GetOr(ctx, settings.KeyPaymentMethodID, ""),
	}
	idleTimeout := chain.Duration(ctx, settings.KeySessionIdleTimeout, cfg.Kiosk.IdleTimeout)
	relayPulse := chain.Duration(ctx, settings.KeyRelayPulse, cfg.Kiosk.RelayPulse)
	cancel()

	logger.WithFields(logrus.Fields{
		"distributor_id":    shop.DistributorID,
		"order_cycle_id":    shop.OrderCycleID,
		"payment_method_id": shop.PaymentMethodID,
		"idle_timeout":      idleTimeout.String(),
		"relay_pulse":       relayPulse.String(),
	}).Info("⚙️ Settings resolved")

	ofnClient, err := ofn.NewClient(cfg.OFN, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create OFN client")
	}

	catalogService := catalog.NewService(ofnClient, ofnClient.InstanceURL(), logger)
	customers := customer.NewDirectory(ofnClient, logger)

	var doorLog door.Repository
	if db != nil {
		doorLog = door.NewGormRepository(db.GetDB())
	}
	relay := device.NewRelay(cfg.Kiosk.RelayOnCommand, cfg.Kiosk.RelayOffCommand, logger)
	doorService := door.NewService(relay, doorLog, customers, logger)

	var adminSessions order.SessionCache
	if rc != nil {
		adminSessions = redis.NewAdminSessionCache(rc, cfg.OFN.SessionTTL)
	}

	var invoicer order.Invoicer
	var receipts *pdf.Service
	switch cfg.Kiosk.InvoiceMode {
	case "webhook":
		invoicer = iq
	case "pdf":
		receipts = pdf.NewService(cfg, logger)
		invoicer = receipts
	}

	pipeline := order.NewPipeline(ofnClient, adminSessions, invoicer, logger, m)

	registry := session.NewRegistry(cart.NewStore(), m)
	sweeper := session.NewSweeper(registry, pipeline, session.SweeperConfig{
		Interval:    cfg.Kiosk.SweepInterval,
		IdleTimeout: idleTimeout,
		Shop:        shop,
	}, logger, m)
	sweeper.Start(context.Background())

	dispatcher := ws.NewDispatcher(ws.Deps{
		Registry:  registry,
		Catalog:   catalogService,
		Customers: customers,
		Checkout:  pipeline,
		Door:      doorService,
		Cards:     device.NewCardReader(cfg.Kiosk.CardReader, logger),
		Scale:     device.NewScale(cfg.Kiosk.ScaleVID, cfg.Kiosk.ScalePID, cfg.Kiosk.ScaleBaudRate, cfg.Kiosk.ScaleReadWait, logger),
		Settings:  confirmations,
	}, ws.Options{
		APIKey:     apiKey,
		Shop:       shop,
		RelayPulse: relayPulse,
	}, logger, m)

	options := http.Options{
		Receipts: receipts,
		Checks:   checks,
	}
	if rc != nil {
		options.Redis = rc.Redis
	}
	server := http.NewServer(cfg, logger, dispatcher, registry, m, options)

	logger.Info("✅ All systems operational!")

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("👋 Shutting down gracefully...")

	// Give running checkouts 30 seconds to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Failed to shutdown HTTP server gracefully")
	}
	sweeper.Stop()

	logger.Info("✅ Server shutdown completed")
}

// migrate prepares the settings table and door log. Failures are logged and
// leave the database usable for whatever already exists.
func migrate(cfg *config.Config, db *postgres.DB, logger *logrus.Logger) {
	migration := postgres.NewMigration(db.GetDB(), logger)

	if err := migration.RunAutoMigrations(); err != nil {
		logger.WithError(err).Warn("Database migration failed")
		return
	}

	if err := migration.CreateIndexes(); err != nil {
		logger.WithError(err).Warn("Index creation failed")
	}

	if cfg.IsDevelopment() {
		err := migration.SeedDefaults(map[string]string{
			settings.KeySessionIdleTimeout: cfg.Kiosk.IdleTimeout.String(),
			settings.KeyRelayPulse:         cfg.Kiosk.RelayPulse.String(),
		})
		if err != nil {
			logger.WithError(err).Warn("Seeding default settings failed")
		}
	}
}
