package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	bankingapp "github.com/FoleyBridge-Solutions/nestogy-billing/internal/application/banking"
	billingapp "github.com/FoleyBridge-Solutions/nestogy-billing/internal/application/billing"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/infrastructure/config"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/infrastructure/logger"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/infrastructure/persistence"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/interfaces/http/handler"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/interfaces/http/middleware"
	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Nestogy Billing",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	applicationRepo := persistence.NewGormPaymentApplicationRepository(db.DB)
	creditRepo := persistence.NewGormClientCreditRepository(db.DB)
	bankTransactionRepo := persistence.NewGormBankTransactionRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Initialize application services
	billingService := billingapp.NewBillingService(invoiceRepo, paymentRepo, creditRepo, uow, log)
	allocationService := billingapp.NewAllocationService(invoiceRepo, paymentRepo, applicationRepo, creditRepo, uow, log)
	transactionService := bankingapp.NewTransactionService(bankTransactionRepo, expenseRepo, uow, log)
	reconciliationService := bankingapp.NewReconciliationService(bankTransactionRepo, expenseRepo, paymentRepo, uow, log)

	// Initialize HTTP engine
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
	)
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Register routes
	router.NewRouter(engine, router.WithAPIMiddleware(middleware.RequireTenant())).
		RegisterPublic(handler.NewSystemHandler(cfg.App.Name, db.Ping)).
		Register(handler.NewInvoiceHandler(billingService)).
		Register(handler.NewPaymentHandler(billingService, allocationService)).
		Register(handler.NewCreditHandler(billingService, allocationService)).
		Register(handler.NewBankingHandler(transactionService, reconciliationService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Background overdue sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.Billing.OverdueSweepEnabled {
		go runOverdueSweeper(sweepCtx, billingService, cfg.Billing.OverdueSweepInterval, log)
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

// runOverdueSweeper periodically flags past-due invoices across all tenants
func runOverdueSweeper(ctx context.Context, billing *billingapp.BillingService, interval time.Duration, log *zap.Logger) {
	log.Info("Overdue sweep enabled", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flagged, err := billing.SweepOverdueAcrossTenants(ctx)
			if err != nil {
				log.Error("Overdue sweep failed", zap.Error(err))
				continue
			}
			if flagged > 0 {
				log.Info("Overdue sweep flagged invoices", zap.Int("count", flagged))
			}
		}
	}
}
