package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/farmgatehq/farmgate-backend/api/routes"
	"github.com/farmgatehq/farmgate-backend/internal/authn"
	"github.com/farmgatehq/farmgate-backend/internal/disputes"
	"github.com/farmgatehq/farmgate-backend/internal/listings"
	"github.com/farmgatehq/farmgate-backend/internal/logistics"
	"github.com/farmgatehq/farmgate-backend/internal/market"
	"github.com/farmgatehq/farmgate-backend/internal/messages"
	"github.com/farmgatehq/farmgate-backend/internal/negotiations"
	"github.com/farmgatehq/farmgate-backend/internal/orders"
	"github.com/farmgatehq/farmgate-backend/internal/payments"
	"github.com/farmgatehq/farmgate-backend/internal/products"
	"github.com/farmgatehq/farmgate-backend/internal/profiles"
	"github.com/farmgatehq/farmgate-backend/internal/provenance"
	"github.com/farmgatehq/farmgate-backend/internal/reviews"
	"github.com/farmgatehq/farmgate-backend/internal/tasks"
	"github.com/farmgatehq/farmgate-backend/internal/trust"
	"github.com/farmgatehq/farmgate-backend/pkg/auth/session"
	"github.com/farmgatehq/farmgate-backend/pkg/config"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
	"github.com/farmgatehq/farmgate-backend/pkg/metrics"
	"github.com/farmgatehq/farmgate-backend/pkg/migrate"
	"github.com/farmgatehq/farmgate-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	profileRepo := profiles.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	listingRepo := listings.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	paymentRepo := payments.NewRepository(gormDB)
	taskRepo := tasks.NewRepository(gormDB)
	negotiationRepo := negotiations.NewRepository(gormDB)
	reviewRepo := reviews.NewRepository(gormDB)
	certificationRepo := trust.NewCertificationRepository(gormDB)
	qualityReportRepo := trust.NewQualityReportRepository(gormDB)
	shipmentRepo := logistics.NewShipmentRepository(gormDB)
	coldChainRepo := logistics.NewColdChainLogRepository(gormDB)
	inventoryRepo := logistics.NewInventoryRepository(gormDB)
	messageRepo := messages.NewRepository(gormDB)
	disputeRepo := disputes.NewRepository(gormDB)
	provenanceRepo := provenance.NewRepository(gormDB)

	svcs := routes.Services{}
	wire := func(name string, err error) {
		if err != nil {
			logg.Error(context.Background(), "failed to create "+name+" service", err)
			os.Exit(1)
		}
	}

	svcs.Profiles, err = profiles.NewService(profileRepo, logg)
	wire("profile", err)
	svcs.Products, err = products.NewService(productRepo, logg)
	wire("product", err)
	svcs.Listings, err = listings.NewService(listingRepo, logg)
	wire("listing", err)
	svcs.Orders, err = orders.NewService(orderRepo, dbClient, logg)
	wire("order", err)
	svcs.Payments, err = payments.NewService(paymentRepo, logg)
	wire("payment", err)
	svcs.Tasks, err = tasks.NewService(taskRepo, logg)
	wire("task", err)
	svcs.Negotiations, err = negotiations.NewService(negotiationRepo, listingRepo, cfg.Negotiation, logg)
	wire("negotiation", err)
	svcs.Reviews, err = reviews.NewService(reviewRepo, logg)
	wire("review", err)
	svcs.Trust, err = trust.NewService(certificationRepo, qualityReportRepo, listingRepo, logg)
	wire("trust", err)
	svcs.Logistics, err = logistics.NewService(shipmentRepo, coldChainRepo, inventoryRepo, cfg.ColdChain, logg)
	wire("logistics", err)
	svcs.Messages, err = messages.NewService(messageRepo, logg)
	wire("message", err)
	svcs.Disputes, err = disputes.NewService(disputeRepo, orderRepo, listingRepo, logg)
	wire("dispute", err)
	svcs.Provenance, err = provenance.NewService(provenance.NewDemoLedger(), provenanceRepo, logg)
	wire("provenance", err)
	svcs.Market, err = market.NewService(market.DemoPriceFeed{}, market.DemoWeatherProvider{}, market.DemoQualityGrader{}, redisClient, cfg.Market, logg)
	wire("market", err)
	svcs.Auth, err = authn.NewService(svcs.Profiles, profileRepo, sessionManager, redisClient, cfg.JWT, cfg.Password, cfg.AuthRateLimit, logg)
	wire("auth", err)

	registry := prometheus.NewRegistry()
	requestMetrics := metrics.NewRequestMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, requestMetrics, registry, dbClient, redisClient, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		drainCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
