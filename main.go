package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"condo-billing/internal/audit"
	"condo-billing/internal/auth"
	chargeapp "condo-billing/internal/charges/application"
	chargerepo "condo-billing/internal/charges/infrastructure/postgres"
	chargeinterfaces "condo-billing/internal/charges/interfaces"
	"condo-billing/internal/config"
	"condo-billing/internal/eventing"
	eventingrepo "condo-billing/internal/eventing/infrastructure/postgres"
	"condo-billing/internal/observability/logging"
	"condo-billing/internal/observability/metrics"
)

const (
	dispatchBatchSize  = 100
	processedRetention = 30 * 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	logger := logging.New(cfg.AppName, cfg.LogLevel, nil)
	if err != nil {
		logger.WithError(err).Fatal("config error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("db open error")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.WithError(err).Fatal("db ping error")
	}

	metrics.Init(nil)
	buildingRepo := chargerepo.NewBuildingRepository(db)
	unitRepo := chargerepo.NewUnitRepository(db)
	auditRepo := audit.NewRepository(db)

	bus := eventing.NewInMemoryBus()
	registry := eventing.NewRegistry(chargeapp.ChargeIssued{}, chargeapp.ChargeVoided{})
	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore, err := eventingrepo.NewProcessedStore(db)
	if err != nil {
		logger.WithError(err).Fatal("processed store error")
	}
	dispatcher := eventing.NewDispatcher(bus, outboxStore, registry, logger)
	events := eventing.NewPublisher(outboxStore, dispatcher, cfg.TenantID, logger)
	announcementRepo := chargerepo.NewAnnouncementRepository(db, chargerepo.WithOutbox(events, outboxStore))
	publisher := chargeinterfaces.NewOutboxPublisher(events)
	chargeinterfaces.NewNotificationConsumer(logger).Subscribe(bus, processedStore)

	chargeService, err := chargeapp.NewChargeService(
		unitRepo,
		announcementRepo,
		publisher,
		cfg.TenantID,
		chargeapp.WithSettings(func(buildingID string) chargeapp.BuildingSettings {
			settings := cfg.ForBuilding(buildingID)
			return chargeapp.BuildingSettings{Tolerance: settings.Tolerance, Currency: settings.Currency}
		}),
		chargeapp.WithLogger(logger),
	)
	if err != nil {
		logger.WithError(err).Fatal("charge service error")
	}
	chargeHandler, err := chargeinterfaces.NewHandler(chargeService, buildingRepo, auditRepo, cfg.TenantID, logger)
	if err != nil {
		logger.WithError(err).Fatal("charge handler error")
	}

	go runOutboxLoop(ctx, dispatcher, processedStore, cfg.DispatchInterval, logger)

	router := mux.NewRouter()
	chargeHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy, logger)
	co := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           co.Handler(logging.AccessLog(authMiddleware.Wrap(router), logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("http shutdown error")
		}
	}()

	logger.WithField("addr", cfg.HTTPAddr).Info("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("http server error")
	}
}

func runOutboxLoop(ctx context.Context, dispatcher *eventing.Dispatcher, processed *eventingrepo.ProcessedStore, interval time.Duration, logger logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastPurge := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			if err := dispatcher.Dispatch(ctx, dispatchBatchSize); err != nil {
				logger.WithError(err).Warn("outbox dispatch error")
			}
			if tick.Sub(lastPurge) < time.Hour {
				continue
			}
			lastPurge = tick
			removed, err := processed.PurgeBefore(ctx, tick.Add(-processedRetention))
			if err != nil {
				logger.WithError(err).Warn("processed events purge error")
				continue
			}
			if removed > 0 {
				logger.WithField("removed", removed).Info("processed events purged")
			}
		}
	}
}
