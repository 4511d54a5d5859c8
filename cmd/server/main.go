package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/seu-repo/ocpp-csms/internal/adapter/cache"
	"github.com/seu-repo/ocpp-csms/internal/adapter/queue"
	"github.com/seu-repo/ocpp-csms/internal/adapter/storage/postgres"
	"github.com/seu-repo/ocpp-csms/internal/adapter/vault"
	"github.com/seu-repo/ocpp-csms/internal/command"
	"github.com/seu-repo/ocpp-csms/internal/domain"
	"github.com/seu-repo/ocpp-csms/internal/history"
	"github.com/seu-repo/ocpp-csms/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/ocpp-csms/internal/observability/telemetry"
	"github.com/seu-repo/ocpp-csms/internal/ocpp"
	"github.com/seu-repo/ocpp-csms/internal/ocpp/transport"
	"github.com/seu-repo/ocpp-csms/internal/ports"
	"github.com/seu-repo/ocpp-csms/internal/registry"
	"github.com/seu-repo/ocpp-csms/internal/service/admin"
	"github.com/seu-repo/ocpp-csms/internal/service/auth"
	"github.com/seu-repo/ocpp-csms/internal/service/charger"
	"github.com/seu-repo/ocpp-csms/internal/service/health"
	"github.com/seu-repo/ocpp-csms/internal/service/reservation"
	"github.com/seu-repo/ocpp-csms/internal/service/transaction"
	"github.com/seu-repo/ocpp-csms/internal/session"
	"github.com/seu-repo/ocpp-csms/pkg/config"

	"github.com/redis/go-redis/v9"
)

const serviceName = "ocpp-csms"

// Exit codes per the operations contract: 0 normal, 1 config invalid,
// 2 persistence unavailable at startup, 3 no enabled transport could start.
const (
	exitConfigInvalid       = 1
	exitPersistenceUnavail  = 2
	exitNoTransportAvailable = 3
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.App.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting ocpp-csms",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if len(cfg.OCPP.EnabledTransports) == 0 {
		logger.Error("no transports enabled in configuration")
		os.Exit(exitConfigInvalid)
	}

	// 3. Initialize OpenTelemetry tracing
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				if err := tracerProvider.Shutdown(context.Background()); err != nil {
					logger.Error("error shutting down tracer provider", zap.Error(err))
				}
			}()
		}
	}

	// 4. Connect to Postgres
	db, err := postgres.NewConnection(cfg.Database.URL, logger)
	if err != nil {
		logger.Error("failed to connect to database", zap.Error(err))
		os.Exit(exitPersistenceUnavail)
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(
			&domain.ChargePoint{},
			&domain.Transaction{},
			&domain.Order{},
			&domain.MeterValue{},
			&domain.ChargerConfiguration{},
			&domain.OCPPErrorLog{},
			&domain.HeartbeatEvent{},
			&domain.StatusEvent{},
			&domain.User{},
			&domain.Reservation{},
		); err != nil {
			logger.Error("auto-migration failed", zap.Error(err))
			os.Exit(exitPersistenceUnavail)
		}
	}

	// 5. Initialize cache: Redis if configured, in-memory fallback otherwise
	var appCache ports.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL, logger)
		if err != nil {
			logger.Warn("redis not available, falling back to in-memory cache", zap.Error(err))
			appCache = cache.NewLocalCache(time.Minute, logger)
		} else {
			appCache = redisCache
		}
	} else {
		appCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer appCache.Close()

	// 6. Initialize message queue for domain events (transaction/billing), optional
	var mq ports.MessageQueue
	switch {
	case cfg.NATS.URL != "":
		mq, err = queue.NewNATSQueue(cfg.NATS.URL, logger)
		if err != nil {
			logger.Warn("NATS not available, domain events will not be published", zap.Error(err))
			mq = nil
		} else {
			defer mq.Close()
		}
	case cfg.RabbitMQ.URL != "":
		mq, err = queue.NewRabbitMQQueue(cfg.RabbitMQ.URL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, domain events will not be published", zap.Error(err))
			mq = nil
		} else {
			defer mq.Close()
		}
	}

	// 7. Initialize registry: distributed (Redis-backed) if configured, local otherwise
	var reg registry.Registry
	var distReg *registry.DistributedRegistry
	var redisClient *redis.Client
	nodeID := cfg.Distributed.NodeID
	if cfg.Distributed.Enabled {
		if nodeID == "" {
			nodeID = registry.GenerateNodeID()
		}
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("invalid redis url for distributed registry", zap.Error(err))
			os.Exit(exitConfigInvalid)
		}
		redisClient = redis.NewClient(redisOpts)
		distReg = registry.NewDistributedRegistry(redisClient, nodeID, logger)
		reg = distReg
		logger.Info("distributed mode enabled", zap.String("node_id", nodeID))
	} else {
		reg = registry.NewLocalRegistry()
	}

	// 8. Initialize repositories
	chargerRepo := postgres.NewChargerRepository(db, logger)
	txRepo := postgres.NewTransactionRepository(db, logger)
	orderRepo := postgres.NewOrderRepository(db, logger)
	mvRepo := postgres.NewMeterValueRepository(db, logger)
	cfgRepo := postgres.NewChargerConfigurationRepository(db, logger)
	errorLogRepo := postgres.NewOCPPErrorLogRepository(db, logger)
	heartbeatRepo := postgres.NewHeartbeatEventRepository(db, logger)
	statusRepo := postgres.NewStatusEventRepository(db, logger)
	userRepo := postgres.NewUserRepository(db, logger)
	reservationRepo := postgres.NewReservationRepository(db, logger)
	alertRepo := postgres.NewAlertRepository(db, logger)

	// 9. Initialize services
	chargerSvc := charger.NewService(chargerRepo, appCache, mq, cfg.OCPP.DefaultChargingRateKW, cfg.Billing.Pricing.PerKWh, logger)
	billingSvc := transaction.NewBillingService(orderRepo, transaction.DefaultPricingConfig(), logger)
	txSvc := transaction.NewService(txRepo, mvRepo, chargerSvc, billingSvc, mq, logger)

	authSvc := auth.NewService(userRepo, appCache, cfg.JWT.Secret, logger)
	reservationSvc := reservation.NewService(reservationRepo, chargerRepo, domain.DefaultReservationConfig(), logger)
	adminSvc := admin.NewService(chargerRepo, txRepo, reservationRepo, alertRepo, logger)

	recorder := history.NewRecorder(heartbeatRepo, statusRepo)
	breakerMgr := circuitbreaker.NewManager(logger)
	breaker := circuitbreaker.New(circuitbreaker.Settings{}, logger)
	_ = breakerMgr

	// 10. Initialize OCPP dispatch table and worker pool
	sessionStore := session.NewStore()
	handlers := ocpp.NewHandlers(chargerSvc, txSvc, userRepo, errorLogRepo, recorder, breaker, sessionStore, cfg.OCPP.HeartbeatInterval, logger)
	workerDispatcher := ocpp.NewDispatcher(handlers, logger)

	// 11. Initialize transport carriers and manager
	transportMgr := transport.NewManager(reg, logger, cfg.OCPP.TransportPriority)
	enabled := make(map[string]bool, len(cfg.OCPP.EnabledTransports))
	for _, name := range cfg.OCPP.EnabledTransports {
		enabled[name] = true
	}

	var pull *transport.Pull
	if enabled["socket"] {
		socketAddr := fmt.Sprintf(":%d", cfg.OCPP.Port)
		socket := transport.NewSocket(socketAddr, reg, logger)
		if cfg.OCPP.Security.Vault.Enabled {
			secretMgr, err := vault.NewSecretManager(cfg.OCPP.Security.Vault.Address, cfg.OCPP.Security.Vault.Token)
			if err != nil {
				logger.Error("failed to initialize vault secret manager", zap.Error(err))
				os.Exit(exitConfigInvalid)
			}
			socket.SetSecretLookup(secretMgr)
		}
		transportMgr.Register(socket, workerDispatcher.Dispatch)
	}
	if enabled["pull"] {
		pull = transport.NewPull(reg, logger)
		transportMgr.Register(pull, workerDispatcher.Dispatch)
	}
	if enabled["pubsub"] {
		ps := transport.NewPubSub(cfg.MQTT.BrokerURL, cfg.MQTT.ClientID, reg, logger)
		transportMgr.Register(ps, workerDispatcher.Dispatch)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := transportMgr.Start(startCtx); err != nil {
		startCancel()
		logger.Error("failed to start transport carriers", zap.Error(err))
		os.Exit(exitNoTransportAvailable)
	}
	startCancel()

	// 12. Initialize command dispatcher (CSMS-initiated OCPP commands)
	cmdDispatcher := command.NewDispatcher(transportMgr, cfgRepo, logger, command.Options{
		Timeout:              cfg.OCPP.CallTimeout,
		PollInterval:         cfg.OCPP.CrossNodeResponsePollInterval,
		SimulateOnDisconnect: cfg.OCPP.SimulateOnDisconnect,
		DistributedRegistry:  distReg,
		Redis:                redisClient,
		NodeID:               nodeID,
		ChargerSvc:           chargerSvc,
		TxSvc:                txSvc,
	})
	if distReg != nil {
		if err := cmdDispatcher.StartRelaySubscriber(context.Background()); err != nil {
			logger.Error("failed to start cross-node command relay subscriber", zap.Error(err))
		}
	}

	// 13. Initialize health service
	sqlDB, _ := db.DB()
	healthSvc := health.NewService(&health.Config{
		Version: cfg.App.Version,
		DB:      sqlDB,
	}, logger)

	// 14. Build the chi router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposeHeaders,
		AllowCredentials: cfg.CORS.Credentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	healthHandler := health.NewHTTPHandler(healthSvc)
	r.Get("/health", healthHandler.Health)
	r.Get("/healthz", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/readyz", healthHandler.Ready)
	r.Get("/live", healthHandler.Health)
	r.Get("/livez", healthHandler.Health)

	if cfg.Prometheus.Enabled {
		r.Handle(cfg.Prometheus.Path, promhttp.Handler())
	}

	authHandler := auth.NewHandler(authSvc)
	authHandler.Mount(r)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTokenDuration, cfg.JWT.RefreshTokenDuration, appCache, logger)
	authMiddleware := auth.Middleware(jwtSvc)

	r.Group(func(protected chi.Router) {
		protected.Use(authMiddleware)

		reservationHandler := reservation.NewHandler(reservationSvc)
		reservationHandler.Mount(protected)

		adminHandler := admin.NewHandler(adminSvc)
		protected.Group(func(adminOnly chi.Router) {
			adminOnly.Use(auth.RequireAdmin)
			adminHandler.Mount(adminOnly)
		})
	})

	if pull != nil {
		pull.Mount(r)
	}

	// 15. Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	go func() {
		logger.Info("starting HTTP server", zap.Int("port", cfg.HTTP.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 16. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := transportMgr.Stop(shutdownCtx); err != nil {
		logger.Error("transport shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
