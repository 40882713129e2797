package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/handler"
	"dispatch/internal/logger"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Setup(cfg.Log.File, cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic first, so the database driver can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logrus.WithError(err).Warn("failed to initialize New Relic")
		} else {
			logrus.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	logrus.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	logrus.Info("connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg)

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}

	logrus.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Repositories.
	passengerRepo := postgres.NewPassengerRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)

	// Services.
	notificationService := service.NewNotificationService()
	receiptService := service.NewReceiptService(notificationService)
	multiplierService := service.NewMultiplierService(locationStore, rideRepo)
	routeService := service.NewRouteService(routeRepo, cacheStore)
	rideService := service.NewRideService(
		rideRepo, routeRepo, driverRepo,
		multiplierService, notificationService, receiptService, cacheStore,
		service.Tariff{BaseFare: cfg.Fare.BaseFare, PerKmFare: cfg.Fare.PerKmFare},
	)

	// Route owners see their own bookings; point-to-point requests go to
	// drivers near the pickup.
	visibility := service.AnyOfPolicy{
		service.NewRouteOwnershipPolicy(routeRepo),
		service.NewServiceAreaPolicy(locationStore, cfg.Dispatch.ServiceAreaKm),
	}
	dispatchService := service.NewDispatchService(
		rideRepo, driverRepo, lockStore, cacheStore, locationStore, visibility, notificationService,
	)

	driverService := service.NewDriverService(driverRepo, locationStore)
	passengerService := service.NewPassengerService(passengerRepo)
	paymentService := service.NewPaymentService(paymentRepo, rideRepo, service.NewMockPSP(), notificationService)

	// Handlers.
	routeHandler := handler.NewRouteHandler(routeService)
	rideHandler := handler.NewRideHandler(rideService, dispatchService)
	driverHandler := handler.NewDriverHandler(driverService)
	passengerHandler := handler.NewPassengerHandler(passengerService)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	router := app.NewRouter(app.RouterDeps{
		RouteHandler:     routeHandler,
		RideHandler:      rideHandler,
		DriverHandler:    driverHandler,
		PassengerHandler: passengerHandler,
		PaymentHandler:   paymentHandler,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
