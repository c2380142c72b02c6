package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/SeifHesham2/SwiftRide/internal/app"
	"github.com/SeifHesham2/SwiftRide/internal/auth"
	"github.com/SeifHesham2/SwiftRide/internal/config"
	"github.com/SeifHesham2/SwiftRide/internal/geo"
	"github.com/SeifHesham2/SwiftRide/internal/handler"
	internalRedis "github.com/SeifHesham2/SwiftRide/internal/redis"
	"github.com/SeifHesham2/SwiftRide/internal/repository/postgres"
	"github.com/SeifHesham2/SwiftRide/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()
	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize New Relic")
		} else {
			logger.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := app.RunMigrations(ctx, db, cfg.Database.MigrationsDir, logger); err != nil {
			logger.WithError(err).Fatal("failed to run migrations")
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	sender := newNotificationSender(cfg, logger)

	server, sweeper := wireServer(db, redisClient, nrApp, sender, cfg, logger)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Sweep.Enabled {
		go sweeper.Run(runCtx, cfg.Sweep.Interval)
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// newNotificationSender publishes to MQTT when enabled and reachable, and
// falls back to logging notifications.
func newNotificationSender(cfg *config.Config, logger *logrus.Logger) service.NotificationSender {
	if !cfg.MQTT.Enabled {
		return service.NewLogSender(logger)
	}

	client, err := app.NewMQTTClient(cfg.MQTT, logger)
	if err != nil {
		logger.WithError(err).Warn("mqtt unavailable, notifications will only be logged")
		return service.NewLogSender(logger)
	}

	logger.WithField("broker", cfg.MQTT.Broker).Info("connected to MQTT broker")
	return service.NewMQTTSender(client, cfg.MQTT.Topic, byte(cfg.MQTT.QoS), cfg.MQTT.Timeout)
}

// wireServer wires all dependencies and returns the HTTP server and the
// expiration sweeper to run alongside it.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	sender service.NotificationSender,
	cfg *config.Config,
	logger *logrus.Logger,
) (*http.Server, *service.ExpirationSweeper) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient, cfg.Dispatch.LockTTL, cfg.Dispatch.LockWait)
	tokenStore := internalRedis.NewTokenStore(redisClient, cfg.Auth.TokenTTL)
	placeStore := internalRedis.NewPlaceStore(redisClient, cfg.Geocoder.CacheTTL)

	// Initialize repositories.
	repos := postgres.NewRepositories(db)
	transactor := postgres.NewTransactor(db)

	// Geocoding.
	nominatim := geo.NewNominatimClient(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout)
	resolver := geo.NewRouteResolver(nominatim, placeStore, logger)

	// Initialize services.
	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	fareCalculator := service.NewFareCalculator(resolver, cfg.Fare)
	availability := service.NewAvailabilityTracker(cfg.Dispatch)
	paymentService := service.NewPaymentService(repos.Payments)
	receiptService := service.NewReceiptService(fareCalculator)
	notificationService := service.NewNotificationService(sender, repos.Customers, repos.Drivers, receiptService, logger)
	sweeper := service.NewExpirationSweeper(repos.Trips, nrApp, logger)
	tripService := service.NewTripService(
		repos,
		transactor,
		lockStore,
		fareCalculator,
		availability,
		paymentService,
		sweeper,
		notificationService,
		receiptService,
		cfg.Dispatch,
		logger,
	)
	driverService := service.NewDriverService(repos.Drivers, authService, logger)
	customerService := service.NewCustomerService(repos.Customers, tokenStore, authService, notificationService, logger)
	carService := service.NewCarService(repos, transactor)
	complaintService := service.NewComplaintService(repos)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TripHandler:      handler.NewTripHandler(tripService),
		DriverHandler:    handler.NewDriverHandler(driverService, tripService),
		CustomerHandler:  handler.NewCustomerHandler(customerService, tripService),
		CarHandler:       handler.NewCarHandler(carService),
		PaymentHandler:   handler.NewPaymentHandler(paymentService),
		ComplaintHandler: handler.NewComplaintHandler(complaintService),
		AuthService:      authService,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
		Logger:           logger,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sweeper
}
