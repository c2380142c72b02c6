package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/SeifHesham2/SwiftRide/internal/auth"
	"github.com/SeifHesham2/SwiftRide/internal/handler"
	"github.com/SeifHesham2/SwiftRide/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler      *handler.TripHandler
	DriverHandler    *handler.DriverHandler
	CustomerHandler  *handler.CustomerHandler
	CarHandler       *handler.CarHandler
	PaymentHandler   *handler.PaymentHandler
	ComplaintHandler *handler.ComplaintHandler
	AuthService      *auth.Service
	RedisClient      *redis.Client        // nil disables Idempotency-Key replay
	NewRelicApp      *newrelic.Application // nil disables instrumentation
	Logger           logrus.FieldLogger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.RequestLogger(deps.Logger))

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.Logger))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.BookTrip)
			trips.GET("/quote", deps.TripHandler.Quote)
			trips.GET("/requested", deps.TripHandler.ListRequested)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/accept", deps.TripHandler.AcceptTrip)
			trips.POST("/:id/start", deps.TripHandler.StartTrip)
			trips.POST("/:id/end", deps.TripHandler.EndTrip)
			trips.POST("/:id/cancel-by-driver", deps.TripHandler.CancelByDriver)
			trips.POST("/:id/cancel-by-customer", deps.TripHandler.CancelByCustomer)
			trips.POST("/:id/rate", deps.TripHandler.RateDriver)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.POST("/login", deps.DriverHandler.Login)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.GET("/:id/active-trips", deps.DriverHandler.ActiveTrips)
			drivers.GET("/:id/car", deps.CarHandler.DriverCar)
		}

		// Customer routes.
		customers := v1.Group("/customers")
		{
			customers.POST("/verify-email", deps.CustomerHandler.VerifyEmail)
			customers.POST("/register", deps.CustomerHandler.Register)
			customers.POST("/login", deps.CustomerHandler.Login)
			customers.POST("/forgot-password", deps.CustomerHandler.ForgotPassword)
			customers.POST("/reset-password", deps.CustomerHandler.ResetPassword)

			account := customers.Group("/:id",
				middleware.Authenticate(deps.AuthService, auth.RoleCustomer),
				middleware.RequireSubject("id"),
			)
			account.GET("/trips", deps.CustomerHandler.Trips)
			account.GET("/previous-trips", deps.CustomerHandler.PreviousTrips)
		}

		// Car routes.
		cars := v1.Group("/cars")
		{
			cars.POST("", deps.CarHandler.Register)
			cars.POST("/:id/assign", deps.CarHandler.Assign)
		}

		// Payment routes.
		payments := v1.Group("/payments")
		{
			payments.GET("/methods", deps.PaymentHandler.Methods)
			payments.GET("/trip/:tripId", deps.PaymentHandler.GetByTrip)
		}

		// Complaint routes.
		complaints := v1.Group("/complaints")
		{
			complaints.POST("", deps.ComplaintHandler.File)
			complaints.GET("", deps.ComplaintHandler.List)
			complaints.POST("/:id/open", deps.ComplaintHandler.Open)
			complaints.POST("/:id/close", deps.ComplaintHandler.Close)
		}
	}

	return router
}
