package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RouteHandler     *handler.RouteHandler
	RideHandler      *handler.RideHandler
	DriverHandler    *handler.DriverHandler
	PassengerHandler *handler.PassengerHandler
	PaymentHandler   *handler.PaymentHandler
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Passenger routes.
		passengers := v1.Group("/passengers")
		{
			passengers.POST("", deps.PassengerHandler.Register)
			passengers.GET("", deps.PassengerHandler.GetAll)
			passengers.GET("/:id", deps.PassengerHandler.GetPassenger)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.Register)
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.PUT("/:id", deps.DriverHandler.UpdateProfile)
			drivers.PATCH("/:id/approval", deps.DriverHandler.SetApproval)
			drivers.PUT("/:id/location", deps.DriverHandler.UpdateLocation)
			drivers.POST("/:id/offline", deps.DriverHandler.GoOffline)
		}

		// Vehicle listing for the admin console.
		v1.GET("/vehicles", deps.DriverHandler.ListVehicles)

		// Route catalog.
		routes := v1.Group("/routes")
		{
			routes.POST("", deps.RouteHandler.CreateRoute)
			routes.GET("", deps.RouteHandler.GetAll)
			routes.GET("/:id", deps.RouteHandler.GetRoute)
			routes.PUT("/:id", deps.RouteHandler.UpdateRoute)
			routes.GET("/:id/fare", deps.RouteHandler.QuoteFare)
		}

		// Ride booking and lifecycle.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("", deps.RideHandler.GetAll)
			rides.GET("/pending", deps.RideHandler.GetPending)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.GET("/:id/track", deps.RideHandler.TrackRide)
			rides.POST("/:id/accept", deps.RideHandler.AcceptRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.PATCH("/:id/status", deps.RideHandler.UpdateStatus)
		}

		// Payment routes.
		payments := v1.Group("/payments")
		{
			payments.POST("", deps.PaymentHandler.ProcessPayment)
			payments.GET("", deps.PaymentHandler.GetAll)
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
			payments.POST("/:id/refund", deps.PaymentHandler.RefundPayment)
		}
	}

	return router
}
