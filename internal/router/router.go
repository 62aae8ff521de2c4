package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/salonbook-backend/config"
	"github.com/ikkim/salonbook-backend/internal/app/controller"
	"github.com/ikkim/salonbook-backend/internal/middleware"
)

// Pinger reports database reachability; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Router struct {
	businessController *controller.BusinessController
	uploadController   *controller.UploadController
	businessContext    gin.HandlerFunc
	database           Pinger
	config             *config.Config
}

func NewRouter(
	businessController *controller.BusinessController,
	uploadController *controller.UploadController,
	businessContext gin.HandlerFunc,
	database Pinger,
	cfg *config.Config,
) *Router {
	return &Router{
		businessController: businessController,
		uploadController:   uploadController,
		businessContext:    businessContext,
		database:           database,
		config:             cfg,
	}
}

func (r *Router) Setup() (*gin.Engine, error) {
	gin.SetMode(r.config.Server.GinMode)

	if err := controller.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.health)

	v1 := router.Group("/api/v1")
	{
		businesses := v1.Group("/businesses")
		{
			businesses.POST("", r.businessController.CreateBusiness)
			businesses.GET("", r.businessController.ListBusinesses)
			businesses.GET("/:id", r.businessController.GetBusiness)
			businesses.PUT("/:id", r.businessController.UpdateBusiness)
			businesses.DELETE("/:id", r.businessController.DeleteBusiness)
			businesses.POST("/:id/activate", r.businessController.ActivateBusiness)

			if r.uploadController != nil {
				businesses.POST("/:id/logo/presigned-url", r.uploadController.PresignBusinessLogo)
			}
		}

		current := v1.Group("/business")
		current.Use(r.businessContext)
		{
			current.GET("/current", r.businessController.GetCurrentBusiness)
		}
	}

	return router, nil
}

func (r *Router) health(c *gin.Context) {
	if r.database != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := r.database.PingContext(ctx); err != nil {
			middleware.GetLoggerFromContext(c).Error("Health check failed", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Salonbook API is running",
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+middleware.BusinessIDHeader+", "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
