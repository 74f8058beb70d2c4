package router

import (
	"time"

	"github.com/ahlanjobb/api/config"
	"github.com/ahlanjobb/api/internal/handler"
	"github.com/ahlanjobb/api/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	authHandler   *handler.AuthHandler
	userHandler   *handler.UserHandler
	mediaHandler  *handler.MediaHandler
	healthHandler *handler.HealthHandler

	authMw  *middleware.AuthMiddleware
	validMw *middleware.ValidationMiddleware
	Config  *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	user *handler.UserHandler,
	media *handler.MediaHandler,
	health *handler.HealthHandler,

	authMw *middleware.AuthMiddleware,
	validMw *middleware.ValidationMiddleware,
	config *config.Config,
) *Router {
	return &Router{
		authHandler:   auth,
		userHandler:   user,
		mediaHandler:  media,
		healthHandler: health,

		authMw:  authMw,
		validMw: validMw,
		Config:  config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.ContextMiddleware())
	router.Use(middleware.RequestResponseMiddleware())
	router.Use(middleware.SecurityLoggingMiddleware())
	router.Use(middleware.CORS(r.Config.CORS.AllowedOrigins))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		health := api.Group("/health")
		{
			health.GET("", r.healthHandler.HealthCheck)
			health.GET("/live", r.healthHandler.BasicHealth)
		}

		api.Use(middleware.RateLimit(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second))
		if r.Config.App.Timeout > 0 {
			api.Use(middleware.RequestTimeoutMiddleware(r.Config.App.Timeout))
		}
		// Credentials for these travel in the body or query, so a stale
		// Authorization header must not block a login or refresh.
		r.publicAuthRoutes(api)

		api.Use(r.authMw.Deserialize())

		r.authRoutes(api)
		r.userRoutes(api)
		r.mediaRoutes(api)
	}

	return router
}
