package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "user-management-backend/docs"
	"user-management-backend/internal/common/config"
	"user-management-backend/internal/common/middleware"
	authhttp "user-management-backend/internal/features/auth/delivery/http"
	authservice "user-management-backend/internal/features/auth/service"
	userhttp "user-management-backend/internal/features/user/delivery/http"
	userservice "user-management-backend/internal/features/user/service"
)

const serviceName = "user-management-backend"

// HealthChecker is a dependency checked by /ready.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Deps struct {
	Config       *config.Config
	Users        userservice.UserService
	Auth         authservice.AuthService
	// HealthChecks are run by /ready, keyed by dependency name.
	HealthChecks map[string]HealthChecker
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{d.Config.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "WWW-Authenticate"}
	router.Use(cors.New(corsConfig))

	requireAuth := middleware.RequireAuth(d.Auth)
	root := router.Group("/")

	authhttp.NewAuthHandler(d.Auth, d.Users).RegisterRoutes(root, requireAuth)
	userhttp.NewUserHandler(d.Users).RegisterRoutes(root, requireAuth)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	registerHealth(router, d.HealthChecks)

	return router
}

func registerHealth(router *gin.Engine, checks map[string]HealthChecker) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if err := check.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   name + " unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
