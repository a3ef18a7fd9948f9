package handlers

import (
	"log/slog"

	"github.com/SscSPs/dairy_billing_app/cmd/docs"
	portssvc "github.com/SscSPs/dairy_billing_app/internal/core/ports/services"
	"github.com/SscSPs/dairy_billing_app/internal/middleware"
	"github.com/SscSPs/dairy_billing_app/internal/platform/config"
	"github.com/SscSPs/dairy_billing_app/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouteDeps carries the optional collaborators of the router.
type RouteDeps struct {
	Health  HealthChecker
	Posthog *utils.PosthogClientWrapper
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps RouteDeps,
) error {
	r.Use(corsMiddleware(cfg), middleware.MetricsMiddleware())

	// Ops routes stay outside rate limiting and auth
	r.GET("/health", getHealth(deps.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := setupAPIV1Routes(r, cfg, services, deps); err != nil {
		return err
	}

	setupSwaggerRoutes(r, cfg)
	return nil
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	corsCfg.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	if len(cfg.CORSOrigins) == 0 {
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowAllOrigins = true
		return cors.New(corsCfg)
	}
	corsCfg.AllowOrigins = cfg.CORSOrigins
	corsCfg.AllowCredentials = true
	return cors.New(corsCfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps RouteDeps,
) error {
	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}

	v1 := r.Group("/api/v1", middleware.RateLimit(rateLimiter))
	if cfg.AuthEnabled {
		v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	} else {
		slog.Warn("Authentication disabled, requests run as anonymous user")
	}
	if deps.Posthog != nil {
		v1.Use(middleware.PosthogMiddleware(deps.Posthog))
	}

	registerCustomerRoutes(v1, services.Customer, services.Reconciler)
	registerSaleRoutes(v1, services.Sale)
	registerBillingRoutes(v1, services.Billing, services.Notification)
	return nil
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
