package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/creditscore/internal/config"
	"github.com/polkiloo/creditscore/internal/metrics"
	"github.com/polkiloo/creditscore/internal/server/http/handlers"
	"github.com/polkiloo/creditscore/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.CreditFacade, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger, m))
	engine.GET("/metrics", gin.WrapH(m.Handler()))

	engine.Use(middleware.NewRateLimiter(float64(cfg.RateLimitRPM), cfg.RateLimitBurst).Middleware())
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	creditHandler := handlers.NewCreditHandler(facade)
	loanHandler := handlers.NewLoanHandler(facade)
	reporterHandler := handlers.NewReporterHandler(facade)

	api := engine.Group("/api")
	principals := api.Group("/principals")
	principals.POST("/register", authHandler.Register)
	principals.POST("/login", authHandler.Login)

	api.GET("/stats", creditHandler.Stats)
	api.GET("/height", creditHandler.Height)
	api.GET("/credit/:principal", creditHandler.Get)
	api.GET("/credit/:principal/preview", creditHandler.Preview)
	api.GET("/loans/:id", loanHandler.Get)
	api.GET("/reporters/:principal", reporterHandler.Check)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.POST("/credit/:principal/init", creditHandler.Initialize)
	authed.POST("/credit/:principal/refresh", creditHandler.Refresh)
	authed.POST("/loans", loanHandler.Record)
	authed.POST("/loans/:id/repayment", loanHandler.Repay)
	authed.POST("/loans/:id/default", loanHandler.Default)
	authed.POST("/reporters", reporterHandler.Add)
	authed.DELETE("/reporters/:principal", reporterHandler.Remove)

	return engine
}
