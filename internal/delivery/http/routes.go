package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/salescoach/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/otp", handler.RequestOTP)
			auth.POST("/verify", handler.VerifyOTP)
		}

		v1.GET("/products", handler.ListProducts)
		v1.GET("/products/:id", handler.GetProduct)

		v1.GET("/quiz", handler.ListQuiz)
		v1.POST("/quiz/submit", handler.SubmitQuiz)
		v1.GET("/scripts", handler.ListScripts)
		v1.POST("/chat", handler.Chat)

		// Session-protected routes are only mounted when login is configured
		if handler.svc.Auth != nil {
			v1.POST("/auth/logout", AuthMiddleware(handler.svc.Auth), handler.Logout)

			admin := v1.Group("/admin")
			admin.Use(AuthMiddleware(handler.svc.Auth))
			{
				admin.POST("/extract", handler.ExtractFiles)
				admin.POST("/extract-url", handler.ExtractURL)
				admin.POST("/products", handler.CreateProduct)
				admin.PUT("/products/:id", handler.UpdateProduct)
				admin.DELETE("/products/:id", handler.DeleteProduct)
			}
		}
	}

	return router
}
