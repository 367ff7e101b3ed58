package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bidderpro-backend-go/internal/auth"
	"bidderpro-backend-go/internal/core"
	"bidderpro-backend-go/internal/middleware"
	"bidderpro-backend-go/internal/pricing"
)

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (logging, recovery, CORS) is applied to the router in
// main.go before this function is called.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	tokens *auth.TokenIssuer,
	trialGate core.TrialGate,
	estimateService core.EstimateService,
	billingService core.BillingService,
	priceTable pricing.PriceTable,
	defaultLaborRate float64,
) {
	sessionMW := middleware.NewSessionMiddleware(tokens, trialGate, logger)

	// --- Initialize Handlers ---
	sessionHandler := NewSessionHandler(trialGate, tokens, billingService, logger)
	estimateHandler := NewEstimateHandler(estimateService, billingService, logger)
	pricingHandler := NewPricingHandler(priceTable, defaultLaborRate)
	billingHandler := NewBillingHandler(billingService)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/pricing/default", pricingHandler.DefaultPriceTable)
		apiV1.GET("/project-types", pricingHandler.ProjectTypes)

		sessionGroup := apiV1.Group("/session")
		{
			sessionGroup.POST("", sessionHandler.SignIn)
			sessionGroup.GET("", sessionMW.RequireSession(), sessionHandler.CurrentSession)
		}

		// Expired sessions pass the middleware; the estimate service answers them with 403.
		estimatesGroup := apiV1.Group("/estimates", sessionMW.RequireSession())
		{
			estimatesGroup.POST("", estimateHandler.Generate)
			estimatesGroup.POST("/export", estimateHandler.Export)
		}

		apiV1.GET("/billing/subscribe", billingHandler.SubscribeLink)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "BidderPro backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
