package router

import (
	"github.com/gin-gonic/gin"

	"github.com/mo0hamed-shoaib/naafe-backend/internal/config"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/http/handlers"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/http/middleware"
	"github.com/mo0hamed-shoaib/naafe-backend/internal/service"
)

// SetupRouter wires all HTTP routes.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	jobRequestHandler *handlers.JobRequestHandler,
	offerHandler *handlers.OfferHandler,
	paymentHandler *handlers.PaymentHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Public routes
	api.GET("/ws", wsHandler.Handle)
	api.GET("/job-requests/:id", middleware.UUIDValidator("id"), jobRequestHandler.GetJobRequest)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", authHandler.Me)

		protected.POST("/job-requests", jobRequestHandler.CreateJobRequest)
		protected.GET("/job-requests/my", jobRequestHandler.ListMyJobRequests)
		protected.POST("/job-requests/:id/offers", middleware.UUIDValidator("id"), offerHandler.CreateOffer)
		protected.GET("/job-requests/:id/offers", middleware.UUIDValidator("id"), offerHandler.ListOffersForRequest)

		protected.GET("/offers/my", offerHandler.ListMyOffers)
		protected.GET("/offers/:id", middleware.UUIDValidator("id"), offerHandler.GetOffer)
		protected.PUT("/offers/:id/terms", middleware.UUIDValidator("id"), offerHandler.UpdateTerms)
		protected.POST("/offers/:id/confirm", middleware.UUIDValidator("id"), offerHandler.ConfirmTerms)
		protected.POST("/offers/:id/confirmations/reset", middleware.UUIDValidator("id"), offerHandler.ResetConfirmations)
		protected.POST("/offers/:id/accept", middleware.UUIDValidator("id"), offerHandler.AcceptOffer)
		protected.POST("/offers/:id/reject", middleware.UUIDValidator("id"), offerHandler.RejectOffer)
		protected.POST("/offers/:id/escrow", middleware.UUIDValidator("id"), offerHandler.FundEscrow)
		protected.POST("/offers/:id/complete", middleware.UUIDValidator("id"), offerHandler.CompleteService)
		protected.POST("/offers/:id/cancel", middleware.UUIDValidator("id"), offerHandler.RequestCancellation)
		protected.GET("/offers/:id/history", middleware.UUIDValidator("id"), offerHandler.History)

		protected.GET("/payments/balance", paymentHandler.GetBalance)
		protected.POST("/payments/deposit", paymentHandler.Deposit)
		protected.GET("/payments/escrow/:offerId", middleware.UUIDValidator("offerId"), paymentHandler.GetEscrow)
		protected.GET("/payments/transactions", paymentHandler.ListTransactions)

		protected.GET("/notifications", notificationHandler.ListNotifications)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
	}

	return r
}
