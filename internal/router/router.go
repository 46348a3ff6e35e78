package router

import (
	"strings"

	"coinvest/config"
	"coinvest/internal/cache"
	"coinvest/internal/handler"
	"coinvest/internal/logging"
	"coinvest/internal/metrics"
	"coinvest/internal/middleware"
	"coinvest/internal/repository"
	"coinvest/internal/service"
	"coinvest/internal/ws"
	"coinvest/pkg/market"
	"coinvest/pkg/media"
	"coinvest/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra is the external plumbing built by main from configuration.
type Infra struct {
	Cache      cache.Cache
	Uploader   media.Uploader
	Exchange   market.Exchange
	Aggregator market.Aggregator
	Gateway    payment.Gateway // nil disables gateway deposits
	FCM        *service.FCMService
	Hub        *ws.Hub
}

// App is the wired HTTP engine plus the pieces the background jobs need.
type App struct {
	Engine      *gin.Engine
	Limiter     *middleware.IPRateLimiter
	Markets     *service.MarketService
	Investments *service.InvestmentService
	Resets      *repository.PasswordResetRepository
}

func Setup(cfg *config.Config, db *gorm.DB, infra Infra) *App {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logging.Named("http")))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	ledger := repository.NewLedger(db)
	txRepo := repository.NewTransactionRepository(db)
	investmentRepo := repository.NewInvestmentRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	mentorshipRepo := repository.NewMentorshipRepository(db)
	botRepo := repository.NewBotRepository(db)
	watchlistRepo := repository.NewWatchlistRepository(db)
	paymentMethodRepo := repository.NewPaymentMethodRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	resetRepo := repository.NewPasswordResetRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Services
	notifSvc := service.NewNotificationService(notificationRepo, userRepo, infra.FCM, infra.Hub)
	authSvc := service.NewAuthService(cfg, userRepo, resetRepo, service.NewEmailService(cfg.SMTP), auditRepo)
	googleOAuth := service.NewGoogleOAuth(cfg.OAuth)
	investmentSvc := service.NewInvestmentService(ledger, investmentRepo, auditRepo, notifSvc)
	userSvc := service.NewUserService(userRepo, investmentRepo, referralRepo, auditRepo)
	txSvc := service.NewTransactionService(ledger, txRepo, paymentMethodRepo, settingRepo, auditRepo, notifSvc, cfg.Settlement).
		WithUploader(infra.Uploader)
	if infra.Gateway != nil {
		webhookURL := strings.TrimRight(cfg.Swapuzi.WebhookBaseURL, "/") + "/api/webhooks/swapuzi"
		txSvc = txSvc.WithGateway(infra.Gateway, webhookURL)
	}
	dashboardSvc := service.NewDashboardService(userSvc, txRepo, investmentSvc)
	referralSvc := service.NewReferralService(referralRepo, userRepo, settingRepo, cfg.Server.FrontendURL)
	paymentMethodSvc := service.NewPaymentMethodService(paymentMethodRepo, infra.Uploader, auditRepo)
	mentorshipSvc := service.NewMentorshipService(mentorshipRepo, auditRepo, notifSvc)
	botSvc := service.NewBotService(botRepo, auditRepo, notifSvc)
	marketSvc := service.NewMarketService(infra.Exchange, infra.Aggregator, infra.Cache, cfg.Market.DefaultSymbols)
	watchlistSvc := service.NewWatchlistService(watchlistRepo, marketSvc)
	adminSvc := service.NewAdminService(adminRepo, userRepo, ledger, settingRepo, auditRepo)

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(authSvc, googleOAuth, cfg.Server.Env == "production")
	userHandler := handler.NewUserHandler(userSvc)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	investmentHandler := handler.NewInvestmentHandler(investmentSvc)
	txHandler := handler.NewTransactionHandler(txSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	referralHandler := handler.NewReferralHandler(referralSvc)
	paymentMethodHandler := handler.NewPaymentMethodHandler(paymentMethodSvc)
	mentorshipHandler := handler.NewMentorshipHandler(mentorshipSvc)
	botHandler := handler.NewBotHandler(botSvc)
	marketHandler := handler.NewMarketHandler(marketSvc)
	watchlistHandler := handler.NewWatchlistHandler(watchlistSvc)
	webhookHandler := handler.NewWebhookHandler(txSvc, cfg.Swapuzi.WebhookSecret)
	adminHandler := handler.NewAdminHandler(adminSvc, investmentSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired()

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws/notifications", ws.UpgradeNotificationsWS(&cfg.JWT, infra.Hub))

	api := r.Group("/api")
	api.Use(middleware.RateLimit(limiter))
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.GET("/google", authHandler.GoogleRedirect)
			authGroup.GET("/google/callback", authHandler.GoogleCallback)
			authGroup.POST("/google/token", authHandler.GoogleToken)
			authGroup.POST("/2fa/setup", authMw, authHandler.Setup2FA)
			authGroup.POST("/2fa/enable", authMw, authHandler.Enable2FA)
			authGroup.POST("/2fa/disable", authMw, authHandler.Disable2FA)
		}

		api.POST("/webhooks/swapuzi", webhookHandler.Swapuzi)

		markets := api.Group("/markets")
		{
			markets.GET("/prices", marketHandler.Prices)
			markets.GET("/tickers", marketHandler.Tickers)
			markets.GET("/klines/:symbol", marketHandler.Klines)
			markets.GET("/overview", marketHandler.Overview)
			markets.GET("/trending", marketHandler.Trending)
		}

		users := api.Group("/users", authMw)
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.PUT("/password", userHandler.ChangePassword)
			users.GET("/stats", userHandler.Stats)
			users.POST("/fcm-token", userHandler.SetFCMToken)
		}

		api.GET("/notifications", authMw, notificationHandler.List)
		api.PUT("/notifications/:id/read", authMw, notificationHandler.MarkRead)

		investments := api.Group("/investments", authMw)
		{
			investments.GET("/plans", investmentHandler.Plans)
			investments.GET("", investmentHandler.List)
			investments.POST("", investmentHandler.Create)
			investments.GET("/:id", investmentHandler.Get)
		}

		txs := api.Group("/transactions", authMw)
		{
			txs.POST("/deposit", txHandler.Deposit)
			txs.POST("/deposit/gateway", txHandler.GatewayDeposit)
			txs.POST("/proof", txHandler.UploadProof)
			txs.POST("/withdraw", txHandler.Withdraw)
			txs.GET("", txHandler.List)
			txs.GET("/:id", txHandler.Get)
			txs.POST("/:id/cancel", txHandler.Cancel)
			txs.PUT("/:id/status", adminMw, txHandler.UpdateStatus)
		}

		dashboard := api.Group("/dashboard", authMw)
		{
			dashboard.GET("/stats", dashboardHandler.Stats)
			dashboard.GET("/recent-transactions", dashboardHandler.RecentTransactions)
			dashboard.GET("/active-investments", dashboardHandler.ActiveInvestments)
		}

		api.GET("/referrals", authMw, referralHandler.List)
		api.GET("/referrals/stats", authMw, referralHandler.Stats)

		methods := api.Group("/payment-methods", authMw)
		{
			methods.GET("", paymentMethodHandler.List)
			methods.GET("/:id", paymentMethodHandler.Get)
			methods.GET("/:id/qr", paymentMethodHandler.QRCode)
		}

		mentorship := api.Group("/mentorship", authMw)
		{
			mentorship.GET("/classes", mentorshipHandler.ListClasses)
			mentorship.GET("/classes/:id", mentorshipHandler.GetClass)
			mentorship.POST("/classes/:id/register", mentorshipHandler.Register)
			mentorship.GET("/classes/:id/meeting-link", mentorshipHandler.MeetingLink)
			mentorship.GET("/registrations", mentorshipHandler.MyRegistrations)
		}

		bots := api.Group("/bots", authMw)
		{
			bots.GET("", botHandler.List)
			bots.GET("/requests", botHandler.MyRequests)
			bots.POST("/requests/:id/stop", botHandler.Stop)
			bots.GET("/trades", botHandler.MyTrades)
			bots.GET("/:id", botHandler.Get)
			bots.POST("/:id/request", botHandler.Request)
		}

		watchlist := api.Group("/watchlist", authMw)
		{
			watchlist.GET("", watchlistHandler.List)
			watchlist.POST("", watchlistHandler.Add)
			watchlist.GET("/prices", watchlistHandler.Prices)
			watchlist.PUT("/:id", watchlistHandler.Update)
			watchlist.DELETE("/:id", watchlistHandler.Remove)
		}

		admin := api.Group("/admin", authMw, adminMw)
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/stats/signups", adminHandler.Signups)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.PUT("/users/:id/balance", adminHandler.SetBalance)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)

			admin.GET("/transactions", txHandler.AdminList)
			admin.GET("/transactions/:id", txHandler.AdminGet)
			admin.PUT("/transactions/:id/status", txHandler.UpdateStatus)

			admin.GET("/investments", adminHandler.ListInvestments)
			admin.GET("/referrals", referralHandler.AdminList)
			admin.GET("/audit-logs", adminHandler.AuditLogs)

			admin.GET("/plans", adminHandler.ListPlans)
			admin.POST("/plans", adminHandler.CreatePlan)
			admin.PUT("/plans/:id", adminHandler.UpdatePlan)
			admin.DELETE("/plans/:id", adminHandler.DeletePlan)

			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)

			admin.GET("/payment-methods", paymentMethodHandler.AdminList)
			admin.POST("/payment-methods", paymentMethodHandler.Create)
			admin.PUT("/payment-methods/:id", paymentMethodHandler.Update)
			admin.DELETE("/payment-methods/:id", paymentMethodHandler.Delete)
			admin.POST("/payment-methods/:id/qr-image", paymentMethodHandler.UploadQRImage)

			admin.GET("/mentorship/classes", mentorshipHandler.AdminListClasses)
			admin.POST("/mentorship/classes", mentorshipHandler.CreateClass)
			admin.PUT("/mentorship/classes/:id", mentorshipHandler.UpdateClass)
			admin.DELETE("/mentorship/classes/:id", mentorshipHandler.DeleteClass)
			admin.GET("/mentorship/classes/:id/registrations", mentorshipHandler.Registrations)
			admin.PUT("/mentorship/registrations/:id/approve-payment", mentorshipHandler.ApprovePayment)
			admin.PUT("/mentorship/registrations/:id/attendance", mentorshipHandler.MarkAttendance)

			admin.GET("/bots", botHandler.AdminList)
			admin.POST("/bots", botHandler.Create)
			admin.PUT("/bots/:id", botHandler.Update)
			admin.DELETE("/bots/:id", botHandler.Delete)
			admin.GET("/bots/requests", botHandler.AdminRequests)
			admin.PUT("/bots/requests/:id/approve", botHandler.Approve)
			admin.PUT("/bots/requests/:id/reject", botHandler.Reject)
			admin.POST("/bots/requests/:id/trades", botHandler.RecordTrade)
		}
	}

	if infra.Gateway == nil {
		logging.Named("router").Info("gateway deposits disabled: set SWAPUZI_EMAIL to enable")
	} else {
		logging.Named("router").Info("gateway deposits enabled", zap.String("provider", infra.Gateway.Name()))
	}

	return &App{
		Engine:      r,
		Limiter:     limiter,
		Markets:     marketSvc,
		Investments: investmentSvc,
		Resets:      resetRepo,
	}
}
