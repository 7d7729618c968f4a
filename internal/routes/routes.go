package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/VaibhavSingh085/heroes-server/internal/config"
	"github.com/VaibhavSingh085/heroes-server/internal/handlers"
	"github.com/VaibhavSingh085/heroes-server/internal/ledger"
	"github.com/VaibhavSingh085/heroes-server/internal/middleware"
	"github.com/VaibhavSingh085/heroes-server/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	imgbbService := services.NewImgBBService(cfg.ImgBBAPIKey)
	leaderboardCache := services.NewLeaderboardCache(cfg.RedisURL, cfg.LeaderboardCacheTTL)
	repLedger := ledger.New(db)

	authHandler := handlers.NewAuthHandler(db, cfg)
	complaintHandler := handlers.NewComplaintHandler(db, cfg, imgbbService, telegramService)
	helperHandler := handlers.NewHelperHandler(db, repLedger)
	editRequestHandler := handlers.NewEditRequestHandler(db, cfg, repLedger)
	profileHandler := handlers.NewProfileHandler(db, imgbbService)
	leaderboardHandler := handlers.NewLeaderboardHandler(db, leaderboardCache)
	verificationHandler := handlers.NewVerificationHandler(db, repLedger, imgbbService, telegramService)
	adminHandler := handlers.NewAdminHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify", authHandler.Verify)
	auth.Post("/resend", authHandler.Resend)

	// Admin routes
	admin := api.Group("/admin", middleware.AdminAuthMiddleware(cfg.AdminAPIKey))
	admin.Get("/verification-requests", verificationHandler.ListPendingRequests)
	admin.Post("/verification-requests/:id/review", verificationHandler.ReviewRequest)
	admin.Get("/stats", adminHandler.DashboardStats)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	complaints := protected.Group("/complaints")
	complaints.Post("/", complaintHandler.CreateComplaint)
	complaints.Get("/", complaintHandler.ListComplaints)
	complaints.Get("/:id", complaintHandler.GetComplaint)
	complaints.Patch("/:id/resolve", complaintHandler.ResolveComplaint)
	complaints.Delete("/:id", complaintHandler.DeleteComplaint)
	complaints.Post("/:id/spam", complaintHandler.MarkSpam)

	complaints.Post("/:id/helpers", helperHandler.Volunteer)
	complaints.Get("/:id/helpers", helperHandler.ListHelpers)
	complaints.Post("/:id/helpers/:userId/decision", helperHandler.DecideHelper)

	complaints.Post("/:id/edit-requests", editRequestHandler.SubmitEditRequest)
	complaints.Get("/:id/edit-requests", editRequestHandler.ListEditRequests)
	complaints.Post("/:id/edit-requests/:reqId/decision", editRequestHandler.DecideEditRequest)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Post("/profile/photo", profileHandler.UploadPhoto)
	protected.Get("/profile/notifications", profileHandler.ListNotifications)

	protected.Get("/leaderboard", leaderboardHandler.GetLeaderboard)

	protected.Post("/verification", verificationHandler.SubmitRequest)
	protected.Get("/verification", verificationHandler.GetOwnRequest)
}
