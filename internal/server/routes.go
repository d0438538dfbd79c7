package server

import (
	"strings"

	"github.com/Kyz7/sitecms/internal/admin"
	"github.com/Kyz7/sitecms/internal/auth"
	"github.com/Kyz7/sitecms/internal/config"
	"github.com/Kyz7/sitecms/internal/contact"
	"github.com/Kyz7/sitecms/internal/content"
	"github.com/Kyz7/sitecms/internal/media"
	"github.com/Kyz7/sitecms/internal/ratelimit"
	"github.com/Kyz7/sitecms/internal/search"
	"github.com/Kyz7/sitecms/internal/team"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	origins := strings.Join(config.Current.CORSOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Range",
		AllowMethods:     "GET, HEAD, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Range, Accept-Ranges, Content-Length",
		AllowCredentials: origins != "*" && origins != "",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status":  status,
			"message": "Site CMS API is running",
		})
	})

	// ==========================================
	// PUBLIC MEDIA (GET also answers HEAD)
	// ==========================================
	app.Get("/media/:id", media.ServeHandler)
	app.Get("/images/:id", media.ServeHandler)

	api := app.Group("/api")
	protected := auth.JWTProtected()

	// ==========================================
	// AUTH
	// ==========================================
	authGroup := api.Group("/auth")
	authGroup.Post("/login", ratelimit.Login(), auth.LoginHandler)
	authGroup.Post("/logout", auth.LogoutHandler)
	authGroup.Get("/me", protected, auth.MeHandler)
	authGroup.Put("/password", protected, auth.ChangePasswordHandler)

	// ==========================================
	// ADMIN ACCOUNTS
	// ==========================================
	adminGroup := api.Group("/admin/users")
	adminGroup.Use(protected)
	adminGroup.Get("/", admin.ListUsersHandler)
	adminGroup.Post("/", admin.CreateUserHandler)
	adminGroup.Delete("/:id", admin.DeleteUserHandler)

	// ==========================================
	// UPLOADS (inline / chunked)
	// ==========================================
	uploadGroup := api.Group("/upload")
	uploadGroup.Use(protected)
	uploadGroup.Get("/config", media.UploadConfigHandler)
	uploadGroup.Post("/", media.UploadHandler)
	uploadGroup.Post("/chunk", media.ChunkHandler)
	uploadGroup.Post("/finalize", media.FinalizeHandler)

	// ==========================================
	// MEDIA LIBRARY (external blobs + legacy images)
	// ==========================================
	mediaGroup := api.Group("/media")
	mediaGroup.Use(protected)
	mediaGroup.Get("/", media.ListHandler)
	mediaGroup.Post("/upload-token", media.UploadTokenHandler)
	mediaGroup.Post("/complete", media.CompleteHandler)
	mediaGroup.Get("/:id/status", media.StatusHandler)
	mediaGroup.Delete("/:id", media.DeleteHandler)

	// ==========================================
	// ORDERED LISTS
	// ==========================================
	for _, r := range content.Resources() {
		r.Register(api, protected)
	}
	team.Register(api, protected)

	// ==========================================
	// SINGLETONS
	// ==========================================
	api.Get("/hero", content.GetHeroHandler)
	api.Put("/hero", protected, content.UpdateHeroHandler)
	api.Get("/sections", content.ListSectionsHandler)
	api.Get("/sections/:key", content.GetSectionHandler)
	api.Put("/sections/:key", protected, content.UpsertSectionHandler)
	api.Get("/settings", content.GetSettingsHandler)
	api.Put("/settings", protected, content.UpdateSettingsHandler)

	// ==========================================
	// CONTACT INBOX
	// ==========================================
	contact.Register(api, protected, ratelimit.Contact())

	// ==========================================
	// AGGREGATES
	// ==========================================
	api.Get("/public/site", content.PublicSiteHandler)
	api.Get("/dashboard/stats", protected, content.DashboardStatsHandler)
	api.Get("/search", protected, search.Handler)
}
