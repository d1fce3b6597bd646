package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/docfoxhq/DocFox/app/controllers"
	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/middleware"
	"github.com/docfoxhq/DocFox/internal/pkg/session"
)

// Deps carries the wired controllers into route installation. Everything is
// constructed in main; the router only binds paths to handlers.
type Deps struct {
	Users          repository.UserRepository
	Auth           *controllers.AuthController
	Upload         *controllers.UploadController
	Conversion     *controllers.ConversionController
	Callback       *controllers.CallbackController
	BillingWebhook *controllers.BillingWebhookController
	Account        *controllers.AccountController
}

// InstallRouter registers all HTTP routes on the app
func InstallRouter(app *fiber.App, deps Deps) {
	session.NewSessionStore()

	api := app.Group("/api", limiter.New(limiter.Config{Max: 120}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "DocFox API",
		})
	})

	v1 := api.Group("/v1", middleware.UserContextMiddleware(deps.Users))

	// Public: account lifecycle
	auth := v1.Group("/auth")
	auth.Post("/register", deps.Auth.HandleRegister)
	auth.Get("/activate", deps.Auth.HandleActivate)
	auth.Post("/login", deps.Auth.HandleLogin)
	auth.Post("/logout", deps.Auth.HandleLogout)
	auth.Post("/forgot-password", deps.Auth.HandleForgotPassword)
	auth.Post("/reset-password", deps.Auth.HandleResetPassword)

	// Public: engine callback (token-authenticated) and provider webhook
	// (signature-authenticated)
	v1.Post("/conversions/:uuid/callback", deps.Callback.HandleCallback)
	v1.Post("/billing/webhook", deps.BillingWebhook.HandleWebhook)

	// Session-protected surface
	protected := v1.Group("", middleware.RequireAPISessionAuth)
	protected.Post("/uploads", deps.Upload.HandleUpload)
	protected.Get("/documents", deps.Upload.HandleListDocuments)
	protected.Post("/conversions", deps.Conversion.HandleCreate)
	protected.Get("/conversions", deps.Conversion.HandleList)
	protected.Get("/conversions/:uuid", deps.Conversion.HandleGet)
	protected.Get("/conversions/:uuid/status", deps.Conversion.HandleGetStatus)
	protected.Get("/account", deps.Account.HandleGetAccount)
	protected.Post("/account/api-key", deps.Account.HandleCreateAPIKey)

	// API-key surface for enterprise integrations; mirrors the session routes
	ext := api.Group("/ext/v1", middleware.APIKeyAuthMiddleware(deps.Users))
	ext.Post("/uploads", deps.Upload.HandleUpload)
	ext.Get("/documents", deps.Upload.HandleListDocuments)
	ext.Post("/conversions", deps.Conversion.HandleCreate)
	ext.Get("/conversions", deps.Conversion.HandleList)
	ext.Get("/conversions/:uuid", deps.Conversion.HandleGet)
	ext.Get("/conversions/:uuid/status", deps.Conversion.HandleGetStatus)
	ext.Get("/account", deps.Account.HandleGetAccount)
}
