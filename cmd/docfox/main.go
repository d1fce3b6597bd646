package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/docfoxhq/DocFox/app/controllers"
	"github.com/docfoxhq/DocFox/app/repository"
	"github.com/docfoxhq/DocFox/internal/pkg/billing"
	"github.com/docfoxhq/DocFox/internal/pkg/cache"
	"github.com/docfoxhq/DocFox/internal/pkg/conversion"
	"github.com/docfoxhq/DocFox/internal/pkg/database"
	"github.com/docfoxhq/DocFox/internal/pkg/env"
	"github.com/docfoxhq/DocFox/internal/pkg/intake"
	"github.com/docfoxhq/DocFox/internal/pkg/mail"
	"github.com/docfoxhq/DocFox/internal/pkg/notification"
	"github.com/docfoxhq/DocFox/internal/pkg/router"
	"github.com/docfoxhq/DocFox/internal/pkg/storage"
	"github.com/docfoxhq/DocFox/internal/pkg/usage"
)

func main() {
	app, sweeper := NewApplication()
	sweeper.Start()
	defer sweeper.Stop()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "8080")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *conversion.Sweeper) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	storageCfg, err := storage.LoadConfig()
	if err != nil {
		log.Fatalf("storage configuration error: %v", err)
	}
	store, err := storage.NewClient(storageCfg)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	dispatcher := notification.NewDispatcher(mail.SendMail)
	ledger := usage.NewLedger(repos.UsagePeriod)
	intakeSvc := intake.NewService(store, repos.Document)

	timeoutMinutes := 30
	if v := env.GetEnv("CONVERSION_PROCESSING_TIMEOUT_MINUTES", ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutMinutes = parsed
		}
	}

	manager := conversion.NewManager(conversion.ManagerConfig{
		Jobs:              repos.Job,
		Docs:              repos.Document,
		Users:             repos.User,
		Ledger:            ledger,
		Mirror:            conversion.NewRedisStatusMirror(),
		Backend:           conversion.NewHTTPBackend(),
		Notifier:          dispatcher,
		CallbackBaseURL:   env.GetEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		ProcessingTimeout: time.Duration(timeoutMinutes) * time.Minute,
	})
	sweeper := conversion.NewSweeper(manager)

	billingSvc := billing.NewServiceFromDB(database.GetDB())

	callbackSecret := env.GetEnv("CALLBACK_TOKEN_SECRET", "")
	if callbackSecret == "" {
		log.Fatal("CALLBACK_TOKEN_SECRET is required")
	}
	webhookSecret := env.GetEnv("BILLING_WEBHOOK_SECRET", "")
	if webhookSecret == "" {
		log.Fatal("BILLING_WEBHOOK_SECRET is required")
	}

	deps := router.Deps{
		Users:          repos.User,
		Auth:           controllers.NewAuthController(repos.User, dispatcher),
		Upload:         controllers.NewUploadController(intakeSvc, repos.User, repos.Document),
		Conversion:     controllers.NewConversionController(manager, repos.User, callbackSecret),
		Callback:       controllers.NewCallbackController(manager, callbackSecret),
		BillingWebhook: controllers.NewBillingWebhookController(billingSvc, repos.User, dispatcher, webhookSecret),
		Account:        controllers.NewAccountController(repos.User, repos.Document, ledger),
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 30, // enterprise uploads go up to 1 GiB
	})

	app.Use(recover.New(), logger.New())

	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	if basePath := findProjectRoot(); basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	}

	router.InstallRouter(app, deps)

	return app, sweeper
}

func findProjectRoot() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/docfox to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			return path
		}
	}
	return ""
}
