package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/freezeflowai/hvac-pm-platform/app/controllers"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/attachments"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/billing"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/cache"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/database"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/env"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/impersonation"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/jobqueue"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/middleware"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/router"
)

func main() {
	app := NewApplication()

	// background workers: reminders, counter flush, daily rollup
	manager := jobqueue.GetManager()
	manager.Start()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		manager.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())

	// Support impersonation grants live in redis so they survive restarts
	// and are shared across instances.
	guard := impersonation.NewGuard(impersonation.NewRedisStore(cache.GetClient()))
	middleware.SetImpersonationGuard(guard)
	controllers.SetImpersonationGuard(guard)

	// Stripe: the receiver handles webhooks, the client makes API calls.
	// Either can be absent in development.
	var (
		receiver     *billing.Receiver
		stripeClient *billing.Client
	)
	if secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", ""); secret != "" {
		receiver = billing.NewReceiver(secret)
	}
	if key := env.GetEnv("STRIPE_SECRET_KEY", ""); key != "" {
		stripeClient = billing.NewClient(key)
	}
	controllers.SetBillingComponents(billing.NewServiceFromDB(database.GetDB()), receiver, stripeClient)

	// S3-backed attachments, optional per deployment.
	if cfg, err := attachments.LoadConfig(); err != nil {
		log.Printf("attachments disabled: %v", err)
	} else if cfg.IsEnabled() {
		store, err := attachments.NewStore(cfg)
		if err != nil {
			log.Printf("attachments disabled: %v", err)
		} else {
			controllers.SetAttachmentStore(store, cfg)
		}
	}

	app := fiber.New(fiber.Config{
		AppName:   "hvacpm",
		BodyLimit: 30 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
