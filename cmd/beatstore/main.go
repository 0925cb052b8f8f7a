package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fivedlabs/beatstore/app/controllers"
	"github.com/fivedlabs/beatstore/app/repository"
	apiv1 "github.com/fivedlabs/beatstore/internal/api/v1"
	"github.com/fivedlabs/beatstore/internal/pkg/adminauth"
	"github.com/fivedlabs/beatstore/internal/pkg/beatadmin"
	"github.com/fivedlabs/beatstore/internal/pkg/cache"
	"github.com/fivedlabs/beatstore/internal/pkg/catalog"
	"github.com/fivedlabs/beatstore/internal/pkg/checkout"
	"github.com/fivedlabs/beatstore/internal/pkg/constants"
	"github.com/fivedlabs/beatstore/internal/pkg/database"
	"github.com/fivedlabs/beatstore/internal/pkg/env"
	"github.com/fivedlabs/beatstore/internal/pkg/leads"
	"github.com/fivedlabs/beatstore/internal/pkg/licensedoc"
	"github.com/fivedlabs/beatstore/internal/pkg/objectstore"
	"github.com/fivedlabs/beatstore/internal/pkg/publisher"
	"github.com/fivedlabs/beatstore/internal/pkg/router"
	"github.com/fivedlabs/beatstore/internal/pkg/stripehook"
	"github.com/fivedlabs/beatstore/internal/pkg/upload"
)

// Application holds the server and what has to be closed with it.
type Application struct {
	App   *fiber.App
	db    *gorm.DB
	redis *redis.Client
	leads *leads.Forwarder
}

func main() {
	env.SetupEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := NewApplication(ctx)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		<-ctx.Done()
		fiberlog.Info("[Server] shutting down")
		if err := application.App.ShutdownWithTimeout(10 * time.Second); err != nil {
			fiberlog.Errorf("[Server] shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	if err := application.App.Listen(addr); err != nil {
		log.Fatal(err)
	}
	application.Close()
}

func NewApplication(ctx context.Context) (*Application, error) {
	db, err := database.Open(ctx, database.LoadConfig())
	if err != nil {
		return nil, err
	}

	cacheCfg := cache.LoadConfig()
	rdb := cache.NewClient(ctx, cacheCfg)
	// the redis storage driver panics on an unreachable server
	var limiterStorage fiber.Storage
	if cache.Healthy(ctx, rdb) == nil {
		limiterStorage = cache.NewLimiterStorage(cacheCfg)
	} else {
		fiberlog.Warn("[Cache] redis unavailable, rate limits are kept in memory")
	}

	storeCfg, err := objectstore.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := objectstore.NewClient(ctx, storeCfg)
	if err != nil {
		return nil, err
	}
	pub := publisher.New(store)

	authCfg, err := adminauth.LoadConfig()
	if err != nil {
		return nil, err
	}
	hookCfg, err := stripehook.LoadConfig()
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	cat := catalog.NewService(repos.Beat)
	forwarder := leads.NewForwarder(leads.LoadConfig())
	receiver := stripehook.NewReceiver(hookCfg, repos, pub, licensedoc.LoadDefaults())

	handlers := router.Handlers{
		Catalog:  controllers.NewCatalogController(cat),
		Admin:    controllers.NewAdminController(beatadmin.NewService(repos, pub)),
		Webhook:  controllers.NewWebhookController(receiver),
		Leads:    controllers.NewLeadsController(forwarder),
		Checkout: controllers.NewCheckoutController(checkout.NewService(checkout.DefaultTiers(), cat)),
		Health: controllers.NewHealthController(map[string]controllers.HealthCheck{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
			"cache":    func(ctx context.Context) error { return cache.Healthy(ctx, rdb) },
			"storage":  store.CheckBucket,
		}),
		Authorizer:     adminauth.NewVerifier(authCfg),
		LimiterStorage: limiterStorage,
	}

	app := fiber.New(fiber.Config{
		AppName:      "beatstore",
		ErrorHandler: controllers.ErrorHandler,
		// audio ceiling plus a preview and form fields
		BodyLimit: int(upload.MaxAudioBytes + upload.MaxImageBytes + 1<<20),
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: env.GetEnv("CORS_ALLOW_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	// SWAGGER / OPENAPI
	docsFile := findDocs()
	if docsFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsRoute,
			FilePath: docsFile,
			Path:     constants.DocsVersion,
		}))
	}

	// ROUTER
	router.InstallRouter(app, handlers)

	if docsFile != "" {
		doc, err := apiv1.Load(ctx, docsFile)
		if err != nil {
			return nil, err
		}
		for _, route := range apiv1.Undocumented(doc, app.GetRoutes(true)) {
			fiberlog.Warnf("[OpenAPI] route not documented: %s", route)
		}
	} else {
		fiberlog.Warnf("[OpenAPI] %s not found, docs disabled", constants.DocsFile)
	}

	return &Application{App: app, db: db, redis: rdb, leads: forwarder}, nil
}

// Close waits for queued lead deliveries and releases connections.
func (a *Application) Close() {
	a.leads.Wait()
	if err := a.redis.Close(); err != nil {
		fiberlog.Warnf("[Cache] close: %v", err)
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func findDocs() string {
	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/beatstore to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + constants.DocsFile); err == nil {
			return path + constants.DocsFile
		}
	}
	return ""
}
