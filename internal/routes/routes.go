package routes

import (
    "context"
    "fmt"
    "log/slog"

    "github.com/gofiber/fiber/v2"
    "github.com/gofiber/fiber/v2/middleware/recover"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/redis/go-redis/v9"

    "github.com/stepwise-app/stepwise/internal/config"
    "github.com/stepwise-app/stepwise/internal/middleware"
    "github.com/stepwise-app/stepwise/internal/notification"
    "github.com/stepwise-app/stepwise/internal/onboarding"
    "github.com/stepwise-app/stepwise/internal/pages"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
    Cfg    config.Config
    DB     *pgxpool.Pool
    Cache  *redis.Client
    Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a database
// handle it falls back to in-memory repositories, which is only allowed in
// development.
func Setup(app *fiber.App, d Deps) error {
    if !d.Cfg.IsDev() && d.DB == nil {
        return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
    }

    // Middlewares
    app.Use(recover.New())
    app.Use(middleware.RequestID())
    app.Use(middleware.AccessLog(d.Logger))
    if d.Cache != nil {
        app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
    }

    // Health
    RegisterHealthRoutes(app, d)

    // Repositories
    var userRepo onboarding.Repository
    if d.DB != nil {
        userRepo = onboarding.NewPostgresRepository(d.DB)
    } else {
        userRepo = onboarding.NewMemoryRepository()
    }
    var pageRepo pages.Repository
    if d.DB != nil {
        pageRepo = pages.NewPostgresRepository(d.DB)
    } else {
        pageRepo = pages.NewMemoryRepository()
        _ = pageRepo.EnsureDefault(context.Background(), pages.Default())
    }

    // Services and handlers
    notifier := notification.NewLoggerNotifier(d.Logger)
    userSvc := onboarding.NewService(userRepo, notifier)
    pageSvc := pages.NewService(pageRepo, userSvc, notifier)

    userHandler := onboarding.NewHandler(userSvc)
    pageHandler := pages.NewHandler(pageSvc)

    registerLimit := middleware.RegisterRateLimit(d.Cache, d.Cfg.RegisterRateLimit, d.Cfg.RegisterRateWindow)

    RegisterUserRoutes(app, userHandler, registerLimit)
    RegisterAdminRoutes(app, pageHandler, userHandler)

    return nil
}
