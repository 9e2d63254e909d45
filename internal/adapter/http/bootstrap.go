package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"timely/internal/adapter/database/postgres"
	pgrepository "timely/internal/adapter/database/postgres/repository"
	"timely/internal/adapter/database/sqlite"
	"timely/internal/adapter/database/sqlite/repository"
	"timely/internal/adapter/http/routes"
	"timely/internal/core/port"
	"timely/internal/core/telemetry"
	"timely/internal/shared"
	"timely/pkg/config"
)

func StartServer(metrics *shared.AppMetrics, logger *shared.AppLogger) {
	StartServerWithConfig(metrics, logger, config.FromEnv())
}

func StartServerWithConfig(metrics *shared.AppMetrics, logger *shared.AppLogger, cfg *config.AppConfig) {
	userRepo, taskRepo, closeDB, err := openRepositories()

	if err != nil {
		slog.Error("Database startup failed", "error", err)
		return
	}
	defer closeDB()

	container := NewContainer(userRepo, taskRepo, logger, cfg)

	router := routes.SetupRouterWithConfig(routes.HandlersConfig{
		AuthService: container.AuthService,
		AuthHandler: container.AuthHandler,
		TaskHandler: container.TaskHandler,
	}, metrics, logger, cfg)

	port := config.GetServerPort()

	slog.Info("Server starting",
		"port", port,
		"environment", cfg.Environment,
		"rate_limit_enabled", cfg.RateLimitEnabled,
		"https_enforced", cfg.EnforceHTTPS)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Server failed to start", "error", err)
	}
}

// openRepositories picks the storage backend. DATABASE_URL selects
// postgres, otherwise the embedded sqlite database is used.
func openRepositories() (port.UserRepository, port.TaskRepository, func(), error) {
	if os.Getenv("DATABASE_URL") != "" {
		db, err := postgres.NewDB(context.Background())

		if err != nil {
			return nil, nil, nil, err
		}

		return pgrepository.NewUserRepository(db),
			pgrepository.NewTaskRepository(db),
			db.Pool.Close,
			nil
	}

	db, err := sqlite.NewDB()

	if err != nil {
		return nil, nil, nil, err
	}

	probe := telemetry.NewOTELProbe(slog.Default())

	return repository.NewUserRepository(db, probe),
		repository.NewTaskRepository(db, probe),
		func() { db.Close() },
		nil
}
