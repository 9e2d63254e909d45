package http

import (
	"log/slog"

	"timely/internal/adapter/http/handler"
	"timely/internal/adapter/mail"
	"timely/internal/core/port"
	"timely/internal/core/service"
	"timely/internal/core/telemetry"
	"timely/internal/shared"
	"timely/pkg/config"
)

type Container struct {
	UserRepo port.UserRepository
	TaskRepo port.TaskRepository

	AuthService port.AuthService
	TaskService port.TaskService

	AuthHandler *handler.AuthHandler
	TaskHandler *handler.TaskHandler
}

func NewContainer(userRepo port.UserRepository, taskRepo port.TaskRepository, logger *shared.AppLogger, cfg *config.AppConfig) *Container {
	probe := telemetry.NewOTELProbe(slog.Default())

	mailer := mail.NewSMTPMailer(cfg.SMTP)

	authSvc := service.NewAuthService(userRepo, mailer, cfg.AppBaseURL)
	taskSvc := service.NewTaskService(taskRepo, probe)

	return &Container{
		UserRepo: userRepo,
		TaskRepo: taskRepo,

		AuthService: authSvc,
		TaskService: taskSvc,

		AuthHandler: handler.NewAuthHandler(authSvc, cfg),
		TaskHandler: handler.NewTaskHandler(taskSvc, logger),
	}
}
