package bootstrap

import (
	"log/slog"

	"github.com/comfykit/studio-ui/config"
	"github.com/comfykit/studio-ui/internal/apiclient"
	"github.com/comfykit/studio-ui/internal/service"
)

// ServiceContainer holds the constructed services shared across the app.
type ServiceContainer struct {
	Auth      *service.AuthService
	Workflows *service.WorkflowService
	Health    *service.HealthService
	Admin     *service.AdminService
}

// BuildServices wires the backend client and every service on top of it.
func BuildServices(cfg *config.AppConfig, logger *slog.Logger) ServiceContainer {
	if logger == nil {
		logger = slog.Default()
	}

	client := apiclient.New(apiclient.Options{
		BaseURL: cfg.Backend.BaseURL(),
		Logger:  logger,
	})

	return ServiceContainer{
		Auth:      service.NewAuthService(service.AuthServiceOptions{Client: client, Logger: logger}),
		Workflows: service.NewWorkflowService(service.WorkflowServiceOptions{Client: client, Logger: logger}),
		Health:    service.NewHealthService(service.HealthServiceOptions{Client: client, Logger: logger}),
		Admin:     service.NewAdminService(service.AdminServiceOptions{Client: client, Logger: logger}),
	}
}
