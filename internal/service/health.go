package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/comfykit/studio-ui/internal/apiclient"
)

// HealthServiceOptions groups dependencies for HealthService.
type HealthServiceOptions struct {
	Client *apiclient.Client
	Logger *slog.Logger
}

// HealthService reads the backend's health endpoints. Probes never return an
// error to callers: an unreachable backend is itself a health result.
type HealthService struct {
	client *apiclient.Client
	logger *slog.Logger
}

// NewHealthService constructs a new HealthService.
func NewHealthService(opts HealthServiceOptions) *HealthService {
	if opts.Client == nil {
		panic("service: HealthService requires a backend client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{client: opts.Client, logger: logger}
}

// ProbeResult is the outcome of one health probe.
type ProbeResult struct {
	Healthy bool   `json:"healthy"`
	Status  string `json:"status,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// System probes the backend service itself.
func (s *HealthService) System(ctx context.Context) ProbeResult {
	return s.probe(ctx, "/health/")
}

// ComfyUI probes the backend's connection to its workflow engine.
func (s *HealthService) ComfyUI(ctx context.Context) ProbeResult {
	return s.probe(ctx, "/health/comfyui")
}

// Overview holds both probes for the dashboard.
type Overview struct {
	System  ProbeResult `json:"system"`
	ComfyUI ProbeResult `json:"comfyui"`
}

// Check runs both probes concurrently with a shared deadline.
func (s *HealthService) Check(ctx context.Context) Overview {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var overview Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		overview.System = s.System(ctx)
		return nil
	})
	g.Go(func() error {
		overview.ComfyUI = s.ComfyUI(ctx)
		return nil
	})
	g.Wait() //nolint:errcheck // probes report failure in their result
	return overview
}

func (s *HealthService) probe(ctx context.Context, path string) ProbeResult {
	var body struct {
		Status string `json:"status"`
	}
	if err := s.client.GetJSON(ctx, path, apiclient.None, &body); err != nil {
		s.logger.Debug("health probe failed", "path", path, "error", err)
		return ProbeResult{Healthy: false, Detail: err.Error()}
	}
	status := body.Status
	if status == "" {
		status = "ok"
	}
	return ProbeResult{Healthy: true, Status: status}
}
