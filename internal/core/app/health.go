package app

import (
	"context"
	"time"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/data/history"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app.engine == nil {
		status.Status = "degraded"
		status.Components["engine"] = "missing"
	} else {
		status.Components["engine"] = "ok"
	}

	if s.app.knowledge != nil {
		status.Components["knowledge"] = "ok (" + s.app.knowledge.Version() + ")"
	} else {
		status.Status = "degraded"
		status.Components["knowledge"] = "missing"
	}

	switch {
	case s.app.history != nil:
		if _, err := s.app.history.LoadReviews(ctx, history.Query{ProjectKey: s.app.Config.History.ProjectKey, Limit: 1}); err != nil {
			status.Status = "degraded"
			status.Components["history"] = "error: " + err.Error()
		} else {
			status.Components["history"] = "ok"
		}
	case s.app.Config.History.Enabled:
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	default:
		status.Components["history"] = "disabled"
	}
	return status
}
