package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/canlabel/labeler-station/internal/printer"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns station health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Component health states.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Station    string                     `json:"station" doc:"Station name"`
	Version    string                     `json:"version" doc:"Server version"`
	Uptime     string                     `json:"uptime" doc:"Time since the server started"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"printer":  s.checkPrinter(ctx),
		"scale":    s.checkScale(),
		"sse":      s.checkSSEManager(),
	}

	// The database decides overall health; devices only degrade it.
	overall := statusHealthy
	for name, c := range components {
		switch {
		case c.Status == statusUnhealthy && name == "database":
			overall = statusUnhealthy
		case c.Status != statusHealthy && overall == statusHealthy:
			overall = statusDegraded
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Station:    s.cfg.StationName,
			Version:    s.cfg.Version,
			Uptime:     time.Since(s.startedAt).Truncate(time.Second).String(),
			Components: components,
		},
	}, nil
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.services.Store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "database not configured"}
	}

	start := time.Now()
	err := s.services.Store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "database ping failed",
		}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

func (s *Server) checkPrinter(ctx context.Context) ComponentHealth {
	p := s.services.Printer
	if p == nil {
		return ComponentHealth{Status: statusDegraded, Message: "printer not configured"}
	}
	if _, disabled := p.(printer.Disabled); disabled {
		return ComponentHealth{Status: statusDegraded, Message: "no label printer configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Check(ctx)
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: err.Error()}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String(), Message: p.Describe()}
}

func (s *Server) checkScale() ComponentHealth {
	if s.services.Scale == nil {
		return ComponentHealth{Status: statusDegraded, Message: "scale not configured"}
	}
	status := s.services.Scale.Status()
	if !status.Connected {
		msg := "scale disconnected"
		if status.LastError != "" {
			msg = status.LastError
		}
		return ComponentHealth{Status: statusDegraded, Message: msg}
	}
	return ComponentHealth{Status: statusHealthy, Message: status.Port}
}

// checkSSEManager reports connected event stream clients.
func (s *Server) checkSSEManager() ComponentHealth {
	if s.services.SSEManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "SSE manager not configured"}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Message: formatSSEStatus(s.services.SSEManager.ClientCount()),
	}
}

func formatSSEStatus(count int) string {
	switch count {
	case 0:
		return "no connected clients"
	case 1:
		return "1 connected client"
	default:
		return strconv.Itoa(count) + " connected clients"
	}
}
