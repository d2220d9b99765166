package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status       string                     `json:"status" doc:"Overall status: healthy or degraded"`
	TableVersion uint64                     `json:"table_version" doc:"Current conversion table version"`
	Components   map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"table":   s.checkTable(),
		"session": s.checkSession(),
	}

	overall := "healthy"
	for _, c := range components {
		if c.Status != "healthy" {
			overall = "degraded"
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:       overall,
			TableVersion: s.table.Version(),
			Components:   components,
		},
	}, nil
}

func (s *Server) checkTable() ComponentHealth {
	if dups := s.table.Duplicates(); len(dups) > 0 {
		return ComponentHealth{
			Status:  "degraded",
			Message: fmt.Sprintf("%d duplicate keys; deactivate entries to repair", len(dups)),
		}
	}
	if stale := s.table.StaleEntries(); len(stale) > 0 {
		return ComponentHealth{
			Status:  "healthy",
			Message: fmt.Sprintf("%d entries use an older normalization ruleset", len(stale)),
		}
	}
	return ComponentHealth{Status: "healthy"}
}

func (s *Server) checkSession() ComponentHealth {
	if s.session.Blocked() {
		return ComponentHealth{Status: "degraded", Message: "session blocked by ambiguous lookups"}
	}
	return ComponentHealth{Status: "healthy"}
}
