package service

import (
	"context"
)

// Health probes the record store and the content store. The aggregate is
// healthy only when every component answers.
func (s *fileService) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     "healthy",
		Components: make(map[string]ComponentStatus),
	}

	if err := s.repo.Health(ctx); err != nil {
		status.Status = "unhealthy"
		status.Components["records"] = ComponentStatus{Status: "unhealthy", Error: err.Error()}
	} else {
		status.Components["records"] = ComponentStatus{Status: "healthy"}
	}

	if err := s.content.Health(ctx); err != nil {
		status.Status = "unhealthy"
		status.Components["storage"] = ComponentStatus{Status: "unhealthy", Error: err.Error()}
	} else {
		status.Components["storage"] = ComponentStatus{Status: "healthy"}
	}

	if count, err := s.repo.Count(ctx); err == nil {
		status.Files = count
	}

	return status
}
