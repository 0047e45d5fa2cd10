package models

import (
	"strings"
	"time"
)

const (
	HealthHealthy       = "healthy"
	HealthUnhealthy     = "unhealthy"
	HealthNotConfigured = "not configured"
)

// HealthReport is the editor's view of its dependencies. A dependency that
// is switched off does not make the editor unhealthy.
type HealthReport struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func NewHealthReport(services map[string]string, at time.Time) HealthReport {
	status := HealthHealthy
	for _, s := range services {
		if s != HealthHealthy && s != HealthNotConfigured {
			status = HealthUnhealthy
			break
		}
	}
	return HealthReport{Status: status, Timestamp: at, Services: services}
}

// Unhealthy formats a failed dependency check.
func Unhealthy(reason string) string {
	return HealthUnhealthy + ": " + strings.TrimSpace(reason)
}
