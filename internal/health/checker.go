package health

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// statsReporter is implemented by caches that expose hit counters.
type statsReporter interface {
	Stats(ctx context.Context) (map[string]string, error)
}

// HealthChecker reports on the cache and the data loaded at startup.
type HealthChecker struct {
	cache       Pinger
	flights     int
	policyIndex int
	logger      *logrus.Logger
	startTime   time.Time
}

// NewHealthChecker takes a nil cache when caching is disabled.
func NewHealthChecker(cache Pinger, flights, policyChunks int, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		cache:       cache,
		flights:     flights,
		policyIndex: policyChunks,
		logger:      logger,
		startTime:   time.Now(),
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Detail       string `json:"detail,omitempty"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

// CheckRedis pings the cache. A failing cache only degrades the service.
func (h *HealthChecker) CheckRedis(ctx context.Context) ServiceHealth {
	if h.cache == nil {
		return ServiceHealth{
			Name:        "redis",
			Status:      StatusDisabled,
			LastChecked: time.Now().Format(time.RFC3339),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.cache.Ping(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	detail := ""
	if err != nil {
		status = StatusDegraded
		errorMsg = err.Error()
		h.logger.WithError(err).Error("Redis health check failed")
	} else if reporter, ok := h.cache.(statsReporter); ok {
		if stats, err := reporter.Stats(ctx); err == nil {
			detail = fmt.Sprintf("%s hits, %s misses", stats["keyspace_hits"], stats["keyspace_misses"])
		}
	}

	return ServiceHealth{
		Name:         "redis",
		Status:       status,
		ResponseTime: responseTime,
		Detail:       detail,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

// CheckData reports the sizes of the flight dataset and the policy index.
func (h *HealthChecker) CheckData() []ServiceHealth {
	now := time.Now().Format(time.RFC3339)

	policyStatus := StatusHealthy
	if h.policyIndex == 0 {
		policyStatus = StatusUnhealthy
	}

	return []ServiceHealth{
		{
			Name:        "flights",
			Status:      StatusHealthy,
			Detail:      fmt.Sprintf("%d records", h.flights),
			LastChecked: now,
		},
		{
			Name:        "policy_index",
			Status:      policyStatus,
			Detail:      fmt.Sprintf("%d chunks", h.policyIndex),
			LastChecked: now,
		},
	}
}

// CheckAll performs health checks on all services
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := append(h.CheckData(), h.CheckRedis(ctx))

	overallStatus := StatusHealthy
	for _, service := range services {
		if service.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		}
		if service.Status == StatusDegraded && overallStatus == StatusHealthy {
			overallStatus = StatusDegraded
		}
	}

	return OverallHealth{
		Status:   overallStatus,
		Services: services,
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
	}
}
