package reconcile

import (
	"context"
	"fmt"
	"time"
)

// Health aggregates provider reachability and entity store connectivity
// into one operator-facing status. A failing provider downgrades overall
// health with a warning; a failing database check is an error.
func (e *Engine) Health(ctx context.Context) *SystemHealthStatus {
	status := &SystemHealthStatus{
		CheckedAt:      time.Now().UTC(),
		OverallHealthy: true,
		Providers:      make([]ProviderHealth, 0, len(e.registry.Adapters())),
	}

	for _, adapter := range e.registry.Adapters() {
		start := time.Now()
		healthy, err := adapter.Healthy(ctx)
		ph := ProviderHealth{
			ProviderName: adapter.Name(),
			IsHealthy:    healthy && err == nil,
			Latency:      time.Since(start),
		}
		if err != nil {
			ph.LastError = err.Error()
		}
		if !ph.IsHealthy {
			status.OverallHealthy = false
			status.Warnings = append(status.Warnings, fmt.Sprintf("provider %s is unhealthy", adapter.Name()))
		}
		status.Providers = append(status.Providers, ph)
	}

	status.Database = e.databaseHealth(ctx)
	if !status.Database.IsConnected {
		status.OverallHealthy = false
		status.Errors = append(status.Errors, "entity store is unreachable")
	}

	// Queue depths stay zero while ingestion is pull-based.
	status.Queue = QueueHealth{}

	return status
}

func (e *Engine) databaseHealth(ctx context.Context) DatabaseHealth {
	sqlDB, err := e.db.DB()
	if err != nil {
		return DatabaseHealth{}
	}

	start := time.Now()
	if err := sqlDB.PingContext(ctx); err != nil {
		return DatabaseHealth{ResponseTime: time.Since(start)}
	}

	return DatabaseHealth{
		IsConnected:       true,
		ResponseTime:      time.Since(start),
		ActiveConnections: sqlDB.Stats().OpenConnections,
	}
}
