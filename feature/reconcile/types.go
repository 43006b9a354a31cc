package reconcile

import "time"

// Result is the outcome of one reconciliation run. Per-provider fetch
// failures are absorbed into Errors and never fail the run; IsSuccess is
// false only when a later stage errors out, in which case CompletedAt
// stays nil.
type Result struct {
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	IsSuccess   bool       `json:"isSuccess"`
	Error       string     `json:"error,omitempty"`

	DevicesProcessed int `json:"devicesProcessed"`
	SimsProcessed    int `json:"simsProcessed"`
	NewLinksCreated  int `json:"newLinksCreated"`
	LinksUpdated     int `json:"linksUpdated"`

	DuplicateIccidsFound int `json:"duplicateIccidsFound"`
	UnmatchedSims        int `json:"unmatchedSims"`
	OrphanedDevices      int `json:"orphanedDevices"`

	Errors  []string         `json:"errors,omitempty"`
	Metrics map[string]int64 `json:"metrics"`
}

// ProviderHealth is one provider's current reachability.
type ProviderHealth struct {
	ProviderName string        `json:"providerName"`
	IsHealthy    bool          `json:"isHealthy"`
	Latency      time.Duration `json:"latency"`
	LastError    string        `json:"lastError,omitempty"`
}

// DatabaseHealth reports entity store connectivity.
type DatabaseHealth struct {
	IsConnected       bool          `json:"isConnected"`
	ResponseTime      time.Duration `json:"responseTime"`
	ActiveConnections int           `json:"activeConnections"`
}

// QueueHealth is a placeholder for a future ingestion queue. Depths are
// always zero while ingestion stays pull-based.
type QueueHealth struct {
	Depth            int `json:"depth"`
	OldestAgeSeconds int `json:"oldestAgeSeconds"`
}

// SystemHealthStatus aggregates platform health for operators.
type SystemHealthStatus struct {
	CheckedAt      time.Time        `json:"checkedAt"`
	OverallHealthy bool             `json:"overallHealthy"`
	Providers      []ProviderHealth `json:"providers"`
	Queue          QueueHealth      `json:"queue"`
	Database       DatabaseHealth   `json:"database"`
	Warnings       []string         `json:"warnings,omitempty"`
	Errors         []string         `json:"errors,omitempty"`
}
