package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker reports sweep liveness over HTTP. A sweep that has not
// completed a job recently shows as degraded so long-running batches
// can be watched from the outside.
type HealthChecker struct {
	mu           sync.RWMutex
	started      time.Time
	lastJob      time.Time
	jobsDone     int
	jobsFailed   int
	stallTimeout time.Duration
}

// HealthStatus is the JSON body of the health endpoint.
type HealthStatus struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	LastJob    time.Time `json:"last_job"`
	JobsDone   int       `json:"jobs_done"`
	JobsFailed int       `json:"jobs_failed"`
	Uptime     string    `json:"uptime"`
}

// NewHealthChecker returns a checker that reports degraded when no job
// finishes within stallTimeout.
func NewHealthChecker(stallTimeout time.Duration) *HealthChecker {
	now := time.Now()
	return &HealthChecker{started: now, lastJob: now, stallTimeout: stallTimeout}
}

// JobFinished records one completed sweep job.
func (h *HealthChecker) JobFinished(failed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastJob = time.Now()
	h.jobsDone++
	if failed {
		h.jobsFailed++
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if h.stallTimeout > 0 && time.Since(h.lastJob) > h.stallTimeout {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		LastJob:    h.lastJob,
		JobsDone:   h.jobsDone,
		JobsFailed: h.jobsFailed,
		Uptime:     time.Since(h.started).String(),
	})
}
