package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

type checkResult struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

func (a *App) runChecks(ctx context.Context) ([]checkResult, bool) {
	results := make([]checkResult, 0, len(a.Checks))
	healthy := true
	for _, check := range a.Checks {
		cctx, cancel := context.WithTimeout(ctx, a.pingTimeout)
		start := time.Now()
		err := check.Ping(cctx)
		cancel()
		res := checkResult{
			Name:      check.Name,
			Status:    "ok",
			LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
		}
		if err != nil {
			healthy = false
			res.Status = "down"
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results, healthy
}

// Ready answers 200 only when every configured dependency responds.
func (a *App) Ready(w http.ResponseWriter, r *http.Request) {
	_, healthy := a.runChecks(r.Context())
	if !healthy {
		a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Detailed reports every dependency with its ping latency.
func (a *App) Detailed(w http.ResponseWriter, r *http.Request) {
	results, healthy := a.runChecks(r.Context())
	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	a.json(w, code, map[string]any{
		"status": status,
		"checks": results,
		"time":   time.Now().UTC(),
	})
}
