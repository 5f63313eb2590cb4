package handler

import "net/http"

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"pipeline": "gate-based",
	})
}

// HealthLiveness handles GET /health/liveness
func (h *Handlers) HealthLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "alive",
	})
}

// HealthReadiness handles GET /health/readiness. The process is ready as
// long as it can serve; a tripped breaker degrades responses but does not
// take the service down.
func (h *Handlers) HealthReadiness(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "healthy"}
	if h.Breaker != nil && h.Breaker.IsOpen() {
		body["upstream"] = "disabled"
	}
	writeJSON(w, http.StatusOK, body)
}
