package handler

import (
	"log"
	"net/http"
)

// QuotaStatus handles GET /api/quota-status.
func (h *Handlers) QuotaStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Status.Snapshot(r.Context()))
}

// ResetQuota handles POST /api/reset-quota. Re-enables the upstream after a
// quota trip. Requires the admin_key form field; recovery is an operator
// decision, never automatic.
func (h *Handlers) ResetQuota(w http.ResponseWriter, r *http.Request) {
	if h.AdminKey == "" || r.FormValue("admin_key") != h.AdminKey {
		writeError(w, http.StatusForbidden, "unauthorized")
		return
	}

	h.Breaker.Reset()
	log.Printf("warn: circuit breaker manually reset, upstream re-enabled")

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Circuit breaker reset",
		"status":  h.Status.Snapshot(r.Context()),
	})
}
