package httpapi

import (
	"net/http"
	"strconv"

	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

type filterRequest struct {
	Items []domain.ContentRecord `json:"items" validate:"required,min=1,max=1000"`
}

type counters struct {
	TotalRequests       uint64 `json:"totalRequests"`
	BlockedRequests     uint64 `json:"blockedRequests"`
	WhitelistedRequests uint64 `json:"whitelistedRequests"`
}

func (a *API) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !a.decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	writeJSON(w, http.StatusOK, a.admission.EvaluateAll(req.Items))
}

// handleMetrics returns the counters, or the full snapshot with ?details=true.
func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := a.admission.Metrics()
	details, _ := strconv.ParseBool(r.URL.Query().Get("details"))
	if details {
		writeJSON(w, http.StatusOK, m)
		return
	}
	writeJSON(w, http.StatusOK, counters{
		TotalRequests:       m.TotalRequests,
		BlockedRequests:     m.BlockedRequests,
		WhitelistedRequests: m.WhitelistedRequests,
	})
}

func (a *API) handleClearCache(w http.ResponseWriter, r *http.Request) {
	a.admission.ClearCache()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *API) handleResetMetrics(w http.ResponseWriter, r *http.Request) {
	a.admission.ResetMetrics()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
