package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"adrelay/internal/core/port"
)

// syncResponse is the JSON shape of a resync report; the aggregated error
// is flattened to a string so partial failures stay visible to the admin
// caller.
type syncResponse struct {
	port.SyncReport
	Error string `json:"error,omitempty"`
}

// handleResync triggers cache reconciliation on demand. Scope is selected
// by query parameters: `scope=all|campaigns|zones` for full resyncs, or
// `campaign_id`/`zone_id` for single-entity propagation. A resync with
// individual failures still answers 200 with the partial-failure report.
func (h *Handler) handleResync(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var rep port.SyncReport
	switch {
	case q.Get("campaign_id") != "":
		id, err := strconv.ParseInt(q.Get("campaign_id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid campaign_id", http.StatusBadRequest)
			return
		}
		rep = h.syncer.ResyncCampaign(ctx, id)
	case q.Get("zone_id") != "":
		id, err := strconv.ParseInt(q.Get("zone_id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid zone_id", http.StatusBadRequest)
			return
		}
		rep = h.syncer.ResyncZone(ctx, id)
	default:
		switch q.Get("scope") {
		case "", "all":
			rep = h.syncer.ResyncAll(ctx)
		case "campaigns":
			rep = h.syncer.ResyncCampaigns(ctx)
		case "zones":
			rep = h.syncer.ResyncZones(ctx)
		default:
			http.Error(w, "invalid scope", http.StatusBadRequest)
			return
		}
	}

	resp := syncResponse{SyncReport: rep}
	if rep.Err != nil {
		resp.Error = rep.Err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}
