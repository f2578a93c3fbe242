package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"adrelay/internal/core/port"
)

// handleStats returns flat counters for a campaign. Optional `zone_id`
// narrows to campaign x zone and `date` (YYYY-MM-DD, requires zone_id) to
// campaign x zone x day. Invalid parameters produce HTTP 400.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.ParseInt(chi.URLParam(r, "campaignID"), 10, 64)
	if err != nil || campaignID <= 0 {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	var zoneID *int64
	if raw := q.Get("zone_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid zone_id", http.StatusBadRequest)
			return
		}
		zoneID = &id
	}
	var day *time.Time
	if raw := q.Get("date"); raw != "" {
		if zoneID == nil {
			http.Error(w, "date requires zone_id", http.StatusBadRequest)
			return
		}
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		day = &d
	}

	tally, err := h.svc.Stats(r.Context(), campaignID, zoneID, day)
	if err != nil {
		if errors.Is(err, port.ErrInvalidIdentifier) {
			http.Error(w, "invalid campaign id", http.StatusBadRequest)
			return
		}
		h.logger.Error("stats error", slog.Int64("campaign_id", campaignID), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(tally); err != nil {
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}
