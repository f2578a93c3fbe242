package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"adrelay/internal/core/port"
)

// handleClick is the tracking hop: it records the click, substitutes
// macros into the campaign's redirect template and redirects the visitor
// to the destination. Malformed ids are a 400, an unresolvable campaign a
// 404; internal detail never reaches the client.
func (h *Handler) handleClick(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.ParseInt(chi.URLParam(r, "campaignID"), 10, 64)
	if err != nil || campaignID <= 0 {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}
	zoneID, err := strconv.ParseInt(chi.URLParam(r, "zoneID"), 10, 64)
	if err != nil || zoneID <= 0 {
		http.Error(w, "invalid zone id", http.StatusBadRequest)
		return
	}

	rc := h.requestContext(w, r)
	dest, err := h.svc.TrackClick(r.Context(), campaignID, zoneID, rc)
	switch {
	case err == nil:
		http.Redirect(w, r, dest, http.StatusFound)
	case errors.Is(err, port.ErrInvalidIdentifier):
		http.Error(w, "invalid id", http.StatusBadRequest)
	case errors.Is(err, port.ErrCampaignNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error("click error",
			slog.Int64("campaign_id", campaignID), slog.Int64("zone_id", zoneID), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
