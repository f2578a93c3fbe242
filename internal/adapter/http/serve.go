package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"adrelay/internal/core/port"
)

// handleServe serves an ad for the {zoneID} placement. On a campaign hit
// or a configured zone fallback it redirects with 302. A malformed zone
// id is a 400; an unknown zone or an unsold request is a 404. Unexpected
// failures are logged and answered with a generic 500.
func (h *Handler) handleServe(w http.ResponseWriter, r *http.Request) {
	zoneID, err := strconv.ParseInt(chi.URLParam(r, "zoneID"), 10, 64)
	if err != nil || zoneID <= 0 {
		http.Error(w, "invalid zone id", http.StatusBadRequest)
		return
	}

	rc := h.requestContext(w, r)
	res, err := h.svc.ServeAd(r.Context(), zoneID, rc)
	switch {
	case err == nil:
		http.Redirect(w, r, res.RedirectURL, http.StatusFound)
	case errors.Is(err, port.ErrInvalidIdentifier):
		http.Error(w, "invalid zone id", http.StatusBadRequest)
	case errors.Is(err, port.ErrZoneNotFound), errors.Is(err, port.ErrNoEligibleCampaign):
		http.NotFound(w, r)
	default:
		h.logger.Error("serve error", slog.Int64("zone_id", zoneID), slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
