package httpadapter

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"adrelay/internal/core/domain"
)

// visitorCookie identifies a browser across requests for frequency
// capping.
const visitorCookie = "arid"

// requestContext builds the serving core's request context from headers:
// client country from the edge geo header, IP from X-Forwarded-For,
// device/OS/browser from the user-agent classifier, and a visitor id from
// a cookie set on first sight.
func (h *Handler) requestContext(w http.ResponseWriter, r *http.Request) domain.RequestContext {
	rc := domain.RequestContext{
		SubID:     r.URL.Query().Get("sub_id"),
		Country:   country(r),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
		UserID:    h.visitorID(w, r),
	}
	ua := h.classifier.Classify(rc.UserAgent)
	rc.DeviceType = ua.DeviceType
	rc.OS = ua.OS
	rc.Browser = ua.Browser
	return rc
}

func (h *Handler) visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		HttpOnly: true,
	})
	return id
}

func country(r *http.Request) string {
	for _, header := range []string{"CF-IPCountry", "X-Country"} {
		if v := r.Header.Get(header); v != "" && v != "XX" {
			return strings.ToUpper(v)
		}
	}
	return ""
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
