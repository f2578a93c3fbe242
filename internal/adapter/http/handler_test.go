package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrelay/internal/core/domain"
	"adrelay/internal/core/port"
	"adrelay/internal/useragent"
)

type fakeUseCase struct {
	serveRes *port.ServeResult
	serveErr error
	serveRC  domain.RequestContext

	clickDest string
	clickErr  error

	tally domain.Tally
}

func (f *fakeUseCase) ServeAd(_ context.Context, _ int64, rc domain.RequestContext) (*port.ServeResult, error) {
	f.serveRC = rc
	return f.serveRes, f.serveErr
}

func (f *fakeUseCase) TrackClick(context.Context, int64, int64, domain.RequestContext) (string, error) {
	return f.clickDest, f.clickErr
}

func (f *fakeUseCase) Stats(context.Context, int64, *int64, *time.Time) (domain.Tally, error) {
	return f.tally, nil
}

type fakeSyncer struct {
	rep  port.SyncReport
	last string
}

func (f *fakeSyncer) ResyncAll(context.Context) port.SyncReport {
	f.last = "all"
	return f.rep
}
func (f *fakeSyncer) ResyncCampaigns(context.Context) port.SyncReport {
	f.last = "campaigns"
	return f.rep
}
func (f *fakeSyncer) ResyncZones(context.Context) port.SyncReport {
	f.last = "zones"
	return f.rep
}
func (f *fakeSyncer) ResyncCampaign(_ context.Context, id int64) port.SyncReport {
	f.last = "campaign"
	return f.rep
}
func (f *fakeSyncer) ResyncZone(_ context.Context, id int64) port.SyncReport {
	f.last = "zone"
	return f.rep
}

func newTestHandler(svc port.AdUseCase, syncer port.Syncer) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(svc, syncer, useragent.New(), logger)
}

func TestHandleServeRedirects(t *testing.T) {
	svc := &fakeUseCase{serveRes: &port.ServeResult{RedirectURL: "/api/v1/click/2/5", CampaignID: 2}}
	h := newTestHandler(svc, &fakeSyncer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/serve/5?sub_id=s1", nil)
	req.Header.Set("CF-IPCountry", "us")
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Safari/604.1")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/api/v1/click/2/5", rec.Header().Get("Location"))

	// The extractor fills the request context from headers.
	assert.Equal(t, "US", svc.serveRC.Country)
	assert.Equal(t, "198.51.100.7", svc.serveRC.IP)
	assert.Equal(t, "s1", svc.serveRC.SubID)
	assert.Equal(t, "mobile", svc.serveRC.DeviceType)
	assert.Equal(t, "ios", svc.serveRC.OS)
	assert.NotEmpty(t, svc.serveRC.UserID, "visitor id assigned on first sight")

	// First sight sets the visitor cookie.
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, visitorCookie, cookies[0].Name)
}

func TestHandleServeStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"malformed zone id", "/api/v1/serve/abc", nil, http.StatusBadRequest},
		{"zero zone id", "/api/v1/serve/0", nil, http.StatusBadRequest},
		{"unknown zone", "/api/v1/serve/5", port.ErrZoneNotFound, http.StatusNotFound},
		{"no fill", "/api/v1/serve/5", port.ErrNoEligibleCampaign, http.StatusNotFound},
		{"unexpected", "/api/v1/serve/5", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeUseCase{serveErr: tt.err}, &fakeSyncer{})
			rec := httptest.NewRecorder()
			h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "unexpected EOF")
			}
		})
	}
}

func TestHandleClick(t *testing.T) {
	h := newTestHandler(&fakeUseCase{clickDest: "https://x.test/go?c=555"}, &fakeSyncer{})
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/click/2/5", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://x.test/go?c=555", rec.Header().Get("Location"))
}

func TestHandleClickStatusMapping(t *testing.T) {
	h := newTestHandler(&fakeUseCase{clickErr: port.ErrCampaignNotFound}, &fakeSyncer{})
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/click/9/5", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/click/x/5", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStats(t *testing.T) {
	h := newTestHandler(&fakeUseCase{tally: domain.Tally{Impressions: 10, Clicks: 2}}, &fakeSyncer{})
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/1?zone_id=5&date=2026-08-26", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var tally domain.Tally
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tally))
	assert.EqualValues(t, 10, tally.Impressions)
	assert.EqualValues(t, 2, tally.Clicks)
}

func TestHandleStatsDateRequiresZone(t *testing.T) {
	h := newTestHandler(&fakeUseCase{}, &fakeSyncer{})
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/1?date=2026-08-26", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResyncScopes(t *testing.T) {
	tests := []struct {
		query string
		want  string
		code  int
	}{
		{"", "all", http.StatusOK},
		{"?scope=all", "all", http.StatusOK},
		{"?scope=campaigns", "campaigns", http.StatusOK},
		{"?scope=zones", "zones", http.StatusOK},
		{"?campaign_id=3", "campaign", http.StatusOK},
		{"?zone_id=4", "zone", http.StatusOK},
		{"?scope=bogus", "", http.StatusBadRequest},
		{"?campaign_id=-1", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run("resync"+tt.query, func(t *testing.T) {
			syncer := &fakeSyncer{rep: port.SyncReport{CampaignsCached: 2}}
			h := newTestHandler(&fakeUseCase{}, syncer)
			rec := httptest.NewRecorder()
			h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/resync"+tt.query, nil))

			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.want, syncer.last)
			}
		})
	}
}

func TestHandleResyncReportsPartialFailure(t *testing.T) {
	syncer := &fakeSyncer{rep: port.SyncReport{ZonesUpserted: 3, Failures: 1, Err: io.ErrUnexpectedEOF}}
	h := newTestHandler(&fakeUseCase{}, syncer)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/resync?scope=zones", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		ZonesUpserted int    `json:"zones_upserted"`
		Failures      int    `json:"failures"`
		Error         string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.ZonesUpserted)
	assert.Equal(t, 1, resp.Failures)
	assert.NotEmpty(t, resp.Error)
}

func TestVisitorCookieReused(t *testing.T) {
	svc := &fakeUseCase{serveRes: &port.ServeResult{RedirectURL: "/x"}}
	h := newTestHandler(svc, &fakeSyncer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/serve/5", nil)
	req.AddCookie(&http.Cookie{Name: visitorCookie, Value: "existing-visitor"})
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, "existing-visitor", svc.serveRC.UserID)
	assert.Empty(t, rec.Result().Cookies())
}
