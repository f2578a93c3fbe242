package port

import (
	"context"
	"time"

	"adrelay/internal/core/domain"
)

// AdUseCase is the primary port into the serving core. It is implemented
// by the attribution pipeline and consumed by the HTTP adapter.
type AdUseCase interface {
	// ServeAd picks an eligible campaign for the zone and request context.
	// On a hit the result carries the tracking redirect; on a miss with a
	// configured zone fallback it carries the fallback redirect and a
	// fallback event is recorded. With no fallback an unsold event is
	// recorded and ErrNoEligibleCampaign is returned.
	ServeAd(ctx context.Context, zoneID int64, rc domain.RequestContext) (*ServeResult, error)

	// TrackClick records a click event, substitutes macros into the
	// campaign's redirect template and returns the destination URL.
	// Returns ErrCampaignNotFound when the campaign cannot be resolved.
	TrackClick(ctx context.Context, campaignID, zoneID int64, rc domain.RequestContext) (string, error)

	// Stats returns flat counters at the requested granularity: campaign
	// totals, campaign x zone, or campaign x zone x day.
	Stats(ctx context.Context, campaignID int64, zoneID *int64, day *time.Time) (domain.Tally, error)
}

// ServeResult is the outcome of a successful ServeAd call. Fallback marks
// a redirect to the zone's traffic-back URL rather than a campaign hit;
// CampaignID is zero in that case.
type ServeResult struct {
	RedirectURL string
	CampaignID  int64
	Fallback    bool
}

// Syncer reconciles the authoritative store with the read cache. The
// full-granularity calls replace whole collections; the single-entity
// calls propagate one administrative change with low latency.
type Syncer interface {
	ResyncAll(ctx context.Context) SyncReport
	ResyncCampaigns(ctx context.Context) SyncReport
	ResyncZones(ctx context.Context) SyncReport
	ResyncCampaign(ctx context.Context, id int64) SyncReport
	ResyncZone(ctx context.Context, id int64) SyncReport
}

// SyncReport is the structured partial-failure report of one resync run.
// Failures counts individually failed cache operations; Err aggregates
// their causes. A resync with failures is degraded, not aborted.
type SyncReport struct {
	CampaignsCached int   `json:"campaigns_cached"`
	ZonesUpserted   int   `json:"zones_upserted"`
	ZonesDeleted    int   `json:"zones_deleted"`
	Failures        int   `json:"failures"`
	Err             error `json:"-"`
}

// Counter is the frequency-counting port. All operations against one
// campaign key are totally ordered by the owning actor.
type Counter interface {
	RecordImpression(ctx context.Context, campaignID, zoneID int64, userID string, at time.Time) error
	RecordClick(ctx context.Context, campaignID, zoneID int64, userID string, at time.Time) error
	// CheckCap reports whether the user's impression count within the
	// capping window has reached threshold.
	CheckCap(ctx context.Context, campaignID int64, userID string, threshold int) (bool, error)
	// ImpressionsSince counts the user's impressions recorded at or after
	// since. Used for unique-velocity enforcement.
	ImpressionsSince(ctx context.Context, campaignID int64, userID string, since time.Time) (int, error)
	// Stats returns flat counters for the requested granularity.
	Stats(ctx context.Context, campaignID int64, zoneID *int64, day *time.Time) (domain.Tally, error)
}

// IDSource produces unique, roughly time-ordered event identifiers.
type IDSource interface {
	Next() (int64, error)
}

// Classifier derives device type, OS and browser from a raw user-agent
// string. It is swappable; the HTTP adapter uses it when building the
// request context.
type Classifier interface {
	Classify(userAgent string) UAClass
}

// UAClass is the result of user-agent classification. Unrecognized
// dimensions are empty and treated permissively by targeting.
type UAClass struct {
	DeviceType string
	OS         string
	Browser    string
}
