package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"adrelay/internal/core/domain"
	"adrelay/internal/core/port"
)

// Pipeline is the attribution orchestrator: it implements port.AdUseCase
// by combining the selector, the frequency counter, the id generator,
// macro substitution and event recording. Requests are stateless and
// safely parallel; the only shared mutable state lives behind the counter
// and the two stores.
type Pipeline struct {
	store   port.Store
	cache   port.Cache
	counter port.Counter
	ids     port.IDSource
	sel     *Selector
	logger  *slog.Logger
	now     func() time.Time
}

// NewPipeline wires the attribution pipeline. The id generator is an
// explicit dependency; worker-id assignment happens at startup
// configuration.
func NewPipeline(store port.Store, cache port.Cache, counter port.Counter, ids port.IDSource, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:   store,
		cache:   cache,
		counter: counter,
		ids:     ids,
		sel:     NewSelector(counter, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// ServeAd resolves the zone, runs selection over the cached campaign set
// and returns the redirect for the winner's tracking hop. With no winner
// it redirects to the zone's fallback URL when one is configured,
// recording a fallback event, or records an unsold event and returns
// ErrNoEligibleCampaign.
func (p *Pipeline) ServeAd(ctx context.Context, zoneID int64, rc domain.RequestContext) (*port.ServeResult, error) {
	if zoneID <= 0 {
		return nil, port.ErrInvalidIdentifier
	}
	zone, err := p.zone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	rc.ZoneID = zoneID

	campaigns, err := p.campaigns(ctx)
	if err != nil {
		// A cold or unavailable cache degrades to "no eligible campaign",
		// never a 5xx on the serving path.
		p.logger.Warn("campaign cache read failed", slog.Any("error", err))
		campaigns = nil
	}

	if winner := p.sel.Select(ctx, campaigns, rc); winner != nil {
		p.recordCounter(ctx, winner.ID, rc, true)
		p.recordEvent(ctx, domain.EventImpression, &winner.ID, rc)
		return &port.ServeResult{
			RedirectURL: trackingURL(winner.ID, zoneID, rc.SubID),
			CampaignID:  winner.ID,
		}, nil
	}

	if zone.FallbackURL != "" {
		p.recordEvent(ctx, domain.EventFallback, nil, rc)
		return &port.ServeResult{RedirectURL: zone.FallbackURL, Fallback: true}, nil
	}
	p.recordEvent(ctx, domain.EventUnsold, nil, rc)
	return nil, port.ErrNoEligibleCampaign
}

// TrackClick records the click, substitutes macros into the campaign's
// redirect template and returns the destination URL. Placeholders whose
// value is absent stay untouched.
func (p *Pipeline) TrackClick(ctx context.Context, campaignID, zoneID int64, rc domain.RequestContext) (string, error) {
	if campaignID <= 0 || zoneID <= 0 {
		return "", port.ErrInvalidIdentifier
	}
	rc.ZoneID = zoneID

	campaign, err := p.campaign(ctx, campaignID)
	if err != nil {
		return "", err
	}

	clickID, err := p.ids.Next()
	if err != nil {
		// Clock regression or epoch overflow: fatal to this call and worth
		// an operational alarm.
		return "", fmt.Errorf("generate click id: %w", err)
	}

	ev := p.newEvent(domain.EventClick, &campaignID, rc)
	ev.ID = clickID
	if err := p.store.CreateEvent(ctx, ev); err != nil {
		p.logger.Error("record click event", slog.Int64("click_id", clickID), slog.Any("error", err))
	}
	p.recordCounter(ctx, campaignID, rc, false)

	dest := domain.ReplaceMacros(campaign.RedirectURL, map[string]string{
		domain.MacroClickID: strconv.FormatInt(clickID, 10),
		domain.MacroZoneID:  strconv.FormatInt(zoneID, 10),
		domain.MacroSubID:   rc.SubID,
	})
	return dest, nil
}

// Stats exposes the counter's flat counters to the admin surface.
func (p *Pipeline) Stats(ctx context.Context, campaignID int64, zoneID *int64, day *time.Time) (domain.Tally, error) {
	if campaignID <= 0 {
		return domain.Tally{}, port.ErrInvalidIdentifier
	}
	return p.counter.Stats(ctx, campaignID, zoneID, day)
}

// zone resolves a zone from the cache, falling through to the
// authoritative store on a cold cache.
func (p *Pipeline) zone(ctx context.Context, id int64) (*domain.Zone, error) {
	raw, err := p.cache.Get(ctx, zoneKey(id))
	if err == nil {
		var z domain.Zone
		if err = json.Unmarshal([]byte(raw), &z); err == nil {
			return &z, nil
		}
		p.logger.Warn("corrupt zone cache entry", slog.Int64("zone_id", id), slog.Any("error", err))
	} else if !errors.Is(err, port.ErrCacheMiss) {
		p.logger.Warn("zone cache read failed", slog.Int64("zone_id", id), slog.Any("error", err))
	}

	z, err := p.store.GetZone(ctx, id)
	if err != nil {
		p.logger.Warn("zone store read failed", slog.Int64("zone_id", id), slog.Any("error", err))
		return nil, port.ErrZoneNotFound
	}
	if z == nil || z.Status != domain.ZoneStatusActive {
		return nil, port.ErrZoneNotFound
	}
	return z, nil
}

// campaign resolves one campaign from the cached collection, falling
// through to the store on a cold cache.
func (p *Pipeline) campaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	campaigns, err := p.campaigns(ctx)
	if err == nil {
		for i := range campaigns {
			if campaigns[i].ID == id {
				return &campaigns[i], nil
			}
		}
	} else {
		p.logger.Warn("campaign cache read failed", slog.Any("error", err))
	}

	c, err := p.store.GetCampaign(ctx, id)
	if err != nil {
		p.logger.Warn("campaign store read failed", slog.Int64("campaign_id", id), slog.Any("error", err))
		return nil, port.ErrCampaignNotFound
	}
	if c == nil {
		return nil, port.ErrCampaignNotFound
	}
	return c, nil
}

func (p *Pipeline) campaigns(ctx context.Context) ([]domain.Campaign, error) {
	raw, err := p.cache.Get(ctx, campaignsKey)
	if err != nil {
		return nil, err
	}
	var campaigns []domain.Campaign
	if err = json.Unmarshal([]byte(raw), &campaigns); err != nil {
		return nil, fmt.Errorf("unmarshal campaigns: %w", err)
	}
	return campaigns, nil
}

// recordEvent appends an AdEvent. Storage failures are logged and
// swallowed: serving must never fail solely because telemetry recording
// did.
func (p *Pipeline) recordEvent(ctx context.Context, typ domain.AdEventType, campaignID *int64, rc domain.RequestContext) {
	ev := p.newEvent(typ, campaignID, rc)
	id, err := p.ids.Next()
	if err != nil {
		p.logger.Error("generate event id", slog.Any("error", err))
		return
	}
	ev.ID = id
	if err := p.store.CreateEvent(ctx, ev); err != nil {
		p.logger.Error("record event", slog.String("type", string(typ)), slog.Any("error", err))
	}
}

func (p *Pipeline) newEvent(typ domain.AdEventType, campaignID *int64, rc domain.RequestContext) domain.AdEvent {
	return domain.AdEvent{
		Type:       typ,
		CampaignID: campaignID,
		ZoneID:     rc.ZoneID,
		SubID:      rc.SubID,
		IP:         rc.IP,
		UserAgent:  rc.UserAgent,
		Referer:    rc.Referer,
		Country:    rc.Country,
		DeviceType: rc.DeviceType,
		OS:         rc.OS,
		Browser:    rc.Browser,
		CreatedAt:  p.now().UTC(),
	}
}

func (p *Pipeline) recordCounter(ctx context.Context, campaignID int64, rc domain.RequestContext, impression bool) {
	var err error
	if impression {
		err = p.counter.RecordImpression(ctx, campaignID, rc.ZoneID, rc.UserID, p.now())
	} else {
		err = p.counter.RecordClick(ctx, campaignID, rc.ZoneID, rc.UserID, p.now())
	}
	if err != nil {
		p.logger.Error("record counter", slog.Int64("campaign_id", campaignID), slog.Any("error", err))
	}
}

var _ port.AdUseCase = (*Pipeline)(nil)

// trackingURL builds the tracking-hop path carrying campaign, zone and
// optional sub id.
func trackingURL(campaignID, zoneID int64, subID string) string {
	u := fmt.Sprintf("/api/v1/click/%d/%d", campaignID, zoneID)
	if subID != "" {
		u += "?sub_id=" + url.QueryEscape(subID)
	}
	return u
}
