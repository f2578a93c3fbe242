package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"adrelay/internal/core/domain"
	"adrelay/internal/core/port"
)

// Cache key layout. Campaigns live under one collection key replaced
// wholesale on every resync; zones are reconciled incrementally under a
// key per zone.
const (
	campaignsKey  = "campaigns"
	zoneKeyPrefix = "zone:"
)

func zoneKey(id int64) string {
	return zoneKeyPrefix + strconv.FormatInt(id, 10)
}

// SyncUseCase reconciles the authoritative store with the read cache. It
// holds no lock against concurrent resyncs: the campaigns key is
// single-writer-wins per full resync, zone keys are last-write-wins.
// Callers needing stronger guarantees serialize resyncs externally.
type SyncUseCase struct {
	store  port.Store
	cache  port.Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewSyncUseCase returns a synchronizer over the given stores.
func NewSyncUseCase(store port.Store, cache port.Cache, logger *slog.Logger) *SyncUseCase {
	return &SyncUseCase{store: store, cache: cache, logger: logger, now: time.Now}
}

var _ port.Syncer = (*SyncUseCase)(nil)

// ResyncAll runs a full campaign resync followed by a full zone resync
// and merges the reports.
func (u *SyncUseCase) ResyncAll(ctx context.Context) port.SyncReport {
	rep := u.ResyncCampaigns(ctx)
	zr := u.ResyncZones(ctx)
	rep.ZonesUpserted = zr.ZonesUpserted
	rep.ZonesDeleted = zr.ZonesDeleted
	rep.Failures += zr.Failures
	if zr.Err != nil {
		rep.Err = multierror.Append(rep.Err, zr.Err)
	}
	return rep
}

// ResyncCampaigns rebuilds the denormalized campaign collection: all
// active, in-window campaigns with their rules attached, written to the
// campaigns key as one full replacement. Readers never see a stale
// superset, only a momentarily stale snapshot.
func (u *SyncUseCase) ResyncCampaigns(ctx context.Context) port.SyncReport {
	campaigns, err := u.store.ListServableCampaigns(ctx, u.now())
	if err != nil {
		return port.SyncReport{Failures: 1, Err: fmt.Errorf("list campaigns: %w", err)}
	}
	ids := make([]int64, len(campaigns))
	for i := range campaigns {
		ids[i] = campaigns[i].ID
	}
	rules, err := u.store.ListRules(ctx, ids)
	if err != nil {
		return port.SyncReport{Failures: 1, Err: fmt.Errorf("list rules: %w", err)}
	}
	for i := range campaigns {
		campaigns[i].Rules = rules[campaigns[i].ID]
	}
	if err = u.putCampaigns(ctx, campaigns); err != nil {
		return port.SyncReport{Failures: 1, Err: err}
	}
	u.logger.Info("campaigns resynced", slog.Int("cached", len(campaigns)))
	return port.SyncReport{CampaignsCached: len(campaigns)}
}

// ResyncZones reconciles the zone key namespace against the authoritative
// active set: entries for inactive ids are deleted, entries for every
// active zone upserted. Deletes and upserts fan out concurrently; a
// failed operation for one zone never aborts the others. Failures are
// aggregated into the report.
func (u *SyncUseCase) ResyncZones(ctx context.Context) port.SyncReport {
	zones, err := u.store.ListActiveZones(ctx)
	if err != nil {
		return port.SyncReport{Failures: 1, Err: fmt.Errorf("list zones: %w", err)}
	}
	existing, err := u.cache.Keys(ctx, zoneKeyPrefix)
	if err != nil {
		return port.SyncReport{Failures: 1, Err: fmt.Errorf("list zone keys: %w", err)}
	}

	active := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		active[zoneKey(z.ID)] = struct{}{}
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		rep  port.SyncReport
		merr *multierror.Error
	)
	fail := func(err error) {
		mu.Lock()
		rep.Failures++
		merr = multierror.Append(merr, err)
		mu.Unlock()
	}

	for _, key := range existing {
		if _, ok := active[key]; ok {
			continue
		}
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := u.cache.Delete(ctx, key); err != nil {
				fail(fmt.Errorf("delete %s: %w", key, err))
				return
			}
			mu.Lock()
			rep.ZonesDeleted++
			mu.Unlock()
		}(key)
	}
	for _, z := range zones {
		wg.Add(1)
		go func(z domain.Zone) {
			defer wg.Done()
			b, err := json.Marshal(z)
			if err != nil {
				fail(fmt.Errorf("marshal zone %d: %w", z.ID, err))
				return
			}
			if err := u.cache.Put(ctx, zoneKey(z.ID), string(b)); err != nil {
				fail(fmt.Errorf("put zone %d: %w", z.ID, err))
				return
			}
			mu.Lock()
			rep.ZonesUpserted++
			mu.Unlock()
		}(z)
	}
	wg.Wait()

	rep.Err = merr.ErrorOrNil()
	if rep.Failures > 0 {
		u.logger.Warn("zone resync degraded",
			slog.Int("failures", rep.Failures), slog.Any("error", rep.Err))
	} else {
		u.logger.Info("zones resynced",
			slog.Int("upserted", rep.ZonesUpserted), slog.Int("deleted", rep.ZonesDeleted))
	}
	return rep
}

// ResyncCampaign propagates one campaign change without a full resync: it
// re-derives the campaign's servability and inserts, updates or removes
// it inside the cached collection.
func (u *SyncUseCase) ResyncCampaign(ctx context.Context, id int64) port.SyncReport {
	c, err := u.store.GetCampaign(ctx, id)
	if err != nil {
		return port.SyncReport{Failures: 1, Err: fmt.Errorf("get campaign %d: %w", id, err)}
	}

	cached, err := u.getCampaigns(ctx)
	if err != nil {
		return port.SyncReport{Failures: 1, Err: err}
	}

	next := make([]domain.Campaign, 0, len(cached)+1)
	replaced := false
	servable := c != nil && c.ActiveAt(u.now())
	for _, existing := range cached {
		if existing.ID != id {
			next = append(next, existing)
			continue
		}
		if servable {
			next = append(next, *c)
			replaced = true
		}
	}
	if servable && !replaced {
		next = append(next, *c)
	}

	if err = u.putCampaigns(ctx, next); err != nil {
		return port.SyncReport{Failures: 1, Err: err}
	}
	return port.SyncReport{CampaignsCached: len(next)}
}

// ResyncZone propagates one zone change: an active zone is upserted, an
// absent or inactive one removed.
func (u *SyncUseCase) ResyncZone(ctx context.Context, id int64) port.SyncReport {
	z, err := u.store.GetZone(ctx, id)
	if err != nil {
		return port.SyncReport{Failures: 1, Err: fmt.Errorf("get zone %d: %w", id, err)}
	}
	if z == nil || z.Status != domain.ZoneStatusActive {
		if err = u.cache.Delete(ctx, zoneKey(id)); err != nil {
			return port.SyncReport{Failures: 1, Err: fmt.Errorf("delete zone %d: %w", id, err)}
		}
		return port.SyncReport{ZonesDeleted: 1}
	}
	b, err := json.Marshal(z)
	if err != nil {
		return port.SyncReport{Failures: 1, Err: fmt.Errorf("marshal zone %d: %w", id, err)}
	}
	if err = u.cache.Put(ctx, zoneKey(id), string(b)); err != nil {
		return port.SyncReport{Failures: 1, Err: fmt.Errorf("put zone %d: %w", id, err)}
	}
	return port.SyncReport{ZonesUpserted: 1}
}

func (u *SyncUseCase) putCampaigns(ctx context.Context, campaigns []domain.Campaign) error {
	b, err := json.Marshal(campaigns)
	if err != nil {
		return fmt.Errorf("marshal campaigns: %w", err)
	}
	if err = u.cache.Put(ctx, campaignsKey, string(b)); err != nil {
		return fmt.Errorf("put campaigns: %w", err)
	}
	return nil
}

func (u *SyncUseCase) getCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	raw, err := u.cache.Get(ctx, campaignsKey)
	if errors.Is(err, port.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get campaigns: %w", err)
	}
	var campaigns []domain.Campaign
	if err = json.Unmarshal([]byte(raw), &campaigns); err != nil {
		return nil, fmt.Errorf("unmarshal campaigns: %w", err)
	}
	return campaigns, nil
}
