// Package counter enforces frequency limits. One actor owns the counter
// state of one campaign; every operation against that campaign runs under
// the actor's lock, so increments are totally ordered and atomic with
// respect to each other. State is durable through a port.CounterStore and
// loaded lazily on first touch.
package counter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adrelay/internal/core/domain"
	"adrelay/internal/core/port"
)

// DefaultWindow is the sliding window per-user timestamp lists are pruned
// to when no explicit window is configured.
const DefaultWindow = 24 * time.Hour

// Registry hands out the actor for a campaign and implements
// port.Counter. Safe for concurrent use.
type Registry struct {
	store  port.CounterStore
	window time.Duration

	mu     sync.Mutex
	actors map[int64]*actor
}

type actor struct {
	mu     sync.Mutex
	key    string
	state  *domain.CounterState
	loaded bool
}

// New returns a registry persisting through store. A non-positive window
// falls back to DefaultWindow.
func New(store port.CounterStore, window time.Duration) *Registry {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Registry{store: store, window: window, actors: make(map[int64]*actor)}
}

func (r *Registry) actorFor(campaignID int64) *actor {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actors[campaignID]
	if !ok {
		a = &actor{key: fmt.Sprintf("counters:%d", campaignID)}
		r.actors[campaignID] = a
	}
	return a
}

// load fetches durable state once per actor lifetime. Called under the
// actor lock.
func (a *actor) load(ctx context.Context, store port.CounterStore) (*domain.CounterState, error) {
	if a.loaded {
		return a.state, nil
	}
	st, err := store.Load(ctx, a.key)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = &domain.CounterState{}
	}
	a.state = st
	a.loaded = true
	return st, nil
}

// RecordImpression bumps the campaign, zone and zone-day counters and
// appends the user's impression timestamp, pruning the list to the window.
func (r *Registry) RecordImpression(ctx context.Context, campaignID, zoneID int64, userID string, at time.Time) error {
	return r.record(ctx, campaignID, zoneID, userID, at, true)
}

// RecordClick is RecordImpression for clicks.
func (r *Registry) RecordClick(ctx context.Context, campaignID, zoneID int64, userID string, at time.Time) error {
	return r.record(ctx, campaignID, zoneID, userID, at, false)
}

func (r *Registry) record(ctx context.Context, campaignID, zoneID int64, userID string, at time.Time, impression bool) error {
	a := r.actorFor(campaignID)
	a.mu.Lock()
	defer a.mu.Unlock()

	st, err := a.load(ctx, r.store)
	if err != nil {
		return err
	}

	if st.PerZone == nil {
		st.PerZone = make(map[int64]domain.Tally)
	}
	if st.PerZoneDay == nil {
		st.PerZoneDay = make(map[string]domain.Tally)
	}
	zone := st.PerZone[zoneID]
	day := st.PerZoneDay[domain.ZoneDayKey(zoneID, at)]
	if impression {
		st.Totals.Impressions++
		zone.Impressions++
		day.Impressions++
	} else {
		st.Totals.Clicks++
		zone.Clicks++
		day.Clicks++
	}
	st.PerZone[zoneID] = zone
	st.PerZoneDay[domain.ZoneDayKey(zoneID, at)] = day

	if userID != "" {
		if impression {
			if st.UserImpressions == nil {
				st.UserImpressions = make(map[string][]time.Time)
			}
			st.UserImpressions[userID] = appendPruned(st.UserImpressions[userID], at, r.window)
		} else {
			if st.UserClicks == nil {
				st.UserClicks = make(map[string][]time.Time)
			}
			st.UserClicks[userID] = appendPruned(st.UserClicks[userID], at, r.window)
		}
	}

	return r.store.Save(ctx, a.key, st)
}

// CheckCap reports whether the user's impressions within the window have
// reached threshold.
func (r *Registry) CheckCap(ctx context.Context, campaignID int64, userID string, threshold int) (bool, error) {
	n, err := r.ImpressionsSince(ctx, campaignID, userID, time.Now().Add(-r.window))
	if err != nil {
		return false, err
	}
	return n >= threshold, nil
}

// ImpressionsSince counts the user's impressions recorded at or after
// since.
func (r *Registry) ImpressionsSince(ctx context.Context, campaignID int64, userID string, since time.Time) (int, error) {
	a := r.actorFor(campaignID)
	a.mu.Lock()
	defer a.mu.Unlock()

	st, err := a.load(ctx, r.store)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, ts := range st.UserImpressions[userID] {
		if !ts.Before(since) {
			n++
		}
	}
	return n, nil
}

// Stats returns flat counters at the requested granularity: campaign
// totals when zoneID is nil, campaign x zone when only zoneID is set, and
// campaign x zone x day when both are set.
func (r *Registry) Stats(ctx context.Context, campaignID int64, zoneID *int64, day *time.Time) (domain.Tally, error) {
	a := r.actorFor(campaignID)
	a.mu.Lock()
	defer a.mu.Unlock()

	st, err := a.load(ctx, r.store)
	if err != nil {
		return domain.Tally{}, err
	}
	switch {
	case zoneID == nil:
		return st.Totals, nil
	case day == nil:
		return st.PerZone[*zoneID], nil
	default:
		return st.PerZoneDay[domain.ZoneDayKey(*zoneID, *day)], nil
	}
}

var _ port.Counter = (*Registry)(nil)

func appendPruned(list []time.Time, at time.Time, window time.Duration) []time.Time {
	cutoff := at.Add(-window)
	kept := list[:0]
	for _, ts := range list {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	return append(kept, at)
}
