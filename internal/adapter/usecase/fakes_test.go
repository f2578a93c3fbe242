package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"adrelay/internal/core/domain"
	"adrelay/internal/core/port"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory port.Store.
type fakeStore struct {
	mu        sync.Mutex
	campaigns []domain.Campaign
	rules     map[int64][]domain.TargetingRule
	zones     []domain.Zone
	events    []domain.AdEvent

	listCampaignsErr error
	createEventErr   error
}

func (s *fakeStore) ListServableCampaigns(_ context.Context, now time.Time) ([]domain.Campaign, error) {
	if s.listCampaignsErr != nil {
		return nil, s.listCampaignsErr
	}
	var out []domain.Campaign
	for _, c := range s.campaigns {
		if c.ActiveAt(now) {
			c.Rules = nil
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) ListRules(_ context.Context, ids []int64) (map[int64][]domain.TargetingRule, error) {
	out := make(map[int64][]domain.TargetingRule)
	for _, id := range ids {
		if rs, ok := s.rules[id]; ok {
			out[id] = rs
		}
	}
	return out, nil
}

func (s *fakeStore) GetCampaign(_ context.Context, id int64) (*domain.Campaign, error) {
	for _, c := range s.campaigns {
		if c.ID == id {
			c.Rules = s.rules[id]
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListActiveZones(_ context.Context) ([]domain.Zone, error) {
	var out []domain.Zone
	for _, z := range s.zones {
		if z.Status == domain.ZoneStatusActive {
			out = append(out, z)
		}
	}
	return out, nil
}

func (s *fakeStore) GetZone(_ context.Context, id int64) (*domain.Zone, error) {
	for _, z := range s.zones {
		if z.ID == id {
			return &z, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateEvent(_ context.Context, ev domain.AdEvent) error {
	if s.createEventErr != nil {
		return s.createEventErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *fakeStore) eventsOfType(typ domain.AdEventType) []domain.AdEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AdEvent
	for _, ev := range s.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// fakeCache is an in-memory port.Cache safe for the synchronizer's
// concurrent fan-out. Per-key errors can be injected.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]string
	putErrs map[string]error
	delErrs map[string]error
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return "", port.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Put(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.putErrs[key]; err != nil {
		return err
	}
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.delErrs[key]; err != nil {
		return err
	}
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Keys(_ context.Context, prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// fakeCounter records calls and answers cap checks from canned values.
type fakeCounter struct {
	mu          sync.Mutex
	impressions int
	clicks      int
	capped      map[int64]bool
	seen        map[int64]int
	err         error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{capped: make(map[int64]bool), seen: make(map[int64]int)}
}

func (f *fakeCounter) RecordImpression(context.Context, int64, int64, string, time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.impressions++
	return f.err
}

func (f *fakeCounter) RecordClick(context.Context, int64, int64, string, time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks++
	return f.err
}

func (f *fakeCounter) CheckCap(_ context.Context, campaignID int64, _ string, _ int) (bool, error) {
	return f.capped[campaignID], f.err
}

func (f *fakeCounter) ImpressionsSince(_ context.Context, campaignID int64, _ string, _ time.Time) (int, error) {
	return f.seen[campaignID], f.err
}

func (f *fakeCounter) Stats(context.Context, int64, *int64, *time.Time) (domain.Tally, error) {
	return domain.Tally{}, f.err
}

// fakeIDs hands out sequential ids.
type fakeIDs struct {
	mu   sync.Mutex
	next int64
	err  error
}

func (f *fakeIDs) Next() (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return f.next, nil
}
