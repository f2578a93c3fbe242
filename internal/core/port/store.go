package port

import (
	"context"
	"time"

	"adrelay/internal/core/domain"
)

// Store is the authoritative relational store. It is an outbound port in
// hexagonal architecture; implementations must be concurrency-safe. Absent
// rows are reported as (nil, nil), not as errors.
type Store interface {
	// ListServableCampaigns returns campaigns with status=active whose
	// optional [start,end] window contains now, without targeting rules.
	ListServableCampaigns(ctx context.Context, now time.Time) ([]domain.Campaign, error)
	// ListRules batch-fetches the targeting rules for exactly the given
	// campaign ids, grouped by campaign.
	ListRules(ctx context.Context, campaignIDs []int64) (map[int64][]domain.TargetingRule, error)
	// GetCampaign returns one campaign with its rules denormalized, or nil
	// when it does not exist.
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	// ListActiveZones returns all zones with status=active.
	ListActiveZones(ctx context.Context) ([]domain.Zone, error)
	// GetZone returns one zone regardless of status, or nil when absent.
	GetZone(ctx context.Context, id int64) (*domain.Zone, error)
	// CreateEvent appends one immutable ad event.
	CreateEvent(ctx context.Context, ev domain.AdEvent) error
}

// Cache is the low-latency key-value store backing the denormalized read
// cache. Values are opaque strings; Keys lists all keys under a prefix.
// Get returns ErrCacheMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// CounterStore is the durable per-key storage behind frequency-counter
// actors: whole-state get/put scoped to one logical key. Load returns
// (nil, nil) when the key has no state yet.
type CounterStore interface {
	Load(ctx context.Context, key string) (*domain.CounterState, error)
	Save(ctx context.Context, key string, st *domain.CounterState) error
}
