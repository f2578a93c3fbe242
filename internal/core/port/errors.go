package port

import "errors"

var (
	// ErrInvalidIdentifier marks a malformed or non-positive zone or
	// campaign id. Surfaced as HTTP 400.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrCampaignNotFound is returned when a tracked campaign cannot be
	// resolved from the cache or the authoritative store. Surfaced as 404.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrZoneNotFound is returned when the requested zone is unknown or
	// inactive. Surfaced as 404.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrNoEligibleCampaign signals that no campaign qualified for a serve
	// request and no fallback applies. Normal control flow, not a fault.
	ErrNoEligibleCampaign = errors.New("no eligible campaign")

	// ErrCacheMiss is returned by Cache.Get when the key is absent. A miss
	// where authoritative data exists is a cold-cache condition, handled by
	// falling through to the store, never a crash.
	ErrCacheMiss = errors.New("cache miss")
)
