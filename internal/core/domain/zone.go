package domain

import "time"

// Zone lifecycle statuses. Only active zones are cached for the serving
// path.
const (
	ZoneStatusActive   = "active"
	ZoneStatusArchived = "archived"
)

// Zone is a publisher-side ad placement slot. FallbackURL, when set, is
// where visitors are sent if no campaign qualifies for a request
// ("traffic-back"); without it an unqualified request is recorded as
// unsold.
type Zone struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FallbackURL string    `json:"fallback_url,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
