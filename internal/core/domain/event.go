package domain

import "time"

// AdEventType enumerates the kinds of occurrences recorded by the
// attribution pipeline.
type AdEventType string

const (
	EventImpression AdEventType = "impression"
	EventClick      AdEventType = "click"
	EventFallback   AdEventType = "fallback"
	EventUnsold     AdEventType = "unsold"
)

// AdEvent is an immutable record of a single impression, click, fallback
// or unsold occurrence. CampaignID is nil for fallback and unsold events,
// where no campaign was involved. Events are append-only and form the
// unit of all stats aggregation.
type AdEvent struct {
	ID         int64       `json:"id"`
	Type       AdEventType `json:"type"`
	CampaignID *int64      `json:"campaign_id,omitempty"`
	ZoneID     int64       `json:"zone_id"`
	SubID      string      `json:"sub_id,omitempty"`
	IP         string      `json:"ip,omitempty"`
	UserAgent  string      `json:"user_agent,omitempty"`
	Referer    string      `json:"referer,omitempty"`
	Country    string      `json:"country,omitempty"`
	DeviceType string      `json:"device_type,omitempty"`
	OS         string      `json:"os,omitempty"`
	Browser    string      `json:"browser,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
