package domain

import (
	"fmt"
	"time"
)

// Tally is a flat impression/click counter pair.
type Tally struct {
	Impressions int64 `json:"impressions"`
	Clicks      int64 `json:"clicks"`
}

// CounterState is the durable state owned by one frequency-counter actor,
// keyed by campaign. Totals and the per-zone and per-zone-day breakdowns
// grow monotonically; the per-user timestamp lists are pruned to the
// capping window on every write and read. No component other than the
// owning actor mutates this state.
type CounterState struct {
	Totals          Tally                  `json:"totals"`
	PerZone         map[int64]Tally        `json:"per_zone,omitempty"`
	PerZoneDay      map[string]Tally       `json:"per_zone_day,omitempty"`
	UserImpressions map[string][]time.Time `json:"user_impressions,omitempty"`
	UserClicks      map[string][]time.Time `json:"user_clicks,omitempty"`
}

// ZoneDayKey builds the per-zone-day breakdown key for a zone and a day.
func ZoneDayKey(zoneID int64, day time.Time) string {
	return fmt.Sprintf("%d:%s", zoneID, day.UTC().Format("2006-01-02"))
}
