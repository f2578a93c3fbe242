package domain

import "time"

// Campaign lifecycle statuses. Only active campaigns are cached for
// serving; paused and archived campaigns never leave the authoritative
// store.
const (
	CampaignStatusPaused   = "paused"
	CampaignStatusActive   = "active"
	CampaignStatusArchived = "archived"
)

// Campaign represents an advertiser's ad unit. RedirectURL is a template
// that may contain macro placeholders ({click_id}, {zone_id},
// {aff_sub_id}) substituted at track time. StartDate and EndDate are
// optional bounds; date eligibility is computed at sync time, not on the
// request path. Rules are denormalized onto the campaign by the
// synchronizer so the serving path never joins.
type Campaign struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	RedirectURL string          `json:"redirect_url"`
	Status      string          `json:"status"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Rules       []TargetingRule `json:"rules,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ActiveAt reports whether the campaign may serve at the given instant:
// status is active and t falls within the optional [StartDate, EndDate]
// window.
func (c Campaign) ActiveAt(t time.Time) bool {
	if c.Status != CampaignStatusActive {
		return false
	}
	if c.StartDate != nil && t.Before(*c.StartDate) {
		return false
	}
	if c.EndDate != nil && t.After(*c.EndDate) {
		return false
	}
	return true
}
