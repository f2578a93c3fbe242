package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adrelay/internal/core/domain"
	"adrelay/internal/core/port"
)

// Store implements port.Store using pgxpool for PostgreSQL. It is the
// authoritative side of the read cache: the serving path only touches it
// on cold-cache fallthrough and for event appends.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a new store instance.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const campaignColumns = `id, name, redirect_url, status, start_date, end_date, created_at, updated_at`

const ruleColumns = `id, campaign_id, type, method, payload, weight`

// ListServableCampaigns returns active campaigns whose optional date
// window contains now, in stored (id) order, without rules.
func (s *Store) ListServableCampaigns(ctx context.Context, now time.Time) ([]domain.Campaign, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+campaignColumns+` FROM campaigns
        WHERE status = 'active'
          AND (start_date IS NULL OR start_date <= $1)
          AND (end_date IS NULL OR end_date >= $1)
        ORDER BY id`, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanCampaign)
}

// ListRules batch-fetches targeting rules for the given campaign ids and
// groups them by campaign.
func (s *Store) ListRules(ctx context.Context, campaignIDs []int64) (map[int64][]domain.TargetingRule, error) {
	out := make(map[int64][]domain.TargetingRule, len(campaignIDs))
	if len(campaignIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+ruleColumns+` FROM targeting_rules
        WHERE campaign_id = ANY($1) ORDER BY campaign_id, id`, campaignIDs)
	if err != nil {
		return nil, err
	}
	rules, err := pgx.CollectRows(rows, scanRule)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		out[r.CampaignID] = append(out[r.CampaignID], r)
	}
	return out, nil
}

// GetCampaign returns one campaign with its rules attached, fetching both
// in a single batched round trip. Returns nil when the campaign does not
// exist.
func (s *Store) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	b := &pgx.Batch{}
	b.Queue(`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	b.Queue(`SELECT `+ruleColumns+` FROM targeting_rules WHERE campaign_id = $1 ORDER BY id`, id)
	br := s.pool.SendBatch(ctx, b)
	defer br.Close()

	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	campaigns, err := pgx.CollectRows(rows, scanCampaign)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, nil
	}
	c := campaigns[0]

	rows, err = br.Query()
	if err != nil {
		return nil, err
	}
	if c.Rules, err = pgx.CollectRows(rows, scanRule); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActiveZones returns all zones with status=active in stored order.
func (s *Store) ListActiveZones(ctx context.Context) ([]domain.Zone, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, fallback_url, status, created_at, updated_at
        FROM zones WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanZone)
}

// GetZone returns a zone by id regardless of status, or nil when absent.
func (s *Store) GetZone(ctx context.Context, id int64) (*domain.Zone, error) {
	var z domain.Zone
	var fallback *string
	err := s.pool.QueryRow(ctx, `SELECT id, name, fallback_url, status, created_at, updated_at
        FROM zones WHERE id = $1`, id).
		Scan(&z.ID, &z.Name, &fallback, &z.Status, &z.CreatedAt, &z.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fallback != nil {
		z.FallbackURL = *fallback
	}
	return &z, nil
}

// CreateEvent appends one immutable ad event.
func (s *Store) CreateEvent(ctx context.Context, ev domain.AdEvent) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO ad_events
        (id, type, campaign_id, zone_id, sub_id, ip, user_agent, referer,
         country, device_type, os, browser, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		ev.ID, string(ev.Type), ev.CampaignID, ev.ZoneID, ev.SubID, ev.IP,
		ev.UserAgent, ev.Referer, ev.Country, ev.DeviceType, ev.OS, ev.Browser,
		ev.CreatedAt)
	return err
}

func scanCampaign(row pgx.CollectableRow) (domain.Campaign, error) {
	var c domain.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.RedirectURL, &c.Status,
		&c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanRule(row pgx.CollectableRow) (domain.TargetingRule, error) {
	var r domain.TargetingRule
	err := row.Scan(&r.ID, &r.CampaignID, &r.Type, &r.Method, &r.Payload, &r.Weight)
	return r, err
}

func scanZone(row pgx.CollectableRow) (domain.Zone, error) {
	var z domain.Zone
	var fallback *string
	err := row.Scan(&z.ID, &z.Name, &fallback, &z.Status, &z.CreatedAt, &z.UpdatedAt)
	if fallback != nil {
		z.FallbackURL = *fallback
	}
	return z, err
}

var _ port.Store = (*Store)(nil)
