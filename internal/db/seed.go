package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed inserts demo campaigns, targeting rules and zones for local
// development.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	now := time.Now()
	campaigns := []struct {
		id          int64
		name        string
		redirectURL string
		rules       [][3]string // type, method, payload
	}{
		{
			id:          1,
			name:        "US/CA desktop offer",
			redirectURL: "https://offers.example.com/a?cid={click_id}&z={zone_id}&s={aff_sub_id}",
			rules: [][3]string{
				{"geo", "whitelist", "US,CA"},
				{"device", "blacklist", "tablet"},
			},
		},
		{
			id:          2,
			name:        "Mobile worldwide",
			redirectURL: "https://offers.example.com/b?cid={click_id}",
			rules: [][3]string{
				{"device", "whitelist", "mobile"},
				{"frequency_cap", "whitelist", "5"},
			},
		},
		{
			id:          3,
			name:        "Run of network",
			redirectURL: "https://offers.example.com/c?cid={click_id}&z={zone_id}",
			rules:       nil,
		},
	}

	for _, c := range campaigns {
		_, err := pool.Exec(ctx, `INSERT INTO campaigns
            (id, name, redirect_url, status, start_date, end_date, created_at, updated_at)
            VALUES ($1,$2,$3,'active',$4,$5,now(),now()) ON CONFLICT DO NOTHING`,
			c.id, c.name, c.redirectURL, now.AddDate(0, 0, -1), now.AddDate(0, 1, 0))
		if err != nil {
			return fmt.Errorf("seed campaign %d: %w", c.id, err)
		}
		for _, r := range c.rules {
			_, err = pool.Exec(ctx, `INSERT INTO targeting_rules
                (campaign_id, type, method, payload) VALUES ($1,$2,$3,$4)
                ON CONFLICT DO NOTHING`, c.id, r[0], r[1], r[2])
			if err != nil {
				return fmt.Errorf("seed rules for campaign %d: %w", c.id, err)
			}
		}
	}

	zones := []struct {
		id       int64
		name     string
		fallback string
	}{
		{1, "blog sidebar", "https://fallback.example.com/offer"},
		{2, "news footer", ""},
	}
	for _, z := range zones {
		var fallback *string
		if z.fallback != "" {
			fallback = &z.fallback
		}
		_, err := pool.Exec(ctx, `INSERT INTO zones
            (id, name, fallback_url, status, created_at, updated_at)
            VALUES ($1,$2,$3,'active',now(),now()) ON CONFLICT DO NOTHING`,
			z.id, z.name, fallback)
		if err != nil {
			return fmt.Errorf("seed zone %d: %w", z.id, err)
		}
	}
	return nil
}
