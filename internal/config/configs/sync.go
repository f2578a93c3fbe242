package configs

import "time"

// Sync configures cache reconciliation and frequency capping windows.
type Sync struct {
	// Interval between scheduled full resyncs. Zero disables the
	// scheduler; resyncs can still be triggered through the admin
	// endpoint.
	Interval time.Duration `env:"INTERVAL" envDefault:"60s"`
	// CapWindow is the sliding window frequency caps are evaluated over.
	CapWindow time.Duration `env:"CAP_WINDOW" envDefault:"24h"`
}
