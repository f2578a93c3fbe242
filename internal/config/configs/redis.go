package configs

// Redis holds configuration for the low-latency read cache and counter
// storage. Addr accepts either a redis:// URL or a bare host:port.
type Redis struct {
	Addr string `env:"ADDRESS" envDefault:"redis://localhost:6379"`
}
