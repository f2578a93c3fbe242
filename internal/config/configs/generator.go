package configs

// Generator configures the event id generator. WorkerID must be unique
// per process across the deployment (0-1023); assignment is the
// deployment environment's job.
type Generator struct {
	WorkerID int64 `env:"WORKER_ID" envDefault:"0"`
}
