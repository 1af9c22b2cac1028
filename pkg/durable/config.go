package durable

// Backend names accepted by Config.Backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config selects the durable storage backend.
type Config struct {
	Backend        string `env:"DURABLE_BACKEND" envDefault:"memory"`
	MemoryCapacity int    `env:"DURABLE_MEMORY_CAPACITY" envDefault:"100000"`
}
