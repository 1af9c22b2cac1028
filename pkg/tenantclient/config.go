package tenantclient

import "time"

// Config holds the tenant record service client configuration.
type Config struct {
	BaseURL          string        `env:"TENANT_API_URL"`
	Timeout          time.Duration `env:"TENANT_API_TIMEOUT" envDefault:"5s"`
	FailureThreshold int           `env:"TENANT_API_BREAKER_FAILURES" envDefault:"5"`
	Cooldown         time.Duration `env:"TENANT_API_BREAKER_COOLDOWN" envDefault:"30s"`
}

// NewFromConfig creates a Client from cfg. Options are applied after the config.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	base := []Option{
		WithTimeout(cfg.Timeout),
		WithBreaker(NewBreaker(cfg.FailureThreshold, 1, cfg.Cooldown)),
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}
