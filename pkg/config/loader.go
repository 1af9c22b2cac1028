package config

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

type options struct {
	files   []string
	environ map[string]string
	prefix  string
}

// Option configures Load.
type Option func(*options)

// WithFiles loads the given dotenv files instead of ./.env. Variables already
// set in the process environment win.
func WithFiles(files ...string) Option {
	return func(o *options) { o.files = files }
}

// WithEnvironment parses from m instead of the process environment and skips
// dotenv files. Intended for tests.
func WithEnvironment(m map[string]string) Option {
	return func(o *options) { o.environ = m }
}

// WithPrefix prepends prefix to every variable name.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// Load parses environment variables into a new T using its env struct tags.
//
// The default ./.env file is read once per process; a missing file is not an
// error. Files passed with WithFiles are read on every call and must exist.
func Load[T any](opts ...Option) (T, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var cfg T
	if o.environ == nil {
		if len(o.files) > 0 {
			if err := godotenv.Load(o.files...); err != nil {
				return cfg, errors.Join(ErrLoadingEnvFile, err)
			}
		} else {
			dotenvOnce.Do(func() { _ = godotenv.Load() })
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Environment: o.environ,
		Prefix:      o.prefix,
	}); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad is Load that panics on failure, for process start-up.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}
