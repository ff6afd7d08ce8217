package config

import "errors"

var _ Defaults = (*CronConfig)(nil)
var _ Validator = (*CronConfig)(nil)

const (
	LockBackendDatabase = "database"
	LockBackendRedis    = "redis"
)

type CronConfig struct {
	// Secret is the shared bearer secret of the external trigger endpoint.
	Secret      string `mapstructure:"secret"`
	Enabled     bool   `mapstructure:"enabled"`
	Schedule    string `mapstructure:"schedule"`
	LockBackend string `mapstructure:"lock_backend"`
	Workers     int    `mapstructure:"workers"`
}

func (c CronConfig) Defaults() map[string]any {
	return map[string]any{
		"enabled":      false,
		"schedule":     "0 3 * * *",
		"lock_backend": LockBackendDatabase,
		"workers":      1,
	}
}

func (c CronConfig) Validate() error {
	switch c.LockBackend {
	case "", LockBackendDatabase, LockBackendRedis:
	default:
		return errors.New("core.cron.lock_backend must be one of: database, redis")
	}

	if c.Workers < 0 {
		return errors.New("core.cron.workers must not be negative")
	}

	if c.Enabled && c.Schedule == "" {
		return errors.New("core.cron.schedule is required when core.cron.enabled is set")
	}

	return nil
}
