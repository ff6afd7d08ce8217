package config

import (
	"errors"
)

var _ Defaults = (*CoreConfig)(nil)
var _ Validator = (*CoreConfig)(nil)

type CoreConfig struct {
	DB        DatabaseConfig `mapstructure:"db"`
	Domain    string         `mapstructure:"domain"`
	AppName   string         `mapstructure:"app_name"`
	Identity  Identity       `mapstructure:"identity"`
	Log       LogConfig      `mapstructure:"log"`
	Port      uint           `mapstructure:"port"`
	Mail      MailConfig     `mapstructure:"mail"`
	Cron      CronConfig     `mapstructure:"cron"`
	Storage   StorageConfig  `mapstructure:"storage"`
	Clustered *ClusterConfig `mapstructure:"clustered"`
	NodeID    UUID           `mapstructure:"node_id"`
}

func (c CoreConfig) Validate() error {
	if c.Domain == "" {
		return errors.New("core.domain is required")
	}
	if c.Port == 0 {
		return errors.New("core.port is required")
	}
	if !c.Identity.Valid() {
		return errIdentityInvalid
	}
	if c.Cron.LockBackend == LockBackendRedis && (c.Clustered == nil || !c.Clustered.RedisEnabled()) {
		return errors.New("core.cron.lock_backend redis requires core.clustered.redis")
	}

	return nil
}

func (c CoreConfig) Defaults() map[string]any {
	return map[string]any{
		"domain":   "localhost",
		"app_name": "Ule",
		"port":     8080,
		"identity": string(NewIdentity()),
		"node_id":  NewUUID().String(),
	}
}

func (c CoreConfig) ClusterEnabled() bool {
	return c.Clustered != nil && c.Clustered.Enabled
}
