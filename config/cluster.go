package config

import (
	"errors"
)

var _ Validator = (*ClusterConfig)(nil)

type ClusterConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Redis   *RedisConfig `mapstructure:"redis"`
}

func (c ClusterConfig) Validate() error {
	if c.Enabled && c.Redis == nil {
		return errors.New("redis configuration is required in cluster configuration")
	}

	return nil
}

func (c ClusterConfig) RedisEnabled() bool {
	return c.Enabled && c.Redis != nil
}
