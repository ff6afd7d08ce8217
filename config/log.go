package config

import "errors"

var _ Defaults = (*LogConfig)(nil)
var _ Validator = (*LogConfig)(nil)

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func (l LogConfig) Defaults() map[string]any {
	return map[string]any{
		"level": "info",
	}
}

func (l LogConfig) Validate() error {
	switch l.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	}

	return errors.New("core.log.level must be one of: debug, info, warn, error")
}
