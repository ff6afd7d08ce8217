package config

import "errors"

var _ Validator = (*MailConfig)(nil)
var _ Defaults = (*MailConfig)(nil)

// MailConfig is optional: with an empty host, notifications are only logged.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	SSL      bool   `mapstructure:"ssl"`
	AuthType string `mapstructure:"auth_type"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func (m MailConfig) Defaults() map[string]any {
	return map[string]any{
		"port": 587,
		"from": "no-reply@ule.co",
	}
}

func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

func (m MailConfig) Validate() error {
	if !m.Enabled() {
		return nil
	}
	if m.From == "" {
		return errors.New("core.mail.from is required")
	}
	if m.AuthType != "" && m.Username == "" {
		return errors.New("core.mail.username is required when auth_type is set")
	}
	return nil
}
