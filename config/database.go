package config

import (
	"errors"
)

var _ Defaults = (*DatabaseConfig)(nil)
var _ Validator = (*DatabaseConfig)(nil)

const (
	DatabaseTypeSQLite   = "sqlite"
	DatabaseTypeMySQL    = "mysql"
	DatabaseTypePostgres = "postgres"
)

type DatabaseConfig struct {
	Type     string `mapstructure:"type"`
	File     string `mapstructure:"file"`
	DSN      string `mapstructure:"dsn"`
	Charset  string `mapstructure:"charset"`
	Host     string `mapstructure:"host"`
	Name     string `mapstructure:"name"`
	Password string `mapstructure:"password"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

func (d DatabaseConfig) Validate() error {
	switch d.Type {
	case DatabaseTypeSQLite:
		if d.File == "" {
			return errors.New("core.db.file is required")
		}
	case DatabaseTypeMySQL, DatabaseTypePostgres:
		if d.DSN != "" {
			return nil
		}
		if d.Host == "" {
			return errors.New("core.db.host is required")
		}
		if d.Port == 0 {
			return errors.New("core.db.port is required")
		}
		if d.Username == "" {
			return errors.New("core.db.username is required")
		}
		if d.Name == "" {
			return errors.New("core.db.name is required")
		}
	default:
		return errors.New("core.db.type must be one of: sqlite, mysql, postgres")
	}

	return nil
}

func (d DatabaseConfig) Defaults() map[string]any {
	def := map[string]any{
		"type":     DatabaseTypeSQLite,
		"file":     "ule.db",
		"host":     "localhost",
		"port":     3306,
		"charset":  "utf8mb4",
		"name":     "ule",
		"ssl_mode": "disable",
	}

	return def
}
