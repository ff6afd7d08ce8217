package config

import (
	"errors"
)

var _ Validator = (*S3Config)(nil)
var _ Defaults = (*S3Config)(nil)

type StorageConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

// S3Config points at the bucket holding document-library objects. An empty
// bucket disables object removal on account purge.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

func (s S3Config) Defaults() map[string]any {
	return map[string]any{
		"bucket":     "",
		"endpoint":   "",
		"region":     "",
		"access_key": "",
		"secret_key": "",
	}
}

func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

func (s S3Config) Validate() error {
	if !s.Enabled() {
		return nil
	}
	if s.Region == "" {
		return errors.New("core.storage.s3.region is required")
	}
	if s.AccessKey == "" {
		return errors.New("core.storage.s3.access_key is required")
	}
	if s.SecretKey == "" {
		return errors.New("core.storage.s3.secret_key is required")
	}
	return nil
}
