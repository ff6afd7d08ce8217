package config

// Defaults is implemented by config sections that seed missing keys.
type Defaults interface {
	Defaults() map[string]any
}

// Validator is implemented by config sections that can check themselves after decoding.
type Validator interface {
	Validate() error
}

type Manager interface {
	Init() error
	Config() *Config
	Save() error
	ConfigFile() string
}

type Config struct {
	Core CoreConfig `mapstructure:"core"`
}
