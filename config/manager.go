package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "ULE_"

var (
	configFilePaths = []string{
		"/etc/ule/config.yaml",
		"/etc/ule/config.yml",
		"$HOME/.ule/config.yaml",
		"$HOME/.ule/config.yml",
		"./ule.yaml",
		"./ule.yml",
	}
	errConfigFileNotFound = errors.New("config file not found")

	// envAliases maps platform-provided variables onto config keys.
	envAliases = map[string]string{
		"CRON_SECRET":  "core.cron.secret",
		"DATABASE_URL": "core.db.dsn",
	}
)

var _ Manager = (*ManagerDefault)(nil)

type ManagerOption func(*ManagerDefault)

// WithConfigFile pins the manager to a single file instead of searching the default locations.
func WithConfigFile(file string) ManagerOption {
	return func(m *ManagerDefault) {
		m.path = file
	}
}

type ManagerDefault struct {
	// file holds what is persisted: the config file plus written defaults.
	file *koanf.Koanf
	// config is file merged with environment overrides; never persisted.
	config  *koanf.Koanf
	root    *Config
	path    string
	changes bool
}

func NewManager(opts ...ManagerOption) (*ManagerDefault, error) {
	m := &ManagerDefault{}

	for _, opt := range opts {
		opt(m)
	}

	if m.path == "" {
		m.path = findConfigFile(false)
	}

	k, err := newConfig(m.path)
	if err != nil && !errors.Is(err, errConfigFileNotFound) {
		return nil, err
	}

	if m.path == "" {
		m.path = findConfigFile(true)
	}

	m.file = k
	m.changes = err != nil

	return m, nil
}

func (m *ManagerDefault) hooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		uuidHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	}
}

func (m *ManagerDefault) Init() error {
	m.root = &Config{}

	err := m.setDefaultsForObject(&m.root.Core, "core")
	if err != nil {
		return err
	}

	err = m.maybeSave()
	if err != nil {
		return err
	}

	merged, err := m.withEnvironment()
	if err != nil {
		return err
	}

	m.config = merged

	err = m.config.UnmarshalWithConf("", m.root, koanf.UnmarshalConf{
		Tag: "mapstructure",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.ComposeDecodeHookFunc(m.hooks()...),
			Metadata:         nil,
			Result:           m.root,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return err
	}

	return m.validateObject(m.root)
}

func (m *ManagerDefault) withEnvironment() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Merge(m.file); err != nil {
		return nil, err
	}

	// ULE_CORE__DB__HOST -> core.db.host
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, err
	}

	for name, key := range envAliases {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			if err := k.Set(key, value); err != nil {
				return nil, err
			}
		}
	}

	return k, nil
}

func (m *ManagerDefault) setDefaultsForObject(obj interface{}, prefix string) error {
	objValue := reflect.ValueOf(obj)
	objType := reflect.TypeOf(obj)

	if objValue.Kind() == reflect.Ptr {
		objValue = objValue.Elem()
		objType = objType.Elem()
	}

	if setter, ok := obj.(Defaults); ok {
		err := m.applyDefaults(setter, prefix)
		if err != nil {
			return err
		}
	}

	for i := 0; i < objValue.NumField(); i++ {
		field := objValue.Field(i)
		fieldType := objType.Field(i)

		if !field.CanInterface() {
			continue
		}

		mapstructureTag := fieldType.Tag.Get("mapstructure")

		newPrefix := prefix
		if mapstructureTag != "" && mapstructureTag != "-" {
			if newPrefix != "" {
				newPrefix += "."
			}
			newPrefix += mapstructureTag
		}

		switch {
		case field.Kind() == reflect.Struct:
			if err := m.setDefaultsForObject(field.Addr().Interface(), newPrefix); err != nil {
				return err
			}
		case field.Kind() == reflect.Ptr && fieldType.Type.Elem().Kind() == reflect.Struct:
			if field.IsNil() {
				field.Set(reflect.New(fieldType.Type.Elem()))
			}
			if err := m.setDefaultsForObject(field.Interface(), newPrefix); err != nil {
				return err
			}
		}
	}

	return nil
}

func (m *ManagerDefault) validateObject(obj interface{}) error {
	objValue := reflect.ValueOf(obj)

	if objValue.Kind() == reflect.Ptr {
		if objValue.IsNil() {
			return nil
		}
		objValue = objValue.Elem()
	}

	if validator, ok := obj.(Validator); ok {
		err := validator.Validate()
		if err != nil {
			return err
		}
	}

	for i := 0; i < objValue.NumField(); i++ {
		field := objValue.Field(i)

		if !field.CanInterface() {
			continue
		}

		switch {
		case field.Kind() == reflect.Struct && field.CanAddr():
			if err := m.validateObject(field.Addr().Interface()); err != nil {
				return err
			}
		case field.Kind() == reflect.Ptr && !field.IsNil() && field.Elem().Kind() == reflect.Struct:
			if err := m.validateObject(field.Interface()); err != nil {
				return err
			}
		}
	}

	return nil
}

func (m *ManagerDefault) applyDefaults(setter Defaults, prefix string) error {
	defaults := setter.Defaults()
	for key, value := range defaults {
		fullKey := key
		if prefix != "" {
			fullKey = fmt.Sprintf("%s.%s", prefix, key)
		}

		ret, err := m.setDefault(fullKey, value)
		if err != nil {
			return err
		}

		if ret {
			m.changes = true
		}
	}

	return nil
}

func (m *ManagerDefault) setDefault(key string, value interface{}) (bool, error) {
	if !m.file.Exists(key) {
		err := m.file.Set(key, value)
		if err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

func (m *ManagerDefault) maybeSave() error {
	if !m.changes {
		return nil
	}

	data, err := m.file.Marshal(yaml.Parser())
	if err != nil {
		return err
	}

	err = os.MkdirAll(path.Dir(m.path), 0755)
	if err != nil {
		return err
	}

	err = os.WriteFile(m.path, data, 0600)
	if err != nil {
		return err
	}

	m.changes = false

	return nil
}

func (m *ManagerDefault) Config() *Config {
	return m.root
}

func (m *ManagerDefault) Save() error {
	m.changes = true
	return m.maybeSave()
}

func (m *ManagerDefault) ConfigFile() string {
	return m.path
}

func newConfig(configFile string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if configFile == "" {
		return k, errConfigFileNotFound
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return k, errConfigFileNotFound
	}

	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, err
	}

	return k, nil
}

// findConfigFile returns the first existing config file. With create set it
// instead returns the first candidate whose directory exists.
func findConfigFile(create bool) string {
	for _, _path := range configFilePaths {
		expandedPath := os.ExpandEnv(_path)

		if !create {
			if _, err := os.Stat(expandedPath); err == nil {
				return expandedPath
			}
			continue
		}

		if _, err := os.Stat(path.Dir(expandedPath)); err == nil {
			return expandedPath
		}
	}

	if create {
		return os.ExpandEnv(configFilePaths[len(configFilePaths)-1])
	}

	return ""
}
