package config

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type UUID uuid.UUID

var _ yaml.Marshaler = (*UUID)(nil)

func NewUUID() UUID {
	return UUID(uuid.New())
}

func (u UUID) MarshalYAML() (interface{}, error) {
	return uuid.UUID(u).String(), nil
}

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

func ParseUUID(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, err
	}

	return UUID(id), nil
}

func uuidHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(UUID{}) {
			return data, nil
		}

		s := data.(string)
		if s == "" {
			return UUID{}, nil
		}

		return ParseUUID(s)
	}
}
