package qdrant

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	URL             string `validate:"required,http_url"`
	APIKey          string
	Collection      string `validate:"required"`
	NamespacePrefix string
	Timeout         time.Duration `validate:"gte=0"`
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorInvalid           ConfigErrorCode = "invalid"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorMissingURL:
		return "QDRANT_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid QDRANT_URL=%q; expected absolute URL like http://qdrant:6333", e.Value)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	}
	if e.Cause != nil {
		return "invalid qdrant config: " + e.Cause.Error()
	}
	return "invalid qdrant config"
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

var validate = validator.New()

// ValidateConfig reports the first problem that keeps the store from reaching its collection.
func ValidateConfig(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ConfigError{Code: ConfigErrorInvalid, Cause: err}
	}
	fe := fieldErrs[0]
	switch {
	case fe.Field() == "URL" && fe.Tag() == "required":
		return &ConfigError{Code: ConfigErrorMissingURL, Cause: fe}
	case fe.Field() == "URL":
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL, Cause: fe}
	case fe.Field() == "Collection":
		return &ConfigError{Code: ConfigErrorMissingCollection, Cause: fe}
	default:
		return &ConfigError{Code: ConfigErrorInvalid, Value: fmt.Sprint(fe.Value()), Cause: fe}
	}
}
