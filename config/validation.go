package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their koanf key so messages match config.yaml
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks cfg with struct tags, then the rules spanning several fields.
// Every problem is reported as a *ConfigError; several are joined.
func Validate(cfg *Config) error {
	if cfg == nil {
		return NewMissingFieldError("config")
	}

	var errs []error
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		for _, fe := range validationErrors {
			errs = append(errs, translate(fe))
		}
	}

	errs = append(errs, validateClient(&cfg.Client)...)

	if err := cfg.Observability.Validate(); err != nil {
		errs = append(errs, NewValidationError("observability", err.Error()))
	}

	return errors.Join(errs...)
}

func validateClient(cfg *ClientConfig) []error {
	var errs []error

	if !cfg.Retry.Forever && cfg.Retry.Max == 0 {
		errs = append(errs, &ConfigError{
			Category: "invalid",
			Field:    "client.retry.max",
			Message:  "must allow at least one attempt",
			Action:   "set client.retry.max to 1 or more, or client.retry.forever to true",
		})
	}

	if cfg.Backoff.Max > 0 && cfg.Backoff.Max < cfg.Backoff.Base {
		errs = append(errs, NewValidationError("client.backoff.max",
			fmt.Sprintf("must not be below client.backoff.base (%s)", cfg.Backoff.Base)))
	}

	if cfg.Rate.Limit > 0 && cfg.Rate.Burst < 1 {
		errs = append(errs, NewValidationError("client.rate.burst", "must be at least 1 when client.rate.limit is set"))
	}

	return errs
}

// translate maps a validator failure to a ConfigError keyed by its config path.
func translate(fe validator.FieldError) *ConfigError {
	field := fieldPath(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value '%v'", fe.Value()), strings.Fields(fe.Param()))
	case "gt":
		return NewValidationError(field, fmt.Sprintf("must be greater than %s", fe.Param()))
	case "gte":
		return NewValidationError(field, fmt.Sprintf("must be %s or more, got %v", fe.Param(), fe.Value()))
	case "lte":
		return NewValidationError(field, fmt.Sprintf("must be %s or less, got %v", fe.Param(), fe.Value()))
	default:
		return NewValidationError(field, fmt.Sprintf("failed '%s' check", fe.Tag()))
	}
}

// fieldPath drops the root struct name: Config.client.retry.max -> client.retry.max.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
