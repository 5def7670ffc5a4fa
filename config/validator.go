package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig performs validation on the Config structure.
func ValidateConfig(cfg *Config) error {
	validate := validator.New()

	// Base URLs must carry an explicit protocol; every collaborator tool
	// passes fully qualified API roots.
	_ = validate.RegisterValidation("baseurl", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
	})

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	if err := validate.Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				messages = append(messages, fmt.Sprintf("field '%s' failed validation '%s' (value: %v)", e.StructNamespace(), e.Tag(), e.Value()))
			}
			return fmt.Errorf("config validation failed: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.RetryConfig.MaxDelayMs > 0 && cfg.RetryConfig.BaseDelayMs > cfg.RetryConfig.MaxDelayMs {
		return fmt.Errorf("config validation failed: retry_config.base_delay_ms (%d) must not exceed max_delay_ms (%d)",
			cfg.RetryConfig.BaseDelayMs, cfg.RetryConfig.MaxDelayMs)
	}

	switch cfg.ClientConfig.AuthType {
	case "basic":
		if cfg.ClientConfig.AuthUsername == "" {
			return errors.New("config validation failed: auth_username is required for basic auth")
		}
	case "bearer":
		if cfg.ClientConfig.AuthToken == "" {
			return errors.New("config validation failed: auth_token is required for bearer auth")
		}
	}

	return nil
}
