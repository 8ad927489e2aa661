package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/dittoapi/internal/telemetry"
)

var (
	validateOnce sync.Once
	structValid  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		structValid = validator.New(validator.WithRequiredStructEnabled())
		structValid.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structValid
}

// Validate checks struct tags and cross-field rules.
func Validate(cfg *Config) error {
	if err := validatorInstance().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled {
		for _, pt := range cfg.Telemetry.Profiling.ProfileTypes {
			if _, err := telemetry.ParseProfileType(pt); err != nil {
				return fmt.Errorf("telemetry.profiling.profileTypes: %w", err)
			}
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port != 0 && cfg.Metrics.Port == cfg.Server.Port {
		return fmt.Errorf("metrics.port must differ from server.port (%d)", cfg.Server.Port)
	}

	if cfg.Security.CORS.Credentials {
		for _, o := range cfg.Security.CORS.Origins() {
			if o == "*" {
				return fmt.Errorf("security.cors.origin cannot be \"*\" when credentials are enabled")
			}
		}
	}
	return nil
}

// formatValidationErrors renders failures as "key: failed 'tag' validation",
// keyed by configuration path.
func formatValidationErrors(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		msg := fmt.Sprintf("%s: failed '%s' validation", path, fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return errors.New(strings.Join(msgs, "; "))
}
