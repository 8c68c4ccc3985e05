package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is shared across calls; the validator caches struct metadata and
// is safe for concurrent use.
var validate = validator.New()

// Load reads a YAML configuration file and merges it over the defaults
// returned by Default. An empty path yields the validated defaults, so
// callers can treat the configuration file as optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cfg against the constraints declared on its fields and
// reports every violation with its field path.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q constraint", fe.Namespace(), fe.Tag()))
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
