package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct-level constraints on cfg: non-negative durations
// and retry counts, and a recognized log level.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid client configuration: %w", verrs)
		}
		return err
	}
	return nil
}
