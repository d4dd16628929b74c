package config

import (
	"errors"
	"fmt"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is the first error of the chain Validate returns
var ErrInvalidConfig = errors.New("invalid configuration")

var validator = gvalidator.New(gvalidator.WithRequiredStructEnabled())

// Validate checks cfg against its struct tags
func Validate(cfg *Config) error {
	err := validator.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrInvalidConfig}
	for _, fe := range validationErrors {
		errs = append(errs, fmt.Errorf("'%s': value '%v' does not satisfy '%s'", fe.Field(), fe.Value(), fe.Tag()))
	}
	return errors.Join(errs...)
}
