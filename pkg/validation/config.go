package validation

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-waternet/pkg/quantity"
)

// ConfigValidator checks the configuration rules struct tags cannot express.
// Every failed rule is kept; Validate reports them together.
type ConfigValidator struct {
	errs []error
	name string
}

func NewConfigValidator(name string) *ConfigValidator {
	return &ConfigValidator{name: name}
}

func (cv *ConfigValidator) fail(field, format string, args ...any) {
	cv.errs = append(cv.errs, fmt.Errorf("%s.%s: %s", cv.name, field, fmt.Sprintf(format, args...)))
}

// RangeDuration requires min <= value <= max
func (cv *ConfigValidator) RangeDuration(field string, value, min, max time.Duration) *ConfigValidator {
	if value < min || value > max {
		cv.fail(field, "duration %v is outside range [%v, %v]", value, min, max)
	}
	return cv
}

// UnitPreset requires id to name a known unit system
func (cv *ConfigValidator) UnitPreset(field, id string) *ConfigValidator {
	if _, ok := quantity.PresetByID(id); !ok {
		cv.fail(field, "unknown unit system %q", id)
	}
	return cv
}

// When applies rules only if condition holds
func (cv *ConfigValidator) When(condition bool, rules func(*ConfigValidator)) *ConfigValidator {
	if condition {
		rules(cv)
	}
	return cv
}

func (cv *ConfigValidator) Errors() []error { return cv.errs }

// Validate returns nil, the single failure, or every failure joined under a
// count.
func (cv *ConfigValidator) Validate() error {
	switch len(cv.errs) {
	case 0:
		return nil
	case 1:
		return cv.errs[0]
	default:
		return fmt.Errorf("%s validation failed with %d errors: %w", cv.name, len(cv.errs), errors.Join(cv.errs...))
	}
}
