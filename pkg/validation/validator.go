package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-waternet/pkg/geometry"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxBatchSize       = 100000
	MinBatchSize       = 1
	MaxPropertyName    = 64
	MaxPolygonVertices = 10000

	// Property names are camelCase identifiers
	propertyNamePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
)

var (
	nodeTypes = []string{"junction", "reservoir", "tank"}
	linkTypes = []string{"pipe", "pump", "valve"}
)

func init() {
	validate = validator.New()
	mustRegister("nodetype", oneOfTag(nodeTypes))
	mustRegister("linktype", oneOfTag(linkTypes))
	mustRegister("finite", finite)
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func oneOfTag(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field()
		if v.Kind() != reflect.String {
			return false
		}
		for _, a := range allowed {
			if v.String() == a {
				return true
			}
		}
		return false
	}
}

// finite accepts floats and float arrays without NaN or infinities
func finite(fl validator.FieldLevel) bool {
	v := fl.Field()
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	case reflect.Array, reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			e := v.Index(i)
			if e.Kind() != reflect.Float64 && e.Kind() != reflect.Float32 {
				return false
			}
			if f := e.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Struct validates v against its struct tags. Besides the built-in tags it
// understands nodetype, linktype and finite.
func Struct(v any) error {
	if v == nil {
		return errors.New("request cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateBatchSize validates the number of ids in one request
func ValidateBatchSize(size int) error {
	if size < MinBatchSize {
		return fmt.Errorf("batch size must be at least %d, got %d", MinBatchSize, size)
	}
	if size > MaxBatchSize {
		return fmt.Errorf("batch size must not exceed %d, got %d", MaxBatchSize, size)
	}
	return nil
}

// ValidatePropertyName validates an asset property name
func ValidatePropertyName(name string) error {
	if name == "" {
		return errors.New("property name cannot be empty")
	}
	if len(name) > MaxPropertyName {
		return fmt.Errorf("property name '%s' exceeds maximum length of %d characters", name, MaxPropertyName)
	}
	if !propertyNamePattern.MatchString(name) {
		return fmt.Errorf("property name '%s' is invalid (must be camelCase, starting with a lowercase letter)", name)
	}
	return nil
}

// ValidatePolygon validates an area-query ring. Fewer than three vertices is
// allowed and selects nothing; coordinates must be finite.
func ValidatePolygon(polygon []geometry.Position) error {
	if len(polygon) > MaxPolygonVertices {
		return fmt.Errorf("polygon: maximum %d vertices allowed, got %d", MaxPolygonVertices, len(polygon))
	}
	for i, p := range polygon {
		for _, c := range p {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("polygon: vertex %d is not finite", i)
			}
		}
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "nodetype":
			return fmt.Errorf("%s: must be one of %v", field, nodeTypes)
		case "linktype":
			return fmt.Errorf("%s: must be one of %v", field, linkTypes)
		case "finite":
			return fmt.Errorf("%s: must be a finite number", field)
		case "dive":
			// For array elements
			return fmt.Errorf("%s: invalid element in array", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
