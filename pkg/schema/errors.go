package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports one or more invalid or missing fields in an input
// payload. Fields maps the JSON field name to a human-readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// fromValidator converts validator.ValidationErrors into a *ValidationError
// keyed by the JSON field names registered on the validator instance.
func fromValidator(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, ferr := range verrs {
		message := fmt.Sprintf("failed %q validation", ferr.Tag())
		if ferr.Param() != "" {
			message = fmt.Sprintf("failed %q validation (param %s)", ferr.Tag(), ferr.Param())
		}
		fields[ferr.Field()] = message
	}
	return &ValidationError{Fields: fields}
}
