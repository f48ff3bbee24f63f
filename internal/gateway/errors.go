package gateway

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NetworkError reports a transport failure or a non-success HTTP status
// from the proxy.
type NetworkError struct {
	Op     string
	Status int // zero when the request never produced a response
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status >= 300 {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UnmappedFieldError is returned for app fields that have no writable
// backend mapping.
type UnmappedFieldError struct {
	Field string
}

func (e *UnmappedFieldError) Error() string {
	return fmt.Sprintf("field %q has no backend mapping", e.Field)
}

// ValidationError reports a value that the backend would reject.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func validationError(field string, err error) *ValidationError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Field: field, Reason: err.Error(), Err: err}
	}
	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "max":
			reasons = append(reasons, fmt.Sprintf("%s longer than %s characters", strings.ToLower(fe.Field()), fe.Param()))
		case "gt":
			reasons = append(reasons, fmt.Sprintf("%s must be positive", strings.ToLower(fe.Field())))
		default:
			reasons = append(reasons, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return &ValidationError{Field: field, Reason: strings.Join(reasons, ", "), Err: err}
}
