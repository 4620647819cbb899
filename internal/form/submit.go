// internal/form/submit.go
//
// Contact – Forms subsystem: validation error carrier.
//
// Context
//   Field validation never fails with a Go error; it yields messages.  Once a
//   whole-form submit is rejected, callers still want one error value they
//   can return up the stack and later unwrap into per-field messages.
//   validationError serves that role.
//
//------------------------------------------------------------------------------

package form

import "errors"

// ErrorField describes a single validation failure so the presentation layer
// can render a field-level message.
type ErrorField struct {
	Name    Field  `json:"field"`
	Message string `json:"message"`
}

// validationError wraps []ErrorField and satisfies the error interface.
type validationError struct{ Fields []ErrorField }

func (ve validationError) Error() string { return "form validation failed" }

// NewValidationError wraps fields.  It returns nil when fields is empty so
// callers can return the result directly.
func NewValidationError(fields []ErrorField) error {
	if len(fields) == 0 {
		return nil
	}
	return validationError{Fields: fields}
}

// IsValidationError reports whether err came from a rejected submit.
func IsValidationError(err error) bool {
	var ve validationError
	return errors.As(err, &ve)
}

// FieldErrors unwraps the per-field failures carried by err, in form order.
// It returns nil when err is not a validation error.
func FieldErrors(err error) []ErrorField {
	var ve validationError
	if !errors.As(err, &ve) {
		return nil
	}
	return ve.Fields
}
