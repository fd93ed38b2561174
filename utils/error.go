package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")
var ErrorUnknownField = errors.New("unknown field")
var ErrorReadonlyField = errors.New("field is readonly")
var ErrorInvalidDefaultPolicy = errors.New("invalid default value policy")
var ErrorItemIndexOutOfRange = errors.New("line item index out of range")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidationError reports why a single field value was rejected. It is never
// fatal; the form stays editable and the error is rendered next to the field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validation reason codes.
const (
	ReasonRequiredEmpty = "required-empty"
	ReasonNotANumber    = "not-a-number"
	ReasonOutOfRange    = "out-of-range"
	ReasonInvalidOption = "invalid-option"
	ReasonInvalidEmail  = "invalid-email"
	ReasonInvalidDate   = "invalid-date"
)

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func NewValidationError(field string, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
