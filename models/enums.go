package models

import "errors"

// FieldValueType classifies what a form field holds and how it is validated.
type FieldValueType string

const (
	FieldValueTypeShortText    FieldValueType = "short-text"
	FieldValueTypeLongText     FieldValueType = "long-text"
	FieldValueTypeEmail        FieldValueType = "email"
	FieldValueTypePhone        FieldValueType = "phone"
	FieldValueTypeDate         FieldValueType = "date"
	FieldValueTypeNumber       FieldValueType = "number"
	FieldValueTypeSingleSelect FieldValueType = "single-select"
)

func (t FieldValueType) Validate() error {
	switch t {
	case FieldValueTypeShortText, FieldValueTypeLongText, FieldValueTypeEmail,
		FieldValueTypePhone, FieldValueTypeDate, FieldValueTypeNumber,
		FieldValueTypeSingleSelect:
		return nil
	}
	return errors.New("invalid field value type: " + string(t))
}
