package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of date-valued fields.
const DateLayout = "2006-01-02"

// Symbolic default value policies resolved against the current date.
const DefaultPolicyToday = "today"

var defaultPolicyTodayPlusDays = regexp.MustCompile(`^today\+(\d+)-days$`)

var validate = validator.New()

// FieldDefinition describes one logical form field. A readonly field is a
// derived field: it never accepts direct user input and is only ever written
// by the computation engine.
type FieldDefinition struct {
	Name         string           `json:"name" binding:"required"`
	Label        string           `json:"label" binding:"required"`
	ValueType    FieldValueType   `json:"value_type" binding:"required"`
	Required     bool             `json:"required"`
	Readonly     bool             `json:"readonly"`
	DefaultValue string           `json:"default_value,omitempty"`
	Placeholder  string           `json:"placeholder,omitempty"`
	Options      []string         `json:"options,omitempty"`
	Min          *decimal.Decimal `json:"min,omitempty"`
	Max          *decimal.Decimal `json:"max,omitempty"`
	Step         string           `json:"step,omitempty"`
}

// ResolveDefault materializes the field's default value. Symbolic policies
// resolve against now: "today" and "today+N-days". Any other token starting
// with "today" is a schema programmer error.
func (def *FieldDefinition) ResolveDefault(now time.Time) (string, error) {
	dv := def.DefaultValue
	if dv == "" {
		return "", nil
	}
	if !strings.HasPrefix(dv, DefaultPolicyToday) {
		return dv, nil
	}
	if dv == DefaultPolicyToday {
		return now.Format(DateLayout), nil
	}
	if m := defaultPolicyTodayPlusDays.FindStringSubmatch(dv); m != nil {
		days, err := strconv.Atoi(m[1])
		if err != nil {
			return "", utils.ErrorInvalidDefaultPolicy
		}
		return now.AddDate(0, 0, days).Format(DateLayout), nil
	}
	return "", utils.ErrorInvalidDefaultPolicy
}

// ValidateValue checks a raw user value against the definition. Returns a
// *utils.ValidationError describing the first violation, or nil. Does not
// mutate anything.
func (def *FieldDefinition) ValidateValue(raw string) error {
	value := strings.TrimSpace(raw)

	if value == "" {
		if def.Required {
			return utils.NewValidationError(def.Name, utils.ReasonRequiredEmpty)
		}
		return nil
	}

	switch def.ValueType {
	case FieldValueTypeNumber:
		num, err := utils.ParseDecimal(value)
		if err != nil {
			return utils.NewValidationError(def.Name, utils.ReasonNotANumber)
		}
		if def.Min != nil && num.LessThan(*def.Min) {
			return utils.NewValidationError(def.Name, utils.ReasonOutOfRange)
		}
		if def.Max != nil && num.GreaterThan(*def.Max) {
			return utils.NewValidationError(def.Name, utils.ReasonOutOfRange)
		}
	case FieldValueTypeSingleSelect:
		for _, opt := range def.Options {
			if value == opt {
				return nil
			}
		}
		return utils.NewValidationError(def.Name, utils.ReasonInvalidOption)
	case FieldValueTypeEmail:
		if err := validate.Var(value, "email"); err != nil {
			return utils.NewValidationError(def.Name, utils.ReasonInvalidEmail)
		}
	case FieldValueTypeDate:
		if _, err := time.Parse(DateLayout, value); err != nil {
			return utils.NewValidationError(def.Name, utils.ReasonInvalidDate)
		}
	}
	return nil
}

// checkDefinition validates a definition itself at registry construction.
// Schema mistakes are programmer errors and must fail loudly here, never at
// runtime per field.
func checkDefinition(def *FieldDefinition) error {
	if err := def.ValueType.Validate(); err != nil {
		return err
	}
	if def.ValueType == FieldValueTypeSingleSelect && len(def.Options) == 0 {
		return utils.NewValidationError(def.Name, utils.ReasonInvalidOption)
	}
	// Probe the default policy so unknown symbolic tokens surface now.
	if _, err := def.ResolveDefault(time.Now()); err != nil {
		return err
	}
	return nil
}
