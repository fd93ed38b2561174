package models

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
)

func TestResolveDefault_SymbolicPolicies(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	cases := []struct {
		defaultValue string
		expected     string
	}{
		{"", ""},
		{"today", "2024-03-15"},
		{"today+30-days", "2024-04-14"},
		{"today+0-days", "2024-03-15"},
		{"Pending", "Pending"},
		{"0", "0"},
	}
	for _, tc := range cases {
		def := FieldDefinition{Name: "f", ValueType: FieldValueTypeShortText, DefaultValue: tc.defaultValue}
		got, err := def.ResolveDefault(now)
		if err != nil {
			t.Fatalf("ResolveDefault(%q) error: %v", tc.defaultValue, err)
		}
		if got != tc.expected {
			t.Fatalf("ResolveDefault(%q) expected %q, got %q", tc.defaultValue, tc.expected, got)
		}
	}
}

func TestResolveDefault_UnrecognizedTokenFails(t *testing.T) {
	for _, bad := range []string{"today+thirty", "today-30-days", "today+30"} {
		def := FieldDefinition{Name: "due_date", ValueType: FieldValueTypeDate, DefaultValue: bad}
		if _, err := def.ResolveDefault(time.Now()); !errors.Is(err, utils.ErrorInvalidDefaultPolicy) {
			t.Fatalf("ResolveDefault(%q) expected ErrorInvalidDefaultPolicy, got %v", bad, err)
		}
	}
}

func TestValidateValue(t *testing.T) {
	min := decimal.RequireFromString("0")
	max := decimal.RequireFromString("100")

	cases := []struct {
		name   string
		def    FieldDefinition
		value  string
		reason string // empty means valid
	}{
		{
			name:   "required empty",
			def:    FieldDefinition{Name: "client_name", ValueType: FieldValueTypeShortText, Required: true},
			value:  "",
			reason: utils.ReasonRequiredEmpty,
		},
		{
			name:  "optional empty",
			def:   FieldDefinition{Name: "notes", ValueType: FieldValueTypeLongText},
			value: "",
		},
		{
			name:   "number garbage",
			def:    FieldDefinition{Name: "rate", ValueType: FieldValueTypeNumber},
			value:  "abc",
			reason: utils.ReasonNotANumber,
		},
		{
			name:   "number below min",
			def:    FieldDefinition{Name: "rate", ValueType: FieldValueTypeNumber, Min: &min},
			value:  "-1",
			reason: utils.ReasonOutOfRange,
		},
		{
			name:   "number above max",
			def:    FieldDefinition{Name: "rate", ValueType: FieldValueTypeNumber, Min: &min, Max: &max},
			value:  "100.01",
			reason: utils.ReasonOutOfRange,
		},
		{
			name:  "number at bounds",
			def:   FieldDefinition{Name: "rate", ValueType: FieldValueTypeNumber, Min: &min, Max: &max},
			value: "100",
		},
		{
			name:   "select not a member",
			def:    FieldDefinition{Name: "status", ValueType: FieldValueTypeSingleSelect, Options: []string{"Pending", "Paid"}},
			value:  "Draft",
			reason: utils.ReasonInvalidOption,
		},
		{
			name:  "select member",
			def:   FieldDefinition{Name: "status", ValueType: FieldValueTypeSingleSelect, Options: []string{"Pending", "Paid"}},
			value: "Paid",
		},
		{
			name:   "bad email",
			def:    FieldDefinition{Name: "client_email", ValueType: FieldValueTypeEmail},
			value:  "not-an-email",
			reason: utils.ReasonInvalidEmail,
		},
		{
			name:  "good email",
			def:   FieldDefinition{Name: "client_email", ValueType: FieldValueTypeEmail},
			value: "client@email.com",
		},
		{
			name:   "bad date",
			def:    FieldDefinition{Name: "invoice_date", ValueType: FieldValueTypeDate},
			value:  "15/03/2024",
			reason: utils.ReasonInvalidDate,
		},
		{
			name:  "good date",
			def:   FieldDefinition{Name: "invoice_date", ValueType: FieldValueTypeDate},
			value: "2024-03-15",
		},
	}

	for _, tc := range cases {
		err := tc.def.ValidateValue(tc.value)
		if tc.reason == "" {
			if err != nil {
				t.Fatalf("%s: expected valid, got %v", tc.name, err)
			}
			continue
		}
		var vErr *utils.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if vErr.Reason != tc.reason {
			t.Fatalf("%s: expected reason %s, got %s", tc.name, tc.reason, vErr.Reason)
		}
		if vErr.Field != tc.def.Name {
			t.Fatalf("%s: expected field %s, got %s", tc.name, tc.def.Name, vErr.Field)
		}
	}
}
