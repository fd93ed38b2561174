package models

import (
	"errors"

	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
)

// FieldGroup is a named, display-ordered collection of field definitions.
type FieldGroup struct {
	Name   string            `json:"name"`
	Label  string            `json:"label"`
	Fields []FieldDefinition `json:"fields"`
}

// FormSchemaRegistry is the single source of truth for which fields exist,
// their validation rules and default-value policies. It is immutable after
// construction; field names form one flat namespace across all groups because
// computation rules reference fields by name alone.
type FormSchemaRegistry struct {
	groups     []FieldGroup
	itemFields []FieldDefinition
	byName     map[string]*FieldDefinition
}

func NewFormSchemaRegistry(groups []FieldGroup, itemFields []FieldDefinition) (*FormSchemaRegistry, error) {
	reg := &FormSchemaRegistry{
		groups:     groups,
		itemFields: itemFields,
		byName:     make(map[string]*FieldDefinition),
	}
	for gi := range groups {
		group := &reg.groups[gi]
		for fi := range group.Fields {
			def := &group.Fields[fi]
			if err := checkDefinition(def); err != nil {
				return nil, err
			}
			if _, dup := reg.byName[def.Name]; dup {
				return nil, errors.New("duplicate field name: " + def.Name)
			}
			reg.byName[def.Name] = def
		}
	}
	seen := make(map[string]bool)
	for fi := range reg.itemFields {
		def := &reg.itemFields[fi]
		if err := checkDefinition(def); err != nil {
			return nil, err
		}
		if seen[def.Name] {
			return nil, errors.New("duplicate line item field name: " + def.Name)
		}
		seen[def.Name] = true
	}
	return reg, nil
}

// ListGroups returns the field groups in display order.
func (reg *FormSchemaRegistry) ListGroups() []FieldGroup {
	out := make([]FieldGroup, len(reg.groups))
	copy(out, reg.groups)
	return out
}

// LineItemSchema returns the field definitions of a single line item row in
// display order.
func (reg *FormSchemaRegistry) LineItemSchema() []FieldDefinition {
	out := make([]FieldDefinition, len(reg.itemFields))
	copy(out, reg.itemFields)
	return out
}

// Lookup resolves a field definition by name from the flat namespace.
func (reg *FormSchemaRegistry) Lookup(name string) (*FieldDefinition, error) {
	def, ok := reg.byName[name]
	if !ok {
		return nil, utils.ErrorUnknownField
	}
	return def, nil
}
