package models

import (
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one invoice row. TotalPrice is derived (quantity * unitPrice,
// rounded to cents) and only ever written by the computation engine.
type LineItem struct {
	// Key is the item's stable identity. Removing another row changes an
	// item's display index but never its key.
	Key         string          `json:"-"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// InvoiceFinancials is the derived aggregate over all line items plus the
// jurisdiction input. Invariant: at most one of {cgst+sgst} or {igst} is
// nonzero at any time.
type InvoiceFinancials struct {
	Subtotal       decimal.Decimal  `json:"subtotal"`
	TaxMode        utils.TaxMode    `json:"tax_mode,omitempty"`
	Rates          utils.GstRates   `json:"rates"`
	Amounts        utils.GstAmounts `json:"amounts"`
	OtherTaxAmount decimal.Decimal  `json:"other_tax_amount"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
}

// FormSession is the live in-memory instance of one open invoice form: the
// ordered line items, the flat field-name to value mapping, and the current
// financials snapshot. It is created on form open, mutated by user input and
// the computation engine, and discarded on navigation away or reset. There is
// no server persistence inside the session itself; drafts are a separate
// collaborator.
type FormSession struct {
	ID         string            `json:"id"`
	Values     map[string]string `json:"values"`
	Items      []LineItem        `json:"items"`
	Financials InvoiceFinancials `json:"financials"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	registry *FormSchemaRegistry
}

// NewFormSession materializes a session from the registry: defaults resolved
// against now, one starter line item, zeroed financials.
func NewFormSession(reg *FormSchemaRegistry, now time.Time) (*FormSession, error) {
	s := &FormSession{
		ID:        uuid.NewString(),
		registry:  reg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.initValues(now); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FormSession) initValues(now time.Time) error {
	s.Values = make(map[string]string)
	for _, group := range s.registry.ListGroups() {
		for i := range group.Fields {
			def := &group.Fields[i]
			v, err := def.ResolveDefault(now)
			if err != nil {
				return err
			}
			s.Values[def.Name] = v
		}
	}
	s.Items = nil
	s.AddLineItem()
	s.ApplyFinancials(InvoiceFinancials{})
	return nil
}

// Registry returns the schema this session was materialized from.
func (s *FormSession) Registry() *FormSchemaRegistry {
	return s.registry
}

// SetFieldValue is the mutation entry point for a named field. Readonly
// (derived) fields reject direct input; only the computation engine writes
// them, through ApplyFinancials.
func (s *FormSession) SetFieldValue(name string, raw string) error {
	def, err := s.registry.Lookup(name)
	if err != nil {
		return err
	}
	if def.Readonly {
		return utils.ErrorReadonlyField
	}
	if err := def.ValidateValue(raw); err != nil {
		return err
	}
	s.Values[name] = strings.TrimSpace(raw)
	s.UpdatedAt = time.Now()
	return nil
}

// FieldValue returns the current value of a named field.
func (s *FormSession) FieldValue(name string) string {
	return s.Values[name]
}

// AddLineItem appends a row with the schema defaults (quantity 1) and returns
// its display index.
func (s *FormSession) AddLineItem() int {
	item := LineItem{
		Key:        uuid.NewString(),
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.Zero,
		TotalPrice: decimal.Zero,
	}
	s.Items = append(s.Items, item)
	s.UpdatedAt = time.Now()
	return len(s.Items) - 1
}

// RemoveLineItem deletes the row at the given display index. Surviving items
// keep their keys; only display indexes shift.
func (s *FormSession) RemoveLineItem(index int) error {
	if index < 0 || index >= len(s.Items) {
		return utils.ErrorItemIndexOutOfRange
	}
	s.Items = append(s.Items[:index], s.Items[index+1:]...)
	s.UpdatedAt = time.Now()
	return nil
}

// SetLineItem validates and applies user input for one row. TotalPrice is not
// accepted here; it is derived.
func (s *FormSession) SetLineItem(index int, description string, quantity string, unitPrice string) error {
	if index < 0 || index >= len(s.Items) {
		return utils.ErrorItemIndexOutOfRange
	}
	for _, def := range s.registry.LineItemSchema() {
		switch def.Name {
		case ItemFieldDescription:
			if err := def.ValidateValue(description); err != nil {
				return err
			}
		case ItemFieldQuantity:
			if err := def.ValidateValue(quantity); err != nil {
				return err
			}
		case ItemFieldUnitPrice:
			if err := def.ValidateValue(unitPrice); err != nil {
				return err
			}
		}
	}
	item := &s.Items[index]
	item.Description = strings.TrimSpace(description)
	item.Quantity = utils.CoerceDecimal(quantity)
	item.UnitPrice = utils.CoerceDecimal(unitPrice)
	s.UpdatedAt = time.Now()
	return nil
}

// ApplyFinancials publishes a complete recomputed snapshot and mirrors the
// derived values into the field map for the rendering collaborator. The
// snapshot is written whole, never partially.
func (s *FormSession) ApplyFinancials(fin InvoiceFinancials) {
	s.Financials = fin
	s.Values[FieldSubtotal] = fin.Subtotal.StringFixed(2)
	s.Values[FieldCgstRate] = fin.Rates.CgstRate.String()
	s.Values[FieldCgstAmount] = fin.Amounts.CgstAmount.StringFixed(2)
	s.Values[FieldSgstRate] = fin.Rates.SgstRate.String()
	s.Values[FieldSgstAmount] = fin.Amounts.SgstAmount.StringFixed(2)
	s.Values[FieldIgstRate] = fin.Rates.IgstRate.String()
	s.Values[FieldIgstAmount] = fin.Amounts.IgstAmount.StringFixed(2)
	s.Values[FieldTotalAmount] = fin.TotalAmount.StringFixed(2)
	s.UpdatedAt = time.Now()
}

// Reset discards all user input and re-materializes the session defaults,
// keeping the session ID.
func (s *FormSession) Reset(now time.Time) error {
	return s.initValues(now)
}

// Serialize produces the persistence/export shape: the field values keyed by
// their schema names, plus the ordered items array.
func (s *FormSession) Serialize() map[string]interface{} {
	out := make(map[string]interface{}, len(s.Values)+1)
	for name, value := range s.Values {
		out[name] = value
	}
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	out["items"] = items
	return out
}
