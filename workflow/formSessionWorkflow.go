package workflow

import (
	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
)

// FormComputeEngine keeps every derived value of a FormSession consistent
// with its user-editable inputs: per-row totals, the subtotal, the GST rates
// and amounts for the active tax mode, and the grand total.
//
// The engine holds no session state of its own; each entry point runs one
// synchronous recomputation cascade over the session it is handed and
// publishes a complete financials snapshot before returning. Downstream
// values are always recomputed from scratch, never patched incrementally, so
// partial updates cannot drift.
type FormComputeEngine struct {
	homeState      string
	intraSplitRate decimal.Decimal
	interRate      decimal.Decimal

	onRecompute func(*models.FormSession)
}

func NewFormComputeEngine(homeState string, intraSplitRate decimal.Decimal, interRate decimal.Decimal) *FormComputeEngine {
	return &FormComputeEngine{
		homeState:      homeState,
		intraSplitRate: intraSplitRate,
		interRate:      interRate,
	}
}

// SetRecomputeListener registers the rendering collaborator's refresh hook.
// It fires once per completed cascade, after the snapshot is published.
func (e *FormComputeEngine) SetRecomputeListener(fn func(*models.FormSession)) {
	e.onRecompute = fn
}

// RecomputeLineItem derives the row total as round2(quantity * unitPrice).
// Inputs are trusted to be validated upstream; the decimal type rules out
// non-finite values by construction.
func (e *FormComputeEngine) RecomputeLineItem(item *models.LineItem) {
	item.TotalPrice = utils.CalculateItemTotal(item.Quantity, item.UnitPrice)
}

// RecomputeSubtotal sums the rounded row totals and rounds once after
// summation.
func (e *FormComputeEngine) RecomputeSubtotal(items []models.LineItem) decimal.Decimal {
	totals := make([]decimal.Decimal, len(items))
	for i := range items {
		totals[i] = items[i].TotalPrice
	}
	return utils.CalculateSubtotal(totals)
}

// ResolveTaxMode decides intra-state vs inter-state for a billing state using
// the engine's configured home state and rates.
func (e *FormComputeEngine) ResolveTaxMode(billingState string) (utils.TaxMode, utils.GstRates) {
	return utils.ResolveTaxMode(billingState, e.homeState, e.intraSplitRate, e.interRate)
}

// OnLineItemChanged runs the full cascade after a row edit: the changed row,
// then the subtotal over all rows, then taxes under the current mode, then
// the grand total.
func (e *FormComputeEngine) OnLineItemChanged(s *models.FormSession, index int) error {
	if index < 0 || index >= len(s.Items) {
		return utils.ErrorItemIndexOutOfRange
	}
	e.RecomputeLineItem(&s.Items[index])
	e.recomputeFromSubtotal(s)
	return nil
}

// OnLineItemAdded appends a row and re-runs the cascade. Returns the new
// row's display index.
func (e *FormComputeEngine) OnLineItemAdded(s *models.FormSession) int {
	index := s.AddLineItem()
	e.recomputeFromSubtotal(s)
	return index
}

// OnLineItemRemoved deletes a row and re-runs the cascade over the surviving
// rows.
func (e *FormComputeEngine) OnLineItemRemoved(s *models.FormSession, index int) error {
	if err := s.RemoveLineItem(index); err != nil {
		return err
	}
	e.recomputeFromSubtotal(s)
	return nil
}

// OnJurisdictionChanged re-resolves the tax mode and re-runs the cascade from
// the tax step onward, using the existing subtotal. Rates of the previous
// mode are zeroed on every switch; switching back and forth never leaves both
// modes nonzero.
func (e *FormComputeEngine) OnJurisdictionChanged(s *models.FormSession, newBillingState string) error {
	if err := s.SetFieldValue(models.FieldBillingState, newBillingState); err != nil {
		return err
	}
	mode, rates := e.ResolveTaxMode(newBillingState)
	fin := s.Financials
	fin.TaxMode = mode
	fin.Rates = rates
	s.Financials = fin
	e.recomputeFromTaxes(s, fin.Subtotal)
	return nil
}

// OnOtherTaxChanged re-runs only the grand total.
func (e *FormComputeEngine) OnOtherTaxChanged(s *models.FormSession, raw string) error {
	if err := s.SetFieldValue(models.FieldOtherTaxAmount, raw); err != nil {
		return err
	}
	fin := s.Financials
	fin.OtherTaxAmount = utils.CoerceDecimal(raw)
	fin.TotalAmount = utils.CalculateGrandTotal(fin.Subtotal, fin.Amounts, fin.OtherTaxAmount)
	s.ApplyFinancials(fin)
	e.notify(s)
	return nil
}

// RecomputeAll re-derives everything from scratch: every row total, the
// subtotal, the mode from the current billing state, taxes and total. Used
// when a session is rehydrated from a saved draft.
func (e *FormComputeEngine) RecomputeAll(s *models.FormSession) {
	for i := range s.Items {
		e.RecomputeLineItem(&s.Items[i])
	}
	if billingState := s.FieldValue(models.FieldBillingState); billingState != "" {
		mode, rates := e.ResolveTaxMode(billingState)
		fin := s.Financials
		fin.TaxMode = mode
		fin.Rates = rates
		s.Financials = fin
	}
	e.recomputeFromSubtotal(s)
}

func (e *FormComputeEngine) recomputeFromSubtotal(s *models.FormSession) {
	e.recomputeFromTaxes(s, e.RecomputeSubtotal(s.Items))
}

func (e *FormComputeEngine) recomputeFromTaxes(s *models.FormSession, subtotal decimal.Decimal) {
	fin := s.Financials
	fin.Subtotal = subtotal
	fin.Amounts = utils.CalculateGstAmounts(subtotal, fin.Rates)
	fin.OtherTaxAmount = utils.CoerceDecimal(s.FieldValue(models.FieldOtherTaxAmount))
	fin.TotalAmount = utils.CalculateGrandTotal(subtotal, fin.Amounts, fin.OtherTaxAmount)
	s.ApplyFinancials(fin)
	e.notify(s)
}

func (e *FormComputeEngine) notify(s *models.FormSession) {
	if e.onRecompute != nil {
		e.onRecompute(s)
	}
}
