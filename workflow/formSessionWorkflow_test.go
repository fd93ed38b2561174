package workflow

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
)

const testHomeState = "Uttar Pradesh"

func newTestEngine() *FormComputeEngine {
	return NewFormComputeEngine(testHomeState, decimal.NewFromInt(9), decimal.NewFromInt(18))
}

func newTestSession(t *testing.T) *models.FormSession {
	t.Helper()
	s, err := models.NewFormSession(models.InvoiceFormRegistry(), time.Now())
	if err != nil {
		t.Fatalf("NewFormSession error: %v", err)
	}
	return s
}

func requireAmount(t *testing.T, label string, got decimal.Decimal, expected string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(expected)) {
		t.Fatalf("%s: expected %s, got %s", label, expected, got.String())
	}
}

func TestCascade_IntraState(t *testing.T) {
	engine := newTestEngine()
	s := newTestSession(t)

	if err := s.SetLineItem(0, "Widget", "2", "250.00"); err != nil {
		t.Fatalf("SetLineItem error: %v", err)
	}
	if err := engine.OnLineItemChanged(s, 0); err != nil {
		t.Fatalf("OnLineItemChanged error: %v", err)
	}
	if err := engine.OnJurisdictionChanged(s, testHomeState); err != nil {
		t.Fatalf("OnJurisdictionChanged error: %v", err)
	}

	fin := s.Financials
	requireAmount(t, "item total", s.Items[0].TotalPrice, "500.00")
	requireAmount(t, "subtotal", fin.Subtotal, "500.00")
	if fin.TaxMode != utils.TaxModeIntraState {
		t.Fatalf("expected intra-state mode, got %s", fin.TaxMode)
	}
	requireAmount(t, "cgst amount", fin.Amounts.CgstAmount, "45.00")
	requireAmount(t, "sgst amount", fin.Amounts.SgstAmount, "45.00")
	requireAmount(t, "igst amount", fin.Amounts.IgstAmount, "0")
	requireAmount(t, "total", fin.TotalAmount, "590.00")

	// Derived values are mirrored into the field map for rendering.
	if got := s.FieldValue(models.FieldCgstAmount); got != "45.00" {
		t.Fatalf("mirrored cgst_amount expected 45.00, got %q", got)
	}
	if got := s.FieldValue(models.FieldTotalAmount); got != "590.00" {
		t.Fatalf("mirrored total_amount expected 590.00, got %q", got)
	}
}

func TestJurisdictionSwitch_ModesStayExclusive(t *testing.T) {
	engine := newTestEngine()
	s := newTestSession(t)

	if err := s.SetLineItem(0, "Widget", "2", "250.00"); err != nil {
		t.Fatalf("SetLineItem error: %v", err)
	}
	if err := engine.OnLineItemChanged(s, 0); err != nil {
		t.Fatalf("OnLineItemChanged error: %v", err)
	}

	steps := []struct {
		state string
		mode  utils.TaxMode
		cgst  string
		sgst  string
		igst  string
	}{
		{testHomeState, utils.TaxModeIntraState, "45.00", "45.00", "0"},
		{"Maharashtra", utils.TaxModeInterState, "0", "0", "90.00"},
		{testHomeState, utils.TaxModeIntraState, "45.00", "45.00", "0"},
	}
	for _, step := range steps {
		if err := engine.OnJurisdictionChanged(s, step.state); err != nil {
			t.Fatalf("OnJurisdictionChanged(%s) error: %v", step.state, err)
		}
		fin := s.Financials
		if fin.TaxMode != step.mode {
			t.Fatalf("state %s: expected mode %s, got %s", step.state, step.mode, fin.TaxMode)
		}
		requireAmount(t, step.state+" cgst", fin.Amounts.CgstAmount, step.cgst)
		requireAmount(t, step.state+" sgst", fin.Amounts.SgstAmount, step.sgst)
		requireAmount(t, step.state+" igst", fin.Amounts.IgstAmount, step.igst)
		requireAmount(t, step.state+" total", fin.TotalAmount, "590.00")

		split := fin.Amounts.CgstAmount.Add(fin.Amounts.SgstAmount)
		if !split.IsZero() && !fin.Amounts.IgstAmount.IsZero() {
			t.Fatalf("state %s: both tax modes carry amounts", step.state)
		}
	}
}

func TestRemovalCascade(t *testing.T) {
	engine := newTestEngine()
	s := newTestSession(t)

	if err := s.SetLineItem(0, "Consulting", "1", "100.00"); err != nil {
		t.Fatalf("SetLineItem error: %v", err)
	}
	engine.OnLineItemAdded(s)
	if err := s.SetLineItem(1, "Support", "2", "50.00"); err != nil {
		t.Fatalf("SetLineItem error: %v", err)
	}
	if err := engine.OnLineItemChanged(s, 0); err != nil {
		t.Fatalf("OnLineItemChanged error: %v", err)
	}
	if err := engine.OnLineItemChanged(s, 1); err != nil {
		t.Fatalf("OnLineItemChanged error: %v", err)
	}
	requireAmount(t, "subtotal before removal", s.Financials.Subtotal, "200.00")

	if err := engine.OnLineItemRemoved(s, 1); err != nil {
		t.Fatalf("OnLineItemRemoved error: %v", err)
	}
	requireAmount(t, "subtotal after removal", s.Financials.Subtotal, "100.00")
	requireAmount(t, "total after removal", s.Financials.TotalAmount, "100.00")

	if err := engine.OnLineItemRemoved(s, 7); !errors.Is(err, utils.ErrorItemIndexOutOfRange) {
		t.Fatalf("expected ErrorItemIndexOutOfRange, got %v", err)
	}
}

func TestRounding_HalfUpAndSumOfRoundedRows(t *testing.T) {
	engine := newTestEngine()
	s := newTestSession(t)

	// 3 * 19.995 = 59.985, rounded half up per row.
	if err := s.SetLineItem(0, "Cable", "3", "19.995"); err != nil {
		t.Fatalf("SetLineItem error: %v", err)
	}
	if err := engine.OnLineItemChanged(s, 0); err != nil {
		t.Fatalf("OnLineItemChanged error: %v", err)
	}
	requireAmount(t, "row total", s.Items[0].TotalPrice, "59.99")

	// Each row rounds before summation: 10.01 + 10.01, not round(20.01).
	engine.OnLineItemAdded(s)
	if err := s.SetLineItem(0, "A", "1", "10.005"); err != nil {
		t.Fatalf("SetLineItem error: %v", err)
	}
	if err := s.SetLineItem(1, "B", "1", "10.005"); err != nil {
		t.Fatalf("SetLineItem error: %v", err)
	}
	if err := engine.OnLineItemChanged(s, 0); err != nil {
		t.Fatalf("OnLineItemChanged error: %v", err)
	}
	if err := engine.OnLineItemChanged(s, 1); err != nil {
		t.Fatalf("OnLineItemChanged error: %v", err)
	}
	requireAmount(t, "subtotal", s.Financials.Subtotal, "20.02")
}

func TestOnOtherTaxChanged_RecomputesTotalOnly(t *testing.T) {
	engine := newTestEngine()
	s := newTestSession(t)

	if err := s.SetLineItem(0, "Widget", "2", "250.00"); err != nil {
		t.Fatalf("SetLineItem error: %v", err)
	}
	if err := engine.OnLineItemChanged(s, 0); err != nil {
		t.Fatalf("OnLineItemChanged error: %v", err)
	}
	if err := engine.OnJurisdictionChanged(s, testHomeState); err != nil {
		t.Fatalf("OnJurisdictionChanged error: %v", err)
	}
	before := s.Financials

	if err := engine.OnOtherTaxChanged(s, "10.50"); err != nil {
		t.Fatalf("OnOtherTaxChanged error: %v", err)
	}
	fin := s.Financials
	requireAmount(t, "other tax", fin.OtherTaxAmount, "10.50")
	requireAmount(t, "total", fin.TotalAmount, "600.50")
	if !fin.Subtotal.Equal(before.Subtotal) || !fin.Amounts.CgstAmount.Equal(before.Amounts.CgstAmount) {
		t.Fatal("other tax change must not touch subtotal or GST amounts")
	}

	// Readonly and invalid inputs reject before any recomputation.
	if err := engine.OnOtherTaxChanged(s, "-5"); err == nil {
		t.Fatal("expected rejection of negative other tax")
	}
	requireAmount(t, "total unchanged", s.Financials.TotalAmount, "600.50")
}

func TestRecomputeListener_FiresPerCascade(t *testing.T) {
	engine := newTestEngine()
	s := newTestSession(t)

	var fired int
	engine.SetRecomputeListener(func(got *models.FormSession) {
		fired++
		if got != s {
			t.Fatal("listener handed a different session")
		}
	})

	if err := s.SetLineItem(0, "Widget", "2", "250.00"); err != nil {
		t.Fatalf("SetLineItem error: %v", err)
	}
	if err := engine.OnLineItemChanged(s, 0); err != nil {
		t.Fatalf("OnLineItemChanged error: %v", err)
	}
	if err := engine.OnJurisdictionChanged(s, "Maharashtra"); err != nil {
		t.Fatalf("OnJurisdictionChanged error: %v", err)
	}
	if err := engine.OnOtherTaxChanged(s, "5"); err != nil {
		t.Fatalf("OnOtherTaxChanged error: %v", err)
	}
	if fired != 3 {
		t.Fatalf("listener expected 3 cascades, got %d", fired)
	}
}

func TestRehydrateSession_RecomputesFromScratch(t *testing.T) {
	engine := newTestEngine()

	// Stale derived values in the stored field map must be discarded on
	// rehydration, never trusted.
	fieldValues, err := json.Marshal(map[string]string{
		"client_name":            "Acme Traders",
		models.FieldBillingState: "Maharashtra",
		models.FieldSubtotal:     "999999.00",
		models.FieldTotalAmount:  "999999.00",
		"legacy_field":           "ignored",
	})
	if err != nil {
		t.Fatalf("marshal field values: %v", err)
	}
	draft := &models.InvoiceDraft{
		SessionId:   "draft-session",
		FieldValues: fieldValues,
		Items: []models.InvoiceDraftItem{
			{Position: 0, Description: "Widget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("250.00")},
		},
	}

	s, err := RehydrateSession(draft, models.InvoiceFormRegistry(), engine)
	if err != nil {
		t.Fatalf("RehydrateSession error: %v", err)
	}

	if got := s.FieldValue("client_name"); got != "Acme Traders" {
		t.Fatalf("client_name expected Acme Traders, got %q", got)
	}
	if got := s.FieldValue("legacy_field"); got != "" {
		t.Fatalf("unknown stored key must be dropped, got %q", got)
	}
	fin := s.Financials
	if fin.TaxMode != utils.TaxModeInterState {
		t.Fatalf("expected inter-state mode, got %s", fin.TaxMode)
	}
	requireAmount(t, "subtotal", fin.Subtotal, "500.00")
	requireAmount(t, "igst amount", fin.Amounts.IgstAmount, "90.00")
	requireAmount(t, "total", fin.TotalAmount, "590.00")
}

func TestRehydrateSession_EmptyDraftKeepsStarterItem(t *testing.T) {
	engine := newTestEngine()
	draft := &models.InvoiceDraft{
		SessionId:   "empty-session",
		FieldValues: json.RawMessage(`{}`),
	}
	s, err := RehydrateSession(draft, models.InvoiceFormRegistry(), engine)
	if err != nil {
		t.Fatalf("RehydrateSession error: %v", err)
	}
	if len(s.Items) != 1 {
		t.Fatalf("expected one starter item, got %d", len(s.Items))
	}
	requireAmount(t, "subtotal", s.Financials.Subtotal, "0")
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	s, err := store.Create(models.InvoiceFormRegistry())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	err = store.With(s.ID, func(got *models.FormSession) error {
		if got != s {
			t.Fatal("With handed a different session")
		}
		return got.SetFieldValue("client_name", "Acme Traders")
	})
	if err != nil {
		t.Fatalf("With error: %v", err)
	}
	if got := s.FieldValue("client_name"); got != "Acme Traders" {
		t.Fatalf("mutation inside With did not stick, got %q", got)
	}

	if err := store.With("missing", func(*models.FormSession) error { return nil }); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected ErrorRecordNotFound, got %v", err)
	}

	store.Delete(s.ID)
	store.Delete(s.ID)
	if err := store.With(s.ID, func(*models.FormSession) error { return nil }); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("deleted session should be gone, got %v", err)
	}

	adopted := newTestSession(t)
	store.Adopt(adopted)
	if err := store.With(adopted.ID, func(*models.FormSession) error { return nil }); err != nil {
		t.Fatalf("adopted session not reachable: %v", err)
	}
}
