package workflow

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/models"
)

// SaveDraft persists the session's serialized shape. Saving again for the
// same session replaces its earlier draft.
func SaveDraft(ctx context.Context, s *models.FormSession) (*models.InvoiceDraft, error) {
	draft, err := models.NewInvoiceDraftFromSession(s)
	if err != nil {
		return nil, err
	}
	if err := models.CreateInvoiceDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// RehydrateSession rebuilds a live session from a saved draft and re-derives
// every computed value from scratch, so a stale draft can never resurrect
// inconsistent totals.
func RehydrateSession(draft *models.InvoiceDraft, reg *models.FormSchemaRegistry, engine *FormComputeEngine) (*models.FormSession, error) {
	s, err := models.NewFormSession(reg, time.Now())
	if err != nil {
		return nil, err
	}

	var values map[string]string
	if err := json.Unmarshal(draft.FieldValues, &values); err != nil {
		return nil, err
	}
	for name, value := range values {
		def, err := reg.Lookup(name)
		if err != nil || def.Readonly {
			// Unknown keys from older schema revisions and derived values are
			// skipped; derived values are recomputed below.
			continue
		}
		s.Values[name] = value
	}

	s.Items = s.Items[:0]
	for range draft.Items {
		s.AddLineItem()
	}
	for i, item := range draft.Items {
		s.Items[i].Description = item.Description
		s.Items[i].Quantity = item.Quantity
		s.Items[i].UnitPrice = item.UnitPrice
	}
	if len(s.Items) == 0 {
		s.AddLineItem()
	}

	engine.RecomputeAll(s)
	return s, nil
}
