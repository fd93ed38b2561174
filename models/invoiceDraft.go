package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceDraft is a persisted snapshot of a FormSession. FieldValues stores
// the serialized flat field map verbatim (schema field names as keys, no
// renaming); the money columns are denormalized for listing and export.
type InvoiceDraft struct {
	ID             int                `gorm:"primary_key" json:"id"`
	SessionId      string             `gorm:"size:64;index;not null" json:"session_id" binding:"required"`
	InvoiceNumber  string             `gorm:"size:255" json:"invoice_number"`
	ClientName     string             `gorm:"size:255" json:"client_name"`
	BillingState   string             `gorm:"size:100" json:"billing_state"`
	Status         string             `gorm:"size:50" json:"status"`
	FieldValues    json.RawMessage    `gorm:"type:json" json:"field_values"`
	Items          []InvoiceDraftItem `gorm:"foreignKey:InvoiceDraftId" json:"items"`
	Subtotal       decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	CgstAmount     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"cgst_amount"`
	SgstAmount     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"sgst_amount"`
	IgstAmount     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"igst_amount"`
	OtherTaxAmount decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"other_tax_amount"`
	TotalAmount    decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	CreatedAt      time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceDraftItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	InvoiceDraftId int             `gorm:"index;not null" json:"invoice_draft_id"`
	Position       int             `gorm:"not null" json:"position"`
	Description    string          `gorm:"size:255" json:"description"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unitPrice"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"totalPrice"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// NewInvoiceDraftFromSession snapshots a session into a draft row. Saving the
// same session again replaces its previous draft.
func NewInvoiceDraftFromSession(s *FormSession) (*InvoiceDraft, error) {
	fieldValues, err := json.Marshal(s.Values)
	if err != nil {
		return nil, err
	}
	draft := &InvoiceDraft{
		SessionId:      s.ID,
		InvoiceNumber:  s.FieldValue("invoice_number"),
		ClientName:     s.FieldValue("client_name"),
		BillingState:   s.FieldValue(FieldBillingState),
		Status:         s.FieldValue("status"),
		FieldValues:    fieldValues,
		Subtotal:       s.Financials.Subtotal,
		CgstAmount:     s.Financials.Amounts.CgstAmount,
		SgstAmount:     s.Financials.Amounts.SgstAmount,
		IgstAmount:     s.Financials.Amounts.IgstAmount,
		OtherTaxAmount: s.Financials.OtherTaxAmount,
		TotalAmount:    s.Financials.TotalAmount,
	}
	for i, item := range s.Items {
		draft.Items = append(draft.Items, InvoiceDraftItem{
			Position:    i,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return draft, nil
}

func CreateInvoiceDraft(ctx context.Context, draft *InvoiceDraft) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous InvoiceDraft
		err := tx.Where("session_id = ?", draft.SessionId).First(&previous).Error
		if err == nil {
			if err := tx.Where("invoice_draft_id = ?", previous.ID).Delete(&InvoiceDraftItem{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&previous).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(draft).Error
	})
}

func ListInvoiceDrafts(ctx context.Context) ([]InvoiceDraft, error) {
	db := config.GetDB()
	var drafts []InvoiceDraft
	err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("updated_at DESC").
		Find(&drafts).Error
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

func FetchInvoiceDraft(ctx context.Context, id int) (*InvoiceDraft, error) {
	db := config.GetDB()
	var draft InvoiceDraft
	err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&draft, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}
