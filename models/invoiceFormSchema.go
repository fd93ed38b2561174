package models

import (
	"sync"

	"bitbucket.org/mmdatafocus/invoicing_backend/utils"
	"github.com/shopspring/decimal"
)

// Canonical group names of the invoice form.
const (
	GroupCompanyInfo     = "company-info"
	GroupInvoiceDetails  = "invoice-details"
	GroupClientInfo      = "client-info"
	GroupFinancial       = "financial"
	GroupBanking         = "banking"
	GroupAdditionalNotes = "additional-notes"
)

// Field names referenced by the computation engine and the HTTP layer.
const (
	FieldBillingState   = "billing_state"
	FieldSubtotal       = "subtotal"
	FieldCgstRate       = "cgst_rate"
	FieldCgstAmount     = "cgst_amount"
	FieldSgstRate       = "sgst_rate"
	FieldSgstAmount     = "sgst_amount"
	FieldIgstRate       = "igst_rate"
	FieldIgstAmount     = "igst_amount"
	FieldOtherTaxAmount = "tax_amount"
	FieldTotalAmount    = "total_amount"

	ItemFieldDescription = "description"
	ItemFieldQuantity    = "quantity"
	ItemFieldUnitPrice   = "unit_price"
	ItemFieldTotalPrice  = "total_price"
)

var (
	invoiceRegistry     *FormSchemaRegistry
	invoiceRegistryOnce sync.Once
)

// InvoiceFormRegistry returns the process-wide invoice form schema. The
// schema is configuration data; a malformed definition panics on first use.
func InvoiceFormRegistry() *FormSchemaRegistry {
	invoiceRegistryOnce.Do(func() {
		reg, err := NewFormSchemaRegistry(invoiceFieldGroups(), lineItemFields())
		utils.ErrorPanic(err)
		invoiceRegistry = reg
	})
	return invoiceRegistry
}

func invoiceFieldGroups() []FieldGroup {
	return []FieldGroup{
		{
			Name:  GroupCompanyInfo,
			Label: "Company Information",
			Fields: []FieldDefinition{
				{Name: "company_name", Label: "Company Name", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "Your Company Name"},
				{Name: "company_address", Label: "Company Address", ValueType: FieldValueTypeLongText, Required: true, Placeholder: "Your Company Address"},
				{Name: "company_phone", Label: "Company Phone", ValueType: FieldValueTypePhone, Required: true, Placeholder: "+91 98765 43210"},
				{Name: "company_email", Label: "Company Email", ValueType: FieldValueTypeEmail, Required: true, Placeholder: "info@company.com"},
				{Name: "company_gstin", Label: "Company GSTIN", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "Your GST Number"},
				{Name: "company_pan", Label: "Company PAN", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "Your PAN Number"},
				{Name: "company_city", Label: "Company City", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "Your City"},
			},
		},
		{
			Name:  GroupInvoiceDetails,
			Label: "Invoice Details",
			Fields: []FieldDefinition{
				{Name: "invoice_number", Label: "Invoice Number", ValueType: FieldValueTypeShortText, Readonly: true, Placeholder: "Auto-generated"},
				{Name: "invoice_date", Label: "Invoice Date", ValueType: FieldValueTypeDate, Required: true, DefaultValue: "today"},
				{Name: "due_date", Label: "Due Date", ValueType: FieldValueTypeDate, Required: true, DefaultValue: "today+30-days"},
				{Name: "status", Label: "Status", ValueType: FieldValueTypeSingleSelect, Required: true, Options: []string{"Pending", "Paid", "Overdue", "Cancelled"}, DefaultValue: "Pending"},
			},
		},
		{
			Name:  GroupClientInfo,
			Label: "Client Information",
			Fields: []FieldDefinition{
				{Name: "client_name", Label: "Client Name", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "Client or Company Name"},
				{Name: "client_email", Label: "Client Email", ValueType: FieldValueTypeEmail, Required: true, Placeholder: "client@email.com"},
				{Name: "client_phone", Label: "Client Phone", ValueType: FieldValueTypePhone, Required: true, Placeholder: "+91 98765 43210"},
				{Name: "client_address", Label: "Client Address", ValueType: FieldValueTypeLongText, Placeholder: "Client Address"},
				{Name: "billing_company_name", Label: "Billing Company", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "Billing Company Name"},
				{Name: "billing_address", Label: "Billing Address", ValueType: FieldValueTypeLongText, Required: true, Placeholder: "Complete Billing Address"},
				{Name: "billing_city", Label: "Billing City", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "City"},
				{Name: FieldBillingState, Label: "Billing State", ValueType: FieldValueTypeSingleSelect, Required: true, Options: IndianStates()},
				{Name: "billing_pincode", Label: "PIN Code", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "123456"},
				{Name: "gstin_number", Label: "Client GSTIN", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "Client GST Number"},
				{Name: "pan_number", Label: "Client PAN", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "Client PAN Number"},
			},
		},
		{
			Name:  GroupFinancial,
			Label: "Financial Details",
			Fields: []FieldDefinition{
				{Name: FieldSubtotal, Label: "Subtotal", ValueType: FieldValueTypeNumber, Readonly: true, Min: decPtr("0"), Step: "0.01"},
				{Name: FieldCgstRate, Label: "CGST Rate (%)", ValueType: FieldValueTypeNumber, Readonly: true, Min: decPtr("0"), Max: decPtr("100"), Step: "0.01", DefaultValue: "0"},
				{Name: FieldCgstAmount, Label: "CGST Amount", ValueType: FieldValueTypeNumber, Readonly: true, Min: decPtr("0"), Step: "0.01"},
				{Name: FieldSgstRate, Label: "SGST Rate (%)", ValueType: FieldValueTypeNumber, Readonly: true, Min: decPtr("0"), Max: decPtr("100"), Step: "0.01", DefaultValue: "0"},
				{Name: FieldSgstAmount, Label: "SGST Amount", ValueType: FieldValueTypeNumber, Readonly: true, Min: decPtr("0"), Step: "0.01"},
				{Name: FieldIgstRate, Label: "IGST Rate (%)", ValueType: FieldValueTypeNumber, Readonly: true, Min: decPtr("0"), Max: decPtr("100"), Step: "0.01", DefaultValue: "0"},
				{Name: FieldIgstAmount, Label: "IGST Amount", ValueType: FieldValueTypeNumber, Readonly: true, Min: decPtr("0"), Step: "0.01"},
				{Name: FieldOtherTaxAmount, Label: "Other Tax Amount", ValueType: FieldValueTypeNumber, Min: decPtr("0"), Step: "0.01", DefaultValue: "0"},
				{Name: FieldTotalAmount, Label: "Total Amount", ValueType: FieldValueTypeNumber, Readonly: true, Min: decPtr("0"), Step: "0.01"},
				{Name: "received_amount", Label: "Received Amount", ValueType: FieldValueTypeNumber, Min: decPtr("0"), Step: "0.01", DefaultValue: "0"},
			},
		},
		{
			Name:  GroupBanking,
			Label: "Bank Details",
			Fields: []FieldDefinition{
				{Name: "bank_name", Label: "Bank Name", ValueType: FieldValueTypeShortText, Placeholder: "Bank Name"},
				{Name: "account_number", Label: "Account Number", ValueType: FieldValueTypeShortText, Placeholder: "Account Number"},
				{Name: "ifsc_code", Label: "IFSC Code", ValueType: FieldValueTypeShortText, Placeholder: "IFSC Code"},
				{Name: "upi_id", Label: "UPI ID", ValueType: FieldValueTypeShortText, Placeholder: "yourname@upi"},
				{Name: "bank_account_name", Label: "Account Holder Name", ValueType: FieldValueTypeShortText, Placeholder: "Account Holder Name"},
			},
		},
		{
			Name:  GroupAdditionalNotes,
			Label: "Additional Information",
			Fields: []FieldDefinition{
				{Name: "notes", Label: "Notes", ValueType: FieldValueTypeLongText, Placeholder: "Any additional notes or comments"},
				{Name: "terms_conditions", Label: "Terms & Conditions", ValueType: FieldValueTypeLongText, Placeholder: "Terms and conditions"},
				{Name: "payment_terms", Label: "Payment Terms", ValueType: FieldValueTypeShortText, Placeholder: "Payment within 30 days"},
			},
		},
	}
}

func lineItemFields() []FieldDefinition {
	return []FieldDefinition{
		{Name: ItemFieldDescription, Label: "Description", ValueType: FieldValueTypeShortText, Required: true, Placeholder: "Item description"},
		{Name: ItemFieldQuantity, Label: "Quantity", ValueType: FieldValueTypeNumber, Required: true, Min: decPtr("0"), Step: "1", DefaultValue: "1"},
		{Name: ItemFieldUnitPrice, Label: "Unit Price", ValueType: FieldValueTypeNumber, Required: true, Min: decPtr("0"), Step: "0.01"},
		{Name: ItemFieldTotalPrice, Label: "Total", ValueType: FieldValueTypeNumber, Readonly: true},
	}
}

func decPtr(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	utils.ErrorPanic(err)
	return &d
}
