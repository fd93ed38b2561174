package reports

import (
	"io"

	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceDraftPdf renders a saved draft as a simple A4 invoice PDF.
func GenerateInvoiceDraftPdf(draft *models.InvoiceDraft, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Invoice "+draft.InvoiceNumber, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	writeKV(pdf, "Client", draft.ClientName)
	writeKV(pdf, "Billing State", draft.BillingState)
	writeKV(pdf, "Status", draft.Status)
	pdf.Ln(4)

	// Items table
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, item := range draft.Items {
		pdf.CellFormat(90, 8, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, item.TotalPrice.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	writeAmount(pdf, "Subtotal", draft.Subtotal)
	writeAmount(pdf, "CGST", draft.CgstAmount)
	writeAmount(pdf, "SGST", draft.SgstAmount)
	writeAmount(pdf, "IGST", draft.IgstAmount)
	writeAmount(pdf, "Other Tax", draft.OtherTaxAmount)

	pdf.SetFont("Arial", "B", 12)
	writeAmount(pdf, "Total Amount", draft.TotalAmount)

	return pdf.Output(w)
}

func writeKV(pdf *gofpdf.Fpdf, label string, value string) {
	pdf.CellFormat(40, 7, label+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func writeAmount(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.CellFormat(155, 7, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, amount.StringFixed(2), "", 1, "R", false, 0, "")
}
