package reports

import (
	"context"
	"fmt"
	"io"

	"bitbucket.org/mmdatafocus/invoicing_backend/models"
	"github.com/xuri/excelize/v2"
)

// ExportInvoiceDraftsExcel writes all saved drafts as an xlsx sheet.
func ExportInvoiceDraftsExcel(ctx context.Context, w io.Writer) error {
	drafts, err := models.ListInvoiceDrafts(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet("Sheet1"); err != nil {
		return err
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "InvoiceNumber")
	f.SetCellValue("Sheet1", "B1", "ClientName")
	f.SetCellValue("Sheet1", "C1", "BillingState")
	f.SetCellValue("Sheet1", "D1", "Status")
	f.SetCellValue("Sheet1", "E1", "Subtotal")
	f.SetCellValue("Sheet1", "F1", "CGSTAmount")
	f.SetCellValue("Sheet1", "G1", "SGSTAmount")
	f.SetCellValue("Sheet1", "H1", "IGSTAmount")
	f.SetCellValue("Sheet1", "I1", "OtherTaxAmount")
	f.SetCellValue("Sheet1", "J1", "TotalAmount")
	f.SetCellValue("Sheet1", "K1", "UpdatedAt")

	// Add data
	for i, d := range drafts {
		row := fmt.Sprint(i + 2)
		f.SetCellValue("Sheet1", "A"+row, d.InvoiceNumber)
		f.SetCellValue("Sheet1", "B"+row, d.ClientName)
		f.SetCellValue("Sheet1", "C"+row, d.BillingState)
		f.SetCellValue("Sheet1", "D"+row, d.Status)
		f.SetCellValue("Sheet1", "E"+row, d.Subtotal.InexactFloat64())
		f.SetCellValue("Sheet1", "F"+row, d.CgstAmount.InexactFloat64())
		f.SetCellValue("Sheet1", "G"+row, d.SgstAmount.InexactFloat64())
		f.SetCellValue("Sheet1", "H"+row, d.IgstAmount.InexactFloat64())
		f.SetCellValue("Sheet1", "I"+row, d.OtherTaxAmount.InexactFloat64())
		f.SetCellValue("Sheet1", "J"+row, d.TotalAmount.InexactFloat64())
		f.SetCellValue("Sheet1", "K"+row, d.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return f.Write(w)
}
