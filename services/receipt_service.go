package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/wiproedx/synergeticsopenedx/model"
)

// ReceiptService renders order receipts as PDF.
type ReceiptService struct {
	platformName string
	currency     string
	supportEmail string
}

// NewReceiptService creates a receipt renderer.
func NewReceiptService(platformName, currency, supportEmail string) *ReceiptService {
	return &ReceiptService{
		platformName: platformName,
		currency:     strings.ToUpper(currency),
		supportEmail: supportEmail,
	}
}

// Render produces a one-page receipt for a settled order.
func (r *ReceiptService) Render(order *model.ProgramOrder) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	issued := time.Now().UTC()
	if order.PurchaseTime != nil {
		issued = order.PurchaseTime.UTC()
	}
	pdf.SetTitle(fmt.Sprintf("Receipt %d", order.ID), true)
	pdf.SetCreator(r.platformName, true)
	pdf.SetCreationDate(issued)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(r.platformName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Receipt for order #%d", order.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+issued.Format("January 02, 2006"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if name := strings.TrimSpace(order.Billing.First + " " + order.Billing.Last); name != "" {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 6, "Billed to", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range billingLines(order.Billing) {
			pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	widths := []float64{90, 30, 30, 40}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Description", "List price", "Discount", "Total (" + r.currency + ")"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	title := order.ItemName
	if title == "" {
		title = order.Program.Name
	}
	row := []string{
		title,
		order.ItemPrice.StringFixed(2),
		order.Discount().StringFixed(2),
		order.ExpectedCharge().StringFixed(2),
	}
	for i, cell := range row {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, tr(cell), "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(150, 7, "Payment received", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, order.ExpectedCharge().StringFixed(2), "", 1, "R", false, 0, "")
	if order.Status == model.OrderStatusRefunded {
		pdf.CellFormat(150, 7, "Refunded", "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, order.ExpectedCharge().Neg().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, tr("Questions about this receipt? Contact "+r.supportEmail+"."), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %d: %w", order.ID, err)
	}
	return buf.Bytes(), nil
}

func billingLines(b model.BillingAddress) []string {
	lines := []string{strings.TrimSpace(b.First + " " + b.Last)}
	for _, l := range []string{b.Street1, b.Street2} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(b.City, b.State, b.PostalCode), ", "))
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	if b.Country != "" {
		lines = append(lines, b.Country)
	}
	return lines
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
