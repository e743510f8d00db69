// Package invoice renders booking invoices as PDF documents.
package invoice

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"rentrush-backend/internal/domain"
)

const ContentType = "application/pdf"

// Issuer is the company block printed in the invoice header.
type Issuer struct {
	Name     string
	Address  string
	Email    string
	Currency string
}

type Renderer struct {
	issuer Issuer
}

func NewRenderer(issuer Issuer) *Renderer {
	if issuer.Name == "" {
		issuer.Name = "RentRush"
	}
	if issuer.Currency == "" {
		issuer.Currency = "Rs."
	}
	return &Renderer{issuer: issuer}
}

// Render writes the invoice for snap as a single A4 page.
func (r *Renderer) Render(w io.Writer, snap domain.InvoiceSnapshot) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", snap.BookingID), true)
	pdf.SetCreator(r.issuer.Name, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(74, 144, 226)
	pdf.Rect(0, 0, 210, 35, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(15, 12)
	pdf.Cell(110, 12, tr(r.issuer.Name+" Invoice"))

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(125, 10)
	pdf.CellFormat(70, 5, "#"+snap.BookingID.String(), "", 2, "R", false, 0, "")
	pdf.CellFormat(70, 5, "Invoice Date: "+snap.IssuedAt.Format("January 2, 2006"), "", 2, "R", false, 0, "")
	pdf.CellFormat(70, 5, "Due Date: "+snap.IssuedAt.Add(24*time.Hour).Format("January 2, 2006"), "", 2, "R", false, 0, "")

	// Parties
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(15, 50)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(95, 7, "Billed To:")
	pdf.Cell(95, 7, "From:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	billed := []string{snap.RenterName, snap.RenterEmail, snap.RenterPhone}
	from := []string{r.issuer.Name, r.issuer.Email, r.issuer.Address, snap.ShowroomName}
	for i := 0; i < len(billed) || i < len(from); i++ {
		pdf.SetX(15)
		pdf.Cell(95, 5, tr(at(billed, i)))
		pdf.Cell(95, 5, tr(at(from, i)))
		pdf.Ln(5)
	}

	// Line items
	pdf.Ln(8)
	pdf.SetX(15)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for _, col := range columns {
		pdf.CellFormat(col.width, 8, col.title, "TB", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(15)
	car := fmt.Sprintf("%s %s %d", snap.CarBrand, snap.CarModel, snap.CarYear)
	if snap.CarColor != "" {
		car += " (" + snap.CarColor + ")"
	}
	period := fmt.Sprintf("%s - %s",
		snap.Window.Start.Format("2006-01-02 15:04"),
		snap.Window.End.Format("2006-01-02 15:04"))
	row := []string{
		tr(car),
		period,
		fmt.Sprintf("%d", snap.Days),
		r.money(snap.DailyRate),
		r.money(snap.Total),
	}
	for i, col := range columns {
		pdf.CellFormat(col.width, 8, row[i], "B", 0, col.align, false, 0, "")
	}
	pdf.Ln(-1)

	// Total
	pdf.Ln(4)
	pdf.SetX(15)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(145, 8, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, r.money(snap.Total), "", 1, "R", false, 0, "")

	// Footer
	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, tr("Thank you for choosing "+r.issuer.Name+"!"), "T", 1, "C", false, 0, "")

	return pdf.Output(w)
}

func (r *Renderer) money(amount int64) string {
	return fmt.Sprintf("%d.00 %s", amount, r.issuer.Currency)
}

type column struct {
	title string
	width float64
	align string
}

var columns = []column{
	{"Description", 55, "L"},
	{"Period", 60, "L"},
	{"Days", 15, "C"},
	{"Daily Rent", 25, "R"},
	{"Amount", 25, "R"},
}

func at(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
