package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// The PDF core fonts have no rupee glyph.
const pdfCurrency = "Rs. "

func pdfAmount(n int) string {
	if n < 0 {
		return "-" + pdfCurrency + GroupINR(-n)
	}
	return pdfCurrency + GroupINR(n)
}

// cp1252Extras are the cp1252 characters outside Latin-1.
const cp1252Extras = "€‚ƒ„…†‡ˆ‰Š‹ŒŽ‘’“”•–—˜™š›œžŸ"

// cp1252 reports whether every rune of s has a glyph in the core fonts.
func cp1252(s string) bool {
	for _, r := range s {
		if r < 0x80 || (r >= 0xA0 && r <= 0xFF) || strings.ContainsRune(cp1252Extras, r) {
			continue
		}
		return false
	}
	return true
}

// NeedsUnicodeFont reports whether d has text the built-in PDF fonts cannot
// draw. Without Branding.PDFFont such characters print as "?".
func NeedsUnicodeFont(d *Document) bool {
	texts := []string{
		d.Branding.Hospital, d.Branding.Department, d.Branding.Title,
		d.Branding.Signature, d.Branding.Footer,
		d.Patient.Name, d.Patient.Age, d.Patient.Sex, d.Patient.Date,
	}
	texts = append(texts, d.Doctors...)
	for _, it := range d.Items {
		texts = append(texts, it.Name, it.Variant)
	}
	for _, t := range texts {
		if !cp1252(t) {
			return true
		}
	}
	return false
}

// WritePDF renders the document as a single A4 page (more if the test list
// overflows). Text is set in the core Helvetica font, which covers cp1252
// only, unless Branding.PDFFont names a TrueType file to embed.
func WritePDF(w io.Writer, d *Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle(d.Branding.Hospital+" "+d.Branding.Title, false)
	pdf.SetCreator(d.Branding.Department, false)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if d.Branding.PDFFont != "" {
		family = "body"
		pdf.AddUTF8Font(family, "", d.Branding.PDFFont)
		pdf.AddUTF8Font(family, "B", d.Branding.PDFFont)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("load pdf font %s: %w", d.Branding.PDFFont, err)
		}
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	// Header
	pdf.SetFont(family, "B", 22)
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(0, 11, tr(d.Branding.Hospital), "", 1, "C", false, 0, "")
	pdf.SetTextColor(90, 90, 90)
	pdf.SetFont(family, "", 14)
	pdf.CellFormat(0, 8, tr(d.Branding.Department), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(0, 6, tr(d.Branding.Title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	// Patient information
	section(pdf, family, tr, "Patient Information")
	pdf.SetFillColor(241, 245, 249)
	colW := contentW / 4
	labels := []string{"Name", "Age", "Sex", "Date"}
	values := []string{d.Patient.Name, d.Patient.Age, d.Patient.Sex, d.Patient.Date}
	pdf.SetFont(family, "", 9)
	pdf.SetTextColor(100, 100, 100)
	for _, l := range labels {
		pdf.CellFormat(colW, 6, l, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(family, "B", 11)
	pdf.SetTextColor(0, 0, 0)
	for _, v := range values {
		pdf.CellFormat(colW, 8, tr(v), "", 0, "L", true, 0, "")
	}
	pdf.Ln(12)

	// Referring doctors
	section(pdf, family, tr, "Referring Doctor(s)")
	pdf.SetFont(family, "", 11)
	for _, doc := range d.Doctors {
		pdf.CellFormat(6, 6, tr("•"), "", 0, "L", false, 0, "")
		pdf.MultiCell(contentW-6, 6, tr(doc), "", "L", false)
	}
	pdf.Ln(6)

	// Tests
	section(pdf, family, tr, "Diagnostic Tests")
	amountW := 40.0
	for _, it := range d.Items {
		pdf.SetFont(family, "B", 11)
		label := it.Name
		if it.Variant != "" {
			label += " (" + it.Variant + ")"
		}
		pdf.CellFormat(contentW-amountW, 9, tr(label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(amountW, 9, pdfAmount(it.Amount), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	// Total
	pdf.SetFillColor(219, 234, 254)
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(contentW-60, 12, "Total Amount:", "", 0, "L", true, 0, "")
	pdf.SetTextColor(30, 64, 175)
	pdf.CellFormat(60, 12, pdfAmount(d.Total), "", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	// Signature
	pdf.Ln(22)
	sigW := 55.0
	x := pageW - right - sigW
	y := pdf.GetY()
	pdf.Line(x, y, x+sigW, y)
	pdf.SetX(x)
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(sigW, 6, tr(d.Branding.Signature), "", 1, "C", false, 0, "")
	pdf.SetX(x)
	pdf.SetFont(family, "", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(sigW, 5, tr(d.Branding.Hospital), "", 1, "C", false, 0, "")

	// Footer
	pdf.Ln(10)
	pdf.SetFont(family, "", 9)
	pdf.CellFormat(0, 6, tr(d.Branding.Footer), "T", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func section(pdf *gofpdf.Fpdf, family string, tr func(string) string, title string) {
	pdf.SetFont(family, "B", 13)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(1)
}
