// Package render draws certificate PDFs.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	DateLayout = "January 2, 2006"
	Brand      = "Sparkfish"
)

// Document holds everything printed on a certificate.
type Document struct {
	RecipientName string
	ProgramTitle  string
	TrackTitle    string
	IssuedAt      time.Time
	Code          string
}

// Renderer draws the fixed A4 landscape layout.
type Renderer struct {
	baseURL string
}

func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/")}
}

// VerifyURL is the public page printed on the certificate.
func (r *Renderer) VerifyURL(code string) string {
	return r.baseURL + "/certificate/verify/" + code
}

type rgb struct{ r, g, b int }

var (
	background = rgb{0xF8, 0xFA, 0xFC}
	border     = rgb{0x3B, 0x82, 0xF6}
	ink        = rgb{0x0F, 0x17, 0x2A}
	muted      = rgb{0x64, 0x74, 0x8B}
	accent     = rgb{0x3B, 0x82, 0xF6}
	program    = rgb{0x1E, 0x29, 0x3B}
	track      = rgb{0x47, 0x55, 0x69}
	footer     = rgb{0x94, 0xA3, 0xB8}
)

func (r *Renderer) Render(doc Document) ([]byte, error) {
	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetTitle("Certificate of Completion", true)
	pdf.SetAuthor(Brand, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, height := pdf.GetPageSize()

	pdf.SetFillColor(background.r, background.g, background.b)
	pdf.Rect(0, 0, width, height, "F")
	pdf.SetDrawColor(border.r, border.g, border.b)
	pdf.Rect(20, 20, width-40, height-40, "D")

	centered := func(y float64, style string, size float64, c rgb, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(c.r, c.g, c.b)
		pdf.SetXY(0, y)
		pdf.CellFormat(width, size*1.2, tr(text), "", 0, "C", false, 0, "")
	}

	centered(120, "B", 40, ink, "Certificate of Completion")
	centered(180, "", 16, muted, "This verifies that")
	centered(220, "B", 36, accent, doc.RecipientName)
	centered(280, "", 16, muted, "has successfully completed the requirements for the")
	centered(310, "B", 24, program, doc.ProgramTitle)
	if doc.TrackTitle != "" {
		centered(350, "I", 18, track, doc.TrackTitle+" Track")
	}
	centered(height-120, "B", 24, ink, Brand)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(footer.r, footer.g, footer.b)
	pdf.SetXY(60, height-80)
	pdf.CellFormat(0, 14, "Date Issued: "+doc.IssuedAt.Format(DateLayout), "", 0, "L", false, 0, "")
	pdf.SetXY(width-350, height-80)
	pdf.CellFormat(0, 14, "Verify at: "+r.VerifyURL(doc.Code), "", 0, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
