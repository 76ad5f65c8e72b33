package atlas

import (
	"bytes"
	"fmt"
	"strings"

	"travelatlas/internal/domain/models"

	"github.com/phpdave11/gofpdf"
)

// RenderPDF lays out f as an A4 document and returns it with a download filename.
func RenderPDF(f models.AtlasFile) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(f.Title), false)
	pdf.SetAuthor("The Travel Atlas", false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%s | page %d", tr(f.Title), pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 10, tr(safe(f.Title, "Untitled atlas")), "", "", false)
	if f.Destination != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.Cell(0, 7, tr(f.Destination))
		pdf.Ln(8)
	}
	if f.Summary != "" {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, tr(f.Summary), "", "", false)
		pdf.Ln(2)
	}
	if len(f.Tags) > 0 {
		pdf.SetFont("Helvetica", "", 9)
		pdf.Cell(0, 6, tr("#"+strings.Join(f.Tags, "  #")))
		pdf.Ln(8)
	}

	for _, s := range f.Sections {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.MultiCell(0, 8, tr(sectionTitle(s)), "", "", false)
		pdf.SetFont("Helvetica", "", 11)
		if body := PlainText(s.Body); body != "" {
			pdf.MultiCell(0, 6, tr(body), "", "", false)
		}
		if n := len(s.Images); n > 0 {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.Cell(0, 5, fmt.Sprintf("%d photo(s) in the online version", n))
			pdf.Ln(6)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render atlas pdf: %w", err)
	}
	slug := f.Slug
	if slug == "" {
		slug = Slugify(f.Title)
	}
	return buf.Bytes(), slug + ".pdf", nil
}

func sectionTitle(s models.AtlasSection) string {
	if strings.TrimSpace(s.Title) != "" {
		return s.Title
	}
	if s.DayNumber > 0 {
		return fmt.Sprintf("Day %d", s.DayNumber)
	}
	return "Notes"
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
