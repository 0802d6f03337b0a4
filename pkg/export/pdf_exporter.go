package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders week sheets into a printable grid, one column per
// weekday.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderWeek creates a landscape A4 document with the week laid out as
// day columns.
func (e *PDFExporter) RenderWeek(sheet WeekSheet) ([]byte, error) {
	if len(sheet.Days) == 0 {
		return nil, fmt.Errorf("pdf requires at least one day column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, sheet.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := 277.0 / float64(len(sheet.Days))

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for _, day := range sheet.Days {
		pdf.CellFormat(colWidth, 8, day.Name, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	rows := 0
	for _, day := range sheet.Days {
		if len(day.Entries) > rows {
			rows = len(day.Entries)
		}
	}

	for row := 0; row < rows; row++ {
		for _, day := range sheet.Days {
			if row >= len(day.Entries) {
				pdf.CellFormat(colWidth, 14, "", "1", 0, "", false, 0, "")
				continue
			}
			entry := day.Entries[row]
			x, y := pdf.GetXY()
			pdf.SetFont("Arial", "B", 8)
			pdf.MultiCell(colWidth, 4.5, fmt.Sprintf("%s %s", entry.Time, entry.Title), "LTR", "L", false)
			pdf.SetFont("Arial", "", 7)
			pdf.SetX(x)
			pdf.MultiCell(colWidth, 4.5, entryFooter(entry), "LBR", "L", false)
			pdf.SetXY(x+colWidth, y)
		}
		pdf.Ln(14)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func entryFooter(entry Entry) string {
	footer := entry.Teacher
	if entry.Class != "" {
		footer = entry.Class + " / " + footer
	}
	if entry.Room != "" {
		footer += " @ " + entry.Room
	}
	return footer
}
