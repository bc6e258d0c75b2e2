package export

import (
	"bytes"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf"
	"gonum.org/v1/gonum/floats"

	budget "github.com/ucdavis/iwfm-sub003/internal/budget/domain"
)

// BuildPDF renders a summary page per zone with whole-period component totals.
func BuildPDF(descriptor string, tables []budget.ZoneReportTable) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	if len(tables) == 0 {
		pdf.AddPage()
		pdf.Cell(0, 8, descriptor)
		pdf.Ln(10)
		pdf.Cell(0, 6, "No zones reported")
	}

	for _, t := range tables {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, descriptor)
		pdf.Ln(10)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, t.Titles[0])
		pdf.Ln(5)
		pdf.Cell(0, 6, t.Titles[1])
		pdf.Ln(5)
		if t.Rows() > 0 {
			pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s (%d steps)", t.Time[0], t.Time[t.Rows()-1], t.Rows()))
			pdf.Ln(8)
		}

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(70, 6, "Component", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, "IN (+)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, "OUT (-)", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for i, c := range t.Components {
			pdf.CellFormat(70, 6, c, "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, formatTotal(t.Columns[2*i]), "1", 0, "R", false, 0, "")
			pdf.CellFormat(50, 6, formatTotal(t.Columns[2*i+1]), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(70, 6, budget.DiscrepancyHeader, "1", 0, "L", false, 0, "")
		pdf.CellFormat(100, 6, formatTotal(t.Columns[len(t.Columns)-1]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		if len(t.AbsoluteStorage) > 0 {
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(70, 6, "Absolute Storage (final)", "1", 0, "L", false, 0, "")
			pdf.CellFormat(100, 6, humanize.FormatFloat("#,###.##", t.AbsoluteStorage[len(t.AbsoluteStorage)-1]), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatTotal(series []float64) string {
	return humanize.FormatFloat("#,###.##", floats.Sum(series))
}
