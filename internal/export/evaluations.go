// Package export renders study data as downloadable files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/scout-webhook/internal/db"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the evaluation matrix.
const SheetName = "Evaluations"

// Columns are the header cells, in order.
var Columns = []string{
	"Technology", "Provider", "TRL", "Cost", "Scalability", "Context fit",
	"Innovation", "Overall", "Strengths", "Weaknesses", "Opportunities",
	"Threats", "Recommendation", "Evaluated at",
}

// WriteEvaluationMatrix writes one row per evaluated shortlist technology as
// an XLSX workbook.
func WriteEvaluationMatrix(w io.Writer, evals []db.Evaluation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return fmt.Errorf("failed to resolve header range: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, e := range evals {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to resolve row %d: %w", i+2, err)
		}
		row := []any{
			e.TechnologyName,
			deref(e.Provider),
			score(e.TRLScore),
			score(e.CostScore),
			score(e.ScalabilityScore),
			score(e.ContextFitScore),
			score(e.InnovationScore),
			score(e.OverallScore),
			strings.Join(e.Strengths, "\n"),
			strings.Join(e.Weaknesses, "\n"),
			strings.Join(e.Opportunities, "\n"),
			strings.Join(e.Threats, "\n"),
			deref(e.Recommendation),
			e.EvaluatedAt.UTC().Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// score leaves missing scores as empty cells.
func score(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
