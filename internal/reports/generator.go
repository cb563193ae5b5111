package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/nutrihub/server/internal/nutrition"
)

// Generator renders day records as PDF or CSV.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateDayCSV renders item-level rows plus a totals row.
func (g *Generator) GenerateDayCSV(date string, rec nutrition.DayRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "meal", "item", "grams", "protein_g", "carb_g", "fat_g", "kcal"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, meal := range rec.Meals {
		for _, item := range meal.Items {
			row := []string{
				date,
				meal.Name,
				item.Name,
				formatGrams(item.Grams),
				formatMacro(item.ProteinG),
				formatMacro(item.CarbG),
				formatMacro(item.FatG),
				formatKcal(item.Kcal),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	totals := []string{
		date,
		"Total",
		"",
		"",
		formatMacro(rec.TotalProteinG),
		formatMacro(rec.TotalCarbG),
		formatMacro(rec.TotalFatG),
		formatKcal(rec.TotalKcal),
	}
	if err := w.Write(totals); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GenerateHistoryCSV renders one totals row per finalized day, newest first.
func (g *Generator) GenerateHistoryCSV(entries []HistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "protein_g", "carb_g", "fat_g", "kcal", "edits"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, e := range entries {
		row := []string{
			e.Date,
			formatMacro(e.Record.TotalProteinG),
			formatMacro(e.Record.TotalCarbG),
			formatMacro(e.Record.TotalFatG),
			formatKcal(e.Record.TotalKcal),
			strconv.Itoa(e.EditCount),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GenerateHistoryPDF renders a daily-totals table for the given days.
func (g *Generator) GenerateHistoryPDF(entries []HistoryEntry) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	fontName := loadReportFont(pdf)

	pdf.SetFont(fontName, "", 16)
	pdf.AddPage()

	pdf.Cell(0, 10, "Nutrition History")
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Days: %d", len(entries)))
	pdf.Ln(12)

	pdf.SetFont(fontName, "", 8)
	pdf.CellFormat(30, 6, "Date", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Protein", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Carbs", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Fat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Kcal", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Edits", "1", 1, "C", false, 0, "")

	for _, e := range entries {
		pdf.CellFormat(30, 6, e.Date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, formatMacro(e.Record.TotalProteinG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, formatMacro(e.Record.TotalCarbG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, formatMacro(e.Record.TotalFatG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, formatKcal(e.Record.TotalKcal), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, strconv.Itoa(e.EditCount), "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// GenerateDayPDF renders a one-page nutrition report.
func (g *Generator) GenerateDayPDF(date string, rec nutrition.DayRecord, editCount int) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	fontName := loadReportFont(pdf)

	pdf.SetFont(fontName, "", 16)
	pdf.AddPage()

	pdf.Cell(0, 10, "Nutrition Report")
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", date))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Edits: %d", editCount))
	pdf.Ln(12)

	pdf.SetFont(fontName, "", 14)
	pdf.Cell(0, 8, "Totals")
	pdf.Ln(8)

	pdf.SetFont(fontName, "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Protein: %.1f g", rec.TotalProteinG))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Carbs: %.1f g", rec.TotalCarbG))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fat: %.1f g", rec.TotalFatG))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Calories: %.0f kcal", rec.TotalKcal))
	pdf.Ln(12)

	for _, meal := range rec.Meals {
		pdf.SetFont(fontName, "", 12)
		pdf.Cell(0, 8, meal.Name)
		pdf.Ln(8)

		g.drawItemsTable(pdf, meal, fontName)
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *Generator) drawItemsTable(pdf *gofpdf.Fpdf, meal nutrition.Meal, fontName string) {
	pdf.SetFont(fontName, "", 8)

	pdf.CellFormat(60, 6, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, "Grams", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Protein", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Carbs", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Fat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Kcal", "1", 1, "C", false, 0, "")

	for _, item := range meal.Items {
		pdf.CellFormat(60, 6, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, formatGrams(item.Grams), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, formatMacro(item.ProteinG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, formatMacro(item.CarbG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, formatMacro(item.FatG), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, formatKcal(item.Kcal), "1", 1, "C", false, 0, "")
	}
}

// loadReportFont tries REPORTS_FONT_PATH (UTF-8 TTF), falls back to Arial.
func loadReportFont(pdf *gofpdf.Fpdf) (fontName string) {
	fontName = "Arial"

	fontPath := os.Getenv("REPORTS_FONT_PATH")
	if fontPath == "" {
		return fontName
	}
	if _, err := os.Stat(fontPath); err != nil {
		return fontName
	}

	defer func() {
		if r := recover(); r != nil {
			fontName = "Arial"
		}
	}()

	pdf.AddUTF8Font("ReportSans", "", fontPath)
	fontName = "ReportSans"
	return fontName
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func formatMacro(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatKcal(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
