// Package reportpdf renders a compliance report as a downloadable PDF.
package reportpdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/msklnkk/Electronic-corrector/checker"
	"github.com/msklnkk/Electronic-corrector/rules"
)

// Config configures rendering.
type Config struct {
	// FontPath points to a UTF-8 TTF font used for Cyrillic text. When
	// empty, the built-in Helvetica is used with a CP1251 translator,
	// which requires a reader font that carries Cyrillic glyphs.
	FontPath string
}

// Renderer produces PDF bytes from reports.
type Renderer struct {
	cfg Config
}

// New creates a Renderer.
func New(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render lays the report out on A4 pages and returns the PDF bytes.
func (r *Renderer) Render(report *checker.DocumentCheckReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")

	family := "Helvetica"
	write := func(s string) string { return s }
	if r.cfg.FontPath != "" {
		family = "report"
		pdf.AddUTF8Font(family, "", r.cfg.FontPath)
		pdf.AddUTF8Font(family, "B", r.cfg.FontPath)
	} else {
		tr := pdf.UnicodeTranslatorFromDescriptor("cp1251")
		write = tr
	}

	pdf.AddPage()

	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, write("Отчет о проверке документа"), "", 1, "L", false, 0, "")

	pdf.SetFont(family, "", 11)
	pdf.CellFormat(0, 6, write(fmt.Sprintf("Документ: %s", report.DocumentID)), "", 1, "L", false, 0, "")
	if report.Filename != "" {
		pdf.CellFormat(0, 6, write(fmt.Sprintf("Файл: %s", report.Filename)), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, write(fmt.Sprintf("Дата проверки: %s", report.Timestamp)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	verdict := "отправлена на доработку"
	if report.IsCompliant() {
		verdict = "соответствует требованиям"
	}
	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(0, 8, write(fmt.Sprintf("Итог: работа %s", verdict)), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(0, 6, write(fmt.Sprintf(
		"Проверок: %d, пройдено: %d, не пройдено: %d (оценка %.0f%%)",
		report.TotalChecks, report.PassedChecks, report.FailedChecks, report.Score())),
		"", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, write(fmt.Sprintf(
		"Критических ошибок: %d, предупреждений: %d",
		report.CriticalIssues, report.WarningIssues)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(0, 8, write("Результаты по правилам"), "", 1, "L", false, 0, "")

	for _, res := range report.Results {
		mark := "[OK]"
		if !res.IsPassed {
			mark = severityMark(res.Severity)
		}
		pdf.SetFont(family, "B", 10)
		pdf.MultiCell(0, 5, write(fmt.Sprintf("%s %s", mark, res.Title)), "", "L", false)
		pdf.SetFont(family, "", 10)
		pdf.MultiCell(0, 5, write(res.Message), "", "L", false)
		if res.Suggestion != "" {
			pdf.MultiCell(0, 5, write(fmt.Sprintf("Рекомендация: %s", res.Suggestion)), "", "L", false)
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func severityMark(s rules.Severity) string {
	switch s {
	case rules.SeverityCritical:
		return "[!!]"
	case rules.SeverityWarning:
		return "[!]"
	default:
		return "[i]"
	}
}
