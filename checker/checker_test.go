package checker

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/msklnkk/Electronic-corrector/rules"
)

const fixtureXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Курсовая работа студента университета</w:t></w:r></w:p>
<w:p><w:r><w:t>СОДЕРЖАНИЕ</w:t></w:r></w:p>
<w:p><w:r><w:t>ВВЕДЕНИЕ</w:t></w:r></w:p>
<w:p>
<w:pPr><w:spacing w:line="360" w:lineRule="auto"/><w:ind w:firstLine="709"/></w:pPr>
<w:r><w:rPr><w:rFonts w:ascii="Times New Roman"/><w:sz w:val="28"/></w:rPr>
<w:t>Цель работы определена, задачи сформулированы.</w:t></w:r>
</w:p>
<w:p><w:r><w:t>1. Основной раздел</w:t></w:r></w:p>
<w:p><w:r><w:t>ЗАКЛЮЧЕНИЕ</w:t></w:r></w:p>
<w:p><w:r><w:t>СПИСОК ЛИТЕРАТУРЫ</w:t></w:r></w:p>
<w:sectPr><w:pgMar w:top="1134" w:bottom="1134" w:left="1701" w:right="850"/></w:sectPr>
</w:body>
</w:document>`

func fixtureDocx(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "work.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	fw, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(fixtureXML))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

func newChecker(t *testing.T) *Checker {
	t.Helper()
	cat, err := rules.Default()
	if err != nil {
		t.Fatal(err)
	}
	return New(cat, Config{})
}

func TestCheckReportInvariants(t *testing.T) {
	chk := newChecker(t)
	path := fixtureDocx(t)

	report := chk.Check(context.Background(), path, "doc-1", "work.docx")

	if report.TotalChecks != chk.Catalogue().Len() {
		t.Errorf("total = %d, want one result per rule (%d)",
			report.TotalChecks, chk.Catalogue().Len())
	}
	if report.TotalChecks != report.PassedChecks+report.FailedChecks {
		t.Errorf("total %d != passed %d + failed %d",
			report.TotalChecks, report.PassedChecks, report.FailedChecks)
	}
	if report.CriticalIssues+report.WarningIssues > report.FailedChecks {
		t.Errorf("critical %d + warning %d exceeds failed %d",
			report.CriticalIssues, report.WarningIssues, report.FailedChecks)
	}
	if len(report.Results) != report.TotalChecks {
		t.Errorf("results = %d, total = %d", len(report.Results), report.TotalChecks)
	}
	if report.DocumentID != "doc-1" || report.Filename != "work.docx" {
		t.Errorf("identity: %q %q", report.DocumentID, report.Filename)
	}
	if report.Timestamp == "" {
		t.Error("timestamp is empty")
	}

	if report.IsCompliant() != (report.FailedChecks == 0) {
		t.Error("compliance verdict disagrees with failed count")
	}
	if s := report.Score(); s < 0 || s > 100 {
		t.Errorf("score = %v, out of [0, 100]", s)
	}
	for _, res := range report.FailedResults() {
		if res.IsPassed {
			t.Error("FailedResults returned a passed result")
		}
	}
}

func TestCheckDeterministic(t *testing.T) {
	chk := newChecker(t)
	path := fixtureDocx(t)

	first := chk.Check(context.Background(), path, "doc-1", "work.docx")
	second := chk.Check(context.Background(), path, "doc-1", "work.docx")

	first.Timestamp, second.Timestamp = "", ""
	if !reflect.DeepEqual(first, second) {
		t.Error("two checks of the same bytes produced different reports")
	}
}

func TestCheckExtractionFailure(t *testing.T) {
	chk := newChecker(t)

	report := chk.Check(context.Background(),
		filepath.Join(t.TempDir(), "missing.docx"), "doc-err", "missing.docx")

	if report.TotalChecks != 1 || report.FailedChecks != 1 {
		t.Fatalf("report counts: total=%d failed=%d, want 1/1",
			report.TotalChecks, report.FailedChecks)
	}
	if report.IsCompliant() {
		t.Error("unreadable document reported as compliant")
	}

	res := report.Results[0]
	if res.RuleID != "system_error" {
		t.Errorf("rule id = %q, want system_error", res.RuleID)
	}
	if res.Severity != rules.SeverityCritical {
		t.Errorf("severity = %q, want critical", res.Severity)
	}
	if report.CriticalIssues != 1 {
		t.Errorf("critical issues = %d, want 1", report.CriticalIssues)
	}
}

func TestCheckCorruptArchive(t *testing.T) {
	chk := newChecker(t)
	path := filepath.Join(t.TempDir(), "broken.docx")
	if err := os.WriteFile(path, []byte("garbage, not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	report := chk.Check(context.Background(), path, "", "broken.docx")
	if report.TotalChecks != 1 || report.Results[0].RuleID != "system_error" {
		t.Fatalf("expected a single system_error result, got %+v", report.Results)
	}
	if report.DocumentID == "" {
		t.Error("empty document id was not defaulted")
	}
}

func TestCheckFixturePassesFormattingRules(t *testing.T) {
	chk := newChecker(t)
	report := chk.Check(context.Background(), fixtureDocx(t), "doc-1", "work.docx")

	byID := make(map[string]ValidationResult)
	for _, res := range report.Results {
		byID[res.RuleID] = res
	}

	if res, ok := byID["6.1.1_font"]; !ok || !res.IsPassed {
		t.Errorf("font rule: %+v", res)
	}
	if res, ok := byID["6.1.1_margins"]; !ok || !res.IsPassed {
		t.Errorf("margins rule: %+v", res)
	}
	if res, ok := byID["6.1.2_paragraph"]; !ok || !res.IsPassed {
		t.Errorf("indent rule: %+v", res)
	}
	if res, ok := byID["5.1_required_elements"]; !ok || !res.IsPassed {
		t.Errorf("required elements rule: %+v", res)
	}
}
