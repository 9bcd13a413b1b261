package reportpdf

import (
	"bytes"
	"testing"

	"github.com/msklnkk/Electronic-corrector/checker"
	"github.com/msklnkk/Electronic-corrector/rules"
)

func sampleReport() *checker.DocumentCheckReport {
	return &checker.DocumentCheckReport{
		DocumentID:     "doc-1",
		Filename:       "work.docx",
		TotalChecks:    3,
		PassedChecks:   2,
		FailedChecks:   1,
		CriticalIssues: 1,
		Results: []checker.ValidationResult{
			{RuleID: "a", Title: "Шрифт", IsPassed: true, Message: "Соответствует требованию"},
			{RuleID: "b", Title: "Поля", IsPassed: true, Message: "Соответствует требованию"},
			{
				RuleID: "c", Title: "Структура", IsPassed: false,
				Severity:   rules.SeverityCritical,
				Message:    "Отсутствуют элементы: заключение",
				Suggestion: "Добавьте недостающие элементы",
			},
		},
		Timestamp: "2026-01-15T10:00:00Z",
	}
}

func TestRender(t *testing.T) {
	data, err := New(Config{}).Render(sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
	if len(data) < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", len(data))
	}
}

func TestRenderEmptyReport(t *testing.T) {
	data, err := New(Config{}).Render(&checker.DocumentCheckReport{DocumentID: "doc-2"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
}

func TestSeverityMark(t *testing.T) {
	tests := []struct {
		sev  rules.Severity
		want string
	}{
		{rules.SeverityCritical, "[!!]"},
		{rules.SeverityWarning, "[!]"},
		{rules.SeverityInfo, "[i]"},
	}
	for _, tt := range tests {
		if got := severityMark(tt.sev); got != tt.want {
			t.Errorf("severityMark(%s) = %q, want %q", tt.sev, got, tt.want)
		}
	}
}
