package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/msklnkk/Electronic-corrector/checker"
	"github.com/msklnkk/Electronic-corrector/rules"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "db", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	return st
}

func sampleReport() *checker.DocumentCheckReport {
	return &checker.DocumentCheckReport{
		DocumentID:   "doc-1",
		TotalChecks:  2,
		PassedChecks: 1,
		FailedChecks: 1,
		Results: []checker.ValidationResult{
			{RuleID: "ok_rule", IsPassed: true, Message: "Соответствует"},
			{
				RuleID:     "bad_rule",
				Severity:   rules.SeverityCritical,
				IsPassed:   false,
				Message:    "Не соответствует",
				Suggestion: "Исправьте оформление",
			},
		},
		Timestamp: "2026-01-15T10:00:00Z",
	}
}

func TestDocumentLifecycle(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	doc, err := st.CreateDocument(ctx, "work.docx", "/data/work.docx")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Status != StatusUploaded {
		t.Errorf("status = %q, want %q", doc.Status, StatusUploaded)
	}

	got, err := st.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Filename != "work.docx" || got.Filepath != "/data/work.docx" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.Score != nil {
		t.Error("fresh document has a score")
	}

	score := 85.5
	if err := st.UpdateDocumentStatus(ctx, doc.ID, StatusNeedsRevision, &score); err != nil {
		t.Fatal(err)
	}
	got, err = st.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusNeedsRevision || got.Score == nil || *got.Score != 85.5 {
		t.Errorf("after update: %+v", got)
	}

	// Nil score keeps the stored value.
	if err := st.UpdateDocumentStatus(ctx, doc.ID, StatusCompliant, nil); err != nil {
		t.Fatal(err)
	}
	got, _ = st.GetDocument(ctx, doc.ID)
	if got.Score == nil || *got.Score != 85.5 {
		t.Errorf("score lost on nil update: %+v", got.Score)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	st := openStore(t)
	if _, err := st.GetDocument(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := st.UpdateDocumentStatus(context.Background(), "nope", StatusError, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("update err = %v, want ErrNotFound", err)
	}
}

func TestCheckLifecycle(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	doc, err := st.CreateDocument(ctx, "work.docx", "/data/work.docx")
	if err != nil {
		t.Fatal(err)
	}

	chk, err := st.CreateCheck(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if chk.Status != CheckPending {
		t.Errorf("status = %q, want pending", chk.Status)
	}

	if err := st.FinishCheck(ctx, chk.ID, sampleReport()); err != nil {
		t.Fatal(err)
	}

	got, err := st.GetCheck(ctx, chk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != CheckCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Score == nil || *got.Score != 50 {
		t.Errorf("score = %v, want 50", got.Score)
	}
	if got.IsCompliant == nil || *got.IsCompliant {
		t.Errorf("compliance = %v, want false", got.IsCompliant)
	}
	if got.CheckedAt == nil {
		t.Error("checked_at not set")
	}

	report, err := st.GetReport(ctx, chk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if report.TotalChecks != 2 || len(report.Results) != 2 {
		t.Errorf("report roundtrip: %+v", report)
	}
}

func TestFailCheck(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	doc, _ := st.CreateDocument(ctx, "work.docx", "/data/work.docx")
	chk, _ := st.CreateCheck(ctx, doc.ID)

	if err := st.FailCheck(ctx, chk.ID, "проверка прервана"); err != nil {
		t.Fatal(err)
	}
	got, err := st.GetCheck(ctx, chk.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != CheckFailed || got.Error != "проверка прервана" {
		t.Errorf("after fail: %+v", got)
	}

	// A failed check has no report.
	if _, err := st.GetReport(ctx, chk.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("report err = %v, want ErrNotFound", err)
	}
}

func TestGetCheckNotFound(t *testing.T) {
	st := openStore(t)
	if _, err := st.GetCheck(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := st.GetReport(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("report err = %v, want ErrNotFound", err)
	}
}

func TestSaveMistakesReplaces(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	doc, _ := st.CreateDocument(ctx, "work.docx", "/data/work.docx")

	if err := st.SaveMistakes(ctx, doc.ID, sampleReport().Results); err != nil {
		t.Fatal(err)
	}
	mistakes, err := st.ListMistakes(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	// Only the failed result is stored.
	if len(mistakes) != 1 {
		t.Fatalf("mistakes = %d, want 1", len(mistakes))
	}
	if mistakes[0].RuleID != "bad_rule" || mistakes[0].Suggestion != "Исправьте оформление" {
		t.Errorf("mistake = %+v", mistakes[0])
	}

	// A later save replaces instead of accumulating.
	if err := st.SaveMistakes(ctx, doc.ID, nil); err != nil {
		t.Fatal(err)
	}
	mistakes, _ = st.ListMistakes(ctx, doc.ID)
	if len(mistakes) != 0 {
		t.Errorf("mistakes after replace = %d, want 0", len(mistakes))
	}
}

func TestUsers(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	u, err := st.CreateUser(ctx, "admin", "$2a$10$hash")
	if err != nil {
		t.Fatal(err)
	}

	got, err := st.GetUserByLogin(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID || got.PasswordHash != "$2a$10$hash" {
		t.Errorf("user roundtrip: %+v", got)
	}

	if _, err := st.GetUserByLogin(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	// Logins are unique.
	if _, err := st.CreateUser(ctx, "admin", "other"); err == nil {
		t.Error("expected error for duplicate login")
	}
}
