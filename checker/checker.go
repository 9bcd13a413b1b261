// Package checker evaluates extracted document features against the GOST
// rule catalogue and assembles compliance reports.
//
// The report builder has an availability-over-precision contract: Check
// never fails for a caller-supplied document. Extraction errors and
// panics from malformed input are converted into a critical "system
// error" result so the caller always receives an actionable report.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/msklnkk/Electronic-corrector/docfeat"
	"github.com/msklnkk/Electronic-corrector/rules"
)

// Config configures a Checker.
type Config struct {
	// Extractor configures document feature extraction.
	Extractor docfeat.Config

	// Logger for check progress and failures.
	Logger *slog.Logger
}

// Checker runs the full extraction → evaluation → aggregation pipeline
// for one document per Check call. It is safe for concurrent use: the
// catalogue is read-only and every check owns its own feature set.
type Checker struct {
	catalogue *rules.Catalogue
	extractor *docfeat.Extractor
	logger    *slog.Logger
}

// New creates a Checker over an already-loaded rule catalogue.
func New(catalogue *rules.Catalogue, cfg Config) *Checker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Extractor.Logger = cfg.Logger
	return &Checker{
		catalogue: catalogue,
		extractor: docfeat.New(cfg.Extractor),
		logger:    cfg.Logger,
	}
}

// Catalogue returns the rule catalogue the checker evaluates against.
func (c *Checker) Catalogue() *rules.Catalogue { return c.catalogue }

// Check extracts features from the file and evaluates every catalogue
// rule against them. It always returns a report; per-document failures
// surface as a critical result inside it.
func (c *Checker) Check(ctx context.Context, path, documentID, filename string) *DocumentCheckReport {
	started := time.Now()
	c.logger.Info("starting document check", "document_id", documentID, "path", path)

	var results []ValidationResult

	features, err := c.safeExtract(ctx, path)
	if err != nil {
		c.logger.Error("extraction failed", "document_id", documentID, "error", err)
		results = append(results, systemErrorResult(err))
	} else {
		results = c.safeEvaluate(features)
	}

	var passed, critical, warning int
	for _, r := range results {
		if r.IsPassed {
			passed++
			continue
		}
		switch r.Severity {
		case rules.SeverityCritical:
			critical++
		case rules.SeverityWarning:
			warning++
		}
	}

	if documentID == "" {
		documentID = "doc_" + started.UTC().Format("20060102_150405")
	}

	report := &DocumentCheckReport{
		DocumentID:     documentID,
		TotalChecks:    len(results),
		PassedChecks:   passed,
		FailedChecks:   len(results) - passed,
		CriticalIssues: critical,
		WarningIssues:  warning,
		Results:        results,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Filename:       filename,
	}

	c.logger.Info("document check finished",
		"document_id", documentID,
		"total", report.TotalChecks,
		"passed", report.PassedChecks,
		"failed", report.FailedChecks,
		"compliant", report.IsCompliant(),
		"duration", time.Since(started))

	return report
}

// safeExtract shields the pipeline from panics inside format parsers;
// malformed binary input must degrade into a report, not a crash.
func (c *Checker) safeExtract(ctx context.Context, path string) (features *docfeat.DocumentFeatures, err error) {
	defer func() {
		if r := recover(); r != nil {
			features = nil
			err = fmt.Errorf("panic during extraction: %v", r)
		}
	}()
	return c.extractor.Extract(ctx, path)
}

// safeEvaluate runs every rule grouped by type. A panic in any evaluator
// keeps the results gathered so far and appends a system error.
func (c *Checker) safeEvaluate(features *docfeat.DocumentFeatures) (results []ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			results = append(results, systemErrorResult(fmt.Errorf("panic during evaluation: %v", r)))
		}
	}()
	for _, t := range rules.Types() {
		for _, rule := range c.catalogue.ByType(t) {
			results = append(results, Evaluate(rule, features))
		}
	}
	return results
}

func systemErrorResult(err error) ValidationResult {
	return ValidationResult{
		RuleID:     "system_error",
		Section:    "system",
		Title:      "Ошибка проверки",
		Severity:   rules.SeverityCritical,
		IsPassed:   false,
		Message:    fmt.Sprintf("Системная ошибка при проверке: %v", err),
		Details:    map[string]any{"error": err.Error()},
		Suggestion: "Обратитесь к администратору системы",
	}
}
