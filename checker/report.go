package checker

import "github.com/msklnkk/Electronic-corrector/rules"

// ValidationResult is the verdict of one rule applied to one document.
type ValidationResult struct {
	RuleID     string         `json:"rule_id"`
	Section    string         `json:"section"`
	Title      string         `json:"title"`
	Severity   rules.Severity `json:"severity"`
	IsPassed   bool           `json:"is_passed"`
	Message    string         `json:"message"`
	Expected   any            `json:"expected_value"`
	Actual     any            `json:"actual_value"`
	Details    map[string]any `json:"details,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// DocumentCheckReport is the terminal artifact of one document check.
// The engine hands it to the caller for persistence; it holds no
// references back into the engine.
type DocumentCheckReport struct {
	DocumentID     string             `json:"document_id"`
	TotalChecks    int                `json:"total_checks"`
	PassedChecks   int                `json:"passed_checks"`
	FailedChecks   int                `json:"failed_checks"`
	CriticalIssues int                `json:"critical_issues"`
	WarningIssues  int                `json:"warning_issues"`
	Results        []ValidationResult `json:"results"`
	Timestamp      string             `json:"timestamp"`
	Filename       string             `json:"filename,omitempty"`
}

// IsCompliant reports whether the document passed every check.
func (r *DocumentCheckReport) IsCompliant() bool {
	return r.FailedChecks == 0
}

// Score is the percentage of passed checks.
func (r *DocumentCheckReport) Score() float64 {
	total := r.TotalChecks
	if total < 1 {
		total = 1
	}
	return float64(r.PassedChecks) / float64(total) * 100
}

// FailedResults returns only the failed checks.
func (r *DocumentCheckReport) FailedResults() []ValidationResult {
	var out []ValidationResult
	for _, res := range r.Results {
		if !res.IsPassed {
			out = append(out, res)
		}
	}
	return out
}
