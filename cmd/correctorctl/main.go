// correctorctl runs document compliance checks from the command line,
// without the HTTP service or the database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/msklnkk/Electronic-corrector/checker"
	"github.com/msklnkk/Electronic-corrector/docfeat"
	"github.com/msklnkk/Electronic-corrector/rules"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

type checkFlags struct {
	rulesPath string
	asJSON    bool
	timeout   time.Duration
}

func main() {
	root := &cobra.Command{
		Use:     "correctorctl",
		Short:   "Check academic documents against formatting requirements",
		Version: version,
	}

	var flags checkFlags
	checkCmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Run a compliance check over a DOCX or PDF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args[0], flags)
		},
	}
	f := checkCmd.Flags()
	f.StringVar(&flags.rulesPath, "rules", "", "Path to a YAML rule catalogue (default: built-in)")
	f.BoolVar(&flags.asJSON, "json", false, "Print the full report as JSON")
	f.DurationVar(&flags.timeout, "timeout", 2*time.Minute, "Check timeout")

	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rules of the catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(flags.rulesPath)
		},
	}
	rulesCmd.Flags().StringVar(&flags.rulesPath, "rules", "", "Path to a YAML rule catalogue (default: built-in)")

	root.AddCommand(checkCmd, rulesCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadCatalogue(path string) (*rules.Catalogue, error) {
	if path != "" {
		return rules.Load(path)
	}
	return rules.Default()
}

func runCheck(path string, flags checkFlags) error {
	catalogue, err := loadCatalogue(flags.rulesPath)
	if err != nil {
		return err
	}

	chk := checker.New(catalogue, checker.Config{
		Extractor: docfeat.Config{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	report := chk.Check(ctx, path, "", path)

	if flags.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printSummary(report)
	return nil
}

func printSummary(report *checker.DocumentCheckReport) {
	verdict := "отправлена на доработку"
	if report.IsCompliant() {
		verdict = "соответствует требованиям"
	}
	fmt.Printf("Документ: %s\n", report.Filename)
	fmt.Printf("Итог: работа %s\n", verdict)
	fmt.Printf("Проверок: %d, пройдено: %d, не пройдено: %d (оценка %.0f%%)\n",
		report.TotalChecks, report.PassedChecks, report.FailedChecks, report.Score())
	fmt.Printf("Критических ошибок: %d, предупреждений: %d\n\n",
		report.CriticalIssues, report.WarningIssues)

	for _, res := range report.Results {
		mark := "OK"
		if !res.IsPassed {
			mark = string(res.Severity)
		}
		fmt.Printf("[%s] %s: %s\n", mark, res.RuleID, res.Title)
		fmt.Printf("      %s\n", res.Message)
		if !res.IsPassed && res.Suggestion != "" {
			fmt.Printf("      Рекомендация: %s\n", res.Suggestion)
		}
	}
}

func runRules(path string) error {
	catalogue, err := loadCatalogue(path)
	if err != nil {
		return err
	}
	fmt.Printf("Правил в каталоге: %d\n\n", catalogue.Len())
	for _, r := range catalogue.All() {
		fmt.Printf("%-24s %-11s %-8s %s\n", r.ID, r.Type, r.Severity, r.Title)
	}
	return nil
}
