package commands

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema"
	"github.com/expandergen/pca9575gen/pkg/schema/rules"
)

// ValidateOptions configures the validate command.
type ValidateOptions struct {
	// Strict treats warnings as errors.
	Strict  bool
	JSON    bool
	Verbose bool
	// Disable lists rule ids to skip.
	Disable   []string
	ListRules bool
	Files     []string
}

// ValidationOutput is the validation result for one file.
type ValidationOutput struct {
	Valid        bool          `json:"valid"`
	Expanders    int           `json:"expanders"`
	Pins         int           `json:"pins"`
	Errors       []IssueOutput `json:"errors,omitempty"`
	Warnings     []IssueOutput `json:"warnings,omitempty"`
	FinalSkipped bool          `json:"final_skipped,omitempty"`

	unreadable bool
}

// IssueOutput is one validation issue.
type IssueOutput struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Subject string `json:"subject,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// RunValidate runs the validate command.
func RunValidate(args []string, stdout, stderr io.Writer) int {
	opts, err := parseValidateArgs(args, stderr)
	if err != nil {
		return exitCommandError
	}
	if opts.ListRules {
		printRules(stdout, rules.NewDefaultRegistry())
		return exitSuccess
	}
	if len(opts.Files) == 0 {
		fmt.Fprintln(stderr, "Error: no files specified")
		printValidateUsage(stderr)
		return exitCommandError
	}

	logger := newLogger(stderr, opts.Verbose)
	failed, unreadable := false, false
	results := make(map[string]*ValidationOutput)

	for _, file := range opts.Files {
		out := validateFile(file, opts)
		results[file] = out
		logger.Debug("validated", "file", file, "valid", out.Valid,
			"errors", len(out.Errors), "warnings", len(out.Warnings))
		if !out.Valid {
			failed = true
		}
		if out.unreadable {
			unreadable = true
		}
		if !opts.JSON {
			printValidationOutput(stdout, file, out, opts.Verbose)
		}
	}

	if opts.JSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Error: encoding results: %v\n", err)
			return exitCommandError
		}
		fmt.Fprintln(stdout, string(data))
	}

	if unreadable {
		return exitCommandError
	}
	if failed {
		return exitValidation
	}
	return exitSuccess
}

func validateFile(path string, opts ValidateOptions) *ValidationOutput {
	out := &ValidationOutput{Valid: true}

	doc, err := config.Load(path)
	if err != nil {
		out.Valid = false
		code := "PARSE"
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			code, out.unreadable = "IO", true
		}
		out.Errors = append(out.Errors, IssueOutput{Code: code, Message: err.Error()})
		return out
	}
	out.Expanders = len(doc.Expanders)
	out.Pins = len(doc.Pins)

	validator := rules.NewValidator()
	validator.Logger = nil
	result := validator.ValidateWithOptions(doc, schema.ValidateOptions{
		MinSeverity:   schema.SeverityWarning,
		DisabledRules: opts.Disable,
	})

	out.Valid = result.Valid
	out.FinalSkipped = result.FinalSkipped
	for _, e := range result.Errors {
		out.Errors = append(out.Errors, issue(e))
	}
	for _, w := range result.Warnings {
		out.Warnings = append(out.Warnings, issue(w))
	}
	if opts.Strict && len(out.Warnings) > 0 {
		out.Valid = false
	}
	return out
}

func issue(e schema.ValidationError) IssueOutput {
	return IssueOutput{Code: e.Code, Message: e.Message, Subject: e.Subject, Line: e.Line}
}

func printValidationOutput(w io.Writer, file string, out *ValidationOutput, verbose bool) {
	switch {
	case out.Valid && len(out.Warnings) == 0:
		fmt.Fprintf(w, "%s: OK (%d expanders, %d pins)\n", file, out.Expanders, out.Pins)
		return
	case out.Valid:
		fmt.Fprintf(w, "%s: OK (with %d warnings)\n", file, len(out.Warnings))
	default:
		fmt.Fprintf(w, "%s: FAILED (%d errors, %d warnings)\n", file, len(out.Errors), len(out.Warnings))
	}

	for _, e := range out.Errors {
		printIssueOutput(w, "ERROR", e)
	}
	if verbose || !out.Valid {
		for _, warn := range out.Warnings {
			printIssueOutput(w, "WARNING", warn)
		}
	}
	if out.FinalSkipped && verbose {
		fmt.Fprintln(w, "  (cross-record checks skipped until the errors above are fixed)")
	}
}

func printIssueOutput(w io.Writer, label string, e IssueOutput) {
	printIssue(w, label, schema.ValidationError{Code: e.Code, Message: e.Message, Subject: e.Subject, Line: e.Line})
}

func printRules(w io.Writer, registry *schema.RuleRegistry) {
	for _, rule := range registry.Rules(nil) {
		state := ""
		if !registry.IsEnabled(rule.ID()) {
			state = " (disabled)"
		}
		fmt.Fprintf(w, "%s  %-5s  %-7s  %s%s\n",
			rule.ID(), rule.Pass(), registry.Severity(rule.ID()), rule.Name(), state)
	}
}

func parseValidateArgs(args []string, stderr io.Writer) (ValidateOptions, error) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	opts := ValidateOptions{}

	fs.BoolVar(&opts.Strict, "strict", false, "Treat warnings as errors")
	fs.BoolVar(&opts.JSON, "json", false, "Output results as JSON")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Show all warnings")
	fs.BoolVar(&opts.Verbose, "v", false, "Show all warnings (shorthand)")
	fs.BoolVar(&opts.ListRules, "rules", false, "List validation rules and exit")
	disable := fs.String("disable", "", "Comma-separated rule ids to skip")

	if err := parseFlags(fs, args, stderr, printValidateUsage); err != nil {
		return opts, err
	}
	if *disable != "" {
		for _, id := range strings.Split(*disable, ",") {
			opts.Disable = append(opts.Disable, strings.ToUpper(strings.TrimSpace(id)))
		}
	}
	opts.Files = fs.Args()
	return opts, nil
}

func printValidateUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: pca9575gen validate [options] <files...>

Options:
  --strict       Treat warnings as errors
  --json         Output results as JSON
  -v, --verbose  Show all warnings
  --disable IDS  Skip rules, e.g. --disable CON-004,CON-005
  --rules        List validation rules and exit

Examples:
  pca9575gen validate node.yaml
  pca9575gen validate --strict --json *.yaml`)
}
