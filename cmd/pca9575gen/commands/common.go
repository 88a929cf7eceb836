// Package commands implements the pca9575gen CLI commands.
package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/expandergen/pca9575gen/pkg/codegen"
	"github.com/expandergen/pca9575gen/pkg/config"
	"github.com/expandergen/pca9575gen/pkg/schema"
	"github.com/expandergen/pca9575gen/pkg/schema/rules"
	"github.com/expandergen/pca9575gen/pkg/trace"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitValidation   = 2
)

// errRejected marks a configuration that parsed but failed validation.
var errRejected = errors.New("configuration rejected")

// newLogger returns the operational logger. Verbose enables debug output.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// build is the outcome of running a configuration file through the
// pipeline. Fields are filled in as far as the pipeline got.
type build struct {
	Doc      *config.Document
	Result   *schema.ValidationResult
	Resolved *config.Resolved
	Program  *codegen.Program
}

// runPipeline parses, validates and emits one configuration file. Parse
// failures and rejected configurations are both returned as errors; a
// rejection wraps errRejected and leaves Result set.
func runPipeline(path string, logger *slog.Logger, run *trace.Run) (*build, error) {
	b := &build{}

	doc, err := config.Load(path)
	if err != nil {
		run.Error(trace.StageParse, err, "loading "+path)
		return b, err
	}
	b.Doc = doc
	run.Info(trace.StageParse, "", fmt.Sprintf("parsed %d expanders, %d pins", len(doc.Expanders), len(doc.Pins)))

	v := rules.NewValidator()
	v.Logger = logger
	v.Trace = run
	resolved, result, err := v.Check(doc)
	b.Result = result
	if err != nil {
		if !result.Valid {
			return b, fmt.Errorf("%w: %d errors", errRejected, len(result.Errors))
		}
		return b, err
	}
	b.Resolved = resolved

	em := codegen.NewEmitter(nil)
	em.Logger = logger
	em.Trace = run
	prog, err := em.Emit(resolved)
	if err != nil {
		return b, err
	}
	b.Program = prog
	return b, nil
}

// exitCodeFor maps a runPipeline failure to an exit code. Files that cannot
// be read are command errors; documents that do not parse or do not
// validate are rejections.
func exitCodeFor(b *build, err error) int {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, errRejected):
		return exitValidation
	case errors.As(err, &pathErr):
		return exitCommandError
	case b.Doc == nil:
		return exitValidation
	}
	return exitCommandError
}

// printIssues writes validation errors, and warnings when verbose, to w.
func printIssues(w io.Writer, result *schema.ValidationResult, verbose bool) {
	if result == nil {
		return
	}
	for _, e := range result.Errors {
		printIssue(w, "ERROR", e)
	}
	if verbose {
		for _, warn := range result.Warnings {
			printIssue(w, "WARNING", warn)
		}
	}
}

func printIssue(w io.Writer, label string, e schema.ValidationError) {
	subject := ""
	if e.Subject != "" {
		subject = " (" + e.Subject + ")"
	}
	if e.Line > 0 {
		fmt.Fprintf(w, "  %s [line %d] %s: %s%s\n", label, e.Line, e.Code, e.Message, subject)
	} else {
		fmt.Fprintf(w, "  %s %s: %s%s\n", label, e.Code, e.Message, subject)
	}
}

// parseFlags parses args with fs, silencing the flag package's own output.
func parseFlags(fs *flag.FlagSet, args []string, stderr io.Writer, usage func(io.Writer)) error {
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	if err := fs.Parse(args); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		usage(stderr)
		return err
	}
	return nil
}
