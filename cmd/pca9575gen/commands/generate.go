package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/expandergen/pca9575gen/pkg/render"
	"github.com/expandergen/pca9575gen/pkg/trace"
	"github.com/expandergen/pca9575gen/pkg/version"
)

// GenerateOptions configures the generate command.
type GenerateOptions struct {
	Target    string
	Output    string
	TraceFile string
	GoPackage string
	Verbose   bool
	File      string
}

// RunGenerate runs the generate command.
func RunGenerate(args []string, stdout, stderr io.Writer) int {
	opts, err := parseGenerateArgs(args, stderr)
	if err != nil {
		return exitCommandError
	}
	if opts.File == "" {
		fmt.Fprintln(stderr, "Error: configuration file required")
		printGenerateUsage(stderr)
		return exitCommandError
	}

	renderer, err := render.ForTarget(opts.Target)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}

	logger := newLogger(stderr, opts.Verbose)

	loggers := []trace.Logger{}
	if opts.Verbose {
		loggers = append(loggers, trace.NewSlogAdapter(logger))
	}
	if opts.TraceFile != "" {
		fl, err := trace.NewFileLogger(opts.TraceFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		defer func() {
			if err := fl.Close(); err != nil {
				logger.Warn("trace not saved", "error", err)
			}
			if n := fl.Dropped(); n > 0 {
				logger.Warn("trace events dropped", "file", fl.Path(), "count", n)
			}
		}()
		loggers = append(loggers, fl)
	}
	run := trace.NewRun(trace.NewMultiLogger(loggers...), opts.File)

	b, err := runPipeline(opts.File, logger, run)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", opts.File, err)
		printIssues(stderr, b.Result, opts.Verbose)
		return exitCodeFor(b, err)
	}

	meta := render.Meta{
		Source:    filepath.Base(opts.File),
		Generator: version.Generator,
		GoPackage: opts.GoPackage,
	}

	if opts.Output == "" {
		out, err := render.Bytes(renderer, "generated"+renderer.Extension(), b.Program, meta)
		if err != nil {
			run.Error(trace.StageRender, err, "rendering "+renderer.Name())
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		_, _ = stdout.Write(out)
		return exitSuccess
	}

	if err := render.WriteFile(opts.Output, renderer, b.Program, meta); err != nil {
		run.Error(trace.StageRender, err, "writing "+opts.Output)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	run.Info(trace.StageRender, "", fmt.Sprintf("wrote %s (%s)", opts.Output, renderer.Name()))
	fmt.Fprintf(stdout, "  generated %s (%d instructions)\n", opts.Output, b.Program.Len())
	return exitSuccess
}

func parseGenerateArgs(args []string, stderr io.Writer) (GenerateOptions, error) {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	opts := GenerateOptions{}

	fs.StringVar(&opts.Target, "target", "cpp", "Output target (cpp, go, json)")
	fs.StringVar(&opts.Output, "o", "", "Output file (default: stdout)")
	fs.StringVar(&opts.TraceFile, "trace", "", "Append generation trace events to this file")
	fs.StringVar(&opts.GoPackage, "go-package", render.DefaultGoPackage, "Package name for -target go")
	fs.BoolVar(&opts.Verbose, "v", false, "Log pipeline progress to stderr")

	if err := parseFlags(fs, args, stderr, printGenerateUsage); err != nil {
		return opts, err
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "Error: generate takes exactly one configuration file")
		return opts, errors.New("too many arguments")
	}
	opts.File = fs.Arg(0)
	return opts, nil
}

func printGenerateUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage: pca9575gen generate [options] <file>

Options:
  -target string      Output target: cpp, go or json (default "cpp")
  -o string           Output file (default: stdout)
  -trace string       Append generation trace events to this file
  -go-package string  Package name for -target go (default "wiring")
  -v                  Log pipeline progress to stderr

Examples:
  pca9575gen generate node.yaml
  pca9575gen generate -target go -o wiring_gen.go -go-package board node.yaml`)
}
