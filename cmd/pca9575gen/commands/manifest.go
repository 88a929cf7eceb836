package commands

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/expandergen/pca9575gen/pkg/manifest"
	"github.com/expandergen/pca9575gen/pkg/trace"
)

// RunManifest runs the manifest command. With -show it prints an existing
// manifest, otherwise it builds one from a configuration file.
func RunManifest(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("manifest", flag.ContinueOnError)
	output := fs.String("o", "", "Output manifest file")
	show := fs.String("show", "", "Print the manifest at this path")
	verbose := fs.Bool("v", false, "Log pipeline progress to stderr")

	if err := parseFlags(fs, args, stderr, printManifestUsage); err != nil {
		return exitCommandError
	}

	if *show != "" {
		m, err := manifest.ReadFile(*show)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		printManifest(stdout, m)
		return exitSuccess
	}

	if fs.NArg() != 1 || *output == "" {
		fmt.Fprintln(stderr, "Error: -o and one configuration file are required")
		printManifestUsage(stderr)
		return exitCommandError
	}
	file := fs.Arg(0)

	logger := newLogger(stderr, *verbose)
	b, err := runPipeline(file, logger, trace.NewRun(nil, file))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", file, err)
		printIssues(stderr, b.Result, *verbose)
		return exitCodeFor(b, err)
	}

	m := manifest.New(b.Program, filepath.Base(file))
	if err := manifest.WriteFile(*output, m); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	logger.Debug("manifest written", "path", *output, "build_id", m.Header.BuildID)
	fmt.Fprintf(stdout, "  wrote %s (build %s)\n", *output, m.Header.BuildID)
	return exitSuccess
}

func printManifest(w io.Writer, m *manifest.Manifest) {
	h := m.Header
	fmt.Fprintf(w, "Build:     %s\n", h.BuildID)
	fmt.Fprintf(w, "Created:   %s\n", h.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Generator: pca9575gen %s (schema %s, %s)\n", h.Generator, h.Schema, h.Tag)
	if h.Source != "" {
		fmt.Fprintf(w, "Source:    %s\n", h.Source)
	}
	fmt.Fprintf(w, "Part:      %s\n", m.Program.Part)
	fmt.Fprintln(w)
	printProgram(w, m.Program)
}

func printManifestUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage:
  pca9575gen manifest -o <out.cbor> <file>
  pca9575gen manifest -show <in.cbor>

Options:
  -o string     Output manifest file
  -show string  Print the manifest at this path
  -v            Log pipeline progress to stderr`)
}
