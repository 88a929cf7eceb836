// pca9575gen validates PCA9575 GPIO-expander configurations and generates
// the code that constructs and wires the expander and pin objects.
//
// Usage:
//
//	pca9575gen <command> [options] [files...]
//
// Commands:
//
//	validate  Validate configuration files
//	generate  Generate C++, Go or JSON from a configuration
//	manifest  Write or print a CBOR build manifest
//	show      Print the resolved configuration
//	trace     View generation trace files
//	shell     Inspect a configuration interactively
package main

import (
	"fmt"
	"os"

	"github.com/expandergen/pca9575gen/cmd/pca9575gen/commands"
	"github.com/expandergen/pca9575gen/pkg/version"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitCommandError)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var exitCode int
	switch cmd {
	case "validate":
		exitCode = commands.RunValidate(args, os.Stdout, os.Stderr)
	case "generate", "gen":
		exitCode = commands.RunGenerate(args, os.Stdout, os.Stderr)
	case "manifest":
		exitCode = commands.RunManifest(args, os.Stdout, os.Stderr)
	case "show":
		exitCode = commands.RunShow(args, os.Stdout, os.Stderr)
	case "trace":
		exitCode = commands.RunTrace(args, os.Stdout, os.Stderr)
	case "shell":
		exitCode = commands.RunShell(args, os.Stdout, os.Stderr)
	case "help", "-h", "--help":
		printUsage()
		exitCode = exitSuccess
	case "version", "--version":
		fmt.Printf("pca9575gen version %s (schema %s)\n", version.Generator, version.Current)
		exitCode = exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		exitCode = exitCommandError
	}

	os.Exit(exitCode)
}

func printUsage() {
	fmt.Println(`pca9575gen - PCA9575 expander configuration and code generator

Usage:
  pca9575gen <command> [options] [files...]

Commands:
  validate   Validate configuration files
  generate   Generate C++, Go or JSON from a configuration
  manifest   Write or print a CBOR build manifest
  show       Print the resolved configuration
  trace      View generation trace files (view, stats)
  shell      Inspect a configuration interactively

Options:
  -h, --help  Show this help message
  --version   Show version information

Examples:
  pca9575gen validate node.yaml
  pca9575gen generate -target cpp -o pca9575_setup.cpp node.yaml
  pca9575gen generate -target go -o wiring_gen.go -trace gen.trace node.yaml
  pca9575gen trace stats gen.trace

For command-specific help, run:
  pca9575gen <command> --help`)
}
