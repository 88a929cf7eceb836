package commands

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"

	"github.com/expandergen/pca9575gen/pkg/codegen"
	"github.com/expandergen/pca9575gen/pkg/render"
	"github.com/expandergen/pca9575gen/pkg/trace"
	"github.com/expandergen/pca9575gen/pkg/version"
)

// Shell is an interactive inspector for one configuration file.
type Shell struct {
	path   string
	logger *slog.Logger
	build  *build
	err    error
}

// NewShell loads path and returns a shell for it. A configuration that
// fails to load is kept so that "check" can report why.
func NewShell(path string, logger *slog.Logger) *Shell {
	s := &Shell{path: path, logger: logger}
	s.Reload()
	return s
}

// Reload re-reads the configuration file.
func (s *Shell) Reload() error {
	s.build, s.err = runPipeline(s.path, s.logger, trace.NewRun(nil, s.path))
	return s.err
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(line string, w io.Writer) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		printShellHelp(w)
	case "list", "ls":
		if s.requireProgram(w) {
			printResolved(w, s.build.Resolved)
		}
	case "show":
		s.cmdShow(args, w)
	case "check":
		s.cmdCheck(w)
	case "emit":
		s.cmdEmit(args, w)
	case "reload":
		if err := s.Reload(); err != nil {
			fmt.Fprintf(w, "reload: %v\n", err)
		} else {
			fmt.Fprintf(w, "reloaded %s\n", s.path)
		}
	case "exit", "quit", "q":
		return true
	default:
		fmt.Fprintf(w, "unknown command: %s (type 'help')\n", cmd)
	}
	return false
}

func (s *Shell) requireProgram(w io.Writer) bool {
	if s.err != nil || s.build == nil || s.build.Program == nil {
		fmt.Fprintf(w, "%s does not validate: %v (run 'check')\n", s.path, s.err)
		return false
	}
	return true
}

func (s *Shell) cmdShow(args []string, w io.Writer) {
	if len(args) != 1 {
		fmt.Fprintln(w, "usage: show <id>")
		return
	}
	if !s.requireProgram(w) {
		return
	}
	id := args[0]
	r := s.build.Resolved

	found := false
	for _, e := range r.Expanders {
		if e.ID == id {
			printExpander(w, e)
			found = true
		}
	}
	for _, p := range r.Pins {
		if p.ID == id {
			printPin(w, p.Pin)
			fmt.Fprintf(w, "  bound to %s (%s)\n", p.Parent.ID, p.Parent.Address)
			found = true
		}
	}
	ins := s.build.Program.For(id)
	if !found && len(ins) == 0 {
		fmt.Fprintf(w, "no record with id %q\n", id)
		return
	}
	printProgram(w, &codegen.Program{Instructions: ins})
}

func (s *Shell) cmdCheck(w io.Writer) {
	if s.build == nil || s.build.Result == nil {
		fmt.Fprintf(w, "%s: %v\n", s.path, s.err)
		return
	}
	res := s.build.Result
	if res.Valid {
		fmt.Fprintf(w, "%s: OK (%d warnings)\n", s.path, len(res.Warnings))
	} else {
		fmt.Fprintf(w, "%s: FAILED (%d errors, %d warnings)\n", s.path, len(res.Errors), len(res.Warnings))
	}
	printIssues(w, res, true)
}

func (s *Shell) cmdEmit(args []string, w io.Writer) {
	target := "cpp"
	if len(args) > 0 {
		target = args[0]
	}
	r, err := render.ForTarget(target)
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	if !s.requireProgram(w) {
		return
	}
	out, err := render.Bytes(r, "generated"+r.Extension(), s.build.Program, render.Meta{
		Source:    s.path,
		Generator: version.Generator,
	})
	if err != nil {
		fmt.Fprintf(w, "emit: %v\n", err)
		return
	}
	_, _ = w.Write(out)
}

func printShellHelp(w io.Writer) {
	fmt.Fprintln(w, `Commands:
  list           List expanders and their pins
  show <id>      Show a record and its instructions
  check          Show validation errors and warnings
  emit [target]  Render the program (cpp, go, json)
  reload         Re-read the configuration file
  help           Show this help
  exit           Leave the shell`)
}

// RunShell runs the interactive shell.
func RunShell(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Log pipeline progress to stderr")
	if err := parseFlags(fs, args, stderr, func(w io.Writer) {
		fmt.Fprintln(w, "Usage: pca9575gen shell [-v] <file>")
	}); err != nil {
		return exitCommandError
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: one configuration file required")
		return exitCommandError
	}

	targets := make([]readline.PrefixCompleterInterface, 0, len(render.Targets()))
	for _, t := range render.Targets() {
		targets = append(targets, readline.PcItem(t))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pca9575> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          stdout,
		Stderr:          stderr,
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("list"),
			readline.PcItem("show"),
			readline.PcItem("check"),
			readline.PcItem("emit", targets...),
			readline.PcItem("reload"),
			readline.PcItem("help"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to create readline: %v\n", err)
		return exitCommandError
	}
	defer rl.Close()

	shell := NewShell(fs.Arg(0), newLogger(rl.Stderr(), *verbose))
	shell.cmdCheck(rl.Stdout())
	fmt.Fprintln(rl.Stdout(), "Type 'help' for commands.")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return exitSuccess
		}
		if shell.Exec(line, rl.Stdout()) {
			return exitSuccess
		}
	}
}
