package commands

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/expandergen/pca9575gen/pkg/trace"
)

// RunTrace runs the trace command: "trace view" or "trace stats".
func RunTrace(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printTraceUsage(stderr)
		return exitCommandError
	}
	switch args[0] {
	case "view":
		return runTraceView(args[1:], stdout, stderr)
	case "stats":
		return runTraceStats(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown trace command: %s\n", args[0])
		printTraceUsage(stderr)
		return exitCommandError
	}
}

func runTraceView(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("trace view", flag.ContinueOnError)
	stage := fs.String("stage", "", "Filter by stage (parse, validate, emit, render)")
	kind := fs.String("kind", "", "Filter by kind (info, violation, instruction, error)")
	runID := fs.String("run", "", "Filter by run id")
	subject := fs.String("subject", "", "Filter by subject id")

	if err := parseFlags(fs, args, stderr, printTraceUsage); err != nil {
		return exitCommandError
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: trace file path required")
		return exitCommandError
	}

	filter := trace.Filter{RunID: *runID, Subject: *subject}
	if *stage != "" {
		s, err := ParseStage(*stage)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		filter.Stage = &s
	}
	if *kind != "" {
		k, err := ParseKind(*kind)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitCommandError
		}
		filter.Kind = &k
	}

	reader, err := trace.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to open trace file: %v\n", err)
		return exitCommandError
	}
	defer reader.Close()

	for {
		ev, err := reader.Next()
		if err == io.EOF {
			if reader.Truncated() {
				fmt.Fprintln(stderr, "Warning: trace ends with a partial event")
			}
			return exitSuccess
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error: failed to read event: %v\n", err)
			return exitCommandError
		}
		formatEvent(stdout, ev)
	}
}

// ParseStage parses a stage name, case-insensitively.
func ParseStage(s string) (trace.Stage, error) {
	for _, st := range []trace.Stage{trace.StageParse, trace.StageValidate, trace.StageEmit, trace.StageRender} {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

// ParseKind parses an event kind name, case-insensitively.
func ParseKind(s string) (trace.Kind, error) {
	for _, k := range []trace.Kind{trace.KindInfo, trace.KindViolation, trace.KindInstruction, trace.KindError} {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// formatEvent writes one event as a header line plus detail.
func formatEvent(w io.Writer, ev trace.Event) {
	ts := ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [run:%s] %-8s %-11s", ts, shortID(ev.RunID), ev.Stage, ev.Kind)
	if ev.Subject != "" {
		fmt.Fprintf(w, " %s", ev.Subject)
	}
	if ev.Line > 0 {
		fmt.Fprintf(w, " (line %d)", ev.Line)
	}
	fmt.Fprintln(w)

	switch {
	case ev.Violation != nil:
		fmt.Fprintf(w, "  %s %s: %s\n", ev.Violation.RuleID, ev.Violation.Severity, ev.Message)
		if ev.Violation.Suggestion != "" {
			fmt.Fprintf(w, "  -> %s\n", ev.Violation.Suggestion)
		}
	case ev.Instruction != nil:
		fmt.Fprintf(w, "  #%d %s\n", ev.Instruction.Seq, ev.Instruction.Detail)
	case ev.Error != nil:
		fmt.Fprintf(w, "  error: %s", ev.Error.Message)
		if ev.Error.Context != "" {
			fmt.Fprintf(w, " (while %s)", ev.Error.Context)
		}
		fmt.Fprintln(w)
	case ev.Message != "":
		fmt.Fprintf(w, "  %s\n", ev.Message)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// TraceStats holds aggregate statistics about a trace file.
type TraceStats struct {
	TotalEvents int
	ByStage     map[trace.Stage]int
	ByKind      map[trace.Kind]int
	ByRule      map[string]int
	Runs        map[string]*RunStats
	FirstEvent  time.Time
	LastEvent   time.Time
	Truncated   bool
}

// RunStats holds statistics for a single generation run.
type RunStats struct {
	Source       string
	FirstSeen    time.Time
	Events       int
	Instructions int
	Violations   int
	Errors       int
}

// CollectStats reads every event of the trace file at path.
func CollectStats(path string) (*TraceStats, error) {
	reader, err := trace.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &TraceStats{
		ByStage: make(map[trace.Stage]int),
		ByKind:  make(map[trace.Kind]int),
		ByRule:  make(map[string]int),
		Runs:    make(map[string]*RunStats),
	}
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.ByStage[ev.Stage]++
		stats.ByKind[ev.Kind]++
		if stats.FirstEvent.IsZero() || ev.Timestamp.Before(stats.FirstEvent) {
			stats.FirstEvent = ev.Timestamp
		}
		if ev.Timestamp.After(stats.LastEvent) {
			stats.LastEvent = ev.Timestamp
		}

		run, ok := stats.Runs[ev.RunID]
		if !ok {
			run = &RunStats{Source: ev.Source, FirstSeen: ev.Timestamp}
			stats.Runs[ev.RunID] = run
		}
		run.Events++
		switch {
		case ev.Violation != nil:
			run.Violations++
			stats.ByRule[ev.Violation.RuleID]++
		case ev.Instruction != nil:
			run.Instructions++
		case ev.Error != nil:
			run.Errors++
		}
	}
	stats.Truncated = reader.Truncated()
	return stats, nil
}

func runTraceStats(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Error: trace file path required")
		return exitCommandError
	}
	stats, err := CollectStats(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	printTraceStats(stdout, stats)
	return exitSuccess
}

func printTraceStats(w io.Writer, stats *TraceStats) {
	fmt.Fprintln(w, "=== pca9575gen Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.FirstEvent.Format(time.RFC3339),
			stats.LastEvent.Format(time.RFC3339))
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	if stats.Truncated {
		fmt.Fprintln(w, "Last event truncated")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Stage:")
	for _, s := range []trace.Stage{trace.StageParse, trace.StageValidate, trace.StageEmit, trace.StageRender} {
		if n := stats.ByStage[s]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", s.String()+":", n)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Kind:")
	for _, k := range []trace.Kind{trace.KindInfo, trace.KindViolation, trace.KindInstruction, trace.KindError} {
		if n := stats.ByKind[k]; n > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", k.String()+":", n)
		}
	}

	if len(stats.ByRule) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Violations by Rule:")
		rules := make([]string, 0, len(stats.ByRule))
		for id := range stats.ByRule {
			rules = append(rules, id)
		}
		sort.Strings(rules)
		for _, id := range rules {
			fmt.Fprintf(w, "  %-12s %d\n", id+":", stats.ByRule[id])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Runs: %d\n", len(stats.Runs))
	type runInfo struct {
		id    string
		stats *RunStats
	}
	runs := make([]runInfo, 0, len(stats.Runs))
	for id, rs := range stats.Runs {
		runs = append(runs, runInfo{id, rs})
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].stats.FirstSeen.Before(runs[j].stats.FirstSeen)
	})
	for _, r := range runs {
		fmt.Fprintf(w, "  [%s] %s: %d events, %d instructions, %d violations, %d errors\n",
			shortID(r.id), r.stats.Source, r.stats.Events, r.stats.Instructions, r.stats.Violations, r.stats.Errors)
	}
}

func printTraceUsage(w io.Writer) {
	fmt.Fprintln(w, `
Usage:
  pca9575gen trace view [options] <file.trace>
  pca9575gen trace stats <file.trace>

View options:
  -stage string    Filter by stage (parse, validate, emit, render)
  -kind string     Filter by kind (info, violation, instruction, error)
  -run string      Filter by run id
  -subject string  Filter by subject id`)
}
