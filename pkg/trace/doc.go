// Package trace records what the generator did during a run: documents
// parsed, rule violations found, and instructions emitted.
//
// It is separate from operational logging (slog). A trace is a complete
// machine-readable record of one generation run, useful for answering
// "why was this pin rejected" or "what did the generator emit" after the fact.
//
// # Basic Usage
//
//	// Console, via slog
//	tracer := trace.NewSlogAdapter(slog.Default())
//
//	// Binary file
//	tracer, _ := trace.NewFileLogger("build/pca9575.trace")
//
//	// Both
//	tracer := trace.NewMultiLogger(
//	    trace.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
//	run := trace.NewRun(tracer, "device.yaml")
//	run.Info(trace.StageParse, "", "document loaded")
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with integer keys. The
// "pca9575gen trace" command views and summarises them.
package trace
