// Package main implements the tracecheck CLI tool.
//
// tracecheck reads a recorded trace of a concurrent program and reports
// data races, lock-discipline violations and deadlocks. It works by:
//
//  1. Tokenizing the trace text (optionally normalizing variant spellings)
//  2. Parsing the tokens into typed events
//  3. Replaying the events with vector clocks, lock sets and a wait-for graph
//  4. Printing the verdict as text or JSON
//
// Usage:
//
//	tracecheck check trace.std            # Check a trace
//	tracecheck check -format=json -       # Check stdin, JSON output
//	tracecheck tokens -normalize t.std    # Dump the token stream
//
// Exit status is 0 for a clean trace, 1 when violations are found, 2 for a
// malformed trace and 3 for usage, configuration or I/O errors.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kolkov/tracecheck/race"
)

// Exit codes.
const (
	exitClean      = 0
	exitViolations = 1
	exitMalformed  = 2
	exitFailure    = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitFailure
	}

	command := args[0]

	switch command {
	case "check":
		return checkCommand(args[1:], stdin, stdout, stderr)
	case "tokens":
		return tokensCommand(args[1:], stdin, stdout, stderr)
	case "version", "--version", "-v":
		info := race.GetInfo()
		fmt.Fprintf(stdout, "tracecheck version %s (trace format %s)\n", info.Version, info.FormatVersion)
		return exitClean
	case "help", "--help", "-h":
		printUsage(stdout)
		return exitClean
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printUsage(stderr)
		return exitFailure
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `tracecheck - offline checker for concurrent-program traces

USAGE:
    tracecheck <command> [arguments]

COMMANDS:
    check      Check a trace for races, lock misuse and deadlocks
    tokens     Print the token stream of a trace
    version    Show version information
    help       Show this help message

EXAMPLES:
    # Check a trace
    tracecheck check trace.std

    # Accept variant spellings and report lock-order inversions
    tracecheck check -normalize -lock-order trace.std

    # Read a compressed trace from stdin, JSON output
    zcat big.std.gz | tracecheck check -format=json -

    # Treat unjoined threads and unreleased locks as violations
    tracecheck check -strict=strict trace.std

TRACE FORMAT:
    One record per line: <thread>|<operation>|<line>

        T1|acq(L1)|1
        T1|w(V1.0[2])|2
        T1|rel(L1)|3
        T1|fork(T2)|4
        T1|join(T2)|5

    Operations: w(V) r(V) acq(L) rel(L) req(L) fork(T) join(T)

EXIT STATUS:
    0  no violation found
    1  violations found
    2  malformed trace
    3  usage, configuration or I/O error

`)
}
