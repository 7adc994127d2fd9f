// tokens.go implements the 'tracecheck tokens' command.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/kolkov/tracecheck/internal/trace/frontend"
	"github.com/kolkov/tracecheck/internal/trace/token"
)

// tokensCommand implements the 'tracecheck tokens' command.
//
// It prints one token per line with its position and kind, which helps to
// see how the lexer and the normalizer read a trace.
//
// Example:
//
//	tracecheck tokens -normalize trace.std
func tokensCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	fs.SetOutput(stderr)
	normalize := fs.Bool("normalize", false, "print the normalized token stream")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: tracecheck tokens [-normalize] <trace|->")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitClean
		}
		return exitFailure
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitFailure
	}
	path := fs.Arg(0)

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	text, err := frontend.ReadAll(r)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	toks, err := frontend.Tokens(text, *normalize)
	if err != nil {
		return reportError(stderr, path, err)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, t := range toks {
		if t.Kind == token.EOF {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Pos, t.Kind, t)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitClean
}
