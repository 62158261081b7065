// Command isatool converts, validates, publishes and exports investigations.
//
//	isatool tab2json     [flags] SRC DST [SRC DST ...]
//	isatool json2tab     [flags] SRC DST [SRC DST ...]
//	isatool validate     [flags] SRC [SRC ...]
//	isatool publish      [flags] SRC PREFIX
//	isatool export-graph [flags] SRC
//
// The exit code is 1 when an artifact cannot be read, parsed or written and
// 2 when -fail-on-error is set and validation found errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitInvalid = 2
)

var exitFunc = os.Exit

type command struct {
	summary string
	run     func(ctx context.Context, args []string, stdout, stderr io.Writer) int
}

var commands = map[string]command{
	"tab2json":     {summary: "convert tabular directories to documents", run: runTabToJSON},
	"json2tab":     {summary: "convert documents to tabular directories", run: runJSONToTab},
	"validate":     {summary: "validate tabular directories or documents", run: runValidate},
	"publish":      {summary: "publish an investigation to the blob store", run: runPublish},
	"export-graph": {summary: "export experimental graphs to Neo4j or JSON", run: runExportGraph},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage(stderr)
		return exitFailure
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "isatool: unknown command %q\n", args[0])
		usage(stderr)
		return exitFailure
	}
	return cmd.run(ctx, args[1:], stdout, stderr)
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: isatool <command> [flags] args...")
	for _, name := range names {
		fmt.Fprintf(w, "  %-13s %s\n", name, commands[name].summary)
	}
}

// newFlagSet returns a flag set that reports usage errors on stderr.
func newFlagSet(name, synopsis string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: isatool %s [flags] %s\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args and checks the positional count. want < 0 requires at
// least -want arguments.
func parse(fs *flag.FlagSet, args []string, want int) ([]string, bool) {
	if err := fs.Parse(args); err != nil {
		return nil, false
	}
	rest := fs.Args()
	switch {
	case want >= 0 && len(rest) != want, want < 0 && len(rest) < -want:
		fs.Usage()
		return nil, false
	}
	return rest, true
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "isatool: %v\n", err)
	return exitFailure
}

// worst keeps the most severe exit code; a failure outranks invalid input.
func worst(a, b int) int {
	if a == exitFailure || b == exitFailure {
		return exitFailure
	}
	if a == exitInvalid || b == exitInvalid {
		return exitInvalid
	}
	return exitOK
}

func pairs(args []string) ([][2]string, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, errors.New("expected SRC DST pairs")
	}
	out := make([][2]string, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		out = append(out, [2]string{args[i], args[i+1]})
	}
	return out, nil
}

func trimmed(s string) string { return strings.TrimSpace(s) }
