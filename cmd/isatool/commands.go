package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"isacore/internal/archive"
	"isacore/internal/blob"
	"isacore/internal/catalog"
	"isacore/internal/convert"
	"isacore/internal/graphexport"
	"isacore/pkg/validate"
)

func runTabToJSON(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return runConversion(ctx, convert.KindTabToJSON, args, stdout, stderr)
}

func runJSONToTab(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return runConversion(ctx, convert.KindJSONToTab, args, stdout, stderr)
}

func runConversion(ctx context.Context, kind convert.Kind, args []string, stdout, stderr io.Writer) int {
	var opts options
	var check bool
	fs := newFlagSet(string(kind), "SRC DST [SRC DST ...]", stderr)
	opts.bind(fs)
	fs.BoolVar(&check, "validate", false, "validate every converted investigation")
	rest, ok := parse(fs, args, -2)
	if !ok {
		return exitFailure
	}
	list, err := pairs(rest)
	if err != nil {
		fs.Usage()
		return exitFailure
	}
	jobs := make([]convert.Job, len(list))
	for i, p := range list {
		jobs[i] = convert.Job{Kind: kind, Source: p[0], Target: p[1]}
	}
	e, err := opts.open(ctx)
	if err != nil {
		return fail(stderr, err)
	}
	e.svc.Validate = check || opts.failOnError
	code := e.batch(ctx, jobs, stdout, stderr)
	return worst(code, e.close(stderr))
}

func runValidate(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet("validate", "SRC [SRC ...]", stderr)
	opts.bind(fs)
	rest, ok := parse(fs, args, -1)
	if !ok {
		return exitFailure
	}
	jobs := make([]convert.Job, len(rest))
	for i, src := range rest {
		jobs[i] = convert.Job{Kind: convert.KindValidate, Source: src}
	}
	e, err := opts.open(ctx)
	if err != nil {
		return fail(stderr, err)
	}
	code := e.batch(ctx, jobs, stdout, stderr)
	return worst(code, e.close(stderr))
}

// batch runs jobs and reports each outcome in job order.
func (e *env) batch(ctx context.Context, jobs []convert.Job, stdout, stderr io.Writer) int {
	outcomes, err := e.svc.Batch(ctx, jobs)
	if err != nil && !errors.Is(err, convert.ErrFailed) {
		return fail(stderr, err)
	}
	code := exitOK
	for _, out := range outcomes {
		if out.Err != nil {
			code = worst(code, fail(stderr, out.Err))
			continue
		}
		code = worst(code, e.judge(stdout, out.Job.Source, out.Report))
		if out.Job.Target != "" {
			fmt.Fprintf(stdout, "%s -> %s (%s)\n", out.Job.Source, out.Job.Target, out.Duration.Round(time.Millisecond))
		}
	}
	return code
}

func runPublish(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		opts    options
		replace bool
		check   bool
		expiry  time.Duration
	)
	fs := newFlagSet("publish", "SRC PREFIX", stderr)
	opts.bind(fs)
	fs.BoolVar(&replace, "replace", false, "overwrite an existing publication")
	fs.BoolVar(&check, "validate", false, "validate before publishing")
	fs.DurationVar(&expiry, "link-expiry", 0, "lifetime of the pre-signed document link (store default when zero)")
	rest, ok := parse(fs, args, 2)
	if !ok {
		return exitFailure
	}
	e, err := opts.open(ctx)
	if err != nil {
		return fail(stderr, err)
	}
	code := e.publish(ctx, rest[0], rest[1], replace, check || opts.failOnError, expiry, stdout, stderr)
	return worst(code, e.close(stderr))
}

func (e *env) publish(ctx context.Context, src, prefix string, replace, check bool, expiry time.Duration, stdout, stderr io.Writer) int {
	inv, err := e.svc.Load(ctx, src)
	if err != nil {
		return fail(stderr, err)
	}
	if check {
		rep := e.svc.Validator.ValidateInvestigation(inv, formOf(src), src, nil)
		e.metrics.ObserveReport(rep)
		if code := e.judge(stdout, src, rep); code != exitOK {
			return code
		}
	}
	store, err := blob.Open(ctx)
	if err != nil {
		return fail(stderr, fmt.Errorf("open blob store: %w", err))
	}
	pub := &archive.Publisher{
		Store:      store,
		Tabular:    e.svc.Tabular,
		Document:   e.svc.Document,
		Replace:    replace,
		LinkExpiry: expiry,
		Metrics:    e.metrics,
	}
	m, err := pub.Publish(ctx, inv, prefix)
	if err != nil {
		return fail(stderr, err)
	}
	if e.catalog != nil {
		if _, err := catalog.Register(ctx, e.catalog, inv); err != nil {
			return fail(stderr, fmt.Errorf("catalog %s: %w", inv.Identifier, err))
		}
	}
	if err := writeJSON(stdout, struct {
		*archive.Manifest
		DocumentURL string `json:"document_url,omitempty"`
	}{m, m.DocumentURL}); err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

func runExportGraph(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		opts      options
		out       string
		batchSize int
		jsonOnly  bool
	)
	fs := newFlagSet("export-graph", "SRC", stderr)
	opts.bind(fs)
	fs.StringVar(&out, "out", "", "write the graphs as JSON to this file instead of stdout")
	fs.IntVar(&batchSize, "batch", 500, "rows per Neo4j statement")
	fs.BoolVar(&jsonOnly, "json", false, "write JSON even when NEO4J_URI is set")
	rest, ok := parse(fs, args, 1)
	if !ok {
		return exitFailure
	}
	e, err := opts.open(ctx)
	if err != nil {
		return fail(stderr, err)
	}
	code := e.exportGraph(ctx, rest[0], out, batchSize, jsonOnly, stdout, stderr)
	return worst(code, e.close(stderr))
}

func (e *env) exportGraph(ctx context.Context, src, out string, batchSize int, jsonOnly bool, stdout, stderr io.Writer) (code int) {
	done := e.metrics.Track(ctx, "export-graph")
	var err error
	defer func() { done(err) }()

	inv, err := e.svc.Load(ctx, src)
	if err != nil {
		return fail(stderr, err)
	}
	graphs, err := graphexport.Build(inv)
	if err != nil {
		return fail(stderr, err)
	}
	if !jsonOnly {
		var runner *graphexport.DriverRunner
		if runner, err = graphexport.DialFromEnv(ctx); err != nil {
			return fail(stderr, err)
		}
		if runner != nil {
			defer func() { _ = runner.Close(ctx) }()
			exp := &graphexport.Neo4jExporter{Runner: runner, BatchSize: batchSize}
			if err = exp.Export(ctx, graphs); err != nil {
				return fail(stderr, err)
			}
			fmt.Fprintf(stdout, "%s: exported %d graphs to neo4j\n", inv.Identifier, len(graphs))
			return exitOK
		}
	}
	w := stdout
	if out != "" {
		f, cerr := os.Create(out)
		if cerr != nil {
			err = cerr
			return fail(stderr, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && code == exitOK {
				err = cerr
				code = fail(stderr, cerr)
			}
		}()
		w = f
	}
	if err = writeJSON(w, graphs); err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

func formOf(src string) validate.Form {
	if convert.IsDocument(src) {
		return validate.FormDocument
	}
	return validate.FormTabular
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
