package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"isacore/internal/catalog"
	"isacore/internal/convert"
	"isacore/internal/logging"
	"isacore/internal/metrics"
	"isacore/pkg/isajson"
	"isacore/pkg/validate"
)

// options are the flags shared by every command.
type options struct {
	failOnError bool
	configDir   string
	metricsPath string
	register    bool
	verbose     bool
	severity    string
	concurrency int
	compact     bool
	quote       bool
	ids         string
}

func (o *options) bind(fs *flag.FlagSet) {
	fs.BoolVar(&o.failOnError, "fail-on-error", false, "exit 2 when validation reports errors")
	fs.StringVar(&o.configDir, "config", "", "directory of validator configurations (built-in set when empty)")
	fs.StringVar(&o.metricsPath, "metrics", "", "write Prometheus metrics to this textfile on exit")
	fs.BoolVar(&o.register, "catalog", false, "register loaded investigations in the catalog (ISACORE_CATALOG_DRIVER)")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.StringVar(&o.severity, "severity", string(validate.SeverityWarning), "lowest severity printed: ERROR, WARNING, INFO or DEBUG")
	fs.IntVar(&o.concurrency, "j", 4, "jobs run in parallel")
	fs.BoolVar(&o.compact, "compact", false, "omit investigation rows whose values are all empty")
	fs.BoolVar(&o.quote, "quote", false, "quote every tabular cell")
	fs.StringVar(&o.ids, "ids", "counter", "document identifiers: counter, slug or uuid")
}

func (o *options) minSeverity() (validate.Severity, error) {
	s := validate.Severity(strings.ToUpper(trimmed(o.severity)))
	switch s {
	case validate.SeverityError, validate.SeverityWarning, validate.SeverityInfo, validate.SeverityDebug:
		return s, nil
	}
	return "", fmt.Errorf("unknown severity %q", o.severity)
}

// env is the wiring shared by a command run.
type env struct {
	opts    *options
	svc     *convert.Service
	metrics *metrics.Recorder
	catalog catalog.Store
	floor   validate.Severity
}

func (o *options) open(ctx context.Context) (*env, error) {
	if o.verbose {
		s := logging.Current()
		s.Level = "debug"
		logging.Configure(s)
	}
	floor, err := o.minSeverity()
	if err != nil {
		return nil, err
	}
	configs := validate.DefaultConfigs()
	if o.configDir != "" {
		if configs, err = validate.LoadConfigDir(o.configDir); err != nil {
			return nil, fmt.Errorf("load configurations: %w", err)
		}
	}
	e := &env{opts: o, svc: convert.New(), floor: floor}
	e.svc.Validator = validate.New(configs)
	e.svc.Concurrency = o.concurrency
	e.svc.Tabular.Compact = o.compact
	e.svc.Tabular.Quote = o.quote
	switch strings.ToLower(trimmed(o.ids)) {
	case "", "counter":
	case "slug":
		e.svc.Document.IDs = isajson.SlugIDs{}
	case "uuid":
		e.svc.Document.IDs = isajson.UUIDIDs{}
	default:
		return nil, fmt.Errorf("unknown identifier scheme %q", o.ids)
	}
	if o.metricsPath != "" {
		e.metrics = metrics.New()
		e.svc.Metrics = e.metrics
	}
	if o.register {
		store, err := catalog.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		e.catalog = store
		e.svc.Catalog = store
	}
	return e, nil
}

// close releases the catalog and flushes metrics.
func (e *env) close(stderr io.Writer) int {
	code := exitOK
	if e.catalog != nil {
		if err := e.catalog.Close(); err != nil {
			code = fail(stderr, fmt.Errorf("close catalog: %w", err))
		}
	}
	if e.metrics != nil {
		if err := e.metrics.WriteTextfile(e.opts.metricsPath); err != nil {
			code = fail(stderr, fmt.Errorf("write metrics: %w", err))
		}
	}
	logging.L().Sync()
	return code
}

// judge prints a report and maps it to an exit code. A report whose
// artifact could not be read at all counts as a failure.
func (e *env) judge(w io.Writer, name string, rep *validate.Report) int {
	if rep == nil {
		return exitOK
	}
	counts := rep.Count()
	fmt.Fprintf(w, "%s: %d errors, %d warnings\n", name, counts[validate.SeverityError], counts[validate.SeverityWarning])
	_ = rep.WriteText(w, e.floor)
	for _, d := range rep.Diagnostics {
		if d.Rule == "load" {
			return exitFailure
		}
	}
	if e.opts.failOnError && rep.HasErrors() {
		return exitInvalid
	}
	return exitOK
}
