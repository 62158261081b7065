// Package convert runs conversions and validations between artifacts
// addressed by URL. Inputs are staged through afs, so any scheme it
// supports (file://, mem://, ...) can be read and written.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"isacore/internal/catalog"
	"isacore/internal/logging"
	"isacore/internal/metrics"
	"isacore/pkg/isa"
	"isacore/pkg/isajson"
	"isacore/pkg/isatab"
	"isacore/pkg/validate"
)

// Kind names a job.
type Kind string

const (
	KindTabToJSON Kind = "tab2json"
	KindJSONToTab Kind = "json2tab"
	KindValidate  Kind = "validate"
)

// Job converts or validates one artifact. Source is a tabular directory or
// a document; Target is the document to write for KindTabToJSON and the
// directory to write for KindJSONToTab.
type Job struct {
	Kind   Kind
	Source string
	Target string
}

// Outcome is the result of one job.
type Outcome struct {
	Job        Job
	Identifier string
	// Report is set for validation jobs and when Service.Validate is on.
	Report   *validate.Report
	Err      error
	Duration time.Duration
}

// Service runs jobs. The zero value is not usable; use New.
type Service struct {
	FS        afs.Service
	Validator *validate.Validator
	Document  isajson.Writer
	Tabular   isatab.WriteOptions
	// Validate checks every converted investigation.
	Validate bool
	// Catalog, when set, registers every loaded investigation.
	Catalog catalog.Store
	Metrics *metrics.Recorder
	// Concurrency bounds Batch; 4 when not positive.
	Concurrency int
}

// New returns a service over afs with the built-in validator configurations.
func New() *Service {
	return &Service{FS: afs.New(), Validator: validate.New(nil), Document: isajson.Writer{Indent: true}}
}

// Run executes one job.
func (s *Service) Run(ctx context.Context, job Job) (out Outcome) {
	started := time.Now()
	done := s.Metrics.Track(ctx, string(job.Kind))
	out.Job = job
	defer func() {
		out.Duration = time.Since(started)
		done(out.Err)
		s.Metrics.ObserveReport(out.Report)
		log := logging.L().With("job", string(job.Kind), "source", job.Source)
		if out.Err != nil {
			log.Error("job failed", "error", out.Err)
			return
		}
		log.Info("job finished", "investigation", out.Identifier, "elapsed", out.Duration)
	}()

	var inv *isa.Investigation
	switch job.Kind {
	case KindValidate:
		out.Report, inv, out.Err = s.validate(ctx, job.Source)
	case KindTabToJSON:
		inv, out.Report, out.Err = s.tabToJSON(ctx, job.Source, job.Target)
	case KindJSONToTab:
		inv, out.Report, out.Err = s.jsonToTab(ctx, job.Source, job.Target)
	default:
		out.Err = fmt.Errorf("convert: unknown job kind %q", job.Kind)
	}
	if inv != nil {
		out.Identifier = inv.Identifier
		if out.Err == nil && s.Catalog != nil {
			if _, err := catalog.Register(ctx, s.Catalog, inv); err != nil {
				out.Err = fmt.Errorf("convert: catalog %s: %w", inv.Identifier, err)
			}
		}
	}
	return out
}

func (s *Service) tabToJSON(ctx context.Context, src, dst string) (*isa.Investigation, *validate.Report, error) {
	res, err := s.loadTabular(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	inv := res.Investigation
	var rep *validate.Report
	if s.Validate {
		rep = s.Validator.ValidateLoaded(res, src)
	}
	doc, err := s.Document.Marshal(inv)
	if err != nil {
		return inv, rep, fmt.Errorf("convert: encode %s: %w", inv.Identifier, err)
	}
	dst = normalize(dst)
	if err := s.FS.Upload(ctx, dst, 0o644, bytes.NewReader(append(doc, '\n'))); err != nil {
		return inv, rep, fmt.Errorf("convert: upload %s: %w", dst, err)
	}
	return inv, rep, nil
}

func (s *Service) jsonToTab(ctx context.Context, src, dst string) (*isa.Investigation, *validate.Report, error) {
	src = normalize(src)
	data, err := s.FS.DownloadWithURL(ctx, src)
	if err != nil {
		return nil, nil, fmt.Errorf("convert: download %s: %w", src, err)
	}
	inv, err := isajson.Unmarshal(data, isajson.Options{Name: src})
	if err != nil {
		return nil, nil, err
	}
	var rep *validate.Report
	if s.Validate {
		rep = s.Validator.ValidateInvestigation(inv, validate.FormDocument, src, nil)
	}
	sink := &afsSink{ctx: ctx, fs: s.FS, base: normalize(dst)}
	if err := isatab.DumpTo(sink, inv, s.Tabular); err != nil {
		return inv, rep, err
	}
	return inv, rep, nil
}

// validate never fails on a malformed artifact; problems land in the
// report. Only staging errors are returned.
func (s *Service) validate(ctx context.Context, src string) (*validate.Report, *isa.Investigation, error) {
	src = normalize(src)
	if IsDocument(src) {
		data, err := s.FS.DownloadWithURL(ctx, src)
		if err != nil {
			return nil, nil, fmt.Errorf("convert: download %s: %w", src, err)
		}
		return s.Validator.ValidateDocument(bytes.NewReader(data), src), nil, nil
	}
	dir, cleanup, err := s.stage(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()
	return s.Validator.ValidateFS(os.DirFS(dir), src), nil, nil
}

// Load reads the investigation at src, a document or a tabular directory.
func (s *Service) Load(ctx context.Context, src string) (*isa.Investigation, error) {
	if !IsDocument(src) {
		res, err := s.loadTabular(ctx, src)
		if err != nil {
			return nil, err
		}
		return res.Investigation, nil
	}
	src = normalize(src)
	data, err := s.FS.DownloadWithURL(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("convert: download %s: %w", src, err)
	}
	return isajson.Unmarshal(data, isajson.Options{Name: src})
}

func (s *Service) loadTabular(ctx context.Context, src string) (*isatab.LoadResult, error) {
	dir, cleanup, err := s.stage(ctx, normalize(src))
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return isatab.Load(dir, isatab.Options{})
}

// stage copies the files directly under src into a scratch directory. The
// returned cleanup removes it.
func (s *Service) stage(ctx context.Context, src string) (string, func(), error) {
	objects, err := s.FS.List(ctx, src)
	if err != nil {
		return "", nil, fmt.Errorf("convert: list %s: %w", src, err)
	}
	dir, err := os.MkdirTemp("", "isacore-stage-*")
	if err != nil {
		return "", nil, fmt.Errorf("convert: scratch dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logging.L().Warn("scratch dir not removed", "dir", dir, "error", err)
		}
	}
	n := 0
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		data, err := s.FS.Download(ctx, obj)
		if err != nil {
			cleanup()
			return "", nil, fmt.Errorf("convert: download %s: %w", obj.URL(), err)
		}
		if err := os.WriteFile(filepath.Join(dir, obj.Name()), data, 0o644); err != nil {
			cleanup()
			return "", nil, err
		}
		n++
	}
	if n == 0 {
		cleanup()
		return "", nil, fmt.Errorf("convert: %s: %w", src, os.ErrNotExist)
	}
	logging.L().Debug("source staged", "source", src, "files", n, "dir", dir)
	return dir, cleanup, nil
}

// afsSink uploads each file of a dump under base when it is closed.
type afsSink struct {
	ctx  context.Context
	fs   afs.Service
	base string
}

func (a *afsSink) Create(name string) (io.WriteCloser, error) {
	return &afsUpload{sink: a, target: url.Join(a.base, path.Base(name))}, nil
}

type afsUpload struct {
	sink   *afsSink
	target string
	buf    bytes.Buffer
}

func (u *afsUpload) Write(p []byte) (int, error) { return u.buf.Write(p) }

func (u *afsUpload) Close() error {
	if err := u.sink.fs.Upload(u.sink.ctx, u.target, 0o644, &u.buf); err != nil {
		return fmt.Errorf("upload %s: %w", u.target, err)
	}
	return nil
}

func normalize(u string) string {
	return url.Normalize(u, file.Scheme)
}

// IsDocument reports whether u names a document rather than a tabular
// directory.
func IsDocument(u string) bool {
	return strings.EqualFold(path.Ext(url.Path(u)), ".json")
}
