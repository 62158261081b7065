package isatab

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"isacore/internal/logging"
	"isacore/pkg/graph"
	"isacore/pkg/isa"
)

// LoadResult is a parsed tabular directory.
type LoadResult struct {
	Investigation *isa.Investigation
	Issues        []Issue
	// Quoted reports whether any file used quoted cells.
	Quoted bool
	// Headers holds the header row of every table file as read.
	Headers map[string][]string
}

// Load parses the tabular directory dir.
func Load(dir string, opts Options) (*LoadResult, error) {
	return LoadFS(os.DirFS(dir), opts)
}

// LoadFS parses a tabular directory: exactly one i_*.txt file plus the study
// and assay tables it names. Derivations are resolved and unused synthetic
// protocols pruned before returning.
func LoadFS(fsys fs.FS, opts Options) (*LoadResult, error) {
	is := &issues{}
	name, err := findInvestigation(fsys, opts, is)
	if err != nil {
		return nil, err
	}
	recs, quoted, err := readFile(fsys, name)
	if err != nil {
		return nil, err
	}
	inv, res, err := parseInvestigation(recs, name, opts, is)
	if err != nil {
		return nil, err
	}
	out := &LoadResult{Investigation: inv, Quoted: quoted, Headers: make(map[string][]string)}

	for _, s := range inv.Studies {
		q, err := loadTable(fsys, s.Filename, "study "+s.Identifier, res, s, nil, opts, is, out.Headers)
		if err != nil {
			return nil, err
		}
		out.Quoted = out.Quoted || q
		for _, a := range s.Assays {
			q, err := loadTable(fsys, a.Filename, "assay of study "+s.Identifier, res, s, a, opts, is, out.Headers)
			if err != nil {
				return nil, err
			}
			out.Quoted = out.Quoted || q
		}
	}

	inv.PruneSyntheticProtocols()
	for _, s := range inv.Studies {
		graph.ResolveDerivations(s)
	}
	out.Issues = is.list
	logging.L().Debug("tabular directory loaded", "investigation", inv.Identifier, "studies", len(inv.Studies), "issues", len(out.Issues))
	return out, nil
}

func findInvestigation(fsys fs.FS, opts Options, is *issues) (string, error) {
	names, err := fs.Glob(fsys, "i_*.txt")
	if err != nil {
		return "", fmt.Errorf("isatab: list investigation files: %w", err)
	}
	sort.Strings(names)
	switch {
	case len(names) == 0:
		return "", &isa.ParseError{Msg: "no i_*.txt investigation file"}
	case len(names) > 1 && !opts.Lenient:
		return "", &isa.ParseError{File: names[0], Msg: fmt.Sprintf("%d investigation files, expected exactly one", len(names))}
	case len(names) > 1:
		is.add(IssueAmbiguous, names[0], 0, 0, "%d investigation files; using %s", len(names), names[0])
	}
	return names[0], nil
}

func readFile(fsys fs.FS, name string) ([]record, bool, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, false, fmt.Errorf("isatab: open %s: %w", name, err)
	}
	defer f.Close()
	return readRecords(f, name)
}

func loadTable(fsys fs.FS, name, owner string, res *resolver, s *isa.Study, a *isa.Assay, opts Options, is *issues, headers map[string][]string) (bool, error) {
	if name == "" {
		if !opts.Lenient {
			return false, &isa.ParseError{Msg: owner + " names no table file"}
		}
		is.add(IssueMissingTable, "", 0, 0, "%s names no table file", owner)
		return false, nil
	}
	recs, quoted, err := readFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		if !opts.Lenient {
			return false, &isa.ParseError{File: name, Msg: "table file missing", Err: err}
		}
		is.add(IssueMissingTable, name, 0, 0, "%s table file is missing", owner)
		return false, nil
	}
	if err == nil {
		if len(recs) > 0 {
			headers[name] = recs[0].Cells
		}
		err = assembleTable(recs, name, res, s, a, opts, is)
	}
	if err != nil && opts.Lenient && errors.Is(err, isa.ErrParse) {
		is.add(IssueUnreadableTable, name, 0, 0, "%v", err)
		return quoted, nil
	}
	return quoted, err
}

// Sink receives the files of a dump.
type Sink interface {
	Create(name string) (io.WriteCloser, error)
}

// DirSink writes files into a directory, creating it when needed.
type DirSink string

// Create implements Sink.
func (d DirSink) Create(name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(string(d), 0o755); err != nil {
		return nil, fmt.Errorf("isatab: create %s: %w", d, err)
	}
	f, err := os.Create(filepath.Join(string(d), filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("isatab: create %s: %w", name, err)
	}
	return f, nil
}

// Dump writes inv as a tabular directory under dir.
func Dump(inv *isa.Investigation, dir string, opts WriteOptions) error {
	return DumpTo(DirSink(dir), inv, opts)
}

// DumpTo writes the investigation file, then every study table followed by
// its assay tables, in declaration order.
func DumpTo(sink Sink, inv *isa.Investigation, opts WriteOptions) error {
	inv.PruneSyntheticProtocols()
	err := writeFile(sink, InvestigationFileName(inv), func(w io.Writer) error {
		return WriteInvestigation(w, inv, opts)
	})
	if err != nil {
		return err
	}
	for _, s := range inv.Studies {
		if err := writeFile(sink, StudyFileName(s), func(w io.Writer) error {
			return WriteStudyTable(w, s, opts)
		}); err != nil {
			return err
		}
		for i, a := range s.Assays {
			if err := writeFile(sink, AssayFileName(s, i), func(w io.Writer) error {
				return WriteAssayTable(w, a, opts)
			}); err != nil {
				return err
			}
		}
	}
	logging.L().Debug("tabular directory written", "investigation", inv.Identifier, "studies", len(inv.Studies))
	return nil
}

func writeFile(sink Sink, name string, fn func(io.Writer) error) (err error) {
	w, err := sink.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("isatab: close %s: %w", name, cerr)
		}
	}()
	if err := fn(w); err != nil {
		return fmt.Errorf("isatab: write %s: %w", name, err)
	}
	return nil
}
