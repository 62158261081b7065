// Package validate checks investigations against structural, referential,
// graph and convention rules plus configuration-driven requirements per
// measurement/technology pair. Findings are returned in a sorted Report;
// validation never fails and never modifies the investigation.
package validate

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"isacore/internal/logging"
	"isacore/pkg/isa"
	"isacore/pkg/isajson"
	"isacore/pkg/isatab"
)

// Validator runs a rules engine with a configuration set.
type Validator struct {
	Configs *ConfigSet
	Engine  *RulesEngine
}

// New returns a validator with the default rules. A nil set selects the
// built-in configurations.
func New(configs *ConfigSet) *Validator {
	if configs == nil {
		configs = DefaultConfigs()
	}
	return &Validator{Configs: configs, Engine: NewDefaultRulesEngine()}
}

// Validate reads a document from r and validates it.
func Validate(r io.Reader, configs *ConfigSet) *Report {
	return New(configs).ValidateDocument(r, "")
}

// ValidateDir validates the tabular directory dir.
func (v *Validator) ValidateDir(dir string) *Report {
	return v.ValidateFS(os.DirFS(dir), dir)
}

// ValidateFS validates a tabular directory. The parser runs leniently so
// dangling references and table problems surface as diagnostics.
func (v *Validator) ValidateFS(fsys fs.FS, name string) *Report {
	names, err := fs.Glob(fsys, "i_*.txt")
	if err != nil || len(names) == 0 {
		return v.failed(name, Location{File: name}, CodeInvestigationFile, "no i_*.txt investigation file")
	}
	res, err := isatab.LoadFS(fsys, isatab.Options{Lenient: true})
	if err != nil {
		return v.loadFailed(name, err)
	}
	return v.ValidateLoaded(res, name)
}

// ValidateLoaded validates a parsed tabular directory, checking configured
// columns against the headers as they were read.
func (v *Validator) ValidateLoaded(res *isatab.LoadResult, name string) *Report {
	return v.run(&Artifact{
		Name:          name,
		Form:          FormTabular,
		Investigation: res.Investigation,
		Issues:        res.Issues,
		Headers:       res.Headers,
		Configs:       v.Configs,
	})
}

// ValidateDocument validates a document read from r; name labels locations.
func (v *Validator) ValidateDocument(r io.Reader, name string) *Report {
	inv, err := isajson.Read(r, isajson.Options{Lenient: true, Name: name})
	if err != nil {
		return v.loadFailed(name, err)
	}
	return v.run(&Artifact{Name: name, Form: FormDocument, Investigation: inv, Configs: v.Configs})
}

// ValidateInvestigation validates an investigation already in memory.
func (v *Validator) ValidateInvestigation(inv *isa.Investigation, form Form, name string, issues []isatab.Issue) *Report {
	return v.run(&Artifact{Name: name, Form: form, Investigation: inv, Issues: issues, Configs: v.Configs})
}

func (v *Validator) run(art *Artifact) *Report {
	rep := v.Engine.Evaluate(art)
	counts := rep.Count()
	logging.L().Debug("validation finished", "artifact", art.Name, "form", art.Form.String(),
		"errors", counts[SeverityError], "warnings", counts[SeverityWarning])
	return rep
}

var referenceCodes = map[isa.ReferenceKind]Code{
	isa.RefProtocol:       CodeUndeclaredProtocol,
	isa.RefOntologySource: CodeUndeclaredSource,
	isa.RefFactor:         CodeUndeclaredFactor,
	isa.RefSample:         CodeUndeclaredSample,
	isa.RefIdentifier:     CodeUnreadable,
}

// loadFailed turns a fatal parser error into a one-diagnostic report.
func (v *Validator) loadFailed(name string, err error) *Report {
	var (
		refErr   *isa.ReferenceError
		parseErr *isa.ParseError
	)
	switch {
	case errors.As(err, &refErr):
		code, ok := referenceCodes[refErr.Kind]
		if !ok {
			code = CodeUnreadable
		}
		return v.failed(name, locate(name, refErr.File, refErr.Line, 0), code, err.Error())
	case errors.Is(err, isajson.ErrFactorOnNonSample):
		return v.failed(name, Location{File: name}, CodeFactorOnNonSample, err.Error())
	case errors.As(err, &parseErr):
		return v.failed(name, locate(name, parseErr.File, parseErr.Line, parseErr.Column), CodeUnreadable, err.Error())
	default:
		return v.failed(name, Location{File: name}, CodeUnreadable, err.Error())
	}
}

func locate(name, file string, line, col int) Location {
	if file == "" {
		file = name
	}
	return Location{File: file, Row: line, Column: col}
}

func (v *Validator) failed(name string, loc Location, code Code, msg string) *Report {
	logging.L().Debug("validation aborted", "artifact", name, "code", int(code), "reason", msg)
	return newReport(Result{Diagnostics: []Diagnostic{newDiagnostic("load", code, loc, "%s", msg)}})
}

// String renders the report as text, most severe first.
func (r *Report) String() string {
	var b strings.Builder
	_ = r.WriteText(&b, SeverityDebug)
	return b.String()
}
