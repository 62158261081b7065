package validate

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Severity grades a diagnostic.
type Severity string

// Report severities, most severe first.
const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
	SeverityDebug   Severity = "DEBUG"
)

func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// Code identifies the kind of a diagnostic. Each check emits one code.
type Code int

// Diagnostic codes.
const (
	CodeUnreadable           Code = 1001
	CodeInvestigationFile    Code = 1002
	CodeMissingSection       Code = 1003
	CodeMissingTable         Code = 1004
	CodeMissingColumn        Code = 1005
	CodeEmptyValue           Code = 1006
	CodeProtocolSequence     Code = 1007
	CodeFactorOnNonSample    Code = 1008
	CodeNodeNotAllowed       Code = 1009
	CodeUndeclaredProtocol   Code = 2001
	CodeUndeclaredSource     Code = 2002
	CodeUndeclaredFactor     Code = 2003
	CodeUndeclaredSample     Code = 2004
	CodeSampleWithoutSource  Code = 3001
	CodeFileWithoutSample    Code = 3002
	CodeCycle                Code = 3003
	CodeMissingUnit          Code = 4001
	CodeValueSource          Code = 4002
	CodeUnknownColumn        Code = 5001
	CodeMissingReleaseDate   Code = 5002
	CodeMissingContacts      Code = 5003
	CodeMissingDesign        Code = 5004
	CodeUnusedProtocol       Code = 5005
	CodeUnusedSource         Code = 5006
	CodeProcessConflict      Code = 5007
	CodeNoConfiguration      Code = 5008
	CodeConfigurationApplied Code = 6001
	CodeSummary              Code = 7001
)

var codeInfo = map[Code]struct {
	severity Severity
	meaning  string
}{
	CodeUnreadable:           {SeverityError, "artifact unreadable"},
	CodeInvestigationFile:    {SeverityError, "investigation file missing or ambiguous"},
	CodeMissingSection:       {SeverityError, "required investigation section missing"},
	CodeMissingTable:         {SeverityError, "study or assay file missing"},
	CodeMissingColumn:        {SeverityError, "required column missing"},
	CodeEmptyValue:           {SeverityError, "required value empty"},
	CodeProtocolSequence:     {SeverityError, "protocol sequence does not match configuration"},
	CodeFactorOnNonSample:    {SeverityError, "factor value attached to a non-sample node"},
	CodeNodeNotAllowed:       {SeverityError, "node type not allowed by configuration"},
	CodeUndeclaredProtocol:   {SeverityError, "undeclared protocol"},
	CodeUndeclaredSource:     {SeverityError, "undeclared ontology source"},
	CodeUndeclaredFactor:     {SeverityError, "undeclared factor"},
	CodeUndeclaredSample:     {SeverityError, "assay sample not declared in study"},
	CodeSampleWithoutSource:  {SeverityError, "sample not derived from any source"},
	CodeFileWithoutSample:    {SeverityError, "data file not derived from any sample"},
	CodeCycle:                {SeverityError, "experimental graph has a cycle"},
	CodeMissingUnit:          {SeverityError, "numeric value missing a required unit"},
	CodeValueSource:          {SeverityError, "annotation value references undeclared ontology source"},
	CodeUnknownColumn:        {SeverityWarning, "unknown column"},
	CodeMissingReleaseDate:   {SeverityWarning, "missing public release date"},
	CodeMissingContacts:      {SeverityWarning, "missing contacts"},
	CodeMissingDesign:        {SeverityWarning, "missing study design descriptors"},
	CodeUnusedProtocol:       {SeverityWarning, "unused protocol"},
	CodeUnusedSource:         {SeverityWarning, "unused ontology source"},
	CodeProcessConflict:      {SeverityWarning, "process identity conflict"},
	CodeNoConfiguration:      {SeverityWarning, "no configuration for assay type"},
	CodeConfigurationApplied: {SeverityInfo, "configuration applied to assay"},
	CodeSummary:              {SeverityDebug, "artifact summary"},
}

// Severity returns the fixed severity of the code.
func (c Code) Severity() Severity {
	if info, ok := codeInfo[c]; ok {
		return info.severity
	}
	return SeverityError
}

// Meaning returns a short description of the code.
func (c Code) Meaning() string { return codeInfo[c].meaning }

// Location points at the origin of a diagnostic: a file with optional row
// and column, or a JSON pointer into a document.
type Location struct {
	File    string `json:"file,omitempty"`
	Row     int    `json:"row,omitempty"`
	Column  int    `json:"column,omitempty"`
	Pointer string `json:"pointer,omitempty"`
}

func (l Location) String() string {
	var b strings.Builder
	b.WriteString(l.File)
	if l.Row > 0 {
		fmt.Fprintf(&b, ":%d", l.Row)
		if l.Column > 0 {
			fmt.Fprintf(&b, ":%d", l.Column)
		}
	}
	if l.Pointer != "" {
		b.WriteString("#" + l.Pointer)
	}
	return b.String()
}

// Diagnostic is one finding.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Location Location `json:"location"`
	Rule     string   `json:"rule,omitempty"`
}

func newDiagnostic(rule string, code Code, loc Location, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: code.Severity(),
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
		Rule:     rule,
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %d %s: %s", d.Severity, d.Code, d.Location, d.Message)
}

// Result aggregates the diagnostics of one rule.
type Result struct {
	Diagnostics []Diagnostic
}

// Merge appends the diagnostics of another result.
func (r *Result) Merge(other Result) {
	if len(other.Diagnostics) == 0 {
		return
	}
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

func (r *Result) add(d Diagnostic) { r.Diagnostics = append(r.Diagnostics, d) }

// Report is the sorted outcome of a validation.
type Report struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

func newReport(res Result) *Report {
	list := append([]Diagnostic(nil), res.Diagnostics...)
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() < b.Severity.rank()
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Location.File != b.Location.File {
			return a.Location.File < b.Location.File
		}
		if a.Location.Row != b.Location.Row {
			return a.Location.Row < b.Location.Row
		}
		if a.Location.Column != b.Location.Column {
			return a.Location.Column < b.Location.Column
		}
		if a.Location.Pointer != b.Location.Pointer {
			return a.Location.Pointer < b.Location.Pointer
		}
		return a.Message < b.Message
	})
	return &Report{Diagnostics: list}
}

func (r *Report) filter(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns the ERROR diagnostics.
func (r *Report) Errors() []Diagnostic { return r.filter(SeverityError) }

// Warnings returns the WARNING diagnostics.
func (r *Report) Warnings() []Diagnostic { return r.filter(SeverityWarning) }

// Info returns the INFO diagnostics.
func (r *Report) Info() []Diagnostic { return r.filter(SeverityInfo) }

// Debug returns the DEBUG diagnostics.
func (r *Report) Debug() []Diagnostic { return r.filter(SeverityDebug) }

// HasErrors reports whether any ERROR diagnostic is present.
func (r *Report) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Codes returns the code of every diagnostic in report order.
func (r *Report) Codes() []Code {
	out := make([]Code, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		out[i] = d.Code
	}
	return out
}

// Count returns the number of diagnostics per severity.
func (r *Report) Count() map[Severity]int {
	out := make(map[Severity]int, 4)
	for _, d := range r.Diagnostics {
		out[d.Severity]++
	}
	return out
}

// WriteText writes one line per diagnostic at or above min.
func (r *Report) WriteText(w io.Writer, min Severity) error {
	for _, d := range r.Diagnostics {
		if d.Severity.rank() > min.rank() {
			continue
		}
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
	}
	return nil
}
