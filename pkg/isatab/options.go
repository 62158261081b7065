// Package isatab reads and writes the tabular form of an investigation: one
// sectioned investigation file plus one wide table per study and per assay.
package isatab

import "fmt"

// Options tunes parsing.
type Options struct {
	// Lenient materializes dangling references as unregistered placeholder
	// entities and records table-level problems as issues instead of
	// aborting. The validator parses in this mode.
	Lenient bool
}

// WriteOptions tunes writing.
type WriteOptions struct {
	// Quote wraps every cell in double quotes.
	Quote bool
	// Compact omits investigation rows whose values are all empty.
	Compact bool
}

// IssueKind classifies a recoverable problem met while parsing.
type IssueKind string

// Issue kinds.
const (
	IssueUnknownColumn     IssueKind = "unknown column"
	IssueFactorOnNonSample IssueKind = "factor value on non-sample node"
	IssueProcessConflict   IssueKind = "process identity conflict"
	IssueLinkConflict      IssueKind = "process link conflict"
	IssueUnknownSection    IssueKind = "unknown section"
	IssueMissingSection    IssueKind = "missing section"
	IssueUnknownField      IssueKind = "unknown field"
	IssueMissingTable      IssueKind = "missing table"
	IssueUnreadableTable   IssueKind = "unreadable table"
	IssueAmbiguous         IssueKind = "ambiguous investigation file"
)

// Issue is a recoverable problem found while parsing.
type Issue struct {
	Kind   IssueKind
	File   string
	Line   int
	Column int
	Msg    string
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", i.File, i.Line, i.Kind, i.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", i.File, i.Kind, i.Msg)
}

type issues struct {
	list []Issue
}

func (is *issues) add(kind IssueKind, file string, line, col int, format string, args ...any) {
	is.list = append(is.list, Issue{Kind: kind, File: file, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)})
}
