package validate

import "isacore/pkg/isatab"

// ParseIssuesRule reports the recoverable problems the tabular parser
// recorded while reading the artifact.
func ParseIssuesRule() Rule {
	return parseIssuesRule{}
}

type parseIssuesRule struct{}

func (parseIssuesRule) Name() string { return "parse_issues" }

var issueCodes = map[isatab.IssueKind]Code{
	isatab.IssueUnknownColumn:     CodeUnknownColumn,
	isatab.IssueUnknownField:      CodeUnknownColumn,
	isatab.IssueUnknownSection:    CodeUnknownColumn,
	isatab.IssueFactorOnNonSample: CodeFactorOnNonSample,
	isatab.IssueProcessConflict:   CodeProcessConflict,
	isatab.IssueLinkConflict:      CodeProcessConflict,
	isatab.IssueMissingSection:    CodeMissingSection,
	isatab.IssueMissingTable:      CodeMissingTable,
	isatab.IssueUnreadableTable:   CodeUnreadable,
	isatab.IssueAmbiguous:         CodeInvestigationFile,
}

func (r parseIssuesRule) Evaluate(art *Artifact) Result {
	res := Result{}
	for _, is := range art.Issues {
		code, ok := issueCodes[is.Kind]
		if !ok {
			code = CodeUnknownColumn
		}
		loc := Location{File: is.File, Row: is.Line, Column: is.Column}
		res.add(newDiagnostic(r.Name(), code, loc, "%s: %s", is.Kind, is.Msg))
	}
	return res
}
