package validate

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isacore/pkg/isa"
	"isacore/pkg/isajson"
	"isacore/pkg/isatab"
)

func lines(rows ...string) string { return strings.Join(rows, "\n") + "\n" }

type fixture struct {
	sources     string
	releaseDate string
	factors     string
	assays      []string
	protocols   []string
}

// investigationFile renders an investigation with contacts and design
// descriptors in place so only what a test varies produces warnings.
func (f fixture) investigationFile() string {
	rows := []string{
		"ONTOLOGY SOURCE REFERENCE", f.sources,
		"INVESTIGATION",
		"Investigation Identifier\tI1",
		"Investigation Title\tT",
		"Investigation Public Release Date\t2024-01-01",
		"INVESTIGATION PUBLICATIONS",
		"INVESTIGATION CONTACTS",
		"Investigation Person Last Name\tDoe",
		"Investigation Person First Name\tJane",
		"STUDY",
		"Study Identifier\tS1",
		"Study File Name\ts_S1.txt",
		"Study Public Release Date\t" + f.releaseDate,
		"STUDY DESIGN DESCRIPTORS",
		"Study Design Type\tintervention design",
		"STUDY PUBLICATIONS",
		"STUDY FACTORS", f.factors,
		"STUDY ASSAYS",
	}
	rows = append(rows, f.assays...)
	rows = append(rows, "STUDY PROTOCOLS")
	rows = append(rows, f.protocols...)
	rows = append(rows, "STUDY CONTACTS", "Study Person Last Name\tDoe")
	return lines(rows...)
}

func tabularDir(f fixture, tables map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{"i_investigation.txt": {Data: []byte(f.investigationFile())}}
	for name, data := range tables {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

var minimalStudy = lines("Source Name\tSample Name", "src1\tsam1")

func released() fixture { return fixture{releaseDate: "2024-01-01"} }

func codes(list []Diagnostic) []Code {
	out := make([]Code, len(list))
	for i, d := range list {
		out[i] = d.Code
	}
	return out
}

func hasCode(rep *Report, code Code) bool {
	for _, d := range rep.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}

func find(rep *Report, code Code) Diagnostic {
	for _, d := range rep.Diagnostics {
		if d.Code == code {
			return d
		}
	}
	return Diagnostic{}
}

func TestMissingStudyReleaseDate(t *testing.T) {
	fsys := tabularDir(fixture{}, map[string]string{"s_S1.txt": minimalStudy})
	rep := New(nil).ValidateFS(fsys, "study")

	assert.Empty(t, rep.Errors())
	warnings := rep.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, CodeMissingReleaseDate, warnings[0].Code)
	assert.Equal(t, SeverityWarning, warnings[0].Severity)
	assert.Equal(t, "i_investigation.txt", warnings[0].Location.File)
	assert.Contains(t, warnings[0].Message, "S1")
	assert.False(t, rep.HasErrors())
}

func TestCleanArtifact(t *testing.T) {
	fsys := tabularDir(released(), map[string]string{"s_S1.txt": minimalStudy})
	rep := New(nil).ValidateFS(fsys, "clean")
	assert.Empty(t, rep.Errors())
	assert.Empty(t, rep.Warnings())
	require.Len(t, rep.Debug(), 1)
	assert.Equal(t, CodeSummary, rep.Debug()[0].Code)
	assert.Contains(t, rep.Debug()[0].Message, "1 studies")
}

func TestCharacteristicUnitWithDeclaredSource(t *testing.T) {
	f := released()
	f.sources = "Term Source Name\tUO"
	study := lines(
		"Source Name\tCharacteristics[mass]\tUnit\tTerm Source REF\tTerm Accession Number\tSample Name",
		"src1\t70\tkg\tUO\thttp://purl.obolibrary.org/obo/UO_0000009\tsam1",
	)
	configs := &ConfigSet{Study: &Config{Name: "study", Study: true, Columns: []ColumnRule{
		{Header: "Characteristics[mass]", Required: true, Unit: true},
	}}}
	rep := New(configs).ValidateFS(tabularDir(f, map[string]string{"s_S1.txt": study}), "unit")
	assert.Empty(t, rep.Errors())
	assert.False(t, hasCode(rep, CodeUnusedSource))
}

func TestUnusedOntologySource(t *testing.T) {
	f := released()
	f.sources = "Term Source Name\tUO"
	rep := New(nil).ValidateFS(tabularDir(f, map[string]string{"s_S1.txt": minimalStudy}), "unused")
	assert.Equal(t, []Code{CodeUnusedSource}, codes(rep.Warnings()))
	assert.Contains(t, rep.Warnings()[0].Message, `"UO"`)
}

func TestNumericValueWithoutUnit(t *testing.T) {
	study := lines(
		"Source Name\tCharacteristics[mass]\tSample Name",
		"src1\t70\tsam1",
	)
	configs := &ConfigSet{Study: &Config{Name: "study", Study: true, Columns: []ColumnRule{
		{Header: "Characteristics[mass]", Unit: true},
	}}}
	rep := New(configs).ValidateFS(tabularDir(released(), map[string]string{"s_S1.txt": study}), "nounit")
	require.Equal(t, []Code{CodeMissingUnit}, codes(rep.Errors()))
	loc := rep.Errors()[0].Location
	assert.Equal(t, Location{File: "s_S1.txt", Row: 2, Column: 2}, loc)
}

func TestFactorValueOnSource(t *testing.T) {
	f := released()
	f.factors = "Study Factor Name\tdose"
	study := lines(
		"Source Name\tFactor Value[dose]\tSample Name",
		"src1\t5\tsam1",
	)
	rep := New(nil).ValidateFS(tabularDir(f, map[string]string{"s_S1.txt": study}), "factor")
	assert.True(t, hasCode(rep, CodeFactorOnNonSample))
	assert.Equal(t, SeverityError, find(rep, CodeFactorOnNonSample).Severity)
	assert.Equal(t, "s_S1.txt", find(rep, CodeFactorOnNonSample).Location.File)
}

func TestUndeclaredReferences(t *testing.T) {
	study := lines(
		"Source Name\tProtocol REF\tSample Name\tFactor Value[dose]",
		"src1\tghost\tsam1\t5",
	)
	rep := New(nil).ValidateFS(tabularDir(released(), map[string]string{"s_S1.txt": study}), "refs")
	errs := codes(rep.Errors())
	assert.Contains(t, errs, CodeUndeclaredProtocol)
	assert.Contains(t, errs, CodeUndeclaredFactor)
	assert.Contains(t, find(rep, CodeUndeclaredProtocol).Message, `"ghost"`)
	assert.Equal(t, "s_S1.txt", find(rep, CodeUndeclaredFactor).Location.File)
}

func TestUndeclaredSourceInInvestigationFields(t *testing.T) {
	f := released()
	f.protocols = []string{
		"Study Protocol Name\textraction",
		"Study Protocol Type\tnucleic acid extraction",
		"Study Protocol Type Term Source REF\tOBI",
	}
	study := lines("Source Name\tProtocol REF\tSample Name", "src1\textraction\tsam1")
	rep := New(nil).ValidateFS(tabularDir(f, map[string]string{"s_S1.txt": study}), "osr")
	assert.Equal(t, []Code{CodeUndeclaredSource}, codes(rep.Errors()))
	assert.Equal(t, "i_investigation.txt", rep.Errors()[0].Location.File)
}

func TestNoInvestigationFile(t *testing.T) {
	rep := New(nil).ValidateFS(fstest.MapFS{}, "empty")
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, CodeInvestigationFile, rep.Diagnostics[0].Code)
	assert.True(t, rep.HasErrors())
}

func TestMissingStudyTable(t *testing.T) {
	rep := New(nil).ValidateFS(tabularDir(released(), nil), "missing")
	assert.Contains(t, codes(rep.Errors()), CodeMissingTable)
}

func sequencingAssay(measurement, technology string) []string {
	return []string{
		"Study Assay File Name\ta_S1.txt",
		"Study Assay Measurement Type\t" + measurement,
		"Study Assay Technology Type\t" + technology,
	}
}

var sequencingTable = lines(
	"Sample Name\tProtocol REF\tExtract Name\tProtocol REF\tAssay Name\tRaw Data File",
	"sam1\textraction\te1\tsequencing\trun1\tr1.fq",
)

func assayDir(measurement, technology, secondType string) fstest.MapFS {
	f := released()
	f.assays = sequencingAssay(measurement, technology)
	f.protocols = []string{
		"Study Protocol Name\textraction\tsequencing",
		"Study Protocol Type\tnucleic acid extraction\t" + secondType,
	}
	return tabularDir(f, map[string]string{"s_S1.txt": minimalStudy, "a_S1.txt": sequencingTable})
}

func TestAssayConfigurationApplied(t *testing.T) {
	rep := New(nil).ValidateFS(assayDir("transcription profiling", "nucleotide sequencing", "nucleic acid sequencing"), "assay")
	assert.Empty(t, rep.Errors())
	assert.Empty(t, rep.Warnings())
	require.Equal(t, []Code{CodeConfigurationApplied}, codes(rep.Info()))
	assert.Equal(t, "a_S1.txt", rep.Info()[0].Location.File)
}

func TestAssayTypeMatchIgnoresCase(t *testing.T) {
	rep := New(nil).ValidateFS(assayDir("Transcription Profiling", "Nucleotide Sequencing", "nucleic acid sequencing"), "assay")
	assert.Equal(t, []Code{CodeConfigurationApplied}, codes(rep.Info()))
}

func TestProtocolSequenceMismatch(t *testing.T) {
	rep := New(nil).ValidateFS(assayDir("transcription profiling", "nucleotide sequencing", "library construction"), "assay")
	require.Equal(t, []Code{CodeProtocolSequence}, codes(rep.Errors()))
	msg := rep.Errors()[0].Message
	assert.Contains(t, msg, "nucleic acid extraction, library construction")
	assert.Contains(t, msg, "nucleic acid extraction, nucleic acid sequencing")
}

func TestUnconfiguredAssayType(t *testing.T) {
	rep := New(nil).ValidateFS(assayDir("cell counting", "flow cytometry", "nucleic acid sequencing"), "assay")
	assert.Empty(t, rep.Errors())
	assert.Equal(t, []Code{CodeNoConfiguration}, codes(rep.Warnings()))
	assert.Empty(t, rep.Info())
}

func TestCustomAssayConfiguration(t *testing.T) {
	configs := &ConfigSet{Assays: []*Config{{
		Name:         "strict sequencing",
		Measurement:  "transcription profiling",
		Technology:   "nucleotide sequencing",
		Columns:      []ColumnRule{{Header: "Parameter Value[read length]", Required: true}},
		AllowedNodes: []string{"Sample Name", "Raw Data File"},
	}}}
	rep := New(configs).ValidateFS(assayDir("transcription profiling", "nucleotide sequencing", "nucleic acid sequencing"), "assay")
	assert.Equal(t, []Code{CodeMissingColumn, CodeNodeNotAllowed}, codes(rep.Errors()))
	assert.Equal(t, Location{File: "a_S1.txt", Row: 1}, find(rep, CodeMissingColumn).Location)
	assert.Contains(t, find(rep, CodeNodeNotAllowed).Message, "Extract Name")
}

func TestEmptyRequiredValue(t *testing.T) {
	configs := &ConfigSet{Study: &Config{Name: "study", Study: true, Columns: []ColumnRule{
		{Header: "Characteristics[organism]", Required: true, NotEmpty: true},
	}}}
	study := lines(
		"Source Name\tCharacteristics[organism]\tSample Name",
		"src1\tmouse\tsam1",
		"src2\t\tsam2",
	)
	rep := New(configs).ValidateFS(tabularDir(released(), map[string]string{"s_S1.txt": study}), "empty")
	require.Equal(t, []Code{CodeEmptyValue}, codes(rep.Errors()))
	assert.Equal(t, 3, rep.Errors()[0].Location.Row)
}

func TestEmptyRequiredColumnIsNotMissing(t *testing.T) {
	configs := &ConfigSet{Study: &Config{Name: "study", Study: true, Columns: []ColumnRule{
		{Header: "Performer", Required: true},
	}}}
	f := released()
	f.protocols = []string{"Study Protocol Name\tsampling"}
	study := lines(
		"Source Name\tProtocol REF\tPerformer\tSample Name",
		"src1\tsampling\t\tsam1",
		"src2\tsampling\t\tsam2",
	)
	rep := New(configs).ValidateFS(tabularDir(f, map[string]string{"s_S1.txt": study}), "empty column")
	require.Equal(t, []Code{CodeEmptyValue, CodeEmptyValue}, codes(rep.Errors()))
	assert.Equal(t, Location{File: "s_S1.txt", Row: 2, Column: 3}, rep.Errors()[0].Location)

	without := lines("Source Name\tProtocol REF\tSample Name", "src1\tsampling\tsam1")
	rep = New(configs).ValidateFS(tabularDir(f, map[string]string{"s_S1.txt": without}), "no column")
	assert.Equal(t, []Code{CodeMissingColumn}, codes(rep.Errors()))

	res, err := isatab.LoadFS(tabularDir(f, map[string]string{"s_S1.txt": study}), isatab.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Source Name", "Protocol REF", "Performer", "Sample Name"}, res.Headers["s_S1.txt"])
	rep = New(configs).ValidateInvestigation(res.Investigation, FormTabular, "memory", res.Issues)
	assert.Equal(t, []Code{CodeMissingColumn}, codes(rep.Errors()), "an in-memory investigation has no header to consult")
}

func TestSampleWithoutSource(t *testing.T) {
	configs := &ConfigSet{}
	study := lines("Sample Name", "sam1")
	rep := New(configs).ValidateFS(tabularDir(released(), map[string]string{"s_S1.txt": study}), "orphan")
	assert.Equal(t, []Code{CodeSampleWithoutSource}, codes(rep.Errors()))
}

func TestValidationIsIdempotent(t *testing.T) {
	f := fixture{sources: "Term Source Name\tUO"}
	study := lines(
		"Source Name\tProtocol REF\tSample Name\tFactor Value[dose]",
		"src1\tghost\tsam1\t5",
		"src2\tghost\tsam2\t7",
	)
	fsys := tabularDir(f, map[string]string{"s_S1.txt": study})
	v := New(nil)
	first := v.ValidateFS(fsys, "again")
	second := v.ValidateFS(fsys, "again")
	assert.Equal(t, first, second)
	assert.Equal(t, first.String(), second.String())
}

func TestValidationDoesNotModify(t *testing.T) {
	res, err := isatab.LoadFS(tabularDir(released(), map[string]string{"s_S1.txt": minimalStudy}), isatab.Options{})
	require.NoError(t, err)
	before, err := isa.Canonical(res.Investigation)
	require.NoError(t, err)

	v := New(nil)
	first := v.ValidateInvestigation(res.Investigation, FormTabular, "memory", res.Issues)
	second := v.ValidateInvestigation(res.Investigation, FormTabular, "memory", res.Issues)
	assert.Equal(t, first, second)

	after, err := isa.Canonical(res.Investigation)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFormsAgree(t *testing.T) {
	fsys := assayDir("transcription profiling", "nucleotide sequencing", "library construction")
	res, err := isatab.LoadFS(fsys, isatab.Options{})
	require.NoError(t, err)
	var doc bytes.Buffer
	require.NoError(t, isajson.Write(&doc, res.Investigation))

	v := New(nil)
	tab := v.ValidateFS(fsys, "tabular")
	js := v.ValidateDocument(&doc, "isa.json")
	assert.Equal(t, codes(tab.Diagnostics), codes(js.Diagnostics))
	assert.Equal(t, "isa.json", find(js, CodeProtocolSequence).Location.File)
	assert.Equal(t, "/studies/0/assays/0", find(js, CodeProtocolSequence).Location.Pointer)
}

func TestDocumentDanglingIdentifier(t *testing.T) {
	doc := `{"identifier": "I1", "studies": [{"identifier": "S1",
		"processSequence": [{"executesProtocol": {"@id": "#protocol/9"}, "inputs": [], "outputs": []}]}]}`
	rep := Validate(strings.NewReader(doc), nil)
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, CodeUnreadable, rep.Diagnostics[0].Code)
	assert.Contains(t, rep.Diagnostics[0].Message, "#protocol/9")
}

func TestDocumentFactorValueOnSource(t *testing.T) {
	doc := `{"identifier": "I1", "studies": [{"identifier": "S1",
		"factors": [{"@id": "#f", "factorName": "dose"}],
		"materials": {"sources": [{"name": "src1", "factorValues": [{"category": {"@id": "#f"}, "value": 5}]}]}}]}`
	rep := New(nil).ValidateDocument(strings.NewReader(doc), "bad.json")
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, CodeFactorOnNonSample, rep.Diagnostics[0].Code)
	assert.Equal(t, "bad.json", rep.Diagnostics[0].Location.File)
}

func TestDocumentUndeclaredTermSource(t *testing.T) {
	doc := `{"identifier": "I1", "publicReleaseDate": "2024-01-01", "studies": [{"identifier": "S1",
		"studyDesignDescriptors": [{"annotationValue": "intervention", "termSource": "OBI", "termAccession": ""}]}]}`
	rep := New(&ConfigSet{}).ValidateDocument(strings.NewReader(doc), "osr.json")
	require.Equal(t, []Code{CodeUndeclaredSource}, codes(rep.Errors()))
	assert.Equal(t, "/studies/0", rep.Errors()[0].Location.Pointer)
}

func TestReportOrder(t *testing.T) {
	res := Result{}
	res.add(newDiagnostic("t", CodeSummary, Location{File: "i.txt"}, "summary"))
	res.add(newDiagnostic("t", CodeUnusedSource, Location{File: "i.txt"}, "b"))
	res.add(newDiagnostic("t", CodeCycle, Location{File: "s.txt"}, "cycle"))
	res.add(newDiagnostic("t", CodeUnusedSource, Location{File: "i.txt"}, "a"))
	res.add(newDiagnostic("t", CodeUnreadable, Location{File: "s.txt", Row: 4}, "late"))
	res.add(newDiagnostic("t", CodeUnreadable, Location{File: "s.txt", Row: 2}, "early"))
	res.add(newDiagnostic("t", CodeConfigurationApplied, Location{File: "a.txt"}, "info"))

	rep := newReport(res)
	var got []string
	for _, d := range rep.Diagnostics {
		got = append(got, d.Message)
	}
	assert.Equal(t, []string{"early", "late", "cycle", "a", "b", "info", "summary"}, got)

	var text bytes.Buffer
	require.NoError(t, rep.WriteText(&text, SeverityWarning))
	assert.Equal(t, 5, strings.Count(text.String(), "\n"))
	assert.True(t, strings.HasPrefix(text.String(), "ERROR 1001 s.txt:2: early\n"))
}

func TestCodeSeverities(t *testing.T) {
	for code, info := range codeInfo {
		switch {
		case code < 5000:
			assert.Equal(t, SeverityError, info.severity, code)
		case code < 6000:
			assert.Equal(t, SeverityWarning, info.severity, code)
		case code < 7000:
			assert.Equal(t, SeverityInfo, info.severity, code)
		default:
			assert.Equal(t, SeverityDebug, info.severity, code)
		}
		assert.NotEmpty(t, code.Meaning())
	}
}

func TestEngineRegistration(t *testing.T) {
	assert.Equal(t,
		[]string{"parse_issues", "references", "graph", "conventions", "configuration", "summary"},
		NewDefaultRulesEngine().Rules())

	engine := NewRulesEngine()
	engine.Register(SummaryRule())
	rep := (&Validator{Engine: engine}).ValidateFS(tabularDir(fixture{}, map[string]string{"s_S1.txt": minimalStudy}), "summary")
	assert.Equal(t, []Code{CodeSummary}, rep.Codes())
}
