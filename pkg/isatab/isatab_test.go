package isatab

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isacore/pkg/isa"
)

func lines(rows ...string) string { return strings.Join(rows, "\n") + "\n" }

const minimalInvestigation = "ONTOLOGY SOURCE REFERENCE\n" +
	"INVESTIGATION\n" +
	"Investigation Identifier\tI1\n" +
	"Investigation Title\tT\n" +
	"INVESTIGATION PUBLICATIONS\n" +
	"INVESTIGATION CONTACTS\n" +
	"STUDY\n" +
	"Study Identifier\tS1\n" +
	"Study File Name\ts_S1.txt\n" +
	"STUDY DESIGN DESCRIPTORS\n" +
	"STUDY PUBLICATIONS\n" +
	"STUDY FACTORS\n" +
	"STUDY ASSAYS\n" +
	"STUDY PROTOCOLS\n" +
	"STUDY CONTACTS\n"

// studyInvestigation returns an investigation file for study S1 with the
// given extra section rows.
func studyInvestigation(sources, factors, assays, protocols string) string {
	return lines(
		"ONTOLOGY SOURCE REFERENCE", sources,
		"INVESTIGATION", "Investigation Identifier\tI1",
		"INVESTIGATION PUBLICATIONS",
		"INVESTIGATION CONTACTS",
		"STUDY", "Study Identifier\tS1", "Study File Name\ts_S1.txt",
		"STUDY DESIGN DESCRIPTORS",
		"STUDY PUBLICATIONS",
		"STUDY FACTORS", factors,
		"STUDY ASSAYS", assays,
		"STUDY PROTOCOLS", protocols,
		"STUDY CONTACTS",
	)
}

func dir(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

func load(t *testing.T, files map[string]string) *LoadResult {
	t.Helper()
	res, err := LoadFS(dir(files), Options{})
	require.NoError(t, err)
	return res
}

func dump(t *testing.T, inv *isa.Investigation, opts WriteOptions) (string, map[string]string) {
	t.Helper()
	out := t.TempDir()
	require.NoError(t, Dump(inv, out, opts))
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	files := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(out, e.Name()))
		require.NoError(t, err)
		files[e.Name()] = string(data)
	}
	return out, files
}

func TestMinimalInvestigationRoundTrip(t *testing.T) {
	study := "Source Name\tSample Name\nsrc1\tsam1\n"
	res := load(t, map[string]string{
		"i_investigation.txt": minimalInvestigation,
		"s_S1.txt":            study,
	})
	inv := res.Investigation
	assert.Equal(t, "I1", inv.Identifier)
	require.Len(t, inv.Studies, 1)
	s := inv.Studies[0]
	assert.Equal(t, "S1", s.Identifier)
	require.Len(t, s.Sources, 1)
	require.Len(t, s.Samples, 1)
	assert.Equal(t, "src1", s.Sources[0].Name)
	assert.Equal(t, []*isa.Source{s.Sources[0]}, s.Samples[0].DerivesFrom)
	require.Len(t, s.Processes, 1)
	assert.True(t, s.Processes[0].IsImplied())

	_, files := dump(t, inv, WriteOptions{Compact: true})
	assert.Equal(t, study, files["s_S1.txt"])
	assert.Equal(t, minimalInvestigation, files["i_investigation.txt"])

	out, _ := dump(t, inv, WriteOptions{})
	again, err := Load(out, Options{})
	require.NoError(t, err)
	assert.True(t, isa.Equal(inv, again.Investigation))
}

func TestCharacteristicWithUnit(t *testing.T) {
	study := lines(
		"Source Name\tCharacteristics[mass]\tUnit\tTerm Source REF\tTerm Accession Number",
		"src1\t70\tkg\tUO\thttp://purl.obolibrary.org/obo/UO_0000009",
	)
	res := load(t, map[string]string{
		"i_investigation.txt": studyInvestigation("Term Source Name\tUO", "", "", ""),
		"s_S1.txt":            study,
	})
	inv := res.Investigation
	src := inv.Studies[0].GetSource("src1")
	require.NotNil(t, src)
	ch := src.GetCharacteristic("mass")
	require.NotNil(t, ch)
	n, ok := ch.Value.Number()
	require.True(t, ok)
	assert.Equal(t, 70.0, n)
	require.NotNil(t, ch.Unit)
	assert.Equal(t, "kg", ch.Unit.Term)
	assert.Same(t, inv.GetOntologySource("UO"), ch.Unit.TermSource)
	assert.Equal(t, "http://purl.obolibrary.org/obo/UO_0000009", ch.Unit.TermAccession)
	assert.Equal(t, []*isa.OntologyAnnotation{ch.Unit}, inv.Studies[0].UnitCategories)

	_, files := dump(t, inv, WriteOptions{})
	assert.Equal(t, study, files["s_S1.txt"])
}

func TestBareUnitKeepsItsColumns(t *testing.T) {
	study := lines(
		"Source Name\tCharacteristics[mass]\tUnit\tProtocol REF\tParameter Value[time]\tUnit\tSample Name",
		"src1\t70\tkg\tgrowth\t4\th\tsam1",
		"src2\t\t\tgrowth\t2.5\th\tsam2",
	)
	res := load(t, map[string]string{
		"i_investigation.txt": studyInvestigation("", "", "", "Study Protocol Name\tgrowth"),
		"s_S1.txt":            study,
	})
	s := res.Investigation.Studies[0]
	ch := s.GetSource("src1").GetCharacteristic("mass")
	require.NotNil(t, ch)
	require.NotNil(t, ch.Unit)
	assert.Equal(t, "kg", ch.Unit.Term)
	assert.Nil(t, ch.Unit.TermSource)

	_, files := dump(t, res.Investigation, WriteOptions{})
	assert.Equal(t, study, files["s_S1.txt"])
}

func TestAnnotatedCharacteristic(t *testing.T) {
	study := lines(
		"Source Name\tCharacteristics[organism]\tTerm Source REF\tTerm Accession Number\tProtocol REF\tSample Name\tFactor Value[dose]\tUnit\tTerm Source REF\tTerm Accession Number",
		"src1\tHomo sapiens\tNCBITAXON\t9606\tsampling\tsam1\t5\tmg\tUO\tUO_0000022",
		"src1\tHomo sapiens\tNCBITAXON\t9606\tsampling\tsam2\t10\tmg\tUO\tUO_0000022",
	)
	res := load(t, map[string]string{
		"i_investigation.txt": studyInvestigation(
			"Term Source Name\tNCBITAXON\tUO",
			"Study Factor Name\tdose",
			"",
			"Study Protocol Name\tsampling",
		),
		"s_S1.txt": study,
	})
	s := res.Investigation.Studies[0]
	organism := s.Sources[0].GetCharacteristic("organism")
	require.NotNil(t, organism)
	a, ok := organism.Value.Annotation()
	require.True(t, ok)
	assert.Equal(t, "NCBITAXON", a.SourceName())

	require.Len(t, s.Processes, 1, "rows sharing input and qualifiers share the process")
	assert.Equal(t, []isa.Node{s.Sources[0]}, s.Processes[0].Inputs)
	assert.Len(t, s.Processes[0].Outputs, 2)
	fv := s.GetSample("sam2").GetFactorValue("dose")
	require.NotNil(t, fv)
	assert.Equal(t, "10", fv.Value.Text())
	assert.Same(t, s.UnitCategories[0], fv.Unit)
	assert.Len(t, s.SamplesWithFactorValue("dose", isa.NumberValue(5)), 1)

	_, files := dump(t, res.Investigation, WriteOptions{})
	assert.Equal(t, study, files["s_S1.txt"])
}

func poolingFiles(assay string) map[string]string {
	return map[string]string{
		"i_investigation.txt": studyInvestigation("", "",
			"Study Assay File Name\ta_S1.txt",
			"Study Protocol Name\tsampling\textraction\tsequencing"),
		"s_S1.txt": lines(
			"Source Name\tProtocol REF\tSample Name",
			"src1\tsampling\tsam1",
			"src2\tsampling\tsam2",
		),
		"a_S1.txt": assay,
	}
}

func TestAssayPooling(t *testing.T) {
	assay := lines(
		"Sample Name\tProtocol REF\tExtract Name",
		"sam1\textraction\tpool1",
		"sam2\textraction\tpool1",
	)
	res := load(t, poolingFiles(assay))
	s := res.Investigation.Studies[0]
	require.Len(t, s.Assays, 1)
	a := s.Assays[0]
	require.Len(t, a.Processes, 1)
	p := a.Processes[0]
	assert.Equal(t, []isa.Node{s.GetSample("sam1"), s.GetSample("sam2")}, p.Inputs)
	require.Len(t, p.Outputs, 1)
	assert.Equal(t, "pool1", p.Outputs[0].NodeName())
	assert.Same(t, s.GetSample("sam1"), a.Samples[0], "assay samples are the study's samples")

	_, files := dump(t, res.Investigation, WriteOptions{})
	assert.Equal(t, assay, files["a_S1.txt"])
	assert.Equal(t, poolingFiles("")["s_S1.txt"], files["s_S1.txt"])
}

func TestAssayFanOutRoundTrip(t *testing.T) {
	assay := lines(
		"Sample Name\tProtocol REF\tExtract Name\tProtocol REF\tAssay Name\tRaw Data File",
		"sam1\textraction\te1\tsequencing\trun1\tr1.fq",
		"sam1\textraction\te2\tsequencing\trun2\tr2.fq",
	)
	res := load(t, poolingFiles(assay))
	require.Empty(t, res.Issues)
	s := res.Investigation.Studies[0]
	a := s.Assays[0]
	require.Len(t, a.Processes, 3)
	extraction := a.Processes[0]
	assert.Len(t, extraction.Outputs, 2)
	require.Len(t, a.DataFiles, 2)
	assert.Equal(t, []*isa.Sample{s.GetSample("sam1")}, a.DataFiles[1].GeneratedFrom)
	assert.Equal(t, isa.NameAssay, a.Processes[1].NameKind)

	out, files := dump(t, res.Investigation, WriteOptions{})
	assert.Equal(t, assay, files["a_S1.txt"])
	again, err := Load(out, Options{})
	require.NoError(t, err)
	assert.True(t, isa.Equal(res.Investigation, again.Investigation))
}

func TestProcessChainLinks(t *testing.T) {
	assay := lines(
		"Sample Name\tProtocol REF\tProtocol REF\tExtract Name",
		"sam1\textraction\tsequencing\te1",
	)
	res := load(t, poolingFiles(assay))
	a := res.Investigation.Studies[0].Assays[0]
	require.Len(t, a.Processes, 2)
	first, second := a.Processes[0], a.Processes[1]
	assert.Same(t, second, first.NextProcess)
	assert.Same(t, first, second.PreviousProcess)
	assert.Empty(t, first.Outputs)
	assert.Len(t, second.Outputs, 1)
}

func TestDanglingFactorIsReferenceError(t *testing.T) {
	files := map[string]string{
		"i_investigation.txt": minimalInvestigation,
		"s_S1.txt": lines(
			"Source Name\tSample Name\tFactor Value[dose]",
			"src1\tsam1\t5",
		),
	}
	_, err := LoadFS(dir(files), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, isa.ErrReference))
	var ref *isa.ReferenceError
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, isa.RefFactor, ref.Kind)
	assert.Equal(t, "dose", ref.Name)

	res, err := LoadFS(dir(files), Options{Lenient: true})
	require.NoError(t, err)
	s := res.Investigation.Studies[0]
	fv := s.GetSample("sam1").GetFactorValue("dose")
	require.NotNil(t, fv)
	assert.Nil(t, s.GetFactor("dose"), "placeholder factors stay unregistered")
}

func TestUndeclaredProtocolAndSample(t *testing.T) {
	files := map[string]string{
		"i_investigation.txt": minimalInvestigation,
		"s_S1.txt":            lines("Source Name\tProtocol REF\tSample Name", "src1\tgrowth\tsam1"),
	}
	_, err := LoadFS(dir(files), Options{})
	var ref *isa.ReferenceError
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, isa.RefProtocol, ref.Kind)

	assay := lines("Sample Name\tProtocol REF\tExtract Name", "ghost\textraction\te1")
	_, err = LoadFS(dir(poolingFiles(assay)), Options{})
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, isa.RefSample, ref.Kind)
	assert.Equal(t, "ghost", ref.Name)
}

func TestSyntheticProtocol(t *testing.T) {
	res := load(t, map[string]string{
		"i_investigation.txt": minimalInvestigation,
		"s_S1.txt":            lines("Source Name\tProtocol REF\tSample Name", "src1\t\tsam1"),
	})
	s := res.Investigation.Studies[0]
	synthetic := s.GetProtocol(isa.UnknownProtocolName)
	require.NotNil(t, synthetic)
	assert.Equal(t, 1, s.ProtocolUsage(synthetic))

	var buf bytes.Buffer
	require.NoError(t, WriteInvestigation(&buf, res.Investigation, WriteOptions{}))
	assert.NotContains(t, buf.String(), isa.UnknownProtocolName)

	s.Processes = nil
	buf.Reset()
	require.NoError(t, WriteInvestigation(&buf, res.Investigation, WriteOptions{}))
	assert.Nil(t, s.GetProtocol(isa.UnknownProtocolName), "unused synthetic protocol is pruned before writing")
}

func TestDeclaredUnknownProtocolSurvivesRoundTrip(t *testing.T) {
	res := load(t, map[string]string{
		"i_investigation.txt": studyInvestigation("", "", "", lines(
			"Study Protocol Name\tunknown",
			"Study Protocol Type\tsample collection",
			"Study Protocol Description\tmanual pick",
		)),
		"s_S1.txt": lines("Source Name\tProtocol REF\tSample Name", "src1\tunknown\tsam1", "src2\t\tsam2"),
	})
	s := res.Investigation.Studies[0]
	declared := s.GetProtocol(isa.UnknownProtocolName)
	require.NotNil(t, declared)
	assert.False(t, declared.IsSynthetic())
	assert.Equal(t, "sample collection", declared.TypeTerm())
	assert.Equal(t, 1, s.ProtocolUsage(declared))
	synthetic := s.SyntheticProtocol()
	assert.NotSame(t, declared, synthetic)
	assert.Equal(t, 1, s.ProtocolUsage(synthetic))

	out, files := dump(t, res.Investigation, WriteOptions{})
	assert.Contains(t, files["i_investigation.txt"], "Study Protocol Name\tunknown\n")
	assert.Contains(t, files["i_investigation.txt"], "Study Protocol Description\tmanual pick\n")
	assert.Equal(t, lines("Source Name\tProtocol REF\tSample Name", "src1\tunknown\tsam1", "src2\t\tsam2"), files["s_S1.txt"])

	back, err := Load(out, Options{})
	require.NoError(t, err)
	assert.True(t, isa.Equal(res.Investigation, back.Investigation))
}

func TestFactorOnNonSample(t *testing.T) {
	files := map[string]string{
		"i_investigation.txt": studyInvestigation("", "Study Factor Name\tdose", "", ""),
		"s_S1.txt": lines(
			"Source Name\tFactor Value[dose]\tUnit\tSample Name",
			"src1\t5\tmg\tsam1",
		),
	}
	_, err := LoadFS(dir(files), Options{})
	assert.ErrorIs(t, err, isa.ErrParse)

	res, err := LoadFS(dir(files), Options{Lenient: true})
	require.NoError(t, err)
	var kinds []IssueKind
	for _, is := range res.Issues {
		kinds = append(kinds, is.Kind)
	}
	assert.Equal(t, []IssueKind{IssueFactorOnNonSample}, kinds)
	s := res.Investigation.Studies[0]
	assert.Empty(t, s.GetSample("sam1").FactorValues)
}

func TestHeaderGrammar(t *testing.T) {
	is := &issues{}
	sc, err := parseHeader([]string{
		"Sample Name", "Protocol REF", "Parameter Value[temperature]", "Unit", "Term Source REF",
		"Performer", "Date", "Hybridization Assay Name", "Array Design REF", "Comment[note]",
		"Mystery", "Raw Data File",
	}, "a.txt", 1, Options{}, is)
	require.NoError(t, err)
	require.Len(t, sc.Entries, 3)
	p := sc.Entries[1]
	assert.Equal(t, entryProcess, p.Kind)
	assert.Equal(t, 7, p.NameCol)
	assert.Equal(t, isa.NameAssay, p.NameKind)
	assert.Equal(t, 5, p.PerformerCol)
	assert.Equal(t, 8, p.ArrayCol)
	require.Len(t, p.Attrs, 1)
	assert.Equal(t, 3, p.Attrs[0].Unit)
	assert.Equal(t, 4, p.Attrs[0].UnitTSR)
	assert.Equal(t, -1, p.Attrs[0].TSR)
	assert.Equal(t, []commentCol{{Name: "note", Col: 9}}, p.Comments)
	require.Len(t, is.list, 1)
	assert.Equal(t, IssueUnknownColumn, is.list[0].Kind)
	assert.Equal(t, 11, is.list[0].Column)

	_, err = parseHeader([]string{"Characteristics[organism]", "Source Name"}, "s.txt", 1, Options{}, &issues{})
	assert.ErrorIs(t, err, isa.ErrParse)
	_, err = parseHeader([]string{"Source Name", "Performer"}, "s.txt", 1, Options{}, &issues{})
	assert.ErrorIs(t, err, isa.ErrParse)
}

func TestProcessIdentityConflict(t *testing.T) {
	assay := lines(
		"Sample Name\tProtocol REF\tPerformer\tAssay Name\tRaw Data File",
		"sam1\tsequencing\talice\trun1\tr1.fq",
		"sam2\tsequencing\tbob\trun1\tr2.fq",
	)
	res := load(t, poolingFiles(assay))
	a := res.Investigation.Studies[0].Assays[0]
	require.Len(t, a.Processes, 1)
	assert.Equal(t, "alice", a.Processes[0].Performer)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueProcessConflict, res.Issues[0].Kind)
	assert.Equal(t, "a_S1.txt", res.Issues[0].File)
}

func TestQuotedFilesStayQuoted(t *testing.T) {
	study := "\"Source Name\"\t\"Sample Name\"\n\"src1\"\t\"sam1\"\n"
	res := load(t, map[string]string{
		"i_investigation.txt": minimalInvestigation,
		"s_S1.txt":            study,
	})
	require.True(t, res.Quoted)
	_, files := dump(t, res.Investigation, WriteOptions{Quote: res.Quoted})
	assert.Equal(t, study, files["s_S1.txt"])
}

func TestHashNamedNodeIsNotAComment(t *testing.T) {
	study := lines("Source Name\tSample Name", `"#1"\tsam1`, "src2\t#2")
	res := load(t, map[string]string{
		"i_investigation.txt": minimalInvestigation,
		"s_S1.txt":            study,
	})
	assert.False(t, res.Quoted)
	s := res.Investigation.Studies[0]
	require.NotNil(t, s.GetSource("#1"))
	require.Len(t, s.Samples, 2)
	assert.Equal(t, "#2", s.Samples[1].Name)

	out, files := dump(t, res.Investigation, WriteOptions{})
	assert.Equal(t, study, files["s_S1.txt"])
	back, err := Load(out, Options{})
	require.NoError(t, err)
	assert.True(t, isa.Equal(res.Investigation, back.Investigation))

	var buf bytes.Buffer
	rw := newRecordWriter(&buf, false)
	require.NoError(t, rw.Write([]string{"#x", "a b", "say \"hi\"", ""}))
	require.NoError(t, rw.Write([]string{"plain", "#y"}))
	require.NoError(t, rw.Flush())
	assert.Equal(t, "\"#x\"\ta b\t\"say \"\"hi\"\"\"\t\nplain\t#y\n", buf.String())
}

func TestInvestigationCommentsAndLists(t *testing.T) {
	data := lines(
		"ONTOLOGY SOURCE REFERENCE",
		"Term Source Name\tOBI",
		"Term Source Version\t2024-01-01",
		"INVESTIGATION",
		"Investigation Identifier\tI1",
		"Comment[Funding]\tEU",
		"INVESTIGATION PUBLICATIONS",
		"INVESTIGATION CONTACTS",
		"Investigation Person Last Name\tDoe\tRoe",
		"Investigation Person Roles\tauthor;curator\tsubmitter",
		"Investigation Person Roles Term Accession Number\tOBI_1;OBI_2\t",
		"Investigation Person Roles Term Source REF\tOBI;OBI\t",
		"STUDY",
		"Study Identifier\tS1",
		"Study File Name\ts_S1.txt",
		"Comment[Study Grant]\tG-7",
		"STUDY DESIGN DESCRIPTORS",
		"Study Design Type\tintervention design",
		"STUDY PUBLICATIONS",
		"STUDY FACTORS",
		"STUDY ASSAYS",
		"STUDY PROTOCOLS",
		"Study Protocol Name\textraction",
		"Study Protocol Parameters Name\ttemperature;duration",
		"Study Protocol Components Name\tkit",
		"STUDY CONTACTS",
	)
	inv, issues, err := ReadInvestigation(strings.NewReader(data), "i_x.txt", Options{})
	require.NoError(t, err)
	assert.Empty(t, issues)

	comment, ok := inv.GetComment("Funding")
	require.True(t, ok)
	assert.Equal(t, "EU", comment.Value)
	require.Len(t, inv.Contacts, 2)
	roles := inv.Contacts[0].Roles
	require.Len(t, roles, 2)
	assert.Equal(t, "curator", roles[1].Term)
	assert.Equal(t, "OBI_2", roles[1].TermAccession)
	assert.Same(t, inv.GetOntologySource("OBI"), roles[1].TermSource)
	assert.Len(t, inv.Contacts[1].Roles, 1)

	s := inv.Studies[0]
	grant, ok := s.GetComment("Study Grant")
	require.True(t, ok)
	assert.Equal(t, "G-7", grant.Value)
	p := s.GetProtocol("extraction")
	require.NotNil(t, p)
	require.Len(t, p.Parameters, 2)
	assert.Equal(t, "duration", p.Parameters[1].ParameterName())
	require.Len(t, p.Components, 1)
	assert.Equal(t, "kit", p.Components[0].Name)

	var buf bytes.Buffer
	require.NoError(t, WriteInvestigation(&buf, inv, WriteOptions{}))
	assert.Contains(t, buf.String(), "Investigation Person Roles Term Accession Number\tOBI_1;OBI_2\t\n")
	again, _, err := ReadInvestigation(&buf, "i_x.txt", Options{})
	require.NoError(t, err)
	assert.True(t, isa.Equal(inv, again))
}

func TestInvestigationStructureErrors(t *testing.T) {
	_, _, err := ReadInvestigation(strings.NewReader("Investigation Identifier\tI1\n"), "i.txt", Options{})
	assert.ErrorIs(t, err, isa.ErrParse)

	_, _, err = ReadInvestigation(strings.NewReader(lines("STUDY FACTORS", "Study Factor Name\tdose")), "i.txt", Options{})
	assert.ErrorIs(t, err, isa.ErrParse)

	_, issues, err := ReadInvestigation(strings.NewReader(lines("INVESTIGATION", "Investigation Identifier\tI1", "Investigation Colour\tred")), "i.txt", Options{})
	require.NoError(t, err)
	var kinds []IssueKind
	for _, is := range issues {
		kinds = append(kinds, is.Kind)
	}
	assert.Contains(t, kinds, IssueMissingSection)
	assert.Contains(t, kinds, IssueUnknownField)
}

func TestLoadRequiresSingleInvestigation(t *testing.T) {
	_, err := LoadFS(dir(map[string]string{"s_S1.txt": "Source Name\n"}), Options{})
	assert.ErrorIs(t, err, isa.ErrParse)

	files := map[string]string{
		"i_a.txt":  minimalInvestigation,
		"i_b.txt":  minimalInvestigation,
		"s_S1.txt": "Source Name\tSample Name\nsrc1\tsam1\n",
	}
	_, err = LoadFS(dir(files), Options{})
	assert.ErrorIs(t, err, isa.ErrParse)

	res, err := LoadFS(dir(files), Options{Lenient: true})
	require.NoError(t, err)
	require.NotEmpty(t, res.Issues)
	assert.Equal(t, IssueAmbiguous, res.Issues[0].Kind)
}

func TestMissingStudyTable(t *testing.T) {
	files := map[string]string{"i_investigation.txt": minimalInvestigation}
	_, err := LoadFS(dir(files), Options{})
	assert.ErrorIs(t, err, isa.ErrParse)

	res, err := LoadFS(dir(files), Options{Lenient: true})
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, IssueMissingTable, res.Issues[0].Kind)
}
