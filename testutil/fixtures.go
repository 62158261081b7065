package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"isacore/pkg/isa"
	"isacore/pkg/isatab"
)

func lines(rows ...string) string { return strings.Join(rows, "\n") + "\n" }

// StudyTable and AssayTable are the tables of TabularFS.
var (
	StudyTable = lines(
		"Source Name\tCharacteristics[organism]\tTerm Source REF\tTerm Accession Number\tProtocol REF\tSample Name",
		"src1\tHomo sapiens\tNCBITAXON\thttp://purl.obolibrary.org/obo/NCBITaxon_9606\tsampling\tsam1",
		"src1\tHomo sapiens\tNCBITAXON\thttp://purl.obolibrary.org/obo/NCBITaxon_9606\tsampling\tsam2",
	)
	AssayTable = lines(
		"Sample Name\tProtocol REF\tExtract Name\tProtocol REF\tAssay Name\tRaw Data File",
		"sam1\textraction\te1\tsequencing\trun1\tr1.fq",
		"sam2\textraction\te2\tsequencing\trun2\tr2.fq",
	)
)

// InvestigationFile renders a complete investigation file with one study
// and one sequencing assay. It validates without errors or warnings against
// the built-in configurations.
func InvestigationFile(identifier string) string {
	return lines(
		"ONTOLOGY SOURCE REFERENCE",
		"Term Source Name\tNCBITAXON",
		"Term Source Description\tNCBI organismal classification",
		"INVESTIGATION",
		"Investigation Identifier\t"+identifier,
		"Investigation Title\tSequencing of "+identifier,
		"Investigation Public Release Date\t2024-01-01",
		"INVESTIGATION PUBLICATIONS",
		"INVESTIGATION CONTACTS",
		"Investigation Person Last Name\tDoe",
		"Investigation Person First Name\tJane",
		"STUDY",
		"Study Identifier\tS1",
		"Study Title\tStudy of "+identifier,
		"Study File Name\ts_S1.txt",
		"Study Public Release Date\t2024-01-01",
		"STUDY DESIGN DESCRIPTORS",
		"Study Design Type\tintervention design",
		"STUDY PUBLICATIONS",
		"STUDY FACTORS",
		"STUDY ASSAYS",
		"Study Assay File Name\ta_S1.txt",
		"Study Assay Measurement Type\ttranscription profiling",
		"Study Assay Technology Type\tnucleotide sequencing",
		"STUDY PROTOCOLS",
		"Study Protocol Name\tsampling\textraction\tsequencing",
		"Study Protocol Type\tsample collection\tnucleic acid extraction\tnucleic acid sequencing",
		"STUDY CONTACTS",
		"Study Person Last Name\tDoe",
	)
}

// TabularFS returns the tabular directory of the fixture investigation.
func TabularFS(identifier string) fstest.MapFS {
	return fstest.MapFS{
		"i_investigation.txt": {Data: []byte(InvestigationFile(identifier))},
		"s_S1.txt":            {Data: []byte(StudyTable)},
		"a_S1.txt":            {Data: []byte(AssayTable)},
	}
}

// TabularDir writes TabularFS(identifier) into a fresh directory under
// t.TempDir and returns its path.
func TabularDir(t testing.TB, identifier string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), identifier)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, f := range TabularFS(identifier) {
		if err := os.WriteFile(filepath.Join(dir, name), f.Data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// Investigation parses TabularFS(identifier).
func Investigation(t testing.TB, identifier string) *isa.Investigation {
	t.Helper()
	res, err := isatab.LoadFS(TabularFS(identifier), isatab.Options{})
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if len(res.Issues) > 0 {
		t.Fatalf("fixture issues: %v", res.Issues)
	}
	return res.Investigation
}
