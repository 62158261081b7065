package isatab

import (
	"io"
	"strconv"
	"strings"

	"isacore/pkg/isa"
)

// sectionBuf collects the label rows of one investigation section, one value
// column per instance.
type sectionBuf struct {
	name     string
	n        int
	rows     [][]string
	comments []isa.Annotated
}

func newSectionBuf(name string, instances int) *sectionBuf {
	return &sectionBuf{name: name, n: instances}
}

func (b *sectionBuf) field(label string, value func(i int) string) {
	row := make([]string, 0, b.n+1)
	row = append(row, label)
	for i := 0; i < b.n; i++ {
		row = append(row, value(i))
	}
	b.rows = append(b.rows, row)
}

// annotation writes the term row followed by its accession and source rows.
func (b *sectionBuf) annotation(label string, get func(i int) *isa.OntologyAnnotation) {
	b.field(label, func(i int) string { return isa.TermOf(get(i)) })
	b.field(label+suffixAccession, func(i int) string { return isa.AccessionOf(get(i)) })
	b.field(label+suffixSource, func(i int) string { return get(i).SourceName() })
}

// annotationList writes a ';'-joined multi-valued annotation field.
func (b *sectionBuf) annotationList(label string, get func(i int) []*isa.OntologyAnnotation) {
	join := func(i int, part func(*isa.OntologyAnnotation) string) string {
		list := get(i)
		parts := make([]string, len(list))
		for k, a := range list {
			parts[k] = part(a)
		}
		return strings.Join(parts, ";")
	}
	b.field(label, func(i int) string { return join(i, isa.TermOf) })
	b.field(label+suffixAccession, func(i int) string { return join(i, isa.AccessionOf) })
	b.field(label+suffixSource, func(i int) string {
		return join(i, func(a *isa.OntologyAnnotation) string { return a.SourceName() })
	})
}

// annotated registers the per-instance comment carriers; their comment rows
// close the section.
func (b *sectionBuf) annotated(targets ...isa.Annotated) {
	b.comments = targets
}

func (b *sectionBuf) write(rw *recordWriter, opts WriteOptions) error {
	if err := rw.Write([]string{b.name}); err != nil {
		return err
	}
	if b.n == 0 {
		return nil
	}
	var names nameSet
	for _, t := range b.comments {
		for _, name := range t.CommentNames() {
			names.add(name)
		}
	}
	for _, name := range names.list {
		b.field(commentHeader(name), func(i int) string {
			if c, ok := b.comments[i].GetComment(name); ok {
				return c.Value
			}
			return ""
		})
	}
	for _, row := range b.rows {
		if opts.Compact && blank(row[1:]) {
			continue
		}
		if err := rw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// StudyFileName returns the table file name of s, deriving one from the
// identifier when unset.
func StudyFileName(s *isa.Study) string {
	if s.Filename != "" {
		return s.Filename
	}
	return "s_" + s.Identifier + ".txt"
}

// InvestigationFileName returns the file name of inv, defaulting to
// i_investigation.txt.
func InvestigationFileName(inv *isa.Investigation) string {
	if inv.Filename != "" && strings.HasPrefix(inv.Filename, "i_") {
		return inv.Filename
	}
	return "i_investigation.txt"
}

// WriteInvestigation writes the investigation file of inv. Sections are
// written in file order; a section without instances is written as its
// header alone.
func WriteInvestigation(w io.Writer, inv *isa.Investigation, opts WriteOptions) error {
	inv.PruneSyntheticProtocols()
	rw := newRecordWriter(w, opts.Quote)
	for _, b := range investigationSections(inv) {
		if err := b.write(rw, opts); err != nil {
			return err
		}
	}
	return rw.Flush()
}

func investigationSections(inv *isa.Investigation) []*sectionBuf {
	var out []*sectionBuf

	osr := newSectionBuf(SectionOntologySources, len(inv.OntologySources))
	src := func(i int) *isa.OntologySource { return inv.OntologySources[i] }
	osr.field(labelTermSourceName, func(i int) string { return src(i).Name })
	osr.field(labelTermSourceFile, func(i int) string { return src(i).File })
	osr.field(labelTermSourceVersion, func(i int) string { return src(i).Version })
	osr.field(labelTermSourceDescription, func(i int) string { return src(i).Description })
	targets := make([]isa.Annotated, len(inv.OntologySources))
	for i, s := range inv.OntologySources {
		targets[i] = s
	}
	osr.annotated(targets...)
	out = append(out, osr)

	main := newSectionBuf(SectionInvestigation, 1)
	id := identityFor("Investigation")
	main.field(id.Identifier, func(int) string { return inv.Identifier })
	main.field(id.Title, func(int) string { return inv.Title })
	main.field(id.Description, func(int) string { return inv.Description })
	main.field(id.SubmissionDate, func(int) string { return inv.SubmissionDate })
	main.field(id.PublicReleaseDate, func(int) string { return inv.PublicReleaseDate })
	main.annotated(inv)
	out = append(out, main)

	out = append(out,
		publicationSection(SectionInvestigationPublications, "Investigation", inv.Publications),
		contactSection(SectionInvestigationContacts, "Investigation", inv.Contacts),
	)
	for _, s := range inv.Studies {
		out = append(out, studySections(s)...)
	}
	return out
}

func publicationSection(name, prefix string, pubs []*isa.Publication) *sectionBuf {
	b := newSectionBuf(name, len(pubs))
	l := publicationsFor(prefix)
	b.field(l.PubMedID, func(i int) string { return pubs[i].PubMedID })
	b.field(l.DOI, func(i int) string { return pubs[i].DOI })
	b.field(l.AuthorList, func(i int) string { return pubs[i].AuthorList })
	b.field(l.Title, func(i int) string { return pubs[i].Title })
	b.annotation(l.Status, func(i int) *isa.OntologyAnnotation { return pubs[i].Status })
	targets := make([]isa.Annotated, len(pubs))
	for i, p := range pubs {
		targets[i] = p
	}
	b.annotated(targets...)
	return b
}

func contactSection(name, prefix string, people []*isa.Person) *sectionBuf {
	b := newSectionBuf(name, len(people))
	l := contactsFor(prefix)
	b.field(l.LastName, func(i int) string { return people[i].LastName })
	b.field(l.FirstName, func(i int) string { return people[i].FirstName })
	b.field(l.MidInitials, func(i int) string { return people[i].MidInitials })
	b.field(l.Email, func(i int) string { return people[i].Email })
	b.field(l.Phone, func(i int) string { return people[i].Phone })
	b.field(l.Fax, func(i int) string { return people[i].Fax })
	b.field(l.Address, func(i int) string { return people[i].Address })
	b.field(l.Affiliation, func(i int) string { return people[i].Affiliation })
	b.annotationList(l.Roles, func(i int) []*isa.OntologyAnnotation { return people[i].Roles })
	targets := make([]isa.Annotated, len(people))
	for i, p := range people {
		targets[i] = p
	}
	b.annotated(targets...)
	return b
}

func studySections(s *isa.Study) []*sectionBuf {
	var out []*sectionBuf

	main := newSectionBuf(SectionStudy, 1)
	id := identityFor("Study")
	main.field(id.Identifier, func(int) string { return s.Identifier })
	main.field(id.Title, func(int) string { return s.Title })
	main.field(id.Description, func(int) string { return s.Description })
	main.field(id.SubmissionDate, func(int) string { return s.SubmissionDate })
	main.field(id.PublicReleaseDate, func(int) string { return s.PublicReleaseDate })
	main.field(id.FileName, func(int) string { return StudyFileName(s) })
	main.annotated(s)
	out = append(out, main)

	design := newSectionBuf(SectionStudyDesignDescriptors, len(s.DesignDescriptors))
	design.annotation(labelStudyDesignType, func(i int) *isa.OntologyAnnotation { return s.DesignDescriptors[i] })
	targets := make([]isa.Annotated, len(s.DesignDescriptors))
	for i, d := range s.DesignDescriptors {
		targets[i] = d
	}
	design.annotated(targets...)
	out = append(out, design, publicationSection(SectionStudyPublications, "Study", s.Publications))

	factors := newSectionBuf(SectionStudyFactors, len(s.Factors))
	factors.field(labelFactorName, func(i int) string { return s.Factors[i].Name })
	factors.annotation(labelFactorType, func(i int) *isa.OntologyAnnotation { return s.Factors[i].FactorType })
	targets = make([]isa.Annotated, len(s.Factors))
	for i, f := range s.Factors {
		targets[i] = f
	}
	factors.annotated(targets...)
	out = append(out, factors)

	assays := newSectionBuf(SectionStudyAssays, len(s.Assays))
	assays.field(labelAssayFileName, func(i int) string { return AssayFileName(s, i) })
	assays.annotation(labelAssayMeasurementType, func(i int) *isa.OntologyAnnotation { return s.Assays[i].MeasurementType })
	assays.annotation(labelAssayTechnologyType, func(i int) *isa.OntologyAnnotation { return s.Assays[i].TechnologyType })
	assays.field(labelAssayTechnologyPlatform, func(i int) string { return s.Assays[i].TechnologyPlatform })
	targets = make([]isa.Annotated, len(s.Assays))
	for i, a := range s.Assays {
		targets[i] = a
	}
	assays.annotated(targets...)
	out = append(out, assays)

	protocols := declaredProtocols(s)
	ps := newSectionBuf(SectionStudyProtocols, len(protocols))
	ps.field(labelProtocolName, func(i int) string { return protocols[i].Name })
	ps.annotation(labelProtocolType, func(i int) *isa.OntologyAnnotation { return protocols[i].ProtocolType })
	ps.field(labelProtocolDescription, func(i int) string { return protocols[i].Description })
	ps.field(labelProtocolURI, func(i int) string { return protocols[i].URI })
	ps.field(labelProtocolVersion, func(i int) string { return protocols[i].Version })
	ps.annotationList(labelProtocolParameters, func(i int) []*isa.OntologyAnnotation {
		var names []*isa.OntologyAnnotation
		for _, p := range protocols[i].Parameters {
			names = append(names, p.Name)
		}
		return names
	})
	ps.field(labelProtocolComponentsName, func(i int) string {
		var names []string
		for _, c := range protocols[i].Components {
			names = append(names, c.Name)
		}
		return strings.Join(names, ";")
	})
	ps.annotationList(labelProtocolComponentsType, func(i int) []*isa.OntologyAnnotation {
		var types []*isa.OntologyAnnotation
		for _, c := range protocols[i].Components {
			types = append(types, c.ComponentType)
		}
		return types
	})
	targets = make([]isa.Annotated, len(protocols))
	for i, p := range protocols {
		targets[i] = p
	}
	ps.annotated(targets...)
	out = append(out, ps, contactSection(SectionStudyContacts, "Study", s.Contacts))
	return out
}

// declaredProtocols omits synthetic protocols; the reader recreates them.
func declaredProtocols(s *isa.Study) []*isa.Protocol {
	var out []*isa.Protocol
	for _, p := range s.Protocols {
		if !p.IsSynthetic() {
			out = append(out, p)
		}
	}
	return out
}

// AssayFileName returns the table file name of the i-th assay of s, deriving
// one when unset.
func AssayFileName(s *isa.Study, i int) string {
	if f := s.Assays[i].Filename; f != "" {
		return f
	}
	return "a_" + s.Identifier + "_" + strconv.Itoa(i+1) + ".txt"
}
