package isatab

import (
	"io"
	"strings"

	"isacore/internal/logging"
	"isacore/pkg/isa"
)

// section is one block of the investigation file: label rows whose columns
// after the first carry one value per instance.
type section struct {
	Name  string
	Line  int
	rows  []record
	index map[string]int
}

func newSection(name string, line int) *section {
	return &section{Name: name, Line: line, index: make(map[string]int)}
}

func (s *section) add(rec record) {
	key := normLabel(rec.Cells[0])
	if _, dup := s.index[key]; !dup {
		s.index[key] = len(s.rows)
	}
	s.rows = append(s.rows, rec)
}

// width is the number of instances: the last non-empty value column of any
// row.
func (s *section) width() int {
	w := 0
	for _, r := range s.rows {
		for i := len(r.Cells) - 1; i >= 1; i-- {
			if r.Cells[i] != "" {
				if i > w {
					w = i
				}
				break
			}
		}
	}
	return w
}

func (s *section) value(label string, i int) string {
	idx, ok := s.index[normLabel(label)]
	if !ok {
		return ""
	}
	cells := s.rows[idx].Cells
	if i+1 >= len(cells) {
		return ""
	}
	return cells[i+1]
}

func (s *section) line(label string) int {
	if idx, ok := s.index[normLabel(label)]; ok {
		return s.rows[idx].Line
	}
	return s.Line
}

func (s *section) applyComments(i int, target isa.Annotated) {
	for _, r := range s.rows {
		name, ok := commentName(r.Cells[0])
		if !ok {
			continue
		}
		if i+1 < len(r.Cells) && r.Cells[i+1] != "" {
			target.AddComment(name, r.Cells[i+1])
		}
	}
}

func (s *section) unknownFields(known []string, file string, is *issues) {
	allowed := make(map[string]struct{}, len(known))
	for _, k := range known {
		allowed[normLabel(k)] = struct{}{}
	}
	for _, r := range s.rows {
		if _, ok := commentName(r.Cells[0]); ok {
			continue
		}
		if _, ok := allowed[normLabel(r.Cells[0])]; !ok {
			is.add(IssueUnknownField, file, r.Line, 1, "%s: unrecognised field %q", s.Name, r.Cells[0])
		}
	}
}

// studyBlock groups the sections of one STUDY block.
type studyBlock struct {
	sections map[string]*section
	line     int
}

// investigationDoc is the sectioned content of an investigation file.
type investigationDoc struct {
	file     string
	top      map[string]*section
	studies  []*studyBlock
	sections []string
}

func splitSections(recs []record, file string, is *issues) (*investigationDoc, error) {
	doc := &investigationDoc{file: file, top: make(map[string]*section)}
	var (
		cur   *section
		block *studyBlock
	)
	for _, rec := range recs {
		head := rec.Cells[0]
		if len(nonEmpty(rec.Cells)) == 1 && sectionToken.MatchString(head) {
			doc.sections = append(doc.sections, head)
			if !isSectionName(head) {
				is.add(IssueUnknownSection, file, rec.Line, 1, "unrecognised section %q", head)
				cur = newSection(head, rec.Line)
				continue
			}
			cur = newSection(head, rec.Line)
			switch {
			case head == SectionStudy:
				block = &studyBlock{sections: map[string]*section{head: cur}, line: rec.Line}
				doc.studies = append(doc.studies, block)
			case strings.HasPrefix(head, "STUDY "):
				if block == nil {
					return nil, &isa.ParseError{File: file, Line: rec.Line, Column: 1, Msg: "section " + head + " precedes any STUDY section"}
				}
				block.sections[head] = cur
			default:
				if _, dup := doc.top[head]; dup {
					return nil, &isa.ParseError{File: file, Line: rec.Line, Column: 1, Msg: "duplicate section " + head}
				}
				doc.top[head] = cur
			}
			continue
		}
		if cur == nil {
			return nil, &isa.ParseError{File: file, Line: rec.Line, Column: 1, Msg: "field " + head + " outside any section"}
		}
		if head == "" {
			is.add(IssueUnknownField, file, rec.Line, 1, "%s: row without a label", cur.Name)
			continue
		}
		cur.add(rec)
	}
	for _, name := range InvestigationSections {
		if _, ok := doc.top[name]; !ok {
			is.add(IssueMissingSection, file, 0, 0, "section %s is missing", name)
			doc.top[name] = newSection(name, 0)
		}
	}
	if len(doc.studies) == 0 {
		is.add(IssueMissingSection, file, 0, 0, "section %s is missing", SectionStudy)
	}
	for _, b := range doc.studies {
		for _, name := range StudySections {
			if _, ok := b.sections[name]; !ok {
				is.add(IssueMissingSection, file, b.line, 0, "section %s is missing", name)
				b.sections[name] = newSection(name, b.line)
			}
		}
	}
	return doc, nil
}

func nonEmpty(cells []string) []string {
	var out []string
	for _, c := range cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// splitList splits a ';'-separated multi-value cell. An empty cell yields no
// items.
func splitList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

// ReadInvestigation parses an investigation file. Study and assay tables are
// not read; use LoadFS for a whole directory.
func ReadInvestigation(r io.Reader, file string, opts Options) (*isa.Investigation, []Issue, error) {
	recs, _, err := readRecords(r, file)
	if err != nil {
		return nil, nil, err
	}
	is := &issues{}
	inv, _, err := parseInvestigation(recs, file, opts, is)
	return inv, is.list, err
}

func parseInvestigation(recs []record, file string, opts Options, is *issues) (*isa.Investigation, *resolver, error) {
	doc, err := splitSections(recs, file, is)
	if err != nil {
		return nil, nil, err
	}
	inv := &isa.Investigation{Filename: file}
	res := newResolver(inv, opts)
	b := &invBuilder{file: file, res: res, is: is}

	osr := doc.top[SectionOntologySources]
	osr.unknownFields([]string{labelTermSourceName, labelTermSourceFile, labelTermSourceVersion, labelTermSourceDescription}, file, is)
	for i := 0; i < osr.width(); i++ {
		src := isa.NewOntologySource(
			osr.value(labelTermSourceName, i),
			osr.value(labelTermSourceFile, i),
			osr.value(labelTermSourceVersion, i),
			osr.value(labelTermSourceDescription, i),
		)
		osr.applyComments(i, src)
		if src.Name == "" {
			is.add(IssueUnknownField, file, osr.line(labelTermSourceName), i+2, "ontology source without a name")
			continue
		}
		inv.AddOntologySource(src)
	}

	main := doc.top[SectionInvestigation]
	id := identityFor("Investigation")
	main.unknownFields([]string{id.Identifier, id.Title, id.Description, id.SubmissionDate, id.PublicReleaseDate}, file, is)
	inv.Identifier = main.value(id.Identifier, 0)
	inv.Title = main.value(id.Title, 0)
	inv.Description = main.value(id.Description, 0)
	inv.SubmissionDate = main.value(id.SubmissionDate, 0)
	inv.PublicReleaseDate = main.value(id.PublicReleaseDate, 0)
	main.applyComments(0, inv)

	if inv.Publications, err = b.publications(doc.top[SectionInvestigationPublications], "Investigation"); err != nil {
		return nil, nil, err
	}
	if inv.Contacts, err = b.contacts(doc.top[SectionInvestigationContacts], "Investigation"); err != nil {
		return nil, nil, err
	}
	for _, blk := range doc.studies {
		s, err := b.study(blk)
		if err != nil {
			return nil, nil, err
		}
		if _, added := inv.AddStudy(s); !added {
			return nil, nil, &isa.ParseError{File: file, Line: blk.line, Msg: "duplicate study identifier " + s.Identifier}
		}
	}
	logging.L().Debug("investigation parsed", "file", file, "studies", len(inv.Studies), "sources", len(inv.OntologySources))
	return inv, res, nil
}

type invBuilder struct {
	file string
	res  *resolver
	is   *issues
}

func (b *invBuilder) annotation(sec *section, label string, i int) (*isa.OntologyAnnotation, error) {
	return b.res.annotation(
		sec.value(label, i),
		sec.value(label+suffixAccession, i),
		sec.value(label+suffixSource, i),
		b.file, sec.line(label+suffixSource),
	)
}

// annotationList splits the three sibling rows of a multi-valued annotation
// field in step.
func (b *invBuilder) annotationList(sec *section, label string, i int) ([]*isa.OntologyAnnotation, error) {
	terms := splitList(sec.value(label, i))
	accs := splitList(sec.value(label+suffixAccession, i))
	srcs := splitList(sec.value(label+suffixSource, i))
	n := max(len(terms), len(accs), len(srcs))
	out := make([]*isa.OntologyAnnotation, 0, n)
	for k := 0; k < n; k++ {
		a, err := b.res.annotation(at(terms, k), at(accs, k), at(srcs, k), b.file, sec.line(label+suffixSource))
		if err != nil {
			return nil, err
		}
		if a == nil {
			a = isa.NewOntologyAnnotation("", nil, "")
		}
		out = append(out, a)
	}
	return out, nil
}

func annotated(labels ...string) []string {
	out := make([]string, 0, 3*len(labels))
	for _, l := range labels {
		out = append(out, l, l+suffixAccession, l+suffixSource)
	}
	return out
}

func (b *invBuilder) publications(sec *section, prefix string) ([]*isa.Publication, error) {
	l := publicationsFor(prefix)
	sec.unknownFields(append([]string{l.PubMedID, l.DOI, l.AuthorList, l.Title}, annotated(l.Status)...), b.file, b.is)
	var out []*isa.Publication
	for i := 0; i < sec.width(); i++ {
		status, err := b.annotation(sec, l.Status, i)
		if err != nil {
			return nil, err
		}
		p := &isa.Publication{
			PubMedID:   sec.value(l.PubMedID, i),
			DOI:        sec.value(l.DOI, i),
			AuthorList: sec.value(l.AuthorList, i),
			Title:      sec.value(l.Title, i),
			Status:     status,
		}
		sec.applyComments(i, p)
		out = append(out, p)
	}
	return out, nil
}

func (b *invBuilder) contacts(sec *section, prefix string) ([]*isa.Person, error) {
	l := contactsFor(prefix)
	sec.unknownFields(append([]string{l.LastName, l.FirstName, l.MidInitials, l.Email, l.Phone, l.Fax, l.Address, l.Affiliation}, annotated(l.Roles)...), b.file, b.is)
	var out []*isa.Person
	for i := 0; i < sec.width(); i++ {
		roles, err := b.annotationList(sec, l.Roles, i)
		if err != nil {
			return nil, err
		}
		p := &isa.Person{
			LastName:    sec.value(l.LastName, i),
			FirstName:   sec.value(l.FirstName, i),
			MidInitials: sec.value(l.MidInitials, i),
			Email:       sec.value(l.Email, i),
			Phone:       sec.value(l.Phone, i),
			Fax:         sec.value(l.Fax, i),
			Address:     sec.value(l.Address, i),
			Affiliation: sec.value(l.Affiliation, i),
			Roles:       roles,
		}
		sec.applyComments(i, p)
		out = append(out, p)
	}
	return out, nil
}

func (b *invBuilder) study(blk *studyBlock) (*isa.Study, error) {
	sec := blk.sections[SectionStudy]
	id := identityFor("Study")
	sec.unknownFields([]string{id.Identifier, id.Title, id.Description, id.SubmissionDate, id.PublicReleaseDate, id.FileName}, b.file, b.is)
	s := isa.NewStudy(sec.value(id.Identifier, 0), sec.value(id.FileName, 0))
	s.Title = sec.value(id.Title, 0)
	s.Description = sec.value(id.Description, 0)
	s.SubmissionDate = sec.value(id.SubmissionDate, 0)
	s.PublicReleaseDate = sec.value(id.PublicReleaseDate, 0)
	sec.applyComments(0, s)

	design := blk.sections[SectionStudyDesignDescriptors]
	design.unknownFields(annotated(labelStudyDesignType), b.file, b.is)
	for i := 0; i < design.width(); i++ {
		d, err := b.annotation(design, labelStudyDesignType, i)
		if err != nil {
			return nil, err
		}
		if d == nil {
			d = isa.NewOntologyAnnotation("", nil, "")
		}
		design.applyComments(i, d)
		s.DesignDescriptors = append(s.DesignDescriptors, d)
	}

	var err error
	if s.Publications, err = b.publications(blk.sections[SectionStudyPublications], "Study"); err != nil {
		return nil, err
	}

	factors := blk.sections[SectionStudyFactors]
	factors.unknownFields(append([]string{labelFactorName}, annotated(labelFactorType)...), b.file, b.is)
	for i := 0; i < factors.width(); i++ {
		ft, err := b.annotation(factors, labelFactorType, i)
		if err != nil {
			return nil, err
		}
		f := &isa.StudyFactor{Name: factors.value(labelFactorName, i), FactorType: ft}
		factors.applyComments(i, f)
		s.AddFactor(f)
	}

	assays := blk.sections[SectionStudyAssays]
	assays.unknownFields(append(annotated(labelAssayMeasurementType, labelAssayTechnologyType), labelAssayTechnologyPlatform, labelAssayFileName), b.file, b.is)
	for i := 0; i < assays.width(); i++ {
		mt, err := b.annotation(assays, labelAssayMeasurementType, i)
		if err != nil {
			return nil, err
		}
		tt, err := b.annotation(assays, labelAssayTechnologyType, i)
		if err != nil {
			return nil, err
		}
		a := isa.NewAssay(assays.value(labelAssayFileName, i), mt, tt)
		a.TechnologyPlatform = assays.value(labelAssayTechnologyPlatform, i)
		assays.applyComments(i, a)
		s.AddAssay(a)
	}

	protocols := blk.sections[SectionStudyProtocols]
	protocols.unknownFields(append(append([]string{labelProtocolName, labelProtocolDescription, labelProtocolURI, labelProtocolVersion, labelProtocolComponentsName},
		annotated(labelProtocolType, labelProtocolParameters)...), annotated(labelProtocolComponentsType)...), b.file, b.is)
	for i := 0; i < protocols.width(); i++ {
		p, err := b.protocol(protocols, i)
		if err != nil {
			return nil, err
		}
		s.AddProtocol(p)
	}

	if s.Contacts, err = b.contacts(blk.sections[SectionStudyContacts], "Study"); err != nil {
		return nil, err
	}
	return s, nil
}

func (b *invBuilder) protocol(sec *section, i int) (*isa.Protocol, error) {
	pt, err := b.annotation(sec, labelProtocolType, i)
	if err != nil {
		return nil, err
	}
	p := isa.NewProtocol(sec.value(labelProtocolName, i), pt)
	p.Description = sec.value(labelProtocolDescription, i)
	p.URI = sec.value(labelProtocolURI, i)
	p.Version = sec.value(labelProtocolVersion, i)

	params, err := b.annotationList(sec, labelProtocolParameters, i)
	if err != nil {
		return nil, err
	}
	for _, name := range params {
		if name.Term == "" {
			continue
		}
		p.Parameters = append(p.Parameters, &isa.ProtocolParameter{Name: name})
	}

	names := splitList(sec.value(labelProtocolComponentsName, i))
	types, err := b.annotationList(sec, labelProtocolComponentsType, i)
	if err != nil {
		return nil, err
	}
	for k := 0; k < max(len(names), len(types)); k++ {
		c := &isa.ProtocolComponent{Name: at(names, k)}
		if k < len(types) && !types[k].IsEmpty() {
			c.ComponentType = types[k]
		}
		p.Components = append(p.Components, c)
	}
	sec.applyComments(i, p)
	return p, nil
}
