package isa

import "isacore/internal/logging"

// Categories holds the characteristic and unit categories of a container.
type Categories struct {
	CharacteristicCategories []*CharacteristicCategory
	UnitCategories           []*OntologyAnnotation
}

// GetCharacteristicCategory returns the category with the given term.
func (c *Categories) GetCharacteristicCategory(name string) *CharacteristicCategory {
	for _, cat := range c.CharacteristicCategories {
		if cat.Name() == name {
			return cat
		}
	}
	return nil
}

// CharacteristicCategory returns the category with the given term, creating
// it when absent.
func (c *Categories) CharacteristicCategory(name string) *CharacteristicCategory {
	if cat := c.GetCharacteristicCategory(name); cat != nil {
		return cat
	}
	cat := &CharacteristicCategory{Type: NewOntologyAnnotation(name, nil, "")}
	c.CharacteristicCategories = append(c.CharacteristicCategories, cat)
	return cat
}

// UnitCategory interns a unit annotation: an equal unit already registered is
// returned instead of u.
func (c *Categories) UnitCategory(u *OntologyAnnotation) *OntologyAnnotation {
	if u.IsEmpty() {
		return nil
	}
	for _, existing := range c.UnitCategories {
		if SameTerm(existing, u) {
			return existing
		}
	}
	c.UnitCategories = append(c.UnitCategories, u)
	return u
}

// Study is one experimental investigation with its subjects, specimens and
// assays. It owns every entity listed below except the ontology sources its
// annotations point at.
type Study struct {
	Commentable
	Categories
	Identifier        string
	Title             string
	Description       string
	SubmissionDate    string
	PublicReleaseDate string
	Filename          string
	DesignDescriptors []*OntologyAnnotation
	Publications      []*Publication
	Contacts          []*Person
	Factors           []*StudyFactor
	Protocols         []*Protocol
	Sources           []*Source
	Samples           []*Sample
	OtherMaterials    []*Material
	Processes         []*Process
	Assays            []*Assay
}

// NewStudy returns a study with the given identifier and file name.
func NewStudy(identifier, filename string) *Study {
	return &Study{Identifier: identifier, Filename: filename}
}

// GetProtocol returns the protocol with the given name.
func (s *Study) GetProtocol(name string) *Protocol {
	for _, p := range s.Protocols {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// AddProtocol appends p unless a protocol with the same name exists, in which
// case the existing protocol is returned and a warning is logged.
func (s *Study) AddProtocol(p *Protocol) (*Protocol, bool) {
	if existing := s.GetProtocol(p.Name); existing != nil && !existing.IsSynthetic() {
		logging.L().Warn("protocol already declared", "study", s.Identifier, "protocol", p.Name)
		return existing, false
	}
	s.Protocols = append(s.Protocols, p)
	return p, true
}

// RemoveProtocol removes the named protocol.
func (s *Study) RemoveProtocol(name string) bool {
	for i, p := range s.Protocols {
		if p.Name == name {
			s.Protocols = append(s.Protocols[:i], s.Protocols[i+1:]...)
			return true
		}
	}
	return false
}

// SyntheticProtocol returns the implied "unknown" protocol, creating it on demand.
func (s *Study) SyntheticProtocol() *Protocol {
	for _, p := range s.Protocols {
		if p.synthetic {
			return p
		}
	}
	p := NewProtocol(UnknownProtocolName, nil)
	p.synthetic = true
	s.Protocols = append(s.Protocols, p)
	return p
}

// PruneSyntheticProtocols drops synthetic protocols no process executes.
func (s *Study) PruneSyntheticProtocols() {
	kept := s.Protocols[:0]
	for _, p := range s.Protocols {
		if p.IsSynthetic() && s.ProtocolUsage(p) == 0 {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(s.Protocols); i++ {
		s.Protocols[i] = nil
	}
	s.Protocols = kept
}

// ProtocolUsage counts the processes of the study and its assays executing p.
func (s *Study) ProtocolUsage(p *Protocol) int {
	n := 0
	for _, proc := range s.AllProcesses() {
		if proc.ExecutesProtocol == p {
			n++
		}
	}
	return n
}

// AllProcesses returns the study processes followed by each assay's processes.
func (s *Study) AllProcesses() []*Process {
	out := make([]*Process, 0, len(s.Processes))
	out = append(out, s.Processes...)
	for _, a := range s.Assays {
		out = append(out, a.Processes...)
	}
	return out
}

// GetFactor returns the factor with the given name.
func (s *Study) GetFactor(name string) *StudyFactor {
	for _, f := range s.Factors {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// AddFactor appends f unless a factor with the same name exists.
func (s *Study) AddFactor(f *StudyFactor) (*StudyFactor, bool) {
	if existing := s.GetFactor(f.Name); existing != nil {
		logging.L().Warn("factor already declared", "study", s.Identifier, "factor", f.Name)
		return existing, false
	}
	s.Factors = append(s.Factors, f)
	return f, true
}

// RemoveFactor removes the named factor.
func (s *Study) RemoveFactor(name string) bool {
	for i, f := range s.Factors {
		if f.Name == name {
			s.Factors = append(s.Factors[:i], s.Factors[i+1:]...)
			return true
		}
	}
	return false
}

// GetSource returns the source with the given name.
func (s *Study) GetSource(name string) *Source {
	for _, src := range s.Sources {
		if src.Name == name {
			return src
		}
	}
	return nil
}

// AddSource appends src unless a source with the same name exists.
func (s *Study) AddSource(src *Source) (*Source, bool) {
	if existing := s.GetSource(src.Name); existing != nil {
		logging.L().Warn("source already declared", "study", s.Identifier, "source", src.Name)
		return existing, false
	}
	s.Sources = append(s.Sources, src)
	return src, true
}

// GetSample returns the sample with the given name.
func (s *Study) GetSample(name string) *Sample {
	for _, smp := range s.Samples {
		if smp.Name == name {
			return smp
		}
	}
	return nil
}

// AddSample appends smp unless a sample with the same name exists.
func (s *Study) AddSample(smp *Sample) (*Sample, bool) {
	if existing := s.GetSample(smp.Name); existing != nil {
		logging.L().Warn("sample already declared", "study", s.Identifier, "sample", smp.Name)
		return existing, false
	}
	s.Samples = append(s.Samples, smp)
	return smp, true
}

// GetMaterial returns the material of the given type and name.
func (s *Study) GetMaterial(t MaterialType, name string) *Material {
	return findMaterial(s.OtherMaterials, t, name)
}

// AddMaterial appends m unless a material of the same type and name exists.
func (s *Study) AddMaterial(m *Material) (*Material, bool) {
	if existing := s.GetMaterial(m.typ, m.Name); existing != nil {
		return existing, false
	}
	s.OtherMaterials = append(s.OtherMaterials, m)
	return m, true
}

// SourcesWithCharacteristic returns sources carrying the characteristic value.
func (s *Study) SourcesWithCharacteristic(category string, value Value) []*Source {
	var out []*Source
	for _, src := range s.Sources {
		if src.HasCharacteristic(category, value) {
			out = append(out, src)
		}
	}
	return out
}

// SamplesWithCharacteristic returns samples carrying the characteristic value.
func (s *Study) SamplesWithCharacteristic(category string, value Value) []*Sample {
	var out []*Sample
	for _, smp := range s.Samples {
		if smp.HasCharacteristic(category, value) {
			out = append(out, smp)
		}
	}
	return out
}

// MaterialsWithCharacteristic returns the study's and its assays' materials
// carrying the characteristic value.
func (s *Study) MaterialsWithCharacteristic(category string, value Value) []*Material {
	var out []*Material
	collect := func(list []*Material) {
		for _, m := range list {
			if m.HasCharacteristic(category, value) {
				out = append(out, m)
			}
		}
	}
	collect(s.OtherMaterials)
	for _, a := range s.Assays {
		collect(a.OtherMaterials)
	}
	return out
}

// SamplesWithFactorValue returns samples whose value for factor equals value.
func (s *Study) SamplesWithFactorValue(factor string, value Value) []*Sample {
	var out []*Sample
	for _, smp := range s.Samples {
		if fv := smp.GetFactorValue(factor); fv != nil && fv.Value.Equal(value) {
			out = append(out, smp)
		}
	}
	return out
}

// GetAssay returns the assay with the given file name.
func (s *Study) GetAssay(filename string) *Assay {
	for _, a := range s.Assays {
		if a.Filename == filename {
			return a
		}
	}
	return nil
}

// AddAssay appends a unless an assay with the same file name exists.
func (s *Study) AddAssay(a *Assay) (*Assay, bool) {
	if existing := s.GetAssay(a.Filename); existing != nil {
		logging.L().Warn("assay already declared", "study", s.Identifier, "assay", a.Filename)
		return existing, false
	}
	s.Assays = append(s.Assays, a)
	return a, true
}

func findMaterial(list []*Material, t MaterialType, name string) *Material {
	for _, m := range list {
		if m.typ == t && m.Name == name {
			return m
		}
	}
	return nil
}
