// Package isa defines the investigation/study/assay domain model: the
// entities, their tagged attribute values, ownership rules and structural
// equality.
package isa

import "isacore/internal/logging"

// Investigation is the top-level container. It owns its studies and the
// ontology sources every annotation points at.
type Investigation struct {
	Commentable
	Identifier        string
	Title             string
	Description       string
	SubmissionDate    string
	PublicReleaseDate string
	Filename          string
	OntologySources   []*OntologySource
	Publications      []*Publication
	Contacts          []*Person
	Studies           []*Study
}

// NewInvestigation returns an investigation with the given identifier.
func NewInvestigation(identifier string) *Investigation {
	return &Investigation{Identifier: identifier}
}

// GetOntologySource returns the source with the given name.
func (inv *Investigation) GetOntologySource(name string) *OntologySource {
	for _, src := range inv.OntologySources {
		if src.Name == name {
			return src
		}
	}
	return nil
}

// AddOntologySource appends src unless a source with the same name exists.
func (inv *Investigation) AddOntologySource(src *OntologySource) (*OntologySource, bool) {
	if existing := inv.GetOntologySource(src.Name); existing != nil {
		logging.L().Warn("ontology source already declared", "investigation", inv.Identifier, "source", src.Name)
		return existing, false
	}
	inv.OntologySources = append(inv.OntologySources, src)
	return src, true
}

// GetStudy returns the study with the given identifier.
func (inv *Investigation) GetStudy(identifier string) *Study {
	for _, s := range inv.Studies {
		if s.Identifier == identifier {
			return s
		}
	}
	return nil
}

// AddStudy appends s unless a study with the same identifier exists.
func (inv *Investigation) AddStudy(s *Study) (*Study, bool) {
	if existing := inv.GetStudy(s.Identifier); existing != nil {
		logging.L().Warn("study already declared", "investigation", inv.Identifier, "study", s.Identifier)
		return existing, false
	}
	inv.Studies = append(inv.Studies, s)
	return s, true
}

// PruneSyntheticProtocols runs Study.PruneSyntheticProtocols on every study.
func (inv *Investigation) PruneSyntheticProtocols() {
	for _, s := range inv.Studies {
		s.PruneSyntheticProtocols()
	}
}
