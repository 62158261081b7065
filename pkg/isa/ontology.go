package isa

// OntologySource describes a controlled vocabulary referenced by annotations.
// Sources are owned by the Investigation.
type OntologySource struct {
	Commentable
	Name        string
	File        string
	Version     string
	Description string
}

// NewOntologySource returns a source with the given name.
func NewOntologySource(name, file, version, description string) *OntologySource {
	return &OntologySource{Name: name, File: file, Version: version, Description: description}
}

// OntologyAnnotation is a (term, term source, accession) triple.
type OntologyAnnotation struct {
	Commentable
	Term          string
	TermSource    *OntologySource
	TermAccession string
}

// NewOntologyAnnotation returns an annotation; source may be nil.
func NewOntologyAnnotation(term string, source *OntologySource, accession string) *OntologyAnnotation {
	return &OntologyAnnotation{Term: term, TermSource: source, TermAccession: accession}
}

// SourceName returns the name of the term source or "" when unset.
func (a *OntologyAnnotation) SourceName() string {
	if a == nil || a.TermSource == nil {
		return ""
	}
	return a.TermSource.Name
}

// IsEmpty reports whether the annotation carries no information.
func (a *OntologyAnnotation) IsEmpty() bool {
	return a == nil || (a.Term == "" && a.TermSource == nil && a.TermAccession == "")
}

// TermOf returns the term of a possibly nil annotation.
func TermOf(a *OntologyAnnotation) string {
	if a == nil {
		return ""
	}
	return a.Term
}

// AccessionOf returns the accession of a possibly nil annotation.
func AccessionOf(a *OntologyAnnotation) string {
	if a == nil {
		return ""
	}
	return a.TermAccession
}

// SameTerm compares two annotations by term, source name and accession.
func SameTerm(a, b *OntologyAnnotation) bool {
	if a == nil || b == nil {
		return a.IsEmpty() && b.IsEmpty()
	}
	return a.Term == b.Term && a.SourceName() == b.SourceName() && a.TermAccession == b.TermAccession
}
