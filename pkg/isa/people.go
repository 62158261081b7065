package isa

// Person is a contact of an investigation or study.
type Person struct {
	Commentable
	LastName    string
	FirstName   string
	MidInitials string
	Email       string
	Phone       string
	Fax         string
	Address     string
	Affiliation string
	Roles       []*OntologyAnnotation
}

// Publication is a publication associated with an investigation or study.
type Publication struct {
	Commentable
	PubMedID   string
	DOI        string
	AuthorList string
	Title      string
	Status     *OntologyAnnotation
}
