package isatab

import (
	"regexp"
	"strings"
)

// Investigation file section names, in file order.
const (
	SectionOntologySources           = "ONTOLOGY SOURCE REFERENCE"
	SectionInvestigation             = "INVESTIGATION"
	SectionInvestigationPublications = "INVESTIGATION PUBLICATIONS"
	SectionInvestigationContacts     = "INVESTIGATION CONTACTS"
	SectionStudy                     = "STUDY"
	SectionStudyDesignDescriptors    = "STUDY DESIGN DESCRIPTORS"
	SectionStudyPublications         = "STUDY PUBLICATIONS"
	SectionStudyFactors              = "STUDY FACTORS"
	SectionStudyAssays               = "STUDY ASSAYS"
	SectionStudyProtocols            = "STUDY PROTOCOLS"
	SectionStudyContacts             = "STUDY CONTACTS"
)

// InvestigationSections lists the sections preceding the first study block.
var InvestigationSections = []string{
	SectionOntologySources,
	SectionInvestigation,
	SectionInvestigationPublications,
	SectionInvestigationContacts,
}

// StudySections lists the sections of one study block.
var StudySections = []string{
	SectionStudy,
	SectionStudyDesignDescriptors,
	SectionStudyPublications,
	SectionStudyFactors,
	SectionStudyAssays,
	SectionStudyProtocols,
	SectionStudyContacts,
}

func isSectionName(s string) bool {
	for _, n := range InvestigationSections {
		if n == s {
			return true
		}
	}
	for _, n := range StudySections {
		if n == s {
			return true
		}
	}
	return false
}

var sectionToken = regexp.MustCompile(`^[A-Z][A-Z ]*[A-Z]$`)

const (
	suffixAccession = " Term Accession Number"
	suffixSource    = " Term Source REF"
)

// Field labels of the investigation file.
const (
	labelTermSourceName        = "Term Source Name"
	labelTermSourceFile        = "Term Source File"
	labelTermSourceVersion     = "Term Source Version"
	labelTermSourceDescription = "Term Source Description"

	labelStudyDesignType = "Study Design Type"

	labelFactorName = "Study Factor Name"
	labelFactorType = "Study Factor Type"

	labelAssayMeasurementType    = "Study Assay Measurement Type"
	labelAssayTechnologyType     = "Study Assay Technology Type"
	labelAssayTechnologyPlatform = "Study Assay Technology Platform"
	labelAssayFileName           = "Study Assay File Name"

	labelProtocolName           = "Study Protocol Name"
	labelProtocolType           = "Study Protocol Type"
	labelProtocolDescription    = "Study Protocol Description"
	labelProtocolURI            = "Study Protocol URI"
	labelProtocolVersion        = "Study Protocol Version"
	labelProtocolParameters     = "Study Protocol Parameters Name"
	labelProtocolComponentsName = "Study Protocol Components Name"
	labelProtocolComponentsType = "Study Protocol Components Type"
)

// identityLabels names the scalar fields of the INVESTIGATION or STUDY section.
type identityLabels struct {
	Identifier, Title, Description, SubmissionDate, PublicReleaseDate, FileName string
}

func identityFor(prefix string) identityLabels {
	return identityLabels{
		Identifier:        prefix + " Identifier",
		Title:             prefix + " Title",
		Description:       prefix + " Description",
		SubmissionDate:    prefix + " Submission Date",
		PublicReleaseDate: prefix + " Public Release Date",
		FileName:          prefix + " File Name",
	}
}

type publicationLabels struct {
	PubMedID, DOI, AuthorList, Title, Status string
}

func publicationsFor(prefix string) publicationLabels {
	return publicationLabels{
		PubMedID:   prefix + " PubMed ID",
		DOI:        prefix + " Publication DOI",
		AuthorList: prefix + " Publication Author List",
		Title:      prefix + " Publication Title",
		Status:     prefix + " Publication Status",
	}
}

type contactLabels struct {
	LastName, FirstName, MidInitials, Email, Phone, Fax, Address, Affiliation, Roles string
}

func contactsFor(prefix string) contactLabels {
	p := prefix + " Person "
	return contactLabels{
		LastName:    p + "Last Name",
		FirstName:   p + "First Name",
		MidInitials: p + "Mid Initials",
		Email:       p + "Email",
		Phone:       p + "Phone",
		Fax:         p + "Fax",
		Address:     p + "Address",
		Affiliation: p + "Affiliation",
		Roles:       p + "Roles",
	}
}

var commentLabel = regexp.MustCompile(`^Comment\s*\[(.*)\]$`)

// commentName extracts the name of a Comment[...] label.
func commentName(label string) (string, bool) {
	m := commentLabel.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func commentHeader(name string) string { return "Comment[" + name + "]" }

func normLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
