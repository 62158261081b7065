// Package isajson maps an investigation to and from its nested JSON document
// form. Definitional lists carry full objects; every other position refers to
// them through {"@id": ...} objects.
package isajson

import "encoding/json"

type commentDoc struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type refDoc struct {
	ID string `json:"@id"`
}

type annotationDoc struct {
	ID              string       `json:"@id,omitempty"`
	AnnotationValue string       `json:"annotationValue"`
	TermSource      string       `json:"termSource"`
	TermAccession   string       `json:"termAccession"`
	Comments        []commentDoc `json:"comments,omitempty"`
}

type ontologySourceDoc struct {
	Name        string       `json:"name"`
	File        string       `json:"file"`
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Comments    []commentDoc `json:"comments,omitempty"`
}

type publicationDoc struct {
	PubMedID   string         `json:"pubMedID"`
	DOI        string         `json:"doi"`
	AuthorList string         `json:"authorList"`
	Title      string         `json:"title"`
	Status     *annotationDoc `json:"status,omitempty"`
	Comments   []commentDoc   `json:"comments,omitempty"`
}

type personDoc struct {
	LastName    string          `json:"lastName"`
	FirstName   string          `json:"firstName"`
	MidInitials string          `json:"midInitials"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Fax         string          `json:"fax"`
	Address     string          `json:"address"`
	Affiliation string          `json:"affiliation"`
	Roles       []annotationDoc `json:"roles"`
	Comments    []commentDoc    `json:"comments,omitempty"`
}

type investigationDoc struct {
	Identifier        string              `json:"identifier"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	SubmissionDate    string              `json:"submissionDate"`
	PublicReleaseDate string              `json:"publicReleaseDate"`
	OntologySources   []ontologySourceDoc `json:"ontologySourceReferences"`
	Publications      []publicationDoc    `json:"publications"`
	People            []personDoc         `json:"people"`
	Studies           []studyDoc          `json:"studies"`
	Comments          []commentDoc        `json:"comments,omitempty"`
}

type parameterDoc struct {
	ID            string         `json:"@id,omitempty"`
	ParameterName *annotationDoc `json:"parameterName"`
}

type componentDoc struct {
	ComponentName string         `json:"componentName"`
	ComponentType *annotationDoc `json:"componentType,omitempty"`
}

type protocolDoc struct {
	ID           string         `json:"@id,omitempty"`
	Name         string         `json:"name"`
	ProtocolType *annotationDoc `json:"protocolType,omitempty"`
	Description  string         `json:"description"`
	URI          string         `json:"uri"`
	Version      string         `json:"version"`
	Parameters   []parameterDoc `json:"parameters"`
	Components   []componentDoc `json:"components"`
	Comments     []commentDoc   `json:"comments,omitempty"`
}

type factorDoc struct {
	ID         string         `json:"@id,omitempty"`
	FactorName string         `json:"factorName"`
	FactorType *annotationDoc `json:"factorType,omitempty"`
	Comments   []commentDoc   `json:"comments,omitempty"`
}

type categoryDoc struct {
	ID                 string         `json:"@id,omitempty"`
	CharacteristicType *annotationDoc `json:"characteristicType"`
}

// valueDoc is a characteristic, factor or parameter value. Category and Unit
// are references; Value is a string, number or annotation object.
type valueDoc struct {
	Category json.RawMessage `json:"category"`
	Value    json.RawMessage `json:"value,omitempty"`
	Unit     json.RawMessage `json:"unit,omitempty"`
	Comments []commentDoc    `json:"comments,omitempty"`
}

// nodeDoc serves sources, samples, other materials and data files.
type nodeDoc struct {
	ID              string            `json:"@id,omitempty"`
	Name            string            `json:"name"`
	Type            string            `json:"type,omitempty"`
	Characteristics []valueDoc        `json:"characteristics,omitempty"`
	FactorValues    []valueDoc        `json:"factorValues,omitempty"`
	DerivesFrom     []json.RawMessage `json:"derivesFrom,omitempty"`
	Comments        []commentDoc      `json:"comments,omitempty"`
}

type processDoc struct {
	ID               string            `json:"@id,omitempty"`
	Name             string            `json:"name"`
	ExecutesProtocol json.RawMessage   `json:"executesProtocol"`
	ParameterValues  []valueDoc        `json:"parameterValues"`
	Performer        string            `json:"performer"`
	Date             string            `json:"date"`
	ArrayDesignRef   string            `json:"arrayDesignRef,omitempty"`
	PreviousProcess  json.RawMessage   `json:"previousProcess,omitempty"`
	NextProcess      json.RawMessage   `json:"nextProcess,omitempty"`
	Inputs           []json.RawMessage `json:"inputs"`
	Outputs          []json.RawMessage `json:"outputs"`
	Comments         []commentDoc      `json:"comments,omitempty"`
}

type studyMaterialsDoc struct {
	Sources        []nodeDoc `json:"sources"`
	Samples        []nodeDoc `json:"samples"`
	OtherMaterials []nodeDoc `json:"otherMaterials"`
}

// assayMaterialsDoc lists assay samples as references to study samples.
type assayMaterialsDoc struct {
	Samples        []json.RawMessage `json:"samples"`
	OtherMaterials []nodeDoc         `json:"otherMaterials"`
}

type assayDoc struct {
	ID                       string            `json:"@id,omitempty"`
	Filename                 string            `json:"filename"`
	MeasurementType          *annotationDoc    `json:"measurementType,omitempty"`
	TechnologyType           *annotationDoc    `json:"technologyType,omitempty"`
	TechnologyPlatform       string            `json:"technologyPlatform"`
	DataFiles                []nodeDoc         `json:"dataFiles"`
	Materials                assayMaterialsDoc `json:"materials"`
	CharacteristicCategories []categoryDoc     `json:"characteristicCategories"`
	UnitCategories           []annotationDoc   `json:"unitCategories"`
	ProcessSequence          []processDoc      `json:"processSequence"`
	Comments                 []commentDoc      `json:"comments,omitempty"`
}

type studyDoc struct {
	ID                       string            `json:"@id,omitempty"`
	Filename                 string            `json:"filename"`
	Identifier               string            `json:"identifier"`
	Title                    string            `json:"title"`
	Description              string            `json:"description"`
	SubmissionDate           string            `json:"submissionDate"`
	PublicReleaseDate        string            `json:"publicReleaseDate"`
	Publications             []publicationDoc  `json:"publications"`
	People                   []personDoc       `json:"people"`
	DesignDescriptors        []annotationDoc   `json:"studyDesignDescriptors"`
	Protocols                []protocolDoc     `json:"protocols"`
	Materials                studyMaterialsDoc `json:"materials"`
	ProcessSequence          []processDoc      `json:"processSequence"`
	Assays                   []assayDoc        `json:"assays"`
	Factors                  []factorDoc       `json:"factors"`
	CharacteristicCategories []categoryDoc     `json:"characteristicCategories"`
	UnitCategories           []annotationDoc   `json:"unitCategories"`
	Comments                 []commentDoc      `json:"comments,omitempty"`
}
