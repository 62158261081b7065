package isa

import "fmt"

// NodeKind identifies the kind of a material or data node.
type NodeKind string

// Node kinds participating in the experimental graph.
const (
	KindSource   NodeKind = "source"
	KindSample   NodeKind = "sample"
	KindMaterial NodeKind = "material"
	KindDataFile NodeKind = "data file"
)

// Node is a material or data vertex of the experimental graph.
type Node interface {
	Annotated
	NodeName() string
	NodeKind() NodeKind
	// Label returns the column header that introduces the node in a table.
	Label() string
}

// NodeKey returns the identity of a node within its container: kind, label
// and name.
func NodeKey(n Node) string {
	return fmt.Sprintf("%s\x00%s\x00%s", n.NodeKind(), n.Label(), n.NodeName())
}

// Column headers that introduce material nodes.
const (
	LabelSource         = "Source Name"
	LabelSample         = "Sample Name"
	LabelExtract        = "Extract Name"
	LabelLabeledExtract = "Labeled Extract Name"
)

// MaterialType is the enumerated type of a Material.
type MaterialType string

// Recognised material types.
const (
	MaterialExtract        MaterialType = "extract"
	MaterialLabeledExtract MaterialType = "labeled extract"
)

var materialLabels = map[MaterialType]string{
	MaterialExtract:        LabelExtract,
	MaterialLabeledExtract: LabelLabeledExtract,
}

// MaterialTypeForLabel maps a node header to a material type.
func MaterialTypeForLabel(label string) (MaterialType, bool) {
	for t, l := range materialLabels {
		if l == label {
			return t, true
		}
	}
	return "", false
}

// DataFileLabel is the enumerated type of a DataFile, equal to its column header.
type DataFileLabel string

// Recognised data file labels.
const (
	RawDataFile                    DataFileLabel = "Raw Data File"
	DerivedDataFile                DataFileLabel = "Derived Data File"
	ArrayDataFile                  DataFileLabel = "Array Data File"
	RawSpectralDataFile            DataFileLabel = "Raw Spectral Data File"
	DerivedSpectralDataFile        DataFileLabel = "Derived Spectral Data File"
	ImageFile                      DataFileLabel = "Image File"
	AcquisitionParameterDataFile   DataFileLabel = "Acquisition Parameter Data File"
	FreeInductionDecayDataFile     DataFileLabel = "Free Induction Decay Data File"
	ProteinAssignmentFile          DataFileLabel = "Protein Assignment File"
	PeptideAssignmentFile          DataFileLabel = "Peptide Assignment File"
	PostTranslationalModAssignment DataFileLabel = "Post Translational Modification Assignment File"
	MetaboliteAssignmentFile       DataFileLabel = "Metabolite Assignment File"
	DerivedArrayDataFile           DataFileLabel = "Derived Array Data File"
	DerivedArrayDataMatrixFile     DataFileLabel = "Derived Array Data Matrix File"
)

// DataFileLabels lists every recognised data file label.
var DataFileLabels = []DataFileLabel{
	RawDataFile, DerivedDataFile, ArrayDataFile, RawSpectralDataFile,
	DerivedSpectralDataFile, ImageFile, AcquisitionParameterDataFile,
	FreeInductionDecayDataFile, ProteinAssignmentFile, PeptideAssignmentFile,
	PostTranslationalModAssignment, MetaboliteAssignmentFile,
	DerivedArrayDataFile, DerivedArrayDataMatrixFile,
}

// IsDataFileLabel reports whether label is a recognised data file header.
func IsDataFileLabel(label string) bool {
	for _, l := range DataFileLabels {
		if string(l) == label {
			return true
		}
	}
	return false
}

// Characterized holds the characteristics of a material node.
type Characterized struct {
	Characteristics []*Characteristic
}

// GetCharacteristic returns the first characteristic with the category name.
func (c *Characterized) GetCharacteristic(category string) *Characteristic {
	for _, ch := range c.Characteristics {
		if ch.Category.Name() == category {
			return ch
		}
	}
	return nil
}

// AddCharacteristic appends a characteristic.
func (c *Characterized) AddCharacteristic(ch *Characteristic) {
	c.Characteristics = append(c.Characteristics, ch)
}

// HasCharacteristic reports whether a characteristic of the category carries value.
func (c *Characterized) HasCharacteristic(category string, value Value) bool {
	for _, ch := range c.Characteristics {
		if ch.Category.Name() == category && ch.Value.Equal(value) {
			return true
		}
	}
	return false
}

// Source is the subject an experiment starts from.
type Source struct {
	Commentable
	Characterized
	Name string
}

// NewSource returns a named source.
func NewSource(name string) *Source { return &Source{Name: name} }

func (s *Source) NodeName() string   { return s.Name }
func (s *Source) NodeKind() NodeKind { return KindSource }
func (s *Source) Label() string      { return LabelSource }

// Sample is a specimen derived from one or more Sources.
type Sample struct {
	Commentable
	Characterized
	Name         string
	FactorValues []*FactorValue
	DerivesFrom  []*Source
}

// NewSample returns a named sample.
func NewSample(name string) *Sample { return &Sample{Name: name} }

func (s *Sample) NodeName() string   { return s.Name }
func (s *Sample) NodeKind() NodeKind { return KindSample }
func (s *Sample) Label() string      { return LabelSample }

// AddFactorValue appends a factor value.
func (s *Sample) AddFactorValue(fv *FactorValue) {
	s.FactorValues = append(s.FactorValues, fv)
}

// GetFactorValue returns the factor value for the named factor.
func (s *Sample) GetFactorValue(factor string) *FactorValue {
	for _, fv := range s.FactorValues {
		if fv.Factor != nil && fv.Factor.Name == factor {
			return fv
		}
	}
	return nil
}

// AddDerivesFrom records src as an origin of the sample once.
func (s *Sample) AddDerivesFrom(src *Source) {
	for _, existing := range s.DerivesFrom {
		if existing == src {
			return
		}
	}
	s.DerivesFrom = append(s.DerivesFrom, src)
}

// Material is an intermediate material such as an extract.
type Material struct {
	Commentable
	Characterized
	Name string
	typ  MaterialType
}

// NewMaterial returns a material of a recognised type.
func NewMaterial(name string, t MaterialType) (*Material, error) {
	m := &Material{Name: name}
	if err := m.SetType(t); err != nil {
		return nil, err
	}
	return m, nil
}

// SetType assigns the material type, rejecting unrecognised values.
func (m *Material) SetType(t MaterialType) error {
	if _, ok := materialLabels[t]; !ok {
		return &AttributeError{Entity: "Material", Attribute: "type", Value: t, Msg: `expected "extract" or "labeled extract"`}
	}
	m.typ = t
	return nil
}

func (m *Material) NodeName() string   { return m.Name }
func (m *Material) NodeKind() NodeKind { return KindMaterial }
func (m *Material) Label() string      { return materialLabels[m.typ] }

// Type returns the material type; it changes only through SetType.
func (m *Material) Type() MaterialType { return m.typ }

// DataFile references a file produced by an assay.
type DataFile struct {
	Commentable
	Filename      string
	GeneratedFrom []*Sample
	label         DataFileLabel
}

// NewDataFile returns a data file of a recognised label.
func NewDataFile(filename string, label DataFileLabel) (*DataFile, error) {
	d := &DataFile{Filename: filename}
	if err := d.SetLabel(label); err != nil {
		return nil, err
	}
	return d, nil
}

// SetLabel assigns the data file label, rejecting unrecognised values.
func (d *DataFile) SetLabel(label DataFileLabel) error {
	if !IsDataFileLabel(string(label)) {
		return &AttributeError{Entity: "DataFile", Attribute: "label", Value: label, Msg: "unrecognised data file label"}
	}
	d.label = label
	return nil
}

// AddGeneratedFrom records sample as an origin of the file once.
func (d *DataFile) AddGeneratedFrom(sample *Sample) {
	for _, existing := range d.GeneratedFrom {
		if existing == sample {
			return
		}
	}
	d.GeneratedFrom = append(d.GeneratedFrom, sample)
}

func (d *DataFile) NodeName() string   { return d.Filename }
func (d *DataFile) NodeKind() NodeKind { return KindDataFile }
func (d *DataFile) Label() string      { return string(d.label) }

// FileLabel returns the data file label; it changes only through SetLabel.
func (d *DataFile) FileLabel() DataFileLabel { return d.label }

var (
	_ Node = (*Source)(nil)
	_ Node = (*Sample)(nil)
	_ Node = (*Material)(nil)
	_ Node = (*DataFile)(nil)
)
