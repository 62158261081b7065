package isa

// Assay is a test performed on study samples yielding data files. Samples
// are references to the parent study's samples; materials, data files and
// processes are owned by the assay.
type Assay struct {
	Commentable
	Categories
	Filename           string
	MeasurementType    *OntologyAnnotation
	TechnologyType     *OntologyAnnotation
	TechnologyPlatform string
	Samples            []*Sample
	OtherMaterials     []*Material
	DataFiles          []*DataFile
	Processes          []*Process
}

// NewAssay returns an assay for the given file and type pair.
func NewAssay(filename string, measurement, technology *OntologyAnnotation) *Assay {
	return &Assay{Filename: filename, MeasurementType: measurement, TechnologyType: technology}
}

// AddSample records a reference to a study sample once.
func (a *Assay) AddSample(s *Sample) {
	for _, existing := range a.Samples {
		if existing == s {
			return
		}
	}
	a.Samples = append(a.Samples, s)
}

// GetMaterial returns the material of the given type and name.
func (a *Assay) GetMaterial(t MaterialType, name string) *Material {
	return findMaterial(a.OtherMaterials, t, name)
}

// AddMaterial appends m unless a material of the same type and name exists.
func (a *Assay) AddMaterial(m *Material) (*Material, bool) {
	if existing := a.GetMaterial(m.typ, m.Name); existing != nil {
		return existing, false
	}
	a.OtherMaterials = append(a.OtherMaterials, m)
	return m, true
}

// GetDataFile returns the data file with the given label and name.
func (a *Assay) GetDataFile(label DataFileLabel, name string) *DataFile {
	for _, d := range a.DataFiles {
		if d.label == label && d.Filename == name {
			return d
		}
	}
	return nil
}

// AddDataFile appends d unless a file with the same label and name exists.
func (a *Assay) AddDataFile(d *DataFile) (*DataFile, bool) {
	if existing := a.GetDataFile(d.label, d.Filename); existing != nil {
		return existing, false
	}
	a.DataFiles = append(a.DataFiles, d)
	return d, true
}

// MeasurementTerm returns the measurement type term.
func (a *Assay) MeasurementTerm() string { return TermOf(a.MeasurementType) }

// TechnologyTerm returns the technology type term.
func (a *Assay) TechnologyTerm() string { return TermOf(a.TechnologyType) }
