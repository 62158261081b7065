package isajson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"isacore/internal/logging"
	"isacore/pkg/isa"
)

// Writer encodes investigations as documents.
type Writer struct {
	// IDs mints identifiers; CounterIDs when nil.
	IDs IDStrategy
	// Indent pretty-prints with two-space indentation.
	Indent bool
}

// Write encodes inv to out with counter identifiers, indented.
func Write(out io.Writer, inv *isa.Investigation) error {
	return Writer{Indent: true}.Write(out, inv)
}

// Marshal returns the document of inv. Unused synthetic protocols are pruned
// first.
func (w Writer) Marshal(inv *isa.Investigation) ([]byte, error) {
	inv.PruneSyntheticProtocols()
	e := &encoder{ids: newIDTable(w.IDs)}
	e.assignIDs(inv)
	doc := e.investigation(inv)
	if e.err != nil {
		return nil, e.err
	}
	if w.Indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// Write encodes inv to out followed by a newline.
func (w Writer) Write(out io.Writer, inv *isa.Investigation) error {
	data, err := w.Marshal(inv)
	if err != nil {
		return fmt.Errorf("isajson: encode %s: %w", inv.Identifier, err)
	}
	if _, err := out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("isajson: write %s: %w", inv.Identifier, err)
	}
	logging.L().Debug("document written", "investigation", inv.Identifier, "bytes", len(data)+1)
	return nil
}

// WriteFile encodes inv into the file at path.
func (w Writer) WriteFile(path string, inv *isa.Investigation) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("isajson: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("isajson: close %s: %w", path, cerr)
		}
	}()
	return w.Write(f, inv)
}

type encoder struct {
	ids *idTable
	err error
}

// assignIDs numbers every definitional entity in writing order so that
// references resolve regardless of where they appear.
func (e *encoder) assignIDs(inv *isa.Investigation) {
	for _, s := range inv.Studies {
		e.ids.assign(s, KindStudy, s.Identifier)
		for _, p := range s.Protocols {
			if p.IsSynthetic() {
				continue
			}
			e.ids.assign(p, KindProtocol, p.Name)
			for _, param := range p.Parameters {
				e.ids.assign(param, KindParameter, param.ParameterName())
			}
		}
		for _, f := range s.Factors {
			e.ids.assign(f, KindFactor, f.Name)
		}
		e.categoryIDs(&s.Categories)
		for _, src := range s.Sources {
			e.ids.assign(src, KindSource, src.Name)
		}
		for _, smp := range s.Samples {
			e.ids.assign(smp, KindSample, smp.Name)
		}
		e.materialIDs(s.OtherMaterials)
		for _, a := range s.Assays {
			e.ids.assign(a, KindAssay, a.Filename)
			e.categoryIDs(&a.Categories)
			e.materialIDs(a.OtherMaterials)
			for _, d := range a.DataFiles {
				e.ids.assign(d, KindDataFile, d.Filename)
			}
		}
		for _, p := range s.AllProcesses() {
			e.ids.assign(p, KindProcess, p.Name)
		}
	}
}

func (e *encoder) categoryIDs(c *isa.Categories) {
	for _, cat := range c.CharacteristicCategories {
		e.ids.assign(cat, KindCategory, cat.Name())
	}
	for _, u := range c.UnitCategories {
		e.ids.assign(u, KindUnit, u.Term)
	}
}

func (e *encoder) materialIDs(list []*isa.Material) {
	for _, m := range list {
		e.ids.assign(m, KindMaterial, m.Name)
	}
}

func (e *encoder) raw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil && e.err == nil {
		e.err = err
	}
	return data
}

func (e *encoder) ref(entity any) (json.RawMessage, bool) {
	id, ok := e.ids.lookup(entity)
	if !ok {
		return nil, false
	}
	return e.raw(refDoc{ID: id}), true
}

func (e *encoder) id(entity any) string {
	id, _ := e.ids.lookup(entity)
	return id
}

func comments(list []isa.Comment) []commentDoc {
	if len(list) == 0 {
		return nil
	}
	out := make([]commentDoc, len(list))
	for i, c := range list {
		out[i] = commentDoc{Name: c.Name, Value: c.Value}
	}
	return out
}

func annotation(a *isa.OntologyAnnotation) *annotationDoc {
	if a == nil {
		return nil
	}
	return &annotationDoc{
		AnnotationValue: a.Term,
		TermSource:      a.SourceName(),
		TermAccession:   a.TermAccession,
		Comments:        comments(a.Comments),
	}
}

func annotations(list []*isa.OntologyAnnotation) []annotationDoc {
	out := make([]annotationDoc, 0, len(list))
	for _, a := range list {
		if d := annotation(a); d != nil {
			out = append(out, *d)
		} else {
			out = append(out, annotationDoc{})
		}
	}
	return out
}

func (e *encoder) investigation(inv *isa.Investigation) investigationDoc {
	doc := investigationDoc{
		Identifier:        inv.Identifier,
		Title:             inv.Title,
		Description:       inv.Description,
		SubmissionDate:    inv.SubmissionDate,
		PublicReleaseDate: inv.PublicReleaseDate,
		OntologySources:   make([]ontologySourceDoc, 0, len(inv.OntologySources)),
		Publications:      publications(inv.Publications),
		People:            people(inv.Contacts),
		Studies:           make([]studyDoc, 0, len(inv.Studies)),
		Comments:          comments(inv.Comments),
	}
	for _, src := range inv.OntologySources {
		doc.OntologySources = append(doc.OntologySources, ontologySourceDoc{
			Name:        src.Name,
			File:        src.File,
			Version:     src.Version,
			Description: src.Description,
			Comments:    comments(src.Comments),
		})
	}
	for _, s := range inv.Studies {
		doc.Studies = append(doc.Studies, e.study(s))
	}
	return doc
}

func publications(list []*isa.Publication) []publicationDoc {
	out := make([]publicationDoc, 0, len(list))
	for _, p := range list {
		out = append(out, publicationDoc{
			PubMedID:   p.PubMedID,
			DOI:        p.DOI,
			AuthorList: p.AuthorList,
			Title:      p.Title,
			Status:     annotation(p.Status),
			Comments:   comments(p.Comments),
		})
	}
	return out
}

func people(list []*isa.Person) []personDoc {
	out := make([]personDoc, 0, len(list))
	for _, p := range list {
		out = append(out, personDoc{
			LastName:    p.LastName,
			FirstName:   p.FirstName,
			MidInitials: p.MidInitials,
			Email:       p.Email,
			Phone:       p.Phone,
			Fax:         p.Fax,
			Address:     p.Address,
			Affiliation: p.Affiliation,
			Roles:       annotations(p.Roles),
			Comments:    comments(p.Comments),
		})
	}
	return out
}

func (e *encoder) study(s *isa.Study) studyDoc {
	doc := studyDoc{
		ID:                e.id(s),
		Filename:          s.Filename,
		Identifier:        s.Identifier,
		Title:             s.Title,
		Description:       s.Description,
		SubmissionDate:    s.SubmissionDate,
		PublicReleaseDate: s.PublicReleaseDate,
		Publications:      publications(s.Publications),
		People:            people(s.Contacts),
		DesignDescriptors: annotations(s.DesignDescriptors),
		Protocols:         make([]protocolDoc, 0, len(s.Protocols)),
		Materials: studyMaterialsDoc{
			Sources:        make([]nodeDoc, 0, len(s.Sources)),
			Samples:        make([]nodeDoc, 0, len(s.Samples)),
			OtherMaterials: e.materials(s.OtherMaterials),
		},
		ProcessSequence: e.processes(s.Processes),
		Assays:          make([]assayDoc, 0, len(s.Assays)),
		Factors:         make([]factorDoc, 0, len(s.Factors)),
		Comments:        comments(s.Comments),
	}
	doc.CharacteristicCategories, doc.UnitCategories = e.categories(&s.Categories)
	for _, p := range s.Protocols {
		if !p.IsSynthetic() {
			doc.Protocols = append(doc.Protocols, e.protocol(p))
		}
	}
	for _, src := range s.Sources {
		doc.Materials.Sources = append(doc.Materials.Sources, e.node(src, false))
	}
	for _, smp := range s.Samples {
		doc.Materials.Samples = append(doc.Materials.Samples, e.node(smp, false))
	}
	for _, f := range s.Factors {
		doc.Factors = append(doc.Factors, factorDoc{
			ID:         e.id(f),
			FactorName: f.Name,
			FactorType: annotation(f.FactorType),
			Comments:   comments(f.Comments),
		})
	}
	for _, a := range s.Assays {
		doc.Assays = append(doc.Assays, e.assay(a))
	}
	return doc
}

func (e *encoder) assay(a *isa.Assay) assayDoc {
	doc := assayDoc{
		ID:                 e.id(a),
		Filename:           a.Filename,
		MeasurementType:    annotation(a.MeasurementType),
		TechnologyType:     annotation(a.TechnologyType),
		TechnologyPlatform: a.TechnologyPlatform,
		DataFiles:          make([]nodeDoc, 0, len(a.DataFiles)),
		Materials: assayMaterialsDoc{
			Samples:        make([]json.RawMessage, 0, len(a.Samples)),
			OtherMaterials: e.materials(a.OtherMaterials),
		},
		ProcessSequence: e.processes(a.Processes),
		Comments:        comments(a.Comments),
	}
	doc.CharacteristicCategories, doc.UnitCategories = e.categories(&a.Categories)
	for _, d := range a.DataFiles {
		doc.DataFiles = append(doc.DataFiles, e.node(d, false))
	}
	for _, smp := range a.Samples {
		doc.Materials.Samples = append(doc.Materials.Samples, e.nodeRef(smp))
	}
	return doc
}

func (e *encoder) categories(c *isa.Categories) ([]categoryDoc, []annotationDoc) {
	cats := make([]categoryDoc, 0, len(c.CharacteristicCategories))
	for _, cat := range c.CharacteristicCategories {
		cats = append(cats, categoryDoc{ID: e.id(cat), CharacteristicType: annotation(cat.Type)})
	}
	units := make([]annotationDoc, 0, len(c.UnitCategories))
	for _, u := range c.UnitCategories {
		d := annotation(u)
		if d == nil {
			continue
		}
		d.ID = e.id(u)
		units = append(units, *d)
	}
	return cats, units
}

func (e *encoder) protocol(p *isa.Protocol) protocolDoc {
	doc := protocolDoc{
		ID:           e.id(p),
		Name:         p.Name,
		ProtocolType: annotation(p.ProtocolType),
		Description:  p.Description,
		URI:          p.URI,
		Version:      p.Version,
		Parameters:   make([]parameterDoc, 0, len(p.Parameters)),
		Components:   make([]componentDoc, 0, len(p.Components)),
		Comments:     comments(p.Comments),
	}
	for _, param := range p.Parameters {
		doc.Parameters = append(doc.Parameters, parameterDoc{ID: e.id(param), ParameterName: annotation(param.Name)})
	}
	for _, c := range p.Components {
		doc.Components = append(doc.Components, componentDoc{ComponentName: c.Name, ComponentType: annotation(c.ComponentType)})
	}
	return doc
}

func (e *encoder) materials(list []*isa.Material) []nodeDoc {
	out := make([]nodeDoc, 0, len(list))
	for _, m := range list {
		out = append(out, e.node(m, false))
	}
	return out
}

// node encodes a material or data file. Inline nodes carry their column
// label as type so a reader can tell sources from samples.
func (e *encoder) node(n isa.Node, inline bool) nodeDoc {
	doc := nodeDoc{
		ID:       e.id(n),
		Name:     n.NodeName(),
		Comments: comments(n.YieldComments("")),
	}
	if inline {
		doc.Type = n.Label()
	}
	switch t := n.(type) {
	case *isa.Source:
		doc.Characteristics = e.characteristics(t.Characteristics)
	case *isa.Sample:
		doc.Characteristics = e.characteristics(t.Characteristics)
		for _, fv := range t.FactorValues {
			var factor json.RawMessage
			if fv.Factor != nil {
				factor = e.factorRef(fv.Factor)
			}
			doc.FactorValues = append(doc.FactorValues, valueDoc{
				Category: factor,
				Value:    e.value(fv.Value),
				Unit:     e.unitRef(fv.Unit),
			})
		}
		for _, src := range t.DerivesFrom {
			doc.DerivesFrom = append(doc.DerivesFrom, e.nodeRef(src))
		}
	case *isa.Material:
		doc.Type = t.Label()
		doc.Characteristics = e.characteristics(t.Characteristics)
	case *isa.DataFile:
		doc.Type = t.Label()
	}
	return doc
}

func (e *encoder) characteristics(list []*isa.Characteristic) []valueDoc {
	var out []valueDoc
	for _, c := range list {
		var cat json.RawMessage
		if c.Category != nil {
			if r, ok := e.ref(c.Category); ok {
				cat = r
			} else {
				cat = e.raw(categoryDoc{CharacteristicType: annotation(c.Category.Type)})
			}
		}
		out = append(out, valueDoc{
			Category: cat,
			Value:    e.value(c.Value),
			Unit:     e.unitRef(c.Unit),
			Comments: comments(c.Comments),
		})
	}
	return out
}

// value encodes a number through its source literal. Literals JSON cannot
// carry as numbers, such as 007 or +5, are written as strings and read back
// as numbers.
func (e *encoder) value(v isa.Value) json.RawMessage {
	switch v.Kind() {
	case isa.ValueString:
		s, _ := v.Str()
		return e.raw(s)
	case isa.ValueNumber:
		lit := v.Text()
		if json.Valid([]byte(lit)) {
			return json.RawMessage(lit)
		}
		if lit != "" {
			return e.raw(lit)
		}
		f, _ := v.Number()
		return json.RawMessage(strconv.FormatFloat(f, 'g', -1, 64))
	case isa.ValueAnnotation:
		a, _ := v.Annotation()
		return e.raw(annotation(a))
	default:
		return nil
	}
}

func (e *encoder) unitRef(u *isa.OntologyAnnotation) json.RawMessage {
	if u == nil {
		return nil
	}
	if r, ok := e.ref(u); ok {
		return r
	}
	return e.raw(annotation(u))
}

func (e *encoder) factorRef(f *isa.StudyFactor) json.RawMessage {
	if r, ok := e.ref(f); ok {
		return r
	}
	return e.raw(factorDoc{FactorName: f.Name, FactorType: annotation(f.FactorType), Comments: comments(f.Comments)})
}

func (e *encoder) nodeRef(n isa.Node) json.RawMessage {
	if r, ok := e.ref(n); ok {
		return r
	}
	return e.raw(e.node(n, true))
}

func (e *encoder) processes(list []*isa.Process) []processDoc {
	out := make([]processDoc, 0, len(list))
	for _, p := range list {
		out = append(out, e.process(p))
	}
	return out
}

// process encodes p. Links to processes outside every process sequence are
// dropped.
func (e *encoder) process(p *isa.Process) processDoc {
	doc := processDoc{
		ID:              e.id(p),
		Name:            p.Name,
		ParameterValues: make([]valueDoc, 0, len(p.ParameterValues)),
		Performer:       p.Performer,
		Date:            p.Date,
		ArrayDesignRef:  p.ArrayDesignRef,
		Inputs:          make([]json.RawMessage, 0, len(p.Inputs)),
		Outputs:         make([]json.RawMessage, 0, len(p.Outputs)),
		Comments:        comments(p.Comments),
	}
	// A null executesProtocol reads back as the synthetic protocol.
	if proto := p.ExecutesProtocol; proto != nil && !proto.IsSynthetic() {
		if r, ok := e.ref(proto); ok {
			doc.ExecutesProtocol = r
		} else {
			doc.ExecutesProtocol = e.raw(e.protocol(proto))
		}
	}
	for _, pv := range p.ParameterValues {
		var cat json.RawMessage
		if pv.Category != nil {
			if r, ok := e.ref(pv.Category); ok {
				cat = r
			} else {
				cat = e.raw(parameterDoc{ParameterName: annotation(pv.Category.Name)})
			}
		}
		doc.ParameterValues = append(doc.ParameterValues, valueDoc{
			Category: cat,
			Value:    e.value(pv.Value),
			Unit:     e.unitRef(pv.Unit),
			Comments: comments(pv.Comments),
		})
	}
	for _, n := range p.Inputs {
		doc.Inputs = append(doc.Inputs, e.nodeRef(n))
	}
	for _, n := range p.Outputs {
		doc.Outputs = append(doc.Outputs, e.nodeRef(n))
	}
	if p.PreviousProcess != nil {
		doc.PreviousProcess, _ = e.ref(p.PreviousProcess)
	}
	if p.NextProcess != nil {
		doc.NextProcess, _ = e.ref(p.NextProcess)
	}
	return doc
}
