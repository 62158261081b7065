package isajson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"isacore/internal/logging"
	"isacore/pkg/graph"
	"isacore/pkg/isa"
)

// ErrFactorOnNonSample is wrapped by the parse error raised for factor
// values attached to a node other than a sample.
var ErrFactorOnNonSample = errors.New("factor values on a non-sample node")

// Options tunes reading.
type Options struct {
	// Lenient materializes undeclared term sources as unregistered
	// placeholder sources instead of failing.
	Lenient bool
	// Name labels errors raised while reading from a stream.
	Name string
}

// Read decodes a document from r.
func Read(r io.Reader, opts Options) (*isa.Investigation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("isajson: read: %w", err)
	}
	return decode(data, opts.Name, opts)
}

// ReadFile decodes the document at path.
func ReadFile(path string, opts Options) (*isa.Investigation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("isajson: read %s: %w", path, err)
	}
	return decode(data, path, opts)
}

// Unmarshal decodes a document held in memory.
func Unmarshal(data []byte, opts Options) (*isa.Investigation, error) {
	return decode(data, opts.Name, opts)
}

func decode(data []byte, file string, opts Options) (*isa.Investigation, error) {
	var doc investigationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, syntaxError(data, file, err)
	}
	d := &decoder{
		file:         file,
		opts:         opts,
		ids:          make(map[string]any),
		placeholders: make(map[string]*isa.OntologySource),
	}
	inv, err := d.investigation(&doc)
	if err != nil {
		return nil, err
	}
	inv.PruneSyntheticProtocols()
	for _, s := range inv.Studies {
		graph.ResolveDerivations(s)
	}
	logging.L().Debug("document loaded", "investigation", inv.Identifier, "studies", len(inv.Studies), "identifiers", len(d.ids))
	return inv, nil
}

func syntaxError(data []byte, file string, err error) error {
	var offset int64 = -1
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syn):
		offset = syn.Offset
	case errors.As(err, &typ):
		offset = typ.Offset
	}
	pe := &isa.ParseError{File: file, Msg: "malformed document", Err: err}
	if offset >= 0 {
		pe.Line, pe.Column = position(data, offset)
	}
	return pe
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	head := data[:offset]
	line := bytes.Count(head, []byte{'\n'}) + 1
	col := len(head) - bytes.LastIndexByte(head, '\n')
	return line, col
}

// decoder resolves a document in two passes: declare registers every
// definitional entity under its identifier, then the queued fill steps
// resolve references between them.
type decoder struct {
	file         string
	opts         Options
	inv          *isa.Investigation
	ids          map[string]any
	placeholders map[string]*isa.OntologySource
	fills        []func() error
}

func (d *decoder) errorf(format string, args ...any) error {
	return &isa.ParseError{File: d.file, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) register(id string, v any) error {
	if id == "" {
		return nil
	}
	if _, dup := d.ids[id]; dup {
		return d.errorf("duplicate identifier %q", id)
	}
	d.ids[id] = v
	return nil
}

func (d *decoder) later(fn func() error) { d.fills = append(d.fills, fn) }

func (d *decoder) investigation(doc *investigationDoc) (*isa.Investigation, error) {
	inv := &isa.Investigation{
		Identifier:        doc.Identifier,
		Title:             doc.Title,
		Description:       doc.Description,
		SubmissionDate:    doc.SubmissionDate,
		PublicReleaseDate: doc.PublicReleaseDate,
	}
	inv.Comments = fromComments(doc.Comments)
	d.inv = inv
	for _, sd := range doc.OntologySources {
		src := isa.NewOntologySource(sd.Name, sd.File, sd.Version, sd.Description)
		src.Comments = fromComments(sd.Comments)
		inv.AddOntologySource(src)
	}
	var err error
	if inv.Publications, err = d.publications(doc.Publications); err != nil {
		return nil, err
	}
	if inv.Contacts, err = d.people(doc.People); err != nil {
		return nil, err
	}
	for i := range doc.Studies {
		s, err := d.declareStudy(&doc.Studies[i])
		if err != nil {
			return nil, err
		}
		inv.AddStudy(s)
	}
	for _, fill := range d.fills {
		if err := fill(); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func fromComments(list []commentDoc) []isa.Comment {
	if len(list) == 0 {
		return nil
	}
	out := make([]isa.Comment, len(list))
	for i, c := range list {
		out[i] = isa.Comment{Name: c.Name, Value: c.Value}
	}
	return out
}

func (d *decoder) termSource(name string) (*isa.OntologySource, error) {
	if name == "" {
		return nil, nil
	}
	if src := d.inv.GetOntologySource(name); src != nil {
		return src, nil
	}
	if !d.opts.Lenient {
		return nil, &isa.ReferenceError{Kind: isa.RefOntologySource, Name: name, File: d.file}
	}
	if src, ok := d.placeholders[name]; ok {
		return src, nil
	}
	src := isa.NewOntologySource(name, "", "", "")
	d.placeholders[name] = src
	return src, nil
}

func (d *decoder) annotation(doc *annotationDoc) (*isa.OntologyAnnotation, error) {
	if doc == nil {
		return nil, nil
	}
	src, err := d.termSource(doc.TermSource)
	if err != nil {
		return nil, err
	}
	a := isa.NewOntologyAnnotation(doc.AnnotationValue, src, doc.TermAccession)
	a.Comments = fromComments(doc.Comments)
	return a, nil
}

func (d *decoder) annotations(list []annotationDoc) ([]*isa.OntologyAnnotation, error) {
	var out []*isa.OntologyAnnotation
	for i := range list {
		a, err := d.annotation(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (d *decoder) publications(list []publicationDoc) ([]*isa.Publication, error) {
	var out []*isa.Publication
	for _, pd := range list {
		status, err := d.annotation(pd.Status)
		if err != nil {
			return nil, err
		}
		p := &isa.Publication{PubMedID: pd.PubMedID, DOI: pd.DOI, AuthorList: pd.AuthorList, Title: pd.Title, Status: status}
		p.Comments = fromComments(pd.Comments)
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) people(list []personDoc) ([]*isa.Person, error) {
	var out []*isa.Person
	for _, pd := range list {
		roles, err := d.annotations(pd.Roles)
		if err != nil {
			return nil, err
		}
		p := &isa.Person{
			LastName:    pd.LastName,
			FirstName:   pd.FirstName,
			MidInitials: pd.MidInitials,
			Email:       pd.Email,
			Phone:       pd.Phone,
			Fax:         pd.Fax,
			Address:     pd.Address,
			Affiliation: pd.Affiliation,
			Roles:       roles,
		}
		p.Comments = fromComments(pd.Comments)
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) declareStudy(doc *studyDoc) (*isa.Study, error) {
	s := isa.NewStudy(doc.Identifier, doc.Filename)
	s.Title, s.Description = doc.Title, doc.Description
	s.SubmissionDate, s.PublicReleaseDate = doc.SubmissionDate, doc.PublicReleaseDate
	s.Comments = fromComments(doc.Comments)
	if err := d.register(doc.ID, s); err != nil {
		return nil, err
	}
	var err error
	if s.DesignDescriptors, err = d.annotations(doc.DesignDescriptors); err != nil {
		return nil, err
	}
	if s.Publications, err = d.publications(doc.Publications); err != nil {
		return nil, err
	}
	if s.Contacts, err = d.people(doc.People); err != nil {
		return nil, err
	}
	for i := range doc.Protocols {
		pd := &doc.Protocols[i]
		p, err := d.protocol(pd)
		if err != nil {
			return nil, err
		}
		p, _ = s.AddProtocol(p)
		if err := d.register(pd.ID, p); err != nil {
			return nil, err
		}
	}
	for i := range doc.Factors {
		fd := &doc.Factors[i]
		f, err := d.factor(fd)
		if err != nil {
			return nil, err
		}
		f, _ = s.AddFactor(f)
		if err := d.register(fd.ID, f); err != nil {
			return nil, err
		}
	}
	if err := d.categories(&s.Categories, doc.CharacteristicCategories, doc.UnitCategories); err != nil {
		return nil, err
	}
	for i := range doc.Materials.Sources {
		nd := &doc.Materials.Sources[i]
		src := isa.NewSource(nd.Name)
		src, _ = s.AddSource(src)
		if err := d.declareNode(nd, src, s); err != nil {
			return nil, err
		}
	}
	for i := range doc.Materials.Samples {
		nd := &doc.Materials.Samples[i]
		smp := isa.NewSample(nd.Name)
		smp, _ = s.AddSample(smp)
		if err := d.declareNode(nd, smp, s); err != nil {
			return nil, err
		}
	}
	for i := range doc.Materials.OtherMaterials {
		nd := &doc.Materials.OtherMaterials[i]
		m, err := d.material(nd)
		if err != nil {
			return nil, err
		}
		m, _ = s.AddMaterial(m)
		if err := d.declareNode(nd, m, s); err != nil {
			return nil, err
		}
	}
	if s.Processes, err = d.declareProcesses(doc.ProcessSequence, s); err != nil {
		return nil, err
	}
	for i := range doc.Assays {
		a, err := d.declareAssay(&doc.Assays[i], s)
		if err != nil {
			return nil, err
		}
		s.AddAssay(a)
	}
	return s, nil
}

func (d *decoder) declareAssay(doc *assayDoc, s *isa.Study) (*isa.Assay, error) {
	mt, err := d.annotation(doc.MeasurementType)
	if err != nil {
		return nil, err
	}
	tt, err := d.annotation(doc.TechnologyType)
	if err != nil {
		return nil, err
	}
	a := isa.NewAssay(doc.Filename, mt, tt)
	a.TechnologyPlatform = doc.TechnologyPlatform
	a.Comments = fromComments(doc.Comments)
	if err := d.register(doc.ID, a); err != nil {
		return nil, err
	}
	if err := d.categories(&a.Categories, doc.CharacteristicCategories, doc.UnitCategories); err != nil {
		return nil, err
	}
	for i := range doc.Materials.OtherMaterials {
		nd := &doc.Materials.OtherMaterials[i]
		m, err := d.material(nd)
		if err != nil {
			return nil, err
		}
		m, _ = a.AddMaterial(m)
		if err := d.declareNode(nd, m, s); err != nil {
			return nil, err
		}
	}
	for i := range doc.DataFiles {
		nd := &doc.DataFiles[i]
		df, err := d.dataFile(nd)
		if err != nil {
			return nil, err
		}
		df, _ = a.AddDataFile(df)
		if err := d.declareNode(nd, df, s); err != nil {
			return nil, err
		}
	}
	samples := doc.Materials.Samples
	d.later(func() error {
		for _, raw := range samples {
			smp, err := d.sampleRef(raw, s)
			if err != nil {
				return err
			}
			if smp != nil {
				a.AddSample(smp)
			}
		}
		return nil
	})
	if a.Processes, err = d.declareProcesses(doc.ProcessSequence, s); err != nil {
		return nil, err
	}
	return a, nil
}

// categories declares characteristic and unit categories. A category listed
// by both a study and one of its assays keeps a single identity.
func (d *decoder) categories(c *isa.Categories, cats []categoryDoc, units []annotationDoc) error {
	for i := range cats {
		cd := &cats[i]
		if existing, ok := d.ids[cd.ID].(*isa.CharacteristicCategory); ok && cd.ID != "" {
			c.CharacteristicCategories = append(c.CharacteristicCategories, existing)
			continue
		}
		cat, err := d.category(cd)
		if err != nil {
			return err
		}
		if err := d.register(cd.ID, cat); err != nil {
			return err
		}
		c.CharacteristicCategories = append(c.CharacteristicCategories, cat)
	}
	for i := range units {
		ud := &units[i]
		if existing, ok := d.ids[ud.ID].(*isa.OntologyAnnotation); ok && ud.ID != "" {
			c.UnitCategories = append(c.UnitCategories, existing)
			continue
		}
		u, err := d.annotation(ud)
		if err != nil {
			return err
		}
		if err := d.register(ud.ID, u); err != nil {
			return err
		}
		c.UnitCategories = append(c.UnitCategories, u)
	}
	return nil
}

func (d *decoder) category(cd *categoryDoc) (*isa.CharacteristicCategory, error) {
	t, err := d.annotation(cd.CharacteristicType)
	if err != nil {
		return nil, err
	}
	return &isa.CharacteristicCategory{Type: t}, nil
}

func (d *decoder) protocol(pd *protocolDoc) (*isa.Protocol, error) {
	pt, err := d.annotation(pd.ProtocolType)
	if err != nil {
		return nil, err
	}
	p := isa.NewProtocol(pd.Name, pt)
	p.Description, p.URI, p.Version = pd.Description, pd.URI, pd.Version
	p.Comments = fromComments(pd.Comments)
	for i := range pd.Parameters {
		param, err := d.parameter(&pd.Parameters[i])
		if err != nil {
			return nil, err
		}
		p.Parameters = append(p.Parameters, param)
	}
	for _, cd := range pd.Components {
		ct, err := d.annotation(cd.ComponentType)
		if err != nil {
			return nil, err
		}
		p.Components = append(p.Components, &isa.ProtocolComponent{Name: cd.ComponentName, ComponentType: ct})
	}
	return p, nil
}

func (d *decoder) parameter(pd *parameterDoc) (*isa.ProtocolParameter, error) {
	name, err := d.annotation(pd.ParameterName)
	if err != nil {
		return nil, err
	}
	param := &isa.ProtocolParameter{Name: name}
	if err := d.register(pd.ID, param); err != nil {
		return nil, err
	}
	return param, nil
}

func (d *decoder) factor(fd *factorDoc) (*isa.StudyFactor, error) {
	ft, err := d.annotation(fd.FactorType)
	if err != nil {
		return nil, err
	}
	f := &isa.StudyFactor{Name: fd.FactorName, FactorType: ft}
	f.Comments = fromComments(fd.Comments)
	return f, nil
}

func materialType(t string) (isa.MaterialType, bool) {
	if mt, ok := isa.MaterialTypeForLabel(t); ok {
		return mt, true
	}
	switch mt := isa.MaterialType(strings.ToLower(t)); mt {
	case isa.MaterialExtract, isa.MaterialLabeledExtract:
		return mt, true
	}
	return "", false
}

func (d *decoder) material(nd *nodeDoc) (*isa.Material, error) {
	mt, ok := materialType(nd.Type)
	if !ok {
		return nil, d.errorf("material %q has unrecognised type %q", nd.Name, nd.Type)
	}
	return isa.NewMaterial(nd.Name, mt)
}

func (d *decoder) dataFile(nd *nodeDoc) (*isa.DataFile, error) {
	df, err := isa.NewDataFile(nd.Name, isa.DataFileLabel(nd.Type))
	if err != nil {
		return nil, &isa.ParseError{File: d.file, Msg: fmt.Sprintf("data file %q", nd.Name), Err: err}
	}
	return df, nil
}

// newNode builds a node from an inline definition, choosing the variant by
// its type.
func (d *decoder) newNode(nd *nodeDoc) (isa.Node, error) {
	switch {
	case nd.Type == "" || nd.Type == isa.LabelSource:
		return isa.NewSource(nd.Name), nil
	case nd.Type == isa.LabelSample:
		return isa.NewSample(nd.Name), nil
	case isa.IsDataFileLabel(nd.Type):
		return d.dataFile(nd)
	default:
		return d.material(nd)
	}
}

// declareNode registers n and queues the resolution of its characteristics,
// factor values and derivations.
func (d *decoder) declareNode(nd *nodeDoc, n isa.Node, s *isa.Study) error {
	if err := d.register(nd.ID, n); err != nil {
		return err
	}
	d.later(func() error { return d.fillNode(nd, n, s) })
	return nil
}

func (d *decoder) fillNode(nd *nodeDoc, n isa.Node, s *isa.Study) error {
	for _, c := range nd.Comments {
		n.AddComment(c.Name, c.Value)
	}
	smp, isSample := n.(*isa.Sample)
	if !isSample && len(nd.FactorValues) > 0 {
		return &isa.ParseError{File: d.file, Msg: isa.Describe(n), Err: ErrFactorOnNonSample}
	}
	var chars *isa.Characterized
	switch t := n.(type) {
	case *isa.Source:
		chars = &t.Characterized
	case *isa.Sample:
		chars = &t.Characterized
	case *isa.Material:
		chars = &t.Characterized
	}
	if chars == nil && len(nd.Characteristics) > 0 {
		return d.errorf("characteristics on %s", isa.Describe(n))
	}
	for _, vd := range nd.Characteristics {
		cat, err := d.categoryRef(vd.Category)
		if err != nil {
			return err
		}
		v, unit, err := d.valueAndUnit(vd)
		if err != nil {
			return err
		}
		ch := &isa.Characteristic{Category: cat, Value: v, Unit: unit}
		ch.Comments = fromComments(vd.Comments)
		chars.AddCharacteristic(ch)
	}
	if !isSample {
		return nil
	}
	for _, vd := range nd.FactorValues {
		f, err := d.factorRef(vd.Category, s)
		if err != nil {
			return err
		}
		v, unit, err := d.valueAndUnit(vd)
		if err != nil {
			return err
		}
		smp.AddFactorValue(&isa.FactorValue{Factor: f, Value: v, Unit: unit})
	}
	for _, raw := range nd.DerivesFrom {
		origin, err := d.nodeRef(raw, s)
		if err != nil {
			return err
		}
		src, ok := origin.(*isa.Source)
		if !ok && origin != nil {
			return d.errorf("%s derives from %s, expected a source", isa.Describe(smp), isa.Describe(origin))
		}
		if src != nil {
			smp.AddDerivesFrom(src)
		}
	}
	return nil
}

func (d *decoder) declareProcesses(list []processDoc, s *isa.Study) ([]*isa.Process, error) {
	var out []*isa.Process
	for i := range list {
		pd := &list[i]
		p := &isa.Process{Name: pd.Name, Performer: pd.Performer, Date: pd.Date, ArrayDesignRef: pd.ArrayDesignRef}
		p.Comments = fromComments(pd.Comments)
		if err := d.register(pd.ID, p); err != nil {
			return nil, err
		}
		d.later(func() error { return d.fillProcess(pd, p, s) })
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) fillProcess(pd *processDoc, p *isa.Process, s *isa.Study) error {
	proto, err := resolveAs(d, pd.ExecutesProtocol, "protocol", func(raw json.RawMessage) (*isa.Protocol, error) {
		var doc protocolDoc
		if err := d.unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return d.protocol(&doc)
	})
	if err != nil {
		return err
	}
	if proto == nil {
		proto = s.SyntheticProtocol()
	}
	p.ExecutesProtocol = proto
	p.NameKind = nameKind(p)
	for _, vd := range pd.ParameterValues {
		param, err := d.parameterRef(vd.Category)
		if err != nil {
			return err
		}
		v, unit, err := d.valueAndUnit(vd)
		if err != nil {
			return err
		}
		pv := &isa.ParameterValue{Category: param, Value: v, Unit: unit}
		pv.Comments = fromComments(vd.Comments)
		p.AddParameterValue(pv)
	}
	for _, raw := range pd.Inputs {
		n, err := d.nodeRef(raw, s)
		if err != nil {
			return err
		}
		if n != nil {
			p.AddInput(n)
		}
	}
	for _, raw := range pd.Outputs {
		n, err := d.nodeRef(raw, s)
		if err != nil {
			return err
		}
		if n != nil {
			p.AddOutput(n)
		}
	}
	if p.PreviousProcess, err = d.processRef(pd.PreviousProcess); err != nil {
		return err
	}
	if p.NextProcess, err = d.processRef(pd.NextProcess); err != nil {
		return err
	}
	return nil
}

// nameKind recovers the semantic kind of a process name, which the document
// does not carry, from the executed protocol type.
func nameKind(p *isa.Process) isa.ProcessNameKind {
	if p.Name == "" {
		return isa.NameNone
	}
	switch strings.ToLower(p.ExecutesProtocol.TypeTerm()) {
	case "data transformation":
		return isa.NameDataTransformation
	case "normalization":
		return isa.NameNormalization
	default:
		return isa.NameAssay
	}
}

func (d *decoder) unmarshal(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return &isa.ParseError{File: d.file, Msg: "malformed object", Err: err}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || string(t) == "null"
}

// probe returns the identifier of a reference position and whether the
// object carries fields besides it.
func (d *decoder) probe(raw json.RawMessage) (string, bool, error) {
	var fields map[string]json.RawMessage
	if err := d.unmarshal(raw, &fields); err != nil {
		return "", false, err
	}
	var id string
	if v, ok := fields["@id"]; ok {
		if err := d.unmarshal(v, &id); err != nil {
			return "", false, err
		}
		delete(fields, "@id")
	}
	return id, len(fields) > 0, nil
}

// resolveAs returns the entity a reference position names. A bare
// {"@id": ...} must name a registered entity; an object with more fields is
// an inline definition, built and registered under its identifier if any.
func resolveAs[T any](d *decoder, raw json.RawMessage, what string, build func(json.RawMessage) (T, error)) (T, error) {
	var zero T
	if isNull(raw) {
		return zero, nil
	}
	id, inline, err := d.probe(raw)
	if err != nil {
		return zero, err
	}
	if id != "" {
		if v, ok := d.ids[id]; ok {
			t, ok := v.(T)
			if !ok {
				return zero, d.errorf("identifier %q names %s, expected %s", id, isa.Describe(v), what)
			}
			return t, nil
		}
		if !inline {
			return zero, &isa.ReferenceError{Kind: isa.RefIdentifier, Name: id, File: d.file}
		}
	}
	t, err := build(raw)
	if err != nil {
		return zero, err
	}
	if id != "" {
		d.ids[id] = t
	}
	return t, nil
}

func (d *decoder) categoryRef(raw json.RawMessage) (*isa.CharacteristicCategory, error) {
	return resolveAs(d, raw, "characteristic category", func(raw json.RawMessage) (*isa.CharacteristicCategory, error) {
		var doc categoryDoc
		if err := d.unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return d.category(&doc)
	})
}

func (d *decoder) unitRef(raw json.RawMessage) (*isa.OntologyAnnotation, error) {
	return resolveAs(d, raw, "unit", func(raw json.RawMessage) (*isa.OntologyAnnotation, error) {
		var doc annotationDoc
		if err := d.unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return d.annotation(&doc)
	})
}

func (d *decoder) parameterRef(raw json.RawMessage) (*isa.ProtocolParameter, error) {
	return resolveAs(d, raw, "protocol parameter", func(raw json.RawMessage) (*isa.ProtocolParameter, error) {
		var doc parameterDoc
		if err := d.unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return d.parameter(&doc)
	})
}

func (d *decoder) factorRef(raw json.RawMessage, s *isa.Study) (*isa.StudyFactor, error) {
	return resolveAs(d, raw, "factor", func(raw json.RawMessage) (*isa.StudyFactor, error) {
		var doc factorDoc
		if err := d.unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if f := s.GetFactor(doc.FactorName); f != nil {
			return f, nil
		}
		return d.factor(&doc)
	})
}

func (d *decoder) nodeRef(raw json.RawMessage, s *isa.Study) (isa.Node, error) {
	return resolveAs(d, raw, "material or data file", func(raw json.RawMessage) (isa.Node, error) {
		var doc nodeDoc
		if err := d.unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		n, err := d.newNode(&doc)
		if err != nil {
			return nil, err
		}
		return n, d.fillNode(&doc, n, s)
	})
}

func (d *decoder) sampleRef(raw json.RawMessage, s *isa.Study) (*isa.Sample, error) {
	n, err := d.nodeRef(raw, s)
	if err != nil || n == nil {
		return nil, err
	}
	smp, ok := n.(*isa.Sample)
	if !ok {
		return nil, d.errorf("assay sample list names %s", isa.Describe(n))
	}
	return smp, nil
}

func (d *decoder) processRef(raw json.RawMessage) (*isa.Process, error) {
	return resolveAs(d, raw, "process", func(json.RawMessage) (*isa.Process, error) {
		return nil, d.errorf("processes must be declared in a process sequence")
	})
}

// valueAndUnit decodes a value: a string, a number kept with its literal, or
// an annotation object. Empty strings read as unset. A string holding a
// numeric literal that is not a JSON number reads as that number.
func (d *decoder) valueAndUnit(vd valueDoc) (isa.Value, *isa.OntologyAnnotation, error) {
	unit, err := d.unitRef(vd.Unit)
	if err != nil {
		return isa.Value{}, nil, err
	}
	raw := bytes.TrimSpace(vd.Value)
	if isNull(raw) {
		return isa.Value{}, unit, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := d.unmarshal(raw, &s); err != nil {
			return isa.Value{}, nil, err
		}
		if s == "" {
			return isa.Value{}, unit, nil
		}
		if v, ok := isa.ParseNumber(s); ok && !json.Valid([]byte(v.Text())) {
			return v, unit, nil
		}
		return isa.StringValue(s), unit, nil
	case '{':
		var doc annotationDoc
		if err := d.unmarshal(raw, &doc); err != nil {
			return isa.Value{}, nil, err
		}
		a, err := d.annotation(&doc)
		if err != nil {
			return isa.Value{}, nil, err
		}
		return isa.AnnotationValue(a), unit, nil
	}
	if v, ok := isa.ParseNumber(string(raw)); ok {
		return v, unit, nil
	}
	return isa.Value{}, nil, d.errorf("value %s is not a string, number or annotation", raw)
}
