package isa

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("isacore-structural-hash-key-0001")

// Canonical returns a deterministic byte encoding of an entity covering every
// attribute and nested list. References to shared entities (ontology sources,
// protocols, factors, nodes, neighbouring processes) are encoded by name so
// that two independently built models compare equal.
func Canonical(v any) ([]byte, error) {
	e := &encoder{}
	if err := e.entity(v); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// Equal reports structural equality of two entities.
func Equal(a, b any) bool {
	ca, err := Canonical(a)
	if err != nil {
		return false
	}
	cb, err := Canonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// Hash returns a 64-bit deep hash consistent with Equal.
func Hash(v any) (uint64, error) {
	data, err := Canonical(v)
	if err != nil {
		return 0, err
	}
	return HashBytes(data)
}

// HashBytes hashes arbitrary data with the structural hash key.
func HashBytes(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	_, err = h.Write(data)
	return h.Sum64(), err
}

type encoder struct {
	buf   bytes.Buffer
	procs map[*Process]int
}

func (e *encoder) entity(v any) error {
	switch t := v.(type) {
	case *Investigation:
		e.investigation(t)
	case *Study:
		e.study(t)
	case *Assay:
		e.assay(t)
	case *Protocol:
		e.protocol(t)
	case *Process:
		e.process(t)
	case *Source:
		e.node(t)
	case *Sample:
		e.node(t)
	case *Material:
		e.node(t)
	case *DataFile:
		e.node(t)
	case *OntologyAnnotation:
		e.annotation(t)
	case *OntologySource:
		e.source(t)
	case *Characteristic:
		e.characteristic(t)
	case *FactorValue:
		e.factorValue(t)
	case *ParameterValue:
		e.parameterValue(t)
	case *StudyFactor:
		e.factor(t)
	case *Person:
		e.person(t)
	case *Publication:
		e.publication(t)
	case Value:
		e.value(t)
	case Comment:
		e.str(t.Name)
		e.str(t.Value)
	default:
		return &AttributeError{Entity: "Canonical", Attribute: "entity", Value: v, Msg: "unsupported entity type"}
	}
	return nil
}

func (e *encoder) tag(t byte) { e.buf.WriteByte(t) }

func (e *encoder) int(n int) {
	var tmp [binary.MaxVarintLen64]byte
	e.buf.Write(tmp[:binary.PutVarint(tmp[:], int64(n))])
}

func (e *encoder) str(s string) {
	e.int(len(s))
	e.buf.WriteString(s)
}

func (e *encoder) strs(list ...string) {
	for _, s := range list {
		e.str(s)
	}
}

func (e *encoder) comments(c *Commentable) {
	e.int(len(c.Comments))
	for _, cm := range c.Comments {
		e.str(cm.Name)
		e.str(cm.Value)
	}
}

func (e *encoder) annotation(a *OntologyAnnotation) {
	if a == nil {
		e.tag(0)
		return
	}
	e.tag(1)
	e.strs(a.Term, a.SourceName(), a.TermAccession)
	e.comments(&a.Commentable)
}

func (e *encoder) annotations(list []*OntologyAnnotation) {
	e.int(len(list))
	for _, a := range list {
		e.annotation(a)
	}
}

func (e *encoder) source(s *OntologySource) {
	e.strs(s.Name, s.File, s.Version, s.Description)
	e.comments(&s.Commentable)
}

func (e *encoder) value(v Value) {
	e.tag(byte(v.kind))
	switch v.kind {
	case ValueString:
		e.str(v.str)
	case ValueNumber:
		e.str(strconv.FormatFloat(v.num, 'g', -1, 64))
	case ValueAnnotation:
		e.annotation(v.ann)
	}
}

func (e *encoder) characteristic(c *Characteristic) {
	e.str(c.Category.Name())
	e.value(c.Value)
	e.annotation(c.Unit)
	e.comments(&c.Commentable)
}

func (e *encoder) factorValue(f *FactorValue) {
	if f.Factor != nil {
		e.str(f.Factor.Name)
	} else {
		e.str("")
	}
	e.value(f.Value)
	e.annotation(f.Unit)
}

func (e *encoder) parameterValue(p *ParameterValue) {
	e.str(p.Category.ParameterName())
	e.value(p.Value)
	e.annotation(p.Unit)
	e.comments(&p.Commentable)
}

func (e *encoder) factor(f *StudyFactor) {
	e.str(f.Name)
	e.annotation(f.FactorType)
	e.comments(&f.Commentable)
}

func (e *encoder) protocol(p *Protocol) {
	e.strs(p.Name, p.Description, p.URI, p.Version)
	if p.synthetic {
		e.int(1)
	} else {
		e.int(0)
	}
	e.annotation(p.ProtocolType)
	e.int(len(p.Parameters))
	for _, param := range p.Parameters {
		e.annotation(param.Name)
		e.comments(&param.Commentable)
	}
	e.int(len(p.Components))
	for _, c := range p.Components {
		e.str(c.Name)
		e.annotation(c.ComponentType)
		e.comments(&c.Commentable)
	}
	e.comments(&p.Commentable)
}

func (e *encoder) person(p *Person) {
	e.strs(p.LastName, p.FirstName, p.MidInitials, p.Email, p.Phone, p.Fax, p.Address, p.Affiliation)
	e.annotations(p.Roles)
	e.comments(&p.Commentable)
}

func (e *encoder) publication(p *Publication) {
	e.strs(p.PubMedID, p.DOI, p.AuthorList, p.Title)
	e.annotation(p.Status)
	e.comments(&p.Commentable)
}

func (e *encoder) nodeRef(n Node) { e.str(NodeKey(n)) }

func (e *encoder) node(n Node) {
	e.nodeRef(n)
	switch t := n.(type) {
	case *Source:
		e.characteristics(t.Characteristics)
	case *Sample:
		e.characteristics(t.Characteristics)
		e.int(len(t.FactorValues))
		for _, fv := range t.FactorValues {
			e.factorValue(fv)
		}
		e.int(len(t.DerivesFrom))
		for _, src := range t.DerivesFrom {
			e.str(src.Name)
		}
	case *Material:
		e.characteristics(t.Characteristics)
	case *DataFile:
		e.int(len(t.GeneratedFrom))
		for _, s := range t.GeneratedFrom {
			e.str(s.Name)
		}
	}
	cms := n.YieldComments("")
	e.int(len(cms))
	for _, cm := range cms {
		e.str(cm.Name)
		e.str(cm.Value)
	}
}

func (e *encoder) characteristics(list []*Characteristic) {
	e.int(len(list))
	for _, c := range list {
		e.characteristic(c)
	}
}

func (e *encoder) procRef(p *Process) {
	if p == nil {
		e.int(-1)
		return
	}
	if idx, ok := e.procs[p]; ok {
		e.int(idx)
		return
	}
	e.int(-2)
	e.strs(p.ProtocolName(), p.Name)
}

func (e *encoder) process(p *Process) {
	e.strs(p.Name, string(p.NameKind), p.ProtocolName(), p.Date, p.Performer, p.ArrayDesignRef)
	e.int(len(p.ParameterValues))
	for _, pv := range p.ParameterValues {
		e.parameterValue(pv)
	}
	e.int(len(p.Inputs))
	for _, n := range p.Inputs {
		e.nodeRef(n)
	}
	e.int(len(p.Outputs))
	for _, n := range p.Outputs {
		e.nodeRef(n)
	}
	e.procRef(p.PreviousProcess)
	e.procRef(p.NextProcess)
	e.comments(&p.Commentable)
}

func (e *encoder) processes(list []*Process) {
	prev := e.procs
	e.procs = make(map[*Process]int, len(list))
	for i, p := range list {
		e.procs[p] = i
	}
	e.int(len(list))
	for _, p := range list {
		e.process(p)
	}
	e.procs = prev
}

func (e *encoder) categories(c *Categories) {
	e.int(len(c.CharacteristicCategories))
	for _, cat := range c.CharacteristicCategories {
		e.annotation(cat.Type)
	}
	e.annotations(c.UnitCategories)
}

func (e *encoder) assay(a *Assay) {
	e.strs(a.Filename, a.TechnologyPlatform)
	e.annotation(a.MeasurementType)
	e.annotation(a.TechnologyType)
	e.int(len(a.Samples))
	for _, s := range a.Samples {
		e.str(s.Name)
	}
	e.int(len(a.OtherMaterials))
	for _, m := range a.OtherMaterials {
		e.node(m)
	}
	e.int(len(a.DataFiles))
	for _, d := range a.DataFiles {
		e.node(d)
	}
	e.processes(a.Processes)
	e.categories(&a.Categories)
	e.comments(&a.Commentable)
}

func (e *encoder) study(s *Study) {
	e.strs(s.Identifier, s.Title, s.Description, s.SubmissionDate, s.PublicReleaseDate, s.Filename)
	e.annotations(s.DesignDescriptors)
	e.int(len(s.Publications))
	for _, p := range s.Publications {
		e.publication(p)
	}
	e.int(len(s.Contacts))
	for _, p := range s.Contacts {
		e.person(p)
	}
	e.int(len(s.Factors))
	for _, f := range s.Factors {
		e.factor(f)
	}
	e.int(len(s.Protocols))
	for _, p := range s.Protocols {
		e.protocol(p)
	}
	e.int(len(s.Sources))
	for _, src := range s.Sources {
		e.node(src)
	}
	e.int(len(s.Samples))
	for _, smp := range s.Samples {
		e.node(smp)
	}
	e.int(len(s.OtherMaterials))
	for _, m := range s.OtherMaterials {
		e.node(m)
	}
	e.processes(s.Processes)
	e.int(len(s.Assays))
	for _, a := range s.Assays {
		e.assay(a)
	}
	e.categories(&s.Categories)
	e.comments(&s.Commentable)
}

func (e *encoder) investigation(inv *Investigation) {
	e.strs(inv.Identifier, inv.Title, inv.Description, inv.SubmissionDate, inv.PublicReleaseDate)
	e.int(len(inv.OntologySources))
	for _, src := range inv.OntologySources {
		e.source(src)
	}
	e.int(len(inv.Publications))
	for _, p := range inv.Publications {
		e.publication(p)
	}
	e.int(len(inv.Contacts))
	for _, p := range inv.Contacts {
		e.person(p)
	}
	e.int(len(inv.Studies))
	for _, s := range inv.Studies {
		e.study(s)
	}
	e.comments(&inv.Commentable)
}

// Describe returns a short human-readable identity for an entity, used in
// log lines and diagnostics.
func Describe(v any) string {
	switch t := v.(type) {
	case Node:
		return fmt.Sprintf("%s %q", t.Label(), t.NodeName())
	case *Process:
		if t.Name != "" {
			return fmt.Sprintf("process %q (%s)", t.Name, t.ProtocolName())
		}
		return fmt.Sprintf("process executing %q", t.ProtocolName())
	case *Protocol:
		return fmt.Sprintf("protocol %q", t.Name)
	case *Study:
		return fmt.Sprintf("study %q", t.Identifier)
	case *Assay:
		return fmt.Sprintf("assay %q", t.Filename)
	default:
		return fmt.Sprintf("%T", v)
	}
}
