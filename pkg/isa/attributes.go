package isa

// CharacteristicCategory is the shared category of characteristics, e.g.
// "organism" or "Material Type". Categories are owned by a Study or Assay.
type CharacteristicCategory struct {
	Type *OntologyAnnotation
}

// Name returns the category term.
func (c *CharacteristicCategory) Name() string {
	if c == nil {
		return ""
	}
	return TermOf(c.Type)
}

// Characteristic qualifies a material node.
type Characteristic struct {
	Commentable
	Category *CharacteristicCategory
	Value    Value
	Unit     *OntologyAnnotation
}

// SetValue assigns a dynamically typed value.
func (c *Characteristic) SetValue(v any) error {
	val, err := NewValue(v)
	if err != nil {
		return &AttributeError{Entity: "Characteristic", Attribute: "value", Value: v, Msg: "expected string, number or ontology annotation"}
	}
	c.Value = val
	return nil
}

// StudyFactor is an experimental variable declared by a Study.
type StudyFactor struct {
	Commentable
	Name       string
	FactorType *OntologyAnnotation
}

// FactorValue assigns a value of a declared StudyFactor to a Sample.
type FactorValue struct {
	Factor *StudyFactor
	Value  Value
	Unit   *OntologyAnnotation
}

// SetValue assigns a dynamically typed value.
func (f *FactorValue) SetValue(v any) error {
	val, err := NewValue(v)
	if err != nil {
		return &AttributeError{Entity: "FactorValue", Attribute: "value", Value: v, Msg: "expected string, number or ontology annotation"}
	}
	f.Value = val
	return nil
}

// ProtocolParameter is a named parameter of a Protocol.
type ProtocolParameter struct {
	Commentable
	Name *OntologyAnnotation
}

// ParameterName returns the parameter term.
func (p *ProtocolParameter) ParameterName() string {
	if p == nil {
		return ""
	}
	return TermOf(p.Name)
}

// ParameterValue assigns a value of a protocol parameter to a Process.
type ParameterValue struct {
	Commentable
	Category *ProtocolParameter
	Value    Value
	Unit     *OntologyAnnotation
}

// SetValue assigns a dynamically typed value.
func (p *ParameterValue) SetValue(v any) error {
	val, err := NewValue(v)
	if err != nil {
		return &AttributeError{Entity: "ParameterValue", Attribute: "value", Value: v, Msg: "expected string, number or ontology annotation"}
	}
	p.Value = val
	return nil
}

// ProtocolComponent is an instrument, software or reagent used by a Protocol.
type ProtocolComponent struct {
	Commentable
	Name          string
	ComponentType *OntologyAnnotation
}
