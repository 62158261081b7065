package isa

// UnknownProtocolName names the synthetic protocol materialized for process
// applications the tabular form implies without a Protocol REF. A protocol
// declared under the same name is an ordinary protocol.
const UnknownProtocolName = "unknown"

// Protocol describes a procedure applied by processes.
type Protocol struct {
	Commentable
	Name         string
	ProtocolType *OntologyAnnotation
	Description  string
	URI          string
	Version      string
	Parameters   []*ProtocolParameter
	Components   []*ProtocolComponent

	synthetic bool
}

// NewProtocol returns a protocol of the given type; protocolType may be nil.
func NewProtocol(name string, protocolType *OntologyAnnotation) *Protocol {
	return &Protocol{Name: name, ProtocolType: protocolType}
}

// IsSynthetic reports whether the protocol was materialized by
// Study.SyntheticProtocol rather than declared.
func (p *Protocol) IsSynthetic() bool {
	return p != nil && p.synthetic
}

// TypeTerm returns the protocol type term or "".
func (p *Protocol) TypeTerm() string {
	if p == nil {
		return ""
	}
	return TermOf(p.ProtocolType)
}

// GetParameter returns the parameter with the given name.
func (p *Protocol) GetParameter(name string) *ProtocolParameter {
	for _, param := range p.Parameters {
		if param.ParameterName() == name {
			return param
		}
	}
	return nil
}

// AddParameter returns the existing parameter with this name or appends a new one.
func (p *Protocol) AddParameter(name string) *ProtocolParameter {
	if existing := p.GetParameter(name); existing != nil {
		return existing
	}
	param := &ProtocolParameter{Name: NewOntologyAnnotation(name, nil, "")}
	p.Parameters = append(p.Parameters, param)
	return param
}
