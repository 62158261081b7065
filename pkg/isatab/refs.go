package isatab

import "isacore/pkg/isa"

// resolver turns names met in cells into model references. In lenient mode
// unknown names resolve to placeholders that are deliberately not registered
// in their container, so model-level checks still see them as dangling.
type resolver struct {
	inv       *isa.Investigation
	lenient   bool
	sources   map[string]*isa.OntologySource
	protocols map[*isa.Study]map[string]*isa.Protocol
	factors   map[*isa.Study]map[string]*isa.StudyFactor
}

func newResolver(inv *isa.Investigation, opts Options) *resolver {
	return &resolver{
		inv:       inv,
		lenient:   opts.Lenient,
		sources:   make(map[string]*isa.OntologySource),
		protocols: make(map[*isa.Study]map[string]*isa.Protocol),
		factors:   make(map[*isa.Study]map[string]*isa.StudyFactor),
	}
}

func (r *resolver) source(name, file string, line int) (*isa.OntologySource, error) {
	if name == "" {
		return nil, nil
	}
	if src := r.inv.GetOntologySource(name); src != nil {
		return src, nil
	}
	if !r.lenient {
		return nil, &isa.ReferenceError{Kind: isa.RefOntologySource, Name: name, File: file, Line: line}
	}
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	src := isa.NewOntologySource(name, "", "", "")
	r.sources[name] = src
	return src, nil
}

// annotation builds an annotation from its three cells; all-empty yields nil.
func (r *resolver) annotation(term, accession, source, file string, line int) (*isa.OntologyAnnotation, error) {
	if term == "" && accession == "" && source == "" {
		return nil, nil
	}
	src, err := r.source(source, file, line)
	if err != nil {
		return nil, err
	}
	return isa.NewOntologyAnnotation(term, src, accession), nil
}

func (r *resolver) protocol(s *isa.Study, name, file string, line int) (*isa.Protocol, error) {
	for _, p := range s.Protocols {
		if p.Name == name && !p.IsSynthetic() {
			return p, nil
		}
	}
	if name == isa.UnknownProtocolName {
		return s.SyntheticProtocol(), nil
	}
	if !r.lenient {
		return nil, &isa.ReferenceError{Kind: isa.RefProtocol, Name: name, File: file, Line: line}
	}
	byName := r.protocols[s]
	if byName == nil {
		byName = make(map[string]*isa.Protocol)
		r.protocols[s] = byName
	}
	if p, ok := byName[name]; ok {
		return p, nil
	}
	p := isa.NewProtocol(name, nil)
	byName[name] = p
	return p, nil
}

func (r *resolver) factor(s *isa.Study, name, file string, line int) (*isa.StudyFactor, error) {
	if f := s.GetFactor(name); f != nil {
		return f, nil
	}
	if !r.lenient {
		return nil, &isa.ReferenceError{Kind: isa.RefFactor, Name: name, File: file, Line: line}
	}
	byName := r.factors[s]
	if byName == nil {
		byName = make(map[string]*isa.StudyFactor)
		r.factors[s] = byName
	}
	if f, ok := byName[name]; ok {
		return f, nil
	}
	f := &isa.StudyFactor{Name: name}
	byName[name] = f
	return f, nil
}
