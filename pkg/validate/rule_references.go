package validate

import (
	"isacore/pkg/isa"
)

// ReferencesRule reports references to protocols, factors, samples and
// ontology sources the investigation does not declare.
func ReferencesRule() Rule {
	return referencesRule{}
}

type referencesRule struct{}

func (referencesRule) Name() string { return "references" }

func (r referencesRule) Evaluate(art *Artifact) Result {
	res := Result{}
	inv := art.Investigation
	for si, s := range inv.Studies {
		r.protocols(&res, art, si, -1, s.Processes)
		for ai, a := range s.Assays {
			r.protocols(&res, art, si, ai, a.Processes)
		}

		seen := make(map[string]bool)
		for _, smp := range s.Samples {
			for _, fv := range smp.FactorValues {
				if fv.Factor == nil || s.GetFactor(fv.Factor.Name) == fv.Factor || seen[fv.Factor.Name] {
					continue
				}
				seen[fv.Factor.Name] = true
				res.add(newDiagnostic(r.Name(), CodeUndeclaredFactor, art.tableLoc(si, -1),
					"factor %q is not declared by study %s", fv.Factor.Name, s.Identifier))
			}
		}

		for ai, a := range s.Assays {
			for _, smp := range a.Samples {
				if s.GetSample(smp.Name) == smp {
					continue
				}
				res.add(newDiagnostic(r.Name(), CodeUndeclaredSample, art.tableLoc(si, ai),
					"sample %q is not declared by study %s", smp.Name, s.Identifier))
			}
		}
	}

	type key struct {
		loc  Location
		code Code
		name string
	}
	reported := make(map[key]bool)
	eachAnnotation(inv, func(site annotationSite, ann *isa.OntologyAnnotation) {
		if registered(inv, ann.TermSource) {
			return
		}
		var (
			loc  Location
			code = CodeUndeclaredSource
		)
		switch {
		case site.value:
			code = CodeValueSource
			loc = art.tableLoc(site.study, site.assay)
		case site.study >= 0:
			loc = art.studyLoc(site.study)
		default:
			loc = art.investigationLoc()
		}
		k := key{loc, code, ann.TermSource.Name}
		if reported[k] {
			return
		}
		reported[k] = true
		res.add(newDiagnostic(r.Name(), code, loc, "term %q references undeclared ontology source %q", ann.Term, ann.TermSource.Name))
	})
	return res
}

func (r referencesRule) protocols(res *Result, art *Artifact, si, ai int, procs []*isa.Process) {
	s := art.Investigation.Studies[si]
	seen := make(map[string]bool)
	for _, p := range procs {
		proto := p.ExecutesProtocol
		if proto == nil || proto.IsSynthetic() || seen[proto.Name] {
			continue
		}
		if s.GetProtocol(proto.Name) == proto {
			continue
		}
		seen[proto.Name] = true
		res.add(newDiagnostic(r.Name(), CodeUndeclaredProtocol, art.tableLoc(si, ai),
			"protocol %q is not declared by study %s", proto.Name, s.Identifier))
	}
}
