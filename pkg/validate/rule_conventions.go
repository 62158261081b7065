package validate

import (
	"strings"

	"isacore/pkg/isa"
)

// ConventionsRule flags legal but atypical artifacts: missing release dates,
// contacts or design descriptors, and declarations nothing uses.
func ConventionsRule() Rule {
	return conventionsRule{}
}

type conventionsRule struct{}

func (conventionsRule) Name() string { return "conventions" }

func (r conventionsRule) Evaluate(art *Artifact) Result {
	res := Result{}
	inv := art.Investigation
	if strings.TrimSpace(inv.PublicReleaseDate) == "" {
		res.add(newDiagnostic(r.Name(), CodeMissingReleaseDate, art.investigationLoc(),
			"investigation %s has no public release date", inv.Identifier))
	}
	if len(inv.Contacts) == 0 {
		res.add(newDiagnostic(r.Name(), CodeMissingContacts, art.investigationLoc(),
			"investigation %s lists no contacts", inv.Identifier))
	}
	for si, s := range inv.Studies {
		loc := art.studyLoc(si)
		if strings.TrimSpace(s.PublicReleaseDate) == "" {
			res.add(newDiagnostic(r.Name(), CodeMissingReleaseDate, loc,
				"study %s has no public release date", s.Identifier))
		}
		if len(s.Contacts) == 0 {
			res.add(newDiagnostic(r.Name(), CodeMissingContacts, loc,
				"study %s lists no contacts", s.Identifier))
		}
		if len(s.DesignDescriptors) == 0 {
			res.add(newDiagnostic(r.Name(), CodeMissingDesign, loc,
				"study %s has no design descriptors", s.Identifier))
		}
		for _, p := range s.Protocols {
			if p.IsSynthetic() || s.ProtocolUsage(p) > 0 {
				continue
			}
			res.add(newDiagnostic(r.Name(), CodeUnusedProtocol, loc,
				"protocol %q of study %s is never executed", p.Name, s.Identifier))
		}
	}

	used := make(map[*isa.OntologySource]bool)
	eachAnnotation(inv, func(_ annotationSite, ann *isa.OntologyAnnotation) {
		if ann.TermSource != nil {
			used[ann.TermSource] = true
		}
	})
	for _, src := range inv.OntologySources {
		if !used[src] {
			res.add(newDiagnostic(r.Name(), CodeUnusedSource, art.investigationLoc(),
				"ontology source %q is never referenced", src.Name))
		}
	}
	return res
}
