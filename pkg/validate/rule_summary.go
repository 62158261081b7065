package validate

// SummaryRule adds one debug diagnostic describing the artifact.
func SummaryRule() Rule {
	return summaryRule{}
}

type summaryRule struct{}

func (summaryRule) Name() string { return "summary" }

func (r summaryRule) Evaluate(art *Artifact) Result {
	inv := art.Investigation
	var assays, sources, samples, processes int
	for _, s := range inv.Studies {
		assays += len(s.Assays)
		sources += len(s.Sources)
		samples += len(s.Samples)
		processes += len(s.AllProcesses())
	}
	res := Result{}
	res.add(newDiagnostic(r.Name(), CodeSummary, art.investigationLoc(),
		"%s artifact %s: %d studies, %d assays, %d sources, %d samples, %d processes, %d ontology sources",
		art.Form, inv.Identifier, len(inv.Studies), assays, sources, samples, processes, len(inv.OntologySources)))
	return res
}
