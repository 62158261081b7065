package validate

import (
	"isacore/pkg/graph"
	"isacore/pkg/isa"
)

// GraphRule checks that the experimental graph is acyclic, that every sample
// derives from a source and that every data file derives from a sample.
func GraphRule() Rule {
	return graphRule{}
}

type graphRule struct{}

func (graphRule) Name() string { return "graph" }

func (r graphRule) Evaluate(art *Artifact) Result {
	res := Result{}
	for si, s := range art.Investigation.Studies {
		cyclic := false
		if g := graph.StudyGraph(s); !g.Acyclic() {
			cyclic = true
			res.add(r.cycle(art, si, -1, g))
		}
		for ai, a := range s.Assays {
			if g := graph.AssayGraph(a); !g.Acyclic() {
				cyclic = true
				res.add(r.cycle(art, si, ai, g))
			}
		}
		if cyclic {
			continue
		}

		samples, files := graph.Disconnected(s)
		for _, smp := range samples {
			res.add(newDiagnostic(r.Name(), CodeSampleWithoutSource, art.nodeLoc(si, -1, smp),
				"%s does not derive from any source", isa.Describe(smp)))
		}
		for ai, a := range s.Assays {
			for _, d := range files[a] {
				res.add(newDiagnostic(r.Name(), CodeFileWithoutSample, art.nodeLoc(si, ai, d),
					"%s is not generated from any sample", isa.Describe(d)))
			}
		}
	}
	return res
}

func (r graphRule) cycle(art *Artifact, si, ai int, g *graph.Graph) Diagnostic {
	_, err := g.TopologicalOrder()
	return newDiagnostic(r.Name(), CodeCycle, art.tableLoc(si, ai), "%v", err)
}
