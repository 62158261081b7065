package graph

import "isacore/pkg/isa"

// StudyGraph builds the graph of the study's own processes. Sources, samples
// and other materials are registered first, in container order, so roots
// follow declaration order and untouched nodes survive as isolated vertices.
func StudyGraph(s *isa.Study) *Graph {
	extra := make([]isa.Node, 0, len(s.Sources)+len(s.Samples)+len(s.OtherMaterials))
	for _, src := range s.Sources {
		extra = append(extra, src)
	}
	for _, smp := range s.Samples {
		extra = append(extra, smp)
	}
	for _, m := range s.OtherMaterials {
		extra = append(extra, m)
	}
	return Build(s.Processes, extra...)
}

// AssayGraph builds the graph of an assay rooted at its referenced samples.
func AssayGraph(a *isa.Assay) *Graph {
	extra := make([]isa.Node, 0, len(a.Samples)+len(a.OtherMaterials)+len(a.DataFiles))
	for _, smp := range a.Samples {
		extra = append(extra, smp)
	}
	for _, m := range a.OtherMaterials {
		extra = append(extra, m)
	}
	for _, d := range a.DataFiles {
		extra = append(extra, d)
	}
	return Build(a.Processes, extra...)
}

// ResolveDerivations recomputes Sample.DerivesFrom from the study graph and
// DataFile.GeneratedFrom from each assay graph. Derivations already set on
// entities that are not connected in the graph are kept.
func ResolveDerivations(s *isa.Study) {
	sg := StudyGraph(s)
	for _, smp := range s.Samples {
		for _, n := range sg.Ancestors(NodeVertex(smp), isa.KindSource) {
			smp.AddDerivesFrom(n.(*isa.Source))
		}
	}
	for _, a := range s.Assays {
		ag := AssayGraph(a)
		for _, d := range a.DataFiles {
			for _, n := range ag.Ancestors(NodeVertex(d), isa.KindSample) {
				d.AddGeneratedFrom(n.(*isa.Sample))
			}
		}
	}
}

// Disconnected lists the samples of a study not derived from any source and
// the data files of each assay not generated from any sample.
func Disconnected(s *isa.Study) (samples []*isa.Sample, files map[*isa.Assay][]*isa.DataFile) {
	sg := StudyGraph(s)
	for _, smp := range s.Samples {
		if len(smp.DerivesFrom) > 0 {
			continue
		}
		if len(sg.Ancestors(NodeVertex(smp), isa.KindSource)) == 0 {
			samples = append(samples, smp)
		}
	}
	files = make(map[*isa.Assay][]*isa.DataFile)
	for _, a := range s.Assays {
		ag := AssayGraph(a)
		for _, d := range a.DataFiles {
			if len(d.GeneratedFrom) > 0 {
				continue
			}
			if len(ag.Ancestors(NodeVertex(d), isa.KindSample)) == 0 {
				files[a] = append(files[a], d)
			}
		}
	}
	return samples, files
}
