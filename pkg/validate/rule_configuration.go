package validate

import (
	"strings"

	"isacore/pkg/graph"
	"isacore/pkg/isa"
	"isacore/pkg/isatab"
)

// ConfigurationRule applies the study configuration to every study table
// and the matching measurement/technology configuration to every assay
// table: required and non-empty columns, units, protocol sequence and
// allowed node types.
func ConfigurationRule() Rule {
	return configurationRule{}
}

type configurationRule struct{}

func (configurationRule) Name() string { return "configuration" }

func (r configurationRule) Evaluate(art *Artifact) Result {
	res := Result{}
	for si, s := range art.Investigation.Studies {
		if cfg := art.Configs.studyConfig(); cfg != nil {
			r.apply(&res, art, si, -1, cfg, isatab.StudyTable(s), graph.StudyGraph(s))
		}
		for ai, a := range s.Assays {
			cfg := art.Configs.ForAssay(a.MeasurementTerm(), a.TechnologyTerm())
			if cfg == nil {
				res.add(newDiagnostic(r.Name(), CodeNoConfiguration, art.tableLoc(si, ai),
					"no configuration for measurement %q and technology %q", a.MeasurementTerm(), a.TechnologyTerm()))
				continue
			}
			res.add(newDiagnostic(r.Name(), CodeConfigurationApplied, art.tableLoc(si, ai),
				"configuration %s applied to assay %s", cfg.label(), a.Filename))
			r.apply(&res, art, si, ai, cfg, isatab.AssayTable(a), graph.AssayGraph(a))
		}
	}
	return res
}

func (cs *ConfigSet) studyConfig() *Config {
	if cs == nil {
		return nil
	}
	return cs.Study
}

func (r configurationRule) apply(res *Result, art *Artifact, si, ai int, cfg *Config, tbl *isatab.Table, g *graph.Graph) {
	for _, col := range cfg.Columns {
		idx := columnsOf(tbl.Header, col.Header)
		if len(idx) == 0 {
			// The regenerated table drops columns with no values; the file
			// may still carry them.
			if read := columnsOf(art.readHeader(si, ai), col.Header); len(read) > 0 {
				if col.Required || col.NotEmpty {
					for ri := range tbl.Rows {
						res.add(newDiagnostic(r.Name(), CodeEmptyValue, art.cellLoc(si, ai, ri, read[0]),
							"%s is empty in row %d", col.Header, ri+1))
					}
				}
				continue
			}
			if col.Required {
				res.add(newDiagnostic(r.Name(), CodeMissingColumn, art.headerLoc(si, ai),
					"column %q required by configuration %s is missing", col.Header, cfg.label()))
			}
			continue
		}
		for _, c := range idx {
			for ri, row := range tbl.Rows {
				cell := strings.TrimSpace(at(row, c))
				if cell == "" {
					if col.NotEmpty {
						res.add(newDiagnostic(r.Name(), CodeEmptyValue, art.cellLoc(si, ai, ri, c),
							"%s is empty in row %d", tbl.Header[c], ri+1))
					}
					continue
				}
				if !col.Unit {
					continue
				}
				if _, numeric := isa.ParseNumber(cell); numeric && !hasUnit(tbl.Header, row, c) {
					res.add(newDiagnostic(r.Name(), CodeMissingUnit, art.cellLoc(si, ai, ri, c),
						"%s value %s in row %d has no unit", tbl.Header[c], cell, ri+1))
				}
			}
		}
	}

	if len(cfg.ProtocolSequence) > 0 {
		for _, p := range g.Paths() {
			executed := protocolsOf(p)
			if followsSequence(executed, cfg.ProtocolSequence) {
				continue
			}
			res.add(newDiagnostic(r.Name(), CodeProtocolSequence, art.tableLoc(si, ai),
				"path from %s executes [%s], configuration %s requires [%s]",
				p[0], joinProtocols(executed), cfg.label(), strings.Join(cfg.ProtocolSequence, ", ")))
			break
		}
	}

	if len(cfg.AllowedNodes) > 0 {
		reported := make(map[string]bool)
		for _, n := range g.Nodes() {
			if _, isSample := n.(*isa.Sample); isSample && ai >= 0 {
				continue
			}
			label := n.Label()
			if cfg.allows(label) || reported[label] {
				continue
			}
			reported[label] = true
			res.add(newDiagnostic(r.Name(), CodeNodeNotAllowed, art.nodeLoc(si, ai, n),
				"%s nodes are not allowed by configuration %s", label, cfg.label()))
		}
	}
}

func columnsOf(header []string, name string) []int {
	want := normHeader(name)
	var out []int
	for i, h := range header {
		if normHeader(h) == want {
			out = append(out, i)
		}
	}
	return out
}

func at(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func hasUnit(header, row []string, c int) bool {
	return c+1 < len(header) && normHeader(header[c+1]) == "unit" && strings.TrimSpace(at(row, c+1)) != ""
}

func protocolsOf(p graph.Path) []*isa.Protocol {
	var out []*isa.Protocol
	for _, v := range p {
		if v.IsProcess() && !v.Process.IsImplied() && v.Process.ExecutesProtocol != nil {
			out = append(out, v.Process.ExecutesProtocol)
		}
	}
	return out
}

// followsSequence reports whether want occurs in executed as a subsequence.
// An entry matches a protocol by type term or, failing that, by name.
func followsSequence(executed []*isa.Protocol, want []string) bool {
	i := 0
	for _, p := range executed {
		if i == len(want) {
			break
		}
		w := normTerm(want[i])
		if w == normTerm(p.TypeTerm()) || w == normTerm(p.Name) {
			i++
		}
	}
	return i == len(want)
}

func joinProtocols(list []*isa.Protocol) string {
	names := make([]string, len(list))
	for i, p := range list {
		if t := p.TypeTerm(); t != "" {
			names[i] = t
		} else {
			names[i] = p.Name
		}
	}
	return strings.Join(names, ", ")
}
