// Package graphexport turns the experimental graphs of an investigation
// into a flat node/edge form with stable identifiers, for loading into a
// graph database.
package graphexport

import (
	"fmt"
	"strconv"

	"isacore/pkg/graph"
	"isacore/pkg/isa"
	"isacore/pkg/isajson"
)

// Node labels.
const (
	LabelSource   = "Source"
	LabelSample   = "Sample"
	LabelMaterial = "Material"
	LabelDataFile = "DataFile"
	LabelProcess  = "Process"
)

// Node is one vertex. Sources and samples are scoped to their study, so an
// assay graph shares its samples with the study graph.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Name  string `json:"name"`
	// Type is the column header of a node or the protocol of a process.
	Type  string `json:"type,omitempty"`
	Scope string `json:"scope"`
}

// Edge joins two nodes by ID.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the export of one study or assay graph.
type Graph struct {
	Scope string `json:"scope"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build exports every study graph followed by the graphs of its assays.
// A cyclic graph is rejected with graph.ErrCycle.
func Build(inv *isa.Investigation) ([]Graph, error) {
	var out []Graph
	for _, s := range inv.Studies {
		studyScope := isajson.Slug(inv.Identifier) + "/" + isajson.Slug(s.Identifier)
		g, err := export(graph.StudyGraph(s), studyScope, studyScope)
		if err != nil {
			return nil, fmt.Errorf("study %s: %w", s.Identifier, err)
		}
		out = append(out, g)
		for i, a := range s.Assays {
			scope := studyScope + "/a" + strconv.Itoa(i+1)
			g, err := export(graph.AssayGraph(a), studyScope, scope)
			if err != nil {
				return nil, fmt.Errorf("assay %s: %w", a.Filename, err)
			}
			out = append(out, g)
		}
	}
	return out, nil
}

func export(g *graph.Graph, studyScope, scope string) (Graph, error) {
	if _, err := g.TopologicalOrder(); err != nil {
		return Graph{}, err
	}
	ids := &idTable{used: make(map[string]int), byVertex: make(map[graph.Vertex]string)}
	out := Graph{Scope: scope}
	processes := 0
	for _, v := range g.Vertices() {
		var n Node
		if v.IsProcess() {
			processes++
			n = Node{Label: LabelProcess, Name: v.Process.Name, Type: v.Process.ProtocolName(), Scope: scope}
			n.ID = ids.assign(v, scope+"/process/"+strconv.Itoa(processes))
		} else {
			n = Node{Label: label(v.Node), Name: v.Node.NodeName(), Type: v.Node.Label(), Scope: scope}
			base := scope
			if k := v.Kind(); k == isa.KindSource || k == isa.KindSample {
				base = studyScope
				n.Scope = studyScope
			}
			n.ID = ids.assign(v, base+"/"+isajson.Slug(v.Node.Label())+"/"+isajson.Slug(v.Node.NodeName()))
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, v := range g.Vertices() {
		for _, next := range g.Successors(v) {
			out.Edges = append(out.Edges, Edge{From: ids.byVertex[v], To: ids.byVertex[next]})
		}
	}
	return out, nil
}

func label(n isa.Node) string {
	switch n.NodeKind() {
	case isa.KindSource:
		return LabelSource
	case isa.KindSample:
		return LabelSample
	case isa.KindDataFile:
		return LabelDataFile
	default:
		return LabelMaterial
	}
}

// idTable disambiguates slug collisions in vertex order.
type idTable struct {
	used     map[string]int
	byVertex map[graph.Vertex]string
}

func (t *idTable) assign(v graph.Vertex, id string) string {
	t.used[id]++
	if n := t.used[id]; n > 1 {
		id += "~" + strconv.Itoa(n)
	}
	t.byVertex[v] = id
	return id
}
