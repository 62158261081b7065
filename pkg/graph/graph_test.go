package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isacore/pkg/isa"
)

func names(p Path) []string {
	out := make([]string, 0, len(p))
	for _, v := range p {
		if v.IsProcess() {
			out = append(out, "P:"+v.Process.ProtocolName())
			continue
		}
		out = append(out, v.Node.NodeName())
	}
	return out
}

func extract(t *testing.T, name string) *isa.Material {
	t.Helper()
	m, err := isa.NewMaterial(name, isa.MaterialExtract)
	require.NoError(t, err)
	return m
}

func TestPathsFanIn(t *testing.T) {
	extraction := isa.NewProtocol("extraction", nil)
	sam1, sam2 := isa.NewSample("sam1"), isa.NewSample("sam2")
	pool := extract(t, "pool1")
	p := isa.NewProcess(extraction)
	p.AddInput(sam1)
	p.AddInput(sam2)
	p.AddOutput(pool)

	g := Build([]*isa.Process{p}, sam1, sam2)
	paths := g.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, []string{"sam1", "P:extraction", "pool1"}, names(paths[0]))
	assert.Equal(t, []string{"sam2", "P:extraction", "pool1"}, names(paths[1]))
	assert.Same(t, paths[0][1].Process, paths[1][1].Process)
	assert.Len(t, g.Predecessors(ProcessVertex(p)), 2)
}

func TestPathsFanOut(t *testing.T) {
	sam := isa.NewSample("sam1")
	a, b := extract(t, "e1"), extract(t, "e2")
	p1 := isa.NewProcess(isa.NewProtocol("extraction", nil))
	p1.AddInput(sam)
	p1.AddOutput(a)
	p2 := isa.NewProcess(isa.NewProtocol("sonication", nil))
	p2.AddInput(sam)
	p2.AddOutput(b)

	g := Build([]*isa.Process{p1, p2}, sam)
	paths := g.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, []string{"sam1", "P:extraction", "e1"}, names(paths[0]))
	assert.Equal(t, []string{"sam1", "P:sonication", "e2"}, names(paths[1]))
	assert.Equal(t, []Vertex{NodeVertex(sam)}, g.Roots())
}

func TestOutputsTakePrecedenceOverNextLink(t *testing.T) {
	sam := isa.NewSample("sam1")
	scan := isa.NewProcess(isa.NewProtocol("hybridization", nil))
	norm := isa.NewProcess(isa.NewProtocol("normalization", nil))
	raw, err := isa.NewDataFile("raw.cel", isa.RawDataFile)
	require.NoError(t, err)
	derived, err := isa.NewDataFile("out.txt", isa.DerivedDataFile)
	require.NoError(t, err)

	scan.AddInput(sam)
	isa.LinkProcesses(scan, norm)
	norm.AddOutput(derived)

	g := Build([]*isa.Process{scan, norm})
	assert.Equal(t, []Vertex{ProcessVertex(norm)}, g.Successors(ProcessVertex(scan)))
	assert.Equal(t, []isa.Node{sam}, g.Ancestors(NodeVertex(derived), isa.KindSample))

	scan.AddOutput(raw)
	g = Build([]*isa.Process{scan, norm})
	assert.Equal(t, []Vertex{NodeVertex(raw)}, g.Successors(ProcessVertex(scan)))
	assert.False(t, g.Reachable(NodeVertex(sam), NodeVertex(derived)))
}

func TestCycleDetection(t *testing.T) {
	a, b := extract(t, "a"), extract(t, "b")
	p := isa.NewProcess(isa.NewProtocol("x", nil))
	p.AddInput(a)
	p.AddOutput(b)
	q := isa.NewProcess(isa.NewProtocol("y", nil))
	q.AddInput(b)
	q.AddOutput(a)

	g := Build([]*isa.Process{p, q})
	assert.False(t, g.Acyclic())
	_, err := g.TopologicalOrder()
	require.ErrorIs(t, err, ErrCycle)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Len(t, cycle.Vertices, 4)
	assert.Empty(t, g.Paths())
}

func TestResolveDerivations(t *testing.T) {
	s := isa.NewStudy("S1", "s_S1.txt")
	src, _ := s.AddSource(isa.NewSource("src1"))
	smp, _ := s.AddSample(isa.NewSample("sam1"))
	orphan, _ := s.AddSample(isa.NewSample("orphan"))
	sampling := isa.NewProcess(s.SyntheticProtocol())
	sampling.AddInput(src)
	sampling.AddOutput(smp)
	s.Processes = append(s.Processes, sampling)

	a := isa.NewAssay("a_x.txt", nil, nil)
	a.AddSample(smp)
	raw, _ := isa.NewDataFile("raw.txt", isa.RawDataFile)
	lost, _ := isa.NewDataFile("lost.txt", isa.RawDataFile)
	a.AddDataFile(raw)
	a.AddDataFile(lost)
	run := isa.NewProcess(isa.NewProtocol("data collection", nil))
	run.AddInput(smp)
	run.AddOutput(raw)
	a.Processes = append(a.Processes, run)
	s.AddAssay(a)

	ResolveDerivations(s)
	assert.Equal(t, []*isa.Source{src}, smp.DerivesFrom)
	assert.Equal(t, []*isa.Sample{smp}, raw.GeneratedFrom)

	samples, files := Disconnected(s)
	assert.Equal(t, []*isa.Sample{orphan}, samples)
	assert.Equal(t, []*isa.DataFile{lost}, files[a])

	order, err := StudyGraph(s).TopologicalOrder()
	require.NoError(t, err)
	assert.Len(t, order, 4)
}
