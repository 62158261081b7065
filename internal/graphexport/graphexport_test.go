package graphexport

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isacore/pkg/graph"
	"isacore/pkg/isa"
	fixtures "isacore/testutil"
)

func byID(g Graph) map[string]Node {
	out := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.ID] = n
	}
	return out
}

func TestBuildSharesSamplesAcrossGraphs(t *testing.T) {
	graphs, err := Build(fixtures.Investigation(t, "BII-I-1"))
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	study, assay := graphs[0], graphs[1]
	assert.Equal(t, "bii-i-1/s1", study.Scope)
	assert.Equal(t, "bii-i-1/s1/a1", assay.Scope)

	sid := "bii-i-1/s1/sample-name/sam1"
	require.Contains(t, byID(study), sid)
	require.Contains(t, byID(assay), sid)
	assert.Equal(t, LabelSample, byID(assay)[sid].Label)
	assert.Equal(t, "bii-i-1/s1", byID(assay)[sid].Scope)

	file := byID(assay)["bii-i-1/s1/a1/raw-data-file/r1-fq"]
	assert.Equal(t, LabelDataFile, file.Label)
	assert.Equal(t, "r1.fq", file.Name)

	var processes int
	for _, n := range assay.Nodes {
		if n.Label == LabelProcess {
			processes++
			assert.True(t, strings.HasPrefix(n.ID, "bii-i-1/s1/a1/process/"))
		}
	}
	assert.Equal(t, 4, processes)

	ids := byID(assay)
	for _, e := range assay.Edges {
		assert.Contains(t, ids, e.From)
		assert.Contains(t, ids, e.To)
	}
}

func TestBuildIsStable(t *testing.T) {
	a, err := Build(fixtures.Investigation(t, "X"))
	require.NoError(t, err)
	b, err := Build(fixtures.Investigation(t, "X"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSlugCollisionsAreDisambiguated(t *testing.T) {
	s := isa.NewStudy("S1", "s_S1.txt")
	inv := &isa.Investigation{Identifier: "I"}
	inv.Studies = append(inv.Studies, s)
	p := isa.NewProcess(nil)
	a, b := isa.NewSource("a b"), isa.NewSource("a-b")
	p.AddInput(a)
	p.AddInput(b)
	smp := isa.NewSample("s")
	p.AddOutput(smp)
	s.Sources = append(s.Sources, a, b)
	s.Samples = append(s.Samples, smp)
	s.Processes = append(s.Processes, p)

	graphs, err := Build(inv)
	require.NoError(t, err)
	ids := byID(graphs[0])
	assert.Contains(t, ids, "i/s1/source-name/a-b")
	assert.Contains(t, ids, "i/s1/source-name/a-b~2")
}

type recorder struct {
	calls []call
	fail  error
}

type call struct {
	cypher string
	rows   int
}

func (r *recorder) Run(_ context.Context, cypher string, params map[string]any) error {
	n := 0
	if rows, ok := params["rows"].([]map[string]any); ok {
		n = len(rows)
	}
	r.calls = append(r.calls, call{cypher: cypher, rows: n})
	if r.fail != nil && strings.Contains(cypher, "UNWIND") {
		return r.fail
	}
	return nil
}

func TestExporterBatches(t *testing.T) {
	graphs, err := Build(fixtures.Investigation(t, "BII-I-1"))
	require.NoError(t, err)
	rec := &recorder{}
	require.NoError(t, (&Neo4jExporter{Runner: rec, BatchSize: 2}).Export(context.Background(), graphs))

	require.NotEmpty(t, rec.calls)
	assert.Contains(t, rec.calls[0].cypher, "CREATE CONSTRAINT")
	var merged, edges int
	for _, c := range rec.calls[1:] {
		assert.LessOrEqual(t, c.rows, 2)
		if strings.Contains(c.cypher, "FEEDS") {
			edges += c.rows
		} else {
			merged += c.rows
		}
	}
	total := 0
	for _, g := range graphs {
		total += len(g.Edges)
	}
	assert.Equal(t, total, edges)
	assert.Equal(t, len(graphs[0].Nodes)+len(graphs[1].Nodes), merged)
	assert.Contains(t, rec.calls[1].cypher, "SET n:Source")
}

func TestExporterPropagatesFailure(t *testing.T) {
	graphs, err := Build(fixtures.Investigation(t, "BII-I-1"))
	require.NoError(t, err)
	boom := errors.New("boom")
	err = (&Neo4jExporter{Runner: &recorder{fail: boom}}).Export(context.Background(), graphs)
	require.ErrorIs(t, err, boom)
}

func TestCycleRejected(t *testing.T) {
	s := isa.NewStudy("S1", "s_S1.txt")
	inv := &isa.Investigation{Identifier: "I", Studies: []*isa.Study{s}}
	m1, m2 := isa.NewSample("m1"), isa.NewSample("m2")
	p1, p2 := isa.NewProcess(nil), isa.NewProcess(nil)
	p1.AddInput(m1)
	p1.AddOutput(m2)
	p2.AddInput(m2)
	p2.AddOutput(m1)
	s.Samples = append(s.Samples, m1, m2)
	s.Processes = append(s.Processes, p1, p2)
	_, err := Build(inv)
	require.ErrorIs(t, err, graph.ErrCycle)
}

func TestLiveNeo4j(t *testing.T) {
	if os.Getenv("NEO4J_URI") == "" {
		t.Skip("NEO4J_URI not set")
	}
	ctx := context.Background()
	runner, err := DialFromEnv(ctx)
	require.NoError(t, err)
	defer runner.Close(ctx)
	graphs, err := Build(fixtures.Investigation(t, "LIVE-1"))
	require.NoError(t, err)
	require.NoError(t, (&Neo4jExporter{Runner: runner}).Export(ctx, graphs))
}
