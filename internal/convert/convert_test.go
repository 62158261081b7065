package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isacore/internal/catalog/memory"
	"isacore/internal/metrics"
	"isacore/pkg/isa"
	"isacore/pkg/isajson"
	"isacore/pkg/validate"
	fixtures "isacore/testutil"
)

func TestTabToJSONAndBackOnDisk(t *testing.T) {
	ctx := context.Background()
	src := fixtures.TabularDir(t, "BII-I-1")
	out := t.TempDir()
	doc := filepath.Join(out, "BII-I-1.json")

	svc := New()
	svc.Validate = true
	res := svc.Run(ctx, Job{Kind: KindTabToJSON, Source: src, Target: doc})
	require.NoError(t, res.Err)
	assert.Equal(t, "BII-I-1", res.Identifier)
	require.NotNil(t, res.Report)
	assert.False(t, res.Report.HasErrors())

	back, err := isajson.ReadFile(doc, isajson.Options{})
	require.NoError(t, err)
	assert.True(t, isa.Equal(fixtures.Investigation(t, "BII-I-1"), back))

	tabDir := filepath.Join(out, "tab")
	res = svc.Run(ctx, Job{Kind: KindJSONToTab, Source: "file://" + doc, Target: tabDir})
	require.NoError(t, res.Err)
	study, err := os.ReadFile(filepath.Join(tabDir, "s_S1.txt"))
	require.NoError(t, err)
	assert.Equal(t, fixtures.StudyTable, string(study))
	assay, err := os.ReadFile(filepath.Join(tabDir, "a_S1.txt"))
	require.NoError(t, err)
	assert.Equal(t, fixtures.AssayTable, string(assay))
}

func TestMemoryURLs(t *testing.T) {
	ctx := context.Background()
	svc := New()
	base := fmt.Sprintf("mem://localhost/convert-%d", time.Now().UnixNano())
	for name, f := range fixtures.TabularFS("MEM-1") {
		require.NoError(t, svc.FS.Upload(ctx, base+"/in/"+name, 0o644, bytes.NewReader(f.Data)))
	}
	res := svc.Run(ctx, Job{Kind: KindTabToJSON, Source: base + "/in", Target: base + "/out/MEM-1.json"})
	require.NoError(t, res.Err)

	res = svc.Run(ctx, Job{Kind: KindValidate, Source: base + "/out/MEM-1.json"})
	require.NoError(t, res.Err)
	assert.False(t, res.Report.HasErrors())
	assert.Empty(t, res.Report.Warnings())
}

func TestValidateTabularReportsFindings(t *testing.T) {
	dir := fixtures.TabularDir(t, "BAD-1")
	require.NoError(t, os.Remove(filepath.Join(dir, "a_S1.txt")))
	res := New().Run(context.Background(), Job{Kind: KindValidate, Source: dir})
	require.NoError(t, res.Err)
	require.True(t, res.Report.HasErrors())
	assert.Equal(t, validate.CodeMissingTable, res.Report.Errors()[0].Code)
}

func TestMissingSource(t *testing.T) {
	res := New().Run(context.Background(), Job{Kind: KindTabToJSON, Source: filepath.Join(t.TempDir(), "none"), Target: filepath.Join(t.TempDir(), "x.json")})
	require.Error(t, res.Err)
	res = New().Run(context.Background(), Job{Kind: "zip"})
	require.Error(t, res.Err)
}

func TestBatchRegistersAndCounts(t *testing.T) {
	ctx := context.Background()
	svc := New()
	svc.Catalog = memory.New()
	svc.Metrics = metrics.New()
	svc.Concurrency = 2
	out := t.TempDir()

	var jobs []Job
	for _, id := range []string{"B-1", "B-2", "B-3"} {
		jobs = append(jobs, Job{Kind: KindTabToJSON, Source: fixtures.TabularDir(t, id), Target: filepath.Join(out, id+".json")})
	}
	jobs = append(jobs, Job{Kind: KindTabToJSON, Source: filepath.Join(out, "missing"), Target: filepath.Join(out, "m.json")})

	outcomes, err := svc.Batch(ctx, jobs)
	require.ErrorIs(t, err, ErrFailed)
	require.Len(t, outcomes, 4)
	for i, id := range []string{"B-1", "B-2", "B-3"} {
		require.NoError(t, outcomes[i].Err)
		assert.Equal(t, id, outcomes[i].Identifier)
	}
	require.Error(t, outcomes[3].Err)

	entries, err := svc.Catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "B-1", entries[0].Identifier)
}

func TestBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes, err := New().Batch(ctx, []Job{{Kind: KindValidate, Source: t.TempDir()}})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, outcomes[0].Err, context.Canceled)
}

func TestLoadEitherForm(t *testing.T) {
	ctx := context.Background()
	src := fixtures.TabularDir(t, "BII-I-3")
	doc := filepath.Join(t.TempDir(), "inv.json")
	svc := New()
	require.NoError(t, svc.Run(ctx, Job{Kind: KindTabToJSON, Source: src, Target: doc}).Err)

	fromTab, err := svc.Load(ctx, src)
	require.NoError(t, err)
	fromDoc, err := svc.Load(ctx, doc)
	require.NoError(t, err)
	assert.True(t, isa.Equal(fromTab, fromDoc))

	_, err = svc.Load(ctx, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
