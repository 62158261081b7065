package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isacore/pkg/validate"
)

func TestObserveCountsByResult(t *testing.T) {
	r := New()
	ctx := context.Background()
	r.Observe(ctx, "tab2json", true, 5*time.Millisecond)
	r.Observe(ctx, "tab2json", true, time.Millisecond)
	r.Observe(ctx, "tab2json", false, time.Millisecond)
	r.Observe(ctx, "", true, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("tab2json", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("tab2json", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.durations))
}

func TestTrack(t *testing.T) {
	r := New()
	done := r.Track(context.Background(), "publish")
	done(errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("publish", "error")))
}

func TestObserveReport(t *testing.T) {
	r := New()
	rep := &validate.Report{Diagnostics: []validate.Diagnostic{
		{Code: validate.CodeMissingReleaseDate, Severity: validate.SeverityWarning},
		{Code: validate.CodeMissingContacts, Severity: validate.SeverityWarning},
		{Code: validate.CodeSummary, Severity: validate.SeverityDebug},
	}}
	r.ObserveReport(rep)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.diagnostics.WithLabelValues("WARNING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.diagnostics.WithLabelValues("DEBUG")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.Observe(context.Background(), "x", true, time.Second)
	r.Track(context.Background(), "x")(nil)
	r.ObserveReport(&validate.Report{})
	assert.Nil(t, r.Registry())
	require.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "none.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Observe(context.Background(), "validate", true, time.Millisecond)
	path := filepath.Join(t.TempDir(), "isatool.prom")
	require.NoError(t, r.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `isacore_operations_total{operation="validate",result="success"} 1`))
}
