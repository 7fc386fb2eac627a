package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.squit.io/squit/config"
	"go.squit.io/squit/pkg/models"
	"go.uber.org/zap"
)

func init() {
	color.NoColor = true
}

func TestGenerateDiff(t *testing.T) {
	tests := []struct {
		name     string
		result   models.SquitResult
		empty    bool
		contains []string
	}{
		{
			name:   "success",
			result: models.SquitResult{ExpectedBody: "a", ActualBody: "a"},
			empty:  true,
		},
		{
			name:     "error keeps message",
			result:   models.SquitResult{Diff: "request failed", Error: true},
			contains: []string{"request failed"},
		},
		{
			name:     "no bodies falls back to diff text",
			result:   models.SquitResult{Diff: "Expected 'a' but was 'b' at line 1"},
			contains: []string{"Expected 'a' but was 'b' at line 1"},
		},
		{
			name: "json objects",
			result: models.SquitResult{
				Diff:         "Expected 1 but was 2 at /a",
				MediaType:    models.MediaTypeJSON,
				ExpectedBody: `{"a": 1, "b": true}`,
				ActualBody:   `{"a": 2, "b": true}`,
			},
			contains: []string{`"a": 1`, `"a": 2`},
		},
		{
			name: "xml line diff",
			result: models.SquitResult{
				Diff:         "Expected text 'x' but was 'y' at /r[1]/v[1]",
				MediaType:    models.MediaTypeXML,
				ExpectedBody: "<r>\n  <v>x</v>\n</r>",
				ActualBody:   "<r>\n  <v>y</v>\n</r>",
			},
			contains: []string{"--- expected", "+++ actual", "-  <v>x</v>", "+  <v>y</v>"},
		},
		{
			name: "json arrays use the line diff",
			result: models.SquitResult{
				Diff:         "changed",
				MediaType:    models.MediaTypeJSON,
				ExpectedBody: "[\n  1\n]",
				ActualBody:   "[\n  2\n]",
			},
			contains: []string{"-  1", "+  2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := GenerateDiff(tt.result)
			if tt.empty {
				assert.Empty(t, out)
				return
			}
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
		})
	}
}

func sampleResults() []models.SquitResult {
	return []models.SquitResult{
		{ID: 1, TestPath: "suite/ok", MediaType: models.MediaTypeXML, Duration: time.Second},
		{ID: 2, TestPath: "suite/bad", Title: "Bad one", Diff: "Expected 'a' but was 'b' at line 1", ExpectedBody: "a", ActualBody: "b"},
		{ID: 3, TestPath: "suite/broken", Diff: "connection refused", Error: true},
		{ID: 4, TestPath: "suite/skipped", Diff: "x", Ignored: true},
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, Counts{Total: 3, Successful: 1, Failed: 2, Errors: 1, Ignored: 1}, Count(sampleResults()))
}

func TestWriteRead(t *testing.T) {
	for _, format := range []string{config.ReportFormatYAML, config.ReportFormatJSON} {
		t.Run(format, func(t *testing.T) {
			f := NewFile(sampleResults(), 3*time.Second)
			path, err := Write(f, t.TempDir(), format)
			require.NoError(t, err)
			assert.Equal(t, ResultFileName+"."+format, filepath.Base(path))

			read, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, f.ID, read.ID)
			assert.Equal(t, f.Counts, read.Counts)
			assert.Equal(t, 3*time.Second, read.Duration)
			require.Len(t, read.Results, 4)
			assert.Equal(t, "Bad one", read.Results[1].Title)
			assert.Equal(t, time.Second, read.Results[0].Duration)
		})
	}

	_, err := Write(NewFile(nil, 0), t.TempDir(), "html")
	assert.Error(t, err)
}

func TestReport_GenerateAndRender(t *testing.T) {
	cfg := config.New()
	cfg.BuildPath = t.TempDir()
	cfg.Report.ShowFullBody = true
	var out bytes.Buffer
	r := NewWithWriter(zap.NewNop(), cfg, &out)

	f, err := r.Generate(context.Background(), sampleResults(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Counts.Failed)

	summary := out.String()
	assert.Contains(t, summary, "suite/ok")
	assert.Contains(t, summary, "PASSED")
	assert.Contains(t, summary, "IGNORED")
	assert.Contains(t, summary, "ERROR")
	assert.Contains(t, summary, "suite/bad (Bad one)")
	assert.Contains(t, summary, "--- expected")

	out.Reset()
	require.NoError(t, r.Render(context.Background(), ""))
	rendered := out.String()
	assert.Contains(t, rendered, "suite FAILED (1/3)")
	assert.Contains(t, rendered, "1 of 3 fixtures passed")
	assert.Contains(t, rendered, "connection refused")
	assert.NotContains(t, rendered, "suite/skipped")

	assert.Error(t, r.Render(context.Background(), filepath.Join(cfg.BuildPath, "missing.yaml")))
}
