package run

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.squit.io/squit/config"
	"go.squit.io/squit/pkg/matcher"
	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/pkg/platform/db"
	"go.squit.io/squit/pkg/service/discover"
	"go.squit.io/squit/pkg/service/process"
	"go.squit.io/squit/pkg/service/resolve"
	"go.uber.org/zap"
)

type fakeTransport struct {
	mu        sync.Mutex
	responses map[string]*models.HTTPResponse
	requests  map[string]models.HTTPRequest
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		responses: map[string]*models.HTTPResponse{
			"http://svc/ok":   {StatusCode: 200, Body: []byte(`{ "a" : 1 }`)},
			"http://svc/diff": {StatusCode: 200, Body: []byte(`{"a": 2}`)},
		},
		requests: map[string]models.HTTPRequest{},
	}
}

func (f *fakeTransport) Do(_ context.Context, req models.HTTPRequest) (*models.HTTPResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[req.URL] = req
	resp, ok := f.responses[req.URL]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return resp, nil
}

type fakePool struct {
	mu     sync.Mutex
	phases []db.Phase
}

func (p *fakePool) RunFixtureScripts(_ context.Context, _ models.TestFixture, phase db.Phase) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phases = append(p.phases, phase)
	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	results map[string]bool
}

func (r *fakeRecorder) RecordResult(_ context.Context, name string, passed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[name] = passed
	return nil
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write(t, filepath.Join(root, "test.conf"), "endpoint = http://svc/ok\nmediaType = application/json\n")

	write(t, filepath.Join(root, "01-ok", "request.json"), `{"q": "ok"}`)
	write(t, filepath.Join(root, "01-ok", "response.json"), `{"a": 1}`)

	write(t, filepath.Join(root, "02-diff", "test.conf"), "endpoint = http://svc/diff\n")
	write(t, filepath.Join(root, "02-diff", "response.json"), `{"a": 1}`)

	write(t, filepath.Join(root, "03-ignored", "test.conf"), "endpoint = http://svc/diff\nignore = true\n")
	write(t, filepath.Join(root, "03-ignored", "response.json"), `{"a": 1}`)

	write(t, filepath.Join(root, "04-excluded", "test.conf"), "exclude = true\n")
	write(t, filepath.Join(root, "04-excluded", "response.json"), `{"a": 1}`)

	write(t, filepath.Join(root, "05-code", "test.conf"), "expectedResponseCode = 201\n")
	write(t, filepath.Join(root, "05-code", "response.json"), `{"a": 1}`)

	write(t, filepath.Join(root, "06-down", "test.conf"), "endpoint = http://svc/down\n")
	write(t, filepath.Join(root, "06-down", "response.json"), `{"a": 1}`)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "07-missing"), 0o755))
	return root
}

func newRunner(t *testing.T, root string, pool DatabasePool, recorder Recorder) (*Runner, *config.Config) {
	t.Helper()
	cfg := config.New()
	cfg.Path = root
	cfg.BuildPath = t.TempDir()
	cfg.Parallelism = 2

	logger := zap.NewNop()
	factory := process.NewFactory(logger, process.NewSubprocessEngine(logger, ""), matcher.DefaultOptions())
	r := New(logger, cfg, discover.New(logger), resolve.New(logger, nil, process.IsRegistered), factory, pool, recorder)
	return r, cfg
}

func TestRunner_Run(t *testing.T) {
	root := fixtureTree(t)
	recorder := &fakeRecorder{results: map[string]bool{}}
	r, cfg := newRunner(t, root, nil, recorder)
	transport := newFakeTransport()

	summary, err := r.Run(context.Background(), transport)
	require.NoError(t, err)
	require.Len(t, summary.Results, 6)
	assert.True(t, summary.Failed())

	byName := map[string]models.SquitResult{}
	for i, res := range summary.Results {
		assert.Equal(t, i+1, res.ID)
		byName[res.TestPath] = res
	}
	assert.NotContains(t, byName, "04-excluded")

	ok := byName["01-ok"]
	assert.True(t, ok.IsSuccess(), ok.Diff)
	assert.False(t, ok.Error)
	assert.Equal(t, "", ok.SuitePath)
	assert.Equal(t, models.MediaTypeJSON, ok.MediaType)
	assert.Equal(t, &models.ResponseInfo{ResponseCode: 200}, ok.ActualResponseInfo)
	assert.Contains(t, ok.Tags, "01-ok")

	diff := byName["02-diff"]
	assert.False(t, diff.IsSuccess())
	assert.False(t, diff.Error)
	assert.Equal(t, "Expected 1 but was 2 at /a", diff.Diff)

	ignored := byName["03-ignored"]
	assert.True(t, ignored.Ignored)
	assert.False(t, ignored.IsSuccess())

	code := byName["05-code"]
	assert.Equal(t, "Expected response code 201 but was 200", code.Diff)

	down := byName["06-down"]
	assert.True(t, down.Error)
	assert.Contains(t, down.Diff, "test 06-down: request for 06-down to http://svc/down failed")

	missing := byName["07-missing"]
	assert.True(t, missing.Error)
	assert.Contains(t, missing.Diff, "test 07-missing:")

	sent := transport.requests["http://svc/ok"]
	assert.Equal(t, "POST", sent.Method)
	assert.Equal(t, models.MediaTypeJSON, sent.MediaType)

	info, err := os.ReadFile(filepath.Join(cfg.RawResponsesPath(), "01-ok", models.ActualResponseInfoFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"responseCode": 200}`, string(info))
	assert.FileExists(t, filepath.Join(cfg.ProcessedResponsesPath(), "01-ok", "actual_response.json"))
	assert.FileExists(t, filepath.Join(cfg.SourcesPath(), "01-ok", "request.json"))

	assert.Equal(t, true, recorder.results["01-ok"])
	assert.Equal(t, false, recorder.results["02-diff"])
	assert.NotContains(t, recorder.results, "03-ignored")
}

func TestRunner_IgnoreFailures(t *testing.T) {
	root := fixtureTree(t)
	r, cfg := newRunner(t, root, nil, nil)
	cfg.IgnoreFailures = true

	summary, err := r.Run(context.Background(), newFakeTransport())
	require.NoError(t, err)
	assert.False(t, summary.Failed())
}

func TestRunner_ResolveFixtures_TagFilter(t *testing.T) {
	root := fixtureTree(t)
	r, cfg := newRunner(t, root, nil, nil)
	cfg.Tags = []string{"02-diff", "05-code"}

	fixtures, err := r.ResolveFixtures(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, fixtures, 2)
	assert.Equal(t, "02-diff", fixtures[0].Path)
	assert.Equal(t, "05-code", fixtures[1].Path)
}

func TestRunner_ResolveFixtures_InvalidLeafKeepsRunning(t *testing.T) {
	root := fixtureTree(t)
	write(t, filepath.Join(root, "08-broken", "test.conf"), "expectedResponseCode = abc\n")
	r, _ := newRunner(t, root, nil, nil)

	fixtures, err := r.ResolveFixtures(context.Background(), root)
	require.NoError(t, err)
	last := fixtures[len(fixtures)-1]
	assert.Equal(t, "08-broken", last.Path)
	var cfgErr *models.ConfigError
	assert.ErrorAs(t, last.Err, &cfgErr)

	res := r.RunFixture(context.Background(), last, newFakeTransport())
	assert.True(t, res.Error)
	assert.Contains(t, res.Diff, "test 08-broken:")
}

func TestRunner_ResolveFixtures_TagFilterAppliesToInvalidLeaf(t *testing.T) {
	root := fixtureTree(t)
	write(t, filepath.Join(root, "08-broken", "test.conf"), "expectedResponseCode = abc\n")

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{name: "not selected", tags: []string{"01-ok"}, want: []string{"01-ok"}},
		{name: "selected by directory name", tags: []string{"01-ok", "08-broken"}, want: []string{"01-ok", "08-broken"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, cfg := newRunner(t, root, nil, nil)
			cfg.Tags = tt.tags

			fixtures, err := r.ResolveFixtures(context.Background(), root)
			require.NoError(t, err)
			var got []string
			for _, f := range fixtures {
				got = append(got, f.Path)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunner_RootConfigErrorAborts(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "test.conf"), "endpoint = not a url\n")
	write(t, filepath.Join(root, "a", "response.xml"), "<a/>")
	r, _ := newRunner(t, root, nil, nil)

	_, err := r.Run(context.Background(), newFakeTransport())
	var cfgErr *models.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRunner_RootIsLeaf(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "test.conf"), "endpoint = http://svc/ok\nmediaType = application/json\n")
	write(t, filepath.Join(root, "response.json"), `{"a": 1}`)
	r, _ := newRunner(t, root, nil, nil)

	summary, err := r.Run(context.Background(), newFakeTransport())
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, filepath.Base(root), summary.Results[0].TestPath)
	assert.True(t, summary.Results[0].IsSuccess(), summary.Results[0].Diff)
}

func TestRunner_DatabaseScripts(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "test.conf"), "endpoint = http://svc/down\nmediaType = application/json\n"+
		"db_main_jdbc = jdbc:sqlite:main.db\ndb_main_username = sa\ndb_main_password = pw\n")
	write(t, filepath.Join(root, "case", "response.json"), `{"a": 1}`)

	t.Run("post scripts run after transport failure", func(t *testing.T) {
		pool := &fakePool{}
		r, _ := newRunner(t, root, pool, nil)
		summary, err := r.Run(context.Background(), newFakeTransport())
		require.NoError(t, err)
		require.Len(t, summary.Results, 1)
		assert.True(t, summary.Results[0].Error)
		assert.Equal(t, []db.Phase{db.PhasePre, db.PhasePost}, pool.phases)
	})

	t.Run("missing pool", func(t *testing.T) {
		r, _ := newRunner(t, root, nil, nil)
		summary, err := r.Run(context.Background(), newFakeTransport())
		require.NoError(t, err)
		assert.True(t, summary.Results[0].Error)
		assert.Contains(t, summary.Results[0].Diff, "no connection pool")
	})
}
