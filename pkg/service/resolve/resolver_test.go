package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.squit.io/squit/pkg/models"
	"go.uber.org/zap"
)

func writeLayer(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, models.ConfigFileName), []byte(content), 0o644))
}

func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeLayer(t, root, "endpoint = http://localhost:$port/api\ntags = root-tag\npreProcessors = p1\n"+
		"db_main_jdbc = jdbc:sqlite:main.db\ndb_main_username = sa\ndb_main_password = pw\n")
	writeLayer(t, filepath.Join(root, "suite"), "mediaType = application/json\npreProcessors = p2\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "suite", "case1"), 0o755))
	writeLayer(t, filepath.Join(root, "suite", "case2"), "endpoint = http://other:1234/x\nignore = true\n")
	return root
}

func TestResolver_Resolve(t *testing.T) {
	root := fixtureTree(t)
	r := New(zap.NewNop(), map[string]string{"port": "8080"}, nil)

	cfg, err := r.Resolve(context.Background(), root, filepath.Join(root, "suite", "case1"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", cfg.Endpoint.String())
	assert.Equal(t, models.MediaTypeJSON, cfg.MediaType)
	assert.Equal(t, []string{"p1", "p2"}, cfg.PreProcessors)
	assert.Equal(t, []string{"root-tag", "case1"}, cfg.Tags)
	assert.False(t, cfg.Ignore)
	assert.Equal(t, "sa", cfg.DatabaseConfigurations["main"].Username)

	cfg, err = r.Resolve(context.Background(), root, filepath.Join(root, "suite", "case2"))
	require.NoError(t, err)
	assert.Equal(t, "http://other:1234/x", cfg.Endpoint.String())
	assert.True(t, cfg.Ignore)
	assert.Equal(t, []string{"root-tag", "case2"}, cfg.Tags)
}

func TestResolver_RootIsLeaf(t *testing.T) {
	root := t.TempDir()
	writeLayer(t, root, "endpoint = http://localhost/api\n")

	cfg, err := New(zap.NewNop(), nil, nil).Resolve(context.Background(), root, root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Base(root)}, cfg.Tags)
}

func TestResolver_MissingEndpoint(t *testing.T) {
	root := t.TempDir()
	leaf := filepath.Join(root, "suite", "case")
	require.NoError(t, os.MkdirAll(leaf, 0o755))

	_, err := New(zap.NewNop(), nil, nil).Resolve(context.Background(), root, leaf)
	require.Error(t, err)

	var valErr *models.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, []string{"endpoint property is missing"}, valErr.Messages)
	assert.Equal(t, "suite/case", valErr.Path)
}

func TestResolver_UnknownProcessor(t *testing.T) {
	root := t.TempDir()
	writeLayer(t, root, "endpoint = http://localhost/api\npostProcessors = Known, Unknown\n")
	known := func(id string) bool { return id == "Known" }

	_, err := New(zap.NewNop(), nil, known).Resolve(context.Background(), root, root)
	require.Error(t, err)

	var cfgErr *models.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Msg, "Unknown")
	assert.Equal(t, filepath.Join(root, models.ConfigFileName), cfgErr.Path)
}

func TestResolver_MissingScript(t *testing.T) {
	root := t.TempDir()
	writeLayer(t, root, "endpoint = http://localhost/api\npreProcessorScripts = missing.sh\n")

	_, err := New(zap.NewNop(), nil, func(string) bool { return true }).Resolve(context.Background(), root, root)
	var cfgErr *models.ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestResolver_LayerCached(t *testing.T) {
	root := fixtureTree(t)
	r := New(zap.NewNop(), nil, nil)

	first, err := r.Layer(root)
	require.NoError(t, err)
	second, err := r.Layer(root + string(filepath.Separator))
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestResolver_LeafOutsideRoot(t *testing.T) {
	root := t.TempDir()
	_, err := New(zap.NewNop(), nil, nil).Resolve(context.Background(), filepath.Join(root, "a"), filepath.Join(root, "b"))
	assert.Error(t, err)
}

func TestResolver_Canceled(t *testing.T) {
	root := fixtureTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(zap.NewNop(), nil, nil).Resolve(ctx, root, filepath.Join(root, "suite", "case1"))
	assert.ErrorIs(t, err, context.Canceled)
}
