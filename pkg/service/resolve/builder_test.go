package resolve

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.squit.io/squit/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestBuilder_ScalarOverride(t *testing.T) {
	root := &models.ConfigLayer{
		Endpoint:  mustURL(t, "http://root/api"),
		MediaType: ptr(models.MediaTypeXML),
		Exclude:   ptr(true),
		Title:     ptr("root"),
	}

	tests := []struct {
		name  string
		leaf  *models.ConfigLayer
		check func(t *testing.T, cfg models.TestConfig)
	}{
		{
			name: "unset in leaf keeps root value",
			leaf: &models.ConfigLayer{},
			check: func(t *testing.T, cfg models.TestConfig) {
				assert.Equal(t, "http://root/api", cfg.Endpoint.String())
				assert.Equal(t, models.MediaTypeXML, cfg.MediaType)
				assert.True(t, cfg.Exclude)
				assert.Equal(t, "root", cfg.Title)
			},
		},
		{
			name: "set in leaf wins",
			leaf: &models.ConfigLayer{
				Endpoint:  mustURL(t, "http://leaf/api"),
				MediaType: ptr(models.MediaTypeJSON),
				Exclude:   ptr(false),
				Title:     ptr("leaf"),
			},
			check: func(t *testing.T, cfg models.TestConfig) {
				assert.Equal(t, "http://leaf/api", cfg.Endpoint.String())
				assert.Equal(t, models.MediaTypeJSON, cfg.MediaType)
				assert.False(t, cfg.Exclude)
				assert.Equal(t, "leaf", cfg.Title)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewBuilder().Add(root).Add(tt.leaf).Build("leaf")
			tt.check(t, cfg)
		})
	}
}

func TestBuilder_ListsAccumulate(t *testing.T) {
	cfg := NewBuilder().
		Add(&models.ConfigLayer{PreProcessors: []string{"p1"}, Tags: []string{"root", "shared"}}).
		Add(nil).
		Add(&models.ConfigLayer{PreProcessors: []string{"p2", "p1"}, PostProcessors: []string{"q"}, Tags: []string{"shared", "leaf"}}).
		Build("case")

	assert.Equal(t, []string{"p1", "p2", "p1"}, cfg.PreProcessors)
	assert.Equal(t, []string{"q"}, cfg.PostProcessors)
	assert.Equal(t, []string{"root", "shared", "leaf", "case"}, cfg.Tags)
}

func TestBuilder_MapsOverwriteByKey(t *testing.T) {
	cfg := NewBuilder().
		Add(&models.ConfigLayer{
			Headers: map[string]string{"A": "1", "B": "1"},
			DatabaseConfigurations: map[string]models.DatabaseConfig{
				"main":  {JdbcAddress: "jdbc:sqlite:root.db", Username: "u", Password: "p"},
				"audit": {JdbcAddress: "jdbc:sqlite:audit.db", Username: "u", Password: "p"},
			},
		}).
		Add(&models.ConfigLayer{
			Headers: map[string]string{"B": "2"},
			DatabaseConfigurations: map[string]models.DatabaseConfig{
				"main": {JdbcAddress: "jdbc:sqlite:leaf.db", Username: "u", Password: "p"},
			},
		}).
		Build("")

	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, cfg.Headers)
	assert.Equal(t, "jdbc:sqlite:leaf.db", cfg.DatabaseConfigurations["main"].JdbcAddress)
	assert.Equal(t, "jdbc:sqlite:audit.db", cfg.DatabaseConfigurations["audit"].JdbcAddress)
}

func TestBuilder_BuildDoesNotAlias(t *testing.T) {
	b := NewBuilder().Add(&models.ConfigLayer{PreProcessors: []string{"p1"}, Headers: map[string]string{"A": "1"}})
	first := b.Build("x")
	first.PreProcessors[0] = "changed"
	first.Headers["A"] = "changed"

	second := b.Build("x")
	assert.Equal(t, []string{"p1"}, second.PreProcessors)
	assert.Equal(t, "1", second.Headers["A"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		cfg      models.TestConfig
		messages []string
	}{
		{name: "valid", cfg: models.TestConfig{Endpoint: mustURL(t, "http://host/api")}},
		{name: "missing endpoint", cfg: models.TestConfig{}, messages: []string{"endpoint property is missing"}},
		{
			name:     "several problems",
			cfg:      models.TestConfig{ExpectedResponseCode: 42},
			messages: []string{"endpoint property is missing", "expectedResponseCode must be between 100 and 599"},
		},
		{
			name:     "unsupported scheme",
			cfg:      models.TestConfig{Endpoint: mustURL(t, "ftp://host/file")},
			messages: []string{"endpoint must use http or https"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg, "suite/test")
			if tt.messages == nil {
				assert.NoError(t, err)
				return
			}
			var valErr *models.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tt.messages, valErr.Messages)
			assert.Equal(t, "suite/test", valErr.Path)
		})
	}
}

func TestValidate_MessagesJoined(t *testing.T) {
	err := Validate(models.TestConfig{ExpectedResponseCode: 1}, "a/b")
	require.Error(t, err)
	assert.Equal(t, "invalid test a/b: endpoint property is missing, expectedResponseCode must be between 100 and 599", err.Error())
}
