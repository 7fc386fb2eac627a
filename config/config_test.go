package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	conf := New()

	assert.Equal(t, "src/squit", conf.Path)
	assert.Equal(t, "build/squit", conf.BuildPath)
	assert.Equal(t, 60*time.Second, conf.Test.Timeout)
	assert.True(t, conf.Test.CanonicalizeJSON)
	assert.True(t, conf.Test.CanonicalizeXML)
	assert.False(t, conf.Test.XMLStrict)
	assert.Equal(t, ReportFormatYAML, conf.Report.Format)
	assert.Equal(t, filepath.Join("build", "squit", "reports"), conf.ReportPath())
	assert.Equal(t, filepath.Join("build", "squit", "responses", "raw"), conf.RawResponsesPath())
	assert.False(t, conf.History.Enabled)
	assert.Equal(t, filepath.Join("build", "squit", "history.db"), conf.HistoryPath())
}

func TestSetDefaultConfig_UpdatesDefaultConfig(t *testing.T) {
	original := GetDefaultConfig()
	defer SetDefaultConfig(original)

	SetDefaultConfig("path: \"/new/path\"\n")
	assert.Equal(t, "path: \"/new/path\"\n", GetDefaultConfig())
	assert.Equal(t, "/new/path", New().Path)
}

func TestSetVariables(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{name: "single", pairs: []string{"port=8080"}, want: map[string]string{"port": "8080"}},
		{name: "value with equals", pairs: []string{"q=a=b"}, want: map[string]string{"q": "a=b"}},
		{name: "empty value", pairs: []string{"empty="}, want: map[string]string{"empty": ""}},
		{name: "missing separator", pairs: []string{"port"}, wantErr: true},
		{name: "missing name", pairs: []string{"=1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Config{}
			err := SetVariables(conf, tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, conf.Variables)
		})
	}
}

func TestValidateReportFormat(t *testing.T) {
	assert.NoError(t, ValidateReportFormat("yaml"))
	assert.NoError(t, ValidateReportFormat("json"))
	assert.Error(t, ValidateReportFormat("html"))
}
