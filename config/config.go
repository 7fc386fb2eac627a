// Package config provides configuration structures for the squit CLI.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Path           string            `json:"path" yaml:"path" mapstructure:"path"`
	BuildPath      string            `json:"buildPath" yaml:"buildPath" mapstructure:"buildPath"`
	ConfigPath     string            `json:"configPath" yaml:"configPath" mapstructure:"configPath"`
	Debug          bool              `json:"debug" yaml:"debug" mapstructure:"debug"`
	DebugModules   []string          `json:"debugModules" yaml:"debugModules" mapstructure:"debugModules"`
	DisableANSI    bool              `json:"disableANSI" yaml:"disableANSI" mapstructure:"disableANSI"`
	Parallelism    int               `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism"`
	IgnoreFailures bool              `json:"ignoreFailures" yaml:"ignoreFailures" mapstructure:"ignoreFailures"`
	Variables      map[string]string `json:"variables" yaml:"variables" mapstructure:"variables"`
	Tags           []string          `json:"tags" yaml:"tags" mapstructure:"tags"`
	Test           Test              `json:"test" yaml:"test" mapstructure:"test"`
	Report         Report            `json:"report" yaml:"report" mapstructure:"report"`
	History        History           `json:"history" yaml:"history" mapstructure:"history"`
}

type Test struct {
	Timeout              time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Retries              int           `json:"retries" yaml:"retries" mapstructure:"retries"`
	CanonicalizeJSON     bool          `json:"canonicalizeJSON" yaml:"canonicalizeJSON" mapstructure:"canonicalizeJSON"`
	CanonicalizeXML      bool          `json:"canonicalizeXML" yaml:"canonicalizeXML" mapstructure:"canonicalizeXML"`
	XMLStrict            bool          `json:"xmlStrict" yaml:"xmlStrict" mapstructure:"xmlStrict"`
	JSONIgnoreArrayOrder bool          `json:"jsonIgnoreArrayOrder" yaml:"jsonIgnoreArrayOrder" mapstructure:"jsonIgnoreArrayOrder"`
	ScriptInterpreter    string        `json:"scriptInterpreter" yaml:"scriptInterpreter" mapstructure:"scriptInterpreter"`
}

type Report struct {
	Path         string `json:"path" yaml:"path" mapstructure:"path"`
	Format       string `json:"format" yaml:"format" mapstructure:"format"`
	ShowFullBody bool   `json:"showFullBody" yaml:"showFullBody" mapstructure:"showFullBody"`
}

// History configures the sqlite file that keeps every fixture outcome.
type History struct {
	Enabled   bool    `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path      string  `json:"path" yaml:"path" mapstructure:"path"`
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
}

// Report formats.
const (
	ReportFormatYAML = "yaml"
	ReportFormatJSON = "json"
)

// SourcesPath is where pre-processed fixtures are written.
func (c *Config) SourcesPath() string {
	return filepath.Join(c.BuildPath, "sources")
}

// RawResponsesPath is where actual responses are stored as received.
func (c *Config) RawResponsesPath() string {
	return filepath.Join(c.BuildPath, "responses", "raw")
}

// ProcessedResponsesPath is where post-processed actual responses are stored.
func (c *Config) ProcessedResponsesPath() string {
	return filepath.Join(c.BuildPath, "responses", "processed")
}

// ReportPath is where the result file is written, defaulting below the build path.
func (c *Config) ReportPath() string {
	if c.Report.Path != "" {
		return c.Report.Path
	}
	return filepath.Join(c.BuildPath, "reports")
}

// HistoryPath is the result history file, defaulting below the build path.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.BuildPath, "history.db")
}

// SetVariables parses "name=value" pairs into the template variables.
func SetVariables(conf *Config, pairs []string) error {
	if conf.Variables == nil {
		conf.Variables = make(map[string]string)
	}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("invalid variable %q, expected name=value", pair)
		}
		conf.Variables[strings.TrimSpace(name)] = value
	}
	return nil
}

// ValidateReportFormat rejects unknown report formats.
func ValidateReportFormat(format string) error {
	switch format {
	case ReportFormatYAML, ReportFormatJSON:
		return nil
	default:
		return fmt.Errorf("report format must be one of %q or %q, got %q", ReportFormatYAML, ReportFormatJSON, format)
	}
}
