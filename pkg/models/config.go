package models

import (
	"net/url"
	"sort"
)

// DatabaseConfig holds the connection triple of one named database.
type DatabaseConfig struct {
	JdbcAddress string `json:"jdbc" yaml:"jdbc"`
	Username    string `json:"username" yaml:"username"`
	Password    string `json:"password" yaml:"password"`
}

// TestConfig is the merged configuration of a single fixture.
type TestConfig struct {
	Endpoint               *url.URL                  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	MediaType              MediaType                 `json:"mediaType,omitempty" yaml:"mediaType,omitempty"`
	Method                 string                    `json:"method,omitempty" yaml:"method,omitempty"`
	Title                  string                    `json:"title,omitempty" yaml:"title,omitempty"`
	ExpectedResponseCode   int                       `json:"expectedResponseCode,omitempty" yaml:"expectedResponseCode,omitempty"`
	Exclude                bool                      `json:"exclude" yaml:"exclude"`
	Ignore                 bool                      `json:"ignore" yaml:"ignore"`
	Headers                map[string]string         `json:"headers,omitempty" yaml:"headers,omitempty"`
	PreProcessors          []string                  `json:"preProcessors,omitempty" yaml:"preProcessors,omitempty"`
	PostProcessors         []string                  `json:"postProcessors,omitempty" yaml:"postProcessors,omitempty"`
	PreProcessorScripts    []string                  `json:"preProcessorScripts,omitempty" yaml:"preProcessorScripts,omitempty"`
	PostProcessorScripts   []string                  `json:"postProcessorScripts,omitempty" yaml:"postProcessorScripts,omitempty"`
	Tags                   []string                  `json:"tags,omitempty" yaml:"tags,omitempty"`
	DatabaseConfigurations map[string]DatabaseConfig `json:"databaseConfigurations,omitempty" yaml:"databaseConfigurations,omitempty"`
}

// EffectiveMediaType falls back to DefaultMediaType when none was configured.
func (c TestConfig) EffectiveMediaType() MediaType {
	if c.MediaType == "" {
		return DefaultMediaType
	}
	return c.MediaType
}

// EffectiveMethod falls back to POST, which is what SOAP style fixtures expect.
func (c TestConfig) EffectiveMethod() string {
	if c.Method == "" {
		return "POST"
	}
	return c.Method
}

// HasTag reports whether the config carries the tag.
func (c TestConfig) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DatabaseNames returns the configured database names in sorted order.
func (c TestConfig) DatabaseNames() []string {
	names := make([]string, 0, len(c.DatabaseConfigurations))
	for name := range c.DatabaseConfigurations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MergeWith fills the fields c leaves unset with the values of other.
// Fields populated in c are never overwritten. Tags are unioned. The result is
// not validated.
func (c TestConfig) MergeWith(other TestConfig) TestConfig {
	merged := c.clone()

	if merged.Endpoint == nil && other.Endpoint != nil {
		u := *other.Endpoint
		merged.Endpoint = &u
	}
	if merged.MediaType == "" {
		merged.MediaType = other.MediaType
	}
	if merged.Method == "" {
		merged.Method = other.Method
	}
	if merged.Title == "" {
		merged.Title = other.Title
	}
	if merged.ExpectedResponseCode == 0 {
		merged.ExpectedResponseCode = other.ExpectedResponseCode
	}
	merged.Exclude = merged.Exclude || other.Exclude
	merged.Ignore = merged.Ignore || other.Ignore

	if len(merged.PreProcessors) == 0 {
		merged.PreProcessors = append([]string(nil), other.PreProcessors...)
	}
	if len(merged.PostProcessors) == 0 {
		merged.PostProcessors = append([]string(nil), other.PostProcessors...)
	}
	if len(merged.PreProcessorScripts) == 0 {
		merged.PreProcessorScripts = append([]string(nil), other.PreProcessorScripts...)
	}
	if len(merged.PostProcessorScripts) == 0 {
		merged.PostProcessorScripts = append([]string(nil), other.PostProcessorScripts...)
	}
	for _, tag := range other.Tags {
		if !merged.HasTag(tag) {
			merged.Tags = append(merged.Tags, tag)
		}
	}
	for k, v := range other.Headers {
		if _, ok := merged.Headers[k]; !ok {
			if merged.Headers == nil {
				merged.Headers = map[string]string{}
			}
			merged.Headers[k] = v
		}
	}
	for k, v := range other.DatabaseConfigurations {
		if _, ok := merged.DatabaseConfigurations[k]; !ok {
			if merged.DatabaseConfigurations == nil {
				merged.DatabaseConfigurations = map[string]DatabaseConfig{}
			}
			merged.DatabaseConfigurations[k] = v
		}
	}
	return merged
}

func (c TestConfig) clone() TestConfig {
	out := c
	if c.Endpoint != nil {
		u := *c.Endpoint
		out.Endpoint = &u
	}
	out.PreProcessors = append([]string(nil), c.PreProcessors...)
	out.PostProcessors = append([]string(nil), c.PostProcessors...)
	out.PreProcessorScripts = append([]string(nil), c.PreProcessorScripts...)
	out.PostProcessorScripts = append([]string(nil), c.PostProcessorScripts...)
	out.Tags = append([]string(nil), c.Tags...)
	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			out.Headers[k] = v
		}
	}
	if c.DatabaseConfigurations != nil {
		out.DatabaseConfigurations = make(map[string]DatabaseConfig, len(c.DatabaseConfigurations))
		for k, v := range c.DatabaseConfigurations {
			out.DatabaseConfigurations[k] = v
		}
	}
	return out
}
