package models

import "net/url"

// ConfigLayer is the unmerged configuration found in a single directory.
// A nil pointer or nil collection means the layer does not set the field.
type ConfigLayer struct {
	Dir                    string
	Endpoint               *url.URL
	MediaType              *MediaType
	Method                 *string
	Title                  *string
	ExpectedResponseCode   *int
	Exclude                *bool
	Ignore                 *bool
	Headers                map[string]string
	PreProcessors          []string
	PostProcessors         []string
	PreProcessorScripts    []string
	PostProcessorScripts   []string
	Tags                   []string
	DatabaseConfigurations map[string]DatabaseConfig
}
