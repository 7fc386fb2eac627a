package resolve

import (
	"net/url"

	"go.squit.io/squit/pkg/models"
)

// Builder folds configuration layers, shallowest first, into one TestConfig.
// Scalars take the deepest explicit value, lists append, maps let deeper keys
// overwrite shallower ones.
type Builder struct {
	acc models.TestConfig
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add folds layer on top of everything added before. A nil layer is a no-op.
func (b *Builder) Add(layer *models.ConfigLayer) *Builder {
	if layer == nil {
		return b
	}
	if layer.Endpoint != nil {
		u := *layer.Endpoint
		b.acc.Endpoint = &u
	}
	if layer.MediaType != nil {
		b.acc.MediaType = *layer.MediaType
	}
	if layer.Method != nil {
		b.acc.Method = *layer.Method
	}
	if layer.Title != nil {
		b.acc.Title = *layer.Title
	}
	if layer.ExpectedResponseCode != nil {
		b.acc.ExpectedResponseCode = *layer.ExpectedResponseCode
	}
	if layer.Exclude != nil {
		b.acc.Exclude = *layer.Exclude
	}
	if layer.Ignore != nil {
		b.acc.Ignore = *layer.Ignore
	}

	b.acc.PreProcessors = append(b.acc.PreProcessors, layer.PreProcessors...)
	b.acc.PostProcessors = append(b.acc.PostProcessors, layer.PostProcessors...)
	b.acc.PreProcessorScripts = append(b.acc.PreProcessorScripts, layer.PreProcessorScripts...)
	b.acc.PostProcessorScripts = append(b.acc.PostProcessorScripts, layer.PostProcessorScripts...)
	b.addTags(layer.Tags...)

	for k, v := range layer.Headers {
		if b.acc.Headers == nil {
			b.acc.Headers = map[string]string{}
		}
		b.acc.Headers[k] = v
	}
	for k, v := range layer.DatabaseConfigurations {
		if b.acc.DatabaseConfigurations == nil {
			b.acc.DatabaseConfigurations = map[string]models.DatabaseConfig{}
		}
		b.acc.DatabaseConfigurations[k] = v
	}
	return b
}

func (b *Builder) addTags(tags ...string) {
	for _, tag := range tags {
		if !b.acc.HasTag(tag) {
			b.acc.Tags = append(b.acc.Tags, tag)
		}
	}
}

// Build returns the folded configuration. The leaf directory name becomes an
// implicit tag. The Builder can keep accepting layers afterwards.
func (b *Builder) Build(leafName string) models.TestConfig {
	out := models.TestConfig{}.MergeWith(b.acc)
	if leafName != "" && !out.HasTag(leafName) {
		out.Tags = append(out.Tags, leafName)
	}
	return out
}

// Validate checks the fields a runnable test needs. path names the fixture in the error.
func Validate(cfg models.TestConfig, path string) error {
	var messages []string
	if cfg.Endpoint == nil {
		messages = append(messages, "endpoint property is missing")
	} else if !isHTTP(cfg.Endpoint) {
		messages = append(messages, "endpoint must use http or https")
	}
	if code := cfg.ExpectedResponseCode; code != 0 && (code < 100 || code > 599) {
		messages = append(messages, "expectedResponseCode must be between 100 and 599")
	}
	if len(messages) > 0 {
		return &models.ValidationError{Path: path, Messages: messages}
	}
	return nil
}

func isHTTP(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}
