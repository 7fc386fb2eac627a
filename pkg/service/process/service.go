// Package process runs the configured processors over request and response
// bodies before the request is sent and after the response arrived.
package process

import (
	"context"

	"github.com/beevik/etree"
	"go.squit.io/squit/pkg/models"
)

// PreInput names the files read and written by pre-processing. RequestPath is
// optional; a missing request file is not an error.
type PreInput struct {
	RequestPath  string
	ResponsePath string
	RequestOut   string
	ResponseOut  string
}

// PostInput names the files read and written by post-processing. ExpectedOut
// is optional and receives the expected response when processors touched it.
type PostInput struct {
	ActualPath   string
	ExpectedPath string
	ActualOut    string
	ExpectedOut  string
}

type BodyProcessor interface {
	PreProcess(ctx context.Context, in PreInput, cfg models.TestConfig) error
	PostProcess(ctx context.Context, in PostInput, cfg models.TestConfig) error
}

// Processor is a typed processor. It implements at least one of the capability
// interfaces below and is skipped for media types it has no capability for.
type Processor interface {
	ID() string
}

// JSONDocument holds a decoded JSON body. Processors may replace Value.
type JSONDocument struct {
	Value any
}

// XMLPreProcessor mutates the request and the expected response before the
// request is sent. request is nil when the fixture has no request file.
type XMLPreProcessor interface {
	PreProcessXML(request, response *etree.Document, cfg models.TestConfig) error
}

type JSONPreProcessor interface {
	PreProcessJSON(request, response *JSONDocument, cfg models.TestConfig) error
}

// XMLPostProcessor mutates the actual and the expected response before they are compared.
type XMLPostProcessor interface {
	PostProcessXML(actual, expected *etree.Document, cfg models.TestConfig) error
}

type JSONPostProcessor interface {
	PostProcessJSON(actual, expected *JSONDocument, cfg models.TestConfig) error
}
