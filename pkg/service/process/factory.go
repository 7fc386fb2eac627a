package process

import (
	"go.squit.io/squit/pkg/matcher"
	"go.squit.io/squit/pkg/matcher/generic"
	jsonmatcher "go.squit.io/squit/pkg/matcher/json"
	xmlmatcher "go.squit.io/squit/pkg/matcher/xml"
	"go.squit.io/squit/pkg/models"
	"go.uber.org/zap"
)

// Factory hands out the body processor and matcher of a media type family.
type Factory struct {
	xml     *XMLBodyProcessor
	json    *JSONBodyProcessor
	generic *GenericBodyProcessor

	xmlMatcher     *xmlmatcher.Matcher
	jsonMatcher    *jsonmatcher.Matcher
	genericMatcher *generic.Matcher
}

func NewFactory(logger *zap.Logger, engine ScriptEngine, opts matcher.Options) *Factory {
	xm := xmlmatcher.New(opts)
	jm := jsonmatcher.New(opts)
	return &Factory{
		xml:            NewXMLBodyProcessor(logger, engine, xm),
		json:           NewJSONBodyProcessor(logger, engine, jm),
		generic:        NewGenericBodyProcessor(logger),
		xmlMatcher:     xm,
		jsonMatcher:    jm,
		genericMatcher: generic.New(),
	}
}

func (f *Factory) BodyProcessor(mt models.MediaType) BodyProcessor {
	switch mt.Family() {
	case models.FamilyXML:
		return f.xml
	case models.FamilyJSON:
		return f.json
	default:
		return f.generic
	}
}

func (f *Factory) Matcher(mt models.MediaType) matcher.Matcher {
	switch mt.Family() {
	case models.FamilyXML:
		return f.xmlMatcher
	case models.FamilyJSON:
		return f.jsonMatcher
	default:
		return f.genericMatcher
	}
}
