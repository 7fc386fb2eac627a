package process

import (
	"regexp"

	"github.com/beevik/etree"
	"go.squit.io/squit/pkg/models"
)

const (
	TimestampNeutralizerID = "TimestampNeutralizer"
	// TimestampToken replaces every neutralized timestamp.
	TimestampToken = "{{timestamp}}"
)

var isoTimestamp = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`)

// TimestampNeutralizer replaces ISO-8601 timestamps in text, attribute values
// and JSON strings with TimestampToken, in both documents it is handed.
type TimestampNeutralizer struct{}

var (
	_ XMLPreProcessor   = (*TimestampNeutralizer)(nil)
	_ JSONPreProcessor  = (*TimestampNeutralizer)(nil)
	_ XMLPostProcessor  = (*TimestampNeutralizer)(nil)
	_ JSONPostProcessor = (*TimestampNeutralizer)(nil)
)

func (t *TimestampNeutralizer) ID() string { return TimestampNeutralizerID }

func (t *TimestampNeutralizer) PreProcessXML(request, response *etree.Document, _ models.TestConfig) error {
	neutralizeXML(request)
	neutralizeXML(response)
	return nil
}

func (t *TimestampNeutralizer) PostProcessXML(actual, expected *etree.Document, _ models.TestConfig) error {
	neutralizeXML(actual)
	neutralizeXML(expected)
	return nil
}

func (t *TimestampNeutralizer) PreProcessJSON(request, response *JSONDocument, _ models.TestConfig) error {
	neutralizeJSON(request)
	neutralizeJSON(response)
	return nil
}

func (t *TimestampNeutralizer) PostProcessJSON(actual, expected *JSONDocument, _ models.TestConfig) error {
	neutralizeJSON(actual)
	neutralizeJSON(expected)
	return nil
}

func neutralizeXML(doc *etree.Document) {
	if doc == nil || doc.Root() == nil {
		return
	}
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for i := range e.Attr {
			e.Attr[i].Value = isoTimestamp.ReplaceAllString(e.Attr[i].Value, TimestampToken)
		}
		for _, t := range e.Child {
			switch c := t.(type) {
			case *etree.CharData:
				c.Data = isoTimestamp.ReplaceAllString(c.Data, TimestampToken)
			case *etree.Element:
				walk(c)
			}
		}
	}
	walk(doc.Root())
}

func neutralizeJSON(doc *JSONDocument) {
	if doc == nil {
		return
	}
	doc.Value = neutralizeValue(doc.Value)
}

func neutralizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return isoTimestamp.ReplaceAllString(t, TimestampToken)
	case map[string]any:
		for k, child := range t {
			t[k] = neutralizeValue(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = neutralizeValue(child)
		}
		return t
	default:
		return v
	}
}
