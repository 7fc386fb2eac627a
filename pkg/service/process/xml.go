package process

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	xmlmatcher "go.squit.io/squit/pkg/matcher/xml"
	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

type XMLBodyProcessor struct {
	logger  *zap.Logger
	engine  ScriptEngine
	matcher *xmlmatcher.Matcher
}

func NewXMLBodyProcessor(logger *zap.Logger, engine ScriptEngine, m *xmlmatcher.Matcher) *XMLBodyProcessor {
	return &XMLBodyProcessor{logger: logger, engine: engine, matcher: m}
}

var _ BodyProcessor = (*XMLBodyProcessor)(nil)

func (p *XMLBodyProcessor) PreProcess(ctx context.Context, in PreInput, cfg models.TestConfig) error {
	var request *etree.Document
	if data, found, err := readOptional(in.RequestPath); err != nil {
		return err
	} else if found {
		if request, err = parseXML(data, in.RequestPath); err != nil {
			return err
		}
	}
	data, err := readRequired(in.ResponsePath)
	if err != nil {
		return err
	}
	response, err := parseXML(data, in.ResponsePath)
	if err != nil {
		return err
	}

	err = runTyped(p.logger, in.ResponsePath, cfg.PreProcessors, func(c XMLPreProcessor) error {
		return c.PreProcessXML(request, response, cfg)
	})
	if err != nil {
		return err
	}

	bindings, err := runScripts(ctx, p.engine, cfg.PreProcessorScripts, Bindings{
		BindingRequest:          xmlString(request),
		BindingExpectedResponse: xmlString(response),
		BindingConfig:           cfg,
	})
	if err != nil {
		return err
	}
	if request, err = fromBinding(request, bindings[BindingRequest], in.RequestPath); err != nil {
		return err
	}
	if response, err = fromBinding(response, bindings[BindingExpectedResponse], in.ResponsePath); err != nil {
		return err
	}

	if request != nil && in.RequestOut != "" {
		if err := p.persist(request, in.RequestOut); err != nil {
			return err
		}
	}
	return p.persist(response, in.ResponseOut)
}

func (p *XMLBodyProcessor) PostProcess(ctx context.Context, in PostInput, cfg models.TestConfig) error {
	data, err := readRequired(in.ActualPath)
	if err != nil {
		return err
	}
	actual, err := parseXML(data, in.ActualPath)
	if err != nil {
		return err
	}
	if data, err = readRequired(in.ExpectedPath); err != nil {
		return err
	}
	expected, err := parseXML(data, in.ExpectedPath)
	if err != nil {
		return err
	}

	err = runTyped(p.logger, in.ActualPath, cfg.PostProcessors, func(c XMLPostProcessor) error {
		return c.PostProcessXML(actual, expected, cfg)
	})
	if err != nil {
		return err
	}

	bindings, err := runScripts(ctx, p.engine, cfg.PostProcessorScripts, Bindings{
		BindingActualResponse:   xmlString(actual),
		BindingExpectedResponse: xmlString(expected),
		BindingConfig:           cfg,
	})
	if err != nil {
		return err
	}
	if actual, err = fromBinding(actual, bindings[BindingActualResponse], in.ActualPath); err != nil {
		return err
	}
	if expected, err = fromBinding(expected, bindings[BindingExpectedResponse], in.ExpectedPath); err != nil {
		return err
	}

	if in.ExpectedOut != "" {
		if err := p.persist(expected, in.ExpectedOut); err != nil {
			return err
		}
	}
	return p.persist(actual, in.ActualOut)
}

func (p *XMLBodyProcessor) persist(doc *etree.Document, path string) error {
	raw, err := doc.WriteToString()
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}
	out, err := p.matcher.Canonicalize(raw, path)
	if err != nil {
		return err
	}
	return utils.WriteFile(path, []byte(out))
}

func parseXML(data []byte, path string) (*etree.Document, error) {
	doc, err := xmlmatcher.Parse(data)
	if err != nil {
		return nil, &models.ParseError{Path: path, Err: err}
	}
	return doc, nil
}

func xmlString(doc *etree.Document) any {
	if doc == nil {
		return nil
	}
	s, err := doc.WriteToString()
	if err != nil {
		return nil
	}
	return s
}

// fromBinding re-parses a document a script handed back as a string.
func fromBinding(doc *etree.Document, value any, path string) (*etree.Document, error) {
	s, ok := value.(string)
	if !ok || doc == nil {
		return doc, nil
	}
	return parseXML([]byte(s), path)
}
