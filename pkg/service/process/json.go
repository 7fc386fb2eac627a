package process

import (
	"context"

	jsonmatcher "go.squit.io/squit/pkg/matcher/json"
	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

type JSONBodyProcessor struct {
	logger  *zap.Logger
	engine  ScriptEngine
	matcher *jsonmatcher.Matcher
}

func NewJSONBodyProcessor(logger *zap.Logger, engine ScriptEngine, m *jsonmatcher.Matcher) *JSONBodyProcessor {
	return &JSONBodyProcessor{logger: logger, engine: engine, matcher: m}
}

var _ BodyProcessor = (*JSONBodyProcessor)(nil)

func (p *JSONBodyProcessor) PreProcess(ctx context.Context, in PreInput, cfg models.TestConfig) error {
	var request *JSONDocument
	if data, found, err := readOptional(in.RequestPath); err != nil {
		return err
	} else if found {
		if request, err = parseJSON(data, in.RequestPath); err != nil {
			return err
		}
	}
	data, err := readRequired(in.ResponsePath)
	if err != nil {
		return err
	}
	response, err := parseJSON(data, in.ResponsePath)
	if err != nil {
		return err
	}

	err = runTyped(p.logger, in.ResponsePath, cfg.PreProcessors, func(c JSONPreProcessor) error {
		return c.PreProcessJSON(request, response, cfg)
	})
	if err != nil {
		return err
	}

	bindings, err := runScripts(ctx, p.engine, cfg.PreProcessorScripts, Bindings{
		BindingRequest:          jsonValue(request),
		BindingExpectedResponse: response.Value,
		BindingConfig:           cfg,
	})
	if err != nil {
		return err
	}
	if request != nil {
		request.Value = bindings[BindingRequest]
	}
	response.Value = bindings[BindingExpectedResponse]

	if request != nil && in.RequestOut != "" {
		if err := p.persist(request, in.RequestOut); err != nil {
			return err
		}
	}
	return p.persist(response, in.ResponseOut)
}

func (p *JSONBodyProcessor) PostProcess(ctx context.Context, in PostInput, cfg models.TestConfig) error {
	data, err := readRequired(in.ActualPath)
	if err != nil {
		return err
	}
	actual, err := parseJSON(data, in.ActualPath)
	if err != nil {
		return err
	}
	if data, err = readRequired(in.ExpectedPath); err != nil {
		return err
	}
	expected, err := parseJSON(data, in.ExpectedPath)
	if err != nil {
		return err
	}

	err = runTyped(p.logger, in.ActualPath, cfg.PostProcessors, func(c JSONPostProcessor) error {
		return c.PostProcessJSON(actual, expected, cfg)
	})
	if err != nil {
		return err
	}

	bindings, err := runScripts(ctx, p.engine, cfg.PostProcessorScripts, Bindings{
		BindingActualResponse:   actual.Value,
		BindingExpectedResponse: expected.Value,
		BindingConfig:           cfg,
	})
	if err != nil {
		return err
	}
	actual.Value = bindings[BindingActualResponse]
	expected.Value = bindings[BindingExpectedResponse]

	if in.ExpectedOut != "" {
		if err := p.persist(expected, in.ExpectedOut); err != nil {
			return err
		}
	}
	return p.persist(actual, in.ActualOut)
}

func (p *JSONBodyProcessor) persist(doc *JSONDocument, path string) error {
	raw, err := jsonmatcher.Encode(doc.Value)
	if err != nil {
		return &models.ParseError{Path: path, Err: err}
	}
	out, err := p.matcher.Canonicalize(string(raw), path)
	if err != nil {
		return err
	}
	return utils.WriteFile(path, []byte(out))
}

func parseJSON(data []byte, path string) (*JSONDocument, error) {
	v, err := jsonmatcher.Parse(data)
	if err != nil {
		return nil, &models.ParseError{Path: path, Err: err}
	}
	return &JSONDocument{Value: v}, nil
}

func jsonValue(doc *JSONDocument) any {
	if doc == nil {
		return nil
	}
	return doc.Value
}
