package process

import (
	"context"

	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

// GenericBodyProcessor copies bodies byte for byte. Configured processors are ignored.
type GenericBodyProcessor struct {
	logger *zap.Logger
}

func NewGenericBodyProcessor(logger *zap.Logger) *GenericBodyProcessor {
	return &GenericBodyProcessor{logger: logger}
}

var _ BodyProcessor = (*GenericBodyProcessor)(nil)

func (p *GenericBodyProcessor) PreProcess(_ context.Context, in PreInput, cfg models.TestConfig) error {
	p.warnIgnored(cfg.PreProcessors, cfg.PreProcessorScripts)
	if data, found, err := readOptional(in.RequestPath); err != nil {
		return err
	} else if found && in.RequestOut != "" {
		if err := utils.WriteFile(in.RequestOut, data); err != nil {
			return err
		}
	}
	return copyFile(in.ResponsePath, in.ResponseOut)
}

func (p *GenericBodyProcessor) PostProcess(_ context.Context, in PostInput, cfg models.TestConfig) error {
	p.warnIgnored(cfg.PostProcessors, cfg.PostProcessorScripts)
	if in.ExpectedOut != "" && in.ExpectedOut != in.ExpectedPath {
		if err := copyFile(in.ExpectedPath, in.ExpectedOut); err != nil {
			return err
		}
	}
	return copyFile(in.ActualPath, in.ActualOut)
}

func (p *GenericBodyProcessor) warnIgnored(processors, scripts []string) {
	if len(processors) > 0 || len(scripts) > 0 {
		p.logger.Debug("processors are not applied to generic bodies",
			zap.Strings("processors", processors), zap.Strings("scripts", scripts))
	}
}

func copyFile(src, dst string) error {
	data, err := readRequired(src)
	if err != nil {
		return err
	}
	return utils.WriteFile(dst, data)
}
