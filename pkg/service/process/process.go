package process

import (
	"context"
	"errors"
	"fmt"

	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

var errNoScriptEngine = errors.New("processor scripts are configured but no script engine is available")

// runTyped applies every processor named in ids that implements capability C.
// Processors without the capability are skipped.
func runTyped[C any](logger *zap.Logger, source string, ids []string, apply func(C) error) error {
	for _, id := range ids {
		proc, err := Lookup(id)
		if err != nil {
			return &models.ConfigError{Path: source, Msg: "cannot run processor", Err: err}
		}
		c, ok := proc.(C)
		if !ok {
			logger.Debug("skipping processor without capability for media type", zap.String("processor", id))
			continue
		}
		if err := apply(c); err != nil {
			return fmt.Errorf("processor %s failed for %s: %w", id, source, err)
		}
	}
	return nil
}

// runScripts runs every script in order, feeding the bindings each script
// returned into the next one.
func runScripts(ctx context.Context, engine ScriptEngine, scripts []string, bindings Bindings) (Bindings, error) {
	if len(scripts) == 0 {
		return bindings, nil
	}
	if engine == nil {
		return nil, errNoScriptEngine
	}
	for _, script := range scripts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		updated, err := engine.Run(ctx, script, bindings)
		if err != nil {
			return nil, err
		}
		for name, value := range updated {
			if name == BindingConfig {
				continue
			}
			if _, known := bindings[name]; known {
				bindings[name] = value
			}
		}
	}
	return bindings, nil
}

func readRequired(path string) ([]byte, error) {
	data, found, err := utils.ReadFileIfExists(path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("required file %s does not exist", path)
	}
	return data, nil
}

// readOptional returns nil without error when path is empty or missing.
func readOptional(path string) ([]byte, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	return utils.ReadFileIfExists(path)
}
