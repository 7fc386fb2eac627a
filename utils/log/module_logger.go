package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module names used with Named loggers.
const (
	ModuleResolve  = "resolve"
	ModuleDiscover = "discover"
	ModuleProcess  = "process"
	ModuleRun      = "run"
	ModuleReport   = "report"
	ModuleDatabase = "db"
	ModuleHTTP     = "http"
	ModuleHistory  = "history"
)

// ModuleLoggerFactory hands out named loggers whose debug output can be
// enabled per module.
type ModuleLoggerFactory struct {
	baseLogger  *zap.Logger
	globalDebug bool
	moduleDebug map[string]bool
}

func NewModuleLoggerFactory(baseLogger *zap.Logger, globalDebug bool, debugModules []string) *ModuleLoggerFactory {
	moduleDebug := make(map[string]bool, len(debugModules))
	for _, m := range debugModules {
		moduleDebug[m] = true
	}
	return &ModuleLoggerFactory{
		baseLogger:  baseLogger,
		globalDebug: globalDebug,
		moduleDebug: moduleDebug,
	}
}

// GetLogger returns a logger named after the module. Debug entries are
// dropped unless debug is on globally or for that module.
func (f *ModuleLoggerFactory) GetLogger(moduleName string) *zap.Logger {
	namedLogger := f.baseLogger.Named(moduleName)

	if f.IsDebugEnabled(moduleName) {
		return namedLogger
	}

	return namedLogger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &levelFilterCore{Core: core, minLevel: zapcore.InfoLevel}
	}))
}

func (f *ModuleLoggerFactory) IsDebugEnabled(moduleName string) bool {
	if f.globalDebug {
		return true
	}
	return f.moduleDebug[moduleName]
}

type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
}

func (c *levelFilterCore) Enabled(level zapcore.Level) bool {
	return level >= c.minLevel && c.Core.Enabled(level)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return c.Core.Check(entry, ce)
	}
	return ce
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{
		Core:     c.Core.With(fields),
		minLevel: c.minLevel,
	}
}
