// Package provider wires the squit services for the cli commands.
package provider

import (
	"context"
	"errors"

	"go.squit.io/squit/config"
	"go.squit.io/squit/pkg/matcher"
	"go.squit.io/squit/pkg/platform/db"
	"go.squit.io/squit/pkg/platform/history"
	"go.squit.io/squit/pkg/platform/http"
	"go.squit.io/squit/pkg/service/discover"
	"go.squit.io/squit/pkg/service/process"
	"go.squit.io/squit/pkg/service/report"
	"go.squit.io/squit/pkg/service/resolve"
	"go.squit.io/squit/pkg/service/run"
	"go.squit.io/squit/utils/log"
	"go.uber.org/zap"
)

type ServiceProvider struct {
	logger *zap.Logger
	cfg    *config.Config
}

func NewServiceProvider(logger *zap.Logger, cfg *config.Config) *ServiceProvider {
	return &ServiceProvider{logger: logger, cfg: cfg}
}

// TestServices is everything a test run needs. Close releases the database
// connections and the result history.
type TestServices struct {
	Runner    run.Service
	Transport run.Transport
	Report    report.Service

	closers []func() error
}

func (t *TestServices) Close() error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		errs = append(errs, t.closers[i]())
	}
	return errors.Join(errs...)
}

func (n *ServiceProvider) GetService(_ context.Context, cmd string) (interface{}, error) {
	loggers := log.NewModuleLoggerFactory(n.logger, n.cfg.Debug, n.cfg.DebugModules)
	switch cmd {
	case "test":
		return n.testServices(loggers)
	case "list":
		return n.runner(loggers, nil, nil), nil
	case "report":
		return report.New(loggers.GetLogger(log.ModuleReport), n.cfg), nil
	case "flaky":
		return history.Open(loggers.GetLogger(log.ModuleHistory), n.cfg.HistoryPath())
	default:
		return nil, errors.New("invalid command")
	}
}

func (n *ServiceProvider) testServices(loggers *log.ModuleLoggerFactory) (*TestServices, error) {
	pool := db.NewPool(loggers.GetLogger(log.ModuleDatabase))
	svc := &TestServices{
		Transport: http.New(loggers.GetLogger(log.ModuleHTTP), n.cfg.Test.Timeout, n.cfg.Test.Retries),
		Report:    report.New(loggers.GetLogger(log.ModuleReport), n.cfg),
		closers:   []func() error{pool.Close},
	}

	var recorder run.Recorder
	if n.cfg.History.Enabled {
		store, err := history.Open(loggers.GetLogger(log.ModuleHistory), n.cfg.HistoryPath())
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		recorder = store
		svc.closers = append(svc.closers, store.Close)
	}

	svc.Runner = n.runner(loggers, pool, recorder)
	return svc, nil
}

func (n *ServiceProvider) runner(loggers *log.ModuleLoggerFactory, pool run.DatabasePool, recorder run.Recorder) *run.Runner {
	processLogger := loggers.GetLogger(log.ModuleProcess)
	engine := process.NewSubprocessEngine(processLogger, n.cfg.Test.ScriptInterpreter)
	factory := process.NewFactory(processLogger, engine, matcher.Options{
		CanonicalizeJSON:     n.cfg.Test.CanonicalizeJSON,
		CanonicalizeXML:      n.cfg.Test.CanonicalizeXML,
		XMLStrict:            n.cfg.Test.XMLStrict,
		JSONIgnoreArrayOrder: n.cfg.Test.JSONIgnoreArrayOrder,
	})
	return run.New(
		loggers.GetLogger(log.ModuleRun),
		n.cfg,
		discover.New(loggers.GetLogger(log.ModuleDiscover)),
		resolve.New(loggers.GetLogger(log.ModuleResolve), n.cfg.Variables, process.IsRegistered),
		factory,
		pool,
		recorder,
	)
}
