package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"time"

	"go.squit.io/squit/config"
	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/pkg/platform/db"
	"go.squit.io/squit/pkg/service/discover"
	"go.squit.io/squit/pkg/service/process"
	"go.squit.io/squit/pkg/service/resolve"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Runner struct {
	logger     *zap.Logger
	config     *config.Config
	discoverer discover.Service
	resolver   resolve.Service
	factory    *process.Factory
	pool       DatabasePool
	recorder   Recorder
}

// New creates a Runner. pool and recorder may be nil when no fixture uses
// databases or no history is kept.
func New(logger *zap.Logger, cfg *config.Config, discoverer discover.Service, resolver resolve.Service, factory *process.Factory, pool DatabasePool, recorder Recorder) *Runner {
	return &Runner{
		logger:     logger,
		config:     cfg,
		discoverer: discoverer,
		resolver:   resolver,
		factory:    factory,
		pool:       pool,
		recorder:   recorder,
	}
}

var _ Service = (*Runner)(nil)

func (r *Runner) ResolveFixtures(ctx context.Context, root string) ([]models.TestFixture, error) {
	if _, err := r.resolver.Layer(root); err != nil {
		utils.LogError(r.logger, err, "invalid root configuration")
		return nil, err
	}
	leaves, err := r.discoverer.Leaves(ctx, root)
	if err != nil {
		utils.LogError(r.logger, err, "failed to discover fixtures", zap.String("root", root))
		return nil, err
	}

	fixtures := make([]models.TestFixture, 0, len(leaves))
	for _, leaf := range leaves {
		rel, err := filepath.Rel(root, leaf)
		if err != nil {
			return nil, err
		}
		if rel == "." {
			rel = filepath.Base(leaf)
		}
		fixture := models.TestFixture{Path: filepath.ToSlash(rel), Dir: leaf}
		cfg, err := r.resolver.Resolve(ctx, root, leaf)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			// Only the directory name tag is known without a resolved configuration.
			if !r.selected(models.TestConfig{Tags: []string{filepath.Base(leaf)}}) {
				r.logger.Debug("skipping unresolved fixture without selected tags", zap.String("fixture", fixture.Path), zap.Error(err))
				continue
			}
			r.logger.Warn("failed to resolve fixture", zap.String("fixture", fixture.Path), zap.Error(err))
			fixture.Err = err
			fixtures = append(fixtures, fixture)
			continue
		}
		fixture.Config = cfg

		if cfg.Exclude {
			r.logger.Debug("skipping excluded fixture", zap.String("fixture", fixture.Path))
			continue
		}
		if !r.selected(cfg) {
			r.logger.Debug("skipping fixture without selected tags", zap.String("fixture", fixture.Path))
			continue
		}
		fixtures = append(fixtures, fixture)
	}
	return fixtures, nil
}

func (r *Runner) selected(cfg models.TestConfig) bool {
	if len(r.config.Tags) == 0 {
		return true
	}
	for _, tag := range r.config.Tags {
		if cfg.HasTag(tag) {
			return true
		}
	}
	return false
}

func (r *Runner) Run(ctx context.Context, transport Transport) (*Summary, error) {
	start := time.Now()
	fixtures, err := r.ResolveFixtures(ctx, r.config.Path)
	if err != nil {
		return nil, err
	}
	r.logger.Info("running fixtures", zap.Int("count", len(fixtures)), zap.String("root", r.config.Path))

	results := make([]models.SquitResult, len(fixtures))
	g := &errgroup.Group{}
	g.SetLimit(r.parallelism())
	for i, fixture := range fixtures {
		i, fixture := i, fixture
		g.Go(func() error {
			res := r.RunFixture(ctx, fixture, transport)
			res.ID = i + 1
			results[i] = res
			r.record(ctx, res)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Summary{
		Results:        results,
		Duration:       time.Since(start),
		IgnoreFailures: r.config.IgnoreFailures,
	}, nil
}

func (r *Runner) parallelism() int {
	if r.config.Parallelism > 0 {
		return r.config.Parallelism
	}
	return runtime.NumCPU()
}

func (r *Runner) record(ctx context.Context, res models.SquitResult) {
	if r.recorder == nil || res.Ignored {
		return
	}
	if err := r.recorder.RecordResult(ctx, res.FullPath(), res.IsSuccess()); err != nil {
		r.logger.Warn("failed to record result history", zap.String("fixture", res.FullPath()), zap.Error(err))
	}
}

func (r *Runner) RunFixture(ctx context.Context, fixture models.TestFixture, transport Transport) models.SquitResult {
	start := time.Now()
	res := models.SquitResult{
		SuitePath: suitePath(fixture.Path),
		TestPath:  path.Base(fixture.Path),
		Title:     fixture.Config.Title,
		Ignored:   fixture.Config.Ignore,
		MediaType: fixture.Config.EffectiveMediaType(),
		Tags:      fixture.Config.Tags,
	}
	if code := fixture.Config.ExpectedResponseCode; code != 0 {
		res.ExpectedResponseInfo = &models.ResponseInfo{ResponseCode: code}
	}

	err := r.execute(ctx, fixture, transport, &res)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = true
		res.Diff = fmt.Sprintf("test %s: %v", fixture.Path, err)
		r.logger.Error("fixture errored", zap.String("fixture", fixture.Path), zap.Error(err))
		return res
	}
	r.logger.Info("fixture finished", zap.String("fixture", fixture.Path), zap.String("status", string(res.Status())))
	return res
}

// layout holds the build files of one fixture.
type layout struct {
	request, expected             string
	rawActual, rawInfo            string
	processedActual, processedExp string
}

func (r *Runner) layout(fixture models.TestFixture) layout {
	mt := fixture.Config.EffectiveMediaType()
	rel := filepath.FromSlash(fixture.Path)
	sources := filepath.Join(r.config.SourcesPath(), rel)
	raw := filepath.Join(r.config.RawResponsesPath(), rel)
	processed := filepath.Join(r.config.ProcessedResponsesPath(), rel)
	return layout{
		request:         filepath.Join(sources, mt.FileName(models.RequestFileName)),
		expected:        filepath.Join(sources, mt.FileName(models.ExpectedResponseFileName)),
		rawActual:       filepath.Join(raw, mt.FileName(models.ActualResponseFileName)),
		rawInfo:         filepath.Join(raw, models.ActualResponseInfoFile),
		processedActual: filepath.Join(processed, mt.FileName(models.ActualResponseFileName)),
		processedExp:    filepath.Join(processed, mt.FileName(models.ExpectedResponseFileName)),
	}
}

func (r *Runner) execute(ctx context.Context, fixture models.TestFixture, transport Transport, res *models.SquitResult) (err error) {
	if fixture.Err != nil {
		return fixture.Err
	}
	cfg := fixture.Config
	mt := cfg.EffectiveMediaType()
	files := r.layout(fixture)
	bp := r.factory.BodyProcessor(mt)

	err = bp.PreProcess(ctx, process.PreInput{
		RequestPath:  fixture.RequestPath(),
		ResponsePath: fixture.ResponsePath(),
		RequestOut:   files.request,
		ResponseOut:  files.expected,
	}, cfg)
	if err != nil {
		return err
	}

	if len(cfg.DatabaseConfigurations) > 0 {
		if r.pool == nil {
			return errors.New("fixture configures databases but no connection pool is available")
		}
		if err := r.pool.RunFixtureScripts(ctx, fixture, db.PhasePre); err != nil {
			return err
		}
		defer func() {
			if postErr := r.pool.RunFixtureScripts(ctx, fixture, db.PhasePost); postErr != nil {
				err = errors.Join(err, postErr)
			}
		}()
	}

	body, _, err := utils.ReadFileIfExists(files.request)
	if err != nil {
		return err
	}
	endpoint := cfg.Endpoint.String()
	resp, err := transport.Do(ctx, models.HTTPRequest{
		Method:    cfg.EffectiveMethod(),
		URL:       endpoint,
		Headers:   cfg.Headers,
		Body:      body,
		MediaType: mt,
	})
	if err != nil {
		return &models.TransportError{Path: fixture.Path, Endpoint: endpoint, Err: err}
	}

	info := models.ResponseInfo{ResponseCode: resp.StatusCode}
	res.ActualResponseInfo = &info
	if err := utils.WriteFile(files.rawActual, resp.Body); err != nil {
		return err
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return err
	}
	if err := utils.WriteFile(files.rawInfo, infoJSON); err != nil {
		return err
	}

	err = bp.PostProcess(ctx, process.PostInput{
		ActualPath:   files.rawActual,
		ExpectedPath: files.expected,
		ActualOut:    files.processedActual,
		ExpectedOut:  files.processedExp,
	}, cfg)
	if err != nil {
		return err
	}

	expected, err := os.ReadFile(files.processedExp)
	if err != nil {
		return err
	}
	actual, err := os.ReadFile(files.processedActual)
	if err != nil {
		return err
	}
	diff, err := r.factory.Matcher(mt).Diff(expected, actual)
	if err != nil {
		return &models.ParseError{Path: files.processedActual, Err: err}
	}
	if exp := res.ExpectedResponseInfo; exp != nil && exp.ResponseCode != info.ResponseCode {
		line := fmt.Sprintf("Expected response code %d but was %d", exp.ResponseCode, info.ResponseCode)
		if diff == "" {
			diff = line
		} else {
			diff = diff + "\n" + line
		}
	}

	res.Diff = diff
	res.ExpectedBody = string(expected)
	res.ActualBody = string(actual)
	return nil
}

func suitePath(fixturePath string) string {
	dir := path.Dir(fixturePath)
	if dir == "." {
		return ""
	}
	return dir
}
