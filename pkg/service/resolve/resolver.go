package resolve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/utils"
	"go.uber.org/zap"
)

type Resolver struct {
	logger *zap.Logger
	vars   map[string]string
	known  ProcessorLookup

	mu     sync.Mutex
	layers map[string]*models.ConfigLayer
}

// New creates a Resolver substituting vars into every layer. known validates
// processor identifiers; nil accepts any identifier.
func New(logger *zap.Logger, vars map[string]string, known ProcessorLookup) *Resolver {
	return &Resolver{
		logger: logger,
		vars:   vars,
		known:  known,
		layers: map[string]*models.ConfigLayer{},
	}
}

var _ Service = (*Resolver)(nil)

// Layer reads and caches the layer of dir. A directory without a layer file yields an empty layer.
func (r *Resolver) Layer(dir string) (*models.ConfigLayer, error) {
	dir = filepath.Clean(dir)

	r.mu.Lock()
	if layer, ok := r.layers[dir]; ok {
		r.mu.Unlock()
		return layer, nil
	}
	r.mu.Unlock()

	path := filepath.Join(dir, models.ConfigFileName)
	data, found, err := utils.ReadFileIfExists(path)
	if err != nil {
		return nil, &models.ConfigError{Path: path, Msg: "failed to read layer", Err: err}
	}

	layer := &models.ConfigLayer{Dir: dir}
	if found {
		layer, err = ParseLayer(r.logger, dir, path, data, r.vars)
		if err != nil {
			return nil, err
		}
		if err := r.checkProcessors(path, layer); err != nil {
			return nil, err
		}
		r.logger.Debug("read configuration layer", zap.String("path", path))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.layers[dir]; ok {
		return cached, nil
	}
	r.layers[dir] = layer
	return layer, nil
}

func (r *Resolver) checkProcessors(path string, layer *models.ConfigLayer) error {
	if r.known == nil {
		return nil
	}
	for _, id := range append(append([]string{}, layer.PreProcessors...), layer.PostProcessors...) {
		if !r.known(id) {
			return &models.ConfigError{Path: path, Msg: fmt.Sprintf("unknown processor %q", id)}
		}
	}
	for _, script := range append(append([]string{}, layer.PreProcessorScripts...), layer.PostProcessorScripts...) {
		if _, err := os.Stat(script); err != nil {
			return &models.ConfigError{Path: path, Msg: fmt.Sprintf("processor script %s is not readable", script), Err: err}
		}
	}
	return nil
}

// Resolve folds the layers of every directory from root down to leaf and validates the result.
func (r *Resolver) Resolve(ctx context.Context, root, leaf string) (models.TestConfig, error) {
	dirs, rel, err := chain(root, leaf)
	if err != nil {
		return models.TestConfig{}, err
	}

	b := NewBuilder()
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return models.TestConfig{}, err
		}
		layer, err := r.Layer(dir)
		if err != nil {
			return models.TestConfig{}, err
		}
		b.Add(layer)
	}

	cfg := b.Build(filepath.Base(filepath.Clean(leaf)))
	if err := Validate(cfg, rel); err != nil {
		return models.TestConfig{}, err
	}
	return cfg, nil
}

// chain lists root and every directory below it down to leaf, root first.
func chain(root, leaf string) ([]string, string, error) {
	root, leaf = filepath.Clean(root), filepath.Clean(leaf)
	rel, err := filepath.Rel(root, leaf)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, "", fmt.Errorf("%s is not below %s", leaf, root)
	}

	dirs := []string{root}
	if rel == "." {
		return dirs, ".", nil
	}
	current := root
	for _, segment := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, segment)
		dirs = append(dirs, current)
	}
	return dirs, filepath.ToSlash(rel), nil
}
