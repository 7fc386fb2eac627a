// Package report aggregates run results into a tree, persists them and renders
// them for the terminal.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"go.squit.io/squit/config"
	"go.squit.io/squit/pkg/models"
	"go.uber.org/zap"
)

type Service interface {
	// Generate persists the results of a run and prints the summary.
	Generate(ctx context.Context, results []models.SquitResult, duration time.Duration) (*File, error)
	// Render prints the failures recorded in an existing result file.
	Render(ctx context.Context, path string) error
}

type Report struct {
	logger *zap.Logger
	config *config.Config
	out    io.Writer
}

func New(logger *zap.Logger, cfg *config.Config) *Report {
	return NewWithWriter(logger, cfg, os.Stdout)
}

// NewWithWriter creates a Report printing to out.
func NewWithWriter(logger *zap.Logger, cfg *config.Config, out io.Writer) *Report {
	if cfg.DisableANSI {
		color.NoColor = true
	}
	return &Report{logger: logger, config: cfg, out: out}
}

var _ Service = (*Report)(nil)

func (r *Report) Generate(_ context.Context, results []models.SquitResult, duration time.Duration) (*File, error) {
	f := NewFile(results, duration)

	path, err := Write(f, r.config.ReportPath(), r.config.Report.Format)
	if err != nil {
		r.logger.Error("failed to write result file", zap.Error(err))
		return nil, err
	}
	r.logger.Info("result file written", zap.String("path", path), zap.String("run_id", f.ID))

	PrintSummary(r.out, f)
	r.printFailures(f)
	return f, nil
}

func (r *Report) Render(ctx context.Context, path string) error {
	if path == "" {
		path = filepath.Join(r.config.ReportPath(), ResultFileName+"."+r.config.Report.Format)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := Read(path)
	if err != nil {
		r.logger.Error("failed to read result file", zap.String("path", path), zap.Error(err))
		return err
	}
	r.logger.Info("rendering result file", zap.String("path", path), zap.String("run_id", f.ID))

	PrintTree(r.out, BuildTree(f.Results))
	if r.printFailures(f) == 0 {
		r.logger.Info("no failed tests found in the result file")
	}
	return nil
}

func (r *Report) printFailures(f *File) int {
	n := PrintFailures(r.out, f)
	if !r.config.Report.ShowFullBody {
		return n
	}
	for _, res := range f.Results {
		if res.Ignored || res.IsSuccess() || res.Error {
			continue
		}
		fmt.Fprintf(r.out, "\n%s\n%s", describe(res), ExpectActualTable(res.ExpectedBody, res.ActualBody))
	}
	return n
}
