package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.squit.io/squit/config"
	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/utils"
	yamlLib "gopkg.in/yaml.v3"
)

// ResultFileName is the base name of the persisted run result; the extension follows the format.
const ResultFileName = "result"

// Counts summarizes a run.
type Counts struct {
	Total      int `json:"total" yaml:"total"`
	Successful int `json:"successful" yaml:"successful"`
	Failed     int `json:"failed" yaml:"failed"`
	Errors     int `json:"errors" yaml:"errors"`
	Ignored    int `json:"ignored" yaml:"ignored"`
}

// File is the persisted outcome of a run.
type File struct {
	ID       string                   `json:"id" yaml:"id"`
	Created  time.Time                `json:"created" yaml:"created"`
	Duration time.Duration            `json:"duration" yaml:"duration"`
	Counts   Counts                   `json:"counts" yaml:"counts"`
	Results  []models.SquitResult     `json:"results" yaml:"results"`
	Tree     []*models.ResultTreeNode `json:"tree" yaml:"tree"`
}

// NewFile assembles the result file of a run.
func NewFile(results []models.SquitResult, duration time.Duration) *File {
	return &File{
		ID:       uuid.NewString(),
		Created:  time.Now().UTC(),
		Duration: duration,
		Counts:   Count(results),
		Results:  results,
		Tree:     BuildTree(results),
	}
}

// Count tallies results. Total excludes ignored results.
func Count(results []models.SquitResult) Counts {
	var c Counts
	for _, r := range results {
		switch {
		case r.Ignored:
			c.Ignored++
			continue
		case r.IsSuccess():
			c.Successful++
		default:
			c.Failed++
			if r.Error {
				c.Errors++
			}
		}
	}
	c.Total = c.Successful + c.Failed
	return c
}

// Write stores f below dir in the given format and returns the file path.
func Write(f *File, dir, format string) (string, error) {
	if err := config.ValidateReportFormat(format); err != nil {
		return "", err
	}
	var (
		data []byte
		err  error
	)
	switch format {
	case config.ReportFormatJSON:
		data, err = json.MarshalIndent(f, "", "  ")
	default:
		data, err = yamlLib.Marshal(f)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode result file: %w", err)
	}
	path := filepath.Join(dir, ResultFileName+"."+format)
	if err := utils.WriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Read loads a result file written by Write. The format follows the extension.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}
	f := &File{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, f)
	} else {
		err = yamlLib.Unmarshal(data, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode result file %s: %w", path, err)
	}
	return f, nil
}
