// Package run drives fixtures through the resolve, process, request and diff pipeline.
package run

import (
	"context"

	"go.squit.io/squit/pkg/models"
	"go.squit.io/squit/pkg/platform/db"
)

type Service interface {
	// ResolveFixtures discovers and resolves every fixture below root. Errors
	// of a single fixture are attached to it; root level errors abort.
	ResolveFixtures(ctx context.Context, root string) ([]models.TestFixture, error)
	// RunFixture executes one fixture. Failures become erroring results.
	RunFixture(ctx context.Context, fixture models.TestFixture, transport Transport) models.SquitResult
	// Run resolves and executes every fixture of the configured source root.
	Run(ctx context.Context, transport Transport) (*Summary, error)
}

// Transport issues the request of a fixture against the system under test.
type Transport interface {
	Do(ctx context.Context, req models.HTTPRequest) (*models.HTTPResponse, error)
}

// DatabasePool runs the setup and teardown scripts of fixtures.
type DatabasePool interface {
	RunFixtureScripts(ctx context.Context, fixture models.TestFixture, phase db.Phase) error
}

// Recorder keeps a history of results across runs.
type Recorder interface {
	RecordResult(ctx context.Context, testName string, passed bool) error
}
