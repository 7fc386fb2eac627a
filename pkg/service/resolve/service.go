// Package resolve reads the configuration layers of a fixture tree and folds
// them into the configuration of a single test.
package resolve

import (
	"context"

	"go.squit.io/squit/pkg/models"
)

type Service interface {
	// Resolve merges every layer from root down to leaf and validates the result.
	Resolve(ctx context.Context, root, leaf string) (models.TestConfig, error)
	// Layer returns the parsed layer of a single directory.
	Layer(dir string) (*models.ConfigLayer, error)
}

// ProcessorLookup reports whether a processor identifier is known.
type ProcessorLookup func(id string) bool
