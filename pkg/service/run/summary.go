package run

import (
	"time"

	"go.squit.io/squit/pkg/models"
)

// Summary is the outcome of a whole run.
type Summary struct {
	Results        []models.SquitResult
	Duration       time.Duration
	IgnoreFailures bool
}

// Failed reports whether any non ignored result was unsuccessful and failures are not ignored.
func (s *Summary) Failed() bool {
	if s.IgnoreFailures {
		return false
	}
	for _, r := range s.Results {
		if !r.Ignored && !r.IsSuccess() {
			return true
		}
	}
	return false
}
