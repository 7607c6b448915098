package matcher

import (
	"fmt"
	"strings"

	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
)

// StrategyResult represents the outcome of one strategy attempt for one side.
type StrategyResult struct {
	Strategy   string
	Side       Side
	ID         uuid.UUID
	Found      bool
	Error      error
	Confidence float64
	Method     models.MatchMethod
	Detail     string
}

// StrategyResults aggregates the attempts made during a Match call.
type StrategyResults struct {
	Results []StrategyResult
}

// Best returns the first successful result for side.
func (sr StrategyResults) Best(side Side) (StrategyResult, bool) {
	for _, r := range sr.Results {
		if r.Side == side && r.Found && r.Error == nil {
			return r, true
		}
	}
	return StrategyResult{}, false
}

// GetErrors returns all errors encountered during strategy execution.
func (sr StrategyResults) GetErrors() []error {
	var errs []error
	for _, r := range sr.Results {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("%s strategy (%s): %w", r.Strategy, r.Side, r.Error))
		}
	}
	return errs
}

// Summary returns a compact description of all attempts, e.g. "ABN/provider:no_match, Email/provider:success".
func (sr StrategyResults) Summary() string {
	parts := make([]string, 0, len(sr.Results))
	for _, r := range sr.Results {
		status := "failed"
		if r.Error == nil {
			status = "no_match"
			if r.Found {
				status = "success"
			}
		}
		parts = append(parts, fmt.Sprintf("%s/%s:%s", r.Strategy, r.Side, status))
	}
	return strings.Join(parts, ", ")
}
