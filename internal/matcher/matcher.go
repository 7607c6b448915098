// Package matcher resolves the provider and participant of an extracted invoice.
//
// Tiers are tried in strict priority order for each side:
//  1. exact identifiers (ABN, NDIS number, known sender address), confidence 1.0
//  2. sender email domain owned by a single provider, confidence 0.7
//  3. repeated history from the same sender, confidence 0.8
//
// Matching never fails. Lookup errors are logged and the tier is treated as a miss.
package matcher

import (
	"context"
	"time"

	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
)

// Explanations used when a side stays unresolved.
const (
	NoProviderMatch    = "No provider match found"
	NoParticipantMatch = "No participant match found"
)

// Config tunes the heuristic tiers.
type Config struct {
	DomainConfidence      float64
	HistoryConfidence     float64
	HistoryWindowDays     int
	HistoryMinOccurrences int
	PublicDomains         []string
}

// DefaultPublicDomains are free-mail providers shared by unrelated senders.
var DefaultPublicDomains = []string{
	"gmail.com", "googlemail.com", "outlook.com", "hotmail.com", "live.com",
	"yahoo.com", "yahoo.com.au", "bigpond.com", "bigpond.net.au", "icloud.com",
	"me.com", "optusnet.com.au",
}

// DefaultConfig returns the standard tier settings.
func DefaultConfig() Config {
	return Config{
		DomainConfidence:      0.7,
		HistoryConfidence:     0.8,
		HistoryWindowDays:     90,
		HistoryMinOccurrences: 3,
		PublicDomains:         DefaultPublicDomains,
	}
}

// Matcher runs the tiered strategies and maintains learned email associations.
type Matcher struct {
	store      Store
	strategies []MatchStrategy
	logger     logging.Logger
	now        func() time.Time
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithClock sets the clock used for the history window and association timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMatcher creates a Matcher with the standard tier order.
func NewMatcher(store Store, cfg Config, logger logging.Logger, opts ...Option) *Matcher {
	m := &Matcher{
		store:  store,
		logger: logging.OrDefault(logger),
		now:    time.Now,
		strategies: []MatchStrategy{
			NewABNStrategy(store),
			NewNDISStrategy(store),
			NewEmailStrategy(store),
			NewDomainStrategy(store, cfg.DomainConfidence, cfg.PublicDomains),
			NewHistoricalStrategy(store, cfg.HistoryConfidence, cfg.HistoryWindowDays, cfg.HistoryMinOccurrences),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match resolves data against the directories. sender may be empty.
func (m *Matcher) Match(ctx context.Context, data models.ExtractedInvoiceData, sender string) models.MatchResult {
	req := newRequest(data, sender, m.now())
	var results StrategyResults
	for _, side := range []Side{SideProvider, SideParticipant} {
		m.resolve(ctx, req, side, &results)
	}

	for _, err := range results.GetErrors() {
		m.logger.WithError(err).Warn("Match lookup failed, continuing with next tier")
	}

	result := buildResult(results)
	m.logger.Debug("Invoice matched",
		logging.F(logging.FieldSender, req.Sender),
		logging.F(logging.FieldMethod, result.Method),
		logging.F(logging.FieldConfidence, result.Confidence),
		logging.F("attempts", results.Summary()))
	return result
}

func (m *Matcher) resolve(ctx context.Context, req *Request, side Side, results *StrategyResults) {
	for _, s := range m.strategies {
		if !s.Supports(side) {
			continue
		}
		res, err := s.Resolve(ctx, req, side)
		res.Strategy = s.Name()
		res.Side = side
		res.Error = err
		if err != nil {
			res.Found = false
		}
		results.Results = append(results.Results, res)
		if res.Found {
			return
		}
	}
}

// buildResult reports the highest side confidence. On a tie the provider's method is used.
func buildResult(results StrategyResults) models.MatchResult {
	out := models.MatchResult{
		Method:             models.MatchMethodNone,
		ProviderDetails:    NoProviderMatch,
		ParticipantDetails: NoParticipantMatch,
	}

	if p, ok := results.Best(SideProvider); ok {
		out.ProviderID = idPtr(p.ID)
		out.ProviderDetails = p.Detail
		out.Confidence = p.Confidence
		out.Method = p.Method
	}
	if p, ok := results.Best(SideParticipant); ok {
		out.ParticipantID = idPtr(p.ID)
		out.ParticipantDetails = p.Detail
		if out.ProviderID == nil || p.Confidence > out.Confidence {
			out.Confidence = p.Confidence
			out.Method = p.Method
		}
	}
	out.Confidence = clamp01(out.Confidence)
	return out
}

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
