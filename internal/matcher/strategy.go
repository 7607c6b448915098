package matcher

import (
	"context"
	"time"

	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/textutils"
)

// Side identifies which half of an invoice a strategy resolves.
type Side int

const (
	SideProvider Side = iota
	SideParticipant
)

func (s Side) String() string {
	if s == SideParticipant {
		return "participant"
	}
	return "provider"
}

// Request is the input to a single Match call. History is loaded at most once per request.
type Request struct {
	Data   models.ExtractedInvoiceData
	Sender string
	Now    time.Time

	historyLoaded bool
	history       []models.MatchHistoryEntry
	historyErr    error
}

func newRequest(data models.ExtractedInvoiceData, sender string, now time.Time) *Request {
	return &Request{Data: data, Sender: textutils.NormalizeEmail(sender), Now: now}
}

// MatchStrategy is one tier of the auto-matcher. Strategies are tried in a fixed
// order per side and the first one that finds a match wins.
type MatchStrategy interface {
	// Name returns the strategy name for logging and summaries.
	Name() string
	// Supports reports whether the strategy can resolve the given side.
	Supports(side Side) bool
	// Resolve attempts to resolve side. A lookup failure is returned as an error
	// and the next tier is tried.
	Resolve(ctx context.Context, req *Request, side Side) (StrategyResult, error)
}
