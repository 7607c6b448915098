package matcher

import (
	"context"
	"fmt"
	"sort"

	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/textutils"

	"github.com/google/uuid"
)

// DomainStrategy resolves the provider by the sender's email domain when exactly
// one provider owns it. Public mail domains never match.
type DomainStrategy struct {
	dir           Directory
	confidence    float64
	publicDomains map[string]struct{}
}

// NewDomainStrategy creates a DomainStrategy.
func NewDomainStrategy(dir Directory, confidence float64, publicDomains []string) *DomainStrategy {
	public := make(map[string]struct{}, len(publicDomains))
	for _, d := range publicDomains {
		public[textutils.NormalizeEmail(d)] = struct{}{}
	}
	return &DomainStrategy{dir: dir, confidence: confidence, publicDomains: public}
}

func (s *DomainStrategy) Name() string { return "EmailDomain" }

func (s *DomainStrategy) Supports(side Side) bool { return side == SideProvider }

func (s *DomainStrategy) Resolve(ctx context.Context, req *Request, _ Side) (StrategyResult, error) {
	domain := textutils.EmailDomain(req.Sender)
	if domain == "" {
		return StrategyResult{}, nil
	}
	if _, public := s.publicDomains[domain]; public {
		return StrategyResult{}, nil
	}

	ids, err := s.dir.FindProviderIDsByEmailDomain(ctx, domain)
	if err != nil {
		return StrategyResult{}, err
	}
	var distinct []uuid.UUID
	for _, id := range ids {
		distinct = appendUnique(distinct, id)
	}
	if len(distinct) != 1 {
		return StrategyResult{}, nil
	}
	return StrategyResult{
		ID:         distinct[0],
		Found:      true,
		Confidence: s.confidence,
		Method:     models.MatchMethodDomain,
		Detail:     fmt.Sprintf("Matched provider by email domain %s (single associated provider)", domain),
	}, nil
}

// HistoricalStrategy resolves either side from previously resolved invoices sent
// by the same address within a trailing window.
type HistoricalStrategy struct {
	dir            Directory
	confidence     float64
	windowDays     int
	minOccurrences int
}

// NewHistoricalStrategy creates a HistoricalStrategy.
func NewHistoricalStrategy(dir Directory, confidence float64, windowDays, minOccurrences int) *HistoricalStrategy {
	return &HistoricalStrategy{dir: dir, confidence: confidence, windowDays: windowDays, minOccurrences: minOccurrences}
}

func (s *HistoricalStrategy) Name() string { return "Historical" }

func (s *HistoricalStrategy) Supports(Side) bool { return true }

func (s *HistoricalStrategy) Resolve(ctx context.Context, req *Request, side Side) (StrategyResult, error) {
	if req.Sender == "" {
		return StrategyResult{}, nil
	}
	history, err := s.load(ctx, req)
	if err != nil {
		return StrategyResult{}, err
	}

	counts := make(map[uuid.UUID]int)
	for _, h := range history {
		id := h.ProviderID
		if side == SideParticipant {
			id = h.ParticipantID
		}
		if id != nil {
			counts[*id]++
		}
	}

	top, count, unique := topCandidate(counts)
	if !unique || count < s.minOccurrences {
		return StrategyResult{}, nil
	}
	return StrategyResult{
		ID:         top,
		Found:      true,
		Confidence: s.confidence,
		Method:     models.MatchMethodHistorical,
		Detail: fmt.Sprintf("Matched %s from history: %d of %d invoices from %s in the last %d days",
			side, count, len(history), req.Sender, s.windowDays),
	}, nil
}

func (s *HistoricalStrategy) load(ctx context.Context, req *Request) ([]models.MatchHistoryEntry, error) {
	if !req.historyLoaded {
		since := req.Now.AddDate(0, 0, -s.windowDays)
		req.history, req.historyErr = s.dir.FindResolvedInvoicesBySender(ctx, req.Sender, since)
		req.historyLoaded = true
	}
	return req.history, req.historyErr
}

// topCandidate returns the most frequent id. unique is false when the top count is shared.
func topCandidate(counts map[uuid.UUID]int) (id uuid.UUID, count int, unique bool) {
	ids := make([]uuid.UUID, 0, len(counts))
	for k := range counts {
		ids = append(ids, k)
	}
	sort.Slice(ids, func(i, j int) bool { return counts[ids[i]] > counts[ids[j]] })
	if len(ids) == 0 {
		return uuid.Nil, 0, false
	}
	if len(ids) > 1 && counts[ids[0]] == counts[ids[1]] {
		return uuid.Nil, counts[ids[0]], false
	}
	return ids[0], counts[ids[0]], true
}
