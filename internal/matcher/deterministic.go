package matcher

import (
	"context"
	"fmt"

	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/textutils"

	"github.com/google/uuid"
)

// ExactConfidence is the confidence of every deterministic tier.
const ExactConfidence = 1.0

// ABNStrategy resolves the provider by exact business number.
type ABNStrategy struct {
	dir Directory
}

// NewABNStrategy creates an ABNStrategy.
func NewABNStrategy(dir Directory) *ABNStrategy { return &ABNStrategy{dir: dir} }

func (s *ABNStrategy) Name() string { return "ABN" }

func (s *ABNStrategy) Supports(side Side) bool { return side == SideProvider }

// Resolve looks the number up in compact form and then in the "NN NNN NNN NNN" grouping.
func (s *ABNStrategy) Resolve(ctx context.Context, req *Request, _ Side) (StrategyResult, error) {
	if req.Data.ABN == nil || *req.Data.ABN == "" {
		return StrategyResult{}, nil
	}
	compact := textutils.StripWhitespace(*req.Data.ABN)
	candidates := []string{compact}
	if grouped := textutils.GroupABN(compact); grouped != compact {
		candidates = append(candidates, grouped)
	}

	for _, abn := range candidates {
		p, err := s.dir.FindProviderByABN(ctx, abn)
		if domainerror.IsNotFound(err) {
			continue
		}
		if err != nil {
			return StrategyResult{}, err
		}
		return StrategyResult{
			ID:         p.ID,
			Found:      true,
			Confidence: ExactConfidence,
			Method:     models.MatchMethodABN,
			Detail:     fmt.Sprintf("Matched provider %q by ABN %s", p.Name, compact),
		}, nil
	}
	return StrategyResult{}, nil
}

// NDISStrategy resolves the participant by exact beneficiary number.
type NDISStrategy struct {
	dir Directory
}

// NewNDISStrategy creates an NDISStrategy.
func NewNDISStrategy(dir Directory) *NDISStrategy { return &NDISStrategy{dir: dir} }

func (s *NDISStrategy) Name() string { return "NDIS" }

func (s *NDISStrategy) Supports(side Side) bool { return side == SideParticipant }

func (s *NDISStrategy) Resolve(ctx context.Context, req *Request, _ Side) (StrategyResult, error) {
	if req.Data.NDISNumber == nil || *req.Data.NDISNumber == "" {
		return StrategyResult{}, nil
	}
	number := textutils.StripWhitespace(*req.Data.NDISNumber)
	p, err := s.dir.FindParticipantByNDIS(ctx, number)
	if domainerror.IsNotFound(err) {
		return StrategyResult{}, nil
	}
	if err != nil {
		return StrategyResult{}, err
	}
	return StrategyResult{
		ID:         p.ID,
		Found:      true,
		Confidence: ExactConfidence,
		Method:     models.MatchMethodNDIS,
		Detail:     fmt.Sprintf("Matched participant %q by NDIS number %s", p.Name, number),
	}, nil
}

// EmailStrategy resolves the provider from a known sender association.
// A verified association wins; otherwise an unverified one is used only when it
// points at a single provider.
type EmailStrategy struct {
	dir Directory
}

// NewEmailStrategy creates an EmailStrategy.
func NewEmailStrategy(dir Directory) *EmailStrategy { return &EmailStrategy{dir: dir} }

func (s *EmailStrategy) Name() string { return "Email" }

func (s *EmailStrategy) Supports(side Side) bool { return side == SideProvider }

func (s *EmailStrategy) Resolve(ctx context.Context, req *Request, _ Side) (StrategyResult, error) {
	if req.Sender == "" {
		return StrategyResult{}, nil
	}
	assocs, err := s.dir.FindAssociationsByEmail(ctx, req.Sender)
	if err != nil {
		return StrategyResult{}, err
	}

	var verified, unverified []uuid.UUID
	for _, a := range assocs {
		if a.Verified {
			verified = appendUnique(verified, a.ProviderID)
		} else {
			unverified = appendUnique(unverified, a.ProviderID)
		}
	}

	switch {
	case len(verified) == 1:
		return emailResult(verified[0], req.Sender, "verified"), nil
	case len(verified) == 0 && len(unverified) == 1:
		return emailResult(unverified[0], req.Sender, "unverified"), nil
	}
	return StrategyResult{}, nil
}

func emailResult(id uuid.UUID, sender, kind string) StrategyResult {
	return StrategyResult{
		ID:         id,
		Found:      true,
		Confidence: ExactConfidence,
		Method:     models.MatchMethodEmail,
		Detail:     fmt.Sprintf("Matched provider by %s email association %s", kind, sender),
	}
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
