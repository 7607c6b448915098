package matcher

import (
	"context"
	"time"

	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
)

// Directory is the read-only lookup surface used by the match tiers.
// Single-entity lookups return a *domainerror.NotFoundError when nothing matches.
type Directory interface {
	FindProviderByABN(ctx context.Context, abn string) (*models.Provider, error)
	FindParticipantByNDIS(ctx context.Context, ndisNumber string) (*models.Participant, error)
	FindAssociationsByEmail(ctx context.Context, email string) ([]models.ProviderEmailAssociation, error)
	FindProviderIDsByEmailDomain(ctx context.Context, domain string) ([]uuid.UUID, error)
	FindResolvedInvoicesBySender(ctx context.Context, sender string, since time.Time) ([]models.MatchHistoryEntry, error)
}

// AssociationStore persists learned provider/email associations.
type AssociationStore interface {
	GetAssociation(ctx context.Context, providerID uuid.UUID, email string) (*models.ProviderEmailAssociation, error)
	SaveAssociation(ctx context.Context, assoc models.ProviderEmailAssociation) error
}

// Store combines everything the Matcher reads and writes.
type Store interface {
	Directory
	AssociationStore
}
