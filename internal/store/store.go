// Package store provides persistence for providers, participants, invoices, claims
// and payments. MemoryStore keeps everything in process; package sqlstore provides
// the SQL-backed implementation of the same Repository contract.
package store

import (
	"context"

	"fjacquet/claimflow/internal/aba"
	"fjacquet/claimflow/internal/claims"
	"fjacquet/claimflow/internal/matcher"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/sequence"

	"github.com/google/uuid"
)

// Writer holds the plain upserts used by fixtures and the CLI.
type Writer interface {
	SaveProvider(ctx context.Context, p models.Provider) error
	SaveParticipant(ctx context.Context, p models.Participant) error
	SaveAssociation(ctx context.Context, a models.ProviderEmailAssociation) error
	SaveInvoice(ctx context.Context, inv models.Invoice) error
	SaveClaim(ctx context.Context, c models.Claim) error
	SavePayment(ctx context.Context, p models.Payment) error
	SaveBatchFile(ctx context.Context, b models.PaymentBatchFile) error
}

// Repository is everything the application needs from persistence.
type Repository interface {
	matcher.Store
	claims.Store
	aba.Store
	sequence.Allocator
	Writer

	GetProvider(ctx context.Context, id uuid.UUID) (*models.Provider, error)
	GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*models.PaymentBatchFile, error)
	ListPaymentsByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error)
	Close() error
}
