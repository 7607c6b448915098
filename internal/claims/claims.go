// Package claims turns approved invoices into claims with day-scoped references.
package claims

import (
	"context"
	"fmt"
	"time"

	"fjacquet/claimflow/internal/dateutils"
	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/sequence"

	"github.com/google/uuid"
)

// DefaultReferencePrefix is the leading segment of claim references.
const DefaultReferencePrefix = "CLM"

// maxDailySequence is the largest value that fits the 4-digit reference suffix.
const maxDailySequence = 9999

// Store is the persistence surface used by the Batcher.
type Store interface {
	// GetInvoice returns a non-deleted invoice with its lines, or a *domainerror.NotFoundError.
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	// CreateClaims persists claims and their lines and moves each source invoice from
	// approved to claimed, all in one transaction. An invoice that is no longer approved
	// fails the whole call with a *domainerror.ConflictError.
	CreateClaims(ctx context.Context, claims []models.Claim) error
}

// BatchResult is the outcome of a successful CreateClaims call.
type BatchResult struct {
	Claims    []models.Claim
	Processed int
}

// Batcher creates claims from approved invoices.
type Batcher struct {
	store  Store
	seq    sequence.Allocator
	logger logging.Logger
	now    func() time.Time
	prefix string
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithClock sets the clock used for the reference date and timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Batcher) {
		if now != nil {
			b.now = now
		}
	}
}

// WithReferencePrefix overrides the reference prefix.
func WithReferencePrefix(prefix string) Option {
	return func(b *Batcher) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// NewBatcher creates a Batcher.
func NewBatcher(store Store, seq sequence.Allocator, logger logging.Logger, opts ...Option) *Batcher {
	b := &Batcher{
		store:  store,
		seq:    seq,
		logger: logging.OrDefault(logger),
		now:    time.Now,
		prefix: DefaultReferencePrefix,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreateClaims creates one claim per invoice. Every invoice is validated before anything
// is written; if any is missing or not approved the call fails and nothing is created.
// References consumed by a failed call are not reused.
func (b *Batcher) CreateClaims(ctx context.Context, invoiceIDs []uuid.UUID, createdBy string) (BatchResult, error) {
	invoices, err := b.validate(ctx, invoiceIDs, createdBy)
	if err != nil {
		return BatchResult{}, err
	}

	now := b.now()
	created := make([]models.Claim, 0, len(invoices))
	for _, inv := range invoices {
		ref, err := b.nextReference(ctx, now)
		if err != nil {
			return BatchResult{}, err
		}
		created = append(created, buildClaim(inv, ref, createdBy, now))
	}

	if err := b.store.CreateClaims(ctx, created); err != nil {
		return BatchResult{}, fmt.Errorf("failed to create claims: %w", err)
	}

	for _, c := range created {
		b.logger.Info("Claim created",
			logging.F(logging.FieldClaimReference, c.Reference),
			logging.F(logging.FieldInvoiceID, c.InvoiceID.String()),
			logging.F(logging.FieldTotal, c.Total))
	}
	b.logger.Info("Claim batch completed", logging.F(logging.FieldCount, len(created)))

	return BatchResult{Claims: created, Processed: len(created)}, nil
}

func (b *Batcher) validate(ctx context.Context, ids []uuid.UUID, createdBy string) ([]models.Invoice, error) {
	if len(ids) == 0 {
		return nil, &domainerror.ValidationError{Field: "invoice_ids", Reason: "at least one invoice is required"}
	}
	if createdBy == "" {
		return nil, &domainerror.ValidationError{Field: "created_by", Reason: "must not be empty"}
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	invoices := make([]models.Invoice, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, &domainerror.ValidationError{Field: "invoice_ids", Reason: fmt.Sprintf("duplicate invoice %s", id)}
		}
		seen[id] = true

		inv, err := b.store.GetInvoice(ctx, id)
		if err != nil {
			return nil, err
		}
		if inv.Status != models.InvoiceStatusApproved {
			return nil, &domainerror.StatusError{
				Entity:   "invoice",
				ID:       id.String(),
				Actual:   string(inv.Status),
				Expected: string(models.InvoiceStatusApproved),
			}
		}
		invoices = append(invoices, *inv)
	}
	return invoices, nil
}

// nextReference allocates PREFIX-YYYYMMDD-NNNN for the given day.
func (b *Batcher) nextReference(ctx context.Context, day time.Time) (string, error) {
	n, err := b.seq.Next(ctx, sequence.ClaimScope(day))
	if err != nil {
		return "", fmt.Errorf("failed to allocate claim reference: %w", err)
	}
	if n > maxDailySequence {
		return "", fmt.Errorf("claim reference for %s: %w", dateutils.ToISODate(day), domainerror.ErrSequenceExhausted)
	}
	return fmt.Sprintf("%s-%s-%04d", b.prefix, dateutils.ToCompact(day), n), nil
}

func buildClaim(inv models.Invoice, ref, createdBy string, now time.Time) models.Claim {
	claim := models.Claim{
		ID:            uuid.New(),
		Reference:     ref,
		InvoiceID:     inv.ID,
		ParticipantID: inv.ParticipantID,
		ProviderID:    inv.ProviderID,
		Status:        models.ClaimStatusPending,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		Lines:         make([]models.ClaimLine, 0, len(inv.Lines)),
	}

	for _, l := range inv.Lines {
		claim.Lines = append(claim.Lines, models.ClaimLine{
			ID:              uuid.New(),
			ClaimID:         claim.ID,
			SourceLineID:    l.ID,
			SourceInvoiceID: inv.ID,
			ItemCode:        l.ItemCode,
			ItemName:        l.ItemName,
			CategoryCode:    l.CategoryCode,
			ServiceDate:     l.ServiceDate,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			LineTotal:       l.LineTotal,
			GST:             l.GST,
		})
	}
	claim.Total = ClaimTotal(inv)
	return claim
}

// ClaimTotal is the sum of the invoice's line totals, or its own total when it has no lines.
func ClaimTotal(inv models.Invoice) int64 {
	if len(inv.Lines) == 0 {
		return inv.Total
	}
	var total int64
	for _, l := range inv.Lines {
		total += l.LineTotal
	}
	return total
}
