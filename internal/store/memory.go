package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"fjacquet/claimflow/internal/aba"
	"fjacquet/claimflow/internal/claims"
	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/sequence"
	"fjacquet/claimflow/internal/textutils"

	"github.com/google/uuid"
)

type assocKey struct {
	providerID uuid.UUID
	email      string
}

// MemoryStore is a mutex-guarded in-process Repository.
type MemoryStore struct {
	*sequence.MemoryAllocator

	mu           sync.RWMutex
	providers    map[uuid.UUID]models.Provider
	participants map[uuid.UUID]models.Participant
	assocs       map[assocKey]models.ProviderEmailAssociation
	invoices     map[uuid.UUID]models.Invoice
	claims       map[uuid.UUID]models.Claim
	payments     map[uuid.UUID]models.Payment
	batches      map[uuid.UUID]models.PaymentBatchFile
}

var _ Repository = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		MemoryAllocator: sequence.NewMemoryAllocator(),
		providers:       make(map[uuid.UUID]models.Provider),
		participants:    make(map[uuid.UUID]models.Participant),
		assocs:          make(map[assocKey]models.ProviderEmailAssociation),
		invoices:        make(map[uuid.UUID]models.Invoice),
		claims:          make(map[uuid.UUID]models.Claim),
		payments:        make(map[uuid.UUID]models.Payment),
		batches:         make(map[uuid.UUID]models.PaymentBatchFile),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// --- directory ---

func (s *MemoryStore) SaveProvider(_ context.Context, p models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = p
	return nil
}

func (s *MemoryStore) GetProvider(_ context.Context, id uuid.UUID) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, &domainerror.NotFoundError{Entity: "provider", ID: id.String()}
	}
	return &p, nil
}

func (s *MemoryStore) SaveParticipant(_ context.Context, p models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = p
	return nil
}

func (s *MemoryStore) FindProviderByABN(_ context.Context, abn string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.providers {
		if p.ABN == abn {
			p := p
			return &p, nil
		}
	}
	return nil, &domainerror.NotFoundError{Entity: "provider", ID: abn}
}

func (s *MemoryStore) FindParticipantByNDIS(_ context.Context, ndisNumber string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if p.NDISNumber == ndisNumber {
			p := p
			return &p, nil
		}
	}
	return nil, &domainerror.NotFoundError{Entity: "participant", ID: ndisNumber}
}

// --- email associations ---

func (s *MemoryStore) FindAssociationsByEmail(_ context.Context, email string) ([]models.ProviderEmailAssociation, error) {
	email = textutils.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ProviderEmailAssociation
	for k, a := range s.assocs {
		if k.email == email {
			out = append(out, a)
		}
	}
	sortAssociations(out)
	return out, nil
}

func (s *MemoryStore) FindProviderIDsByEmailDomain(_ context.Context, domain string) ([]uuid.UUID, error) {
	domain = textutils.NormalizeEmail(domain)
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for k := range s.assocs {
		if textutils.EmailDomain(k.email) == domain && !seen[k.providerID] {
			seen[k.providerID] = true
			out = append(out, k.providerID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *MemoryStore) GetAssociation(_ context.Context, providerID uuid.UUID, email string) (*models.ProviderEmailAssociation, error) {
	email = textutils.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assocs[assocKey{providerID, email}]
	if !ok {
		return nil, &domainerror.NotFoundError{Entity: "email association", ID: providerID.String() + "/" + email}
	}
	return &a, nil
}

func (s *MemoryStore) SaveAssociation(_ context.Context, a models.ProviderEmailAssociation) error {
	a.Email = textutils.NormalizeEmail(a.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assocs[assocKey{a.ProviderID, a.Email}] = a
	return nil
}

func sortAssociations(a []models.ProviderEmailAssociation) {
	sort.Slice(a, func(i, j int) bool { return a[i].ProviderID.String() < a[j].ProviderID.String() })
}

// --- invoices ---

func (s *MemoryStore) SaveInvoice(_ context.Context, inv models.Invoice) error {
	inv.SenderEmail = textutils.NormalizeEmail(inv.SenderEmail)
	inv.Lines = append([]models.InvoiceLine(nil), inv.Lines...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = inv
	return nil
}

func (s *MemoryStore) GetInvoice(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok || inv.DeletedAt != nil {
		return nil, &domainerror.NotFoundError{Entity: "invoice", ID: id.String()}
	}
	inv.Lines = append([]models.InvoiceLine(nil), inv.Lines...)
	return &inv, nil
}

// FindResolvedInvoicesBySender returns resolved, non-deleted invoices from sender
// created at or after since, oldest first.
func (s *MemoryStore) FindResolvedInvoicesBySender(_ context.Context, sender string, since time.Time) ([]models.MatchHistoryEntry, error) {
	sender = textutils.NormalizeEmail(sender)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.Invoice
	for _, inv := range s.invoices {
		if inv.DeletedAt != nil || inv.SenderEmail != sender || !inv.IsResolved() || inv.CreatedAt.Before(since) {
			continue
		}
		matched = append(matched, inv)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })

	out := make([]models.MatchHistoryEntry, 0, len(matched))
	for _, inv := range matched {
		out = append(out, models.MatchHistoryEntry{InvoiceID: inv.ID, ProviderID: inv.ProviderID, ParticipantID: inv.ParticipantID})
	}
	return out, nil
}

// --- claims ---

// CreateClaims validates every claim before applying any of them.
func (s *MemoryStore) CreateClaims(_ context.Context, batch []models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := make(map[string]bool, len(s.claims)+len(batch))
	for _, c := range s.claims {
		refs[c.Reference] = true
	}
	for _, c := range batch {
		inv, ok := s.invoices[c.InvoiceID]
		if !ok || inv.DeletedAt != nil {
			return &domainerror.NotFoundError{Entity: "invoice", ID: c.InvoiceID.String()}
		}
		if inv.Status != models.InvoiceStatusApproved {
			return &domainerror.ConflictError{Entity: "invoice", ID: c.InvoiceID.String(), Want: string(models.InvoiceStatusApproved)}
		}
		if refs[c.Reference] {
			return &domainerror.ConflictError{Entity: "claim reference", ID: c.Reference, Want: "unused"}
		}
		refs[c.Reference] = true
	}

	for _, c := range batch {
		c.Lines = append([]models.ClaimLine(nil), c.Lines...)
		s.claims[c.ID] = c
		inv := s.invoices[c.InvoiceID]
		inv.Status = models.InvoiceStatusClaimed
		inv.UpdatedAt = c.CreatedAt
		s.invoices[c.InvoiceID] = inv
	}
	return nil
}

// SaveClaim imports an existing claim and advances the reference sequence past it.
func (s *MemoryStore) SaveClaim(_ context.Context, c models.Claim) error {
	c.Lines = append([]models.ClaimLine(nil), c.Lines...)
	s.mu.Lock()
	s.claims[c.ID] = c
	s.mu.Unlock()
	if scope, n, ok := claims.ReferenceSequence(c.Reference); ok {
		s.Seed(scope, n)
	}
	return nil
}

func (s *MemoryStore) GetClaim(_ context.Context, id uuid.UUID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, &domainerror.NotFoundError{Entity: "claim", ID: id.String()}
	}
	c.Lines = append([]models.ClaimLine(nil), c.Lines...)
	return &c, nil
}

// --- payments ---

func (s *MemoryStore) SavePayment(_ context.Context, p models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	return nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, &domainerror.NotFoundError{Entity: "payment", ID: id.String()}
	}
	return &p, nil
}

// ListPaymentsByStatus returns payments in status, oldest first.
func (s *MemoryStore) ListPaymentsByStatus(_ context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Payment
	for _, p := range s.payments {
		if p.Status == status {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetPendingPayments(_ context.Context, ids []uuid.UUID) ([]models.PaymentInstruction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PaymentInstruction, 0, len(ids))
	for _, id := range ids {
		p, ok := s.payments[id]
		if !ok || p.Status != models.PaymentStatusPending {
			continue
		}
		out = append(out, models.PaymentInstruction{Payment: p, ClaimReference: s.claims[p.ClaimID].Reference})
	}
	return out, nil
}

func (s *MemoryStore) SaveBatch(_ context.Context, batch models.PaymentBatchFile, paymentIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range paymentIDs {
		if p, ok := s.payments[id]; !ok || p.Status != models.PaymentStatusPending {
			return &domainerror.ConflictError{Entity: "payment", ID: id.String(), Want: string(models.PaymentStatusPending)}
		}
	}
	for _, id := range paymentIDs {
		p := s.payments[id]
		batchID := batch.ID
		p.Status = models.PaymentStatusIncluded
		p.BatchID = &batchID
		s.payments[id] = p
	}
	s.batches[batch.ID] = batch
	return nil
}

func (s *MemoryStore) GetBatch(_ context.Context, id uuid.UUID) (*models.PaymentBatchFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, &domainerror.NotFoundError{Entity: "payment batch", ID: id.String()}
	}
	return &b, nil
}

func (s *MemoryStore) MarkBatchSubmitted(_ context.Context, batchID uuid.UUID, bankReference string, at time.Time) (*models.PaymentBatchFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[batchID]
	if !ok {
		return nil, &domainerror.NotFoundError{Entity: "payment batch", ID: batchID.String()}
	}
	if b.SubmittedAt != nil {
		return nil, &domainerror.ConflictError{Entity: "payment batch", ID: batchID.String(), Want: "unsubmitted"}
	}
	b.BankReference = bankReference
	b.SubmittedAt = &at
	s.batches[batchID] = b

	for id, p := range s.payments {
		if p.BatchID != nil && *p.BatchID == batchID && p.Status == models.PaymentStatusIncluded {
			p.Status = models.PaymentStatusSubmitted
			p.SubmittedAt = &at
			s.payments[id] = p
		}
	}
	return &b, nil
}

// MarkPaymentsCleared requires every payment to be submitted (already cleared ones
// are skipped) and cascades to claims, invoices and fully cleared batches.
func (s *MemoryStore) MarkPaymentsCleared(_ context.Context, paymentIDs []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range paymentIDs {
		p, ok := s.payments[id]
		if !ok {
			return &domainerror.NotFoundError{Entity: "payment", ID: id.String()}
		}
		if p.Status != models.PaymentStatusSubmitted && p.Status != models.PaymentStatusCleared {
			return &domainerror.StatusError{Entity: "payment", ID: id.String(), Actual: string(p.Status), Expected: string(models.PaymentStatusSubmitted)}
		}
	}

	touched := make(map[uuid.UUID]bool)
	for _, id := range paymentIDs {
		p := s.payments[id]
		if p.Status == models.PaymentStatusCleared {
			continue
		}
		p.Status = models.PaymentStatusCleared
		p.ClearedAt = &at
		s.payments[id] = p
		if p.BatchID != nil {
			touched[*p.BatchID] = true
		}

		c, ok := s.claims[p.ClaimID]
		if !ok {
			continue
		}
		c.Status = models.ClaimStatusPaid
		s.claims[c.ID] = c
		if inv, ok := s.invoices[c.InvoiceID]; ok {
			inv.Status = models.InvoiceStatusPaid
			inv.UpdatedAt = at
			s.invoices[inv.ID] = inv
		}
	}

	for batchID := range touched {
		if s.batchFullyCleared(batchID) {
			b := s.batches[batchID]
			b.ClearedAt = &at
			s.batches[batchID] = b
		}
	}
	return nil
}

func (s *MemoryStore) batchFullyCleared(batchID uuid.UUID) bool {
	for _, p := range s.payments {
		if p.BatchID != nil && *p.BatchID == batchID && p.Status != models.PaymentStatusCleared {
			return false
		}
	}
	_, ok := s.batches[batchID]
	return ok
}

// SaveBatchFile imports an existing batch and advances its day's file sequence past it.
func (s *MemoryStore) SaveBatchFile(_ context.Context, b models.PaymentBatchFile) error {
	s.mu.Lock()
	s.batches[b.ID] = b
	s.mu.Unlock()
	s.Seed(aba.BatchSequence(b))
	return nil
}

// Snapshot returns the store contents as fixtures in a stable order.
func (s *MemoryStore) Snapshot() *Fixtures {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fx := &Fixtures{}
	for _, p := range s.providers {
		fx.Providers = append(fx.Providers, p)
	}
	for _, p := range s.participants {
		fx.Participants = append(fx.Participants, p)
	}
	for _, a := range s.assocs {
		fx.Associations = append(fx.Associations, a)
	}
	for _, inv := range s.invoices {
		fx.Invoices = append(fx.Invoices, inv)
	}
	for _, c := range s.claims {
		fx.Claims = append(fx.Claims, c)
	}
	for _, p := range s.payments {
		fx.Payments = append(fx.Payments, p)
	}
	for _, b := range s.batches {
		fx.Batches = append(fx.Batches, b)
	}

	sort.Slice(fx.Providers, func(i, j int) bool { return fx.Providers[i].ID.String() < fx.Providers[j].ID.String() })
	sort.Slice(fx.Participants, func(i, j int) bool { return fx.Participants[i].ID.String() < fx.Participants[j].ID.String() })
	sort.Slice(fx.Associations, func(i, j int) bool {
		if fx.Associations[i].Email == fx.Associations[j].Email {
			return fx.Associations[i].ProviderID.String() < fx.Associations[j].ProviderID.String()
		}
		return fx.Associations[i].Email < fx.Associations[j].Email
	})
	sort.Slice(fx.Invoices, func(i, j int) bool { return fx.Invoices[i].ID.String() < fx.Invoices[j].ID.String() })
	sort.Slice(fx.Claims, func(i, j int) bool { return fx.Claims[i].Reference < fx.Claims[j].Reference })
	sort.Slice(fx.Payments, func(i, j int) bool { return fx.Payments[i].ID.String() < fx.Payments[j].ID.String() })
	sort.Slice(fx.Batches, func(i, j int) bool { return fx.Batches[i].Filename < fx.Batches[j].Filename })
	return fx
}
