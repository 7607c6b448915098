package claims

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/sequence"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	invoices  map[uuid.UUID]models.Invoice
	claims    []models.Claim
	createErr error
	creates   int
}

func newFakeStore(invoices ...models.Invoice) *fakeStore {
	s := &fakeStore{invoices: make(map[uuid.UUID]models.Invoice)}
	for _, inv := range invoices {
		s.invoices[inv.ID] = inv
	}
	return s
}

func (s *fakeStore) GetInvoice(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok || inv.DeletedAt != nil {
		return nil, &domainerror.NotFoundError{Entity: "invoice", ID: id.String()}
	}
	return &inv, nil
}

func (s *fakeStore) CreateClaims(_ context.Context, claims []models.Claim) error {
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	for _, c := range claims {
		inv := s.invoices[c.InvoiceID]
		inv.Status = models.InvoiceStatusClaimed
		s.invoices[c.InvoiceID] = inv
	}
	s.claims = append(s.claims, claims...)
	return nil
}

var day = time.Date(2026, time.October, 19, 15, 4, 5, 0, time.UTC)

func approvedInvoice(lines ...models.InvoiceLine) models.Invoice {
	id := uuid.New()
	participant := uuid.New()
	provider := uuid.New()
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].InvoiceID = id
	}
	return models.Invoice{
		ID:            id,
		InvoiceNumber: "INV-" + id.String()[:6],
		ParticipantID: &participant,
		ProviderID:    &provider,
		Total:         99900,
		Status:        models.InvoiceStatusApproved,
		Lines:         lines,
	}
}

func supportLine(code string, qty string, unit, total int64) models.InvoiceLine {
	return models.InvoiceLine{
		ItemCode:     code,
		ItemName:     "Support Coordination",
		CategoryCode: code[:2],
		ServiceDate:  time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
		Quantity:     decimal.RequireFromString(qty),
		UnitPrice:    unit,
		LineTotal:    total,
	}
}

func newTestBatcher(store Store, clock *time.Time) *Batcher {
	return NewBatcher(store, sequence.NewMemoryAllocator(), logging.NewMockLogger(),
		WithClock(func() time.Time { return *clock }))
}

func TestCreateClaims_Success(t *testing.T) {
	withLines := approvedInvoice(
		supportLine("15_042_0128_1_3", "2.0", 19399, 38798),
		supportLine("01_011_0107_1_1", "3", 6547, 19641),
	)
	noLines := approvedInvoice()
	store := newFakeStore(withLines, noLines)
	clock := day
	b := newTestBatcher(store, &clock)

	res, err := b.CreateClaims(context.Background(), []uuid.UUID{withLines.ID, noLines.ID}, "reviewer@plan.example")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	require.Len(t, res.Claims, 2)

	first := res.Claims[0]
	assert.Equal(t, "CLM-20261019-0001", first.Reference)
	assert.Regexp(t, models.ClaimReferencePattern, first.Reference)
	assert.Equal(t, withLines.ID, first.InvoiceID)
	assert.Equal(t, withLines.ParticipantID, first.ParticipantID)
	assert.Equal(t, int64(38798+19641), first.Total)
	assert.Equal(t, models.ClaimStatusPending, first.Status)
	assert.Equal(t, "reviewer@plan.example", first.CreatedBy)
	require.Len(t, first.Lines, 2)
	for i, l := range first.Lines {
		src := withLines.Lines[i]
		assert.Equal(t, src.ID, l.SourceLineID)
		assert.Equal(t, withLines.ID, l.SourceInvoiceID)
		assert.Equal(t, first.ID, l.ClaimID)
		assert.Equal(t, src.ItemCode, l.ItemCode)
		assert.Equal(t, src.CategoryCode, l.CategoryCode)
		assert.True(t, src.Quantity.Equal(l.Quantity))
		assert.Equal(t, src.UnitPrice, l.UnitPrice)
		assert.Equal(t, src.LineTotal, l.LineTotal)
	}

	second := res.Claims[1]
	assert.Equal(t, "CLM-20261019-0002", second.Reference)
	assert.Equal(t, int64(99900), second.Total, "falls back to the invoice total")
	assert.Empty(t, second.Lines)

	assert.Equal(t, models.InvoiceStatusClaimed, store.invoices[withLines.ID].Status)
	assert.Equal(t, models.InvoiceStatusClaimed, store.invoices[noLines.ID].Status)
}

func TestCreateClaims_ReferencesIncreaseAndResetDaily(t *testing.T) {
	var invoices []models.Invoice
	for i := 0; i < 4; i++ {
		invoices = append(invoices, approvedInvoice())
	}
	store := newFakeStore(invoices...)
	clock := day
	b := newTestBatcher(store, &clock)
	ctx := context.Background()

	var refs []string
	for _, inv := range invoices[:3] {
		res, err := b.CreateClaims(ctx, []uuid.UUID{inv.ID}, "u")
		require.NoError(t, err)
		refs = append(refs, res.Claims[0].Reference)
	}
	assert.Equal(t, []string{"CLM-20261019-0001", "CLM-20261019-0002", "CLM-20261019-0003"}, refs)

	clock = day.Add(24 * time.Hour)
	res, err := b.CreateClaims(ctx, []uuid.UUID{invoices[3].ID}, "u")
	require.NoError(t, err)
	assert.Equal(t, "CLM-20261020-0001", res.Claims[0].Reference)
}

func TestCreateClaims_ValidationIsEager(t *testing.T) {
	approved := approvedInvoice()
	pending := approvedInvoice()
	pending.Status = models.InvoiceStatusPendingReview
	deletedAt := day
	deleted := approvedInvoice()
	deleted.DeletedAt = &deletedAt
	missing := uuid.New()

	tests := []struct {
		name  string
		ids   []uuid.UUID
		user  string
		check func(t *testing.T, err error)
	}{
		{
			name: "empty list",
			ids:  nil,
			user: "u",
			check: func(t *testing.T, err error) {
				var v *domainerror.ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, "invoice_ids", v.Field)
			},
		},
		{
			name: "missing user",
			ids:  []uuid.UUID{approved.ID},
			user: "",
			check: func(t *testing.T, err error) {
				var v *domainerror.ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, "created_by", v.Field)
			},
		},
		{
			name: "duplicate id",
			ids:  []uuid.UUID{approved.ID, approved.ID},
			user: "u",
			check: func(t *testing.T, err error) {
				var v *domainerror.ValidationError
				require.ErrorAs(t, err, &v)
			},
		},
		{
			name: "unknown invoice",
			ids:  []uuid.UUID{approved.ID, missing},
			user: "u",
			check: func(t *testing.T, err error) {
				assert.True(t, domainerror.IsNotFound(err))
				assert.Contains(t, err.Error(), "invoice not found")
			},
		},
		{
			name: "deleted invoice",
			ids:  []uuid.UUID{deleted.ID},
			user: "u",
			check: func(t *testing.T, err error) {
				assert.True(t, domainerror.IsNotFound(err))
			},
		},
		{
			name: "not approved",
			ids:  []uuid.UUID{approved.ID, pending.ID},
			user: "u",
			check: func(t *testing.T, err error) {
				var s *domainerror.StatusError
				require.ErrorAs(t, err, &s)
				assert.Equal(t, "pending_review", s.Actual)
				assert.Contains(t, err.Error(), "not in approved status")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(approved, pending, deleted)
			clock := day
			b := newTestBatcher(store, &clock)

			res, err := b.CreateClaims(context.Background(), tt.ids, tt.user)
			require.Error(t, err)
			tt.check(t, err)
			assert.Empty(t, res.Claims)
			assert.Equal(t, 0, store.creates, "nothing is written when validation fails")
			assert.Equal(t, models.InvoiceStatusApproved, store.invoices[approved.ID].Status)
		})
	}
}

func TestCreateClaims_StoreFailureBurnsReferences(t *testing.T) {
	a, c := approvedInvoice(), approvedInvoice()
	store := newFakeStore(a, c)
	store.createErr = &domainerror.ConflictError{Entity: "invoice", ID: a.ID.String(), Want: "approved"}
	clock := day
	b := newTestBatcher(store, &clock)
	ctx := context.Background()

	_, err := b.CreateClaims(ctx, []uuid.UUID{a.ID}, "u")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerror.ErrConflict))

	store.createErr = nil
	res, err := b.CreateClaims(ctx, []uuid.UUID{c.ID}, "u")
	require.NoError(t, err)
	assert.Equal(t, "CLM-20261019-0002", res.Claims[0].Reference)
}

type exhaustedAllocator struct{}

func (exhaustedAllocator) Next(context.Context, string) (int64, error) { return 10000, nil }

type failingAllocator struct{}

func (failingAllocator) Next(context.Context, string) (int64, error) {
	return 0, fmt.Errorf("database is locked")
}

func TestCreateClaims_SequenceErrors(t *testing.T) {
	inv := approvedInvoice()

	b := NewBatcher(newFakeStore(inv), exhaustedAllocator{}, logging.NewMockLogger())
	_, err := b.CreateClaims(context.Background(), []uuid.UUID{inv.ID}, "u")
	assert.ErrorIs(t, err, domainerror.ErrSequenceExhausted)

	b = NewBatcher(newFakeStore(inv), failingAllocator{}, logging.NewMockLogger())
	_, err = b.CreateClaims(context.Background(), []uuid.UUID{inv.ID}, "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestCreateClaims_CustomPrefix(t *testing.T) {
	inv := approvedInvoice()
	clock := day
	b := NewBatcher(newFakeStore(inv), sequence.NewMemoryAllocator(), nil,
		WithClock(func() time.Time { return clock }), WithReferencePrefix("PLN"))

	res, err := b.CreateClaims(context.Background(), []uuid.UUID{inv.ID}, "u")
	require.NoError(t, err)
	assert.Equal(t, "PLN-20261019-0001", res.Claims[0].Reference)
}

func TestReferenceSequence(t *testing.T) {
	scope, n, ok := ReferenceSequence("CLM-20261019-0042")
	require.True(t, ok)
	assert.Equal(t, "claim:20261019", scope)
	assert.Equal(t, int64(42), n)

	for _, bad := range []string{"", "CLM-2026101-0042", "clm-20261019-0042", "CLM-20261019-42"} {
		_, _, ok := ReferenceSequence(bad)
		assert.False(t, ok, bad)
	}
}
