package matcher

import (
	"context"
	"testing"
	"time"

	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

	providerA   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	providerB   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	participant = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	otherPart   = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func str(s string) *string { return &s }

func newTestMatcher(store *fakeStore) (*Matcher, *logging.MockLogger) {
	logger := logging.NewMockLogger()
	return NewMatcher(store, DefaultConfig(), logger, WithClock(func() time.Time { return now })), logger
}

func seededStore() *fakeStore {
	return &fakeStore{
		providers: []models.Provider{
			{ID: providerA, Name: "Bright Futures", ABN: "11111111111"},
			{ID: providerB, Name: "Allied Therapy", ABN: "51 824 753 556"},
		},
		participants: []models.Participant{{ID: participant, Name: "Sam Citizen", NDISNumber: "430123456"}},
	}
}

func history(sender string, daysAgo int, provider, part *uuid.UUID) historyRow {
	return historyRow{
		sender: sender,
		at:     now.AddDate(0, 0, -daysAgo),
		entry:  models.MatchHistoryEntry{InvoiceID: uuid.New(), ProviderID: provider, ParticipantID: part},
	}
}

func idp(id uuid.UUID) *uuid.UUID { return &id }

func TestMatch_ABNAndNDIS(t *testing.T) {
	m, _ := newTestMatcher(seededStore())

	res := m.Match(context.Background(), models.ExtractedInvoiceData{ABN: str("11111111111"), NDISNumber: str("430 123 456")}, "")

	require.NotNil(t, res.ProviderID)
	assert.Equal(t, providerA, *res.ProviderID)
	require.NotNil(t, res.ParticipantID)
	assert.Equal(t, participant, *res.ParticipantID)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, models.MatchMethodABN, res.Method)
	assert.Contains(t, res.ProviderDetails, "Bright Futures")
	assert.Contains(t, res.ParticipantDetails, "430123456")
}

func TestMatch_ABNGroupedFallback(t *testing.T) {
	store := seededStore()
	m, _ := newTestMatcher(store)

	res := m.Match(context.Background(), models.ExtractedInvoiceData{ABN: str("51824753556")}, "")

	require.NotNil(t, res.ProviderID)
	assert.Equal(t, providerB, *res.ProviderID)
	assert.Equal(t, []string{"51824753556", "51 824 753 556"}, store.abnQueries)
	assert.Nil(t, res.ParticipantID)
	assert.Equal(t, NoParticipantMatch, res.ParticipantDetails)
}

func TestMatch_NoMatch(t *testing.T) {
	m, _ := newTestMatcher(seededStore())

	res := m.Match(context.Background(), models.ExtractedInvoiceData{}, "")

	assert.Nil(t, res.ProviderID)
	assert.Nil(t, res.ParticipantID)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, models.MatchMethodNone, res.Method)
	assert.Equal(t, NoProviderMatch, res.ProviderDetails)
	assert.Equal(t, NoParticipantMatch, res.ParticipantDetails)
}

func TestMatch_EmailAssociation(t *testing.T) {
	tests := []struct {
		name   string
		assocs []models.ProviderEmailAssociation
		want   *uuid.UUID
	}{
		{
			name:   "unverified single provider",
			assocs: []models.ProviderEmailAssociation{{ProviderID: providerA, Email: "billing@bright.com.au"}},
			want:   idp(providerA),
		},
		{
			name: "verified wins over unverified",
			assocs: []models.ProviderEmailAssociation{
				{ProviderID: providerA, Email: "billing@bright.com.au"},
				{ProviderID: providerB, Email: "billing@bright.com.au", Verified: true},
			},
			want: idp(providerB),
		},
		{
			name: "ambiguous unverified is skipped",
			assocs: []models.ProviderEmailAssociation{
				{ProviderID: providerA, Email: "billing@bright.com.au"},
				{ProviderID: providerB, Email: "billing@bright.com.au"},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			store.assocs = tt.assocs
			m, _ := newTestMatcher(store)

			res := m.Match(context.Background(), models.ExtractedInvoiceData{}, " Billing@Bright.com.au ")

			if tt.want == nil {
				assert.Nil(t, res.ProviderID)
				assert.Equal(t, models.MatchMethodNone, res.Method)
				return
			}
			require.NotNil(t, res.ProviderID)
			assert.Equal(t, *tt.want, *res.ProviderID)
			assert.Equal(t, models.MatchMethodEmail, res.Method)
			assert.Equal(t, 1.0, res.Confidence)
		})
	}
}

func TestMatch_DomainTier(t *testing.T) {
	store := seededStore()
	store.assocs = []models.ProviderEmailAssociation{
		{ProviderID: providerA, Email: "accounts@bright.com.au", Verified: true},
		{ProviderID: providerA, Email: "admin@bright.com.au"},
		{ProviderID: providerA, Email: "someone@gmail.com"},
		{ProviderID: providerA, Email: "ops@shared.com.au"},
		{ProviderID: providerB, Email: "ops2@shared.com.au"},
	}
	m, _ := newTestMatcher(store)
	ctx := context.Background()

	res := m.Match(ctx, models.ExtractedInvoiceData{}, "new.person@bright.com.au")
	require.NotNil(t, res.ProviderID)
	assert.Equal(t, providerA, *res.ProviderID)
	assert.Equal(t, models.MatchMethodDomain, res.Method)
	assert.Equal(t, 0.7, res.Confidence)

	res = m.Match(ctx, models.ExtractedInvoiceData{}, "new.person@shared.com.au")
	assert.Nil(t, res.ProviderID, "two providers own the domain")

	res = m.Match(ctx, models.ExtractedInvoiceData{}, "stranger@gmail.com")
	assert.Nil(t, res.ProviderID, "public domains never match")
}

func TestMatch_Tier1BeatsTier2(t *testing.T) {
	store := seededStore()
	store.assocs = []models.ProviderEmailAssociation{{ProviderID: providerB, Email: "accounts@allied.com.au"}}
	m, _ := newTestMatcher(store)

	res := m.Match(context.Background(), models.ExtractedInvoiceData{ABN: str("11 111 111 111")}, "someone@allied.com.au")

	require.NotNil(t, res.ProviderID)
	assert.Equal(t, providerA, *res.ProviderID)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, models.MatchMethodABN, res.Method)
}

func TestMatch_Historical(t *testing.T) {
	sender := "invoices@carers.com.au"
	store := seededStore()
	store.history = []historyRow{
		history(sender, 1, idp(providerB), idp(participant)),
		history(sender, 10, idp(providerB), idp(participant)),
		history(sender, 30, idp(providerB), idp(otherPart)),
		history(sender, 45, idp(providerA), nil),
		history(sender, 200, idp(providerA), idp(otherPart)),
		history(sender, 200, idp(providerA), idp(otherPart)),
		history("other@carers.com.au", 2, idp(providerA), idp(participant)),
	}
	m, _ := newTestMatcher(store)

	res := m.Match(context.Background(), models.ExtractedInvoiceData{}, sender)

	require.NotNil(t, res.ProviderID)
	assert.Equal(t, providerB, *res.ProviderID)
	assert.Equal(t, models.MatchMethodHistorical, res.Method)
	assert.Equal(t, 0.8, res.Confidence)
	assert.Contains(t, res.ProviderDetails, "3 of 4")
	assert.Nil(t, res.ParticipantID, "participant only seen twice in the window")
	assert.Equal(t, 1, store.historyCalls, "history is loaded once per match")
}

func TestMatch_HistoricalTieIsNoMatch(t *testing.T) {
	sender := "invoices@carers.com.au"
	store := seededStore()
	for i := 0; i < 3; i++ {
		store.history = append(store.history,
			history(sender, i+1, idp(providerA), idp(participant)),
			history(sender, i+1, idp(providerB), idp(participant)))
	}
	m, _ := newTestMatcher(store)

	res := m.Match(context.Background(), models.ExtractedInvoiceData{}, sender)

	assert.Nil(t, res.ProviderID)
	require.NotNil(t, res.ParticipantID)
	assert.Equal(t, participant, *res.ParticipantID)
	assert.Equal(t, models.MatchMethodHistorical, res.Method)
}

func TestMatch_ConfidenceFromStrongestSide(t *testing.T) {
	store := seededStore()
	store.assocs = []models.ProviderEmailAssociation{{ProviderID: providerA, Email: "a@bright.com.au"}}
	m, _ := newTestMatcher(store)

	res := m.Match(context.Background(), models.ExtractedInvoiceData{NDISNumber: str("430123456")}, "b@bright.com.au")

	require.NotNil(t, res.ProviderID)
	require.NotNil(t, res.ParticipantID)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, models.MatchMethodNDIS, res.Method)
}

func TestMatch_LookupErrorsDegrade(t *testing.T) {
	store := seededStore()
	store.failLookups = true
	m, logger := newTestMatcher(store)

	res := m.Match(context.Background(), models.ExtractedInvoiceData{ABN: str("11111111111"), NDISNumber: str("430123456")}, "x@bright.com.au")

	assert.Nil(t, res.ProviderID)
	assert.Nil(t, res.ParticipantID)
	assert.Equal(t, models.MatchMethodNone, res.Method)
	assert.True(t, logger.HasEntry("WARN", "Match lookup failed, continuing with next tier"))
}

func TestRecordConfirmation_Promotion(t *testing.T) {
	store := seededStore()
	m, _ := newTestMatcher(store)
	ctx := context.Background()
	sender := "Accounts@NewProvider.com.au"

	before := m.Match(ctx, models.ExtractedInvoiceData{}, sender)
	assert.Nil(t, before.ProviderID)

	assoc, outcome, err := m.RecordConfirmation(ctx, providerA, sender)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.False(t, assoc.Verified)
	assert.Equal(t, "accounts@newprovider.com.au", assoc.Email)

	assoc, outcome, err = m.RecordConfirmation(ctx, providerA, sender)
	require.NoError(t, err)
	assert.Equal(t, OutcomePromoted, outcome)
	assert.True(t, assoc.Verified)

	assoc, outcome, err = m.RecordConfirmation(ctx, providerA, sender)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.True(t, assoc.Verified)
	require.Len(t, store.assocs, 1)

	after := m.Match(ctx, models.ExtractedInvoiceData{}, sender)
	require.NotNil(t, after.ProviderID)
	assert.Equal(t, providerA, *after.ProviderID)
	assert.Equal(t, models.MatchMethodEmail, after.Method)
}

func TestRecordConfirmation_Validation(t *testing.T) {
	m, _ := newTestMatcher(seededStore())
	ctx := context.Background()

	_, _, err := m.RecordConfirmation(ctx, uuid.Nil, "a@b.com")
	var vErr *domainerror.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "provider_id", vErr.Field)

	_, _, err = m.RecordConfirmation(ctx, providerA, "not-an-email")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)
}

func TestStrategyResults_Summary(t *testing.T) {
	results := StrategyResults{Results: []StrategyResult{
		{Strategy: "ABN", Side: SideProvider},
		{Strategy: "Email", Side: SideProvider, Error: errLookup},
		{Strategy: "NDIS", Side: SideParticipant, Found: true},
	}}

	assert.Equal(t, "ABN/provider:no_match, Email/provider:failed, NDIS/participant:success", results.Summary())
	assert.Len(t, results.GetErrors(), 1)
	best, ok := results.Best(SideParticipant)
	assert.True(t, ok)
	assert.Equal(t, "NDIS", best.Strategy)
	_, ok = results.Best(SideProvider)
	assert.False(t, ok)
}
