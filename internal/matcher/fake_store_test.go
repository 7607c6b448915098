package matcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
)

type historyRow struct {
	sender string
	at     time.Time
	entry  models.MatchHistoryEntry
}

type fakeStore struct {
	mu           sync.Mutex
	providers    []models.Provider
	participants []models.Participant
	assocs       []models.ProviderEmailAssociation
	history      []historyRow
	failLookups  bool
	abnQueries   []string
	historyCalls int
}

var errLookup = errors.New("lookup failed")

func (f *fakeStore) FindProviderByABN(_ context.Context, abn string) (*models.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abnQueries = append(f.abnQueries, abn)
	if f.failLookups {
		return nil, errLookup
	}
	for _, p := range f.providers {
		if p.ABN == abn {
			p := p
			return &p, nil
		}
	}
	return nil, &domainerror.NotFoundError{Entity: "provider", ID: abn}
}

func (f *fakeStore) FindParticipantByNDIS(_ context.Context, n string) (*models.Participant, error) {
	if f.failLookups {
		return nil, errLookup
	}
	for _, p := range f.participants {
		if p.NDISNumber == n {
			p := p
			return &p, nil
		}
	}
	return nil, &domainerror.NotFoundError{Entity: "participant", ID: n}
}

func (f *fakeStore) FindAssociationsByEmail(_ context.Context, email string) ([]models.ProviderEmailAssociation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLookups {
		return nil, errLookup
	}
	var out []models.ProviderEmailAssociation
	for _, a := range f.assocs {
		if a.Email == email {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) FindProviderIDsByEmailDomain(_ context.Context, domain string) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLookups {
		return nil, errLookup
	}
	var out []uuid.UUID
	for _, a := range f.assocs {
		if strings.HasSuffix(a.Email, "@"+domain) {
			out = append(out, a.ProviderID)
		}
	}
	return out, nil
}

func (f *fakeStore) FindResolvedInvoicesBySender(_ context.Context, sender string, since time.Time) ([]models.MatchHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.failLookups {
		return nil, errLookup
	}
	var out []models.MatchHistoryEntry
	for _, h := range f.history {
		if h.sender == sender && !h.at.Before(since) {
			out = append(out, h.entry)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAssociation(_ context.Context, providerID uuid.UUID, email string) (*models.ProviderEmailAssociation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assocs {
		if a.ProviderID == providerID && a.Email == email {
			a := a
			return &a, nil
		}
	}
	return nil, &domainerror.NotFoundError{Entity: "email association", ID: email}
}

func (f *fakeStore) SaveAssociation(_ context.Context, assoc models.ProviderEmailAssociation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.assocs {
		if a.ProviderID == assoc.ProviderID && a.Email == assoc.Email {
			f.assocs[i] = assoc
			return nil
		}
	}
	f.assocs = append(f.assocs, assoc)
	return nil
}
