package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
providers:
  - id: "6f1c2d7e-7a51-4a6c-9d61-1f0c3e0a8b11"
    name: Bright Futures Support Services
    abn: "11111111111"
    bsb: "062-000"
    account_number: "12345678"
participants:
  - id: "0b8e9a3c-5d2f-4c1b-8e7a-2a9d4c6b1e22"
    name: Sam Citizen
    ndis_number: "430123456"
associations:
  - provider_id: "6f1c2d7e-7a51-4a6c-9d61-1f0c3e0a8b11"
    email: billing@bright.com.au
    verified: true
invoices:
  - id: "9d7c6b5a-4e3f-4a2b-9c1d-0e8f7a6b5c33"
    invoice_number: INV-10234
    provider_id: "6f1c2d7e-7a51-4a6c-9d61-1f0c3e0a8b11"
    participant_id: "0b8e9a3c-5d2f-4c1b-8e7a-2a9d4c6b1e22"
    invoice_date: 2026-10-14T00:00:00Z
    total: 38798
    status: approved
    lines:
      - id: "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c44"
        invoice_id: "9d7c6b5a-4e3f-4a2b-9c1d-0e8f7a6b5c33"
        item_code: 15_042_0128_1_3
        item_name: Support Coordination
        category_code: "15"
        service_date: 2026-10-01T00:00:00Z
        quantity: "2.0"
        unit_price: 19399
        line_total: 38798
claims:
  - id: "5c4b3a29-1807-4f6e-8d5c-4b3a29180755"
    reference: CLM-20261019-0003
    invoice_id: "9d7c6b5a-4e3f-4a2b-9c1d-0e8f7a6b5c33"
    total: 38798
    status: pending
`

func TestLoadFixturesAndSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0600))

	fx, err := LoadFixtures(path)
	require.NoError(t, err)
	require.Len(t, fx.Providers, 1)
	require.Len(t, fx.Invoices, 1)
	require.Len(t, fx.Invoices[0].Lines, 1)
	assert.Equal(t, "2", fx.Invoices[0].Lines[0].Quantity.String())
	assert.Equal(t, models.InvoiceStatusApproved, fx.Invoices[0].Status)

	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, Seed(ctx, s, fx))

	p, err := s.FindProviderByABN(ctx, "11111111111")
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("6f1c2d7e-7a51-4a6c-9d61-1f0c3e0a8b11"), p.ID)

	assocs, err := s.FindAssociationsByEmail(ctx, "billing@bright.com.au")
	require.NoError(t, err)
	require.Len(t, assocs, 1)
	assert.True(t, assocs[0].Verified)

	n, err := s.Next(ctx, "claim:20261019")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n, "imported references advance the sequence")
}

func TestLoadFixtures_Missing(t *testing.T) {
	fx, err := LoadFixtures(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, fx.Providers)
}

func TestLoadFixtures_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers: [unclosed"), 0600))
	_, err := LoadFixtures(path)
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	fx := seedStore(t)
	path := filepath.Join(t.TempDir(), "snapshot.yaml")

	require.NoError(t, SaveFixtures(path, fx.store.Snapshot()))
	loaded, err := LoadFixtures(path)
	require.NoError(t, err)

	restored := NewMemoryStore()
	require.NoError(t, Seed(context.Background(), restored, loaded))
	inv, err := restored.GetInvoice(context.Background(), fx.invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.invoice.Total, inv.Total)
	assert.Equal(t, "billing@bright.com.au", inv.SenderEmail)
	require.Len(t, inv.Lines, 1)
	assert.True(t, fx.invoice.Lines[0].Quantity.Equal(inv.Lines[0].Quantity))
}
