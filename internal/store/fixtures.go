package store

import (
	"context"
	"fmt"
	"os"

	"fjacquet/claimflow/internal/fileutils"
	"fjacquet/claimflow/internal/models"

	"gopkg.in/yaml.v3"
)

// Fixtures is the YAML document used to seed a store.
type Fixtures struct {
	Providers    []models.Provider                 `yaml:"providers"`
	Participants []models.Participant              `yaml:"participants"`
	Associations []models.ProviderEmailAssociation `yaml:"associations"`
	Invoices     []models.Invoice                  `yaml:"invoices"`
	Claims       []models.Claim                    `yaml:"claims"`
	Payments     []models.Payment                  `yaml:"payments"`
	Batches      []models.PaymentBatchFile         `yaml:"batches"`
}

// LoadFixtures reads a fixtures file. A missing file yields empty fixtures.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return &Fixtures{}, nil
		}
		return nil, fmt.Errorf("error reading fixtures file: %w", err)
	}
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("error parsing fixtures file %s: %w", path, err)
	}
	return &fx, nil
}

// Seed writes every fixture entity through w, directories first.
func Seed(ctx context.Context, w Writer, fx *Fixtures) error {
	if fx == nil {
		return nil
	}
	for _, p := range fx.Providers {
		if err := w.SaveProvider(ctx, p); err != nil {
			return fmt.Errorf("seeding provider %s: %w", p.ID, err)
		}
	}
	for _, p := range fx.Participants {
		if err := w.SaveParticipant(ctx, p); err != nil {
			return fmt.Errorf("seeding participant %s: %w", p.ID, err)
		}
	}
	for _, a := range fx.Associations {
		if err := w.SaveAssociation(ctx, a); err != nil {
			return fmt.Errorf("seeding association %s: %w", a.Email, err)
		}
	}
	for _, inv := range fx.Invoices {
		if err := w.SaveInvoice(ctx, inv); err != nil {
			return fmt.Errorf("seeding invoice %s: %w", inv.ID, err)
		}
	}
	for _, c := range fx.Claims {
		if err := w.SaveClaim(ctx, c); err != nil {
			return fmt.Errorf("seeding claim %s: %w", c.Reference, err)
		}
	}
	for _, b := range fx.Batches {
		if err := w.SaveBatchFile(ctx, b); err != nil {
			return fmt.Errorf("seeding batch %s: %w", b.Filename, err)
		}
	}
	for _, p := range fx.Payments {
		if err := w.SavePayment(ctx, p); err != nil {
			return fmt.Errorf("seeding payment %s: %w", p.ID, err)
		}
	}
	return nil
}

// SaveFixtures writes fx as YAML, for exporting a store's contents.
func SaveFixtures(path string, fx *Fixtures) error {
	data, err := yaml.Marshal(fx)
	if err != nil {
		return fmt.Errorf("error marshaling fixtures: %w", err)
	}
	if err := fileutils.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("error writing fixtures file: %w", err)
	}
	return nil
}
