package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/textutils"

	"github.com/google/uuid"
)

const providerColumns = "id, name, abn, email, bsb, account_number, account_name"

func (s *Store) SaveProvider(ctx context.Context, p models.Provider) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO providers (`+providerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, abn = excluded.abn, email = excluded.email,
			bsb = excluded.bsb, account_number = excluded.account_number, account_name = excluded.account_name`,
		p.ID.String(), p.Name, p.ABN, p.Email, p.BSB, p.AccountNumber, p.AccountName)
	if err != nil {
		return fmt.Errorf("failed to save provider %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) GetProvider(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+providerColumns+` FROM providers WHERE id = ?`, id.String())
	return scanProvider(row, id.String())
}

func (s *Store) FindProviderByABN(ctx context.Context, abn string) (*models.Provider, error) {
	row := s.queryRow(ctx, s.db, `SELECT `+providerColumns+` FROM providers WHERE abn = ? ORDER BY id LIMIT 1`, abn)
	return scanProvider(row, abn)
}

func scanProvider(row *sql.Row, key string) (*models.Provider, error) {
	var p models.Provider
	var id string
	err := row.Scan(&id, &p.Name, &p.ABN, &p.Email, &p.BSB, &p.AccountNumber, &p.AccountName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domainerror.NotFoundError{Entity: "provider", ID: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load provider %s: %w", key, err)
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid provider id %q: %w", id, err)
	}
	return &p, nil
}

func (s *Store) SaveParticipant(ctx context.Context, p models.Participant) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO participants (id, name, ndis_number) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, ndis_number = excluded.ndis_number`,
		p.ID.String(), p.Name, p.NDISNumber)
	if err != nil {
		return fmt.Errorf("failed to save participant %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) FindParticipantByNDIS(ctx context.Context, ndisNumber string) (*models.Participant, error) {
	var p models.Participant
	var id string
	err := s.queryRow(ctx, s.db, `SELECT id, name, ndis_number FROM participants WHERE ndis_number = ? ORDER BY id LIMIT 1`, ndisNumber).
		Scan(&id, &p.Name, &p.NDISNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domainerror.NotFoundError{Entity: "participant", ID: ndisNumber}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load participant %s: %w", ndisNumber, err)
	}
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid participant id %q: %w", id, err)
	}
	return &p, nil
}

// --- email associations ---

const associationColumns = "provider_id, email, verified, created_at, updated_at"

func (s *Store) SaveAssociation(ctx context.Context, a models.ProviderEmailAssociation) error {
	email := textutils.NormalizeEmail(a.Email)
	_, err := s.exec(ctx, s.db, `
		INSERT INTO email_associations (provider_id, email, domain, verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider_id, email) DO UPDATE SET verified = excluded.verified, updated_at = excluded.updated_at`,
		a.ProviderID.String(), email, textutils.EmailDomain(email), boolToInt(a.Verified),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save email association %s: %w", email, err)
	}
	return nil
}

func (s *Store) GetAssociation(ctx context.Context, providerID uuid.UUID, email string) (*models.ProviderEmailAssociation, error) {
	email = textutils.NormalizeEmail(email)
	rows, err := s.query(ctx, s.db, `SELECT `+associationColumns+` FROM email_associations WHERE provider_id = ? AND email = ?`,
		providerID.String(), email)
	if err != nil {
		return nil, fmt.Errorf("failed to load email association: %w", err)
	}
	assocs, err := scanAssociations(rows)
	if err != nil {
		return nil, err
	}
	if len(assocs) == 0 {
		return nil, &domainerror.NotFoundError{Entity: "email association", ID: providerID.String() + "/" + email}
	}
	return &assocs[0], nil
}

func (s *Store) FindAssociationsByEmail(ctx context.Context, email string) ([]models.ProviderEmailAssociation, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+associationColumns+` FROM email_associations WHERE email = ? ORDER BY provider_id`,
		textutils.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to query email associations: %w", err)
	}
	return scanAssociations(rows)
}

func (s *Store) FindProviderIDsByEmailDomain(ctx context.Context, domain string) ([]uuid.UUID, error) {
	rows, err := s.query(ctx, s.db, `SELECT DISTINCT provider_id FROM email_associations WHERE domain = ? ORDER BY provider_id`,
		textutils.NormalizeEmail(domain))
	if err != nil {
		return nil, fmt.Errorf("failed to query email domain %s: %w", domain, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid provider id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanAssociations(rows *sql.Rows) ([]models.ProviderEmailAssociation, error) {
	defer rows.Close()
	var out []models.ProviderEmailAssociation
	for rows.Next() {
		var a models.ProviderEmailAssociation
		var providerID, created, updated string
		var verified int
		if err := rows.Scan(&providerID, &a.Email, &verified, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan email association: %w", err)
		}
		var err error
		if a.ProviderID, err = uuid.Parse(providerID); err != nil {
			return nil, fmt.Errorf("invalid provider id %q: %w", providerID, err)
		}
		a.Verified = verified != 0
		if a.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if a.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
