package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fjacquet/claimflow/internal/claims"
	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateClaims inserts the claims and moves each source invoice from approved to
// claimed in one transaction.
func (s *Store) CreateClaims(ctx context.Context, batch []models.Claim) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range batch {
			res, err := s.exec(ctx, tx, `
				UPDATE invoices SET status = ?, updated_at = ?
				WHERE id = ? AND status = ? AND deleted_at IS NULL`,
				string(models.InvoiceStatusClaimed), formatTime(c.CreatedAt),
				c.InvoiceID.String(), string(models.InvoiceStatusApproved))
			if err != nil {
				return fmt.Errorf("failed to claim invoice %s: %w", c.InvoiceID, err)
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n != 1 {
				return &domainerror.ConflictError{Entity: "invoice", ID: c.InvoiceID.String(), Want: string(models.InvoiceStatusApproved)}
			}
			if err := s.insertClaim(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveClaim imports an existing claim and advances the reference sequence past it.
func (s *Store) SaveClaim(ctx context.Context, c models.Claim) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM claims WHERE id = ?`, c.ID.String()); err != nil {
			return fmt.Errorf("failed to replace claim %s: %w", c.ID, err)
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM claim_lines WHERE claim_id = ?`, c.ID.String()); err != nil {
			return fmt.Errorf("failed to replace claim lines: %w", err)
		}
		return s.insertClaim(ctx, tx, c)
	})
	if err != nil {
		return err
	}
	if scope, n, ok := claims.ReferenceSequence(c.Reference); ok {
		return s.Seed(ctx, scope, n)
	}
	return nil
}

func (s *Store) insertClaim(ctx context.Context, tx *sql.Tx, c models.Claim) error {
	_, err := s.exec(ctx, tx, `
		INSERT INTO claims (id, reference, invoice_id, participant_id, provider_id, total, status, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Reference, c.InvoiceID.String(), nullUUID(c.ParticipantID), nullUUID(c.ProviderID),
		c.Total, string(c.Status), c.CreatedBy, formatTime(c.CreatedAt))
	if err != nil {
		if s.referenceTaken(ctx, tx, c) {
			return &domainerror.ConflictError{Entity: "claim reference", ID: c.Reference, Want: "unused"}
		}
		return fmt.Errorf("failed to insert claim %s: %w", c.Reference, err)
	}

	for i, l := range c.Lines {
		_, err := s.exec(ctx, tx, `
			INSERT INTO claim_lines (id, claim_id, position, source_line_id, source_invoice_id, item_code, item_name,
				category_code, service_date, quantity, unit_price, line_total, gst)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID.String(), c.ID.String(), i, l.SourceLineID.String(), l.SourceInvoiceID.String(),
			l.ItemCode, l.ItemName, l.CategoryCode, formatTime(l.ServiceDate), l.Quantity.String(),
			l.UnitPrice, l.LineTotal, l.GST)
		if err != nil {
			return fmt.Errorf("failed to insert claim line %d of %s: %w", i, c.Reference, err)
		}
	}
	return nil
}

// referenceTaken reports whether another claim already holds c's reference. On
// Postgres a failed statement aborts the transaction, so the lookup only runs on SQLite.
func (s *Store) referenceTaken(ctx context.Context, tx *sql.Tx, c models.Claim) bool {
	if s.driver != DriverSQLite {
		return false
	}
	var n int
	err := s.queryRow(ctx, tx, `SELECT COUNT(*) FROM claims WHERE reference = ? AND id <> ?`, c.Reference, c.ID.String()).Scan(&n)
	return err == nil && n > 0
}

func (s *Store) GetClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var c models.Claim
	var rawID, invoiceID, status, created string
	var participantID, providerID sql.NullString
	err := s.queryRow(ctx, s.db, `
		SELECT id, reference, invoice_id, participant_id, provider_id, total, status, created_by, created_at
		FROM claims WHERE id = ?`, id.String()).
		Scan(&rawID, &c.Reference, &invoiceID, &participantID, &providerID, &c.Total, &status, &c.CreatedBy, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domainerror.NotFoundError{Entity: "claim", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load claim %s: %w", id, err)
	}

	c.ID = id
	c.Status = models.ClaimStatus(status)
	if c.InvoiceID, err = uuid.Parse(invoiceID); err != nil {
		return nil, err
	}
	if c.ParticipantID, err = parseNullUUID(participantID); err != nil {
		return nil, err
	}
	if c.ProviderID, err = parseNullUUID(providerID); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.Lines, err = s.claimLines(ctx, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) claimLines(ctx context.Context, claimID uuid.UUID) ([]models.ClaimLine, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, source_line_id, source_invoice_id, item_code, item_name, category_code,
			service_date, quantity, unit_price, line_total, gst
		FROM claim_lines WHERE claim_id = ? ORDER BY position`, claimID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load claim lines: %w", err)
	}
	defer rows.Close()

	var lines []models.ClaimLine
	for rows.Next() {
		l := models.ClaimLine{ClaimID: claimID}
		var id, sourceLine, sourceInvoice, serviceDate, quantity string
		if err := rows.Scan(&id, &sourceLine, &sourceInvoice, &l.ItemCode, &l.ItemName, &l.CategoryCode,
			&serviceDate, &quantity, &l.UnitPrice, &l.LineTotal, &l.GST); err != nil {
			return nil, fmt.Errorf("failed to scan claim line: %w", err)
		}
		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if l.SourceLineID, err = uuid.Parse(sourceLine); err != nil {
			return nil, err
		}
		if l.SourceInvoiceID, err = uuid.Parse(sourceInvoice); err != nil {
			return nil, err
		}
		if l.ServiceDate, err = parseTime(serviceDate); err != nil {
			return nil, err
		}
		if l.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("invalid quantity %q: %w", quantity, err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
