package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/textutils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaveInvoice upserts the invoice and replaces its lines.
func (s *Store) SaveInvoice(ctx context.Context, inv models.Invoice) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx, `
			INSERT INTO invoices (id, invoice_number, provider_id, participant_id, sender_email, match_method,
				invoice_date, subtotal, gst, total, status, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET invoice_number = excluded.invoice_number,
				provider_id = excluded.provider_id, participant_id = excluded.participant_id,
				sender_email = excluded.sender_email, match_method = excluded.match_method,
				invoice_date = excluded.invoice_date, subtotal = excluded.subtotal, gst = excluded.gst,
				total = excluded.total, status = excluded.status, updated_at = excluded.updated_at,
				deleted_at = excluded.deleted_at`,
			inv.ID.String(), inv.InvoiceNumber, nullUUID(inv.ProviderID), nullUUID(inv.ParticipantID),
			textutils.NormalizeEmail(inv.SenderEmail), string(inv.MatchMethod), formatTime(inv.InvoiceDate),
			inv.Subtotal, inv.GST, inv.Total, string(inv.Status),
			formatTime(inv.CreatedAt), formatTime(inv.UpdatedAt), nullTime(inv.DeletedAt))
		if err != nil {
			return fmt.Errorf("failed to save invoice %s: %w", inv.ID, err)
		}

		if _, err := s.exec(ctx, tx, `DELETE FROM invoice_lines WHERE invoice_id = ?`, inv.ID.String()); err != nil {
			return fmt.Errorf("failed to clear invoice lines: %w", err)
		}
		for i, l := range inv.Lines {
			_, err := s.exec(ctx, tx, `
				INSERT INTO invoice_lines (id, invoice_id, position, item_code, item_name, category_code,
					service_date, quantity, unit_price, line_total, gst)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				l.ID.String(), inv.ID.String(), i, l.ItemCode, l.ItemName, l.CategoryCode,
				formatTime(l.ServiceDate), l.Quantity.String(), l.UnitPrice, l.LineTotal, l.GST)
			if err != nil {
				return fmt.Errorf("failed to save invoice line %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetInvoice returns a non-deleted invoice with its lines.
func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	var rawID, invoiceDate, status, method, created, updated string
	var providerID, participantID, deleted sql.NullString
	err := s.queryRow(ctx, s.db, `
		SELECT id, invoice_number, provider_id, participant_id, sender_email, match_method,
			invoice_date, subtotal, gst, total, status, created_at, updated_at, deleted_at
		FROM invoices WHERE id = ? AND deleted_at IS NULL`, id.String()).
		Scan(&rawID, &inv.InvoiceNumber, &providerID, &participantID, &inv.SenderEmail, &method,
			&invoiceDate, &inv.Subtotal, &inv.GST, &inv.Total, &status, &created, &updated, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domainerror.NotFoundError{Entity: "invoice", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice %s: %w", id, err)
	}

	inv.ID = id
	inv.MatchMethod = models.MatchMethod(method)
	inv.Status = models.InvoiceStatus(status)
	if inv.ProviderID, err = parseNullUUID(providerID); err != nil {
		return nil, err
	}
	if inv.ParticipantID, err = parseNullUUID(participantID); err != nil {
		return nil, err
	}
	if inv.InvoiceDate, err = parseTime(invoiceDate); err != nil {
		return nil, err
	}
	if inv.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if inv.DeletedAt, err = parseNullTime(deleted); err != nil {
		return nil, err
	}

	if inv.Lines, err = s.invoiceLines(ctx, id); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Store) invoiceLines(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLine, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, item_code, item_name, category_code, service_date, quantity, unit_price, line_total, gst
		FROM invoice_lines WHERE invoice_id = ? ORDER BY position`, invoiceID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice lines: %w", err)
	}
	defer rows.Close()

	var lines []models.InvoiceLine
	for rows.Next() {
		l := models.InvoiceLine{InvoiceID: invoiceID}
		var id, serviceDate, quantity string
		if err := rows.Scan(&id, &l.ItemCode, &l.ItemName, &l.CategoryCode, &serviceDate, &quantity,
			&l.UnitPrice, &l.LineTotal, &l.GST); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		if l.ID, err = uuid.Parse(id); err != nil {
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

// FindResolvedInvoicesBySender returns resolved, non-deleted invoices from sender
// created at or after since, oldest first.
func (s *Store) FindResolvedInvoicesBySender(ctx context.Context, sender string, since time.Time) ([]models.MatchHistoryEntry, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, provider_id, participant_id FROM invoices
		WHERE sender_email = ? AND created_at >= ? AND deleted_at IS NULL
			AND (provider_id IS NOT NULL OR participant_id IS NOT NULL)
		ORDER BY created_at, id`,
		textutils.NormalizeEmail(sender), formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query sender history: %w", err)
	}
	defer rows.Close()

	var out []models.MatchHistoryEntry
	for rows.Next() {
		var id string
		var providerID, participantID sql.NullString
		if err := rows.Scan(&id, &providerID, &participantID); err != nil {
			return nil, fmt.Errorf("failed to scan sender history: %w", err)
		}
		var e models.MatchHistoryEntry
		if e.InvoiceID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if e.ProviderID, err = parseNullUUID(providerID); err != nil {
			return nil, err
		}
		if e.ParticipantID, err = parseNullUUID(participantID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
