package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fjacquet/claimflow/internal/aba"
	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
)

const paymentColumns = "p.id, p.claim_id, p.amount, p.bsb, p.account_number, p.account_name, p.reference, " +
	"p.status, p.batch_id, p.created_at, p.submitted_at, p.cleared_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner, extra ...any) (models.Payment, error) {
	var p models.Payment
	var id, claimID, status, created string
	var batchID, submitted, cleared sql.NullString
	dest := append([]any{&id, &claimID, &p.Amount, &p.BSB, &p.AccountNumber, &p.AccountName, &p.Reference,
		&status, &batchID, &created, &submitted, &cleared}, extra...)
	if err := row.Scan(dest...); err != nil {
		return p, err
	}

	var err error
	p.Status = models.PaymentStatus(status)
	if p.ID, err = uuid.Parse(id); err != nil {
		return p, err
	}
	if p.ClaimID, err = uuid.Parse(claimID); err != nil {
		return p, err
	}
	if p.BatchID, err = parseNullUUID(batchID); err != nil {
		return p, err
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return p, err
	}
	if p.SubmittedAt, err = parseNullTime(submitted); err != nil {
		return p, err
	}
	if p.ClearedAt, err = parseNullTime(cleared); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Store) SavePayment(ctx context.Context, p models.Payment) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO payments (id, claim_id, amount, bsb, account_number, account_name, reference,
			status, batch_id, created_at, submitted_at, cleared_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET claim_id = excluded.claim_id, amount = excluded.amount,
			bsb = excluded.bsb, account_number = excluded.account_number, account_name = excluded.account_name,
			reference = excluded.reference, status = excluded.status, batch_id = excluded.batch_id,
			submitted_at = excluded.submitted_at, cleared_at = excluded.cleared_at`,
		p.ID.String(), p.ClaimID.String(), p.Amount, p.BSB, p.AccountNumber, p.AccountName, p.Reference,
		string(p.Status), nullUUID(p.BatchID), formatTime(p.CreatedAt), nullTime(p.SubmittedAt), nullTime(p.ClearedAt))
	if err != nil {
		return fmt.Errorf("failed to save payment %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	p, err := scanPayment(s.queryRow(ctx, s.db, `SELECT `+paymentColumns+` FROM payments p WHERE p.id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domainerror.NotFoundError{Entity: "payment", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment %s: %w", id, err)
	}
	return &p, nil
}

// ListPaymentsByStatus returns payments in status, oldest first.
func (s *Store) ListPaymentsByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	rows, err := s.query(ctx, s.db, `SELECT `+paymentColumns+` FROM payments p WHERE p.status = ? ORDER BY p.created_at, p.id`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s payments: %w", status, err)
	}
	defer rows.Close()

	var out []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPendingPayments keeps the order of ids and drops unknown or non-pending ones.
func (s *Store) GetPendingPayments(ctx context.Context, ids []uuid.UUID) ([]models.PaymentInstruction, error) {
	if len(ids) == 0 {
		return []models.PaymentInstruction{}, nil
	}
	args := append([]any{string(models.PaymentStatusPending)}, uuidArgs(ids)...)
	rows, err := s.query(ctx, s.db, `
		SELECT `+paymentColumns+`, COALESCE(c.reference, '')
		FROM payments p LEFT JOIN claims c ON c.id = p.claim_id
		WHERE p.status = ? AND p.id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending payments: %w", err)
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]models.PaymentInstruction, len(ids))
	for rows.Next() {
		var ref string
		p, err := scanPayment(rows, &ref)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		byID[p.ID] = models.PaymentInstruction{Payment: p, ClaimReference: ref}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.PaymentInstruction, 0, len(byID))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if pi, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, pi)
		}
	}
	return out, nil
}

// SaveBatch inserts the batch and moves its payments from pending to included_in_file.
func (s *Store) SaveBatch(ctx context.Context, batch models.PaymentBatchFile, paymentIDs []uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.insertBatch(ctx, tx, batch); err != nil {
			return err
		}
		for _, id := range paymentIDs {
			res, err := s.exec(ctx, tx, `UPDATE payments SET status = ?, batch_id = ? WHERE id = ? AND status = ?`,
				string(models.PaymentStatusIncluded), batch.ID.String(), id.String(), string(models.PaymentStatusPending))
			if err != nil {
				return fmt.Errorf("failed to include payment %s: %w", id, err)
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n != 1 {
				return &domainerror.ConflictError{Entity: "payment", ID: id.String(), Want: string(models.PaymentStatusPending)}
			}
		}
		return nil
	})
}

// SaveBatchFile imports an existing batch and advances its day's file sequence past it.
func (s *Store) SaveBatchFile(ctx context.Context, b models.PaymentBatchFile) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM payment_batches WHERE id = ?`, b.ID.String()); err != nil {
			return fmt.Errorf("failed to replace payment batch %s: %w", b.ID, err)
		}
		return s.insertBatch(ctx, tx, b)
	})
	if err != nil {
		return err
	}
	scope, n := aba.BatchSequence(b)
	return s.Seed(ctx, scope, n)
}

func (s *Store) insertBatch(ctx context.Context, tx *sql.Tx, b models.PaymentBatchFile) error {
	_, err := s.exec(ctx, tx, `
		INSERT INTO payment_batches (id, filename, sequence, total_amount, payment_count, generated_at,
			bank_reference, submitted_at, cleared_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.Filename, b.Sequence, b.TotalAmount, b.PaymentCount, formatTime(b.GeneratedAt),
		b.BankReference, nullTime(b.SubmittedAt), nullTime(b.ClearedAt))
	if err != nil {
		return fmt.Errorf("failed to save payment batch %s: %w", b.Filename, err)
	}
	return nil
}

func (s *Store) GetBatch(ctx context.Context, id uuid.UUID) (*models.PaymentBatchFile, error) {
	return s.getBatch(ctx, s.db, id)
}

func (s *Store) getBatch(ctx context.Context, q queryer, id uuid.UUID) (*models.PaymentBatchFile, error) {
	var b models.PaymentBatchFile
	var rawID, generated string
	var submitted, cleared sql.NullString
	err := s.queryRow(ctx, q, `
		SELECT id, filename, sequence, total_amount, payment_count, generated_at, bank_reference, submitted_at, cleared_at
		FROM payment_batches WHERE id = ?`, id.String()).
		Scan(&rawID, &b.Filename, &b.Sequence, &b.TotalAmount, &b.PaymentCount, &generated, &b.BankReference, &submitted, &cleared)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domainerror.NotFoundError{Entity: "payment batch", ID: id.String()}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment batch %s: %w", id, err)
	}

	b.ID = id
	if b.GeneratedAt, err = parseTime(generated); err != nil {
		return nil, err
	}
	if b.SubmittedAt, err = parseNullTime(submitted); err != nil {
		return nil, err
	}
	if b.ClearedAt, err = parseNullTime(cleared); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) MarkBatchSubmitted(ctx context.Context, batchID uuid.UUID, bankReference string, at time.Time) (*models.PaymentBatchFile, error) {
	var out *models.PaymentBatchFile
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, `
			UPDATE payment_batches SET bank_reference = ?, submitted_at = ?
			WHERE id = ? AND submitted_at IS NULL`,
			bankReference, formatTime(at), batchID.String())
		if err != nil {
			return fmt.Errorf("failed to submit payment batch %s: %w", batchID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n != 1 {
			if _, err := s.getBatch(ctx, tx, batchID); err != nil {
				return err
			}
			return &domainerror.ConflictError{Entity: "payment batch", ID: batchID.String(), Want: "unsubmitted"}
		}

		if _, err := s.exec(ctx, tx, `
			UPDATE payments SET status = ?, submitted_at = ? WHERE batch_id = ? AND status = ?`,
			string(models.PaymentStatusSubmitted), formatTime(at), batchID.String(), string(models.PaymentStatusIncluded)); err != nil {
			return fmt.Errorf("failed to submit batch payments: %w", err)
		}

		out, err = s.getBatch(ctx, tx, batchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPaymentsCleared requires every payment to be submitted (already cleared ones
// are skipped) and cascades to claims, invoices and fully cleared batches.
func (s *Store) MarkPaymentsCleared(ctx context.Context, paymentIDs []uuid.UUID, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		type target struct {
			claimID string
			batchID sql.NullString
		}
		var pending []target
		for _, id := range paymentIDs {
			var status, claimID string
			var batchID sql.NullString
			err := s.queryRow(ctx, tx, `SELECT status, claim_id, batch_id FROM payments WHERE id = ?`, id.String()).
				Scan(&status, &claimID, &batchID)
			if errors.Is(err, sql.ErrNoRows) {
				return &domainerror.NotFoundError{Entity: "payment", ID: id.String()}
			}
			if err != nil {
				return fmt.Errorf("failed to load payment %s: %w", id, err)
			}
			switch models.PaymentStatus(status) {
			case models.PaymentStatusCleared:
				continue
			case models.PaymentStatusSubmitted:
				pending = append(pending, target{claimID: claimID, batchID: batchID})
			default:
				return &domainerror.StatusError{Entity: "payment", ID: id.String(), Actual: status, Expected: string(models.PaymentStatusSubmitted)}
			}
		}
		if len(pending) == 0 {
			return nil
		}

		stamp := formatTime(at)
		args := append([]any{string(models.PaymentStatusCleared), stamp, string(models.PaymentStatusSubmitted)}, uuidArgs(paymentIDs)...)
		if _, err := s.exec(ctx, tx, `UPDATE payments SET status = ?, cleared_at = ?
			WHERE status = ? AND id IN (`+placeholders(len(paymentIDs))+`)`, args...); err != nil {
			return fmt.Errorf("failed to clear payments: %w", err)
		}

		batches := make(map[string]bool)
		for _, t := range pending {
			if _, err := s.exec(ctx, tx, `UPDATE claims SET status = ? WHERE id = ?`,
				string(models.ClaimStatusPaid), t.claimID); err != nil {
				return fmt.Errorf("failed to mark claim %s paid: %w", t.claimID, err)
			}
			if _, err := s.exec(ctx, tx, `
				UPDATE invoices SET status = ?, updated_at = ?
				WHERE id = (SELECT invoice_id FROM claims WHERE id = ?)`,
				string(models.InvoiceStatusPaid), stamp, t.claimID); err != nil {
				return fmt.Errorf("failed to mark invoice paid for claim %s: %w", t.claimID, err)
			}
			if t.batchID.Valid {
				batches[t.batchID.String] = true
			}
		}

		for batchID := range batches {
			if _, err := s.exec(ctx, tx, `
				UPDATE payment_batches SET cleared_at = ?
				WHERE id = ? AND cleared_at IS NULL
					AND NOT EXISTS (SELECT 1 FROM payments WHERE batch_id = ? AND status <> ?)`,
				stamp, batchID, batchID, string(models.PaymentStatusCleared)); err != nil {
				return fmt.Errorf("failed to clear payment batch %s: %w", batchID, err)
			}
		}
		return nil
	})
}
