// Package aba generates fixed-width ABA (Cemtex) credit files for pending payments
// and tracks the payments through submission and clearing.
package aba

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"fjacquet/claimflow/internal/dateutils"
	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/sequence"

	"github.com/google/uuid"
)

// maxDailyFiles is the largest sequence the 2-digit header field can carry.
const maxDailyFiles = 99

// Store is the persistence surface used by the Encoder.
type Store interface {
	// GetPendingPayments resolves ids to pending payments with their claim references,
	// in the order given. Unknown or non-pending ids are omitted.
	GetPendingPayments(ctx context.Context, ids []uuid.UUID) ([]models.PaymentInstruction, error)
	// SaveBatch persists batch and moves every listed payment from pending to
	// included_in_file in one transaction. A payment that is no longer pending fails
	// the call with a *domainerror.ConflictError and nothing is written.
	SaveBatch(ctx context.Context, batch models.PaymentBatchFile, paymentIDs []uuid.UUID) error
	// MarkBatchSubmitted records the bank reference and moves the batch's payments to submitted.
	MarkBatchSubmitted(ctx context.Context, batchID uuid.UUID, bankReference string, at time.Time) (*models.PaymentBatchFile, error)
	// MarkPaymentsCleared moves payments to cleared and their claims and source invoices to paid.
	MarkPaymentsCleared(ctx context.Context, paymentIDs []uuid.UUID, at time.Time) error
}

// Config holds the originator details written into every file.
type Config struct {
	BankCode       string
	OriginatorName string
	OriginatorID   string
	Description    string
	TraceBSB       string
	TraceAccount   string
	RemitterName   string
	FilenamePrefix string
	Extension      string
}

// DefaultConfig returns placeholder originator settings.
func DefaultConfig() Config {
	return Config{
		BankCode:       "CBA",
		OriginatorName: "CLAIMFLOW PLAN MANAGEMENT",
		OriginatorID:   "000000",
		Description:    "CLAIMS",
		TraceBSB:       "062-000",
		TraceAccount:   "00000000",
		RemitterName:   "CLAIMFLOW",
		FilenamePrefix: "ABA",
		Extension:      "aba",
	}
}

// File is a generated bank file.
type File struct {
	Content  string
	Filename string
	// Path is where a sink published the file, if any.
	Path  string
	Batch models.PaymentBatchFile
}

// Encoder builds bank files and drives the payment lifecycle.
type Encoder struct {
	store  Store
	seq    sequence.Allocator
	cfg    Config
	logger logging.Logger
	now    func() time.Time
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithClock sets the clock used for the processing date, file name and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEncoder creates an Encoder.
func NewEncoder(store Store, seq sequence.Allocator, cfg Config, logger logging.Logger, opts ...Option) *Encoder {
	e := &Encoder{
		store:  store,
		seq:    seq,
		cfg:    cfg,
		logger: logging.OrDefault(logger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateFile builds a file from the pending payments among paymentIDs and records
// the batch. It fails with domainerror.ErrEmptyBatch when none of them is pending.
func (e *Encoder) GenerateFile(ctx context.Context, paymentIDs []uuid.UUID) (*File, error) {
	return e.GenerateFileTo(ctx, paymentIDs, nil)
}

// GenerateFileTo is GenerateFile with the content published through sink. The file is
// staged before the batch is saved and only committed once the save succeeds, so a
// failed write leaves every payment pending.
func (e *Encoder) GenerateFileTo(ctx context.Context, paymentIDs []uuid.UUID, sink Sink) (*File, error) {
	payments, err := e.store.GetPendingPayments(ctx, uniqueIDs(paymentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	if len(payments) == 0 {
		return nil, domainerror.ErrEmptyBatch
	}
	if skipped := len(uniqueIDs(paymentIDs)) - len(payments); skipped > 0 {
		e.logger.Warn("Skipping payments that are not pending", logging.F(logging.FieldCount, skipped))
	}

	traceBSB, err := formatBSB(e.cfg.TraceBSB)
	if err != nil {
		return nil, &domainerror.ValidationError{Field: "trace_bsb", Reason: err.Error()}
	}

	details := make([]Detail, 0, len(payments))
	ids := make([]uuid.UUID, 0, len(payments))
	var total int64
	for _, p := range payments {
		d, err := e.detail(p, traceBSB)
		if err != nil {
			return nil, err
		}
		total += p.Amount
		details = append(details, d)
		ids = append(ids, p.ID)
	}
	if total > maxFieldAmount {
		return nil, &domainerror.ValidationError{Field: "total", Reason: fmt.Sprintf("%d exceeds the 10-digit file total", total)}
	}

	now := e.now()
	n, err := e.seq.Next(ctx, sequence.BatchScope(now))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate batch sequence: %w", err)
	}
	if n > maxDailyFiles {
		return nil, fmt.Errorf("batch file for %s: %w", dateutils.ToISODate(now), domainerror.ErrSequenceExhausted)
	}

	header := Header{
		Sequence:       int(n),
		BankCode:       e.cfg.BankCode,
		OriginatorName: e.cfg.OriginatorName,
		OriginatorID:   e.cfg.OriginatorID,
		Description:    e.cfg.Description,
		ProcessingDate: now,
	}
	batch := models.PaymentBatchFile{
		ID:           uuid.New(),
		Filename:     Filename(e.cfg.FilenamePrefix, e.cfg.Extension, now, int(n)),
		Sequence:     int(n),
		TotalAmount:  total,
		PaymentCount: len(details),
		GeneratedAt:  now,
	}
	file := &File{Content: Render(header, details), Filename: batch.Filename, Batch: batch}

	var staged Staged
	if sink != nil {
		if staged, err = sink.Stage(file); err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", batch.Filename, err)
		}
	}

	if err := e.store.SaveBatch(ctx, batch, ids); err != nil {
		if staged != nil {
			if derr := staged.Discard(); derr != nil {
				e.logger.WithError(derr).Warn("Failed to discard staged payment file")
			}
		}
		return nil, fmt.Errorf("failed to save batch %s: %w", batch.Filename, err)
	}
	if staged != nil {
		if err := staged.Commit(); err != nil {
			return nil, fmt.Errorf("batch %s saved but its file was not published: %w", batch.Filename, err)
		}
		file.Path = staged.Path()
	}

	e.logger.Info("Payment file generated",
		logging.F(logging.FieldBatchFile, batch.Filename),
		logging.F(logging.FieldBatchID, batch.ID.String()),
		logging.F(logging.FieldPaymentCount, batch.PaymentCount),
		logging.F(logging.FieldTotal, batch.TotalAmount))

	return file, nil
}

func (e *Encoder) detail(p models.PaymentInstruction, traceBSB string) (Detail, error) {
	if p.Amount <= 0 {
		return Detail{}, &domainerror.ValidationError{Field: "amount", Reason: fmt.Sprintf("payment %s has non-positive amount %d", p.ID, p.Amount)}
	}
	bsb, err := formatBSB(p.BSB)
	if err != nil {
		return Detail{}, &domainerror.ValidationError{Field: "bsb", Reason: fmt.Sprintf("payment %s: %v", p.ID, err)}
	}
	return Detail{
		BSB:           bsb,
		AccountNumber: p.AccountNumber,
		Amount:        p.Amount,
		AccountName:   p.AccountName,
		Reference:     p.LodgementReference(),
		TraceBSB:      traceBSB,
		TraceAccount:  e.cfg.TraceAccount,
		Remitter:      e.cfg.RemitterName,
	}, nil
}

// MarkSubmitted records that the bank accepted a batch.
func (e *Encoder) MarkSubmitted(ctx context.Context, batchID uuid.UUID, bankReference string) (*models.PaymentBatchFile, error) {
	if bankReference == "" {
		return nil, &domainerror.ValidationError{Field: "bank_reference", Reason: "must not be empty"}
	}
	batch, err := e.store.MarkBatchSubmitted(ctx, batchID, bankReference, e.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to mark batch %s submitted: %w", batchID, err)
	}
	e.logger.Info("Payment file submitted",
		logging.F(logging.FieldBatchFile, batch.Filename),
		logging.F("bank_reference", bankReference))
	return batch, nil
}

// MarkCleared records that payments settled, which also marks their claims and invoices paid.
func (e *Encoder) MarkCleared(ctx context.Context, paymentIDs []uuid.UUID) error {
	ids := uniqueIDs(paymentIDs)
	if len(ids) == 0 {
		return &domainerror.ValidationError{Field: "payment_ids", Reason: "at least one payment is required"}
	}
	if err := e.store.MarkPaymentsCleared(ctx, ids, e.now().UTC()); err != nil {
		return fmt.Errorf("failed to mark payments cleared: %w", err)
	}
	e.logger.Info("Payments cleared", logging.F(logging.FieldPaymentCount, len(ids)))
	return nil
}

// Filename returns PREFIX-DDMMYY-NNN.ext.
func Filename(prefix, ext string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d.%s", prefix, dateutils.ToDDMMYY(day), seq, ext)
}

var filenamePattern = regexp.MustCompile(`-(\d{6})-(\d{3})\.[^.]+$`)

// BatchSequence returns the allocator scope and counter value of an existing batch,
// so stores can continue numbering after imported files. The day comes from the
// filename, falling back to the generation time when the name does not parse.
func BatchSequence(b models.PaymentBatchFile) (scope string, value int64) {
	if m := filenamePattern.FindStringSubmatch(b.Filename); m != nil {
		if n, err := strconv.ParseInt(m[2], 10, 64); err == nil {
			return sequence.BatchScopePrefix + m[1], n
		}
	}
	return sequence.BatchScope(b.GeneratedAt), int64(b.Sequence)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
