package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusIncluded  PaymentStatus = "included_in_file"
	PaymentStatusSubmitted PaymentStatus = "submitted"
	PaymentStatusCleared   PaymentStatus = "cleared"
)

// Payment is a credit instruction owed to a provider for a claim.
type Payment struct {
	ID            uuid.UUID     `json:"id" yaml:"id"`
	ClaimID       uuid.UUID     `json:"claim_id" yaml:"claim_id"`
	Amount        int64         `json:"amount" yaml:"amount"`
	BSB           string        `json:"bsb" yaml:"bsb"`
	AccountNumber string        `json:"account_number" yaml:"account_number"`
	AccountName   string        `json:"account_name" yaml:"account_name"`
	Reference     string        `json:"reference,omitempty" yaml:"reference,omitempty"`
	Status        PaymentStatus `json:"status" yaml:"status"`
	BatchID       *uuid.UUID    `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at" yaml:"created_at"`
	SubmittedAt   *time.Time    `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty"`
	ClearedAt     *time.Time    `json:"cleared_at,omitempty" yaml:"cleared_at,omitempty"`
}

// PaymentInstruction is a pending payment resolved together with its claim reference.
type PaymentInstruction struct {
	Payment
	ClaimReference string `json:"claim_reference" yaml:"claim_reference"`
}

// LodgementReference is the payment reference, falling back to the claim reference.
func (p PaymentInstruction) LodgementReference() string {
	if p.Reference != "" {
		return p.Reference
	}
	return p.ClaimReference
}

// PaymentBatchFile describes a generated bank file.
type PaymentBatchFile struct {
	ID            uuid.UUID  `json:"id" yaml:"id"`
	Filename      string     `json:"filename" yaml:"filename"`
	Sequence      int        `json:"sequence" yaml:"sequence"`
	TotalAmount   int64      `json:"total_amount" yaml:"total_amount"`
	PaymentCount  int        `json:"payment_count" yaml:"payment_count"`
	GeneratedAt   time.Time  `json:"generated_at" yaml:"generated_at"`
	BankReference string     `json:"bank_reference,omitempty" yaml:"bank_reference,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty" yaml:"submitted_at,omitempty"`
	ClearedAt     *time.Time `json:"cleared_at,omitempty" yaml:"cleared_at,omitempty"`
}
