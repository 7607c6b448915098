package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClaimReferencePattern matches a well-formed claim reference.
var ClaimReferencePattern = regexp.MustCompile(`^CLM-\d{8}-\d{4}$`)

// ClaimStatus is the outcome state of a claim.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusPaid     ClaimStatus = "paid"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Claim is created once per approved invoice.
type Claim struct {
	ID            uuid.UUID   `json:"id" yaml:"id"`
	Reference     string      `json:"reference" yaml:"reference"`
	InvoiceID     uuid.UUID   `json:"invoice_id" yaml:"invoice_id"`
	ParticipantID *uuid.UUID  `json:"participant_id" yaml:"participant_id"`
	ProviderID    *uuid.UUID  `json:"provider_id" yaml:"provider_id"`
	Total         int64       `json:"total" yaml:"total"`
	Status        ClaimStatus `json:"status" yaml:"status"`
	CreatedBy     string      `json:"created_by" yaml:"created_by"`
	CreatedAt     time.Time   `json:"created_at" yaml:"created_at"`
	Lines         []ClaimLine `json:"lines" yaml:"lines"`
}

// ClaimLine is a verbatim copy of an invoice line.
type ClaimLine struct {
	ID              uuid.UUID       `json:"id" yaml:"id"`
	ClaimID         uuid.UUID       `json:"claim_id" yaml:"claim_id"`
	SourceLineID    uuid.UUID       `json:"source_line_id" yaml:"source_line_id"`
	SourceInvoiceID uuid.UUID       `json:"source_invoice_id" yaml:"source_invoice_id"`
	ItemCode        string          `json:"item_code" yaml:"item_code"`
	ItemName        string          `json:"item_name" yaml:"item_name"`
	CategoryCode    string          `json:"category_code" yaml:"category_code"`
	ServiceDate     time.Time       `json:"service_date" yaml:"service_date"`
	Quantity        decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitPrice       int64           `json:"unit_price" yaml:"unit_price"`
	LineTotal       int64           `json:"line_total" yaml:"line_total"`
	GST             int64           `json:"gst" yaml:"gst"`
}
