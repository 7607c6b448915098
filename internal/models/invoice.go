package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the review/claim lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusPendingReview InvoiceStatus = "pending_review"
	InvoiceStatusApproved      InvoiceStatus = "approved"
	InvoiceStatusRejected      InvoiceStatus = "rejected"
	InvoiceStatusClaimed       InvoiceStatus = "claimed"
	InvoiceStatusPaid          InvoiceStatus = "paid"
)

// Invoice is the persisted provider invoice after human review.
type Invoice struct {
	ID            uuid.UUID     `json:"id" yaml:"id"`
	InvoiceNumber string        `json:"invoice_number" yaml:"invoice_number"`
	ProviderID    *uuid.UUID    `json:"provider_id,omitempty" yaml:"provider_id,omitempty"`
	ParticipantID *uuid.UUID    `json:"participant_id,omitempty" yaml:"participant_id,omitempty"`
	SenderEmail   string        `json:"sender_email,omitempty" yaml:"sender_email,omitempty"`
	MatchMethod   MatchMethod   `json:"match_method,omitempty" yaml:"match_method,omitempty"`
	InvoiceDate   time.Time     `json:"invoice_date" yaml:"invoice_date"`
	Subtotal      int64         `json:"subtotal" yaml:"subtotal"`
	GST           int64         `json:"gst" yaml:"gst"`
	Total         int64         `json:"total" yaml:"total"`
	Status        InvoiceStatus `json:"status" yaml:"status"`
	Lines         []InvoiceLine `json:"lines,omitempty" yaml:"lines,omitempty"`
	CreatedAt     time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" yaml:"updated_at"`
	DeletedAt     *time.Time    `json:"deleted_at,omitempty" yaml:"deleted_at,omitempty"`
}

// IsResolved reports whether either side of the invoice was matched.
func (i Invoice) IsResolved() bool {
	return i.ProviderID != nil || i.ParticipantID != nil
}

// InvoiceLine is a support item billed on an invoice.
type InvoiceLine struct {
	ID           uuid.UUID       `json:"id" yaml:"id"`
	InvoiceID    uuid.UUID       `json:"invoice_id" yaml:"invoice_id"`
	ItemCode     string          `json:"item_code" yaml:"item_code"`
	ItemName     string          `json:"item_name" yaml:"item_name"`
	CategoryCode string          `json:"category_code" yaml:"category_code"`
	ServiceDate  time.Time       `json:"service_date" yaml:"service_date"`
	Quantity     decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitPrice    int64           `json:"unit_price" yaml:"unit_price"`
	LineTotal    int64           `json:"line_total" yaml:"line_total"`
	GST          int64           `json:"gst" yaml:"gst"`
}
