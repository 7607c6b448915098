package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BlockTypeLine marks a line-level recognition unit. Word and region units carry other types.
const BlockTypeLine = "LINE"

// OCRLine is one unit of recognized text as delivered by the OCR service.
// Confidence is a percentage in [0,100] when present.
type OCRLine struct {
	Text       string   `json:"text" yaml:"text" csv:"text"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty" csv:"confidence"`
	Type       string   `json:"type,omitempty" yaml:"type,omitempty" csv:"type"`
}

// IsLine reports whether the unit is line-level, ignoring case. An empty type is treated as a line.
func (l OCRLine) IsLine() bool {
	t := strings.TrimSpace(l.Type)
	return t == "" || strings.EqualFold(t, BlockTypeLine)
}

// ExtractedLineItem is a support-item line recovered from OCR text.
type ExtractedLineItem struct {
	ItemCode     string          `json:"item_code" yaml:"item_code"`
	ItemName     string          `json:"item_name" yaml:"item_name"`
	CategoryCode string          `json:"category_code" yaml:"category_code"`
	ServiceDate  time.Time       `json:"service_date" yaml:"service_date"`
	Quantity     decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitPrice    int64           `json:"unit_price" yaml:"unit_price"`
	LineTotal    int64           `json:"line_total" yaml:"line_total"`
	GST          int64           `json:"gst" yaml:"gst"`
}

// ExtractedInvoiceData is the best-effort structured view of an invoice.
// Every pointer field is nil when the value could not be recovered.
type ExtractedInvoiceData struct {
	InvoiceNumber *string             `json:"invoice_number" yaml:"invoice_number"`
	InvoiceDate   *time.Time          `json:"invoice_date" yaml:"invoice_date"`
	Subtotal      *int64              `json:"subtotal" yaml:"subtotal"`
	GST           *int64              `json:"gst" yaml:"gst"`
	Total         *int64              `json:"total" yaml:"total"`
	ABN           *string             `json:"abn" yaml:"abn"`
	NDISNumber    *string             `json:"ndis_number" yaml:"ndis_number"`
	LineItems     []ExtractedLineItem `json:"line_items" yaml:"line_items"`
	Confidence    float64             `json:"confidence" yaml:"confidence"`
}
