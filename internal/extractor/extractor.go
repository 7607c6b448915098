// Package extractor turns unordered OCR text lines into a structured invoice record.
//
// Extraction never fails. Each field is recovered independently and left nil when it
// cannot be found; a reviewer completes whatever is missing.
package extractor

import (
	"regexp"
	"strings"
	"time"

	"fjacquet/claimflow/internal/currencyutils"
	"fjacquet/claimflow/internal/dateutils"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/textutils"

	"github.com/shopspring/decimal"
)

// DefaultMaxQuantity is the exclusive upper bound for a plausible line quantity.
var DefaultMaxQuantity = decimal.NewFromInt(10000)

// Extractor extracts invoice fields from OCR lines. It holds no mutable state and
// is safe for concurrent use.
type Extractor struct {
	logger      logging.Logger
	now         func() time.Time
	maxQuantity decimal.Decimal
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock used for the default service date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMaxQuantity overrides the exclusive upper bound for line quantities.
func WithMaxQuantity(max decimal.Decimal) Option {
	return func(e *Extractor) {
		if max.IsPositive() {
			e.maxQuantity = max
		}
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(logger logging.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		logger:      logging.OrDefault(logger),
		now:         time.Now,
		maxQuantity: DefaultMaxQuantity,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract builds an ExtractedInvoiceData from recognized lines. Non line-level units are ignored.
func (e *Extractor) Extract(lines []models.OCRLine) models.ExtractedInvoiceData {
	texts := make([]string, 0, len(lines))
	kept := make([]models.OCRLine, 0, len(lines))
	for _, l := range lines {
		if !l.IsLine() {
			continue
		}
		kept = append(kept, l)
		texts = append(texts, l.Text)
	}

	data := models.ExtractedInvoiceData{
		Confidence:    averageConfidence(kept),
		InvoiceNumber: firstString(texts, textutils.ExtractInvoiceNumber),
		InvoiceDate:   invoiceDate(texts),
		Total:         lastLabelledAmount(texts, totalPattern, subtotalLabel, taxLabelBefore),
		GST:           firstLabelledAmount(stripGSTQualifiers(texts), gstPattern, nil, nil),
		Subtotal:      firstLabelledAmount(texts, subtotalPattern, nil, nil),
		ABN:           firstString(texts, textutils.ExtractABN),
		NDISNumber:    firstString(texts, textutils.ExtractNDISNumber),
		LineItems:     e.lineItems(texts),
	}

	if data.Subtotal == nil && data.Total != nil && data.GST != nil {
		derived := *data.Total - *data.GST
		data.Subtotal = &derived
	}

	e.logMisses(data)
	return data
}

func (e *Extractor) logMisses(data models.ExtractedInvoiceData) {
	missing := make([]string, 0, 6)
	if data.InvoiceNumber == nil {
		missing = append(missing, "invoice_number")
	}
	if data.InvoiceDate == nil {
		missing = append(missing, "invoice_date")
	}
	if data.Total == nil {
		missing = append(missing, "total")
	}
	if data.ABN == nil {
		missing = append(missing, "abn")
	}
	if data.NDISNumber == nil {
		missing = append(missing, "ndis_number")
	}
	e.logger.Debug("Invoice extraction finished",
		logging.F(logging.FieldConfidence, data.Confidence),
		logging.F(logging.FieldCount, len(data.LineItems)),
		logging.F("missing", strings.Join(missing, ",")))
}

// averageConfidence scales per-line percentages to [0,1]. Lines without a value are skipped.
func averageConfidence(lines []models.OCRLine) float64 {
	var sum float64
	var n int
	for _, l := range lines {
		if l.Confidence == nil {
			continue
		}
		sum += *l.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return clamp01(sum / float64(n) / 100)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func firstString(texts []string, find func(string) (string, bool)) *string {
	for _, t := range texts {
		if v, ok := find(t); ok {
			return &v
		}
	}
	return nil
}

// invoiceDate searches strongly labelled lines, then generically labelled lines that
// are not due/service dates, then the whole document.
func invoiceDate(texts []string) *time.Time {
	for _, t := range texts {
		if strongDateLabel.MatchString(t) {
			if d, ok := dateutils.ParseInvoiceDate(t); ok {
				return &d
			}
		}
	}
	for _, t := range texts {
		if genericDateLabel.MatchString(t) && !nonInvoiceDate.MatchString(t) {
			if d, ok := dateutils.ParseInvoiceDate(t); ok {
				return &d
			}
		}
	}
	if d, ok := dateutils.ParseInvoiceDate(strings.Join(texts, "\n")); ok {
		return &d
	}
	return nil
}

// labelledAmounts collects the amounts matched by re. Lines matching skip are ignored,
// as are matches whose preceding text matches notAfter.
func labelledAmounts(texts []string, re, skip, notAfter *regexp.Regexp) []int64 {
	var out []int64
	for _, t := range texts {
		if skip != nil && skip.MatchString(t) {
			continue
		}
		for _, m := range re.FindAllStringSubmatchIndex(t, -1) {
			if notAfter != nil && notAfter.MatchString(t[:m[0]]) {
				continue
			}
			if cents, ok := acceptLabelledAmount(t[m[2]:m[3]]); ok {
				out = append(out, cents)
			}
		}
	}
	return out
}

func lastLabelledAmount(texts []string, re, skip, notAfter *regexp.Regexp) *int64 {
	all := labelledAmounts(texts, re, skip, notAfter)
	if len(all) == 0 {
		return nil
	}
	v := all[len(all)-1]
	return &v
}

func firstLabelledAmount(texts []string, re, skip, notAfter *regexp.Regexp) *int64 {
	all := labelledAmounts(texts, re, skip, notAfter)
	if len(all) == 0 {
		return nil
	}
	v := all[0]
	return &v
}

// acceptLabelledAmount rejects bare integers, which after a label are more often
// counts or codes than money.
func acceptLabelledAmount(token string) (int64, bool) {
	if !strings.ContainsAny(token, "$.") {
		return 0, false
	}
	cents, err := currencyutils.ToMinorUnits(token)
	if err != nil || cents < 0 {
		return 0, false
	}
	return cents, true
}

func stripGSTQualifiers(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = gstQualifier.ReplaceAllString(t, " ")
	}
	return out
}
