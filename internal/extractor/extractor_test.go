package extractor

import (
	"sync"
	"testing"
	"time"

	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

func newTestExtractor() *Extractor {
	return NewExtractor(logging.NewMockLogger(), WithClock(func() time.Time { return fixedNow }))
}

func conf(v float64) *float64 { return &v }

func linesOf(texts ...string) []models.OCRLine {
	out := make([]models.OCRLine, 0, len(texts))
	for _, t := range texts {
		out = append(out, models.OCRLine{Text: t, Type: models.BlockTypeLine})
	}
	return out
}

func sampleInvoice() []models.OCRLine {
	return []models.OCRLine{
		{Text: "Bright Futures Support Services", Confidence: conf(99), Type: "LINE"},
		{Text: "ABN: 11 111 111 111", Confidence: conf(97), Type: "LINE"},
		{Text: "TAX INVOICE", Confidence: conf(98), Type: "LINE"},
		{Text: "Invoice No: INV-10234", Confidence: conf(95), Type: "LINE"},
		{Text: "Invoice Date: 14/10/2026", Confidence: conf(93), Type: "LINE"},
		{Text: "Due Date: 28/10/2026", Confidence: conf(94), Type: "LINE"},
		{Text: "NDIS Number: 430 123 456", Confidence: conf(96), Type: "LINE"},
		{Text: "Support", Confidence: conf(10), Type: "WORD"},
		{Text: "15_042_0128_1_3 Support Coordination 2.0 hr $193.99 $387.98", Confidence: conf(90), Type: "LINE"},
		{Text: "01_011_0107_1_1 Assistance with self-care 07/10/2026 3 hours $65.47 $196.41", Confidence: conf(88), Type: "LINE"},
		{Text: "Subtotal: $584.39", Confidence: conf(92), Type: "LINE"},
		{Text: "GST: $0.00", Confidence: conf(92), Type: "LINE"},
		{Text: "Total: $584.39", Confidence: conf(91), Type: "LINE"},
	}
}

func TestExtract_FullInvoice(t *testing.T) {
	data := newTestExtractor().Extract(sampleInvoice())

	require.NotNil(t, data.InvoiceNumber)
	assert.Equal(t, "INV-10234", *data.InvoiceNumber)

	require.NotNil(t, data.InvoiceDate)
	assert.Equal(t, time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC), *data.InvoiceDate)

	require.NotNil(t, data.ABN)
	assert.Equal(t, "11111111111", *data.ABN)
	require.NotNil(t, data.NDISNumber)
	assert.Equal(t, "430123456", *data.NDISNumber)

	require.NotNil(t, data.Total)
	assert.Equal(t, int64(58439), *data.Total)
	require.NotNil(t, data.Subtotal)
	assert.Equal(t, int64(58439), *data.Subtotal)
	require.NotNil(t, data.GST)
	assert.Equal(t, int64(0), *data.GST)

	require.Len(t, data.LineItems, 2)
	second := data.LineItems[1]
	assert.Equal(t, "01_011_0107_1_1", second.ItemCode)
	assert.Equal(t, "01", second.CategoryCode)
	assert.Equal(t, "Assistance with self-care", second.ItemName)
	assert.True(t, second.Quantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, int64(6547), second.UnitPrice)
	assert.Equal(t, int64(19641), second.LineTotal)
	assert.Equal(t, time.Date(2026, time.October, 7, 0, 0, 0, 0, time.UTC), second.ServiceDate)

	expected := (99.0 + 97 + 98 + 95 + 93 + 94 + 96 + 90 + 88 + 92 + 92 + 91) / 12 / 100
	assert.InDelta(t, expected, data.Confidence, 1e-9)
}

func TestExtract_SupportCoordinationLine(t *testing.T) {
	data := newTestExtractor().Extract(linesOf("15_042_0128_1_3 Support Coordination 2.0 hr $193.99 $387.98"))

	require.Len(t, data.LineItems, 1)
	item := data.LineItems[0]
	assert.Equal(t, "15_042_0128_1_3", item.ItemCode)
	assert.Equal(t, "15", item.CategoryCode)
	assert.Equal(t, "Support Coordination", item.ItemName)
	assert.True(t, item.Quantity.Equal(decimal.RequireFromString("2.0")))
	assert.Equal(t, int64(19399), item.UnitPrice)
	assert.Equal(t, int64(38798), item.LineTotal)
	assert.Equal(t, int64(0), item.GST)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), item.ServiceDate)
}

func TestExtract_LineItemVariants(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		found     bool
		code      string
		itemName  string
		quantity  string
		unitPrice int64
		lineTotal int64
	}{
		{
			name: "single amount uses it for both prices", line: "04-104-0125-6-1 Community access $120.00",
			found: true, code: "04-104-0125-6-1", itemName: "Community access", quantity: "1", unitPrice: 12000, lineTotal: 12000,
		},
		{
			name: "name before code", line: "Therapy session 15_056_0128_1_3 1 each $214.41",
			found: true, code: "15_056_0128_1_3", itemName: "Therapy session", quantity: "1", unitPrice: 21441, lineTotal: 21441,
		},
		{
			name: "no name falls back to code", line: "07_001_0106_8_3 $50.00 $100.00",
			found: true, code: "07_001_0106_8_3", itemName: "07_001_0106_8_3", quantity: "1", unitPrice: 5000, lineTotal: 10000,
		},
		{
			name: "out of range quantity defaults to one", line: "15_042_0128_1_3 Coordination 20000 hrs $1.00 $2.00",
			found: true, code: "15_042_0128_1_3", itemName: "Coordination", quantity: "1", unitPrice: 100, lineTotal: 200,
		},
		{
			name: "thousands separators", line: "01_011_0107_1_1 Night support 10 hrs $1,234.50 $12,345.00",
			found: true, code: "01_011_0107_1_1", itemName: "Night support", quantity: "10", unitPrice: 123450, lineTotal: 1234500,
		},
		{
			name: "multiplier keyword", line: "01_011_0107_1_1 Transport 4 x $12.50 $50.00",
			found: true, code: "01_011_0107_1_1", itemName: "Transport", quantity: "4", unitPrice: 1250, lineTotal: 5000,
		},
		{
			name: "dollar amounts without cents", line: "01_011_0107_1_1 Assistance 2 hrs $75 $150",
			found: true, code: "01_011_0107_1_1", itemName: "Assistance", quantity: "2", unitPrice: 7500, lineTotal: 15000,
		},
		{
			name: "mixed dollar and bare amounts", line: "01_011_0107_1_1 Assistance 2 hrs 75.00 $150",
			found: true, code: "01_011_0107_1_1", itemName: "Assistance", quantity: "2", unitPrice: 7500, lineTotal: 15000,
		},
		{name: "bare integers are not amounts", line: "01_011_0107_1_1 Assistance 2 hrs 75 150", found: false},
		{name: "no amount is skipped", line: "15_042_0128_1_3 Support Coordination 2 hrs", found: false},
		{name: "zero amount is skipped", line: "15_042_0128_1_3 Support Coordination $0.00", found: false},
		{name: "not a support item code", line: "Ref 15_042_01 $10.00", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := newTestExtractor().Extract(linesOf(tt.line))
			if !tt.found {
				assert.Empty(t, data.LineItems)
				return
			}
			require.Len(t, data.LineItems, 1)
			item := data.LineItems[0]
			assert.Equal(t, tt.code, item.ItemCode)
			assert.Equal(t, tt.code[:2], item.CategoryCode)
			assert.Equal(t, tt.itemName, item.ItemName)
			assert.True(t, item.Quantity.Equal(decimal.RequireFromString(tt.quantity)), item.Quantity.String())
			assert.Equal(t, tt.unitPrice, item.UnitPrice)
			assert.Equal(t, tt.lineTotal, item.LineTotal)
		})
	}
}

func TestExtract_Totals(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		subtotal *int64
		gst      *int64
		total    *int64
	}{
		{
			name:  "last total wins",
			lines: []string{"Total: $50.00", "Total: $100.00", "Total Amount Due: $110.00"},
			total: i64(11000),
		},
		{
			name:     "subtotal derived from total and gst",
			lines:    []string{"GST (10%): $10.00", "Total inc GST: $110.00"},
			subtotal: i64(10000),
			gst:      i64(1000),
			total:    i64(11000),
		},
		{
			name:     "sub total is not the grand total",
			lines:    []string{"Total: $110.00", "Sub Total: $100.00"},
			subtotal: i64(10000),
			total:    i64(11000),
		},
		{
			name:     "inc gst phrase is not the gst amount",
			lines:    []string{"Amount inc GST $220.00", "Total GST: $20.00", "Balance Due: $220.00"},
			subtotal: i64(20000),
			gst:      i64(2000),
			total:    i64(22000),
		},
		{
			name:     "gst total after the grand total",
			lines:    []string{"Subtotal: $100.00", "Total: $110.00", "GST Total: $10.00"},
			subtotal: i64(10000),
			gst:      i64(1000),
			total:    i64(11000),
		},
		{
			name:     "tax total on the same line as the total",
			lines:    []string{"Total: $55.00  Tax Total $5.00"},
			subtotal: i64(5000),
			gst:      i64(500),
			total:    i64(5500),
		},
		{
			name:  "total without cents",
			lines: []string{"Total: $150"},
			total: i64(15000),
		},
		{
			name:  "total too large for minor units is dropped",
			lines: []string{"Total: $99999999999999999999.00"},
		},
		{
			name:  "bare integers after labels are ignored",
			lines: []string{"Total 5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := newTestExtractor().Extract(linesOf(tt.lines...))
			assert.Equal(t, tt.subtotal, data.Subtotal)
			assert.Equal(t, tt.gst, data.GST)
			assert.Equal(t, tt.total, data.Total)
		})
	}
}

func TestExtract_DateFallbacks(t *testing.T) {
	data := newTestExtractor().Extract(linesOf("Due Date: 30/11/2026", "Issued on 2026-10-01 by accounts"))
	require.NotNil(t, data.InvoiceDate)
	assert.Equal(t, time.Date(2026, time.November, 30, 0, 0, 0, 0, time.UTC), *data.InvoiceDate)

	data = newTestExtractor().Extract(linesOf("Date: 3 March 2026", "Due Date: 30/11/2026"))
	require.NotNil(t, data.InvoiceDate)
	assert.Equal(t, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), *data.InvoiceDate)
}

func TestExtract_EmptyInput(t *testing.T) {
	data := newTestExtractor().Extract(nil)

	assert.Nil(t, data.InvoiceNumber)
	assert.Nil(t, data.InvoiceDate)
	assert.Nil(t, data.Subtotal)
	assert.Nil(t, data.GST)
	assert.Nil(t, data.Total)
	assert.Nil(t, data.ABN)
	assert.Nil(t, data.NDISNumber)
	assert.Empty(t, data.LineItems)
	assert.Equal(t, 0.0, data.Confidence)
}

func TestExtract_ConfidenceBounds(t *testing.T) {
	tests := []struct {
		name     string
		lines    []models.OCRLine
		expected float64
	}{
		{name: "no confidence values", lines: linesOf("a", "b"), expected: 0},
		{name: "partial values", lines: []models.OCRLine{{Text: "a", Confidence: conf(80)}, {Text: "b"}}, expected: 0.8},
		{name: "over range clamps", lines: []models.OCRLine{{Text: "a", Confidence: conf(150)}}, expected: 1},
		{name: "negative clamps", lines: []models.OCRLine{{Text: "a", Confidence: conf(-5)}}, expected: 0},
		{name: "word units ignored", lines: []models.OCRLine{{Text: "a", Confidence: conf(50), Type: "WORD"}, {Text: "b", Confidence: conf(100)}}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := newTestExtractor().Extract(tt.lines)
			assert.InDelta(t, tt.expected, data.Confidence, 1e-9)
			assert.GreaterOrEqual(t, data.Confidence, 0.0)
			assert.LessOrEqual(t, data.Confidence, 1.0)
		})
	}
}

func TestExtract_Garbage(t *testing.T) {
	data := newTestExtractor().Extract(linesOf("%%%", "$$$", "12_34", "Total: $", "ABN: abc"))
	assert.Nil(t, data.Total)
	assert.Nil(t, data.ABN)
	assert.Empty(t, data.LineItems)
}

func TestExtract_Concurrent(t *testing.T) {
	e := newTestExtractor()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data := e.Extract(sampleInvoice())
			assert.Len(t, data.LineItems, 2)
		}()
	}
	wg.Wait()
}

func i64(v int64) *int64 { return &v }

func TestExtract_ServiceDateIgnoresItemCodeDigits(t *testing.T) {
	data := newTestExtractor().Extract(linesOf("04-104-0125-6-1 Community access $120.00"))
	require.Len(t, data.LineItems, 1)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), data.LineItems[0].ServiceDate)
}
