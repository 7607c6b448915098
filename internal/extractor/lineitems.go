package extractor

import (
	"strings"

	"fjacquet/claimflow/internal/currencyutils"
	"fjacquet/claimflow/internal/dateutils"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/textutils"

	"github.com/shopspring/decimal"
)

// span is a half-open byte range within a line.
type span struct{ start, end int }

func (e *Extractor) lineItems(texts []string) []models.ExtractedLineItem {
	items := make([]models.ExtractedLineItem, 0)
	for _, t := range texts {
		if item, ok := e.lineItem(t); ok {
			items = append(items, item)
		}
	}
	return items
}

// lineItem parses a single support-item line. Lines without a support item code or
// without any positive amount are not line items.
func (e *Extractor) lineItem(line string) (models.ExtractedLineItem, bool) {
	loc := supportItemCode.FindStringSubmatchIndex(line)
	if loc == nil {
		return models.ExtractedLineItem{}, false
	}
	code := line[loc[2]:loc[3]]
	codeSpan := span{loc[2], loc[3]}

	masked := []span{codeSpan}
	quantity, qtySpan, hasQty := e.quantity(line)
	if hasQty {
		masked = append(masked, qtySpan)
	}
	for _, d := range dateLike.FindAllStringIndex(line, -1) {
		masked = append(masked, span{d[0], d[1]})
	}

	amounts := positiveAmounts(blank(line, masked))
	if len(amounts) == 0 {
		return models.ExtractedLineItem{}, false
	}
	lineTotal := amounts[len(amounts)-1]
	unitPrice := lineTotal
	if len(amounts) >= 2 {
		unitPrice = amounts[len(amounts)-2]
	}

	serviceDate, ok := dateutils.ParseInvoiceDate(blank(line, []span{codeSpan}))
	if !ok {
		serviceDate = dateutils.DateOnly(e.now())
	}

	return models.ExtractedLineItem{
		ItemCode:     code,
		ItemName:     itemName(line, codeSpan, code),
		CategoryCode: line[loc[4]:loc[5]],
		ServiceDate:  serviceDate,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		LineTotal:    lineTotal,
		GST:          0,
	}, true
}

// quantity returns the number preceding a unit keyword, defaulting to 1 when absent
// or outside (0, maxQuantity). The span is reported whenever a candidate was found
// so that it is not mistaken for an amount.
func (e *Extractor) quantity(line string) (decimal.Decimal, span, bool) {
	one := decimal.NewFromInt(1)
	for _, m := range quantityPattern.FindAllStringSubmatchIndex(line, -1) {
		start, end := m[2], m[3]
		if start > 0 && strings.ContainsRune("$.,0123456789", rune(line[start-1])) {
			continue
		}
		q, err := decimal.NewFromString(line[start:end])
		if err != nil {
			continue
		}
		if !q.IsPositive() || q.GreaterThanOrEqual(e.maxQuantity) {
			return one, span{start, end}, true
		}
		return q, span{start, end}, true
	}
	return one, span{}, false
}

// positiveAmounts collects currency-looking tokens in document order, skipping zero values.
func positiveAmounts(line string) []int64 {
	var out []int64
	for _, m := range lineAmount.FindAllStringSubmatchIndex(line, -1) {
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		if start > 0 && strings.ContainsRune(".,0123456789", rune(line[start-1])) {
			continue
		}
		if end < len(line) && strings.ContainsRune(".,0123456789", rune(line[end])) {
			continue
		}
		cents, err := currencyutils.ToMinorUnits(line[start:end])
		if err != nil || cents <= 0 {
			continue
		}
		out = append(out, cents)
	}
	return out
}

// blank replaces the given spans with spaces, keeping byte offsets stable.
func blank(line string, spans []span) string {
	b := []byte(line)
	for _, s := range spans {
		for i := s.start; i < s.end && i < len(b); i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

// itemName prefers descriptive text before the code, then the free text that follows
// it up to the first number or amount, and finally the code itself.
func itemName(line string, code span, fallback string) string {
	before := cleanName(line[:code.start])
	if textutils.ContainsLetter(before) {
		return before
	}

	after := line[code.end:]
	if cut := strings.IndexAny(after, "$0123456789"); cut >= 0 {
		after = after[:cut]
	}
	after = cleanName(after)
	if textutils.ContainsLetter(after) {
		return after
	}
	return fallback
}

func cleanName(s string) string {
	return strings.Trim(strings.Join(strings.Fields(s), " "), " -:|,;")
}
