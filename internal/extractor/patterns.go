package extractor

import "regexp"

// Amount tokens following a label. A token is only accepted as money when it carries
// a dollar sign or a two-digit decimal part (see acceptLabelledAmount).
const labelledAmount = `\s*[:\-]?\s*(?:AUD\s*)?(\$?\s?\d[\d,]*(?:\.\d{2})?)`

var (
	totalPattern = regexp.MustCompile(`(?i)\b(?:total(?:\s+amount)?(?:\s+(?:due|payable))?(?:\s*\(?\s*inc(?:l(?:uding)?)?\.?\s*gst\s*\)?)?|amount\s+(?:due|payable)|balance\s+due)` + labelledAmount)

	subtotalPattern = regexp.MustCompile(`(?i)\b(?:sub[\s\-]?total|total\s+ex(?:cl(?:uding)?)?\.?\s*gst|amount\s+ex(?:cl(?:uding)?)?\.?\s*gst)` + labelledAmount)

	subtotalLabel = regexp.MustCompile(`(?i)\bsub[\s\-]?total|\bex(?:cl(?:uding)?)?\.?\s*gst\b`)

	// "GST Total" and "Tax Total" label the tax, not the grand total.
	taxLabelBefore = regexp.MustCompile(`(?i)\b(?:gst|tax)\s*$`)

	gstPattern = regexp.MustCompile(`(?i)\b(?:gst|tax)(?:\s+(?:amount|total|payable))?\s*(?:\(\s*10\s*%\s*\))?` + labelledAmount)

	// "inc GST" / "ex GST" qualify another amount; they are not the GST amount itself.
	gstQualifier = regexp.MustCompile(`(?i)\b(?:inc|incl|including|ex|excl|excluding)\.?\s*gst\b`)

	strongDateLabel  = regexp.MustCompile(`(?i)\b(?:invoice\s+date|date\s+of\s+(?:issue|invoice)|issue(?:d)?\s+date|date\s+issued|dated)\b`)
	genericDateLabel = regexp.MustCompile(`(?i)\bdate\b`)
	nonInvoiceDate   = regexp.MustCompile(`(?i)\b(?:due|service|period|from|to|birth|dob)\b`)

	supportItemCode = regexp.MustCompile(`(?:^|[^0-9])((\d{2})[_\-]\d{3}[_\-]\d{4}[_\-]\d[_\-]\d)(?:[^0-9]|$)`)

	// Dollar-signed amounts may omit cents; bare numbers need a two-digit decimal part.
	lineAmount = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+(?:\.\d{2})?|\d+(?:\.\d{2})?)|(\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2})`)

	quantityPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hrs?|hours?|ea|each|units?|x)\b`)

	dateLike = regexp.MustCompile(`(?i)\b\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2})\b|\b\d{4}-\d{1,2}-\d{1,2}\b|\b\d{1,2}(?:st|nd|rd|th)?[\s\-]+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?[\s\-]+\d{4}\b`)
)
