// Package dateutils provides the date parsing and formatting used by invoice extraction,
// claim references and bank files.
package dateutils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date layouts used throughout the application.
const (
	DateLayoutISO     = "2006-01-02"
	DateLayoutCompact = "20060102"
	DateLayoutDDMMYY  = "020106"
)

var (
	dmyPattern   = regexp.MustCompile(`\b(\d{1,2})([/.\-])(\d{1,2})([/.\-])(\d{4}|\d{2})\b`)
	dMonYPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?[\s\-]+(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?,?[\s\-]+(\d{4})\b`)
	isoPattern   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// ParseInvoiceDate finds the first parseable date in text. Formats are tried in order:
// day/month/year (separated by '/', '-' or '.'), day month-name year, then ISO year-month-day.
// The result is midnight UTC. ok is false when nothing parses.
func ParseInvoiceDate(text string) (date time.Time, ok bool) {
	for _, m := range dmyPattern.FindAllStringSubmatch(text, -1) {
		if m[2] != m[4] {
			continue
		}
		if d, ok := buildDate(m[5], m[3], m[1]); ok {
			return d, true
		}
	}

	for _, m := range dMonYPattern.FindAllStringSubmatch(text, -1) {
		month, found := monthsByPrefix[strings.ToLower(m[2])[:3]]
		if !found {
			continue
		}
		if d, ok := buildDate(m[3], strconv.Itoa(int(month)), m[1]); ok {
			return d, true
		}
	}

	for _, m := range isoPattern.FindAllStringSubmatch(text, -1) {
		if d, ok := buildDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}

	return time.Time{}, false
}

// buildDate validates the components by round-tripping them through time.Date,
// which rejects values such as 31/02.
func buildDate(yearStr, monthStr, dayStr string) (time.Time, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	if len(yearStr) == 2 {
		year += 2000
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// DateOnly truncates t to midnight UTC of its calendar day in t's own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ToISODate formats a time.Time value as YYYY-MM-DD.
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// ToCompact formats a date as YYYYMMDD, as used in claim references.
func ToCompact(date time.Time) string {
	return date.Format(DateLayoutCompact)
}

// ToDDMMYY formats a date as DDMMYY, as used in bank file headers and filenames.
func ToDDMMYY(date time.Time) string {
	return date.Format(DateLayoutDDMMYY)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
