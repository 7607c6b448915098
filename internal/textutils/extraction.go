// Package textutils provides identifier extraction and normalization for invoice text.
package textutils

import (
	"regexp"
	"strings"
)

var (
	abnPattern = regexp.MustCompile(`(?i)\bA\.?B\.?N\.?\s*(?:no\.?|number|#)?\s*[:\-]?\s*(\d(?:\s?\d){10})\b`)

	ndisPattern = regexp.MustCompile(`(?i)\b(?:NDIS|participant)\s*(?:participant\s*)?(?:no\.?|number|num|#|id)\s*[:\-]?\s*(\d(?:\s?\d){8})\b`)

	invoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:tax\s+)?inv(?:oice)?\.?\s*(?:no\.?|number|num|#|ref(?:erence)?)\s*[:#]?\s*([A-Z0-9][A-Z0-9\-_/.]*[A-Z0-9])`),
		regexp.MustCompile(`(?i)\b(INV[\-_]?\d[A-Z0-9\-_/]*)`),
	}

	whitespace = regexp.MustCompile(`\s+`)
	digitRune  = regexp.MustCompile(`\d`)
)

// ExtractABN finds a label-anchored 11-digit business number and returns it without spaces.
func ExtractABN(text string) (string, bool) {
	m := abnPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return StripWhitespace(m[1]), true
}

// ExtractNDISNumber finds a label-anchored 9-digit participant number and returns it without spaces.
func ExtractNDISNumber(text string) (string, bool) {
	m := ndisPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return StripWhitespace(m[1]), true
}

// ExtractInvoiceNumber returns the first invoice-number-looking token. Tokens without
// a digit are ignored so that labels such as "Invoice No: Date" do not match.
func ExtractInvoiceNumber(text string) (string, bool) {
	for _, re := range invoiceNumberPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if digitRune.MatchString(m[1]) {
				return m[1], true
			}
		}
	}
	return "", false
}

// StripWhitespace removes every whitespace character.
func StripWhitespace(s string) string {
	return whitespace.ReplaceAllString(s, "")
}

// GroupABN renders a compact ABN in the conventional "NN NNN NNN NNN" grouping.
// Values that are not 11 digits are returned unchanged.
func GroupABN(abn string) string {
	compact := StripWhitespace(abn)
	if len(compact) != 11 {
		return abn
	}
	return compact[0:2] + " " + compact[2:5] + " " + compact[5:8] + " " + compact[8:11]
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the normalized domain part of an address, or "" if there is none.
func EmailDomain(email string) string {
	email = NormalizeEmail(email)
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}

// ContainsLetter reports whether s has at least one letter.
func ContainsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
